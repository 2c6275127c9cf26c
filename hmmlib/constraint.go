package hmmlib

import (
	"math"
)

const (
	// NullState marks a time point whose state is unknown.
	NullState int = -9999
)

// Constraints maps a time index to a known state label.  Time points that
// are absent are fully latent.  A nil Constraints is the unsupervised case
// and costs nothing to consult.
type Constraints map[int]int

// FromStates builds Constraints from a state sequence in which unknown
// positions hold NullState.
func FromStates(states []int) Constraints {

	var c Constraints
	for t, st := range states {
		if st == NullState {
			continue
		}
		if c == nil {
			c = make(Constraints)
		}
		c[t] = st
	}

	return c
}

// Known returns the label at time t and whether one exists.
func (c Constraints) Known(t int) (int, bool) {
	if c == nil {
		return 0, false
	}
	st, ok := c[t]
	return st, ok
}

// Allows reports whether state st is consistent with the label at time t.
func (c Constraints) Allows(t, st int) bool {
	k, ok := c.Known(t)
	return !ok || k == st
}

// mask sets every entry of row that is inconsistent with the label at t to
// -Inf.
func (c Constraints) mask(t int, row []float64) {
	k, ok := c.Known(t)
	if !ok {
		return
	}
	for st := range row {
		if st != k {
			row[st] = math.Inf(-1)
		}
	}
}
