package hmmlib

import (
	"gonum.org/v1/gonum/mat"
)

// Transitions gives the log transition probabilities used between
// consecutive time points.  At(t) is a K x K matrix whose (i, j) entry is
// log P(state at t+1 = j | state at t = i).  In an IOHMM these depend on the
// covariates at time t, so every step may have its own matrix.
type Transitions interface {

	// Len returns the number of steps available, which must be T or T-1
	// for a sequence of length T.
	Len() int

	// At returns the log transition matrix for the step from t to t+1.
	At(t int) mat.Matrix
}

// StepTransitions holds one log transition matrix per step.
type StepTransitions []*mat.Dense

// Len implements Transitions.
func (st StepTransitions) Len() int {
	return len(st)
}

// At implements Transitions.  A nil step gives an untyped nil.
func (st StepTransitions) At(t int) mat.Matrix {
	if st[t] == nil {
		return nil
	}
	return st[t]
}

// Stationary is the classical HMM case: the same log transition matrix is
// used at every step.
type Stationary struct {

	// The log transition matrix
	LogTrans *mat.Dense

	// Number of steps the matrix is repeated for
	Steps int
}

// NewStationary returns a Stationary covering a sequence of ntime points.
func NewStationary(logtrans *mat.Dense, ntime int) *Stationary {

	steps := ntime - 1
	if steps < 0 {
		steps = 0
	}

	return &Stationary{
		LogTrans: logtrans,
		Steps:    steps,
	}
}

// Len implements Transitions.
func (s *Stationary) Len() int {
	return s.Steps
}

// At implements Transitions.
func (s *Stationary) At(t int) mat.Matrix {
	if s.LogTrans == nil {
		return nil
	}
	return s.LogTrans
}

// LogMatrix returns the elementwise log of a probability matrix given as
// rows.  It is a convenience for building Transitions and emission inputs
// from probabilities.
func LogMatrix(rows [][]float64) *mat.Dense {

	if len(rows) == 0 {
		return nil
	}

	nr, nc := len(rows), len(rows[0])
	m := mat.NewDense(nr, nc, nil)
	for i, row := range rows {
		m.SetRow(i, LogVec(row))
	}

	return m
}
