package hmmlib

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// MostLikely uses the Viterbi algorithm to find the most probable state
// sequence for one sequence, under the same per-step transitions and
// constraints as the forward-backward passes.  It returns the path and its
// joint log-probability.  If no path has positive probability the path is
// nil and the log-probability is -Inf.
func MostLikely(loginit []float64, trans Transitions, logemis mat.Matrix, known Constraints) ([]int, float64, error) {

	ntime, nstate, err := checkShapes(loginit, trans, logemis, known, true)
	if err != nil {
		return nil, 0, err
	}
	if err := checkInputNaN(loginit, trans, logemis, ntime, nstate); err != nil {
		return nil, 0, err
	}

	lpr := mat.NewDense(ntime, nstate, nil)
	lpt := make([]int, ntime*nstate)
	wk := make([]float64, nstate)

	row := lpr.RawRowView(0)
	for st := 0; st < nstate; st++ {
		row[st] = loginit[st] + logemis.At(0, st)
	}
	known.mask(0, row)

	for t := 1; t < ntime; t++ {

		prev := lpr.RawRowView(t - 1)
		row = lpr.RawRowView(t)
		lt := trans.At(t - 1)

		// From st1 to st2
		for st2 := 0; st2 < nstate; st2++ {
			if !known.Allows(t, st2) {
				row[st2] = math.Inf(-1)
				continue
			}
			for st1 := 0; st1 < nstate; st1++ {
				wk[st1] = prev[st1] + lt.At(st1, st2)
			}

			// The best previous state
			jj := argmax(wk)
			lpt[t*nstate+st2] = jj
			row[st2] = wk[jj] + logemis.At(t, st2)
		}
	}

	if err := checkNaN("viterbi", lpr); err != nil {
		return nil, 0, err
	}

	last := lpr.RawRowView(ntime - 1)
	y := make([]int, ntime)
	y[ntime-1] = argmax(last)
	lp := last[y[ntime-1]]
	if math.IsInf(lp, -1) {
		return nil, lp, nil
	}

	for t := ntime - 2; t >= 0; t-- {
		y[t] = lpt[(t+1)*nstate+y[t+1]]
	}

	return y, lp, nil
}

// MostLikely runs the Viterbi reconstruction on the sequence.
func (seq *Sequence) MostLikely() ([]int, float64, error) {
	return MostLikely(seq.LogInit, seq.Trans, seq.LogEmis, seq.Known)
}

// CompareStates returns the number of positions where the state
// sequences x and y disagree, and the number of positions in which
// x and y are not null.  Panics if the lengths of x and y differ,
// or if there is any position in which exactly one of x and y is
// null.
func CompareStates(x, y []int) (int, int) {

	if len(x) != len(y) {
		panic("Lengths are not equal")
	}

	var e, n int
	for t := range x {
		if (x[t] == NullState) != (y[t] == NullState) {
			panic("inconsistent")
		}
		if x[t] == NullState {
			continue
		}
		if x[t] != y[t] {
			e++
		}
		n++
	}

	return e, n
}
