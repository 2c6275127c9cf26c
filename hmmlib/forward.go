package hmmlib

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// LogAlpha calculates the forward messages for one sequence.  Row t of the
// returned T x K matrix holds log P(y_0..y_t, state at t = k).
//
// loginit holds the initial log-probabilities (length K), trans the per-step
// log transition matrices (T or T-1 of them), logemis the T x K emission
// log-likelihoods and known the optional state constraints.  A time point
// whose constraint excludes every state carrying forward mass gives an all
// -Inf row, which propagates; it is not an error.
func LogAlpha(loginit []float64, trans Transitions, logemis mat.Matrix, known Constraints) (*mat.Dense, error) {

	ntime, nstate, err := checkShapes(loginit, trans, logemis, known, true)
	if err != nil {
		return nil, err
	}
	if err := checkInputNaN(loginit, trans, logemis, ntime, nstate); err != nil {
		return nil, err
	}

	alpha := logAlpha(loginit, trans, logemis, known, ntime, nstate)
	if err := checkNaN("alpha", alpha); err != nil {
		return nil, err
	}

	return alpha, nil
}

func logAlpha(loginit []float64, trans Transitions, logemis mat.Matrix, known Constraints,
	ntime, nstate int) *mat.Dense {

	alpha := mat.NewDense(ntime, nstate, nil)
	terms := make([]float64, nstate)

	// Initial time point
	row := alpha.RawRowView(0)
	for st := 0; st < nstate; st++ {
		row[st] = loginit[st] + logemis.At(0, st)
	}
	known.mask(0, row)

	for t := 1; t < ntime; t++ {

		prev := alpha.RawRowView(t - 1)
		row = alpha.RawRowView(t)
		lt := trans.At(t - 1)

		// Transition is from st1 at time t-1 to st2 at time t.
		for st2 := 0; st2 < nstate; st2++ {
			if !known.Allows(t, st2) {
				row[st2] = math.Inf(-1)
				continue
			}
			for st1 := 0; st1 < nstate; st1++ {
				terms[st1] = prev[st1] + lt.At(st1, st2)
			}
			row[st2] = logemis.At(t, st2) + LogSumExp(terms)
		}
	}

	return alpha
}
