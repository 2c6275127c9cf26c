package hmmlib

import (
	"gonum.org/v1/gonum/mat"
)

// LogBeta calculates the backward messages for one sequence.  Row t of the
// returned T x K matrix holds log P(y_t+1..y_T-1 | state at t = k); the
// last row is zero since an empty suffix has probability one.  States at
// t+1 that are inconsistent with a known label are excluded from the sum
// that produces row t.
func LogBeta(trans Transitions, logemis mat.Matrix, known Constraints) (*mat.Dense, error) {

	ntime, nstate, err := checkShapes(nil, trans, logemis, known, false)
	if err != nil {
		return nil, err
	}
	if err := checkInputNaN(nil, trans, logemis, ntime, nstate); err != nil {
		return nil, err
	}

	beta := logBeta(trans, logemis, known, ntime, nstate)
	if err := checkNaN("beta", beta); err != nil {
		return nil, err
	}

	return beta, nil
}

func logBeta(trans Transitions, logemis mat.Matrix, known Constraints, ntime, nstate int) *mat.Dense {

	// The final row stays at zero.
	beta := mat.NewDense(ntime, nstate, nil)

	lby := make([]float64, nstate)
	terms := make([]float64, nstate)

	for t := ntime - 2; t >= 0; t-- {

		next := beta.RawRowView(t + 1)
		row := beta.RawRowView(t)
		lt := trans.At(t)

		nextTerms(lby, logemis, next, known, t+1)

		// From st1 at t to st2 at t+1.
		for st1 := 0; st1 < nstate; st1++ {
			for st2 := 0; st2 < nstate; st2++ {
				terms[st2] = lt.At(st1, st2) + lby[st2]
			}
			row[st1] = LogSumExp(terms)
		}
	}

	return beta
}

// nextTerms fills lby with the emission plus backward message at time t,
// masked by the constraint at t.  It is the part of the backward sum and
// of the pairwise posterior that does not depend on the previous state.
func nextTerms(lby []float64, logemis mat.Matrix, beta []float64, known Constraints, t int) {
	for st := range lby {
		lby[st] = logemis.At(t, st) + beta[st]
	}
	known.mask(t, lby)
}
