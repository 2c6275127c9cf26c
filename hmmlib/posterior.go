package hmmlib

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Sequence holds the E-step inputs for one trajectory.  The emission and
// transition quantities are produced upstream by the sub-models for the
// current parameter estimate.
type Sequence struct {

	// Initial state log-probabilities, length K
	LogInit []float64

	// Per-step log transition matrices
	Trans Transitions

	// Emission log-likelihoods, T x K
	LogEmis mat.Matrix

	// Known states, nil if the sequence is unsupervised
	Known Constraints
}

// Posterior is the E-step result for one sequence.
type Posterior struct {

	// Single state posteriors, T x K
	LogGamma *mat.Dense

	// Consecutive state pair posteriors, T-1 matrices of size K x K.  Entry
	// (i, j) of LogEpsilon[t] is log P(state t = i, state t+1 = j | data).
	LogEpsilon []*mat.Dense

	// The sequence log-likelihood from the forward messages
	LogLikelihood float64

	// The forward and backward messages the posteriors were built from
	LogAlpha *mat.Dense
	LogBeta  *mat.Dense

	// The sequence log-likelihood derived from the backward messages at
	// time 0, kept for Verify.
	backwardLLF float64
}

// Posteriors runs the forward and backward passes and combines them into
// the single state and pairwise posteriors and the sequence
// log-likelihood.  It has no side effects and may be called concurrently
// on independent sequences.
//
// If the sequence has zero likelihood (LogLikelihood is -Inf), every
// posterior entry is -Inf.
func Posteriors(loginit []float64, trans Transitions, logemis mat.Matrix, known Constraints) (*Posterior, error) {

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
	beta := logBeta(trans, logemis, known, ntime, nstate)
	if err := checkNaN("beta", beta); err != nil {
		return nil, err
	}

	post := &Posterior{
		LogAlpha:      alpha,
		LogBeta:       beta,
		LogLikelihood: LogSumExp(alpha.RawRowView(ntime - 1)),
		LogEpsilon:    make([]*mat.Dense, 0, ntime-1),
	}

	// The same scalar from the other end of the chain.
	lb := make([]float64, nstate)
	floats.AddTo(lb, loginit, beta.RawRowView(0))
	for st := range lb {
		lb[st] += logemis.At(0, st)
	}
	known.mask(0, lb)
	post.backwardLLF = LogSumExp(lb)

	llf := post.LogLikelihood
	if math.IsInf(llf, -1) {
		post.LogGamma = newNegInf(ntime, nstate)
		for t := 0; t < ntime-1; t++ {
			post.LogEpsilon = append(post.LogEpsilon, newNegInf(nstate, nstate))
		}
		return post, nil
	}

	gamma := mat.NewDense(ntime, nstate, nil)
	gamma.Add(alpha, beta)
	gamma.Apply(func(_, _ int, v float64) float64 { return v - llf }, gamma)
	if err := checkNaN("gamma", gamma); err != nil {
		return nil, err
	}
	post.LogGamma = gamma

	lby := make([]float64, nstate)
	for t := 0; t < ntime-1; t++ {
		lt := trans.At(t)
		fp := alpha.RawRowView(t)
		nextTerms(lby, logemis, beta.RawRowView(t+1), known, t+1)

		eps := mat.NewDense(nstate, nstate, nil)
		for st1 := 0; st1 < nstate; st1++ {
			row := eps.RawRowView(st1)
			for st2 := 0; st2 < nstate; st2++ {
				row[st2] = fp[st1] + lt.At(st1, st2) + lby[st2] - llf
			}
		}
		// State is the origin of the offending pair.
		if st1, _, ok := findNaN(eps); ok {
			return nil, &NumericalFault{Quantity: "epsilon", Time: t, State: st1}
		}
		post.LogEpsilon = append(post.LogEpsilon, eps)
	}

	return post, nil
}

// Posteriors runs the E-step on the sequence.
func (seq *Sequence) Posteriors() (*Posterior, error) {
	return Posteriors(seq.LogInit, seq.Trans, seq.LogEmis, seq.Known)
}

// Verify checks the internal consistency of the posteriors: every gamma
// row and every epsilon matrix sums to one, epsilon marginalizes to gamma
// along both axes, and the forward and backward derivations of the
// log-likelihood agree.  tol bounds the absolute error on the probability
// scale.  A zero-likelihood result only needs both derivations to be -Inf.
func (post *Posterior) Verify(tol float64) error {

	if math.IsInf(post.LogLikelihood, -1) || math.IsInf(post.backwardLLF, -1) {
		if post.LogLikelihood != post.backwardLLF {
			return fmt.Errorf("forward log-likelihood %v, backward %v", post.LogLikelihood, post.backwardLLF)
		}
		return nil
	}

	if d := math.Abs(post.LogLikelihood - post.backwardLLF); d > tol*math.Max(1, math.Abs(post.LogLikelihood)) {
		return fmt.Errorf("forward log-likelihood %v, backward %v", post.LogLikelihood, post.backwardLLF)
	}

	gamma := ExpDense(post.LogGamma)
	ntime, _ := gamma.Dims()
	for t := 0; t < ntime; t++ {
		if s := floats.Sum(gamma.RawRowView(t)); math.Abs(s-1) > tol {
			return fmt.Errorf("gamma at t=%d sums to %v", t, s)
		}
	}

	for t, leps := range post.LogEpsilon {
		if s := math.Exp(logSumExpAll(leps)); math.Abs(s-1) > tol {
			return fmt.Errorf("epsilon at t=%d sums to %v", t, s)
		}

		eps := ExpDense(leps)
		nstate, _ := eps.Dims()
		for st := 0; st < nstate; st++ {
			out := floats.Sum(eps.RawRowView(st))
			if math.Abs(out-gamma.At(t, st)) > tol {
				return fmt.Errorf("epsilon at t=%d, row %d sums to %v, gamma is %v", t, st, out, gamma.At(t, st))
			}
			in := mat.Sum(eps.ColView(st))
			if math.Abs(in-gamma.At(t+1, st)) > tol {
				return fmt.Errorf("epsilon at t=%d, column %d sums to %v, gamma at t+1 is %v", t, st, in, gamma.At(t+1, st))
			}
		}
	}

	return nil
}
