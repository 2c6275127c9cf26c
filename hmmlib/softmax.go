package hmmlib

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// MultinomialLogit is a fitted softmax regression over covariates.  It is
// the form taken by the initial-state and transition sub-models of an
// IOHMM, and also serves as a categorical emission model.  Only evaluation
// is provided here; fitting belongs to the caller.
type MultinomialLogit struct {

	// Intercepts, one per outcome
	Intercept []float64

	// Optional P x K coefficients
	Coef *mat.Dense
}

// NOutcome returns the number of outcomes.
func (m *MultinomialLogit) NOutcome() int {
	return len(m.Intercept)
}

// LogProb returns the log-probabilities of the outcomes for the covariate
// vector x.  x is ignored when the model has no coefficients.
func (m *MultinomialLogit) LogProb(x []float64) ([]float64, error) {

	eta := make([]float64, len(m.Intercept))
	copy(eta, m.Intercept)

	if m.Coef != nil {
		np, k := m.Coef.Dims()
		if np != len(x) || k != len(eta) {
			return nil, shapeErrorf("logit coefficients are %dx%d for %d covariates and %d outcomes", np, k, len(x), len(eta))
		}
		for p, v := range x {
			floats.AddScaled(eta, v, m.Coef.RawRowView(p))
		}
	}

	floats.AddConst(-LogSumExp(eta), eta)

	return eta, nil
}

// LogLikePerSample implements EmissionModel for a categorical outcome.
// Column 0 of y holds the observed category as 0, 1, ..., NOutcome()-1;
// rows holding NullObs contribute zero.  Row t of x is the covariate
// vector at time t.
func (m *MultinomialLogit) LogLikePerSample(x, y mat.Matrix) ([]float64, error) {

	ntime, _ := y.Dims()
	if x != nil {
		if r, _ := x.Dims(); r != ntime {
			return nil, shapeErrorf("%d covariate rows, %d observation rows", r, ntime)
		}
	} else if m.Coef != nil {
		return nil, shapeErrorf("logit has coefficients but no covariates")
	}

	var xt []float64
	if x != nil {
		_, np := x.Dims()
		xt = make([]float64, np)
	}

	llf := make([]float64, ntime)
	for t := 0; t < ntime; t++ {
		v := y.At(t, 0)
		if v == NullObs {
			continue
		}
		k := int(v)
		if float64(k) != v || k < 0 || k >= m.NOutcome() {
			return nil, fmt.Errorf("observation %v at t=%d is not a category in [0, %d)", v, t, m.NOutcome())
		}
		if x != nil {
			mat.Row(xt, t, x)
		}
		lp, err := m.LogProb(xt)
		if err != nil {
			return nil, err
		}
		llf[t] = lp[k]
	}

	return llf, nil
}

// InitialLogProb evaluates the initial-state model on the covariates of
// the first time point.
func InitialLogProb(m *MultinomialLogit, x mat.Matrix) ([]float64, error) {

	var x0 []float64
	if x != nil {
		x0 = mat.Row(nil, 0, x)
	}

	return m.LogProb(x0)
}

// CovariateTransitions evaluates one transition model per origin state on
// the covariates and returns the T-1 log transition matrices.  The step
// from t to t+1 uses the covariates at time t.
func CovariateTransitions(models []*MultinomialLogit, x mat.Matrix) (StepTransitions, error) {

	nstate := len(models)
	if nstate == 0 {
		return nil, shapeErrorf("no transition models")
	}
	for i, m := range models {
		if m.NOutcome() != nstate {
			return nil, shapeErrorf("transition model for state %d has %d outcomes, need %d", i, m.NOutcome(), nstate)
		}
	}
	if x == nil {
		return nil, shapeErrorf("covariates are nil")
	}

	ntime, np := x.Dims()
	xt := make([]float64, np)
	st := make(StepTransitions, 0, ntime)
	for t := 0; t < ntime-1; t++ {
		mat.Row(xt, t, x)
		lt := mat.NewDense(nstate, nstate, nil)
		for i, m := range models {
			lp, err := m.LogProb(xt)
			if err != nil {
				return nil, fmt.Errorf("transition model for state %d at t=%d: %w", i, t, err)
			}
			lt.SetRow(i, lp)
		}
		st = append(st, lt)
	}

	return st, nil
}
