package hmmlib

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

const (
	// Null value for an observation.  When the first component of an
	// observed vector is NullObs the time point carries no information
	// and contributes zero to every state's log-likelihood.
	NullObs float64 = -9999

	// The Poisson mean parameters are never allowed to go below this value
	minPoissonMean = 1e-8
)

// EmissionModel is the contract an emission sub-model fitted for one hidden
// state exposes to the E-step.  x holds the covariates (T rows, may be nil
// for models that ignore them) and y the observations (T rows).
type EmissionModel interface {
	LogLikePerSample(x, y mat.Matrix) ([]float64, error)
}

// EmissionMatrix evaluates one emission model per state and assembles the
// T x K emission log-likelihood matrix consumed by the E-step.
func EmissionMatrix(models []EmissionModel, x, y mat.Matrix) (*mat.Dense, error) {

	if len(models) == 0 {
		return nil, shapeErrorf("no emission models")
	}
	if y == nil {
		return nil, shapeErrorf("observations are nil")
	}
	ntime, _ := y.Dims()
	if x != nil {
		if r, _ := x.Dims(); r != ntime {
			return nil, shapeErrorf("%d covariate rows, %d observation rows", r, ntime)
		}
	}

	logemis := mat.NewDense(ntime, len(models), nil)
	for st, m := range models {
		llf, err := m.LogLikePerSample(x, y)
		if err != nil {
			return nil, fmt.Errorf("emission model for state %d: %w", st, err)
		}
		if len(llf) != ntime {
			return nil, shapeErrorf("emission model for state %d returned %d values for %d time points", st, len(llf), ntime)
		}
		logemis.SetCol(st, llf)
	}

	return logemis, nil
}

// Gaussian is a normal emission model with independent components.  The
// mean of component j is Mean[j], plus x*Coef[:, j] when Coef is set.
type Gaussian struct {

	// Intercepts of the component means
	Mean []float64

	// Optional P x D regression coefficients on the covariates
	Coef *mat.Dense

	// Component standard deviations
	Std []float64
}

// LogLikePerSample implements EmissionModel.
func (g *Gaussian) LogLikePerSample(x, y mat.Matrix) ([]float64, error) {

	ntime, ncomp := y.Dims()
	if len(g.Mean) != ncomp || len(g.Std) != ncomp {
		return nil, shapeErrorf("gaussian has %d means and %d SDs for %d components", len(g.Mean), len(g.Std), ncomp)
	}
	for j, sd := range g.Std {
		if !(sd > 0) {
			return nil, fmt.Errorf("gaussian SD for component %d is %v", j, sd)
		}
	}

	mean, err := g.means(x, ntime, ncomp)
	if err != nil {
		return nil, err
	}

	llf := make([]float64, ntime)
	for t := 0; t < ntime; t++ {
		if y.At(t, 0) == NullObs {
			continue
		}
		for j := 0; j < ncomp; j++ {
			nd := distuv.Normal{Mu: mean.At(t, j), Sigma: g.Std[j]}
			llf[t] += nd.LogProb(y.At(t, j))
		}
	}

	return llf, nil
}

// means returns the T x D matrix of component means.
func (g *Gaussian) means(x mat.Matrix, ntime, ncomp int) (*mat.Dense, error) {

	mean := mat.NewDense(ntime, ncomp, nil)
	if g.Coef != nil {
		if x == nil {
			return nil, shapeErrorf("gaussian has coefficients but no covariates")
		}
		_, np := x.Dims()
		if r, c := g.Coef.Dims(); r != np || c != ncomp {
			return nil, shapeErrorf("gaussian coefficients are %dx%d, need %dx%d", r, c, np, ncomp)
		}
		mean.Mul(x, g.Coef)
	}
	for t := 0; t < ntime; t++ {
		row := mean.RawRowView(t)
		for j := range row {
			row[j] += g.Mean[j]
		}
	}

	return mean, nil
}

// Poisson is a count emission model with independent components.
type Poisson struct {

	// Component means
	Mean []float64
}

// LogLikePerSample implements EmissionModel.  The covariates are not used.
func (p *Poisson) LogLikePerSample(_, y mat.Matrix) ([]float64, error) {

	ntime, ncomp := y.Dims()
	if len(p.Mean) != ncomp {
		return nil, shapeErrorf("poisson has %d means for %d components", len(p.Mean), ncomp)
	}

	dists := make([]distuv.Poisson, ncomp)
	for j, mn := range p.Mean {
		if mn < minPoissonMean {
			mn = minPoissonMean
		}
		dists[j] = distuv.Poisson{Lambda: mn}
	}

	llf := make([]float64, ntime)
	for t := 0; t < ntime; t++ {
		if y.At(t, 0) == NullObs {
			continue
		}
		for j := range dists {
			llf[t] += dists[j].LogProb(y.At(t, j))
		}
	}

	return llf, nil
}
