// Package hmmsim simulates state and observation sequences from an
// input-output HMM.
package hmmsim

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/kshedden/iohmm/hmmlib"
)

// Emitter draws one observation vector for a fixed state.
type Emitter interface {

	// NComp returns the length of the observation vector.
	NComp() int

	// Sample writes an observation into dst.
	Sample(rng *rand.Rand, dst []float64)
}

// Gaussian emits independent normal components.
type Gaussian struct {
	Mean []float64
	Std  []float64
}

// NComp implements Emitter.
func (g *Gaussian) NComp() int {
	return len(g.Mean)
}

// Sample implements Emitter.
func (g *Gaussian) Sample(rng *rand.Rand, dst []float64) {
	for j := range dst {
		dst[j] = g.Mean[j] + rng.NormFloat64()*g.Std[j]
	}
}

// Poisson emits independent count components.
type Poisson struct {
	Mean []float64
}

// NComp implements Emitter.
func (p *Poisson) NComp() int {
	return len(p.Mean)
}

// Sample implements Emitter.
func (p *Poisson) Sample(rng *rand.Rand, dst []float64) {
	for j := range dst {
		dst[j] = genPoisson(rng, p.Mean[j])
	}
}

// Generate a discrete random variable from the given probability vector,
// which must sum to 1.
func genDiscrete(rng *rand.Rand, pr []float64) int {

	u := rng.Float64()
	var cp float64
	for j, p := range pr {
		cp += p
		if u < cp {
			return j
		}
	}

	return len(pr) - 1
}

// Knuth's method, adequate for the small means used in simulations.
func genPoisson(rng *rand.Rand, lambda float64) float64 {

	l := math.Exp(-lambda)
	k := 0
	p := 1.0
	for {
		p *= rng.Float64()
		if p <= l {
			break
		}
		k++
	}

	return float64(k)
}

// GenStates draws a state sequence of length ntime from the initial
// log-probabilities and the per-step log transition matrices.
func GenStates(rng *rand.Rand, loginit []float64, trans hmmlib.Transitions, ntime int) []int {

	nstate := len(loginit)
	pr := make([]float64, nstate)
	states := make([]int, ntime)

	for j, v := range loginit {
		pr[j] = math.Exp(v)
	}
	states[0] = genDiscrete(rng, pr)

	for t := 1; t < ntime; t++ {
		lt := trans.At(t - 1)
		for j := range pr {
			pr[j] = math.Exp(lt.At(states[t-1], j))
		}
		states[t] = genDiscrete(rng, pr)
	}

	return states
}

// GenObs draws one observation row per time point from the emitter of the
// state at that time.  Rows whose state is hmmlib.NullState are filled with
// hmmlib.NullObs.
func GenObs(rng *rand.Rand, states []int, emitters []Emitter) *mat.Dense {

	ncomp := emitters[0].NComp()
	obs := mat.NewDense(len(states), ncomp, nil)

	for t, st := range states {
		row := obs.RawRowView(t)
		if st == hmmlib.NullState {
			for j := range row {
				row[j] = hmmlib.NullObs
			}
			continue
		}
		emitters[st].Sample(rng, row)
	}

	return obs
}

// MaskNull returns a copy of states with the first nhead and the last
// ntail positions set to hmmlib.NullState.
func MaskNull(states []int, nhead, ntail int) []int {

	y := make([]int, len(states))
	copy(y, states)
	for j := 0; j < nhead && j < len(y); j++ {
		y[j] = hmmlib.NullState
	}
	for j := 0; j < ntail && j < len(y); j++ {
		y[len(y)-1-j] = hmmlib.NullState
	}

	return y
}

// StickyTrans returns a transition probability matrix with p on the
// diagonal and the remaining mass spread evenly, as used for generating
// test data.
func StickyTrans(nstate int, p float64) [][]float64 {

	tr := make([][]float64, nstate)
	for i := range tr {
		tr[i] = make([]float64, nstate)
		for j := range tr[i] {
			switch {
			case nstate == 1:
				tr[i][j] = 1
			case i == j:
				tr[i][j] = p
			default:
				tr[i][j] = (1 - p) / float64(nstate-1)
			}
		}
	}

	return tr
}
