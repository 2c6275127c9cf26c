package hmmlib

import (
	"math"
	"math/rand"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"
)

// reference is a three state, twelve step fixture with known forward and
// backward probabilities and posteriors.
type reference struct {
	Init       []float64     `yaml:"init"`
	Trans      [][]float64   `yaml:"trans"`
	Emission   [][]float64   `yaml:"emission"`
	Alpha      [][]float64   `yaml:"alpha"`
	Beta       [][]float64   `yaml:"beta"`
	Likelihood float64       `yaml:"likelihood"`
	Gamma      [][]float64   `yaml:"gamma"`
	Epsilon    [][][]float64 `yaml:"epsilon"`
}

func loadReference(t *testing.T) *reference {
	t.Helper()

	b, err := os.ReadFile("testdata/reference.yaml")
	require.NoError(t, err)

	var ref reference
	require.NoError(t, yaml.Unmarshal(b, &ref))

	return &ref
}

// inputs returns the fixture on the log scale.  The transition matrix is
// repeated once per step, as in the IOHMM setting.
func (ref *reference) inputs() ([]float64, StepTransitions, *mat.Dense) {

	ntime := len(ref.Emission)
	lt := LogMatrix(ref.Trans)
	trans := make(StepTransitions, ntime-1)
	for t := range trans {
		trans[t] = lt
	}

	return LogVec(ref.Init), trans, LogMatrix(ref.Emission)
}

// randomInputs draws a random sequence of ntime points over nstate states
// with a different transition matrix at every step.
func randomInputs(rng *rand.Rand, ntime, nstate int) ([]float64, StepTransitions, *mat.Dense) {

	randDist := func() []float64 {
		x := make([]float64, nstate)
		for j := range x {
			x[j] = 0.05 + rng.Float64()
		}
		normalizeSum(x, 0)
		return LogVec(x)
	}

	loginit := randDist()
	trans := make(StepTransitions, ntime-1)
	for t := range trans {
		trans[t] = mat.NewDense(nstate, nstate, nil)
		for i := 0; i < nstate; i++ {
			trans[t].SetRow(i, randDist())
		}
	}

	logemis := mat.NewDense(ntime, nstate, nil)
	for t := 0; t < ntime; t++ {
		for st := 0; st < nstate; st++ {
			logemis.Set(t, st, -3*rng.Float64())
		}
	}

	return loginit, trans, logemis
}

// bruteForce enumerates every state path consistent with known and returns
// the state and pair posteriors on the probability scale, and the total
// path probability.
func bruteForce(loginit []float64, trans Transitions, logemis mat.Matrix, known Constraints) (*mat.Dense, []*mat.Dense, float64) {

	ntime, nstate := logemis.Dims()
	gamma := mat.NewDense(ntime, nstate, nil)
	eps := make([]*mat.Dense, ntime-1)
	for t := range eps {
		eps[t] = mat.NewDense(nstate, nstate, nil)
	}

	path := make([]int, ntime)
	var total float64
	for {
		ok := true
		for t, st := range path {
			if !known.Allows(t, st) {
				ok = false
				break
			}
		}

		if ok {
			lp := loginit[path[0]] + logemis.At(0, path[0])
			for t := 1; t < ntime; t++ {
				lp += trans.At(t-1).At(path[t-1], path[t]) + logemis.At(t, path[t])
			}
			p := math.Exp(lp)
			total += p
			for t, st := range path {
				gamma.Set(t, st, gamma.At(t, st)+p)
				if t < ntime-1 {
					eps[t].Set(st, path[t+1], eps[t].At(st, path[t+1])+p)
				}
			}
		}

		// Advance the path
		j := 0
		for ; j < ntime; j++ {
			path[j]++
			if path[j] < nstate {
				break
			}
			path[j] = 0
		}
		if j == ntime {
			break
		}
	}

	if total > 0 {
		gamma.Scale(1/total, gamma)
		for _, e := range eps {
			e.Scale(1/total, e)
		}
	}

	return gamma, eps, total
}

func requireDenseInDelta(t *testing.T, want, got mat.Matrix, delta float64, msg string) {
	t.Helper()

	r, c := want.Dims()
	gr, gc := got.Dims()
	require.Equal(t, r, gr, msg)
	require.Equal(t, c, gc, msg)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			require.InDelta(t, want.At(i, j), got.At(i, j), delta, "%s at (%d, %d)", msg, i, j)
		}
	}
}
