package hmmlib

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// LogVec returns the elementwise log of x.
func LogVec(x []float64) []float64 {
	y := make([]float64, len(x))
	for i, v := range x {
		y[i] = math.Log(v)
	}
	return y
}

// ExpDense returns the elementwise exponential of m as a new matrix.
func ExpDense(m mat.Matrix) *mat.Dense {
	var e mat.Dense
	e.Apply(func(_, _ int, v float64) float64 { return math.Exp(v) }, m)
	return &e
}

// newNegInf allocates an r x c matrix filled with -Inf.
func newNegInf(r, c int) *mat.Dense {
	data := make([]float64, r*c)
	fill(data, math.Inf(-1))
	return mat.NewDense(r, c, data)
}

// Set every element of x to v
func fill(x []float64, v float64) {
	for j := range x {
		x[j] = v
	}
}

func argmax(x []float64) int {
	j := 0
	v := x[0]
	for i := 1; i < len(x); i++ {
		if x[i] > v {
			v = x[i]
			j = i
		}
	}

	return j
}

// findNaN returns the first (row, col) of m holding a NaN.
func findNaN(m *mat.Dense) (int, int, bool) {
	r, _ := m.Dims()
	for i := 0; i < r; i++ {
		for j, v := range m.RawRowView(i) {
			if math.IsNaN(v) {
				return i, j, true
			}
		}
	}
	return 0, 0, false
}

// checkNaN returns a *NumericalFault if the T x K matrix m holds a NaN.
func checkNaN(quantity string, m *mat.Dense) error {
	if t, st, ok := findNaN(m); ok {
		return &NumericalFault{Quantity: quantity, Time: t, State: st}
	}
	return nil
}

// checkInputNaN scans the inputs of one sequence before any message is
// computed, so that a NaN is reported even where a constraint would mask it.
// loginit may be nil.  The shapes must already have been checked.
func checkInputNaN(loginit []float64, trans Transitions, logemis mat.Matrix, ntime, nstate int) error {

	for st, v := range loginit {
		if math.IsNaN(v) {
			return &NumericalFault{Quantity: "initial", Time: 0, State: st}
		}
	}

	for t := 0; t < ntime; t++ {
		for st := 0; st < nstate; st++ {
			if math.IsNaN(logemis.At(t, st)) {
				return &NumericalFault{Quantity: "emission", Time: t, State: st}
			}
		}
	}

	for t := 0; t < ntime-1; t++ {
		lt := trans.At(t)
		for i := 0; i < nstate; i++ {
			for j := 0; j < nstate; j++ {
				if math.IsNaN(lt.At(i, j)) {
					return &NumericalFault{Quantity: "transition", Time: t, State: i}
				}
			}
		}
	}

	return nil
}
