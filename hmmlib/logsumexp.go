package hmmlib

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// LogSumExp returns log(sum(exp(x))) without overflow or underflow.  The
// maximum is shifted out before exponentiating.  If every element of x is
// -Inf (or x is empty) the result is -Inf.  A NaN anywhere in x yields NaN.
func LogSumExp(x []float64) float64 {

	if len(x) == 0 {
		return math.Inf(-1)
	}

	for _, v := range x {
		if math.IsNaN(v) {
			return math.NaN()
		}
	}

	// floats.LogSumExp returns the maximum directly when it is infinite,
	// so an all -Inf vector gives -Inf rather than NaN.
	return floats.LogSumExp(x)
}

// LogSumExpRows reduces each row of m, returning a vector with one
// value per row.
func LogSumExpRows(m mat.Matrix) []float64 {

	r, c := m.Dims()
	wk := make([]float64, c)
	out := make([]float64, r)
	for i := 0; i < r; i++ {
		mat.Row(wk, i, m)
		out[i] = LogSumExp(wk)
	}

	return out
}

// LogSumExpCols reduces each column of m, returning a vector with one
// value per column.
func LogSumExpCols(m mat.Matrix) []float64 {

	r, c := m.Dims()
	wk := make([]float64, r)
	out := make([]float64, c)
	for j := 0; j < c; j++ {
		mat.Col(wk, j, m)
		out[j] = LogSumExp(wk)
	}

	return out
}

// logSumExpAll reduces every element of m.
func logSumExpAll(m mat.Matrix) float64 {
	return LogSumExp(LogSumExpRows(m))
}
