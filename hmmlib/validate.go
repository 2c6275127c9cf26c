package hmmlib

import (
	"github.com/hashicorp/go-multierror"
	"gonum.org/v1/gonum/mat"
)

// checkShapes verifies that the inputs describe one sequence of ntime
// points over nstate states.  Every violation found is reported; nothing is
// broadcast or truncated.  The initial vector is only checked when
// withInit is true, since the backward pass does not use it.
func checkShapes(loginit []float64, trans Transitions, logemis mat.Matrix, known Constraints,
	withInit bool) (ntime, nstate int, err error) {

	var result *multierror.Error

	if logemis == nil {
		return 0, 0, shapeErrorf("emission log-likelihood matrix is nil")
	}
	ntime, nstate = logemis.Dims()
	if ntime == 0 {
		result = multierror.Append(result, shapeErrorf("sequence has no time points"))
	}
	if nstate == 0 {
		result = multierror.Append(result, shapeErrorf("emission matrix has no states"))
	}

	if withInit && len(loginit) != nstate {
		result = multierror.Append(result,
			shapeErrorf("initial vector has %d states, emission matrix has %d", len(loginit), nstate))
	}

	if trans == nil {
		if ntime > 1 {
			result = multierror.Append(result, shapeErrorf("transitions are nil"))
		}
	} else {
		n := trans.Len()
		if n != ntime && n != ntime-1 {
			result = multierror.Append(result,
				shapeErrorf("%d transition matrices for %d time points, need %d or %d", n, ntime, ntime-1, ntime))
		}
		for t := 0; t < n && t < ntime-1; t++ {
			m := trans.At(t)
			if m == nil {
				result = multierror.Append(result, shapeErrorf("transition matrix %d is nil", t))
				continue
			}
			r, c := m.Dims()
			if r != c {
				result = multierror.Append(result, shapeErrorf("transition matrix %d is %dx%d, not square", t, r, c))
			} else if r != nstate {
				result = multierror.Append(result,
					shapeErrorf("transition matrix %d has %d states, emission matrix has %d", t, r, nstate))
			}
		}
	}

	for t, st := range known {
		if t < 0 || t >= ntime {
			result = multierror.Append(result, shapeErrorf("constraint at t=%d is outside [0, %d)", t, ntime))
		}
		if st < 0 || st >= nstate {
			result = multierror.Append(result, shapeErrorf("constraint at t=%d has state %d, outside [0, %d)", t, st, nstate))
		}
	}

	return ntime, nstate, result.ErrorOrNil()
}
