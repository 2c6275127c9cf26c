package hmmlib

import (
	"errors"
	"fmt"
)

var (
	// ErrShape is wrapped by every precondition violation on the input
	// dimensions.  It is reported before any computation begins.
	ErrShape = errors.New("hmmlib: malformed input shape")

	// ErrNaN is matched by a *NumericalFault.  A NaN in the messages means an
	// upstream sub-model produced an invalid log-probability; it is never
	// folded into -Inf.
	ErrNaN = errors.New("hmmlib: NaN in messages")
)

// NumericalFault reports the first position at which a NaN was found.
type NumericalFault struct {

	// Which quantity held the NaN: an input ("initial", "emission",
	// "transition") or a derived one ("alpha", "beta", "gamma", "epsilon",
	// "viterbi").
	Quantity string

	// Time index of the offending row
	Time int

	// State index of the offending entry
	State int
}

func (e *NumericalFault) Error() string {
	return fmt.Sprintf("hmmlib: NaN in %s at t=%d, state=%d", e.Quantity, e.Time, e.State)
}

// Is makes errors.Is(err, ErrNaN) true for any NumericalFault.
func (e *NumericalFault) Is(target error) bool {
	return target == ErrNaN
}

func shapeErrorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrShape, fmt.Sprintf(format, args...))
}
