package hmmlib

import (
	"github.com/rs/zerolog"
)

// Trace records the total log-likelihood after each EM iteration and
// decides when the iteration has converged.  The EM loop itself belongs to
// the caller.
type Trace struct {

	// The log-likelihood at each iteration
	LLF []float64

	// Convergence is declared once an iteration gains less than Tol
	Tol float64

	// Number of iterations at which the log-likelihood decreased
	LogLikeDecreased int

	logger zerolog.Logger
}

// NewTrace returns a Trace using the convergence tolerance in cfg.
func NewTrace(cfg Config) *Trace {
	return &Trace{
		Tol:    cfg.ConvergeTol,
		logger: NewLogger("trace", cfg.LogLevel),
	}
}

// SetLogger replaces the logger used for trace messages.
func (tr *Trace) SetLogger(logger zerolog.Logger) {
	tr.logger = logger
}

// Add records the log-likelihood of a new iteration and reports whether
// the iteration has converged.  A decrease larger than 1e-10 is counted
// and logged but never reported as convergence, since EM should not
// decrease the likelihood.
func (tr *Trace) Add(llf float64) bool {

	i := len(tr.LLF)
	tr.LLF = append(tr.LLF, llf)
	tr.logger.Info().Int("iteration", i).Float64("llf", llf).Msg("")

	if i == 0 {
		return false
	}

	prev := tr.LLF[i-1]
	if llf < prev-1e-10 {
		tr.logger.Warn().Float64("decrease", prev-llf).Msg("Log-likelihood decreased")
		tr.LogLikeDecreased++
		return false
	}
	if llf-prev < tr.Tol {
		tr.logger.Info().Int("iteration", i).Msg("Converged")
		return true
	}

	return false
}
