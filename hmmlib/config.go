package hmmlib

import (
	"github.com/kelseyhightower/envconfig"
)

// Config controls the batch E-step and the convergence trace.  The zero
// value is not usable; start from LoadConfig or DefaultConfig.
type Config struct {

	// Number of sequences processed concurrently, 0 means GOMAXPROCS
	Parallelism int `envconfig:"IOHMM_PARALLELISM" default:"0"`

	// Show a progress bar on stderr while a batch runs
	Progress bool `envconfig:"IOHMM_PROGRESS" default:"false"`

	// DEBUG, INFO, WARN, ERROR
	LogLevel string `envconfig:"IOHMM_LOGLEVEL" default:"INFO"`

	// If positive, every posterior is checked with Verify at this tolerance
	VerifyTol float64 `envconfig:"IOHMM_VERIFY_TOL" default:"0"`

	// Minimum log-likelihood gain per iteration before the trace reports
	// convergence
	ConvergeTol float64 `envconfig:"IOHMM_CONVERGE_TOL" default:"1e-8"`
}

// LoadConfig reads the configuration from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// DefaultConfig returns the configuration used when nothing is set in the
// environment.
func DefaultConfig() Config {
	return Config{
		LogLevel:    LogLevelInfo,
		ConvergeTol: 1e-8,
	}
}
