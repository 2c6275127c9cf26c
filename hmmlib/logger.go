package hmmlib

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

const (
	LogLevelDebug = "DEBUG"
	LogLevelInfo  = "INFO"
	LogLevelWarn  = "WARN"
	LogLevelError = "ERROR"
)

// NewLogger returns a JSON logger on stderr tagged with the component name.
func NewLogger(component, level string) zerolog.Logger {
	return newLogger(os.Stderr, component, level)
}

func newLogger(w io.Writer, component, level string) zerolog.Logger {

	levelValue := zerolog.InfoLevel

	switch level {
	case LogLevelDebug:
		levelValue = zerolog.DebugLevel
	case LogLevelWarn:
		levelValue = zerolog.WarnLevel
	case LogLevelError:
		levelValue = zerolog.ErrorLevel
	}

	return zerolog.New(w).
		With().
		Str("component", component).
		Timestamp().
		Logger().
		Level(levelValue)
}
