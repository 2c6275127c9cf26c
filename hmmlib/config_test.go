package hmmlib

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, DefaultConfig(), cfg)

	t.Setenv("IOHMM_PARALLELISM", "4")
	t.Setenv("IOHMM_PROGRESS", "true")
	t.Setenv("IOHMM_LOGLEVEL", "DEBUG")
	t.Setenv("IOHMM_VERIFY_TOL", "1e-6")
	t.Setenv("IOHMM_CONVERGE_TOL", "0.01")

	cfg, err = LoadConfig()
	require.NoError(t, err)
	require.Equal(t, Config{
		Parallelism: 4,
		Progress:    true,
		LogLevel:    LogLevelDebug,
		VerifyTol:   1e-6,
		ConvergeTol: 0.01,
	}, cfg)

	t.Setenv("IOHMM_PARALLELISM", "many")
	_, err = LoadConfig()
	require.Error(t, err)
}

func TestLogger(t *testing.T) {

	var buf bytes.Buffer
	logger := newLogger(&buf, "estep", LogLevelWarn)

	logger.Info().Msg("hidden")
	logger.Warn().Int("sequence", 3).Msg("shown")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var rec map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	require.Equal(t, "estep", rec["component"])
	require.Equal(t, "warn", rec["level"])
	require.Equal(t, "shown", rec["message"])
	require.EqualValues(t, 3, rec["sequence"])
	require.Contains(t, rec, "time")

	buf.Reset()
	// Unknown levels fall back to info.
	logger = newLogger(&buf, "estep", "bogus")
	logger.Debug().Msg("hidden")
	require.Empty(t, buf.String())
}
