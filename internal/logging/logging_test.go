package logging_test

import (
	"bytes"
	"testing"

	"github.com/jrsteele09/engine-dashboard/internal/logging"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestSetupWriterLevels(t *testing.T) {
	prev := zerolog.GlobalLevel()
	defer zerolog.SetGlobalLevel(prev)

	var buf bytes.Buffer
	logger := logging.SetupWriter(&buf, "PROD", "warn")
	require.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())

	logger.Info().Msg("hidden")
	logger.Warn().Str("component", "session").Msg("shown")

	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), `"component":"session"`)
}

func TestSetupWriterUnknownLevelFallsBackToInfo(t *testing.T) {
	prev := zerolog.GlobalLevel()
	defer zerolog.SetGlobalLevel(prev)

	var buf bytes.Buffer
	logging.SetupWriter(&buf, "DEV", "chatty")
	require.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}
