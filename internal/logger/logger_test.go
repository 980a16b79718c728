package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_InvalidLevel(t *testing.T) {
	err := Init(Config{Level: "chatty"})
	assert.Error(t, err)
}

func TestInit_ConsoleJSON(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	var buf bytes.Buffer
	require.NoError(t, Init(Config{Level: "warn", Format: "json", Console: &buf}))

	log.Info().Msg("hidden")
	log.Warn().Str("symbol", "BA").Msg("visible")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"symbol":"BA"`)
	assert.Contains(t, out, `"service":"sentinel"`)
}

func TestInit_FileSplitsErrors(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	dir := filepath.Join(t.TempDir(), "logs")
	var buf bytes.Buffer
	require.NoError(t, Init(Config{
		Level: "info", FileEnabled: true, FilePath: dir,
		RotationSize: 1, RetentionDays: 1, Console: &buf,
	}))

	log.Info().Msg("routine")
	log.Error().Msg("broken")

	app, err := os.ReadFile(filepath.Join(dir, "sentinel.log"))
	require.NoError(t, err)
	assert.Contains(t, string(app), "routine")
	assert.Contains(t, string(app), "broken")

	errs, err := os.ReadFile(filepath.Join(dir, "error.log"))
	require.NoError(t, err)
	assert.NotContains(t, string(errs), "routine")
	assert.Contains(t, string(errs), "broken")
}
