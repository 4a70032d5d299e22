package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"lendshare/internal/config"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	logger, closer, err := New(config.LoggingConfig{}, config.AppConfig{Name: "lendshare"}, "server")
	require.NoError(t, err)
	require.NotNil(t, logger)
	assert.Nil(t, closer)
	assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())
}

func TestNewLevels(t *testing.T) {
	logger, _, err := New(config.LoggingConfig{Level: "debug"}, config.AppConfig{}, "server")
	require.NoError(t, err)
	assert.Equal(t, zerolog.DebugLevel, logger.GetLevel())

	// Garbage falls back to info rather than failing.
	logger, _, err = New(config.LoggingConfig{Level: "loud"}, config.AppConfig{}, "server")
	require.NoError(t, err)
	assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())
}

func TestNewFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	logger, closer, err := New(
		config.LoggingConfig{Output: "file", FilePath: path},
		config.AppConfig{Name: "lendshare", Environment: "test", Version: "1.0"},
		"gateway",
	)
	require.NoError(t, err)
	require.NotNil(t, closer)
	defer closer.Close()

	logger.Info().Str("key", "value").Msg("written to file")

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	line := string(raw)
	assert.Contains(t, line, `"message":"written to file"`)
	assert.Contains(t, line, `"app":"lendshare"`)
	assert.Contains(t, line, `"env":"test"`)
	assert.Contains(t, line, `"component":"gateway"`)
	assert.Contains(t, line, `"key":"value"`)
}

func TestNewFileOutputRequiresPath(t *testing.T) {
	_, _, err := New(config.LoggingConfig{Output: "file"}, config.AppConfig{}, "server")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "file_path"))
}

func TestNewConsoleFormat(t *testing.T) {
	logger, _, err := New(config.LoggingConfig{Format: "console", Output: "stderr"}, config.AppConfig{}, "server")
	require.NoError(t, err)
	assert.NotNil(t, logger)
}
