package logging

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("nonsense"))
}

func TestFileOutputWritesJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "api.log")

	logger, err := New(Options{Level: "info", Format: "json", Output: "file", FilePath: path, MaxSizeMB: 1})
	require.NoError(t, err)

	logger.Info("payment settled", slog.String("payment_id", "pay-1"), Err(errors.New("boom")))
	logger.Debug("dropped at info level")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"payment settled"`)
	assert.Contains(t, string(data), `"payment_id":"pay-1"`)
	assert.Contains(t, string(data), `"error":"boom"`)
	assert.NotContains(t, string(data), "dropped at info level")
}
