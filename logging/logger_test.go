package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileLogIsPlainText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "collect.log")
	log, err := New("debug", path)
	require.NoError(t, err)

	log.With("run_id", "abc").Info("season collected", "season", "1996-97", "rows", 310)
	log.Debug("details")
	log.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "INFO")
	assert.Contains(t, text, "season collected")
	assert.Contains(t, text, `"season": "1996-97"`)
	assert.Contains(t, text, `"run_id": "abc"`)
	assert.Contains(t, text, "details")
	assert.False(t, strings.Contains(text, "\x1b["), "no color codes in file output")
}

func TestLevelFiltersFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "collect.log")
	log, err := New("warn", path)
	require.NoError(t, err)

	log.Info("hidden")
	log.Warn("shown")
	log.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, string(data), "shown")
}

func TestBadLevel(t *testing.T) {
	_, err := New("loud", "")
	assert.Error(t, err)
}

func TestCloseReleasesLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "collect.log")
	log, err := New("info", path)
	require.NoError(t, err)
	f := log.file
	require.NotNil(t, f)

	log.Info("season collected", "season", "1996-97")
	require.NoError(t, log.Close())
	assert.ErrorIs(t, f.Close(), os.ErrClosed)
	assert.NoError(t, log.Close(), "closing twice is harmless")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "season collected")
}

func TestCloseWithoutFile(t *testing.T) {
	assert.NoError(t, Nop().Close())
}
