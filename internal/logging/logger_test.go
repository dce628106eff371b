package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDaemonLogger_WritesJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "tabmon.log")
	logger, closeFn, err := NewDaemonLogger(Config{File: path, Level: "info"})
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("discovery loop started")
	closeFn()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "discovery loop started", entry["msg"])
	assert.Equal(t, "info", entry["level"])
	assert.Contains(t, entry, "time")
	assert.Contains(t, entry, "pid")
}

func TestNewDaemonLogger_RejectsBadLevel(t *testing.T) {
	_, _, err := NewDaemonLogger(Config{File: filepath.Join(t.TempDir(), "x.log"), Level: "loud"})
	assert.Error(t, err)
}

func TestNewCLILogger(t *testing.T) {
	assert.NotNil(t, NewCLILogger(false))
	assert.True(t, NewCLILogger(true).Core().Enabled(-1))
	assert.False(t, NewCLILogger(false).Core().Enabled(0))
}
