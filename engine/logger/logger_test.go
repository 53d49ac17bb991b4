package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel("WARN"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel("warning"))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel(""))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("verbose"))
}

func TestLoggingBeforeInitIsSafe(t *testing.T) {
	assert.NotPanics(t, func() {
		Debug("before init", zap.Int("n", 1))
		Info("before init")
		Sync()
	})
}

func TestFileOutputRespectsLevel(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "engine.log")

	cfg := DefaultFileConfig(logFile)
	cfg.Compress = false
	require.NoError(t, InitWithFileConfig("warn", cfg, false))
	t.Cleanup(func() {
		Log = zap.NewNop()
		Sugar = Log.Sugar()
	})

	Info("dropped")
	Warn("geometry skipped", zap.Int("geometry", 7))
	Sync()

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "geometry skipped", entry["msg"])
	assert.EqualValues(t, 7, entry["geometry"])
	assert.Contains(t, entry["caller"], "logger_test.go")
}
