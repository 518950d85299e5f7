package internal

import (
	"bytes"
	"log"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	flags := log.Flags()
	log.SetOutput(&buf)
	log.SetFlags(0)
	t.Cleanup(func() {
		log.SetOutput(os.Stderr)
		log.SetFlags(flags)
	})
	return &buf
}

func TestParseLogLevel(t *testing.T) {
	level, ok := ParseLogLevel(" debug ")
	assert.True(t, ok)
	assert.Equal(t, LogLevelDebug, level)

	_, ok = ParseLogLevel("verbose")
	assert.False(t, ok)
}

func TestLogger_FiltersByLevel(t *testing.T) {
	buf := captureLog(t)

	logger := NewLogger("PowerService", LogLevelInfo)
	logger.Info("stored %d", 1)
	logger.Debug("hidden")
	logger.Error("failed")

	assert.Equal(t, "[PowerService] stored 1\n[PowerService] failed\n", buf.String())
}

func TestNewDefaultLogger(t *testing.T) {
	t.Setenv("LOG_LEVEL", "WARN")
	assert.Equal(t, LogLevelWarn, NewDefaultLogger("x").GetLevel())

	t.Setenv("LOG_LEVEL", "")
	assert.Equal(t, LogLevelInfo, NewDefaultLogger("x").GetLevel())
}
