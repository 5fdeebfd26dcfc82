package common

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lugondev/go-soflotto/internal/config"
)

func TestNewLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(config.LogConfig{Level: "debug", Format: "json"}, &buf)

	logger.Debug("instruction executed", "name", "buyTokens")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "instruction executed", line["msg"])
	assert.Equal(t, "buyTokens", line["name"])
}

func TestNewLoggerTextFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(config.LogConfig{Level: "warn", Format: "text"}, &buf)

	logger.Info("hidden")
	assert.Empty(t, buf.String())

	logger.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("nonsense"))
}

func TestFormatRFC3339Millis(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 30, 45, 123_456_789, time.UTC)
	assert.Equal(t, "2024-03-01T12:30:45.123Z", formatRFC3339Millis(ts))
}

func TestLoggerMixin(t *testing.T) {
	m := NewLoggerMixin()
	assert.NotNil(t, m.GetLogger())

	custom := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	m.SetLogger(custom)
	assert.Same(t, custom, m.GetLogger())

	m.SetLogger(nil)
	assert.Same(t, custom, m.GetLogger())
}
