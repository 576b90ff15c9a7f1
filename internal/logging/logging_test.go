package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARNING"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("bogus"))
}

func TestNewWithWriterFormats(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(slog.LevelInfo, "json", &buf)
	logger.Info("hello", "k", "v")
	assert.True(t, strings.HasPrefix(strings.TrimSpace(buf.String()), "{"))

	buf.Reset()
	logger = NewWithWriter(slog.LevelWarn, "text", &buf)
	logger.Info("dropped")
	assert.Empty(t, buf.String())
}

func TestDiscard(t *testing.T) {
	assert.NotPanics(t, func() {
		Discard().Error("nothing to see")
	})
}
