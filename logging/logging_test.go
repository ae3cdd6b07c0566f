package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
)

func TestNewFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "board", "warn")

	l.Info("hidden")
	assert.Empty(t, buf.String())

	l.Warn("piece rejected", slog.String("error", "queue full"))
	out := buf.String()
	assert.Contains(t, out, "piece rejected")
	assert.Contains(t, out, "queue full")
	assert.Contains(t, out, "board")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, log.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, log.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, log.InfoLevel, ParseLevel(""))
	assert.Equal(t, log.InfoLevel, ParseLevel("verbose"))
}

func TestOrDiscard(t *testing.T) {
	l := slog.Default()
	assert.Same(t, l, OrDiscard(l))
	assert.NotNil(t, OrDiscard(nil))
	OrDiscard(nil).Error("goes nowhere")
}
