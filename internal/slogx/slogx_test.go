package slogx

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel(" warning "))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "warn")
	l.Info("hidden")
	l.Warn("shown", "instrument", "gc1")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "instrument=gc1")
	assert.False(t, l.Enabled(context.Background(), slog.LevelInfo))
}

func TestNewWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "gold-data.log")
	l, closer := NewWithFile("info", FileOptions{Path: path})
	l.Info("run start", "instruments", 2)
	require.NoError(t, closer.Close())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "run start")
}

func TestNewWithFileDisabled(t *testing.T) {
	l, closer := NewWithFile("debug", FileOptions{})
	assert.NotNil(t, l)
	assert.NoError(t, closer.Close())
}
