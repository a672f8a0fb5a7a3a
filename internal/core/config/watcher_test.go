package config

import (
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	path := writeConfig(t, "duration_ms: 5000\n")

	w, err := NewWatcher(zerolog.Nop(), path, t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	require.NoError(t, os.WriteFile(path, []byte("duration_ms: 7000\n"), 0o644))

	select {
	case cfg := <-w.Changes():
		assert.Equal(t, 7000, cfg.DurationMs)
	case <-time.After(3 * time.Second):
		t.Fatal("no reload observed")
	}
}

func TestWatcher_SkipsInvalidEdits(t *testing.T) {
	path := writeConfig(t, "duration_ms: 5000\n")

	w, err := NewWatcher(zerolog.Nop(), path, t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	require.NoError(t, os.WriteFile(path, []byte("duration_ms: -1\n"), 0o644))

	select {
	case cfg := <-w.Changes():
		t.Fatalf("unexpected reload: %+v", cfg)
	case <-time.After(400 * time.Millisecond):
	}
}
