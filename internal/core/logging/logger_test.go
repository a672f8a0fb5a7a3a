package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureGlobal(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })
	return &buf
}

func TestComponent(t *testing.T) {
	buf := captureGlobal(t)

	logger := Component("relay")
	logger.Info().Msg("test message")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "relay", entry["cmp"])
	assert.Equal(t, "test message", entry["message"])
}

func TestWindow(t *testing.T) {
	buf := captureGlobal(t)

	logger := Window(2)
	logger.Info().Msg("spawned")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "window", entry["cmp"])
	assert.InDelta(t, 2, entry["window"], 0)
}
