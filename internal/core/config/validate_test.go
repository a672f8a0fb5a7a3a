package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hay-kot/criterio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validConfig returns a Config with all required fields set for testing.
func validConfig(t *testing.T) *Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.DataDir = t.TempDir()
	return &cfg
}

func TestValidateDeep_ValidConfig(t *testing.T) {
	cfg := validConfig(t)
	cfg.Sources.MQTT = MQTTSource{
		Enabled:      true,
		Broker:       "tcp://localhost:1883",
		Topics:       []string{"danmaku/#", "chat/+/live"},
		IgnoreTopics: []string{"danmaku/debug/**"},
	}

	assert.NoError(t, cfg.ValidateDeep(""))
}

func TestValidateDeep_InvalidTopics(t *testing.T) {
	cfg := validConfig(t)
	cfg.Sources.MQTT = MQTTSource{
		Enabled:      true,
		Broker:       "tcp://localhost:1883",
		Topics:       []string{"danmaku/#/more", "chat/a+b"},
		IgnoreTopics: []string{"chat/[unclosed"},
	}

	err := cfg.ValidateDeep("")

	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	assert.Len(t, fieldErrs, 3)
	assert.Equal(t, "sources.mqtt.topics[0]", fieldErrs[0].Field)
	assert.Equal(t, "sources.mqtt.topics[1]", fieldErrs[1].Field)
	assert.Equal(t, "sources.mqtt.ignore_topics[0]", fieldErrs[2].Field)
}

func TestValidateDeep_ConfigFileIsDirectory(t *testing.T) {
	cfg := validConfig(t)
	dir := t.TempDir()

	err := cfg.ValidateDeep(dir)

	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	assert.Equal(t, "config_file", fieldErrs[0].Field)
}

func TestValidateDeep_DataDirIsFile(t *testing.T) {
	cfg := validConfig(t)
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	cfg.DataDir = file

	err := cfg.ValidateDeep("")

	var fieldErrs criterio.FieldErrors
	require.ErrorAs(t, err, &fieldErrs)
	assert.Equal(t, "data_dir", fieldErrs[0].Field)
}

func TestWarnings(t *testing.T) {
	cfg := validConfig(t)
	assert.Empty(t, cfg.Warnings())

	cfg.Sources.TCP.Enabled = false
	cfg.Displays = append(cfg.Displays, cfg.Displays[0])

	warnings := cfg.Warnings()
	require.Len(t, warnings, 2)
	assert.Equal(t, "Sources", warnings[0].Category)
	assert.Equal(t, "Displays", warnings[1].Category)
}
