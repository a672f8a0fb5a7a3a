package initcmd

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/colonyops/danmaku/internal/core/config"
	"github.com/colonyops/danmaku/internal/core/display"
)

const configHeader = `# danmaku configuration
# Generated by 'danmaku init'. Run 'danmaku config validate' after editing.

`

// ConfigOptions are the answers collected by the wizard.
type ConfigOptions struct {
	DurationMs int
	WindowMode display.Mode
	Theme      string
	TCPPort    int // 0 disables the tcp feed
	MQTTBroker string
	MQTTTopics []string
}

// DefaultConfigOptions mirrors the built-in defaults.
func DefaultConfigOptions() ConfigOptions {
	def := config.DefaultConfig()
	return ConfigOptions{
		DurationMs: def.DurationMs,
		WindowMode: def.WindowMode,
		Theme:      def.Style.Theme,
		TCPPort:    def.Sources.TCP.Port,
		MQTTTopics: def.Sources.MQTT.Topics,
	}
}

// BuildConfig applies opts on top of the defaults.
func BuildConfig(opts ConfigOptions) config.Config {
	cfg := config.DefaultConfig()
	if opts.DurationMs > 0 {
		cfg.DurationMs = opts.DurationMs
	}
	if opts.WindowMode != "" {
		cfg.WindowMode = opts.WindowMode
	}
	if opts.Theme != "" {
		cfg.Style.Theme = opts.Theme
	}

	cfg.Sources.TCP.Enabled = opts.TCPPort > 0
	if opts.TCPPort > 0 {
		cfg.Sources.TCP.Port = opts.TCPPort
	}

	if opts.MQTTBroker != "" {
		cfg.Sources.MQTT.Enabled = true
		cfg.Sources.MQTT.Broker = opts.MQTTBroker
		if len(opts.MQTTTopics) > 0 {
			cfg.Sources.MQTT.Topics = opts.MQTTTopics
		}
	}
	return cfg
}

// GenerateConfig renders the YAML file for opts.
func GenerateConfig(opts ConfigOptions) ([]byte, error) {
	cfg := BuildConfig(opts)
	body, err := yaml.Marshal(&cfg)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return append([]byte(configHeader), body...), nil
}

// WriteConfig writes content to path, creating parent directories.
func WriteConfig(content []byte, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	return os.WriteFile(path, content, 0o644)
}

// ReplaceConfig writes content to path. An existing file with different
// content is first copied to path+".bak" with its permissions kept. The
// returned backup path is empty when nothing was backed up.
func ReplaceConfig(content []byte, path string) (string, error) {
	old, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return "", WriteConfig(content, path)
	case err != nil:
		return "", fmt.Errorf("read existing config: %w", err)
	case bytes.Equal(old, content):
		return "", nil
	}

	mode := fs.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	backup := path + ".bak"
	if err := os.WriteFile(backup, old, mode); err != nil {
		return "", fmt.Errorf("write backup: %w", err)
	}
	if err := os.Chmod(backup, mode); err != nil {
		return "", fmt.Errorf("write backup: %w", err)
	}
	return backup, WriteConfig(content, path)
}
