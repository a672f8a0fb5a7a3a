// Package config handles configuration loading and validation for danmaku.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/colonyops/danmaku/internal/core/animation"
	"github.com/colonyops/danmaku/internal/core/comment"
	"github.com/colonyops/danmaku/internal/core/display"
	"github.com/colonyops/danmaku/internal/core/styles"
	"github.com/colonyops/danmaku/internal/core/validate"
	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	DurationMs           int              `yaml:"duration_ms"`      // per-display scroll duration
	DurationStepMs       int              `yaml:"duration_step_ms"` // +/- step for runtime changes
	SpawnDelayMs         int              `yaml:"spawn_delay_ms"`   // wait before a fresh comment starts moving
	FrameRate            int              `yaml:"frame_rate"`
	MaxCommentsOnDisplay int              `yaml:"max_comments_on_display"` // 0 = unlimited
	OverLimit            animation.Policy `yaml:"over_limit"`
	WindowMode           display.Mode     `yaml:"window_mode"`
	Displays             []display.Rect   `yaml:"displays"`
	Toggles              Toggles          `yaml:"toggles"`
	Style                Style            `yaml:"style"`
	Sources              Sources          `yaml:"sources"`
	History              History          `yaml:"history"`
	Database             Database         `yaml:"database"`
	DataDir              string           `yaml:"-"` // set by caller, not from config file
}

// Toggles switch individual comment parts on or off.
type Toggles struct {
	Icon         bool `yaml:"icon"`
	InlineImages bool `yaml:"inline_images"`
	Images       bool `yaml:"images"`
	Videos       bool `yaml:"videos"`
	Newline      bool `yaml:"newline"`
	RoundIcon    bool `yaml:"round_icon"`
}

// Style is the default text appearance. Per-comment color and stroke override it.
type Style struct {
	FontSize   int    `yaml:"font_size"`
	TextColor  string `yaml:"text_color"`
	TextStroke string `yaml:"text_stroke"`
	Theme      string `yaml:"theme"` // terminal preview and CLI colors
}

// History controls the comment log kept in the database.
type History struct {
	Enabled    bool `yaml:"enabled"`
	MaxEntries int  `yaml:"max_entries"` // 0 = unlimited
}

// Database tunes the SQLite connection pool.
type Database struct {
	MaxOpenConns int `yaml:"max_open_conns"`
	MaxIdleConns int `yaml:"max_idle_conns"`
	BusyTimeout  int `yaml:"busy_timeout"` // milliseconds
}

// Sources configures the comment feeds.
type Sources struct {
	TCP  TCPSource  `yaml:"tcp"`
	MQTT MQTTSource `yaml:"mqtt"`
}

// TCPSource accepts one payload per connection.
type TCPSource struct {
	Enabled         bool    `yaml:"enabled"`
	BindAddress     string  `yaml:"bind_address"`
	Port            int     `yaml:"port"`
	MaxPayloadBytes int64   `yaml:"max_payload_bytes"`
	RateLimit       float64 `yaml:"rate_limit"` // payloads per second, 0 = unlimited
	Burst           int     `yaml:"burst"`
}

// MQTTSource subscribes to broker topics; one publish is one payload.
type MQTTSource struct {
	Enabled      bool     `yaml:"enabled"`
	Broker       string   `yaml:"broker"`
	ClientID     string   `yaml:"client_id"` // empty = generated
	Topics       []string `yaml:"topics"`
	QoS          int      `yaml:"qos"`
	Mute         bool     `yaml:"mute"`
	IgnoreTopics []string `yaml:"ignore_topics"` // glob patterns
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		DurationMs:     5000,
		DurationStepMs: 1000,
		SpawnDelayMs:   100,
		FrameRate:      60,
		OverLimit:      animation.DefaultPolicy,
		WindowMode:     display.ModeAuto,
		Displays:       []display.Rect{{X: 0, Y: 0, Width: 1920, Height: 1080}},
		Toggles: Toggles{
			Icon:         true,
			InlineImages: true,
			Images:       true,
			Videos:       true,
			Newline:      false,
			RoundIcon:    true,
		},
		Style: Style{
			FontSize:   56,
			TextColor:  "white",
			TextStroke: "2px black",
			Theme:      styles.DefaultTheme,
		},
		Sources: Sources{
			TCP: TCPSource{
				Enabled:         true,
				BindAddress:     "::",
				Port:            2525,
				MaxPayloadBytes: 64 * 1024,
				Burst:           10,
			},
			MQTT: MQTTSource{
				Topics: []string{"danmaku/#"},
			},
		},
		History: History{
			Enabled:    true,
			MaxEntries: 1000,
		},
		Database: Database{
			MaxOpenConns: 4,
			MaxIdleConns: 2,
			BusyTimeout:  5000,
		},
	}
}

// Load reads configuration from the given path and sets the data directory.
// If configPath is empty or doesn't exist, returns defaults with the provided dataDir.
func Load(configPath, dataDir string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.DataDir = dataDir

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}

			// Re-set dataDir since Unmarshal may have cleared it
			cfg.DataDir = dataDir
		}
	}

	// Apply defaults for zero values
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.DurationMs == 0 {
		c.DurationMs = defaults.DurationMs
	}
	if c.DurationStepMs == 0 {
		c.DurationStepMs = defaults.DurationStepMs
	}
	if c.FrameRate == 0 {
		c.FrameRate = defaults.FrameRate
	}
	if c.OverLimit == "" || c.OverLimit == "default" {
		c.OverLimit = defaults.OverLimit
	}
	if c.WindowMode == "" {
		c.WindowMode = defaults.WindowMode
	}
	if len(c.Displays) == 0 {
		c.Displays = defaults.Displays
	}
	if c.Style.FontSize == 0 {
		c.Style.FontSize = defaults.Style.FontSize
	}
	if c.Style.Theme == "" {
		c.Style.Theme = defaults.Style.Theme
	}
	if c.Sources.TCP.BindAddress == "" {
		c.Sources.TCP.BindAddress = defaults.Sources.TCP.BindAddress
	}
	if c.Sources.TCP.MaxPayloadBytes == 0 {
		c.Sources.TCP.MaxPayloadBytes = defaults.Sources.TCP.MaxPayloadBytes
	}
	if c.Sources.TCP.Burst == 0 {
		c.Sources.TCP.Burst = defaults.Sources.TCP.Burst
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = defaults.Database.MaxOpenConns
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = defaults.Database.MaxIdleConns
	}
	if c.Database.BusyTimeout == 0 {
		c.Database.BusyTimeout = defaults.Database.BusyTimeout
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return errors.New("data directory cannot be empty")
	}

	if c.DurationMs <= 0 {
		return errors.New("duration_ms must be positive")
	}

	if c.DurationStepMs <= 0 {
		return errors.New("duration_step_ms must be positive")
	}

	if c.SpawnDelayMs < 0 {
		return errors.New("spawn_delay_ms cannot be negative")
	}

	if c.FrameRate < 1 || c.FrameRate > 240 {
		return fmt.Errorf("frame_rate must be between 1 and 240, got %d", c.FrameRate)
	}

	if c.MaxCommentsOnDisplay < 0 {
		return errors.New("max_comments_on_display cannot be negative")
	}

	if _, err := animation.ParsePolicy(string(c.OverLimit)); err != nil {
		return fmt.Errorf("over_limit: %w", err)
	}

	if !c.WindowMode.IsValid() {
		return fmt.Errorf("window_mode %q must be one of auto, single, multi", c.WindowMode)
	}

	for i, d := range c.Displays {
		if d.Width <= 0 || d.Height <= 0 {
			return fmt.Errorf("displays[%d]: width and height must be positive", i)
		}
	}

	if c.Style.FontSize <= 0 {
		return errors.New("style.font_size must be positive")
	}

	if _, ok := styles.GetPalette(c.Style.Theme); !ok {
		return fmt.Errorf("style.theme %q is not a built-in theme (%v)", c.Style.Theme, styles.ThemeNames())
	}

	if err := c.Sources.TCP.Validate(); err != nil {
		return fmt.Errorf("sources.tcp: %w", err)
	}

	if err := c.Sources.MQTT.Validate(); err != nil {
		return fmt.Errorf("sources.mqtt: %w", err)
	}

	if c.History.MaxEntries < 0 {
		return errors.New("history.max_entries cannot be negative")
	}

	if c.Database.MaxOpenConns < 1 || c.Database.MaxIdleConns < 0 || c.Database.BusyTimeout < 0 {
		return errors.New("database: max_open_conns must be at least 1, other values non-negative")
	}

	return nil
}

// Validate checks the TCP feed settings. A disabled feed is not checked.
func (t *TCPSource) Validate() error {
	if !t.Enabled {
		return nil
	}
	if err := validate.Port(t.Port); err != nil {
		return err
	}
	if t.MaxPayloadBytes <= 0 {
		return errors.New("max_payload_bytes must be positive")
	}
	if t.RateLimit < 0 {
		return errors.New("rate_limit cannot be negative")
	}
	if t.Burst < 1 {
		return errors.New("burst must be at least 1")
	}
	return nil
}

// Validate checks the MQTT feed settings. A disabled feed is not checked.
func (m *MQTTSource) Validate() error {
	if !m.Enabled {
		return nil
	}
	if m.Broker == "" {
		return errors.New("broker is required")
	}
	if len(m.Topics) == 0 {
		return errors.New("at least one topic is required")
	}
	if m.QoS < 0 || m.QoS > 2 {
		return fmt.Errorf("qos must be 0, 1 or 2, got %d", m.QoS)
	}
	return nil
}

// Duration returns the per-display scroll duration.
func (c *Config) Duration() time.Duration {
	return time.Duration(c.DurationMs) * time.Millisecond
}

// DurationStep returns the runtime +/- duration step.
func (c *Config) DurationStep() time.Duration {
	return time.Duration(c.DurationStepMs) * time.Millisecond
}

// SpawnDelay returns the wait before a freshly dispatched comment starts moving.
func (c *Config) SpawnDelay() time.Duration {
	return time.Duration(c.SpawnDelayMs) * time.Millisecond
}

// FrameInterval returns the time between animation frames.
func (c *Config) FrameInterval() time.Duration {
	return time.Second / time.Duration(max(c.FrameRate, 1))
}

// CommentToggles converts the display toggles for comment.Segments.Apply.
func (c *Config) CommentToggles() comment.Toggles {
	return comment.Toggles{
		Icon:         c.Toggles.Icon,
		InlineImages: c.Toggles.InlineImages,
		Images:       c.Toggles.Images,
		Videos:       c.Toggles.Videos,
		Newline:      c.Toggles.Newline,
	}
}

// Layout computes the overlay window plan for the configured displays.
func (c *Config) Layout() (display.Layout, error) {
	return display.Plan(c.Displays, c.WindowMode)
}

// ListenAddr returns the TCP feed address in host:port form.
func (t *TCPSource) ListenAddr() string {
	return net.JoinHostPort(t.BindAddress, strconv.Itoa(t.Port))
}

// DialAddr returns an address a local client can connect to. Wildcard bind
// addresses are replaced by localhost.
func (t *TCPSource) DialAddr() string {
	host := t.BindAddress
	switch host {
	case "", "::", "0.0.0.0":
		host = "localhost"
	}
	return net.JoinHostPort(host, strconv.Itoa(t.Port))
}

// DatabaseFile returns the path of the settings database.
func (c *Config) DatabaseFile() string {
	return filepath.Join(c.DataDir, "danmaku.db")
}
