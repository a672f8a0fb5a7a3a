package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/hay-kot/criterio"

	"github.com/colonyops/danmaku/internal/core/validate"
)

// ValidationWarning represents a non-fatal configuration issue.
type ValidationWarning struct {
	Category string `json:"category"`
	Item     string `json:"item,omitempty"`
	Message  string `json:"message"`
}

// ValidateDeep runs Validate and then the checks that touch the filesystem or
// need the full layout: config file and data dir kinds, MQTT topic filters,
// ignore globs and the window plan. An empty configPath skips the file check.
func (c *Config) ValidateDeep(configPath string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	return criterio.ValidateStruct(
		c.validateFileAccess(configPath),
		c.validateTopics(),
		c.validateLayout(),
	)
}

// Warnings returns non-fatal configuration issues.
func (c *Config) Warnings() []ValidationWarning {
	var warnings []ValidationWarning

	if !c.Sources.TCP.Enabled && !c.Sources.MQTT.Enabled {
		warnings = append(warnings, ValidationWarning{
			Category: "Sources",
			Message:  "no feed is enabled; comments can only be injected from the preview",
		})
	}

	if c.Sources.MQTT.Enabled && c.Sources.MQTT.Mute {
		warnings = append(warnings, ValidationWarning{
			Category: "Sources",
			Item:     "mqtt",
			Message:  "feed starts muted; messages are dropped until unmuted",
		})
	}

	for i := range c.Displays {
		for j := i + 1; j < len(c.Displays); j++ {
			if c.Displays[i].Overlaps(c.Displays[j]) {
				warnings = append(warnings, ValidationWarning{
					Category: "Displays",
					Item:     fmt.Sprintf("displays[%d] and displays[%d]", i, j),
					Message:  "displays overlap",
				})
			}
		}
	}

	return warnings
}

// validateFileAccess checks that the config file and data directory, when
// they exist, are the right kind of entry. Missing paths are fine: the file
// means defaults and the directory is created on start.
func (c *Config) validateFileAccess(configPath string) error {
	return criterio.ValidateStruct(
		criterio.Run("config_file", configPath, pathKind(false)),
		criterio.Run("data_dir", c.DataDir, pathKind(true)),
	)
}

func pathKind(wantDir bool) func(string) error {
	return func(path string) error {
		if path == "" {
			return nil
		}
		info, err := os.Stat(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			return nil
		case err != nil:
			return fmt.Errorf("cannot access: %w", err)
		case wantDir && !info.IsDir():
			return fmt.Errorf("%s exists but is not a directory", path)
		case !wantDir && info.IsDir():
			return fmt.Errorf("%s is a directory, not a file", path)
		}
		return nil
	}
}

// validateTopics checks MQTT topic filters and ignore globs.
func (c *Config) validateTopics() error {
	return criterio.ValidateStruct(
		validate.TopicFilters("sources.mqtt.topics", c.Sources.MQTT.Topics),
		validate.Globs("sources.mqtt.ignore_topics", c.Sources.MQTT.IgnoreTopics),
	)
}

// validateLayout checks that the displays produce a window plan.
func (c *Config) validateLayout() error {
	if _, err := c.Layout(); err != nil {
		return criterio.NewFieldErrors("displays", err)
	}
	return nil
}
