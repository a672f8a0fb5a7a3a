package commands

import (
	"os"
	"path/filepath"

	"github.com/colonyops/danmaku/internal/core/config"
	"github.com/colonyops/danmaku/internal/data/db"
	"github.com/colonyops/danmaku/pkg/utils"
)

type Flags struct {
	LogLevel   string
	LogFile    string
	LogConsole bool
	ConfigPath string
	DataDir    string

	// Config is loaded in the Before hook and available to all commands
	Config *config.Config

	// DB is opened in the Before hook; nil when the database is unavailable
	DB *db.DB

	// Console receives console logs when LogConsole is set; nil otherwise
	Console *utils.DeferredWriter
}

// DefaultConfigPath returns the default config file path using XDG_CONFIG_HOME.
func DefaultConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, _ := os.UserHomeDir()
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "danmaku", "config.yaml")
}

// DefaultDataDir returns the default data directory using XDG_DATA_HOME.
func DefaultDataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, _ := os.UserHomeDir()
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "danmaku")
}
