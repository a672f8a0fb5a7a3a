package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/danmaku/internal/commands"
	"github.com/colonyops/danmaku/internal/core/config"
	"github.com/colonyops/danmaku/internal/core/logging"
	"github.com/colonyops/danmaku/internal/core/styles"
	"github.com/colonyops/danmaku/internal/data/db"
	"github.com/colonyops/danmaku/internal/data/stores"
	"github.com/colonyops/danmaku/internal/printer"
	"github.com/colonyops/danmaku/pkg/logutils"
	"github.com/colonyops/danmaku/pkg/utils"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	// When installed via `go install module@version`, init() populates
	// these from runtime/debug.BuildInfo instead.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	v, c, d := version, commit, date

	// When installed via `go install module@version`, ldflags aren't set
	// so version remains "dev". Fall back to runtime/debug.BuildInfo which
	// Go populates automatically with the module version and VCS metadata.
	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if mv := info.Main.Version; mv != "" && mv != "(devel)" {
				v = mv
			}
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					c = s.Value
				case "vcs.time":
					d = s.Value
				}
			}
		}
	}

	short := c
	if len(c) > 7 {
		short = c[:7]
	}

	return fmt.Sprintf("%s (%s) %s", v, short, d)
}

func main() {
	ctx := context.Background()

	var logCloser func()

	flags := &commands.Flags{}

	app := &cli.Command{
		Name:      "danmaku",
		Usage:     "Scroll live comments across your screens",
		UsageText: "danmaku [global options] command [command options]",
		Description: `Danmaku shows comments from TCP and MQTT feeds scrolling right to left
across one or more displays. A comment that reaches the left edge of one
display continues on the next.

Run 'danmaku' with no arguments to start the overlay.
Run 'danmaku send' to push a comment to a running overlay.`,
		Version:               build(),
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("DANMAKU_LOG_LEVEL"),
				Value:       "info",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file (defaults to <data-dir>/danmaku.log)",
				Sources:     cli.EnvVars("DANMAKU_LOG_FILE"),
				Destination: &flags.LogFile,
			},
			&cli.BoolFlag{
				Name:        "log-console",
				Usage:       "also write logs to stderr",
				Sources:     cli.EnvVars("DANMAKU_LOG_CONSOLE"),
				Destination: &flags.LogConsole,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("DANMAKU_CONFIG"),
				Value:       commands.DefaultConfigPath(),
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "data-dir",
				Usage:       "path to data directory",
				Sources:     cli.EnvVars("DANMAKU_DATA_DIR"),
				Value:       commands.DefaultDataDir(),
				Destination: &flags.DataDir,
			},
		},
		Before: func(ctx context.Context, _ *cli.Command) (context.Context, error) {
			// Always log to a file; use explicit path or default to <datadir>/danmaku.log
			logFile := flags.LogFile
			if logFile == "" {
				logFile = filepath.Join(flags.DataDir, "danmaku.log")
			}

			// Console logs are held while the terminal preview owns the screen.
			var console io.Writer
			if flags.LogConsole {
				flags.Console = utils.NewDeferredWriter(os.Stderr)
				console = flags.Console
			}

			logger, closer, err := logutils.New(flags.LogLevel, logFile, console)
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			log.Logger = logger.Hook(logging.ContextHook{})
			logCloser = closer

			cfg, err := config.Load(flags.ConfigPath, flags.DataDir)
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}
			flags.Config = cfg

			palette, ok := styles.GetPalette(cfg.Style.Theme)
			if !ok {
				log.Warn().Str("theme", cfg.Style.Theme).Msg("unknown theme, using default")
				palette, _ = styles.GetPalette(styles.DefaultTheme)
			}
			styles.SetTheme(palette)

			// The overlay runs without persistence when the database cannot be opened.
			database, err := stores.Open(cfg.DatabaseFile(), db.OpenOptions{
				MaxOpenConns: cfg.Database.MaxOpenConns,
				MaxIdleConns: cfg.Database.MaxIdleConns,
				BusyTimeout:  cfg.Database.BusyTimeout,
			})
			if err != nil {
				log.Warn().Err(err).Str("path", cfg.DatabaseFile()).Msg("database unavailable, settings and history disabled")
				database = nil
			}
			flags.DB = database

			return printer.NewContext(ctx, printer.New(os.Stderr)), nil
		},
		After: func(_ context.Context, _ *cli.Command) error {
			// Close database connection
			if flags.DB != nil {
				if err := flags.DB.Close(); err != nil {
					log.Error().Err(err).Msg("failed to close database")
					return err
				}
			}

			// Close log file
			if logCloser != nil {
				logCloser()
			}
			return nil
		},
	}

	runCmd := commands.NewRunCmd(flags)

	app = runCmd.Register(app)
	app = commands.NewSendCmd(flags).Register(app)
	app = commands.NewDecodeCmd(flags).Register(app)
	app = commands.NewLayoutCmd(flags).Register(app)
	app = commands.NewHistoryCmd(flags).Register(app)
	app = commands.NewDBCmd(flags).Register(app)
	app = commands.NewConfigValidateCmd(flags).Register(app)
	app = commands.NewInitCmd(flags).Register(app)
	app = commands.NewDocCmd(flags).Register(app)

	// Register run flags on root command
	app.Flags = append(app.Flags, runCmd.Flags()...)

	// Start the overlay when no subcommand is provided
	app.Action = func(ctx context.Context, c *cli.Command) error {
		if c.Args().Len() > 0 {
			return fmt.Errorf("unknown command %q. Run 'danmaku --help' for usage", c.Args().First())
		}
		return runCmd.Run(ctx, c)
	}

	exitCode := 0
	runErr := app.Run(ctx, os.Args)
	if runErr != nil {
		fmt.Println()
		fmt.Println(runErr.Error())
		exitCode = 1
	}

	os.Exit(exitCode)
}
