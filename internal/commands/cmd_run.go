package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/colonyops/danmaku/internal/core/config"
	"github.com/colonyops/danmaku/internal/core/eventbus"
	"github.com/colonyops/danmaku/internal/core/history"
	"github.com/colonyops/danmaku/internal/core/logging"
	"github.com/colonyops/danmaku/internal/core/playback"
	"github.com/colonyops/danmaku/internal/data/stores"
	"github.com/colonyops/danmaku/internal/overlay"
	"github.com/colonyops/danmaku/internal/profiler"
	"github.com/colonyops/danmaku/internal/source"
	"github.com/colonyops/danmaku/internal/tui"
)

const busBufferSize = 1024

type RunCmd struct {
	flags *Flags

	// Command-specific flags
	headless     bool
	profilerPort int
}

// NewRunCmd creates a new run command
func NewRunCmd(flags *Flags) *RunCmd {
	return &RunCmd{flags: flags}
}

// Register adds the run command to the application
func (cmd *RunCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "run",
		Usage:     "Start the overlay and its feeds",
		UsageText: "danmaku run [options]",
		Description: `Starts one overlay window per planned display rectangle, the relay
dispatcher and every enabled feed.

When stdout is a terminal the windows are drawn as a live preview with
keyboard controls; otherwise, or with --headless, the overlay runs until
interrupted. Edits to the config file are applied while running.`,
		Action: cmd.Run,
	})

	return app
}

// Flags returns the run flags. They are registered on the root command so
// they apply both to 'danmaku' and 'danmaku run'.
func (cmd *RunCmd) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:        "headless",
			Usage:       "run without the terminal preview",
			Sources:     cli.EnvVars("DANMAKU_HEADLESS"),
			Destination: &cmd.headless,
		},
		&cli.IntFlag{
			Name:        "profiler-port",
			Usage:       "enable pprof and /debug/stats on the specified port (e.g., 6060)",
			Sources:     cli.EnvVars("DANMAKU_PROFILER_PORT"),
			Destination: &cmd.profilerPort,
		},
	}
}

// Run starts the overlay and blocks until it stops.
func (cmd *RunCmd) Run(ctx context.Context, _ *cli.Command) error {
	cfg := cmd.flags.Config

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	bus := eventbus.New(busBufferSize)
	eventbus.RegisterDebugLogger(bus, logging.Component("eventbus"))

	var store playback.Store
	if cmd.flags.DB != nil {
		store = stores.NewPlaybackStore(stores.NewKVStore(cmd.flags.DB))
		if cfg.History.Enabled {
			history.NewRecorder(bus, stores.NewHistoryStore(cmd.flags.DB, cfg.History.MaxEntries))
		}
	}

	app, err := overlay.NewApp(ctx, cfg, overlay.Options{Bus: bus, Store: store})
	if err != nil {
		return err
	}

	feeds := source.NewFeeds(cfg.Sources, app.Service())
	if len(feeds.Names()) == 0 {
		log.Warn().Msg("no feed enabled")
	}

	if cmd.profilerPort > 0 {
		prof := profiler.New(cmd.profilerPort, func() any { return app.Stats().Snapshot() })
		if err := prof.Start(ctx); err != nil {
			return fmt.Errorf("failed to start profiler: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := prof.Shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("failed to shutdown profiler server")
			}
		}()
		log.Info().
			Str("url", fmt.Sprintf("http://%s/debug/stats", prof.Addr())).
			Msg("profiler endpoint available")
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		bus.Start(gctx)
		return nil
	})
	g.Go(func() error { return app.Run(gctx) })
	g.Go(func() error { return feeds.Run(gctx) })
	g.Go(func() error {
		cmd.watchConfig(gctx, app.Controller())
		return nil
	})

	if !cmd.headless && term.IsTerminal(int(os.Stdout.Fd())) {
		cmd.flags.Console.Hold()
		g.Go(func() error {
			defer cancel()
			defer func() { _ = cmd.flags.Console.Release() }()
			return tui.Run(gctx, tui.New(gctx, app, tui.Options{Feeds: feeds}))
		})
	} else {
		log.Info().Strs("feeds", feeds.Names()).Msg("overlay running headless")
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// watchConfig hands every reloaded configuration to the controller until ctx
// is cancelled.
func (cmd *RunCmd) watchConfig(ctx context.Context, ctl *overlay.Controller) {
	w, err := config.NewWatcher(logging.Component("config"), cmd.flags.ConfigPath, cmd.flags.DataDir)
	if err != nil {
		log.Warn().Err(err).Msg("config reload disabled")
		return
	}
	defer func() {
		if err := w.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close config watcher")
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case cfg := <-w.Changes():
			ctl.ApplyConfig(ctx, cfg)
		}
	}
}
