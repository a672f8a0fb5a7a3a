package overlay

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/colonyops/danmaku/internal/core/animation"
	"github.com/colonyops/danmaku/internal/core/config"
	"github.com/colonyops/danmaku/internal/core/display"
	"github.com/colonyops/danmaku/internal/core/eventbus"
	"github.com/colonyops/danmaku/internal/core/logging"
	"github.com/colonyops/danmaku/internal/core/playback"
	"github.com/colonyops/danmaku/internal/core/relay"
	"golang.org/x/sync/errgroup"
)

// Options carries the optional collaborators of an App.
type Options struct {
	Bus      *eventbus.EventBus
	Store    playback.Store
	Clock    animation.Clock
	Measurer Measurer
	Rand     *rand.Rand
}

// App wires the relay service, one window per planned rectangle, the
// controller and the stats collector.
type App struct {
	layout     display.Layout
	registry   *relay.Registry
	service    *relay.Service
	windows    []*Window
	controller *Controller
	stats      *Stats
}

// NewApp builds the overlay for cfg. Stored playback settings, when present,
// override the configured duration and policy.
func NewApp(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	log := logging.Component("overlay")

	layout, err := cfg.Layout()
	if err != nil {
		return nil, fmt.Errorf("plan windows: %w", err)
	}

	defaults := SettingsFromConfig(cfg)
	settings := defaults
	if opts.Store != nil {
		stored, found, err := opts.Store.Load(ctx)
		switch {
		case err != nil:
			log.Warn().Err(err).Msg("failed to load playback settings")
		case found:
			settings = settings.Restore(stored)
			log.Debug().
				Dur("duration", settings.Duration).
				Str("policy", string(settings.Policy)).
				Msg("restored playback settings")
		}
	}

	if opts.Measurer == nil {
		opts.Measurer = TextMeasurer{FontSize: float64(cfg.Style.FontSize)}
	}

	registry := relay.NewRegistry()
	service := relay.NewService(
		logging.Component("relay"),
		registry,
		relay.Topology{NumDisplays: layout.NumDisplays, IsSingleWindow: layout.IsSingleWindow},
		opts.Bus,
		opts.Rand,
	)

	windows := make([]*Window, 0, len(layout.Windows))
	for i, bounds := range layout.Windows {
		w := NewWindow(WindowConfig{
			Index:         i,
			Bounds:        bounds,
			Measurer:      opts.Measurer,
			Settings:      settings,
			Relayer:       service,
			Bus:           opts.Bus,
			Clock:         opts.Clock,
			FrameInterval: cfg.FrameInterval(),
		})
		if idx := registry.Add(w); idx != i {
			return nil, fmt.Errorf("window %d registered at index %d", i, idx)
		}
		windows = append(windows, w)
	}

	controller := NewController(registry, windows, opts.Bus, opts.Store, defaults, cfg.DurationStep())
	controller.settings = settings

	app := &App{
		layout:     layout,
		registry:   registry,
		service:    service,
		windows:    windows,
		controller: controller,
	}
	if opts.Bus != nil {
		app.stats = NewStats(opts.Bus)
	}

	log.Info().
		Int("windows", len(windows)).
		Int("displays", layout.NumDisplays).
		Bool("single_window", layout.IsSingleWindow).
		Msg("overlay ready")

	return app, nil
}

// Run starts the dispatcher and every window and blocks until ctx is
// cancelled or one of them fails.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.service.Run(ctx)
	})
	for _, w := range a.windows {
		g.Go(func() error {
			return w.Run(ctx)
		})
	}
	return g.Wait()
}

// Layout returns the window plan.
func (a *App) Layout() display.Layout { return a.layout }

// Service returns the dispatcher; feeds submit payloads to it.
func (a *App) Service() *relay.Service { return a.service }

// Windows returns every window, live or destroyed, by index.
func (a *App) Windows() []*Window { return a.windows }

// Controller returns the playback controller.
func (a *App) Controller() *Controller { return a.controller }

// Stats returns the event counters, or nil when the app runs without a bus.
func (a *App) Stats() *Stats { return a.stats }

// Frames returns the latest frame of every window.
func (a *App) Frames() []*Frame {
	out := make([]*Frame, len(a.windows))
	for i, w := range a.windows {
		out[i] = w.Frame()
	}
	return out
}
