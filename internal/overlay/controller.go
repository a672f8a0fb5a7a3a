package overlay

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/colonyops/danmaku/internal/core/animation"
	"github.com/colonyops/danmaku/internal/core/config"
	"github.com/colonyops/danmaku/internal/core/eventbus"
	"github.com/colonyops/danmaku/internal/core/logging"
	"github.com/colonyops/danmaku/internal/core/playback"
	"github.com/colonyops/danmaku/internal/core/relay"
	"github.com/rs/zerolog"
)

// SettingsFromConfig derives the runtime playback settings from cfg.
func SettingsFromConfig(cfg *config.Config) playback.Settings {
	return playback.Settings{
		Duration:    cfg.Duration(),
		SpawnDelay:  cfg.SpawnDelay(),
		MaxComments: cfg.MaxCommentsOnDisplay,
		Policy:      cfg.OverLimit,
		Toggles:     cfg.CommentToggles(),
	}
}

// Controller applies global playback commands to every window: pause,
// duration and policy changes, config reloads and window destruction.
type Controller struct {
	log      zerolog.Logger
	registry *relay.Registry
	windows  []*Window
	bus      *eventbus.EventBus
	store    playback.Store

	mu       sync.Mutex
	settings playback.Settings
	defaults playback.Settings
	step     time.Duration
	paused   bool
}

// NewController creates a controller over windows, which must be indexed the
// same way as registry. store and bus may be nil.
func NewController(registry *relay.Registry, windows []*Window, bus *eventbus.EventBus, store playback.Store, settings playback.Settings, step time.Duration) *Controller {
	return &Controller{
		log:      logging.Component("controller"),
		registry: registry,
		windows:  windows,
		bus:      bus,
		store:    store,
		settings: settings,
		defaults: settings,
		step:     step,
	}
}

// Settings returns the active settings.
func (c *Controller) Settings() playback.Settings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settings
}

// Paused reports whether playback is frozen.
func (c *Controller) Paused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paused
}

// TogglePause flips the pause state on every window and returns the new state.
func (c *Controller) TogglePause() bool {
	c.mu.Lock()
	c.paused = !c.paused
	paused := c.paused
	// SetPaused only enqueues; holding the lock keeps every window's message
	// order in step with the flips.
	for _, w := range c.windows {
		w.SetPaused(paused)
	}
	c.mu.Unlock()

	c.bus.PublishPlaybackToggled(eventbus.PlaybackToggledPayload{Paused: paused})
	c.log.Info().Bool("paused", paused).Msg("playback toggled")
	return paused
}

// IncreaseDuration lengthens the scroll duration by the configured step.
func (c *Controller) IncreaseDuration(ctx context.Context) (time.Duration, error) {
	return c.update(ctx, func(s playback.Settings) (playback.Settings, error) {
		return s.AddDuration(c.step)
	})
}

// DecreaseDuration shortens the scroll duration by the configured step. A
// result that is not positive is rejected.
func (c *Controller) DecreaseDuration(ctx context.Context) (time.Duration, error) {
	return c.update(ctx, func(s playback.Settings) (playback.Settings, error) {
		return s.AddDuration(-c.step)
	})
}

// ResetDuration restores the configured duration.
func (c *Controller) ResetDuration(ctx context.Context) (time.Duration, error) {
	return c.update(ctx, func(s playback.Settings) (playback.Settings, error) {
		return s.WithDuration(c.defaults.Duration)
	})
}

// SetDuration sets an explicit scroll duration.
func (c *Controller) SetDuration(ctx context.Context, d time.Duration) (time.Duration, error) {
	return c.update(ctx, func(s playback.Settings) (playback.Settings, error) {
		return s.WithDuration(d)
	})
}

// SetPolicy switches the over-limit policy. It applies at the next eviction.
func (c *Controller) SetPolicy(ctx context.Context, p animation.Policy) error {
	policy, err := animation.ParsePolicy(string(p))
	if err != nil {
		return err
	}
	_, err = c.update(ctx, func(s playback.Settings) (playback.Settings, error) {
		s.Policy = policy
		return s, nil
	})
	return err
}

// CyclePolicy advances keep → discard → cancel and returns the new policy.
func (c *Controller) CyclePolicy(ctx context.Context) animation.Policy {
	next := c.Settings().Policy.Next()
	if err := c.SetPolicy(ctx, next); err != nil {
		c.log.Warn().Err(err).Msg("cycle policy")
	}
	return next
}

func (c *Controller) update(ctx context.Context, fn func(playback.Settings) (playback.Settings, error)) (time.Duration, error) {
	c.mu.Lock()
	next, err := fn(c.settings)
	if err != nil {
		d := c.settings.Duration
		c.mu.Unlock()
		return d, err
	}
	c.settings = next
	c.mu.Unlock()

	c.broadcast(next)
	c.persist(ctx, next)
	return next.Duration, nil
}

// ApplyConfig takes over a reloaded configuration. Runtime duration and policy
// changes survive unless the file changed those keys itself.
func (c *Controller) ApplyConfig(ctx context.Context, cfg *config.Config) {
	fresh := SettingsFromConfig(cfg)

	c.mu.Lock()
	next := fresh
	if fresh.Duration == c.defaults.Duration {
		next.Duration = c.settings.Duration
	}
	if fresh.Policy == c.defaults.Policy {
		next.Policy = c.settings.Policy
	}
	c.defaults = fresh
	c.step = cfg.DurationStep()
	c.settings = next
	c.mu.Unlock()

	c.broadcast(next)
	c.persist(ctx, next)
	c.bus.PublishConfigReloaded(eventbus.ConfigReloadedPayload{Config: cfg})
}

func (c *Controller) broadcast(s playback.Settings) {
	for _, w := range c.windows {
		w.UpdateSettings(s)
	}
	c.bus.PublishSettingsChanged(eventbus.SettingsChangedPayload{Duration: s.Duration, Policy: s.Policy})
	c.log.Info().
		Dur("duration", s.Duration).
		Str("policy", string(s.Policy)).
		Msg("settings changed")
}

func (c *Controller) persist(ctx context.Context, s playback.Settings) {
	if c.store == nil {
		return
	}
	if err := c.store.Save(ctx, s.Persisted()); err != nil {
		c.log.Warn().Err(err).Msg("failed to persist playback settings")
	}
}

// DestroyWindow closes the window at index i. Comments it hosts are
// cancelled and later relays skip it.
func (c *Controller) DestroyWindow(i int) error {
	if i < 0 || i >= len(c.windows) {
		return fmt.Errorf("%w: %d", relay.ErrUnknownWindow, i)
	}
	if !c.registry.Alive(i) {
		return nil
	}
	if err := c.registry.Destroy(i); err != nil {
		return err
	}
	c.windows[i].Destroy()
	c.bus.PublishWindowDestroyed(eventbus.WindowDestroyedPayload{Window: i})
	return nil
}

// DestroyLast closes the live window with the highest index and returns it.
// It returns -1 when no window is left.
func (c *Controller) DestroyLast() (int, error) {
	alive := c.registry.AliveIndices()
	if len(alive) == 0 {
		return -1, nil
	}
	i := alive[len(alive)-1]
	return i, c.DestroyWindow(i)
}
