package overlay

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/colonyops/danmaku/internal/core/animation"
	"github.com/colonyops/danmaku/internal/core/comment"
	"github.com/colonyops/danmaku/internal/core/display"
	"github.com/colonyops/danmaku/internal/core/eventbus"
	"github.com/colonyops/danmaku/internal/core/logging"
	"github.com/colonyops/danmaku/internal/core/playback"
	"github.com/colonyops/danmaku/internal/core/relay"
	"github.com/colonyops/danmaku/pkg/mailbox"
	"github.com/rs/zerolog"
)

// Relayer forwards a comment that reached a window's left edge.
type Relayer interface {
	Relay(req relay.Request) error
}

// Frame is an immutable picture of one window, published after every loop
// iteration for renderers to read without locking.
type Frame struct {
	Window  int
	Bounds  display.Rect
	Sprites []Sprite
	Paused  bool
	Alive   bool
}

type msgKind int

const (
	msgDeliver msgKind = iota
	msgRelayResult
	msgPause
	msgSettings
	msgDestroy
)

type message struct {
	kind      msgKind
	delivery  comment.Delivery
	commentID int64
	relayed   bool
	paused    bool
	settings  playback.Settings
}

// WindowConfig holds the dependencies of a Window.
type WindowConfig struct {
	Index    int
	Bounds   display.Rect
	Measurer Measurer
	Settings playback.Settings
	Relayer  Relayer
	Bus      *eventbus.EventBus // optional
	Clock    animation.Clock    // defaults to the system clock
	// FrameInterval is the animation tick period. Defaults to 60 fps.
	FrameInterval time.Duration
}

// Window is one overlay surface. All stage mutations happen on the Run
// goroutine; the exported methods only enqueue messages, so Window can be
// registered as a relay.Target and called from any goroutine.
type Window struct {
	index    int
	bounds   display.Rect
	stage    *Stage
	relayer  Relayer
	bus      *eventbus.EventBus
	clock    animation.Clock
	interval time.Duration
	log      zerolog.Logger

	box   *mailbox.Mailbox[message]
	frame atomic.Pointer[Frame]
	done  chan struct{}
}

// NewWindow creates a window. It does nothing until Run is called.
func NewWindow(cfg WindowConfig) *Window {
	if cfg.Clock == nil {
		cfg.Clock = animation.SystemClock{}
	}
	if cfg.FrameInterval <= 0 {
		cfg.FrameInterval = time.Second / 60
	}
	if cfg.Measurer == nil {
		cfg.Measurer = TextMeasurer{FontSize: 56}
	}

	w := &Window{
		index:    cfg.Index,
		bounds:   cfg.Bounds,
		stage:    NewStage(cfg.Index, cfg.Bounds, cfg.Measurer, cfg.Settings),
		relayer:  cfg.Relayer,
		bus:      cfg.Bus,
		clock:    cfg.Clock,
		interval: cfg.FrameInterval,
		log:      logging.Window(cfg.Index),
		box:      mailbox.New[message](),
		done:     make(chan struct{}),
	}
	w.frame.Store(&Frame{Window: cfg.Index, Bounds: cfg.Bounds, Alive: true})
	return w
}

// Index returns the window's position in the relay chain.
func (w *Window) Index() int { return w.index }

// Bounds returns the window's rectangle on the virtual desktop.
func (w *Window) Bounds() display.Rect { return w.bounds }

// Deliver implements relay.Target.
func (w *Window) Deliver(d comment.Delivery) {
	if !w.box.Push(message{kind: msgDeliver, delivery: d}) {
		w.log.Debug().Int64("comment_id", d.Comment.ID).Msg("delivery to stopped window dropped")
	}
}

// RelayResult implements relay.Target.
func (w *Window) RelayResult(commentID int64, relayed bool) {
	w.box.Push(message{kind: msgRelayResult, commentID: commentID, relayed: relayed})
}

// SetPaused freezes or resumes the window's animations.
func (w *Window) SetPaused(paused bool) {
	w.box.Push(message{kind: msgPause, paused: paused})
}

// UpdateSettings applies new settings to comments delivered afterwards.
func (w *Window) UpdateSettings(s playback.Settings) {
	w.box.Push(message{kind: msgSettings, settings: s})
}

// Destroy cancels everything the window hosts and stops its loop. The caller
// is expected to have removed the window from the registry first.
func (w *Window) Destroy() {
	w.box.Push(message{kind: msgDestroy})
}

// Frame returns the latest published frame.
func (w *Window) Frame() *Frame {
	return w.frame.Load()
}

// Done is closed when Run returns.
func (w *Window) Done() <-chan struct{} {
	return w.done
}

// Run drives the window until ctx is cancelled or the window is destroyed.
func (w *Window) Run(ctx context.Context) error {
	defer close(w.done)
	defer w.box.Close()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.log.Debug().
		Int("x", w.bounds.X).Int("y", w.bounds.Y).
		Int("width", w.bounds.Width).Int("height", w.bounds.Height).
		Msg("window started")

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-w.box.Signal():
			for _, m := range w.box.Drain() {
				if w.handle(m) {
					w.box.Close()
					w.publishFrame(w.clock.Now(), false)
					w.log.Info().Msg("window destroyed")
					return nil
				}
			}
		case <-ticker.C:
			w.apply(w.stage.Tick(w.clock.Now()))
		}
		w.publishFrame(w.clock.Now(), true)
	}
}

// handle processes one message and reports whether the window was destroyed.
func (w *Window) handle(m message) bool {
	now := w.clock.Now()
	switch m.kind {
	case msgDeliver:
		w.apply(w.stage.Deliver(m.delivery, now))
	case msgRelayResult:
		w.stage.RelayResult(m.commentID, m.relayed, now)
	case msgPause:
		w.apply(w.stage.SetPaused(m.paused, now))
	case msgSettings:
		w.stage.UpdateSettings(m.settings)
	case msgDestroy:
		w.apply(w.stage.Destroy())
		return true
	}
	return false
}

func (w *Window) apply(effects []Effect) {
	for _, e := range effects {
		switch e.Kind {
		case EffectRelay:
			err := w.relayer.Relay(relay.Request{Comment: e.Comment, From: w.index})
			if err != nil {
				w.log.Debug().Err(err).Int64("comment_id", e.Comment.ID).Msg("relay not sent")
			}
		case EffectTerminated:
			w.bus.PublishCommentTerminated(eventbus.CommentTerminatedPayload{
				Comment: e.Comment,
				Window:  w.index,
				Reason:  e.Reason,
			})
		case EffectEvicted:
			w.bus.PublishCommentEvicted(eventbus.CommentEvictedPayload{
				Comment: e.Comment,
				Window:  w.index,
				Policy:  w.stage.Settings().Policy,
			})
		}
	}
}

func (w *Window) publishFrame(now time.Time, alive bool) {
	f := &Frame{
		Window: w.index,
		Bounds: w.bounds,
		Paused: w.stage.Paused(),
		Alive:  alive,
	}
	if alive {
		f.Sprites = w.stage.Snapshot(now)
	}
	w.frame.Store(f)
}
