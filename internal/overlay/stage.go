// Package overlay runs the per-window animation loops: each Window owns a
// Stage holding the comments it currently shows, advances their scroll
// animations frame by frame and hands them to the relay service when they
// reach the window's left edge.
package overlay

import (
	"slices"
	"time"

	"github.com/colonyops/danmaku/internal/core/animation"
	"github.com/colonyops/danmaku/internal/core/comment"
	"github.com/colonyops/danmaku/internal/core/display"
	"github.com/colonyops/danmaku/internal/core/eventbus"
	"github.com/colonyops/danmaku/internal/core/playback"
	"github.com/colonyops/danmaku/internal/core/relay"
)

// EffectKind identifies work a Stage asks its window to perform.
type EffectKind int

const (
	// EffectRelay asks the relay service to forward the comment.
	EffectRelay EffectKind = iota
	// EffectTerminated reports a comment whose chain ended in this window.
	EffectTerminated
	// EffectEvicted reports a comment removed over the display limit.
	EffectEvicted
)

// Effect is an outbound action produced by the Stage.
type Effect struct {
	Kind    EffectKind
	Comment comment.Comment
	Reason  string
}

type phase int

const (
	phaseWaiting phase = iota // spawn delay
	phaseEnter                // right edge to left edge
	phaseAwaiting             // at the left edge, relay reply pending
	phaseExit                 // tail leaving the window
)

type element struct {
	occ      *relay.Occupancy
	segs     comment.Segments
	width    float64
	height   float64
	top      float64
	sched    animation.Schedule
	phase    phase
	startAt  time.Time     // phaseWaiting: motion start
	delay    time.Duration // phaseWaiting while paused: remaining delay
	tween    *animation.Tween
	enterEnd time.Time
	notified bool
	visible  bool
}

// Sprite is a drawable snapshot of one comment.
type Sprite struct {
	CommentID int64
	Segments  comment.Segments
	X         float64
	Y         float64
	Width     float64
	Height    float64
	State     relay.State
}

// Stage is the single-threaded model of one window. It is not safe for
// concurrent use; Window serializes all calls.
type Stage struct {
	index    int
	bounds   display.Rect
	measurer Measurer
	settings playback.Settings

	elements []*element         // visible, in arrival order
	pending  map[int64]*element // awaiting a relay reply
	paused   bool
	pausedAt time.Time
}

// NewStage creates an empty stage for the window at index.
func NewStage(index int, bounds display.Rect, measurer Measurer, settings playback.Settings) *Stage {
	return &Stage{
		index:    index,
		bounds:   bounds,
		measurer: measurer,
		settings: settings,
		pending:  make(map[int64]*element),
	}
}

// Settings returns the active settings.
func (s *Stage) Settings() playback.Settings {
	return s.settings
}

// UpdateSettings replaces the settings for future deliveries and evictions.
func (s *Stage) UpdateSettings(settings playback.Settings) {
	s.settings = settings
}

// Paused reports whether the stage is frozen.
func (s *Stage) Paused() bool {
	return s.paused
}

// Len returns the number of visible comments.
func (s *Stage) Len() int {
	return len(s.elements)
}

// Deliver places a comment at the right edge. Comments arriving from a feed
// wait for the spawn delay; relayed comments start moving immediately so the
// motion stays continuous across windows. Delivery may evict the oldest
// comments over the display limit.
func (s *Stage) Deliver(d comment.Delivery, now time.Time) []Effect {
	effects := s.Tick(now)

	segs := comment.Parse(d.Comment.Text).Apply(s.settings.Toggles)
	w, h := s.measurer.Measure(segs)
	width, height := float64(s.bounds.Width), float64(s.bounds.Height)

	sched := animation.Plan(animation.Params{
		WindowWidth:        width,
		RenderedWidth:      w,
		Factor:             animation.WideWindowFactor(d.Info),
		DurationPerDisplay: s.settings.Duration,
	})

	e := &element{
		occ:     relay.NewOccupancy(d.Comment, d.Info),
		segs:    segs,
		width:   w,
		height:  h,
		top:     animation.Top(height, h, d.Comment.OffsetTopRatio),
		sched:   sched,
		phase:   phaseWaiting,
		visible: true,
	}

	delay := s.settings.SpawnDelay
	if d.Relayed {
		delay = 0
	}
	if s.paused {
		e.delay = delay
	} else {
		e.startAt = now.Add(delay)
	}

	s.elements = append(s.elements, e)
	effects = append(effects, s.start(e, now)...)
	effects = append(effects, s.evict()...)
	return effects
}

// Tick advances every animation to now and returns the resulting effects.
func (s *Stage) Tick(now time.Time) []Effect {
	if s.paused {
		return nil
	}

	var effects []Effect
	for _, e := range slices.Clone(s.elements) {
		switch e.phase {
		case phaseWaiting:
			effects = append(effects, s.start(e, now)...)
		case phaseEnter:
			effects = append(effects, s.advanceEnter(e, now)...)
		case phaseExit:
			if e.tween.Done(now) {
				s.remove(e)
			}
		}
	}
	return effects
}

// start begins the enter segment once the spawn delay has passed and
// immediately advances it, since a delayed tick may already be past its end.
func (s *Stage) start(e *element, now time.Time) []Effect {
	if s.paused || e.phase != phaseWaiting || now.Before(e.startAt) {
		return nil
	}
	_ = e.occ.Transition(relay.StateScrolling)
	e.phase = phaseEnter
	e.tween = animation.NewTween(e.sched.Enter, e.startAt)
	return s.advanceEnter(e, now)
}

func (s *Stage) advanceEnter(e *element, now time.Time) []Effect {
	if !e.tween.Done(now) {
		return nil
	}

	_ = e.occ.Transition(relay.StateArrived)
	e.enterEnd = e.tween.End()
	e.notified = true
	s.pending[e.occ.Comment.ID] = e

	if e.occ.Info.IsSingleWindow {
		// One window spans every display; the tail keeps scrolling no
		// matter what the relay answers.
		s.beginExit(e)
		if e.tween.Done(now) {
			s.remove(e)
		}
	} else {
		e.phase = phaseAwaiting
	}

	return []Effect{{Kind: EffectRelay, Comment: e.occ.Comment}}
}

func (s *Stage) beginExit(e *element) {
	e.phase = phaseExit
	e.tween = animation.NewTween(e.sched.Exit, e.enterEnd)
	if s.paused {
		e.tween.Pause(s.pausedAt)
	}
}

// RelayResult applies the relay service's answer for a comment. Answers for
// comments no longer tracked are ignored.
func (s *Stage) RelayResult(commentID int64, relayed bool, now time.Time) {
	e, ok := s.pending[commentID]
	if !ok {
		return
	}
	delete(s.pending, commentID)

	if relayed {
		_ = e.occ.Transition(relay.StateRelayed)
		if e.visible && e.phase == phaseAwaiting {
			s.beginExit(e)
			if !s.paused && e.tween.Done(now) {
				s.remove(e)
			}
		}
		return
	}

	_ = e.occ.Transition(relay.StateTerminated)
	if e.visible && e.phase == phaseAwaiting {
		// Dead end: nothing further along shows the tail.
		s.remove(e)
	}
}

// SetPaused freezes or resumes every animation. Pausing first advances the
// stage to now so no crossing is missed.
func (s *Stage) SetPaused(paused bool, now time.Time) []Effect {
	if paused == s.paused {
		return nil
	}

	var effects []Effect
	if paused {
		effects = s.Tick(now)
		s.paused = true
		s.pausedAt = now
		for _, e := range s.elements {
			switch e.phase {
			case phaseWaiting:
				e.delay = max(e.startAt.Sub(now), 0)
			case phaseEnter, phaseExit:
				e.tween.Pause(now)
			}
		}
		return effects
	}

	s.paused = false
	for _, e := range s.elements {
		switch e.phase {
		case phaseWaiting:
			e.startAt = now.Add(e.delay)
			e.delay = 0
		case phaseEnter, phaseExit:
			e.tween.Resume(now)
		}
	}
	s.pausedAt = time.Time{}
	return s.Tick(now)
}

// evict removes the oldest comments over the display limit.
func (s *Stage) evict() []Effect {
	policy := s.settings.Policy
	excess := policy.Excess(len(s.elements), s.settings.MaxComments)
	if excess == 0 {
		return nil
	}

	victims := slices.Clone(s.elements[:excess])
	effects := make([]Effect, 0, len(victims)*2)
	for _, e := range victims {
		s.remove(e)
		effects = append(effects, Effect{Kind: EffectEvicted, Comment: e.occ.Comment})

		if policy.RelayOnEvict(e.notified) {
			// The relay is already underway; its reply settles the state.
			continue
		}
		delete(s.pending, e.occ.Comment.ID)
		if e.occ.Terminate() {
			effects = append(effects, Effect{
				Kind:    EffectTerminated,
				Comment: e.occ.Comment,
				Reason:  eventbus.ReasonEvicted,
			})
		}
	}
	return effects
}

// Destroy cancels everything hosted by the stage. No relay is requested for
// any of it and pending replies are dropped.
func (s *Stage) Destroy() []Effect {
	var effects []Effect
	seen := make(map[int64]bool)
	terminate := func(e *element) {
		if seen[e.occ.Comment.ID] {
			return
		}
		seen[e.occ.Comment.ID] = true
		if e.occ.Terminate() {
			effects = append(effects, Effect{
				Kind:    EffectTerminated,
				Comment: e.occ.Comment,
				Reason:  eventbus.ReasonDestroyed,
			})
		}
	}

	for _, e := range s.elements {
		terminate(e)
	}
	for _, e := range s.pending {
		terminate(e)
	}

	s.elements = nil
	clear(s.pending)
	return effects
}

func (s *Stage) remove(e *element) {
	e.visible = false
	s.elements = slices.DeleteFunc(s.elements, func(x *element) bool { return x == e })
}

// Snapshot returns drawable sprites ordered by comment id, so later comments
// draw on top.
func (s *Stage) Snapshot(now time.Time) []Sprite {
	out := make([]Sprite, 0, len(s.elements))
	for _, e := range s.elements {
		out = append(out, Sprite{
			CommentID: e.occ.Comment.ID,
			Segments:  e.segs,
			X:         s.position(e, now),
			Y:         e.top,
			Width:     e.width,
			Height:    e.height,
			State:     e.occ.State(),
		})
	}
	slices.SortFunc(out, func(a, b Sprite) int {
		switch {
		case a.CommentID < b.CommentID:
			return -1
		case a.CommentID > b.CommentID:
			return 1
		default:
			return 0
		}
	})
	return out
}

func (s *Stage) position(e *element, now time.Time) float64 {
	switch e.phase {
	case phaseWaiting:
		return float64(s.bounds.Width)
	case phaseAwaiting:
		return 0
	default:
		return e.tween.Position(now)
	}
}
