package overlay

import (
	"maps"
	"sync"

	"github.com/colonyops/danmaku/internal/core/eventbus"
)

// StatsSnapshot is a point-in-time copy of the counters.
type StatsSnapshot struct {
	Submitted        int
	Delivered        int
	Relayed          int
	Terminated       int
	Evicted          int
	WindowsDestroyed int
	Paused           bool
	// TerminatedBy counts terminations per reason.
	TerminatedBy map[string]int
	LastCommentID int64
}

// Stats counts comment lifecycle events from the bus.
type Stats struct {
	mu   sync.Mutex
	snap StatsSnapshot
}

// NewStats subscribes a collector to bus.
func NewStats(bus *eventbus.EventBus) *Stats {
	s := &Stats{snap: StatsSnapshot{TerminatedBy: make(map[string]int)}}

	bus.SubscribeCommentSubmitted(func(p eventbus.CommentSubmittedPayload) {
		s.with(func(snap *StatsSnapshot) {
			snap.Submitted++
			snap.LastCommentID = max(snap.LastCommentID, p.Comment.ID)
		})
	})
	bus.SubscribeCommentDelivered(func(eventbus.CommentDeliveredPayload) {
		s.with(func(snap *StatsSnapshot) { snap.Delivered++ })
	})
	bus.SubscribeCommentRelayed(func(eventbus.CommentRelayedPayload) {
		s.with(func(snap *StatsSnapshot) { snap.Relayed++ })
	})
	bus.SubscribeCommentTerminated(func(p eventbus.CommentTerminatedPayload) {
		s.with(func(snap *StatsSnapshot) {
			snap.Terminated++
			snap.TerminatedBy[p.Reason]++
		})
	})
	bus.SubscribeCommentEvicted(func(eventbus.CommentEvictedPayload) {
		s.with(func(snap *StatsSnapshot) { snap.Evicted++ })
	})
	bus.SubscribeWindowDestroyed(func(eventbus.WindowDestroyedPayload) {
		s.with(func(snap *StatsSnapshot) { snap.WindowsDestroyed++ })
	})
	bus.SubscribePlaybackToggled(func(p eventbus.PlaybackToggledPayload) {
		s.with(func(snap *StatsSnapshot) { snap.Paused = p.Paused })
	})

	return s
}

func (s *Stats) with(fn func(*StatsSnapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.snap)
}

// Snapshot returns a copy of the current counters.
func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.snap
	out.TerminatedBy = maps.Clone(s.snap.TerminatedBy)
	return out
}
