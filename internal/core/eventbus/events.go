// Package eventbus provides a typed publish/subscribe event bus for
// cross-component notifications within danmaku. Delivery is best effort:
// events are dropped when the buffer is full, so nothing that must happen
// (such as a relay) is ever routed through it.
package eventbus

import (
	"time"

	"github.com/colonyops/danmaku/internal/core/animation"
	"github.com/colonyops/danmaku/internal/core/comment"
	"github.com/colonyops/danmaku/internal/core/config"
)

// Event names an event type.
type Event string

const (
	// Keep list sorted A-Z
	EventCommentDelivered  Event = "comment.delivered"
	EventCommentEvicted    Event = "comment.evicted"
	EventCommentRelayed    Event = "comment.relayed"
	EventCommentSubmitted  Event = "comment.submitted"
	EventCommentTerminated Event = "comment.terminated"
	EventConfigReloaded    Event = "config.reloaded"
	EventPlaybackToggled   Event = "playback.toggled"
	EventSettingsChanged   Event = "settings.changed"
	EventWindowDestroyed   Event = "window.destroyed"
)

// Events maps every event name to its payload type.
var Events = map[Event]any{
	EventCommentDelivered:  CommentDeliveredPayload{},
	EventCommentEvicted:    CommentEvictedPayload{},
	EventCommentRelayed:    CommentRelayedPayload{},
	EventCommentSubmitted:  CommentSubmittedPayload{},
	EventCommentTerminated: CommentTerminatedPayload{},
	EventConfigReloaded:    ConfigReloadedPayload{},
	EventPlaybackToggled:   PlaybackToggledPayload{},
	EventSettingsChanged:   SettingsChangedPayload{},
	EventWindowDestroyed:   WindowDestroyedPayload{},
}

// CommentSubmittedPayload is emitted when a feed payload has been decoded
// into a comment.
type CommentSubmittedPayload struct {
	Comment comment.Comment
	Source  string
}

// CommentDeliveredPayload is emitted when a comment is handed to a window.
type CommentDeliveredPayload struct {
	Delivery comment.Delivery
}

// CommentRelayedPayload is emitted when a comment moves to the next window.
type CommentRelayedPayload struct {
	Comment comment.Comment
	From    int
	To      int
}

// Termination reasons.
const (
	ReasonDeadEnd   = "dead end"
	ReasonNoWindow  = "no live window"
	ReasonEvicted   = "evicted"
	ReasonDestroyed = "window destroyed"
)

// CommentTerminatedPayload is emitted when a comment's relay chain ends.
type CommentTerminatedPayload struct {
	Comment comment.Comment
	Window  int
	Reason  string
}

// CommentEvictedPayload is emitted when a window drops a comment over its
// display limit.
type CommentEvictedPayload struct {
	Comment comment.Comment
	Window  int
	Policy  animation.Policy
}

// PlaybackToggledPayload is emitted when the global pause state flips.
type PlaybackToggledPayload struct {
	Paused bool
}

// SettingsChangedPayload is emitted when runtime settings are broadcast to
// the windows.
type SettingsChangedPayload struct {
	Duration time.Duration
	Policy   animation.Policy
}

// WindowDestroyedPayload is emitted when a window is removed from the relay chain.
type WindowDestroyedPayload struct {
	Window int
}

// ConfigReloadedPayload is emitted when configuration is reloaded.
type ConfigReloadedPayload struct {
	Config *config.Config
}
