package eventbus

import (
	"context"
	"sync"
)

type envelope struct {
	event   Event
	payload any
}

// EventBus fans published events out to subscribers on a single goroutine.
type EventBus struct {
	ch    chan envelope
	hooks hooks

	mu   sync.RWMutex
	subs map[Event][]func(any)
}

// New creates a bus with the given buffer size.
func New(bufSize int) *EventBus {
	return &EventBus{
		ch:   make(chan envelope, bufSize),
		subs: make(map[Event][]func(any)),
	}
}

// Start dispatches events to subscribers until ctx is cancelled.
func (bus *EventBus) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case env := <-bus.ch:
			bus.dispatch(env)
		}
	}
}

func (bus *EventBus) dispatch(env envelope) {
	bus.mu.RLock()
	handlers := make([]func(any), len(bus.subs[env.event]))
	copy(handlers, bus.subs[env.event])
	bus.mu.RUnlock()

	for _, fn := range handlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					bus.firePanic(env.event, env.payload, r)
				}
			}()
			fn(env.payload)
		}()
	}
}

func subscribe[T any](bus *EventBus, event Event, fn func(T)) {
	bus.mu.Lock()
	bus.subs[event] = append(bus.subs[event], func(p any) { fn(p.(T)) })
	bus.mu.Unlock()
}

// PublishCommentSubmitted publishes a comment.submitted event.
func (bus *EventBus) PublishCommentSubmitted(p CommentSubmittedPayload) {
	bus.send(EventCommentSubmitted, p)
}

// SubscribeCommentSubmitted registers fn for comment.submitted events.
func (bus *EventBus) SubscribeCommentSubmitted(fn func(CommentSubmittedPayload)) {
	subscribe(bus, EventCommentSubmitted, fn)
}

// PublishCommentDelivered publishes a comment.delivered event.
func (bus *EventBus) PublishCommentDelivered(p CommentDeliveredPayload) {
	bus.send(EventCommentDelivered, p)
}

// SubscribeCommentDelivered registers fn for comment.delivered events.
func (bus *EventBus) SubscribeCommentDelivered(fn func(CommentDeliveredPayload)) {
	subscribe(bus, EventCommentDelivered, fn)
}

// PublishCommentRelayed publishes a comment.relayed event.
func (bus *EventBus) PublishCommentRelayed(p CommentRelayedPayload) {
	bus.send(EventCommentRelayed, p)
}

// SubscribeCommentRelayed registers fn for comment.relayed events.
func (bus *EventBus) SubscribeCommentRelayed(fn func(CommentRelayedPayload)) {
	subscribe(bus, EventCommentRelayed, fn)
}

// PublishCommentTerminated publishes a comment.terminated event.
func (bus *EventBus) PublishCommentTerminated(p CommentTerminatedPayload) {
	bus.send(EventCommentTerminated, p)
}

// SubscribeCommentTerminated registers fn for comment.terminated events.
func (bus *EventBus) SubscribeCommentTerminated(fn func(CommentTerminatedPayload)) {
	subscribe(bus, EventCommentTerminated, fn)
}

// PublishCommentEvicted publishes a comment.evicted event.
func (bus *EventBus) PublishCommentEvicted(p CommentEvictedPayload) {
	bus.send(EventCommentEvicted, p)
}

// SubscribeCommentEvicted registers fn for comment.evicted events.
func (bus *EventBus) SubscribeCommentEvicted(fn func(CommentEvictedPayload)) {
	subscribe(bus, EventCommentEvicted, fn)
}

// PublishPlaybackToggled publishes a playback.toggled event.
func (bus *EventBus) PublishPlaybackToggled(p PlaybackToggledPayload) {
	bus.send(EventPlaybackToggled, p)
}

// SubscribePlaybackToggled registers fn for playback.toggled events.
func (bus *EventBus) SubscribePlaybackToggled(fn func(PlaybackToggledPayload)) {
	subscribe(bus, EventPlaybackToggled, fn)
}

// PublishSettingsChanged publishes a settings.changed event.
func (bus *EventBus) PublishSettingsChanged(p SettingsChangedPayload) {
	bus.send(EventSettingsChanged, p)
}

// SubscribeSettingsChanged registers fn for settings.changed events.
func (bus *EventBus) SubscribeSettingsChanged(fn func(SettingsChangedPayload)) {
	subscribe(bus, EventSettingsChanged, fn)
}

// PublishWindowDestroyed publishes a window.destroyed event.
func (bus *EventBus) PublishWindowDestroyed(p WindowDestroyedPayload) {
	bus.send(EventWindowDestroyed, p)
}

// SubscribeWindowDestroyed registers fn for window.destroyed events.
func (bus *EventBus) SubscribeWindowDestroyed(fn func(WindowDestroyedPayload)) {
	subscribe(bus, EventWindowDestroyed, fn)
}

// PublishConfigReloaded publishes a config.reloaded event.
func (bus *EventBus) PublishConfigReloaded(p ConfigReloadedPayload) {
	bus.send(EventConfigReloaded, p)
}

// SubscribeConfigReloaded registers fn for config.reloaded events.
func (bus *EventBus) SubscribeConfigReloaded(fn func(ConfigReloadedPayload)) {
	subscribe(bus, EventConfigReloaded, fn)
}
