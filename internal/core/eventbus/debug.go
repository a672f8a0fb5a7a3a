package eventbus

import (
	"fmt"

	"github.com/rs/zerolog"
)

// RegisterDebugLogger registers bus hooks that log all event activity at debug level.
// Comment events carry the comment id; drops are logged as warnings and
// subscriber panics as errors.
func RegisterDebugLogger(bus *EventBus, logger zerolog.Logger) {
	bus.OnPublish(func(event Event, payload any) {
		e := logger.Debug().Str("event", string(event))
		if id, ok := commentID(payload); ok {
			e = e.Int64("comment_id", id)
		}
		e.Msg("event fired")
	})

	bus.OnDrop(func(event Event, _ any) {
		logger.Warn().Str("event", string(event)).Msg("event dropped: buffer full")
	})

	bus.OnPanic(func(event Event, _ any, recovered any) {
		logger.Error().
			Str("event", string(event)).
			Str("panic", fmt.Sprint(recovered)).
			Msg("subscriber panicked")
	})
}

func commentID(payload any) (int64, bool) {
	switch p := payload.(type) {
	case CommentSubmittedPayload:
		return p.Comment.ID, true
	case CommentDeliveredPayload:
		return p.Delivery.Comment.ID, true
	case CommentRelayedPayload:
		return p.Comment.ID, true
	case CommentTerminatedPayload:
		return p.Comment.ID, true
	case CommentEvictedPayload:
		return p.Comment.ID, true
	default:
		return 0, false
	}
}
