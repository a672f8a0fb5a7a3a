package history

import (
	"context"
	"time"

	"github.com/colonyops/danmaku/internal/core/eventbus"
	"github.com/colonyops/danmaku/internal/core/logging"
	"github.com/rs/zerolog"
)

// Recorder writes comment lifecycle events from the bus into a Store.
type Recorder struct {
	store Store
	log   zerolog.Logger
	now   func() time.Time
}

// NewRecorder subscribes a recorder to bus.
func NewRecorder(bus *eventbus.EventBus, store Store) *Recorder {
	r := &Recorder{
		store: store,
		log:   logging.Component("history"),
		now:   time.Now,
	}

	bus.SubscribeCommentSubmitted(func(p eventbus.CommentSubmittedPayload) {
		now := r.now()
		r.check(r.store.Record(context.Background(), Entry{
			CommentID: p.Comment.ID,
			Text:      p.Comment.Text,
			Source:    p.Source,
			Outcome:   OutcomeSubmitted,
			Window:    -1,
			CreatedAt: now,
			UpdatedAt: now,
		}))
	})
	bus.SubscribeCommentDelivered(func(p eventbus.CommentDeliveredPayload) {
		d := p.Delivery
		if d.Relayed {
			return
		}
		r.set(d.Comment.ID, OutcomeDelivered, "", d.Info.WindowIndex)
	})
	bus.SubscribeCommentRelayed(func(p eventbus.CommentRelayedPayload) {
		r.set(p.Comment.ID, OutcomeRelayed, "", p.To)
	})
	bus.SubscribeCommentEvicted(func(p eventbus.CommentEvictedPayload) {
		r.set(p.Comment.ID, OutcomeEvicted, string(p.Policy), p.Window)
	})
	bus.SubscribeCommentTerminated(func(p eventbus.CommentTerminatedPayload) {
		r.set(p.Comment.ID, OutcomeTerminated, p.Reason, p.Window)
	})

	return r
}

func (r *Recorder) set(id int64, outcome Outcome, detail string, window int) {
	r.check(r.store.SetOutcome(context.Background(), id, outcome, detail, window))
}

func (r *Recorder) check(err error) {
	if err != nil {
		r.log.Warn().Err(err).Msg("failed to record comment history")
	}
}
