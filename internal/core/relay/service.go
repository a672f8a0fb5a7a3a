package relay

import (
	"context"
	"errors"
	"math/rand/v2"

	"github.com/colonyops/danmaku/internal/core/comment"
	"github.com/colonyops/danmaku/internal/core/eventbus"
	"github.com/colonyops/danmaku/internal/core/logging"
	"github.com/colonyops/danmaku/pkg/mailbox"
	"github.com/rs/zerolog"
)

// ErrClosed is returned when submitting to a service that has stopped.
var ErrClosed = errors.New("relay service closed")

// Topology is the display arrangement shared by every window.
type Topology struct {
	NumDisplays    int
	IsSingleWindow bool
}

// Request asks the service to hand a comment to the next live window after From.
type Request struct {
	Comment comment.Comment
	From    int
}

type task struct {
	raw    string
	source string
	relay  *Request
}

// Service is the single dispatcher of the overlay. Feed payloads and relay
// requests are queued on its mailbox and processed in order by Run, so id
// assignment and window selection never race.
type Service struct {
	log      zerolog.Logger
	registry *Registry
	topology Topology
	bus      *eventbus.EventBus
	rand     func() float64

	box    *mailbox.Mailbox[task]
	nextID int64
}

// NewService creates a dispatcher over registry. rnd supplies vertical
// placement; nil uses the global source. bus may be nil.
func NewService(log zerolog.Logger, registry *Registry, topology Topology, bus *eventbus.EventBus, rnd *rand.Rand) *Service {
	randFn := rand.Float64
	if rnd != nil {
		randFn = rnd.Float64
	}
	return &Service{
		log:      log,
		registry: registry,
		topology: topology,
		bus:      bus,
		rand:     randFn,
		box:      mailbox.New[task](),
	}
}

// Registry returns the window registry the service dispatches over.
func (s *Service) Registry() *Registry {
	return s.registry
}

// Submit queues a raw feed payload for decoding and dispatch. The feed name
// is taken from ctx (see logging.WithSource).
func (s *Service) Submit(ctx context.Context, raw string) error {
	if !s.box.Push(task{raw: raw, source: logging.GetSource(ctx)}) {
		return ErrClosed
	}
	return nil
}

// Relay queues a relay request from a window whose comment reached its left edge.
func (s *Service) Relay(req Request) error {
	if !s.box.Push(task{relay: &req}) {
		return ErrClosed
	}
	return nil
}

// Run processes queued work until ctx is cancelled. Work still queued at
// shutdown is discarded.
func (s *Service) Run(ctx context.Context) error {
	defer s.box.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.box.Signal():
			for _, t := range s.box.Drain() {
				if t.relay != nil {
					s.relay(*t.relay)
				} else {
					s.dispatch(t.raw, t.source)
				}
			}
		}
	}
}

func (s *Service) info(index int) comment.RendererInfo {
	return comment.RendererInfo{
		WindowIndex:    index,
		NumDisplays:    s.topology.NumDisplays,
		IsSingleWindow: s.topology.IsSingleWindow,
	}
}

// dispatch decodes raw into a new comment and delivers it to the first live
// window. It returns the comment and the receiving index, -1 when none.
func (s *Service) dispatch(raw, source string) (comment.Comment, int) {
	s.nextID++
	c := comment.New(s.nextID, comment.Decode(raw), s.rand()*comment.MaxOffsetTopRatio)

	s.bus.PublishCommentSubmitted(eventbus.CommentSubmittedPayload{Comment: c, Source: source})

	idx, target, ok := s.registry.FirstAlive()
	if !ok {
		s.log.Debug().Int64("comment_id", c.ID).Msg("no live window, comment dropped")
		s.bus.PublishCommentTerminated(eventbus.CommentTerminatedPayload{
			Comment: c,
			Window:  -1,
			Reason:  eventbus.ReasonNoWindow,
		})
		return c, -1
	}

	d := comment.Delivery{Comment: c, Info: s.info(idx)}
	target.Deliver(d)
	s.bus.PublishCommentDelivered(eventbus.CommentDeliveredPayload{Delivery: d})
	return c, idx
}

// relay forwards req to the next live window and reports the outcome to the
// sender. Requests from windows destroyed since sending are dropped.
func (s *Service) relay(req Request) (int, bool) {
	log := s.log.With().Int64("comment_id", req.Comment.ID).Int("from", req.From).Logger()

	sender, ok := s.registry.Get(req.From)
	if !ok {
		log.Debug().Msg("relay from destroyed window ignored")
		return -1, false
	}

	next, target, found := s.registry.NextAlive(req.From)
	if !found {
		log.Debug().Msg("relay dead end, comment terminated")
		s.bus.PublishCommentTerminated(eventbus.CommentTerminatedPayload{
			Comment: req.Comment,
			Window:  req.From,
			Reason:  eventbus.ReasonDeadEnd,
		})
		sender.RelayResult(req.Comment.ID, false)
		return -1, false
	}

	d := comment.Delivery{Comment: req.Comment, Info: s.info(next), Relayed: true}
	target.Deliver(d)
	sender.RelayResult(req.Comment.ID, true)

	log.Debug().Int("to", next).Msg("comment relayed")
	s.bus.PublishCommentRelayed(eventbus.CommentRelayedPayload{
		Comment: req.Comment,
		From:    req.From,
		To:      next,
	})
	return next, true
}
