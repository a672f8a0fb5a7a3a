package overlay

import (
	"math"
	"testing"
	"time"

	"github.com/colonyops/danmaku/internal/core/animation"
	"github.com/colonyops/danmaku/internal/core/comment"
	"github.com/colonyops/danmaku/internal/core/display"
	"github.com/colonyops/danmaku/internal/core/eventbus"
	"github.com/colonyops/danmaku/internal/core/playback"
	"github.com/colonyops/danmaku/internal/core/relay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedMeasurer struct{ w, h float64 }

func (m fixedMeasurer) Measure(comment.Segments) (float64, float64) { return m.w, m.h }

var t0 = time.Unix(1_700_000_000, 0)

func testSettings() playback.Settings {
	return playback.Settings{
		Duration:   5 * time.Second,
		SpawnDelay: 100 * time.Millisecond,
		Policy:     animation.PolicyCancel,
		Toggles:    comment.AllToggles(),
	}
}

// newStage returns a 1000x500 stage whose comments measure 250x50, giving an
// 0.8 ratio: 4s to reach the left edge and 1s for the tail.
func newStage(settings playback.Settings) *Stage {
	return NewStage(0, display.Rect{Width: 1000, Height: 500}, fixedMeasurer{w: 250, h: 50}, settings)
}

func multi(index int) comment.RendererInfo {
	return comment.RendererInfo{WindowIndex: index, NumDisplays: 2}
}

func feed(id int64, info comment.RendererInfo) comment.Delivery {
	return comment.Delivery{Comment: comment.New(id, "c", 0.5), Info: info}
}

func relayed(id int64, info comment.RendererInfo) comment.Delivery {
	d := feed(id, info)
	d.Relayed = true
	return d
}

func kinds(effects []Effect) []EffectKind {
	out := make([]EffectKind, len(effects))
	for i, e := range effects {
		out[i] = e.Kind
	}
	return out
}

func onlySprite(t *testing.T, s *Stage, now time.Time) Sprite {
	t.Helper()
	sprites := s.Snapshot(now)
	require.Len(t, sprites, 1)
	return sprites[0]
}

func TestStage_MultiWindowRelayLifecycle(t *testing.T) {
	s := newStage(testSettings())

	assert.Empty(t, s.Deliver(feed(1, multi(0)), t0))
	sp := onlySprite(t, s, t0)
	assert.Equal(t, relay.StateSpawned, sp.State)
	assert.InDelta(t, 1000, sp.X, 1e-9)
	assert.InDelta(t, 250, sp.Y, 1e-9)

	start := t0.Add(100 * time.Millisecond)
	assert.Empty(t, s.Tick(start))
	assert.Equal(t, relay.StateScrolling, onlySprite(t, s, start).State)

	assert.InDelta(t, 500, onlySprite(t, s, start.Add(2*time.Second)).X, 1e-6)
	assert.Empty(t, s.Tick(start.Add(3999*time.Millisecond)))

	arrive := start.Add(4 * time.Second)
	effects := s.Tick(arrive)
	require.Equal(t, []EffectKind{EffectRelay}, kinds(effects))
	assert.Equal(t, int64(1), effects[0].Comment.ID)

	sp = onlySprite(t, s, arrive.Add(time.Second))
	assert.Equal(t, relay.StateArrived, sp.State)
	assert.InDelta(t, 0, sp.X, 1e-9, "waits at the edge until the relay answers")

	reply := arrive.Add(10 * time.Millisecond)
	s.RelayResult(1, true, reply)
	sp = onlySprite(t, s, arrive.Add(500*time.Millisecond))
	assert.Equal(t, relay.StateRelayed, sp.State)
	assert.InDelta(t, -125, sp.X, 1e-6, "tail continues from the moment of arrival")

	assert.Empty(t, s.Tick(arrive.Add(time.Second)))
	assert.Zero(t, s.Len())
}

func TestStage_MultiWindowDeadEndRemovesAtEdge(t *testing.T) {
	s := newStage(testSettings())
	s.Deliver(relayed(3, multi(1)), t0)

	arrive := t0.Add(4 * time.Second)
	require.Equal(t, []EffectKind{EffectRelay}, kinds(s.Tick(arrive)))

	s.RelayResult(3, false, arrive)
	assert.Zero(t, s.Len())
	assert.Empty(t, s.Tick(arrive.Add(time.Second)))
}

func TestStage_RelayedDeliverySkipsSpawnDelay(t *testing.T) {
	s := newStage(testSettings())
	s.Deliver(relayed(1, multi(1)), t0)

	sp := onlySprite(t, s, t0.Add(time.Second))
	assert.Equal(t, relay.StateScrolling, sp.State)
	assert.InDelta(t, 750, sp.X, 1e-6)
}

func TestStage_SingleWindowIsContinuous(t *testing.T) {
	s := NewStage(0, display.Rect{Width: 3000, Height: 500}, fixedMeasurer{w: 300, h: 50}, testSettings())
	info := comment.RendererInfo{WindowIndex: 0, NumDisplays: 3, IsSingleWindow: true}
	s.Deliver(relayed(1, info), t0)

	ratio := 1 / (1 + 3*300.0/3000.0)
	total := 15 * time.Second
	enter := time.Duration(math.Round(float64(total) * ratio))

	assert.Empty(t, s.Tick(t0.Add(enter-time.Millisecond)))
	require.Equal(t, []EffectKind{EffectRelay}, kinds(s.Tick(t0.Add(enter))))

	// No further window: the chain ends but the animation keeps running.
	s.RelayResult(1, false, t0.Add(enter))
	sp := onlySprite(t, s, t0.Add(enter+time.Second))
	assert.Equal(t, relay.StateTerminated, sp.State)
	assert.Less(t, sp.X, 0.0)

	assert.Empty(t, s.Tick(t0.Add(total)))
	assert.Zero(t, s.Len())
}

func TestStage_PauseFreezesAndShiftsTimeline(t *testing.T) {
	s := newStage(testSettings())
	s.Deliver(relayed(1, multi(0)), t0)

	pauseAt := t0.Add(time.Second)
	assert.Empty(t, s.SetPaused(true, pauseAt))
	assert.True(t, s.Paused())
	frozen := onlySprite(t, s, pauseAt).X
	assert.InDelta(t, 750, frozen, 1e-6)

	assert.Empty(t, s.Tick(t0.Add(time.Minute)))
	assert.InDelta(t, frozen, onlySprite(t, s, t0.Add(time.Minute)).X, 1e-9)

	resumeAt := pauseAt.Add(10 * time.Second)
	assert.Empty(t, s.SetPaused(false, resumeAt))
	assert.InDelta(t, frozen, onlySprite(t, s, resumeAt).X, 1e-9)

	assert.Empty(t, s.Tick(resumeAt.Add(3*time.Second-time.Millisecond)))
	assert.Equal(t, []EffectKind{EffectRelay}, kinds(s.Tick(resumeAt.Add(3*time.Second))))
}

func TestStage_PauseCatchesCrossingFirst(t *testing.T) {
	s := newStage(testSettings())
	s.Deliver(relayed(1, multi(0)), t0)

	// The frame at the crossing was missed; pausing later still reports it.
	effects := s.SetPaused(true, t0.Add(4500*time.Millisecond))
	assert.Equal(t, []EffectKind{EffectRelay}, kinds(effects))

	s.RelayResult(1, true, t0.Add(4600*time.Millisecond))
	sp := onlySprite(t, s, t0.Add(time.Hour))
	assert.InDelta(t, -125, sp.X, 1e-6, "tail frozen at the pause instant")
}

func TestStage_PauseDuringSpawnDelay(t *testing.T) {
	s := newStage(testSettings())
	s.Deliver(feed(1, multi(0)), t0)

	s.SetPaused(true, t0.Add(40*time.Millisecond))
	resume := t0.Add(time.Second)
	s.SetPaused(false, resume)

	assert.Equal(t, relay.StateSpawned, onlySprite(t, s, resume.Add(59*time.Millisecond)).State)
	s.Tick(resume.Add(60 * time.Millisecond))
	assert.Equal(t, relay.StateScrolling, onlySprite(t, s, resume.Add(60*time.Millisecond)).State)
}

func TestStage_DeliveryWhilePausedWaitsForResume(t *testing.T) {
	s := newStage(testSettings())
	s.SetPaused(true, t0)
	s.Deliver(feed(1, multi(0)), t0.Add(time.Second))

	s.Tick(t0.Add(time.Minute))
	assert.Equal(t, relay.StateSpawned, onlySprite(t, s, t0.Add(time.Minute)).State)

	resume := t0.Add(2 * time.Minute)
	s.SetPaused(false, resume)
	s.Tick(resume.Add(100 * time.Millisecond))
	sp := onlySprite(t, s, resume.Add(100*time.Millisecond))
	assert.Equal(t, relay.StateScrolling, sp.State)
	assert.InDelta(t, 1000, sp.X, 1e-9)
}

func TestStage_DiscardNeverRelaysEvicted(t *testing.T) {
	settings := testSettings()
	settings.Policy = animation.PolicyDiscard
	settings.MaxComments = 2
	s := newStage(settings)

	assert.Empty(t, s.Deliver(relayed(1, multi(0)), t0))
	assert.Empty(t, s.Deliver(relayed(2, multi(0)), t0.Add(time.Second)))

	effects := s.Deliver(relayed(3, multi(0)), t0.Add(2*time.Second))
	require.Equal(t, []EffectKind{EffectEvicted, EffectTerminated}, kinds(effects))
	assert.Equal(t, int64(1), effects[0].Comment.ID)
	assert.Equal(t, eventbus.ReasonEvicted, effects[1].Reason)
	assert.Equal(t, 2, s.Len())

	var relays []int64
	for step := 2 * time.Second; step <= 10*time.Second; step += 100 * time.Millisecond {
		for _, e := range s.Tick(t0.Add(step)) {
			if e.Kind == EffectRelay {
				relays = append(relays, e.Comment.ID)
			}
		}
	}
	assert.Equal(t, []int64{2, 3}, relays)
}

func TestStage_DiscardIgnoresPendingReply(t *testing.T) {
	settings := testSettings()
	settings.Policy = animation.PolicyDiscard
	settings.MaxComments = 1
	s := newStage(settings)

	s.Deliver(relayed(1, multi(0)), t0)
	require.Equal(t, []EffectKind{EffectRelay}, kinds(s.Tick(t0.Add(4*time.Second))))

	effects := s.Deliver(relayed(2, multi(0)), t0.Add(4*time.Second))
	assert.Equal(t, []EffectKind{EffectEvicted, EffectTerminated}, kinds(effects))

	s.RelayResult(1, true, t0.Add(4*time.Second))
	sp := onlySprite(t, s, t0.Add(4*time.Second))
	assert.Equal(t, int64(2), sp.CommentID)
}

func TestStage_CancelKeepsRelayOfCrossedComment(t *testing.T) {
	settings := testSettings()
	settings.MaxComments = 1
	s := newStage(settings)

	s.Deliver(relayed(1, multi(0)), t0)
	require.Equal(t, []EffectKind{EffectRelay}, kinds(s.Tick(t0.Add(4*time.Second))))

	effects := s.Deliver(relayed(2, multi(0)), t0.Add(4*time.Second))
	assert.Equal(t, []EffectKind{EffectEvicted}, kinds(effects), "crossed comment is not terminated")

	// Not yet crossed: cancelled without relay.
	effects = s.Deliver(relayed(3, multi(0)), t0.Add(5*time.Second))
	assert.Equal(t, []EffectKind{EffectEvicted, EffectTerminated}, kinds(effects))
	assert.Equal(t, int64(2), effects[0].Comment.ID)

	assert.NotPanics(t, func() { s.RelayResult(1, true, t0.Add(5*time.Second)) })
	assert.Equal(t, int64(3), onlySprite(t, s, t0.Add(5*time.Second)).CommentID)
}

func TestStage_KeepNeverEvicts(t *testing.T) {
	settings := testSettings()
	settings.Policy = animation.PolicyKeep
	settings.MaxComments = 1
	s := newStage(settings)

	for i := int64(1); i <= 5; i++ {
		assert.Empty(t, s.Deliver(feed(i, multi(0)), t0))
	}
	assert.Equal(t, 5, s.Len())
}

func TestStage_DestroyCancelsEverything(t *testing.T) {
	s := newStage(testSettings())
	s.Deliver(relayed(1, multi(0)), t0)
	s.Deliver(relayed(2, multi(0)), t0.Add(2*time.Second))
	require.Equal(t, []EffectKind{EffectRelay}, kinds(s.Tick(t0.Add(4*time.Second))))

	effects := s.Destroy()
	assert.Equal(t, []EffectKind{EffectTerminated, EffectTerminated}, kinds(effects))
	for _, e := range effects {
		assert.Equal(t, eventbus.ReasonDestroyed, e.Reason)
	}

	assert.Zero(t, s.Len())
	assert.Empty(t, s.Tick(t0.Add(time.Minute)))
	assert.NotPanics(t, func() { s.RelayResult(1, true, t0.Add(time.Minute)) })
}

func TestStage_SnapshotOrdersByID(t *testing.T) {
	s := NewStage(0, display.Rect{Width: 1000, Height: 100}, fixedMeasurer{w: 10, h: 40}, testSettings())

	d := relayed(9, multi(0))
	d.Comment = comment.New(9, "late", 0.8)
	s.Deliver(d, t0)
	s.Deliver(relayed(4, multi(0)), t0)

	sprites := s.Snapshot(t0)
	require.Len(t, sprites, 2)
	assert.Equal(t, int64(4), sprites[0].CommentID)
	assert.Equal(t, int64(9), sprites[1].CommentID)
	assert.InDelta(t, 60, sprites[1].Y, 1e-9, "floor(80) overflows by 20")
}

func TestStage_SettingsApplyToNewComments(t *testing.T) {
	s := newStage(testSettings())
	s.Deliver(relayed(1, multi(0)), t0)

	faster := testSettings()
	faster.Duration = 2500 * time.Millisecond
	s.UpdateSettings(faster)
	s.Deliver(relayed(2, multi(0)), t0)

	effects := s.Tick(t0.Add(2 * time.Second))
	require.Equal(t, []EffectKind{EffectRelay}, kinds(effects))
	assert.Equal(t, int64(2), effects[0].Comment.ID)
	assert.Equal(t, faster, s.Settings())
}
