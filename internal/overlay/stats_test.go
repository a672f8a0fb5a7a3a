package overlay

import (
	"testing"
	"time"

	"github.com/colonyops/danmaku/internal/core/comment"
	"github.com/colonyops/danmaku/internal/core/eventbus"
	"github.com/colonyops/danmaku/internal/core/eventbus/testbus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStats_CountsEvents(t *testing.T) {
	tb := testbus.New(t)
	stats := NewStats(tb.EventBus)

	c := comment.New(4, "x", 0)
	tb.PublishCommentSubmitted(eventbus.CommentSubmittedPayload{Comment: c})
	tb.PublishCommentDelivered(eventbus.CommentDeliveredPayload{Delivery: comment.Delivery{Comment: c}})
	tb.PublishCommentRelayed(eventbus.CommentRelayedPayload{Comment: c, From: 0, To: 1})
	tb.PublishCommentTerminated(eventbus.CommentTerminatedPayload{Comment: c, Reason: eventbus.ReasonDeadEnd})
	tb.PublishCommentTerminated(eventbus.CommentTerminatedPayload{Comment: c, Reason: eventbus.ReasonDeadEnd})
	tb.PublishCommentEvicted(eventbus.CommentEvictedPayload{Comment: c})
	tb.PublishWindowDestroyed(eventbus.WindowDestroyedPayload{Window: 1})
	tb.PublishPlaybackToggled(eventbus.PlaybackToggledPayload{Paused: true})

	require.True(t, tb.WaitFor(eventbus.EventPlaybackToggled, time.Second))
	require.Eventually(t, func() bool { return stats.Snapshot().Paused }, time.Second, time.Millisecond)

	snap := stats.Snapshot()
	assert.Equal(t, 1, snap.Submitted)
	assert.Equal(t, 1, snap.Delivered)
	assert.Equal(t, 1, snap.Relayed)
	assert.Equal(t, 2, snap.Terminated)
	assert.Equal(t, 1, snap.Evicted)
	assert.Equal(t, 1, snap.WindowsDestroyed)
	assert.Equal(t, int64(4), snap.LastCommentID)
	assert.Equal(t, map[string]int{eventbus.ReasonDeadEnd: 2}, snap.TerminatedBy)
}

func TestStats_SnapshotIsACopy(t *testing.T) {
	tb := testbus.New(t)
	stats := NewStats(tb.EventBus)

	snap := stats.Snapshot()
	snap.TerminatedBy["x"] = 9
	assert.Empty(t, stats.Snapshot().TerminatedBy)
}
