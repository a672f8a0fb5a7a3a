package stores

import (
	"context"
	"testing"
	"time"

	"github.com/colonyops/danmaku/internal/core/animation"
	"github.com/colonyops/danmaku/internal/core/playback"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlaybackStore(t *testing.T) {
	ctx := context.Background()
	store := NewPlaybackStore(NewKVStore(openTestDB(t)))

	_, found, err := store.Load(ctx)
	require.NoError(t, err)
	assert.False(t, found)

	want := playback.Persisted{Duration: 7500 * time.Millisecond, Policy: animation.PolicyDiscard}
	require.NoError(t, store.Save(ctx, want))

	got, found, err := store.Load(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, want, got)

	require.NoError(t, store.Reset(ctx))
	_, found, err = store.Load(ctx)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestPlaybackStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	database := openTestDB(t)

	require.NoError(t, NewPlaybackStore(NewKVStore(database)).Save(ctx, playback.Persisted{
		Duration: 3 * time.Second,
		Policy:   animation.PolicyKeep,
	}))

	got, found, err := NewPlaybackStore(NewKVStore(database)).Load(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 3*time.Second, got.Duration)
}
