package playback

import (
	"testing"
	"time"

	"github.com/colonyops/danmaku/internal/core/animation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettings_AddDuration(t *testing.T) {
	s := Settings{Duration: 2 * time.Second}

	up, err := s.AddDuration(time.Second)
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, up.Duration)

	down, err := up.AddDuration(-2 * time.Second)
	require.NoError(t, err)
	assert.Equal(t, time.Second, down.Duration)

	same, err := down.AddDuration(-time.Second)
	require.ErrorIs(t, err, ErrInvalidDuration)
	assert.Equal(t, time.Second, same.Duration, "rejected change keeps the old duration")
}

func TestSettings_Restore(t *testing.T) {
	base := Settings{Duration: 5 * time.Second, Policy: animation.PolicyCancel}

	got := base.Restore(Persisted{Duration: 7 * time.Second, Policy: animation.PolicyKeep})
	assert.Equal(t, 7*time.Second, got.Duration)
	assert.Equal(t, animation.PolicyKeep, got.Policy)

	got = base.Restore(Persisted{Duration: -1, Policy: "bogus"})
	assert.Equal(t, base, got)

	got = base.Restore(Persisted{})
	assert.Equal(t, base, got)
}

func TestSettings_Persisted(t *testing.T) {
	s := Settings{Duration: time.Second, Policy: animation.PolicyDiscard, MaxComments: 3}
	assert.Equal(t, Persisted{Duration: time.Second, Policy: animation.PolicyDiscard}, s.Persisted())
}
