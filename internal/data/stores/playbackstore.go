package stores

import (
	"context"
	"fmt"
	"time"

	"github.com/colonyops/danmaku/internal/core/animation"
	"github.com/colonyops/danmaku/internal/core/kv"
	"github.com/colonyops/danmaku/internal/core/playback"
)

const playbackKey = "current"

type playbackRecord struct {
	DurationMs int64  `json:"duration_ms"`
	Policy     string `json:"policy"`
}

// PlaybackStore implements playback.Store on top of a KV store.
type PlaybackStore struct {
	kv *kv.TypedKV[playbackRecord]
}

var _ playback.Store = (*PlaybackStore)(nil)

// NewPlaybackStore creates a playback settings store in the "playback" namespace.
func NewPlaybackStore(store kv.KV) *PlaybackStore {
	return &PlaybackStore{kv: kv.Scoped[playbackRecord](store, "playback")}
}

// Load returns the saved settings. found is false when nothing was saved yet.
func (s *PlaybackStore) Load(ctx context.Context) (playback.Persisted, bool, error) {
	rec, found, err := s.kv.Lookup(ctx, playbackKey)
	if err != nil || !found {
		if err != nil {
			err = fmt.Errorf("load playback settings: %w", err)
		}
		return playback.Persisted{}, false, err
	}

	return playback.Persisted{
		Duration: time.Duration(rec.DurationMs) * time.Millisecond,
		Policy:   animation.Policy(rec.Policy),
	}, true, nil
}

// Save replaces the saved settings.
func (s *PlaybackStore) Save(ctx context.Context, p playback.Persisted) error {
	err := s.kv.Set(ctx, playbackKey, playbackRecord{
		DurationMs: p.Duration.Milliseconds(),
		Policy:     string(p.Policy),
	})
	if err != nil {
		return fmt.Errorf("save playback settings: %w", err)
	}
	return nil
}

// Reset forgets the saved settings so the next launch uses the config file.
func (s *PlaybackStore) Reset(ctx context.Context) error {
	return s.kv.Delete(ctx, playbackKey)
}
