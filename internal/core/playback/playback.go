// Package playback holds the runtime animation settings shared by every
// overlay window and the store contract used to carry them across restarts.
package playback

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/colonyops/danmaku/internal/core/animation"
	"github.com/colonyops/danmaku/internal/core/comment"
)

// ErrInvalidDuration is returned when a duration change would leave a
// non-positive scroll duration.
var ErrInvalidDuration = errors.New("scroll duration must be positive")

// Settings are the runtime animation parameters. Duration changes apply to
// comments delivered afterwards; the policy applies at the next eviction.
type Settings struct {
	Duration    time.Duration // per display
	SpawnDelay  time.Duration
	MaxComments int // 0 = unlimited
	Policy      animation.Policy
	Toggles     comment.Toggles
}

// WithDuration returns a copy using d, rejecting non-positive values.
func (s Settings) WithDuration(d time.Duration) (Settings, error) {
	if d <= 0 {
		return s, fmt.Errorf("%w: %s", ErrInvalidDuration, d)
	}
	s.Duration = d
	return s, nil
}

// AddDuration shifts the duration by delta. A result that is not positive is
// rejected and s is returned unchanged.
func (s Settings) AddDuration(delta time.Duration) (Settings, error) {
	return s.WithDuration(s.Duration + delta)
}

// Persisted is the part of Settings restored on the next launch.
type Persisted struct {
	Duration time.Duration
	Policy   animation.Policy
}

// Persisted extracts the stored subset.
func (s Settings) Persisted() Persisted {
	return Persisted{Duration: s.Duration, Policy: s.Policy}
}

// Restore overlays stored values onto s. Invalid stored values are skipped.
func (s Settings) Restore(p Persisted) Settings {
	if p.Duration > 0 {
		s.Duration = p.Duration
	}
	if policy, err := animation.ParsePolicy(string(p.Policy)); err == nil && p.Policy != "" {
		s.Policy = policy
	}
	return s
}

// Store persists playback settings.
type Store interface {
	// Load returns the stored settings; found is false when nothing was saved.
	Load(ctx context.Context) (p Persisted, found bool, err error)
	Save(ctx context.Context, p Persisted) error
}
