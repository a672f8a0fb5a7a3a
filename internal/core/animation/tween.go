package animation

import "time"

// Tween linearly interpolates a Segment over time. It can be paused and
// resumed; paused time does not count towards progress.
type Tween struct {
	seg      Segment
	start    time.Time
	held     time.Duration
	pausedAt time.Time
	paused   bool
}

// NewTween starts seg at the given instant.
func NewTween(seg Segment, start time.Time) *Tween {
	return &Tween{seg: seg, start: start}
}

// Segment returns the segment being animated.
func (t *Tween) Segment() Segment {
	return t.seg
}

// Elapsed returns the active (unpaused) time since start, capped at the
// segment duration.
func (t *Tween) Elapsed(now time.Time) time.Duration {
	if t.paused {
		now = t.pausedAt
	}
	e := now.Sub(t.start) - t.held
	return min(max(e, 0), t.seg.Duration)
}

// Progress returns completion in [0, 1].
func (t *Tween) Progress(now time.Time) float64 {
	if t.seg.Duration <= 0 {
		return 1
	}
	return float64(t.Elapsed(now)) / float64(t.seg.Duration)
}

// Position returns the interpolated X coordinate.
func (t *Tween) Position(now time.Time) float64 {
	p := t.Progress(now)
	return t.seg.From + (t.seg.To-t.seg.From)*p
}

// Done reports whether the segment has run to completion.
func (t *Tween) Done(now time.Time) bool {
	return !t.paused && t.Elapsed(now) >= t.seg.Duration
}

// End returns the instant the tween finishes given no further pauses.
func (t *Tween) End() time.Time {
	return t.start.Add(t.held + t.seg.Duration)
}

// Paused reports whether the tween is paused.
func (t *Tween) Paused() bool {
	return t.paused
}

// Pause freezes the tween at its position at now. Pausing twice is a no-op.
func (t *Tween) Pause(now time.Time) {
	if t.paused {
		return
	}
	t.paused = true
	t.pausedAt = now
}

// Resume continues a paused tween from where it was frozen.
func (t *Tween) Resume(now time.Time) {
	if !t.paused {
		return
	}
	if d := now.Sub(t.pausedAt); d > 0 {
		t.held += d
	}
	t.paused = false
	t.pausedAt = time.Time{}
}
