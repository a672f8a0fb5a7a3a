package animation

import (
	"math"
	"testing"
	"time"

	"github.com/colonyops/danmaku/internal/core/comment"
	"github.com/stretchr/testify/assert"
)

func TestWideWindowFactor(t *testing.T) {
	tests := []struct {
		name string
		info comment.RendererInfo
		want int
	}{
		{"multi window", comment.RendererInfo{NumDisplays: 3, IsSingleWindow: false}, 1},
		{"combined window", comment.RendererInfo{NumDisplays: 3, IsSingleWindow: true}, 3},
		{"single display", comment.RendererInfo{NumDisplays: 1, IsSingleWindow: true}, 1},
		{"zero displays", comment.RendererInfo{NumDisplays: 0, IsSingleWindow: true}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WideWindowFactor(tt.info))
		})
	}
}

func TestDurationRatio(t *testing.T) {
	assert.InDelta(t, 1.0, DurationRatio(0, 1920, 1), 1e-12)
	assert.InDelta(t, 0.5, DurationRatio(1920, 1920, 1), 1e-12)
	assert.InDelta(t, 1.0/(1.0+3.0*200.0/5760.0), DurationRatio(200, 5760, 3), 1e-12)
	assert.Zero(t, DurationRatio(100, 0, 1))
	assert.InDelta(t, 1.0, DurationRatio(-5, 100, 1), 1e-12)
}

func TestPlan_CombinedWindowSplit(t *testing.T) {
	const (
		w = 240.0
		W = 5760.0
	)
	info := comment.RendererInfo{WindowIndex: 0, NumDisplays: 3, IsSingleWindow: true}

	s := Plan(Params{
		WindowWidth:        W,
		RenderedWidth:      w,
		Factor:             WideWindowFactor(info),
		DurationPerDisplay: 5 * time.Second,
	})

	wantRatio := 1 / (1 + 3*w/W)
	assert.InDelta(t, wantRatio, s.Ratio, 1e-12)
	assert.Equal(t, 3, s.Factor)
	assert.Equal(t, 15*time.Second, s.Total)

	wantEnter := time.Duration(math.Round(float64(s.Total) * wantRatio))
	assert.Equal(t, wantEnter, s.Enter.Duration)
	assert.Equal(t, s.Total-wantEnter, s.Exit.Duration)
	assert.Equal(t, s.Total, s.Enter.Duration+s.Exit.Duration)

	assert.InDelta(t, W, s.Enter.From, 1e-9)
	assert.InDelta(t, 0, s.Enter.To, 1e-9)
	assert.InDelta(t, 0, s.Exit.From, 1e-9)
	assert.InDelta(t, -w*3, s.Exit.To, 1e-9)
}

func TestPlan_VelocityIsContinuousAcrossSegments(t *testing.T) {
	s := Plan(Params{
		WindowWidth:        1920,
		RenderedWidth:      480,
		Factor:             1,
		DurationPerDisplay: 5 * time.Second,
	})

	assert.InDelta(t, s.Enter.Velocity(), s.Exit.Velocity(), 0.01)
	assert.InDelta(t, -(1920.0+480.0)/5.0, s.Enter.Velocity(), 0.01)
}

func TestPlan_ClampsFactor(t *testing.T) {
	s := Plan(Params{WindowWidth: 100, RenderedWidth: 0, Factor: 0, DurationPerDisplay: time.Second})

	assert.Equal(t, 1, s.Factor)
	assert.Equal(t, time.Second, s.Enter.Duration)
	assert.Zero(t, s.Exit.Duration)
}

func TestTop(t *testing.T) {
	tests := []struct {
		name          string
		height, ch, r float64
		want          float64
	}{
		{"floored", 1080, 50, 0.5, 540},
		{"fraction floored", 1000, 10, 0.3333, 333},
		{"overflow pushed up", 1000, 200, 0.89, 800},
		{"taller than window pinned to top", 100, 300, 0.5, 0},
		{"top of window", 1080, 50, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Top(tt.height, tt.ch, tt.r), 1e-9)
		})
	}
}
