// Package animation computes scroll timing for comments crossing overlay
// windows and provides pausable linear tweens.
package animation

import (
	"math"
	"time"

	"github.com/colonyops/danmaku/internal/core/comment"
)

// WideWindowFactor is the number of display widths one window spans: the
// display count when all displays are combined into one window, otherwise 1.
func WideWindowFactor(info comment.RendererInfo) int {
	if info.IsSingleWindow && info.NumDisplays > 1 {
		return info.NumDisplays
	}
	return 1
}

// DurationRatio is the fraction of the total travel time spent moving from the
// right edge to the window's left edge:
//
//	1 / (1 + renderedWidth*factor/windowWidth)
func DurationRatio(renderedWidth, windowWidth float64, factor int) float64 {
	if windowWidth <= 0 {
		return 0
	}
	renderedWidth = max(renderedWidth, 0)
	factor = max(factor, 1)
	return 1 / (1 + renderedWidth*float64(factor)/windowWidth)
}

// Segment is one linear leg of a scroll animation along the X axis.
type Segment struct {
	From     float64
	To       float64
	Duration time.Duration
}

// Velocity returns the signed speed in pixels per second.
func (s Segment) Velocity() float64 {
	if s.Duration <= 0 {
		return 0
	}
	return (s.To - s.From) / s.Duration.Seconds()
}

// Params describe a comment entering one window.
type Params struct {
	WindowWidth        float64
	RenderedWidth      float64
	Factor             int
	DurationPerDisplay time.Duration
}

// Schedule is the two-segment plan for one window occupancy.
type Schedule struct {
	Factor int
	Total  time.Duration
	Ratio  float64
	// Enter moves the comment from the right edge to the local left edge.
	Enter Segment
	// Exit moves it from the left edge until it has fully left the window.
	Exit Segment
}

// Plan computes the schedule. The total duration is the per-display duration
// scaled by the factor; Enter takes Total*Ratio and Exit the remainder.
func Plan(p Params) Schedule {
	factor := max(p.Factor, 1)
	total := p.DurationPerDisplay * time.Duration(factor)
	ratio := DurationRatio(p.RenderedWidth, p.WindowWidth, factor)

	enter := time.Duration(math.Round(float64(total) * ratio))
	enter = min(max(enter, 0), total)

	return Schedule{
		Factor: factor,
		Total:  total,
		Ratio:  ratio,
		Enter: Segment{
			From:     p.WindowWidth,
			To:       0,
			Duration: enter,
		},
		Exit: Segment{
			From:     0,
			To:       -max(p.RenderedWidth, 0) * float64(factor),
			Duration: total - enter,
		},
	}
}

// Top returns the vertical position for a comment: the window height scaled by
// ratio, moved up when the comment would overflow the bottom edge, never
// above 0.
func Top(windowHeight, renderedHeight, ratio float64) float64 {
	top := math.Floor(windowHeight * ratio)
	if overflow := top + renderedHeight - windowHeight; overflow > 0 {
		top -= overflow
	}
	return max(top, 0)
}
