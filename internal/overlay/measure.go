package overlay

import (
	"strings"

	"github.com/colonyops/danmaku/internal/core/comment"
	"github.com/mattn/go-runewidth"
)

// Measurer reports the rendered size of a comment in window pixels.
type Measurer interface {
	Measure(s comment.Segments) (width, height float64)
}

// TextMeasurer estimates rendered sizes from terminal cell widths: a narrow
// cell is half an em wide, so CJK and emoji count double.
type TextMeasurer struct {
	FontSize float64
}

const (
	lineHeightFactor = 1.25
	mediaHeightEm    = 3
	mediaWidthEm     = 4
)

// Measure returns the bounding box of the text line(s) followed by any block
// images and videos stacked below it.
func (m TextMeasurer) Measure(s comment.Segments) (float64, float64) {
	em := m.FontSize
	if em <= 0 {
		em = 1
	}

	var (
		widest float64
		line   float64
		lines  = 1
	)
	if s.Icon != "" {
		line += em
	}
	for _, p := range s.Body {
		if p.Kind == comment.PartInlineImage {
			line += em
			continue
		}
		for i, chunk := range strings.Split(p.Value, "\n") {
			if i > 0 {
				widest = max(widest, line)
				line = 0
				lines++
			}
			line += float64(runewidth.StringWidth(chunk)) * em / 2
		}
	}
	widest = max(widest, line)

	height := float64(lines) * em * lineHeightFactor
	if media := len(s.Images) + len(s.Videos); media > 0 {
		widest = max(widest, mediaWidthEm*em)
		height += float64(media) * mediaHeightEm * em
	}

	return widest, height
}
