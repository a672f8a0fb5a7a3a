package tui

import (
	"testing"

	"github.com/colonyops/danmaku/internal/core/comment"
	"github.com/colonyops/danmaku/internal/core/display"
	"github.com/colonyops/danmaku/internal/overlay"
	"github.com/colonyops/danmaku/pkg/tuitest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLabel(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"plain", "hello", "hello"},
		{"icon", "icon.png" + comment.IconSeparator + "hi", "@ hi"},
		{"inline image", "a" + comment.InlineImgSeparator + "x.png" + comment.InlineImgSeparator + "b", "a[*]b"},
		{"block media", "hi" + comment.ImgSeparator + "a.png" + comment.VideoSeparator + "b.mp4", "hi [img] [vid]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Label(comment.Parse(tt.text)))
		})
	}
}

func frameWith(sprites ...overlay.Sprite) *overlay.Frame {
	return &overlay.Frame{
		Bounds:  display.Rect{Width: 100, Height: 50},
		Sprites: sprites,
		Alive:   true,
	}
}

func sprite(id int64, text string, x, y float64) overlay.Sprite {
	return overlay.Sprite{CommentID: id, Segments: comment.Parse(text), X: x, Y: y}
}

func plainLines(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = tuitest.StripANSI(l)
	}
	return out
}

func TestRenderFrame_Placement(t *testing.T) {
	tests := []struct {
		name   string
		sprite overlay.Sprite
		row    int
		want   string
	}{
		{"scaled position", sprite(1, "hi", 50, 20), 2, "     hi"},
		{"clipped at left edge", sprite(1, "hello", -10, 0), 0, "ello"},
		{"clipped at right edge", sprite(1, "hello", 90, 0), 0, "         h"},
		{"wide runes take two cells", sprite(1, "日本", 0, 40), 4, "日本"},
		{"row clamped to bottom", sprite(1, "x", 0, 500), 4, "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines := plainLines(RenderFrame(frameWith(tt.sprite), 10, 5))
			require.Len(t, lines, 5)
			assert.Equal(t, tt.want, lines[tt.row])
		})
	}
}

func TestRenderFrame_LaterCommentsDrawOnTop(t *testing.T) {
	lines := plainLines(RenderFrame(frameWith(
		sprite(1, "aaaa", 0, 0),
		sprite(2, "bb", 10, 0),
	), 10, 1))

	assert.Equal(t, []string{"abba"}, lines)
}

func TestRenderFrame_OverwritingHalfAWideRune(t *testing.T) {
	lines := plainLines(RenderFrame(frameWith(
		sprite(1, "日", 0, 0),
		sprite(2, "x", 10, 0),
	), 10, 1))

	assert.Equal(t, []string{" x"}, lines)
}

func TestRenderFrame_MultilineComment(t *testing.T) {
	lines := plainLines(RenderFrame(frameWith(sprite(1, "ab\ncd", 0, 0)), 10, 3))

	assert.Equal(t, []string{"ab", "cd", ""}, lines)
}

func TestRenderFrame_NilFrame(t *testing.T) {
	lines := RenderFrame(nil, 4, 2)
	assert.Equal(t, []string{"    ", "    "}, lines)
}
