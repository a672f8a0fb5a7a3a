package tui

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/colonyops/danmaku/internal/core/comment"
	"github.com/colonyops/danmaku/internal/core/styles"
	"github.com/colonyops/danmaku/internal/overlay"
	"github.com/mattn/go-runewidth"
)

// Markers drawn in place of media the terminal cannot show.
const (
	iconMarker        = "@ "
	inlineImageMarker = "[*]"
	imageMarker       = " [img]"
	videoMarker       = " [vid]"
)

// Label flattens segments into the text drawn for a comment.
func Label(s comment.Segments) string {
	var b strings.Builder
	if s.Icon != "" {
		b.WriteString(iconMarker)
	}
	for _, p := range s.Body {
		if p.Kind == comment.PartInlineImage {
			b.WriteString(inlineImageMarker)
			continue
		}
		b.WriteString(p.Value)
	}
	for range s.Images {
		b.WriteString(imageMarker)
	}
	for range s.Videos {
		b.WriteString(videoMarker)
	}
	return b.String()
}

type cell struct {
	text  string // "" marks the trailing half of a wide rune
	owner int64  // comment id, 0 for background
}

// grid is a cols x rows character raster.
type grid struct {
	cols, rows int
	cells      [][]cell
}

func newGrid(cols, rows int) *grid {
	g := &grid{cols: max(cols, 0), rows: max(rows, 0)}
	g.cells = make([][]cell, g.rows)
	for r := range g.cells {
		g.cells[r] = make([]cell, g.cols)
		for c := range g.cells[r] {
			g.cells[r][c] = cell{text: " "}
		}
	}
	return g
}

// put writes text starting at (row, col). Runes outside the grid are clipped,
// so col may be negative for a comment sliding off the left edge.
func (g *grid) put(row, col int, text string, owner int64) {
	for i, line := range strings.Split(text, "\n") {
		r := row + i
		if r < 0 || r >= g.rows {
			continue
		}
		c := col
		for _, ch := range line {
			w := runewidth.RuneWidth(ch)
			if w == 0 {
				continue
			}
			if c >= 0 && c+w <= g.cols {
				g.set(r, c, cell{text: string(ch), owner: owner})
				if w == 2 {
					g.set(r, c+1, cell{owner: owner})
				}
			}
			c += w
		}
	}
}

// set replaces one cell, blanking the other half of any wide rune it splits.
func (g *grid) set(r, c int, v cell) {
	old := g.cells[r][c]
	if old.text == "" && c > 0 && v.text != "" {
		g.cells[r][c-1] = cell{text: " "}
	}
	if old.text != "" && c+1 < g.cols && g.cells[r][c+1].text == "" && v.text != "" {
		g.cells[r][c+1] = cell{text: " "}
	}
	g.cells[r][c] = v
}

// lines renders each row, styling runs of cells that share an owner.
func (g *grid) lines(style func(owner int64) lipgloss.Style) []string {
	out := make([]string, g.rows)
	for r, row := range g.cells {
		var (
			b     strings.Builder
			run   strings.Builder
			owner int64
		)
		flush := func() {
			if run.Len() == 0 {
				return
			}
			if owner == 0 {
				b.WriteString(run.String())
			} else {
				b.WriteString(style(owner).Render(run.String()))
			}
			run.Reset()
		}
		for _, c := range row {
			if c.text == "" {
				continue
			}
			if c.owner != owner {
				flush()
				owner = c.owner
			}
			run.WriteString(c.text)
		}
		flush()
		out[r] = b.String()
	}
	return out
}

// RenderFrame rasterizes a window frame into cols x rows cells. Sprites are
// drawn in frame order, which puts later comments on top.
func RenderFrame(f *overlay.Frame, cols, rows int) []string {
	g := newGrid(cols, rows)
	colors := make(map[int64]lipgloss.Style)
	style := func(id int64) lipgloss.Style { return colors[id] }
	if f == nil || f.Bounds.Width <= 0 || f.Bounds.Height <= 0 {
		return g.lines(style)
	}

	sx := float64(g.cols) / float64(f.Bounds.Width)
	sy := float64(g.rows) / float64(f.Bounds.Height)
	for _, s := range f.Sprites {
		colors[s.CommentID] = commentStyle(s)
		col := int(math.Floor(s.X * sx))
		row := min(int(math.Floor(s.Y*sy)), g.rows-1)
		g.put(max(row, 0), col, Label(s.Segments), s.CommentID)
	}
	return g.lines(style)
}

// commentStyle uses the comment's own color when it names one.
func commentStyle(s overlay.Sprite) lipgloss.Style {
	if s.Segments.Color != "" {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(s.Segments.Color))
	}
	return lipgloss.NewStyle().Foreground(styles.ColorForID(s.CommentID))
}
