package tui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/colonyops/danmaku/internal/core/styles"
	"github.com/colonyops/danmaku/internal/overlay"
)

const (
	boxBorder   = 2 // border cells around a window, per axis
	titleHeight = 1
	statusSep   = " | "
)

func (m Model) View() string {
	status := m.statusBar()
	footer := m.help.View(m.keys)
	notice := m.noticeLine()

	bodyHeight := m.height - lipgloss.Height(status) - lipgloss.Height(footer) - 1
	body := m.windows(bodyHeight)

	return lipgloss.JoinVertical(lipgloss.Left, status, body, notice, footer)
}

func (m Model) noticeLine() string {
	if m.notice == "" {
		return ""
	}
	if m.noticeErr {
		return styles.ErrorStyle.Render(m.notice)
	}
	return styles.InfoStyle.Render(m.notice)
}

func (m Model) statusBar() string {
	ctl := m.app.Controller()
	s := ctl.Settings()

	parts := []string{
		fmt.Sprintf("duration %s", s.Duration),
		fmt.Sprintf("policy %s", s.Policy),
	}
	if s.MaxComments > 0 {
		parts = append(parts, fmt.Sprintf("max %d", s.MaxComments))
	}
	if stats := m.app.Stats(); stats != nil {
		snap := stats.Snapshot()
		parts = append(parts,
			fmt.Sprintf("submitted %d", snap.Submitted),
			fmt.Sprintf("relayed %d", snap.Relayed),
			fmt.Sprintf("terminated %d", snap.Terminated),
			fmt.Sprintf("evicted %d", snap.Evicted),
		)
	}
	if m.feeds != nil {
		if names := m.feeds.Names(); len(names) > 0 {
			feeds := "feeds " + strings.Join(names, ",")
			if m.feeds.MQTT != nil && m.feeds.MQTT.Muted() {
				feeds += " (mqtt muted)"
			}
			parts = append(parts, feeds)
		}
	}

	bar := styles.StatusBarStyle.Render(strings.Join(parts, statusSep))
	if ctl.Paused() {
		bar = lipgloss.JoinHorizontal(lipgloss.Top, styles.StatusPausedStyle.Render("PAUSED"), bar)
	}
	return bar
}

// windows draws every window side by side, each sized in proportion to its
// pixel width.
func (m Model) windows(height int) string {
	frames := m.app.Frames()
	if len(frames) == 0 {
		return styles.MutedStyle.Render("no windows")
	}

	widths := make([]int, len(frames))
	for i, f := range frames {
		if f != nil {
			widths[i] = f.Bounds.Width
		}
	}
	shares := SplitWidth(m.width, widths)

	maxRows := max(height-titleHeight-boxBorder, 1)
	boxes := make([]string, 0, len(frames))
	for i, f := range frames {
		cols := max(shares[i]-boxBorder, 1)
		boxes = append(boxes, renderWindow(f, i, cols, FitRows(f, cols, maxRows)))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, boxes...)
}

func renderWindow(f *overlay.Frame, index, cols, rows int) string {
	box := styles.WindowStyle
	title := fmt.Sprintf("#%d", index)
	if f != nil {
		title = fmt.Sprintf("#%d %dx%d", f.Window, f.Bounds.Width, f.Bounds.Height)
	}
	title = styles.WindowTitleStyle.Render(title)
	if f != nil && !f.Alive {
		box = styles.DeadWindowStyle
		title += styles.MutedStyle.Render(" closed")
	}

	lines := RenderFrame(f, cols, rows)
	return lipgloss.JoinVertical(lipgloss.Left, title, box.Render(strings.Join(lines, "\n")))
}

// SplitWidth divides total terminal columns between windows in proportion to
// their pixel widths. Remainders go to the last window.
func SplitWidth(total int, widths []int) []int {
	out := make([]int, len(widths))
	if len(widths) == 0 || total <= 0 {
		return out
	}

	sum := 0
	for _, w := range widths {
		sum += max(w, 0)
	}
	if sum == 0 {
		for i := range out {
			out[i] = total / len(out)
		}
		out[len(out)-1] += total % len(out)
		return out
	}

	used := 0
	for i, w := range widths {
		out[i] = total * max(w, 0) / sum
		used += out[i]
	}
	out[len(out)-1] += total - used
	return out
}

// FitRows picks a row count that keeps the window's aspect ratio, assuming a
// terminal cell is twice as tall as it is wide.
func FitRows(f *overlay.Frame, cols, maxRows int) int {
	if f == nil || f.Bounds.Width <= 0 {
		return maxRows
	}
	rows := int(math.Round(float64(cols) * float64(f.Bounds.Height) / float64(f.Bounds.Width) / 2))
	return min(max(rows, 1), maxRows)
}
