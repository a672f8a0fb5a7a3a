// Package tui implements the terminal preview of the overlay: every window is
// drawn as a box scaled to the terminal, with the playback controls bound to
// keys.
package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/colonyops/danmaku/internal/overlay"
	"github.com/colonyops/danmaku/internal/source"
)

// DefaultRefresh is the redraw interval when Options leaves it unset.
const DefaultRefresh = 50 * time.Millisecond

// Options configures the preview.
type Options struct {
	Feeds   *source.Feeds // optional; enables the mute key
	Refresh time.Duration
}

// Model is the Bubble Tea model of the preview.
type Model struct {
	ctx     context.Context
	app     *overlay.App
	feeds   *source.Feeds
	keys    KeyMap
	help    help.Model
	refresh time.Duration

	width  int
	height int

	notice    string
	noticeErr bool
}

// New creates a preview of app. ctx scopes the settings writes made from key
// presses.
func New(ctx context.Context, app *overlay.App, opts Options) Model {
	if opts.Refresh <= 0 {
		opts.Refresh = DefaultRefresh
	}
	return Model{
		ctx:     ctx,
		app:     app,
		feeds:   opts.Feeds,
		keys:    DefaultKeyMap(),
		help:    help.New(),
		refresh: opts.Refresh,
		width:   80,
		height:  24,
	}
}

// frameMsg triggers a redraw.
type frameMsg time.Time

func tick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg { return frameMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return tick(m.refresh)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, nil
	case frameMsg:
		return m, tick(m.refresh)
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ctl := m.app.Controller()

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Pause):
		if ctl.TogglePause() {
			m.setNotice("paused", nil)
		} else {
			m.setNotice("resumed", nil)
		}
	case key.Matches(msg, m.keys.Longer):
		m.durationNotice(ctl.IncreaseDuration(m.ctx))
	case key.Matches(msg, m.keys.Shorter):
		m.durationNotice(ctl.DecreaseDuration(m.ctx))
	case key.Matches(msg, m.keys.Reset):
		m.durationNotice(ctl.ResetDuration(m.ctx))
	case key.Matches(msg, m.keys.CyclePolicy):
		m.setNotice(fmt.Sprintf("over-limit policy: %s", ctl.CyclePolicy(m.ctx)), nil)
	case key.Matches(msg, m.keys.DestroyLast):
		i, err := ctl.DestroyLast()
		switch {
		case err != nil:
			m.setNotice("", err)
		case i < 0:
			m.setNotice("no window left", nil)
		default:
			m.setNotice(fmt.Sprintf("closed window %d", i), nil)
		}
	case key.Matches(msg, m.keys.ToggleMute):
		if m.feeds == nil || m.feeds.MQTT == nil {
			m.setNotice("", errors.New("mqtt feed is disabled"))
			break
		}
		if m.feeds.ToggleMute() {
			m.setNotice("mqtt muted", nil)
		} else {
			m.setNotice("mqtt unmuted", nil)
		}
	case key.Matches(msg, m.keys.ToggleHelp):
		m.help.ShowAll = !m.help.ShowAll
	}

	return m, nil
}

func (m *Model) durationNotice(d time.Duration, err error) {
	if err != nil {
		m.setNotice("", err)
		return
	}
	m.setNotice(fmt.Sprintf("duration: %s", d), nil)
}

func (m *Model) setNotice(text string, err error) {
	m.noticeErr = err != nil
	if err != nil {
		text = err.Error()
	}
	m.notice = text
}

// Notice returns the message shown after the last action.
func (m Model) Notice() string {
	return m.notice
}

// Run shows the preview until the user quits or ctx is cancelled.
func Run(ctx context.Context, m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil && errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
