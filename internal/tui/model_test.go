package tui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/colonyops/danmaku/internal/core/animation"
	"github.com/colonyops/danmaku/internal/core/config"
	"github.com/colonyops/danmaku/internal/core/display"
	"github.com/colonyops/danmaku/internal/core/eventbus/testbus"
	"github.com/colonyops/danmaku/internal/overlay"
	"github.com/colonyops/danmaku/internal/source"
	"github.com/colonyops/danmaku/pkg/tuitest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestModel(t *testing.T, opts Options) Model {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.DurationMs = 1000
	cfg.DurationStepMs = 500
	cfg.Displays = []display.Rect{
		{X: 0, Y: 0, Width: 1920, Height: 1080},
		{X: 1920, Y: 0, Width: 1280, Height: 720},
	}

	tb := testbus.New(t)
	app, err := overlay.NewApp(context.Background(), &cfg, overlay.Options{
		Bus:   tb.EventBus,
		Clock: animation.NewManualClock(time.Unix(1_700_000_000, 0)),
	})
	require.NoError(t, err)

	return New(context.Background(), app, opts)
}

func press(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out
}

func TestModel_Keys(t *testing.T) {
	tests := []struct {
		name    string
		keys    []tea.Msg
		notice  string
		isError bool
	}{
		{"pause", []tea.Msg{tuitest.KeySpace()}, "paused", false},
		{"pause twice resumes", []tea.Msg{tuitest.KeySpace(), tuitest.KeyPress('p')}, "resumed", false},
		{"longer", []tea.Msg{tuitest.KeyPress('+')}, "duration: 1.5s", false},
		{"shorter", []tea.Msg{tuitest.KeyPress('-')}, "duration: 500ms", false},
		{"shorter rejected at zero", []tea.Msg{tuitest.KeyPress('-'), tuitest.KeyPress('-')}, "", true},
		{"reset", []tea.Msg{tuitest.KeyPress('+'), tuitest.KeyPress('+'), tuitest.KeyPress('r')}, "duration: 1s", false},
		{"cycle policy", []tea.Msg{tuitest.KeyPress('o')}, "over-limit policy: keep", false},
		{"close last window", []tea.Msg{tuitest.KeyPress('x')}, "closed window 1", false},
		{"close every window", []tea.Msg{tuitest.KeyPress('x'), tuitest.KeyPress('x'), tuitest.KeyPress('x')}, "no window left", false},
		{"mute without mqtt", []tea.Msg{tuitest.KeyPress('m')}, "mqtt feed is disabled", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestModel(t, Options{})
			for _, k := range tt.keys {
				m = press(t, m, k)
			}
			assert.Equal(t, tt.isError, m.noticeErr)
			if tt.notice != "" {
				assert.Equal(t, tt.notice, m.Notice())
			}
		})
	}
}

func TestModel_MuteMQTT(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Sources.MQTT.Enabled = true
	cfg.Sources.TCP.Enabled = false
	feeds := source.NewFeeds(cfg.Sources, nil)

	m := newTestModel(t, Options{Feeds: feeds})

	m = press(t, m, tuitest.KeyPress('m'))
	assert.Equal(t, "mqtt muted", m.Notice())
	assert.True(t, feeds.MQTT.Muted())

	m = press(t, m, tuitest.KeyPress('m'))
	assert.Equal(t, "mqtt unmuted", m.Notice())
	assert.False(t, feeds.MQTT.Muted())
}

func TestModel_Quit(t *testing.T) {
	m := newTestModel(t, Options{})

	for _, k := range []tea.Msg{tuitest.KeyPress('q'), tuitest.KeyCtrlC()} {
		_, cmd := m.Update(k)
		require.NotNil(t, cmd)
		assert.Equal(t, tea.QuitMsg{}, cmd())
	}
}

func TestModel_HelpToggle(t *testing.T) {
	m := newTestModel(t, Options{})
	assert.False(t, m.help.ShowAll)

	m = press(t, m, tuitest.KeyPress('?'))
	assert.True(t, m.help.ShowAll)
}

func TestModel_FrameTickReschedules(t *testing.T) {
	m := newTestModel(t, Options{Refresh: time.Millisecond})

	_, cmd := m.Update(frameMsg(time.Now()))
	require.NotNil(t, cmd)
	assert.IsType(t, frameMsg{}, cmd())
}

func TestModel_View(t *testing.T) {
	m := newTestModel(t, Options{})
	m = press(t, m, tuitest.WindowSize(120, 30))

	view := tuitest.StripANSI(m.View())
	assert.Contains(t, view, "#0 1280x720")
	assert.Contains(t, view, "#1 1920x1080")
	assert.Contains(t, view, "duration 1s")
	assert.Contains(t, view, "policy cancel")
	assert.NotContains(t, view, "PAUSED")

	m = press(t, m, tuitest.KeySpace())
	view = tuitest.StripANSI(m.View())
	assert.Contains(t, view, "PAUSED")
	assert.Contains(t, view, "paused")
}
