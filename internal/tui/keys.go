package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap holds the preview key bindings.
type KeyMap struct {
	Pause       key.Binding
	Longer      key.Binding
	Shorter     key.Binding
	Reset       key.Binding
	CyclePolicy key.Binding
	DestroyLast key.Binding
	ToggleMute  key.Binding
	ToggleHelp  key.Binding
	Quit        key.Binding
}

// DefaultKeyMap returns the standard bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Pause:       key.NewBinding(key.WithKeys(" ", "p"), key.WithHelp("space", "pause")),
		Longer:      key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "slower")),
		Shorter:     key.NewBinding(key.WithKeys("-", "_"), key.WithHelp("-", "faster")),
		Reset:       key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset duration")),
		CyclePolicy: key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "over-limit policy")),
		DestroyLast: key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "close last window")),
		ToggleMute:  key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "mute mqtt")),
		ToggleHelp:  key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Pause, k.Longer, k.Shorter, k.ToggleHelp, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Pause, k.Longer, k.Shorter, k.Reset},
		{k.CyclePolicy, k.DestroyLast, k.ToggleMute},
		{k.ToggleHelp, k.Quit},
	}
}
