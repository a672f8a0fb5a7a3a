// Package styles provides shared lipgloss styles for CLI and TUI components.
package styles

import (
	"sort"

	"github.com/charmbracelet/glamour/ansi"
	glamourstyles "github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
)

// Palette defines a minimal semantic theme palette.
type Palette struct {
	Primary    lipgloss.Color
	Secondary  lipgloss.Color
	Foreground lipgloss.Color
	Muted      lipgloss.Color
	Background lipgloss.Color
	Surface    lipgloss.Color
	Success    lipgloss.Color
	Warning    lipgloss.Color
	Error      lipgloss.Color
}

// DefaultTheme is the name of the default theme.
const DefaultTheme = "tokyo-night"

// themes holds the built-in named palettes.
var themes = map[string]Palette{
	"tokyo-night": {
		Primary:    lipgloss.Color("#7aa2f7"),
		Secondary:  lipgloss.Color("#7dcfff"),
		Foreground: lipgloss.Color("#c0caf5"),
		Muted:      lipgloss.Color("#565f89"),
		Background: lipgloss.Color("#1a1b26"),
		Surface:    lipgloss.Color("#3b4261"),
		Success:    lipgloss.Color("#9ece6a"),
		Warning:    lipgloss.Color("#e0af68"),
		Error:      lipgloss.Color("#f7768e"),
	},
	"gruvbox": {
		Primary:    lipgloss.Color("#83a598"),
		Secondary:  lipgloss.Color("#8ec07c"),
		Foreground: lipgloss.Color("#ebdbb2"),
		Muted:      lipgloss.Color("#665c54"),
		Background: lipgloss.Color("#282828"),
		Surface:    lipgloss.Color("#3c3836"),
		Success:    lipgloss.Color("#b8bb26"),
		Warning:    lipgloss.Color("#fabd2f"),
		Error:      lipgloss.Color("#fb4934"),
	},
	"catppuccin": {
		Primary:    lipgloss.Color("#89b4fa"), // Blue
		Secondary:  lipgloss.Color("#94e2d5"), // Teal
		Foreground: lipgloss.Color("#cdd6f4"), // Text
		Muted:      lipgloss.Color("#6c7086"), // Overlay0
		Background: lipgloss.Color("#1e1e2e"), // Base
		Surface:    lipgloss.Color("#313244"), // Surface0
		Success:    lipgloss.Color("#a6e3a1"), // Green
		Warning:    lipgloss.Color("#f9e2af"), // Yellow
		Error:      lipgloss.Color("#f38ba8"), // Red
	},
}

// ThemeNames returns sorted names of all built-in themes.
func ThemeNames() []string {
	names := make([]string, 0, len(themes))
	for name := range themes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetPalette returns the palette for the given theme name.
func GetPalette(name string) (Palette, bool) {
	p, ok := themes[name]
	return p, ok
}

// CurrentPalette holds the active theme palette.
var CurrentPalette Palette

// Style exports.
var (
	// CLI styles.
	HeaderStyle  lipgloss.Style
	SuccessStyle lipgloss.Style
	InfoStyle    lipgloss.Style
	WarnStyle    lipgloss.Style
	ErrorStyle   lipgloss.Style
	MutedStyle   lipgloss.Style

	// Preview styles.
	WindowStyle       lipgloss.Style
	DeadWindowStyle   lipgloss.Style
	WindowTitleStyle  lipgloss.Style
	StatusBarStyle    lipgloss.Style
	StatusPausedStyle lipgloss.Style
	StatusKeyStyle    lipgloss.Style
	MediaStyle        lipgloss.Style
)

// ColorPool is used for deterministic color hashing of comments.
var ColorPool []lipgloss.Color

// SetTheme sets the active palette and rebuilds all global styles.
func SetTheme(p Palette) {
	CurrentPalette = p

	HeaderStyle = lipgloss.NewStyle().Foreground(p.Primary).Bold(true)
	SuccessStyle = lipgloss.NewStyle().Foreground(p.Success)
	InfoStyle = lipgloss.NewStyle().Foreground(p.Secondary)
	WarnStyle = lipgloss.NewStyle().Foreground(p.Warning)
	ErrorStyle = lipgloss.NewStyle().Foreground(p.Error).Bold(true)
	MutedStyle = lipgloss.NewStyle().Foreground(p.Muted)

	WindowStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Primary)
	DeadWindowStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Surface).
		Foreground(p.Muted)
	WindowTitleStyle = lipgloss.NewStyle().
		Foreground(p.Primary).
		Bold(true)
	StatusBarStyle = lipgloss.NewStyle().
		Foreground(p.Foreground).
		Background(p.Surface).
		Padding(0, 1)
	StatusPausedStyle = lipgloss.NewStyle().
		Foreground(p.Background).
		Background(p.Warning).
		Bold(true).
		Padding(0, 1)
	StatusKeyStyle = lipgloss.NewStyle().
		Foreground(p.Secondary)
	MediaStyle = lipgloss.NewStyle().
		Foreground(p.Secondary).
		Italic(true)

	ColorPool = []lipgloss.Color{
		p.Primary,
		p.Secondary,
		p.Success,
		p.Warning,
		p.Error,
		p.Foreground,
	}
}

// ColorForID returns a deterministic color for a comment id.
func ColorForID(id int64) lipgloss.Color {
	if id < 0 {
		id = -id
	}
	return ColorPool[id%int64(len(ColorPool))]
}

// nolint:gochecknoinits // bootstrap default theme before any style is accessed.
func init() {
	SetTheme(themes[DefaultTheme])
}

func hexPtr(c lipgloss.Color) *string {
	if c == "" {
		return nil
	}
	s := string(c)
	return &s
}

// GlamourStyle returns a Glamour style config derived from the active theme.
func GlamourStyle() ansi.StyleConfig {
	cfg := glamourstyles.DarkStyleConfig
	p := CurrentPalette

	cfg.Document.Color = hexPtr(p.Foreground)
	cfg.Paragraph.Color = hexPtr(p.Foreground)

	cfg.Heading.Color = hexPtr(p.Primary)
	cfg.H1.Color = hexPtr(p.Foreground)
	cfg.H1.BackgroundColor = hexPtr(p.Surface)
	cfg.H2.Color = hexPtr(p.Primary)
	cfg.H3.Color = hexPtr(p.Primary)

	cfg.BlockQuote.Color = hexPtr(p.Muted)
	cfg.HorizontalRule.Color = hexPtr(p.Muted)

	cfg.Link.Color = hexPtr(p.Secondary)
	cfg.LinkText.Color = hexPtr(p.Secondary)

	cfg.Code.Color = hexPtr(p.Secondary)
	cfg.CodeBlock.Color = hexPtr(p.Muted)

	cfg.Table.Color = hexPtr(p.Foreground)

	return cfg
}
