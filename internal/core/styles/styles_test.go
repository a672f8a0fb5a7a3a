package styles

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThemes(t *testing.T) {
	names := ThemeNames()
	assert.Contains(t, names, DefaultTheme)
	assert.IsIncreasing(t, names)

	_, ok := GetPalette("nope")
	assert.False(t, ok)
}

func TestColorForID_Deterministic(t *testing.T) {
	p, ok := GetPalette("gruvbox")
	require.True(t, ok)
	SetTheme(p)
	t.Cleanup(func() { SetTheme(themes[DefaultTheme]) })

	assert.Equal(t, ColorForID(7), ColorForID(7))
	assert.Equal(t, ColorForID(1), ColorForID(1+int64(len(ColorPool))))
	assert.Equal(t, p.Secondary, ColorForID(1))
}

func TestGlamourStyle_UsesPalette(t *testing.T) {
	cfg := GlamourStyle()
	require.NotNil(t, cfg.Document.Color)
	assert.Equal(t, string(CurrentPalette.Foreground), *cfg.Document.Color)
}
