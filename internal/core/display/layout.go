// Package display decides how physical displays map onto overlay windows.
package display

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
)

// ErrNoDisplays is returned when a layout is requested for zero displays.
var ErrNoDisplays = errors.New("no displays")

// Mode overrides the single/multi window heuristic.
type Mode string

const (
	ModeAuto   Mode = "auto"
	ModeSingle Mode = "single"
	ModeMulti  Mode = "multi"
)

// IsValid reports whether m is a known mode.
func (m Mode) IsValid() bool {
	switch m {
	case ModeAuto, ModeSingle, ModeMulti:
		return true
	default:
		return false
	}
}

// Rect is a screen rectangle in pixels.
type Rect struct {
	X      int `yaml:"x" json:"x"`
	Y      int `yaml:"y" json:"y"`
	Width  int `yaml:"width" json:"width"`
	Height int `yaml:"height" json:"height"`
}

// SameSize reports whether r and o have identical dimensions.
func (r Rect) SameSize(o Rect) bool {
	return r.Width == o.Width && r.Height == o.Height
}

// Overlaps reports whether r and o share any pixel.
func (r Rect) Overlaps(o Rect) bool {
	return r.X < o.X+o.Width && o.X < r.X+r.Width &&
		r.Y < o.Y+o.Height && o.Y < r.Y+r.Height
}

func (r Rect) String() string {
	return fmt.Sprintf("%dx%d+%d+%d", r.Width, r.Height, r.X, r.Y)
}

// Layout is the ordered window plan. Windows[0] receives new comments.
type Layout struct {
	Windows        []Rect `json:"windows"`
	IsSingleWindow bool   `json:"isSingleWindow"`
	NumDisplays    int    `json:"numDisplays"`
}

// Plan computes the window layout for the given displays.
func Plan(displays []Rect, mode Mode) (Layout, error) {
	if len(displays) == 0 {
		return Layout{}, ErrNoDisplays
	}

	for i, d := range displays {
		if d.Width <= 0 || d.Height <= 0 {
			return Layout{}, fmt.Errorf("display %d: invalid size %dx%d", i, d.Width, d.Height)
		}
	}

	if len(displays) == 1 {
		return Layout{
			Windows:        []Rect{displays[0]},
			IsSingleWindow: true,
			NumDisplays:    1,
		}, nil
	}

	single := false
	switch mode {
	case ModeSingle:
		single = true
	case ModeMulti:
		single = false
	case ModeAuto, "":
		single = allSameSize(displays)
	default:
		return Layout{}, fmt.Errorf("unknown window mode %q", mode)
	}

	if single {
		return Layout{
			Windows:        []Rect{combine(displays)},
			IsSingleWindow: true,
			NumDisplays:    len(displays),
		}, nil
	}

	return Layout{
		Windows:        rightToLeft(displays),
		IsSingleWindow: false,
		NumDisplays:    len(displays),
	}, nil
}

func allSameSize(displays []Rect) bool {
	first := displays[0]
	for _, d := range displays[1:] {
		if !d.SameSize(first) {
			return false
		}
	}
	return true
}

// combine synthesizes one rectangle spanning every display: total width, and
// the smallest height so the overlay never exceeds the shortest display.
func combine(displays []Rect) Rect {
	r := Rect{
		X:      displays[0].X,
		Y:      displays[0].Y,
		Height: displays[0].Height,
	}
	for _, d := range displays {
		r.Width += d.Width
		r.X = min(r.X, d.X)
		r.Y = min(r.Y, d.Y)
		r.Height = min(r.Height, d.Height)
	}
	return r
}

// rightToLeft orders displays by descending X, then descending Y.
func rightToLeft(displays []Rect) []Rect {
	out := slices.Clone(displays)
	slices.SortStableFunc(out, func(a, b Rect) int {
		if c := cmp.Compare(b.X, a.X); c != 0 {
			return c
		}
		return cmp.Compare(b.Y, a.Y)
	})
	return out
}
