package comment

import "strings"

// PartKind identifies a body part of a parsed comment.
type PartKind int

const (
	PartText PartKind = iota
	PartInlineImage
)

// Part is one run of the comment body: either literal text or an inline image.
type Part struct {
	Kind  PartKind
	Value string
}

// Segments is the render-time partition of a comment's text.
type Segments struct {
	Icon   string
	Color  string
	Stroke string
	Body   []Part
	Images []string
	Videos []string
}

// Toggles selects which media and text features a renderer shows.
type Toggles struct {
	Icon         bool
	InlineImages bool
	Images       bool
	Videos       bool
	Newline      bool
}

// AllToggles enables every feature.
func AllToggles() Toggles {
	return Toggles{Icon: true, InlineImages: true, Images: true, Videos: true, Newline: true}
}

// Parse partitions decoded comment text using the reserved separators. It is
// the inverse of the flattening done by Decode as far as the unescaped format
// allows: separator tokens inside user text are treated as separators.
func Parse(text string) Segments {
	var s Segments
	rest := text

	s.Icon, rest = cutPrefixed(rest, IconSeparator)
	s.Color, rest = cutPrefixed(rest, ColorSeparator)
	s.Stroke, rest = cutPrefixed(rest, StrokeSeparator)

	rest, s.Videos = cutTrailing(rest, VideoSeparator)
	rest, s.Images = cutTrailing(rest, ImgSeparator)

	for i, chunk := range strings.Split(rest, InlineImgSeparator) {
		if i%2 == 1 {
			s.Body = append(s.Body, Part{Kind: PartInlineImage, Value: chunk})
			continue
		}
		if chunk != "" {
			s.Body = append(s.Body, Part{Kind: PartText, Value: chunk})
		}
	}

	return s
}

// Apply returns a copy with disabled features removed.
func (s Segments) Apply(t Toggles) Segments {
	out := Segments{
		Color:  s.Color,
		Stroke: s.Stroke,
	}
	if t.Icon {
		out.Icon = s.Icon
	}
	if t.Images {
		out.Images = s.Images
	}
	if t.Videos {
		out.Videos = s.Videos
	}

	for _, p := range s.Body {
		switch p.Kind {
		case PartInlineImage:
			if !t.InlineImages {
				continue
			}
		case PartText:
			if !t.Newline {
				p.Value = strings.ReplaceAll(p.Value, "\n", " ")
			}
		}
		out.Body = append(out.Body, p)
	}

	return out
}

// PlainText joins the text parts of the body.
func (s Segments) PlainText() string {
	var b strings.Builder
	for _, p := range s.Body {
		if p.Kind == PartText {
			b.WriteString(p.Value)
		}
	}
	return b.String()
}

// InlineImages returns the sources of inline image parts in order.
func (s Segments) InlineImages() []string {
	var out []string
	for _, p := range s.Body {
		if p.Kind == PartInlineImage {
			out = append(out, p.Value)
		}
	}
	return out
}

// cutPrefixed splits off a value terminated by sep at its first occurrence.
func cutPrefixed(s, sep string) (value, rest string) {
	before, after, found := strings.Cut(s, sep)
	if !found {
		return "", s
	}
	return before, after
}

// cutTrailing splits s on every sep; the first chunk is the remainder and
// each following chunk a trailing value.
func cutTrailing(s, sep string) (rest string, values []string) {
	parts := strings.Split(s, sep)
	if len(parts) == 1 {
		return s, nil
	}
	return parts[0], parts[1:]
}
