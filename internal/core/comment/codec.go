package comment

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Reserved separators of the flattened text format. They are literal tokens and
// are never escaped: user text containing one verbatim is split on it.
const (
	IconSeparator      = "##ICON##"
	ColorSeparator     = "##COLOR##"
	StrokeSeparator    = "##STROKE##"
	InlineImgSeparator = "##INLINE_IMG##"
	ImgSeparator       = "##IMG##"
	VideoSeparator     = "##VIDEO##"
)

// InlinePlaceholder marks an insertion point for an inline image in the
// payload's text field. Placeholders are consumed left to right.
const InlinePlaceholder = "##INLINE##"

// Decode errors. They only surface through DecodeStrict; Decode falls back to
// the raw payload instead.
var (
	ErrNotObject   = errors.New("payload is not a JSON object")
	ErrMissingText = errors.New("payload text is missing or not a string")
	ErrFieldType   = errors.New("payload field has the wrong type")
)

// Payload is the structured JSON form accepted by feeds.
type Payload struct {
	Text         string   `json:"text"`
	Icon         string   `json:"icon,omitempty"`
	Color        string   `json:"color,omitempty"`
	TextStroke   string   `json:"textStroke,omitempty"`
	InlineImages []string `json:"inlineImages,omitempty"`
	Images       []string `json:"images,omitempty"`
	Videos       []string `json:"videos,omitempty"`
}

// Decode converts a raw feed payload into comment text. Malformed payloads,
// including plain text, are passed through verbatim. Decode never panics.
func Decode(raw string) (text string) {
	defer func() {
		if r := recover(); r != nil {
			text = raw
		}
	}()

	decoded, err := DecodeStrict(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// DecodeStrict is Decode without the fallback: it reports why a payload could
// not be decoded.
func DecodeStrict(raw string) (string, error) {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return "", fmt.Errorf("parse payload: %w", err)
	}

	obj, ok := v.(map[string]any)
	if !ok {
		return "", ErrNotObject
	}

	p, err := payloadFromObject(obj)
	if err != nil {
		return "", err
	}

	return p.flatten(), nil
}

// Encode renders a payload as the JSON document Decode accepts.
func Encode(p Payload) (string, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encode payload: %w", err)
	}
	return string(b), nil
}

func payloadFromObject(obj map[string]any) (Payload, error) {
	text, ok := obj["text"].(string)
	if !ok {
		return Payload{}, ErrMissingText
	}

	p := Payload{Text: text}

	var err error
	if p.Icon, err = optionalString(obj, "icon"); err != nil {
		return Payload{}, err
	}
	if p.Color, err = optionalString(obj, "color"); err != nil {
		return Payload{}, err
	}
	if p.TextStroke, err = optionalString(obj, "textStroke"); err != nil {
		return Payload{}, err
	}
	if p.InlineImages, err = optionalStrings(obj, "inlineImages"); err != nil {
		return Payload{}, err
	}
	if p.Images, err = optionalStrings(obj, "images"); err != nil {
		return Payload{}, err
	}
	if p.Videos, err = optionalStrings(obj, "videos"); err != nil {
		return Payload{}, err
	}

	return p, nil
}

// flatten builds the separator-delimited text in the fixed field order.
func (p Payload) flatten() string {
	var b strings.Builder

	writeTagged := func(value, sep string) {
		if value == "" {
			return
		}
		b.WriteString(value)
		b.WriteString(sep)
	}

	writeTagged(p.Icon, IconSeparator)
	writeTagged(p.Color, ColorSeparator)
	writeTagged(p.TextStroke, StrokeSeparator)

	b.WriteString(spliceInlineImages(p.Text, p.InlineImages))

	for _, src := range p.Images {
		b.WriteString(ImgSeparator)
		b.WriteString(src)
	}
	for _, src := range p.Videos {
		b.WriteString(VideoSeparator)
		b.WriteString(src)
	}

	return b.String()
}

// spliceInlineImages replaces placeholders with inline image markers, one
// image per placeholder. Unmatched images and placeholders are left alone.
func spliceInlineImages(text string, images []string) string {
	if len(images) == 0 || !strings.Contains(text, InlinePlaceholder) {
		return text
	}

	var b strings.Builder
	rest := text
	for _, src := range images {
		i := strings.Index(rest, InlinePlaceholder)
		if i < 0 {
			break
		}
		b.WriteString(rest[:i])
		b.WriteString(InlineImgSeparator)
		b.WriteString(src)
		b.WriteString(InlineImgSeparator)
		rest = rest[i+len(InlinePlaceholder):]
	}
	b.WriteString(rest)

	return b.String()
}

func optionalString(obj map[string]any, key string) (string, error) {
	v, ok := obj[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string", ErrFieldType, key)
	}
	return s, nil
}

func optionalStrings(obj map[string]any, key string) ([]string, error) {
	v, ok := obj[key]
	if !ok || v == nil {
		return nil, nil
	}
	arr, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s must be an array", ErrFieldType, key)
	}

	out := make([]string, 0, len(arr))
	for i, item := range arr {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %s[%d] must be a string", ErrFieldType, key, i)
		}
		out = append(out, s)
	}
	return out, nil
}
