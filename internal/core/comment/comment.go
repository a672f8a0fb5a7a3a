// Package comment defines the comment model and its flattened text wire format.
package comment

import "strconv"

// MaxOffsetTopRatio is the exclusive upper bound of Comment.OffsetTopRatio.
const MaxOffsetTopRatio = 0.9

// Comment is a single decoded message travelling through the overlay windows.
// It is immutable once created; windows exchange it by value.
type Comment struct {
	ID             int64   `json:"id"`
	Text           string  `json:"text"`
	OffsetTopRatio float64 `json:"offsetTopRatio"`
}

// New creates a Comment. A ratio outside [0, MaxOffsetTopRatio), including
// NaN, is replaced by 0.
func New(id int64, text string, offsetTopRatio float64) Comment {
	if !(offsetTopRatio >= 0 && offsetTopRatio < MaxOffsetTopRatio) {
		offsetTopRatio = 0
	}
	return Comment{ID: id, Text: text, OffsetTopRatio: offsetTopRatio}
}

// Key returns the comment ID formatted for log fields and map keys.
func (c Comment) Key() string {
	return strconv.FormatInt(c.ID, 10)
}

// RendererInfo is the per-delivery metadata attached by the dispatcher every
// time a comment enters a window. It is not part of the comment identity.
type RendererInfo struct {
	WindowIndex    int  `json:"windowIndex"`
	NumDisplays    int  `json:"numDisplays"`
	IsSingleWindow bool `json:"isSingleWindow"`
}

// Delivery pairs a comment with the window it is being delivered to.
type Delivery struct {
	Comment Comment
	Info    RendererInfo
	// Relayed is true when the comment arrives from a neighbouring window
	// rather than from a feed.
	Relayed bool
}
