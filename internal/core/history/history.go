// Package history records what happened to each comment so recent traffic can
// be inspected after the fact.
package history

import (
	"context"
	"time"
)

// Outcome is the last known fate of a comment.
type Outcome string

const (
	OutcomeSubmitted  Outcome = "submitted"
	OutcomeDelivered  Outcome = "delivered"
	OutcomeRelayed    Outcome = "relayed"
	OutcomeEvicted    Outcome = "evicted"
	OutcomeTerminated Outcome = "terminated"
)

// Entry is one recorded comment.
type Entry struct {
	CommentID int64     `json:"comment_id"`
	Text      string    `json:"text"`
	Source    string    `json:"source,omitempty"`
	Outcome   Outcome   `json:"outcome"`
	Detail    string    `json:"detail,omitempty"` // termination reason
	Window    int       `json:"window"`           // last window that held it, -1 for none
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Done reports whether the comment has left every window.
func (e *Entry) Done() bool {
	return e.Outcome == OutcomeTerminated
}

// Store persists history entries.
type Store interface {
	Record(ctx context.Context, e Entry) error
	// SetOutcome updates a recorded comment. Unknown ids are ignored.
	SetOutcome(ctx context.Context, commentID int64, outcome Outcome, detail string, window int) error
	Recent(ctx context.Context, limit int) ([]Entry, error)
	Clear(ctx context.Context) error
}
