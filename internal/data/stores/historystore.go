package stores

import (
	"context"
	"fmt"
	"time"

	"github.com/colonyops/danmaku/internal/core/history"
	"github.com/colonyops/danmaku/internal/data/db"
)

// HistoryStore implements history.Store using SQLite.
type HistoryStore struct {
	db         *db.DB
	maxEntries int
}

var _ history.Store = (*HistoryStore)(nil)

// NewHistoryStore creates a history store keeping at most maxEntries rows.
// Zero keeps everything.
func NewHistoryStore(db *db.DB, maxEntries int) *HistoryStore {
	return &HistoryStore{db: db, maxEntries: maxEntries}
}

// Record inserts an entry and prunes the oldest rows over the limit.
func (s *HistoryStore) Record(ctx context.Context, e history.Entry) error {
	return s.db.WithTx(ctx, func(q *db.Queries) error {
		err := q.CommentLogInsert(ctx, db.CommentLog{
			CommentID: e.CommentID,
			Text:      e.Text,
			Source:    e.Source,
			Outcome:   string(e.Outcome),
			Detail:    e.Detail,
			Window:    int64(e.Window),
			CreatedAt: e.CreatedAt.UnixNano(),
			UpdatedAt: e.UpdatedAt.UnixNano(),
		})
		if err != nil {
			return fmt.Errorf("record comment %d: %w", e.CommentID, err)
		}

		if s.maxEntries > 0 {
			if err := q.CommentLogPrune(ctx, int64(s.maxEntries)); err != nil {
				return fmt.Errorf("prune comment history: %w", err)
			}
		}
		return nil
	})
}

// SetOutcome updates a recorded comment. Unknown ids are ignored.
func (s *HistoryStore) SetOutcome(ctx context.Context, commentID int64, outcome history.Outcome, detail string, window int) error {
	_, err := s.db.Queries().CommentLogSetOutcome(ctx, db.CommentLogSetOutcomeParams{
		CommentID: commentID,
		Outcome:   string(outcome),
		Detail:    detail,
		Window:    int64(window),
		UpdatedAt: time.Now().UnixNano(),
	})
	if err != nil {
		return fmt.Errorf("update comment %d: %w", commentID, err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *HistoryStore) Recent(ctx context.Context, limit int) ([]history.Entry, error) {
	rows, err := s.db.Queries().CommentLogRecent(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("list comment history: %w", err)
	}

	entries := make([]history.Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, rowToEntry(row))
	}
	return entries, nil
}

// Clear deletes every entry.
func (s *HistoryStore) Clear(ctx context.Context) error {
	if err := s.db.Queries().CommentLogClear(ctx); err != nil {
		return fmt.Errorf("clear comment history: %w", err)
	}
	return nil
}

func rowToEntry(row db.CommentLog) history.Entry {
	return history.Entry{
		CommentID: row.CommentID,
		Text:      row.Text,
		Source:    row.Source,
		Outcome:   history.Outcome(row.Outcome),
		Detail:    row.Detail,
		Window:    int(row.Window),
		CreatedAt: time.Unix(0, row.CreatedAt),
		UpdatedAt: time.Unix(0, row.UpdatedAt),
	}
}
