package db

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

// Queries holds the statements used by the stores.
type Queries struct {
	db DBTX
}

// New binds the query set to a connection or transaction.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx returns a copy of q running inside tx.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// Setting is one row of the settings table.
type Setting struct {
	Key       string
	Value     []byte
	UpdatedAt int64
}

const settingGet = `SELECT key, value, updated_at FROM settings WHERE key = ?`

func (q *Queries) SettingGet(ctx context.Context, key string) (Setting, error) {
	var s Setting
	err := q.db.QueryRowContext(ctx, settingGet, key).Scan(&s.Key, &s.Value, &s.UpdatedAt)
	return s, err
}

const settingSet = `
INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

func (q *Queries) SettingSet(ctx context.Context, arg Setting) error {
	_, err := q.db.ExecContext(ctx, settingSet, arg.Key, arg.Value, arg.UpdatedAt)
	return err
}

const settingDelete = `DELETE FROM settings WHERE key = ?`

func (q *Queries) SettingDelete(ctx context.Context, key string) error {
	_, err := q.db.ExecContext(ctx, settingDelete, key)
	return err
}

// CommentLog is one row of the comment history.
type CommentLog struct {
	CommentID int64
	Text      string
	Source    string
	Outcome   string
	Detail    string
	Window    int64
	CreatedAt int64
	UpdatedAt int64
}

const commentLogInsert = `
INSERT INTO comment_log (comment_id, text, source, outcome, detail, window_index, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (comment_id) DO UPDATE SET text = excluded.text, source = excluded.source, updated_at = excluded.updated_at`

func (q *Queries) CommentLogInsert(ctx context.Context, arg CommentLog) error {
	_, err := q.db.ExecContext(ctx, commentLogInsert,
		arg.CommentID, arg.Text, arg.Source, arg.Outcome, arg.Detail, arg.Window, arg.CreatedAt, arg.UpdatedAt)
	return err
}

const commentLogSetOutcome = `
UPDATE comment_log SET outcome = ?, detail = ?, window_index = ?, updated_at = ? WHERE comment_id = ?`

// CommentLogSetOutcomeParams selects the entry and its new outcome.
type CommentLogSetOutcomeParams struct {
	CommentID int64
	Outcome   string
	Detail    string
	Window    int64
	UpdatedAt int64
}

// CommentLogSetOutcome updates an entry and returns the number of rows changed.
func (q *Queries) CommentLogSetOutcome(ctx context.Context, arg CommentLogSetOutcomeParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, commentLogSetOutcome, arg.Outcome, arg.Detail, arg.Window, arg.UpdatedAt, arg.CommentID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const commentLogRecent = `
SELECT comment_id, text, source, outcome, detail, window_index, created_at, updated_at
FROM comment_log ORDER BY created_at DESC, comment_id DESC LIMIT ?`

func (q *Queries) CommentLogRecent(ctx context.Context, limit int64) ([]CommentLog, error) {
	rows, err := q.db.QueryContext(ctx, commentLogRecent, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []CommentLog
	for rows.Next() {
		var c CommentLog
		if err := rows.Scan(&c.CommentID, &c.Text, &c.Source, &c.Outcome, &c.Detail, &c.Window, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

const commentLogPrune = `
DELETE FROM comment_log WHERE comment_id NOT IN (
	SELECT comment_id FROM comment_log ORDER BY created_at DESC, comment_id DESC LIMIT ?
)`

func (q *Queries) CommentLogPrune(ctx context.Context, keep int64) error {
	_, err := q.db.ExecContext(ctx, commentLogPrune, keep)
	return err
}

const commentLogClear = `DELETE FROM comment_log`

func (q *Queries) CommentLogClear(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, commentLogClear)
	return err
}
