package db

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueries_Settings(t *testing.T) {
	q := openTestDB(t).Queries()
	ctx := context.Background()

	_, err := q.SettingGet(ctx, "missing")
	require.True(t, errors.Is(err, sql.ErrNoRows))

	require.NoError(t, q.SettingSet(ctx, Setting{Key: "a", Value: []byte(`1`), UpdatedAt: 10}))
	require.NoError(t, q.SettingSet(ctx, Setting{Key: "a", Value: []byte(`2`), UpdatedAt: 20}))

	got, err := q.SettingGet(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []byte(`2`), got.Value)
	assert.Equal(t, int64(20), got.UpdatedAt)

	require.NoError(t, q.SettingDelete(ctx, "a"))
	_, err = q.SettingGet(ctx, "a")
	require.ErrorIs(t, err, sql.ErrNoRows)
}

func TestQueries_CommentLog(t *testing.T) {
	q := openTestDB(t).Queries()
	ctx := context.Background()

	for i := int64(1); i <= 5; i++ {
		require.NoError(t, q.CommentLogInsert(ctx, CommentLog{
			CommentID: i, Text: "c", Source: "tcp", Window: -1, CreatedAt: i, UpdatedAt: i,
		}))
	}

	n, err := q.CommentLogSetOutcome(ctx, CommentLogSetOutcomeParams{CommentID: 2, Outcome: "relayed", Window: 1, UpdatedAt: 100})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = q.CommentLogSetOutcome(ctx, CommentLogSetOutcomeParams{CommentID: 99, Outcome: "relayed", Window: 1, UpdatedAt: 100})
	require.NoError(t, err)
	assert.Zero(t, n)

	recent, err := q.CommentLogRecent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, []int64{5, 4, 3}, []int64{recent[0].CommentID, recent[1].CommentID, recent[2].CommentID})

	require.NoError(t, q.CommentLogPrune(ctx, 2))
	recent, err = q.CommentLogRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, int64(5), recent[0].CommentID)

	require.NoError(t, q.CommentLogClear(ctx))
	recent, err = q.CommentLogRecent(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, recent)
}

func TestDB_WithTxRollsBack(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := database.WithTx(ctx, func(q *Queries) error {
		if err := q.SettingSet(ctx, Setting{Key: "tx", Value: []byte(`1`), UpdatedAt: 1}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = database.Queries().SettingGet(ctx, "tx")
	require.ErrorIs(t, err, sql.ErrNoRows)
}
