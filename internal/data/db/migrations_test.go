package db

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	database, err := Open(filepath.Join(t.TempDir(), "danmaku.db"), DefaultOpenOptions())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return database
}

func openRawConn(t *testing.T) *sql.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "danmaku.db")
	conn, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)", dbPath))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestOpen_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state", "danmaku.db")
	database, err := Open(path, DefaultOpenOptions())
	require.NoError(t, err)
	require.NoError(t, database.Close())
	assert.FileExists(t, path)
}

func TestMigrateUp_FreshDB(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()

	status, err := Status(ctx, database.Conn())
	require.NoError(t, err)

	migrations, err := loadMigrations()
	require.NoError(t, err)
	require.Len(t, status, len(migrations))
	for i, m := range migrations {
		assert.Equal(t, m.Version, status[i].Version)
		assert.Equal(t, m.Name, status[i].Name)
		assert.True(t, status[i].Applied(), "migration %d should be applied", m.Version)
	}

	_, err = database.Conn().ExecContext(ctx, "SELECT 1 FROM settings LIMIT 0")
	require.NoError(t, err, "settings table should exist")

	_, err = database.Conn().ExecContext(ctx, "SELECT 1 FROM comment_log LIMIT 0")
	require.NoError(t, err, "comment_log table should exist")
}

func TestMigrateUp_Idempotent(t *testing.T) {
	database := openTestDB(t)

	err := migrateUp(context.Background(), database.Conn())
	assert.NoError(t, err, "second migrateUp should be idempotent")
}

func TestMigrateDown(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()
	conn := database.Conn()

	require.NoError(t, database.Queries().SettingSet(ctx, Setting{Key: "k", Value: []byte("1"), UpdatedAt: 1}))

	// Revert the last migration (comment_log).
	require.NoError(t, MigrateDown(ctx, conn, 1))

	_, err := conn.ExecContext(ctx, "SELECT 1 FROM comment_log LIMIT 0")
	require.Error(t, err, "comment_log should not exist after down migration")

	status, err := Status(ctx, conn)
	require.NoError(t, err)
	require.Len(t, status, 2)
	assert.True(t, status[0].Applied())
	assert.False(t, status[1].Applied())

	var count int
	require.NoError(t, conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM settings").Scan(&count))
	assert.Equal(t, 1, count, "settings row should be preserved")

	require.NoError(t, migrateUp(ctx, conn), "re-applying reverted migration")
	_, err = conn.ExecContext(ctx, "SELECT 1 FROM comment_log LIMIT 0")
	require.NoError(t, err)
}

func TestMigrateDown_InvalidN(t *testing.T) {
	conn := openRawConn(t)
	ctx := context.Background()

	for _, n := range []int{0, -1} {
		assert.Error(t, MigrateDown(ctx, conn, n), "n=%d", n)
	}
}

func TestMigrateDown_TooMany(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()

	migrations, err := loadMigrations()
	require.NoError(t, err)

	err = MigrateDown(ctx, database.Conn(), len(migrations)+1)
	assert.Error(t, err, "requesting more down migrations than applied should fail")
}

func TestStatus_FreshConnIsPending(t *testing.T) {
	status, err := Status(context.Background(), openRawConn(t))
	require.NoError(t, err)
	require.NotEmpty(t, status)
	for _, s := range status {
		assert.False(t, s.Applied(), "migration %d", s.Version)
	}
}

func TestLoadMigrations_Valid(t *testing.T) {
	migrations, err := loadMigrations()
	require.NoError(t, err)
	require.NotEmpty(t, migrations)

	for i := 1; i < len(migrations); i++ {
		assert.Greater(t, migrations[i].Version, migrations[i-1].Version,
			"migrations should be in ascending version order")
	}

	for _, m := range migrations {
		assert.NotEmpty(t, m.Up, "migration %d up SQL should not be empty", m.Version)
		assert.NotEmpty(t, m.Down, "migration %d down SQL should not be empty", m.Version)
		assert.NotEmpty(t, m.Name, "migration %d name should not be empty", m.Version)
	}
}

func TestParseFilename(t *testing.T) {
	tests := []struct {
		filename    string
		wantVersion int
		wantName    string
		wantErr     bool
	}{
		{"0001_settings.sql", 1, "settings", false},
		{"0002_comment_log.sql", 2, "comment_log", false},
		{"0100_big_version.sql", 100, "big_version", false},
		{"0001_settings.up.sql", 1, "settings.up", false},
		{"bad.sql", 0, "", true},
		{"0001_settings.txt", 0, "", true},
		{"0000_zero.sql", 0, "", true},
		{"-1_negative.sql", 0, "", true},
		{"abc_notnumber.sql", 0, "", true},
		{"0001_.sql", 0, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			version, name, err := parseFilename(tt.filename)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantVersion, version)
			assert.Equal(t, tt.wantName, name)
		})
	}
}

func TestSplitSections(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		wantUp   string
		wantDown string
		wantErr  bool
	}{
		{
			name:     "both sections",
			src:      "-- +up\nCREATE TABLE t (x);\n\n-- +down\nDROP TABLE t;\n",
			wantUp:   "CREATE TABLE t (x);",
			wantDown: "DROP TABLE t;",
		},
		{
			name:     "leading comments",
			src:      "-- adds t\n\n-- +up\nCREATE TABLE t (x);\n-- +down\nDROP TABLE t;",
			wantUp:   "CREATE TABLE t (x);",
			wantDown: "DROP TABLE t;",
		},
		{
			name:     "multiple statements",
			src:      "-- +up\nCREATE TABLE t (x);\nCREATE INDEX i ON t (x);\n-- +down\nDROP INDEX i;\nDROP TABLE t;",
			wantUp:   "CREATE TABLE t (x);\nCREATE INDEX i ON t (x);",
			wantDown: "DROP INDEX i;\nDROP TABLE t;",
		},
		{name: "missing down", src: "-- +up\nCREATE TABLE t (x);", wantErr: true},
		{name: "empty down", src: "-- +up\nCREATE TABLE t (x);\n-- +down\n", wantErr: true},
		{name: "down first", src: "-- +down\nDROP TABLE t;\n-- +up\nCREATE TABLE t (x);", wantErr: true},
		{name: "repeated up", src: "-- +up\nA;\n-- +up\nB;\n-- +down\nC;", wantErr: true},
		{name: "statement before up", src: "SELECT 1;\n-- +up\nA;\n-- +down\nB;", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			up, down, err := splitSections(tt.src)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantUp, up)
			assert.Equal(t, tt.wantDown, down)
		})
	}
}
