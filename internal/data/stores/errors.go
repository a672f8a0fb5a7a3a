package stores

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/colonyops/danmaku/internal/data/db"
	"github.com/rs/zerolog/log"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// IsCorruptionError returns true if the error indicates database corruption.
func IsCorruptionError(err error) bool {
	if err == nil {
		return false
	}

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3.SQLITE_CORRUPT, sqlite3.SQLITE_NOTADB:
			return true
		}
	}

	msg := err.Error()
	return strings.Contains(msg, "database disk image is malformed") ||
		strings.Contains(msg, "file is not a database")
}

// IsNotFoundError returns true if the error is a "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// Open opens the database at path. A corrupted file is moved aside and a
// fresh database created in its place; only playback state and history are
// lost.
func Open(path string, opts db.OpenOptions) (*db.DB, error) {
	database, err := db.Open(path, opts)
	if err == nil || !IsCorruptionError(err) {
		return database, err
	}

	log.Warn().Err(err).Str("path", path).Msg("database corrupted, starting fresh")
	if rerr := RecoverFromCorruption(path); rerr != nil {
		return nil, fmt.Errorf("recover database: %w", rerr)
	}
	return db.Open(path, opts)
}

// RecoverFromCorruption moves a corrupted database file at dbPath, with its
// WAL and SHM companions, aside so the next open creates a fresh one.
func RecoverFromCorruption(dbPath string) error {
	backupPath := fmt.Sprintf("%s.corrupt.%s", dbPath, time.Now().Format("20060102-150405"))

	if err := os.Rename(dbPath, backupPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to backup corrupted database: %w", err)
	}

	// Orphaned WAL/SHM files would be replayed against the new database.
	for _, suffix := range []string{"-wal", "-shm"} {
		src := dbPath + suffix
		if _, err := os.Stat(src); err != nil {
			continue
		}
		if err := os.Rename(src, backupPath+suffix); err != nil {
			if delErr := os.Remove(src); delErr != nil {
				return fmt.Errorf("failed to backup or remove %s file: %w", suffix, err)
			}
		}
	}

	return nil
}
