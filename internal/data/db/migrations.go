package db

import (
	"bufio"
	"cmp"
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Each migration is one file named NNNN_name.sql holding a "-- +up" section
// and a "-- +down" section.
//
//go:embed migrations/*.sql
var migrationsFS embed.FS

const (
	upMarker   = "-- +up"
	downMarker = "-- +down"
)

// Migration is one schema version.
type Migration struct {
	Version int
	Name    string
	Up      string
	Down    string
}

// MigrationStatus reports whether a known migration has been applied.
type MigrationStatus struct {
	Version   int
	Name      string
	AppliedAt time.Time // zero while pending
}

// Applied reports whether the migration has run.
func (s MigrationStatus) Applied() bool {
	return !s.AppliedAt.IsZero()
}

func loadMigrations() ([]Migration, error) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}

	out := make([]Migration, 0, len(entries))
	seen := make(map[int]string, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		version, name, err := parseFilename(entry.Name())
		if err != nil {
			return nil, fmt.Errorf("migration %q: %w", entry.Name(), err)
		}
		if prev, dup := seen[version]; dup {
			return nil, fmt.Errorf("migration %q: version %04d already used by %q", entry.Name(), version, prev)
		}
		seen[version] = entry.Name()

		src, err := fs.ReadFile(migrationsFS, "migrations/"+entry.Name())
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", entry.Name(), err)
		}
		up, down, err := splitSections(string(src))
		if err != nil {
			return nil, fmt.Errorf("migration %q: %w", entry.Name(), err)
		}

		out = append(out, Migration{Version: version, Name: name, Up: up, Down: down})
	}

	slices.SortFunc(out, func(a, b Migration) int { return cmp.Compare(a.Version, b.Version) })
	return out, nil
}

// parseFilename splits "NNNN_name.sql" into its version and name.
func parseFilename(filename string) (int, string, error) {
	base, ok := strings.CutSuffix(filename, ".sql")
	if !ok {
		return 0, "", errors.New("missing .sql suffix")
	}

	num, name, ok := strings.Cut(base, "_")
	if !ok || name == "" {
		return 0, "", errors.New("expected NNNN_name.sql")
	}

	version, err := strconv.Atoi(num)
	if err != nil {
		return 0, "", fmt.Errorf("version %q: %w", num, err)
	}
	if version <= 0 {
		return 0, "", fmt.Errorf("version must be positive, got %d", version)
	}
	return version, name, nil
}

// splitSections extracts the up and down SQL. Both markers must appear once,
// up first; only blank lines and comments may precede the up marker.
func splitSections(src string) (string, string, error) {
	var (
		up, down strings.Builder
		current  *strings.Builder
		seenUp   bool
		seenDown bool
	)

	scanner := bufio.NewScanner(strings.NewReader(src))
	for scanner.Scan() {
		line := scanner.Text()
		switch strings.TrimSpace(line) {
		case upMarker:
			if seenUp || seenDown {
				return "", "", errors.New("unexpected " + upMarker)
			}
			seenUp, current = true, &up
			continue
		case downMarker:
			if !seenUp || seenDown {
				return "", "", errors.New("unexpected " + downMarker)
			}
			seenDown, current = true, &down
			continue
		}

		if current == nil {
			if t := strings.TrimSpace(line); t != "" && !strings.HasPrefix(t, "--") {
				return "", "", errors.New("statement before " + upMarker)
			}
			continue
		}
		current.WriteString(line)
		current.WriteByte('\n')
	}
	if err := scanner.Err(); err != nil {
		return "", "", err
	}

	upSQL, downSQL := strings.TrimSpace(up.String()), strings.TrimSpace(down.String())
	switch {
	case upSQL == "":
		return "", "", errors.New("empty " + upMarker + " section")
	case downSQL == "":
		return "", "", errors.New("empty " + downMarker + " section")
	}
	return upSQL, downSQL, nil
}

type migrator struct {
	conn       *sql.DB
	migrations []Migration
}

func newMigrator(ctx context.Context, conn *sql.DB) (*migrator, error) {
	migrations, err := loadMigrations()
	if err != nil {
		return nil, err
	}

	_, err = conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INTEGER PRIMARY KEY,
			name       TEXT NOT NULL,
			applied_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("create schema_migrations: %w", err)
	}

	return &migrator{conn: conn, migrations: migrations}, nil
}

// applied maps each recorded version to the time it ran.
func (m *migrator) applied(ctx context.Context) (map[int]time.Time, error) {
	rows, err := m.conn.QueryContext(ctx, "SELECT version, applied_at FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("query schema_migrations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[int]time.Time)
	for rows.Next() {
		var version int
		var at int64
		if err := rows.Scan(&version, &at); err != nil {
			return nil, fmt.Errorf("scan schema_migrations: %w", err)
		}
		out[version] = time.Unix(0, at)
	}
	return out, rows.Err()
}

// run executes one direction of mig and updates its record in the same
// transaction.
func (m *migrator) run(ctx context.Context, mig Migration, up bool) error {
	tx, err := m.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, record, args := mig.Down, "DELETE FROM schema_migrations WHERE version = ?", []any{mig.Version}
	if up {
		stmt = mig.Up
		record = "INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, ?)"
		args = []any{mig.Version, mig.Name, time.Now().UnixNano()}
	}

	if _, err := tx.ExecContext(ctx, stmt); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, record, args...); err != nil {
		return fmt.Errorf("record version: %w", err)
	}
	return tx.Commit()
}

func migrateUp(ctx context.Context, conn *sql.DB) error {
	m, err := newMigrator(ctx, conn)
	if err != nil {
		return err
	}
	applied, err := m.applied(ctx)
	if err != nil {
		return err
	}

	for _, mig := range m.migrations {
		if _, ok := applied[mig.Version]; ok {
			continue
		}
		log.Info().Int("version", mig.Version).Str("name", mig.Name).Msg("applying migration")
		if err := m.run(ctx, mig, true); err != nil {
			return fmt.Errorf("migration %04d_%s: %w", mig.Version, mig.Name, err)
		}
	}
	return nil
}

// MigrateDown reverts the n most recent applied migrations, newest first.
// The next Open applies them again.
func MigrateDown(ctx context.Context, conn *sql.DB, n int) error {
	if n <= 0 {
		return fmt.Errorf("n must be positive, got %d", n)
	}

	m, err := newMigrator(ctx, conn)
	if err != nil {
		return err
	}
	applied, err := m.applied(ctx)
	if err != nil {
		return err
	}

	var revert []Migration
	for _, mig := range slices.Backward(m.migrations) {
		if _, ok := applied[mig.Version]; ok {
			revert = append(revert, mig)
		}
	}
	if n > len(revert) {
		return fmt.Errorf("cannot revert %d migrations, only %d applied", n, len(revert))
	}

	for _, mig := range revert[:n] {
		log.Info().Int("version", mig.Version).Str("name", mig.Name).Msg("reverting migration")
		if err := m.run(ctx, mig, false); err != nil {
			return fmt.Errorf("revert %04d_%s: %w", mig.Version, mig.Name, err)
		}
	}
	return nil
}

// Status lists every known migration in version order with its applied time.
func Status(ctx context.Context, conn *sql.DB) ([]MigrationStatus, error) {
	m, err := newMigrator(ctx, conn)
	if err != nil {
		return nil, err
	}
	applied, err := m.applied(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]MigrationStatus, 0, len(m.migrations))
	for _, mig := range m.migrations {
		out = append(out, MigrationStatus{
			Version:   mig.Version,
			Name:      mig.Name,
			AppliedAt: applied[mig.Version],
		})
	}
	return out, nil
}
