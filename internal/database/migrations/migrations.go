// Package migrations runs versioned schema migrations. Each migration
// file registers itself from init() with a timestamp version
// (YYYYMMDD-HHmmss) and is applied exactly once, tracked in the
// schema_migrations table.
//
// Migration files are named YYYYMMDD-HHmmss-description.go, for
// example 20250614-101500-review-source-index.go.
package migrations

import (
	"database/sql"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"
)

const trackingTable = `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version TEXT PRIMARY KEY,
		description TEXT NOT NULL,
		applied_at TEXT NOT NULL
	)`

// Migration is one schema change, a list of SQL statements applied in
// a single transaction.
type Migration struct {
	Timestamp   string // version, YYYYMMDD-HHmmss
	Description string
	Up          []string
}

var registry []Migration

// Register adds a migration. Called from init() in migration files.
func Register(m Migration) {
	registry = append(registry, m)
}

// Run applies every pending migration in timestamp order, creating the
// tracking table on first use.
func Run(db *sql.DB, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	if _, err := db.Exec(trackingTable); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	pending, err := pendingMigrations(db)
	if err != nil {
		return err
	}

	for _, m := range pending {
		logger.Info("running migration", "timestamp", m.Timestamp, "description", m.Description)
		if err := apply(db, m); err != nil {
			return fmt.Errorf("migration %s (%s): %w", m.Timestamp, m.Description, err)
		}
		logger.Info("migration completed", "timestamp", m.Timestamp)
	}

	return nil
}

// pendingMigrations returns registered migrations not yet recorded in
// schema_migrations, sorted by version.
func pendingMigrations(db *sql.DB) ([]Migration, error) {
	rows, err := db.Query("SELECT version FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("read applied versions: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]struct{})
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		applied[v] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var pending []Migration
	for _, m := range registry {
		if _, done := applied[m.Timestamp]; !done {
			pending = append(pending, m)
		}
	}
	slices.SortFunc(pending, func(a, b Migration) int {
		return strings.Compare(a.Timestamp, b.Timestamp)
	})
	return pending, nil
}

// apply runs one migration inside a transaction and records it.
func apply(db *sql.DB, m Migration) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range m.Up {
		if _, err := tx.Exec(stmt); err != nil {
			if isReentrant(err, stmt) {
				continue
			}
			return fmt.Errorf("exec failed: %w\n%s", err, stmt)
		}
	}

	if _, err := tx.Exec(
		"INSERT INTO schema_migrations (version, description, applied_at) VALUES (?, ?, ?)",
		m.Timestamp, m.Description, time.Now().UTC().Format(time.RFC3339),
	); err != nil {
		return fmt.Errorf("record version: %w", err)
	}

	return tx.Commit()
}

// isReentrant identifies errors a rerun of an already half-applied
// migration would produce, e.g. after a crash between a statement and
// the version insert.
func isReentrant(err error, stmt string) bool {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "duplicate column"):
		return true
	case strings.Contains(msg, "already exists") && strings.Contains(stmt, "CREATE INDEX"):
		return true
	}
	return false
}

// GetLatestVersion returns the newest applied version, "" when none.
func GetLatestVersion(db *sql.DB) (string, error) {
	var version sql.NullString
	err := db.QueryRow("SELECT version FROM schema_migrations ORDER BY version DESC LIMIT 1").Scan(&version)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return version.String, nil
}

// GetMigrationCount returns how many migrations have been applied.
func GetMigrationCount(db *sql.DB) (int, error) {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
