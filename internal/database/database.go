// Package database opens the libsql connection and runs migrations.
package database

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/tursodatabase/go-libsql"

	"github.com/dropfy/dropfy-api/internal/database/migrations"
)

// New opens a database connection. Three deployment shapes:
//   - local file: DATABASE_URL="file:dropfy.db" (no Turso config)
//   - embedded replica: set TURSO_URL + TURSO_AUTH_TOKEN to sync the
//     local file with Turso cloud
//   - libsql server: DATABASE_URL="http://127.0.0.1:8080" (turso dev)
func New(dsn string) (*sql.DB, error) {
	db, err := open(dsn)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return db, nil
}

func open(dsn string) (*sql.DB, error) {
	tursoURL := os.Getenv("TURSO_URL")
	tursoToken := os.Getenv("TURSO_AUTH_TOKEN")
	if tursoURL == "" || tursoToken == "" {
		db, err := sql.Open("libsql", dsn)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		return db, nil
	}

	// Embedded replica: the DSN names the local file, Turso is the sync
	// target.
	path, _, _ := strings.Cut(strings.TrimPrefix(dsn, "file:"), "?")
	connector, err := libsql.NewEmbeddedReplicaConnector(path, tursoURL,
		libsql.WithAuthToken(tursoToken),
		libsql.WithReadYourWrites(true),
	)
	if err != nil {
		return nil, fmt.Errorf("create Turso connector: %w", err)
	}
	return sql.OpenDB(connector), nil
}

// MigrateWithLogger runs pending migrations, logging each one applied.
func MigrateWithLogger(db *sql.DB, logger *slog.Logger) error {
	return migrations.Run(db, logger)
}

// GetLatestSchemaVersion returns the version of the most recently applied
// migration, or "" if no migrations have run.
func GetLatestSchemaVersion(db *sql.DB) (string, error) {
	return migrations.GetLatestVersion(db)
}

// GetMigrationCount returns the number of applied migrations.
func GetMigrationCount(db *sql.DB) (int, error) {
	return migrations.GetMigrationCount(db)
}
