package repository

import (
	"database/sql"
	"testing"

	"github.com/dropfy/dropfy-api/internal/database/migrations"
	_ "github.com/tursodatabase/go-libsql"
)

// setupTestDB creates an in-memory SQLite database for testing. It runs
// migrations and returns a connection that is closed when the test ends.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("libsql", ":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("failed to enable foreign keys: %v", err)
	}

	if err := migrations.Run(db, nil); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

// setupTestRepos creates all repositories backed by a test database.
func setupTestRepos(t *testing.T) *Repositories {
	t.Helper()
	return NewRepositories(setupTestDB(t))
}

// InsertTestJob inserts an import job row directly.
func InsertTestJob(t *testing.T, db *sql.DB, id, userID, status string) {
	t.Helper()
	query := `
		INSERT INTO import_jobs (id, user_id, url, status, created_at, updated_at)
		VALUES (?, ?, 'https://example.com/product/1', ?, datetime('now'), datetime('now'))
	`
	if _, err := db.Exec(query, id, userID, status); err != nil {
		t.Fatalf("failed to insert test job: %v", err)
	}
}

// InsertTestProduct inserts a product row directly.
func InsertTestProduct(t *testing.T, db *sql.DB, id, userID, title string) {
	t.Helper()
	query := `
		INSERT INTO products (id, user_id, source_url, title, created_at, updated_at)
		VALUES (?, ?, 'https://example.com/product/1', ?, datetime('now'), datetime('now'))
	`
	if _, err := db.Exec(query, id, userID, title); err != nil {
		t.Fatalf("failed to insert test product: %v", err)
	}
}

// InsertTestReview inserts a review row directly.
func InsertTestReview(t *testing.T, db *sql.DB, id, productID string, rating int, selected bool) {
	t.Helper()
	sel := 0
	if selected {
		sel = 1
	}
	query := `
		INSERT INTO reviews (id, product_id, author, rating, content, selected, created_at)
		VALUES (?, ?, 'Test Author', ?, 'Great product', ?, datetime('now'))
	`
	if _, err := db.Exec(query, id, productID, rating, sel); err != nil {
		t.Fatalf("failed to insert test review: %v", err)
	}
}
