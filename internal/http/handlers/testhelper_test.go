package handlers

import (
	"context"
	"database/sql"
	"log/slog"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	_ "github.com/tursodatabase/go-libsql"

	"github.com/dropfy/dropfy-api/internal/database/migrations"
	"github.com/dropfy/dropfy-api/internal/http/mw"
	"github.com/dropfy/dropfy-api/internal/models"
	"github.com/dropfy/dropfy-api/internal/repository"
)

func setupTestRepos(t *testing.T) (*repository.Repositories, *sql.DB) {
	t.Helper()

	db, err := sql.Open("libsql", ":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	if err := migrations.Run(db, nil); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return repository.NewRepositories(db), db
}

// authedContext simulates a request that passed through the auth
// middleware.
func authedContext(userID string) context.Context {
	return context.WithValue(context.Background(), mw.UserIDKey, userID)
}

func insertProduct(t *testing.T, repos *repository.Repositories, userID string) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:        ulid.Make().String(),
		UserID:    userID,
		SourceURL: "https://shop.example.com/p/1",
		Title:     "Test Product",
		Price:     "19.99",
		Status:    models.ProductStatusDraft,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := repos.Products.Create(context.Background(), product); err != nil {
		t.Fatalf("failed to create product: %v", err)
	}
	return product
}

func testLogger() *slog.Logger { return slog.Default() }
