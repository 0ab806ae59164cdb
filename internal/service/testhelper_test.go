package service

import (
	"context"
	"database/sql"
	"log/slog"
	"testing"

	"github.com/dropfy/dropfy-api/internal/crypto"
	"github.com/dropfy/dropfy-api/internal/database/migrations"
	"github.com/dropfy/dropfy-api/internal/llm"
	"github.com/dropfy/dropfy-api/internal/models"
	"github.com/dropfy/dropfy-api/internal/repository"
	"github.com/oklog/ulid/v2"
	_ "github.com/tursodatabase/go-libsql"
)

// setupTestRepos creates repositories over an in-memory database with
// migrations applied.
func setupTestRepos(t *testing.T) (*repository.Repositories, *sql.DB) {
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
	t.Cleanup(func() { _ = db.Close() })

	return repository.NewRepositories(db), db
}

func testEncryptor(t *testing.T) *crypto.Encryptor {
	t.Helper()
	key := make([]byte, 32)
	copy(key, "service-test-encryption-key-0000")
	enc, err := crypto.NewEncryptor(key)
	if err != nil {
		t.Fatalf("failed to create encryptor: %v", err)
	}
	return enc
}

// fakeCompleter returns canned LLM responses in call order.
type fakeCompleter struct {
	responses []string
	err       error
	requests  []llm.CompletionRequest
}

func (f *fakeCompleter) Complete(_ context.Context, req llm.CompletionRequest) (string, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return "", f.err
	}
	idx := len(f.requests) - 1
	if idx >= len(f.responses) {
		idx = len(f.responses) - 1
	}
	return f.responses[idx], nil
}

func insertProduct(t *testing.T, repos *repository.Repositories, userID string) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:              ulid.Make().String(),
		UserID:          userID,
		SourceURL:       "https://supplier.example.com/product/1",
		Title:           "Test Product",
		DescriptionHTML: "<p>Nice thing</p>",
		Price:           "19.99",
		Status:          models.ProductStatusDraft,
	}
	if err := repos.Products.Create(context.Background(), product); err != nil {
		t.Fatalf("failed to insert product: %v", err)
	}
	return product
}

func testLogger() *slog.Logger {
	return slog.Default()
}
