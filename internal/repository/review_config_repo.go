package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/dropfy/dropfy-api/internal/models"
)

// SQLiteReviewConfigRepository implements ReviewConfigRepository for SQLite.
type SQLiteReviewConfigRepository struct {
	db *sql.DB
}

// NewSQLiteReviewConfigRepository creates a new review config repository.
func NewSQLiteReviewConfigRepository(db *sql.DB) *SQLiteReviewConfigRepository {
	return &SQLiteReviewConfigRepository{db: db}
}

// Upsert creates or updates the config for a (user, product) pair. The
// unique constraint on that pair keeps one config per product per user.
func (r *SQLiteReviewConfigRepository) Upsert(ctx context.Context, cfg *models.ReviewConfig) error {
	if cfg.ID == "" {
		cfg.ID = ulid.Make().String()
	}
	now := time.Now()
	if cfg.CreatedAt.IsZero() {
		cfg.CreatedAt = now
	}
	cfg.UpdatedAt = now

	query := `
		INSERT INTO review_configs (id, user_id, product_id, widget_title, show_ratings_summary, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, product_id) DO UPDATE SET
			widget_title = excluded.widget_title,
			show_ratings_summary = excluded.show_ratings_summary,
			updated_at = excluded.updated_at
	`
	_, err := r.db.ExecContext(ctx, query,
		cfg.ID,
		cfg.UserID,
		cfg.ProductID,
		cfg.WidgetTitle,
		boolToInt(cfg.ShowRatingsSummary),
		cfg.CreatedAt.Format(time.RFC3339),
		cfg.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert review config: %w", err)
	}
	return nil
}

const selectReviewConfig = `
	SELECT id, user_id, product_id, widget_title, show_ratings_summary, created_at, updated_at
	FROM review_configs`

func (r *SQLiteReviewConfigRepository) GetByUserAndProduct(ctx context.Context, userID, productID string) (*models.ReviewConfig, error) {
	row := r.db.QueryRowContext(ctx, selectReviewConfig+` WHERE user_id = ? AND product_id = ?`, userID, productID)
	return scanReviewConfig(row)
}

func (r *SQLiteReviewConfigRepository) GetByProductID(ctx context.Context, productID string) (*models.ReviewConfig, error) {
	row := r.db.QueryRowContext(ctx, selectReviewConfig+` WHERE product_id = ?`, productID)
	return scanReviewConfig(row)
}

func scanReviewConfig(row *sql.Row) (*models.ReviewConfig, error) {
	var cfg models.ReviewConfig
	var showSummary int
	var createdAt, updatedAt string

	err := row.Scan(&cfg.ID, &cfg.UserID, &cfg.ProductID, &cfg.WidgetTitle,
		&showSummary, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan review config: %w", err)
	}

	cfg.ShowRatingsSummary = showSummary != 0
	cfg.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	cfg.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &cfg, nil
}
