package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dropfy/dropfy-api/internal/models"
)

// SQLitePublishedReviewsRepository implements PublishedReviewsRepository
// for SQLite. The snapshot is keyed by product and replaced wholesale on
// each publish so the public widget never sees a partial state.
type SQLitePublishedReviewsRepository struct {
	db *sql.DB
}

// NewSQLitePublishedReviewsRepository creates a new snapshot repository.
func NewSQLitePublishedReviewsRepository(db *sql.DB) *SQLitePublishedReviewsRepository {
	return &SQLitePublishedReviewsRepository{db: db}
}

func (r *SQLitePublishedReviewsRepository) Upsert(ctx context.Context, snapshot *models.PublishedReviews) error {
	if snapshot.PublishedAt.IsZero() {
		snapshot.PublishedAt = time.Now()
	}

	query := `
		INSERT INTO published_reviews (product_id, reviews_json, review_count, average_rating, published_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(product_id) DO UPDATE SET
			reviews_json = excluded.reviews_json,
			review_count = excluded.review_count,
			average_rating = excluded.average_rating,
			published_at = excluded.published_at
	`
	_, err := r.db.ExecContext(ctx, query,
		snapshot.ProductID,
		snapshot.ReviewsJSON,
		snapshot.ReviewCount,
		snapshot.AverageRating,
		snapshot.PublishedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert published reviews: %w", err)
	}
	return nil
}

func (r *SQLitePublishedReviewsRepository) GetByProductID(ctx context.Context, productID string) (*models.PublishedReviews, error) {
	query := `
		SELECT product_id, reviews_json, review_count, average_rating, published_at
		FROM published_reviews WHERE product_id = ?
	`
	var snapshot models.PublishedReviews
	var publishedAt string

	err := r.db.QueryRowContext(ctx, query, productID).Scan(
		&snapshot.ProductID, &snapshot.ReviewsJSON, &snapshot.ReviewCount,
		&snapshot.AverageRating, &publishedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan published reviews: %w", err)
	}

	snapshot.PublishedAt, _ = time.Parse(time.RFC3339, publishedAt)
	return &snapshot, nil
}

func (r *SQLitePublishedReviewsRepository) Delete(ctx context.Context, productID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM published_reviews WHERE product_id = ?`, productID); err != nil {
		return fmt.Errorf("failed to delete published reviews: %w", err)
	}
	return nil
}
