package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/dropfy/dropfy-api/internal/models"
)

// SQLiteReviewRepository implements ReviewRepository for SQLite.
type SQLiteReviewRepository struct {
	db *sql.DB
}

// NewSQLiteReviewRepository creates a new SQLite review repository.
func NewSQLiteReviewRepository(db *sql.DB) *SQLiteReviewRepository {
	return &SQLiteReviewRepository{db: db}
}

func (r *SQLiteReviewRepository) Create(ctx context.Context, review *models.Review) error {
	prepareReview(review)
	_, err := r.db.ExecContext(ctx, insertReview,
		review.ID, review.ProductID, review.Author, review.Rating, review.Content,
		nullString(review.ImageURL), nullString(review.Country), review.Source,
		boolToInt(review.Selected), review.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to create review: %w", err)
	}
	return nil
}

// CreateBatch inserts reviews in a single transaction. Used by bulk
// import and AI generation, which commonly produce 10+ reviews at once.
func (r *SQLiteReviewRepository) CreateBatch(ctx context.Context, reviews []*models.Review) error {
	if len(reviews) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	for _, review := range reviews {
		prepareReview(review)
		if _, err := tx.ExecContext(ctx, insertReview,
			review.ID, review.ProductID, review.Author, review.Rating, review.Content,
			nullString(review.ImageURL), nullString(review.Country), review.Source,
			boolToInt(review.Selected), review.CreatedAt.Format(time.RFC3339),
		); err != nil {
			return fmt.Errorf("failed to insert review: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	committed = true
	return nil
}

const insertReview = `
	INSERT INTO reviews (id, product_id, author, rating, content, image_url, country, source, selected, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func prepareReview(review *models.Review) {
	if review.ID == "" {
		review.ID = ulid.Make().String()
	}
	if review.CreatedAt.IsZero() {
		review.CreatedAt = time.Now()
	}
	if review.Source == "" {
		review.Source = "imported"
	}
}

const selectReview = `
	SELECT id, product_id, author, rating, content, image_url, country, source, selected, created_at
	FROM reviews`

func (r *SQLiteReviewRepository) GetByID(ctx context.Context, id string) (*models.Review, error) {
	row := r.db.QueryRowContext(ctx, selectReview+` WHERE id = ?`, id)
	review, err := scanReview(row.Scan)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan review: %w", err)
	}
	return review, nil
}

func (r *SQLiteReviewRepository) GetByProductID(ctx context.Context, productID string) ([]*models.Review, error) {
	return r.queryReviews(ctx, selectReview+` WHERE product_id = ? ORDER BY created_at DESC`, productID)
}

func (r *SQLiteReviewRepository) GetSelectedByProductID(ctx context.Context, productID string) ([]*models.Review, error) {
	return r.queryReviews(ctx, selectReview+` WHERE product_id = ? AND selected = 1 ORDER BY created_at DESC`, productID)
}

func (r *SQLiteReviewRepository) queryReviews(ctx context.Context, query string, args ...any) ([]*models.Review, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reviews: %w", err)
	}
	defer rows.Close()

	var reviews []*models.Review
	for rows.Next() {
		review, err := scanReview(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, review)
	}
	return reviews, rows.Err()
}

// SetSelected flips the selection flag for the given reviews, scoped to a
// product so callers cannot toggle reviews of other products.
func (r *SQLiteReviewRepository) SetSelected(ctx context.Context, productID string, reviewIDs []string, selected bool) error {
	if len(reviewIDs) == 0 {
		return nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(reviewIDs)), ",")
	query := fmt.Sprintf(
		`UPDATE reviews SET selected = ? WHERE product_id = ? AND id IN (%s)`, placeholders)

	args := make([]any, 0, len(reviewIDs)+2)
	args = append(args, boolToInt(selected), productID)
	for _, id := range reviewIDs {
		args = append(args, id)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to update review selection: %w", err)
	}
	return nil
}

func (r *SQLiteReviewRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}
	return nil
}

func (r *SQLiteReviewRepository) DeleteByProductID(ctx context.Context, productID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM reviews WHERE product_id = ?`, productID); err != nil {
		return fmt.Errorf("failed to delete reviews: %w", err)
	}
	return nil
}

func scanReview(scan func(dest ...any) error) (*models.Review, error) {
	var review models.Review
	var imageURL, country sql.NullString
	var selected int
	var createdAt string

	err := scan(&review.ID, &review.ProductID, &review.Author, &review.Rating,
		&review.Content, &imageURL, &country, &review.Source, &selected, &createdAt)
	if err != nil {
		return nil, err
	}

	review.ImageURL = imageURL.String
	review.Country = country.String
	review.Selected = selected != 0
	review.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &review, nil
}
