package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/dropfy/dropfy-api/internal/models"
)

// SQLiteJobRepository implements JobRepository for SQLite.
type SQLiteJobRepository struct {
	db *sql.DB
}

// NewSQLiteJobRepository creates a new SQLite job repository.
func NewSQLiteJobRepository(db *sql.DB) *SQLiteJobRepository {
	return &SQLiteJobRepository{db: db}
}

func (r *SQLiteJobRepository) Create(ctx context.Context, job *models.ImportJob) error {
	if job.ID == "" {
		job.ID = ulid.Make().String()
	}
	now := time.Now()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	job.UpdatedAt = now
	if job.Status == "" {
		job.Status = models.JobStatusQueued
	}

	query := `
		INSERT INTO import_jobs (id, user_id, store_id, url, strategy, mode, status,
			error, product_id, attempts, started_at, completed_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		job.ID,
		job.UserID,
		nullString(job.StoreID),
		job.URL,
		nullString(job.Strategy),
		nullString(job.Mode),
		job.Status,
		nullString(job.Error),
		nullString(job.ProductID),
		job.Attempts,
		nullTime(job.StartedAt),
		nullTime(job.CompletedAt),
		job.CreatedAt.Format(time.RFC3339),
		job.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}
	return nil
}

const selectJob = `
	SELECT id, user_id, store_id, url, strategy, mode, status, error, product_id,
		attempts, started_at, completed_at, created_at, updated_at
	FROM import_jobs`

func (r *SQLiteJobRepository) GetByID(ctx context.Context, id string) (*models.ImportJob, error) {
	job, err := scanJob(r.db.QueryRowContext(ctx, selectJob+` WHERE id = ?`, id).Scan)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan job: %w", err)
	}
	return job, nil
}

func (r *SQLiteJobRepository) GetByUserID(ctx context.Context, userID string, limit, offset int) ([]*models.ImportJob, error) {
	query := selectJob + ` WHERE user_id = ? ORDER BY created_at DESC LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*models.ImportJob
	for rows.Next() {
		job, err := scanJob(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

func (r *SQLiteJobRepository) Update(ctx context.Context, job *models.ImportJob) error {
	job.UpdatedAt = time.Now()
	query := `
		UPDATE import_jobs
		SET status = ?, error = ?, product_id = ?, attempts = ?, started_at = ?,
			completed_at = ?, updated_at = ?
		WHERE id = ?
	`
	_, err := r.db.ExecContext(ctx, query,
		job.Status,
		nullString(job.Error),
		nullString(job.ProductID),
		job.Attempts,
		nullTime(job.StartedAt),
		nullTime(job.CompletedAt),
		job.UpdatedAt.Format(time.RFC3339),
		job.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update job: %w", err)
	}
	return nil
}

// ClaimQueued atomically claims the oldest queued job and marks it
// running. Returns (nil, nil) when the queue is empty. The single
// UPDATE ... RETURNING statement keeps lock contention low when several
// workers poll concurrently.
func (r *SQLiteJobRepository) ClaimQueued(ctx context.Context) (*models.ImportJob, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	now := time.Now().Format(time.RFC3339)
	query := `
		UPDATE import_jobs
		SET status = 'running', started_at = ?, attempts = attempts + 1, updated_at = ?
		WHERE id = (
			SELECT id FROM import_jobs
			WHERE status = 'queued'
			ORDER BY created_at ASC
			LIMIT 1
		)
		RETURNING id, user_id, store_id, url, strategy, mode, status, error, product_id,
			attempts, started_at, completed_at, created_at, updated_at
	`

	job, err := scanJob(tx.QueryRowContext(ctx, query, now, now).Scan)
	if err == sql.ErrNoRows {
		// Empty queue is the common case, not an error.
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to claim job: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	committed = true

	return job, nil
}

// MarkStaleRunningJobsFailed fails running jobs whose worker died, e.g.
// after a server restart. Called once at startup.
func (r *SQLiteJobRepository) MarkStaleRunningJobsFailed(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().Add(-maxAge).Format(time.RFC3339)
	now := time.Now().Format(time.RFC3339)

	query := `
		UPDATE import_jobs
		SET status = ?, error = ?, completed_at = ?, updated_at = ?
		WHERE status = ? AND started_at < ?
	`
	result, err := r.db.ExecContext(ctx, query,
		models.JobStatusFailed,
		"Job terminated: server restart or timeout",
		now,
		now,
		models.JobStatusRunning,
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to mark stale jobs as failed: %w", err)
	}

	count, _ := result.RowsAffected()
	return count, nil
}

func scanJob(scan func(dest ...any) error) (*models.ImportJob, error) {
	var job models.ImportJob
	var storeID, strategy, mode, errMsg, productID sql.NullString
	var startedAt, completedAt sql.NullString
	var createdAt, updatedAt string

	err := scan(&job.ID, &job.UserID, &storeID, &job.URL, &strategy, &mode,
		&job.Status, &errMsg, &productID, &job.Attempts, &startedAt, &completedAt,
		&createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	job.StoreID = storeID.String
	job.Strategy = strategy.String
	job.Mode = mode.String
	job.Error = errMsg.String
	job.ProductID = productID.String
	job.StartedAt = parseNullTime(startedAt)
	job.CompletedAt = parseNullTime(completedAt)
	job.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	job.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &job, nil
}

// Shared null helpers used across repositories.

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(time.RFC3339), Valid: true}
}
