package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/dropfy/dropfy-api/internal/models"
	"github.com/dropfy/dropfy-api/internal/repository"
)

// ErrNotOwner is returned when a user requests a resource that belongs
// to someone else.
var ErrNotOwner = errors.New("resource belongs to another user")

// staleJobAge is how long a job may sit in running before boot
// recovery marks it failed. Covers crashes mid-import.
const staleJobAge = 30 * time.Minute

// JobService manages the async import queue.
type JobService struct {
	repos  *repository.Repositories
	logger *slog.Logger
}

// NewJobService creates a new job service.
func NewJobService(repos *repository.Repositories, logger *slog.Logger) *JobService {
	return &JobService{repos: repos, logger: logger.With("component", "jobs")}
}

// Enqueue creates a queued import job. Quota is checked up front so a
// user at their product limit gets an immediate error instead of a
// failed job later.
func (s *JobService) Enqueue(ctx context.Context, userID string, input ExtractInput) (*models.ImportJob, error) {
	if err := checkProductQuota(ctx, s.repos, userID); err != nil {
		return nil, err
	}

	now := time.Now()
	job := &models.ImportJob{
		ID:        ulid.Make().String(),
		UserID:    userID,
		StoreID:   input.StoreID,
		URL:       input.URL,
		Strategy:  input.Strategy,
		Mode:      string(input.Mode),
		Status:    models.JobStatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repos.Jobs.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("enqueuing job: %w", err)
	}

	s.logger.Info("import job queued", "job_id", job.ID, "user_id", userID, "url", input.URL)
	return job, nil
}

// Get returns a job, enforcing ownership.
func (s *JobService) Get(ctx context.Context, userID, jobID string) (*models.ImportJob, error) {
	job, err := s.repos.Jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.UserID != userID {
		return nil, ErrNotOwner
	}
	return job, nil
}

// List returns the user's jobs, newest first.
func (s *JobService) List(ctx context.Context, userID string, limit, offset int) ([]*models.ImportJob, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.repos.Jobs.GetByUserID(ctx, userID, limit, offset)
}

// RecoverStale marks jobs stuck in running as failed. Called once at
// boot so a crashed worker doesn't strand jobs forever.
func (s *JobService) RecoverStale(ctx context.Context) error {
	n, err := s.repos.Jobs.MarkStaleRunningJobsFailed(ctx, staleJobAge)
	if err != nil {
		return fmt.Errorf("recovering stale jobs: %w", err)
	}
	if n > 0 {
		s.logger.Warn("recovered stale running jobs", "count", n)
	}
	return nil
}
