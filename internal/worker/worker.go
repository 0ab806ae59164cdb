package worker

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dropfy/dropfy-api/internal/llm"
	"github.com/dropfy/dropfy-api/internal/models"
	"github.com/dropfy/dropfy-api/internal/repository"
	"github.com/dropfy/dropfy-api/internal/service"
)

// extractor runs the import pipeline for one URL.
type extractor interface {
	Extract(ctx context.Context, userID string, input service.ExtractInput) (*models.Product, error)
}

// Worker drains the import job queue in the background.
type Worker struct {
	jobs         repository.JobRepository
	extraction   extractor
	pollInterval time.Duration
	concurrency  int
	jobTimeout   time.Duration
	inFlight     atomic.Int64
	stop         chan struct{}
	wg           sync.WaitGroup
	logger       *slog.Logger
}

// Config holds worker configuration.
type Config struct {
	PollInterval time.Duration
	Concurrency  int
	JobTimeout   time.Duration
}

// New creates a new worker.
func New(jobs repository.JobRepository, extraction extractor, cfg Config, logger *slog.Logger) *Worker {
	if cfg.PollInterval == 0 {
		cfg.PollInterval = 5 * time.Second
	}
	if cfg.Concurrency == 0 {
		cfg.Concurrency = 3
	}
	if cfg.JobTimeout == 0 {
		cfg.JobTimeout = 5 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		jobs:         jobs,
		extraction:   extraction,
		pollInterval: cfg.PollInterval,
		concurrency:  cfg.Concurrency,
		jobTimeout:   cfg.JobTimeout,
		stop:         make(chan struct{}),
		logger:       logger.With("component", "worker"),
	}
}

// Busy reports whether any job is currently being processed. Used by
// idle-shutdown deployments to avoid killing the process mid-import.
func (w *Worker) Busy() bool {
	return w.inFlight.Load() > 0
}

// Start begins processing jobs.
func (w *Worker) Start(ctx context.Context) {
	w.logger.Info("starting", "concurrency", w.concurrency, "poll_interval", w.pollInterval)

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.run(ctx, i)
	}
}

// Stop waits for in-flight jobs to finish before returning.
func (w *Worker) Stop() {
	w.logger.Info("stopping")
	close(w.stop)
	w.wg.Wait()
	w.logger.Info("stopped")
}

func (w *Worker) run(ctx context.Context, workerID int) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Drain the queue before sleeping again so a burst of
			// imports doesn't wait one poll interval per job.
			for w.processNextJob(ctx, workerID) {
				select {
				case <-w.stop:
					return
				case <-ctx.Done():
					return
				default:
				}
			}
		}
	}
}

// processNextJob claims and runs one job. Returns false when the queue
// is empty or claiming failed.
func (w *Worker) processNextJob(ctx context.Context, workerID int) bool {
	job, err := w.jobs.ClaimQueued(ctx)
	if err != nil {
		w.logger.Error("failed to claim job", "worker_id", workerID, "error", err)
		return false
	}
	if job == nil {
		return false
	}

	w.inFlight.Add(1)
	defer w.inFlight.Add(-1)

	w.logger.Info("processing job", "worker_id", workerID, "job_id", job.ID, "url", job.URL)

	jobCtx, cancel := context.WithTimeout(ctx, w.jobTimeout)
	defer cancel()

	product, err := w.extraction.Extract(jobCtx, job.UserID, service.ExtractInput{
		URL:      job.URL,
		Strategy: job.Strategy,
		Mode:     llm.Mode(job.Mode),
		StoreID:  job.StoreID,
	})
	if err != nil {
		w.failJob(ctx, job, err.Error())
		return true
	}

	now := time.Now()
	job.Status = models.JobStatusCompleted
	job.ProductID = product.ID
	job.CompletedAt = &now
	if err := w.jobs.Update(ctx, job); err != nil {
		w.logger.Error("failed to update job", "job_id", job.ID, "error", err)
	}

	w.logger.Info("completed job", "job_id", job.ID, "product_id", product.ID)
	return true
}

func (w *Worker) failJob(ctx context.Context, job *models.ImportJob, errMsg string) {
	now := time.Now()
	job.Status = models.JobStatusFailed
	job.Error = errMsg
	job.CompletedAt = &now

	if err := w.jobs.Update(ctx, job); err != nil {
		w.logger.Error("failed to update job", "job_id", job.ID, "error", err)
	}

	w.logger.Error("job failed", "job_id", job.ID, "error", errMsg)
}
