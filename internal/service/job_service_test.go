package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/dropfy/dropfy-api/internal/models"
)

func TestJobEnqueue(t *testing.T) {
	repos, _ := setupTestRepos(t)
	svc := NewJobService(repos, testLogger())

	job, err := svc.Enqueue(context.Background(), "user-1", ExtractInput{
		URL:      "https://shop.example.com/p/1",
		Strategy: "direct",
	})
	if err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}
	if job.Status != models.JobStatusQueued {
		t.Errorf("status = %q, want queued", job.Status)
	}
	if job.ID == "" {
		t.Error("job ID not assigned")
	}

	stored, err := repos.Jobs.GetByID(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if stored.URL != "https://shop.example.com/p/1" {
		t.Errorf("stored URL = %q", stored.URL)
	}
}

func TestJobEnqueueQuota(t *testing.T) {
	repos, _ := setupTestRepos(t)
	svc := NewJobService(repos, testLogger())

	// Fill the starter plan's product allowance.
	for i := 0; i < 25; i++ {
		insertProduct(t, repos, "user-1")
	}

	if _, err := svc.Enqueue(context.Background(), "user-1", ExtractInput{URL: "https://x.example"}); !errors.Is(err, ErrQuotaExceeded) {
		t.Errorf("Enqueue() error = %v, want ErrQuotaExceeded", err)
	}
}

func TestJobGetOwnership(t *testing.T) {
	repos, _ := setupTestRepos(t)
	svc := NewJobService(repos, testLogger())

	job, err := svc.Enqueue(context.Background(), "user-1", ExtractInput{URL: "https://x.example"})
	if err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}

	if _, err := svc.Get(context.Background(), "user-2", job.ID); !errors.Is(err, ErrNotOwner) {
		t.Errorf("Get() error = %v, want ErrNotOwner", err)
	}
	got, err := svc.Get(context.Background(), "user-1", job.ID)
	if err != nil {
		t.Fatalf("Get() error = %v for owner", err)
	}
	if got.ID != job.ID {
		t.Errorf("got job %q, want %q", got.ID, job.ID)
	}
}

func TestJobListNewestFirst(t *testing.T) {
	repos, _ := setupTestRepos(t)
	svc := NewJobService(repos, testLogger())

	for i := 0; i < 3; i++ {
		job := &models.ImportJob{
			UserID:    "user-1",
			URL:       fmt.Sprintf("https://x.example/%d", i),
			Status:    models.JobStatusQueued,
			CreatedAt: time.Now().Add(time.Duration(i) * time.Second),
		}
		if err := repos.Jobs.Create(context.Background(), job); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	jobs, err := svc.List(context.Background(), "user-1", 0, 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(jobs) != 3 {
		t.Fatalf("len(jobs) = %d, want 3", len(jobs))
	}
	if jobs[0].URL != "https://x.example/2" {
		t.Errorf("first job URL = %q, want newest", jobs[0].URL)
	}
}

func TestJobRecoverStale(t *testing.T) {
	repos, _ := setupTestRepos(t)
	svc := NewJobService(repos, testLogger())

	stale := &models.ImportJob{
		UserID:    "user-1",
		URL:       "https://x.example/stale",
		Status:    models.JobStatusRunning,
		StartedAt: ptrTime(time.Now().Add(-time.Hour)),
	}
	fresh := &models.ImportJob{
		UserID:    "user-1",
		URL:       "https://x.example/fresh",
		Status:    models.JobStatusRunning,
		StartedAt: ptrTime(time.Now().Add(-time.Minute)),
	}
	for _, j := range []*models.ImportJob{stale, fresh} {
		if err := repos.Jobs.Create(context.Background(), j); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	if err := svc.RecoverStale(context.Background()); err != nil {
		t.Fatalf("RecoverStale() error = %v", err)
	}

	got, _ := repos.Jobs.GetByID(context.Background(), stale.ID)
	if got.Status != models.JobStatusFailed {
		t.Errorf("stale job status = %q, want failed", got.Status)
	}
	got, _ = repos.Jobs.GetByID(context.Background(), fresh.ID)
	if got.Status != models.JobStatusRunning {
		t.Errorf("fresh job status = %q, want running", got.Status)
	}
}

func ptrTime(t time.Time) *time.Time { return &t }
