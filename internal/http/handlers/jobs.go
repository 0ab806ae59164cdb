package handlers

import (
	"context"

	"github.com/dropfy/dropfy-api/internal/http/mw"
	"github.com/dropfy/dropfy-api/internal/models"
	"github.com/dropfy/dropfy-api/internal/service"
)

// JobHandler exposes import job status.
type JobHandler struct {
	jobSvc *service.JobService
}

// NewJobHandler creates a new job handler.
func NewJobHandler(jobSvc *service.JobService) *JobHandler {
	return &JobHandler{jobSvc: jobSvc}
}

// GetJobInput identifies one job.
type GetJobInput struct {
	ID string `path:"id" doc:"Job ID"`
}

// GetJobOutput wraps a single job.
type GetJobOutput struct {
	Body struct {
		Job *models.ImportJob `json:"job"`
	}
}

// Get returns the status of one import job.
func (h *JobHandler) Get(ctx context.Context, input *GetJobInput) (*GetJobOutput, error) {
	job, err := h.jobSvc.Get(ctx, mw.UserID(ctx), input.ID)
	if err != nil {
		return nil, mapServiceError(err)
	}

	out := &GetJobOutput{}
	out.Body.Job = job
	return out, nil
}

// ListJobsInput represents job list query parameters.
type ListJobsInput struct {
	Limit  int `query:"limit" minimum:"1" maximum:"100" default:"50" doc:"Page size"`
	Offset int `query:"offset" minimum:"0" default:"0" doc:"Rows to skip"`
}

// ListJobsOutput represents the job list response.
type ListJobsOutput struct {
	Body struct {
		Jobs []*models.ImportJob `json:"jobs"`
	}
}

// List returns the user's import jobs, newest first.
func (h *JobHandler) List(ctx context.Context, input *ListJobsInput) (*ListJobsOutput, error) {
	jobs, err := h.jobSvc.List(ctx, mw.UserID(ctx), input.Limit, input.Offset)
	if err != nil {
		return nil, mapServiceError(err)
	}

	out := &ListJobsOutput{}
	out.Body.Jobs = jobs
	return out, nil
}
