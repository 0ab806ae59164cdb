package handlers

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/dropfy/dropfy-api/internal/http/mw"
	"github.com/dropfy/dropfy-api/internal/llm"
	"github.com/dropfy/dropfy-api/internal/models"
	"github.com/dropfy/dropfy-api/internal/service"
)

// ExtractionHandler handles extraction and screenshot endpoints.
type ExtractionHandler struct {
	extractionSvc *service.ExtractionService
	jobSvc        *service.JobService
}

// NewExtractionHandler creates a new extraction handler.
func NewExtractionHandler(extractionSvc *service.ExtractionService, jobSvc *service.JobService) *ExtractionHandler {
	return &ExtractionHandler{extractionSvc: extractionSvc, jobSvc: jobSvc}
}

// ExtractInput represents an extraction request.
type ExtractInput struct {
	Body struct {
		URL      string `json:"url" format:"uri" minLength:"1" doc:"Product page URL to extract"`
		Strategy string `json:"strategy,omitempty" doc:"Pin a single extraction strategy instead of the full chain"`
		Mode     string `json:"mode,omitempty" enum:"standard,pro_copy" default:"standard" doc:"Copywriting mode for the generated listing"`
		StoreID  string `json:"store_id,omitempty" doc:"Store to associate the draft with"`
	}
}

// ExtractOutput represents an extraction response.
type ExtractOutput struct {
	Body struct {
		Product *models.Product `json:"product" doc:"Persisted draft product"`
	}
}

// Extract runs the synchronous extraction pipeline.
func (h *ExtractionHandler) Extract(ctx context.Context, input *ExtractInput) (*ExtractOutput, error) {
	product, err := h.extractionSvc.Extract(ctx, mw.UserID(ctx), service.ExtractInput{
		URL:      input.Body.URL,
		Strategy: input.Body.Strategy,
		Mode:     llm.Mode(input.Body.Mode),
		StoreID:  input.Body.StoreID,
	})
	if err != nil {
		return nil, mapServiceError(err)
	}

	out := &ExtractOutput{}
	out.Body.Product = product
	return out, nil
}

// ExtractVision forces the screenshot+vision path, for pages that defeat
// text extraction.
func (h *ExtractionHandler) ExtractVision(ctx context.Context, input *ExtractInput) (*ExtractOutput, error) {
	product, err := h.extractionSvc.Extract(ctx, mw.UserID(ctx), service.ExtractInput{
		URL:     input.Body.URL,
		Mode:    llm.Mode(input.Body.Mode),
		StoreID: input.Body.StoreID,
		Vision:  true,
	})
	if err != nil {
		return nil, mapServiceError(err)
	}

	out := &ExtractOutput{}
	out.Body.Product = product
	return out, nil
}

// ImportInput represents an async import request.
type ImportInput struct {
	Body struct {
		URL      string `json:"url" format:"uri" minLength:"1" doc:"Product page URL to import"`
		Strategy string `json:"strategy,omitempty" doc:"Pin a single extraction strategy"`
		Mode     string `json:"mode,omitempty" enum:"standard,pro_copy" default:"standard" doc:"Copywriting mode"`
		StoreID  string `json:"store_id,omitempty" doc:"Store to associate the draft with"`
	}
}

// ImportOutput represents an async import response.
type ImportOutput struct {
	Body struct {
		Job *models.ImportJob `json:"job" doc:"Queued import job"`
	}
}

// Import enqueues an extraction job for the background worker.
func (h *ExtractionHandler) Import(ctx context.Context, input *ImportInput) (*ImportOutput, error) {
	job, err := h.jobSvc.Enqueue(ctx, mw.UserID(ctx), service.ExtractInput{
		URL:      input.Body.URL,
		Strategy: input.Body.Strategy,
		Mode:     llm.Mode(input.Body.Mode),
		StoreID:  input.Body.StoreID,
	})
	if err != nil {
		return nil, mapServiceError(err)
	}

	out := &ImportOutput{}
	out.Body.Job = job
	return out, nil
}

// StrategiesOutput lists the configured extraction strategies.
type StrategiesOutput struct {
	Body struct {
		Strategies []string `json:"strategies" doc:"Strategy names in chain order"`
	}
}

// Strategies returns the extraction chain in order.
func (h *ExtractionHandler) Strategies(ctx context.Context, _ *struct{}) (*StrategiesOutput, error) {
	out := &StrategiesOutput{}
	out.Body.Strategies = h.extractionSvc.Strategies()
	return out, nil
}

// ScreenshotInput represents a screenshot request.
type ScreenshotInput struct {
	Body struct {
		URL string `json:"url" format:"uri" minLength:"1" doc:"Page URL to capture"`
	}
}

// ScreenshotOutput represents a screenshot response.
type ScreenshotOutput struct {
	Body struct {
		ImageBase64 string `json:"image_base64" doc:"Full-page JPEG, base64-encoded"`
		StorageKey  string `json:"storage_key,omitempty" doc:"Object storage key when uploads are enabled"`
	}
}

// Screenshot captures a full-page screenshot of the given URL.
func (h *ExtractionHandler) Screenshot(ctx context.Context, input *ScreenshotInput) (*ScreenshotOutput, error) {
	image, key, err := h.extractionSvc.Screenshot(ctx, input.Body.URL)
	if err != nil {
		return nil, mapServiceError(err)
	}
	if image == "" {
		return nil, huma.Error502BadGateway("capture produced no image")
	}

	out := &ScreenshotOutput{}
	out.Body.ImageBase64 = image
	out.Body.StorageKey = key
	return out, nil
}
