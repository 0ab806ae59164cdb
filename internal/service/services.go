// Package service contains the business logic layer.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dropfy/dropfy-api/internal/config"
	"github.com/dropfy/dropfy-api/internal/crypto"
	"github.com/dropfy/dropfy-api/internal/extract"
	"github.com/dropfy/dropfy-api/internal/llm"
	"github.com/dropfy/dropfy-api/internal/repository"
)

// Completer is the LLM surface the services depend on.
type Completer interface {
	Complete(ctx context.Context, req llm.CompletionRequest) (string, error)
}

// Screenshotter captures a page as base64 JPEG.
type Screenshotter interface {
	Capture(ctx context.Context, pageURL string) (string, error)
}

// Services holds all service instances.
type Services struct {
	User       *UserService
	Extraction *ExtractionService
	Job        *JobService
	Product    *ProductService
	Store      *StoreService
	Review     *ReviewService
	Billing    *BillingService
	Widget     *WidgetService
	Storage    *StorageService
}

// NewServices creates all service instances. screenshots may be nil
// when the browser pool is disabled; vision extraction and the
// screenshot endpoint then report unavailable.
func NewServices(cfg *config.Config, repos *repository.Repositories, screenshots Screenshotter, logger *slog.Logger) (*Services, error) {
	encryptor, err := crypto.NewEncryptor(cfg.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create encryptor: %w", err)
	}

	storageSvc, err := NewStorageService(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage service: %w", err)
	}

	llmClient := llm.NewClient(cfg, logger)
	chain := buildChain(cfg, logger)

	userSvc := NewUserService(repos, logger)
	extractionSvc := NewExtractionService(cfg, repos, chain, llmClient, screenshots, storageSvc, logger)
	jobSvc := NewJobService(repos, logger)
	productSvc := NewProductService(repos, llmClient, encryptor, logger)
	storeSvc := NewStoreService(repos, encryptor, logger)
	reviewSvc := NewReviewService(repos, llmClient, logger)
	billingSvc := NewBillingService(cfg, repos, logger)
	widgetSvc := NewWidgetService(repos, cfg.BaseURL, logger)

	return &Services{
		User:       userSvc,
		Extraction: extractionSvc,
		Job:        jobSvc,
		Product:    productSvc,
		Store:      storeSvc,
		Review:     reviewSvc,
		Billing:    billingSvc,
		Widget:     widgetSvc,
		Storage:    storageSvc,
	}, nil
}

// buildChain assembles the extraction fallback chain in its fixed
// order: Linkfy when configured, then direct fetch, then the legacy
// scraper.
func buildChain(cfg *config.Config, logger *slog.Logger) *extract.Chain {
	var strategies []extract.Fetcher
	if cfg.LinkfyEnabled() {
		strategies = append(strategies, extract.NewLinkfyFetcher(cfg.LinkfyAPIURL, cfg.LinkfyAPIKey, cfg.LinkfyTimeout))
	} else {
		logger.Warn("linkfy not configured, primary extraction strategy disabled")
	}
	strategies = append(strategies,
		extract.NewDirectFetcher(cfg.ExtractUserAgent, cfg.ExtractTimeout),
		extract.NewLegacyFetcher(cfg.ExtractUserAgent, cfg.ExtractTimeout),
	)
	return extract.NewChain(logger, strategies...)
}
