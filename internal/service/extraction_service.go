package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/dropfy/dropfy-api/internal/config"
	"github.com/dropfy/dropfy-api/internal/extract"
	"github.com/dropfy/dropfy-api/internal/llm"
	"github.com/dropfy/dropfy-api/internal/models"
	"github.com/dropfy/dropfy-api/internal/preprocessor"
	"github.com/dropfy/dropfy-api/internal/repository"
)

// ErrScreenshotsDisabled is returned when a vision or screenshot
// request arrives but no browser pool is configured.
var ErrScreenshotsDisabled = errors.New("screenshot capture is not enabled")

// ExtractInput describes one extraction request.
type ExtractInput struct {
	URL      string
	Strategy string // "", or one of the chain's strategy names to pin
	Mode     llm.Mode
	StoreID  string
	Vision   bool // force the screenshot+vision path
}

// ExtractionService orchestrates the fetch → LLM → reconcile pipeline
// and persists the resulting draft product.
type ExtractionService struct {
	chain       *extract.Chain
	reconciler  *extract.Reconciler
	llm         Completer
	screenshots Screenshotter
	storage     *StorageService
	repos       *repository.Repositories
	timeout     time.Duration
	logger      *slog.Logger
}

// NewExtractionService creates the orchestrator.
func NewExtractionService(
	cfg *config.Config,
	repos *repository.Repositories,
	chain *extract.Chain,
	completer Completer,
	screenshots Screenshotter,
	storage *StorageService,
	logger *slog.Logger,
) *ExtractionService {
	return &ExtractionService{
		chain:       chain,
		reconciler:  extract.NewReconciler(nil, logger),
		llm:         completer,
		screenshots: screenshots,
		storage:     storage,
		repos:       repos,
		timeout:     cfg.ExtractTimeout,
		logger:      logger.With("component", "extraction"),
	}
}

// Extract runs the full pipeline and saves the product as a draft.
func (s *ExtractionService) Extract(ctx context.Context, userID string, input ExtractInput) (*models.Product, error) {
	if err := checkProductQuota(ctx, s.repos, userID); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var (
		data *llm.ProductData
		page *extract.PageContent
		err  error
	)
	if input.Vision {
		data, err = s.extractVision(ctx, input)
	} else {
		data, page, err = s.extractText(ctx, input)
	}
	if err != nil {
		return nil, err
	}

	product := s.buildProduct(userID, input, data, page)
	if err := s.repos.Products.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("saving product: %w", err)
	}

	s.logger.Info("product extracted",
		"product_id", product.ID,
		"user_id", userID,
		"url", input.URL,
		"vision", input.Vision,
	)
	return product, nil
}

func (s *ExtractionService) extractText(ctx context.Context, input ExtractInput) (*llm.ProductData, *extract.PageContent, error) {
	chain := s.chain
	if input.Strategy != "" {
		var err error
		chain, err = s.chain.Subchain(input.Strategy)
		if err != nil {
			return nil, nil, err
		}
	}

	page, strategy, err := chain.Fetch(ctx, input.URL)
	if err != nil {
		return nil, nil, err
	}
	s.logger.Debug("page fetched", "url", input.URL, "strategy", strategy, "images", len(page.Images))

	system, user := llm.ExtractionPrompt(page.Markdown, input.URL, input.Mode)
	if hints := preprocessor.Analyze(page.Markdown); !hints.Empty() {
		user += "\n\n" + hints.Render()
	}
	raw, err := s.llm.Complete(ctx, llm.CompletionRequest{System: system, User: user, Mode: input.Mode})
	if err != nil {
		return nil, nil, fmt.Errorf("llm extraction: %w", err)
	}

	data, err := llm.ParseProduct(raw)
	if err != nil {
		return nil, nil, err
	}
	return data, page, nil
}

func (s *ExtractionService) extractVision(ctx context.Context, input ExtractInput) (*llm.ProductData, error) {
	if s.screenshots == nil {
		return nil, ErrScreenshotsDisabled
	}

	shot, err := s.screenshots.Capture(ctx, input.URL)
	if err != nil {
		return nil, fmt.Errorf("capturing screenshot: %w", err)
	}

	system, user := llm.VisionPrompt(input.URL, input.Mode)
	raw, err := s.llm.Complete(ctx, llm.CompletionRequest{
		System:      system,
		User:        user,
		ImageBase64: shot,
		Mode:        input.Mode,
	})
	if err != nil {
		return nil, fmt.Errorf("llm vision extraction: %w", err)
	}
	return llm.ParseProduct(raw)
}

// buildProduct merges model output with extractor evidence into a
// draft product. Whichever image list is longer wins, with ties going
// to the model: the model hallucinates or omits URLs far more often
// than the scraper misses them, so a thin mainImages answer never
// shadows a richer scrape.
func (s *ExtractionService) buildProduct(userID string, input ExtractInput, data *llm.ProductData, page *extract.PageContent) *models.Product {
	var (
		rawMarkdown string
		pageImages  []string
	)
	if page != nil {
		rawMarkdown = page.Markdown
		pageImages = page.Images
	}

	mainImages := filterPlaceholders(data.MainImages)
	if scraped := filterPlaceholders(pageImages); len(scraped) > len(mainImages) {
		mainImages = scraped
		if len(mainImages) > 5 {
			mainImages = mainImages[:5]
		}
	}

	descriptionHTML := s.reconciler.Reconcile(data.Description, rawMarkdown, input.URL, filterPlaceholders(data.DescriptionImages))

	price := priceString(data.Price)
	originalPrice := priceString(data.OriginalPrice)
	discount := int(data.DiscountPercentage.Float())
	if discount == 0 {
		discount = extract.DiscountPercentage(price, originalPrice)
	}

	now := time.Now()
	return &models.Product{
		ID:                    ulid.Make().String(),
		StoreID:               input.StoreID,
		UserID:                userID,
		SourceURL:             input.URL,
		Title:                 data.Title,
		DescriptionHTML:       descriptionHTML,
		Price:                 price,
		OriginalPrice:         originalPrice,
		DiscountPercentage:    discount,
		Currency:              data.Currency,
		VariantsJSON:          marshalJSON(data.Variants),
		MainImagesJSON:        marshalJSON(mainImages),
		DescriptionImagesJSON: marshalJSON(filterPlaceholders(data.DescriptionImages)),
		Status:                models.ProductStatusDraft,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
}

// Screenshot captures the page and, when storage is configured,
// uploads the JPEG. Returns the base64 image and the storage key ("" if
// not stored). Upload failure is non-fatal.
func (s *ExtractionService) Screenshot(ctx context.Context, pageURL string) (string, string, error) {
	if s.screenshots == nil {
		return "", "", ErrScreenshotsDisabled
	}

	shot, err := s.screenshots.Capture(ctx, pageURL)
	if err != nil {
		return "", "", err
	}

	key := ""
	if s.storage != nil && s.storage.IsEnabled() {
		key, err = s.storage.StoreScreenshot(ctx, pageURL, shot)
		if err != nil {
			s.logger.Warn("screenshot upload failed", "url", pageURL, "error", err)
			key = ""
		}
	}
	return shot, key, nil
}

// Strategies lists the configured extraction strategies in order.
func (s *ExtractionService) Strategies() []string {
	return s.chain.Strategies()
}

func priceString(f models.FlexFloat) string {
	if f.Float() <= 0 {
		return ""
	}
	return f.String()
}

func filterPlaceholders(urls []string) []string {
	var out []string
	for _, u := range urls {
		if u == "" || extract.IsPlaceholderURL(u) {
			continue
		}
		out = append(out, u)
	}
	return out
}

func marshalJSON(v any) string {
	if v == nil {
		return ""
	}
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	s := string(data)
	if s == "null" || s == "{}" || s == "[]" {
		return ""
	}
	return s
}
