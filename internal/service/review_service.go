package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/dropfy/dropfy-api/internal/llm"
	"github.com/dropfy/dropfy-api/internal/models"
	"github.com/dropfy/dropfy-api/internal/repository"
)

// ErrNoSelectedReviews is returned when publish is called with nothing
// selected.
var ErrNoSelectedReviews = errors.New("no reviews selected for publishing")

const (
	maxGeneratedReviews = 20
	defaultWidgetTitle  = "Customer Reviews"
)

// ReviewService manages product reviews and the published widget
// snapshot.
type ReviewService struct {
	repos  *repository.Repositories
	llm    Completer
	logger *slog.Logger
}

// NewReviewService creates a new review service.
func NewReviewService(repos *repository.Repositories, completer Completer, logger *slog.Logger) *ReviewService {
	return &ReviewService{
		repos:  repos,
		llm:    completer,
		logger: logger.With("component", "reviews"),
	}
}

// ownedProduct loads the product and checks ownership; every review
// operation goes through the owning product.
func (s *ReviewService) ownedProduct(ctx context.Context, userID, productID string) (*models.Product, error) {
	product, err := s.repos.Products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.UserID != userID {
		return nil, ErrNotOwner
	}
	return product, nil
}

// List returns all reviews for a product.
func (s *ReviewService) List(ctx context.Context, userID, productID string) ([]*models.Review, error) {
	if _, err := s.ownedProduct(ctx, userID, productID); err != nil {
		return nil, err
	}
	return s.repos.Reviews.GetByProductID(ctx, productID)
}

// ReviewInput is a manually added or imported review.
type ReviewInput struct {
	Author   string
	Rating   int
	Content  string
	ImageURL string
	Country  string
}

// Add creates reviews on a product. Ratings are clamped to 1..5.
func (s *ReviewService) Add(ctx context.Context, userID, productID string, inputs []ReviewInput) ([]*models.Review, error) {
	if _, err := s.ownedProduct(ctx, userID, productID); err != nil {
		return nil, err
	}

	reviews := make([]*models.Review, 0, len(inputs))
	for _, in := range inputs {
		reviews = append(reviews, &models.Review{
			ID:        ulid.Make().String(),
			ProductID: productID,
			Author:    in.Author,
			Rating:    clampRating(in.Rating),
			Content:   in.Content,
			ImageURL:  in.ImageURL,
			Country:   in.Country,
			Source:    "imported",
			CreatedAt: time.Now(),
		})
	}
	if err := s.repos.Reviews.CreateBatch(ctx, reviews); err != nil {
		return nil, fmt.Errorf("saving reviews: %w", err)
	}
	return reviews, nil
}

// Delete removes one review from a product.
func (s *ReviewService) Delete(ctx context.Context, userID, productID, reviewID string) error {
	if _, err := s.ownedProduct(ctx, userID, productID); err != nil {
		return err
	}
	review, err := s.repos.Reviews.GetByID(ctx, reviewID)
	if err != nil {
		return err
	}
	if review.ProductID != productID {
		return repository.ErrNotFound
	}
	return s.repos.Reviews.Delete(ctx, reviewID)
}

// Select marks reviews as selected or deselected for publishing.
func (s *ReviewService) Select(ctx context.Context, userID, productID string, reviewIDs []string, selected bool) error {
	if _, err := s.ownedProduct(ctx, userID, productID); err != nil {
		return err
	}
	if len(reviewIDs) == 0 {
		return nil
	}
	return s.repos.Reviews.SetSelected(ctx, productID, reviewIDs, selected)
}

// Generate asks the LLM for count synthetic reviews based on the
// product copy and stores them unselected.
func (s *ReviewService) Generate(ctx context.Context, userID, productID string, count int, language string) ([]*models.Review, error) {
	product, err := s.ownedProduct(ctx, userID, productID)
	if err != nil {
		return nil, err
	}
	if count <= 0 {
		count = 5
	}
	if count > maxGeneratedReviews {
		count = maxGeneratedReviews
	}

	system, user := llm.GenerateReviewsPrompt(product.Title, product.DescriptionHTML, count, language)
	raw, err := s.llm.Complete(ctx, llm.CompletionRequest{System: system, User: user})
	if err != nil {
		return nil, fmt.Errorf("generating reviews: %w", err)
	}

	generated, err := llm.ParseReviews(raw)
	if err != nil {
		return nil, err
	}

	reviews := make([]*models.Review, 0, len(generated))
	for _, g := range generated {
		reviews = append(reviews, &models.Review{
			ID:        ulid.Make().String(),
			ProductID: productID,
			Author:    g.Author,
			Rating:    clampRating(int(g.Rating.Float())),
			Content:   g.Content,
			Country:   g.Country,
			Source:    "generated",
			CreatedAt: time.Now(),
		})
	}
	if err := s.repos.Reviews.CreateBatch(ctx, reviews); err != nil {
		return nil, fmt.Errorf("saving generated reviews: %w", err)
	}

	s.logger.Info("reviews generated", "product_id", productID, "count", len(reviews))
	return reviews, nil
}

// Enhance rewrites one review's text via the LLM and returns the
// polished version without persisting it.
func (s *ReviewService) Enhance(ctx context.Context, content string) (string, error) {
	system, user := llm.EnhanceReviewPrompt(content)
	raw, err := s.llm.Complete(ctx, llm.CompletionRequest{System: system, User: user})
	if err != nil {
		return "", fmt.Errorf("enhancing review: %w", err)
	}
	return llm.ParseField(raw, "content")
}

// Publish rebuilds the published_reviews snapshot from the currently
// selected reviews. The snapshot is what the public widget serves, so
// the rebuild replaces it wholesale.
func (s *ReviewService) Publish(ctx context.Context, userID, productID string) (*models.PublishedReviews, error) {
	if _, err := s.ownedProduct(ctx, userID, productID); err != nil {
		return nil, err
	}

	selected, err := s.repos.Reviews.GetSelectedByProductID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if len(selected) == 0 {
		return nil, ErrNoSelectedReviews
	}

	sum := 0
	for _, r := range selected {
		sum += r.Rating
	}

	reviewsJSON, err := json.Marshal(selected)
	if err != nil {
		return nil, fmt.Errorf("marshaling snapshot: %w", err)
	}

	snapshot := &models.PublishedReviews{
		ProductID:     productID,
		ReviewsJSON:   string(reviewsJSON),
		ReviewCount:   len(selected),
		AverageRating: float64(sum) / float64(len(selected)),
		PublishedAt:   time.Now(),
	}
	if err := s.repos.PublishedReviews.Upsert(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("saving snapshot: %w", err)
	}

	s.logger.Info("reviews published",
		"product_id", productID,
		"count", snapshot.ReviewCount,
		"average_rating", snapshot.AverageRating,
	)
	return snapshot, nil
}

// SetConfig upserts the widget display settings for a product.
func (s *ReviewService) SetConfig(ctx context.Context, userID, productID, widgetTitle string, showSummary bool) (*models.ReviewConfig, error) {
	if _, err := s.ownedProduct(ctx, userID, productID); err != nil {
		return nil, err
	}
	if widgetTitle == "" {
		widgetTitle = defaultWidgetTitle
	}

	now := time.Now()
	cfg := &models.ReviewConfig{
		ID:                 ulid.Make().String(),
		UserID:             userID,
		ProductID:          productID,
		WidgetTitle:        widgetTitle,
		ShowRatingsSummary: showSummary,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.repos.ReviewConfigs.Upsert(ctx, cfg); err != nil {
		return nil, fmt.Errorf("saving review config: %w", err)
	}
	return s.repos.ReviewConfigs.GetByUserAndProduct(ctx, userID, productID)
}

func clampRating(r int) int {
	if r < 1 {
		return 1
	}
	if r > 5 {
		return 5
	}
	return r
}
