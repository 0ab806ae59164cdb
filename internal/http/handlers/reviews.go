package handlers

import (
	"context"

	"github.com/dropfy/dropfy-api/internal/http/mw"
	"github.com/dropfy/dropfy-api/internal/models"
	"github.com/dropfy/dropfy-api/internal/service"
)

// ReviewHandler manages product reviews and the widget configuration.
type ReviewHandler struct {
	reviewSvc *service.ReviewService
}

// NewReviewHandler creates a new review handler.
func NewReviewHandler(reviewSvc *service.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewSvc: reviewSvc}
}

// ListReviewsInput identifies a product.
type ListReviewsInput struct {
	ProductID string `path:"id" doc:"Product ID"`
}

// ListReviewsOutput represents the review list response.
type ListReviewsOutput struct {
	Body struct {
		Reviews []*models.Review `json:"reviews"`
	}
}

// List returns all reviews on a product.
func (h *ReviewHandler) List(ctx context.Context, input *ListReviewsInput) (*ListReviewsOutput, error) {
	reviews, err := h.reviewSvc.List(ctx, mw.UserID(ctx), input.ProductID)
	if err != nil {
		return nil, mapServiceError(err)
	}

	out := &ListReviewsOutput{}
	out.Body.Reviews = reviews
	return out, nil
}

// AddReviewsInput represents imported or manually added reviews.
type AddReviewsInput struct {
	ProductID string `path:"id" doc:"Product ID"`
	Body      struct {
		Reviews []struct {
			Author   string `json:"author" minLength:"1" doc:"Reviewer display name"`
			Rating   int    `json:"rating" minimum:"1" maximum:"5" doc:"Star rating"`
			Content  string `json:"content" minLength:"1" doc:"Review text"`
			ImageURL string `json:"image_url,omitempty" format:"uri" doc:"Optional review photo"`
			Country  string `json:"country,omitempty" doc:"Reviewer country code"`
		} `json:"reviews" minItems:"1" maxItems:"100"`
	}
}

// Add creates reviews on a product.
func (h *ReviewHandler) Add(ctx context.Context, input *AddReviewsInput) (*ListReviewsOutput, error) {
	inputs := make([]service.ReviewInput, 0, len(input.Body.Reviews))
	for _, r := range input.Body.Reviews {
		inputs = append(inputs, service.ReviewInput{
			Author:   r.Author,
			Rating:   r.Rating,
			Content:  r.Content,
			ImageURL: r.ImageURL,
			Country:  r.Country,
		})
	}

	reviews, err := h.reviewSvc.Add(ctx, mw.UserID(ctx), input.ProductID, inputs)
	if err != nil {
		return nil, mapServiceError(err)
	}

	out := &ListReviewsOutput{}
	out.Body.Reviews = reviews
	return out, nil
}

// DeleteReviewInput identifies one review on a product.
type DeleteReviewInput struct {
	ProductID string `path:"id" doc:"Product ID"`
	ReviewID  string `path:"reviewID" doc:"Review ID"`
}

// Delete removes one review.
func (h *ReviewHandler) Delete(ctx context.Context, input *DeleteReviewInput) (*struct{}, error) {
	if err := h.reviewSvc.Delete(ctx, mw.UserID(ctx), input.ProductID, input.ReviewID); err != nil {
		return nil, mapServiceError(err)
	}
	return &struct{}{}, nil
}

// SelectReviewsInput marks reviews for the public widget.
type SelectReviewsInput struct {
	ProductID string `path:"id" doc:"Product ID"`
	Body      struct {
		ReviewIDs []string `json:"review_ids" minItems:"1" doc:"Reviews to toggle"`
		Selected  bool     `json:"selected" doc:"Select or deselect"`
	}
}

// Select toggles the selected flag on a batch of reviews.
func (h *ReviewHandler) Select(ctx context.Context, input *SelectReviewsInput) (*struct{}, error) {
	err := h.reviewSvc.Select(ctx, mw.UserID(ctx), input.ProductID, input.Body.ReviewIDs, input.Body.Selected)
	if err != nil {
		return nil, mapServiceError(err)
	}
	return &struct{}{}, nil
}

// GenerateReviewsInput represents an AI review generation request.
type GenerateReviewsInput struct {
	ProductID string `path:"id" doc:"Product ID"`
	Body      struct {
		Count    int    `json:"count,omitempty" minimum:"1" maximum:"20" default:"5" doc:"Number of reviews to generate"`
		Language string `json:"language,omitempty" doc:"Target language for the generated reviews"`
	}
}

// Generate creates AI-written reviews from the product context. They
// land unselected so the owner curates before publishing.
func (h *ReviewHandler) Generate(ctx context.Context, input *GenerateReviewsInput) (*ListReviewsOutput, error) {
	reviews, err := h.reviewSvc.Generate(ctx, mw.UserID(ctx), input.ProductID, input.Body.Count, input.Body.Language)
	if err != nil {
		return nil, mapServiceError(err)
	}

	out := &ListReviewsOutput{}
	out.Body.Reviews = reviews
	return out, nil
}

// EnhanceReviewInput represents a review polish request.
type EnhanceReviewInput struct {
	Body struct {
		Content string `json:"content" minLength:"1" doc:"Review text to polish"`
	}
}

// EnhanceReviewOutput returns the polished text.
type EnhanceReviewOutput struct {
	Body struct {
		Content string `json:"content" doc:"Polished review text"`
	}
}

// Enhance rewrites a review's text without persisting anything.
func (h *ReviewHandler) Enhance(ctx context.Context, input *EnhanceReviewInput) (*EnhanceReviewOutput, error) {
	content, err := h.reviewSvc.Enhance(ctx, input.Body.Content)
	if err != nil {
		return nil, mapServiceError(err)
	}

	out := &EnhanceReviewOutput{}
	out.Body.Content = content
	return out, nil
}

// PublishReviewsOutput represents the published snapshot.
type PublishReviewsOutput struct {
	Body struct {
		ProductID     string  `json:"product_id"`
		ReviewCount   int     `json:"review_count"`
		AverageRating float64 `json:"average_rating"`
	}
}

// Publish rebuilds the public widget snapshot from the selected reviews.
func (h *ReviewHandler) Publish(ctx context.Context, input *ListReviewsInput) (*PublishReviewsOutput, error) {
	snapshot, err := h.reviewSvc.Publish(ctx, mw.UserID(ctx), input.ProductID)
	if err != nil {
		return nil, mapServiceError(err)
	}

	out := &PublishReviewsOutput{}
	out.Body.ProductID = snapshot.ProductID
	out.Body.ReviewCount = snapshot.ReviewCount
	out.Body.AverageRating = snapshot.AverageRating
	return out, nil
}

// SetConfigInput represents widget display settings.
type SetConfigInput struct {
	ProductID string `path:"id" doc:"Product ID"`
	Body      struct {
		WidgetTitle        string `json:"widget_title,omitempty" maxLength:"120" doc:"Widget heading, defaults to 'Customer Reviews'"`
		ShowRatingsSummary bool   `json:"show_ratings_summary" doc:"Show the average rating header"`
	}
}

// SetConfigOutput returns the stored configuration.
type SetConfigOutput struct {
	Body struct {
		Config *models.ReviewConfig `json:"config"`
	}
}

// SetConfig upserts the per-product widget configuration.
func (h *ReviewHandler) SetConfig(ctx context.Context, input *SetConfigInput) (*SetConfigOutput, error) {
	cfg, err := h.reviewSvc.SetConfig(ctx, mw.UserID(ctx), input.ProductID, input.Body.WidgetTitle, input.Body.ShowRatingsSummary)
	if err != nil {
		return nil, mapServiceError(err)
	}

	out := &SetConfigOutput{}
	out.Body.Config = cfg
	return out, nil
}
