package handlers

import (
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/dropfy/dropfy-api/internal/extract"
	"github.com/dropfy/dropfy-api/internal/repository"
	"github.com/dropfy/dropfy-api/internal/service"
	"github.com/dropfy/dropfy-api/internal/shopify"
)

// mapServiceError converts service-layer errors to Huma status errors.
// Ownership failures map to 404 so resource IDs don't leak across users.
func mapServiceError(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, service.ErrNotOwner):
		return huma.Error404NotFound("resource not found")
	case errors.Is(err, service.ErrQuotaExceeded):
		return huma.Error403Forbidden("plan quota exceeded, upgrade to continue")
	case errors.Is(err, service.ErrNoSelectedReviews):
		return huma.Error400BadRequest("no reviews selected for publishing")
	case errors.Is(err, shopify.ErrInvalidToken):
		return huma.Error400BadRequest("Shopify rejected the access token")
	case errors.Is(err, shopify.ErrRateLimited):
		return huma.Error502BadGateway("Shopify rate limit exhausted, try again later")
	case errors.Is(err, extract.ErrAllStrategiesFailed):
		return huma.Error502BadGateway("could not extract the page with any strategy")
	case errors.Is(err, service.ErrScreenshotsDisabled):
		return huma.Error503ServiceUnavailable("screenshot capture is not enabled")
	case errors.Is(err, service.ErrBillingDisabled):
		return huma.Error503ServiceUnavailable("billing is not configured")
	case errors.Is(err, service.ErrNoSubscription):
		return huma.Error404NotFound("no subscription on file")
	default:
		return huma.Error500InternalServerError("internal error", err)
	}
}
