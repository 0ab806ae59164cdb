// Package handlers contains HTTP handlers for the API.
package handlers

import (
	"database/sql"
	"log/slog"

	"github.com/dropfy/dropfy-api/internal/config"
	"github.com/dropfy/dropfy-api/internal/service"
)

// Handlers bundles every handler the router registers.
type Handlers struct {
	Health     *HealthHandler
	User       *UserHandler
	Extraction *ExtractionHandler
	Product    *ProductHandler
	Job        *JobHandler
	Store      *StoreHandler
	Review     *ReviewHandler
	Billing    *BillingHandler
	Widget     *WidgetHandler
	Stripe     *StripeWebhookHandler
}

// New wires all handlers to their services.
func New(cfg *config.Config, services *service.Services, db *sql.DB, logger *slog.Logger) *Handlers {
	return &Handlers{
		Health:     NewHealthHandler(db),
		User:       NewUserHandler(services.User),
		Extraction: NewExtractionHandler(services.Extraction, services.Job),
		Product:    NewProductHandler(services.Product),
		Job:        NewJobHandler(services.Job),
		Store:      NewStoreHandler(services.Store),
		Review:     NewReviewHandler(services.Review),
		Billing:    NewBillingHandler(services.Billing),
		Widget:     NewWidgetHandler(services.Widget, logger),
		Stripe:     NewStripeWebhookHandler(cfg, services.Billing, logger),
	}
}
