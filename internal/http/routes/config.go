// Package routes wires the API's route table. Keeping registration in
// one place means the OpenAPI document always matches what the server
// actually serves.
package routes

import (
	"github.com/danielgtaylor/huma/v2"

	"github.com/dropfy/dropfy-api/internal/http/mw"
	"github.com/dropfy/dropfy-api/internal/version"
)

// NewHumaConfig creates the shared Huma configuration for the API.
func NewHumaConfig(baseURL string) huma.Config {
	cfg := huma.DefaultConfig("Dropfy API", version.Get().Short())
	cfg.Info.Description = "Product extraction platform: import listings from any e-commerce URL, enrich them with AI copy, and publish to Shopify."

	if baseURL != "" {
		cfg.Servers = []*huma.Server{
			{URL: baseURL, Description: "API Server"},
		}
	}

	cfg.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		mw.SecurityScheme: {
			Type:        "http",
			Scheme:      "bearer",
			Description: "Platform-issued JWT. Include it in the Authorization header as `Bearer <token>`.",
		},
	}

	cfg.Tags = []*huma.Tag{
		{Name: "Extraction", Description: "Product extraction and screenshot endpoints"},
		{Name: "Products", Description: "Product CRUD, AI enrichment and Shopify publishing"},
		{Name: "Jobs", Description: "Async import job status"},
		{Name: "Stores", Description: "Connected Shopify stores"},
		{Name: "Reviews", Description: "Review management and widget configuration"},
		{Name: "Billing", Description: "Stripe subscriptions"},
		{Name: "Health", Description: "Service health"},
	}
	return cfg
}
