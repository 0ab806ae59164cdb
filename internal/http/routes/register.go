package routes

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/dropfy/dropfy-api/internal/http/handlers"
	"github.com/dropfy/dropfy-api/internal/http/mw"
)

// bearerSecurity is the security requirement attached to protected
// operations; mw.HumaAuth enforces it.
var bearerSecurity = []map[string][]string{{mw.SecurityScheme: {}}}

type option func(op *huma.Operation)

func withTags(tags ...string) option {
	return func(op *huma.Operation) { op.Tags = tags }
}

func withSummary(summary string) option {
	return func(op *huma.Operation) { op.Summary = summary }
}

// operationID derives a camelCase ID from the method and path, e.g.
// "POST /api/v1/products/{id}/publish" -> "postProductsIdPublish".
func operationID(method, path string) string {
	parts := strings.FieldsFunc(path, func(r rune) bool {
		return r == '/' || r == '{' || r == '}' || r == '-' || r == '.'
	})
	id := strings.ToLower(method)
	for _, p := range parts {
		if p == "api" || p == "v1" {
			continue
		}
		id += strings.ToUpper(p[:1]) + p[1:]
	}
	return id
}

func newOperation(method, path string, protected bool, opts ...option) huma.Operation {
	op := huma.Operation{
		OperationID: operationID(method, path),
		Method:      method,
		Path:        path,
	}
	if protected {
		op.Security = bearerSecurity
	}
	if method == http.MethodDelete {
		op.DefaultStatus = http.StatusNoContent
	}
	for _, opt := range opts {
		opt(&op)
	}
	return op
}

// Register registers every API route on the given Huma API instance.
func Register(api huma.API, h *handlers.Handlers) {
	// Public.
	huma.Register(api, newOperation(http.MethodGet, "/api/v1/health", false,
		withTags("Health"), withSummary("Health check")), h.Health.Check)
	huma.Register(api, hidden(http.MethodGet, "/healthz"), h.Health.Livez)
	huma.Register(api, hidden(http.MethodGet, "/readyz"), h.Health.Readyz)

	// Account.
	huma.Register(api, newOperation(http.MethodGet, "/api/v1/me", true,
		withTags("Account"), withSummary("Get the current account profile")), h.User.Me)

	// Extraction.
	huma.Register(api, newOperation(http.MethodPost, "/api/v1/products/extract", true,
		withTags("Extraction"), withSummary("Extract a product from a URL")), h.Extraction.Extract)
	huma.Register(api, newOperation(http.MethodPost, "/api/v1/products/extract-vision", true,
		withTags("Extraction"), withSummary("Extract via screenshot and vision model")), h.Extraction.ExtractVision)
	huma.Register(api, newOperation(http.MethodPost, "/api/v1/products/import", true,
		withTags("Extraction"), withSummary("Queue an async import")), h.Extraction.Import)
	huma.Register(api, newOperation(http.MethodGet, "/api/v1/extract/strategies", true,
		withTags("Extraction"), withSummary("List extraction strategies")), h.Extraction.Strategies)
	huma.Register(api, newOperation(http.MethodPost, "/api/v1/screenshot", true,
		withTags("Extraction"), withSummary("Capture a full-page screenshot")), h.Extraction.Screenshot)

	// Jobs.
	huma.Register(api, newOperation(http.MethodGet, "/api/v1/jobs", true,
		withTags("Jobs"), withSummary("List import jobs")), h.Job.List)
	huma.Register(api, newOperation(http.MethodGet, "/api/v1/jobs/{id}", true,
		withTags("Jobs"), withSummary("Get import job status")), h.Job.Get)

	// Products.
	huma.Register(api, newOperation(http.MethodGet, "/api/v1/products", true,
		withTags("Products"), withSummary("List products")), h.Product.List)
	huma.Register(api, newOperation(http.MethodGet, "/api/v1/products/{id}", true,
		withTags("Products"), withSummary("Get a product")), h.Product.Get)
	huma.Register(api, newOperation(http.MethodPatch, "/api/v1/products/{id}", true,
		withTags("Products"), withSummary("Update a product")), h.Product.Update)
	huma.Register(api, newOperation(http.MethodDelete, "/api/v1/products/{id}", true,
		withTags("Products"), withSummary("Delete a product")), h.Product.Delete)
	huma.Register(api, newOperation(http.MethodPost, "/api/v1/products/{id}/translate", true,
		withTags("Products"), withSummary("Translate title and description")), h.Product.Translate)
	huma.Register(api, newOperation(http.MethodPost, "/api/v1/products/{id}/improve-description", true,
		withTags("Products"), withSummary("Rewrite the description with pro copy")), h.Product.ImproveDescription)
	huma.Register(api, newOperation(http.MethodPost, "/api/v1/products/{id}/publish", true,
		withTags("Products"), withSummary("Publish to Shopify")), h.Product.Publish)

	// Stores.
	huma.Register(api, newOperation(http.MethodGet, "/api/v1/stores", true,
		withTags("Stores"), withSummary("List connected stores")), h.Store.List)
	huma.Register(api, newOperation(http.MethodPost, "/api/v1/stores", true,
		withTags("Stores"), withSummary("Connect a Shopify store")), h.Store.Connect)
	huma.Register(api, newOperation(http.MethodGet, "/api/v1/stores/{id}", true,
		withTags("Stores"), withSummary("Get a connected store")), h.Store.Get)
	huma.Register(api, newOperation(http.MethodDelete, "/api/v1/stores/{id}", true,
		withTags("Stores"), withSummary("Disconnect a store")), h.Store.Disconnect)

	// Reviews.
	huma.Register(api, newOperation(http.MethodGet, "/api/v1/products/{id}/reviews", true,
		withTags("Reviews"), withSummary("List reviews")), h.Review.List)
	huma.Register(api, newOperation(http.MethodPost, "/api/v1/products/{id}/reviews", true,
		withTags("Reviews"), withSummary("Add reviews")), h.Review.Add)
	huma.Register(api, newOperation(http.MethodDelete, "/api/v1/products/{id}/reviews/{reviewID}", true,
		withTags("Reviews"), withSummary("Delete a review")), h.Review.Delete)
	huma.Register(api, newOperation(http.MethodPatch, "/api/v1/products/{id}/reviews/select", true,
		withTags("Reviews"), withSummary("Select reviews for the widget")), h.Review.Select)
	huma.Register(api, newOperation(http.MethodPost, "/api/v1/products/{id}/reviews/generate", true,
		withTags("Reviews"), withSummary("Generate AI reviews")), h.Review.Generate)
	huma.Register(api, newOperation(http.MethodPost, "/api/v1/products/{id}/reviews/publish", true,
		withTags("Reviews"), withSummary("Publish selected reviews to the widget")), h.Review.Publish)
	huma.Register(api, newOperation(http.MethodPut, "/api/v1/products/{id}/reviews/config", true,
		withTags("Reviews"), withSummary("Set widget configuration")), h.Review.SetConfig)
	huma.Register(api, newOperation(http.MethodPost, "/api/v1/reviews/enhance", true,
		withTags("Reviews"), withSummary("Polish review text")), h.Review.Enhance)

	// Billing.
	huma.Register(api, newOperation(http.MethodPost, "/api/v1/billing/checkout", true,
		withTags("Billing"), withSummary("Start a subscription checkout")), h.Billing.Checkout)
	huma.Register(api, newOperation(http.MethodPost, "/api/v1/billing/portal", true,
		withTags("Billing"), withSummary("Open the billing portal")), h.Billing.Portal)
	huma.Register(api, newOperation(http.MethodGet, "/api/v1/billing/subscription", true,
		withTags("Billing"), withSummary("Get subscription and limits")), h.Billing.Subscription)
}

// hidden builds an operation excluded from the OpenAPI document, for
// Kubernetes probes.
func hidden(method, path string) huma.Operation {
	return huma.Operation{
		OperationID: fmt.Sprintf("%s%s", strings.ToLower(method), strings.ReplaceAll(path, "/", "-")),
		Method:      method,
		Path:        path,
		Hidden:      true,
	}
}
