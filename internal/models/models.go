// Package models defines the domain models for the application.
// All IDs are ULIDs generated at insert time; timestamps are stored as
// RFC3339 text in the database and surfaced as time.Time here.
package models

import (
	"time"
)

// Plan identifies a subscription plan.
type Plan string

const (
	PlanStarter Plan = "starter"
	PlanGrowth  Plan = "growth"
	PlanScale   Plan = "scale"
)

// PlanLimits describes what a plan allows.
type PlanLimits struct {
	MaxProducts int `json:"max_products"` // 0 means unlimited
	MaxStores   int `json:"max_stores"`
}

// LimitsForPlan returns the quota limits for a plan. Unknown plans get
// starter limits.
func LimitsForPlan(p Plan) PlanLimits {
	switch p {
	case PlanGrowth:
		return PlanLimits{MaxProducts: 250, MaxStores: 3}
	case PlanScale:
		return PlanLimits{MaxProducts: 0, MaxStores: 10}
	default:
		return PlanLimits{MaxProducts: 25, MaxStores: 1}
	}
}

// Role controls access to admin-only surfaces.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// BillingStatus mirrors the user's Stripe subscription state. New
// accounts start inactive and run on starter limits.
type BillingStatus string

const (
	BillingStatusInactive BillingStatus = "inactive"
	BillingStatusActive   BillingStatus = "active"
	BillingStatusPastDue  BillingStatus = "past_due"
)

// User represents an account holder.
type User struct {
	ID            string        `json:"id"`
	Email         string        `json:"email"`
	Name          string        `json:"name,omitempty"`
	Role          Role          `json:"role"`
	BillingStatus BillingStatus `json:"billing_status"`
	CreatedAt     time.Time     `json:"created_at"`
}

// Store represents a connected Shopify store.
type Store struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	ShopDomain  string    `json:"shop_domain"` // e.g. "example.myshopify.com"
	AccessToken string    `json:"-"`           // decrypted in memory only
	Plan        Plan      `json:"plan"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProductStatus represents the lifecycle state of an imported product.
type ProductStatus string

const (
	ProductStatusDraft     ProductStatus = "draft"
	ProductStatusPublished ProductStatus = "published"
	ProductStatusFailed    ProductStatus = "failed"
)

// Product represents a product imported from a source listing.
type Product struct {
	ID                    string        `json:"id"`
	StoreID               string        `json:"store_id,omitempty"`
	UserID                string        `json:"user_id"`
	SourceURL             string        `json:"source_url"`
	Title                 string        `json:"title"`
	DescriptionHTML       string        `json:"description_html,omitempty"`
	Price                 string        `json:"price,omitempty"` // normalized decimal string, "." separator
	OriginalPrice         string        `json:"original_price,omitempty"`
	DiscountPercentage    int           `json:"discount_percentage,omitempty"`
	Currency              string        `json:"currency,omitempty"`
	VariantsJSON          string        `json:"variants_json,omitempty"`
	MainImagesJSON        string        `json:"main_images_json,omitempty"`
	DescriptionImagesJSON string        `json:"description_images_json,omitempty"`
	Status                ProductStatus `json:"status"`
	ShopifyProductID      string        `json:"shopify_product_id,omitempty"`
	CreatedAt             time.Time     `json:"created_at"`
	UpdatedAt             time.Time     `json:"updated_at"`
}

// Review represents a single product review, imported or generated.
type Review struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	Author    string    `json:"author"`
	Rating    int       `json:"rating"` // 1..5
	Content   string    `json:"content"`
	ImageURL  string    `json:"image_url,omitempty"`
	Country   string    `json:"country,omitempty"`
	Source    string    `json:"source,omitempty"` // "imported", "generated"
	Selected  bool      `json:"selected"`
	CreatedAt time.Time `json:"created_at"`
}

// PublishedReviews is the denormalized snapshot served to the public
// widget. Rebuilt in full each time reviews are published.
type PublishedReviews struct {
	ProductID     string    `json:"product_id"`
	ReviewsJSON   string    `json:"reviews_json"`
	ReviewCount   int       `json:"review_count"`
	AverageRating float64   `json:"average_rating"`
	PublishedAt   time.Time `json:"published_at"`
}

// ReviewConfig holds per-product widget display settings. One row per
// (user, product) pair.
type ReviewConfig struct {
	ID                 string    `json:"id"`
	UserID             string    `json:"user_id"`
	ProductID          string    `json:"product_id"`
	WidgetTitle        string    `json:"widget_title"`
	ShowRatingsSummary bool      `json:"show_ratings_summary"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// SubscriptionStatus mirrors the Stripe subscription status values we
// care about.
type SubscriptionStatus string

const (
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusTrialing SubscriptionStatus = "trialing"
	SubscriptionStatusPastDue  SubscriptionStatus = "past_due"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"
)

// Subscription represents a user's Stripe subscription.
type Subscription struct {
	ID                   string             `json:"id"`
	UserID               string             `json:"user_id"`
	StripeCustomerID     string             `json:"stripe_customer_id"`
	StripeSubscriptionID string             `json:"stripe_subscription_id,omitempty"`
	Plan                 Plan               `json:"plan"`
	Status               SubscriptionStatus `json:"status"`
	CurrentPeriodStart   *time.Time         `json:"current_period_start,omitempty"`
	CurrentPeriodEnd     *time.Time         `json:"current_period_end,omitempty"`
	CancelAtPeriodEnd    bool               `json:"cancel_at_period_end"`
	CreatedAt            time.Time          `json:"created_at"`
	UpdatedAt            time.Time          `json:"updated_at"`
}

// IsActive reports whether the subscription grants access.
func (s *Subscription) IsActive() bool {
	return s.Status == SubscriptionStatusActive || s.Status == SubscriptionStatusTrialing
}

// JobStatus represents the status of an import job.
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// ImportJob represents an async product import queued for the worker.
type ImportJob struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	StoreID     string     `json:"store_id,omitempty"`
	URL         string     `json:"url"`
	Strategy    string     `json:"strategy,omitempty"` // empty means full fallback chain
	Mode        string     `json:"mode,omitempty"`     // "" or "pro_copy"
	Status      JobStatus  `json:"status"`
	Error       string     `json:"error,omitempty"`
	ProductID   string     `json:"product_id,omitempty"`
	Attempts    int        `json:"attempts"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// IsTerminal reports whether the job has finished (successfully or not).
func (j *ImportJob) IsTerminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}
