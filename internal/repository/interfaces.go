// Package repository provides data access interfaces and SQLite implementations.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dropfy/dropfy-api/internal/models"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// UserRepository manages user accounts.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	EnsureExists(ctx context.Context, id, email string) error
	UpdateBillingStatus(ctx context.Context, id string, status models.BillingStatus) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// StoreRepository manages connected Shopify stores.
type StoreRepository interface {
	Create(ctx context.Context, store *models.Store) error
	GetByID(ctx context.Context, id string) (*models.Store, error)
	GetByDomain(ctx context.Context, shopDomain string) (*models.Store, error)
	GetByUserID(ctx context.Context, userID string) ([]*models.Store, error)
	CountByUserID(ctx context.Context, userID string) (int, error)
	Update(ctx context.Context, store *models.Store) error
	Delete(ctx context.Context, id string) error
}

// ProductRepository manages imported products.
type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	GetByID(ctx context.Context, id string) (*models.Product, error)
	GetByUserID(ctx context.Context, userID string, limit, offset int) ([]*models.Product, error)
	CountByUserID(ctx context.Context, userID string) (int, error)
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id string) error
}

// ReviewRepository manages product reviews.
type ReviewRepository interface {
	Create(ctx context.Context, review *models.Review) error
	CreateBatch(ctx context.Context, reviews []*models.Review) error
	GetByID(ctx context.Context, id string) (*models.Review, error)
	GetByProductID(ctx context.Context, productID string) ([]*models.Review, error)
	GetSelectedByProductID(ctx context.Context, productID string) ([]*models.Review, error)
	SetSelected(ctx context.Context, productID string, reviewIDs []string, selected bool) error
	Delete(ctx context.Context, id string) error
	DeleteByProductID(ctx context.Context, productID string) error
}

// PublishedReviewsRepository manages the per-product widget snapshot.
type PublishedReviewsRepository interface {
	Upsert(ctx context.Context, snapshot *models.PublishedReviews) error
	GetByProductID(ctx context.Context, productID string) (*models.PublishedReviews, error)
	Delete(ctx context.Context, productID string) error
}

// ReviewConfigRepository manages per-product widget settings.
type ReviewConfigRepository interface {
	Upsert(ctx context.Context, cfg *models.ReviewConfig) error
	GetByUserAndProduct(ctx context.Context, userID, productID string) (*models.ReviewConfig, error)
	GetByProductID(ctx context.Context, productID string) (*models.ReviewConfig, error)
}

// SubscriptionRepository manages Stripe subscriptions.
type SubscriptionRepository interface {
	Upsert(ctx context.Context, sub *models.Subscription) error
	GetByUserID(ctx context.Context, userID string) (*models.Subscription, error)
	GetByStripeCustomerID(ctx context.Context, customerID string) (*models.Subscription, error)
}

// JobRepository manages the import job queue.
type JobRepository interface {
	Create(ctx context.Context, job *models.ImportJob) error
	GetByID(ctx context.Context, id string) (*models.ImportJob, error)
	GetByUserID(ctx context.Context, userID string, limit, offset int) ([]*models.ImportJob, error)
	Update(ctx context.Context, job *models.ImportJob) error
	ClaimQueued(ctx context.Context) (*models.ImportJob, error)
	MarkStaleRunningJobsFailed(ctx context.Context, maxAge time.Duration) (int64, error)
}

// Repositories aggregates all repositories for dependency injection.
type Repositories struct {
	Users            UserRepository
	Stores           StoreRepository
	Products         ProductRepository
	Reviews          ReviewRepository
	PublishedReviews PublishedReviewsRepository
	ReviewConfigs    ReviewConfigRepository
	Subscriptions    SubscriptionRepository
	Jobs             JobRepository
}

// NewRepositories creates all repositories backed by the given database.
func NewRepositories(db *sql.DB) *Repositories {
	return &Repositories{
		Users:            NewSQLiteUserRepository(db),
		Stores:           NewSQLiteStoreRepository(db),
		Products:         NewSQLiteProductRepository(db),
		Reviews:          NewSQLiteReviewRepository(db),
		PublishedReviews: NewSQLitePublishedReviewsRepository(db),
		ReviewConfigs:    NewSQLiteReviewConfigRepository(db),
		Subscriptions:    NewSQLiteSubscriptionRepository(db),
		Jobs:             NewSQLiteJobRepository(db),
	}
}
