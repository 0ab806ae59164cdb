package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/dropfy/dropfy-api/internal/crypto"
	"github.com/dropfy/dropfy-api/internal/models"
	"github.com/dropfy/dropfy-api/internal/repository"
	"github.com/dropfy/dropfy-api/internal/shopify"
)

// tokenVerifier checks store credentials against the Admin API.
type tokenVerifier interface {
	VerifyToken(ctx context.Context) (*shopify.Shop, error)
}

// StoreService manages connected Shopify stores. Access tokens are
// verified against the Admin API before save and encrypted at rest.
type StoreService struct {
	repos     *repository.Repositories
	encryptor *crypto.Encryptor
	logger    *slog.Logger

	newVerifier func(domain, token string) tokenVerifier
}

// NewStoreService creates a new store service.
func NewStoreService(repos *repository.Repositories, encryptor *crypto.Encryptor, logger *slog.Logger) *StoreService {
	s := &StoreService{
		repos:     repos,
		encryptor: encryptor,
		logger:    logger.With("component", "stores"),
	}
	s.newVerifier = func(domain, token string) tokenVerifier {
		return shopify.NewClient(domain, token, logger)
	}
	return s
}

// Connect verifies the token, encrypts it and saves the store.
func (s *StoreService) Connect(ctx context.Context, userID, shopDomain, accessToken string) (*models.Store, error) {
	if err := checkStoreQuota(ctx, s.repos, userID); err != nil {
		return nil, err
	}

	shop, err := s.newVerifier(shopDomain, accessToken).VerifyToken(ctx)
	if err != nil {
		return nil, err
	}

	encrypted, err := s.encryptor.Encrypt(accessToken)
	if err != nil {
		return nil, fmt.Errorf("encrypting access token: %w", err)
	}

	now := time.Now()
	store := &models.Store{
		ID:          ulid.Make().String(),
		UserID:      userID,
		ShopDomain:  shopDomain,
		AccessToken: encrypted,
		Plan:        planForUser(ctx, s.repos, userID),
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repos.Stores.Create(ctx, store); err != nil {
		return nil, fmt.Errorf("saving store: %w", err)
	}

	s.logger.Info("store connected",
		"store_id", store.ID,
		"user_id", userID,
		"shop", shop.Name,
		"domain", shopDomain,
	)
	return store, nil
}

// List returns the user's stores.
func (s *StoreService) List(ctx context.Context, userID string) ([]*models.Store, error) {
	return s.repos.Stores.GetByUserID(ctx, userID)
}

// Get returns one store, enforcing ownership.
func (s *StoreService) Get(ctx context.Context, userID, storeID string) (*models.Store, error) {
	store, err := s.repos.Stores.GetByID(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if store.UserID != userID {
		return nil, ErrNotOwner
	}
	return store, nil
}

// Disconnect removes a store. Products imported through it keep their
// store_id for history but can no longer publish.
func (s *StoreService) Disconnect(ctx context.Context, userID, storeID string) error {
	if _, err := s.Get(ctx, userID, storeID); err != nil {
		return err
	}
	return s.repos.Stores.Delete(ctx, storeID)
}
