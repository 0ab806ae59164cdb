package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dropfy/dropfy-api/internal/models"
	"github.com/dropfy/dropfy-api/internal/repository"
)

// UserService manages account profiles. Accounts are provisioned
// lazily: the first authenticated request creates the row from the
// token's claims.
type UserService struct {
	repos  *repository.Repositories
	logger *slog.Logger
}

// NewUserService creates a new user service.
func NewUserService(repos *repository.Repositories, logger *slog.Logger) *UserService {
	return &UserService{repos: repos, logger: logger.With("component", "users")}
}

// Profile is the account view served by /me: the user row plus the
// effective plan, its limits and current usage.
type Profile struct {
	User     *models.User      `json:"user"`
	Plan     models.Plan       `json:"plan"`
	Limits   models.PlanLimits `json:"limits"`
	Products int               `json:"products"`
	Stores   int               `json:"stores"`
}

// Me returns the caller's profile, provisioning the account on first
// contact. email may be empty when the token carries no email claim.
func (s *UserService) Me(ctx context.Context, userID, email string) (*Profile, error) {
	if err := s.repos.Users.EnsureExists(ctx, userID, email); err != nil {
		return nil, fmt.Errorf("provisioning user: %w", err)
	}

	user, err := s.repos.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading user: %w", err)
	}

	plan := models.PlanStarter
	if sub, err := s.repos.Subscriptions.GetByUserID(ctx, userID); err == nil && sub.IsActive() {
		plan = sub.Plan
	}

	products, err := s.repos.Products.CountByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("counting products: %w", err)
	}
	stores, err := s.repos.Stores.CountByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("counting stores: %w", err)
	}

	return &Profile{
		User:     user,
		Plan:     plan,
		Limits:   models.LimitsForPlan(plan),
		Products: products,
		Stores:   stores,
	}, nil
}
