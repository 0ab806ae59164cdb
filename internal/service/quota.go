package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/dropfy/dropfy-api/internal/models"
	"github.com/dropfy/dropfy-api/internal/repository"
)

// ErrQuotaExceeded is returned when an operation would exceed the
// user's plan limits.
var ErrQuotaExceeded = errors.New("plan quota exceeded")

// planForUser resolves the user's effective plan. Users without an
// active subscription get starter limits.
func planForUser(ctx context.Context, repos *repository.Repositories, userID string) models.Plan {
	sub, err := repos.Subscriptions.GetByUserID(ctx, userID)
	if err != nil || sub == nil || !sub.IsActive() {
		return models.PlanStarter
	}
	return sub.Plan
}

func checkProductQuota(ctx context.Context, repos *repository.Repositories, userID string) error {
	limits := models.LimitsForPlan(planForUser(ctx, repos, userID))
	if limits.MaxProducts == 0 {
		return nil
	}

	count, err := repos.Products.CountByUserID(ctx, userID)
	if err != nil {
		return fmt.Errorf("counting products: %w", err)
	}
	if count >= limits.MaxProducts {
		return fmt.Errorf("%w: plan allows %d products", ErrQuotaExceeded, limits.MaxProducts)
	}
	return nil
}

func checkStoreQuota(ctx context.Context, repos *repository.Repositories, userID string) error {
	limits := models.LimitsForPlan(planForUser(ctx, repos, userID))

	count, err := repos.Stores.CountByUserID(ctx, userID)
	if err != nil {
		return fmt.Errorf("counting stores: %w", err)
	}
	if count >= limits.MaxStores {
		return fmt.Errorf("%w: plan allows %d stores", ErrQuotaExceeded, limits.MaxStores)
	}
	return nil
}
