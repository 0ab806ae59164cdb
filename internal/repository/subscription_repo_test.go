package repository

import (
	"context"
	"testing"
	"time"

	"github.com/dropfy/dropfy-api/internal/models"
)

func TestSubscriptionUpsert(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteSubscriptionRepository(db)
	ctx := context.Background()

	periodEnd := time.Now().Add(30 * 24 * time.Hour).Truncate(time.Second)
	sub := &models.Subscription{
		UserID:               "user_1",
		StripeCustomerID:     "cus_123",
		StripeSubscriptionID: "sub_123",
		Plan:                 models.PlanGrowth,
		Status:               models.SubscriptionStatusActive,
		CurrentPeriodEnd:     &periodEnd,
	}
	if err := repo.Upsert(ctx, sub); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	got, err := repo.GetByUserID(ctx, "user_1")
	if err != nil {
		t.Fatalf("GetByUserID failed: %v", err)
	}
	if got.Plan != models.PlanGrowth || got.StripeCustomerID != "cus_123" {
		t.Errorf("round-trip mismatch: %+v", got)
	}
	if got.CurrentPeriodEnd == nil || !got.CurrentPeriodEnd.Equal(periodEnd) {
		t.Errorf("CurrentPeriodEnd = %v, want %v", got.CurrentPeriodEnd, periodEnd)
	}

	// Applying a later webhook event for the same user replaces the row.
	sub.Plan = models.PlanScale
	sub.Status = models.SubscriptionStatusPastDue
	if err := repo.Upsert(ctx, sub); err != nil {
		t.Fatalf("second Upsert failed: %v", err)
	}

	got, err = repo.GetByUserID(ctx, "user_1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Plan != models.PlanScale || got.Status != models.SubscriptionStatusPastDue {
		t.Errorf("update not applied: %+v", got)
	}
}

func TestSubscriptionGetByStripeCustomerID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteSubscriptionRepository(db)
	ctx := context.Background()

	sub := &models.Subscription{
		UserID:           "user_1",
		StripeCustomerID: "cus_abc",
		Plan:             models.PlanStarter,
		Status:           models.SubscriptionStatusActive,
	}
	if err := repo.Upsert(ctx, sub); err != nil {
		t.Fatal(err)
	}

	got, err := repo.GetByStripeCustomerID(ctx, "cus_abc")
	if err != nil {
		t.Fatalf("GetByStripeCustomerID failed: %v", err)
	}
	if got.UserID != "user_1" {
		t.Errorf("UserID = %s, want user_1", got.UserID)
	}

	if _, err := repo.GetByStripeCustomerID(ctx, "cus_missing"); err != ErrNotFound {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestStoreRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteStoreRepository(db)
	ctx := context.Background()

	store := &models.Store{
		UserID:      "user_1",
		ShopDomain:  "example.myshopify.com",
		AccessToken: "ciphertext-blob",
		Plan:        models.PlanStarter,
		Active:      true,
	}
	if err := repo.Create(ctx, store); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := repo.GetByDomain(ctx, "example.myshopify.com")
	if err != nil {
		t.Fatalf("GetByDomain failed: %v", err)
	}
	if got.ID != store.ID || !got.Active {
		t.Errorf("round-trip mismatch: %+v", got)
	}

	count, err := repo.CountByUserID(ctx, "user_1")
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}

	store.Active = false
	if err := repo.Update(ctx, store); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	count, err = repo.CountByUserID(ctx, "user_1")
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("inactive stores should not count, got %d", count)
	}

	if err := repo.Delete(ctx, store.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := repo.GetByID(ctx, store.ID); err != ErrNotFound {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
