package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/dropfy/dropfy-api/internal/models"
)

// SQLiteSubscriptionRepository implements SubscriptionRepository for SQLite.
type SQLiteSubscriptionRepository struct {
	db *sql.DB
}

// NewSQLiteSubscriptionRepository creates a new subscription repository.
func NewSQLiteSubscriptionRepository(db *sql.DB) *SQLiteSubscriptionRepository {
	return &SQLiteSubscriptionRepository{db: db}
}

// Upsert creates or replaces the subscription for a user. Stripe webhook
// handlers call this on every subscription event, so it must be safe to
// apply the same event twice.
func (r *SQLiteSubscriptionRepository) Upsert(ctx context.Context, sub *models.Subscription) error {
	if sub.ID == "" {
		sub.ID = ulid.Make().String()
	}
	now := time.Now()
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = now
	}
	sub.UpdatedAt = now

	query := `
		INSERT INTO subscriptions (id, user_id, stripe_customer_id, stripe_subscription_id,
			plan, status, current_period_start, current_period_end, cancel_at_period_end,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			stripe_customer_id = excluded.stripe_customer_id,
			stripe_subscription_id = excluded.stripe_subscription_id,
			plan = excluded.plan,
			status = excluded.status,
			current_period_start = excluded.current_period_start,
			current_period_end = excluded.current_period_end,
			cancel_at_period_end = excluded.cancel_at_period_end,
			updated_at = excluded.updated_at
	`
	_, err := r.db.ExecContext(ctx, query,
		sub.ID,
		sub.UserID,
		sub.StripeCustomerID,
		nullString(sub.StripeSubscriptionID),
		sub.Plan,
		sub.Status,
		nullTime(sub.CurrentPeriodStart),
		nullTime(sub.CurrentPeriodEnd),
		boolToInt(sub.CancelAtPeriodEnd),
		sub.CreatedAt.Format(time.RFC3339),
		sub.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert subscription: %w", err)
	}
	return nil
}

const selectSubscription = `
	SELECT id, user_id, stripe_customer_id, stripe_subscription_id, plan, status,
		current_period_start, current_period_end, cancel_at_period_end, created_at, updated_at
	FROM subscriptions`

func (r *SQLiteSubscriptionRepository) GetByUserID(ctx context.Context, userID string) (*models.Subscription, error) {
	row := r.db.QueryRowContext(ctx, selectSubscription+` WHERE user_id = ?`, userID)
	return scanSubscription(row)
}

func (r *SQLiteSubscriptionRepository) GetByStripeCustomerID(ctx context.Context, customerID string) (*models.Subscription, error) {
	row := r.db.QueryRowContext(ctx, selectSubscription+` WHERE stripe_customer_id = ?`, customerID)
	return scanSubscription(row)
}

func scanSubscription(row *sql.Row) (*models.Subscription, error) {
	var sub models.Subscription
	var stripeSubID, periodStart, periodEnd sql.NullString
	var cancelAtPeriodEnd int
	var createdAt, updatedAt string

	err := row.Scan(&sub.ID, &sub.UserID, &sub.StripeCustomerID, &stripeSubID,
		&sub.Plan, &sub.Status, &periodStart, &periodEnd, &cancelAtPeriodEnd,
		&createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan subscription: %w", err)
	}

	sub.StripeSubscriptionID = stripeSubID.String
	sub.CurrentPeriodStart = parseNullTime(periodStart)
	sub.CurrentPeriodEnd = parseNullTime(periodEnd)
	sub.CancelAtPeriodEnd = cancelAtPeriodEnd != 0
	sub.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	sub.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &sub, nil
}

func parseNullTime(s sql.NullString) *time.Time {
	if !s.Valid {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s.String)
	if err != nil {
		return nil
	}
	return &t
}
