package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stripe/stripe-go/v78"
	portalsession "github.com/stripe/stripe-go/v78/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v78/checkout/session"

	"github.com/dropfy/dropfy-api/internal/config"
	"github.com/dropfy/dropfy-api/internal/models"
	"github.com/dropfy/dropfy-api/internal/repository"
)

var (
	// ErrBillingDisabled is returned when Stripe is not configured.
	ErrBillingDisabled = errors.New("billing is not configured")
	// ErrNoSubscription is returned when a portal session is requested
	// without an existing subscription.
	ErrNoSubscription = errors.New("user has no subscription")
)

// BillingService manages Stripe checkout, the billing portal and the
// subscription records driven by webhook events.
type BillingService struct {
	cfg    *config.Config
	repos  *repository.Repositories
	logger *slog.Logger
}

// NewBillingService creates a new billing service.
func NewBillingService(cfg *config.Config, repos *repository.Repositories, logger *slog.Logger) *BillingService {
	if cfg.BillingEnabled() {
		stripe.Key = cfg.StripeSecretKey
	}
	return &BillingService{
		cfg:    cfg,
		repos:  repos,
		logger: logger.With("component", "billing"),
	}
}

// CreateCheckoutSession starts a Stripe subscription checkout for the
// given plan and returns the hosted checkout URL.
func (s *BillingService) CreateCheckoutSession(ctx context.Context, userID string, plan models.Plan) (string, error) {
	if !s.cfg.BillingEnabled() {
		return "", ErrBillingDisabled
	}
	priceID := s.cfg.PlanPriceID(string(plan))
	if priceID == "" {
		return "", fmt.Errorf("no price configured for plan %q", plan)
	}

	metadata := map[string]string{
		"user_id": userID,
		"plan":    string(plan),
	}
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(priceID), Quantity: stripe.Int64(1)},
		},
		SuccessURL:        stripe.String(s.cfg.BaseURL + "/billing/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:         stripe.String(s.cfg.BaseURL + "/billing/cancel"),
		ClientReferenceID: stripe.String(userID),
		Metadata:          metadata,
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: metadata,
		},
	}
	params.Context = ctx

	sess, err := checkoutsession.New(params)
	if err != nil {
		return "", fmt.Errorf("creating checkout session: %w", err)
	}

	s.logger.Info("checkout session created", "user_id", userID, "plan", plan, "session_id", sess.ID)
	return sess.URL, nil
}

// CreatePortalSession returns a Stripe billing portal URL for the
// user's existing subscription.
func (s *BillingService) CreatePortalSession(ctx context.Context, userID string) (string, error) {
	if !s.cfg.BillingEnabled() {
		return "", ErrBillingDisabled
	}

	sub, err := s.repos.Subscriptions.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrNoSubscription
		}
		return "", err
	}

	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(sub.StripeCustomerID),
		ReturnURL: stripe.String(s.cfg.BaseURL + "/billing"),
	}
	params.Context = ctx

	sess, err := portalsession.New(params)
	if err != nil {
		return "", fmt.Errorf("creating portal session: %w", err)
	}
	return sess.URL, nil
}

// GetSubscription returns the user's subscription plus the limits it
// grants. Users without one get starter limits.
func (s *BillingService) GetSubscription(ctx context.Context, userID string) (*models.Subscription, models.PlanLimits, error) {
	sub, err := s.repos.Subscriptions.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, models.LimitsForPlan(models.PlanStarter), nil
		}
		return nil, models.PlanLimits{}, err
	}
	plan := sub.Plan
	if !sub.IsActive() {
		plan = models.PlanStarter
	}
	return sub, models.LimitsForPlan(plan), nil
}

// ApplySubscription upserts the local record for a Stripe subscription
// event. Used for customer.subscription.created/updated/deleted.
func (s *BillingService) ApplySubscription(ctx context.Context, stripeSub *stripe.Subscription) error {
	userID := stripeSub.Metadata["user_id"]
	customerID := ""
	if stripeSub.Customer != nil {
		customerID = stripeSub.Customer.ID
	}

	if userID == "" && customerID != "" {
		// Subscriptions changed from the Stripe dashboard lose our
		// metadata; recover the user via the stored customer ID.
		if existing, err := s.repos.Subscriptions.GetByStripeCustomerID(ctx, customerID); err == nil {
			userID = existing.UserID
		}
	}
	if userID == "" {
		s.logger.Warn("subscription event without user_id", "subscription_id", stripeSub.ID)
		return nil
	}

	plan := models.Plan(stripeSub.Metadata["plan"])
	if plan == "" {
		plan = s.planFromPriceID(stripeSub)
	}

	sub := &models.Subscription{
		ID:                   ulid.Make().String(),
		UserID:               userID,
		StripeCustomerID:     customerID,
		StripeSubscriptionID: stripeSub.ID,
		Plan:                 plan,
		Status:               models.SubscriptionStatus(stripeSub.Status),
		CancelAtPeriodEnd:    stripeSub.CancelAtPeriodEnd,
		CreatedAt:            time.Now(),
		UpdatedAt:            time.Now(),
	}
	if stripeSub.CurrentPeriodStart > 0 {
		start := time.Unix(stripeSub.CurrentPeriodStart, 0).UTC()
		sub.CurrentPeriodStart = &start
	}
	if stripeSub.CurrentPeriodEnd > 0 {
		end := time.Unix(stripeSub.CurrentPeriodEnd, 0).UTC()
		sub.CurrentPeriodEnd = &end
	}

	if err := s.repos.Subscriptions.Upsert(ctx, sub); err != nil {
		return fmt.Errorf("saving subscription: %w", err)
	}

	if err := s.repos.Users.UpdateBillingStatus(ctx, userID, billingStatusFor(sub)); err != nil {
		// The denormalized flag is advisory; plan checks read the
		// subscription row directly.
		s.logger.Warn("failed to sync billing status", "user_id", userID, "error", err)
	}

	s.logger.Info("subscription updated",
		"user_id", userID,
		"plan", plan,
		"status", sub.Status,
		"subscription_id", stripeSub.ID,
	)
	return nil
}

// HandleCheckoutCompleted records the customer mapping as soon as
// checkout finishes, before the first subscription event arrives.
func (s *BillingService) HandleCheckoutCompleted(ctx context.Context, session *stripe.CheckoutSession) error {
	userID := session.Metadata["user_id"]
	if userID == "" {
		userID = session.ClientReferenceID
	}
	if userID == "" {
		s.logger.Warn("checkout session without user_id", "session_id", session.ID)
		return nil
	}

	plan := models.Plan(session.Metadata["plan"])
	if plan == "" {
		plan = models.PlanStarter
	}
	customerID := ""
	if session.Customer != nil {
		customerID = session.Customer.ID
	}
	subscriptionID := ""
	if session.Subscription != nil {
		subscriptionID = session.Subscription.ID
	}

	sub := &models.Subscription{
		ID:                   ulid.Make().String(),
		UserID:               userID,
		StripeCustomerID:     customerID,
		StripeSubscriptionID: subscriptionID,
		Plan:                 plan,
		Status:               models.SubscriptionStatusActive,
		CreatedAt:            time.Now(),
		UpdatedAt:            time.Now(),
	}
	if err := s.repos.Subscriptions.Upsert(ctx, sub); err != nil {
		return fmt.Errorf("saving subscription from checkout: %w", err)
	}

	s.logger.Info("checkout completed", "user_id", userID, "plan", plan)
	return nil
}

// planFromPriceID maps the subscription's price back to a plan when
// metadata is missing.
// billingStatusFor collapses the Stripe status into the coarse flag
// stored on the user row.
func billingStatusFor(sub *models.Subscription) models.BillingStatus {
	switch {
	case sub.IsActive():
		return models.BillingStatusActive
	case sub.Status == models.SubscriptionStatusPastDue:
		return models.BillingStatusPastDue
	default:
		return models.BillingStatusInactive
	}
}

func (s *BillingService) planFromPriceID(stripeSub *stripe.Subscription) models.Plan {
	if stripeSub.Items == nil || len(stripeSub.Items.Data) == 0 || stripeSub.Items.Data[0].Price == nil {
		return models.PlanStarter
	}
	switch stripeSub.Items.Data[0].Price.ID {
	case s.cfg.StripePriceGrowth:
		return models.PlanGrowth
	case s.cfg.StripePriceScale:
		return models.PlanScale
	default:
		return models.PlanStarter
	}
}
