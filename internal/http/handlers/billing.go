package handlers

import (
	"context"

	"github.com/dropfy/dropfy-api/internal/http/mw"
	"github.com/dropfy/dropfy-api/internal/models"
	"github.com/dropfy/dropfy-api/internal/service"
)

// BillingHandler exposes Stripe checkout, portal and subscription status.
type BillingHandler struct {
	billingSvc *service.BillingService
}

// NewBillingHandler creates a new billing handler.
func NewBillingHandler(billingSvc *service.BillingService) *BillingHandler {
	return &BillingHandler{billingSvc: billingSvc}
}

// CheckoutInput represents a checkout request.
type CheckoutInput struct {
	Body struct {
		Plan string `json:"plan" enum:"growth,scale" doc:"Plan to subscribe to"`
	}
}

// RedirectOutput carries a hosted Stripe URL.
type RedirectOutput struct {
	Body struct {
		URL string `json:"url" doc:"Hosted Stripe page to redirect the user to"`
	}
}

// Checkout starts a subscription checkout session.
func (h *BillingHandler) Checkout(ctx context.Context, input *CheckoutInput) (*RedirectOutput, error) {
	url, err := h.billingSvc.CreateCheckoutSession(ctx, mw.UserID(ctx), models.Plan(input.Body.Plan))
	if err != nil {
		return nil, mapServiceError(err)
	}

	out := &RedirectOutput{}
	out.Body.URL = url
	return out, nil
}

// Portal opens the Stripe billing portal for the user's subscription.
func (h *BillingHandler) Portal(ctx context.Context, _ *struct{}) (*RedirectOutput, error) {
	url, err := h.billingSvc.CreatePortalSession(ctx, mw.UserID(ctx))
	if err != nil {
		return nil, mapServiceError(err)
	}

	out := &RedirectOutput{}
	out.Body.URL = url
	return out, nil
}

// SubscriptionOutput reports the user's plan and its limits.
type SubscriptionOutput struct {
	Body struct {
		Subscription *models.Subscription `json:"subscription,omitempty" doc:"Absent for users on the free starter plan"`
		Limits       models.PlanLimits    `json:"limits"`
	}
}

// Subscription returns the current subscription and effective limits.
func (h *BillingHandler) Subscription(ctx context.Context, _ *struct{}) (*SubscriptionOutput, error) {
	sub, limits, err := h.billingSvc.GetSubscription(ctx, mw.UserID(ctx))
	if err != nil {
		return nil, mapServiceError(err)
	}

	out := &SubscriptionOutput{}
	out.Body.Subscription = sub
	out.Body.Limits = limits
	return out, nil
}
