package handlers

import (
	"context"

	"github.com/dropfy/dropfy-api/internal/http/mw"
	"github.com/dropfy/dropfy-api/internal/service"
)

// UserHandler exposes the caller's account profile.
type UserHandler struct {
	userSvc *service.UserService
}

// NewUserHandler creates a new user handler.
func NewUserHandler(userSvc *service.UserService) *UserHandler {
	return &UserHandler{userSvc: userSvc}
}

// MeOutput carries the account profile.
type MeOutput struct {
	Body service.Profile
}

// Me returns the caller's account, plan and usage. The account row is
// created on first call.
func (h *UserHandler) Me(ctx context.Context, _ *struct{}) (*MeOutput, error) {
	profile, err := h.userSvc.Me(ctx, mw.UserID(ctx), mw.UserEmail(ctx))
	if err != nil {
		return nil, mapServiceError(err)
	}

	out := &MeOutput{}
	out.Body = *profile
	return out, nil
}
