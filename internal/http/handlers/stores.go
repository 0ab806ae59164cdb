package handlers

import (
	"context"

	"github.com/dropfy/dropfy-api/internal/http/mw"
	"github.com/dropfy/dropfy-api/internal/models"
	"github.com/dropfy/dropfy-api/internal/service"
)

// StoreHandler manages connected Shopify stores.
type StoreHandler struct {
	storeSvc *service.StoreService
}

// NewStoreHandler creates a new store handler.
func NewStoreHandler(storeSvc *service.StoreService) *StoreHandler {
	return &StoreHandler{storeSvc: storeSvc}
}

// StoreResponse is a store without its access token.
type StoreResponse struct {
	ID         string `json:"id"`
	ShopDomain string `json:"shop_domain"`
	Plan       string `json:"plan"`
	Active     bool   `json:"active"`
	CreatedAt  string `json:"created_at"`
}

func toStoreResponse(store *models.Store) StoreResponse {
	return StoreResponse{
		ID:         store.ID,
		ShopDomain: store.ShopDomain,
		Plan:       string(store.Plan),
		Active:     store.Active,
		CreatedAt:  store.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// ConnectStoreInput represents a store connection request.
type ConnectStoreInput struct {
	Body struct {
		ShopDomain  string `json:"shop_domain" minLength:"1" doc:"myshopify.com domain"`
		AccessToken string `json:"access_token" minLength:"1" doc:"Admin API access token"`
	}
}

// StoreOutput wraps a single store.
type StoreOutput struct {
	Body struct {
		Store StoreResponse `json:"store"`
	}
}

// Connect verifies the credentials against the Admin API and saves the store.
func (h *StoreHandler) Connect(ctx context.Context, input *ConnectStoreInput) (*StoreOutput, error) {
	store, err := h.storeSvc.Connect(ctx, mw.UserID(ctx), input.Body.ShopDomain, input.Body.AccessToken)
	if err != nil {
		return nil, mapServiceError(err)
	}

	out := &StoreOutput{}
	out.Body.Store = toStoreResponse(store)
	return out, nil
}

// ListStoresOutput represents the store list response.
type ListStoresOutput struct {
	Body struct {
		Stores []StoreResponse `json:"stores"`
	}
}

// List returns the user's connected stores.
func (h *StoreHandler) List(ctx context.Context, _ *struct{}) (*ListStoresOutput, error) {
	stores, err := h.storeSvc.List(ctx, mw.UserID(ctx))
	if err != nil {
		return nil, mapServiceError(err)
	}

	out := &ListStoresOutput{}
	out.Body.Stores = make([]StoreResponse, 0, len(stores))
	for _, store := range stores {
		out.Body.Stores = append(out.Body.Stores, toStoreResponse(store))
	}
	return out, nil
}

// GetStoreInput identifies one store.
type GetStoreInput struct {
	ID string `path:"id" doc:"Store ID"`
}

// Get returns one connected store.
func (h *StoreHandler) Get(ctx context.Context, input *GetStoreInput) (*StoreOutput, error) {
	store, err := h.storeSvc.Get(ctx, mw.UserID(ctx), input.ID)
	if err != nil {
		return nil, mapServiceError(err)
	}

	out := &StoreOutput{}
	out.Body.Store = toStoreResponse(store)
	return out, nil
}

// Disconnect removes a store connection.
func (h *StoreHandler) Disconnect(ctx context.Context, input *GetStoreInput) (*struct{}, error) {
	if err := h.storeSvc.Disconnect(ctx, mw.UserID(ctx), input.ID); err != nil {
		return nil, mapServiceError(err)
	}
	return &struct{}{}, nil
}
