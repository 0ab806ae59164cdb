package handlers

import (
	"context"

	"github.com/dropfy/dropfy-api/internal/http/mw"
	"github.com/dropfy/dropfy-api/internal/models"
	"github.com/dropfy/dropfy-api/internal/service"
)

// ProductHandler handles product CRUD and enrichment endpoints.
type ProductHandler struct {
	productSvc *service.ProductService
}

// NewProductHandler creates a new product handler.
func NewProductHandler(productSvc *service.ProductService) *ProductHandler {
	return &ProductHandler{productSvc: productSvc}
}

// ListProductsInput represents product list query parameters.
type ListProductsInput struct {
	Limit  int `query:"limit" minimum:"1" maximum:"100" default:"50" doc:"Page size"`
	Offset int `query:"offset" minimum:"0" default:"0" doc:"Rows to skip"`
}

// ListProductsOutput represents the product list response.
type ListProductsOutput struct {
	Body struct {
		Products []*models.Product `json:"products"`
		Total    int               `json:"total" doc:"Total products for this user"`
	}
}

// List returns the user's products, newest first.
func (h *ProductHandler) List(ctx context.Context, input *ListProductsInput) (*ListProductsOutput, error) {
	products, total, err := h.productSvc.List(ctx, mw.UserID(ctx), input.Limit, input.Offset)
	if err != nil {
		return nil, mapServiceError(err)
	}

	out := &ListProductsOutput{}
	out.Body.Products = products
	out.Body.Total = total
	return out, nil
}

// GetProductInput identifies one product.
type GetProductInput struct {
	ID string `path:"id" doc:"Product ID"`
}

// ProductOutput wraps a single product.
type ProductOutput struct {
	Body struct {
		Product *models.Product `json:"product"`
	}
}

// Get returns one product.
func (h *ProductHandler) Get(ctx context.Context, input *GetProductInput) (*ProductOutput, error) {
	product, err := h.productSvc.Get(ctx, mw.UserID(ctx), input.ID)
	if err != nil {
		return nil, mapServiceError(err)
	}

	out := &ProductOutput{}
	out.Body.Product = product
	return out, nil
}

// UpdateProductInput represents a partial product update.
type UpdateProductInput struct {
	ID   string `path:"id" doc:"Product ID"`
	Body struct {
		Title           *string `json:"title,omitempty"`
		DescriptionHTML *string `json:"description_html,omitempty"`
		Price           *string `json:"price,omitempty" doc:"Decimal string, dot separator"`
		OriginalPrice   *string `json:"original_price,omitempty"`
		Currency        *string `json:"currency,omitempty"`
		StoreID         *string `json:"store_id,omitempty"`
		MainImagesJSON  *string `json:"main_images_json,omitempty" doc:"JSON array of image URLs"`
	}
}

// Update applies a partial update; absent fields are left untouched.
func (h *ProductHandler) Update(ctx context.Context, input *UpdateProductInput) (*ProductOutput, error) {
	product, err := h.productSvc.Update(ctx, mw.UserID(ctx), input.ID, service.ProductUpdate{
		Title:           input.Body.Title,
		DescriptionHTML: input.Body.DescriptionHTML,
		Price:           input.Body.Price,
		OriginalPrice:   input.Body.OriginalPrice,
		Currency:        input.Body.Currency,
		StoreID:         input.Body.StoreID,
		MainImagesJSON:  input.Body.MainImagesJSON,
	})
	if err != nil {
		return nil, mapServiceError(err)
	}

	out := &ProductOutput{}
	out.Body.Product = product
	return out, nil
}

// Delete removes a product along with its reviews and published snapshot.
func (h *ProductHandler) Delete(ctx context.Context, input *GetProductInput) (*struct{}, error) {
	if err := h.productSvc.Delete(ctx, mw.UserID(ctx), input.ID); err != nil {
		return nil, mapServiceError(err)
	}
	return &struct{}{}, nil
}

// TranslateInput represents a translation request.
type TranslateInput struct {
	ID   string `path:"id" doc:"Product ID"`
	Body struct {
		Language string `json:"language" minLength:"2" doc:"Target language, e.g. 'pt-BR' or 'Spanish'"`
	}
}

// Translate rewrites the title and description in the target language.
func (h *ProductHandler) Translate(ctx context.Context, input *TranslateInput) (*ProductOutput, error) {
	product, err := h.productSvc.Translate(ctx, mw.UserID(ctx), input.ID, input.Body.Language)
	if err != nil {
		return nil, mapServiceError(err)
	}

	out := &ProductOutput{}
	out.Body.Product = product
	return out, nil
}

// ImproveDescription rewrites the description with conversion-focused copy.
func (h *ProductHandler) ImproveDescription(ctx context.Context, input *GetProductInput) (*ProductOutput, error) {
	product, err := h.productSvc.ImproveDescription(ctx, mw.UserID(ctx), input.ID)
	if err != nil {
		return nil, mapServiceError(err)
	}

	out := &ProductOutput{}
	out.Body.Product = product
	return out, nil
}

// Publish pushes the product to the connected Shopify store.
func (h *ProductHandler) Publish(ctx context.Context, input *GetProductInput) (*ProductOutput, error) {
	product, err := h.productSvc.Publish(ctx, mw.UserID(ctx), input.ID)
	if err != nil {
		return nil, mapServiceError(err)
	}

	out := &ProductOutput{}
	out.Body.Product = product
	return out, nil
}
