package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/dropfy/dropfy-api/internal/crypto"
	"github.com/dropfy/dropfy-api/internal/llm"
	"github.com/dropfy/dropfy-api/internal/models"
	"github.com/dropfy/dropfy-api/internal/repository"
	"github.com/dropfy/dropfy-api/internal/shopify"
)

// shopifyPublisher is the Admin API surface the publish flow needs.
type shopifyPublisher interface {
	CreateProduct(ctx context.Context, product *shopify.Product) (int64, error)
	UpdateProduct(ctx context.Context, shopifyID int64, product *shopify.Product) error
}

// ProductService manages imported products.
type ProductService struct {
	repos     *repository.Repositories
	llm       Completer
	encryptor *crypto.Encryptor
	logger    *slog.Logger

	// newPublisher builds a Shopify client per store. Swapped in tests.
	newPublisher func(domain, token string) shopifyPublisher
}

// NewProductService creates a new product service.
func NewProductService(repos *repository.Repositories, completer Completer, encryptor *crypto.Encryptor, logger *slog.Logger) *ProductService {
	s := &ProductService{
		repos:     repos,
		llm:       completer,
		encryptor: encryptor,
		logger:    logger.With("component", "products"),
	}
	s.newPublisher = func(domain, token string) shopifyPublisher {
		return shopify.NewClient(domain, token, logger)
	}
	return s
}

// Get returns a product, enforcing ownership.
func (s *ProductService) Get(ctx context.Context, userID, productID string) (*models.Product, error) {
	product, err := s.repos.Products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.UserID != userID {
		return nil, ErrNotOwner
	}
	return product, nil
}

// List returns the user's products, newest first.
func (s *ProductService) List(ctx context.Context, userID string, limit, offset int) ([]*models.Product, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	products, err := s.repos.Products.GetByUserID(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repos.Products.CountByUserID(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// ProductUpdate holds client-editable fields. Nil pointers leave the
// field unchanged.
type ProductUpdate struct {
	Title           *string
	DescriptionHTML *string
	Price           *string
	OriginalPrice   *string
	Currency        *string
	StoreID         *string
	MainImagesJSON  *string
}

// Update applies a partial update to a product.
func (s *ProductService) Update(ctx context.Context, userID, productID string, update ProductUpdate) (*models.Product, error) {
	product, err := s.Get(ctx, userID, productID)
	if err != nil {
		return nil, err
	}

	if update.Title != nil {
		product.Title = *update.Title
	}
	if update.DescriptionHTML != nil {
		product.DescriptionHTML = *update.DescriptionHTML
	}
	if update.Price != nil {
		product.Price = *update.Price
	}
	if update.OriginalPrice != nil {
		product.OriginalPrice = *update.OriginalPrice
	}
	if update.Currency != nil {
		product.Currency = *update.Currency
	}
	if update.StoreID != nil {
		product.StoreID = *update.StoreID
	}
	if update.MainImagesJSON != nil {
		product.MainImagesJSON = *update.MainImagesJSON
	}
	product.UpdatedAt = time.Now()

	if err := s.repos.Products.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("updating product: %w", err)
	}
	return product, nil
}

// Delete removes a product and its reviews.
func (s *ProductService) Delete(ctx context.Context, userID, productID string) error {
	if _, err := s.Get(ctx, userID, productID); err != nil {
		return err
	}
	if err := s.repos.Reviews.DeleteByProductID(ctx, productID); err != nil {
		return fmt.Errorf("deleting product reviews: %w", err)
	}
	if err := s.repos.PublishedReviews.Delete(ctx, productID); err != nil && err != repository.ErrNotFound {
		return fmt.Errorf("deleting published reviews: %w", err)
	}
	return s.repos.Products.Delete(ctx, productID)
}

// Translate rewrites the product's title and description in the target
// language and saves the result.
func (s *ProductService) Translate(ctx context.Context, userID, productID, targetLanguage string) (*models.Product, error) {
	product, err := s.Get(ctx, userID, productID)
	if err != nil {
		return nil, err
	}

	system, user := llm.TranslatePrompt(product.Title, product.DescriptionHTML, targetLanguage)
	raw, err := s.llm.Complete(ctx, llm.CompletionRequest{System: system, User: user})
	if err != nil {
		return nil, fmt.Errorf("translating product: %w", err)
	}

	title, err := llm.ParseField(raw, "title")
	if err != nil {
		return nil, err
	}
	description, err := llm.ParseField(raw, "description")
	if err != nil {
		return nil, err
	}

	product.Title = title
	product.DescriptionHTML = description
	product.UpdatedAt = time.Now()
	if err := s.repos.Products.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("saving translation: %w", err)
	}

	s.logger.Info("product translated", "product_id", productID, "language", targetLanguage)
	return product, nil
}

// ImproveDescription rewrites the description as stronger sales copy
// using the pro model tier.
func (s *ProductService) ImproveDescription(ctx context.Context, userID, productID string) (*models.Product, error) {
	product, err := s.Get(ctx, userID, productID)
	if err != nil {
		return nil, err
	}

	system, user := llm.ImproveDescriptionPrompt(product.Title, product.DescriptionHTML)
	raw, err := s.llm.Complete(ctx, llm.CompletionRequest{System: system, User: user, Mode: llm.ModeProCopy})
	if err != nil {
		return nil, fmt.Errorf("improving description: %w", err)
	}

	description, err := llm.ParseField(raw, "description")
	if err != nil {
		return nil, err
	}

	product.DescriptionHTML = description
	product.UpdatedAt = time.Now()
	if err := s.repos.Products.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("saving description: %w", err)
	}
	return product, nil
}

// Publish pushes the product to the linked Shopify store and records
// the resulting Shopify product ID.
func (s *ProductService) Publish(ctx context.Context, userID, productID string) (*models.Product, error) {
	product, err := s.Get(ctx, userID, productID)
	if err != nil {
		return nil, err
	}
	if product.StoreID == "" {
		return nil, fmt.Errorf("product %s has no store linked", productID)
	}

	store, err := s.repos.Stores.GetByID(ctx, product.StoreID)
	if err != nil {
		return nil, err
	}
	if store.UserID != userID {
		return nil, ErrNotOwner
	}

	token, err := s.encryptor.Decrypt(store.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("decrypting store token: %w", err)
	}

	payload := toShopifyProduct(product)
	publisher := s.newPublisher(store.ShopDomain, token)

	if product.ShopifyProductID != "" {
		shopifyID, err := strconv.ParseInt(product.ShopifyProductID, 10, 64)
		if err == nil {
			if err := publisher.UpdateProduct(ctx, shopifyID, payload); err != nil {
				return nil, fmt.Errorf("updating shopify product: %w", err)
			}
			product.Status = models.ProductStatusPublished
			product.UpdatedAt = time.Now()
			return product, s.repos.Products.Update(ctx, product)
		}
	}

	shopifyID, err := publisher.CreateProduct(ctx, payload)
	if err != nil {
		product.Status = models.ProductStatusFailed
		product.UpdatedAt = time.Now()
		_ = s.repos.Products.Update(ctx, product)
		return nil, fmt.Errorf("creating shopify product: %w", err)
	}

	product.ShopifyProductID = strconv.FormatInt(shopifyID, 10)
	product.Status = models.ProductStatusPublished
	product.UpdatedAt = time.Now()
	if err := s.repos.Products.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("saving published product: %w", err)
	}

	s.logger.Info("product published",
		"product_id", productID,
		"shopify_product_id", product.ShopifyProductID,
		"store_id", store.ID,
	)
	return product, nil
}

// toShopifyProduct maps our product to the Admin API payload. Variants
// are expanded from the first option dimension only; full cartesian
// expansion isn't needed for a draft import.
func toShopifyProduct(p *models.Product) *shopify.Product {
	out := &shopify.Product{
		Title:    p.Title,
		BodyHTML: p.DescriptionHTML,
		Status:   "active",
	}

	var images []string
	if p.MainImagesJSON != "" {
		_ = json.Unmarshal([]byte(p.MainImagesJSON), &images)
	}
	for _, src := range images {
		out.Images = append(out.Images, shopify.Image{Src: src})
	}

	var variants map[string][]string
	if p.VariantsJSON != "" {
		_ = json.Unmarshal([]byte(p.VariantsJSON), &variants)
	}

	names := make([]string, 0, len(variants))
	for name := range variants {
		names = append(names, name)
	}
	sort.Strings(names)

	if len(names) > 0 {
		first := names[0]
		out.Options = []shopify.Option{{Name: first, Values: variants[first]}}
		for _, value := range variants[first] {
			out.Variants = append(out.Variants, shopify.Variant{
				Price:          p.Price,
				CompareAtPrice: p.OriginalPrice,
				Option1:        value,
			})
		}
	} else {
		out.Variants = []shopify.Variant{{
			Price:          p.Price,
			CompareAtPrice: p.OriginalPrice,
		}}
	}
	return out
}
