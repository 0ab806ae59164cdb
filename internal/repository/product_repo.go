package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/dropfy/dropfy-api/internal/models"
)

// SQLiteProductRepository implements ProductRepository for SQLite.
type SQLiteProductRepository struct {
	db *sql.DB
}

// NewSQLiteProductRepository creates a new SQLite product repository.
func NewSQLiteProductRepository(db *sql.DB) *SQLiteProductRepository {
	return &SQLiteProductRepository{db: db}
}

func (r *SQLiteProductRepository) Create(ctx context.Context, product *models.Product) error {
	if product.ID == "" {
		product.ID = ulid.Make().String()
	}
	now := time.Now()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	product.UpdatedAt = now
	if product.Status == "" {
		product.Status = models.ProductStatusDraft
	}

	query := `
		INSERT INTO products (id, store_id, user_id, source_url, title, description_html,
			price, original_price, discount_percentage, currency, variants_json,
			main_images_json, description_images_json, status, shopify_product_id,
			created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		product.ID,
		nullString(product.StoreID),
		product.UserID,
		product.SourceURL,
		product.Title,
		nullString(product.DescriptionHTML),
		nullString(product.Price),
		nullString(product.OriginalPrice),
		product.DiscountPercentage,
		nullString(product.Currency),
		nullString(product.VariantsJSON),
		nullString(product.MainImagesJSON),
		nullString(product.DescriptionImagesJSON),
		product.Status,
		nullString(product.ShopifyProductID),
		product.CreatedAt.Format(time.RFC3339),
		product.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

const selectProduct = `
	SELECT id, store_id, user_id, source_url, title, description_html,
		price, original_price, discount_percentage, currency, variants_json,
		main_images_json, description_images_json, status, shopify_product_id,
		created_at, updated_at
	FROM products`

func (r *SQLiteProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	row := r.db.QueryRowContext(ctx, selectProduct+` WHERE id = ?`, id)
	product, err := scanProduct(row.Scan)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan product: %w", err)
	}
	return product, nil
}

func (r *SQLiteProductRepository) GetByUserID(ctx context.Context, userID string, limit, offset int) ([]*models.Product, error) {
	query := selectProduct + ` WHERE user_id = ? ORDER BY created_at DESC LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []*models.Product
	for rows.Next() {
		product, err := scanProduct(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}
	return products, rows.Err()
}

func (r *SQLiteProductRepository) CountByUserID(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM products WHERE user_id = ?`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return count, nil
}

func (r *SQLiteProductRepository) Update(ctx context.Context, product *models.Product) error {
	product.UpdatedAt = time.Now()
	query := `
		UPDATE products
		SET store_id = ?, title = ?, description_html = ?, price = ?, original_price = ?,
			discount_percentage = ?, currency = ?, variants_json = ?, main_images_json = ?,
			description_images_json = ?, status = ?, shopify_product_id = ?, updated_at = ?
		WHERE id = ?
	`
	_, err := r.db.ExecContext(ctx, query,
		nullString(product.StoreID),
		product.Title,
		nullString(product.DescriptionHTML),
		nullString(product.Price),
		nullString(product.OriginalPrice),
		product.DiscountPercentage,
		nullString(product.Currency),
		nullString(product.VariantsJSON),
		nullString(product.MainImagesJSON),
		nullString(product.DescriptionImagesJSON),
		product.Status,
		nullString(product.ShopifyProductID),
		product.UpdatedAt.Format(time.RFC3339),
		product.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	return nil
}

func (r *SQLiteProductRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return nil
}

// scanProduct scans a product row via the given Scan function so the same
// code serves both sql.Row and sql.Rows.
func scanProduct(scan func(dest ...any) error) (*models.Product, error) {
	var product models.Product
	var storeID, descriptionHTML, price, originalPrice, currency sql.NullString
	var variantsJSON, mainImagesJSON, descriptionImagesJSON, shopifyProductID sql.NullString
	var createdAt, updatedAt string

	err := scan(
		&product.ID, &storeID, &product.UserID, &product.SourceURL, &product.Title,
		&descriptionHTML, &price, &originalPrice, &product.DiscountPercentage, &currency,
		&variantsJSON, &mainImagesJSON, &descriptionImagesJSON, &product.Status,
		&shopifyProductID, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	product.StoreID = storeID.String
	product.DescriptionHTML = descriptionHTML.String
	product.Price = price.String
	product.OriginalPrice = originalPrice.String
	product.Currency = currency.String
	product.VariantsJSON = variantsJSON.String
	product.MainImagesJSON = mainImagesJSON.String
	product.DescriptionImagesJSON = descriptionImagesJSON.String
	product.ShopifyProductID = shopifyProductID.String
	product.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	product.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &product, nil
}
