package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/dropfy/dropfy-api/internal/models"
)

// SQLiteStoreRepository implements StoreRepository for SQLite.
// AccessToken is stored encrypted; encryption happens in the service
// layer so the repository only ever sees ciphertext.
type SQLiteStoreRepository struct {
	db *sql.DB
}

// NewSQLiteStoreRepository creates a new SQLite store repository.
func NewSQLiteStoreRepository(db *sql.DB) *SQLiteStoreRepository {
	return &SQLiteStoreRepository{db: db}
}

func (r *SQLiteStoreRepository) Create(ctx context.Context, store *models.Store) error {
	if store.ID == "" {
		store.ID = ulid.Make().String()
	}
	now := time.Now()
	if store.CreatedAt.IsZero() {
		store.CreatedAt = now
	}
	store.UpdatedAt = now

	query := `
		INSERT INTO stores (id, user_id, shop_domain, access_token_encrypted, plan, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		store.ID,
		store.UserID,
		store.ShopDomain,
		store.AccessToken,
		store.Plan,
		boolToInt(store.Active),
		store.CreatedAt.Format(time.RFC3339),
		store.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to create store: %w", err)
	}
	return nil
}

func (r *SQLiteStoreRepository) GetByID(ctx context.Context, id string) (*models.Store, error) {
	query := selectStore + ` WHERE id = ?`
	return r.scanStore(r.db.QueryRowContext(ctx, query, id))
}

func (r *SQLiteStoreRepository) GetByDomain(ctx context.Context, shopDomain string) (*models.Store, error) {
	query := selectStore + ` WHERE shop_domain = ?`
	return r.scanStore(r.db.QueryRowContext(ctx, query, shopDomain))
}

func (r *SQLiteStoreRepository) GetByUserID(ctx context.Context, userID string) ([]*models.Store, error) {
	query := selectStore + ` WHERE user_id = ? ORDER BY created_at ASC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query stores: %w", err)
	}
	defer rows.Close()

	var stores []*models.Store
	for rows.Next() {
		store, err := r.scanStoreFromRows(rows)
		if err != nil {
			return nil, err
		}
		stores = append(stores, store)
	}
	return stores, rows.Err()
}

func (r *SQLiteStoreRepository) CountByUserID(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM stores WHERE user_id = ? AND active = 1`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count stores: %w", err)
	}
	return count, nil
}

func (r *SQLiteStoreRepository) Update(ctx context.Context, store *models.Store) error {
	store.UpdatedAt = time.Now()
	query := `
		UPDATE stores
		SET shop_domain = ?, access_token_encrypted = ?, plan = ?, active = ?, updated_at = ?
		WHERE id = ?
	`
	_, err := r.db.ExecContext(ctx, query,
		store.ShopDomain,
		store.AccessToken,
		store.Plan,
		boolToInt(store.Active),
		store.UpdatedAt.Format(time.RFC3339),
		store.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update store: %w", err)
	}
	return nil
}

func (r *SQLiteStoreRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM stores WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete store: %w", err)
	}
	return nil
}

const selectStore = `
	SELECT id, user_id, shop_domain, access_token_encrypted, plan, active, created_at, updated_at
	FROM stores`

func (r *SQLiteStoreRepository) scanStore(row *sql.Row) (*models.Store, error) {
	var store models.Store
	var active int
	var createdAt, updatedAt string

	err := row.Scan(&store.ID, &store.UserID, &store.ShopDomain, &store.AccessToken,
		&store.Plan, &active, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan store: %w", err)
	}

	store.Active = active != 0
	store.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	store.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &store, nil
}

func (r *SQLiteStoreRepository) scanStoreFromRows(rows *sql.Rows) (*models.Store, error) {
	var store models.Store
	var active int
	var createdAt, updatedAt string

	err := rows.Scan(&store.ID, &store.UserID, &store.ShopDomain, &store.AccessToken,
		&store.Plan, &active, &createdAt, &updatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan store: %w", err)
	}

	store.Active = active != 0
	store.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	store.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &store, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
