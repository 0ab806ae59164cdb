package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/dropfy/dropfy-api/internal/models"
)

// SQLiteUserRepository implements UserRepository for SQLite.
type SQLiteUserRepository struct {
	db *sql.DB
}

// NewSQLiteUserRepository creates a new SQLite user repository.
func NewSQLiteUserRepository(db *sql.DB) *SQLiteUserRepository {
	return &SQLiteUserRepository{db: db}
}

func (r *SQLiteUserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = ulid.Make().String()
	}
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	if user.BillingStatus == "" {
		user.BillingStatus = models.BillingStatusInactive
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}

	query := `INSERT INTO users (id, email, name, role, billing_status, created_at) VALUES (?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		nullString(user.Name),
		string(user.Role),
		string(user.BillingStatus),
		user.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// EnsureExists provisions the user row on first authenticated request.
// The token is the source of truth for id and email; an existing row
// is left untouched.
func (r *SQLiteUserRepository) EnsureExists(ctx context.Context, id, email string) error {
	query := `INSERT INTO users (id, email, name, role, billing_status, created_at)
		VALUES (?, ?, NULL, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`
	_, err := r.db.ExecContext(ctx, query,
		id,
		email,
		string(models.RoleUser),
		string(models.BillingStatusInactive),
		time.Now().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to provision user: %w", err)
	}
	return nil
}

// UpdateBillingStatus syncs the denormalized billing state from
// subscription events. Missing rows are not an error: the webhook can
// arrive before the user's first API call.
func (r *SQLiteUserRepository) UpdateBillingStatus(ctx context.Context, id string, status models.BillingStatus) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET billing_status = ? WHERE id = ?`,
		string(status), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update billing status: %w", err)
	}
	return nil
}

func (r *SQLiteUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT id, email, name, role, billing_status, created_at FROM users WHERE id = ?`
	return r.scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *SQLiteUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT id, email, name, role, billing_status, created_at FROM users WHERE email = ?`
	return r.scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *SQLiteUserRepository) scanUser(row *sql.Row) (*models.User, error) {
	var user models.User
	var name sql.NullString
	var role, billingStatus, createdAt string

	err := row.Scan(&user.ID, &user.Email, &name, &role, &billingStatus, &createdAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	user.Name = name.String
	user.Role = models.Role(role)
	user.BillingStatus = models.BillingStatus(billingStatus)
	user.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &user, nil
}
