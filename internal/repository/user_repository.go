package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/weddingplanner/weddingplanner/internal/database"
	"github.com/weddingplanner/weddingplanner/internal/model"
)

// UserRepository handles user data persistence
type UserRepository struct {
	db *database.Postgres
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *database.Postgres) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, email, first_name, last_name, phone, password_hash, role, created_at, updated_at`

// CreateAccount inserts a user together with its client or vendor profile in
// one transaction. Exactly one of vendor and client is expected to be set.
func (r *UserRepository) CreateAccount(ctx context.Context, user *model.User, vendor *model.Vendor, client *model.Client) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO users (id, email, first_name, last_name, phone, password_hash, role, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`,
			user.ID,
			user.Email,
			user.FirstName,
			user.LastName,
			user.Phone,
			user.PasswordHash,
			user.Role,
			user.CreatedAt,
			user.UpdatedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicate
			}
			return fmt.Errorf("failed to create user: %w", err)
		}

		if vendor != nil {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO vendors (id, user_id, business_name, description, status, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
			`,
				vendor.ID,
				vendor.UserID,
				vendor.BusinessName,
				vendor.Description,
				vendor.Status,
				vendor.CreatedAt,
				vendor.UpdatedAt,
			)
			if err != nil {
				return fmt.Errorf("failed to create vendor: %w", err)
			}
		}

		if client != nil {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO clients (id, user_id, created_at) VALUES ($1, $2, $3)
			`, client.ID, client.UserID, client.CreatedAt)
			if err != nil {
				return fmt.Errorf("failed to create client: %w", err)
			}
		}
		return nil
	})
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanUser(r.db.QueryRowContext(ctx, query, id))
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.scanUser(r.db.QueryRowContext(ctx, query, email))
}

// ExistsByEmail checks if a user with the given email exists
func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`
	var exists bool
	err := r.db.QueryRowContext(ctx, query, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check email existence: %w", err)
	}
	return exists, nil
}

// UpdatePasswordHash replaces a user's stored password hash
func (r *UserRepository) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = $1, updated_at = $2 WHERE id = $3`,
		hash, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update password hash: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update password hash: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// scanUser scans a single user row
func (r *UserRepository) scanUser(row rowScanner) (*model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.FirstName,
		&user.LastName,
		&user.Phone,
		&user.PasswordHash,
		&user.Role,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return &user, nil
}
