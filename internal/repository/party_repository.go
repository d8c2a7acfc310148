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

const vendorSelect = `
	SELECT v.id, v.user_id, v.business_name, v.description, v.status, v.approved_at, v.created_at, v.updated_at,
	       u.id, u.email, u.first_name, u.last_name, u.phone, u.role, u.created_at, u.updated_at
	FROM vendors v
	JOIN users u ON u.id = v.user_id
`

// VendorRepository handles vendor profile persistence
type VendorRepository struct {
	db *database.Postgres
}

// NewVendorRepository creates a new VendorRepository
func NewVendorRepository(db *database.Postgres) *VendorRepository {
	return &VendorRepository{db: db}
}

// GetByID retrieves a vendor with its user
func (r *VendorRepository) GetByID(ctx context.Context, id string) (*model.Vendor, error) {
	return scanVendor(r.db.QueryRowContext(ctx, vendorSelect+` WHERE v.id = $1`, id))
}

// GetByUserID retrieves the vendor profile owned by a user
func (r *VendorRepository) GetByUserID(ctx context.Context, userID string) (*model.Vendor, error) {
	return scanVendor(r.db.QueryRowContext(ctx, vendorSelect+` WHERE v.user_id = $1`, userID))
}

// List returns vendors, optionally filtered by status, newest first
func (r *VendorRepository) List(ctx context.Context, status model.VendorStatus) ([]*model.Vendor, error) {
	query := vendorSelect
	args := []interface{}{}
	if status != "" {
		query += ` WHERE v.status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY v.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list vendors: %w", err)
	}
	defer rows.Close()

	var vendors []*model.Vendor
	for rows.Next() {
		v, err := scanVendor(rows)
		if err != nil {
			return nil, err
		}
		vendors = append(vendors, v)
	}
	return vendors, rows.Err()
}

// UpdateStatus moves a vendor from one status to another. approvedAt is
// stored as given and may be nil. It returns ErrStatusConflict when the
// vendor is no longer in from.
func (r *VendorRepository) UpdateStatus(ctx context.Context, id string, from, to model.VendorStatus, approvedAt *time.Time) error {
	query := `
		UPDATE vendors
		SET status = $1, approved_at = $2, updated_at = $3
		WHERE id = $4 AND status = $5
	`
	result, err := r.db.ExecContext(ctx, query, to, approvedAt, time.Now(), id, from)
	if err != nil {
		return fmt.Errorf("failed to update vendor status: %w", err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrStatusConflict
	}
	return nil
}

func scanVendor(row rowScanner) (*model.Vendor, error) {
	var v model.Vendor
	var approvedAt sql.NullTime
	err := row.Scan(
		&v.ID,
		&v.UserID,
		&v.BusinessName,
		&v.Description,
		&v.Status,
		&approvedAt,
		&v.CreatedAt,
		&v.UpdatedAt,
		&v.User.ID,
		&v.User.Email,
		&v.User.FirstName,
		&v.User.LastName,
		&v.User.Phone,
		&v.User.Role,
		&v.User.CreatedAt,
		&v.User.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan vendor: %w", err)
	}
	if approvedAt.Valid {
		v.ApprovedAt = &approvedAt.Time
	}
	return &v, nil
}

const clientSelect = `
	SELECT c.id, c.user_id, c.created_at,
	       u.id, u.email, u.first_name, u.last_name, u.phone, u.role, u.created_at, u.updated_at
	FROM clients c
	JOIN users u ON u.id = c.user_id
`

// ClientRepository handles client profile persistence
type ClientRepository struct {
	db *database.Postgres
}

// NewClientRepository creates a new ClientRepository
func NewClientRepository(db *database.Postgres) *ClientRepository {
	return &ClientRepository{db: db}
}

// GetByID retrieves a client with its user
func (r *ClientRepository) GetByID(ctx context.Context, id string) (*model.Client, error) {
	return scanClient(r.db.QueryRowContext(ctx, clientSelect+` WHERE c.id = $1`, id))
}

// GetByUserID retrieves the client profile owned by a user
func (r *ClientRepository) GetByUserID(ctx context.Context, userID string) (*model.Client, error) {
	return scanClient(r.db.QueryRowContext(ctx, clientSelect+` WHERE c.user_id = $1`, userID))
}

func scanClient(row rowScanner) (*model.Client, error) {
	var c model.Client
	err := row.Scan(
		&c.ID,
		&c.UserID,
		&c.CreatedAt,
		&c.User.ID,
		&c.User.Email,
		&c.User.FirstName,
		&c.User.LastName,
		&c.User.Phone,
		&c.User.Role,
		&c.User.CreatedAt,
		&c.User.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan client: %w", err)
	}
	return &c, nil
}
