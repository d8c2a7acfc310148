package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/weddingplanner/weddingplanner/internal/database"
	"github.com/weddingplanner/weddingplanner/internal/model"
)

const serviceSelect = `
	SELECT s.id, s.vendor_id, s.name, s.description, s.category, s.price, s.active, s.created_at, s.updated_at,
	       v.id, v.user_id, v.business_name, v.description, v.status, v.approved_at, v.created_at, v.updated_at,
	       u.id, u.email, u.first_name, u.last_name, u.phone, u.role, u.created_at, u.updated_at
	FROM services s
	JOIN vendors v ON v.id = s.vendor_id
	JOIN users u ON u.id = v.user_id
`

// ServiceRepository handles catalog persistence
type ServiceRepository struct {
	db *database.Postgres
}

// NewServiceRepository creates a new ServiceRepository
func NewServiceRepository(db *database.Postgres) *ServiceRepository {
	return &ServiceRepository{db: db}
}

// Create inserts a new service
func (r *ServiceRepository) Create(ctx context.Context, s *model.Service) error {
	query := `
		INSERT INTO services (id, vendor_id, name, description, category, price, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.ExecContext(ctx, query,
		s.ID,
		s.VendorID,
		s.Name,
		s.Description,
		s.Category,
		s.Price,
		s.Active,
		s.CreatedAt,
		s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}
	return nil
}

// GetByID retrieves a service with its vendor
func (r *ServiceRepository) GetByID(ctx context.Context, id string) (*model.Service, error) {
	return scanService(r.db.QueryRowContext(ctx, serviceSelect+` WHERE s.id = $1`, id))
}

// List returns active services of approved vendors matching filter
func (r *ServiceRepository) List(ctx context.Context, filter model.ServiceFilter) ([]*model.Service, error) {
	where := []string{"s.active = TRUE", "v.status = 'approved'"}
	args := []interface{}{}
	if filter.Category != "" {
		args = append(args, filter.Category)
		where = append(where, fmt.Sprintf("s.category = $%d", len(args)))
	}
	if filter.VendorID != "" {
		args = append(args, filter.VendorID)
		where = append(where, fmt.Sprintf("s.vendor_id = $%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	args = append(args, limit, filter.Offset)

	query := serviceSelect +
		" WHERE " + strings.Join(where, " AND ") +
		fmt.Sprintf(" ORDER BY s.created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	defer rows.Close()

	var services []*model.Service
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		services = append(services, s)
	}
	return services, rows.Err()
}

func scanService(row rowScanner) (*model.Service, error) {
	var s model.Service
	var v model.Vendor
	var approvedAt sql.NullTime
	err := row.Scan(
		&s.ID,
		&s.VendorID,
		&s.Name,
		&s.Description,
		&s.Category,
		&s.Price,
		&s.Active,
		&s.CreatedAt,
		&s.UpdatedAt,
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
		return nil, fmt.Errorf("failed to scan service: %w", err)
	}
	if approvedAt.Valid {
		v.ApprovedAt = &approvedAt.Time
	}
	s.Vendor = &v
	return &s, nil
}
