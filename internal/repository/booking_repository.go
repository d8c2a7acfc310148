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

// bookingSelect loads a booking with its service, the service's vendor and
// the client, each with their user record.
const bookingSelect = `
	SELECT b.id, b.service_id, b.client_id, b.event_date, b.location, b.attendees, b.special_requests,
	       b.status, b.payment_status, b.cancellation_reason, b.created_at, b.updated_at,
	       s.id, s.vendor_id, s.name, s.description, s.category, s.price, s.active, s.created_at, s.updated_at,
	       v.id, v.user_id, v.business_name, v.description, v.status, v.approved_at, v.created_at, v.updated_at,
	       vu.id, vu.email, vu.first_name, vu.last_name, vu.phone, vu.role, vu.created_at, vu.updated_at,
	       c.id, c.user_id, c.created_at,
	       cu.id, cu.email, cu.first_name, cu.last_name, cu.phone, cu.role, cu.created_at, cu.updated_at
	FROM bookings b
	JOIN services s ON s.id = b.service_id
	JOIN vendors v ON v.id = s.vendor_id
	JOIN users vu ON vu.id = v.user_id
	JOIN clients c ON c.id = b.client_id
	JOIN users cu ON cu.id = c.user_id
`

// BookingRepository handles booking persistence
type BookingRepository struct {
	db *database.Postgres
}

// NewBookingRepository creates a new BookingRepository
func NewBookingRepository(db *database.Postgres) *BookingRepository {
	return &BookingRepository{db: db}
}

// Create inserts a new booking
func (r *BookingRepository) Create(ctx context.Context, b *model.Booking) error {
	query := `
		INSERT INTO bookings (id, service_id, client_id, event_date, location, attendees, special_requests,
		    status, payment_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.ExecContext(ctx, query,
		b.ID,
		b.ServiceID,
		b.ClientID,
		b.EventDate,
		b.Location,
		b.Attendees,
		b.SpecialRequests,
		b.Status,
		b.PaymentStatus,
		b.CreatedAt,
		b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

// GetByID retrieves a fully loaded booking
func (r *BookingRepository) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	return scanBooking(r.db.QueryRowContext(ctx, bookingSelect+` WHERE b.id = $1`, id))
}

// ListByClient returns a client's bookings, newest first
func (r *BookingRepository) ListByClient(ctx context.Context, clientID string) ([]*model.Booking, error) {
	return r.list(ctx, bookingSelect+` WHERE b.client_id = $1 ORDER BY b.created_at DESC`, clientID)
}

// ListByVendor returns bookings for all of a vendor's services, newest first
func (r *BookingRepository) ListByVendor(ctx context.Context, vendorID string) ([]*model.Booking, error) {
	return r.list(ctx, bookingSelect+` WHERE s.vendor_id = $1 ORDER BY b.created_at DESC`, vendorID)
}

func (r *BookingRepository) list(ctx context.Context, query string, args ...interface{}) ([]*model.Booking, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// UpdateStatus moves a booking from one status to another. It returns
// ErrStatusConflict when the booking is no longer in status from.
func (r *BookingRepository) UpdateStatus(ctx context.Context, id string, from, to model.BookingStatus, reason string) error {
	query := `
		UPDATE bookings
		SET status = $1, cancellation_reason = $2, updated_at = $3
		WHERE id = $4 AND status = $5
	`
	result, err := r.db.ExecContext(ctx, query, to, reason, time.Now(), id, from)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrStatusConflict
	}
	return nil
}

func scanBooking(row rowScanner) (*model.Booking, error) {
	var (
		b          model.Booking
		s          model.Service
		v          model.Vendor
		c          model.Client
		approvedAt sql.NullTime
	)
	err := row.Scan(
		&b.ID, &b.ServiceID, &b.ClientID, &b.EventDate, &b.Location, &b.Attendees, &b.SpecialRequests,
		&b.Status, &b.PaymentStatus, &b.CancellationReason, &b.CreatedAt, &b.UpdatedAt,
		&s.ID, &s.VendorID, &s.Name, &s.Description, &s.Category, &s.Price, &s.Active, &s.CreatedAt, &s.UpdatedAt,
		&v.ID, &v.UserID, &v.BusinessName, &v.Description, &v.Status, &approvedAt, &v.CreatedAt, &v.UpdatedAt,
		&v.User.ID, &v.User.Email, &v.User.FirstName, &v.User.LastName, &v.User.Phone, &v.User.Role, &v.User.CreatedAt, &v.User.UpdatedAt,
		&c.ID, &c.UserID, &c.CreatedAt,
		&c.User.ID, &c.User.Email, &c.User.FirstName, &c.User.LastName, &c.User.Phone, &c.User.Role, &c.User.CreatedAt, &c.User.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan booking: %w", err)
	}
	if approvedAt.Valid {
		v.ApprovedAt = &approvedAt.Time
	}
	s.Vendor = &v
	b.Service = &s
	b.Client = &c
	return &b, nil
}
