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

const paymentColumns = `id, booking_id, client_id, vendor_id, amount, currency, tx_ref, checkout_url,
	status, gateway_reference, paid_at, created_at, updated_at`

// PaymentRepository handles payment persistence
type PaymentRepository struct {
	db *database.Postgres
}

// NewPaymentRepository creates a new PaymentRepository
func NewPaymentRepository(db *database.Postgres) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create inserts a new payment
func (r *PaymentRepository) Create(ctx context.Context, p *model.Payment) error {
	query := `
		INSERT INTO payments (id, booking_id, client_id, vendor_id, amount, currency, tx_ref, checkout_url,
		    status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.ExecContext(ctx, query,
		p.ID,
		p.BookingID,
		p.ClientID,
		p.VendorID,
		p.Amount,
		p.Currency,
		p.TxRef,
		p.CheckoutURL,
		p.Status,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

// GetByID retrieves a payment by ID
func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*model.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	return scanPayment(r.db.QueryRowContext(ctx, query, id))
}

// GetByTxRef retrieves a payment by its gateway transaction reference
func (r *PaymentRepository) GetByTxRef(ctx context.Context, txRef string) (*model.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE tx_ref = $1`
	return scanPayment(r.db.QueryRowContext(ctx, query, txRef))
}

// GetLatestByBooking returns the most recent payment attempt for a booking
func (r *PaymentRepository) GetLatestByBooking(ctx context.Context, bookingID string) (*model.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE booking_id = $1 ORDER BY created_at DESC LIMIT 1`
	return scanPayment(r.db.QueryRowContext(ctx, query, bookingID))
}

// SetCheckoutURL stores the hosted checkout link returned by the gateway
func (r *PaymentRepository) SetCheckoutURL(ctx context.Context, id, checkoutURL string) error {
	query := `UPDATE payments SET checkout_url = $1, updated_at = $2 WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, checkoutURL, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to set checkout url: %w", err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkCompleted settles a pending payment and flags its booking as paid in
// one transaction. It returns ErrStatusConflict when the payment is not
// pending. When the booking was already paid by another payment, this one
// is stored as refund_due and ErrAlreadySettled is returned.
func (r *PaymentRepository) MarkCompleted(ctx context.Context, id, gatewayRef string, paidAt time.Time) error {
	var duplicate bool
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		var bookingID string
		err := tx.QueryRowContext(ctx,
			`SELECT booking_id FROM payments WHERE id = $1 AND status = $2 FOR UPDATE`,
			id, model.PaymentStatusPending,
		).Scan(&bookingID)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrStatusConflict
		}
		if err != nil {
			return fmt.Errorf("failed to lock payment: %w", err)
		}

		result, err := tx.ExecContext(ctx,
			`UPDATE bookings SET payment_status = $1, updated_at = $2 WHERE id = $3 AND payment_status = $4`,
			model.BookingPaid, paidAt, bookingID, model.BookingUnpaid,
		)
		if err != nil {
			return fmt.Errorf("failed to mark booking paid: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to mark booking paid: %w", err)
		}

		status := model.PaymentStatusCompleted
		if rows == 0 {
			status = model.PaymentStatusRefundDue
			duplicate = true
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE payments
			SET status = $1, gateway_reference = $2, paid_at = $3, updated_at = $3
			WHERE id = $4
		`, status, gatewayRef, paidAt, id)
		if err != nil {
			return fmt.Errorf("failed to complete payment: %w", err)
		}
		return nil
	})
	if err == nil && duplicate {
		return ErrAlreadySettled
	}
	return err
}

// MarkFailed flags a pending payment as failed
func (r *PaymentRepository) MarkFailed(ctx context.Context, id string) error {
	query := `UPDATE payments SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`
	result, err := r.db.ExecContext(ctx, query, model.PaymentStatusFailed, time.Now(), id, model.PaymentStatusPending)
	if err != nil {
		return fmt.Errorf("failed to mark payment failed: %w", err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrStatusConflict
	}
	return nil
}

func scanPayment(row rowScanner) (*model.Payment, error) {
	var p model.Payment
	var paidAt sql.NullTime
	err := row.Scan(
		&p.ID,
		&p.BookingID,
		&p.ClientID,
		&p.VendorID,
		&p.Amount,
		&p.Currency,
		&p.TxRef,
		&p.CheckoutURL,
		&p.Status,
		&p.GatewayReference,
		&paidAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan payment: %w", err)
	}
	if paidAt.Valid {
		p.PaidAt = &paidAt.Time
	}
	return &p, nil
}
