package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/weddingplanner/weddingplanner/internal/logger"
	"github.com/weddingplanner/weddingplanner/internal/model"
	"github.com/weddingplanner/weddingplanner/internal/payment"
)

// Common service errors
var (
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrEmailAlreadyExists   = errors.New("email already registered")
	ErrPasswordTooWeak      = errors.New("password does not meet requirements")
	ErrInvalidInput         = errors.New("invalid input")
	ErrNotFound             = errors.New("not found")
	ErrForbidden            = errors.New("forbidden")
	ErrVendorNotApproved    = errors.New("vendor is not approved")
	ErrInvalidTransition    = errors.New("booking status does not allow this action")
	ErrAlreadyPaid          = errors.New("booking has already been paid")
	ErrAmountMismatch       = errors.New("amount does not match the service price")
	ErrVendorMismatch       = errors.New("vendor does not match the booked service")
	ErrPaymentGateway       = errors.New("payment gateway error")
	ErrVerifyInProgress     = errors.New("payment verification already in progress")
	ErrPaymentInProgress    = errors.New("a payment for this booking is already in progress")
	ErrVendorAlreadyDecided = errors.New("vendor has already been reviewed")
)

// UserStore persists user accounts.
type UserStore interface {
	CreateAccount(ctx context.Context, user *model.User, vendor *model.Vendor, client *model.Client) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	UpdatePasswordHash(ctx context.Context, id, hash string) error
}

// VendorStore persists vendor profiles.
type VendorStore interface {
	GetByID(ctx context.Context, id string) (*model.Vendor, error)
	GetByUserID(ctx context.Context, userID string) (*model.Vendor, error)
	List(ctx context.Context, status model.VendorStatus) ([]*model.Vendor, error)
	UpdateStatus(ctx context.Context, id string, from, to model.VendorStatus, approvedAt *time.Time) error
}

// ClientStore persists client profiles.
type ClientStore interface {
	GetByID(ctx context.Context, id string) (*model.Client, error)
	GetByUserID(ctx context.Context, userID string) (*model.Client, error)
}

// ServiceStore persists the service catalog.
type ServiceStore interface {
	Create(ctx context.Context, s *model.Service) error
	GetByID(ctx context.Context, id string) (*model.Service, error)
	List(ctx context.Context, filter model.ServiceFilter) ([]*model.Service, error)
}

// BookingStore persists bookings.
type BookingStore interface {
	Create(ctx context.Context, b *model.Booking) error
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	ListByClient(ctx context.Context, clientID string) ([]*model.Booking, error)
	ListByVendor(ctx context.Context, vendorID string) ([]*model.Booking, error)
	UpdateStatus(ctx context.Context, id string, from, to model.BookingStatus, reason string) error
}

// PaymentStore persists payments.
type PaymentStore interface {
	Create(ctx context.Context, p *model.Payment) error
	GetByID(ctx context.Context, id string) (*model.Payment, error)
	GetByTxRef(ctx context.Context, txRef string) (*model.Payment, error)
	GetLatestByBooking(ctx context.Context, bookingID string) (*model.Payment, error)
	SetCheckoutURL(ctx context.Context, id, checkoutURL string) error
	MarkCompleted(ctx context.Context, id, gatewayRef string, paidAt time.Time) error
	MarkFailed(ctx context.Context, id string) error
}

// AuditStore records audit entries.
type AuditStore interface {
	Create(ctx context.Context, log *model.AuditLog) error
}

// Notifier sends transactional emails. Implemented by *email.Mailer.
type Notifier interface {
	SendVendorApproval(ctx context.Context, vendor *model.Vendor) error
	SendPaymentCompletionToVendor(ctx context.Context, payment *model.Payment, booking *model.Booking, vendor *model.Vendor) error
	SendNewBookingToVendor(ctx context.Context, booking *model.Booking, vendor *model.Vendor) error
	SendBookingConfirmationToClient(ctx context.Context, booking *model.Booking, client *model.Client) error
	SendBookingCancellationToClient(ctx context.Context, booking *model.Booking, client *model.Client, reason string) error
	SendBookingCompletionToClient(ctx context.Context, booking *model.Booking, client *model.Client) error
}

// Gateway is the hosted payment provider. Implemented by *payment.Client.
type Gateway interface {
	Initialize(ctx context.Context, req payment.InitializeRequest) (string, error)
	Verify(ctx context.Context, txRef string) (*payment.Verification, error)
}

// auditor writes audit entries to the store and the structured log. Store
// failures are logged and never fail the calling operation.
type auditor struct {
	store AuditStore
	log   *logger.Logger
}

func (a auditor) record(ctx context.Context, userID, action, resourceType, resourceID string, metadata map[string]interface{}) {
	entry := &model.AuditLog{
		ID:           generateID("aud"),
		Action:       action,
		ResourceType: &resourceType,
		ResourceID:   &resourceID,
		Metadata:     metadata,
		CreatedAt:    time.Now(),
	}
	if userID != "" {
		entry.UserID = &userID
	}
	a.log.Audit(entry)
	if a.store == nil {
		return
	}
	if err := a.store.Create(ctx, entry); err != nil {
		a.log.Error().Err(err).Str("action", action).Msg("failed to create audit log")
	}
}

// Helper functions

func generateID(prefix string) string {
	id := uuid.New().String()
	// Remove hyphens and take first 26 chars to fit varchar(32) with prefix
	clean := strings.ReplaceAll(id, "-", "")
	if len(prefix) > 0 {
		return prefix + "_" + clean[:min(26, len(clean))]
	}
	return clean
}

func defaultString(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
