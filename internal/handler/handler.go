package handler

import (
	"context"

	"github.com/weddingplanner/weddingplanner/internal/config"
	"github.com/weddingplanner/weddingplanner/internal/logger"
	"github.com/weddingplanner/weddingplanner/internal/model"
	"github.com/weddingplanner/weddingplanner/internal/service"
)

// AuthAPI is the account surface used by the auth handlers
type AuthAPI interface {
	Register(ctx context.Context, req service.RegisterRequest) (*service.AuthResult, error)
	Login(ctx context.Context, email, password string) (*service.AuthResult, error)
	Me(ctx context.Context, userID string) (*service.Profile, error)
}

// CatalogAPI is the service catalog surface
type CatalogAPI interface {
	Create(ctx context.Context, userID string, req service.CreateServiceRequest) (*model.Service, error)
	Get(ctx context.Context, id string) (*model.Service, error)
	List(ctx context.Context, filter model.ServiceFilter) ([]*model.Service, error)
	ListForVendor(ctx context.Context, userID string) ([]*model.Service, error)
}

// BookingAPI is the booking surface shared by clients and vendors
type BookingAPI interface {
	Create(ctx context.Context, userID string, req service.CreateBookingRequest) (*model.Booking, error)
	Confirm(ctx context.Context, userID, bookingID string) (*model.Booking, error)
	Cancel(ctx context.Context, userID, bookingID, reason string) (*model.Booking, error)
	Complete(ctx context.Context, userID, bookingID string) (*model.Booking, error)
	Get(ctx context.Context, userID string, role model.Role, bookingID string) (*model.Booking, error)
	ListForClient(ctx context.Context, userID string) ([]*model.Booking, error)
	ListForVendor(ctx context.Context, userID string) ([]*model.Booking, error)
}

// PaymentAPI is the checkout surface
type PaymentAPI interface {
	Initiate(ctx context.Context, userID string, req service.InitiateRequest) (*service.InitiateResult, error)
	VerifyForClient(ctx context.Context, userID, txRef string) (*model.Payment, error)
	Verify(ctx context.Context, txRef string) (*model.Payment, error)
}

// VendorAPI is the admin vendor review surface
type VendorAPI interface {
	List(ctx context.Context, status model.VendorStatus) ([]*model.Vendor, error)
	Approve(ctx context.Context, adminID, vendorID string) (*model.Vendor, error)
	Reject(ctx context.Context, adminID, vendorID string) (*model.Vendor, error)
}

// AuditAPI reads the audit trail
type AuditAPI interface {
	List(ctx context.Context, filter model.AuditFilter) ([]*model.AuditLog, error)
}

// HealthChecker is a dependency checked by /health and /ready
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Services bundles the business services the handlers call
type Services struct {
	Auth     AuthAPI
	Catalog  CatalogAPI
	Bookings BookingAPI
	Payments PaymentAPI
	Vendors  VendorAPI
	Audit    AuditAPI
}

// Handler holds all HTTP handlers
type Handler struct {
	log      *logger.Logger
	cfg      *config.Config
	checkers map[string]HealthChecker
	svc      Services
}

// New creates a new Handler instance. checkers are keyed by the name
// reported in the health response.
func New(log *logger.Logger, cfg *config.Config, checkers map[string]HealthChecker, svc Services) *Handler {
	return &Handler{
		log:      log,
		cfg:      cfg,
		checkers: checkers,
		svc:      svc,
	}
}
