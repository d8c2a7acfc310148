package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/weddingplanner/weddingplanner/internal/logger"
	"github.com/weddingplanner/weddingplanner/internal/model"
	"github.com/weddingplanner/weddingplanner/internal/repository"
)

// VendorService handles admin review of vendor accounts
type VendorService struct {
	vendors  VendorStore
	notifier Notifier
	audit    auditor
	log      *logger.Logger
}

// NewVendorService creates a new VendorService
func NewVendorService(vendors VendorStore, notifier Notifier, auditStore AuditStore, log *logger.Logger) *VendorService {
	l := log.WithComponent("vendor_service")
	return &VendorService{
		vendors:  vendors,
		notifier: notifier,
		audit:    auditor{store: auditStore, log: l},
		log:      l,
	}
}

// List returns vendors, optionally filtered by status
func (s *VendorService) List(ctx context.Context, status model.VendorStatus) ([]*model.Vendor, error) {
	switch status {
	case "", model.VendorStatusPending, model.VendorStatusApproved, model.VendorStatusRejected:
	default:
		return nil, fmt.Errorf("%w: unknown vendor status %q", ErrInvalidInput, status)
	}
	return s.vendors.List(ctx, status)
}

// Approve lets a pending vendor receive bookings and emails them.
func (s *VendorService) Approve(ctx context.Context, adminID, vendorID string) (*model.Vendor, error) {
	v, err := s.review(ctx, vendorID, model.VendorStatusApproved)
	if err != nil {
		return nil, err
	}
	s.audit.record(ctx, adminID, model.AuditActionVendorApproved, "vendor", v.ID, map[string]interface{}{"business": v.BusinessName})

	if err := s.notifier.SendVendorApproval(ctx, v); err != nil {
		s.log.Warn().Err(err).Str("vendor_id", v.ID).Msg("vendor approved but approval email failed")
	}
	return v, nil
}

// Reject marks a pending vendor as rejected.
func (s *VendorService) Reject(ctx context.Context, adminID, vendorID string) (*model.Vendor, error) {
	v, err := s.review(ctx, vendorID, model.VendorStatusRejected)
	if err != nil {
		return nil, err
	}
	s.audit.record(ctx, adminID, model.AuditActionVendorRejected, "vendor", v.ID, nil)
	return v, nil
}

func (s *VendorService) review(ctx context.Context, vendorID string, status model.VendorStatus) (*model.Vendor, error) {
	v, err := s.vendors.GetByID(ctx, vendorID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: vendor %s", ErrNotFound, vendorID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load vendor: %w", err)
	}
	if v.Status != model.VendorStatusPending {
		return nil, ErrVendorAlreadyDecided
	}

	var approvedAt *time.Time
	if status == model.VendorStatusApproved {
		now := time.Now()
		approvedAt = &now
	}
	err = s.vendors.UpdateStatus(ctx, v.ID, model.VendorStatusPending, status, approvedAt)
	if errors.Is(err, repository.ErrStatusConflict) {
		// Decided by a concurrent review.
		return nil, ErrVendorAlreadyDecided
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update vendor status: %w", err)
	}

	v.Status = status
	v.ApprovedAt = approvedAt
	return v, nil
}

// vendorForUser resolves the vendor profile of an authenticated user.
func vendorForUser(ctx context.Context, vendors VendorStore, userID string) (*model.Vendor, error) {
	v, err := vendors.GetByUserID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: no vendor profile", ErrForbidden)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load vendor: %w", err)
	}
	return v, nil
}

// clientForUser resolves the client profile of an authenticated user.
func clientForUser(ctx context.Context, clients ClientStore, userID string) (*model.Client, error) {
	c, err := clients.GetByUserID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: no client profile", ErrForbidden)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load client: %w", err)
	}
	return c, nil
}
