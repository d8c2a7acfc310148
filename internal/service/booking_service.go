package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/weddingplanner/weddingplanner/internal/logger"
	"github.com/weddingplanner/weddingplanner/internal/metrics"
	"github.com/weddingplanner/weddingplanner/internal/model"
	"github.com/weddingplanner/weddingplanner/internal/repository"
)

// BookingService handles the booking lifecycle
type BookingService struct {
	bookings BookingStore
	services ServiceStore
	vendors  VendorStore
	clients  ClientStore
	notifier Notifier
	audit    auditor
	log      *logger.Logger
	now      func() time.Time
}

// NewBookingService creates a new BookingService
func NewBookingService(
	bookings BookingStore,
	services ServiceStore,
	vendors VendorStore,
	clients ClientStore,
	notifier Notifier,
	auditStore AuditStore,
	log *logger.Logger,
) *BookingService {
	l := log.WithComponent("booking_service")
	return &BookingService{
		bookings: bookings,
		services: services,
		vendors:  vendors,
		clients:  clients,
		notifier: notifier,
		audit:    auditor{store: auditStore, log: l},
		log:      l,
		now:      time.Now,
	}
}

// CreateBookingRequest is a client's booking of one service
type CreateBookingRequest struct {
	ServiceID       string    `json:"serviceId"`
	EventDate       time.Time `json:"eventDate"`
	Location        string    `json:"location"`
	Attendees       int       `json:"attendees"`
	SpecialRequests string    `json:"specialRequests"`
}

// Create books a service for the calling client and notifies the vendor.
func (s *BookingService) Create(ctx context.Context, userID string, req CreateBookingRequest) (*model.Booking, error) {
	b, err := s.create(ctx, userID, req)
	metrics.IncBookingCreated(err)
	return b, err
}

func (s *BookingService) create(ctx context.Context, userID string, req CreateBookingRequest) (*model.Booking, error) {
	client, err := clientForUser(ctx, s.clients, userID)
	if err != nil {
		return nil, err
	}

	if req.ServiceID == "" {
		return nil, fmt.Errorf("%w: serviceId is required", ErrInvalidInput)
	}
	if !req.EventDate.After(s.now()) {
		return nil, fmt.Errorf("%w: eventDate must be in the future", ErrInvalidInput)
	}
	if req.Attendees <= 0 {
		return nil, fmt.Errorf("%w: attendees must be greater than zero", ErrInvalidInput)
	}
	location := strings.TrimSpace(req.Location)
	if location == "" {
		return nil, fmt.Errorf("%w: location is required", ErrInvalidInput)
	}

	svc, err := s.services.GetByID(ctx, req.ServiceID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: service %s", ErrNotFound, req.ServiceID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load service: %w", err)
	}
	if svc.Vendor == nil || !svc.Vendor.IsApproved() {
		return nil, ErrVendorNotApproved
	}
	if !svc.Active {
		return nil, fmt.Errorf("%w: service is not available", ErrInvalidInput)
	}

	now := s.now()
	b := &model.Booking{
		ID:              generateID("bkg"),
		ServiceID:       svc.ID,
		Service:         svc,
		ClientID:        client.ID,
		Client:          client,
		EventDate:       req.EventDate,
		Location:        location,
		Attendees:       req.Attendees,
		SpecialRequests: req.SpecialRequests,
		Status:          model.BookingStatusPending,
		PaymentStatus:   model.BookingUnpaid,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.bookings.Create(ctx, b); err != nil {
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	s.log.Info().Str("booking_id", b.ID).Str("service_id", svc.ID).Str("client_id", client.ID).Msg("booking created")
	s.audit.record(ctx, userID, model.AuditActionBookingCreated, "booking", b.ID, map[string]interface{}{"service_id": svc.ID})

	if err := s.notifier.SendNewBookingToVendor(ctx, b, svc.Vendor); err != nil {
		s.log.Warn().Err(err).Str("booking_id", b.ID).Msg("booking created but vendor email failed")
	}
	return b, nil
}

// Confirm accepts a pending booking on behalf of its vendor.
func (s *BookingService) Confirm(ctx context.Context, userID, bookingID string) (*model.Booking, error) {
	b, err := s.transition(ctx, userID, bookingID, model.BookingStatusConfirmed, "")
	if err != nil {
		return nil, err
	}
	s.audit.record(ctx, userID, model.AuditActionBookingConfirmed, "booking", b.ID, nil)
	if err := s.notifier.SendBookingConfirmationToClient(ctx, b, b.Client); err != nil {
		s.log.Warn().Err(err).Str("booking_id", b.ID).Msg("booking confirmed but client email failed")
	}
	return b, nil
}

// Cancel cancels a pending or confirmed booking on behalf of its vendor.
func (s *BookingService) Cancel(ctx context.Context, userID, bookingID, reason string) (*model.Booking, error) {
	reason = strings.TrimSpace(reason)
	b, err := s.transition(ctx, userID, bookingID, model.BookingStatusCancelled, reason)
	if err != nil {
		return nil, err
	}
	s.audit.record(ctx, userID, model.AuditActionBookingCancelled, "booking", b.ID, map[string]interface{}{"reason": reason})
	if err := s.notifier.SendBookingCancellationToClient(ctx, b, b.Client, reason); err != nil {
		s.log.Warn().Err(err).Str("booking_id", b.ID).Msg("booking cancelled but client email failed")
	}
	return b, nil
}

// Complete marks a confirmed booking as delivered.
func (s *BookingService) Complete(ctx context.Context, userID, bookingID string) (*model.Booking, error) {
	b, err := s.transition(ctx, userID, bookingID, model.BookingStatusCompleted, "")
	if err != nil {
		return nil, err
	}
	s.audit.record(ctx, userID, model.AuditActionBookingCompleted, "booking", b.ID, nil)
	if err := s.notifier.SendBookingCompletionToClient(ctx, b, b.Client); err != nil {
		s.log.Warn().Err(err).Str("booking_id", b.ID).Msg("booking completed but client email failed")
	}
	return b, nil
}

func (s *BookingService) transition(ctx context.Context, userID, bookingID string, to model.BookingStatus, reason string) (*model.Booking, error) {
	vendor, err := vendorForUser(ctx, s.vendors, userID)
	if err != nil {
		return nil, err
	}
	b, err := s.load(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.Service == nil || b.Service.VendorID != vendor.ID {
		return nil, fmt.Errorf("%w: booking belongs to another vendor", ErrForbidden)
	}
	if !b.Status.CanTransitionTo(to) {
		return nil, fmt.Errorf("%w: cannot move from %s to %s", ErrInvalidTransition, b.Status, to)
	}

	err = s.bookings.UpdateStatus(ctx, b.ID, b.Status, to, reason)
	if errors.Is(err, repository.ErrStatusConflict) {
		return nil, fmt.Errorf("%w: booking changed concurrently", ErrInvalidTransition)
	}
	if err != nil {
		return nil, err
	}

	metrics.IncBookingTransition(string(to))
	b.Status = to
	b.CancellationReason = reason
	b.UpdatedAt = s.now()
	return b, nil
}

func (s *BookingService) load(ctx context.Context, bookingID string) (*model.Booking, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: booking %s", ErrNotFound, bookingID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load booking: %w", err)
	}
	return b, nil
}

// Get returns a booking visible to the caller: its client, the vendor of
// the booked service, or an admin.
func (s *BookingService) Get(ctx context.Context, userID string, role model.Role, bookingID string) (*model.Booking, error) {
	b, err := s.load(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	switch role {
	case model.RoleAdmin:
		return b, nil
	case model.RoleClient:
		if b.Client != nil && b.Client.UserID == userID {
			return b, nil
		}
	case model.RoleVendor:
		if b.Service != nil && b.Service.Vendor != nil && b.Service.Vendor.UserID == userID {
			return b, nil
		}
	}
	// Hide existence from other users.
	return nil, fmt.Errorf("%w: booking %s", ErrNotFound, bookingID)
}

// ListForClient returns the calling client's bookings
func (s *BookingService) ListForClient(ctx context.Context, userID string) ([]*model.Booking, error) {
	client, err := clientForUser(ctx, s.clients, userID)
	if err != nil {
		return nil, err
	}
	return nonNil(s.bookings.ListByClient(ctx, client.ID))
}

// ListForVendor returns bookings of the calling vendor's services
func (s *BookingService) ListForVendor(ctx context.Context, userID string) ([]*model.Booking, error) {
	vendor, err := vendorForUser(ctx, s.vendors, userID)
	if err != nil {
		return nil, err
	}
	return nonNil(s.bookings.ListByVendor(ctx, vendor.ID))
}

func nonNil(bookings []*model.Booking, err error) ([]*model.Booking, error) {
	if err != nil {
		return nil, err
	}
	if bookings == nil {
		bookings = []*model.Booking{}
	}
	return bookings, nil
}
