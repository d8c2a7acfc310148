package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weddingplanner/weddingplanner/internal/logger"
	"github.com/weddingplanner/weddingplanner/internal/model"
)

func newBookingService(w *world) *BookingService {
	return NewBookingService(w.bookings, w.services, w.vendors, w.clients, w.notifier, w.audit, logger.Nop())
}

func validBookingRequest(w *world) CreateBookingRequest {
	return CreateBookingRequest{
		ServiceID:       w.service.ID,
		EventDate:       time.Now().Add(7 * 24 * time.Hour),
		Location:        "To be confirmed",
		Attendees:       50,
		SpecialRequests: "White roses",
	}
}

func TestBookingService_Create(t *testing.T) {
	w := newWorld()
	svc := newBookingService(w)

	b, err := svc.Create(context.Background(), w.client.UserID, validBookingRequest(w))
	require.NoError(t, err)

	assert.Equal(t, model.BookingStatusPending, b.Status)
	assert.Equal(t, model.BookingUnpaid, b.PaymentStatus)
	require.NotNil(t, b.Service)
	assert.Equal(t, 12500.0, b.Service.Price)
	require.NotNil(t, b.Service.Vendor)
	assert.Equal(t, w.vendor.ID, b.Service.Vendor.ID)
	assert.Equal(t, []string{"new_booking"}, w.notifier.calls)
	assert.Contains(t, w.audit.actions, model.AuditActionBookingCreated)
}

func TestBookingService_Create_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(w *world, r *CreateBookingRequest)
		userID  string
		wantErr error
	}{
		{
			name:    "past event date",
			mutate:  func(_ *world, r *CreateBookingRequest) { r.EventDate = time.Now().Add(-time.Hour) },
			wantErr: ErrInvalidInput,
		},
		{
			name:    "no attendees",
			mutate:  func(_ *world, r *CreateBookingRequest) { r.Attendees = 0 },
			wantErr: ErrInvalidInput,
		},
		{
			name:    "unknown service",
			mutate:  func(_ *world, r *CreateBookingRequest) { r.ServiceID = "svc_missing" },
			wantErr: ErrNotFound,
		},
		{
			name:    "vendor not approved",
			mutate:  func(w *world, _ *CreateBookingRequest) { w.vendors.byID[w.vendor.ID].Status = model.VendorStatusPending },
			wantErr: ErrVendorNotApproved,
		},
		{
			name:    "caller is not a client",
			mutate:  func(*world, *CreateBookingRequest) {},
			userID:  "usr_vendor",
			wantErr: ErrForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newWorld()
			req := validBookingRequest(w)
			tt.mutate(w, &req)

			userID := tt.userID
			if userID == "" {
				userID = w.client.UserID
			}

			_, err := newBookingService(w).Create(context.Background(), userID, req)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, w.bookings.byID)
			assert.Empty(t, w.notifier.calls)
		})
	}
}

func TestBookingService_Create_EmailFailureIsNotFatal(t *testing.T) {
	w := newWorld()
	w.notifier.err = errors.New("smtp down")

	b, err := newBookingService(w).Create(context.Background(), w.client.UserID, validBookingRequest(w))
	require.NoError(t, err)
	assert.NotEmpty(t, b.ID)
	assert.Len(t, w.bookings.byID, 1)
}

func TestBookingService_Lifecycle(t *testing.T) {
	w := newWorld()
	svc := newBookingService(w)
	ctx := context.Background()

	b, err := svc.Create(ctx, w.client.UserID, validBookingRequest(w))
	require.NoError(t, err)

	_, err = svc.Complete(ctx, w.vendor.UserID, b.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition, "pending cannot complete")

	confirmed, err := svc.Confirm(ctx, w.vendor.UserID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusConfirmed, confirmed.Status)

	completed, err := svc.Complete(ctx, w.vendor.UserID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusCompleted, completed.Status)

	_, err = svc.Cancel(ctx, w.vendor.UserID, b.ID, "too late")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	assert.Equal(t, []string{"new_booking", "booking_confirmed", "booking_completed"}, w.notifier.calls)
}

func TestBookingService_Cancel(t *testing.T) {
	w := newWorld()
	svc := newBookingService(w)
	ctx := context.Background()

	b, err := svc.Create(ctx, w.client.UserID, validBookingRequest(w))
	require.NoError(t, err)

	cancelled, err := svc.Cancel(ctx, w.vendor.UserID, b.ID, "  Double booked ")
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusCancelled, cancelled.Status)
	assert.Equal(t, "Double booked", cancelled.CancellationReason)
	assert.Equal(t, "booking_cancelled:Double booked", w.notifier.calls[1])
}

func TestBookingService_TransitionRequiresOwningVendor(t *testing.T) {
	w := newWorld()
	svc := newBookingService(w)
	ctx := context.Background()

	other := model.User{ID: "usr_other", Role: model.RoleVendor}
	w.users.byID[other.ID] = &other
	w.vendors.put(&model.Vendor{ID: "vnd_2", UserID: other.ID, User: other, Status: model.VendorStatusApproved})

	b, err := svc.Create(ctx, w.client.UserID, validBookingRequest(w))
	require.NoError(t, err)

	_, err = svc.Confirm(ctx, other.ID, b.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestBookingService_GetVisibility(t *testing.T) {
	w := newWorld()
	svc := newBookingService(w)
	ctx := context.Background()

	b, err := svc.Create(ctx, w.client.UserID, validBookingRequest(w))
	require.NoError(t, err)

	w.bookings.byID[b.ID].Service.Vendor = w.vendor

	_, err = svc.Get(ctx, w.client.UserID, model.RoleClient, b.ID)
	assert.NoError(t, err)
	_, err = svc.Get(ctx, w.vendor.UserID, model.RoleVendor, b.ID)
	assert.NoError(t, err)
	_, err = svc.Get(ctx, "usr_admin", model.RoleAdmin, b.ID)
	assert.NoError(t, err)
	_, err = svc.Get(ctx, "usr_stranger", model.RoleClient, b.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBookingService_Lists(t *testing.T) {
	w := newWorld()
	svc := newBookingService(w)
	ctx := context.Background()

	_, err := svc.Create(ctx, w.client.UserID, validBookingRequest(w))
	require.NoError(t, err)

	mine, err := svc.ListForClient(ctx, w.client.UserID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	theirs, err := svc.ListForVendor(ctx, w.vendor.UserID)
	require.NoError(t, err)
	assert.Len(t, theirs, 1)

	_, err = svc.ListForVendor(ctx, w.client.UserID)
	assert.ErrorIs(t, err, ErrForbidden)
}
