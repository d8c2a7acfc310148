package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weddingplanner/weddingplanner/internal/config"
	"github.com/weddingplanner/weddingplanner/internal/database"
	"github.com/weddingplanner/weddingplanner/internal/logger"
	"github.com/weddingplanner/weddingplanner/internal/model"
	"github.com/weddingplanner/weddingplanner/internal/payment"
)

func newTestRedis(t *testing.T) (*database.Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return database.NewRedisFromClient(client), mr
}

func newPaymentService(w *world, rdb *database.Redis) *PaymentService {
	return NewPaymentService(
		w.payments, w.bookings, w.clients, w.gateway, rdb, w.notifier, w.audit,
		config.ChapaConfig{Currency: "ETB", TxRefCache: time.Hour},
		logger.Nop(),
	)
}

func seedBooking(t *testing.T, w *world) *model.Booking {
	t.Helper()
	b, err := newBookingService(w).Create(context.Background(), w.client.UserID, validBookingRequest(w))
	require.NoError(t, err)
	w.notifier.calls = nil
	return b
}

func TestPaymentService_Initiate(t *testing.T) {
	w := newWorld()
	rdb, mr := newTestRedis(t)
	svc := newPaymentService(w, rdb)
	b := seedBooking(t, w)

	res, err := svc.Initiate(context.Background(), w.client.UserID, InitiateRequest{
		Amount: 12500, VendorID: w.vendor.ID, BookingID: b.ID,
	})
	require.NoError(t, err)

	assert.Equal(t, "https://checkout.chapa.co/checkout/payment/abc", res.CheckoutURL)
	assert.True(t, strings.HasPrefix(res.TxRef, "wp-"))
	assert.NotEmpty(t, res.PaymentID)

	stored, err := w.payments.GetByID(context.Background(), res.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPending, stored.Status)
	assert.Equal(t, res.CheckoutURL, stored.CheckoutURL)
	assert.Equal(t, "ETB", stored.Currency)

	cached, err := mr.Get(txRefCacheKey + res.TxRef)
	require.NoError(t, err)
	assert.Equal(t, res.PaymentID, cached)

	require.Len(t, w.gateway.initCalls, 1)
	assert.Equal(t, "client@example.com", w.gateway.initCalls[0].Email)
	assert.Equal(t, res.TxRef, w.gateway.initCalls[0].TxRef)
}

func TestPaymentService_Initiate_ReusesPendingCheckout(t *testing.T) {
	w := newWorld()
	svc := newPaymentService(w, nil)
	b := seedBooking(t, w)
	req := InitiateRequest{Amount: 12500, VendorID: w.vendor.ID, BookingID: b.ID}

	first, err := svc.Initiate(context.Background(), w.client.UserID, req)
	require.NoError(t, err)
	second, err := svc.Initiate(context.Background(), w.client.UserID, req)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, w.gateway.initCalls, 1)
}

func TestPaymentService_Initiate_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(w *world, b *model.Booking, r *InitiateRequest)
		wantErr error
	}{
		{
			name:    "amount differs from price",
			mutate:  func(_ *world, _ *model.Booking, r *InitiateRequest) { r.Amount = 100 },
			wantErr: ErrAmountMismatch,
		},
		{
			name:    "vendor differs",
			mutate:  func(_ *world, _ *model.Booking, r *InitiateRequest) { r.VendorID = "vnd_other" },
			wantErr: ErrVendorMismatch,
		},
		{
			name:    "already paid",
			mutate:  func(w *world, b *model.Booking, _ *InitiateRequest) { w.bookings.markPaid(b.ID) },
			wantErr: ErrAlreadyPaid,
		},
		{
			name:    "unknown booking",
			mutate:  func(_ *world, _ *model.Booking, r *InitiateRequest) { r.BookingID = "bkg_missing" },
			wantErr: ErrNotFound,
		},
		{
			name:    "zero amount",
			mutate:  func(_ *world, _ *model.Booking, r *InitiateRequest) { r.Amount = 0 },
			wantErr: ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newWorld()
			b := seedBooking(t, w)
			req := InitiateRequest{Amount: 12500, VendorID: w.vendor.ID, BookingID: b.ID}
			tt.mutate(w, b, &req)

			_, err := newPaymentService(w, nil).Initiate(context.Background(), w.client.UserID, req)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, w.gateway.initCalls)
		})
	}
}

func TestPaymentService_Initiate_GatewayFailureMarksFailed(t *testing.T) {
	w := newWorld()
	w.gateway.initErr = &payment.GatewayError{StatusCode: 400, Message: "bad request"}
	b := seedBooking(t, w)

	_, err := newPaymentService(w, nil).Initiate(context.Background(), w.client.UserID, InitiateRequest{
		Amount: 12500, VendorID: w.vendor.ID, BookingID: b.ID,
	})
	assert.ErrorIs(t, err, ErrPaymentGateway)

	require.Len(t, w.payments.byID, 1)
	for _, p := range w.payments.byID {
		assert.Equal(t, model.PaymentStatusFailed, p.Status)
	}
}

func TestPaymentService_Initiate_Concurrent(t *testing.T) {
	for _, withRedis := range []bool{false, true} {
		name := "without redis"
		if withRedis {
			name = "with redis"
		}
		t.Run(name, func(t *testing.T) {
			w := newWorld()
			var rdb *database.Redis
			if withRedis {
				rdb, _ = newTestRedis(t)
			}
			svc := newPaymentService(w, rdb)
			b := seedBooking(t, w)
			req := InitiateRequest{Amount: 12500, VendorID: w.vendor.ID, BookingID: b.ID}

			// The first request stalls at the gateway after creating its payment.
			w.gateway.block = make(chan struct{})
			type result struct {
				res *InitiateResult
				err error
			}
			done := make(chan result, 1)
			go func() {
				res, err := svc.Initiate(context.Background(), w.client.UserID, req)
				done <- result{res, err}
			}()
			require.Eventually(t, func() bool { return w.payments.count() == 1 }, time.Second, 5*time.Millisecond)

			_, err := svc.Initiate(context.Background(), w.client.UserID, req)
			assert.ErrorIs(t, err, ErrPaymentInProgress)

			close(w.gateway.block)
			first := <-done
			require.NoError(t, first.err)
			assert.NotEmpty(t, first.res.CheckoutURL)

			assert.Equal(t, 1, w.payments.count())
			assert.Len(t, w.gateway.initCalls, 1)
		})
	}
}

func TestPaymentService_Initiate_LockHeld(t *testing.T) {
	w := newWorld()
	rdb, mr := newTestRedis(t)
	svc := newPaymentService(w, rdb)
	b := seedBooking(t, w)

	require.NoError(t, mr.Set(initiateLockKey+b.ID, "other"))
	_, err := svc.Initiate(context.Background(), w.client.UserID, InitiateRequest{
		Amount: 12500, VendorID: w.vendor.ID, BookingID: b.ID,
	})
	assert.ErrorIs(t, err, ErrPaymentInProgress)
	assert.Zero(t, w.payments.count())
	assert.Empty(t, w.gateway.initCalls)
}

func TestPaymentService_Initiate_ExpiresAbandonedPending(t *testing.T) {
	w := newWorld()
	svc := newPaymentService(w, nil)
	b := seedBooking(t, w)

	old := time.Now().Add(-2 * initiateStaleAfter)
	w.payments.byID["pay_stale"] = &model.Payment{
		ID: "pay_stale", BookingID: b.ID, ClientID: w.client.ID, VendorID: w.vendor.ID,
		Amount: 12500, TxRef: "wp-stale", Status: model.PaymentStatusPending, CreatedAt: old, UpdatedAt: old,
	}

	res, err := svc.Initiate(context.Background(), w.client.UserID, InitiateRequest{
		Amount: 12500, VendorID: w.vendor.ID, BookingID: b.ID,
	})
	require.NoError(t, err)
	assert.NotEqual(t, "pay_stale", res.PaymentID)
	assert.Equal(t, model.PaymentStatusFailed, w.payments.byID["pay_stale"].Status)
}

func initiated(t *testing.T, w *world, svc *PaymentService) *InitiateResult {
	t.Helper()
	b := seedBooking(t, w)
	res, err := svc.Initiate(context.Background(), w.client.UserID, InitiateRequest{
		Amount: 12500, VendorID: w.vendor.ID, BookingID: b.ID,
	})
	require.NoError(t, err)
	return res
}

func TestPaymentService_Verify_Success(t *testing.T) {
	w := newWorld()
	rdb, mr := newTestRedis(t)
	svc := newPaymentService(w, rdb)
	res := initiated(t, w, svc)

	p, err := svc.VerifyForClient(context.Background(), w.client.UserID, res.TxRef)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusCompleted, p.Status)
	assert.Equal(t, "APx1", p.GatewayReference)
	require.NotNil(t, p.PaidAt)

	booking, err := w.bookings.GetByID(context.Background(), p.BookingID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingPaid, booking.PaymentStatus)
	assert.Equal(t, []string{"payment_completed"}, w.notifier.calls)

	assert.False(t, mr.Exists(txRefCacheKey+res.TxRef))
	assert.False(t, mr.Exists(verifyLockKey+res.TxRef))
}

func TestPaymentService_Verify_Idempotent(t *testing.T) {
	w := newWorld()
	svc := newPaymentService(w, nil)
	res := initiated(t, w, svc)

	_, err := svc.Verify(context.Background(), res.TxRef)
	require.NoError(t, err)
	p, err := svc.Verify(context.Background(), res.TxRef)
	require.NoError(t, err)

	assert.Equal(t, model.PaymentStatusCompleted, p.Status)
	assert.Equal(t, 1, w.gateway.verifyCalls)
	assert.Equal(t, []string{"payment_completed"}, w.notifier.calls)
}

func TestPaymentService_Verify_SecondSettlementIsRefundDue(t *testing.T) {
	w := newWorld()
	svc := newPaymentService(w, nil)
	res := initiated(t, w, svc)

	// A second open payment for the same booking, as left by rows written
	// before the open-payment index existed.
	first := w.payments.byID[res.PaymentID]
	now := time.Now()
	w.payments.byID["pay_twin"] = &model.Payment{
		ID: "pay_twin", BookingID: first.BookingID, ClientID: first.ClientID, VendorID: first.VendorID,
		Amount: first.Amount, Currency: "ETB", TxRef: "wp-twin", Status: model.PaymentStatusPending,
		CreatedAt: now, UpdatedAt: now,
	}

	p, err := svc.Verify(context.Background(), res.TxRef)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusCompleted, p.Status)

	twin, err := svc.Verify(context.Background(), "wp-twin")
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusRefundDue, twin.Status)
	assert.Equal(t, "APx1", twin.GatewayReference)

	stored, err := w.payments.GetByID(context.Background(), "pay_twin")
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusRefundDue, stored.Status)

	assert.Equal(t, []string{"payment_completed"}, w.notifier.calls)
	assert.Contains(t, w.audit.actions, model.AuditActionPaymentRefundDue)
}

func TestPaymentService_Verify_Failed(t *testing.T) {
	w := newWorld()
	w.gateway.verification = &payment.Verification{Status: "failed"}
	svc := newPaymentService(w, nil)
	res := initiated(t, w, svc)

	p, err := svc.Verify(context.Background(), res.TxRef)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusFailed, p.Status)
	assert.Empty(t, w.notifier.calls)
}

func TestPaymentService_Verify_StillPending(t *testing.T) {
	w := newWorld()
	w.gateway.verification = &payment.Verification{Status: "pending"}
	svc := newPaymentService(w, nil)
	res := initiated(t, w, svc)

	p, err := svc.Verify(context.Background(), res.TxRef)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusPending, p.Status)
}

func TestPaymentService_Verify_AmountMismatch(t *testing.T) {
	w := newWorld()
	w.gateway.verification = &payment.Verification{Status: "success", Amount: 10}
	svc := newPaymentService(w, nil)
	res := initiated(t, w, svc)

	_, err := svc.Verify(context.Background(), res.TxRef)
	assert.ErrorIs(t, err, ErrAmountMismatch)

	stored, err := w.payments.GetByID(context.Background(), res.PaymentID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusFailed, stored.Status)
}

func TestPaymentService_Verify_InProgress(t *testing.T) {
	w := newWorld()
	rdb, mr := newTestRedis(t)
	svc := newPaymentService(w, rdb)
	res := initiated(t, w, svc)

	require.NoError(t, mr.Set(verifyLockKey+res.TxRef, "1"))
	_, err := svc.Verify(context.Background(), res.TxRef)
	assert.ErrorIs(t, err, ErrVerifyInProgress)
	assert.Zero(t, w.gateway.verifyCalls)
}

func TestPaymentService_Verify_GatewayError(t *testing.T) {
	w := newWorld()
	w.gateway.verifyErr = errors.New("timeout")
	svc := newPaymentService(w, nil)
	res := initiated(t, w, svc)

	_, err := svc.Verify(context.Background(), res.TxRef)
	assert.ErrorIs(t, err, ErrPaymentGateway)
}

func TestPaymentService_VerifyForClient_OtherClient(t *testing.T) {
	w := newWorld()
	svc := newPaymentService(w, nil)
	res := initiated(t, w, svc)

	other := model.User{ID: "usr_other", Role: model.RoleClient}
	w.clients.put(&model.Client{ID: "cli_2", UserID: other.ID, User: other})

	_, err := svc.VerifyForClient(context.Background(), other.ID, res.TxRef)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Zero(t, w.gateway.verifyCalls)
}

func TestPaymentService_Verify_UnknownTxRef(t *testing.T) {
	w := newWorld()
	_, err := newPaymentService(w, nil).Verify(context.Background(), "wp-unknown")
	assert.ErrorIs(t, err, ErrNotFound)
}
