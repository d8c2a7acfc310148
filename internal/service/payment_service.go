package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/weddingplanner/weddingplanner/internal/config"
	"github.com/weddingplanner/weddingplanner/internal/database"
	"github.com/weddingplanner/weddingplanner/internal/logger"
	"github.com/weddingplanner/weddingplanner/internal/metrics"
	"github.com/weddingplanner/weddingplanner/internal/model"
	"github.com/weddingplanner/weddingplanner/internal/payment"
	"github.com/weddingplanner/weddingplanner/internal/repository"
)

const (
	txRefPrefix         = "wp-"
	txRefCacheKey       = "payment:txref:"
	verifyLockKey       = "payment:verify:"
	verifyLockTTL       = 30 * time.Second
	initiateLockKey     = "payment:initiate:"
	initiateLockTTL     = 30 * time.Second
	// A pending payment still without a checkout URL after this long was
	// abandoned mid-initiation and no longer blocks a new attempt.
	initiateStaleAfter = 2 * time.Minute
	amountTolerance     = 0.005
	checkoutTitle       = "Wedding Planner"
	checkoutDescription = "Payment for wedding service booking"
)

// PaymentService orchestrates hosted checkout and verification
type PaymentService struct {
	payments PaymentStore
	bookings BookingStore
	clients  ClientStore
	gateway  Gateway
	redis    *database.Redis
	notifier Notifier
	audit    auditor
	currency string
	cacheTTL time.Duration
	log      *logger.Logger
}

// NewPaymentService creates a new PaymentService. redis may be nil, in
// which case tx_ref lookups always hit the database.
func NewPaymentService(
	payments PaymentStore,
	bookings BookingStore,
	clients ClientStore,
	gateway Gateway,
	redis *database.Redis,
	notifier Notifier,
	auditStore AuditStore,
	cfg config.ChapaConfig,
	log *logger.Logger,
) *PaymentService {
	l := log.WithComponent("payment_service")
	return &PaymentService{
		payments: payments,
		bookings: bookings,
		clients:  clients,
		gateway:  gateway,
		redis:    redis,
		notifier: notifier,
		audit:    auditor{store: auditStore, log: l},
		currency: defaultString(cfg.Currency, "ETB"),
		cacheTTL: cfg.TxRefCache,
		log:      l,
	}
}

// InitiateRequest asks to pay for one booking
type InitiateRequest struct {
	Amount    float64 `json:"amount"`
	VendorID  string  `json:"vendorId"`
	BookingID string  `json:"bookingId"`
}

// InitiateResult is what the browser needs to redirect to the gateway
type InitiateResult struct {
	CheckoutURL string `json:"checkoutUrl"`
	TxRef       string `json:"tx_ref"`
	PaymentID   string `json:"paymentId"`
}

// Initiate validates the request against the booking and opens a hosted
// checkout. A pending payment that already has a checkout URL is reused.
func (s *PaymentService) Initiate(ctx context.Context, userID string, req InitiateRequest) (*InitiateResult, error) {
	res, err := s.initiate(ctx, userID, req)
	metrics.IncPayment("initiate", err)
	return res, err
}

func (s *PaymentService) initiate(ctx context.Context, userID string, req InitiateRequest) (*InitiateResult, error) {
	if req.BookingID == "" || req.VendorID == "" {
		return nil, fmt.Errorf("%w: bookingId and vendorId are required", ErrInvalidInput)
	}
	if req.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be greater than zero", ErrInvalidInput)
	}

	client, err := clientForUser(ctx, s.clients, userID)
	if err != nil {
		return nil, err
	}

	booking, err := s.bookings.GetByID(ctx, req.BookingID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: booking %s", ErrNotFound, req.BookingID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load booking: %w", err)
	}
	if booking.ClientID != client.ID {
		return nil, fmt.Errorf("%w: booking %s", ErrNotFound, req.BookingID)
	}
	if booking.PaymentStatus == model.BookingPaid {
		return nil, ErrAlreadyPaid
	}
	if booking.Status == model.BookingStatusCancelled {
		return nil, fmt.Errorf("%w: booking is cancelled", ErrInvalidTransition)
	}
	if booking.Service == nil || booking.Service.VendorID != req.VendorID {
		return nil, ErrVendorMismatch
	}
	if math.Abs(booking.Service.Price-req.Amount) > amountTolerance {
		return nil, ErrAmountMismatch
	}

	// One initiation per booking at a time. Without Redis the open-payment
	// index on payments(booking_id) still rejects the loser at insert.
	if s.redis != nil {
		release, err := s.redis.TryLock(ctx, initiateLockKey+booking.ID, initiateLockTTL)
		switch {
		case err != nil:
			s.log.Warn().Err(err).Str("booking_id", booking.ID).Msg("failed to take initiate lock")
		case release == nil:
			return nil, ErrPaymentInProgress
		default:
			defer func() {
				if err := release(context.WithoutCancel(ctx)); err != nil {
					s.log.Warn().Err(err).Str("booking_id", booking.ID).Msg("failed to release initiate lock")
				}
			}()
		}
	}

	existing, err := s.payments.GetLatestByBooking(ctx, booking.ID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to load existing payment: %w", err)
	}
	if err == nil {
		switch {
		case existing.Status == model.PaymentStatusCompleted:
			return nil, ErrAlreadyPaid
		case existing.Status == model.PaymentStatusPending && existing.CheckoutURL != "":
			return &InitiateResult{CheckoutURL: existing.CheckoutURL, TxRef: existing.TxRef, PaymentID: existing.ID}, nil
		case existing.Status == model.PaymentStatusPending && time.Since(existing.CreatedAt) < initiateStaleAfter:
			return nil, ErrPaymentInProgress
		case existing.Status == model.PaymentStatusPending:
			if err := s.payments.MarkFailed(ctx, existing.ID); err != nil && !errors.Is(err, repository.ErrStatusConflict) {
				return nil, fmt.Errorf("failed to expire abandoned payment: %w", err)
			}
			s.log.Warn().Str("payment_id", existing.ID).Msg("expired payment abandoned before checkout")
		}
	}

	now := time.Now()
	p := &model.Payment{
		ID:        generateID("pay"),
		BookingID: booking.ID,
		ClientID:  client.ID,
		VendorID:  booking.Service.VendorID,
		Amount:    booking.Service.Price,
		Currency:  s.currency,
		TxRef:     txRefPrefix + uuid.NewString(),
		Status:    model.PaymentStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.payments.Create(ctx, p); errors.Is(err, repository.ErrDuplicate) {
		return nil, ErrPaymentInProgress
	} else if err != nil {
		return nil, fmt.Errorf("failed to create payment: %w", err)
	}

	checkoutURL, err := s.gateway.Initialize(ctx, payment.InitializeRequest{
		Amount:      p.Amount,
		Currency:    p.Currency,
		Email:       client.User.Email,
		FirstName:   client.User.FirstName,
		LastName:    client.User.LastName,
		Phone:       client.User.Phone,
		TxRef:       p.TxRef,
		Title:       checkoutTitle,
		Description: checkoutDescription,
	})
	if err != nil {
		if markErr := s.payments.MarkFailed(ctx, p.ID); markErr != nil {
			s.log.Error().Err(markErr).Str("payment_id", p.ID).Msg("failed to mark payment failed")
		}
		return nil, fmt.Errorf("%w: %v", ErrPaymentGateway, err)
	}

	if err := s.payments.SetCheckoutURL(ctx, p.ID, checkoutURL); err != nil {
		return nil, fmt.Errorf("failed to store checkout url: %w", err)
	}
	s.cacheTxRef(ctx, p.TxRef, p.ID)

	s.log.Info().Str("payment_id", p.ID).Str("tx_ref", p.TxRef).Str("booking_id", booking.ID).Msg("payment initiated")
	s.audit.record(ctx, userID, model.AuditActionPaymentInitiated, "payment", p.ID, map[string]interface{}{
		"booking_id": booking.ID,
		"amount":     p.Amount,
	})

	return &InitiateResult{CheckoutURL: checkoutURL, TxRef: p.TxRef, PaymentID: p.ID}, nil
}

// VerifyForClient verifies a payment owned by the calling client.
func (s *PaymentService) VerifyForClient(ctx context.Context, userID, txRef string) (*model.Payment, error) {
	client, err := clientForUser(ctx, s.clients, userID)
	if err != nil {
		return nil, err
	}
	p, err := s.lookup(ctx, txRef)
	if err != nil {
		return nil, err
	}
	if p.ClientID != client.ID {
		return nil, fmt.Errorf("%w: payment %s", ErrNotFound, txRef)
	}
	return s.verify(ctx, p)
}

// Verify settles a payment from the gateway's own record. It backs the
// gateway callback, which is never trusted on its own.
func (s *PaymentService) Verify(ctx context.Context, txRef string) (*model.Payment, error) {
	p, err := s.lookup(ctx, txRef)
	if err != nil {
		return nil, err
	}
	return s.verify(ctx, p)
}

func (s *PaymentService) verify(ctx context.Context, p *model.Payment) (*model.Payment, error) {
	// Settled payments are returned as is.
	if p.Status != model.PaymentStatusPending {
		return p, nil
	}

	if s.redis != nil {
		release, err := s.redis.TryLock(ctx, verifyLockKey+p.TxRef, verifyLockTTL)
		switch {
		case err != nil:
			// The status update is conditional, so proceed unlocked.
			s.log.Warn().Err(err).Str("tx_ref", p.TxRef).Msg("failed to take verify lock")
		case release == nil:
			return nil, ErrVerifyInProgress
		default:
			defer func() {
				if err := release(context.WithoutCancel(ctx)); err != nil {
					s.log.Warn().Err(err).Str("tx_ref", p.TxRef).Msg("failed to release verify lock")
				}
			}()
		}
	}

	v, err := s.gateway.Verify(ctx, p.TxRef)
	if err != nil {
		metrics.IncPayment("verify", err)
		return nil, fmt.Errorf("%w: %v", ErrPaymentGateway, err)
	}

	switch {
	case v.Succeeded() && v.Amount > 0 && math.Abs(v.Amount-p.Amount) > amountTolerance:
		s.log.Warn().Str("tx_ref", p.TxRef).Float64("expected", p.Amount).Float64("paid", v.Amount).Msg("gateway amount mismatch")
		return s.fail(ctx, p, ErrAmountMismatch)
	case v.Succeeded():
		return s.complete(ctx, p, v.Reference)
	case v.Status == "failed" || v.Status == "cancelled":
		return s.fail(ctx, p, nil)
	default:
		// Still pending at the gateway.
		return p, nil
	}
}

func (s *PaymentService) complete(ctx context.Context, p *model.Payment, reference string) (*model.Payment, error) {
	paidAt := time.Now()
	err := s.payments.MarkCompleted(ctx, p.ID, reference, paidAt)
	if errors.Is(err, repository.ErrStatusConflict) {
		// Settled by a concurrent verification.
		return s.payments.GetByID(ctx, p.ID)
	}
	if errors.Is(err, repository.ErrAlreadySettled) {
		return s.refundDue(ctx, p, reference, paidAt)
	}
	metrics.IncPayment("verify", err)
	if err != nil {
		return nil, fmt.Errorf("failed to complete payment: %w", err)
	}

	p.Status = model.PaymentStatusCompleted
	p.GatewayReference = reference
	p.PaidAt = &paidAt
	s.forgetTxRef(ctx, p.TxRef)

	s.log.Info().Str("payment_id", p.ID).Str("booking_id", p.BookingID).Msg("payment completed")
	s.audit.record(ctx, "", model.AuditActionPaymentCompleted, "payment", p.ID, map[string]interface{}{"reference": reference})

	booking, err := s.bookings.GetByID(ctx, p.BookingID)
	if err != nil {
		s.log.Warn().Err(err).Str("payment_id", p.ID).Msg("payment completed but booking could not be loaded for email")
		return p, nil
	}
	if booking.Service != nil && booking.Service.Vendor != nil {
		if err := s.notifier.SendPaymentCompletionToVendor(ctx, p, booking, booking.Service.Vendor); err != nil {
			s.log.Warn().Err(err).Str("payment_id", p.ID).Msg("payment completed but vendor email failed")
		}
	}
	return p, nil
}

// refundDue records a second settlement of an already paid booking. The
// vendor is not told about it; the money has to go back to the client.
func (s *PaymentService) refundDue(ctx context.Context, p *model.Payment, reference string, paidAt time.Time) (*model.Payment, error) {
	metrics.IncPayment("refund_due", nil)
	p.Status = model.PaymentStatusRefundDue
	p.GatewayReference = reference
	p.PaidAt = &paidAt
	s.forgetTxRef(ctx, p.TxRef)

	s.log.Error().
		Str("payment_id", p.ID).
		Str("booking_id", p.BookingID).
		Str("tx_ref", p.TxRef).
		Str("reference", reference).
		Msg("booking already paid, payment needs a refund")
	s.audit.record(ctx, "", model.AuditActionPaymentRefundDue, "payment", p.ID, map[string]interface{}{
		"booking_id": p.BookingID,
		"reference":  reference,
		"amount":     p.Amount,
	})
	return p, nil
}

func (s *PaymentService) fail(ctx context.Context, p *model.Payment, cause error) (*model.Payment, error) {
	if err := s.payments.MarkFailed(ctx, p.ID); err != nil && !errors.Is(err, repository.ErrStatusConflict) {
		return nil, fmt.Errorf("failed to mark payment failed: %w", err)
	}
	metrics.IncPayment("verify", errors.New("failed"))
	p.Status = model.PaymentStatusFailed
	s.forgetTxRef(ctx, p.TxRef)
	s.audit.record(ctx, "", model.AuditActionPaymentFailed, "payment", p.ID, nil)

	if cause != nil {
		return nil, cause
	}
	return p, nil
}

// lookup resolves a tx_ref through the cache, falling back to the database.
func (s *PaymentService) lookup(ctx context.Context, txRef string) (*model.Payment, error) {
	if txRef == "" {
		return nil, fmt.Errorf("%w: tx_ref is required", ErrInvalidInput)
	}

	if s.redis != nil {
		if id, ok, err := s.redis.CacheGet(ctx, txRefCacheKey+txRef); err == nil && ok {
			if p, err := s.payments.GetByID(ctx, id); err == nil {
				return p, nil
			}
		}
	}

	p, err := s.payments.GetByTxRef(ctx, txRef)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: payment %s", ErrNotFound, txRef)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load payment: %w", err)
	}
	return p, nil
}

func (s *PaymentService) cacheTxRef(ctx context.Context, txRef, paymentID string) {
	if s.redis == nil || s.cacheTTL <= 0 {
		return
	}
	if err := s.redis.CacheSet(ctx, txRefCacheKey+txRef, paymentID, s.cacheTTL); err != nil {
		s.log.Warn().Err(err).Str("tx_ref", txRef).Msg("failed to cache tx_ref")
	}
}

func (s *PaymentService) forgetTxRef(ctx context.Context, txRef string) {
	if s.redis == nil {
		return
	}
	if err := s.redis.CacheDelete(ctx, txRefCacheKey+txRef); err != nil {
		s.log.Warn().Err(err).Str("tx_ref", txRef).Msg("failed to evict tx_ref")
	}
}
