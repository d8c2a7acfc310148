package weddingplanner

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Booking defaults applied to every cart item. The client edits them
// after checkout.
const (
	DefaultEventLead = 7 * 24 * time.Hour
	DefaultLocation  = "To be confirmed"
	DefaultAttendees = 50
)

// LoginPath is where unauthenticated users are sent.
const LoginPath = "/login"

var (
	// ErrCheckoutInProgress is returned when Checkout is called while a
	// previous call is still running.
	ErrCheckoutInProgress = errors.New("weddingplanner: checkout already in progress")

	// ErrLoginRequired is returned when no auth token is stored.
	ErrLoginRequired = errors.New("weddingplanner: login required")

	// ErrNoBookings is returned when the cart produced no bookings.
	ErrNoBookings = errors.New("weddingplanner: no bookings were created")

	// ErrInvalidPaymentData is returned when the payment response has no
	// checkout URL.
	ErrInvalidPaymentData = errors.New("weddingplanner: invalid payment data received")
)

// notices holds the user-facing text for checkout's own errors.
var notices = map[error]string{
	ErrNoBookings:         "No bookings were created",
	ErrInvalidPaymentData: "Invalid payment data received",
}

// notice returns the text shown to the user for err.
func notice(err error) string {
	if msg, ok := notices[err]; ok {
		return msg
	}
	return Message(err)
}

// CheckoutAPI is the part of the REST API checkout needs. *Client
// implements it.
type CheckoutAPI interface {
	CreateBooking(ctx context.Context, token string, req BookingRequest) (*Booking, error)
	InitiatePayment(ctx context.Context, token string, req PaymentRequest) (*PaymentInit, error)
}

// PartialCheckoutError reports a failure after some bookings were already
// created. Created bookings are not rolled back; callers may cancel them.
type PartialCheckoutError struct {
	Created []*Booking
	Err     error
}

func (e *PartialCheckoutError) Error() string {
	return fmt.Sprintf("checkout failed after creating %d booking(s): %v", len(e.Created), e.Err)
}

func (e *PartialCheckoutError) Unwrap() error { return e.Err }

// Result describes a successful checkout.
type Result struct {
	// Bookings holds one booking per cart item, in cart order.
	Bookings []*Booking
	// Payment is the checkout opened for the first booking.
	Payment *PaymentInit
	// UnpaidBookings are the bookings after the first. Only one payment
	// is opened per checkout, so these still need paying.
	UnpaidBookings []*Booking
}

// CheckoutConfig wires a Checkout to its collaborators. Logger and Now are
// optional.
type CheckoutConfig struct {
	API       CheckoutAPI
	Cart      Cart
	Session   SessionStore
	Navigator Navigator
	Notifier  Notifier
	Logger    *zerolog.Logger
	Now       func() time.Time
}

// Checkout turns the cart into bookings and sends the user to pay for the
// first one.
type Checkout struct {
	api        CheckoutAPI
	cart       Cart
	session    SessionStore
	nav        Navigator
	notify     Notifier
	log        zerolog.Logger
	now        func() time.Time
	processing atomic.Bool
}

// NewCheckout validates cfg and returns a Checkout.
func NewCheckout(cfg CheckoutConfig) (*Checkout, error) {
	switch {
	case cfg.API == nil:
		return nil, errors.New("weddingplanner: checkout requires an API")
	case cfg.Cart == nil:
		return nil, errors.New("weddingplanner: checkout requires a cart")
	case cfg.Session == nil:
		return nil, errors.New("weddingplanner: checkout requires a session store")
	case cfg.Navigator == nil:
		return nil, errors.New("weddingplanner: checkout requires a navigator")
	case cfg.Notifier == nil:
		return nil, errors.New("weddingplanner: checkout requires a notifier")
	}

	c := &Checkout{
		api:     cfg.API,
		cart:    cfg.Cart,
		session: cfg.Session,
		nav:     cfg.Navigator,
		notify:  cfg.Notifier,
		log:     zerolog.Nop(),
		now:     time.Now,
	}
	if cfg.Logger != nil {
		c.log = cfg.Logger.With().Str("component", "checkout").Logger()
	}
	if cfg.Now != nil {
		c.now = cfg.Now
	}
	return c, nil
}

// Processing reports whether a checkout is running.
func (c *Checkout) Processing() bool {
	return c.processing.Load()
}

// Checkout creates one booking per cart item concurrently, then opens a
// payment for the first booking. On success the cart is cleared, the
// transaction reference and payment id are stored in session scope, and
// the user is redirected to the hosted checkout.
//
// Any failure leaves the cart untouched and notifies the user. If some
// bookings were created before the failure, the error is a
// *PartialCheckoutError listing them.
func (c *Checkout) Checkout(ctx context.Context) (*Result, error) {
	if !c.processing.CompareAndSwap(false, true) {
		return nil, ErrCheckoutInProgress
	}
	defer c.processing.Store(false)

	token := lookupToken(c.session)
	if token == "" {
		c.log.Debug().Msg("no auth token, redirecting to login")
		c.notify.Info("Please log in to complete your purchase")
		c.nav.Navigate(LoginPath)
		return nil, ErrLoginRequired
	}

	items := c.cart.Items()
	c.log.Debug().Int("items", len(items)).Msg("processing cart")

	bookings, err := c.createBookings(ctx, token, items)
	if err != nil {
		return nil, c.fail(bookings, err)
	}
	if len(bookings) == 0 {
		return nil, c.fail(nil, ErrNoBookings)
	}

	first := bookings[0]
	payment, err := c.initiatePayment(ctx, token, first)
	if err != nil {
		c.notify.Error("Failed to initiate payment: " + Message(err))
		return nil, c.fail(bookings, err)
	}
	if payment == nil || payment.CheckoutURL == "" {
		return nil, c.fail(bookings, ErrInvalidPaymentData)
	}

	res := &Result{
		Bookings:       bookings,
		Payment:        payment,
		UnpaidBookings: bookings[1:],
	}
	if len(res.UnpaidBookings) > 0 {
		ids := make([]string, len(res.UnpaidBookings))
		for i, b := range res.UnpaidBookings {
			ids[i] = b.ID
		}
		c.log.Warn().
			Str("paid_booking_id", first.ID).
			Strs("unpaid_booking_ids", ids).
			Msg("checkout pays for the first booking only")
	}

	c.cart.Clear()
	c.notify.Info("Redirecting to payment page...")
	c.session.Set(ScopeSession, KeyPaymentTxRef, payment.TxRef)
	c.session.Set(ScopeSession, KeyPaymentID, payment.PaymentID)

	c.log.Info().
		Str("tx_ref", payment.TxRef).
		Str("booking_id", first.ID).
		Msg("redirecting to payment page")
	c.nav.Redirect(payment.CheckoutURL)
	return res, nil
}

// createBookings submits all booking requests at once and waits for every
// one to finish. On failure it returns the bookings that did succeed
// alongside the first failure in cart order.
func (c *Checkout) createBookings(ctx context.Context, token string, items []CartItem) ([]*Booking, error) {
	eventDate := c.now().UTC().Add(DefaultEventLead).Truncate(time.Millisecond)

	results := make([]*Booking, len(items))
	errs := make([]error, len(items))

	var g errgroup.Group
	for i, item := range items {
		g.Go(func() error {
			b, err := c.api.CreateBooking(ctx, token, BookingRequest{
				ServiceID:       item.ID,
				EventDate:       eventDate,
				Location:        DefaultLocation,
				Attendees:       DefaultAttendees,
				SpecialRequests: item.Description,
			})
			if err != nil {
				errs[i] = err
				return err
			}
			results[i] = b
			return nil
		})
	}
	// Errors are kept per item so the reported failure follows cart order.
	_ = g.Wait()

	var firstErr error
	created := make([]*Booking, 0, len(items))
	for i, b := range results {
		if errs[i] != nil {
			if firstErr == nil {
				firstErr = errs[i]
			}
			c.log.Error().Err(errs[i]).Str("service_id", items[i].ID).Msg("failed to create booking")
			c.notify.Error("Failed to create booking: " + Message(errs[i]))
			continue
		}
		if b != nil {
			created = append(created, b)
		}
	}
	return created, firstErr
}

func (c *Checkout) initiatePayment(ctx context.Context, token string, b *Booking) (*PaymentInit, error) {
	if b.Service == nil {
		return nil, fmt.Errorf("booking %s has no service details", b.ID)
	}
	vendorID := b.Service.VendorID
	if b.Service.Vendor != nil && b.Service.Vendor.ID != "" {
		vendorID = b.Service.Vendor.ID
	}
	return c.api.InitiatePayment(ctx, token, PaymentRequest{
		Amount:    b.Service.Price,
		VendorID:  vendorID,
		BookingID: b.ID,
	})
}

// fail notifies the user and wraps err when bookings were left behind.
func (c *Checkout) fail(created []*Booking, err error) error {
	c.log.Error().Err(err).Int("created_bookings", len(created)).Msg("checkout failed")
	c.notify.Error("Checkout failed: " + notice(err))
	if len(created) == 0 {
		return err
	}
	ids := make([]string, len(created))
	for i, b := range created {
		ids[i] = b.ID
	}
	c.log.Warn().Strs("booking_ids", ids).Msg("bookings created before the failure were not rolled back")
	return &PartialCheckoutError{Created: created, Err: err}
}
