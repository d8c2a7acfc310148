package email

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/weddingplanner/weddingplanner/internal/config"
	"github.com/weddingplanner/weddingplanner/internal/logger"
	"github.com/weddingplanner/weddingplanner/internal/metrics"
	"github.com/weddingplanner/weddingplanner/internal/model"
)

// DefaultFrom is used when no From header is configured.
const DefaultFrom = `"Wedding Planner" <noreply@weddingplanner.com>`

// Mailer renders transactional templates and hands them to a Sender. Each
// call performs exactly one send and returns the transport error wrapped.
type Mailer struct {
	sender      Sender
	from        string
	frontendURL string
	currency    string
	production  bool
	log         *logger.Logger
}

// NewMailer creates a Mailer
func NewMailer(sender Sender, cfg config.EmailConfig, currency string, log *logger.Logger) *Mailer {
	from := cfg.From
	if from == "" {
		from = DefaultFrom
	}
	return &Mailer{
		sender:      sender,
		from:        from,
		frontendURL: strings.TrimSuffix(cfg.FrontendURL, "/"),
		currency:    currency,
		production:  cfg.IsProduction(),
		log:         log.WithComponent("mailer"),
	}
}

// SendEmail sends an arbitrary HTML email and returns its message id.
func (m *Mailer) SendEmail(ctx context.Context, to, subject, htmlBody string) (string, error) {
	return m.send(ctx, "generic", to, subject, htmlBody)
}

func (m *Mailer) send(ctx context.Context, template, to, subject, htmlBody string) (string, error) {
	if to == "" {
		err := fmt.Errorf("email %q: recipient address is empty", template)
		metrics.IncEmailSent(template, err)
		return "", err
	}

	msg := Message{
		ID:       uuid.NewString() + "@weddingplanner",
		From:     m.from,
		To:       to,
		Subject:  subject,
		HTMLBody: htmlBody,
	}

	err := m.sender.Send(ctx, msg)
	metrics.IncEmailSent(template, err)
	if err != nil {
		m.log.Error().Err(err).Str("template", template).Str("to", to).Msg("failed to send email")
		return "", fmt.Errorf("failed to send %s email: %w", template, err)
	}

	if !m.production {
		m.log.Debug().Str("message_id", msg.ID).Str("template", template).Str("to", to).Msg("email sent")
	}
	return msg.ID, nil
}

// SendVendorApproval tells a vendor their account was approved.
func (m *Mailer) SendVendorApproval(ctx context.Context, vendor *model.Vendor) error {
	body := VendorApprovalHTML(m.frontendURL, vendor.User.FirstName, vendor.BusinessName)
	_, err := m.send(ctx, "vendor_approval", vendor.User.Email, SubjectVendorApproved, body)
	return err
}

// SendPaymentCompletionToVendor tells a vendor a booking was paid for.
func (m *Mailer) SendPaymentCompletionToVendor(ctx context.Context, payment *model.Payment, booking *model.Booking, vendor *model.Vendor) error {
	currency := payment.Currency
	if currency == "" {
		currency = m.currency
	}
	body := PaymentReceivedHTML(PaymentReceivedView{
		FrontendURL:     m.frontendURL,
		VendorFirstName: vendor.User.FirstName,
		BookingID:       booking.ID,
		ServiceName:     serviceName(booking),
		ClientName:      clientName(booking),
		Amount:          FormatAmount(currency, payment.Amount),
		EventDate:       FormatDate(booking.EventDate),
		PaymentID:       payment.ID,
	})
	_, err := m.send(ctx, "payment_completed", vendor.User.Email, SubjectPaymentReceived, body)
	return err
}

// SendNewBookingToVendor tells a vendor about a new booking request.
func (m *Mailer) SendNewBookingToVendor(ctx context.Context, booking *model.Booking, vendor *model.Vendor) error {
	v := m.bookingView(booking, vendor.User.FirstName)
	_, err := m.send(ctx, "new_booking", vendor.User.Email, SubjectNewBooking, NewBookingHTML(v))
	return err
}

// SendBookingConfirmationToClient tells a client the vendor confirmed.
func (m *Mailer) SendBookingConfirmationToClient(ctx context.Context, booking *model.Booking, client *model.Client) error {
	v := m.bookingView(booking, client.User.FirstName)
	_, err := m.send(ctx, "booking_confirmed", client.User.Email, SubjectBookingConfirmed, BookingConfirmedHTML(v))
	return err
}

// noCancellationReason fills the reason line when the vendor gave none.
const noCancellationReason = "No reason provided"

// SendBookingCancellationToClient tells a client the vendor cancelled and why.
func (m *Mailer) SendBookingCancellationToClient(ctx context.Context, booking *model.Booking, client *model.Client, reason string) error {
	v := m.bookingView(booking, client.User.FirstName)
	v.Reason = reason
	if v.Reason == "" {
		v.Reason = noCancellationReason
	}
	_, err := m.send(ctx, "booking_cancelled", client.User.Email, SubjectBookingCancelled, BookingCancelledHTML(v))
	return err
}

// SendBookingCompletionToClient tells a client the booking is completed.
func (m *Mailer) SendBookingCompletionToClient(ctx context.Context, booking *model.Booking, client *model.Client) error {
	v := m.bookingView(booking, client.User.FirstName)
	_, err := m.send(ctx, "booking_completed", client.User.Email, SubjectBookingCompleted, BookingCompletedHTML(v))
	return err
}

func (m *Mailer) bookingView(b *model.Booking, firstName string) BookingView {
	return BookingView{
		FrontendURL: m.frontendURL,
		FirstName:   firstName,
		BookingID:   b.ID,
		ServiceName: serviceName(b),
		ClientName:  clientName(b),
		EventDate:   FormatDate(b.EventDate),
		Location:    b.Location,
		Status:      string(b.Status),
	}
}

func serviceName(b *model.Booking) string {
	if b.Service == nil {
		return ""
	}
	return b.Service.Name
}

func clientName(b *model.Booking) string {
	if b.Client == nil {
		return ""
	}
	return b.Client.User.FullName()
}
