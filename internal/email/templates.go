package email

import (
	"fmt"
	"html"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Subjects of the transactional templates.
const (
	SubjectVendorApproved   = "Your Vendor Account Has Been Approved!"
	SubjectPaymentReceived  = "Payment Received for Booking"
	SubjectNewBooking       = "New Booking Received"
	SubjectBookingConfirmed = "Your Booking Has Been Confirmed!"
	SubjectBookingCancelled = "Your Booking Has Been Cancelled"
	SubjectBookingCompleted = "Your Booking Has Been Completed"
)

const (
	dateLayout   = "Jan 2, 2006"
	colorSuccess = "#4CAF50"
	colorDanger  = "#F44336"
)

var amountPrinter = message.NewPrinter(language.English)

// FormatAmount renders a price the way the marketplace displays it, e.g. "ETB 12,500".
func FormatAmount(currency string, amount float64) string {
	if currency == "" {
		currency = "ETB"
	}
	return currency + " " + amountPrinter.Sprint(number.Decimal(amount, number.MaxFractionDigits(2)))
}

// FormatDate renders an event date, e.g. "Jun 14, 2026".
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return "To be confirmed"
	}
	return t.Format(dateLayout)
}

// detail is one labelled row of the summary box. Values are escaped on render.
type detail struct {
	label string
	value string
}

// layout holds the variable parts of the shared email shell.
type layout struct {
	color     string
	heading   string
	firstName string
	intro     string // trusted HTML
	details   []detail
	linkURL   string
	linkText  string
	closing   string
}

func render(l layout) string {
	var b strings.Builder

	fmt.Fprintf(&b, `<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; border: 1px solid #e0e0e0; border-radius: 5px;">
  <h2 style="color: %s; text-align: center;">%s</h2>
  <p>Hello %s,</p>
  <p>%s</p>
`, l.color, l.heading, html.EscapeString(l.firstName), l.intro)

	if len(l.details) > 0 {
		b.WriteString(`  <div style="background-color: #f9f9f9; padding: 15px; border-radius: 5px; margin: 20px 0;">` + "\n")
		for _, d := range l.details {
			fmt.Fprintf(&b, "    <p><strong>%s:</strong> %s</p>\n", d.label, html.EscapeString(d.value))
		}
		b.WriteString("  </div>\n")
	}

	fmt.Fprintf(&b, `  <div style="text-align: center; margin: 30px 0;">
    <a href="%s" style="background-color: %s; color: white; padding: 12px 20px; text-decoration: none; border-radius: 4px; font-weight: bold;">%s</a>
  </div>
  <p>%s</p>
  <p>Best regards,<br>The Wedding Planner Team</p>
</div>
`, html.EscapeString(l.linkURL), l.color, l.linkText, l.closing)

	return b.String()
}

// VendorApprovalHTML returns the body sent when an admin approves a vendor.
func VendorApprovalHTML(frontendURL, firstName, businessName string) string {
	return render(layout{
		color:     colorSuccess,
		heading:   "Congratulations!",
		firstName: firstName,
		intro: "We're pleased to inform you that your vendor account <strong>" + html.EscapeString(businessName) +
			"</strong> has been approved! You can now log in to your vendor dashboard and start managing your services, bookings, and payments.",
		linkURL:  frontendURL + "/login",
		linkText: "Go to Vendor Dashboard",
		closing:  "Thank you for joining our wedding planning platform. We look forward to a successful partnership!",
	})
}

// PaymentReceivedView is the data rendered into the vendor payment notice.
type PaymentReceivedView struct {
	FrontendURL     string
	VendorFirstName string
	BookingID       string
	ServiceName     string
	ClientName      string
	Amount          string
	EventDate       string
	PaymentID       string
}

// PaymentReceivedHTML returns the body sent to a vendor once a payment clears.
func PaymentReceivedHTML(v PaymentReceivedView) string {
	return render(layout{
		color:     colorSuccess,
		heading:   "Payment Received",
		firstName: v.VendorFirstName,
		intro:     "We're pleased to inform you that a payment has been completed for a booking:",
		details: []detail{
			{"Service", v.ServiceName},
			{"Client", v.ClientName},
			{"Amount", v.Amount},
			{"Event Date", v.EventDate},
			{"Payment ID", v.PaymentID},
		},
		linkURL:  v.FrontendURL + "/dashboard/bookings/" + v.BookingID + "/show",
		linkText: "View Booking Details",
		closing:  "Please review the booking details and confirm it at your earliest convenience.",
	})
}

// BookingView is the booking data shared by the booking templates.
type BookingView struct {
	FrontendURL string
	FirstName   string // recipient
	BookingID   string
	ServiceName string
	ClientName  string
	EventDate   string
	Location    string
	Status      string
	Reason      string
}

// NewBookingHTML returns the body sent to a vendor when a client books a service.
func NewBookingHTML(v BookingView) string {
	return render(layout{
		color:     colorSuccess,
		heading:   "New Booking Received",
		firstName: v.FirstName,
		intro:     "You have received a new booking for your service:",
		details: []detail{
			{"Service", v.ServiceName},
			{"Client", v.ClientName},
			{"Event Date", v.EventDate},
			{"Location", v.Location},
			{"Status", v.Status},
		},
		linkURL:  v.FrontendURL + "/dashboard/bookings/" + v.BookingID + "/show",
		linkText: "View Booking Details",
		closing:  "Please review the booking details and confirm it at your earliest convenience.",
	})
}

// BookingConfirmedHTML returns the body sent to a client when the vendor confirms.
func BookingConfirmedHTML(v BookingView) string {
	return render(layout{
		color:     colorSuccess,
		heading:   "Booking Confirmed",
		firstName: v.FirstName,
		intro:     "We're pleased to inform you that your booking has been confirmed by the vendor:",
		details: []detail{
			{"Service", v.ServiceName},
			{"Event Date", v.EventDate},
			{"Location", v.Location},
		},
		linkURL:  v.FrontendURL + "/dashboard/my-bookings",
		linkText: "View Booking Details",
		closing:  "If you have any questions, please contact the vendor directly.",
	})
}

// BookingCancelledHTML returns the body sent to a client when the vendor cancels.
func BookingCancelledHTML(v BookingView) string {
	return render(layout{
		color:     colorDanger,
		heading:   "Booking Cancelled",
		firstName: v.FirstName,
		intro:     "We regret to inform you that your booking has been cancelled by the vendor:",
		details: []detail{
			{"Service", v.ServiceName},
			{"Event Date", v.EventDate},
			{"Cancellation Reason", v.Reason},
		},
		linkURL:  v.FrontendURL + "/dashboard/my-bookings",
		linkText: "View Booking Details",
		closing:  "If you have any questions, please contact our support team.",
	})
}

// BookingCompletedHTML returns the body sent to a client when the vendor completes a booking.
func BookingCompletedHTML(v BookingView) string {
	return render(layout{
		color:     colorSuccess,
		heading:   "Booking Completed",
		firstName: v.FirstName,
		intro:     "We're pleased to inform you that your booking has been marked as completed by the vendor:",
		details: []detail{
			{"Service", v.ServiceName},
			{"Event Date", v.EventDate},
		},
		linkURL:  v.FrontendURL + "/dashboard/my-bookings",
		linkText: "View Booking Details",
		closing:  "Thank you for using our platform. We hope you had a great experience!",
	})
}
