package model

import "time"

// BookingStatus is the lifecycle state of a booking
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusCompleted BookingStatus = "completed"
)

var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPending:   {BookingStatusConfirmed, BookingStatusCancelled},
	BookingStatusConfirmed: {BookingStatusCancelled, BookingStatusCompleted},
}

// CanTransitionTo reports whether a booking in status s may move to next
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range bookingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// BookingPaymentStatus tracks whether a booking has been paid for
type BookingPaymentStatus string

const (
	BookingUnpaid BookingPaymentStatus = "unpaid"
	BookingPaid   BookingPaymentStatus = "paid"
)

// Booking is a client's reservation of a vendor service for an event date
type Booking struct {
	ID                 string               `json:"id"`
	ServiceID          string               `json:"serviceId"`
	Service            *Service             `json:"service,omitempty"`
	ClientID           string               `json:"clientId"`
	Client             *Client              `json:"client,omitempty"`
	EventDate          time.Time            `json:"eventDate"`
	Location           string               `json:"location"`
	Attendees          int                  `json:"attendees"`
	SpecialRequests    string               `json:"specialRequests,omitempty"`
	Status             BookingStatus        `json:"status"`
	PaymentStatus      BookingPaymentStatus `json:"paymentStatus"`
	CancellationReason string               `json:"cancellationReason,omitempty"`
	CreatedAt          time.Time            `json:"createdAt"`
	UpdatedAt          time.Time            `json:"updatedAt"`
}
