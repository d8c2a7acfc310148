package model

import "time"

// PaymentStatus is the state of a gateway transaction
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	// PaymentStatusRefundDue marks money taken for a booking that another
	// payment had already settled
	PaymentStatusRefundDue PaymentStatus = "refund_due"
)

// Payment records a client's payment to a vendor for a booking
type Payment struct {
	ID          string        `json:"id"`
	BookingID   string        `json:"bookingId"`
	ClientID    string        `json:"clientId"`
	VendorID    string        `json:"vendorId"`
	Amount      float64       `json:"amount"`
	Currency    string        `json:"currency"`
	TxRef       string        `json:"txRef"`
	CheckoutURL string        `json:"checkoutUrl,omitempty"`
	Status      PaymentStatus `json:"status"`
	// GatewayReference is the gateway's own reference, known after verification
	GatewayReference string     `json:"gatewayReference,omitempty"`
	PaidAt           *time.Time `json:"paidAt,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}
