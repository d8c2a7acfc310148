package weddingplanner

import "time"

// User is an account returned by the API.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Phone     string    `json:"phone,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// AuthResponse is returned by login and registration.
type AuthResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"tokenType"`
	ExpiresIn int    `json:"expiresIn"`
	User      *User  `json:"user"`
}

// Vendor is a service provider.
type Vendor struct {
	ID           string `json:"id"`
	BusinessName string `json:"businessName"`
	Description  string `json:"description,omitempty"`
	Status       string `json:"status"`
	User         *User  `json:"user,omitempty"`
}

// Service is a catalog entry offered by a vendor.
type Service struct {
	ID          string  `json:"id"`
	VendorID    string  `json:"vendorId"`
	Vendor      *Vendor `json:"vendor,omitempty"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Category    string  `json:"category"`
	Price       float64 `json:"price"`
}

// ServiceQuery filters ListServices. Zero values are omitted.
type ServiceQuery struct {
	Category string
	VendorID string
	Limit    int
	Offset   int
}

// BookingRequest creates a booking for one service.
type BookingRequest struct {
	ServiceID       string    `json:"serviceId"`
	EventDate       time.Time `json:"eventDate"`
	Location        string    `json:"location"`
	Attendees       int       `json:"attendees"`
	SpecialRequests string    `json:"specialRequests"`
}

// Booking is a client's reservation of a vendor service. Service and its
// Vendor are populated on creation.
type Booking struct {
	ID                 string    `json:"id"`
	ServiceID          string    `json:"serviceId"`
	Service            *Service  `json:"service,omitempty"`
	EventDate          time.Time `json:"eventDate"`
	Location           string    `json:"location"`
	Attendees          int       `json:"attendees"`
	SpecialRequests    string    `json:"specialRequests,omitempty"`
	Status             string    `json:"status"`
	PaymentStatus      string    `json:"paymentStatus"`
	CancellationReason string    `json:"cancellationReason,omitempty"`
}

// PaymentRequest asks the API to open a hosted checkout for a booking.
type PaymentRequest struct {
	Amount    float64 `json:"amount"`
	VendorID  string  `json:"vendorId"`
	BookingID string  `json:"bookingId"`
}

// PaymentInit is the hosted checkout the browser is sent to.
type PaymentInit struct {
	CheckoutURL string `json:"checkoutUrl"`
	TxRef       string `json:"tx_ref"`
	PaymentID   string `json:"paymentId"`
}

// Payment is a payment record.
type Payment struct {
	ID          string     `json:"id"`
	BookingID   string     `json:"bookingId"`
	VendorID    string     `json:"vendorId"`
	Amount      float64    `json:"amount"`
	Currency    string     `json:"currency"`
	TxRef       string     `json:"txRef"`
	CheckoutURL string     `json:"checkoutUrl,omitempty"`
	Status      string     `json:"status"`
	PaidAt      *time.Time `json:"paidAt,omitempty"`
}

// VerifyResult is the outcome of a payment verification.
type VerifyResult struct {
	Status  string   `json:"status"`
	TxRef   string   `json:"tx_ref"`
	Payment *Payment `json:"payment"`
}
