package model

import "time"

// Service is an offering a vendor lists in the marketplace
type Service struct {
	ID          string    `json:"id"`
	VendorID    string    `json:"vendorId"`
	Vendor      *Vendor   `json:"vendor,omitempty"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category"`
	Price       float64   `json:"price"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ServiceFilter narrows catalog listings
type ServiceFilter struct {
	Category string
	VendorID string
	Limit    int
	Offset   int
}

// Public returns a copy of s fit for the open catalog. The vendor's account
// contact details stay private until a booking is made.
func (s *Service) Public() *Service {
	out := *s
	if s.Vendor != nil {
		v := *s.Vendor
		v.User.Email = ""
		v.User.Phone = ""
		out.Vendor = &v
	}
	return &out
}
