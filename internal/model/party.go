package model

import "time"

// VendorStatus represents where a vendor is in the approval process
type VendorStatus string

const (
	VendorStatusPending  VendorStatus = "pending"
	VendorStatusApproved VendorStatus = "approved"
	VendorStatusRejected VendorStatus = "rejected"
)

// Vendor is a service provider account. Vendors must be approved before
// they can receive bookings.
type Vendor struct {
	ID           string       `json:"id"`
	UserID       string       `json:"userId"`
	User         User         `json:"user"`
	BusinessName string       `json:"businessName"`
	Description  string       `json:"description,omitempty"`
	Status       VendorStatus `json:"status"`
	ApprovedAt   *time.Time   `json:"approvedAt,omitempty"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// IsApproved reports whether the vendor may receive bookings
func (v *Vendor) IsApproved() bool {
	return v.Status == VendorStatusApproved
}

// Client is a customer account that books vendor services
type Client struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	User      User      `json:"user"`
	CreatedAt time.Time `json:"createdAt"`
}
