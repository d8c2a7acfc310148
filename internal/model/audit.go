package model

import "time"

// AuditLog represents an audit log entry
type AuditLog struct {
	ID           string                 `json:"id"`
	UserID       *string                `json:"userId,omitempty"`
	Action       string                 `json:"action"`
	ResourceType *string                `json:"resourceType,omitempty"`
	ResourceID   *string                `json:"resourceId,omitempty"`
	IPAddress    *string                `json:"ipAddress,omitempty"`
	UserAgent    *string                `json:"userAgent,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt    time.Time              `json:"createdAt"`
}

// Audit action constants
const (
	AuditActionRegister         = "user.register"
	AuditActionLogin            = "user.login"
	AuditActionLoginFailed      = "user.login_failed"
	AuditActionVendorApproved   = "vendor.approved"
	AuditActionVendorRejected   = "vendor.rejected"
	AuditActionServiceCreated   = "service.created"
	AuditActionBookingCreated   = "booking.created"
	AuditActionBookingConfirmed = "booking.confirmed"
	AuditActionBookingCancelled = "booking.cancelled"
	AuditActionBookingCompleted = "booking.completed"
	AuditActionPaymentInitiated = "payment.initiated"
	AuditActionPaymentCompleted = "payment.completed"
	AuditActionPaymentFailed    = "payment.failed"
	AuditActionPaymentRefundDue = "payment.refund_due"
)

// AuditFilter narrows audit log listings
type AuditFilter struct {
	UserID       string
	ResourceType string
	ResourceID   string
	Limit        int
}
