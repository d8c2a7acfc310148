package email

import (
	"context"
	"fmt"

	"github.com/weddingplanner/weddingplanner/internal/config"
	"github.com/weddingplanner/weddingplanner/internal/logger"
)

// Sender is the interface that all email transports must implement.
type Sender interface {
	// Send hands one message to the transport. No retry is attempted.
	Send(ctx context.Context, msg Message) error
}

// Message represents an email message to be sent.
type Message struct {
	ID       string // Message-ID header value, without angle brackets
	From     string // full From header; transports may override it
	To       string // recipient email address
	Subject  string // email subject
	HTMLBody string // HTML email body
	TextBody string // plain-text fallback body
}

// NewSender builds the transport selected by cfg.Provider.
func NewSender(ctx context.Context, cfg config.EmailConfig, log *logger.Logger) (Sender, error) {
	switch cfg.Provider {
	case "smtp":
		return NewSMTPSender(cfg.SMTP)
	case "gmail":
		return NewGmailSender(ctx, cfg.Gmail)
	case "log":
		return NewLogSender(log), nil
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.Provider)
	}
}
