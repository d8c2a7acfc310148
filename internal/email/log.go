package email

import (
	"context"

	"github.com/weddingplanner/weddingplanner/internal/logger"
)

// LogSender writes messages to the log instead of delivering them. It is
// meant for local development.
type LogSender struct {
	log *logger.Logger
}

// NewLogSender creates a LogSender
func NewLogSender(log *logger.Logger) *LogSender {
	return &LogSender{log: log.WithComponent("email_log_sender")}
}

// Send logs the message envelope and body size.
func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.log.Info().
		Str("message_id", msg.ID).
		Str("from", msg.From).
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Int("html_bytes", len(msg.HTMLBody)).
		Msg("email captured (not delivered)")
	return nil
}
