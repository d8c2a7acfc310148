package logger

import (
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"

	"github.com/weddingplanner/weddingplanner/internal/model"
)

// Logger wraps zerolog.Logger with the fields this application attaches
// to its events.
type Logger struct {
	zerolog.Logger
}

// New creates a Logger writing to stdout. format is "json", or "text" for
// console output.
func New(level string, format string) *Logger {
	return NewWithWriter(os.Stdout, level, format)
}

// NewWithWriter creates a Logger writing to w. Unknown levels fall back to
// info.
func NewWithWriter(w io.Writer, level string, format string) *Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	out := w
	if format == "text" || format == "console" {
		out = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.RFC3339,
			NoColor:    !isTerminal(w),
		}
	}
	return &Logger{Logger: zerolog.New(out).Level(lvl).With().Timestamp().Caller().Logger()}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

// Nop returns a Logger that discards everything
func Nop() *Logger {
	return &Logger{Logger: zerolog.Nop()}
}

func (l *Logger) WithRequestID(requestID string) *Logger {
	return &Logger{Logger: l.With().Str("request_id", requestID).Logger()}
}

func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{Logger: l.With().Str("component", component).Logger()}
}

// HTTPRequest logs a finished API request. route is the matched mux
// pattern and may be empty.
func (l *Logger) HTTPRequest(method, route, path string, status int, duration time.Duration, clientIP string) {
	event := l.Info()
	if status >= 500 {
		event = l.Error()
	}
	if route != "" {
		event = event.Str("route", route)
	}
	event.
		Str("method", method).
		Str("path", path).
		Int("status", status).
		Dur("duration", duration).
		Str("client_ip", clientIP).
		Msg("HTTP request")
}

// Audit mirrors an audit log entry into the structured log.
func (l *Logger) Audit(entry *model.AuditLog) {
	event := l.Info().
		Bool("audit", true).
		Str("audit_id", entry.ID).
		Str("action", entry.Action)
	if entry.UserID != nil {
		event = event.Str("user_id", *entry.UserID)
	}
	if entry.ResourceType != nil {
		event = event.Str("resource_type", *entry.ResourceType)
	}
	if entry.ResourceID != nil {
		event = event.Str("resource_id", *entry.ResourceID)
	}
	if len(entry.Metadata) > 0 {
		event = event.Interface("metadata", entry.Metadata)
	}
	event.Msg("audit log")
}
