package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
)

type contextKey string

const requestInfoKey contextKey = "request_info"

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

const maxRequestIDLen = 64

type requestInfo struct {
	id       string
	start    time.Time
	clientIP string
}

// RequestID tags each request with an ID, its start time and the resolved
// client IP. A caller's X-Request-ID is reused when it is short and printable.
func (m *Middleware) RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if !validRequestID(id) {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		ctx := context.WithValue(r.Context(), requestInfoKey, requestInfo{
			id:       id,
			start:    time.Now(),
			clientIP: m.clientIP(r),
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < 0x21 || id[i] > 0x7e {
			return false
		}
	}
	return true
}

// GetRequestID returns the ID assigned by RequestID, or "".
func GetRequestID(ctx context.Context) string {
	info, _ := ctx.Value(requestInfoKey).(requestInfo)
	return info.id
}

// GetStartTime returns when RequestID saw the request, or now.
func GetStartTime(ctx context.Context) time.Time {
	if info, ok := ctx.Value(requestInfoKey).(requestInfo); ok {
		return info.start
	}
	return time.Now()
}
