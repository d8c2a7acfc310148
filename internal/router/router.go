package router

import (
	"net/http"
	"time"

	"github.com/weddingplanner/weddingplanner/internal/auth"
	"github.com/weddingplanner/weddingplanner/internal/config"
	"github.com/weddingplanner/weddingplanner/internal/handler"
	"github.com/weddingplanner/weddingplanner/internal/metrics"
	"github.com/weddingplanner/weddingplanner/internal/middleware"
	"github.com/weddingplanner/weddingplanner/internal/model"
)

// New creates and configures the HTTP router
func New(h *handler.Handler, mw *middleware.Middleware, cfg *config.Config, tokenSvc *auth.TokenService) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoints (no auth required)
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /ready", h.Ready)
	if cfg.Metrics.Enabled {
		path := cfg.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		mux.Handle("GET "+path, metrics.Handler())
	}

	mux.HandleFunc("GET /api/v1/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message":"Wedding Planner API v1","version":"0.1.0"}`))
	})

	// Public authentication routes (rate limited)
	loginRateLimit := mw.RateLimit(middleware.RateLimitConfig{
		Name:   "login",
		Limit:  5,
		Window: 15 * time.Minute,
		KeyFn:  middleware.IPKey,
	})
	registerRateLimit := mw.RateLimit(middleware.RateLimitConfig{
		Name:   "register",
		Limit:  3,
		Window: 1 * time.Hour,
		KeyFn:  middleware.IPKey,
	})
	mux.Handle("POST /api/v1/auth/register", registerRateLimit(http.HandlerFunc(h.Register)))
	mux.Handle("POST /api/v1/auth/login", loginRateLimit(http.HandlerFunc(h.Login)))

	// Public catalog
	mux.HandleFunc("GET /api/v1/services", h.ListServices)
	mux.HandleFunc("GET /api/v1/services/{id}", h.GetService)

	// Gateway callback. Public, but every call is re-verified with Chapa.
	callbackRateLimit := mw.RateLimit(middleware.RateLimitConfig{
		Name:   "payment_callback",
		Limit:  60,
		Window: 1 * time.Minute,
		KeyFn:  middleware.IPKey,
	})
	mux.Handle("GET /api/v1/payments/callback", callbackRateLimit(http.HandlerFunc(h.PaymentCallback)))
	mux.Handle("POST /api/v1/payments/callback", callbackRateLimit(http.HandlerFunc(h.PaymentCallback)))

	// Protected routes (require auth)
	authMw := mw.Auth(tokenSvc)
	clientOnly := chain(authMw, mw.RequireRole(model.RoleClient))
	vendorOnly := chain(authMw, mw.RequireRole(model.RoleVendor))
	adminOnly := chain(authMw, mw.RequireRole(model.RoleAdmin))

	mux.Handle("POST /api/v1/auth/logout", authMw(http.HandlerFunc(h.Logout)))
	mux.Handle("GET /api/v1/users/me", authMw(http.HandlerFunc(h.CurrentUser)))

	// Vendor routes
	mux.Handle("POST /api/v1/vendor/services", vendorOnly(http.HandlerFunc(h.CreateVendorService)))
	mux.Handle("GET /api/v1/vendor/services", vendorOnly(http.HandlerFunc(h.ListVendorServices)))
	mux.Handle("GET /api/v1/vendor/bookings", vendorOnly(http.HandlerFunc(h.ListVendorBookings)))
	mux.Handle("GET /api/v1/vendor/bookings/{id}", vendorOnly(http.HandlerFunc(h.GetBooking)))
	mux.Handle("POST /api/v1/vendor/bookings/{id}/confirm", vendorOnly(http.HandlerFunc(h.ConfirmBooking)))
	mux.Handle("POST /api/v1/vendor/bookings/{id}/cancel", vendorOnly(http.HandlerFunc(h.CancelBooking)))
	mux.Handle("POST /api/v1/vendor/bookings/{id}/complete", vendorOnly(http.HandlerFunc(h.CompleteBooking)))

	// Client routes
	paymentRateLimit := mw.RateLimit(middleware.RateLimitConfig{
		Name:   "payment",
		Limit:  10,
		Window: 1 * time.Minute,
		KeyFn:  middleware.UserKey,
	})
	mux.Handle("POST /api/v1/client/bookings", clientOnly(http.HandlerFunc(h.CreateBooking)))
	mux.Handle("GET /api/v1/client/bookings", clientOnly(http.HandlerFunc(h.ListClientBookings)))
	mux.Handle("GET /api/v1/client/bookings/{id}", clientOnly(http.HandlerFunc(h.GetBooking)))
	mux.Handle("POST /api/v1/client/payments/initiate", clientOnly(paymentRateLimit(http.HandlerFunc(h.InitiatePayment))))
	mux.Handle("GET /api/v1/payments/verify/{tx_ref}", clientOnly(paymentRateLimit(http.HandlerFunc(h.VerifyPayment))))

	// Admin routes
	adminRateLimit := mw.RateLimit(middleware.RateLimitConfig{
		Name:   "admin",
		Limit:  30,
		Window: 1 * time.Minute,
		KeyFn:  middleware.UserKey,
	})
	mux.Handle("GET /api/v1/admin/vendors", adminOnly(http.HandlerFunc(h.AdminListVendors)))
	mux.Handle("POST /api/v1/admin/vendors/{id}/approve", adminOnly(adminRateLimit(http.HandlerFunc(h.AdminApproveVendor))))
	mux.Handle("POST /api/v1/admin/vendors/{id}/reject", adminOnly(adminRateLimit(http.HandlerFunc(h.AdminRejectVendor))))
	mux.Handle("GET /api/v1/admin/audit-logs", adminOnly(http.HandlerFunc(h.AdminListAuditLogs)))

	// Apply middleware stack
	var handler http.Handler = mux

	// CORS
	handler = mw.CORS(cfg.CORS.AllowedOrigins)(handler)

	// Security headers
	handler = mw.SecurityHeaders(handler)

	// Request logging
	handler = mw.Logger(handler)

	// Request ID
	handler = mw.RequestID(handler)

	// Panic recovery (outermost)
	handler = mw.Recover(handler)

	return handler
}

// chain composes middleware so the first argument runs first.
func chain(mws ...func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		for i := len(mws) - 1; i >= 0; i-- {
			next = mws[i](next)
		}
		return next
	}
}
