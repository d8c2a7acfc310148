package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/weddingplanner/weddingplanner/internal/middleware"
	"github.com/weddingplanner/weddingplanner/internal/model"
	"github.com/weddingplanner/weddingplanner/internal/service"
)

// CreateBooking handles POST /api/v1/client/bookings
func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req service.CreateBookingRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	b, err := h.svc.Bookings.Create(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		h.writeServiceError(w, r, err, "failed to create booking")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"booking": b})
}

// ListClientBookings handles GET /api/v1/client/bookings
func (h *Handler) ListClientBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.svc.Bookings.ListForClient(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		h.writeServiceError(w, r, err, "failed to list bookings")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"bookings": bookings})
}

// GetBooking handles GET /api/v1/client/bookings/{id} and the vendor
// equivalent. Bookings the caller is not party to read as not found.
func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	b, err := h.svc.Bookings.Get(ctx, middleware.GetUserID(ctx), middleware.GetRole(ctx), r.PathValue("id"))
	if err != nil {
		h.writeServiceError(w, r, err, "failed to load booking")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"booking": b})
}

// ListVendorBookings handles GET /api/v1/vendor/bookings
func (h *Handler) ListVendorBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.svc.Bookings.ListForVendor(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		h.writeServiceError(w, r, err, "failed to list bookings")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"bookings": bookings})
}

// ConfirmBooking handles POST /api/v1/vendor/bookings/{id}/confirm
func (h *Handler) ConfirmBooking(w http.ResponseWriter, r *http.Request) {
	b, err := h.svc.Bookings.Confirm(r.Context(), middleware.GetUserID(r.Context()), r.PathValue("id"))
	h.writeTransition(w, r, b, err)
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

// CancelBooking handles POST /api/v1/vendor/bookings/{id}/cancel. The body
// is optional.
func (h *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	var req cancelRequest
	if err := readJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	b, err := h.svc.Bookings.Cancel(r.Context(), middleware.GetUserID(r.Context()), r.PathValue("id"), req.Reason)
	h.writeTransition(w, r, b, err)
}

// CompleteBooking handles POST /api/v1/vendor/bookings/{id}/complete
func (h *Handler) CompleteBooking(w http.ResponseWriter, r *http.Request) {
	b, err := h.svc.Bookings.Complete(r.Context(), middleware.GetUserID(r.Context()), r.PathValue("id"))
	h.writeTransition(w, r, b, err)
}

func (h *Handler) writeTransition(w http.ResponseWriter, r *http.Request, b *model.Booking, err error) {
	if err != nil {
		h.writeServiceError(w, r, err, "failed to update booking")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"booking": b})
}
