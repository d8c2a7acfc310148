package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/weddingplanner/weddingplanner/internal/middleware"
	"github.com/weddingplanner/weddingplanner/internal/service"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"code":    code,
			"message": message,
		},
	})
}

func readJSON(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return errors.New("request body is empty")
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

// serviceErrors maps service sentinels to status and error code. Order
// matters only for errors that wrap more than one sentinel.
var serviceErrors = []struct {
	err    error
	status int
	code   string
}{
	{service.ErrInvalidInput, http.StatusBadRequest, "invalid_request"},
	{service.ErrPasswordTooWeak, http.StatusBadRequest, "weak_password"},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
	{service.ErrEmailAlreadyExists, http.StatusConflict, "email_exists"},
	{service.ErrNotFound, http.StatusNotFound, "not_found"},
	{service.ErrForbidden, http.StatusForbidden, "forbidden"},
	{service.ErrVendorNotApproved, http.StatusUnprocessableEntity, "vendor_not_approved"},
	{service.ErrInvalidTransition, http.StatusConflict, "invalid_status"},
	{service.ErrAlreadyPaid, http.StatusConflict, "already_paid"},
	{service.ErrVendorAlreadyDecided, http.StatusConflict, "vendor_already_reviewed"},
	{service.ErrVerifyInProgress, http.StatusConflict, "verification_in_progress"},
	{service.ErrPaymentInProgress, http.StatusConflict, "payment_in_progress"},
	{service.ErrAmountMismatch, http.StatusBadRequest, "payment_mismatch"},
	{service.ErrVendorMismatch, http.StatusBadRequest, "payment_mismatch"},
	{service.ErrPaymentGateway, http.StatusBadGateway, "payment_gateway_error"},
}

// writeServiceError translates a service error into the API envelope.
// Unknown errors are logged and reported as 500 without detail.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	for _, m := range serviceErrors {
		if errors.Is(err, m.err) {
			writeError(w, m.status, m.code, publicMessage(err))
			return
		}
	}
	h.log.Error().
		Err(err).
		Str("request_id", middleware.GetRequestID(r.Context())).
		Str("path", r.URL.Path).
		Msg(msg)
	writeError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
}

// publicMessage capitalizes the service error text for display.
func publicMessage(err error) string {
	msg := err.Error()
	if msg == "" {
		return msg
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}
