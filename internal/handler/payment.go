package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/weddingplanner/weddingplanner/internal/middleware"
	"github.com/weddingplanner/weddingplanner/internal/model"
	"github.com/weddingplanner/weddingplanner/internal/service"
)

// maxCallbackBody bounds the webhook payload we are willing to read
const maxCallbackBody = 64 << 10

// InitiatePayment handles POST /api/v1/client/payments/initiate. The
// response fields are top level because the web checkout reads them
// directly.
func (h *Handler) InitiatePayment(w http.ResponseWriter, r *http.Request) {
	var req service.InitiateRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	res, err := h.svc.Payments.Initiate(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		h.writeServiceError(w, r, err, "failed to initiate payment")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// VerifyPayment handles GET /api/v1/payments/verify/{tx_ref}
func (h *Handler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Payments.VerifyForClient(r.Context(), middleware.GetUserID(r.Context()), r.PathValue("tx_ref"))
	if err != nil {
		h.writeServiceError(w, r, err, "failed to verify payment")
		return
	}
	writeJSON(w, http.StatusOK, paymentResponse(p))
}

// PaymentCallback handles GET and POST /api/v1/payments/callback. The
// gateway's claimed status is ignored; the transaction is always verified
// with the gateway before anything changes.
func (h *Handler) PaymentCallback(w http.ResponseWriter, r *http.Request) {
	txRef := callbackTxRef(r)
	if txRef == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "Missing transaction reference")
		return
	}

	p, err := h.svc.Payments.Verify(r.Context(), txRef)
	if err != nil {
		h.writeServiceError(w, r, err, "failed to process payment callback")
		return
	}

	h.log.Info().
		Str("tx_ref", txRef).
		Str("status", string(p.Status)).
		Msg("payment callback processed")
	writeJSON(w, http.StatusOK, paymentResponse(p))
}

func paymentResponse(p *model.Payment) map[string]interface{} {
	return map[string]interface{}{
		"status":  p.Status,
		"tx_ref":  p.TxRef,
		"payment": p,
	}
}

// callbackTxRef finds the transaction reference in the query string or a
// JSON body. Chapa uses trx_ref on redirects and tx_ref on webhooks.
func callbackTxRef(r *http.Request) string {
	q := r.URL.Query()
	for _, key := range []string{"trx_ref", "tx_ref"} {
		if v := strings.TrimSpace(q.Get(key)); v != "" {
			return v
		}
	}

	if r.Method != http.MethodPost || r.Body == nil {
		return ""
	}
	var body struct {
		TxRef  string `json:"tx_ref"`
		TrxRef string `json:"trx_ref"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, maxCallbackBody)).Decode(&body); err != nil {
		return ""
	}
	if body.TxRef != "" {
		return strings.TrimSpace(body.TxRef)
	}
	return strings.TrimSpace(body.TrxRef)
}
