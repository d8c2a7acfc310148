package handler

import (
	"net/http"
	"strconv"

	"github.com/weddingplanner/weddingplanner/internal/middleware"
	"github.com/weddingplanner/weddingplanner/internal/model"
	"github.com/weddingplanner/weddingplanner/internal/service"
)

const maxPageSize = 100

// ListServices handles GET /api/v1/services
func (h *Handler) ListServices(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := model.ServiceFilter{
		Category: q.Get("category"),
		VendorID: q.Get("vendorId"),
		Limit:    queryInt(q.Get("limit"), 20),
		Offset:   queryInt(q.Get("offset"), 0),
	}
	if filter.Limit > maxPageSize {
		filter.Limit = maxPageSize
	}

	services, err := h.svc.Catalog.List(r.Context(), filter)
	if err != nil {
		h.writeServiceError(w, r, err, "failed to list services")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"services": services,
		"limit":    filter.Limit,
		"offset":   filter.Offset,
	})
}

// GetService handles GET /api/v1/services/{id}
func (h *Handler) GetService(w http.ResponseWriter, r *http.Request) {
	svc, err := h.svc.Catalog.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeServiceError(w, r, err, "failed to load service")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"service": svc})
}

// CreateVendorService handles POST /api/v1/vendor/services
func (h *Handler) CreateVendorService(w http.ResponseWriter, r *http.Request) {
	var req service.CreateServiceRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	svc, err := h.svc.Catalog.Create(r.Context(), middleware.GetUserID(r.Context()), req)
	if err != nil {
		h.writeServiceError(w, r, err, "failed to create service")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"service": svc})
}

// ListVendorServices handles GET /api/v1/vendor/services
func (h *Handler) ListVendorServices(w http.ResponseWriter, r *http.Request) {
	services, err := h.svc.Catalog.ListForVendor(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		h.writeServiceError(w, r, err, "failed to list vendor services")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"services": services})
}

// queryInt parses a non-negative integer query value, falling back to def.
func queryInt(raw string, def int) int {
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return def
	}
	return n
}
