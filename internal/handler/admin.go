package handler

import (
	"net/http"

	"github.com/weddingplanner/weddingplanner/internal/middleware"
	"github.com/weddingplanner/weddingplanner/internal/model"
)

// AdminListVendors handles GET /api/v1/admin/vendors?status=pending
func (h *Handler) AdminListVendors(w http.ResponseWriter, r *http.Request) {
	status := model.VendorStatus(r.URL.Query().Get("status"))
	switch status {
	case "", model.VendorStatusPending, model.VendorStatusApproved, model.VendorStatusRejected:
	default:
		writeError(w, http.StatusBadRequest, "invalid_request", "Unknown vendor status")
		return
	}

	vendors, err := h.svc.Vendors.List(r.Context(), status)
	if err != nil {
		h.writeServiceError(w, r, err, "failed to list vendors")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"vendors": vendors})
}

// AdminApproveVendor handles POST /api/v1/admin/vendors/{id}/approve
func (h *Handler) AdminApproveVendor(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.Vendors.Approve(r.Context(), middleware.GetUserID(r.Context()), r.PathValue("id"))
	if err != nil {
		h.writeServiceError(w, r, err, "failed to approve vendor")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Vendor approved",
		"vendor":  v,
	})
}

// AdminRejectVendor handles POST /api/v1/admin/vendors/{id}/reject
func (h *Handler) AdminRejectVendor(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.Vendors.Reject(r.Context(), middleware.GetUserID(r.Context()), r.PathValue("id"))
	if err != nil {
		h.writeServiceError(w, r, err, "failed to reject vendor")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Vendor rejected",
		"vendor":  v,
	})
}

// AdminListAuditLogs handles GET /api/v1/admin/audit-logs
func (h *Handler) AdminListAuditLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	logs, err := h.svc.Audit.List(r.Context(), model.AuditFilter{
		UserID:       q.Get("userId"),
		ResourceType: q.Get("resourceType"),
		ResourceID:   q.Get("resourceId"),
		Limit:        queryInt(q.Get("limit"), 0),
	})
	if err != nil {
		h.writeServiceError(w, r, err, "failed to list audit logs")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"logs": logs})
}
