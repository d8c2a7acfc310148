package handler

import (
	"net/http"
	"strings"

	"github.com/weddingplanner/weddingplanner/internal/middleware"
	"github.com/weddingplanner/weddingplanner/internal/service"
)

// Register handles POST /api/v1/auth/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	res, err := h.svc.Auth.Register(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err, "failed to register user")
		return
	}

	h.setTokenCookie(w, r, res)
	writeJSON(w, http.StatusCreated, res)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /api/v1/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "Email and password are required")
		return
	}

	res, err := h.svc.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeServiceError(w, r, err, "failed to log in")
		return
	}

	h.setTokenCookie(w, r, res)
	writeJSON(w, http.StatusOK, res)
}

// Logout handles POST /api/v1/auth/logout. Tokens are stateless, so this
// only clears the browser cookie.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies(r),
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

// CurrentUser handles GET /api/v1/users/me
func (h *Handler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	profile, err := h.svc.Auth.Me(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		h.writeServiceError(w, r, err, "failed to load profile")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

func (h *Handler) setTokenCookie(w http.ResponseWriter, r *http.Request, res *service.AuthResult) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    res.Token,
		Path:     "/",
		MaxAge:   res.ExpiresIn,
		HttpOnly: true,
		Secure:   h.secureCookies(r),
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) secureCookies(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return h.cfg != nil && strings.HasPrefix(h.cfg.Server.PublicURL, "https://")
}
