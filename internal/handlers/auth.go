package handlers

import (
	"net/http"

	"github.com/crucial707/quill/internal/apperr"
	"github.com/crucial707/quill/internal/metrics"
	"github.com/crucial707/quill/internal/middleware"
	"github.com/crucial707/quill/internal/service"
)

// ==========================
// Auth Handler
// ==========================
type AuthHandler struct {
	Service *service.AuthService
}

// ==========================
// Register
// ==========================
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input service.RegisterInput
	if !decodeJSON(w, r, &input) {
		return
	}

	user, err := h.Service.Register(r.Context(), input)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// ==========================
// Login (email + password, returns a bearer token)
// ==========================
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input service.LoginInput
	if !decodeJSON(w, r, &input) {
		return
	}

	res, err := h.Service.Login(r.Context(), input)
	if err != nil {
		if apperr.Is(err, apperr.KindUnauthenticated) {
			metrics.IncAuthFailure("bad_credentials")
		}
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// ==========================
// Me (protected)
// ==========================
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		JSONError(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
