package http

import (
	"log/slog"
	"net/http"

	"github.com/Strob0t/CaterTrack/internal/domain/user"
)

// Register handles POST /api/v1/auth/register
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[user.RegisterRequest](w, r, h.Limits.BodyLimit)
	if !ok {
		return
	}
	resp, err := h.Auth.Register(r.Context(), &req)
	if err != nil {
		writeDomainError(w, err, "not found")
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// Login handles POST /api/v1/auth/login
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[user.LoginRequest](w, r, h.Limits.BodyLimit)
	if !ok {
		return
	}
	resp, err := h.Auth.Login(r.Context(), &req)
	if err != nil {
		slog.Debug("login failed", "error", err)
		writeDomainError(w, err, "not found")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Me handles GET /api/v1/auth/me
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	u, err := h.Auth.Me(r.Context(), claims(r))
	if err != nil {
		writeDomainError(w, err, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// ListUsers handles GET /api/v1/auth/users
func (h *Handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	handleList(h.Auth.ListUsers)(w, r)
}

// Invite handles POST /api/v1/auth/invite
func (h *Handlers) Invite(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[user.InviteRequest](w, r, h.Limits.BodyLimit)
	if !ok {
		return
	}
	inv, err := h.Auth.Invite(r.Context(), claims(r), &req)
	if err != nil {
		writeDomainError(w, err, "not found")
		return
	}
	writeJSON(w, http.StatusCreated, inv)
}

// AcceptInvite handles POST /api/v1/auth/accept
func (h *Handlers) AcceptInvite(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[user.AcceptInviteRequest](w, r, h.Limits.BodyLimit)
	if !ok {
		return
	}
	resp, err := h.Auth.AcceptInvite(r.Context(), &req)
	if err != nil {
		writeDomainError(w, err, "invitation not found or already used")
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// ForgotPassword handles POST /api/v1/auth/forgot-password. The response
// is the same whether or not the address has an account.
func (h *Handlers) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[user.ForgotPasswordRequest](w, r, h.Limits.BodyLimit)
	if !ok {
		return
	}
	if err := h.Auth.ForgotPassword(r.Context(), &req); err != nil {
		writeDomainError(w, err, "not found")
		return
	}
	writeJSON(w, http.StatusAccepted, messageResponse{Message: "If the address has an account, a reset link has been sent."})
}

// ResetPassword handles POST /api/v1/auth/reset-password
func (h *Handlers) ResetPassword(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[user.ResetPasswordRequest](w, r, h.Limits.BodyLimit)
	if !ok {
		return
	}
	resp, err := h.Auth.ResetPassword(r.Context(), &req)
	if err != nil {
		writeDomainError(w, err, "reset token not found or expired")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
