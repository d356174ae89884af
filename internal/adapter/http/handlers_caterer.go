package http

import (
	"net/http"

	"github.com/Strob0t/CaterTrack/internal/domain/caterer"
)

// GetProfile handles GET /api/v1/caterer/profile
func (h *Handlers) GetProfile(w http.ResponseWriter, r *http.Request) {
	c, err := h.Caterers.Profile(r.Context(), tenantID(r))
	if err != nil {
		writeDomainError(w, err, "caterer not found")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// UpdateProfile handles PUT /api/v1/caterer/profile
func (h *Handlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[caterer.UpdateRequest](w, r, h.Limits.BodyLimit)
	if !ok {
		return
	}
	c, err := h.Caterers.UpdateProfile(r.Context(), tenantID(r), req)
	if err != nil {
		writeDomainError(w, err, "caterer not found")
		return
	}
	writeJSON(w, http.StatusOK, c)
}
