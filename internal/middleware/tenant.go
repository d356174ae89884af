package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// TenantParam is the chi URL parameter that names the caterer.
const TenantParam = "cid"

// RequireTenant rejects requests whose {cid} path parameter differs from
// the caterer in the caller's token. It must run after Auth and inside a
// route that declares {cid}.
func RequireTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := ClaimsFromContext(r.Context())
		if c == nil {
			writeError(w, http.StatusUnauthorized, "authorization required")
			return
		}
		if cid := chi.URLParam(r, TenantParam); cid != c.TenantID {
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
		next.ServeHTTP(w, r)
	})
}
