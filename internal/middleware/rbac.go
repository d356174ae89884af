package middleware

import (
	"net/http"

	"github.com/Strob0t/CaterTrack/internal/domain/user"
)

// RequireRole returns middleware that restricts access to callers holding one of the given roles.
func RequireRole(roles ...user.Role) func(http.Handler) http.Handler {
	allowed := make(map[user.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c := ClaimsFromContext(r.Context())
			if c == nil {
				writeError(w, http.StatusUnauthorized, "authorization required")
				return
			}
			if !allowed[c.Role] {
				writeError(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
