package auth

import (
	"net/http"

	"github.com/mind-engage/lti-launch/internal/rbac"
)

// AttachRole copies the authenticated token's role into the rbac
// context so route-level permission checks can see it. Mount after
// JWTMiddleware.
func AttachRole() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if c := ClaimsFromContext(r.Context()); c != nil && c.Role != "" {
				r = r.WithContext(rbac.WithRole(r.Context(), c.Role))
			}
			next.ServeHTTP(w, r)
		})
	}
}
