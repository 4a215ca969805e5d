package http

import (
	"database/sql"
	"encoding/json"
	"net/http"

	auth "github.com/mind-engage/lti-launch/internal/auth/middleware"
)

// GET /api/me echoes the authenticated launch identity.
func MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := auth.ClaimsFromContext(r.Context())
		if c == nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"sub":           c.Sub,
			"role":          c.Role,
			"email":         c.Email,
			"name":          c.Name,
			"context_label": c.ContextLabel,
		})
	}
}

// GET /api/roster lists users seen in the caller's launch context.
// Teacher-only (enforced by rbac at the route).
func RosterHandler(db *sql.DB) http.HandlerFunc {
	type row struct {
		Sub   string `json:"sub"`
		Email string `json:"email"`
		Name  string `json:"name"`
		Role  string `json:"role"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		c := auth.ClaimsFromContext(r.Context())
		if c == nil {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		rows, err := db.QueryContext(r.Context(),
			`SELECT local_id, email, display_name, role FROM lti_users WHERE context_label=$1 ORDER BY display_name`,
			c.ContextLabel)
		if err != nil {
			http.Error(w, "query failed", http.StatusInternalServerError)
			return
		}
		defer rows.Close()

		out := []row{}
		for rows.Next() {
			var u row
			if err := rows.Scan(&u.Sub, &u.Email, &u.Name, &u.Role); err != nil {
				http.Error(w, "scan failed", http.StatusInternalServerError)
				return
			}
			out = append(out, u)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(out)
	}
}
