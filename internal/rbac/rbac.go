package rbac

import (
	"context"
	"strings"
)

// Roles assigned at launch time (see sqlstore.ClaimsResolver) plus the
// local "admin" fallback. Expand as needed.
var RolePermissions = map[string][]string{
	"student": {
		"profile:view",
	},
	"teacher": {
		"profile:view",
		"roster:view",
	},
	"admin": {
		"*", // everything
	},
}

func Has(role, perm string) bool {
	perms, ok := RolePermissions[role]
	if !ok {
		return false
	}
	for _, p := range perms {
		if matchPerm(p, perm) {
			return true
		}
	}
	return false
}

func matchPerm(pattern, perm string) bool {
	if pattern == "*" || pattern == perm {
		return true
	}
	if strings.HasSuffix(pattern, "*") {
		return strings.HasPrefix(perm, strings.TrimSuffix(pattern, "*"))
	}
	return false
}

// ---- role in context ----

type ctxKey struct{}

var ctxKeyRole = ctxKey{}

func WithRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, ctxKeyRole, role)
}

func RoleFromContext(ctx context.Context) string {
	if v := ctx.Value(ctxKeyRole); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
