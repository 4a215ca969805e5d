// pkg/lti-launch/sqlstore/resolver.go
package sqlstore

import (
	"context"
	"strings"

	"github.com/mind-engage/lti-launch/pkg/lti-launch/launch"
)

// IMS membership role URIs used to derive the local role.
const (
	roleInstructor = "http://purl.imsglobal.org/vocab/lis/v2/membership#Instructor"
	roleLearner    = "http://purl.imsglobal.org/vocab/lis/v2/membership#Learner"
)

// ClaimsResolver is a launch.ClaimsResolver that records the launching
// user in the store and emits claims keyed to the local identity.
type ClaimsResolver struct {
	Store *Store

	// DefaultRole is assigned when no instructor role is asserted.
	// Default: "student".
	DefaultRole string
}

func (r *ClaimsResolver) ResolveClaims(ctx context.Context, p launch.Principal) (map[string]any, error) {
	role := r.DefaultRole
	if role == "" {
		role = "student"
	}
	if isInstructor(p.Roles) {
		role = "teacher"
	}

	u, err := r.Store.UpsertUser(ctx, User{
		PlatformSub:  p.NameIdentifier,
		Email:        p.Email,
		DisplayName:  p.Name,
		Role:         role,
		ContextLabel: p.Context.Label,
	})
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"sub":           u.LocalID,
		"role":          u.Role,
		"email":         u.Email,
		"name":          u.DisplayName,
		"context_label": u.ContextLabel,
	}, nil
}

func isInstructor(roles []string) bool {
	for _, r := range roles {
		if r == roleInstructor || strings.HasSuffix(r, "#Instructor") {
			return true
		}
	}
	return false
}
