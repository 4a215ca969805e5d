// pkg/lti-launch/launch/resolver.go
package launch

import "context"

// ClaimsResolver produces the claims of the issued application token.
// When registered on a Handler it takes precedence over
// Options.ClaimsMapping. Implementations must be deterministic for a
// given Principal.
type ClaimsResolver interface {
	ResolveClaims(ctx context.Context, p Principal) (map[string]any, error)
}

// RedirectURLResolver may choose the post-login redirect. Returning an
// empty URL falls back to the default fragment redirect
// (RedirectURL or the launch target, with the token appended as "/#<token>").
type RedirectURLResolver interface {
	ResolveRedirectURL(ctx context.Context, token string, claims map[string]any) (string, error)
}
