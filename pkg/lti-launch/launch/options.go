// pkg/lti-launch/launch/options.go
package launch

import (
	"net/url"
	"time"
)

// Defaults applied when the corresponding Options field is zero.
const (
	DefaultInitiationEndpoint = "oidc"
	DefaultLoginEndpoint      = "signin-oidc"
	DefaultTokenLifetime      = 120 * time.Minute
	DefaultUserAgent          = "LTI-Client"
)

// Options configures the launch handshake for one registered Tool.
// Build it once at startup; it is read concurrently by every request
// and must not be mutated afterwards.
type Options struct {
	// ClientID is the client id the Platform registered for this Tool.
	// Initiation and login requests for any other client id are declined.
	ClientID string

	// AuthenticateURL is the Platform's OIDC authorization endpoint.
	AuthenticateURL string

	// JwksURL is the Platform's public key set endpoint. It is fetched
	// fresh on every login; verification keys are never cached.
	JwksURL string

	// SigningKey signs the state token and the issued application token.
	// Minimum 128-bit.
	SigningKey string

	// InitiationEndpoint is the path segment that handles launch
	// initiation requests. Default: "oidc".
	InitiationEndpoint string

	// LoginEndpoint is the path segment that handles the OIDC login
	// callback. Default: "signin-oidc".
	LoginEndpoint string

	// RedirectURL overrides the post-login redirect target. When empty
	// the target_link_uri carried through the state token is used.
	RedirectURL string

	// TokenLifetime bounds the issued application token. Default: 120m.
	TokenLifetime time.Duration

	// UserAgent is sent on the key set fetch. Default: "LTI-Client".
	UserAgent string

	// ClaimsMapping converts the launch principal into the claims of the
	// issued token. Ignored when a ClaimsResolver is registered on the
	// Handler. Default: {"email": principal.Email}.
	ClaimsMapping func(Principal) map[string]any

	// RedirectFunction may divert an initiation request before the OIDC
	// handshake starts: when it returns a non-empty URL the original form
	// payload is re-posted there verbatim and the handshake is skipped.
	RedirectFunction func(url.Values) string

	// LoginURL overrides the scheme and host used to build the login
	// redirect URI (LoginURL + "/" + LoginEndpoint). When empty the
	// current request's scheme and host are used. The combined value must
	// match the redirect URI registered with the Platform.
	LoginURL string
}

// InitiationPath returns the mount path for initiation requests.
func (o Options) InitiationPath() string {
	return "/" + o.initiationEndpoint()
}

// LoginPath returns the mount path for login callback requests.
func (o Options) LoginPath() string {
	return "/" + o.loginEndpoint()
}

func (o Options) initiationEndpoint() string {
	if o.InitiationEndpoint != "" {
		return o.InitiationEndpoint
	}
	return DefaultInitiationEndpoint
}

func (o Options) loginEndpoint() string {
	if o.LoginEndpoint != "" {
		return o.LoginEndpoint
	}
	return DefaultLoginEndpoint
}

func (o Options) tokenLifetime() time.Duration {
	if o.TokenLifetime > 0 {
		return o.TokenLifetime
	}
	return DefaultTokenLifetime
}

func (o Options) userAgent() string {
	if o.UserAgent != "" {
		return o.UserAgent
	}
	return DefaultUserAgent
}

func (o Options) claimsMapping() func(Principal) map[string]any {
	if o.ClaimsMapping != nil {
		return o.ClaimsMapping
	}
	return func(p Principal) map[string]any {
		return map[string]any{"email": p.Email}
	}
}
