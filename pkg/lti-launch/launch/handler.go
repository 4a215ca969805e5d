// pkg/lti-launch/launch/handler.go
package launch

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

/*
LTI 1.3 launch authentication (Tool side)

Implements the third-party initiated login flow: the Platform POSTs a
launch initiation to the initiation endpoint, the Tool bounces the
browser to the Platform's authorization endpoint carrying a signed
state token, and the Platform POSTs back an id_token to the login
endpoint. A verified login yields a signed application token delivered
to the launch target as a URL fragment.

Both handlers report their outcome as (handled, err):

	(true, nil)   the request was answered; stop
	(false, nil)  declined; let the surrounding router fall through
	(_, err)      internal failure; answer with a generic server error

Declines are deliberately silent toward the browser (missing fields,
client-id mismatch, signature/nonce failures all look identical); the
reason is logged for operators only.

Typical wiring:

	h := &launch.Handler{Options: launch.Options{...}}
	r := chi.NewRouter()
	(&httpchi.API{Handler: h}).Routes(r)
*/

// Handler runs the two-phase launch handshake. Configure Options and
// the optional collaborators before serving; a Handler is then safe for
// concurrent use and holds no per-request state.
type Handler struct {
	Options Options

	// ClaimsResolver, when set, produces the issued token's claims and
	// takes precedence over Options.ClaimsMapping.
	ClaimsResolver ClaimsResolver

	// RedirectResolver, when set, may pick the post-login redirect.
	RedirectResolver RedirectURLResolver

	// HTTPClient overrides the client used for the key set fetch.
	// Default: a client with a 15 second timeout.
	HTTPClient *http.Client

	// Logger receives operator-facing decline/failure reasons.
	// Default: log.Default().
	Logger *log.Logger

	// Now overrides the clock (useful in tests).
	Now func() time.Time
}

// HandleInitiation validates a launch initiation request and answers
// with an auto-submit form toward the Platform's authorization
// endpoint (or the RedirectFunction's URL).
func (h *Handler) HandleInitiation(w http.ResponseWriter, r *http.Request) (bool, error) {
	if err := r.ParseForm(); err != nil {
		h.logf("lti: initiation with unparsable form: %v", err)
		return false, nil
	}

	target := r.PostFormValue("target_link_uri")
	if target == "" {
		h.logf("lti: missing target link uri")
		return false, nil
	}
	if clientID := r.PostFormValue("client_id"); clientID != h.Options.ClientID {
		h.logf("lti: skipping request for %s in %s", clientID, h.Options.ClientID)
		return false, nil
	}

	// Escape hatch: re-post the original payload elsewhere, skipping
	// the handshake entirely.
	if h.Options.RedirectFunction != nil {
		if redirect := h.Options.RedirectFunction(r.PostForm); redirect != "" {
			return true, writeAutoSubmitForm(w, redirect, sortedFormFields(r.PostForm))
		}
	}

	nonce := uuid.NewString()
	state, err := signState([]byte(h.Options.SigningKey), nonce, target, h.Options.ClientID, h.timeNow())
	if err != nil {
		return false, err
	}

	fields := []FormField{
		{"client_id", h.Options.ClientID},
		{"response_type", "id_token"},
		{"response_mode", "form_post"},
		{"redirect_uri", h.loginRedirectURI(r)},
		{"login_hint", r.PostFormValue("login_hint")},
		{"scope", "openid"},
		{"state", state},
		{"nonce", nonce},
		{"prompt", "none"},
		{"lti_message_hint", r.PostFormValue("lti_message_hint")},
	}
	return true, writeAutoSubmitForm(w, h.Options.AuthenticateURL, fields)
}

// HandleLogin verifies the round-tripped state and the Platform's
// id_token, binds them via the nonce, and redirects the browser with a
// freshly signed application token.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) (bool, error) {
	if err := r.ParseForm(); err != nil {
		h.logf("lti: login with unparsable form: %v", err)
		return false, nil
	}

	state, err := verifyState([]byte(h.Options.SigningKey), r.PostFormValue("state"), h.timeNow)
	if err != nil {
		h.logf("lti: state verification failed: %v", err)
		return false, nil
	}
	if state.ClientID != h.Options.ClientID {
		return false, nil
	}

	keys, err := h.fetchKeyfunc(r.Context())
	if err != nil {
		return false, err
	}
	idClaims, err := h.verifyIDToken(r.PostFormValue("id_token"), keys)
	if err != nil {
		h.logf("lti: id_token verification failed: %v", err)
		return false, nil
	}

	if nonce := stringClaim(idClaims, "nonce"); nonce == "" || nonce != state.Nonce {
		h.logf("lti: nonce mismatch")
		return false, nil
	}

	if state.Target == "" {
		h.logf("lti: redirect target missing")
		return false, errors.New("lti: redirect target missing from state")
	}

	principal, err := principalFromClaims(idClaims)
	if err != nil {
		return false, err
	}

	var claims map[string]any
	if h.ClaimsResolver != nil {
		claims, err = h.ClaimsResolver.ResolveClaims(r.Context(), principal)
		if err != nil {
			return false, err
		}
	} else {
		claims = h.Options.claimsMapping()(principal)
	}

	token, err := h.signApplicationToken(claims)
	if err != nil {
		return false, err
	}

	if h.RedirectResolver != nil {
		redirect, err := h.RedirectResolver.ResolveRedirectURL(r.Context(), token, claims)
		if err != nil {
			return false, err
		}
		if redirect != "" {
			http.Redirect(w, r, redirect, http.StatusFound)
			return true, nil
		}
	}

	base := h.Options.RedirectURL
	if base == "" {
		base = state.Target
	}
	// Fragment, never a query parameter: keeps the token out of logs.
	http.Redirect(w, r, base+"/#"+token, http.StatusFound)
	return true, nil
}

// verifyIDToken checks the id_token against the fetched key set. The
// audience must be the configured client id; the issuer is accepted
// as-is (it is whatever the Platform controls).
func (h *Handler) verifyIDToken(raw string, keys jwt.Keyfunc) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, keys,
		jwt.WithValidMethods([]string{"RS256", "RS384", "RS512", "ES256", "ES384", "ES512"}),
		jwt.WithAudience(h.Options.ClientID),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(h.timeNow),
	)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenUnverifiable
	}
	return claims, nil
}

func (h *Handler) signApplicationToken(claims map[string]any) (string, error) {
	now := h.timeNow()
	mc := jwt.MapClaims{}
	for k, v := range claims {
		mc[k] = v
	}
	mc["iss"] = tokenIssuer
	mc["iat"] = now.Unix()
	mc["exp"] = now.Add(h.Options.tokenLifetime()).Unix()
	return jwt.NewWithClaims(jwt.SigningMethodHS512, mc).SignedString([]byte(h.Options.SigningKey))
}

// loginRedirectURI is the callback the Platform posts the id_token to:
// either the configured LoginURL or the current request's scheme/host,
// plus the login endpoint.
func (h *Handler) loginRedirectURI(r *http.Request) string {
	if h.Options.LoginURL != "" {
		return strings.TrimSuffix(h.Options.LoginURL, "/") + "/" + h.Options.loginEndpoint()
	}
	return schemeFromRequest(r) + "://" + r.Host + "/" + h.Options.loginEndpoint()
}

func (h *Handler) timeNow() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now().UTC()
}

func (h *Handler) logf(format string, args ...any) {
	logger := h.Logger
	if logger == nil {
		logger = log.Default()
	}
	logger.Printf(format, args...)
}

// schemeFromRequest returns "https" when behind a proxy that sets
// X-Forwarded-Proto, otherwise falls back to the connection itself.
func schemeFromRequest(r *http.Request) string {
	if xf := r.Header.Get("X-Forwarded-Proto"); xf != "" {
		// may be "https,http"; take first
		if i := strings.IndexByte(xf, ','); i >= 0 {
			return strings.TrimSpace(xf[:i])
		}
		return strings.TrimSpace(xf)
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}
