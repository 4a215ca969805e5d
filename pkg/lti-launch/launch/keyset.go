// pkg/lti-launch/launch/keyset.go
package launch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	keyfunc "github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// defaultKeysetTimeout bounds the key set fetch so a stalled Platform
// cannot pin a login request indefinitely.
const defaultKeysetTimeout = 15 * time.Second

// fetchKeyfunc retrieves the Platform's public key set and wraps it as
// a verification keyfunc. The set is fetched fresh for every login
// attempt; keys are deliberately not cached between requests.
func (h *Handler) fetchKeyfunc(ctx context.Context) (jwt.Keyfunc, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.Options.JwksURL, nil)
	if err != nil {
		return nil, fmt.Errorf("key set request: %w", err)
	}
	req.Header.Set("User-Agent", h.Options.userAgent())

	resp, err := h.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("key set fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("key set fetch: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("key set read: %w", err)
	}
	kf, err := keyfunc.NewJWKSetJSON(body)
	if err != nil {
		return nil, fmt.Errorf("key set parse: %w", err)
	}
	return kf.Keyfunc, nil
}

func (h *Handler) httpClient() *http.Client {
	if h.HTTPClient != nil {
		return h.HTTPClient
	}
	return &http.Client{Timeout: defaultKeysetTimeout}
}
