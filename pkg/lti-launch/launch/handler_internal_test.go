package launch

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// A state without a target cannot be minted through the initiation
// handler, but a verified login presenting one means the handshake
// state was corrupted somewhere we cannot recover from.
func TestLoginMissingTargetIsFatal(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pub := key.Public().(*rsa.PublicKey)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"keys": []map[string]any{{
				"kty": "RSA",
				"alg": "RS256",
				"kid": "k1",
				"n":   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
				"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
			}},
		})
	}))
	defer srv.Close()

	h := &Handler{Options: Options{
		ClientID:        "client-1",
		AuthenticateURL: "https://platform.example/auth",
		JwksURL:         srv.URL,
		SigningKey:      testKey,
	}}

	state, err := signState([]byte(testKey), "nonce-1", "", "client-1", time.Now())
	if err != nil {
		t.Fatalf("sign state: %v", err)
	}

	idTok := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
		"aud":   "client-1",
		"sub":   "u1",
		"nonce": "nonce-1",
		"exp":   time.Now().Add(time.Minute).Unix(),
	})
	idTok.Header["kid"] = "k1"
	signed, err := idTok.SignedString(key)
	if err != nil {
		t.Fatalf("sign id_token: %v", err)
	}

	form := url.Values{"state": {state}, "id_token": {signed}}
	req := httptest.NewRequest(http.MethodPost, "https://tool.example/signin-oidc", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	handled, err := h.HandleLogin(httptest.NewRecorder(), req)
	if handled || err == nil {
		t.Fatalf("handled=%v err=%v, want unrecoverable failure", handled, err)
	}
}

func TestSchemeFromRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "http://tool.example/oidc", nil)
	if got := schemeFromRequest(req); got != "http" {
		t.Fatalf("plain request scheme = %q", got)
	}

	req.Header.Set("X-Forwarded-Proto", "https, http")
	if got := schemeFromRequest(req); got != "https" {
		t.Fatalf("forwarded scheme = %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "https://tool.example/oidc", nil)
	if got := schemeFromRequest(req); got != "https" {
		t.Fatalf("tls scheme = %q", got)
	}
}
