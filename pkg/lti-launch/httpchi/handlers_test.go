package httpchi

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/mind-engage/lti-launch/pkg/lti-launch/launch"
)

func testRouter() *chi.Mux {
	h := &launch.Handler{Options: launch.Options{
		ClientID:        "client-1",
		AuthenticateURL: "https://platform.example/auth",
		JwksURL:         "https://platform.example/jwks",
		SigningKey:      "0123456789abcdef0123456789abcdef",
	}}
	r := chi.NewRouter()
	(&API{Handler: h}).Routes(r)
	return r
}

func post(r http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRoutesServeInitiation(t *testing.T) {
	rec := post(testRouter(), "/oidc", url.Values{
		"target_link_uri": {"https://tool.example/launch"},
		"client_id":       {"client-1"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `name="state"`) {
		t.Fatalf("no state field in response:\n%s", rec.Body.String())
	}
}

func TestDeclinedRequestIs404(t *testing.T) {
	// Foreign client id: the handler declines, the router answers 404.
	rec := post(testRouter(), "/oidc", url.Values{
		"target_link_uri": {"https://tool.example/launch"},
		"client_id":       {"someone-else"},
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestLoginDeclineIs404(t *testing.T) {
	rec := post(testRouter(), "/signin-oidc", url.Values{
		"state":    {"garbage"},
		"id_token": {"garbage"},
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestCustomEndpointsAreMounted(t *testing.T) {
	h := &launch.Handler{Options: launch.Options{
		ClientID:           "client-1",
		AuthenticateURL:    "https://platform.example/auth",
		JwksURL:            "https://platform.example/jwks",
		SigningKey:         "0123456789abcdef0123456789abcdef",
		InitiationEndpoint: "lti/init",
		LoginEndpoint:      "lti/callback",
	}}
	r := chi.NewRouter()
	(&API{Handler: h}).Routes(r)

	rec := post(r, "/lti/init", url.Values{
		"target_link_uri": {"https://tool.example/launch"},
		"client_id":       {"client-1"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}
