package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr  string
	PublicURL string

	// LTI 1.3 / OIDC (Tool-side)
	ClientID           string
	AuthenticateURL    string
	JwksURL            string
	SigningKey         string
	InitiationEndpoint string
	LoginEndpoint      string
	RedirectURL        string // optional override for the post-login redirect
	LoginURL           string // optional scheme+host override for the login callback
	TokenLifetime      time.Duration
	UserAgent          string

	DBDriver string
	DBDSN    string

	EnableLocalAuth bool
	AdminUser       string
	AdminPassHash   string // bcrypt

	CORSOrigins []string

	StaticDir string
}

func FromEnv() Config {
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	return Config{
		HTTPAddr:  addr,
		PublicURL: os.Getenv("PUBLIC_URL"),

		ClientID:           os.Getenv("LTI_CLIENT_ID"),
		AuthenticateURL:    envOr("LTI_AUTHENTICATE_URL", "https://canvas.instructure.com/api/lti/authorize_redirect"),
		JwksURL:            envOr("LTI_JWKS_URL", "https://canvas.instructure.com/api/lti/security/jwks"),
		SigningKey:         os.Getenv("LTI_SIGNING_KEY"),
		InitiationEndpoint: envOr("LTI_INITIATION_ENDPOINT", "oidc"),
		LoginEndpoint:      envOr("LTI_LOGIN_ENDPOINT", "signin-oidc"),
		RedirectURL:        os.Getenv("LTI_REDIRECT_URL"),
		LoginURL:           envOr("LTI_LOGIN_URL", os.Getenv("PUBLIC_URL")),
		TokenLifetime:      time.Duration(envInt("LTI_TOKEN_LIFETIME_MIN", 120)) * time.Minute,
		UserAgent:          envOr("LTI_USER_AGENT", "LTI-Client"),

		DBDriver: envOr("DB_DRIVER", "sqlite"),
		DBDSN:    envOr("DB_DSN", ""),

		EnableLocalAuth: envBool("ENABLE_LOCAL_AUTH", false),
		AdminUser:       envOr("ADMIN_USER", "admin"),
		AdminPassHash:   os.Getenv("ADMIN_PASS_HASH"),

		CORSOrigins: csvOr("CORS_ORIGINS", "http://localhost:3000"),

		StaticDir: envOr("STATIC_DIR", "./static"),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
