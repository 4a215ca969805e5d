package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	api "github.com/mind-engage/lti-launch/internal/api/http"
	auth "github.com/mind-engage/lti-launch/internal/auth/middleware"
	"github.com/mind-engage/lti-launch/internal/config"
	"github.com/mind-engage/lti-launch/internal/rbac"
	"github.com/mind-engage/lti-launch/pkg/lti-launch/httpchi"
	"github.com/mind-engage/lti-launch/pkg/lti-launch/launch"
	"github.com/mind-engage/lti-launch/pkg/lti-launch/sqlstore"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func main() {
	cfg := config.FromEnv()
	if cfg.SigningKey == "" {
		log.Fatal("LTI_SIGNING_KEY is required (minimum 128-bit)")
	}

	// --- DB (user map for launched identities) ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := sqlstore.Open(ctx, sqlstore.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	store := sqlstore.NewStore(dbh)

	// --- LTI launch handshake ---
	lti := &launch.Handler{
		Options: launch.Options{
			ClientID:           cfg.ClientID,
			AuthenticateURL:    cfg.AuthenticateURL,
			JwksURL:            cfg.JwksURL,
			SigningKey:         cfg.SigningKey,
			InitiationEndpoint: cfg.InitiationEndpoint,
			LoginEndpoint:      cfg.LoginEndpoint,
			RedirectURL:        cfg.RedirectURL,
			LoginURL:           cfg.LoginURL,
			TokenLifetime:      cfg.TokenLifetime,
			UserAgent:          cfg.UserAgent,
		},
		ClaimsResolver: &sqlstore.ClaimsResolver{Store: store},
	}

	// --- Bearer auth for the app API ---
	authSvc := auth.NewAuthService(cfg.SigningKey)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Launch endpoints (the Platform posts here)
	(&httpchi.API{Handler: lti}).Routes(r)

	// Operator fallback login (disabled by default)
	if cfg.EnableLocalAuth {
		if cfg.AdminPassHash == "" {
			log.Fatal("ENABLE_LOCAL_AUTH requires ADMIN_PASS_HASH")
		}
		r.Post("/auth/login", auth.LoginHandler(authSvc, cfg.AdminUser, cfg.AdminPassHash))
	}

	// Protected API (JWT -> role in context -> RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))
		pr.Use(auth.AttachRole())

		pr.With(rbac.Require("profile:view")).
			Get("/api/me", api.MeHandler())
		pr.With(rbac.Require("roster:view")).
			Get("/api/roster", api.RosterHandler(dbh))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	// Static frontend (the launch target lives here)
	if st, err := os.Stat(cfg.StaticDir); err == nil && st.IsDir() {
		fs := http.FileServer(http.Dir(cfg.StaticDir))
		r.Handle("/*", fs)
	}

	log.Printf("toolserver listening on %s", cfg.HTTPAddr)
	if err := http.ListenAndServe(cfg.HTTPAddr, r); err != nil {
		log.Fatal(err)
	}
}
