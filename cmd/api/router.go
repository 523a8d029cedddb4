package main

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/crucial707/quill/internal/auth"
	"github.com/crucial707/quill/internal/config"
	"github.com/crucial707/quill/internal/handlers"
	"github.com/crucial707/quill/internal/middleware"
	"github.com/crucial707/quill/internal/repo"
	"github.com/crucial707/quill/internal/service"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const readyTimeout = 2 * time.Second

// newRouter builds the full HTTP handler. images may be nil, in which case the
// upload route is not mounted.
func newRouter(db *sql.DB, cfg config.Config, images handlers.ImageStore) http.Handler {
	users := repo.NewUserRepo(db)
	tokens := auth.NewTokens([]byte(cfg.JWTSecret), tokenTTL(cfg))

	authH := &handlers.AuthHandler{Service: service.NewAuthService(users, tokens)}
	postH := &handlers.PostHandler{Service: service.NewPostService(repo.NewPostRepo(db))}

	authn := middleware.Authenticate(tokens, users)
	body := middleware.MaxBytes(cfg.MaxBodyBytes)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestLog)
	r.Use(middleware.Prometheus)
	r.Use(middleware.SecurityHeaders(cfg.TLSCertFile != ""))
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			handlers.JSONError(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ready"}`))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(body).Post("/register", authH.Register)
			r.With(body).Post("/login", authH.Login)
			r.With(authn).Get("/me", authH.Me)
		})

		r.Route("/posts", func(r chi.Router) {
			r.Get("/", postH.ListPosts)
			r.Get("/{id}", postH.GetPost)

			r.Group(func(r chi.Router) {
				r.Use(authn)
				r.With(body).Post("/", postH.CreatePost)
				r.With(body).Put("/{id}", postH.UpdatePost)
				r.Delete("/{id}", postH.DeletePost)
			})
		})

		if images != nil {
			uploadH := &handlers.UploadHandler{Store: images}
			// multipart framing on top of the image itself
			r.With(authn, middleware.MaxBytes(middleware.MaxImageBytes+64<<10)).Post("/uploads", uploadH.UploadImage)
		}
	})

	return otelhttp.NewHandler(r, "quill-api",
		otelhttp.WithFilter(func(r *http.Request) bool {
			return r.URL.Path != "/metrics" && r.URL.Path != "/health"
		}),
	)
}

func tokenTTL(cfg config.Config) time.Duration {
	if cfg.JWTExpireHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(cfg.JWTExpireHours) * time.Hour
}
