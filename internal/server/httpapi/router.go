package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/auth"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/dmitrijs2005/authkeeper/internal/server/services"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// AuthService is what the handlers need from services.AuthService.
type AuthService interface {
	Signup(ctx context.Context, username, email, password string) (*services.SignupResult, error)
	Login(ctx context.Context, username, password string) (*services.TokenPair, error)
	Activate(ctx context.Context, token string) error
	Refresh(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Me(ctx context.Context, userID string) (*models.User, error)
}

// RouterOptions configures NewRouter.
type RouterOptions struct {
	// Secret verifies bearer tokens on protected routes.
	Secret []byte
	// Signer parses bearer tokens; nil means auth.JWTSigner.
	Signer         auth.Signer
	AllowedOrigins []string
}

// NewRouter builds the HTTP router. gatherer backs /metrics; nil leaves the
// route out.
func NewRouter(svc AuthService, opts RouterOptions, l logging.Logger, gatherer prometheus.Gatherer) http.Handler {
	l = l.With("module", "http")
	h := &authHandler{svc: svc, logger: l}

	signer := opts.Signer
	if signer == nil {
		signer = auth.JWTSigner{}
	}

	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPut, http.MethodPost, http.MethodDelete},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "Origin"},
		AllowCredentials: true,
		MaxAge:           int((10 * time.Minute).Seconds()),
	}))
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(requestLogger(l))
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("Welcome Home!"))
	})
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("OK"))
	})
	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(v1 chi.Router) {
		v1.Post("/signup", h.signup)
		v1.Post("/login", h.login)
		v1.Post("/refresh", h.refresh)
		v1.Get("/activate-user/token/{token}", h.activate)

		v1.Group(func(protected chi.Router) {
			protected.Use(requireAccessToken(signer, opts.Secret))
			protected.Get("/me", h.me)
		})
	})

	return r
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
