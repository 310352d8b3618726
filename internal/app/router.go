package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/loslc/loslc-links/internal/auth"
	"github.com/loslc/loslc-links/internal/links"
	"github.com/loslc/loslc-links/internal/observability"
	"github.com/loslc/loslc-links/internal/rbac"
	"github.com/loslc/loslc-links/internal/users"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	AuthHandler    *auth.Handler
	AuthMiddleware auth.Middleware
	LinksHandler   *links.Handler
	UsersHandler   *users.Handler
	RBACHandler    *rbac.Handler
	Metrics        *observability.Metrics
}

// NewRouter constructs the chi.Router for the API.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", params.AuthHandler.MountRoutes)
		r.Route("/links", func(r chi.Router) {
			params.LinksHandler.MountPublicRoutes(r)
			r.Group(func(r chi.Router) {
				r.Use(params.AuthMiddleware.RequireUser)
				params.LinksHandler.MountUserRoutes(r)
			})
		})
		r.Group(func(r chi.Router) {
			r.Use(params.AuthMiddleware.RequireUser)
			r.Route("/users", params.UsersHandler.MountRoutes)
			r.Route("/roles", params.RBACHandler.MountRoleRoutes)
			r.Route("/permissions", params.RBACHandler.MountPermissionRoutes)
		})
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
