package auth

import (
	"log/slog"
	"net/http"

	"github.com/loslc/loslc-links/internal/platform/httpx"
	"github.com/loslc/loslc-links/internal/rbac"
	"github.com/loslc/loslc-links/internal/shared"
)

// Middleware resolves the authenticated actor for protected routes.
type Middleware struct {
	Service *Service
	Logger  *slog.Logger
}

// RequireUser rejects requests without a valid login session and stores the
// resolved actor (user ID plus roles) in the request context.
func (m Middleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(shared.SessionCookieName)
		if err != nil {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "Not authenticated.")
			return
		}
		actor, _, err := m.Service.ResolveSession(r.Context(), cookie.Value)
		if err != nil {
			if m.Logger != nil {
				m.Logger.Debug("session resolution failed", slog.Any("error", err))
			}
			httpx.RespondError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(rbac.ContextWithActor(r.Context(), actor)))
	})
}
