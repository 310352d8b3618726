package users

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/loslc/loslc-links/internal/platform/httpx"
	"github.com/loslc/loslc-links/internal/rbac"
	"github.com/loslc/loslc-links/internal/shared"
)

// Handler exposes account administration endpoints. Role queries and the
// admin check are served by the rbac service.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    *rbac.Service
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbacService *rbac.Service) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbacService}
}

// MountRoutes registers the account administration routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/admin-check", h.adminCheck)
	r.Delete("/{userID}", h.delete)
	r.Get("/{userID}/roles", h.userRoles)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	actor := rbac.ActorFromContext(r.Context())
	out, err := h.service.List(r.Context(), *actor, shared.ParsePageQuery(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if out == nil {
		out = []User{}
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	actor := rbac.ActorFromContext(r.Context())
	userID := chi.URLParam(r, "userID")
	if err := h.service.Delete(r.Context(), *actor, userID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, httpx.Message{Message: fmt.Sprintf("User %s deleted successfully.", userID)})
}

func (h *Handler) userRoles(w http.ResponseWriter, r *http.Request) {
	actor := rbac.ActorFromContext(r.Context())
	roles, err := h.rbac.UserRoles(r.Context(), *actor, chi.URLParam(r, "userID"), shared.ParsePageQuery(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if roles == nil {
		roles = []rbac.Role{}
	}
	httpx.JSON(w, http.StatusOK, roles)
}

func (h *Handler) adminCheck(w http.ResponseWriter, r *http.Request) {
	actor := rbac.ActorFromContext(r.Context())
	isAdmin, err := h.rbac.IsAdmin(r.Context(), *actor)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, isAdmin)
}
