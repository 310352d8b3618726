package rbac

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/loslc/loslc-links/internal/platform/httpx"
	"github.com/loslc/loslc-links/internal/shared"
)

// Handler exposes role and permission administration endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoleRoutes registers role administration routes.
func (h *Handler) MountRoleRoutes(r chi.Router) {
	r.Get("/", h.listRoles)
	r.Post("/", h.createRole)
	r.Delete("/{roleID}", h.deleteRole)
	r.Get("/{roleID}/permissions", h.rolePermissions)
	r.Post("/assign", h.assignRole)
	r.Post("/remove", h.removeRole)
}

// MountPermissionRoutes registers permission administration routes.
func (h *Handler) MountPermissionRoutes(r chi.Router) {
	r.Get("/", h.listPermissions)
	r.Post("/", h.createPermission)
	r.Delete("/{permissionID}", h.deletePermission)
	r.Post("/grant", h.grantPermission)
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	actor := ActorFromContext(r.Context())
	roles, err := h.service.ListRoles(r.Context(), *actor, shared.ParsePageQuery(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if roles == nil {
		roles = []Role{}
	}
	httpx.JSON(w, http.StatusOK, roles)
}

type createRoleRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

func (h *Handler) createRole(w http.ResponseWriter, r *http.Request) {
	actor := ActorFromContext(r.Context())
	var req createRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	role, err := h.service.CreateRole(r.Context(), *actor, req.Name)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, role)
}

func (h *Handler) deleteRole(w http.ResponseWriter, r *http.Request) {
	actor := ActorFromContext(r.Context())
	if err := h.service.DeleteRole(r.Context(), *actor, chi.URLParam(r, "roleID")); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, httpx.Message{Message: "Role deleted successfully."})
}

func (h *Handler) rolePermissions(w http.ResponseWriter, r *http.Request) {
	actor := ActorFromContext(r.Context())
	perms, err := h.service.RolePermissions(r.Context(), *actor, chi.URLParam(r, "roleID"), shared.ParsePageQuery(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if perms == nil {
		perms = []Permission{}
	}
	httpx.JSON(w, http.StatusOK, perms)
}

type assignRoleRequest struct {
	UserID string `json:"user_id" validate:"required"`
	RoleID string `json:"role_id" validate:"required"`
}

func (h *Handler) assignRole(w http.ResponseWriter, r *http.Request) {
	actor := ActorFromContext(r.Context())
	var req assignRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	message, err := h.service.AssignRole(r.Context(), *actor, req.UserID, req.RoleID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, httpx.Message{Message: message})
}

func (h *Handler) removeRole(w http.ResponseWriter, r *http.Request) {
	actor := ActorFromContext(r.Context())
	var req assignRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.service.RemoveRole(r.Context(), *actor, req.UserID, req.RoleID); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, httpx.Message{Message: "Role removed from user successfully."})
}

func (h *Handler) listPermissions(w http.ResponseWriter, r *http.Request) {
	actor := ActorFromContext(r.Context())
	perms, err := h.service.ListPermissions(r.Context(), *actor, shared.ParsePageQuery(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if perms == nil {
		perms = []Permission{}
	}
	httpx.JSON(w, http.StatusOK, perms)
}

type createPermissionRequest struct {
	RoleID       string  `json:"role_id" validate:"required"`
	ActionName   string  `json:"action_name" validate:"required"`
	ResourceName string  `json:"resource_name" validate:"required"`
	ResourceID   *string `json:"resource_id"`
}

func (h *Handler) createPermission(w http.ResponseWriter, r *http.Request) {
	actor := ActorFromContext(r.Context())
	var req createPermissionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	perm, err := h.service.CreatePermission(r.Context(), *actor, req.RoleID, req.ResourceName, req.ResourceID, req.ActionName)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, perm)
}

func (h *Handler) deletePermission(w http.ResponseWriter, r *http.Request) {
	actor := ActorFromContext(r.Context())
	if err := h.service.DeletePermission(r.Context(), *actor, chi.URLParam(r, "permissionID")); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, httpx.Message{Message: "Permission deleted successfully."})
}

type grantPermissionRequest struct {
	UserID       string  `json:"user_id" validate:"required"`
	ActionName   string  `json:"action_name" validate:"required,oneof=r rw"`
	ResourceName string  `json:"resource_name" validate:"required,oneof=resource link"`
	ResourceID   string  `json:"resource_id" validate:"required"`
	RoleName     *string `json:"role_name"`
}

func (h *Handler) grantPermission(w http.ResponseWriter, r *http.Request) {
	actor := ActorFromContext(r.Context())
	var req grantPermissionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	if err := h.service.GrantUserPermission(r.Context(), *actor, req.UserID, req.ResourceName, req.ResourceID, req.ActionName, req.RoleName); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, httpx.Message{Message: "Permission added successfully."})
}
