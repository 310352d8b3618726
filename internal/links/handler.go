package links

import (
	"log/slog"
	"net/http"
	"regexp"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/loslc/loslc-links/internal/platform/httpx"
	"github.com/loslc/loslc-links/internal/rbac"
	"github.com/loslc/loslc-links/internal/shared"
)

var labelPattern = regexp.MustCompile(`^[a-zA-Z0-9-]+$`)

// Handler exposes link endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	v := validator.New()
	_ = v.RegisterValidation("linklabel", func(fl validator.FieldLevel) bool {
		return labelPattern.MatchString(fl.Field().String())
	})
	return &Handler{logger: logger, service: service, validator: v}
}

// MountPublicRoutes registers the unauthenticated read routes.
func (h *Handler) MountPublicRoutes(r chi.Router) {
	r.Get("/{linkID}", h.getByID)
	r.Get("/label/{label}", h.getByLabel)
}

// MountUserRoutes registers the routes that require a logged-in user.
func (h *Handler) MountUserRoutes(r chi.Router) {
	r.Get("/", h.listMine)
	r.Post("/", h.create)
	r.Put("/", h.update)
	r.Delete("/{linkID}", h.delete)
	r.Get("/user/{userID}", h.listForUser)
}

func (h *Handler) getByID(w http.ResponseWriter, r *http.Request) {
	link, err := h.service.GetByID(r.Context(), chi.URLParam(r, "linkID"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, link)
}

func (h *Handler) getByLabel(w http.ResponseWriter, r *http.Request) {
	label := chi.URLParam(r, "label")
	if !labelPattern.MatchString(label) {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "label must contain only letters, digits and hyphens")
		return
	}
	link, err := h.service.GetByLabel(r.Context(), label)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, link)
}

func (h *Handler) listMine(w http.ResponseWriter, r *http.Request) {
	actor := rbac.ActorFromContext(r.Context())
	out, err := h.service.ListMine(r.Context(), *actor, shared.ParsePageQuery(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if out == nil {
		out = []Link{}
	}
	httpx.JSON(w, http.StatusOK, out)
}

type createLinkRequest struct {
	Label       string  `json:"label" validate:"required,linklabel"`
	URL         string  `json:"url" validate:"required,url"`
	Description *string `json:"description"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	actor := rbac.ActorFromContext(r.Context())
	var req createLinkRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	link, err := h.service.Create(r.Context(), *actor, CreateRequest{
		Label:       req.Label,
		URL:         req.URL,
		Description: req.Description,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, link)
}

type updateLinkRequest struct {
	ID          string  `json:"id" validate:"required"`
	Label       string  `json:"label" validate:"required,linklabel"`
	URL         string  `json:"url" validate:"required,url"`
	Description *string `json:"description"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	actor := rbac.ActorFromContext(r.Context())
	var req updateLinkRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Body", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	link, err := h.service.Update(r.Context(), *actor, UpdateRequest{
		ID:          req.ID,
		Label:       req.Label,
		URL:         req.URL,
		Description: req.Description,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, link)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	actor := rbac.ActorFromContext(r.Context())
	if err := h.service.Delete(r.Context(), *actor, chi.URLParam(r, "linkID")); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, httpx.Message{Message: "Link deleted successfully."})
}

func (h *Handler) listForUser(w http.ResponseWriter, r *http.Request) {
	actor := rbac.ActorFromContext(r.Context())
	out, err := h.service.ListForUser(r.Context(), *actor, chi.URLParam(r, "userID"), shared.ParsePageQuery(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if out == nil {
		out = []Link{}
	}
	httpx.JSON(w, http.StatusOK, out)
}
