package links

import (
	"context"
	"log/slog"

	"github.com/loslc/loslc-links/internal/rbac"
	"github.com/loslc/loslc-links/internal/shared"
)

// CreateRequest carries the fields needed to create a link.
type CreateRequest struct {
	Label       string
	URL         string
	Description *string
}

// UpdateRequest carries the fields needed to rewrite a link.
type UpdateRequest struct {
	ID          string
	Label       string
	URL         string
	Description *string
}

// Service orchestrates link CRUD. Reads by ID or label are public; mutations
// require ownership of the link's scoped read-write grant (admins may delete
// anything).
type Service struct {
	repo   Repository
	audit  rbac.AuditRecorder
	logger *slog.Logger
}

// NewService constructs a Service.
func NewService(repo Repository, audit rbac.AuditRecorder, logger *slog.Logger) *Service {
	return &Service{repo: repo, audit: audit, logger: logger}
}

// GetByID returns a link by ID. Public.
func (s *Service) GetByID(ctx context.Context, id string) (*Link, error) {
	link, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return shared.CheckExistence(link, "Link not found.")
}

// GetByLabel returns a link by its unique label. Public.
func (s *Service) GetByLabel(ctx context.Context, label string) (*Link, error) {
	link, err := s.repo.GetByLabel(ctx, label)
	if err != nil {
		return nil, err
	}
	return shared.CheckExistence(link, "Link not found.")
}

// ListMine returns the actor's own links, paginated.
func (s *Service) ListMine(ctx context.Context, actor rbac.Actor, page shared.PageQuery) ([]Link, error) {
	return s.repo.ListByUser(ctx, actor.ID, page.Skip, page.Limit)
}

// ListForUser returns another user's links. Requires a global read or
// read-write grant on the link resource (admins bypass).
func (s *Service) ListForUser(ctx context.Context, actor rbac.Actor, targetUserID string, page shared.PageQuery) ([]Link, error) {
	checker := rbac.Checker{
		Store:      s.repo,
		Roles:      actor.Roles,
		BypassRole: rbac.AdminRoleName,
		Checks: []rbac.Check{
			rbac.GlobalCheck(rbac.ResourceLink, rbac.ActionRead),
			rbac.GlobalCheck(rbac.ResourceLink, rbac.ActionReadWrite),
		},
	}
	if err := checker.CheckAny(ctx); err != nil {
		return nil, err
	}
	target, err := s.repo.FindUserID(ctx, targetUserID)
	if err != nil {
		return nil, err
	}
	if _, err := shared.CheckExistence(target, "User not found."); err != nil {
		return nil, err
	}
	return s.repo.ListByUser(ctx, targetUserID, page.Skip, page.Limit)
}

// Create persists a new link for the actor. Labels are globally unique. The
// link, a fresh personal role for the owner and its scoped read-write
// permission commit atomically.
func (s *Service) Create(ctx context.Context, actor rbac.Actor, req CreateRequest) (*Link, error) {
	existing, err := s.repo.GetByLabel(ctx, req.Label)
	if err != nil {
		return nil, err
	}
	if err := shared.CheckNonExistence(existing != nil, "Resource not found"); err != nil {
		return nil, err
	}
	link := NewLink(actor.ID, req.Label, req.URL, req.Description)
	role, roleLinks := rbac.PersonalRole(actor.ID)
	perm, err := rbac.NewPermission(rbac.PermissionSpec{
		Resource:   rbac.ResourceLink,
		Action:     rbac.ActionReadWrite,
		ResourceID: &link.ID,
		Role:       &role,
	})
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreateLinkGraph(ctx, link, role, roleLinks, perm); err != nil {
		return nil, err
	}
	s.record(ctx, actor, "link.created", link.ID, map[string]any{"label": link.Label})
	return &link, nil
}

// Update rewrites a link's label, URL and description. Requires the scoped
// read-write grant on the link itself; no admin bypass.
func (s *Service) Update(ctx context.Context, actor rbac.Actor, req UpdateRequest) (*Link, error) {
	link, err := s.repo.GetByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	link, err = shared.CheckExistence(link, "Resource not found")
	if err != nil {
		return nil, err
	}
	checker := rbac.Checker{
		Store:  s.repo,
		Roles:  actor.Roles,
		Checks: []rbac.Check{rbac.ScopedCheck(rbac.ResourceLink, link.ID, rbac.ActionReadWrite)},
	}
	if err := checker.Check(ctx); err != nil {
		return nil, err
	}
	link.Label = req.Label
	link.URL = req.URL
	link.Description = req.Description
	if err := s.repo.Update(ctx, *link); err != nil {
		return nil, err
	}
	s.record(ctx, actor, "link.updated", link.ID, map[string]any{"label": link.Label})
	return link, nil
}

// Delete removes a link. Requires the scoped read-write grant on the link;
// admins bypass.
func (s *Service) Delete(ctx context.Context, actor rbac.Actor, linkID string) error {
	link, err := s.repo.GetByID(ctx, linkID)
	if err != nil {
		return err
	}
	link, err = shared.CheckExistence(link, "Resource not found")
	if err != nil {
		return err
	}
	checker := rbac.Checker{
		Store:      s.repo,
		Roles:      actor.Roles,
		BypassRole: rbac.AdminRoleName,
		Checks:     []rbac.Check{rbac.ScopedCheck(rbac.ResourceLink, link.ID, rbac.ActionReadWrite)},
	}
	if err := checker.Check(ctx); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, linkID); err != nil {
		return err
	}
	s.record(ctx, actor, "link.deleted", linkID, nil)
	return nil
}

func (s *Service) record(ctx context.Context, actor rbac.Actor, action, entityID string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor.ID,
		Action:   action,
		Entity:   "link",
		EntityID: entityID,
		Meta:     meta,
	}); err != nil && s.logger != nil {
		s.logger.Warn("audit record", slog.Any("error", err))
	}
}
