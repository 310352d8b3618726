package users

import (
	"context"
	"log/slog"

	"github.com/loslc/loslc-links/internal/rbac"
	"github.com/loslc/loslc-links/internal/shared"
)

// Service orchestrates account administration.
type Service struct {
	repo   Repository
	audit  rbac.AuditRecorder
	logger *slog.Logger
}

// NewService constructs a Service.
func NewService(repo Repository, audit rbac.AuditRecorder, logger *slog.Logger) *Service {
	return &Service{repo: repo, audit: audit, logger: logger}
}

// List returns all accounts. Requires a global read or read-write grant on the
// user resource (admins bypass).
func (s *Service) List(ctx context.Context, actor rbac.Actor, page shared.PageQuery) ([]User, error) {
	checker := rbac.Checker{
		Store:      s.repo,
		Roles:      actor.Roles,
		BypassRole: rbac.AdminRoleName,
		Checks: []rbac.Check{
			rbac.GlobalCheck(rbac.ResourceUser, rbac.ActionRead),
			rbac.GlobalCheck(rbac.ResourceUser, rbac.ActionReadWrite),
		},
	}
	if err := checker.CheckAny(ctx); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, page.Skip, page.Limit)
}

// Delete removes an account and everything hanging off it. Requires a global
// read-write grant on the user resource (admins bypass).
func (s *Service) Delete(ctx context.Context, actor rbac.Actor, targetUserID string) error {
	checker := rbac.Checker{
		Store:      s.repo,
		Roles:      actor.Roles,
		BypassRole: rbac.AdminRoleName,
		Checks:     []rbac.Check{rbac.GlobalCheck(rbac.ResourceUser, rbac.ActionReadWrite)},
	}
	if err := checker.CheckAny(ctx); err != nil {
		return err
	}
	target, err := s.repo.GetByID(ctx, targetUserID)
	if err != nil {
		return err
	}
	if _, err := shared.CheckExistence(target, "User not found."); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, targetUserID); err != nil {
		return err
	}
	s.record(ctx, actor, "user.deleted", targetUserID, nil)
	return nil
}

func (s *Service) record(ctx context.Context, actor rbac.Actor, action, entityID string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor.ID,
		Action:   action,
		Entity:   "user",
		EntityID: entityID,
		Meta:     meta,
	}); err != nil && s.logger != nil {
		s.logger.Warn("audit record", slog.Any("error", err))
	}
}
