package rbac

import (
	"context"
	"errors"
	"log/slog"

	"github.com/loslc/loslc-links/internal/shared"
)

// StorePort defines the persistence surface the service needs. *Store
// implements it against PostgreSQL.
type StorePort interface {
	PermissionStore

	GetRole(ctx context.Context, id string) (*Role, error)
	ListRoles(ctx context.Context, skip, limit int) ([]Role, error)
	RolesForUser(ctx context.Context, userID string, skip, limit int) ([]Role, error)
	CreateRole(ctx context.Context, role Role, links []RoleUserLink) error
	DeleteRole(ctx context.Context, id string) error

	GetPermission(ctx context.Context, id string) (*Permission, error)
	FindPermission(ctx context.Context, roleID, resource string, resourceID *string, action string) (*Permission, error)
	ListPermissions(ctx context.Context, skip, limit int) ([]Permission, error)
	RolePermissions(ctx context.Context, roleID string, skip, limit int) ([]Permission, error)
	CreatePermission(ctx context.Context, perm Permission) error
	DeletePermission(ctx context.Context, id string) error

	GetRoleUserLink(ctx context.Context, userID, roleID string) (*RoleUserLink, error)
	CreateRoleUserLink(ctx context.Context, link RoleUserLink) error
	DeleteRoleUserLink(ctx context.Context, userID, roleID string) error

	FindUserID(ctx context.Context, userID string) (*string, error)
	CreateGrant(ctx context.Context, role Role, links []RoleUserLink, perm Permission) error
}

// AuditRecorder persists audit entries for role and permission mutations.
type AuditRecorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service orchestrates role and permission administration. Every operation
// authorizes the acting identity through a Checker before touching state.
type Service struct {
	store  StorePort
	audit  AuditRecorder
	logger *slog.Logger
}

// NewService constructs a Service.
func NewService(store StorePort, audit AuditRecorder, logger *slog.Logger) *Service {
	return &Service{store: store, audit: audit, logger: logger}
}

// ListRoles returns all roles, requiring a read or read-write grant on the
// role resource (admins bypass).
func (s *Service) ListRoles(ctx context.Context, actor Actor, page shared.PageQuery) ([]Role, error) {
	checker := Checker{
		Store:      s.store,
		Roles:      actor.Roles,
		BypassRole: AdminRoleName,
		Checks: []Check{
			GlobalCheck(ResourceRole, ActionRead),
			GlobalCheck(ResourceRole, ActionReadWrite),
		},
	}
	if err := checker.CheckAny(ctx); err != nil {
		return nil, err
	}
	return s.store.ListRoles(ctx, page.Skip, page.Limit)
}

// UserRoles lists the roles linked to a user.
func (s *Service) UserRoles(ctx context.Context, actor Actor, targetUserID string, page shared.PageQuery) ([]Role, error) {
	checker := Checker{
		Store:      s.store,
		Roles:      actor.Roles,
		BypassRole: AdminRoleName,
		Checks: []Check{
			GlobalCheck(ResourceUser, ActionRead),
			GlobalCheck(ResourceUser, ActionReadWrite),
		},
	}
	if err := checker.CheckAny(ctx); err != nil {
		return nil, err
	}
	return s.store.RolesForUser(ctx, targetUserID, page.Skip, page.Limit)
}

// CreateRole creates a named role.
func (s *Service) CreateRole(ctx context.Context, actor Actor, name string) (*Role, error) {
	checker := Checker{
		Store:      s.store,
		Roles:      actor.Roles,
		BypassRole: AdminRoleName,
		Checks:     []Check{GlobalCheck(ResourceRole, ActionReadWrite)},
	}
	if err := checker.Check(ctx); err != nil {
		return nil, err
	}
	role, _ := NamedRole(name)
	if err := s.store.CreateRole(ctx, role, nil); err != nil {
		return nil, err
	}
	s.record(ctx, actor, "role.created", "role", role.ID, map[string]any{"name": name})
	return &role, nil
}

// DeleteRole removes a role; owned permissions and user links cascade.
func (s *Service) DeleteRole(ctx context.Context, actor Actor, roleID string) error {
	checker := Checker{
		Store:      s.store,
		Roles:      actor.Roles,
		BypassRole: AdminRoleName,
		Checks:     []Check{GlobalCheck(ResourceRole, ActionReadWrite)},
	}
	if err := checker.Check(ctx); err != nil {
		return err
	}
	role, err := s.store.GetRole(ctx, roleID)
	if err != nil {
		return err
	}
	if _, err := shared.CheckExistence(role, "Role not found."); err != nil {
		return err
	}
	if err := s.store.DeleteRole(ctx, roleID); err != nil {
		return err
	}
	s.record(ctx, actor, "role.deleted", "role", roleID, nil)
	return nil
}

// ListPermissions returns all permissions.
func (s *Service) ListPermissions(ctx context.Context, actor Actor, page shared.PageQuery) ([]Permission, error) {
	checker := Checker{
		Store:      s.store,
		Roles:      actor.Roles,
		BypassRole: AdminRoleName,
		Checks: []Check{
			GlobalCheck(ResourceRole, ActionRead),
			GlobalCheck(ResourceRole, ActionReadWrite),
		},
	}
	if err := checker.CheckAny(ctx); err != nil {
		return nil, err
	}
	return s.store.ListPermissions(ctx, page.Skip, page.Limit)
}

// RolePermissions lists the permissions owned by a role.
func (s *Service) RolePermissions(ctx context.Context, actor Actor, roleID string, page shared.PageQuery) ([]Permission, error) {
	checker := Checker{
		Store: s.store,
		Roles: actor.Roles,
		Checks: []Check{
			GlobalCheck(ResourceRole, ActionReadWrite),
			GlobalCheck(ResourceRole, ActionRead),
		},
	}
	if err := checker.CheckAny(ctx); err != nil {
		return nil, err
	}
	role, err := s.store.GetRole(ctx, roleID)
	if err != nil {
		return nil, err
	}
	if _, err := shared.CheckExistence(role, "Role not found."); err != nil {
		return nil, err
	}
	return s.store.RolePermissions(ctx, roleID, page.Skip, page.Limit)
}

// CreatePermission attaches a permission to an existing role. A nil resourceID
// creates a category-global grant. Creating an identical grant twice conflicts.
func (s *Service) CreatePermission(ctx context.Context, actor Actor, roleID, resource string, resourceID *string, action string) (*Permission, error) {
	checker := Checker{
		Store:      s.store,
		Roles:      actor.Roles,
		BypassRole: AdminRoleName,
		Checks:     []Check{GlobalCheck(ResourceRole, ActionReadWrite)},
	}
	if err := checker.Check(ctx); err != nil {
		return nil, err
	}
	role, err := s.store.GetRole(ctx, roleID)
	if err != nil {
		return nil, err
	}
	role, err = shared.CheckExistence(role, "Role not found.")
	if err != nil {
		return nil, err
	}
	existing, err := s.store.FindPermission(ctx, roleID, resource, resourceID, action)
	if err != nil {
		return nil, err
	}
	if err := shared.CheckNonExistence(existing != nil, "The user already has this permission."); err != nil {
		return nil, err
	}
	perm, err := NewPermission(PermissionSpec{
		Resource:   resource,
		Action:     action,
		ResourceID: resourceID,
		Role:       role,
	})
	if err != nil {
		return nil, err
	}
	if err := s.store.CreatePermission(ctx, perm); err != nil {
		return nil, err
	}
	s.record(ctx, actor, "permission.created", "permission", perm.ID, map[string]any{
		"role_id":  roleID,
		"resource": resource,
		"action":   action,
	})
	return &perm, nil
}

// DeletePermission removes a permission by ID.
func (s *Service) DeletePermission(ctx context.Context, actor Actor, permissionID string) error {
	checker := Checker{
		Store:      s.store,
		Roles:      actor.Roles,
		BypassRole: AdminRoleName,
		Checks:     []Check{GlobalCheck(ResourceRole, ActionReadWrite)},
	}
	if err := checker.Check(ctx); err != nil {
		return err
	}
	perm, err := s.store.GetPermission(ctx, permissionID)
	if err != nil {
		return err
	}
	if _, err := shared.CheckExistence(perm, "Permission not found."); err != nil {
		return err
	}
	if err := s.store.DeletePermission(ctx, permissionID); err != nil {
		return err
	}
	s.record(ctx, actor, "permission.deleted", "permission", permissionID, nil)
	return nil
}

// AssignRole links an existing role to a user. Assigning the same pair twice
// is a no-op reported through the returned message.
func (s *Service) AssignRole(ctx context.Context, actor Actor, userID, roleID string) (string, error) {
	checker := Checker{
		Store:      s.store,
		Roles:      actor.Roles,
		BypassRole: AdminRoleName,
		Checks:     []Check{GlobalCheck(ResourceUser, ActionReadWrite)},
	}
	if err := checker.Check(ctx); err != nil {
		return "", err
	}
	target, err := s.store.FindUserID(ctx, userID)
	if err != nil {
		return "", err
	}
	if _, err := shared.CheckExistence(target, "User not found."); err != nil {
		return "", err
	}
	role, err := s.store.GetRole(ctx, roleID)
	if err != nil {
		return "", err
	}
	if _, err := shared.CheckExistence(role, "Role not found."); err != nil {
		return "", err
	}
	existing, err := s.store.GetRoleUserLink(ctx, userID, roleID)
	if err != nil {
		return "", err
	}
	if existing != nil {
		return "User already has this role.", nil
	}
	if err := s.store.CreateRoleUserLink(ctx, RoleUserLink{UserID: userID, RoleID: roleID}); err != nil {
		return "", err
	}
	s.record(ctx, actor, "role.assigned", "role", roleID, map[string]any{"user_id": userID})
	return "Role assigned to user successfully.", nil
}

// RemoveRole unlinks a role from a user.
func (s *Service) RemoveRole(ctx context.Context, actor Actor, userID, roleID string) error {
	checker := Checker{
		Store:  s.store,
		Roles:  actor.Roles,
		Checks: []Check{GlobalCheck(ResourceUser, ActionReadWrite)},
	}
	if err := checker.Check(ctx); err != nil {
		return err
	}
	target, err := s.store.FindUserID(ctx, userID)
	if err != nil {
		return err
	}
	if _, err := shared.CheckExistence(target, "User not found."); err != nil {
		return err
	}
	link, err := s.store.GetRoleUserLink(ctx, userID, roleID)
	if err != nil {
		return err
	}
	if _, err := shared.CheckExistence(link, "Role not found for user."); err != nil {
		return err
	}
	if err := s.store.DeleteRoleUserLink(ctx, userID, roleID); err != nil {
		return err
	}
	s.record(ctx, actor, "role.revoked", "role", roleID, map[string]any{"user_id": userID})
	return nil
}

// GrantUserPermission creates a fresh role for the target user carrying one
// scoped permission. The role, its link and the permission commit atomically.
// Requires a global read-write grant on the admin resource.
func (s *Service) GrantUserPermission(ctx context.Context, actor Actor, targetUserID, resource, resourceID, action string, roleName *string) error {
	checker := Checker{
		Store:  s.store,
		Roles:  actor.Roles,
		Checks: []Check{GlobalCheck(ResourceAdmin, ActionReadWrite)},
	}
	if err := checker.Check(ctx); err != nil {
		return err
	}
	target, err := s.store.FindUserID(ctx, targetUserID)
	if err != nil {
		return err
	}
	if _, err := shared.CheckExistence(target, "User not found."); err != nil {
		return err
	}
	role, links := NewRole(RoleSpec{Name: roleName, Users: []string{targetUserID}})
	perm, err := NewPermission(PermissionSpec{
		Resource:   resource,
		Action:     action,
		ResourceID: &resourceID,
		Role:       &role,
	})
	if err != nil {
		return err
	}
	if err := s.store.CreateGrant(ctx, role, links, perm); err != nil {
		return err
	}
	s.record(ctx, actor, "permission.granted", "permission", perm.ID, map[string]any{
		"user_id":  targetUserID,
		"resource": resource,
		"action":   action,
	})
	return nil
}

// IsAdmin reports whether the actor holds the admin role or a global
// read-write grant on the admin resource.
func (s *Service) IsAdmin(ctx context.Context, actor Actor) (bool, error) {
	checker := Checker{
		Store:      s.store,
		Roles:      actor.Roles,
		BypassRole: AdminRoleName,
		Checks:     []Check{GlobalCheck(ResourceAdmin, ActionReadWrite)},
	}
	if err := checker.Check(ctx); err != nil {
		if errors.Is(err, ErrNotAuthorized) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *Service) record(ctx context.Context, actor Actor, action, entity, entityID string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor.ID,
		Action:   action,
		Entity:   entity,
		EntityID: entityID,
		Meta:     meta,
	}); err != nil && s.logger != nil {
		s.logger.Warn("audit record", slog.Any("error", err))
	}
}
