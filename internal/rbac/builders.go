package rbac

import (
	"errors"

	"github.com/loslc/loslc-links/internal/shared"
)

var (
	// ErrPermissionOrphaned is returned when a permission is built without a
	// role to own it.
	ErrPermissionOrphaned = errors.New("rbac: permission requires a role")
	// ErrPermissionIncomplete is returned when resource or action is missing.
	ErrPermissionIncomplete = errors.New("rbac: resource name and action must be set")
	// ErrUnknownAction is returned for actions outside the closed set.
	ErrUnknownAction = errors.New("rbac: unknown action")
)

const roleIDSize = 32

// RoleSpec describes a role to construct. A nil Name yields a personal
// (anonymous) role; Users lists the user IDs to link to the role.
type RoleSpec struct {
	Name  *string
	Users []string
}

// NewRole builds a fully formed, not yet persisted role together with its
// role-user links.
func NewRole(spec RoleSpec) (Role, []RoleUserLink) {
	role := Role{
		ID:   shared.NewID(roleIDSize),
		Name: spec.Name,
	}
	links := make([]RoleUserLink, 0, len(spec.Users))
	for _, userID := range spec.Users {
		links = append(links, RoleUserLink{UserID: userID, RoleID: role.ID})
	}
	return role, links
}

// NamedRole is shorthand for NewRole with a display name.
func NamedRole(name string, userIDs ...string) (Role, []RoleUserLink) {
	return NewRole(RoleSpec{Name: &name, Users: userIDs})
}

// PersonalRole is shorthand for NewRole without a name.
func PersonalRole(userIDs ...string) (Role, []RoleUserLink) {
	return NewRole(RoleSpec{Users: userIDs})
}

// PermissionSpec describes a permission to construct. ResourceID nil means the
// grant is global for the resource category. Role must be set before building
// or the permission would be orphaned.
type PermissionSpec struct {
	Resource   string
	Action     string
	ResourceID *string
	Role       *Role
}

// NewPermission builds a fully formed, not yet persisted permission bound to
// its owning role.
func NewPermission(spec PermissionSpec) (Permission, error) {
	if spec.Resource == "" || spec.Action == "" {
		return Permission{}, ErrPermissionIncomplete
	}
	if !ValidAction(spec.Action) {
		return Permission{}, ErrUnknownAction
	}
	if spec.Role == nil {
		return Permission{}, ErrPermissionOrphaned
	}
	return Permission{
		ID:           shared.NewID(roleIDSize),
		ResourceName: spec.Resource,
		ResourceID:   spec.ResourceID,
		Action:       spec.Action,
		RoleID:       spec.Role.ID,
	}, nil
}
