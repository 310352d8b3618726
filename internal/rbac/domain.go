// Package rbac implements the permission model and evaluation engine: roles,
// permissions, role-user links, and the Checker deciding whether a caller may
// act on a resource.
package rbac

// AdminRoleName is the role name that bypasses permission evaluation when
// configured as a bypass role.
const AdminRoleName = "admin"

// Resource categories protected by the engine.
const (
	ResourceAdmin      = "admin"
	ResourceExample    = "resource"
	ResourceUser       = "user"
	ResourceLink       = "link"
	ResourceRole       = "role"
	ResourcePermission = "perm"
)

// Actions form a closed set. ActionReadWrite is used in practice as the union
// of read and write.
const (
	ActionCreate    = "c"
	ActionRead      = "r"
	ActionReadWrite = "rw"
	ActionUpdate    = "w"
	ActionDelete    = "d"
)

// ValidAction reports whether the action belongs to the closed set.
func ValidAction(action string) bool {
	switch action {
	case ActionCreate, ActionRead, ActionReadWrite, ActionUpdate, ActionDelete:
		return true
	}
	return false
}

// Role groups permissions. A nil Name marks a personal role created to scope a
// single user's rights; a named role (e.g. "admin") groups cross-cutting
// grants.
type Role struct {
	ID   string  `json:"id"`
	Name *string `json:"name"`
}

// Named reports whether the role carries a display name.
func (r Role) Named() bool {
	return r.Name != nil && *r.Name != ""
}

// Permission grants an action on a resource category, optionally scoped to one
// resource instance. A nil ResourceID means the grant is global for the
// category.
type Permission struct {
	ID           string  `json:"id"`
	ResourceName string  `json:"resource_name"`
	ResourceID   *string `json:"resource_id"`
	Action       string  `json:"action_name"`
	RoleID       string  `json:"-"`
}

// Global reports whether the permission is category-wide.
func (p Permission) Global() bool {
	return p.ResourceID == nil
}

// RoleUserLink is the join row between users and roles. The (UserID, RoleID)
// pair is unique.
type RoleUserLink struct {
	UserID string
	RoleID string
}

// Actor is the authenticated identity a check runs for: the user plus the
// roles resolved for it before evaluation.
type Actor struct {
	ID    string
	Roles []Role
}
