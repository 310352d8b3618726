package rbac

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loslc/loslc-links/internal/platform/httpx"
	"github.com/loslc/loslc-links/internal/shared"
)

type mockStore struct {
	fakeStore

	roles     map[string]Role
	perms     map[string]Permission
	links     map[string]RoleUserLink
	users     map[string]bool
	grantErr  error
	grantCall int
}

func newMockStore() *mockStore {
	return &mockStore{
		roles: make(map[string]Role),
		perms: make(map[string]Permission),
		links: make(map[string]RoleUserLink),
		users: make(map[string]bool),
	}
}

func linkKey(userID, roleID string) string { return userID + "|" + roleID }

func (m *mockStore) GetRole(ctx context.Context, id string) (*Role, error) {
	role, ok := m.roles[id]
	if !ok {
		return nil, nil
	}
	return &role, nil
}

func (m *mockStore) ListRoles(ctx context.Context, skip, limit int) ([]Role, error) {
	var out []Role
	for _, role := range m.roles {
		out = append(out, role)
	}
	return out, nil
}

func (m *mockStore) RolesForUser(ctx context.Context, userID string, skip, limit int) ([]Role, error) {
	var out []Role
	for _, link := range m.links {
		if link.UserID == userID {
			out = append(out, m.roles[link.RoleID])
		}
	}
	return out, nil
}

func (m *mockStore) CreateRole(ctx context.Context, role Role, links []RoleUserLink) error {
	m.roles[role.ID] = role
	for _, link := range links {
		m.links[linkKey(link.UserID, link.RoleID)] = link
	}
	return nil
}

func (m *mockStore) DeleteRole(ctx context.Context, id string) error {
	delete(m.roles, id)
	return nil
}

func (m *mockStore) GetPermission(ctx context.Context, id string) (*Permission, error) {
	perm, ok := m.perms[id]
	if !ok {
		return nil, nil
	}
	return &perm, nil
}

func (m *mockStore) FindPermission(ctx context.Context, roleID, resource string, resourceID *string, action string) (*Permission, error) {
	for _, perm := range m.perms {
		if perm.RoleID != roleID || perm.ResourceName != resource || perm.Action != action {
			continue
		}
		if resourceID == nil && perm.ResourceID == nil {
			return &perm, nil
		}
		if resourceID != nil && perm.ResourceID != nil && *resourceID == *perm.ResourceID {
			return &perm, nil
		}
	}
	return nil, nil
}

func (m *mockStore) ListPermissions(ctx context.Context, skip, limit int) ([]Permission, error) {
	var out []Permission
	for _, perm := range m.perms {
		out = append(out, perm)
	}
	return out, nil
}

func (m *mockStore) RolePermissions(ctx context.Context, roleID string, skip, limit int) ([]Permission, error) {
	var out []Permission
	for _, perm := range m.perms {
		if perm.RoleID == roleID {
			out = append(out, perm)
		}
	}
	return out, nil
}

func (m *mockStore) CreatePermission(ctx context.Context, perm Permission) error {
	m.perms[perm.ID] = perm
	return nil
}

func (m *mockStore) DeletePermission(ctx context.Context, id string) error {
	delete(m.perms, id)
	return nil
}

func (m *mockStore) GetRoleUserLink(ctx context.Context, userID, roleID string) (*RoleUserLink, error) {
	link, ok := m.links[linkKey(userID, roleID)]
	if !ok {
		return nil, nil
	}
	return &link, nil
}

func (m *mockStore) CreateRoleUserLink(ctx context.Context, link RoleUserLink) error {
	m.links[linkKey(link.UserID, link.RoleID)] = link
	return nil
}

func (m *mockStore) DeleteRoleUserLink(ctx context.Context, userID, roleID string) error {
	delete(m.links, linkKey(userID, roleID))
	return nil
}

func (m *mockStore) FindUserID(ctx context.Context, userID string) (*string, error) {
	if !m.users[userID] {
		return nil, nil
	}
	return &userID, nil
}

func (m *mockStore) CreateGrant(ctx context.Context, role Role, links []RoleUserLink, perm Permission) error {
	m.grantCall++
	if m.grantErr != nil {
		return m.grantErr
	}
	m.roles[role.ID] = role
	for _, link := range links {
		m.links[linkKey(link.UserID, link.RoleID)] = link
	}
	m.perms[perm.ID] = perm
	return nil
}

type mockAudit struct {
	entries []shared.AuditLog
}

func (m *mockAudit) Record(ctx context.Context, log shared.AuditLog) error {
	m.entries = append(m.entries, log)
	return nil
}

func adminActor() Actor {
	return Actor{ID: "admin-user", Roles: []Role{{ID: "admin-role", Name: strptr(AdminRoleName)}}}
}

func plainActor() Actor {
	return Actor{ID: "plain-user", Roles: []Role{{ID: "plain-role"}}}
}

func newTestService(store *mockStore) (*Service, *mockAudit) {
	audit := &mockAudit{}
	return NewService(store, audit, slog.Default()), audit
}

func TestListRolesDeniedWithoutGrant(t *testing.T) {
	svc, _ := newTestService(newMockStore())
	_, err := svc.ListRoles(context.Background(), plainActor(), shared.PageQuery{Limit: 10})
	require.ErrorIs(t, err, ErrNotAuthorized)
}

func TestCreateRoleWithAdminBypass(t *testing.T) {
	store := newMockStore()
	svc, audit := newTestService(store)
	role, err := svc.CreateRole(context.Background(), adminActor(), "moderator")
	require.NoError(t, err)
	require.True(t, role.Named())
	assert.Equal(t, "moderator", *role.Name)
	assert.Contains(t, store.roles, role.ID)
	require.Len(t, audit.entries, 1)
	assert.Equal(t, "role.created", audit.entries[0].Action)
}

func TestDeleteRoleNotFound(t *testing.T) {
	svc, _ := newTestService(newMockStore())
	err := svc.DeleteRole(context.Background(), adminActor(), "missing")
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestCreatePermissionConflictsOnDuplicate(t *testing.T) {
	store := newMockStore()
	role, _ := NamedRole("editors")
	store.roles[role.ID] = role
	svc, _ := newTestService(store)

	_, err := svc.CreatePermission(context.Background(), adminActor(), role.ID, ResourceLink, nil, ActionRead)
	require.NoError(t, err)

	_, err = svc.CreatePermission(context.Background(), adminActor(), role.ID, ResourceLink, nil, ActionRead)
	require.ErrorIs(t, err, httpx.ErrDuplicate)
	assert.Contains(t, err.Error(), "The user already has this permission.")
}

func TestCreatePermissionRejectsUnknownRole(t *testing.T) {
	svc, _ := newTestService(newMockStore())
	_, err := svc.CreatePermission(context.Background(), adminActor(), "missing", ResourceLink, nil, ActionRead)
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestAssignRoleDuplicateIsNoOp(t *testing.T) {
	store := newMockStore()
	store.users["u1"] = true
	role, _ := NamedRole("editors")
	store.roles[role.ID] = role
	store.links[linkKey("u1", role.ID)] = RoleUserLink{UserID: "u1", RoleID: role.ID}
	svc, audit := newTestService(store)

	msg, err := svc.AssignRole(context.Background(), adminActor(), "u1", role.ID)
	require.NoError(t, err)
	assert.Equal(t, "User already has this role.", msg)
	assert.Empty(t, audit.entries, "no-op assignment must not be audited")
}

func TestAssignRoleCreatesLink(t *testing.T) {
	store := newMockStore()
	store.users["u1"] = true
	role, _ := NamedRole("editors")
	store.roles[role.ID] = role
	svc, _ := newTestService(store)

	msg, err := svc.AssignRole(context.Background(), adminActor(), "u1", role.ID)
	require.NoError(t, err)
	assert.Equal(t, "Role assigned to user successfully.", msg)
	assert.Contains(t, store.links, linkKey("u1", role.ID))
}

func TestRemoveRoleHasNoAdminBypass(t *testing.T) {
	store := newMockStore()
	store.users["u1"] = true
	svc, _ := newTestService(store)
	err := svc.RemoveRole(context.Background(), adminActor(), "u1", "some-role")
	require.ErrorIs(t, err, ErrNotAuthorized)
}

func TestRemoveRoleWithGrant(t *testing.T) {
	store := newMockStore()
	store.users["u1"] = true
	role, _ := NamedRole("editors")
	store.roles[role.ID] = role
	store.links[linkKey("u1", role.ID)] = RoleUserLink{UserID: "u1", RoleID: role.ID}
	actor := plainActor()
	store.rows = []permRow{
		{roleID: actor.Roles[0].ID, resource: ResourceUser, resourceID: nil, action: ActionReadWrite},
	}
	svc, _ := newTestService(store)

	require.NoError(t, svc.RemoveRole(context.Background(), actor, "u1", role.ID))
	assert.NotContains(t, store.links, linkKey("u1", role.ID))
}

func TestGrantUserPermissionRequiresAdminResourceGrant(t *testing.T) {
	store := newMockStore()
	store.users["u1"] = true
	svc, _ := newTestService(store)
	// Even the named admin role does not bypass here.
	err := svc.GrantUserPermission(context.Background(), adminActor(), "u1", ResourceLink, "l1", ActionReadWrite, nil)
	require.ErrorIs(t, err, ErrNotAuthorized)
	assert.Zero(t, store.grantCall)
}

func TestGrantUserPermissionCreatesGraph(t *testing.T) {
	store := newMockStore()
	store.users["u1"] = true
	actor := plainActor()
	store.rows = []permRow{
		{roleID: actor.Roles[0].ID, resource: ResourceAdmin, resourceID: nil, action: ActionReadWrite},
	}
	svc, audit := newTestService(store)

	err := svc.GrantUserPermission(context.Background(), actor, "u1", ResourceLink, "l1", ActionReadWrite, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, store.grantCall)
	require.Len(t, store.perms, 1)
	for _, perm := range store.perms {
		assert.Equal(t, ResourceLink, perm.ResourceName)
		require.NotNil(t, perm.ResourceID)
		assert.Equal(t, "l1", *perm.ResourceID)
	}
	assert.Contains(t, store.links, linkKey("u1", singleRoleID(store)))
	require.Len(t, audit.entries, 1)
}

func TestGrantUserPermissionFailureLeavesNothing(t *testing.T) {
	store := newMockStore()
	store.users["u1"] = true
	store.grantErr = errors.New("tx aborted")
	actor := plainActor()
	store.rows = []permRow{
		{roleID: actor.Roles[0].ID, resource: ResourceAdmin, resourceID: nil, action: ActionReadWrite},
	}
	svc, audit := newTestService(store)

	err := svc.GrantUserPermission(context.Background(), actor, "u1", ResourceLink, "l1", ActionReadWrite, nil)
	require.Error(t, err)
	assert.Empty(t, store.perms)
	assert.Empty(t, store.roles)
	assert.Empty(t, audit.entries)
}

func TestIsAdmin(t *testing.T) {
	store := newMockStore()
	svc, _ := newTestService(store)

	ok, err := svc.IsAdmin(context.Background(), adminActor())
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.IsAdmin(context.Background(), plainActor())
	require.NoError(t, err)
	assert.False(t, ok)
}

func singleRoleID(store *mockStore) string {
	for id := range store.roles {
		return id
	}
	return ""
}
