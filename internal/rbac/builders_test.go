package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRoleLinksUsers(t *testing.T) {
	role, links := NewRole(RoleSpec{Users: []string{"u1", "u2"}})
	assert.NotEmpty(t, role.ID)
	assert.Nil(t, role.Name)
	assert.False(t, role.Named())
	require.Len(t, links, 2)
	for _, link := range links {
		assert.Equal(t, role.ID, link.RoleID)
	}
	assert.Equal(t, "u1", links[0].UserID)
	assert.Equal(t, "u2", links[1].UserID)
}

func TestNamedRole(t *testing.T) {
	role, links := NamedRole("moderator", "u1")
	require.True(t, role.Named())
	assert.Equal(t, "moderator", *role.Name)
	assert.Len(t, links, 1)
}

func TestPersonalRoleHasNoName(t *testing.T) {
	role, links := PersonalRole("u1")
	assert.False(t, role.Named())
	assert.Len(t, links, 1)
}

func TestRoleIDsAreUnique(t *testing.T) {
	a, _ := PersonalRole("u1")
	b, _ := PersonalRole("u1")
	assert.NotEqual(t, a.ID, b.ID)
}

func TestNewPermission(t *testing.T) {
	role, _ := PersonalRole("u1")
	resourceID := "l1"
	perm, err := NewPermission(PermissionSpec{
		Resource:   ResourceLink,
		Action:     ActionReadWrite,
		ResourceID: &resourceID,
		Role:       &role,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, perm.ID)
	assert.Equal(t, role.ID, perm.RoleID)
	assert.Equal(t, ResourceLink, perm.ResourceName)
	assert.Equal(t, ActionReadWrite, perm.Action)
	assert.False(t, perm.Global())
}

func TestNewPermissionGlobal(t *testing.T) {
	role, _ := NamedRole(AdminRoleName)
	perm, err := NewPermission(PermissionSpec{
		Resource: ResourceUser,
		Action:   ActionReadWrite,
		Role:     &role,
	})
	require.NoError(t, err)
	assert.True(t, perm.Global())
}

func TestNewPermissionRejectsOrphans(t *testing.T) {
	_, err := NewPermission(PermissionSpec{
		Resource: ResourceLink,
		Action:   ActionRead,
	})
	require.ErrorIs(t, err, ErrPermissionOrphaned)
}

func TestNewPermissionRejectsIncompleteSpecs(t *testing.T) {
	role, _ := PersonalRole("u1")
	_, err := NewPermission(PermissionSpec{Action: ActionRead, Role: &role})
	require.ErrorIs(t, err, ErrPermissionIncomplete)
	_, err = NewPermission(PermissionSpec{Resource: ResourceLink, Role: &role})
	require.ErrorIs(t, err, ErrPermissionIncomplete)
}

func TestNewPermissionRejectsUnknownActions(t *testing.T) {
	role, _ := PersonalRole("u1")
	_, err := NewPermission(PermissionSpec{
		Resource: ResourceLink,
		Action:   "execute",
		Role:     &role,
	})
	require.ErrorIs(t, err, ErrUnknownAction)
}

func TestValidAction(t *testing.T) {
	for _, action := range []string{ActionCreate, ActionRead, ActionReadWrite, ActionUpdate, ActionDelete} {
		assert.True(t, ValidAction(action), action)
	}
	assert.False(t, ValidAction(""))
	assert.False(t, ValidAction("rwx"))
}
