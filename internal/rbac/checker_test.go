package rbac

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type permRow struct {
	roleID     string
	resource   string
	resourceID *string
	action     string
}

type fakeStore struct {
	rows      []permRow
	failWith  error
	scopedHit int
	globalHit int
}

func (f *fakeStore) HasPermission(ctx context.Context, roleID, resource, resourceID, action string) (bool, error) {
	f.scopedHit++
	if f.failWith != nil {
		return false, f.failWith
	}
	for _, row := range f.rows {
		if row.roleID == roleID && row.resource == resource && row.action == action &&
			row.resourceID != nil && *row.resourceID == resourceID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) HasGlobalPermission(ctx context.Context, roleID, resource, action string) (bool, error) {
	f.globalHit++
	if f.failWith != nil {
		return false, f.failWith
	}
	for _, row := range f.rows {
		if row.roleID == roleID && row.resource == resource && row.action == action {
			return true, nil
		}
	}
	return false, nil
}

func strptr(s string) *string { return &s }

func namedRole(id, name string) Role { return Role{ID: id, Name: &name} }

func personalRole(id string) Role { return Role{ID: id} }

func TestCheckerBypassSkipsEvaluation(t *testing.T) {
	store := &fakeStore{}
	checker := Checker{
		Store:      store,
		Roles:      []Role{namedRole("r1", AdminRoleName)},
		BypassRole: AdminRoleName,
		Checks: []Check{
			ScopedCheck(ResourceLink, "does-not-exist", ActionReadWrite),
		},
	}
	require.NoError(t, checker.Check(context.Background()))
	require.NoError(t, checker.CheckAny(context.Background()))
	assert.Zero(t, store.scopedHit, "bypass must not touch the store")
	assert.Zero(t, store.globalHit)
}

func TestCheckerBypassIgnoresPersonalRoles(t *testing.T) {
	store := &fakeStore{}
	checker := Checker{
		Store:      store,
		Roles:      []Role{personalRole("r1")},
		BypassRole: AdminRoleName,
		Checks:     []Check{GlobalCheck(ResourceLink, ActionRead)},
	}
	err := checker.Check(context.Background())
	require.ErrorIs(t, err, ErrNotAuthorized)
}

func TestCheckerBypassRolesList(t *testing.T) {
	checker := Checker{
		Store:       &fakeStore{},
		Roles:       []Role{namedRole("r1", "moderator")},
		BypassRoles: []string{"moderator", "support"},
		Checks:      []Check{GlobalCheck(ResourceUser, ActionReadWrite)},
	}
	require.NoError(t, checker.Check(context.Background()))
}

func TestCheckerDeniesWithoutRoles(t *testing.T) {
	checker := Checker{
		Store:      &fakeStore{},
		BypassRole: AdminRoleName,
		Checks:     []Check{GlobalCheck(ResourceUser, ActionRead)},
	}
	require.ErrorIs(t, checker.Check(context.Background()), ErrNotAuthorized)
	require.ErrorIs(t, checker.CheckAny(context.Background()), ErrNotAuthorized)
}

func TestCheckerAllowsWithRoleAndNoChecks(t *testing.T) {
	checker := Checker{
		Store: &fakeStore{},
		Roles: []Role{personalRole("r1")},
	}
	require.NoError(t, checker.Check(context.Background()))
}

func TestCheckAllRequiresEveryActionOnOneRole(t *testing.T) {
	store := &fakeStore{rows: []permRow{
		{roleID: "r1", resource: ResourceLink, resourceID: strptr("l1"), action: ActionRead},
		{roleID: "r1", resource: ResourceLink, resourceID: strptr("l1"), action: ActionReadWrite},
	}}
	checker := Checker{
		Store:  store,
		Roles:  []Role{personalRole("r1")},
		Checks: []Check{ScopedCheck(ResourceLink, "l1", ActionRead, ActionReadWrite)},
	}
	require.NoError(t, checker.Check(context.Background()))

	checker.Checks = []Check{ScopedCheck(ResourceLink, "l1", ActionRead, ActionDelete)}
	require.ErrorIs(t, checker.Check(context.Background()), ErrNotAuthorized)
}

func TestCheckAllNoCrossRoleMixing(t *testing.T) {
	// Each role satisfies one of the two checks, neither satisfies both.
	store := &fakeStore{rows: []permRow{
		{roleID: "r1", resource: ResourceLink, resourceID: strptr("l1"), action: ActionReadWrite},
		{roleID: "r2", resource: ResourceUser, resourceID: strptr("u1"), action: ActionReadWrite},
	}}
	checker := Checker{
		Store: store,
		Roles: []Role{personalRole("r1"), personalRole("r2")},
		Checks: []Check{
			ScopedCheck(ResourceLink, "l1", ActionReadWrite),
			ScopedCheck(ResourceUser, "u1", ActionReadWrite),
		},
	}
	require.ErrorIs(t, checker.Check(context.Background()), ErrNotAuthorized)
	// Either mode is satisfied by any single triple.
	require.NoError(t, checker.CheckAny(context.Background()))
}

func TestCheckAllSecondRoleMaySatisfy(t *testing.T) {
	store := &fakeStore{rows: []permRow{
		{roleID: "r2", resource: ResourceRole, resourceID: nil, action: ActionReadWrite},
	}}
	checker := Checker{
		Store:  store,
		Roles:  []Role{personalRole("r1"), personalRole("r2")},
		Checks: []Check{GlobalCheck(ResourceRole, ActionReadWrite)},
	}
	require.NoError(t, checker.Check(context.Background()))
}

func TestGlobalCheckMatchesScopedRows(t *testing.T) {
	// A grant scoped to one link still satisfies a global read check on the
	// link category.
	store := &fakeStore{rows: []permRow{
		{roleID: "r1", resource: ResourceLink, resourceID: strptr("l1"), action: ActionRead},
	}}
	checker := Checker{
		Store:  store,
		Roles:  []Role{personalRole("r1")},
		Checks: []Check{GlobalCheck(ResourceLink, ActionRead)},
	}
	require.NoError(t, checker.Check(context.Background()))
}

func TestScopedCheckRequiresExactResourceID(t *testing.T) {
	store := &fakeStore{rows: []permRow{
		{roleID: "r1", resource: ResourceLink, resourceID: strptr("l1"), action: ActionReadWrite},
	}}
	checker := Checker{
		Store:  store,
		Roles:  []Role{personalRole("r1")},
		Checks: []Check{ScopedCheck(ResourceLink, "l2", ActionReadWrite)},
	}
	require.ErrorIs(t, checker.Check(context.Background()), ErrNotAuthorized)
}

func TestCheckerPropagatesStoreErrors(t *testing.T) {
	boom := errors.New("connection reset")
	checker := Checker{
		Store:  &fakeStore{failWith: boom},
		Roles:  []Role{personalRole("r1")},
		Checks: []Check{GlobalCheck(ResourceUser, ActionRead)},
	}
	require.ErrorIs(t, checker.Check(context.Background()), boom)
	require.ErrorIs(t, checker.CheckAny(context.Background()), boom)
}

func TestCheckAnyExhaustsCrossProduct(t *testing.T) {
	store := &fakeStore{rows: []permRow{
		{roleID: "r2", resource: ResourceUser, resourceID: nil, action: ActionReadWrite},
	}}
	checker := Checker{
		Store: store,
		Roles: []Role{personalRole("r1"), personalRole("r2")},
		Checks: []Check{
			GlobalCheck(ResourceUser, ActionRead),
			GlobalCheck(ResourceUser, ActionReadWrite),
		},
	}
	require.NoError(t, checker.CheckAny(context.Background()))
}
