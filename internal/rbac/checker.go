package rbac

import (
	"context"
	"fmt"

	"github.com/loslc/loslc-links/internal/platform/httpx"
)

// ErrNotAuthorized is returned when no role satisfies the configured checks.
var ErrNotAuthorized = fmt.Errorf("%w: not authorized to access this resource", httpx.ErrUnauthorized)

// PermissionStore answers point lookups against the permission rows. Both
// predicates are pure reads with no side effects.
type PermissionStore interface {
	// HasPermission reports whether a row exists matching role, resource,
	// resource ID (exact string match) and action.
	HasPermission(ctx context.Context, roleID, resource, resourceID, action string) (bool, error)
	// HasGlobalPermission reports whether a row exists matching role, resource
	// and action with the resource ID left out of the filter entirely. A row
	// scoped to a specific instance still satisfies it.
	HasGlobalPermission(ctx context.Context, roleID, resource, action string) (bool, error)
}

// Checker evaluates a sequence of check requests against the roles held by the
// calling identity. It is stateless beyond the configured fields and safe to
// reuse across calls.
//
// Check runs in all-of mode: a single role must satisfy every request's every
// action. CheckAny runs in either mode: one satisfied (role, request, action)
// triple allows. In both modes a caller role named BypassRole or listed in
// BypassRoles short-circuits to allow before any predicate evaluation.
type Checker struct {
	Store       PermissionStore
	Roles       []Role
	BypassRole  string
	BypassRoles []string
	Checks      []Check
}

// Check requires, for at least one role, that all requests and all their
// actions are satisfied. With no roles it always denies.
func (c Checker) Check(ctx context.Context) error {
	if c.bypassed() {
		return nil
	}
	for _, role := range c.Roles {
		satisfied := true
		for _, check := range c.Checks {
			for _, action := range check.Actions {
				ok, err := c.allowed(ctx, role, check, action)
				if err != nil {
					return err
				}
				if !ok {
					satisfied = false
					break
				}
			}
			if !satisfied {
				break
			}
		}
		if satisfied {
			return nil
		}
	}
	return ErrNotAuthorized
}

// CheckAny allows as soon as any (role, request, action) triple is satisfied
// and denies only after exhausting the full cross-product.
func (c Checker) CheckAny(ctx context.Context) error {
	if c.bypassed() {
		return nil
	}
	for _, role := range c.Roles {
		for _, check := range c.Checks {
			for _, action := range check.Actions {
				ok, err := c.allowed(ctx, role, check, action)
				if err != nil {
					return err
				}
				if ok {
					return nil
				}
			}
		}
	}
	return ErrNotAuthorized
}

// bypassed reports whether any of the caller's named roles matches the
// configured bypass role or list. Unnamed personal roles never match.
func (c Checker) bypassed() bool {
	for _, role := range c.Roles {
		if !role.Named() {
			continue
		}
		name := *role.Name
		if c.BypassRole != "" && name == c.BypassRole {
			return true
		}
		for _, bypass := range c.BypassRoles {
			if name == bypass {
				return true
			}
		}
	}
	return false
}

func (c Checker) allowed(ctx context.Context, role Role, check Check, action string) (bool, error) {
	switch check.Kind {
	case KindGlobal:
		return c.Store.HasGlobalPermission(ctx, role.ID, check.Resource, action)
	default:
		return c.Store.HasPermission(ctx, role.ID, check.Resource, check.ResourceID, action)
	}
}
