package rbac

// CheckKind distinguishes how a check request matches permission rows.
type CheckKind int

const (
	// KindScoped matches on the exact resource instance ID.
	KindScoped CheckKind = iota
	// KindGlobal matches on resource category and action only; rows carrying a
	// resource ID still satisfy it.
	KindGlobal
)

// Check is one request evaluated by the Checker. Scoped and global requests
// are the two variants of the same tagged union; Kind selects the predicate
// used at evaluation time.
type Check struct {
	Kind       CheckKind
	Resource   string
	ResourceID string
	Actions    []string
}

// ScopedCheck builds a request tied to one resource instance.
func ScopedCheck(resource, resourceID string, actions ...string) Check {
	return Check{
		Kind:       KindScoped,
		Resource:   resource,
		ResourceID: resourceID,
		Actions:    actions,
	}
}

// GlobalCheck builds a request evaluated without regard to resource IDs.
func GlobalCheck(resource string, actions ...string) Check {
	return Check{
		Kind:     KindGlobal,
		Resource: resource,
		Actions:  actions,
	}
}
