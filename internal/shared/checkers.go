package shared

import (
	"fmt"

	"github.com/loslc/loslc-links/internal/platform/httpx"
)

// Guard clauses used by services before mutating state. Each failure wraps one
// of the httpx sentinels so handlers can map it to the right status code.

// CheckExistence fails with a not-found error when value is nil, otherwise it
// returns the value unchanged so calls can be chained.
func CheckExistence[T any](value *T, detail string) (*T, error) {
	if value == nil {
		return nil, fmt.Errorf("%w: %s", httpx.ErrNotFound, detail)
	}
	return value, nil
}

// CheckNonExistence fails with a duplicate error when present is true.
func CheckNonExistence(present bool, detail string) error {
	if present {
		return fmt.Errorf("%w: %s", httpx.ErrDuplicate, detail)
	}
	return nil
}

// CheckEquality fails with a validation error when a and b differ.
func CheckEquality(a, b, detail string) error {
	if a != b {
		return fmt.Errorf("%w: %s", httpx.ErrValidation, detail)
	}
	return nil
}

// CheckConditions fails with an unauthorized error when any condition is false.
func CheckConditions(conditions []bool, detail string) error {
	for _, ok := range conditions {
		if !ok {
			return fmt.Errorf("%w: %s", httpx.ErrUnauthorized, detail)
		}
	}
	return nil
}
