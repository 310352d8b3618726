package rbac

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/loslc/loslc-links/internal/platform/db"
)

// Store provides PostgreSQL backed persistence for roles, permissions and
// role-user links, including the point-lookup predicates the Checker runs.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore constructs a store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// HasPermission reports whether a permission row matches role, resource,
// resource ID and action exactly.
func (s *Store) HasPermission(ctx context.Context, roleID, resource, resourceID, action string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM permissions WHERE role_id = $1 AND resource_name = $2 AND resource_id = $3 AND action = $4)`,
		roleID, resource, resourceID, action).Scan(&exists)
	return exists, err
}

// HasGlobalPermission reports whether a permission row matches role, resource
// and action. The resource ID column is not part of the filter, so rows
// scoped to a specific instance also satisfy it.
func (s *Store) HasGlobalPermission(ctx context.Context, roleID, resource, action string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM permissions WHERE role_id = $1 AND resource_name = $2 AND action = $3)`,
		roleID, resource, action).Scan(&exists)
	return exists, err
}

// GetRole fetches a role by ID, returning nil when it does not exist.
func (s *Store) GetRole(ctx context.Context, id string) (*Role, error) {
	var role Role
	err := s.pool.QueryRow(ctx, `SELECT id, name FROM roles WHERE id = $1`, id).Scan(&role.ID, &role.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &role, nil
}

// ListRoles returns roles ordered by ID with offset pagination.
func (s *Store) ListRoles(ctx context.Context, skip, limit int) ([]Role, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name FROM roles ORDER BY id OFFSET $1 LIMIT $2`, skip, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var roles []Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// RolesForUser returns the roles linked to a user, paginated.
func (s *Store) RolesForUser(ctx context.Context, userID string, skip, limit int) ([]Role, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT r.id, r.name FROM roles r JOIN role_user_links l ON l.role_id = r.id WHERE l.user_id = $1 ORDER BY r.id OFFSET $2 LIMIT $3`,
		userID, skip, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var roles []Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// CreateRole inserts a role together with its role-user links in one
// transaction.
func (s *Store) CreateRole(ctx context.Context, role Role, links []RoleUserLink) error {
	return db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `INSERT INTO roles (id, name) VALUES ($1, $2)`, role.ID, role.Name); err != nil {
			return err
		}
		for _, link := range links {
			if _, err := tx.Exec(ctx, `INSERT INTO role_user_links (user_id, role_id) VALUES ($1, $2)`, link.UserID, link.RoleID); err != nil {
				return err
			}
		}
		return nil
	})
}

// DeleteRole removes a role; permissions and links cascade.
func (s *Store) DeleteRole(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
	return err
}

// GetPermission fetches a permission by ID, returning nil when missing.
func (s *Store) GetPermission(ctx context.Context, id string) (*Permission, error) {
	var perm Permission
	err := s.pool.QueryRow(ctx,
		`SELECT id, resource_name, resource_id, action, role_id FROM permissions WHERE id = $1`, id).
		Scan(&perm.ID, &perm.ResourceName, &perm.ResourceID, &perm.Action, &perm.RoleID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &perm, nil
}

// FindPermission probes for an identical grant. A nil resourceID matches rows
// where resource_id IS NULL; a non-nil one matches exactly.
func (s *Store) FindPermission(ctx context.Context, roleID, resource string, resourceID *string, action string) (*Permission, error) {
	query := `SELECT id, resource_name, resource_id, action, role_id FROM permissions WHERE role_id = $1 AND resource_name = $2 AND action = $3 AND resource_id IS NULL`
	args := []any{roleID, resource, action}
	if resourceID != nil {
		query = `SELECT id, resource_name, resource_id, action, role_id FROM permissions WHERE role_id = $1 AND resource_name = $2 AND action = $3 AND resource_id = $4`
		args = append(args, *resourceID)
	}
	var perm Permission
	err := s.pool.QueryRow(ctx, query, args...).
		Scan(&perm.ID, &perm.ResourceName, &perm.ResourceID, &perm.Action, &perm.RoleID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &perm, nil
}

// ListPermissions returns permissions ordered by ID with offset pagination.
func (s *Store) ListPermissions(ctx context.Context, skip, limit int) ([]Permission, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, resource_name, resource_id, action, role_id FROM permissions ORDER BY id OFFSET $1 LIMIT $2`, skip, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPermissions(rows)
}

// RolePermissions returns the permissions owned by a role, paginated.
func (s *Store) RolePermissions(ctx context.Context, roleID string, skip, limit int) ([]Permission, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, resource_name, resource_id, action, role_id FROM permissions WHERE role_id = $1 ORDER BY id OFFSET $2 LIMIT $3`,
		roleID, skip, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPermissions(rows)
}

// CreatePermission inserts a permission row.
func (s *Store) CreatePermission(ctx context.Context, perm Permission) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO permissions (id, resource_name, resource_id, action, role_id) VALUES ($1, $2, $3, $4, $5)`,
		perm.ID, perm.ResourceName, perm.ResourceID, perm.Action, perm.RoleID)
	return err
}

// DeletePermission removes a permission row.
func (s *Store) DeletePermission(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM permissions WHERE id = $1`, id)
	return err
}

// GetRoleUserLink fetches a role-user link, returning nil when missing.
func (s *Store) GetRoleUserLink(ctx context.Context, userID, roleID string) (*RoleUserLink, error) {
	var link RoleUserLink
	err := s.pool.QueryRow(ctx,
		`SELECT user_id, role_id FROM role_user_links WHERE user_id = $1 AND role_id = $2`, userID, roleID).
		Scan(&link.UserID, &link.RoleID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &link, nil
}

// CreateRoleUserLink inserts a role-user link.
func (s *Store) CreateRoleUserLink(ctx context.Context, link RoleUserLink) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO role_user_links (user_id, role_id) VALUES ($1, $2)`, link.UserID, link.RoleID)
	return err
}

// DeleteRoleUserLink removes a role-user link.
func (s *Store) DeleteRoleUserLink(ctx context.Context, userID, roleID string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM role_user_links WHERE user_id = $1 AND role_id = $2`, userID, roleID)
	return err
}

// FindUserID returns the user's ID when the user exists, nil otherwise.
func (s *Store) FindUserID(ctx context.Context, userID string) (*string, error) {
	var id string
	err := s.pool.QueryRow(ctx, `SELECT id FROM users WHERE id = $1`, userID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &id, nil
}

// CreateGrant persists a role, its links and a permission in one transaction.
// Either the whole graph commits or nothing does.
func (s *Store) CreateGrant(ctx context.Context, role Role, links []RoleUserLink, perm Permission) error {
	return db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `INSERT INTO roles (id, name) VALUES ($1, $2)`, role.ID, role.Name); err != nil {
			return err
		}
		for _, link := range links {
			if _, err := tx.Exec(ctx, `INSERT INTO role_user_links (user_id, role_id) VALUES ($1, $2)`, link.UserID, link.RoleID); err != nil {
				return err
			}
		}
		_, err := tx.Exec(ctx,
			`INSERT INTO permissions (id, resource_name, resource_id, action, role_id) VALUES ($1, $2, $3, $4, $5)`,
			perm.ID, perm.ResourceName, perm.ResourceID, perm.Action, perm.RoleID)
		return err
	})
}

func scanPermissions(rows pgx.Rows) ([]Permission, error) {
	var perms []Permission
	for rows.Next() {
		var perm Permission
		if err := rows.Scan(&perm.ID, &perm.ResourceName, &perm.ResourceID, &perm.Action, &perm.RoleID); err != nil {
			return nil, err
		}
		perms = append(perms, perm)
	}
	return perms, rows.Err()
}
