package links

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/loslc/loslc-links/internal/platform/db"
	"github.com/loslc/loslc-links/internal/rbac"
)

// Repository defines the persistence surface the link service needs.
type Repository interface {
	rbac.PermissionStore

	GetByID(ctx context.Context, id string) (*Link, error)
	GetByLabel(ctx context.Context, label string) (*Link, error)
	ListByUser(ctx context.Context, userID string, skip, limit int) ([]Link, error)
	FindUserID(ctx context.Context, userID string) (*string, error)
	CreateLinkGraph(ctx context.Context, link Link, role rbac.Role, roleLinks []rbac.RoleUserLink, perm rbac.Permission) error
	Update(ctx context.Context, link Link) error
	Delete(ctx context.Context, id string) error
}

// PGRepository implements Repository against PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

var _ Repository = (*PGRepository)(nil)

// NewPGRepository constructs a PGRepository.
func NewPGRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// HasPermission reports whether a permission row matches role, resource,
// resource ID and action exactly.
func (r *PGRepository) HasPermission(ctx context.Context, roleID, resource, resourceID, action string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM permissions WHERE role_id = $1 AND resource_name = $2 AND resource_id = $3 AND action = $4)`,
		roleID, resource, resourceID, action).Scan(&exists)
	return exists, err
}

// HasGlobalPermission reports whether a permission row matches role, resource
// and action regardless of its resource ID.
func (r *PGRepository) HasGlobalPermission(ctx context.Context, roleID, resource, action string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM permissions WHERE role_id = $1 AND resource_name = $2 AND action = $3)`,
		roleID, resource, action).Scan(&exists)
	return exists, err
}

// GetByID fetches a link by ID, returning nil when it does not exist.
func (r *PGRepository) GetByID(ctx context.Context, id string) (*Link, error) {
	return r.getOne(ctx,
		`SELECT id, user_id, label, url, description, created_at FROM links WHERE id = $1`, id)
}

// GetByLabel fetches a link by its unique label, returning nil when missing.
func (r *PGRepository) GetByLabel(ctx context.Context, label string) (*Link, error) {
	return r.getOne(ctx,
		`SELECT id, user_id, label, url, description, created_at FROM links WHERE label = $1`, label)
}

func (r *PGRepository) getOne(ctx context.Context, query string, arg any) (*Link, error) {
	var link Link
	err := r.pool.QueryRow(ctx, query, arg).
		Scan(&link.ID, &link.UserID, &link.Label, &link.URL, &link.Description, &link.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &link, nil
}

// ListByUser returns a user's links ordered by creation time, paginated.
func (r *PGRepository) ListByUser(ctx context.Context, userID string, skip, limit int) ([]Link, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, label, url, description, created_at FROM links WHERE user_id = $1 ORDER BY created_at, id OFFSET $2 LIMIT $3`,
		userID, skip, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Link
	for rows.Next() {
		var link Link
		if err := rows.Scan(&link.ID, &link.UserID, &link.Label, &link.URL, &link.Description, &link.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, link)
	}
	return out, rows.Err()
}

// FindUserID returns the user's ID when the user exists, nil otherwise.
func (r *PGRepository) FindUserID(ctx context.Context, userID string) (*string, error) {
	var id string
	err := r.pool.QueryRow(ctx, `SELECT id FROM users WHERE id = $1`, userID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &id, nil
}

// CreateLinkGraph persists the link together with the owner role, its user
// link and the read-write permission. Either the whole graph commits or
// nothing does.
func (r *PGRepository) CreateLinkGraph(ctx context.Context, link Link, role rbac.Role, roleLinks []rbac.RoleUserLink, perm rbac.Permission) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO links (id, user_id, label, url, description, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
			link.ID, link.UserID, link.Label, link.URL, link.Description, link.CreatedAt); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `INSERT INTO roles (id, name) VALUES ($1, $2)`, role.ID, role.Name); err != nil {
			return err
		}
		for _, rl := range roleLinks {
			if _, err := tx.Exec(ctx, `INSERT INTO role_user_links (user_id, role_id) VALUES ($1, $2)`, rl.UserID, rl.RoleID); err != nil {
				return err
			}
		}
		_, err := tx.Exec(ctx,
			`INSERT INTO permissions (id, resource_name, resource_id, action, role_id) VALUES ($1, $2, $3, $4, $5)`,
			perm.ID, perm.ResourceName, perm.ResourceID, perm.Action, perm.RoleID)
		return err
	})
}

// Update rewrites the mutable columns of a link.
func (r *PGRepository) Update(ctx context.Context, link Link) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE links SET label = $2, url = $3, description = $4 WHERE id = $1`,
		link.ID, link.Label, link.URL, link.Description)
	return err
}

// Delete removes a link row.
func (r *PGRepository) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM links WHERE id = $1`, id)
	return err
}
