package users

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/loslc/loslc-links/internal/rbac"
)

// Repository defines the persistence surface the user service needs.
type Repository interface {
	rbac.PermissionStore

	List(ctx context.Context, skip, limit int) ([]User, error)
	GetByID(ctx context.Context, id string) (*User, error)
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

func (r *PGRepository) HasPermission(ctx context.Context, roleID, resource, resourceID, action string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM permissions WHERE role_id = $1 AND resource_name = $2 AND resource_id = $3 AND action = $4)`,
		roleID, resource, resourceID, action).Scan(&exists)
	return exists, err
}

func (r *PGRepository) HasGlobalPermission(ctx context.Context, roleID, resource, action string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM permissions WHERE role_id = $1 AND resource_name = $2 AND action = $3)`,
		roleID, resource, action).Scan(&exists)
	return exists, err
}

// List returns accounts ordered by ID with offset pagination.
func (r *PGRepository) List(ctx context.Context, skip, limit int) ([]User, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, email, username, name FROM users ORDER BY id OFFSET $1 LIMIT $2`, skip, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Email, &u.Username, &u.Name); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// GetByID fetches an account, returning nil when it does not exist.
func (r *PGRepository) GetByID(ctx context.Context, id string) (*User, error) {
	var u User
	err := r.pool.QueryRow(ctx,
		`SELECT id, email, username, name FROM users WHERE id = $1`, id).
		Scan(&u.ID, &u.Email, &u.Username, &u.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// Delete removes an account. Login sessions, links, role links and personal
// roles cascade through foreign keys.
func (r *PGRepository) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	return err
}
