package auth

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/loslc/loslc-links/internal/platform/db"
	"github.com/loslc/loslc-links/internal/rbac"
)

// RegistrationGraph is everything a registration writes: the user, the roles
// granted at signup, their user links and their permissions. The graph
// persists in a single transaction or not at all.
type RegistrationGraph struct {
	User        User
	Roles       []rbac.Role
	Links       []rbac.RoleUserLink
	Permissions []rbac.Permission
}

// Repository defines persistence operations for the auth module.
type Repository interface {
	EmailOrUsernameTaken(ctx context.Context, email, username string) (bool, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	GetUserWithRoles(ctx context.Context, id string) (*User, []rbac.Role, error)
	CreateUserGraph(ctx context.Context, graph RegistrationGraph) error

	CreateLoginSession(ctx context.Context, sess LoginSession) error
	GetLoginSession(ctx context.Context, id string) (*LoginSession, error)
	ExpireLoginSession(ctx context.Context, id string) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// EmailOrUsernameTaken reports whether a user exists with the email or
// username.
func (r *PGRepository) EmailOrUsernameTaken(ctx context.Context, email, username string) (bool, error) {
	var taken bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE email = $1 OR username = $2)`, email, username).Scan(&taken)
	return taken, err
}

// FindByEmail fetches a user by email, returning nil when missing.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	err := r.pool.QueryRow(ctx,
		`SELECT id, email, username, name, hashed_password FROM users WHERE email = $1`, email).
		Scan(&user.ID, &user.Email, &user.Username, &user.Name, &user.HashedPassword)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// GetUserWithRoles fetches a user and the roles linked to it.
func (r *PGRepository) GetUserWithRoles(ctx context.Context, id string) (*User, []rbac.Role, error) {
	var user User
	err := r.pool.QueryRow(ctx,
		`SELECT id, email, username, name, hashed_password FROM users WHERE id = $1`, id).
		Scan(&user.ID, &user.Email, &user.Username, &user.Name, &user.HashedPassword)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	rows, err := r.pool.Query(ctx,
		`SELECT r.id, r.name FROM roles r JOIN role_user_links l ON l.role_id = r.id WHERE l.user_id = $1 ORDER BY r.id`, id)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()
	var roles []rbac.Role
	for rows.Next() {
		var role rbac.Role
		if err := rows.Scan(&role.ID, &role.Name); err != nil {
			return nil, nil, err
		}
		roles = append(roles, role)
	}
	return &user, roles, rows.Err()
}

// CreateUserGraph persists the registration graph in one transaction.
func (r *PGRepository) CreateUserGraph(ctx context.Context, graph RegistrationGraph) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO users (id, email, username, name, hashed_password) VALUES ($1, $2, $3, $4, $5)`,
			graph.User.ID, graph.User.Email, graph.User.Username, graph.User.Name, graph.User.HashedPassword); err != nil {
			return err
		}
		for _, role := range graph.Roles {
			if _, err := tx.Exec(ctx, `INSERT INTO roles (id, name) VALUES ($1, $2)`, role.ID, role.Name); err != nil {
				return err
			}
		}
		for _, link := range graph.Links {
			if _, err := tx.Exec(ctx, `INSERT INTO role_user_links (user_id, role_id) VALUES ($1, $2)`, link.UserID, link.RoleID); err != nil {
				return err
			}
		}
		for _, perm := range graph.Permissions {
			if _, err := tx.Exec(ctx,
				`INSERT INTO permissions (id, resource_name, resource_id, action, role_id) VALUES ($1, $2, $3, $4, $5)`,
				perm.ID, perm.ResourceName, perm.ResourceID, perm.Action, perm.RoleID); err != nil {
				return err
			}
		}
		return nil
	})
}

// CreateLoginSession persists a new login session.
func (r *PGRepository) CreateLoginSession(ctx context.Context, sess LoginSession) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO login_sessions (id, user_id, expires_at, expired) VALUES ($1, $2, $3, $4)`,
		sess.ID, sess.UserID, sess.ExpiresAt, sess.Expired)
	return err
}

// GetLoginSession fetches a login session, returning nil when missing.
func (r *PGRepository) GetLoginSession(ctx context.Context, id string) (*LoginSession, error) {
	var sess LoginSession
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, expires_at, expired FROM login_sessions WHERE id = $1`, id).
		Scan(&sess.ID, &sess.UserID, &sess.ExpiresAt, &sess.Expired)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &sess, nil
}

// ExpireLoginSession flags a session as expired.
func (r *PGRepository) ExpireLoginSession(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `UPDATE login_sessions SET expired = TRUE WHERE id = $1`, id)
	return err
}

var _ Repository = (*PGRepository)(nil)
