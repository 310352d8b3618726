package auth

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/cases"

	"github.com/loslc/loslc-links/internal/rbac"
	"github.com/loslc/loslc-links/internal/shared"
)

const (
	userIDSize    = 10
	sessionIDSize = 30
)

// RegisterRequest carries the fields needed to create an account.
type RegisterRequest struct {
	Username        string
	Email           string
	Password        string
	PasswordConfirm string
	Name            string
}

// Service wraps registration, login and session resolution.
type Service struct {
	repo        Repository
	sessions    *shared.SessionManager
	adminEmails []string
}

// NewService constructs a Service. sessions may be nil when no cache is
// available; resolution then always goes to the database.
func NewService(repo Repository, sessions *shared.SessionManager, adminEmails []string) *Service {
	return &Service{repo: repo, sessions: sessions, adminEmails: adminEmails}
}

// Register creates a user together with its personal role and the read-write
// permission scoped to the new user's own record. Emails on the admin list
// additionally receive an "admin" role with global grants on the user, role
// and admin resources. The whole graph commits atomically.
func (s *Service) Register(ctx context.Context, req RegisterRequest) error {
	email := normalize(req.Email)
	username := normalize(req.Username)

	taken, err := s.repo.EmailOrUsernameTaken(ctx, email, username)
	if err != nil {
		return err
	}
	if err := shared.CheckNonExistence(taken, "Email or username already in use."); err != nil {
		return err
	}
	if err := shared.CheckEquality(req.Password, req.PasswordConfirm, "Passwords do not match."); err != nil {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user := User{
		ID:             shared.NewID(userIDSize),
		Email:          email,
		Username:       username,
		Name:           req.Name,
		HashedPassword: string(hashed),
	}

	role, links := rbac.PersonalRole(user.ID)
	selfPerm, err := rbac.NewPermission(rbac.PermissionSpec{
		Resource:   rbac.ResourceUser,
		Action:     rbac.ActionReadWrite,
		ResourceID: &user.ID,
		Role:       &role,
	})
	if err != nil {
		return err
	}

	graph := RegistrationGraph{
		User:        user,
		Roles:       []rbac.Role{role},
		Links:       links,
		Permissions: []rbac.Permission{selfPerm},
	}

	if s.isAdminEmail(email) {
		adminRole, adminLinks := rbac.NamedRole(rbac.AdminRoleName, user.ID)
		graph.Roles = append(graph.Roles, adminRole)
		graph.Links = append(graph.Links, adminLinks...)
		for _, resource := range []string{rbac.ResourceUser, rbac.ResourceRole, rbac.ResourceAdmin} {
			perm, err := rbac.NewPermission(rbac.PermissionSpec{
				Resource: resource,
				Action:   rbac.ActionReadWrite,
				Role:     &adminRole,
			})
			if err != nil {
				return err
			}
			graph.Permissions = append(graph.Permissions, perm)
		}
	}

	return s.repo.CreateUserGraph(ctx, graph)
}

// Login validates credentials and opens a login session.
func (s *Service) Login(ctx context.Context, email, password string) (*User, *LoginSession, error) {
	user, err := s.repo.FindByEmail(ctx, normalize(email))
	if err != nil {
		return nil, nil, err
	}
	user, err = shared.CheckExistence(user, "User not found.")
	if err != nil {
		return nil, nil, err
	}
	match := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)) == nil
	if err := shared.CheckConditions([]bool{match}, "Unauthorized"); err != nil {
		return nil, nil, err
	}

	sess := LoginSession{
		ID:        shared.NewID(sessionIDSize),
		UserID:    user.ID,
		ExpiresAt: time.Now().UTC().Add(LoginSessionTTL),
	}
	if err := s.repo.CreateLoginSession(ctx, sess); err != nil {
		return nil, nil, err
	}
	if s.sessions != nil {
		_ = s.sessions.Put(ctx, &shared.Session{ID: sess.ID, UserID: sess.UserID, ExpiresAt: sess.ExpiresAt})
	}
	return user, &sess, nil
}

// ResolveSession turns a session identifier into the authenticated actor with
// roles freshly loaded. The Redis cache only short-cuts the session lookup;
// roles always come from the database so grants take effect immediately.
func (s *Service) ResolveSession(ctx context.Context, sessionID string) (*rbac.Actor, *User, error) {
	if s.sessions != nil {
		if cached, err := s.sessions.Get(ctx, sessionID); err == nil && time.Now().Before(cached.ExpiresAt) {
			return s.actorFor(ctx, cached.UserID)
		}
	}

	sess, err := s.repo.GetLoginSession(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}
	if err := shared.CheckConditions([]bool{sess != nil}, "Not authenticated."); err != nil {
		return nil, nil, err
	}
	if err := shared.CheckConditions([]bool{
		time.Now().Before(sess.ExpiresAt),
		!sess.Expired,
	}, "Not authenticated."); err != nil {
		return nil, nil, err
	}
	if s.sessions != nil {
		_ = s.sessions.Put(ctx, &shared.Session{ID: sess.ID, UserID: sess.UserID, ExpiresAt: sess.ExpiresAt})
	}
	return s.actorFor(ctx, sess.UserID)
}

// Logout expires the login session and evicts it from the cache.
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if err := s.repo.ExpireLoginSession(ctx, sessionID); err != nil {
		return err
	}
	if s.sessions != nil {
		_ = s.sessions.Drop(ctx, sessionID)
	}
	return nil
}

func (s *Service) actorFor(ctx context.Context, userID string) (*rbac.Actor, *User, error) {
	user, roles, err := s.repo.GetUserWithRoles(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	if err := shared.CheckConditions([]bool{user != nil}, "Not authenticated."); err != nil {
		return nil, nil, err
	}
	return &rbac.Actor{ID: user.ID, Roles: roles}, user, nil
}

func (s *Service) isAdminEmail(email string) bool {
	for _, admin := range s.adminEmails {
		if normalize(admin) == email {
			return true
		}
	}
	return false
}

// normalize casefolds identifiers so lookups are case-insensitive.
func normalize(v string) string {
	return cases.Fold().String(v)
}
