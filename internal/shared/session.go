package shared

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionCookieName is the cookie carrying the login session identifier.
const SessionCookieName = "user_session_id"

// ErrSessionNotFound indicates no session exists for the given identifier.
var ErrSessionNotFound = errors.New("session not found")

// Session holds the per-request authenticated session data.
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
}

type sessionPayload struct {
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionManager caches login sessions in Redis keyed by the cookie value.
// The authoritative record lives in the login_sessions table; the cache
// only avoids a database round-trip per request.
type SessionManager struct {
	client *redis.Client
	secure bool
	ttl    time.Duration
}

// NewSessionManager constructs a SessionManager.
func NewSessionManager(client *redis.Client, ttl time.Duration, secure bool) *SessionManager {
	return &SessionManager{client: client, ttl: ttl, secure: secure}
}

// Put stores a session in the cache.
func (sm *SessionManager) Put(ctx context.Context, sess *Session) error {
	if sess == nil || sess.ID == "" {
		return errors.New("session id required")
	}
	data, err := json.Marshal(sessionPayload{UserID: sess.UserID, ExpiresAt: sess.ExpiresAt})
	if err != nil {
		return err
	}
	ttl := sm.ttl
	if remaining := time.Until(sess.ExpiresAt); remaining > 0 && remaining < ttl {
		ttl = remaining
	}
	return sm.client.Set(ctx, sm.redisKey(sess.ID), data, ttl).Err()
}

// Get loads a cached session. Returns ErrSessionNotFound on cache miss so the
// caller can fall back to the database.
func (sm *SessionManager) Get(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, ErrSessionNotFound
	}
	data, err := sm.client.Get(ctx, sm.redisKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	var stored sessionPayload
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, err
	}
	return &Session{ID: id, UserID: stored.UserID, ExpiresAt: stored.ExpiresAt}, nil
}

// Drop removes a session from the cache.
func (sm *SessionManager) Drop(ctx context.Context, id string) error {
	err := sm.client.Del(ctx, sm.redisKey(id)).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}

// TTL exposes the configured session lifetime.
func (sm *SessionManager) TTL() time.Duration {
	return sm.ttl
}

// WriteCookie sets the session cookie on the response.
func (sm *SessionManager) WriteCookie(w http.ResponseWriter, sess *Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   sm.secure,
		SameSite: http.SameSiteStrictMode,
		Expires:  sess.ExpiresAt,
	})
}

// ClearCookie expires the session cookie.
func (sm *SessionManager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   sm.secure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (sm *SessionManager) redisKey(id string) string {
	return "session:" + id
}
