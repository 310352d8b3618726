package shared

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSessionManager(t *testing.T, ttl time.Duration) *SessionManager {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionManager(client, ttl, false)
}

func TestSessionManagerPutGetDrop(t *testing.T) {
	sm := newTestSessionManager(t, time.Hour)
	ctx := context.Background()

	sess := &Session{ID: "abc", UserID: "u1", ExpiresAt: time.Now().Add(2 * time.Hour)}
	require.NoError(t, sm.Put(ctx, sess))

	got, err := sm.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, "abc", got.ID)

	require.NoError(t, sm.Drop(ctx, "abc"))
	_, err = sm.Get(ctx, "abc")
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionManagerMiss(t *testing.T) {
	sm := newTestSessionManager(t, time.Hour)
	_, err := sm.Get(context.Background(), "nope")
	require.ErrorIs(t, err, ErrSessionNotFound)
	_, err = sm.Get(context.Background(), "")
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionManagerRejectsEmptyID(t *testing.T) {
	sm := newTestSessionManager(t, time.Hour)
	err := sm.Put(context.Background(), &Session{UserID: "u1"})
	require.Error(t, err)
}

func TestSessionManagerClampsTTLToExpiry(t *testing.T) {
	sm := newTestSessionManager(t, 24*time.Hour)
	ctx := context.Background()

	sess := &Session{ID: "short", UserID: "u1", ExpiresAt: time.Now().Add(time.Minute)}
	require.NoError(t, sm.Put(ctx, sess))

	ttl := sm.client.TTL(ctx, sm.redisKey("short")).Val()
	assert.LessOrEqual(t, ttl, time.Minute)
	assert.Greater(t, ttl, time.Duration(0))
}

func TestWriteAndClearCookie(t *testing.T) {
	sm := newTestSessionManager(t, time.Hour)

	rec := httptest.NewRecorder()
	expires := time.Now().Add(time.Hour)
	sm.WriteCookie(rec, &Session{ID: "abc", UserID: "u1", ExpiresAt: expires})

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionCookieName, cookies[0].Name)
	assert.Equal(t, "abc", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)

	rec = httptest.NewRecorder()
	sm.ClearCookie(rec)
	cookies = rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Empty(t, cookies[0].Value)
	assert.Negative(t, cookies[0].MaxAge)
}
