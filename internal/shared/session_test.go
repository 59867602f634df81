package shared

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) (*SessionManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionManager(client, "busman_session", "test-secret", time.Hour, false), mr
}

func TestLoadWithoutCookieCreatesNewSession(t *testing.T) {
	sm, _ := newTestManager(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(context.Background(), req)
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)
	assert.Empty(t, sess.User())
}

func TestCommitPersistsAndReloads(t *testing.T) {
	sm, _ := newTestManager(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(context.Background(), req)
	require.NoError(t, err)

	sess.SetUser("2b7f2f64-9cc7-4f0e-9f03-0a8c2f9b51d1")
	sess.Set("theme", "dark")

	rec := httptest.NewRecorder()
	require.NoError(t, sm.Commit(context.Background(), rec, req, sess))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "busman_session", cookies[0].Name)
	assert.Equal(t, sm.signedCookieValue(sess.ID), cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)

	// A follow-up request carrying the cookie resolves the same session.
	next := httptest.NewRequest(http.MethodGet, "/", nil)
	next.AddCookie(cookies[0])
	reloaded, err := sm.Load(context.Background(), next)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, reloaded.ID)
	assert.Equal(t, "2b7f2f64-9cc7-4f0e-9f03-0a8c2f9b51d1", reloaded.User())
	assert.Equal(t, "dark", reloaded.Get("theme"))
}

func TestTamperedCookieGetsFreshSession(t *testing.T) {
	sm, _ := newTestManager(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(context.Background(), req)
	require.NoError(t, err)
	sess.SetUser("2b7f2f64-9cc7-4f0e-9f03-0a8c2f9b51d1")

	rec := httptest.NewRecorder()
	require.NoError(t, sm.Commit(context.Background(), rec, req, sess))

	// A forged id, a bad signature, and an unsigned value must all fail to
	// resolve the stored session.
	for _, value := range []string{
		sm.signedCookieValue("forged-id"),
		sess.ID + "." + "bm90LXRoZS1yaWdodC10YWc",
		sess.ID,
	} {
		next := httptest.NewRequest(http.MethodGet, "/", nil)
		next.AddCookie(&http.Cookie{Name: "busman_session", Value: value})
		reloaded, err := sm.Load(context.Background(), next)
		require.NoError(t, err)
		assert.Empty(t, reloaded.User())
		assert.NotEqual(t, sess.ID, reloaded.ID)
	}
}

func TestSessionExpires(t *testing.T) {
	sm, mr := newTestManager(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(context.Background(), req)
	require.NoError(t, err)
	sess.SetUser("2b7f2f64-9cc7-4f0e-9f03-0a8c2f9b51d1")

	rec := httptest.NewRecorder()
	require.NoError(t, sm.Commit(context.Background(), rec, req, sess))

	mr.FastForward(2 * time.Hour)

	next := httptest.NewRequest(http.MethodGet, "/", nil)
	next.AddCookie(rec.Result().Cookies()[0])
	reloaded, err := sm.Load(context.Background(), next)
	require.NoError(t, err)
	assert.Empty(t, reloaded.User())
}

func TestDestroyClearsStoreAndCookie(t *testing.T) {
	sm, mr := newTestManager(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(context.Background(), req)
	require.NoError(t, err)
	sess.SetUser("2b7f2f64-9cc7-4f0e-9f03-0a8c2f9b51d1")

	rec := httptest.NewRecorder()
	require.NoError(t, sm.Commit(context.Background(), rec, req, sess))
	require.True(t, mr.Exists("session:"+sess.ID))

	sm.Destroy(sess)
	rec = httptest.NewRecorder()
	require.NoError(t, sm.Commit(context.Background(), rec, req, sess))

	assert.False(t, mr.Exists("session:"+sess.ID))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)
}

func TestCurrentUserID(t *testing.T) {
	sess := &Session{}
	sess.SetUser("2b7f2f64-9cc7-4f0e-9f03-0a8c2f9b51d1")
	ctx := ContextWithSession(context.Background(), sess)

	id, ok := CurrentUserID(ctx)
	require.True(t, ok)
	assert.Equal(t, "2b7f2f64-9cc7-4f0e-9f03-0a8c2f9b51d1", id.String())

	_, ok = CurrentUserID(context.Background())
	assert.False(t, ok)

	sess.SetUser("not-a-uuid")
	_, ok = CurrentUserID(ContextWithSession(context.Background(), sess))
	assert.False(t, ok)
}

func TestCSRFTokenRoundTrip(t *testing.T) {
	m := NewCSRFManager("csrf-secret")
	sess := &Session{ID: "abc"}

	token, err := m.EnsureToken(context.Background(), sess)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	// Stable across calls for the same session.
	again, err := m.EnsureToken(context.Background(), sess)
	require.NoError(t, err)
	assert.Equal(t, token, again)

	assert.NoError(t, m.VerifyToken(context.Background(), sess, token))
	assert.ErrorIs(t, m.VerifyToken(context.Background(), sess, "forged"), ErrCSRFTokenMismatch)
	assert.ErrorIs(t, m.VerifyToken(context.Background(), sess, ""), ErrCSRFTokenMissing)
}
