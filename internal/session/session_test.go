package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Its-donkey/rel8/internal/backend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T) (*Manager, *backend.MemoryClient) {
	t.Helper()
	mem, err := backend.NewSeededMemoryClient()
	require.NoError(t, err)
	return &Manager{Auth: mem}, mem
}

func cookiesByName(rec *httptest.ResponseRecorder) map[string]*http.Cookie {
	out := make(map[string]*http.Cookie)
	for _, c := range rec.Result().Cookies() {
		out[c.Name] = c
	}
	return out
}

func TestResolveAnonymous(t *testing.T) {
	m, _ := newManager(t)
	rec := httptest.NewRecorder()

	state, err := m.Resolve(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Nil(t, state.User)
	assert.False(t, state.Loading)
}

func TestResolveValidAccessToken(t *testing.T) {
	m, mem := newManager(t)
	sess, err := mem.SignIn(context.Background(), "organizer@rel8.local", backend.SeedPassword)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/organizer", nil)
	req.AddCookie(&http.Cookie{Name: AccessCookie, Value: sess.AccessToken})
	state, err := m.Resolve(httptest.NewRecorder(), req)
	require.NoError(t, err)
	require.NotNil(t, state.User)
	assert.Equal(t, "user-organizer", state.User.ID)
}

func TestResolveFallsBackToRefreshToken(t *testing.T) {
	m, mem := newManager(t)
	sess, err := mem.SignIn(context.Background(), "admin@rel8.local", backend.SeedPassword)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(&http.Cookie{Name: AccessCookie, Value: "expired"})
	req.AddCookie(&http.Cookie{Name: RefreshCookie, Value: sess.RefreshToken})
	rec := httptest.NewRecorder()

	state, err := m.Resolve(rec, req)
	require.NoError(t, err)
	require.NotNil(t, state.User)
	assert.True(t, state.User.IsAdmin())

	cookies := cookiesByName(rec)
	require.Contains(t, cookies, AccessCookie)
	assert.NotEqual(t, "expired", cookies[AccessCookie].Value)
}

func TestResolveClearsCookiesWhenRefreshFails(t *testing.T) {
	m, _ := newManager(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: AccessCookie, Value: "expired"})
	req.AddCookie(&http.Cookie{Name: RefreshCookie, Value: "revoked"})
	rec := httptest.NewRecorder()

	state, err := m.Resolve(rec, req)
	require.NoError(t, err)
	assert.Nil(t, state.User)
	cookies := cookiesByName(rec)
	require.Contains(t, cookies, AccessCookie)
	assert.Equal(t, -1, cookies[AccessCookie].MaxAge)
}

func TestResolveRoleRefreshFlag(t *testing.T) {
	m, mem := newManager(t)
	sess, err := mem.SignIn(context.Background(), "member@rel8.local", backend.SeedPassword)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/organizer", nil)
	req.AddCookie(&http.Cookie{Name: AccessCookie, Value: sess.AccessToken})
	req.AddCookie(&http.Cookie{Name: RefreshCookie, Value: sess.RefreshToken})
	req.AddCookie(&http.Cookie{Name: RoleRefreshCookie, Value: "true"})
	rec := httptest.NewRecorder()

	state, err := m.Resolve(rec, req)
	require.NoError(t, err)
	assert.True(t, state.Loading)

	cookies := cookiesByName(rec)
	require.Contains(t, cookies, RoleRefreshCookie)
	assert.Equal(t, -1, cookies[RoleRefreshCookie].MaxAge, "flag is cleared")
	require.Contains(t, cookies, RefreshCookie)
	assert.NotEqual(t, sess.RefreshToken, cookies[RefreshCookie].Value)
}

func TestFlagRoleRefreshSetsCookie(t *testing.T) {
	m, _ := newManager(t)
	rec := httptest.NewRecorder()
	m.FlagRoleRefresh(rec, httptest.NewRequest(http.MethodPost, "/settings/account", nil))

	cookies := cookiesByName(rec)
	require.Contains(t, cookies, RoleRefreshCookie)
	assert.Equal(t, "true", cookies[RoleRefreshCookie].Value)
}
