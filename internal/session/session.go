// Package session keeps backend sessions in HTTP cookies and resolves the
// signed-in user for each request.
package session

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/Its-donkey/rel8/internal/backend"
	"github.com/Its-donkey/rel8/internal/guard"
	"github.com/Its-donkey/rel8/logging"
)

const (
	AccessCookie      = "rel8_access"
	RefreshCookie     = "rel8_refresh"
	RoleRefreshCookie = "should_refresh_user_role"
)

// Authenticator is the subset of backend.Client needed to resolve sessions.
type Authenticator interface {
	GetSession(ctx context.Context, accessToken string) (backend.User, error)
	RefreshSession(ctx context.Context, refreshToken string) (backend.Session, error)
}

// Manager resolves and stores sessions.
type Manager struct {
	Auth   Authenticator
	Logger *logging.Logger
}

var _ guard.Resolver = (*Manager)(nil)

// Resolve returns the AuthState for r. When the role refresh flag is set
// the session is refreshed once, the flag is cleared and a loading state
// is returned so the caller renders the spinner page.
func (m *Manager) Resolve(w http.ResponseWriter, r *http.Request) (guard.AuthState, error) {
	access := cookieValue(r, AccessCookie)
	refresh := cookieValue(r, RefreshCookie)
	if access == "" && refresh == "" {
		return guard.AuthState{}, nil
	}
	ctx := r.Context()
	log := m.Logger.WithRequestID(logging.RequestIDFromContext(ctx)).WithCategory("session")

	if cookieValue(r, RoleRefreshCookie) != "" {
		clearCookie(w, RoleRefreshCookie)
		if refresh != "" {
			sess, err := m.Auth.RefreshSession(ctx, refresh)
			if err != nil {
				log.Error("refresh session for role change", err)
				m.Clear(w)
				return guard.AuthState{}, nil
			}
			m.Start(w, r, sess)
			log.WithField("user_id", sess.User.ID).Info("session refreshed after role change")
			return guard.AuthState{Loading: true}, nil
		}
	}

	if access != "" {
		user, err := m.Auth.GetSession(ctx, access)
		if err == nil {
			return guard.AuthState{User: &user}, nil
		}
		if !errors.Is(err, backend.ErrUnauthorized) {
			return guard.AuthState{}, err
		}
	}
	if refresh == "" {
		m.Clear(w)
		return guard.AuthState{}, nil
	}
	sess, err := m.Auth.RefreshSession(ctx, refresh)
	if err != nil {
		if errors.Is(err, backend.ErrUnauthorized) {
			m.Clear(w)
			return guard.AuthState{}, nil
		}
		return guard.AuthState{}, err
	}
	m.Start(w, r, sess)
	user := sess.User
	return guard.AuthState{User: &user}, nil
}

// Start writes the session cookies.
func (m *Manager) Start(w http.ResponseWriter, r *http.Request, sess backend.Session) {
	secure := isSecure(r)
	access := &http.Cookie{
		Name:     AccessCookie,
		Value:    sess.AccessToken,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   secure,
	}
	if !sess.ExpiresAt.IsZero() {
		access.Expires = sess.ExpiresAt
	}
	http.SetCookie(w, access)
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookie,
		Value:    sess.RefreshToken,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   secure,
		MaxAge:   30 * 24 * 60 * 60,
	})
}

// Clear removes every session cookie.
func (m *Manager) Clear(w http.ResponseWriter) {
	clearCookie(w, AccessCookie)
	clearCookie(w, RefreshCookie)
	clearCookie(w, RoleRefreshCookie)
}

// FlagRoleRefresh marks the session for a refresh on the next guarded request.
func (m *Manager) FlagRoleRefresh(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     RoleRefreshCookie,
		Value:    "true",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   isSecure(r),
	})
}

// AccessToken returns the access token cookie of r.
func AccessToken(r *http.Request) string {
	return cookieValue(r, AccessCookie)
}

func cookieValue(r *http.Request, name string) string {
	if r == nil {
		return ""
	}
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(c.Value)
}

func clearCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
}

func isSecure(r *http.Request) bool {
	return r != nil && (r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https"))
}
