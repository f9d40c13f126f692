// Package guard decides whether a request may render a protected page.
package guard

import (
	"context"
	"net/http"

	"github.com/Its-donkey/rel8/internal/backend"
	"github.com/Its-donkey/rel8/logging"
)

const (
	AuthPath = "/auth"
	HomePath = "/"
)

// Status is the outcome of evaluating an AuthState against a Policy.
type Status int

const (
	StatusLoading Status = iota
	StatusUnauthenticated
	StatusUnauthorized
	StatusAuthorized
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusUnauthenticated:
		return "unauthenticated"
	case StatusUnauthorized:
		return "unauthorized"
	case StatusAuthorized:
		return "authorized"
	default:
		return "unknown"
	}
}

// AuthState is the authentication state resolved for one request.
// Loading is set while the session is being refreshed.
type AuthState struct {
	Loading bool
	User    *backend.User
}

// Policy reports whether a signed-in user may proceed.
type Policy func(*backend.User) bool

// AdminOrOrganizer admits admins and community organizers.
func AdminOrOrganizer(u *backend.User) bool {
	return u.IsAdmin() || u.IsOrganizer()
}

// AdminOnly admits admins.
func AdminOnly(u *backend.User) bool {
	return u.IsAdmin()
}

// SignedIn admits any authenticated user.
func SignedIn(u *backend.User) bool {
	return u != nil
}

// Evaluate classifies state under policy.
func Evaluate(state AuthState, policy Policy) Status {
	switch {
	case state.Loading:
		return StatusLoading
	case state.User == nil:
		return StatusUnauthenticated
	case policy != nil && !policy(state.User):
		return StatusUnauthorized
	default:
		return StatusAuthorized
	}
}

// Outcome is the rendering decision for a guarded request. Redirect is
// empty unless the request must be sent elsewhere.
type Outcome struct {
	Status   Status
	Redirect string
}

// Decide maps state to the page the request should end up on.
func Decide(state AuthState, policy Policy) Outcome {
	status := Evaluate(state, policy)
	switch status {
	case StatusUnauthenticated:
		return Outcome{Status: status, Redirect: AuthPath}
	case StatusUnauthorized:
		return Outcome{Status: status, Redirect: HomePath}
	default:
		return Outcome{Status: status}
	}
}

// Resolver resolves the AuthState of a request. It may write cookies.
type Resolver interface {
	Resolve(w http.ResponseWriter, r *http.Request) (AuthState, error)
}

// Protect wraps next so it only runs for requests authorized by policy.
// Loading requests are served by loading; the others are redirected.
func Protect(resolver Resolver, policy Policy, loading, next http.Handler, logger *logging.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		state, err := resolver.Resolve(w, r)
		if err != nil {
			logger.WithRequestID(logging.RequestIDFromContext(r.Context())).
				WithCategory("guard").
				WithField("path", r.URL.Path).
				Error("resolve session", err)
			state = AuthState{}
		}
		outcome := Decide(state, policy)
		switch outcome.Status {
		case StatusLoading:
			loading.ServeHTTP(w, r)
		case StatusAuthorized:
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), state.User)))
		default:
			http.Redirect(w, r, outcome.Redirect, http.StatusFound)
		}
	})
}

type userKey struct{}

// WithUser stores the authorized user on ctx.
func WithUser(ctx context.Context, u *backend.User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// UserFromContext returns the user stored by Protect, or nil.
func UserFromContext(ctx context.Context) *backend.User {
	u, _ := ctx.Value(userKey{}).(*backend.User)
	return u
}
