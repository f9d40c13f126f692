// Package backend forwards application operations to the remote
// backend-as-a-service. Calls are not retried or batched; failures are
// logged and returned to the caller.
package backend

import (
	"context"
	"encoding/json"
)

// Client is the full set of remote operations used by the web server.
type Client interface {
	SignIn(ctx context.Context, email, password string) (Session, error)
	GetSession(ctx context.Context, accessToken string) (User, error)
	RefreshSession(ctx context.Context, refreshToken string) (Session, error)
	SignOut(ctx context.Context, accessToken string) error

	GetUser(ctx context.Context, id string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	UpdateProfile(ctx context.Context, id string, update ProfileUpdate) (User, error)
	UpdateUserRole(ctx context.Context, id string, role Role) error

	GetCommunity(ctx context.Context, id string) (Community, error)
	CreateCommunity(ctx context.Context, c NewCommunity) (Community, error)
	ListCommunities(ctx context.Context, organizerID string) ([]Community, error)
	ResolveInvite(ctx context.Context, code string) (Community, error)

	ListContacts(ctx context.Context) ([]Contact, error)
	ListServiceRequests(ctx context.Context) ([]ServiceRequest, error)
	AssignProvider(ctx context.Context, requestID, providerID string) error

	DashboardStats(ctx context.Context) ([]StatCard, error)
	InvokeFunction(ctx context.Context, name string, payload any) (FunctionResult, error)
}

type accessTokenKey struct{}

// WithAccessToken attaches the caller's access token to ctx so data
// calls run with the caller's row-level permissions.
func WithAccessToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, accessTokenKey{}, token)
}

// AccessTokenFromContext returns the token set by WithAccessToken.
func AccessTokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(accessTokenKey{}).(string)
	return token
}

// TestServiceName is the diagnostic function exposed on the admin panel.
const TestServiceName = "test-service"

// TestServicePayload is the request body for TestServiceName.
type TestServicePayload struct {
	Name string `json:"name"`
}

func rawJSON(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return data
}

var (
	_ Client = (*HTTPClient)(nil)
	_ Client = (*MemoryClient)(nil)
)
