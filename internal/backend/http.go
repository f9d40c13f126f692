package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Its-donkey/rel8/logging"
)

const maxResponseBytes = 2 << 20

// HTTPClient talks to a PostgREST/GoTrue style backend over HTTPS.
type HTTPClient struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	Logger     *logging.Logger
}

// NewHTTPClient constructs an HTTPClient with a bounded request timeout.
func NewHTTPClient(baseURL, apiKey string, timeout time.Duration, logger *logging.Logger) *HTTPClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPClient{
		BaseURL:    strings.TrimSuffix(strings.TrimSpace(baseURL), "/"),
		APIKey:     strings.TrimSpace(apiKey),
		HTTPClient: &http.Client{Timeout: timeout},
		Logger:     logger,
	}
}

type authUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type tokenResponse struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	ExpiresIn    int      `json:"expires_in"`
	ExpiresAt    int64    `json:"expires_at"`
	User         authUser `json:"user"`
}

// remoteError accepts the error field spellings used by the auth and rest APIs.
type remoteError struct {
	Code             string `json:"code"`
	ErrorCode        string `json:"error_code"`
	Message          string `json:"message"`
	Msg              string `json:"msg"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (r remoteError) toError(status int, body []byte) *Error {
	code := firstNonEmpty(r.Code, r.ErrorCode, r.Error)
	message := firstNonEmpty(r.Message, r.Msg, r.ErrorDescription, r.Error)
	if message == "" {
		message = strings.TrimSpace(string(body))
	}
	if message == "" {
		message = http.StatusText(status)
	}
	return &Error{Status: status, Code: code, Message: message}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

type call struct {
	op     string
	method string
	path   string
	query  url.Values
	token  string
	body   any
	out    any
}

func (c *HTTPClient) do(ctx context.Context, req call) error {
	endpoint := c.BaseURL + req.path
	if len(req.query) > 0 {
		endpoint += "?" + req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		payload, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", req.op, err)
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, endpoint, body)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", req.op, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.method == http.MethodPost || req.method == http.MethodPatch {
		httpReq.Header.Set("Prefer", "return=representation")
	}
	if c.APIKey != "" {
		httpReq.Header.Set("apikey", c.APIKey)
	}
	token := req.token
	if token == "" {
		token = AccessTokenFromContext(ctx)
	}
	if token == "" {
		token = c.APIKey
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	client := c.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	start := time.Now()
	resp, err := client.Do(httpReq)
	if err != nil {
		c.logFailure(ctx, req, 0, err, time.Since(start))
		return fmt.Errorf("%s: %w", req.op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		c.logFailure(ctx, req, resp.StatusCode, err, time.Since(start))
		return fmt.Errorf("%s: read response: %w", req.op, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		var remote remoteError
		_ = json.Unmarshal(data, &remote)
		apiErr := remote.toError(resp.StatusCode, data)
		c.logFailure(ctx, req, resp.StatusCode, apiErr, time.Since(start))
		return apiErr
	}

	c.Logger.WithRequestID(logging.RequestIDFromContext(ctx)).
		WithCategory("backend").
		WithField("op", req.op).
		WithField("status", resp.StatusCode).
		WithField("duration_ms", time.Since(start).Milliseconds()).
		Info("backend call completed")

	if req.out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, req.out); err != nil {
		c.logFailure(ctx, req, resp.StatusCode, err, time.Since(start))
		return fmt.Errorf("%s: decode response: %w", req.op, err)
	}
	return nil
}

func (c *HTTPClient) logFailure(ctx context.Context, req call, status int, err error, elapsed time.Duration) {
	c.Logger.WithRequestID(logging.RequestIDFromContext(ctx)).
		WithCategory("backend").
		WithField("op", req.op).
		WithField("method", req.method).
		WithField("path", req.path).
		WithField("status", status).
		WithField("duration_ms", elapsed.Milliseconds()).
		Error("backend call failed", err)
}

func eq(value string) string {
	return "eq." + value
}

func (c *HTTPClient) session(ctx context.Context, tok tokenResponse) (Session, error) {
	expires := time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	if tok.ExpiresAt > 0 {
		expires = time.Unix(tok.ExpiresAt, 0)
	}
	user, err := c.profile(ctx, tok.AccessToken, tok.User)
	if err != nil {
		return Session{}, err
	}
	return Session{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    expires,
		User:         user,
	}, nil
}

// profile loads the application profile for an auth user. Users without a
// profile row are treated as members.
func (c *HTTPClient) profile(ctx context.Context, token string, au authUser) (User, error) {
	var rows []User
	err := c.do(ctx, call{
		op:     "get_profile",
		method: http.MethodGet,
		path:   "/rest/v1/users",
		query:  url.Values{"id": {eq(au.ID)}, "select": {"*"}},
		token:  token,
		out:    &rows,
	})
	if err != nil {
		return User{}, err
	}
	if len(rows) == 0 {
		return User{ID: au.ID, Email: au.Email, Role: RoleMember}, nil
	}
	return rows[0], nil
}

func (c *HTTPClient) SignIn(ctx context.Context, email, password string) (Session, error) {
	var tok tokenResponse
	err := c.do(ctx, call{
		op:     "sign_in",
		method: http.MethodPost,
		path:   "/auth/v1/token",
		query:  url.Values{"grant_type": {"password"}},
		token:  c.APIKey,
		body:   map[string]string{"email": email, "password": password},
		out:    &tok,
	})
	if err != nil {
		return Session{}, err
	}
	return c.session(ctx, tok)
}

func (c *HTTPClient) GetSession(ctx context.Context, accessToken string) (User, error) {
	var au authUser
	err := c.do(ctx, call{
		op:     "get_session",
		method: http.MethodGet,
		path:   "/auth/v1/user",
		token:  accessToken,
		out:    &au,
	})
	if err != nil {
		return User{}, err
	}
	return c.profile(ctx, accessToken, au)
}

func (c *HTTPClient) RefreshSession(ctx context.Context, refreshToken string) (Session, error) {
	var tok tokenResponse
	err := c.do(ctx, call{
		op:     "refresh_session",
		method: http.MethodPost,
		path:   "/auth/v1/token",
		query:  url.Values{"grant_type": {"refresh_token"}},
		token:  c.APIKey,
		body:   map[string]string{"refresh_token": refreshToken},
		out:    &tok,
	})
	if err != nil {
		return Session{}, err
	}
	return c.session(ctx, tok)
}

func (c *HTTPClient) SignOut(ctx context.Context, accessToken string) error {
	return c.do(ctx, call{
		op:     "sign_out",
		method: http.MethodPost,
		path:   "/auth/v1/logout",
		token:  accessToken,
	})
}

func (c *HTTPClient) GetUser(ctx context.Context, id string) (User, error) {
	var rows []User
	err := c.do(ctx, call{
		op:     "get_user",
		method: http.MethodGet,
		path:   "/rest/v1/users",
		query:  url.Values{"id": {eq(id)}, "select": {"*"}},
		out:    &rows,
	})
	if err != nil {
		return User{}, err
	}
	if len(rows) == 0 {
		return User{}, &Error{Status: http.StatusNotFound, Code: "not_found", Message: "user not found"}
	}
	return rows[0], nil
}

func (c *HTTPClient) ListUsers(ctx context.Context) ([]User, error) {
	var rows []User
	err := c.do(ctx, call{
		op:     "list_users",
		method: http.MethodGet,
		path:   "/rest/v1/users",
		query:  url.Values{"select": {"*"}, "order": {"name.asc"}},
		out:    &rows,
	})
	return rows, err
}

func (c *HTTPClient) UpdateProfile(ctx context.Context, id string, update ProfileUpdate) (User, error) {
	var rows []User
	err := c.do(ctx, call{
		op:     "update_profile",
		method: http.MethodPatch,
		path:   "/rest/v1/users",
		query:  url.Values{"id": {eq(id)}},
		body:   update,
		out:    &rows,
	})
	if err != nil {
		return User{}, err
	}
	if len(rows) == 0 {
		return User{}, &Error{Status: http.StatusNotFound, Code: "not_found", Message: "user not found"}
	}
	return rows[0], nil
}

func (c *HTTPClient) UpdateUserRole(ctx context.Context, id string, role Role) error {
	return c.do(ctx, call{
		op:     "update_user_role",
		method: http.MethodPatch,
		path:   "/rest/v1/users",
		query:  url.Values{"id": {eq(id)}},
		body:   map[string]Role{"role": role},
	})
}

func (c *HTTPClient) singleCommunity(ctx context.Context, op, column, value string) (Community, error) {
	var rows []Community
	err := c.do(ctx, call{
		op:     op,
		method: http.MethodGet,
		path:   "/rest/v1/communities",
		query:  url.Values{column: {eq(value)}, "select": {"*"}},
		out:    &rows,
	})
	if err != nil {
		return Community{}, err
	}
	if len(rows) == 0 {
		return Community{}, &Error{Status: http.StatusNotFound, Code: "not_found", Message: "community not found"}
	}
	return rows[0], nil
}

func (c *HTTPClient) GetCommunity(ctx context.Context, id string) (Community, error) {
	return c.singleCommunity(ctx, "get_community", "id", id)
}

func (c *HTTPClient) ResolveInvite(ctx context.Context, code string) (Community, error) {
	return c.singleCommunity(ctx, "resolve_invite", "invite_code", code)
}

func (c *HTTPClient) CreateCommunity(ctx context.Context, community NewCommunity) (Community, error) {
	var rows []Community
	err := c.do(ctx, call{
		op:     "create_community",
		method: http.MethodPost,
		path:   "/rest/v1/communities",
		body:   community,
		out:    &rows,
	})
	if err != nil {
		return Community{}, err
	}
	if len(rows) == 0 {
		return Community{}, &Error{Status: http.StatusBadGateway, Code: "empty_response", Message: "community was not returned"}
	}
	return rows[0], nil
}

func (c *HTTPClient) ListCommunities(ctx context.Context, organizerID string) ([]Community, error) {
	query := url.Values{"select": {"*"}, "order": {"created_at.desc"}}
	if organizerID != "" {
		query.Set("organizer_id", eq(organizerID))
	}
	var rows []Community
	err := c.do(ctx, call{
		op:     "list_communities",
		method: http.MethodGet,
		path:   "/rest/v1/communities",
		query:  query,
		out:    &rows,
	})
	return rows, err
}

func (c *HTTPClient) ListContacts(ctx context.Context) ([]Contact, error) {
	var rows []Contact
	err := c.do(ctx, call{
		op:     "list_contacts",
		method: http.MethodGet,
		path:   "/rest/v1/contacts",
		query:  url.Values{"select": {"*"}, "order": {"name.asc"}},
		out:    &rows,
	})
	return rows, err
}

func (c *HTTPClient) ListServiceRequests(ctx context.Context) ([]ServiceRequest, error) {
	var rows []ServiceRequest
	err := c.do(ctx, call{
		op:     "list_service_requests",
		method: http.MethodGet,
		path:   "/rest/v1/service_requests",
		query:  url.Values{"select": {"*"}, "order": {"created_at.desc"}},
		out:    &rows,
	})
	return rows, err
}

func (c *HTTPClient) AssignProvider(ctx context.Context, requestID, providerID string) error {
	return c.do(ctx, call{
		op:     "assign_provider",
		method: http.MethodPatch,
		path:   "/rest/v1/service_requests",
		query:  url.Values{"id": {eq(requestID)}},
		body: map[string]string{
			"provider_id": providerID,
			"status":      RequestStatusAssigned,
		},
	})
}

func (c *HTTPClient) DashboardStats(ctx context.Context) ([]StatCard, error) {
	var rows []statRow
	err := c.do(ctx, call{
		op:     "dashboard_stats",
		method: http.MethodPost,
		path:   "/rest/v1/rpc/dashboard_stats",
		body:   map[string]any{},
		out:    &rows,
	})
	if err != nil {
		return nil, err
	}
	return statCards(rows), nil
}

func (c *HTTPClient) InvokeFunction(ctx context.Context, name string, payload any) (FunctionResult, error) {
	var result FunctionResult
	err := c.do(ctx, call{
		op:     "invoke_function",
		method: http.MethodPost,
		path:   "/functions/v1/" + url.PathEscape(name),
		body:   payload,
		out:    &result,
	})
	return result, err
}
