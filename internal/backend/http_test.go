package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Its-donkey/rel8/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHTTPClient(t *testing.T, handler http.HandlerFunc) (*HTTPClient, *bytes.Buffer) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	var buf bytes.Buffer
	return NewHTTPClient(srv.URL+"/", "anon-key", time.Second, logging.New("test", logging.DEBUG, &buf)), &buf
}

func TestHTTPClientSignInLoadsProfile(t *testing.T) {
	client, _ := newTestHTTPClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/v1/token":
			assert.Equal(t, "password", r.URL.Query().Get("grant_type"))
			assert.Equal(t, "anon-key", r.Header.Get("apikey"))
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "ada@example.com", body["email"])
			_, _ = io.WriteString(w, `{"access_token":"at","refresh_token":"rt","expires_in":3600,"user":{"id":"u1","email":"ada@example.com"}}`)
		case "/rest/v1/users":
			assert.Equal(t, "eq.u1", r.URL.Query().Get("id"))
			assert.Equal(t, "Bearer at", r.Header.Get("Authorization"))
			_, _ = io.WriteString(w, `[{"id":"u1","email":"ada@example.com","name":"Ada","role":"admin"}]`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})

	session, err := client.SignIn(context.Background(), "ada@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "at", session.AccessToken)
	assert.Equal(t, "rt", session.RefreshToken)
	assert.True(t, session.User.IsAdmin())
	assert.WithinDuration(t, time.Now().Add(time.Hour), session.ExpiresAt, time.Minute)
}

func TestHTTPClientPassesErrorShapeThrough(t *testing.T) {
	client, logs := newTestHTTPClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"code":"PGRST116","message":"row not found"}`)
	})

	_, err := client.ResolveInvite(context.Background(), "NOPE")
	require.Error(t, err)

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "PGRST116", apiErr.Code)
	assert.Equal(t, "row not found", Message(err))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, logs.String(), `"op":"resolve_invite"`)
	assert.Contains(t, logs.String(), `"level":"error"`)
}

func TestHTTPClientAuthErrorFields(t *testing.T) {
	client, _ := newTestHTTPClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":"invalid_grant","error_description":"Refresh Token Not Found"}`)
	})

	_, err := client.RefreshSession(context.Background(), "stale")
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, "Refresh Token Not Found", Message(err))
}

func TestHTTPClientEmptyResultIsNotFound(t *testing.T) {
	client, _ := newTestHTTPClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[]`)
	})

	_, err := client.GetCommunity(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHTTPClientAssignProvider(t *testing.T) {
	client, _ := newTestHTTPClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/rest/v1/service_requests", r.URL.Path)
		assert.Equal(t, "eq.req-1", r.URL.Query().Get("id"))
		assert.Equal(t, "Bearer user-token", r.Header.Get("Authorization"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]string{"provider_id": "prov-9", "status": RequestStatusAssigned}, body)
		w.WriteHeader(http.StatusNoContent)
	})

	ctx := WithAccessToken(context.Background(), "user-token")
	require.NoError(t, client.AssignProvider(ctx, "req-1", "prov-9"))
}

func TestHTTPClientDashboardStatsFoldsLabel(t *testing.T) {
	client, _ := newTestHTTPClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/rpc/dashboard_stats", r.URL.Path)
		_, _ = io.WriteString(w, `[{"title":"Members","value":12},{"label":"Open requests","value":"3"},{"value":1}]`)
	})

	cards, err := client.DashboardStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []StatCard{{Title: "Members", Value: "12"}, {Title: "Open requests", Value: "3"}}, cards)
}

func TestHTTPClientInvokeFunction(t *testing.T) {
	client, _ := newTestHTTPClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/functions/v1/test-service", r.URL.Path)
		var body TestServicePayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Ada", body.Name)
		_, _ = io.WriteString(w, `{"status":"ok","result":{"message":"hi"}}`)
	})

	res, err := client.InvokeFunction(context.Background(), TestServiceName, TestServicePayload{Name: "Ada"})
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Status)
	assert.JSONEq(t, `{"message":"hi"}`, string(res.Result))
}
