package linkpreview

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThrottleSpacesRequestsPerHost(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	client := Throttle(ts.Client(), 30*time.Millisecond)

	start := time.Now()
	for i := 0; i < 3; i++ {
		resp, err := client.Get(ts.URL)
		require.NoError(t, err)
		resp.Body.Close()
	}
	assert.GreaterOrEqual(t, time.Since(start), 55*time.Millisecond)
}

func TestThrottleHonoursContext(t *testing.T) {
	transport := &throttledTransport{
		base:     http.DefaultTransport,
		interval: time.Hour,
		next:     map[string]time.Time{"example.com": time.Now().Add(time.Hour)},
		now:      time.Now,
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://www.example.com/page", nil)
	require.NoError(t, err)

	_, err = transport.RoundTrip(req)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestThrottleZeroIntervalReturnsClient(t *testing.T) {
	client := &http.Client{}
	assert.Same(t, client, Throttle(client, 0))
}
