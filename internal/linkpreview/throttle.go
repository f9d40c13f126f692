package linkpreview

import (
	"net/http"
	"strings"
	"sync"
	"time"
)

// throttledTransport spaces requests to the same host by at least interval.
// Waiting honours the request context.
type throttledTransport struct {
	base     http.RoundTripper
	interval time.Duration

	mu   sync.Mutex
	next map[string]time.Time
	now  func() time.Time
}

// Throttle wraps client so requests to one host are at least interval
// apart. A nil client gets a default timeout; a zero interval disables
// throttling.
func Throttle(client *http.Client, interval time.Duration) *http.Client {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	if interval <= 0 {
		return client
	}
	base := client.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	wrapped := *client
	wrapped.Transport = &throttledTransport{
		base:     base,
		interval: interval,
		next:     make(map[string]time.Time),
		now:      time.Now,
	}
	return &wrapped
}

// reserve returns how long the caller must wait before sending to host.
func (t *throttledTransport) reserve(host string) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	at := t.next[host]
	if at.Before(now) {
		at = now
	}
	t.next[host] = at.Add(t.interval)
	return at.Sub(now)
}

func (t *throttledTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	host := strings.ToLower(strings.TrimPrefix(req.URL.Hostname(), "www."))
	if wait := t.reserve(host); wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-req.Context().Done():
			return nil, req.Context().Err()
		case <-timer.C:
		}
	}
	return t.base.RoundTrip(req)
}
