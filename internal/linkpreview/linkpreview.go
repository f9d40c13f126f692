// Package linkpreview collects Open Graph previews for community social links.
package linkpreview

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Its-donkey/rel8/logging"
)

// ErrInvalidURL is returned for links that are not absolute http(s) URLs.
var ErrInvalidURL = errors.New("linkpreview: invalid url")

const (
	maxDocumentBytes = 2 * 1024 * 1024
	defaultTimeout   = 5 * time.Second
	userAgent        = "Mozilla/5.0 (compatible; rel8-linkpreview/1.0; +https://rel8.local)"
)

// Preview is the metadata shown next to a social link.
type Preview struct {
	URL         string `json:"url"`
	Network     string `json:"network"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`
	SiteName    string `json:"site_name,omitempty"`
}

// Collector extracts a Preview for the URLs it matches.
type Collector interface {
	Matches(u *url.URL) bool
	Collect(ctx context.Context, u *url.URL) (*Preview, error)
}

// Service picks the first matching collector for a link.
type Service struct {
	httpClient *http.Client
	collectors []Collector
	logger     *logging.Logger
}

// NewService creates a Service. Network collectors run before the generic
// Open Graph collector.
func NewService(httpClient *http.Client, logger *logging.Logger) *Service {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	if logger == nil {
		logger = logging.New("linkpreview", logging.INFO, io.Discard)
	}
	og := &openGraphCollector{client: httpClient}
	return &Service{
		httpClient: httpClient,
		collectors: []Collector{
			&networkCollector{og: og, network: "facebook", hosts: []string{"facebook.com", "fb.com"}, titleSuffixes: []string{" | Facebook"}},
			&networkCollector{og: og, network: "instagram", hosts: []string{"instagram.com"}, titleSuffixes: []string{" • Instagram photos and videos", " | Instagram"}},
			&networkCollector{og: og, network: "linkedin", hosts: []string{"linkedin.com"}, titleSuffixes: []string{" | LinkedIn"}},
			&networkCollector{og: og, network: "x", hosts: []string{"x.com", "twitter.com"}, titleSuffixes: []string{" / X", " / Twitter"}},
			og,
		},
		logger: logger,
	}
}

// Fetch retrieves a preview for rawURL.
func (s *Service) Fetch(ctx context.Context, rawURL string) (*Preview, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}

	var lastErr error
	for _, c := range s.collectors {
		if !c.Matches(u) {
			continue
		}
		preview, err := c.Collect(ctx, u)
		if err == nil && preview != nil {
			return preview, nil
		}
		if err != nil {
			lastErr = err
			s.logger.Warn("linkpreview", "collector failed", map[string]any{
				"url":   u.String(),
				"error": err.Error(),
			})
		}
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, fmt.Errorf("linkpreview: no collector matched %s", u.String())
}

func hostMatches(u *url.URL, hosts []string) bool {
	host := strings.ToLower(u.Hostname())
	for _, h := range hosts {
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}
