package linkpreview

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// openGraphCollector reads og:* tags from any HTML page.
type openGraphCollector struct {
	client *http.Client
}

func (c *openGraphCollector) Matches(*url.URL) bool {
	return true
}

func (c *openGraphCollector) Collect(ctx context.Context, u *url.URL) (*Preview, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", u.Host, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxDocumentBytes))
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}

	preview := &Preview{
		URL:         u.String(),
		Network:     "website",
		Title:       metaContent(doc, `meta[property="og:title"]`),
		Description: metaContent(doc, `meta[property="og:description"]`),
		Image:       metaContent(doc, `meta[property="og:image"]`),
		SiteName:    metaContent(doc, `meta[property="og:site_name"]`),
	}
	if preview.Title == "" {
		preview.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	if preview.Description == "" {
		preview.Description = metaContent(doc, `meta[name="description"]`)
	}
	if preview.Image != "" {
		if ref, err := url.Parse(preview.Image); err == nil {
			preview.Image = u.ResolveReference(ref).String()
		}
	}
	if preview.Title == "" {
		preview.Title = u.Hostname()
	}
	return preview, nil
}

func metaContent(doc *goquery.Document, selector string) string {
	content, _ := doc.Find(selector).First().Attr("content")
	return strings.TrimSpace(content)
}

// networkCollector tags previews for a known network and strips the
// network's title suffix.
type networkCollector struct {
	og            *openGraphCollector
	network       string
	hosts         []string
	titleSuffixes []string
}

func (c *networkCollector) Matches(u *url.URL) bool {
	return hostMatches(u, c.hosts)
}

func (c *networkCollector) Collect(ctx context.Context, u *url.URL) (*Preview, error) {
	preview, err := c.og.Collect(ctx, u)
	if err != nil {
		return nil, err
	}
	preview.Network = c.network
	for _, suffix := range c.titleSuffixes {
		preview.Title = strings.TrimSuffix(preview.Title, suffix)
	}
	if handle := firstPathSegment(u); handle != "" && preview.Title == u.Hostname() {
		preview.Title = "@" + handle
	}
	return preview, nil
}

func firstPathSegment(u *url.URL) string {
	for _, seg := range strings.Split(strings.Trim(u.Path, "/"), "/") {
		if seg != "" && seg != "company" && seg != "in" && seg != "pages" {
			return seg
		}
	}
	return ""
}
