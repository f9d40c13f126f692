package server

import (
	"bytes"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/Its-donkey/rel8/internal/session"
	"github.com/Its-donkey/rel8/logging"
)

func applyDefaults(opts Options) Options {
	if opts.Listen == "" {
		opts.Listen = "127.0.0.1:4173"
	}
	if opts.TemplatesDir == "" {
		opts.TemplatesDir = "ui/templates"
	}
	if opts.AssetsDir == "" {
		opts.AssetsDir = "ui"
	}
	if opts.SiteName == "" {
		opts.SiteName = "REL8"
	}
	if opts.Logger == nil {
		opts.Logger = logging.New(opts.SiteName, logging.INFO)
	}
	if opts.Sessions == nil && opts.Backend != nil {
		opts.Sessions = &session.Manager{Auth: opts.Backend, Logger: opts.Logger}
	}
	return opts
}

func accessToken(r *http.Request) string {
	return session.AccessToken(r)
}

// render executes the named template into a buffer so template errors never
// leave a half-written page.
func (s *server) render(w http.ResponseWriter, name string, data any, status int) {
	tmpl, ok := s.templates[name]
	if !ok {
		http.Error(w, name+" template missing", http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		s.logger.Error("render", "template error", err, map[string]any{"template": name})
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// redirectWith sends the client to target with optional msg/err flash values.
func redirectWith(w http.ResponseWriter, r *http.Request, target string, extra urlValues, msg, errMsg string) {
	values := make(urlValues)
	for k, v := range extra {
		values.setIf(k, v)
	}
	values.setIf("msg", msg)
	values.setIf("err", errMsg)
	if encoded := values.encode(); encoded != "" {
		target += "?" + encoded
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

type urlValues map[string]string

func (v urlValues) setIf(key, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	v[key] = value
}

func (v urlValues) encode() string {
	if len(v) == 0 {
		return ""
	}
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, url.QueryEscape(k)+"="+url.QueryEscape(v[k]))
	}
	return strings.Join(parts, "&")
}

// safeNext accepts only same-site absolute paths.
func safeNext(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return ""
	}
	return raw
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
}
