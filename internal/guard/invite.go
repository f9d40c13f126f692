package guard

import (
	"net/http"
	"net/url"
	"strings"
)

const (
	LegacyInvitePrefix = "/invite/"
	InvitePrefix       = "/i/"
)

// InviteRedirect rewrites legacy /invite/{code} links to /i/{code} with a
// single permanent redirect and renders nothing else.
func InviteRedirect() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		code := strings.Trim(strings.TrimPrefix(r.URL.Path, LegacyInvitePrefix), "/")
		if code == "" || strings.Contains(code, "/") {
			http.NotFound(w, r)
			return
		}
		http.Redirect(w, r, InvitePrefix+url.PathEscape(code), http.StatusMovedPermanently)
	})
}
