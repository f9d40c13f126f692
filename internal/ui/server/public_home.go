package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Its-donkey/rel8/internal/backend"
)

type homePageData struct {
	basePageData
	Stats      []backend.StatCard
	StatsError string
}

type loadingPageData struct {
	basePageData
	RefreshURL string
}

type invitePageData struct {
	basePageData
	Code      string
	Community backend.Community
}

func (s *server) handleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		s.renderNotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	data := homePageData{basePageData: s.buildBasePageData(r, "")}
	ctx, cancel := s.backendContext(r)
	defer cancel()
	stats, err := s.backend.DashboardStats(ctx)
	if err != nil {
		data.StatsError = backend.Message(err)
	} else {
		data.Stats = stats
	}
	s.render(w, "home", data, http.StatusOK)
}

// handleLoading renders the spinner shown while a session refresh settles.
// The page reloads the original URL.
func (s *server) handleLoading(w http.ResponseWriter, r *http.Request) {
	base := s.buildBasePageData(r, "Loading")
	base.Robots = "noindex, nofollow"
	w.Header().Set("Cache-Control", "no-store")
	s.render(w, "loading", loadingPageData{basePageData: base, RefreshURL: r.URL.RequestURI()}, http.StatusOK)
}

func (s *server) renderNotFound(w http.ResponseWriter, r *http.Request) {
	base := s.buildBasePageData(r, "Not found")
	base.Robots = "noindex, nofollow"
	s.render(w, "notfound", base, http.StatusNotFound)
}

func (s *server) handleInvite(w http.ResponseWriter, r *http.Request) {
	code := strings.TrimSpace(r.PathValue("code"))
	if code == "" {
		s.renderNotFound(w, r)
		return
	}
	ctx, cancel := s.backendContext(r)
	defer cancel()
	community, err := s.backend.ResolveInvite(ctx, code)
	if errors.Is(err, backend.ErrNotFound) {
		s.renderNotFound(w, r)
		return
	}
	data := invitePageData{basePageData: s.buildBasePageData(r, "You're invited"), Code: code}
	data.Robots = "noindex, nofollow"
	if err != nil {
		data.Error = backend.Message(err)
		s.render(w, "invite", data, http.StatusBadGateway)
		return
	}
	data.Community = community
	s.render(w, "invite", data, http.StatusOK)
}
