package server

import (
	"net/http"
	"strings"

	"github.com/Its-donkey/rel8/internal/backend"
	"github.com/Its-donkey/rel8/internal/guard"
	"github.com/Its-donkey/rel8/internal/ui/model"
)

type basePageData struct {
	PageTitle      string
	StylesheetPath string
	CurrentYear    int
	SiteName       string
	Theme          string
	CurrentPath    string
	User           *backend.User
	Nav            []model.NavAction
	Flash          string
	Error          string
	Robots         string
}

// buildBasePageData constructs the basePageData used by every template.
func (s *server) buildBasePageData(r *http.Request, title string) basePageData {
	if strings.TrimSpace(title) == "" {
		title = s.siteName
	} else {
		title = title + " · " + s.siteName
	}
	user := guard.UserFromContext(r.Context())
	query := r.URL.Query()
	return basePageData{
		PageTitle:      title,
		StylesheetPath: s.stylesPath,
		CurrentYear:    s.currentYear,
		SiteName:       s.siteName,
		Theme:          s.theme(),
		CurrentPath:    r.URL.Path,
		User:           user,
		Nav:            navFor(user, r.URL.Path),
		Flash:          strings.TrimSpace(query.Get("msg")),
		Error:          strings.TrimSpace(query.Get("err")),
	}
}

func (s *server) theme() string {
	if s.settings == nil {
		return "dark"
	}
	return s.settings.Theme()
}

func navFor(user *backend.User, current string) []model.NavAction {
	nav := []model.NavAction{{Label: "Home", Href: "/"}}
	if user == nil {
		nav = append(nav, model.NavAction{Label: "Sign in", Href: "/auth"})
	} else {
		if guard.AdminOrOrganizer(user) {
			nav = append(nav,
				model.NavAction{Label: "Organizer", Href: "/organizer"},
				model.NavAction{Label: "REL8", Href: "/rel8"},
				model.NavAction{Label: "MODUL-8", Href: "/modul8"},
			)
		}
		if user.IsAdmin() {
			nav = append(nav, model.NavAction{Label: "Admin", Href: "/admin"})
		}
		nav = append(nav,
			model.NavAction{Label: "Profile", Href: "/profile/edit"},
			model.NavAction{Label: "Account", Href: "/settings/account"},
		)
	}
	for i := range nav {
		nav[i].Active = nav[i].Href == current
	}
	return nav
}
