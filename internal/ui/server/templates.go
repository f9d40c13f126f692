package server

import (
	"fmt"
	"html/template"
	"path/filepath"
	"strings"
	"time"

	"github.com/Its-donkey/rel8/internal/ui/forms"
)

// pageTemplates maps each logical page onto the files parsed with base.tmpl.
var pageTemplates = map[string][]string{
	"home":      {"home.tmpl"},
	"auth":      {"auth.tmpl"},
	"loading":   {"loading.tmpl"},
	"invite":    {"invite.tmpl"},
	"notfound":  {"notfound.tmpl"},
	"organizer": {"organizer.tmpl", "stats.tmpl"},
	"rel8":      {"rel8.tmpl"},
	"modul8":    {"modul8.tmpl"},
	"wizard":    {"wizard.tmpl"},
	"admin":     {"admin.tmpl"},
	"profile":   {"profile.tmpl"},
	"account":   {"account.tmpl"},
}

// loadTemplates loads and wires all HTML templates used by the UI server.
// It returns a map keyed by logical template name (e.g. "home", "wizard").
func loadTemplates(dir string) (map[string]*template.Template, error) {
	funcs := template.FuncMap{
		"join":      strings.Join,
		"contains":  forms.ContainsString,
		"lower":     strings.ToLower,
		"upper":     strings.ToUpper,
		"shortDate": shortDate,
	}

	base := filepath.Join(dir, "base.tmpl")
	templates := make(map[string]*template.Template, len(pageTemplates))
	for name, files := range pageTemplates {
		paths := []string{base}
		for _, f := range files {
			paths = append(paths, filepath.Join(dir, f))
		}
		tmpl, err := template.New(name).Funcs(funcs).ParseFiles(paths...)
		if err != nil {
			return nil, fmt.Errorf("parse %s templates: %w", name, err)
		}
		templates[name] = tmpl
	}
	return templates, nil
}

func shortDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2 Jan 2006")
}
