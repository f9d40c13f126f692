package server

import (
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/Its-donkey/rel8/internal/backend"
	"github.com/Its-donkey/rel8/internal/guard"
)

const maxBioLength = 280

type profilePageData struct {
	basePageData
	Form        backend.ProfileUpdate
	FieldErrors map[string]string
}

type accountPageData struct {
	basePageData
}

func (s *server) handleProfileEdit(w http.ResponseWriter, r *http.Request) {
	user := guard.UserFromContext(r.Context())
	switch r.Method {
	case http.MethodGet:
		data := profilePageData{
			basePageData: s.buildBasePageData(r, "Edit profile"),
			Form:         backend.ProfileUpdate{Name: user.Name, Bio: user.Bio, Location: user.Location},
		}
		s.render(w, "profile", data, http.StatusOK)
	case http.MethodPost:
		s.handleProfileUpdate(w, r, user)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

func (s *server) handleProfileUpdate(w http.ResponseWriter, r *http.Request, user *backend.User) {
	data := profilePageData{
		basePageData: s.buildBasePageData(r, "Edit profile"),
		FieldErrors:  make(map[string]string),
	}
	if err := r.ParseForm(); err != nil {
		data.Error = "Invalid profile form."
		s.render(w, "profile", data, http.StatusBadRequest)
		return
	}
	data.Form = backend.ProfileUpdate{
		Name:     strings.TrimSpace(r.PostFormValue("name")),
		Bio:      strings.TrimSpace(r.PostFormValue("bio")),
		Location: strings.TrimSpace(r.PostFormValue("location")),
	}
	if data.Form.Name == "" {
		data.FieldErrors["name"] = "Name is required."
	}
	if utf8.RuneCountInString(data.Form.Bio) > maxBioLength {
		data.FieldErrors["bio"] = "Bio must be at most 280 characters."
	}
	if len(data.FieldErrors) > 0 {
		s.render(w, "profile", data, http.StatusUnprocessableEntity)
		return
	}

	ctx, cancel := s.backendContext(r)
	defer cancel()
	if _, err := s.backend.UpdateProfile(ctx, user.ID, data.Form); err != nil {
		data.Error = backend.Message(err)
		s.render(w, "profile", data, http.StatusBadGateway)
		return
	}
	redirectWith(w, r, "/profile/edit", nil, "Profile updated.", "")
}

func (s *server) handleAccountSettings(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.render(w, "account", accountPageData{basePageData: s.buildBasePageData(r, "Account")}, http.StatusOK)
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			redirectWith(w, r, "/settings/account", nil, "", "Invalid account form.")
			return
		}
		switch r.PostFormValue("action") {
		case "refresh-role":
			s.sessions.FlagRoleRefresh(w, r)
			redirectWith(w, r, "/settings/account", nil, "Refreshing your permissions.", "")
		default:
			redirectWith(w, r, "/settings/account", nil, "", "Unknown account action.")
		}
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}
