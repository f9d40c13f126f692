package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Its-donkey/rel8/internal/backend"
	"github.com/Its-donkey/rel8/internal/events"
	"github.com/Its-donkey/rel8/internal/guard"
	"github.com/Its-donkey/rel8/internal/settings"
	"github.com/Its-donkey/rel8/internal/ui/model"
)

const (
	adminTabUsers    = "users"
	adminTabSettings = "settings"
)

var roleOptions = []model.RoleOption{
	{Value: string(backend.RoleMember), Label: "Member"},
	{Value: string(backend.RoleOrganizer), Label: "Organizer"},
	{Value: string(backend.RoleAdmin), Label: "Admin"},
}

type adminPageData struct {
	basePageData
	Tab         string
	Tabs        []model.AdminTab
	Users       []backend.User
	UsersError  string
	RoleOptions []model.RoleOption
	Themes      []string
	FunctionRun *model.FunctionRun
}

func adminTabFrom(r *http.Request) string {
	if strings.EqualFold(strings.TrimSpace(r.URL.Query().Get("tab")), adminTabSettings) {
		return adminTabSettings
	}
	return adminTabUsers
}

func (s *server) handleAdmin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
		return
	}
	s.renderAdmin(w, r, adminTabFrom(r), nil, http.StatusOK)
}

func (s *server) renderAdmin(w http.ResponseWriter, r *http.Request, tab string, run *model.FunctionRun, status int) {
	base := s.buildBasePageData(r, "Admin")
	base.Robots = "noindex, nofollow"
	data := adminPageData{
		basePageData: base,
		Tab:          tab,
		Tabs: []model.AdminTab{
			{ID: adminTabUsers, Label: "Users", Href: "/admin?tab=users", Active: tab == adminTabUsers},
			{ID: adminTabSettings, Label: "Settings", Href: "/admin?tab=settings", Active: tab == adminTabSettings},
		},
		RoleOptions: roleOptions,
		Themes:      settings.Themes,
		FunctionRun: run,
	}
	if tab == adminTabUsers {
		ctx, cancel := s.backendContext(r)
		defer cancel()
		users, err := s.backend.ListUsers(ctx)
		if err != nil {
			data.UsersError = backend.Message(err)
		} else {
			data.Users = users
		}
	}
	s.render(w, "admin", data, status)
}

func (s *server) redirectAdmin(w http.ResponseWriter, r *http.Request, tab, msg, errMsg string) {
	redirectWith(w, r, "/admin", urlValues{"tab": tab}, msg, errMsg)
}

func (s *server) handleAdminUserRole(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Redirect(w, r, "/admin?tab=users", http.StatusSeeOther)
		return
	}
	if err := r.ParseForm(); err != nil {
		s.redirectAdmin(w, r, adminTabUsers, "", "Invalid role form.")
		return
	}
	userID := strings.TrimSpace(r.PostFormValue("user_id"))
	role, ok := backend.ParseRole(r.PostFormValue("role"))
	if userID == "" || !ok {
		s.redirectAdmin(w, r, adminTabUsers, "", "Choose a user and a valid role.")
		return
	}

	ctx, cancel := s.backendContext(r)
	defer cancel()
	if err := s.backend.UpdateUserRole(ctx, userID, role); err != nil {
		s.redirectAdmin(w, r, adminTabUsers, "", backend.Message(err))
		return
	}

	actor := guard.UserFromContext(r.Context())
	s.publish(ctx, events.TypeUserRoleChanged, actor.ID, map[string]string{
		"user_id": userID,
		"role":    string(role),
	})
	if userID == actor.ID {
		s.sessions.FlagRoleRefresh(w, r)
	}
	s.logger.Info("admin", "user role updated", map[string]any{
		"user_id": userID,
		"role":    string(role),
	})
	s.redirectAdmin(w, r, adminTabUsers, "Role updated.", "")
}

func (s *server) handleAdminSettings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Redirect(w, r, "/admin?tab=settings", http.StatusSeeOther)
		return
	}
	if err := r.ParseForm(); err != nil {
		s.redirectAdmin(w, r, adminTabSettings, "", "Invalid settings form.")
		return
	}
	err := s.settings.SetTheme(r.Context(), r.PostFormValue("theme"))
	switch {
	case errors.Is(err, settings.ErrInvalidTheme):
		s.redirectAdmin(w, r, adminTabSettings, "", "Choose a supported theme.")
	case err != nil:
		s.logger.Error("admin", "save settings", err, nil)
		s.redirectAdmin(w, r, adminTabSettings, "", "Could not save settings.")
	default:
		s.redirectAdmin(w, r, adminTabSettings, "Settings saved.", "")
	}
}

func (s *server) handleAdminTestService(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Redirect(w, r, "/admin?tab=settings", http.StatusSeeOther)
		return
	}
	if err := r.ParseForm(); err != nil {
		s.redirectAdmin(w, r, adminTabSettings, "", "Invalid test form.")
		return
	}
	name := strings.TrimSpace(r.PostFormValue("name"))
	run := &model.FunctionRun{Name: backend.TestServiceName}

	ctx, cancel := s.backendContext(r)
	defer cancel()
	result, err := s.backend.InvokeFunction(ctx, backend.TestServiceName, backend.TestServicePayload{Name: name})
	status := http.StatusOK
	switch {
	case err != nil:
		run.Status = "error"
		run.Error = backend.Message(err)
		status = http.StatusBadGateway
	default:
		run.Status = result.Status
		run.Result = string(result.Result)
		run.Error = result.Error
	}
	s.renderAdmin(w, r, adminTabSettings, run, status)
}
