package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Its-donkey/rel8/internal/backend"
	"github.com/Its-donkey/rel8/internal/events"
	"github.com/Its-donkey/rel8/internal/guard"
	"github.com/Its-donkey/rel8/internal/linkpreview"
	"github.com/Its-donkey/rel8/internal/ui/forms"
	"github.com/Its-donkey/rel8/internal/ui/model"
	"github.com/Its-donkey/rel8/internal/wizard"
	"github.com/gosimple/slug"
)

var tabLabels = map[wizard.Tab]string{
	wizard.TabBasicInfo:   "Basic info",
	wizard.TabPlatforms:   "Platforms",
	wizard.TabSocialMedia: "Social media",
}

type wizardPageData struct {
	basePageData
	Page            wizard.Page
	State           wizard.State
	Tabs            []model.TabView
	Form            *forms.CommunityForm
	Hidden          []forms.HiddenField
	PlatformOptions []forms.Option
	SocialNetworks  []forms.Option
	HasPrev         bool
	IsLast          bool
}

// newWizard builds a wizard for one request. In sequential mode the
// tracker starts from tab, the last section the server accepted.
func (s *server) newWizard(tab wizard.Tab) *wizard.Wizard {
	if !s.sequentialWizard {
		return wizard.New(wizard.NewController())
	}
	ctrl, err := wizard.NewSequentialControllerAt(tab)
	if err != nil {
		ctrl = wizard.NewSequentialController()
	}
	return wizard.New(ctrl)
}

func (s *server) handleCommunityWizard(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.renderWizard(w, r, s.newWizard(wizard.TabBasicInfo), forms.NewCommunityForm(), http.StatusOK)
	case http.MethodPost:
		s.handleWizardStep(w, r)
	default:
		methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

func (s *server) handleWizardStep(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderWizard(w, r, s.newWizard(wizard.TabBasicInfo), forms.NewCommunityForm(), http.StatusBadRequest)
		return
	}
	form := forms.ParseCommunityForm(r.PostForm)
	tab := wizard.TabBasicInfo
	if raw := r.PostFormValue("tab"); raw != "" {
		parsed, err := wizard.ParseTab(raw)
		if err != nil {
			s.logger.Warn("wizard", "unknown tab posted", map[string]any{"error": err.Error()})
			s.renderWizard(w, r, s.newWizard(wizard.TabBasicInfo), form, http.StatusBadRequest)
			return
		}
		tab = parsed
	}

	wiz := s.newWizard(tab)
	if err := wiz.Resume(r.PostFormValue("page")); err != nil {
		if errors.Is(err, wizard.ErrOutOfOrder) {
			s.logger.Warn("wizard", "section skipped", map[string]any{"error": err.Error()})
			form.Errors["submit"] = "Finish each section in order before moving on."
			s.renderWizard(w, r, wiz, form, http.StatusConflict)
			return
		}
		s.logger.Warn("wizard", "resume failed", map[string]any{"error": err.Error()})
		wiz = s.newWizard(tab)
	}

	switch r.PostFormValue("action") {
	case "prev":
		if err := wiz.Prev(); err != nil && !errors.Is(err, wizard.ErrNoPrevious) {
			s.logger.Warn("wizard", "previous page rejected", map[string]any{"error": err.Error()})
		}
		s.renderWizard(w, r, wiz, form, http.StatusOK)
		return
	case "next", "":
	default:
		s.renderWizard(w, r, wiz, form, http.StatusBadRequest)
		return
	}

	advanced, err := wiz.Next(form)
	if err != nil {
		s.logger.Warn("wizard", "next page rejected", map[string]any{"error": err.Error()})
		s.renderWizard(w, r, wiz, form, http.StatusConflict)
		return
	}
	if !advanced {
		s.renderWizard(w, r, wiz, form, http.StatusUnprocessableEntity)
		return
	}
	if !wiz.Done() {
		s.renderWizard(w, r, wiz, form, http.StatusOK)
		return
	}
	s.completeWizard(w, r, wiz, form)
}

func (s *server) completeWizard(w http.ResponseWriter, r *http.Request, wiz *wizard.Wizard, form *forms.CommunityForm) {
	if !form.Validate() {
		s.renderWizard(w, r, wiz, form, http.StatusUnprocessableEntity)
		return
	}
	user := guard.UserFromContext(r.Context())
	ctx, cancel := s.backendContext(r)
	defer cancel()

	community, err := s.backend.CreateCommunity(ctx, backend.NewCommunity{
		Slug:           slug.Make(form.Name),
		Name:           form.Name,
		Location:       form.Location,
		Platforms:      form.Platforms,
		SocialLinks:    form.SocialLinks,
		StartDate:      form.StartDate,
		WelcomeMessage: form.WelcomeMessage,
		OrganizerID:    user.ID,
	})
	if err != nil {
		form.Errors["submit"] = backend.Message(err)
		s.renderWizard(w, r, wiz, form, http.StatusBadGateway)
		return
	}

	s.publish(ctx, events.TypeCommunityCreated, user.ID, community)
	s.logger.Info("wizard", "community created", map[string]any{
		"community_id": community.ID,
		"slug":         community.Slug,
	})
	// Creating a community can grant the organizer role.
	if !user.IsOrganizer() {
		s.sessions.FlagRoleRefresh(w, r)
	}
	msg := fmt.Sprintf("%s is live. Share invite code %s.", community.Name, community.InviteCode)
	redirectWith(w, r, "/organizer", nil, msg, "")
}

func (s *server) renderWizard(w http.ResponseWriter, r *http.Request, wiz *wizard.Wizard, form *forms.CommunityForm, status int) {
	page := wiz.Current()
	state := wiz.State()
	base := s.buildBasePageData(r, "Create a community")
	base.Robots = "noindex, nofollow"
	visible := visibleFields(page)
	if msg := form.Error("submit"); msg != "" {
		base.Error = msg
	} else if hasEarlierErrors(form, visible) {
		base.Error = "Some earlier answers need attention. Use Back to review them."
	}
	data := wizardPageData{
		basePageData:    base,
		Page:            page,
		State:           state,
		Tabs:            tabViews(state),
		Form:            form,
		Hidden:          form.HiddenFields(visible...),
		PlatformOptions: forms.PlatformOptions,
		SocialNetworks:  forms.SocialNetworks,
		HasPrev:         page.HasPrev(),
		IsLast:          page.Index() == len(wizard.Pages())-1,
	}
	s.render(w, "wizard", data, status)
}

// visibleFields are the inputs rendered on page; every other field is
// carried as a hidden input.
func visibleFields(page wizard.Page) []string {
	switch page.ID {
	case wizard.PageWelcome:
		return []string{forms.FieldWelcomeMessage}
	default:
		return page.Required
	}
}

// hasEarlierErrors reports field errors for inputs not shown on this page.
func hasEarlierErrors(form *forms.CommunityForm, visible []string) bool {
	for field := range form.Errors {
		if field == "submit" || forms.ContainsString(visible, field) {
			continue
		}
		return true
	}
	return false
}

func tabViews(state wizard.State) []model.TabView {
	views := make([]model.TabView, 0, len(wizard.Tabs))
	for _, tab := range wizard.Tabs {
		progress, _ := wizard.ProgressFor(tab)
		views = append(views, model.TabView{
			ID:       string(tab),
			Label:    tabLabels[tab],
			Progress: progress,
			Active:   tab == state.ActiveTab,
			Complete: progress < state.Progress,
		})
	}
	return views
}

// handleLinkPreview returns Open Graph data for a social link as JSON.
func (s *server) handleLinkPreview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	if s.previews == nil {
		http.Error(w, "link previews unavailable", http.StatusServiceUnavailable)
		return
	}

	var req model.PreviewRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
	} else {
		req.URL = r.FormValue("url")
	}
	network := strings.TrimSpace(r.URL.Query().Get("network"))
	req.URL = forms.CanonicalizeSocialLink(network, req.URL)

	resp := model.PreviewResponse{URL: req.URL}
	status := http.StatusOK
	preview, err := s.previews.Fetch(r.Context(), req.URL)
	switch {
	case errors.Is(err, linkpreview.ErrInvalidURL):
		resp.Error = "Enter a valid link."
		status = http.StatusUnprocessableEntity
	case err != nil:
		s.logger.Debug("linkpreview", "failed to fetch preview", map[string]any{
			"url":   req.URL,
			"error": err.Error(),
		})
		resp.Error = "Preview unavailable."
	default:
		resp.Network = preview.Network
		resp.Title = preview.Title
		resp.Description = preview.Description
		resp.Image = preview.Image
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Error("linkpreview", "failed to encode response", err, nil)
	}
}
