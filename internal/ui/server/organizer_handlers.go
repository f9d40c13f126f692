package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/Its-donkey/rel8/internal/backend"
	"github.com/Its-donkey/rel8/internal/events"
	"github.com/Its-donkey/rel8/internal/guard"
	"golang.org/x/sync/errgroup"
)

type organizerPageData struct {
	basePageData
	Stats       []backend.StatCard
	Communities []backend.Community
}

type rel8PageData struct {
	basePageData
	Contacts []backend.Contact
}

type modul8PageData struct {
	basePageData
	Requests  []backend.ServiceRequest
	Providers []backend.User
	Names     map[string]string
}

func (s *server) handleOrganizer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	user := guard.UserFromContext(r.Context())
	data := organizerPageData{basePageData: s.buildBasePageData(r, "Organizer")}

	ctx, cancel := s.backendContext(r)
	defer cancel()

	organizerID := user.ID
	if user.IsAdmin() {
		organizerID = ""
	}

	var (
		stats       []backend.StatCard
		communities []backend.Community
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stats, err = s.backend.DashboardStats(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		communities, err = s.backend.ListCommunities(gctx, organizerID)
		return err
	})
	if err := g.Wait(); err != nil {
		data.Error = backend.Message(err)
		s.render(w, "organizer", data, http.StatusBadGateway)
		return
	}
	data.Stats = stats
	data.Communities = communities
	s.render(w, "organizer", data, http.StatusOK)
}

func (s *server) handleRel8(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	data := rel8PageData{basePageData: s.buildBasePageData(r, "REL8")}
	ctx, cancel := s.backendContext(r)
	defer cancel()
	contacts, err := s.backend.ListContacts(ctx)
	if err != nil {
		data.Error = backend.Message(err)
		s.render(w, "rel8", data, http.StatusBadGateway)
		return
	}
	data.Contacts = contacts
	s.render(w, "rel8", data, http.StatusOK)
}

func (s *server) handleModul8(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	data := modul8PageData{basePageData: s.buildBasePageData(r, "MODUL-8")}
	ctx, cancel := s.backendContext(r)
	defer cancel()

	var (
		requests []backend.ServiceRequest
		users    []backend.User
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		requests, err = s.backend.ListServiceRequests(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		users, err = s.backend.ListUsers(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		data.Error = backend.Message(err)
		s.render(w, "modul8", data, http.StatusBadGateway)
		return
	}
	data.Requests = requests
	data.Providers = users
	data.Names = make(map[string]string, len(users))
	for _, u := range users {
		data.Names[u.ID] = u.Name
	}
	s.render(w, "modul8", data, http.StatusOK)
}

func (s *server) handleAssignProvider(w http.ResponseWriter, r *http.Request) {
	requestID := strings.TrimSpace(r.PathValue("id"))
	if err := r.ParseForm(); err != nil {
		redirectWith(w, r, "/modul8", nil, "", "Invalid assignment form.")
		return
	}
	providerID := strings.TrimSpace(r.PostFormValue("provider_id"))
	if requestID == "" || providerID == "" {
		redirectWith(w, r, "/modul8", nil, "", "Choose a provider to assign.")
		return
	}

	ctx, cancel := s.backendContext(r)
	defer cancel()
	if err := s.backend.AssignProvider(ctx, requestID, providerID); err != nil {
		redirectWith(w, r, "/modul8", nil, "", backend.Message(err))
		return
	}

	actor := guard.UserFromContext(r.Context())
	s.publish(ctx, events.TypeProviderAssigned, actor.ID, map[string]string{
		"request_id":  requestID,
		"provider_id": providerID,
	})
	s.logger.Info("modul8", "provider assigned", map[string]any{
		"request_id":  requestID,
		"provider_id": providerID,
	})
	redirectWith(w, r, "/modul8", nil, fmt.Sprintf("Provider assigned to request %s.", requestID), "")
}
