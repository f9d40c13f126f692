package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const memorySessionTTL = time.Hour

// SeedPassword is the password given to every seeded account.
const SeedPassword = "rel8-dev"

// MemoryClient is an in-process Client used for local development and tests.
type MemoryClient struct {
	mu          sync.Mutex
	now         func() time.Time
	users       map[string]User
	passwords   map[string][]byte
	access      map[string]string
	refresh     map[string]string
	communities map[string]Community
	contacts    []Contact
	requests    map[string]ServiceRequest
	functions   map[string]func(json.RawMessage) FunctionResult
}

// NewMemoryClient returns an empty MemoryClient.
func NewMemoryClient() *MemoryClient {
	m := &MemoryClient{
		now:         time.Now,
		users:       make(map[string]User),
		passwords:   make(map[string][]byte),
		access:      make(map[string]string),
		refresh:     make(map[string]string),
		communities: make(map[string]Community),
		requests:    make(map[string]ServiceRequest),
	}
	m.functions = map[string]func(json.RawMessage) FunctionResult{
		TestServiceName: testService,
	}
	return m
}

// NewSeededMemoryClient returns a MemoryClient with an admin, an organizer,
// a member, a community and some REL8/MODUL-8 records.
func NewSeededMemoryClient() (*MemoryClient, error) {
	m := NewMemoryClient()
	seed := []User{
		{ID: "user-admin", Email: "admin@rel8.local", Name: "Ada Admin", Role: RoleAdmin},
		{ID: "user-organizer", Email: "organizer@rel8.local", Name: "Olu Organizer", Role: RoleOrganizer},
		{ID: "user-member", Email: "member@rel8.local", Name: "Mo Member", Role: RoleMember},
	}
	for _, u := range seed {
		if err := m.AddUser(u, SeedPassword); err != nil {
			return nil, err
		}
	}
	m.communities["community-1"] = Community{
		ID:          "community-1",
		Slug:        "makers-of-lagos",
		Name:        "Makers of Lagos",
		Location:    "Lagos",
		Platforms:   []string{"discord", "in-person"},
		StartDate:   "2024-01-15",
		OrganizerID: "user-organizer",
		InviteCode:  "ABC123",
		CreatedAt:   m.now().Add(-72 * time.Hour),
	}
	m.addOrganizerOf("user-organizer", "community-1")
	m.contacts = []Contact{
		{ID: "contact-1", Name: "Bea Builder", Email: "bea@example.com", Company: "Builders Co", Stage: "engaged"},
		{ID: "contact-2", Name: "Cal Connector", Email: "cal@example.com", Stage: "new"},
	}
	m.requests["request-1"] = ServiceRequest{
		ID:          "request-1",
		Title:       "Venue for quarterly meetup",
		Status:      RequestStatusOpen,
		RequesterID: "user-organizer",
		CreatedAt:   m.now().Add(-24 * time.Hour),
	}
	return m, nil
}

// AddUser stores u with a bcrypt hash of password.
func (m *MemoryClient) AddUser(u User, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = RoleMember
	}
	m.users[u.ID] = u
	m.passwords[strings.ToLower(u.Email)] = hash
	return nil
}

// AddServiceRequest stores a MODUL-8 request.
func (m *MemoryClient) AddServiceRequest(req ServiceRequest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.Status == "" {
		req.Status = RequestStatusOpen
	}
	m.requests[req.ID] = req
}

func (m *MemoryClient) addOrganizerOf(userID, communityID string) {
	u, ok := m.users[userID]
	if !ok {
		return
	}
	for _, id := range u.OrganizerOf {
		if id == communityID {
			return
		}
	}
	u.OrganizerOf = append(u.OrganizerOf, communityID)
	m.users[userID] = u
}

func notFound(what string) *Error {
	return &Error{Status: http.StatusNotFound, Code: "not_found", Message: what + " not found"}
}

func unauthorized(message string) *Error {
	return &Error{Status: http.StatusUnauthorized, Code: "invalid_grant", Message: message}
}

func (m *MemoryClient) issue(userID string) Session {
	access := uuid.NewString()
	refresh := uuid.NewString()
	m.access[access] = userID
	m.refresh[refresh] = userID
	return Session{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    m.now().Add(memorySessionTTL),
		User:         m.users[userID],
	}
}

func (m *MemoryClient) userByEmail(email string) (User, bool) {
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return u, true
		}
	}
	return User{}, false
}

func (m *MemoryClient) SignIn(_ context.Context, email, password string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	hash, ok := m.passwords[strings.ToLower(strings.TrimSpace(email))]
	if !ok || bcrypt.CompareHashAndPassword(hash, []byte(password)) != nil {
		return Session{}, &Error{Status: http.StatusBadRequest, Code: "invalid_credentials", Message: "Invalid login credentials"}
	}
	u, ok := m.userByEmail(strings.TrimSpace(email))
	if !ok {
		return Session{}, notFound("user")
	}
	return m.issue(u.ID), nil
}

func (m *MemoryClient) GetSession(_ context.Context, accessToken string) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.access[accessToken]
	if !ok {
		return User{}, unauthorized("invalid or expired access token")
	}
	u, ok := m.users[id]
	if !ok {
		return User{}, notFound("user")
	}
	return u, nil
}

func (m *MemoryClient) RefreshSession(_ context.Context, refreshToken string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.refresh[refreshToken]
	if !ok {
		return Session{}, unauthorized("invalid refresh token")
	}
	delete(m.refresh, refreshToken)
	return m.issue(id), nil
}

func (m *MemoryClient) SignOut(_ context.Context, accessToken string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.access[accessToken]
	if !ok {
		return nil
	}
	for token, owner := range m.access {
		if owner == id {
			delete(m.access, token)
		}
	}
	for token, owner := range m.refresh {
		if owner == id {
			delete(m.refresh, token)
		}
	}
	return nil
}

func (m *MemoryClient) GetUser(_ context.Context, id string) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return User{}, notFound("user")
	}
	return u, nil
}

func (m *MemoryClient) ListUsers(context.Context) ([]User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	users := make([]User, 0, len(m.users))
	for _, u := range m.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Name < users[j].Name })
	return users, nil
}

func (m *MemoryClient) UpdateProfile(_ context.Context, id string, update ProfileUpdate) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return User{}, notFound("user")
	}
	u.Name = update.Name
	u.Bio = update.Bio
	u.Location = update.Location
	m.users[id] = u
	return u, nil
}

func (m *MemoryClient) UpdateUserRole(_ context.Context, id string, role Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return notFound("user")
	}
	u.Role = role
	m.users[id] = u
	return nil
}

func (m *MemoryClient) GetCommunity(_ context.Context, id string) (Community, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.communities[id]
	if !ok {
		return Community{}, notFound("community")
	}
	return c, nil
}

func (m *MemoryClient) CreateCommunity(_ context.Context, nc NewCommunity) (Community, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.communities {
		if existing.Slug == nc.Slug {
			return Community{}, &Error{Status: http.StatusConflict, Code: "23505", Message: "a community with this name already exists"}
		}
	}
	c := Community{
		ID:             uuid.NewString(),
		Slug:           nc.Slug,
		Name:           nc.Name,
		Location:       nc.Location,
		Platforms:      append([]string(nil), nc.Platforms...),
		SocialLinks:    nc.SocialLinks,
		StartDate:      nc.StartDate,
		WelcomeMessage: nc.WelcomeMessage,
		OrganizerID:    nc.OrganizerID,
		InviteCode:     strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6]),
		CreatedAt:      m.now(),
	}
	m.communities[c.ID] = c
	m.addOrganizerOf(nc.OrganizerID, c.ID)
	return c, nil
}

func (m *MemoryClient) ListCommunities(_ context.Context, organizerID string) ([]Community, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Community
	for _, c := range m.communities {
		if organizerID != "" && c.OrganizerID != organizerID {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryClient) ResolveInvite(_ context.Context, code string) (Community, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.communities {
		if strings.EqualFold(c.InviteCode, code) {
			return c, nil
		}
	}
	return Community{}, notFound("invite")
}

func (m *MemoryClient) ListContacts(context.Context) ([]Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Contact(nil), m.contacts...), nil
}

func (m *MemoryClient) ListServiceRequests(context.Context) ([]ServiceRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ServiceRequest, 0, len(m.requests))
	for _, r := range m.requests {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryClient) AssignProvider(_ context.Context, requestID, providerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.requests[requestID]
	if !ok {
		return notFound("service request")
	}
	if _, ok := m.users[providerID]; !ok {
		return &Error{Status: http.StatusBadRequest, Code: "23503", Message: "provider does not exist"}
	}
	req.ProviderID = providerID
	req.Status = RequestStatusAssigned
	m.requests[requestID] = req
	return nil
}

func (m *MemoryClient) DashboardStats(context.Context) ([]StatCard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	open := 0
	for _, r := range m.requests {
		if r.Status == RequestStatusOpen {
			open++
		}
	}
	rows := []statRow{
		{Title: "Communities", Value: rawJSON(len(m.communities))},
		{Title: "Members", Value: rawJSON(len(m.users))},
		{Label: "Contacts", Value: rawJSON(len(m.contacts))},
		{Label: "Open requests", Value: rawJSON(open)},
	}
	return statCards(rows), nil
}

func (m *MemoryClient) InvokeFunction(_ context.Context, name string, payload any) (FunctionResult, error) {
	m.mu.Lock()
	fn, ok := m.functions[name]
	m.mu.Unlock()
	if !ok {
		return FunctionResult{}, notFound("function " + name)
	}
	return fn(rawJSON(payload)), nil
}

func testService(payload json.RawMessage) FunctionResult {
	var in TestServicePayload
	if err := json.Unmarshal(payload, &in); err != nil || strings.TrimSpace(in.Name) == "" {
		return FunctionResult{Status: "error", Error: "name is required"}
	}
	return FunctionResult{
		Status: "ok",
		Result: rawJSON(map[string]string{"message": "Hello, " + strings.TrimSpace(in.Name) + "!"}),
	}
}
