package backend

import (
	"encoding/json"
	"strings"
	"time"
)

// Role is the application role stored on a user record.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleOrganizer Role = "organizer"
	RoleMember    Role = "member"
)

// ParseRole maps free-form input onto a known Role.
func ParseRole(value string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(value))) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleOrganizer:
		return RoleOrganizer, true
	case RoleMember:
		return RoleMember, true
	default:
		return "", false
	}
}

// User is the profile record owned by the backend.
type User struct {
	ID          string   `json:"id"`
	Email       string   `json:"email"`
	Name        string   `json:"name"`
	Bio         string   `json:"bio,omitempty"`
	Location    string   `json:"location,omitempty"`
	Role        Role     `json:"role"`
	OrganizerOf []string `json:"organizer_of,omitempty"`
}

// IsAdmin reports whether the user carries the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// IsOrganizer reports whether the user organizes at least one community
// or carries the organizer role.
func (u *User) IsOrganizer() bool {
	if u == nil {
		return false
	}
	return u.Role == RoleOrganizer || len(u.OrganizerOf) > 0
}

// Session is an authenticated backend session.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         User      `json:"user"`
}

// ProfileUpdate carries the editable profile fields.
type ProfileUpdate struct {
	Name     string `json:"name"`
	Bio      string `json:"bio"`
	Location string `json:"location"`
}

// Community is a community record created through the wizard.
type Community struct {
	ID             string            `json:"id"`
	Slug           string            `json:"slug"`
	Name           string            `json:"name"`
	Location       string            `json:"location"`
	Platforms      []string          `json:"platforms"`
	SocialLinks    map[string]string `json:"social_links,omitempty"`
	StartDate      string            `json:"start_date"`
	WelcomeMessage string            `json:"welcome_message,omitempty"`
	OrganizerID    string            `json:"organizer_id"`
	InviteCode     string            `json:"invite_code"`
	CreatedAt      time.Time         `json:"created_at"`
}

// NewCommunity is the payload used to create a community.
type NewCommunity struct {
	Slug           string            `json:"slug"`
	Name           string            `json:"name"`
	Location       string            `json:"location"`
	Platforms      []string          `json:"platforms"`
	SocialLinks    map[string]string `json:"social_links,omitempty"`
	StartDate      string            `json:"start_date"`
	WelcomeMessage string            `json:"welcome_message,omitempty"`
	OrganizerID    string            `json:"organizer_id"`
}

// Contact is a REL8 relationship entry.
type Contact struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Company       string    `json:"company,omitempty"`
	Stage         string    `json:"stage"`
	LastContacted time.Time `json:"last_contacted,omitempty"`
}

// ServiceRequest is a MODUL-8 request awaiting or holding a provider.
type ServiceRequest struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status"`
	RequesterID string    `json:"requester_id"`
	ProviderID  string    `json:"provider_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

const (
	RequestStatusOpen     = "open"
	RequestStatusAssigned = "assigned"
)

// StatCard is one dashboard statistic.
type StatCard struct {
	Title string
	Value string
}

// statRow is the remote stats shape; older rows use label instead of title.
type statRow struct {
	Title string          `json:"title"`
	Label string          `json:"label"`
	Value json.RawMessage `json:"value"`
}

func (r statRow) card() StatCard {
	title := strings.TrimSpace(r.Title)
	if title == "" {
		title = strings.TrimSpace(r.Label)
	}
	value := strings.TrimSpace(string(r.Value))
	var text string
	if err := json.Unmarshal(r.Value, &text); err == nil {
		value = text
	}
	return StatCard{Title: title, Value: value}
}

func statCards(rows []statRow) []StatCard {
	cards := make([]StatCard, 0, len(rows))
	for _, row := range rows {
		card := row.card()
		if card.Title == "" {
			continue
		}
		cards = append(cards, card)
	}
	return cards
}

// FunctionResult is the envelope returned by serverless functions.
type FunctionResult struct {
	Status string          `json:"status"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
}
