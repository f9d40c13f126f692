package forms

import (
	"net/url"
	"strings"
)

// Field names shared by the wizard pages, templates and validation.
const (
	FieldName           = "name"
	FieldLocation       = "location"
	FieldStartDate      = "start_date"
	FieldPlatforms      = "platforms"
	FieldSocialLinks    = "social_links"
	FieldWelcomeMessage = "welcome_message"

	socialFieldPrefix = "social_"
)

// Option is a selectable value with a display label.
type Option struct {
	Value string
	Label string
}

// PlatformOptions lists where a community can gather.
var PlatformOptions = []Option{
	{Value: "discord", Label: "Discord"},
	{Value: "slack", Label: "Slack"},
	{Value: "whatsapp", Label: "WhatsApp"},
	{Value: "telegram", Label: "Telegram"},
	{Value: "meetup", Label: "Meetup"},
	{Value: "in-person", Label: "In person"},
}

// SocialNetworks lists the social links collected by the wizard.
var SocialNetworks = []Option{
	{Value: "website", Label: "Website"},
	{Value: "instagram", Label: "Instagram"},
	{Value: "linkedin", Label: "LinkedIn"},
	{Value: "x", Label: "X"},
	{Value: "facebook", Label: "Facebook"},
}

// CommunityForm is the wizard's shared form state. It travels between
// pages as hidden fields and is owned by the request handling it.
type CommunityForm struct {
	Name           string
	Location       string
	StartDate      string
	Platforms      []string
	SocialLinks    map[string]string
	WelcomeMessage string
	Errors         map[string]string
}

// NewCommunityForm returns an empty form.
func NewCommunityForm() *CommunityForm {
	return &CommunityForm{
		SocialLinks: make(map[string]string),
		Errors:      make(map[string]string),
	}
}

// ParseCommunityForm reads a CommunityForm from posted values.
func ParseCommunityForm(values url.Values) *CommunityForm {
	form := NewCommunityForm()
	form.Name = strings.TrimSpace(values.Get(FieldName))
	form.Location = strings.TrimSpace(values.Get(FieldLocation))
	form.StartDate = strings.TrimSpace(values.Get(FieldStartDate))
	form.WelcomeMessage = strings.TrimSpace(values.Get(FieldWelcomeMessage))
	form.Platforms = normalizePlatforms(values[FieldPlatforms])
	for _, network := range SocialNetworks {
		raw := values.Get(socialFieldPrefix + network.Value)
		if link := CanonicalizeSocialLink(network.Value, raw); link != "" {
			form.SocialLinks[network.Value] = link
		}
	}
	return form
}

// Values encodes the form for hidden-field round trips.
func (f *CommunityForm) Values() url.Values {
	values := url.Values{}
	setIf := func(key, value string) {
		if value != "" {
			values.Set(key, value)
		}
	}
	setIf(FieldName, f.Name)
	setIf(FieldLocation, f.Location)
	setIf(FieldStartDate, f.StartDate)
	setIf(FieldWelcomeMessage, f.WelcomeMessage)
	for _, p := range f.Platforms {
		values.Add(FieldPlatforms, p)
	}
	for _, network := range SocialNetworks {
		setIf(socialFieldPrefix+network.Value, f.SocialLinks[network.Value])
	}
	return values
}

// HiddenField is one name/value pair rendered as <input type="hidden">.
type HiddenField struct {
	Name  string
	Value string
}

// HiddenFields returns the form values excluding the named fields, which
// are rendered as visible inputs on the current page.
func (f *CommunityForm) HiddenFields(visible ...string) []HiddenField {
	skip := make(map[string]bool, len(visible))
	for _, name := range visible {
		skip[name] = true
		if name == FieldSocialLinks {
			for _, network := range SocialNetworks {
				skip[socialFieldPrefix+network.Value] = true
			}
		}
	}
	var fields []HiddenField
	values := f.Values()
	for _, key := range hiddenOrder() {
		if skip[key] {
			continue
		}
		for _, v := range values[key] {
			fields = append(fields, HiddenField{Name: key, Value: v})
		}
	}
	return fields
}

func hiddenOrder() []string {
	keys := []string{FieldName, FieldLocation, FieldStartDate, FieldPlatforms, FieldWelcomeMessage}
	for _, network := range SocialNetworks {
		keys = append(keys, socialFieldPrefix+network.Value)
	}
	return keys
}

// HasPlatform reports whether value is selected.
func (f *CommunityForm) HasPlatform(value string) bool {
	return ContainsString(f.Platforms, value)
}

// SocialLink returns the link stored for network.
func (f *CommunityForm) SocialLink(network string) string {
	return f.SocialLinks[network]
}

// Error returns the message recorded for field.
func (f *CommunityForm) Error(field string) string {
	return f.Errors[field]
}

// ContainsString reports whether values contains target.
func ContainsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

func normalizePlatforms(values []string) []string {
	var out []string
	for _, raw := range values {
		v := strings.ToLower(strings.TrimSpace(raw))
		if v == "" || ContainsString(out, v) {
			continue
		}
		out = append(out, v)
	}
	return out
}

// CanonicalizeSocialLink converts a handle or bare host into an https URL.
func CanonicalizeSocialLink(network, raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	lower := strings.ToLower(trimmed)
	if strings.HasPrefix(lower, "https://") {
		return trimmed
	}
	if strings.HasPrefix(lower, "http://") {
		return "https://" + trimmed[len("http://"):]
	}
	if strings.HasPrefix(trimmed, "@") {
		return buildURLFromHandle(network, trimmed)
	}
	if network != "website" && !strings.Contains(trimmed, ".") && !strings.Contains(trimmed, "/") {
		return buildURLFromHandle(network, trimmed)
	}
	return "https://" + trimmed
}

func buildURLFromHandle(network, handle string) string {
	handle = strings.TrimPrefix(strings.TrimSpace(handle), "@")
	if handle == "" {
		return ""
	}
	switch network {
	case "instagram":
		return "https://www.instagram.com/" + handle
	case "linkedin":
		return "https://www.linkedin.com/company/" + handle
	case "x":
		return "https://x.com/" + handle
	case "facebook":
		return "https://www.facebook.com/" + handle
	default:
		return "https://" + handle
	}
}
