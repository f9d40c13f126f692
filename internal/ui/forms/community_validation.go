package forms

import (
	"net/url"
	"time"
	"unicode/utf8"
)

const (
	minNameLength     = 3
	maxNameLength     = 80
	maxWelcomeLength  = 500
	startDateLayout   = "2006-01-02"
	requiredFieldText = "This field is required."
)

var communityValidators = map[string]func(*CommunityForm) string{
	FieldName:           validateName,
	FieldLocation:       validateLocation,
	FieldStartDate:      validateStartDate,
	FieldPlatforms:      validatePlatforms,
	FieldSocialLinks:    validateSocialLinks,
	FieldWelcomeMessage: validateWelcomeMessage,
}

// Trigger validates only the named fields, recording or clearing their
// errors. It reports whether all of them passed.
func (f *CommunityForm) Trigger(fields ...string) bool {
	if f.Errors == nil {
		f.Errors = make(map[string]string)
	}
	ok := true
	for _, field := range fields {
		validate, known := communityValidators[field]
		if !known {
			continue
		}
		if msg := validate(f); msg != "" {
			f.Errors[field] = msg
			ok = false
			continue
		}
		delete(f.Errors, field)
	}
	return ok
}

// Validate checks every field.
func (f *CommunityForm) Validate() bool {
	return f.Trigger(FieldName, FieldLocation, FieldStartDate, FieldPlatforms, FieldSocialLinks, FieldWelcomeMessage)
}

func validateName(f *CommunityForm) string {
	n := utf8.RuneCountInString(f.Name)
	switch {
	case n == 0:
		return requiredFieldText
	case n < minNameLength:
		return "Name must be at least 3 characters."
	case n > maxNameLength:
		return "Name must be at most 80 characters."
	}
	return ""
}

func validateLocation(f *CommunityForm) string {
	if f.Location == "" {
		return requiredFieldText
	}
	return ""
}

func validateStartDate(f *CommunityForm) string {
	if f.StartDate == "" {
		return requiredFieldText
	}
	if _, err := time.Parse(startDateLayout, f.StartDate); err != nil {
		return "Use the format YYYY-MM-DD."
	}
	return ""
}

func validatePlatforms(f *CommunityForm) string {
	if len(f.Platforms) == 0 {
		return "Choose at least one platform."
	}
	for _, p := range f.Platforms {
		if !isOption(PlatformOptions, p) {
			return "Unknown platform: " + p
		}
	}
	return ""
}

func validateSocialLinks(f *CommunityForm) string {
	if len(f.SocialLinks) == 0 {
		return "Add at least one social link."
	}
	for _, network := range SocialNetworks {
		link, ok := f.SocialLinks[network.Value]
		if !ok {
			continue
		}
		u, err := url.Parse(link)
		if err != nil || u.Scheme != "https" || u.Host == "" {
			return network.Label + " link is not a valid URL."
		}
	}
	return ""
}

func validateWelcomeMessage(f *CommunityForm) string {
	if utf8.RuneCountInString(f.WelcomeMessage) > maxWelcomeLength {
		return "Welcome message must be at most 500 characters."
	}
	return ""
}

func isOption(options []Option, value string) bool {
	for _, o := range options {
		if o.Value == value {
			return true
		}
	}
	return false
}
