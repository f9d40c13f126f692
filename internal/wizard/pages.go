package wizard

import "errors"

// ErrNoPrevious is returned by Prev on the first page.
var ErrNoPrevious = errors.New("wizard: no previous page")

// FormControl validates a named subset of fields, recording field errors.
type FormControl interface {
	Trigger(fields ...string) bool
}

// Page is one wizard step.
type Page struct {
	ID       string
	Title    string
	Tab      Tab
	Required []string
	index    int
}

// Next validates the page's required fields and calls advance once when
// they pass. It reports whether advance was called.
func (p Page) Next(form FormControl, advance func()) bool {
	if !form.Trigger(p.Required...) {
		return false
	}
	if advance != nil {
		advance()
	}
	return true
}

// HasPrev reports whether the page exposes a previous step.
func (p Page) HasPrev() bool {
	return p.index > 0
}

// Prev calls retreat once without validation.
func (p Page) Prev(retreat func()) error {
	if !p.HasPrev() {
		return ErrNoPrevious
	}
	if retreat != nil {
		retreat()
	}
	return nil
}

// Index is the zero-based position of the page.
func (p Page) Index() int {
	return p.index
}

const (
	PageWelcome     = "welcome"
	PageName        = "name"
	PageLocation    = "location"
	PageStartDate   = "start-date"
	PagePlatforms   = "platforms"
	PageSocialMedia = "social-media"
)

var pages = func() []Page {
	list := []Page{
		{ID: PageWelcome, Title: "Welcome", Tab: TabBasicInfo},
		{ID: PageName, Title: "Name your community", Tab: TabBasicInfo, Required: []string{"name"}},
		{ID: PageLocation, Title: "Where do you meet?", Tab: TabBasicInfo, Required: []string{"location"}},
		{ID: PageStartDate, Title: "When did you start?", Tab: TabBasicInfo, Required: []string{"start_date"}},
		{ID: PagePlatforms, Title: "Where does your community gather?", Tab: TabPlatforms, Required: []string{"platforms"}},
		{ID: PageSocialMedia, Title: "Social media", Tab: TabSocialMedia, Required: []string{"social_links"}},
	}
	for i := range list {
		list[i].index = i
	}
	return list
}()

// Pages returns the wizard pages in order.
func Pages() []Page {
	return append([]Page(nil), pages...)
}

// PageByID looks a page up by ID.
func PageByID(id string) (Page, bool) {
	for _, p := range pages {
		if p.ID == id {
			return p, true
		}
	}
	return Page{}, false
}
