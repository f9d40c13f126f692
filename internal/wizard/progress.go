// Package wizard drives the community creation wizard: the tab progress
// controller and the ordered pages that advance through it.
package wizard

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownTab is returned when a tab outside Tabs is requested.
	ErrUnknownTab = errors.New("wizard: unknown tab")
	// ErrOutOfOrder is returned by the sequential controller when a tab
	// is not reachable from the active one.
	ErrOutOfOrder = errors.New("wizard: tab out of order")
)

// Tab is one of the three wizard sections.
type Tab string

const (
	TabBasicInfo   Tab = "basic-info"
	TabPlatforms   Tab = "platforms"
	TabSocialMedia Tab = "social-media"
)

// Tabs lists the sections in display order.
var Tabs = []Tab{TabBasicInfo, TabPlatforms, TabSocialMedia}

var progressByTab = map[Tab]int{
	TabBasicInfo:   33,
	TabPlatforms:   66,
	TabSocialMedia: 100,
}

// ProgressFor returns the completion percentage shown for tab.
func ProgressFor(tab Tab) (int, bool) {
	p, ok := progressByTab[tab]
	return p, ok
}

// ParseTab converts a form value into a Tab.
func ParseTab(value string) (Tab, error) {
	tab := Tab(strings.ToLower(strings.TrimSpace(value)))
	if _, ok := progressByTab[tab]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownTab, value)
	}
	return tab, nil
}

// State is the active tab and its derived progress.
type State struct {
	ActiveTab Tab
	Progress  int
}

// NewState returns the initial wizard state.
func NewState() State {
	return State{ActiveTab: TabBasicInfo, Progress: progressByTab[TabBasicInfo]}
}

// Tracker records tab changes made by the wizard.
type Tracker interface {
	Track(tab Tab) error
	State() State
}

// Controller accepts any tab in any order.
type Controller struct {
	state State
}

// NewController returns a Controller on the first tab.
func NewController() *Controller {
	return &Controller{state: NewState()}
}

// UpdateProgress makes tab active and recomputes progress. Unknown tabs
// are ignored.
func (c *Controller) UpdateProgress(tab Tab) {
	p, ok := progressByTab[tab]
	if !ok {
		return
	}
	c.state = State{ActiveTab: tab, Progress: p}
}

// Track implements Tracker.
func (c *Controller) Track(tab Tab) error {
	if _, ok := progressByTab[tab]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTab, tab)
	}
	c.UpdateProgress(tab)
	return nil
}

// State returns the current state.
func (c *Controller) State() State {
	return c.state
}

// transitions lists the tabs reachable from each tab: stay, or move one
// section forward or back.
var transitions = map[Tab][]Tab{
	TabBasicInfo:   {TabBasicInfo, TabPlatforms},
	TabPlatforms:   {TabBasicInfo, TabPlatforms, TabSocialMedia},
	TabSocialMedia: {TabPlatforms, TabSocialMedia},
}

// SequentialController rejects jumps that skip a section.
type SequentialController struct {
	inner Controller
}

// NewSequentialController returns a SequentialController on the first tab.
func NewSequentialController() *SequentialController {
	return &SequentialController{inner: Controller{state: NewState()}}
}

// NewSequentialControllerAt returns a SequentialController whose last
// accepted tab is tab.
func NewSequentialControllerAt(tab Tab) (*SequentialController, error) {
	p, ok := progressByTab[tab]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTab, tab)
	}
	return &SequentialController{inner: Controller{state: State{ActiveTab: tab, Progress: p}}}, nil
}

// Track moves to tab if it is reachable from the active tab.
func (s *SequentialController) Track(tab Tab) error {
	if _, ok := progressByTab[tab]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTab, tab)
	}
	from := s.inner.state.ActiveTab
	for _, allowed := range transitions[from] {
		if allowed == tab {
			s.inner.UpdateProgress(tab)
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrOutOfOrder, from, tab)
}

// State returns the current state.
func (s *SequentialController) State() State {
	return s.inner.State()
}
