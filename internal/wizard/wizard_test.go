package wizard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubForm struct {
	valid     bool
	triggered [][]string
}

func (s *stubForm) Trigger(fields ...string) bool {
	s.triggered = append(s.triggered, fields)
	return s.valid
}

func TestUpdateProgressIsTotalOverTabs(t *testing.T) {
	want := map[Tab]int{TabBasicInfo: 33, TabPlatforms: 66, TabSocialMedia: 100}
	allowed := map[int]bool{33: true, 66: true, 100: true}

	for _, tab := range Tabs {
		c := NewController()
		c.UpdateProgress(tab)
		state := c.State()
		assert.Equal(t, tab, state.ActiveTab)
		assert.Equal(t, want[tab], state.Progress)
		assert.True(t, allowed[state.Progress])
	}
}

func TestUpdateProgressIsIdempotent(t *testing.T) {
	for _, tab := range Tabs {
		c := NewController()
		c.UpdateProgress(tab)
		first := c.State()
		c.UpdateProgress(tab)
		assert.Equal(t, first, c.State(), "tab %s", tab)
	}
}

func TestControllerAcceptsOutOfOrderJump(t *testing.T) {
	c := NewController()
	require.NoError(t, c.Track(TabSocialMedia))
	assert.Equal(t, State{ActiveTab: TabSocialMedia, Progress: 100}, c.State())
}

func TestControllerIgnoresUnknownTab(t *testing.T) {
	c := NewController()
	c.UpdateProgress(Tab("billing"))
	assert.Equal(t, NewState(), c.State())
	assert.ErrorIs(t, c.Track(Tab("billing")), ErrUnknownTab)
}

func TestSequentialControllerRejectsSkips(t *testing.T) {
	s := NewSequentialController()

	err := s.Track(TabSocialMedia)
	assert.ErrorIs(t, err, ErrOutOfOrder)
	assert.Equal(t, NewState(), s.State())

	require.NoError(t, s.Track(TabPlatforms))
	require.NoError(t, s.Track(TabSocialMedia))
	assert.ErrorIs(t, s.Track(TabBasicInfo), ErrOutOfOrder)
	require.NoError(t, s.Track(TabSocialMedia))
	assert.Equal(t, 100, s.State().Progress)
}

func TestParseTab(t *testing.T) {
	tab, err := ParseTab(" Platforms ")
	require.NoError(t, err)
	assert.Equal(t, TabPlatforms, tab)

	_, err = ParseTab("billing")
	assert.ErrorIs(t, err, ErrUnknownTab)
}

func TestPageNextCallsAdvanceOnlyWhenValid(t *testing.T) {
	for _, page := range Pages() {
		t.Run(page.ID, func(t *testing.T) {
			invalid := &stubForm{valid: false}
			calls := 0
			assert.False(t, page.Next(invalid, func() { calls++ }))
			assert.Zero(t, calls)

			valid := &stubForm{valid: true}
			assert.True(t, page.Next(valid, func() { calls++ }))
			assert.Equal(t, 1, calls)
			require.Len(t, valid.triggered, 1)
			assert.Equal(t, page.Required, valid.triggered[0])
		})
	}
}

func TestPagePrevCallsRetreatOnce(t *testing.T) {
	for _, page := range Pages() {
		t.Run(page.ID, func(t *testing.T) {
			calls := 0
			err := page.Prev(func() { calls++ })
			if page.Index() == 0 {
				assert.ErrorIs(t, err, ErrNoPrevious)
				assert.Zero(t, calls)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 1, calls)
		})
	}
}

func TestPagesCoverEveryTab(t *testing.T) {
	seen := map[Tab]bool{}
	for _, p := range Pages() {
		seen[p.Tab] = true
	}
	for _, tab := range Tabs {
		assert.True(t, seen[tab], "no page for %s", tab)
	}
	first, ok := PageByID(PageWelcome)
	require.True(t, ok)
	assert.False(t, first.HasPrev())
}

func TestWizardWalksPagesAndSyncsTab(t *testing.T) {
	w := New(NewSequentialController())
	form := &stubForm{valid: true}

	var tabs []Tab
	for !w.Done() {
		tabs = append(tabs, w.State().ActiveTab)
		advanced, err := w.Next(form)
		require.NoError(t, err)
		require.True(t, advanced)
	}

	assert.Equal(t, []Tab{
		TabBasicInfo, TabBasicInfo, TabBasicInfo, TabBasicInfo, TabPlatforms, TabSocialMedia,
	}, tabs)
	assert.Equal(t, 100, w.State().Progress)
}

func TestWizardStaysOnInvalidPage(t *testing.T) {
	w := New(nil)
	require.NoError(t, w.Resume(PageName))

	advanced, err := w.Next(&stubForm{valid: false})
	require.NoError(t, err)
	assert.False(t, advanced)
	assert.Equal(t, PageName, w.Current().ID)
}

func TestWizardPrev(t *testing.T) {
	w := New(nil)
	assert.ErrorIs(t, w.Prev(), ErrNoPrevious)

	require.NoError(t, w.Resume(PagePlatforms))
	assert.Equal(t, TabPlatforms, w.State().ActiveTab)

	require.NoError(t, w.Prev())
	assert.Equal(t, PageStartDate, w.Current().ID)
	assert.Equal(t, State{ActiveTab: TabBasicInfo, Progress: 33}, w.State())
}

func TestWizardResumeUnknownPage(t *testing.T) {
	assert.Error(t, New(nil).Resume("billing"))
}

func TestNewStartsOnTrackerTab(t *testing.T) {
	s, err := NewSequentialControllerAt(TabPlatforms)
	require.NoError(t, err)

	w := New(s)
	assert.Equal(t, PagePlatforms, w.Current().ID)
	assert.Equal(t, State{ActiveTab: TabPlatforms, Progress: 66}, w.State())

	_, err = NewSequentialControllerAt(Tab("billing"))
	assert.ErrorIs(t, err, ErrUnknownTab)
}

func TestSequentialResumeRejectsSkippedSection(t *testing.T) {
	w := New(NewSequentialController())

	err := w.Resume(PageSocialMedia)
	assert.ErrorIs(t, err, ErrOutOfOrder)
	assert.Equal(t, PageWelcome, w.Current().ID)
	assert.Equal(t, NewState(), w.State())

	s, err := NewSequentialControllerAt(TabPlatforms)
	require.NoError(t, err)
	w = New(s)
	require.NoError(t, w.Resume(PageSocialMedia))
	assert.Equal(t, State{ActiveTab: TabSocialMedia, Progress: 100}, w.State())
}

func TestResumeWithinSectionIsAccepted(t *testing.T) {
	w := New(NewSequentialController())
	require.NoError(t, w.Resume(PageStartDate))
	assert.Equal(t, PageStartDate, w.Current().ID)
	assert.Equal(t, TabBasicInfo, w.State().ActiveTab)
}
