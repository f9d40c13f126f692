package wizard

import "fmt"

// Wizard moves between pages and keeps its Tracker on the current tab.
type Wizard struct {
	tracker Tracker
	index   int
	done    bool
}

// New returns a Wizard on the first page of the tracker's active tab.
// A nil tracker uses Controller.
func New(tracker Tracker) *Wizard {
	if tracker == nil {
		tracker = NewController()
	}
	w := &Wizard{tracker: tracker}
	active := tracker.State().ActiveTab
	for _, p := range pages {
		if p.Tab == active {
			w.index = p.index
			break
		}
	}
	return w
}

// Resume moves straight to pageID with a single Track call, so a
// sequential tracker rejects pages that skip a section.
func (w *Wizard) Resume(pageID string) error {
	target, ok := PageByID(pageID)
	if !ok {
		return fmt.Errorf("wizard: unknown page %q", pageID)
	}
	if err := w.tracker.Track(target.Tab); err != nil {
		return err
	}
	w.index = target.index
	return nil
}

// Current returns the active page.
func (w *Wizard) Current() Page {
	return pages[w.index]
}

// State returns the tracker's state.
func (w *Wizard) State() State {
	return w.tracker.State()
}

// Done reports whether the last page has been completed.
func (w *Wizard) Done() bool {
	return w.done
}

// Next validates the current page and advances when it passes. Completing
// the last page marks the wizard done.
func (w *Wizard) Next(form FormControl) (bool, error) {
	var moveErr error
	advanced := w.Current().Next(form, func() {
		if w.index == len(pages)-1 {
			w.done = true
			return
		}
		moveErr = w.move(1)
	})
	return advanced, moveErr
}

// Prev returns to the previous page.
func (w *Wizard) Prev() error {
	var moveErr error
	if err := w.Current().Prev(func() { moveErr = w.move(-1) }); err != nil {
		return err
	}
	w.done = false
	return moveErr
}

func (w *Wizard) move(delta int) error {
	next := w.index + delta
	if next < 0 || next >= len(pages) {
		return fmt.Errorf("wizard: page %d out of range", next)
	}
	if err := w.tracker.Track(pages[next].Tab); err != nil {
		return err
	}
	w.index = next
	return nil
}
