// Package tour walks a user through onboarding steps spread over several
// pages, skipping steps whose anchors are missing and handing off to another
// page when the next step lives there.
package tour

import (
	"fmt"
	"strings"

	"focusdeck/internal/debug"
	"focusdeck/internal/kv"
)

// Status is the navigator's state.
type Status int

const (
	NotStarted Status = iota
	AwaitingNavigation
	ShowingStep
	Complete
)

func (s Status) String() string {
	switch s {
	case NotStarted:
		return "not-started"
	case AwaitingNavigation:
		return "awaiting-navigation"
	case ShowingStep:
		return "showing-step"
	case Complete:
		return "complete"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Config wires a Navigator to its steps and storage.
type Config struct {
	Source StepSource
	// Store holds progress across runs. Session holds the navigation marker
	// for the lifetime of one client session. Either may be nil.
	Store   kv.Store
	Session kv.Store
	// CrossPage lets the navigator leave the current page for a step that
	// lives elsewhere. It has no effect with page-local sources.
	CrossPage bool
	// Navigate, when set, is called with the URL of the page to load.
	Navigate func(url string)
	// Key is the Store key of the progress record, StateKey when empty. Each
	// step table needs its own key since progress is a step index.
	Key string
}

// ProgressKey is the Store key the navigator reads and writes progress under.
func (c Config) ProgressKey() string {
	if c.Key == "" {
		return StateKey
	}
	return c.Key
}

// Load describes how the current page was entered.
type Load struct {
	// Onboarding is set for users the tour applies to.
	Onboarding bool
	// Forced restarts the tour from the first step.
	Forced bool
}

// View is what a popover for the current step shows.
type View struct {
	Step     Step
	Anchor   Element
	Index    int
	Total    int
	Progress string
	Button   string
}

// Navigator drives one page's tour session. It is not safe for concurrent use.
type Navigator struct {
	cfg   Config
	page  Page
	steps []Step

	status Status
	index  int
	target int
}

func New(cfg Config) *Navigator {
	if cfg.Source == nil {
		cfg.Source = Compiled(DefaultSteps())
	}
	return &Navigator{cfg: cfg}
}

func (n *Navigator) Status() Status { return n.status }

// Index is the current step index while a step is shown.
func (n *Navigator) Index() int { return n.index }

// Steps returns the steps loaded for the current page.
func (n *Navigator) Steps() []Step { return append([]Step(nil), n.steps...) }

// Target returns the step being navigated to while AwaitingNavigation.
func (n *Navigator) Target() (Step, bool) {
	if n.status != AwaitingNavigation || n.target < 0 || n.target >= len(n.steps) {
		return Step{}, false
	}
	return n.steps[n.target], true
}

func (n *Navigator) crossPage() bool {
	return n.cfg.CrossPage && !n.cfg.Source.PageLocal()
}

// Begin starts the tour session for page.
func (n *Navigator) Begin(page Page, load Load) Status {
	n.page = page
	n.steps = n.cfg.Source.Steps(page)
	n.status = NotStarted
	n.index, n.target = 0, -1

	if !load.Onboarding || page == nil {
		return n.status
	}

	nav, hasNav := takeNav(n.cfg.Session)
	start := 0
	switch {
	case load.Forced:
		saveProgress(n.cfg.Store, n.cfg.ProgressKey(), Progress{Index: 0})
	case hasNav:
		start = nav
		saveProgress(n.cfg.Store, n.cfg.ProgressKey(), Progress{Index: nav})
	default:
		stored := LoadProgressAt(n.cfg.Store, n.cfg.ProgressKey())
		if stored.Done {
			n.status = Complete
			return n.status
		}
		start = stored.Index
	}
	if start < 0 {
		start = 0
	}

	if i, ok := n.resolveFrom(start); ok {
		n.show(i)
		return n.status
	}
	if n.crossPage() {
		// Hand off to the first remaining step that lives on another page.
		for i := start; i < len(n.steps); i++ {
			if !n.steps[i].OnPage(page.Name()) {
				n.navigate(i)
				return n.status
			}
		}
	}
	debug.Log("tour: no step resolves on %s from %d", page.Name(), start)
	return n.status
}

// Next advances past the shown step.
func (n *Navigator) Next() Status {
	if n.status != ShowingStep {
		return n.status
	}
	for i := n.index + 1; i < len(n.steps); i++ {
		st := n.steps[i]
		if !st.OnPage(n.page.Name()) {
			if n.crossPage() {
				n.navigate(i)
				return n.status
			}
			continue
		}
		if n.resolves(i) {
			n.show(i)
			return n.status
		}
	}
	n.complete()
	return n.status
}

// Skip ends the tour for good.
func (n *Navigator) Skip() Status {
	if n.status == ShowingStep {
		n.complete()
	}
	return n.status
}

// HandleKey maps enter to Next and esc to Skip.
func (n *Navigator) HandleKey(key string) Status {
	switch strings.ToLower(key) {
	case "enter":
		return n.Next()
	case "esc", "escape":
		return n.Skip()
	default:
		return n.status
	}
}

// Current describes the shown step. ok is false when nothing is shown or the
// anchor has since disappeared.
func (n *Navigator) Current() (View, bool) {
	if n.status != ShowingStep || n.index >= len(n.steps) {
		return View{}, false
	}
	st := n.steps[n.index]
	el := n.page.Query(st.Locator)
	if !visible(el) {
		return View{}, false
	}
	total := len(n.steps)
	button := "Next"
	if n.index >= total-1 {
		button = "Done"
	}
	return View{
		Step:     st,
		Anchor:   el,
		Index:    n.index,
		Total:    total,
		Progress: fmt.Sprintf("Step %d of %d", n.index+1, total),
		Button:   button,
	}, true
}

func (n *Navigator) resolves(i int) bool {
	if i < 0 || i >= len(n.steps) {
		return false
	}
	st := n.steps[i]
	if !st.OnPage(n.page.Name()) {
		return false
	}
	return visible(n.page.Query(st.Locator))
}

func (n *Navigator) resolveFrom(start int) (int, bool) {
	for i := start; i < len(n.steps); i++ {
		if n.resolves(i) {
			return i, true
		}
	}
	return 0, false
}

func (n *Navigator) show(i int) {
	n.status = ShowingStep
	n.index = i
	saveProgress(n.cfg.Store, n.cfg.ProgressKey(), Progress{Index: i})
}

func (n *Navigator) navigate(i int) {
	n.status = AwaitingNavigation
	n.target = i
	saveProgress(n.cfg.Store, n.cfg.ProgressKey(), Progress{Index: i})
	setNav(n.cfg.Session, i)
	if n.cfg.Navigate != nil {
		n.cfg.Navigate(n.steps[i].URL)
	}
}

func (n *Navigator) complete() {
	n.status = Complete
	saveProgress(n.cfg.Store, n.cfg.ProgressKey(), Progress{Index: max(len(n.steps)-1, 0), Done: true})
}
