package tui

import (
	"focusdeck/internal/config"
	"focusdeck/internal/kv"
	"focusdeck/internal/tour"

	"github.com/charmbracelet/lipgloss"
)

// TourOptions configures the onboarding tour of the terminal client.
type TourOptions struct {
	Onboarding bool
	// Forced restarts the tour on the first screen shown.
	Forced    bool
	CrossPage bool
	// Source is config.SourceCompiled or config.SourceAnchors.
	Source string
}

// TourStateKey is the store key of the terminal client's tour progress. The
// web step table keeps its progress under tour.StateKey.
const TourStateKey = "onboarding_state_tui_v1"

// TourSteps is the tour of the terminal client's screens.
func TourSteps() []tour.Step {
	return []tour.Step{
		tuiStep("tasks-create", screenTasks, "Add tasks",
			"Press **n**, type a name and hit **enter**.", tour.Bottom),
		tuiStep("tasks-list", screenTasks, "To-do list",
			"Start a task with **s** and stop it with **x**. Starting a task starts a focus session for it.", tour.Top),
		{
			ID:       "global-timer",
			Page:     tour.AnyPage,
			Locator:  tour.AnchorLocator("global-timer"),
			Title:    "Global timer",
			Body:     "The running session follows you on every screen.",
			Position: tour.Bottom,
		},
		tuiStep("pomodoro", screenTimer, "Pomodoro sessions",
			"Start focus, take breaks, and track sessions.", tour.Bottom),
		tuiStep("timer-controls", screenTimer, "Timer controls",
			"**space** starts or pauses, **r** resets, **1** **2** **3** pick a mode.", tour.Top),
	}
}

func tuiStep(id string, sc screen, title, body string, pos tour.Position) tour.Step {
	return tour.Step{
		ID:       id,
		Page:     string(sc),
		Locator:  tour.AnchorLocator(id),
		Title:    title,
		Body:     body,
		Position: pos,
		URL:      "/" + string(sc),
	}
}

// tourSession owns the navigator of the screen currently shown. A new
// navigator is begun whenever the screen changes.
type tourSession struct {
	opts    TourOptions
	store   kv.Store
	session kv.Store
	nav     *tour.Navigator
	// pending is the screen the navigator asked for, consumed by the model.
	pending string
}

func newTourSession(opts TourOptions, store, session kv.Store) *tourSession {
	if session == nil {
		session = kv.NewMemory()
	}
	return &tourSession{opts: opts, store: store, session: session}
}

func (t *tourSession) source() tour.StepSource {
	if t.opts.Source == config.SourceAnchors {
		return tour.AnchorScan{}
	}
	return tour.Compiled(TourSteps())
}

// begin starts a navigator for page. forced applies only to the first
// screen of a run.
func (t *tourSession) begin(page tour.Page) tour.Status {
	t.pending = ""
	t.nav = tour.New(tour.Config{
		Source:    t.source(),
		Store:     t.store,
		Session:   t.session,
		CrossPage: t.opts.CrossPage,
		Navigate:  func(url string) { t.pending = url },
		Key:       TourStateKey,
	})
	st := t.nav.Begin(page, tour.Load{Onboarding: t.opts.Onboarding, Forced: t.opts.Forced})
	t.opts.Forced = false
	return st
}

func (t *tourSession) status() tour.Status {
	if t == nil || t.nav == nil {
		return tour.NotStarted
	}
	return t.nav.Status()
}

func (t *tourSession) showing() bool { return t.status() == tour.ShowingStep }

func (t *tourSession) handleKey(k string) tour.Status { return t.nav.HandleKey(k) }

// takePending returns the screen the navigator handed off to.
func (t *tourSession) takePending() (screen, bool) {
	if t == nil || t.pending == "" {
		return "", false
	}
	sc, ok := parseScreen(t.pending)
	t.pending = ""
	return sc, ok
}

// waitingOn names the screen the tour continues on, for the hint line.
func (t *tourSession) waitingOn() (screen, bool) {
	if t.status() != tour.AwaitingNavigation {
		return "", false
	}
	st, ok := t.nav.Target()
	if !ok {
		return "", false
	}
	return parseScreen(st.URL)
}

const popoverMaxWidth = 46

func (m appModel) renderPopover(v tour.View) string {
	w := min(popoverMaxWidth, max(m.width-2, 24))
	inner := w - 4

	title := lipgloss.NewStyle().Bold(true).Foreground(colorAccent).Render(v.Step.Title)
	body := renderMarkdown(v.Step.Body, inner)
	button := lipgloss.NewStyle().
		Foreground(colorAccentFg).
		Background(colorAccent).
		Padding(0, 1).
		Render(v.Button + " ⏎")
	footer := styleMuted().Render(v.Progress) + "  " + button + "  " + styleMuted().Render("esc skip")

	content := lipgloss.JoinVertical(lipgloss.Left, title, "", body, "", footer)
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorAccent).
		Padding(0, 1).
		Width(inner + 2).
		Render(content)
}

// withTour composites the current step onto frame: the anchor is
// highlighted and the popover placed next to it.
func (m appModel) withTour(frame string) string {
	if !m.tour.showing() {
		return frame
	}
	v, ok := m.tour.nav.Current()
	if !ok {
		return frame
	}
	frame = highlight(frame, v.Anchor.Rect(), lipgloss.NewStyle().Reverse(true))
	card := m.renderPopover(v)
	r := tour.Place(
		v.Anchor.Rect(),
		tour.Size{W: lipgloss.Width(card), H: lipgloss.Height(card)},
		tour.Size{W: m.width, H: m.height},
		v.Step.Position,
		popoverMargin,
	)
	return overlay(frame, card, r.X, r.Y)
}

const popoverMargin = 1
