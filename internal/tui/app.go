package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"focusdeck/internal/debug"
	"focusdeck/internal/kv"
	"focusdeck/internal/pomodoro"
	"focusdeck/internal/taskapi"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// TaskService is the part of the task API the client drives.
type TaskService interface {
	List(ctx context.Context) ([]taskapi.Task, error)
	Create(ctx context.Context, req taskapi.CreateRequest) ([]taskapi.Task, error)
	Start(ctx context.Context, id string) ([]taskapi.Task, error)
	Stop(ctx context.Context, id string) ([]taskapi.Task, error)
	Delete(ctx context.Context, id string) ([]taskapi.Task, error)
}

const (
	windowTitle  = "focusdeck"
	taskTimeout  = 15 * time.Second
	flashTimeout = 4 * time.Second
)

type (
	tickMsg       time.Time
	changeMsg     kv.Change
	timerEventMsg pomodoro.Event
	tasksMsg      struct {
		op    string
		name  string
		tasks []taskapi.Task
		err   error
	}
	flashClearMsg struct{ seq int }
)

type appModel struct {
	store kv.Store
	timer *pomodoro.Timer
	tasks TaskService
	cache *taskapi.Cache
	tour  *tourSession

	width  int
	height int

	screen screen
	page   *screenPage
	frame  string
	state  pomodoro.State
	title  string

	cursor int
	adding bool
	input  textinput.Model
	chord  string

	keys keyMap
	help help.Model

	theme    string
	flash    string
	flashErr bool
	flashSeq int
}

func newAppModel(opts Options) appModel {
	timer := opts.Timer
	if timer == nil {
		timer = pomodoro.New(opts.Store, pomodoro.Options{})
	}
	m := appModel{
		store:  opts.Store,
		timer:  timer,
		tasks:  opts.Tasks,
		cache:  taskapi.NewCache(),
		tour:   newTourSession(opts.Tour, opts.Store, opts.Session),
		width:  80,
		height: 24,
		screen: screenTasks,
		keys:   defaultKeyMap(),
		help:   help.New(),
	}
	if sc, ok := parseScreen(opts.Screen); ok {
		m.screen = sc
	}

	pref := storedTheme(opts.Store)
	if pref == "" {
		pref = opts.Theme
	}
	m.theme = applyThemePreference(pref)

	m.input = textinput.New()
	m.input.Placeholder = "Task name"
	m.input.Prompt = "+ "
	m.input.CharLimit = 200

	m.state = m.timer.Tick()
	m.page = &screenPage{name: m.screen}
	m.layout()
	m.beginTour(true)
	m.layout()
	return m
}

func (m appModel) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd(), tea.SetWindowTitle(pomodoro.Title(m.state, windowTitle))}
	if m.tasks != nil {
		cmds = append(cmds, m.taskCmd("list", "", m.tasks.List))
	}
	return tea.Batch(cmds...)
}

func tickCmd() tea.Cmd {
	return tea.Tick(pomodoro.DefaultInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	m, cmd := m.update(msg)
	m.layout()
	if t := pomodoro.Title(m.state, windowTitle); t != m.title {
		m.title = t
		cmd = tea.Batch(cmd, tea.SetWindowTitle(t))
	}
	return m, cmd
}

func (m appModel) update(msg tea.Msg) (appModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tickMsg:
		m.state = m.timer.Tick()
		return m, tickCmd()

	case changeMsg:
		switch msg.Key {
		case m.timer.Key():
			m.state = m.timer.Tick()
		case themeKey:
			if theme := storedTheme(m.store); theme != "" && theme != m.theme {
				m.theme = setTheme(theme)
			}
		}
		return m, nil

	case timerEventMsg:
		if msg.Kind == pomodoro.EventComplete {
			m.state = msg.State
			return m.setFlash(msg.Title+": "+msg.Message, false)
		}
		return m, nil

	case tasksMsg:
		if msg.err != nil {
			debug.Log("tui: task %s: %v", msg.op, msg.err)
			return m.setFlash(taskErrorText(msg.op, msg.err), true)
		}
		m.cache.Replace(msg.tasks)
		m.cursor = clampCursor(m.cursor, m.cache.Len())
		if text := taskDoneText(msg.op, msg.name); text != "" {
			return m.setFlash(text, false)
		}
		return m, nil

	case flashClearMsg:
		if msg.seq == m.flashSeq {
			m.flash = ""
			m.flashErr = false
		}
		return m, nil

	case tea.KeyMsg:
		return m.updateKey(msg)
	}

	if m.adding {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m appModel) updateKey(msg tea.KeyMsg) (appModel, tea.Cmd) {
	if m.adding {
		return m.updateInput(msg)
	}
	if msg.String() == "ctrl+c" || key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}

	if m.chord == "g" {
		m.chord = ""
		switch msg.String() {
		case "t":
			return m.switchScreen(screenTasks, false), nil
		case "p":
			return m.switchScreen(screenTimer, false), nil
		}
		return m, nil
	}

	if m.tour.showing() && (key.Matches(msg, m.keys.TourNext) || key.Matches(msg, m.keys.TourSkip)) {
		m.tour.handleKey(msg.String())
		if sc, ok := m.tour.takePending(); ok {
			return m.switchScreen(sc, true), nil
		}
		return m, nil
	}

	switch {
	case msg.String() == "g":
		m.chord = "g"
		return m, nil
	case key.Matches(msg, m.keys.NextScreen):
		return m.switchScreen(m.cycleScreen(1), false), nil
	case key.Matches(msg, m.keys.PrevScreen):
		return m.switchScreen(m.cycleScreen(-1), false), nil
	case key.Matches(msg, m.keys.Theme):
		m.theme = setTheme(oppositeTheme(m.theme))
		saveTheme(m.store, m.theme)
		return m.setFlash("Theme: "+m.theme, false)
	}

	switch m.screen {
	case screenTasks:
		return m.updateTasks(msg)
	case screenTimer:
		return m.updateTimer(msg)
	}
	return m, nil
}

func (m appModel) cycleScreen(delta int) screen {
	for i, sc := range screens {
		if sc == m.screen {
			return screens[(i+delta+len(screens))%len(screens)]
		}
	}
	return screens[0]
}

// switchScreen shows sc and begins a navigator for it. Screens the user
// picks are never overridden by a tour hand-off; the header names the screen
// the tour continues on instead.
func (m appModel) switchScreen(sc screen, followTour bool) appModel {
	if sc == m.screen && !followTour {
		return m
	}
	m.screen = sc
	m.page = &screenPage{name: sc}
	m.layout()
	m.beginTour(followTour)
	return m
}

// beginTour starts the tour on the current screen. With follow set it keeps
// switching to the screen the navigator hands off to until one shows a step.
// Each hand-off targets a later step, so the chain is bounded by the step
// count.
func (m *appModel) beginTour(follow bool) {
	m.tour.begin(m.page)
	if !follow {
		return
	}
	for range len(TourSteps()) {
		sc, ok := m.tour.takePending()
		if !ok || sc == m.screen {
			return
		}
		m.screen = sc
		m.page = &screenPage{name: sc}
		m.layout()
		m.tour.begin(m.page)
	}
}

func (m appModel) setFlash(text string, isErr bool) (appModel, tea.Cmd) {
	m.flashSeq++
	m.flash = text
	m.flashErr = isErr
	seq := m.flashSeq
	return m, tea.Tick(flashTimeout, func(time.Time) tea.Msg { return flashClearMsg{seq: seq} })
}

func (m appModel) taskCmd(op, name string, fn func(context.Context) ([]taskapi.Task, error)) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), taskTimeout)
		defer cancel()
		tasks, err := fn(ctx)
		return tasksMsg{op: op, name: name, tasks: tasks, err: err}
	}
}

func taskErrorText(op string, err error) string {
	var se *taskapi.StatusError
	if errors.As(err, &se) && se.Body != "" {
		return fmt.Sprintf("Could not %s task: %s", op, se.Body)
	}
	if op == "list" {
		return "Could not load tasks"
	}
	return fmt.Sprintf("Could not %s task", op)
}

func taskDoneText(op, name string) string {
	switch op {
	case "create":
		return "Created " + name
	case "start":
		return "Started " + name
	case "stop":
		return "Stopped " + name
	case "delete":
		return "Deleted " + name
	default:
		return ""
	}
}

func clampCursor(cursor, n int) int {
	if n == 0 {
		return 0
	}
	return min(max(cursor, 0), n-1)
}
