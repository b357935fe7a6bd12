package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	NextScreen key.Binding
	PrevScreen key.Binding
	Theme      key.Binding
	Quit       key.Binding

	// tasks
	Up      key.Binding
	Down    key.Binding
	New     key.Binding
	Start   key.Binding
	Stop    key.Binding
	Delete  key.Binding
	Refresh key.Binding

	// timer
	Toggle key.Binding
	Reset  key.Binding
	Work   key.Binding
	Short  key.Binding
	Long   key.Binding

	// tour popover
	TourNext key.Binding
	TourSkip key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		NextScreen: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch screen")),
		PrevScreen: key.NewBinding(key.WithKeys("shift+tab")),
		Theme:      key.NewBinding(key.WithKeys("T"), key.WithHelp("T", "theme")),
		Quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),

		Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		New:     key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new")),
		Start:   key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "start")),
		Stop:    key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "stop")),
		Delete:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),

		Toggle: key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "start/pause")),
		Reset:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset")),
		Work:   key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "focus")),
		Short:  key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "short")),
		Long:   key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "long")),

		TourNext: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "next")),
		TourSkip: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "skip tour")),
	}
}

func (k keyMap) screenHelp(sc screen, touring bool) []key.Binding {
	var out []key.Binding
	switch sc {
	case screenTasks:
		out = []key.Binding{k.Up, k.Down, k.New, k.Start, k.Stop, k.Delete, k.Refresh}
	case screenTimer:
		out = []key.Binding{k.Toggle, k.Reset, k.Work, k.Short, k.Long}
	}
	if touring {
		out = append(out, k.TourNext, k.TourSkip)
	}
	return append(out, k.NextScreen, k.Theme, k.Quit)
}
