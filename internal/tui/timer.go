package tui

import (
	"fmt"

	"focusdeck/internal/pomodoro"
	"focusdeck/internal/tour"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

func (m appModel) updateTimer(msg tea.KeyMsg) (appModel, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Toggle):
		m.state = m.timer.Toggle()
	case key.Matches(msg, m.keys.Reset), key.Matches(msg, m.keys.Work):
		m.state = m.timer.Reset(pomodoro.Work)
	case key.Matches(msg, m.keys.Short):
		m.state = m.timer.Reset(pomodoro.ShortBreak)
	case key.Matches(msg, m.keys.Long):
		m.state = m.timer.Reset(pomodoro.LongBreak)
	}
	return m, nil
}

func modeColor(mode pomodoro.Mode) lipgloss.AdaptiveColor {
	if mode.IsBreak() {
		return colorBreak
	}
	return colorWork
}

// renderTimer lays out the timer screen from row y.
func (m appModel) renderTimer(y int, rects map[string]tour.Rect) []string {
	s := m.state
	label := lipgloss.NewStyle().Bold(true).Foreground(modeColor(s.Mode)).Render(pomodoro.Label(s.Mode))
	clock := lipgloss.NewStyle().Bold(true).Render(pomodoro.FormatClock(s.Remaining))
	status := styleMuted().Render(pomodoro.StatusLine(s))
	inner := []string{label, clock, status}
	if tl := pomodoro.TaskLine(s); tl != "" {
		inner = append(inner, tl)
	}
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorCardBorder).
		Padding(1, 4).
		Align(lipgloss.Center).
		Render(lipgloss.JoinVertical(lipgloss.Center, inner...))
	rects["pomodoro"] = tour.Rect{X: 0, Y: y, W: lipgloss.Width(box), H: lipgloss.Height(box)}

	lines := append([]string{}, splitLines(box)...)
	lines = append(lines, "", fmt.Sprintf("Completed focus sessions: %d", s.CompletedWork), "")

	verb := "start"
	if s.IsRunning {
		verb = "pause"
	} else if s.Remaining < pomodoro.Preset(s.Mode) {
		verb = "resume"
	}
	controls := fmt.Sprintf("[space] %s  [r] reset  [1] focus  [2] short break  [3] long break", verb)
	rects["timer-controls"] = tour.Rect{X: 0, Y: y + len(lines), W: lipgloss.Width(controls), H: 1}
	return append(lines, controls)
}
