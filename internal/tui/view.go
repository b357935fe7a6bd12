package tui

import (
	"strings"

	"focusdeck/internal/pomodoro"
	"focusdeck/internal/tour"

	"github.com/charmbracelet/lipgloss"
)

// layout renders the frame for the current state and publishes the anchor
// rects to the screen's tour page.
func (m *appModel) layout() {
	rects := map[string]tour.Rect{}

	header, clock := m.renderHeader()
	rects["global-timer"] = clock

	lines := []string{header, ""}
	switch m.screen {
	case screenTasks:
		lines = append(lines, m.renderTasks(len(lines), rects)...)
	case screenTimer:
		lines = append(lines, m.renderTimer(len(lines), rects)...)
	}

	footer := []string{m.renderFlash(), m.help.ShortHelpView(m.keys.screenHelp(m.screen, m.tour.showing()))}
	for len(lines)+len(footer) < m.height {
		lines = append(lines, "")
	}
	lines = append(lines, footer...)

	m.page.setAnchors(rects)
	m.frame = normalizePane(strings.Join(lines, "\n"), m.width, m.height)
}

// renderHeader returns the tab bar with the global timer and the timer's
// rect on row 0.
func (m appModel) renderHeader() (string, tour.Rect) {
	active := lipgloss.NewStyle().Bold(true).Foreground(colorAccentFg).Background(colorAccent).Padding(0, 1)
	inactive := styleMuted().Padding(0, 1)

	var tabs []string
	for _, sc := range screens {
		if sc == m.screen {
			tabs = append(tabs, active.Render(string(sc)))
		} else {
			tabs = append(tabs, inactive.Render(string(sc)))
		}
	}
	left := strings.Join(tabs, " ")

	s := m.state
	clock := lipgloss.NewStyle().Bold(true).Foreground(modeColor(s.Mode)).Render(pomodoro.FormatClock(s.Remaining)) +
		" · " + pomodoro.StatusLine(s)
	if s.TaskName != "" {
		clock += " · " + s.TaskName
	}
	r := tour.Rect{X: lipgloss.Width(left) + 2, Y: 0, W: lipgloss.Width(clock), H: 1}
	if sc, ok := m.tour.waitingOn(); ok && sc != m.screen {
		clock += styleMuted().Render("  (tour continues on " + string(sc) + ")")
	}
	return left + "  " + clock, r
}

func (m appModel) renderFlash() string {
	if m.flash == "" {
		return ""
	}
	if m.flashErr {
		return lipgloss.NewStyle().Foreground(colorAccentFg).Background(colorFlashErrorBg).Padding(0, 1).Render(m.flash)
	}
	return lipgloss.NewStyle().Foreground(colorAccent).Render(m.flash)
}

func (m appModel) View() string {
	return m.withTour(m.frame)
}

func splitLines(s string) []string { return strings.Split(s, "\n") }
