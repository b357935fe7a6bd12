package tui

import (
	"context"
	"fmt"
	"strings"

	"focusdeck/internal/pomodoro"
	"focusdeck/internal/taskapi"
	"focusdeck/internal/tour"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

func (m appModel) selectedTask() (taskapi.Task, bool) {
	tasks := m.cache.Tasks()
	if m.cursor < 0 || m.cursor >= len(tasks) {
		return taskapi.Task{}, false
	}
	return tasks[m.cursor], true
}

func (m appModel) updateTasks(msg tea.KeyMsg) (appModel, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.cursor = clampCursor(m.cursor-1, m.cache.Len())
		return m, nil
	case key.Matches(msg, m.keys.Down):
		m.cursor = clampCursor(m.cursor+1, m.cache.Len())
		return m, nil
	case key.Matches(msg, m.keys.New):
		if m.tasks == nil {
			return m.setFlash("Task API not configured", true)
		}
		m.adding = true
		m.input.SetValue("")
		cmd := m.input.Focus()
		return m, cmd
	case key.Matches(msg, m.keys.Refresh):
		if m.tasks == nil {
			return m.setFlash("Task API not configured", true)
		}
		return m, m.taskCmd("list", "", m.tasks.List)
	}

	t, ok := m.selectedTask()
	if !ok {
		return m, nil
	}
	id := t.Key()
	switch {
	case key.Matches(msg, m.keys.Start):
		// The focus session follows the task whether or not the service
		// accepts the start.
		m.state = m.timer.Start(id, t.Name)
		if m.tasks == nil {
			return m, nil
		}
		return m, m.taskCmd("start", t.Name, func(ctx context.Context) ([]taskapi.Task, error) {
			return m.tasks.Start(ctx, id)
		})
	case key.Matches(msg, m.keys.Stop):
		m.state = m.timer.Stop(id)
		if m.tasks == nil {
			return m, nil
		}
		return m, m.taskCmd("stop", t.Name, func(ctx context.Context) ([]taskapi.Task, error) {
			return m.tasks.Stop(ctx, id)
		})
	case key.Matches(msg, m.keys.Delete):
		if m.tasks == nil {
			return m, nil
		}
		return m, m.taskCmd("delete", t.Name, func(ctx context.Context) ([]taskapi.Task, error) {
			return m.tasks.Delete(ctx, id)
		})
	}
	return m, nil
}

func (m appModel) updateInput(msg tea.KeyMsg) (appModel, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.adding = false
		m.input.Blur()
		return m, nil
	case "enter":
		name := strings.TrimSpace(m.input.Value())
		if name == "" {
			return m, nil
		}
		m.adding = false
		m.input.Blur()
		m.input.SetValue("")
		return m, m.taskCmd("create", name, func(ctx context.Context) ([]taskapi.Task, error) {
			return m.tasks.Create(ctx, taskapi.CreateRequest{Name: name})
		})
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// renderTasks lays out the tasks screen from row y and records the rects of
// its anchors.
func (m appModel) renderTasks(y int, rects map[string]tour.Rect) []string {
	var lines []string

	create := styleMuted().Render("+ New task (n)")
	if m.adding {
		create = m.input.View()
	}
	rects["tasks-create"] = tour.Rect{X: 0, Y: y, W: lipgloss.Width(create), H: 1}
	lines = append(lines, create, "")

	listTop := y + len(lines)
	list := m.taskRows()
	listW := 0
	for _, ln := range list {
		listW = max(listW, lipgloss.Width(ln))
	}
	rects["tasks-list"] = tour.Rect{X: 0, Y: listTop, W: listW, H: len(list)}
	return append(lines, list...)
}

func (m appModel) taskRows() []string {
	heading := lipgloss.NewStyle().Bold(true).Render("Tasks")
	if n := m.cache.Len(); n > 0 {
		heading += styleMuted().Render(fmt.Sprintf("  %d", n))
	}
	rows := []string{heading}

	tasks := m.cache.Tasks()
	if len(tasks) == 0 {
		empty := "No tasks yet. Press n to add one."
		if m.tasks == nil {
			empty = "Task API not configured (api.baseURL)."
		}
		return append(rows, styleMuted().Render(empty))
	}

	nameW := 0
	for _, t := range tasks {
		nameW = max(nameW, lipgloss.Width(t.Name))
	}
	nameW = min(nameW, 40)

	selected := lipgloss.NewStyle().Background(colorSelectedBg).Foreground(colorSelectedFg)
	for i, t := range tasks {
		marker := "○"
		if t.IsRunning {
			marker = lipgloss.NewStyle().Foreground(colorWork).Render("●")
		}
		name := lipgloss.NewStyle().Width(nameW).MaxWidth(nameW).Render(t.Name)
		row := fmt.Sprintf("%s %s  %s", marker, name, pomodoro.FormatDuration(t.TotalSeconds))
		if t.ProjectName != "" {
			row += "  " + styleMuted().Render(t.ProjectName)
		}
		for _, l := range t.Labels {
			row += " " + styleMuted().Render("#"+l.Name)
		}
		if i == m.cursor {
			row = selected.Render("› " + row)
		} else {
			row = "  " + row
		}
		rows = append(rows, row)
	}
	return rows
}
