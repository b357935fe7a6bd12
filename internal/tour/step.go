package tour

import (
	"fmt"
	"strings"
)

// Position is the side of the anchor a popover prefers.
type Position string

const (
	Bottom Position = "bottom"
	Top    Position = "top"
	Left   Position = "left"
	Right  Position = "right"
)

// ParsePosition maps unknown or empty values to Bottom.
func ParsePosition(s string) Position {
	switch Position(strings.ToLower(strings.TrimSpace(s))) {
	case Top:
		return Top
	case Left:
		return Left
	case Right:
		return Right
	default:
		return Bottom
	}
}

// AnyPage is the page name of steps shown on every page.
const AnyPage = "*"

// Step is one stop of the tour.
type Step struct {
	ID       string   `json:"id"`
	Page     string   `json:"page"`
	Locator  string   `json:"locator"`
	Title    string   `json:"title"`
	Body     string   `json:"body"`
	Position Position `json:"position"`
	URL      string   `json:"url"`
	Order    int      `json:"order,omitempty"`
}

// OnPage reports whether the step belongs to the page named name.
func (s Step) OnPage(name string) bool {
	return s.Page == AnyPage || s.Page == name
}

// AnchorAttr is the attribute that marks tour anchors.
const AnchorAttr = "data-tour-id"

// AnchorLocator returns the locator of the anchor carrying the given tour id.
func AnchorLocator(id string) string {
	return fmt.Sprintf("[%s=%q]", AnchorAttr, id)
}

// ParseLocator splits an attribute locator such as [data-tour-id="x"] into
// attribute name and value. "#x" is treated as [id="x"]. A bare word is taken
// as a tour id.
func ParseLocator(loc string) (attr, value string, ok bool) {
	loc = strings.TrimSpace(loc)
	switch {
	case loc == "":
		return "", "", false
	case strings.HasPrefix(loc, "#"):
		return "id", loc[1:], len(loc) > 1
	case strings.HasPrefix(loc, "[") && strings.HasSuffix(loc, "]"):
		inner := loc[1 : len(loc)-1]
		name, val, found := strings.Cut(inner, "=")
		if !found {
			return "", "", false
		}
		val = strings.Trim(strings.TrimSpace(val), `"'`)
		return strings.TrimSpace(name), val, true
	case strings.ContainsAny(loc, " [].#=\"'"):
		return "", "", false
	default:
		return AnchorAttr, loc, true
	}
}

// DefaultSteps is the web client's tour across its pages.
func DefaultSteps() []Step {
	return []Step{
		webStep("labels-create", "labels", "Create tags first", "Start by defining labels so projects and tasks stay organized.", Bottom),
		webStep("projects-create", "projects", "Create projects", "Group related work into projects.", Bottom),
		webStep("tasks-create", "tasks", "Add tasks", "Choose a project, name the task, and tag it.", Bottom),
		webStep("tasks-list", "tasks", "To-do list", "Start/stop timers and mark tasks done today here.", Top),
		webStep("pomodoro", "timer", "Pomodoro sessions", "Start focus, take breaks, and track sessions.", Bottom),
		webStep("calendar-board", "calendar", "Calendar view", "Review weekly checks and streaks.", Top),
		webStep("overview-summary", "overview", "Overview", "A high-level snapshot of your progress.", Bottom),
		webStep("habits-checklist", "habits", "Habits checklist", "Mark daily routines and build streaks.", Bottom),
		webStep("goals-hub", "goals", "Goals", "Track weekly and long-term outcomes.", Bottom),
	}
}

func webStep(id, page, title, body string, pos Position) Step {
	return Step{
		ID:       id,
		Page:     page,
		Locator:  AnchorLocator(id),
		Title:    title,
		Body:     body,
		Position: pos,
		URL:      "/" + page,
	}
}
