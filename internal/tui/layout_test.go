package tui

import (
	"testing"

	"focusdeck/internal/tour"

	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"
)

func TestNormalizePane(t *testing.T) {
	got := normalizePane("abcdef\nxy", 4, 3)
	want := "abc…\nxy  \n    "
	if got != want {
		t.Fatalf("normalizePane = %q, want %q", got, want)
	}
	if got := normalizePane("a\nb\nc", 1, 2); got != "a\nb" {
		t.Fatalf("expected rows truncated, got %q", got)
	}
}

func TestOverlay(t *testing.T) {
	base := "abcdef\nghijkl"
	cases := []struct {
		name string
		x, y int
		want string
	}{
		{"inside", 2, 1, "abcdef\nghXYkl"},
		{"clipped right", 5, 0, "abcdeX\nghijkl"},
		{"clipped left", -1, 0, "Ybcdef\nghijkl"},
		{"below", 0, 2, base},
		{"past right edge", 6, 0, base},
	}
	for _, tc := range cases {
		if got := overlay(base, "XY", tc.x, tc.y); got != tc.want {
			t.Fatalf("%s: overlay = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestHighlight_KeepsWidth(t *testing.T) {
	base := normalizePane("hello world\nsecond", 12, 2)
	got := highlight(base, tour.Rect{X: 6, Y: 0, W: 5, H: 1}, lipgloss.NewStyle().Reverse(true))
	if xansi.Strip(got) != base {
		t.Fatalf("highlight changed text: %q", xansi.Strip(got))
	}
	if got := highlight(base, tour.Rect{}, lipgloss.NewStyle()); got != base {
		t.Fatalf("empty rect should be a no-op")
	}
}

func TestScreenPage_Query(t *testing.T) {
	p := &screenPage{name: screenTasks}
	p.setAnchors(map[string]tour.Rect{
		"tasks-create": {X: 0, Y: 2, W: 10, H: 1},
		"tasks-list":   {X: 0, Y: 4, W: 0, H: 3},
		"pomodoro":     {X: 0, Y: 2, W: 10, H: 5},
	})
	if len(p.Anchors()) != 2 {
		t.Fatalf("expected only this screen's anchors, got %d", len(p.Anchors()))
	}
	el := p.Query(tour.AnchorLocator("tasks-create"))
	if el == nil || !el.Visible() || el.Rect().Y != 2 {
		t.Fatalf("unexpected element %#v", el)
	}
	if title, _ := el.Attr(tour.AttrTitle); title != "Add tasks" {
		t.Fatalf("title attr = %q", title)
	}
	if el := p.Query(tour.AnchorLocator("tasks-list")); el == nil || el.Visible() {
		t.Fatalf("zero-width anchor must be present but hidden")
	}
	if el := p.Query("#tasks-create"); el != nil {
		t.Fatalf("id locator should not match, got %#v", el)
	}
	if p.Path() != "/tasks" {
		t.Fatalf("path = %s", p.Path())
	}
}
