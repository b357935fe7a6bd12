package tui

import (
	"strconv"

	"focusdeck/internal/tour"
)

// screen is one page of the terminal client.
type screen string

const (
	screenTasks screen = "tasks"
	screenTimer screen = "timer"
)

var screens = []screen{screenTasks, screenTimer}

func parseScreen(s string) (screen, bool) {
	for _, sc := range screens {
		if string(sc) == s || "/"+string(sc) == s {
			return sc, true
		}
	}
	return "", false
}

// anchor is a region of the last rendered frame that a tour step can point
// at. Rects are in terminal cells relative to the top-left of the frame.
type anchor struct {
	id    string
	rect  tour.Rect
	attrs map[string]string
}

func (a *anchor) Visible() bool  { return !a.rect.Empty() }
func (a *anchor) Rect() tour.Rect { return a.rect }

func (a *anchor) Attr(name string) (string, bool) {
	if name == tour.AnchorAttr {
		return a.id, true
	}
	v, ok := a.attrs[name]
	return v, ok
}

// screenPage exposes a rendered screen to the tour navigator. Anchors are
// replaced on every layout pass so the navigator sees the current frame.
type screenPage struct {
	name    screen
	anchors []*anchor
}

func (p *screenPage) Name() string { return string(p.name) }
func (p *screenPage) Path() string { return "/" + string(p.name) }

func (p *screenPage) Query(locator string) tour.Element {
	attr, value, ok := tour.ParseLocator(locator)
	if !ok {
		return nil
	}
	for _, a := range p.anchors {
		if v, ok := a.Attr(attr); ok && v == value {
			return a
		}
	}
	return nil
}

func (p *screenPage) Anchors() []tour.Element {
	out := make([]tour.Element, 0, len(p.anchors))
	for _, a := range p.anchors {
		out = append(out, a)
	}
	return out
}

// setAnchors installs the anchors of a new frame, attaching the tour copy
// that the anchor-scan source reads.
func (p *screenPage) setAnchors(rects map[string]tour.Rect) {
	p.anchors = p.anchors[:0]
	for i, st := range TourSteps() {
		if !st.OnPage(string(p.name)) {
			continue
		}
		r, ok := rects[st.ID]
		if !ok {
			continue
		}
		p.anchors = append(p.anchors, &anchor{
			id:   st.ID,
			rect: r,
			attrs: map[string]string{
				tour.AttrTitle:    st.Title,
				tour.AttrBody:     st.Body,
				tour.AttrPosition: string(st.Position),
				tour.AttrOrder:    strconv.Itoa(i),
			},
		})
	}
}
