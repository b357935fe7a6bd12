package tour

import (
	"sort"
	"strconv"
	"strings"
)

// StepSource supplies the ordered steps for a page.
type StepSource interface {
	Steps(p Page) []Step
	// PageLocal reports whether the steps describe only the page they were
	// read from, in which case the navigator never leaves that page.
	PageLocal() bool
}

// Compiled is a fixed step table shared by every page.
type Compiled []Step

func (c Compiled) Steps(Page) []Step { return append([]Step(nil), c...) }
func (c Compiled) PageLocal() bool   { return false }

// Attributes read by AnchorScan.
const (
	AttrTitle    = "data-tour-title"
	AttrBody     = "data-tour-body"
	AttrText     = "data-tour-text"
	AttrPosition = "data-tour-position"
	AttrOrder    = "data-tour-order"
)

// AnchorScan discovers steps from the metadata on the page's anchors.
// Anchors without an order keep document order after the ordered ones.
type AnchorScan struct{}

func (AnchorScan) PageLocal() bool { return true }

func (AnchorScan) Steps(p Page) []Step {
	if p == nil {
		return nil
	}
	type entry struct {
		step    Step
		ordered bool
	}
	var entries []entry
	for _, el := range p.Anchors() {
		if el == nil {
			continue
		}
		id, ok := el.Attr(AnchorAttr)
		if !ok || strings.TrimSpace(id) == "" {
			continue
		}
		st := Step{
			ID:       id,
			Page:     p.Name(),
			Locator:  AnchorLocator(id),
			Position: Bottom,
			URL:      p.Path(),
		}
		st.Title, _ = el.Attr(AttrTitle)
		if body, ok := el.Attr(AttrBody); ok {
			st.Body = body
		} else {
			st.Body, _ = el.Attr(AttrText)
		}
		if pos, ok := el.Attr(AttrPosition); ok {
			st.Position = ParsePosition(pos)
		}
		e := entry{step: st}
		if raw, ok := el.Attr(AttrOrder); ok {
			if n, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil {
				e.step.Order = n
				e.ordered = true
			}
		}
		entries = append(entries, e)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.ordered != b.ordered {
			return a.ordered
		}
		return a.ordered && a.step.Order < b.step.Order
	})
	steps := make([]Step, len(entries))
	for i, e := range entries {
		steps[i] = e.step
	}
	return steps
}
