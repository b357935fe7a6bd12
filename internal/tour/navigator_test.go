package tour

import (
	"reflect"
	"testing"

	"focusdeck/internal/kv"
)

type fakeElement struct {
	hidden bool
	rect   Rect
	attrs  map[string]string
}

func (e *fakeElement) Visible() bool { return !e.hidden }
func (e *fakeElement) Rect() Rect    { return e.rect }
func (e *fakeElement) Attr(name string) (string, bool) {
	v, ok := e.attrs[name]
	return v, ok
}

type fakePage struct {
	name    string
	path    string
	anchors []*fakeElement
}

func (p *fakePage) Name() string { return p.name }
func (p *fakePage) Path() string { return p.path }
func (p *fakePage) Query(loc string) Element {
	attr, val, ok := ParseLocator(loc)
	if !ok {
		return nil
	}
	for _, a := range p.anchors {
		if v, ok := a.attrs[attr]; ok && v == val {
			return a
		}
	}
	return nil
}
func (p *fakePage) Anchors() []Element {
	out := make([]Element, 0, len(p.anchors))
	for _, a := range p.anchors {
		out = append(out, a)
	}
	return out
}

func anchor(id string) *fakeElement {
	return &fakeElement{rect: Rect{X: 10, Y: 10, W: 20, H: 3}, attrs: map[string]string{AnchorAttr: id}}
}

func page(name string, ids ...string) *fakePage {
	p := &fakePage{name: name, path: "/" + name}
	for _, id := range ids {
		p.anchors = append(p.anchors, anchor(id))
	}
	return p
}

func abcSteps() Compiled {
	return Compiled{
		{ID: "a", Page: "tasks", Locator: AnchorLocator("a"), URL: "/tasks"},
		{ID: "b", Page: "labels", Locator: AnchorLocator("b"), URL: "/labels"},
		{ID: "c", Page: "tasks", Locator: AnchorLocator("c"), URL: "/tasks"},
	}
}

type harness struct {
	store, session *kv.Memory
	navigated      []string
}

func newHarness() *harness {
	return &harness{store: kv.NewMemory(), session: kv.NewMemory()}
}

func (h *harness) nav(src StepSource, cross bool) *Navigator {
	return New(Config{
		Source:    src,
		Store:     h.store,
		Session:   h.session,
		CrossPage: cross,
		Navigate:  func(url string) { h.navigated = append(h.navigated, url) },
	})
}

func onboarding() Load { return Load{Onboarding: true} }

func TestBegin_SkipsWrongPageAndShowsLaterStep(t *testing.T) {
	for _, cross := range []bool{false, true} {
		h := newHarness()
		n := h.nav(abcSteps(), cross)
		if got := n.Begin(page("labels", "b"), onboarding()); got != ShowingStep {
			t.Fatalf("cross=%v: expected ShowingStep, got %s", cross, got)
		}
		if n.Index() != 1 || len(h.navigated) != 0 {
			t.Fatalf("cross=%v: expected B shown without navigation, index=%d nav=%v", cross, n.Index(), h.navigated)
		}
		if p := LoadProgress(h.store); p != (Progress{Index: 1}) {
			t.Fatalf("cross=%v: unexpected progress %#v", cross, p)
		}
	}
}

func TestBegin_NotOnboarding(t *testing.T) {
	h := newHarness()
	n := h.nav(abcSteps(), true)
	if got := n.Begin(page("tasks", "a"), Load{}); got != NotStarted {
		t.Fatalf("expected NotStarted, got %s", got)
	}
	if _, ok, _ := h.store.Get(StateKey); ok {
		t.Fatalf("nothing should be persisted")
	}
}

func TestBegin_CompleteIsTerminalUnlessForced(t *testing.T) {
	h := newHarness()
	_ = kv.PutJSON(h.store, StateKey, Progress{Index: 2, Done: true})
	n := h.nav(abcSteps(), true)
	if got := n.Begin(page("tasks", "a", "c"), onboarding()); got != Complete {
		t.Fatalf("expected Complete, got %s", got)
	}
	if got := n.Begin(page("tasks", "a", "c"), Load{Onboarding: true, Forced: true}); got != ShowingStep || n.Index() != 0 {
		t.Fatalf("forced restart should show first step, got %s at %d", got, n.Index())
	}
	if p := LoadProgress(h.store); p.Done {
		t.Fatalf("forced restart must clear done")
	}
}

func TestBegin_NoResolvableStepDoesNotComplete(t *testing.T) {
	h := newHarness()
	n := h.nav(abcSteps(), false)
	p := page("tasks", "a", "c")
	for _, a := range p.anchors {
		a.hidden = true
	}
	if got := n.Begin(p, onboarding()); got != NotStarted {
		t.Fatalf("expected NotStarted, got %s", got)
	}
	if LoadProgress(h.store).Done {
		t.Fatalf("exhaustion must not mark the tour complete")
	}
}

func TestBegin_ZeroSizedAnchorIsSkipped(t *testing.T) {
	h := newHarness()
	n := h.nav(abcSteps(), false)
	p := page("tasks", "a", "c")
	p.anchors[0].rect = Rect{X: 5, Y: 5}
	if got := n.Begin(p, onboarding()); got != ShowingStep || n.Index() != 2 {
		t.Fatalf("expected step c, got %s at %d", got, n.Index())
	}
}

func TestBegin_CrossPageNavigatesToStoredStep(t *testing.T) {
	h := newHarness()
	_ = kv.PutJSON(h.store, StateKey, Progress{Index: 1})
	n := h.nav(abcSteps(), true)
	if got := n.Begin(page("tasks"), onboarding()); got != AwaitingNavigation {
		t.Fatalf("expected AwaitingNavigation, got %s", got)
	}
	if !reflect.DeepEqual(h.navigated, []string{"/labels"}) {
		t.Fatalf("unexpected navigation %v", h.navigated)
	}
	if st, ok := n.Target(); !ok || st.ID != "b" {
		t.Fatalf("unexpected target %#v", st)
	}
	if v, ok, _ := h.session.Get(NavKey); !ok || v != "1" {
		t.Fatalf("expected nav marker 1, got %q %v", v, ok)
	}

	// The next page consumes the marker.
	n2 := h.nav(abcSteps(), true)
	if got := n2.Begin(page("labels", "b"), onboarding()); got != ShowingStep || n2.Index() != 1 {
		t.Fatalf("expected b on labels, got %s at %d", got, n2.Index())
	}
	if _, ok, _ := h.session.Get(NavKey); ok {
		t.Fatalf("nav marker must be cleared on read")
	}
}

func TestNext_CrossPage(t *testing.T) {
	h := newHarness()
	n := h.nav(abcSteps(), true)
	tasks := page("tasks", "a", "c")
	n.Begin(tasks, onboarding())
	if n.Index() != 0 {
		t.Fatalf("expected a, got %d", n.Index())
	}
	if got := n.Next(); got != AwaitingNavigation {
		t.Fatalf("expected navigation to labels, got %s", got)
	}
	if !reflect.DeepEqual(h.navigated, []string{"/labels"}) {
		t.Fatalf("unexpected navigation %v", h.navigated)
	}

	labels := h.nav(abcSteps(), true)
	labels.Begin(page("labels", "b"), onboarding())
	if labels.Index() != 1 {
		t.Fatalf("expected b, got %d", labels.Index())
	}
	if got := labels.Next(); got != AwaitingNavigation {
		t.Fatalf("expected navigation back to tasks, got %s", got)
	}

	back := h.nav(abcSteps(), true)
	back.Begin(tasks, onboarding())
	if back.Index() != 2 {
		t.Fatalf("expected c, got %d", back.Index())
	}
	view, ok := back.Current()
	if !ok || view.Button != "Done" || view.Progress != "Step 3 of 3" {
		t.Fatalf("unexpected view %#v", view)
	}
	if got := back.HandleKey("enter"); got != Complete {
		t.Fatalf("expected Complete after last step, got %s", got)
	}
	if p := LoadProgress(h.store); p != (Progress{Index: 2, Done: true}) {
		t.Fatalf("unexpected final progress %#v", p)
	}
}

func TestNext_SinglePageSkipsOtherPages(t *testing.T) {
	h := newHarness()
	n := h.nav(abcSteps(), false)
	n.Begin(page("tasks", "a", "c"), onboarding())
	if got := n.Next(); got != ShowingStep || n.Index() != 2 {
		t.Fatalf("expected c, got %s at %d", got, n.Index())
	}
	if len(h.navigated) != 0 {
		t.Fatalf("single-page tour must not navigate")
	}
	if got := n.Next(); got != Complete {
		t.Fatalf("expected Complete, got %s", got)
	}
}

func TestNext_ExhaustedCompletes(t *testing.T) {
	h := newHarness()
	n := h.nav(abcSteps(), false)
	p := page("tasks", "a", "c")
	n.Begin(p, onboarding())
	p.anchors[1].hidden = true
	if got := n.Next(); got != Complete {
		t.Fatalf("expected Complete, got %s", got)
	}
}

func TestSkipAndEscape(t *testing.T) {
	h := newHarness()
	n := h.nav(abcSteps(), true)
	n.Begin(page("tasks", "a", "c"), onboarding())
	if got := n.HandleKey("esc"); got != Complete {
		t.Fatalf("expected Complete, got %s", got)
	}
	if p := LoadProgress(h.store); p != (Progress{Index: 2, Done: true}) {
		t.Fatalf("unexpected progress %#v", p)
	}
	if _, ok := n.Current(); ok {
		t.Fatalf("no view after skip")
	}
	if got := n.Next(); got != Complete {
		t.Fatalf("Complete is terminal, got %s", got)
	}
}

func TestWildcardStepShowsEverywhere(t *testing.T) {
	h := newHarness()
	steps := Compiled{
		{ID: "header", Page: AnyPage, Locator: AnchorLocator("header"), URL: "/"},
		{ID: "x", Page: "timer", Locator: AnchorLocator("x"), URL: "/timer"},
	}
	n := h.nav(steps, true)
	if got := n.Begin(page("tasks", "header"), onboarding()); got != ShowingStep || n.Index() != 0 {
		t.Fatalf("expected wildcard step, got %s at %d", got, n.Index())
	}
	if got := n.Next(); got != AwaitingNavigation {
		t.Fatalf("expected navigation, got %s", got)
	}
}

func TestAnchorScanNeverNavigates(t *testing.T) {
	h := newHarness()
	p := page("timer")
	first := anchor("controls")
	first.attrs[AttrOrder] = "2"
	first.attrs[AttrTitle] = "Controls"
	second := anchor("clock")
	second.attrs[AttrOrder] = "1"
	second.attrs[AttrTitle] = "Clock"
	second.attrs[AttrPosition] = "top"
	unordered := anchor("extra")
	p.anchors = []*fakeElement{first, unordered, second}

	steps := AnchorScan{}.Steps(p)
	var ids []string
	for _, st := range steps {
		ids = append(ids, st.ID)
	}
	if !reflect.DeepEqual(ids, []string{"clock", "controls", "extra"}) {
		t.Fatalf("unexpected order %v", ids)
	}
	if steps[0].Position != Top || steps[0].Page != "timer" || steps[0].URL != "/timer" {
		t.Fatalf("unexpected scanned step %#v", steps[0])
	}

	n := h.nav(AnchorScan{}, true)
	n.Begin(p, onboarding())
	second.hidden = true
	if got := n.Next(); got != ShowingStep || n.Index() != 1 {
		t.Fatalf("expected controls, got %s at %d", got, n.Index())
	}
	n.Next()
	n.Next()
	if len(h.navigated) != 0 {
		t.Fatalf("anchor scan must not navigate, got %v", h.navigated)
	}
}

func TestStorageUnavailableStillRuns(t *testing.T) {
	n := New(Config{Source: abcSteps(), Store: kv.Unavailable{}, Session: kv.Unavailable{}})
	if got := n.Begin(page("tasks", "a"), onboarding()); got != ShowingStep {
		t.Fatalf("expected ShowingStep, got %s", got)
	}
	if got := n.Skip(); got != Complete {
		t.Fatalf("expected Complete, got %s", got)
	}
}

func TestBegin_HandsOffPastPagesWithoutAnchors(t *testing.T) {
	h := newHarness()
	steps := Compiled{
		{ID: "a", Page: "labels", Locator: AnchorLocator("a"), URL: "/labels"},
		{ID: "b", Page: "projects", Locator: AnchorLocator("b"), URL: "/projects"},
		{ID: "c", Page: "labels", Locator: AnchorLocator("c"), URL: "/labels"},
	}
	n := h.nav(steps, true)
	if got := n.Begin(page("labels"), onboarding()); got != AwaitingNavigation {
		t.Fatalf("expected hand-off, got %s", got)
	}
	if st, _ := n.Target(); st.ID != "b" {
		t.Fatalf("expected target b, got %s", st.ID)
	}

	// projects has no anchor either: hand off again, further along.
	n = h.nav(steps, true)
	if got := n.Begin(page("projects"), onboarding()); got != AwaitingNavigation {
		t.Fatalf("expected second hand-off, got %s", got)
	}
	if st, _ := n.Target(); st.ID != "c" {
		t.Fatalf("expected target c, got %s", st.ID)
	}

	// Back on labels with nothing left anywhere: stop without completing.
	n = h.nav(steps, true)
	if got := n.Begin(page("labels"), onboarding()); got != NotStarted {
		t.Fatalf("expected NotStarted, got %s", got)
	}
	if LoadProgress(h.store).Done {
		t.Fatalf("must not mark complete")
	}
}

func TestProgressKey_SeparatesStepTables(t *testing.T) {
	h := newHarness()
	n := New(Config{Source: abcSteps(), Store: h.store, Session: h.session, Key: "other_tour"})
	if got := n.Begin(page("tasks", "a", "c"), onboarding()); got != ShowingStep {
		t.Fatalf("expected ShowingStep, got %s", got)
	}
	n.Next()
	n.Next()
	if p := LoadProgressAt(h.store, "other_tour"); p != (Progress{Index: 2, Done: true}) {
		t.Fatalf("unexpected progress under own key %#v", p)
	}
	if _, ok, _ := h.store.Get(StateKey); ok {
		t.Fatalf("a keyed navigator must not write %s", StateKey)
	}

	// The default table still starts from the beginning.
	d := h.nav(abcSteps(), false)
	if got := d.Begin(page("tasks", "a", "c"), onboarding()); got != ShowingStep || d.Index() != 0 {
		t.Fatalf("expected default table at step 0, got %s index %d", got, d.Index())
	}
	if err := ResetAt(h.store, "other_tour"); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if p := LoadProgressAt(h.store, "other_tour"); p != (Progress{}) {
		t.Fatalf("expected cleared progress, got %#v", p)
	}
}
