package tour

// Rect is an element's box in the page's coordinate space.
type Rect struct {
	X, Y, W, H int
}

func (r Rect) Empty() bool { return r.W <= 0 || r.H <= 0 }
func (r Rect) Right() int  { return r.X + r.W }
func (r Rect) Bottom() int { return r.Y + r.H }

// Size is a width and height in the page's units.
type Size struct {
	W, H int
}

// Element is something a step can point at.
type Element interface {
	// Visible reports whether the element is laid out and shown.
	Visible() bool
	Rect() Rect
	Attr(name string) (string, bool)
}

// Page is the screen or document the tour is running on.
type Page interface {
	Name() string
	Path() string
	// Query returns the element the locator designates, or nil.
	Query(locator string) Element
	// Anchors returns every element carrying tour metadata, in document order.
	Anchors() []Element
}

// visible is Element.Visible plus the nil and empty-box checks.
func visible(el Element) bool {
	if el == nil || !el.Visible() {
		return false
	}
	return !el.Rect().Empty()
}
