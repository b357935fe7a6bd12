// Package htmlpage exposes a parsed HTML document as a tour.Page.
//
// There is no layout engine: an element's box is synthesized from its
// position in the document and the length of its text, which is enough to
// tell laid-out elements from empty ones.
package htmlpage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"focusdeck/internal/tour"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Page is a parsed document.
type Page struct {
	root       *html.Node
	body       *html.Node
	name       string
	path       string
	onboarding bool

	elements []*html.Node // every element, document order
	ordinal  map[*html.Node]int
}

// Parse reads an HTML document served at path.
func Parse(r io.Reader, path string) (*Page, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("htmlpage: parse: %w", err)
	}
	p := &Page{root: root, path: path, ordinal: map[*html.Node]int{}}
	p.index(root)
	if p.body != nil {
		p.name, _ = attr(p.body, "data-page")
		demo, _ := attr(p.body, "data-demo")
		p.onboarding = demo == "1"
	}
	return p, nil
}

// ParseFile parses a document from disk. Its path is "/" plus the file name
// without extension.
func ParseFile(file string) (*Page, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	base := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	return Parse(f, "/"+base)
}

func (p *Page) index(n *html.Node) {
	if n.Type == html.ElementNode {
		p.ordinal[n] = len(p.elements)
		p.elements = append(p.elements, n)
		if n.DataAtom == atom.Body && p.body == nil {
			p.body = n
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		p.index(c)
	}
}

func (p *Page) Name() string { return p.name }
func (p *Page) Path() string { return p.path }

// Onboarding reports whether the body is flagged with data-demo="1".
func (p *Page) Onboarding() bool { return p.onboarding }

// Query returns the first element matching the locator, or nil.
func (p *Page) Query(locator string) tour.Element {
	name, value, ok := tour.ParseLocator(locator)
	if !ok {
		return nil
	}
	for _, n := range p.elements {
		if v, ok := attr(n, name); ok && v == value {
			return p.element(n)
		}
	}
	return nil
}

// Anchors returns the elements carrying a tour id.
func (p *Page) Anchors() []tour.Element {
	var out []tour.Element
	for _, n := range p.elements {
		if _, ok := attr(n, tour.AnchorAttr); ok {
			out = append(out, p.element(n))
		}
	}
	return out
}

func (p *Page) element(n *html.Node) *Element {
	return &Element{node: n, line: p.ordinal[n]}
}

// Element is one node of a Page.
type Element struct {
	node *html.Node
	line int
}

func (e *Element) Attr(name string) (string, bool) { return attr(e.node, name) }

// Tag is the element's tag name.
func (e *Element) Tag() string { return e.node.Data }

// Text is the element's collapsed text content.
func (e *Element) Text() string {
	var b strings.Builder
	collectText(e.node, &b)
	return strings.Join(strings.Fields(b.String()), " ")
}

// Visible is false when the element or an ancestor is hidden or styled
// display:none or visibility:hidden, or when the element has no content.
func (e *Element) Visible() bool {
	for n := e.node; n != nil; n = n.Parent {
		if n.Type != html.ElementNode {
			continue
		}
		if _, ok := attr(n, "hidden"); ok {
			return false
		}
		if style, ok := attr(n, "style"); ok && hiddenByStyle(style) {
			return false
		}
	}
	return hasContent(e.node)
}

// Rect is one row per element in document order, as wide as its text.
func (e *Element) Rect() tour.Rect {
	if !hasContent(e.node) {
		return tour.Rect{X: 0, Y: e.line}
	}
	w := utf8.RuneCountInString(e.Text())
	if w == 0 {
		w = 1
	}
	return tour.Rect{X: 0, Y: e.line, W: w, H: 1}
}

func attr(n *html.Node, name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

func hiddenByStyle(style string) bool {
	for _, decl := range strings.Split(style, ";") {
		prop, val, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		prop = strings.ToLower(strings.TrimSpace(prop))
		val = strings.ToLower(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(val), "!important")))
		switch {
		case prop == "display" && val == "none":
			return true
		case prop == "visibility" && (val == "hidden" || val == "collapse"):
			return true
		}
	}
	return false
}

// replaced elements draw a box without child content.
var replaced = map[atom.Atom]bool{
	atom.Input: true, atom.Img: true, atom.Textarea: true, atom.Select: true,
	atom.Canvas: true, atom.Svg: true, atom.Video: true, atom.Iframe: true,
	atom.Hr: true, atom.Progress: true, atom.Meter: true,
}

func hasContent(n *html.Node) bool {
	if replaced[n.DataAtom] {
		if t, _ := attr(n, "type"); n.DataAtom == atom.Input && strings.EqualFold(t, "hidden") {
			return false
		}
		return true
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.ElementNode:
			return true
		case html.TextNode:
			if strings.TrimSpace(c.Data) != "" {
				return true
			}
		}
	}
	return false
}

func collectText(n *html.Node, b *strings.Builder) {
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
		b.WriteByte(' ')
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, b)
	}
}
