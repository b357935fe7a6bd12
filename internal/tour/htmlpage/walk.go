package htmlpage

import (
	"fmt"
	"strings"

	"focusdeck/internal/kv"
	"focusdeck/internal/tour"
)

// Site is a set of pages addressable by path.
type Site struct {
	pages map[string]*Page
	order []*Page
}

func NewSite(pages ...*Page) *Site {
	s := &Site{pages: map[string]*Page{}}
	for _, p := range pages {
		s.Add(p)
	}
	return s
}

func (s *Site) Add(p *Page) {
	s.pages[normalizePath(p.Path())] = p
	s.order = append(s.order, p)
}

// Lookup finds the page for a URL, ignoring query and fragment.
func (s *Site) Lookup(url string) (*Page, bool) {
	p, ok := s.pages[normalizePath(url)]
	return p, ok
}

// Pages returns the pages in the order they were added.
func (s *Site) Pages() []*Page { return append([]*Page(nil), s.order...) }

func normalizePath(u string) string {
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	u = "/" + strings.Trim(u, "/")
	return u
}

const maxLoads = 256

// Visit records what the tour did on one page load or button press.
type Visit struct {
	Page   string      `json:"page"`
	Path   string      `json:"path"`
	Status tour.Status `json:"-"`
	State  string      `json:"status"`
	StepID string      `json:"step,omitempty"`
	Index  int         `json:"index"`
}

// Walk loads start and presses Next until the tour ends, following
// navigations to other pages of the site. Each page load gets a fresh
// navigator that rehydrates from cfg's stores.
func Walk(site *Site, start string, cfg tour.Config, forced bool) ([]Visit, error) {
	page, ok := site.Lookup(start)
	if !ok {
		return nil, fmt.Errorf("htmlpage: no page for %s", start)
	}
	if cfg.Session == nil {
		cfg.Session = kv.NewMemory()
	}
	if cfg.Store == nil {
		cfg.Store = kv.NewMemory()
	}
	cfg.Navigate = nil

	var visits []Visit
	record := func(n *tour.Navigator, p *Page, st tour.Status) {
		v := Visit{Page: p.Name(), Path: p.Path(), Status: st, State: st.String(), Index: -1}
		switch st {
		case tour.ShowingStep:
			v.Index = n.Index()
			v.StepID = n.Steps()[n.Index()].ID
		case tour.AwaitingNavigation:
			if target, ok := n.Target(); ok {
				v.StepID = target.ID
				v.Index = tour.LoadProgressAt(cfg.Store, cfg.ProgressKey()).Index
			}
		}
		visits = append(visits, v)
	}

	load := tour.Load{Onboarding: page.Onboarding(), Forced: forced}
	for range maxLoads {
		nav := tour.New(cfg)
		st := nav.Begin(page, load)
		load.Forced = false
		for st == tour.ShowingStep {
			record(nav, page, st)
			st = nav.Next()
		}
		record(nav, page, st)
		if st != tour.AwaitingNavigation {
			return visits, nil
		}
		target, _ := nav.Target()
		next, ok := site.Lookup(target.URL)
		if !ok {
			return visits, fmt.Errorf("htmlpage: step %s navigates to %s, which is not in the site", target.ID, target.URL)
		}
		page = next
		load.Onboarding = page.Onboarding()
	}
	return visits, fmt.Errorf("htmlpage: tour did not settle after %d page loads", maxLoads)
}
