package tour

import (
	"net/url"
	"strings"
)

// ForceParam is the query parameter that restarts the tour.
const ForceParam = "tour"

// ForcedFromQuery reports whether q asks for a tour restart.
func ForcedFromQuery(q url.Values) bool {
	switch strings.ToLower(q.Get(ForceParam)) {
	case "1", "true", "start", "reset":
		return true
	default:
		return false
	}
}

// ForcedFromURL is ForcedFromQuery for a raw URL or bare query string.
func ForcedFromURL(raw string) bool {
	if i := strings.IndexByte(raw, '?'); i >= 0 {
		raw = raw[i+1:]
	}
	q, err := url.ParseQuery(raw)
	if err != nil {
		return false
	}
	return ForcedFromQuery(q)
}
