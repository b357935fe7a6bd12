package tour

import (
	"math"
	"strconv"
	"strings"

	"focusdeck/internal/debug"
	"focusdeck/internal/kv"

	json "github.com/goccy/go-json"
)

// Store keys.
const (
	// StateKey holds the progress of the web client's step table. Other step
	// tables keep their progress under their own key (Config.Key).
	StateKey = "onboarding_state_v3"
	// NavKey lives in the session store and is cleared on read.
	NavKey = "onboarding_nav_v1"
)

// Progress is the persisted tour position.
type Progress struct {
	Index int  `json:"index"`
	Done  bool `json:"done"`
}

// LoadProgress reads the progress stored under StateKey.
func LoadProgress(store kv.Store) Progress { return LoadProgressAt(store, StateKey) }

// LoadProgressAt reads the progress stored under key. Missing, unreadable or
// malformed records read as the zero Progress; a non-integer index reads as 0.
func LoadProgressAt(store kv.Store, key string) Progress {
	if store == nil {
		return Progress{}
	}
	raw, ok, err := store.Get(key)
	if err != nil {
		debug.Log("tour: read progress: %v", err)
		return Progress{}
	}
	if !ok || raw == "" {
		return Progress{}
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		debug.Log("tour: decode progress: %v", err)
		return Progress{}
	}
	var p Progress
	if f, ok := rec["index"].(float64); ok && f == math.Trunc(f) && !math.IsInf(f, 0) {
		p.Index = int(f)
	}
	p.Done = truthy(rec["done"])
	return p
}

func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case float64:
		return x != 0 && !math.IsNaN(x)
	case string:
		return x != ""
	default:
		return true
	}
}

func saveProgress(store kv.Store, key string, p Progress) {
	if store == nil {
		return
	}
	if err := kv.PutJSON(store, key, p); err != nil {
		debug.Log("tour: write progress: %v", err)
	}
}

// Reset forgets the progress under StateKey so the tour starts over on the
// next page.
func Reset(store kv.Store) error { return ResetAt(store, StateKey) }

// ResetAt forgets the progress stored under key.
func ResetAt(store kv.Store, key string) error {
	return store.Remove(key)
}

// takeNav returns and clears the pending navigation target.
func takeNav(session kv.Store) (int, bool) {
	if session == nil {
		return 0, false
	}
	raw, ok, err := session.Get(NavKey)
	if err != nil || !ok {
		return 0, false
	}
	if err := session.Remove(NavKey); err != nil {
		debug.Log("tour: clear nav marker: %v", err)
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, false
	}
	return n, true
}

func setNav(session kv.Store, index int) {
	if session == nil {
		return
	}
	if err := session.Set(NavKey, strconv.Itoa(index)); err != nil {
		debug.Log("tour: set nav marker: %v", err)
	}
}
