package kv

import (
	"context"
	"sort"

	"focusdeck/internal/debug"
)

// Snapshotter exposes the full contents of a store for change detection.
type Snapshotter interface {
	Snapshot() (map[string]string, error)
}

// diffKeys returns the keys whose presence or value differs, sorted.
func diffKeys(prev, next map[string]string) []string {
	var keys []string
	for k, v := range next {
		if pv, ok := prev[k]; !ok || pv != v {
			keys = append(keys, k)
		}
	}
	for k := range prev {
		if _, ok := next[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// watchDiff snapshots src every time trigger fires and emits one Change per key
// that differs from the previous snapshot. The returned channel is closed when
// ctx is done or trigger is closed.
func watchDiff(ctx context.Context, src Snapshotter, trigger <-chan struct{}) <-chan Change {
	out := make(chan Change, 16)
	prev, err := src.Snapshot()
	if err != nil {
		debug.Log("kv: initial snapshot: %v", err)
		prev = map[string]string{}
	}
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-trigger:
				if !ok {
					return
				}
			}
			next, err := src.Snapshot()
			if err != nil {
				// A half-written or unreadable store is skipped; the next trigger retries.
				debug.Log("kv: snapshot: %v", err)
				continue
			}
			for _, k := range diffKeys(prev, next) {
				if k == writeCheckKey {
					continue
				}
				select {
				case out <- Change{Key: k}:
				case <-ctx.Done():
					return
				}
			}
			prev = next
		}
	}()
	return out
}
