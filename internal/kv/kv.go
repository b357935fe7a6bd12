// Package kv holds the small key-value stores focusdeck persists client state in.
//
// Stores mirror a browser's local storage: string keys, string values, no
// transactions across keys and last-write-wins between processes. Every
// running focusdeck process sharing a store behaves like a browser tab; a
// Watch stream tells a process that some key changed, never what it changed to.
package kv

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrUnavailable is returned by stores that cannot be read or written at all.
var ErrUnavailable = errors.New("kv: storage unavailable")

// Store is the narrow persistence capability injected into the timer and the tour.
type Store interface {
	// Get returns the value for key; ok is false when the key is absent.
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Remove(key string) error
}

// Change notifies that the value stored under Key was written or removed.
type Change struct {
	Key string
}

// Backend is a Store that can report changes and must be closed.
type Backend interface {
	Store
	Watch(ctx context.Context) (<-chan Change, error)
	Close() error
}

const writeCheckKey = "__focusdeck_write_check__"

// Writable reports whether s accepts writes.
func Writable(s Store) bool {
	if s == nil {
		return false
	}
	if err := s.Set(writeCheckKey, "1"); err != nil {
		return false
	}
	return s.Remove(writeCheckKey) == nil
}

// Unavailable is a Store that fails every operation, like storage denied by the user agent.
type Unavailable struct {
	Err error
}

func (u Unavailable) err() error {
	if u.Err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, u.Err)
	}
	return ErrUnavailable
}

func (u Unavailable) Get(string) (string, bool, error) { return "", false, u.err() }
func (u Unavailable) Set(string, string) error         { return u.err() }
func (u Unavailable) Remove(string) error              { return u.err() }

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Open opens the named backend rooted at dir.
func Open(ctx context.Context, backend, dir string) (Backend, error) {
	backend = strings.ToLower(strings.TrimSpace(backend))
	dir = strings.TrimSpace(dir)
	switch backend {
	case "", BackendFile:
		if dir == "" {
			return nil, errors.New("kv: file backend needs a directory")
		}
		return NewFileStore(filepath.Join(dir, fileStoreName)), nil
	case BackendSQLite:
		if dir == "" {
			return nil, errors.New("kv: sqlite backend needs a directory")
		}
		return OpenSQLite(ctx, filepath.Join(dir, sqliteStoreName))
	case BackendMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("kv: unknown backend: %s (expected file|sqlite|memory)", backend)
	}
}
