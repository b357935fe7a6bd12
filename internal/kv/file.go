package kv

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"focusdeck/internal/debug"

	"github.com/fsnotify/fsnotify"
	json "github.com/goccy/go-json"
)

const (
	fileStoreName   = "state.json"
	defaultPollRate = time.Second
)

// FileStore keeps every key in a single JSON object on disk.
//
// Reads always go to disk so that writes from other processes are observed.
// Writes are read-modify-write with an atomic rename; concurrent writers in
// different processes race and the last rename wins.
type FileStore struct {
	Path string

	// PollInterval is used when filesystem notifications are unavailable.
	PollInterval time.Duration

	mu sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{Path: filepath.Clean(path)}
}

func (s *FileStore) read() (map[string]string, error) {
	b, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("kv: read %s: %w", s.Path, err)
	}
	if len(b) == 0 {
		return map[string]string{}, nil
	}
	m := map[string]string{}
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("kv: decode %s: %w", s.Path, err)
	}
	return m, nil
}

func (s *FileStore) write(m map[string]string) error {
	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("kv: create dir: %w", err)
	}
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return atomicWriteFile(dir, filepath.Base(s.Path)+".*.tmp", s.Path, b, 0o644)
}

func (s *FileStore) Get(key string) (string, bool, error) {
	m, err := s.read()
	if err != nil {
		return "", false, err
	}
	v, ok := m[key]
	return v, ok, nil
}

func (s *FileStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, err := s.read()
	if err != nil {
		// The file is unreadable; start over rather than refusing every write.
		debug.Log("kv: resetting %s: %v", s.Path, err)
		m = map[string]string{}
	}
	if cur, ok := m[key]; ok && cur == value {
		return nil
	}
	m[key] = value
	return s.write(m)
}

func (s *FileStore) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, err := s.read()
	if err != nil {
		return err
	}
	if _, ok := m[key]; !ok {
		return nil
	}
	delete(m, key)
	return s.write(m)
}

func (s *FileStore) Snapshot() (map[string]string, error) {
	return s.read()
}

// Watch reports keys changed by any process writing the file. It prefers
// filesystem notifications on the containing directory and falls back to
// polling when they cannot be set up.
func (s *FileStore) Watch(ctx context.Context) (<-chan Change, error) {
	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("kv: create dir: %w", err)
	}
	trigger := make(chan struct{}, 1)
	poke := func() {
		select {
		case trigger <- struct{}{}:
		default:
		}
	}

	fw, err := fsnotify.NewWatcher()
	if err == nil {
		if addErr := fw.Add(dir); addErr != nil {
			_ = fw.Close()
			fw = nil
			err = addErr
		}
	}
	if err != nil {
		debug.Log("kv: fsnotify unavailable for %s, polling: %v", dir, err)
		interval := s.PollInterval
		if interval <= 0 {
			interval = defaultPollRate
		}
		go func() {
			t := time.NewTicker(interval)
			defer t.Stop()
			defer close(trigger)
			for {
				select {
				case <-ctx.Done():
					return
				case <-t.C:
					poke()
				}
			}
		}()
		return watchDiff(ctx, s, trigger), nil
	}

	name := filepath.Base(s.Path)
	go func() {
		defer close(trigger)
		defer fw.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-fw.Events:
				if !ok {
					return
				}
				if filepath.Base(ev.Name) != name {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
					continue
				}
				poke()
			case werr, ok := <-fw.Errors:
				if !ok {
					return
				}
				debug.Log("kv: watch %s: %v", dir, werr)
			}
		}
	}()
	return watchDiff(ctx, s, trigger), nil
}

func (s *FileStore) Close() error { return nil }

// atomicWriteFile writes b to a unique temp file in dir and renames it over path,
// so readers in other processes never observe a partial file.
func atomicWriteFile(dir, tmpPattern, path string, b []byte, perm os.FileMode) error {
	f, err := os.CreateTemp(dir, tmpPattern)
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	_ = os.Chmod(tmp, perm)
	return os.Rename(tmp, path)
}
