package pomodoro

import (
	"context"
	"sync"
	"time"

	"focusdeck/internal/debug"
	"focusdeck/internal/kv"
)

// TaskStopper notifies the task service that a task's timer should stop.
type TaskStopper interface {
	StopTask(ctx context.Context, id string) error
}

// TaskStopperFunc adapts a function to TaskStopper.
type TaskStopperFunc func(ctx context.Context, id string) error

func (f TaskStopperFunc) StopTask(ctx context.Context, id string) error { return f(ctx, id) }

// EventKind says what produced an Event.
type EventKind string

const (
	EventTick     EventKind = "tick"
	EventComplete EventKind = "complete"
	EventExternal EventKind = "external"
)

// Event is delivered to subscribers after every operation.
type Event struct {
	Kind  EventKind
	State State
	// Finished, Title and Message are set on EventComplete.
	Finished Mode
	Title    string
	Message  string
}

// Options configures a Timer. Zero values pick the defaults.
type Options struct {
	Key     string
	Now     func() time.Time
	Stopper TaskStopper
}

// Timer is the stateful shell around the pure countdown functions. Every
// operation reads the stored record, applies one step and writes it back.
// Other processes sharing the store may interleave; the last write wins.
type Timer struct {
	store   kv.Store
	key     string
	now     func() time.Time
	stopper TaskStopper

	mu sync.Mutex
	// last is the most recent state read or written. It stands in for the
	// record while the store fails.
	last State

	subMu sync.Mutex
	subs  []chan Event

	stops sync.WaitGroup
}

func New(store kv.Store, opts Options) *Timer {
	if store == nil {
		store = kv.NewMemory()
	}
	t := &Timer{store: store, key: opts.Key, now: opts.Now, stopper: opts.Stopper, last: Default()}
	if t.key == "" {
		t.key = StorageKey
	}
	if t.now == nil {
		t.now = time.Now
	}
	return t
}

// Key is the store key the timer reads and writes.
func (t *Timer) Key() string { return t.key }

func (t *Timer) load() State {
	raw, ok, err := t.store.Get(t.key)
	if err != nil {
		debug.Log("pomodoro: read %s: %v; using session state", t.key, err)
		return t.last
	}
	if !ok {
		t.last = Default()
		return t.last
	}
	s, err := Decode([]byte(raw))
	if err != nil {
		debug.Log("pomodoro: %v; using defaults", err)
	}
	t.last = s
	return s
}

func (t *Timer) save(prev, next State) {
	t.last = next
	if prev.Equal(next) {
		return
	}
	if err := kv.PutJSON(t.store, t.key, next); err != nil {
		debug.Log("pomodoro: write %s: %v", t.key, err)
	}
}

// State returns the stored record without advancing it.
func (t *Timer) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.load()
}

// Tick advances the record to the current time.
func (t *Timer) Tick() State { return t.TickAt(t.now()) }

// TickAt advances the record to now.
func (t *Timer) TickAt(now time.Time) State {
	return t.tick(now, EventTick)
}

func (t *Timer) tick(now time.Time, kind EventKind) State {
	t.mu.Lock()
	prev := t.load()
	next, res := Advance(prev, now)
	t.save(prev, next)
	t.mu.Unlock()

	t.afterAdvance(next, res)
	t.emit(Event{Kind: kind, State: next})
	return next
}

// afterAdvance runs the side effects of completed intervals.
func (t *Timer) afterAdvance(s State, res Result) {
	if !res.Completed() {
		return
	}
	if res.StopTask {
		t.stopTask(string(s.TaskID))
	}
	title, msg := Toast(res.LastCompleted)
	t.emit(Event{Kind: EventComplete, State: s, Finished: res.LastCompleted, Title: title, Message: msg})
}

func (t *Timer) stopTask(id string) {
	if t.stopper == nil || id == "" {
		return
	}
	t.stops.Add(1)
	go func() {
		defer t.stops.Done()
		if err := t.stopper.StopTask(context.Background(), id); err != nil {
			debug.Log("pomodoro: stop task %s: %v", id, err)
		}
	}()
}

// Wait blocks until in-flight task-stop notifications have returned.
func (t *Timer) Wait() { t.stops.Wait() }

func (t *Timer) mutate(fn func(State, time.Time) State) State {
	now := t.now()
	t.mu.Lock()
	prev := t.load()
	next := fn(prev, now)
	t.save(prev, next)
	t.mu.Unlock()
	t.emit(Event{Kind: EventTick, State: next})
	return next
}

// Start begins a Work interval attached to the given task (both may be empty).
func (t *Timer) Start(taskID, taskName string) State {
	return t.mutate(func(s State, now time.Time) State {
		return Start(s, TaskID(taskID), taskName, now)
	})
}

// Stop pauses the countdown when taskID is the attached task.
func (t *Timer) Stop(taskID string) State {
	return t.mutate(func(s State, _ time.Time) State {
		return Stop(s, TaskID(taskID))
	})
}

// Pause catches up and pauses.
func (t *Timer) Pause() State {
	now := t.now()
	t.mu.Lock()
	prev := t.load()
	next, res := Pause(prev, now)
	t.save(prev, next)
	t.mu.Unlock()
	t.afterAdvance(next, res)
	t.emit(Event{Kind: EventTick, State: next})
	return next
}

func (t *Timer) Resume() State {
	return t.mutate(Resume)
}

// Toggle pauses a running countdown and resumes a paused one.
func (t *Timer) Toggle() State {
	if t.Tick().IsRunning {
		return t.Pause()
	}
	return t.Resume()
}

func (t *Timer) Reset(mode Mode) State {
	return t.mutate(func(s State, _ time.Time) State {
		return Reset(s, mode)
	})
}

// Subscribe returns a channel of events. Slow subscribers miss events rather
// than block the timer. The returned func unsubscribes and closes the channel.
func (t *Timer) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Event, buffer)
	t.subMu.Lock()
	t.subs = append(t.subs, ch)
	t.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			t.subMu.Lock()
			for i, c := range t.subs {
				if c == ch {
					t.subs = append(t.subs[:i], t.subs[i+1:]...)
					break
				}
			}
			t.subMu.Unlock()
			close(ch)
		})
	}
}

func (t *Timer) emit(ev Event) {
	t.subMu.Lock()
	defer t.subMu.Unlock()
	for _, ch := range t.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// DefaultInterval is how often Run ticks.
const DefaultInterval = time.Second

// Run ticks every interval and whenever changes reports the timer's key,
// until ctx is done. changes may be nil.
func (t *Timer) Run(ctx context.Context, interval time.Duration, changes <-chan kv.Change) error {
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	t.Tick()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			t.Tick()
		case c, ok := <-changes:
			if !ok {
				changes = nil
				continue
			}
			if c.Key == t.key {
				t.tick(t.now(), EventExternal)
			}
		}
	}
}
