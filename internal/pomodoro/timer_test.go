package pomodoro

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"focusdeck/internal/kv"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type recordingStopper struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (r *recordingStopper) StopTask(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, id)
	return r.err
}

func (r *recordingStopper) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func newTestTimer(store kv.Store, stopper TaskStopper) (*Timer, *fakeClock) {
	clock := &fakeClock{now: epoch}
	return New(store, Options{Now: clock.Now, Stopper: stopper}), clock
}

func TestTimer_DefaultsWhenEmpty(t *testing.T) {
	store := kv.NewMemory()
	timer, _ := newTestTimer(store, nil)
	if got := timer.Tick(); !got.Equal(Default()) {
		t.Fatalf("expected defaults, got %#v", got)
	}
	if _, ok, _ := store.Get(StorageKey); ok {
		t.Fatalf("unchanged default state must not be written")
	}
}

func TestTimer_CorruptRecordFallsBackToDefaults(t *testing.T) {
	store := kv.NewMemory()
	_ = store.Set(StorageKey, "{definitely not json")
	timer, _ := newTestTimer(store, nil)
	if got := timer.State(); !got.Equal(Default()) {
		t.Fatalf("expected defaults, got %#v", got)
	}
	got := timer.Start("", "")
	if !got.IsRunning {
		t.Fatalf("expected start to work over a corrupt record")
	}
	if raw, _, _ := store.Get(StorageKey); raw == "{definitely not json" {
		t.Fatalf("expected record to be rewritten")
	}
}

func TestTimer_UnavailableStoreKeepsSessionState(t *testing.T) {
	timer, clock := newTestTimer(kv.Unavailable{}, nil)
	got := timer.Start("1", "x")
	if !got.IsRunning {
		t.Fatalf("expected in-memory result despite failed write")
	}
	clock.Advance(10 * time.Second)
	got = timer.Tick()
	if !got.IsRunning || got.Remaining != WorkSeconds-10 || got.TaskName != "x" {
		t.Fatalf("expected running session with %ds left, got %#v", WorkSeconds-10, got)
	}
	if s := timer.Pause(); s.IsRunning || s.Remaining != WorkSeconds-10 {
		t.Fatalf("expected paused session state, got %#v", s)
	}
	if s := timer.State(); s.IsRunning || s.TaskID != "1" {
		t.Fatalf("expected state to survive between calls, got %#v", s)
	}
}

func TestTimer_StartTickPersists(t *testing.T) {
	store := kv.NewMemory()
	timer, clock := newTestTimer(store, nil)
	timer.Start("3", "Review")
	clock.Advance(90 * time.Second)
	got := timer.Tick()
	if got.Remaining != WorkSeconds-90 {
		t.Fatalf("expected 90s drained, got %d", got.Remaining)
	}

	other := New(store, Options{Now: clock.Now})
	if s := other.State(); !s.Equal(got) {
		t.Fatalf("second timer on the same store sees %#v, want %#v", s, got)
	}
}

func TestTimer_StopOnlyMatchingTask(t *testing.T) {
	timer, _ := newTestTimer(kv.NewMemory(), nil)
	started := timer.Start("3", "Review")
	if got := timer.Stop("4"); !got.Equal(started) {
		t.Fatalf("stop for another task changed state")
	}
	if got := timer.Stop("3"); got.IsRunning {
		t.Fatalf("expected stop for the attached task to pause")
	}
}

func TestTimer_WorkCompletionStopsTaskOnce(t *testing.T) {
	stopper := &recordingStopper{err: errors.New("offline")}
	timer, clock := newTestTimer(kv.NewMemory(), stopper)
	events, cancel := timer.Subscribe(8)
	defer cancel()

	timer.Start("11", "Deep work")
	// Long enough to finish work, the short break and land back in work.
	clock.Advance(time.Duration(WorkSeconds+ShortBreakSeconds+10) * time.Second)
	got := timer.Tick()
	timer.Wait()

	if got.Mode != Work || got.IsRunning {
		t.Fatalf("expected paused work after a full cycle, got %#v", got)
	}
	if calls := stopper.Calls(); len(calls) != 1 || calls[0] != "11" {
		t.Fatalf("expected one stop for task 11, got %v", calls)
	}

	var complete *Event
	for len(events) > 0 {
		ev := <-events
		if ev.Kind == EventComplete {
			e := ev
			complete = &e
		}
	}
	if complete == nil {
		t.Fatalf("expected a complete event")
	}
	if complete.Finished != ShortBreak || complete.Title != "Break complete" {
		t.Fatalf("unexpected complete event %#v", complete)
	}

	clock.Advance(time.Hour)
	timer.Tick()
	timer.Wait()
	if calls := stopper.Calls(); len(calls) != 1 {
		t.Fatalf("paused timer must not stop the task again, got %v", calls)
	}
}

func TestTimer_BreakChains(t *testing.T) {
	timer, clock := newTestTimer(kv.NewMemory(), nil)
	timer.Start("", "")
	clock.Advance(time.Duration(WorkSeconds+60) * time.Second)
	got := timer.Tick()
	if got.Mode != ShortBreak || !got.IsRunning || got.Remaining != ShortBreakSeconds-60 {
		t.Fatalf("expected running short break, got %#v", got)
	}
	if *got.LastTick != clock.Now().UnixMilli() {
		t.Fatalf("expected lastTick refreshed")
	}
}

func TestTimer_ToggleAndReset(t *testing.T) {
	timer, clock := newTestTimer(kv.NewMemory(), nil)
	if got := timer.Toggle(); !got.IsRunning {
		t.Fatalf("toggle from idle should run")
	}
	clock.Advance(10 * time.Second)
	if got := timer.Toggle(); got.IsRunning || got.Remaining != WorkSeconds-10 {
		t.Fatalf("toggle should pause after catching up, got %#v", got)
	}
	if got := timer.Reset(LongBreak); got.Mode != LongBreak || got.Remaining != LongBreakSeconds {
		t.Fatalf("unexpected reset %#v", got)
	}
}

func TestTimer_RunReactsToExternalChanges(t *testing.T) {
	store := kv.NewMemory()
	timer, clock := newTestTimer(store, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes, err := store.Watch(ctx)
	if err != nil {
		t.Fatal(err)
	}
	events, unsubscribe := timer.Subscribe(32)
	defer unsubscribe()

	done := make(chan error, 1)
	go func() { done <- timer.Run(ctx, time.Hour, changes) }()

	// Another tab starts the timer.
	other := New(store, Options{Now: clock.Now})
	other.Start("8", "Inbox zero")

	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev := <-events:
			if ev.Kind == EventExternal && ev.State.TaskID == "8" {
				cancel()
				if err := <-done; !errors.Is(err, context.Canceled) {
					t.Fatalf("Run returned %v", err)
				}
				return
			}
		case <-deadline:
			t.Fatalf("timed out waiting for external event")
		}
	}
}

func TestTimer_UnsubscribeClosesChannel(t *testing.T) {
	timer, _ := newTestTimer(kv.NewMemory(), nil)
	ch, cancel := timer.Subscribe(1)
	cancel()
	cancel()
	if _, ok := <-ch; ok {
		t.Fatalf("expected closed channel")
	}
	timer.Tick()
}
