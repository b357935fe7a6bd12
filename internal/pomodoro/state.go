package pomodoro

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
)

// StorageKey is the key the timer record lives under.
const StorageKey = "pomodoroState"

// TaskID is a weak reference to a task owned by the task service. Records
// written by older clients may carry it as a JSON number.
type TaskID string

func (id TaskID) MarshalJSON() ([]byte, error) {
	if id == "" {
		return []byte("null"), nil
	}
	return json.Marshal(string(id))
}

func (id *TaskID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*id = ""
		return nil
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = TaskID(s)
		return nil
	default:
		if _, err := strconv.ParseFloat(string(b), 64); err != nil {
			return fmt.Errorf("pomodoro: taskId must be a string or number, got %s", b)
		}
		*id = TaskID(b)
		return nil
	}
}

// State is the persisted countdown record.
type State struct {
	Mode          Mode   `json:"mode"`
	Remaining     int    `json:"remaining"`
	IsRunning     bool   `json:"isRunning"`
	CompletedWork int    `json:"completedWork"`
	LastTick      *int64 `json:"lastTick"` // unix milliseconds; nil while paused
	TaskID        TaskID `json:"taskId"`
	TaskName      string `json:"taskName,omitempty"`
	// TaskRunning mirrors whether the associated task's own timer was started
	// alongside this countdown.
	TaskRunning bool `json:"taskRunning"`
}

// Default is the record used when nothing (or nothing readable) is stored.
func Default() State {
	return State{Mode: Work, Remaining: WorkSeconds}
}

func millis(t time.Time) *int64 {
	ms := t.UnixMilli()
	return &ms
}

// LastTickTime returns the last tick as a time, if any.
func (s State) LastTickTime() (time.Time, bool) {
	if s.LastTick == nil {
		return time.Time{}, false
	}
	return time.UnixMilli(*s.LastTick), true
}

// Normalize repairs a decoded record so that it has a known mode,
// remaining within the mode's preset and a last tick exactly when running.
func Normalize(s State) State {
	if !s.Mode.Valid() {
		s.Mode = Work
	}
	if s.Remaining < 0 {
		s.Remaining = 0
	}
	if p := Preset(s.Mode); s.Remaining > p {
		s.Remaining = p
	}
	if s.CompletedWork < 0 {
		s.CompletedWork = 0
	}
	if s.IsRunning && s.LastTick == nil {
		s.IsRunning = false
	}
	if !s.IsRunning {
		s.LastTick = nil
	}
	return s
}

// Decode merges raw onto the defaults and normalizes the result. On a decode
// error it returns the defaults along with the error.
func Decode(raw []byte) (State, error) {
	s := Default()
	if len(bytes.TrimSpace(raw)) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(raw, &s); err != nil {
		return Default(), fmt.Errorf("pomodoro: decode state: %w", err)
	}
	return Normalize(s), nil
}

func Encode(s State) ([]byte, error) {
	return json.Marshal(s)
}

// Equal reports whether two records would encode identically.
func (s State) Equal(o State) bool {
	if (s.LastTick == nil) != (o.LastTick == nil) {
		return false
	}
	if s.LastTick != nil && *s.LastTick != *o.LastTick {
		return false
	}
	return s.Mode == o.Mode &&
		s.Remaining == o.Remaining &&
		s.IsRunning == o.IsRunning &&
		s.CompletedWork == o.CompletedWork &&
		s.TaskID == o.TaskID &&
		s.TaskName == o.TaskName &&
		s.TaskRunning == o.TaskRunning
}
