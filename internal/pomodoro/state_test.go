package pomodoro

import (
	"reflect"
	"testing"
	"time"

	"pgregory.net/rapid"
)

func TestDecode_MergesOntoDefaults(t *testing.T) {
	got, err := Decode([]byte(`{"mode":"short","remaining":42}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	want := State{Mode: ShortBreak, Remaining: 42}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %#v want %#v", got, want)
	}
}

func TestDecode_Repairs(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want State
	}{
		{"unknown mode", `{"mode":"nap","remaining":10}`, State{Mode: Work, Remaining: 10}},
		{"remaining above preset", `{"mode":"short","remaining":9999}`, State{Mode: ShortBreak, Remaining: ShortBreakSeconds}},
		{"negative remaining", `{"remaining":-5}`, State{Mode: Work, Remaining: 0}},
		{"running without tick", `{"isRunning":true}`, State{Mode: Work, Remaining: WorkSeconds}},
		{"paused with tick", `{"isRunning":false,"lastTick":123}`, State{Mode: Work, Remaining: WorkSeconds}},
		{"nulls", `{"mode":null,"taskId":null,"taskName":null,"lastTick":null}`, Default()},
		{"numeric task id", `{"taskId":17,"taskName":"Inbox"}`, State{Mode: Work, Remaining: WorkSeconds, TaskID: "17", TaskName: "Inbox"}},
		{"empty", ``, Default()},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Decode([]byte(tc.raw))
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("got %#v want %#v", got, tc.want)
			}
		})
	}
}

func TestDecode_CorruptFallsBackToDefaults(t *testing.T) {
	for _, raw := range []string{`{"mode":`, `[1,2]`, `"work"`, `{"taskId":{"x":1}}`} {
		got, err := Decode([]byte(raw))
		if err == nil {
			t.Fatalf("%s: expected error", raw)
		}
		if !reflect.DeepEqual(got, Default()) {
			t.Fatalf("%s: expected defaults, got %#v", raw, got)
		}
	}
}

func TestEncode_WireNames(t *testing.T) {
	b, err := Encode(Start(Default(), "5", "Plan", epoch))
	if err != nil {
		t.Fatal(err)
	}
	want := `{"mode":"work","remaining":1500,"isRunning":true,"completedWork":0,"lastTick":1700000000000,"taskId":"5","taskName":"Plan","taskRunning":true}`
	if string(b) != want {
		t.Fatalf("got %s\nwant %s", b, want)
	}
	b, _ = Encode(Default())
	if want := `{"mode":"work","remaining":1500,"isRunning":false,"completedWork":0,"lastTick":null,"taskId":null,"taskRunning":false}`; string(b) != want {
		t.Fatalf("got %s\nwant %s", b, want)
	}
}

func TestState_RoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		mode := rapid.SampledFrom(Modes).Draw(t, "mode")
		s := State{
			Mode:          mode,
			Remaining:     rapid.IntRange(0, Preset(mode)).Draw(t, "remaining"),
			IsRunning:     rapid.Bool().Draw(t, "running"),
			CompletedWork: rapid.IntRange(0, 10_000).Draw(t, "completed"),
			TaskID:        TaskID(rapid.StringMatching(`[0-9a-z-]{0,12}`).Draw(t, "taskID")),
			TaskName:      rapid.String().Draw(t, "taskName"),
			TaskRunning:   rapid.Bool().Draw(t, "taskRunning"),
		}
		if s.IsRunning {
			s.LastTick = millis(epoch.Add(time.Duration(rapid.Int64Range(0, 1<<40).Draw(t, "tick")) * time.Millisecond))
		}
		b, err := Encode(s)
		if err != nil {
			t.Fatalf("Encode: %v", err)
		}
		got, err := Decode(b)
		if err != nil {
			t.Fatalf("Decode(%s): %v", b, err)
		}
		if !reflect.DeepEqual(got, s) {
			t.Fatalf("round trip mismatch:\n got %#v\nwant %#v", got, s)
		}
	})
}
