package pomodoro

import "time"

// Result summarizes what a single Advance did.
type Result struct {
	// Transitions counts completed intervals of any mode.
	Transitions int
	// WorkCompleted counts completed Work intervals.
	WorkCompleted int
	// LastCompleted is the mode of the last interval that completed, or "".
	LastCompleted Mode
	// StopTask is set when a Work interval completed while a task was attached.
	StopTask bool
}

func (r Result) Completed() bool { return r.Transitions > 0 }

// cycleSeconds is one full rotation: four Work intervals, three short breaks
// and a long break.
const cycleSeconds = longBreakEvery*WorkSeconds + (longBreakEvery-1)*ShortBreakSeconds + LongBreakSeconds

// Advance applies the wall-clock time elapsed since the last tick.
//
// Elapsed time is floored to whole seconds and drained across as many
// intervals as it covers. Ending in Work after any completion pauses the
// countdown; ending in a break keeps it running. Calls with no whole second
// elapsed, or with the clock behind the last tick, change nothing.
func Advance(s State, now time.Time) (State, Result) {
	if !s.IsRunning || s.LastTick == nil {
		return s, Result{}
	}
	elapsed := (now.UnixMilli() - *s.LastTick) / 1000
	if elapsed <= 0 {
		return s, Result{}
	}

	var res Result
	remaining := int64(s.Remaining)
	for elapsed > 0 {
		if elapsed < remaining {
			remaining -= elapsed
			break
		}
		elapsed -= remaining
		finished := s.Mode
		if finished == Work {
			s.CompletedWork++
			res.WorkCompleted++
		}
		s.Mode = nextMode(finished, s.CompletedWork)
		remaining = int64(Preset(s.Mode))
		res.Transitions++
		res.LastCompleted = finished

		// At an interval boundary the rotation repeats every cycleSeconds,
		// so whole cycles are skipped rather than walked.
		if res.Transitions == 1 && elapsed >= cycleSeconds {
			cycles := elapsed / cycleSeconds
			elapsed -= cycles * cycleSeconds
			s.CompletedWork += int(cycles) * longBreakEvery
			res.WorkCompleted += int(cycles) * longBreakEvery
			res.Transitions += int(cycles) * 2 * longBreakEvery
		}
	}
	s.Remaining = int(remaining)

	switch {
	case res.Completed() && s.Mode == Work:
		s.IsRunning = false
		s.LastTick = nil
		s.TaskRunning = false
	default:
		s.LastTick = millis(now)
	}
	res.StopTask = res.WorkCompleted > 0 && s.TaskID != ""
	return s, res
}

// Start begins a fresh Work interval, optionally attached to a task.
func Start(s State, taskID TaskID, taskName string, now time.Time) State {
	s.Mode = Work
	s.Remaining = WorkSeconds
	s.IsRunning = true
	s.LastTick = millis(now)
	s.TaskID = taskID
	s.TaskName = taskName
	s.TaskRunning = taskID != ""
	return s
}

// Stop pauses the countdown, but only when taskID is the attached task.
func Stop(s State, taskID TaskID) State {
	if taskID == "" || s.TaskID != taskID {
		return s
	}
	s.IsRunning = false
	s.LastTick = nil
	s.TaskRunning = false
	return s
}

// Pause catches up to now and then pauses.
func Pause(s State, now time.Time) (State, Result) {
	s, res := Advance(s, now)
	s.IsRunning = false
	s.LastTick = nil
	return s, res
}

// Resume continues a paused countdown from where it stopped.
func Resume(s State, now time.Time) State {
	if s.IsRunning {
		return s
	}
	s.IsRunning = true
	s.LastTick = millis(now)
	return s
}

// Reset pauses and refills the countdown for mode.
func Reset(s State, mode Mode) State {
	if !mode.Valid() {
		mode = Work
	}
	s.Mode = mode
	s.Remaining = Preset(mode)
	s.IsRunning = false
	s.LastTick = nil
	return s
}
