package pomodoro

import "fmt"

// FormatClock renders seconds as MM:SS. Minutes are not wrapped into hours.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// FormatDuration renders seconds as HH:MM:SS, as used for task totals.
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, (seconds%3600)/60, seconds%60)
}

// StatusLine is the mode label, prefixed with "Paused · " when not running.
func StatusLine(s State) string {
	if s.IsRunning {
		return Label(s.Mode)
	}
	return "Paused · " + Label(s.Mode)
}

// TaskLine is the bullet line naming the attached task, or "".
func TaskLine(s State) string {
	if s.TaskName == "" {
		return ""
	}
	return "• " + s.TaskName
}

// Title is the window title: the countdown while running, base otherwise.
func Title(s State, base string) string {
	if !s.IsRunning {
		return base
	}
	t := FormatClock(s.Remaining) + " · " + Label(s.Mode)
	if s.TaskName != "" {
		t += " - " + s.TaskName
	}
	return t
}

// Toast returns the notification copy for finishing an interval of mode.
func Toast(finished Mode) (title, message string) {
	if finished == Work {
		return "Focus complete", "Time for a break."
	}
	return "Break complete", "Time to focus."
}
