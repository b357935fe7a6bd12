package pomodoro

// Mode is the kind of interval the countdown is in.
type Mode string

const (
	Work       Mode = "work"
	ShortBreak Mode = "short"
	LongBreak  Mode = "long"
)

// Preset durations in seconds.
const (
	WorkSeconds       = 25 * 60
	ShortBreakSeconds = 5 * 60
	LongBreakSeconds  = 15 * 60
)

// longBreakEvery is how many finished Work intervals earn a long break.
const longBreakEvery = 4

// Modes lists every mode in rotation order.
var Modes = []Mode{Work, ShortBreak, LongBreak}

func (m Mode) Valid() bool {
	switch m {
	case Work, ShortBreak, LongBreak:
		return true
	default:
		return false
	}
}

func (m Mode) IsBreak() bool { return m == ShortBreak || m == LongBreak }

// Preset returns the full duration of m in seconds. Unknown modes use Work's.
func Preset(m Mode) int {
	switch m {
	case ShortBreak:
		return ShortBreakSeconds
	case LongBreak:
		return LongBreakSeconds
	default:
		return WorkSeconds
	}
}

// Label is the human name shown next to the clock.
func Label(m Mode) string {
	switch m {
	case ShortBreak:
		return "Short Break"
	case LongBreak:
		return "Long Break"
	default:
		return "Focus"
	}
}

// ParseMode accepts the stored names plus a few spellings used on the command line.
func ParseMode(s string) (Mode, bool) {
	switch s {
	case "work", "focus":
		return Work, true
	case "short", "short-break", "break":
		return ShortBreak, true
	case "long", "long-break":
		return LongBreak, true
	default:
		return "", false
	}
}

// nextMode applies the rotation once. completedWork is the count after any
// increment for the interval that just finished.
func nextMode(finished Mode, completedWork int) Mode {
	if finished != Work {
		return Work
	}
	if completedWork%longBreakEvery == 0 {
		return LongBreak
	}
	return ShortBreak
}
