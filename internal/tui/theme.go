package tui

import (
	"context"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"time"

	"focusdeck/internal/debug"
	"focusdeck/internal/kv"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// The TUI must stay readable on light and dark terminals. Colors are
// lipgloss.AdaptiveColor pairs; faint styling only applies on dark backgrounds.

func ac(light, dark string) lipgloss.AdaptiveColor {
	return lipgloss.AdaptiveColor{Light: light, Dark: dark}
}

func faintIfDark(st lipgloss.Style) lipgloss.Style {
	if lipgloss.HasDarkBackground() {
		return st.Faint(true)
	}
	return st
}

var (
	colorMuted        = ac("240", "243")
	colorSurfaceFg    = ac("235", "252")
	colorSelectedBg   = ac("#e9e9e9", "#262626")
	colorSelectedFg   = ac("235", "255")
	colorCardBorder   = ac("250", "243")
	colorAccent       = ac("27", "62")
	colorAccentFg     = ac("255", "235")
	colorFlashErrorBg = ac("196", "160")

	// Mode colors for the clock.
	colorWork  = ac("160", "203")
	colorBreak = ac("28", "78")
)

func styleMuted() lipgloss.Style {
	return faintIfDark(lipgloss.NewStyle().Foreground(colorMuted))
}

// Environment overrides for the interactive client.
const (
	envTheme  = "FOCUSDECK_TUI_THEME"
	envDarkBG = "FOCUSDECK_TUI_DARKBG"
)

// themeKey holds the theme toggled from the TUI, shared with other clients of
// the same store.
const themeKey = "theme"

const (
	themeLight = "light"
	themeDark  = "dark"
)

// applyColorProfilePreference sets Lip Gloss's color profile.
//
// termenv.EnvColorProfile honors CLICOLOR, which can disable colors in a TUI.
// Here only NO_COLOR and an explicit preference win over the terminal's
// capabilities.
func applyColorProfilePreference(pref string) {
	if strings.TrimSpace(os.Getenv("NO_COLOR")) != "" {
		lipgloss.SetColorProfile(termenv.Ascii)
		return
	}
	switch strings.ToLower(strings.TrimSpace(pref)) {
	case "truecolor":
		lipgloss.SetColorProfile(termenv.TrueColor)
		return
	case "ansi256":
		lipgloss.SetColorProfile(termenv.ANSI256)
		return
	case "ansi":
		lipgloss.SetColorProfile(termenv.ANSI)
		return
	case "ascii":
		lipgloss.SetColorProfile(termenv.Ascii)
		return
	}

	profile := termenv.ColorProfile()

	// Detection under-reports on some terminals (Terminal.app); trust
	// TERM/COLORTERM when they claim more.
	term := strings.ToLower(strings.TrimSpace(os.Getenv("TERM")))
	colorterm := strings.ToLower(strings.TrimSpace(os.Getenv("COLORTERM")))
	if strings.Contains(colorterm, "truecolor") || strings.Contains(colorterm, "24bit") {
		if profile != termenv.Ascii {
			profile = termenv.TrueColor
		}
	} else if strings.Contains(term, "256color") {
		if profile == termenv.Ascii || profile == termenv.ANSI {
			profile = termenv.ANSI256
		}
	}

	lipgloss.SetColorProfile(profile)
}

// applyThemePreference configures Lip Gloss's background detection and
// returns the theme in effect.
//
// Priority:
// 1) FOCUSDECK_TUI_THEME=light|dark|auto
// 2) pref (the stored toggle, then the config file)
// 3) FOCUSDECK_TUI_DARKBG=true|false
// 4) COLORFGBG heuristic ("15;0" = fg;bg)
// 5) macOS appearance
func applyThemePreference(pref string) string {
	if theme, ok := parseTheme(os.Getenv(envTheme)); ok {
		return setTheme(theme)
	}
	if theme, ok := parseTheme(pref); ok {
		return setTheme(theme)
	}

	if v := strings.TrimSpace(os.Getenv(envDarkBG)); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			lipgloss.SetHasDarkBackground(b)
			return currentTheme()
		}
	}

	// COLORFGBG may have more than two segments; the last one is the background.
	if v := strings.TrimSpace(os.Getenv("COLORFGBG")); v != "" {
		parts := strings.Split(v, ";")
		if bg, err := strconv.Atoi(strings.TrimSpace(parts[len(parts)-1])); err == nil {
			lipgloss.SetHasDarkBackground(bg < 7)
			return currentTheme()
		}
	}

	if runtime.GOOS == "darwin" {
		if dark, ok := macOSHasDarkAppearance(); ok {
			lipgloss.SetHasDarkBackground(dark)
		}
	}
	return currentTheme()
}

func parseTheme(s string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case themeLight:
		return themeLight, true
	case themeDark:
		return themeDark, true
	default:
		return "", false
	}
}

func setTheme(theme string) string {
	lipgloss.SetHasDarkBackground(theme == themeDark)
	return theme
}

func currentTheme() string {
	if lipgloss.HasDarkBackground() {
		return themeDark
	}
	return themeLight
}

func oppositeTheme(theme string) string {
	if theme == themeDark {
		return themeLight
	}
	return themeDark
}

// storedTheme reads the persisted toggle. Storage failures read as unset.
func storedTheme(s kv.Store) string {
	if s == nil {
		return ""
	}
	v, ok, err := s.Get(themeKey)
	if err != nil {
		debug.Log("tui: read theme: %v", err)
		return ""
	}
	if !ok {
		return ""
	}
	theme, _ := parseTheme(v)
	return theme
}

func saveTheme(s kv.Store, theme string) {
	if s == nil {
		return
	}
	if err := s.Set(themeKey, theme); err != nil {
		debug.Log("tui: save theme: %v", err)
	}
}

func macOSHasDarkAppearance() (dark bool, ok bool) {
	// Prints "Dark" in dark mode; exits 1 in light mode (key missing).
	ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
	defer cancel()

	out, err := exec.CommandContext(ctx, "defaults", "read", "-g", "AppleInterfaceStyle").CombinedOutput()
	if ctx.Err() != nil {
		return false, false
	}
	if err == nil {
		return strings.Contains(strings.ToLower(string(out)), "dark"), true
	}
	if ee, ok := err.(*exec.ExitError); ok && ee.ExitCode() == 1 {
		return false, true
	}
	return false, false
}
