package tui

import (
	"strings"
	"testing"

	"focusdeck/internal/kv"

	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
)

func restoreLipgloss(t *testing.T) {
	t.Helper()
	oldProfile := lipgloss.ColorProfile()
	oldBG := lipgloss.HasDarkBackground()
	t.Cleanup(func() {
		lipgloss.SetColorProfile(oldProfile)
		lipgloss.SetHasDarkBackground(oldBG)
	})
}

func TestApplyThemePreference_Priority(t *testing.T) {
	restoreLipgloss(t)
	t.Setenv(envDarkBG, "")
	t.Setenv("COLORFGBG", "")

	t.Setenv(envTheme, "light")
	if got := applyThemePreference("dark"); got != themeLight {
		t.Fatalf("expected env theme to win; got %q", got)
	}

	t.Setenv(envTheme, "")
	if got := applyThemePreference(" Dark "); got != themeDark {
		t.Fatalf("expected preference dark; got %q", got)
	}

	t.Setenv(envDarkBG, "false")
	if got := applyThemePreference(""); got != themeLight {
		t.Fatalf("expected DARKBG=false to give light; got %q", got)
	}

	t.Setenv(envDarkBG, "")
	t.Setenv("COLORFGBG", "15;default;0")
	if got := applyThemePreference("auto"); got != themeDark {
		t.Fatalf("expected COLORFGBG background 0 to give dark; got %q", got)
	}
}

func TestApplyColorProfilePreference(t *testing.T) {
	restoreLipgloss(t)

	t.Setenv("NO_COLOR", "1")
	applyColorProfilePreference("truecolor")
	if got := lipgloss.ColorProfile(); got != termenv.Ascii {
		t.Fatalf("expected NO_COLOR to force ascii; got %v", got)
	}

	t.Setenv("NO_COLOR", "")
	applyColorProfilePreference("ansi256")
	if got := lipgloss.ColorProfile(); got != termenv.ANSI256 {
		t.Fatalf("expected ansi256; got %v", got)
	}
}

func TestStoredTheme(t *testing.T) {
	s := kv.NewMemory()
	if got := storedTheme(s); got != "" {
		t.Fatalf("expected unset theme; got %q", got)
	}
	saveTheme(s, themeDark)
	if got := storedTheme(s); got != themeDark {
		t.Fatalf("expected dark; got %q", got)
	}
	if err := s.Set(themeKey, "purple"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got := storedTheme(s); got != "" {
		t.Fatalf("expected invalid theme to read as unset; got %q", got)
	}
	if got := storedTheme(nil); got != "" {
		t.Fatalf("expected nil store to read as unset; got %q", got)
	}
}

func TestMarkdownStyleConfig_UsesPalette(t *testing.T) {
	for _, theme := range []string{themeLight, themeDark} {
		t.Run(theme, func(t *testing.T) {
			got := markdownStyleConfig(theme)
			if got.Link.Color == nil || *got.Link.Color != *mdColor(colorAccent, theme) {
				t.Fatalf("expected accent link color")
			}
			if got.Text.Color == nil || *got.Text.Color != *mdColor(colorSurfaceFg, theme) {
				t.Fatalf("expected surface text color")
			}
		})
	}
}

func TestRenderMarkdown_WrapsWithoutMargin(t *testing.T) {
	restoreLipgloss(t)
	lipgloss.SetColorProfile(termenv.Ascii)

	if got := renderMarkdown("   ", 20); got != "" {
		t.Fatalf("expected empty render; got %q", got)
	}

	out := renderMarkdown("Press **enter** to see the next step of the tour.", 20)
	for _, line := range strings.Split(out, "\n") {
		if w := lipgloss.Width(line); w > 20 {
			t.Fatalf("line wider than wrap width (%d): %q", w, line)
		}
	}
	if !strings.HasPrefix(strings.TrimLeft(xansi.Strip(out), " "), "Press") {
		t.Fatalf("expected no leading margin; got %q", out)
	}
}
