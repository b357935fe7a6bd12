package tui

import (
	"strings"

	"focusdeck/internal/tour"

	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"
)

// normalizePane forces s into exactly width x height cells: lines are cut
// with an ellipsis or padded with spaces, rows truncated or filled.
func normalizePane(s string, width, height int) string {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}

	lines := strings.Split(s, "\n")
	if height > 0 {
		if len(lines) > height {
			lines = lines[:height]
		}
		for len(lines) < height {
			lines = append(lines, "")
		}
	}

	for i, ln := range lines {
		// Bound StringWidth on pathological lines.
		if width > 0 && len(ln) > 8192 {
			ln = xansi.Cut(ln, 0, width)
		}
		w := xansi.StringWidth(ln)
		if w > width {
			switch {
			case width <= 0:
				ln = ""
			case width == 1:
				ln = xansi.Cut(ln, 0, 1)
			default:
				ln = xansi.Cut(ln, 0, width-1) + "…"
			}
			w = xansi.StringWidth(ln)
		}
		if w < width {
			ln += strings.Repeat(" ", width-w)
		}
		lines[i] = ln
	}
	return strings.Join(lines, "\n")
}

// overlay draws box over base with its top-left cell at (x, y). base must be
// normalized so every line spans the full width; parts of box falling outside
// base are dropped.
func overlay(base, box string, x, y int) string {
	lines := strings.Split(base, "\n")
	for i, row := range strings.Split(box, "\n") {
		ly := y + i
		if ly < 0 || ly >= len(lines) {
			continue
		}
		line := lines[ly]
		total := xansi.StringWidth(line)
		rx, rw := x, xansi.StringWidth(row)
		if rx < 0 {
			row = xansi.Cut(row, -rx, rw)
			rw += rx
			rx = 0
		}
		if rx >= total || rw <= 0 {
			continue
		}
		if rx+rw > total {
			row = xansi.Cut(row, 0, total-rx)
			rw = total - rx
		}
		lines[ly] = xansi.Cut(line, 0, rx) + row + xansi.Cut(line, rx+rw, total)
	}
	return strings.Join(lines, "\n")
}

// highlight re-renders the cells under r with style, dropping their
// existing styling.
func highlight(base string, r tour.Rect, style lipgloss.Style) string {
	if r.Empty() {
		return base
	}
	lines := strings.Split(base, "\n")
	for ly := max(r.Y, 0); ly < r.Bottom() && ly < len(lines); ly++ {
		line := lines[ly]
		total := xansi.StringWidth(line)
		x0, x1 := max(r.X, 0), min(r.Right(), total)
		if x0 >= x1 {
			continue
		}
		cell := xansi.Strip(xansi.Cut(line, x0, x1))
		lines[ly] = xansi.Cut(line, 0, x0) + style.Render(cell) + xansi.Cut(line, x1, total)
	}
	return strings.Join(lines, "\n")
}
