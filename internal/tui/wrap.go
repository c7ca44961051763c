// Package tui provides the Bubble Tea quiz interface.
package tui

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// wrapText word-wraps s to the given display width. Words wider than the
// width are broken mid-word.
func wrapText(s string, width int) string {
	if width <= 0 {
		return s
	}
	var out strings.Builder
	lineWidth := 0
	first := true
	for _, word := range strings.Fields(s) {
		wordWidth := runewidth.StringWidth(word)
		switch {
		case first:
			first = false
		case lineWidth+1+wordWidth <= width:
			out.WriteByte(' ')
			lineWidth++
		default:
			out.WriteByte('\n')
			lineWidth = 0
		}
		if wordWidth <= width {
			out.WriteString(word)
			lineWidth += wordWidth
			continue
		}
		for _, r := range word {
			rw := runewidth.RuneWidth(r)
			if lineWidth+rw > width {
				out.WriteByte('\n')
				lineWidth = 0
			}
			out.WriteRune(r)
			lineWidth += rw
		}
	}
	return out.String()
}

// timerBar renders a proportional countdown bar of the given width.
func timerBar(remaining, total, width int) string {
	if width <= 0 || total <= 0 {
		return ""
	}
	if remaining < 0 {
		remaining = 0
	}
	if remaining > total {
		remaining = total
	}
	filled := remaining * width / total
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
