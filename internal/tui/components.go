package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ProgressBar renders a label, a bar and a count.
//
//	Required ━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━ 12/31
func ProgressBar(label string, done, total, width int, s Styles) string {
	if total <= 0 {
		total = 1
	}
	if done > total {
		done = total
	}
	if done < 0 {
		done = 0
	}
	count := fmt.Sprintf("%d/%d", done, total)
	barWidth := width - lipgloss.Width(label) - len(count) - 2
	if barWidth < 10 {
		barWidth = 10
	}
	filled := barWidth * done / total
	bar := s.ProgressFilled.Render(strings.Repeat("━", filled)) +
		s.ProgressEmpty.Render(strings.Repeat("━", barWidth-filled))
	return label + " " + bar + " " + s.Dim.Render(count)
}

// StatusBadge renders a status dot with a label.
func StatusBadge(status, label string, s Styles) string {
	style := s.Dim
	switch status {
	case "completed", "ok":
		style = s.Success
	case "failed", "error":
		style = s.Error
	case "warning":
		style = s.Warning
	case "running":
		style = s.Running
	}
	return StatusIcon(status, s) + " " + style.Render(label)
}

// KeyHint is one keyboard shortcut.
type KeyHint struct {
	Key   string
	Label string
}

// KeyHints renders a row of shortcuts.
//
//	[q] Quit    [l] Log
func KeyHints(hints []KeyHint, s Styles) string {
	parts := make([]string, 0, len(hints))
	for _, h := range hints {
		parts = append(parts, s.KeyBinding.Render("["+h.Key+"]")+" "+s.KeyHint.Render(h.Label))
	}
	return strings.Join(parts, "    ")
}

// Panel renders a titled, bordered box of fixed width.
func Panel(title, content string, width int, focused bool, s Styles) string {
	if width < 20 {
		width = 20
	}
	box := s.Box
	if focused {
		box = s.BoxFocused
	}
	body := s.Header.Render(title) + "\n" + content
	return box.Width(width - 2).Render(body)
}
