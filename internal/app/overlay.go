package app

import (
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/coursekit/internal/screen"
	"github.com/abhisek/coursekit/internal/ui/components"
	"github.com/abhisek/coursekit/internal/ui/theme"
	"github.com/abhisek/coursekit/internal/widgets"
)

// renderTools draws the tools popup.
func (m AppModel) renderTools(width, height int) string {
	box := components.Popup("🧰 Dispatcher Quick Tools", m.tools.View(), components.ContentWidth(width))
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}

// renderToast returns the styled toast line, or "" when none is showing.
func renderToast(deps *screen.Deps) string {
	t, ok := widgets.CurrentToast(deps.Board)
	if !ok {
		return ""
	}
	return theme.ToastStyle(t.Kind).Render(t.Icon + " " + t.Message)
}

// overlayToast replaces the last line of content with the toast, right
// aligned.
func overlayToast(content, toast string, width int) string {
	line := lipgloss.NewStyle().Width(width).Align(lipgloss.Right).Render(toast)
	lines := strings.Split(content, "\n")
	if len(lines) == 0 {
		return line
	}
	lines[len(lines)-1] = line
	return strings.Join(lines, "\n")
}
