// Package toolbox holds the quick tools screens: the tool picker shown in
// the tools popup and on its own screen, and the form that runs a tool.
package toolbox

import (
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/coursekit/internal/router"
	"github.com/abhisek/coursekit/internal/tools"
	"github.com/abhisek/coursekit/internal/ui/theme"
)

// Picker is a cursor over the available tools.
type Picker struct {
	Tools    []tools.Tool
	Selected int
}

// NewPicker returns a picker over tools.All.
func NewPicker() Picker {
	return Picker{Tools: tools.All()}
}

// Update moves the cursor. Enter pushes the form for the selected tool.
func (p Picker) Update(msg tea.Msg) (Picker, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyPressMsg)
	if !ok || len(p.Tools) == 0 {
		return p, nil
	}
	switch kmsg.String() {
	case "up", "k":
		if p.Selected > 0 {
			p.Selected--
		}
	case "down", "j":
		if p.Selected < len(p.Tools)-1 {
			p.Selected++
		}
	case "enter":
		form := NewForm(p.Tools[p.Selected])
		return p, router.Open(form)
	}
	return p, nil
}

// View lists the tools, one per line with its description below.
func (p Picker) View() string {
	dim := lipgloss.NewStyle().Foreground(theme.TextDim)
	var lines []string
	for i, t := range p.Tools {
		label := t.Icon() + "  " + t.Name()
		if i == p.Selected {
			lines = append(lines, theme.Selected.Render("▸ "+label))
		} else {
			lines = append(lines, theme.Unselected.Render("  "+label))
		}
		lines = append(lines, dim.Render("     "+t.Description()))
	}
	return strings.Join(lines, "\n")
}
