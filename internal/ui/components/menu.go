package components

import (
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/coursekit/internal/ui/theme"
)

// MenuItem is one entry of a Menu. Hint is drawn dimmed after the label.
type MenuItem struct {
	Label    string
	Hint     string
	Action   func() tea.Cmd
	Disabled bool
}

// Menu is a vertical list with one selected item. Disabled items are
// skipped by every movement key.
type Menu struct {
	Items    []MenuItem
	Selected int
}

func NewMenu(items []MenuItem) Menu {
	m := Menu{Items: items, Selected: -1}
	m.seek(0, 1)
	if m.Selected < 0 {
		m.Selected = 0
	}
	return m
}

// seek selects the first enabled item at or after from, moving by dir.
// The selection is unchanged when there is none.
func (m *Menu) seek(from, dir int) {
	for i := from; i >= 0 && i < len(m.Items); i += dir {
		if !m.Items[i].Disabled {
			m.Selected = i
			return
		}
	}
}

// Update moves the selection with ↑/↓ (or k/j), home/end and the digits
// 1-9, which jump to that item. Enter runs the selected action.
func (m Menu) Update(msg tea.Msg) (Menu, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch s := key.String(); s {
	case "up", "k":
		m.seek(m.Selected-1, -1)
	case "down", "j":
		m.seek(m.Selected+1, 1)
	case "home", "g":
		m.seek(0, 1)
	case "end", "G":
		m.seek(len(m.Items)-1, -1)
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		if i := int(s[0] - '1'); i < len(m.Items) && !m.Items[i].Disabled {
			m.Selected = i
		}
	case "enter":
		if m.Selected < 0 || m.Selected >= len(m.Items) {
			return m, nil
		}
		if it := m.Items[m.Selected]; it.Action != nil && !it.Disabled {
			return m, it.Action()
		}
	}
	return m, nil
}

func (m Menu) View() string {
	dim := lipgloss.NewStyle().Foreground(theme.TextDim)
	var b strings.Builder
	for i, it := range m.Items {
		if i > 0 {
			b.WriteByte('\n')
		}
		switch {
		case it.Disabled:
			b.WriteString(dim.Render("    " + it.Label))
		case i == m.Selected:
			b.WriteString(theme.Selected.Render("  ▸ " + it.Label))
		default:
			b.WriteString(theme.Unselected.Render("    " + it.Label))
		}
		if it.Hint != "" {
			b.WriteString("  " + dim.Render(it.Hint))
		}
	}
	return b.String()
}
