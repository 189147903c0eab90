package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/coursekit/internal/ui/theme"
)

// Choice is one option of a MultiChoice.
type Choice struct {
	Letter  string
	Text    string
	Correct bool // revealed correct answer
	Wrong   bool // revealed wrong pick
}

// MultiChoice renders a lettered question. Locked questions show the
// revealed answer instead of the cursor.
type MultiChoice struct {
	Label    string
	Question string
	Choices  []Choice
	Locked   bool
	Focused  bool
	Note     string
	NoteOK   bool
}

// View renders the question block.
func (m MultiChoice) View() string {
	var b strings.Builder

	head := lipgloss.NewStyle().Foreground(theme.Text).Bold(true)
	if m.Focused {
		head = head.Foreground(theme.ArcadeYellow)
	}
	fmt.Fprintf(&b, "%s\n", head.Render(strings.TrimSpace(m.Label+" "+m.Question)))

	for _, c := range m.Choices {
		line := fmt.Sprintf("   %s)  %s", c.Letter, c.Text)
		switch {
		case c.Correct:
			line = theme.Correct.Render(line + "  ✓")
		case c.Wrong:
			line = theme.Incorrect.Render(line + "  ✗")
		case m.Locked:
			line = lipgloss.NewStyle().Foreground(theme.TextDim).Render(line)
		default:
			line = theme.Unselected.Render(line)
		}
		b.WriteString(line + "\n")
	}

	if m.Note != "" {
		style := theme.Incorrect
		if m.NoteOK {
			style = theme.Correct
		}
		b.WriteString("   " + style.Render(m.Note) + "\n")
	}
	return b.String()
}
