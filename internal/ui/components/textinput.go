package components

import (
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/coursekit/internal/ui/theme"
)

// TextInput wraps bubbles/textinput with coursekit styling.
type TextInput struct {
	Model       textinput.Model
	NumericOnly bool // digits, one '.' and a leading '-'
	Label       string
}

// NewTextInput creates a focused text input.
func NewTextInput(placeholder string, numericOnly bool, maxWidth int) TextInput {
	ti := textinput.New()
	ti.Placeholder = placeholder
	if maxWidth > 0 {
		ti.CharLimit = maxWidth
	}
	ti.Focus()
	return TextInput{Model: ti, NumericOnly: numericOnly}
}

// Update feeds msg to the input. Non-numeric runes are dropped when
// NumericOnly is set.
func (t TextInput) Update(msg tea.Msg) (TextInput, tea.Cmd) {
	if t.NumericOnly {
		if kmsg, ok := msg.(tea.KeyPressMsg); ok && len(kmsg.Text) == 1 && !numericRune(kmsg.Text[0]) {
			return t, nil
		}
	}
	var cmd tea.Cmd
	t.Model, cmd = t.Model.Update(msg)
	return t, cmd
}

func numericRune(c byte) bool {
	return (c >= '0' && c <= '9') || c == '.' || c == '-' || c == ':'
}

// View renders the optional label and the input.
func (t TextInput) View() string {
	if t.Label == "" {
		return t.Model.View()
	}
	label := lipgloss.NewStyle().Foreground(theme.TextDim).Render(t.Label)
	return label + "\n" + t.Model.View()
}

// Value returns the current input value.
func (t TextInput) Value() string { return t.Model.Value() }

// SetValue replaces the value.
func (t *TextInput) SetValue(s string) { t.Model.SetValue(s) }

// Focus gives the input the cursor.
func (t *TextInput) Focus() tea.Cmd { return t.Model.Focus() }

// Blur removes the cursor.
func (t *TextInput) Blur() { t.Model.Blur() }

// Reset clears the value.
func (t *TextInput) Reset() { t.Model.Reset() }
