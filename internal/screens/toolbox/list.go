package toolbox

import (
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/coursekit/internal/screen"
	"github.com/abhisek/coursekit/internal/ui/components"
	"github.com/abhisek/coursekit/internal/ui/layout"
)

// ListScreen shows the tool picker full screen.
type ListScreen struct {
	picker Picker
}

var (
	_ screen.Screen          = (*ListScreen)(nil)
	_ screen.KeyHintProvider = (*ListScreen)(nil)
)

// NewList creates the tools screen.
func NewList() *ListScreen {
	return &ListScreen{picker: NewPicker()}
}

func (s *ListScreen) Init() tea.Cmd {
	return nil
}

func (s *ListScreen) Title() string {
	return "Quick Tools"
}

func (s *ListScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Choose"},
		{Key: "Enter", Description: "Open"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *ListScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	var cmd tea.Cmd
	s.picker, cmd = s.picker.Update(msg)
	return s, cmd
}

func (s *ListScreen) View(width, height int) string {
	cw := components.ContentWidth(width)
	card := components.Popup("🧰 Dispatcher Quick Tools", s.picker.View(), cw)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, card)
}
