// Package placeholder is the screen shown where real content is missing:
// a week without topics, or a course that failed to open.
package placeholder

import (
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/coursekit/internal/screen"
	"github.com/abhisek/coursekit/internal/ui/theme"
)

// DefaultMessage is used when New gets an empty message.
const DefaultMessage = "╌╌ Coming Soon ╌╌\n\nThis section has no lessons yet.\nCheck back later!"

// Screen is a static centred notice. Esc is handled by the app.
type Screen struct {
	title   string
	message string
}

var _ screen.Screen = (*Screen)(nil)

func New(title, message string) *Screen {
	if message == "" {
		message = DefaultMessage
	}
	return &Screen{title: title, message: message}
}

func (p *Screen) Init() tea.Cmd                           { return nil }
func (p *Screen) Update(tea.Msg) (screen.Screen, tea.Cmd) { return p, nil }
func (p *Screen) Title() string                           { return p.title }

func (p *Screen) View(width, height int) string {
	box := lipgloss.NewStyle().
		Foreground(theme.Text).
		Align(lipgloss.Center).
		Padding(1, 4).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border).
		Render(p.message)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}
