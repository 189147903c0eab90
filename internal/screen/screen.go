package screen

import (
	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/coursekit/internal/course"
	"github.com/abhisek/coursekit/internal/ui/layout"
)

// Screen defines the interface for all application screens.
type Screen interface {
	// Init returns an initial command when the screen is first created.
	Init() tea.Cmd

	// Update handles messages and returns updated screen + command.
	Update(msg tea.Msg) (Screen, tea.Cmd)

	// View renders the screen content (excluding header/footer).
	View(width, height int) string

	// Title returns the screen name for the header.
	Title() string
}

// KeyHintProvider is an optional interface that screens can implement
// to provide custom footer key hints.
type KeyHintProvider interface {
	KeyHints() []layout.KeyHint
}

// StatusProvider is implemented by screens that show a status in the
// header's right corner.
type StatusProvider interface {
	Status() string
}

// CourseProvider is implemented by screens bound to one course. The chat
// overlay answers with that course's assistant.
type CourseProvider interface {
	Course() *course.Course
}

// InputCapturer is implemented by screens that are currently reading
// free text. While Capturing is true global shortcuts other than Ctrl+C
// are passed to the screen.
type InputCapturer interface {
	Capturing() bool
}

// Resumer is implemented by screens that restart work, such as
// animations, when they become active again after a pop.
type Resumer interface {
	Resume() tea.Cmd
}
