package widgets

import (
	"github.com/abhisek/coursekit/internal/student"
	"github.com/abhisek/coursekit/internal/view"
)

// Popup and greeting element ids.
const (
	ChatPopupID   = "mj-popup"
	ToolsPopupID  = "tools-popup"
	StudentNameID = "student_name"
)

// ToggleChat closes the tools popup and toggles the chat popup. It reports
// whether chat is now open.
func ToggleChat(b *view.Board) bool {
	if el, ok := b.Lookup(ToolsPopupID); ok {
		el.RemoveClass(ClassOpen)
	}
	el, ok := b.Lookup(ChatPopupID)
	if !ok {
		return false
	}
	return el.FlipClass(ClassOpen)
}

// ToggleTools toggles the tools popup and closes chat. It reports whether
// tools is now open.
func ToggleTools(b *view.Board) bool {
	open := false
	if el, ok := b.Lookup(ToolsPopupID); ok {
		open = el.FlipClass(ClassOpen)
	}
	if el, ok := b.Lookup(ChatPopupID); ok {
		el.RemoveClass(ClassOpen)
	}
	return open
}

// IsOpen reports whether the popup id is open.
func IsOpen(b *view.Board, id string) bool {
	el, ok := b.Lookup(id)
	return ok && el.HasClass(ClassOpen)
}

// GreetStudent writes the student's display name into the greeting.
func GreetStudent(b *view.Board, p student.Profile) {
	if el, ok := b.Lookup(StudentNameID); ok {
		el.SetText(p.DisplayName())
	}
}
