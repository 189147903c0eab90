// Package widgets holds the small page behaviours: topic accordion, day
// tabs, video slots, toasts, the ticker, popups and the student greeting.
package widgets

import "github.com/abhisek/coursekit/internal/view"

// Class names used by the accordion.
const (
	ClassTopicHeader = "topic-header"
	ClassOpen        = "open"
)

// BodyID returns the id of a topic header's collapsible body.
func BodyID(headerID string) string { return headerID + "_body" }

// ChevronID returns the id of a topic header's chevron.
func ChevronID(headerID string) string { return headerID + "_chevron" }

// ToggleTopic opens or closes a topic. The body's state decides the
// direction (the header's, when there is no body), and header, body and
// chevron are all set to match. It reports whether the topic is now open;
// a missing header is a no-op.
func ToggleTopic(b *view.Board, headerID string) (open bool, ok bool) {
	header, ok := b.Lookup(headerID)
	if !ok {
		return false, false
	}
	body, hasBody := b.Lookup(BodyID(headerID))
	isOpen := header.HasClass(ClassOpen)
	if hasBody {
		isOpen = body.HasClass(ClassOpen)
	}
	setTopicOpen(b, headerID, !isOpen)
	return !isOpen, true
}

// IsTopicOpen reports whether a topic's body (or header) is open.
func IsTopicOpen(b *view.Board, headerID string) bool {
	if body, ok := b.Lookup(BodyID(headerID)); ok {
		return body.HasClass(ClassOpen)
	}
	if header, ok := b.Lookup(headerID); ok {
		return header.HasClass(ClassOpen)
	}
	return false
}

func setTopicOpen(b *view.Board, headerID string, open bool) {
	for _, id := range []string{headerID, BodyID(headerID), ChevronID(headerID)} {
		if el, ok := b.Lookup(id); ok {
			el.ToggleClass(ClassOpen, open)
		}
	}
}

// OpenFirstTopic opens the first topic header in document order and
// returns its id.
func OpenFirstTopic(b *view.Board) (string, bool) {
	headers := b.Query(ClassTopicHeader)
	if len(headers) == 0 {
		return "", false
	}
	id := headers[0].ID()
	setTopicOpen(b, id, true)
	return id, true
}
