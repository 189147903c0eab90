package view

import (
	"maps"
	"slices"
)

// Element is one mounted node. All accessors are safe for concurrent use;
// mutations notify the board's subscribers.
type Element struct {
	board   *Board
	id      string
	parent  string
	classes []string
	data    map[string]string
	text    string
	content any
	hidden  bool
}

// ID returns the element id.
func (e *Element) ID() string { return e.id }

// Parent returns the element's parent, if it has one.
func (e *Element) Parent() (*Element, bool) {
	e.board.mu.RLock()
	defer e.board.mu.RUnlock()
	if e.parent == "" {
		return nil, false
	}
	p, ok := e.board.byID[e.parent]
	return p, ok
}

// mutate runs fn under the write lock and notifies subscribers if fn
// reports a change.
func (e *Element) mutate(fn func() bool) {
	e.board.mu.Lock()
	changed := fn()
	e.board.mu.Unlock()
	if changed {
		e.board.notify()
	}
}

// AddClass adds c if not already present.
func (e *Element) AddClass(c string) {
	e.mutate(func() bool {
		if slices.Contains(e.classes, c) {
			return false
		}
		e.classes = append(e.classes, c)
		return true
	})
}

// RemoveClass removes c if present.
func (e *Element) RemoveClass(c string) {
	e.mutate(func() bool {
		i := slices.Index(e.classes, c)
		if i < 0 {
			return false
		}
		e.classes = slices.Delete(e.classes, i, i+1)
		return true
	})
}

// ToggleClass adds c when on is true and removes it otherwise.
func (e *Element) ToggleClass(c string, on bool) {
	if on {
		e.AddClass(c)
	} else {
		e.RemoveClass(c)
	}
}

// FlipClass inverts the presence of c and returns whether it is now set.
func (e *Element) FlipClass(c string) bool {
	var on bool
	e.mutate(func() bool {
		if i := slices.Index(e.classes, c); i >= 0 {
			e.classes = slices.Delete(e.classes, i, i+1)
			on = false
		} else {
			e.classes = append(e.classes, c)
			on = true
		}
		return true
	})
	return on
}

// HasClass reports whether c is set.
func (e *Element) HasClass(c string) bool {
	e.board.mu.RLock()
	defer e.board.mu.RUnlock()
	return slices.Contains(e.classes, c)
}

// Classes returns a copy of the class list.
func (e *Element) Classes() []string {
	e.board.mu.RLock()
	defer e.board.mu.RUnlock()
	return slices.Clone(e.classes)
}

// SetClasses replaces the class list.
func (e *Element) SetClasses(classes ...string) {
	e.mutate(func() bool {
		e.classes = e.classes[:0]
		for _, c := range classes {
			if c != "" && !slices.Contains(e.classes, c) {
				e.classes = append(e.classes, c)
			}
		}
		return true
	})
}

// SetData sets a data attribute.
func (e *Element) SetData(key, value string) {
	e.mutate(func() bool {
		if old, ok := e.data[key]; ok && old == value {
			return false
		}
		e.data[key] = value
		return true
	})
}

// Data returns a data attribute.
func (e *Element) Data(key string) (string, bool) {
	e.board.mu.RLock()
	defer e.board.mu.RUnlock()
	v, ok := e.data[key]
	return v, ok
}

// Dataset returns a copy of all data attributes.
func (e *Element) Dataset() map[string]string {
	e.board.mu.RLock()
	defer e.board.mu.RUnlock()
	return maps.Clone(e.data)
}

// SetText sets the element's text.
func (e *Element) SetText(text string) {
	e.mutate(func() bool {
		if e.text == text {
			return false
		}
		e.text = text
		return true
	})
}

// Text returns the element's text.
func (e *Element) Text() string {
	e.board.mu.RLock()
	defer e.board.mu.RUnlock()
	return e.text
}

// SetContent attaches a rendered content model (a quiz view, an embed,
// ticker items). Front-ends type-switch on it.
func (e *Element) SetContent(v any) {
	e.mutate(func() bool {
		e.content = v
		return true
	})
}

// Content returns the attached content model, or nil.
func (e *Element) Content() any {
	e.board.mu.RLock()
	defer e.board.mu.RUnlock()
	return e.content
}

// Show makes the element visible.
func (e *Element) Show() { e.setHidden(false) }

// Hide hides the element.
func (e *Element) Hide() { e.setHidden(true) }

func (e *Element) setHidden(h bool) {
	e.mutate(func() bool {
		if e.hidden == h {
			return false
		}
		e.hidden = h
		return true
	})
}

// Visible reports whether the element is shown. Elements start visible.
func (e *Element) Visible() bool {
	e.board.mu.RLock()
	defer e.board.mu.RUnlock()
	return !e.hidden
}
