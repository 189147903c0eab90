// Package view is the element tree the course components write to. It
// stands in for a browser document: components mount elements by id, flip
// classes, set text and attach rendered content, and front-ends (the TUI and
// the preview server) read the tree back and draw it.
package view

import (
	"slices"
	"sync"
)

// Board holds the mounted elements in document order.
type Board struct {
	mu     sync.RWMutex
	byID   map[string]*Element
	order  []*Element
	subs   map[int]func()
	nextID int
}

// NewBoard returns an empty Board.
func NewBoard() *Board {
	return &Board{
		byID: make(map[string]*Element),
		subs: make(map[int]func()),
	}
}

// Mount registers a top-level element. Mounting an id that already exists
// returns the existing element unchanged.
func (b *Board) Mount(id string, classes ...string) *Element {
	return b.mount("", id, classes)
}

// MountChild registers id as the last child of parent. If parent is not
// mounted the element is mounted at the top level.
func (b *Board) MountChild(parent, id string, classes ...string) *Element {
	return b.mount(parent, id, classes)
}

func (b *Board) mount(parent, id string, classes []string) *Element {
	b.mu.Lock()
	if el, ok := b.byID[id]; ok {
		b.mu.Unlock()
		return el
	}

	el := &Element{board: b, id: id, data: make(map[string]string)}
	for _, c := range classes {
		if c != "" && !slices.Contains(el.classes, c) {
			el.classes = append(el.classes, c)
		}
	}

	pos := len(b.order)
	if p, ok := b.byID[parent]; ok {
		el.parent = p.id
		pos = b.subtreeEnd(p) + 1
	}
	b.order = slices.Insert(b.order, pos, el)
	b.byID[id] = el
	b.mu.Unlock()

	b.notify()
	return el
}

// subtreeEnd returns the index of the last element in p's subtree.
// Callers hold b.mu.
func (b *Board) subtreeEnd(p *Element) int {
	start := slices.Index(b.order, p)
	end := start
	for i := start + 1; i < len(b.order); i++ {
		if !b.descends(b.order[i], p.id) {
			break
		}
		end = i
	}
	return end
}

// descends reports whether el is strictly inside ancestor. Callers hold b.mu.
func (b *Board) descends(el *Element, ancestor string) bool {
	for cur := el.parent; cur != ""; {
		if cur == ancestor {
			return true
		}
		p, ok := b.byID[cur]
		if !ok {
			return false
		}
		cur = p.parent
	}
	return false
}

// Unmount removes id and everything inside it. Unknown ids are ignored.
func (b *Board) Unmount(id string) {
	b.mu.Lock()
	if _, ok := b.byID[id]; !ok {
		b.mu.Unlock()
		return
	}
	var kept []*Element
	for _, el := range b.order {
		if el.id == id || b.descends(el, id) {
			continue
		}
		kept = append(kept, el)
	}
	for _, el := range b.order {
		if !slices.Contains(kept, el) {
			delete(b.byID, el.id)
		}
	}
	b.order = kept
	b.mu.Unlock()

	b.notify()
}

// Lookup returns the element with the given id.
func (b *Board) Lookup(id string) (*Element, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	el, ok := b.byID[id]
	return el, ok
}

// Query returns all elements carrying class, in document order.
func (b *Board) Query(class string) []*Element {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var out []*Element
	for _, el := range b.order {
		if slices.Contains(el.classes, class) {
			out = append(out, el)
		}
	}
	return out
}

// Children returns the direct children of id in document order.
func (b *Board) Children(id string) []*Element {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var out []*Element
	for _, el := range b.order {
		if el.parent == id && id != "" {
			out = append(out, el)
		}
	}
	return out
}

// Contains reports whether id is mounted inside ancestorID.
func (b *Board) Contains(ancestorID, id string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	el, ok := b.byID[id]
	if !ok {
		return false
	}
	return b.descends(el, ancestorID)
}

// Len returns the number of mounted elements.
func (b *Board) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.order)
}

// Subscribe registers fn to be called after every mutation. fn runs on the
// mutating goroutine with no board locks held. The returned function
// removes the subscription.
func (b *Board) Subscribe(fn func()) (unsubscribe func()) {
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = fn
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

func (b *Board) notify() {
	b.mu.RLock()
	fns := make([]func(), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.mu.RUnlock()

	for _, fn := range fns {
		fn()
	}
}
