// Package task holds at most one cancellable background task at a time.
// Narration and chat calls use it so a newer request can supersede (or be
// refused by) an outstanding one, and so a stale completion can tell it is
// no longer current.
package task

import (
	"context"
	"sync"
)

// Token identifies one started task.
type Token uint64

// Slot is a single-occupancy task holder. The zero value is ready to use.
type Slot struct {
	mu     sync.Mutex
	cur    Token
	next   Token
	cancel context.CancelFunc
	active bool
}

// Start cancels any active task and begins a new one derived from parent.
func (s *Slot) Start(parent context.Context) (context.Context, Token) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		s.cancel()
	}
	return s.begin(parent)
}

// TryStart begins a new task only when none is active.
func (s *Slot) TryStart(parent context.Context) (context.Context, Token, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		return nil, 0, false
	}
	ctx, tok := s.begin(parent)
	return ctx, tok, true
}

// begin requires s.mu.
func (s *Slot) begin(parent context.Context) (context.Context, Token) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	s.next++
	s.cur = s.next
	s.cancel = cancel
	s.active = true
	return ctx, s.cur
}

// Current reports whether tok is the active task.
func (s *Slot) Current(tok Token) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active && s.cur == tok
}

// Finish releases the slot if tok is still current and reports whether it
// was. A stale token leaves the slot untouched.
func (s *Slot) Finish(tok Token) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active || s.cur != tok {
		return false
	}
	s.cancel()
	s.active = false
	s.cancel = nil
	return true
}

// Cancel aborts the active task, if any, and frees the slot.
func (s *Slot) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return
	}
	s.cancel()
	s.active = false
	s.cancel = nil
}

// Busy reports whether a task is active.
func (s *Slot) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}
