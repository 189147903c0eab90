package widgets

import (
	"sync"
	"time"

	"github.com/abhisek/coursekit/internal/view"
)

// ToastID is the singleton toast element.
const ToastID = "ea_toast"

// Toast kinds.
const (
	ToastSuccess = "success"
	ToastError   = "error"
	ToastInfo    = "info"
)

// DefaultToastDuration is how long a toast stays up.
const DefaultToastDuration = 3 * time.Second

// ToastContent is the content of the toast element.
type ToastContent struct {
	Icon    string
	Message string
	Kind    string
}

// Timer is the subset of *time.Timer the toaster needs.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Toaster shows transient notifications.
type Toaster struct {
	board    *view.Board
	after    AfterFunc
	duration time.Duration

	mu    sync.Mutex
	timer Timer
	gen   uint64
}

// ToasterOption configures a Toaster.
type ToasterOption func(*Toaster)

// WithAfterFunc replaces the timer factory.
func WithAfterFunc(fn AfterFunc) ToasterOption {
	return func(t *Toaster) { t.after = fn }
}

// WithToastDuration sets the default display time.
func WithToastDuration(d time.Duration) ToasterOption {
	return func(t *Toaster) {
		if d > 0 {
			t.duration = d
		}
	}
}

// NewToaster returns a Toaster.
func NewToaster(b *view.Board, opts ...ToasterOption) *Toaster {
	t := &Toaster{board: b, after: realAfterFunc, duration: DefaultToastDuration}
	for _, o := range opts {
		o(t)
	}
	return t
}

func toastIcon(kind string) string {
	switch kind {
	case ToastSuccess:
		return "✅"
	case ToastError:
		return "❌"
	default:
		return "ℹ️"
	}
}

// Show displays message. An empty kind means success; d <= 0 uses the
// default duration. A newer toast replaces the current one and restarts
// the hide timer.
func (t *Toaster) Show(message, kind string, d time.Duration) {
	if kind == "" {
		kind = ToastSuccess
	}
	if d <= 0 {
		d = t.duration
	}

	el := t.board.Mount(ToastID, "toast")

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer != nil {
		t.timer.Stop()
	}
	t.gen++
	gen := t.gen

	el.SetContent(ToastContent{Icon: toastIcon(kind), Message: message, Kind: kind})
	el.SetClasses("toast", "show", kind)

	t.timer = t.after(d, func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if gen == t.gen {
			el.SetClasses("toast")
		}
	})
}

// CurrentToast returns the toast being shown, if any.
func CurrentToast(b *view.Board) (ToastContent, bool) {
	el, ok := b.Lookup(ToastID)
	if !ok || !el.HasClass("show") {
		return ToastContent{}, false
	}
	c, ok := el.Content().(ToastContent)
	return c, ok
}
