package widgets

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/abhisek/coursekit/internal/view"
)

// Class names used by day navigation.
const (
	ClassDayPanel = "day-panel"
	ClassDayTab   = "day-tab"
	ClassActive   = "active"
)

// DayPanelID returns the panel id for day n.
func DayPanelID(n int) string { return fmt.Sprintf("day%d", n) }

// DayTabID returns the tab id for day n.
func DayTabID(n int) string { return fmt.Sprintf("tab%d", n) }

// Stopper halts narration.
type Stopper interface {
	Stop()
}

// DayNav switches the active day.
type DayNav struct {
	board     *view.Board
	stopper   Stopper
	scrollTop func()
}

// NewDayNav returns a DayNav. stopper and scrollTop may be nil.
func NewDayNav(b *view.Board, stopper Stopper, scrollTop func()) *DayNav {
	return &DayNav{board: b, stopper: stopper, scrollTop: scrollTop}
}

// ShowDay makes day n the only active panel and tab.
func (d *DayNav) ShowDay(n int) {
	for _, el := range d.board.Query(ClassDayPanel) {
		el.RemoveClass(ClassActive)
	}
	for _, el := range d.board.Query(ClassDayTab) {
		el.RemoveClass(ClassActive)
	}
	if el, ok := d.board.Lookup(DayPanelID(n)); ok {
		el.AddClass(ClassActive)
	}
	if el, ok := d.board.Lookup(DayTabID(n)); ok {
		el.AddClass(ClassActive)
	}
	if d.stopper != nil {
		d.stopper.Stop()
	}
	if d.scrollTop != nil {
		d.scrollTop()
	}
}

// ShowFirst activates the day of the first tab.
func (d *DayNav) ShowFirst() (int, bool) {
	tabs := d.board.Query(ClassDayTab)
	if len(tabs) == 0 {
		return 0, false
	}
	n, ok := tabDay(tabs[0])
	if !ok {
		return 0, false
	}
	d.ShowDay(n)
	return n, true
}

// ActiveDay returns the day of the active tab.
func (d *DayNav) ActiveDay() (int, bool) {
	for _, tab := range d.board.Query(ClassDayTab) {
		if tab.HasClass(ClassActive) {
			return tabDay(tab)
		}
	}
	return 0, false
}

// Days returns the day numbers of all tabs in order.
func (d *DayNav) Days() []int {
	var out []int
	for _, tab := range d.board.Query(ClassDayTab) {
		if n, ok := tabDay(tab); ok {
			out = append(out, n)
		}
	}
	return out
}

func tabDay(tab *view.Element) (int, bool) {
	raw, ok := tab.Data("day")
	if !ok {
		raw = strings.TrimPrefix(tab.ID(), "tab")
	}
	n, err := strconv.Atoi(raw)
	return n, err == nil
}
