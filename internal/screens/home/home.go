// Package home is the course dashboard: greeting, ticker, week progress and
// the entry points into weeks and tools.
package home

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/coursekit/internal/course"
	"github.com/abhisek/coursekit/internal/router"
	"github.com/abhisek/coursekit/internal/screen"
	"github.com/abhisek/coursekit/internal/screens/placeholder"
	"github.com/abhisek/coursekit/internal/screens/toolbox"
	"github.com/abhisek/coursekit/internal/screens/week"
	"github.com/abhisek/coursekit/internal/ui/components"
	"github.com/abhisek/coursekit/internal/ui/layout"
	"github.com/abhisek/coursekit/internal/ui/theme"
	"github.com/abhisek/coursekit/internal/widgets"
)

// TickerID is the board element holding the dashboard ticker.
const TickerID = "home_ticker"

const tickInterval = 200 * time.Millisecond

// Action labels.
const (
	LabelTools  = "QUICK TOOLS"
	LabelSwitch = "SWITCH COURSE"
	LabelExit   = "EXIT"
)

type tickMsg time.Time

// HomeScreen is the main dashboard.
type HomeScreen struct {
	deps      *screen.Deps
	courseIdx int
	menu      components.Menu
	weeks     int
	actions   []string
	tick      int
}

var (
	_ screen.Screen          = (*HomeScreen)(nil)
	_ screen.KeyHintProvider = (*HomeScreen)(nil)
	_ screen.CourseProvider  = (*HomeScreen)(nil)
	_ screen.Resumer         = (*HomeScreen)(nil)
)

// New creates the dashboard, starting on the course named in the student
// profile when there is one.
func New(deps *screen.Deps) *HomeScreen {
	h := &HomeScreen{deps: deps}
	want := deps.Students.Get(context.Background()).Course
	for i, c := range deps.Courses {
		if want != "" && (c.ID == want || strings.EqualFold(c.Title, want)) {
			h.courseIdx = i
		}
	}
	deps.Board.Mount(TickerID)
	h.rebuild()
	return h
}

// Course returns the selected course, or nil when none are loaded.
func (h *HomeScreen) Course() *course.Course {
	if h.courseIdx < len(h.deps.Courses) {
		return h.deps.Courses[h.courseIdx]
	}
	return nil
}

// rebuild recreates the menu and ticker for the selected course.
func (h *HomeScreen) rebuild() {
	c := h.Course()
	var items []components.MenuItem
	h.weeks = 0
	if c != nil {
		for _, w := range c.Weeks {
			items = append(items, components.MenuItem{
				Label:  fmt.Sprintf("Week %d: %s", w.ID, w.Title),
				Action: h.openWeek(c, w),
			})
		}
		h.weeks = len(c.Weeks)
		widgets.RenderTicker(h.deps.Board, c.Ticker, TickerID)
	}

	h.actions = []string{LabelTools}
	items = append(items, components.MenuItem{Label: LabelTools, Action: func() tea.Cmd {
		return router.Open(toolbox.NewList())
	}})
	if len(h.deps.Courses) > 1 {
		h.actions = append(h.actions, LabelSwitch)
		items = append(items, components.MenuItem{Label: LabelSwitch, Action: h.switchCourse})
	}
	h.actions = append(h.actions, LabelExit)
	items = append(items, components.MenuItem{Label: LabelExit, Action: func() tea.Cmd { return tea.Quit }})

	h.menu = components.NewMenu(items)
}

func (h *HomeScreen) openWeek(c *course.Course, w course.Week) func() tea.Cmd {
	return func() tea.Cmd {
		title := fmt.Sprintf("Week %d", w.ID)
		if w.TopicCount() == 0 {
			return router.Open(placeholder.New(title, ""))
		}
		s, err := week.New(h.deps, c, w.ID)
		if err != nil {
			h.deps.Logger.Printf("home: open week %d: %v", w.ID, err)
			return router.Open(placeholder.New(title, "This week could not be opened.\n\n"+err.Error()))
		}
		return router.Open(s)
	}
}

func (h *HomeScreen) switchCourse() tea.Cmd {
	if len(h.deps.Courses) < 2 {
		return nil
	}
	h.courseIdx = (h.courseIdx + 1) % len(h.deps.Courses)
	h.rebuild()
	h.menu.Selected = len(h.menu.Items) - len(h.actions) + 1
	h.deps.Toaster.Show("Switched to "+h.Course().Title, widgets.ToastInfo, 0)
	return nil
}

func (h *HomeScreen) Init() tea.Cmd {
	return h.scheduleTick()
}

// Resume restarts the ticker after a covering screen is popped.
func (h *HomeScreen) Resume() tea.Cmd {
	if c := h.Course(); c != nil {
		widgets.RenderTicker(h.deps.Board, c.Ticker, TickerID)
	}
	return h.scheduleTick()
}

func (h *HomeScreen) scheduleTick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (h *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if _, ok := msg.(tickMsg); ok {
		h.tick++
		return h, h.scheduleTick()
	}
	var cmd tea.Cmd
	h.menu, cmd = h.menu.Update(msg)
	return h, cmd
}

func (h *HomeScreen) Title() string {
	if c := h.Course(); c != nil {
		return c.Title
	}
	return "Home"
}

func (h *HomeScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Select"},
	}
}

// summarise reads the ledger for the selected course.
func (h *HomeScreen) summarise(ctx context.Context) (stats, []weekRow, int) {
	var s stats
	c := h.Course()
	if c == nil {
		return s, nil, 0
	}
	tr := h.deps.Tracker
	rows := make([]weekRow, 0, len(c.Weeks))
	best := 0
	for _, w := range c.Weeks {
		total := w.TopicCount()
		pct := min(tr.WeekProgress(ctx, c.ID, w.ID, total), 100)
		best = max(best, pct)
		rows = append(rows, weekRow{label: fmt.Sprintf("Week %d: %s", w.ID, w.Title), percent: pct})
		s.topicsTotal += total
		for _, d := range w.Days {
			for _, t := range d.Topics {
				if tr.IsTopicDone(ctx, c.ID, w.ID, d.ID, t.ID) {
					s.topicsDone++
				}
			}
		}
	}

	prefix := "quiz_" + c.ID + "_"
	sum := 0
	for key, rec := range tr.Get(ctx) {
		if rec.QuizScore != nil && strings.HasPrefix(key, prefix) {
			s.quizzes++
			sum += rec.Pct
		}
	}
	if s.quizzes > 0 {
		s.avgScore = sum / s.quizzes
	}
	return s, rows, best
}

func (h *HomeScreen) View(width, height int) string {
	ctx := context.Background()
	c := h.Course()
	if c == nil {
		return placeholder.New("", "No courses loaded.\n\nCheck the courses setting in your config.").View(width, height)
	}

	termHeight := height + 8
	compact := layout.IsCompactHeight(termHeight) || layout.IsCompactWidth(width)
	cw := components.ContentWidth(width)

	st, rows, best := h.summarise(ctx)
	name := h.deps.Students.Get(ctx).DisplayName()

	var sections []string
	sections = append(sections, renderTitle(c.Title, "Namaste, "+name+" 🙏", cw))
	if el, ok := h.deps.Board.Lookup(TickerID); ok {
		if tc, ok := el.Content().(widgets.TickerContent); ok {
			sections = append(sections, lipgloss.NewStyle().Foreground(theme.Accent).Render(tc.Frame(cw, h.tick)))
		}
	}
	if !compact {
		sections = append(sections, renderMascotBox(mascotFor(best), cw))
	}
	sections = append(sections, renderStatsBar(st, cw, compact))

	weekSel := -1
	if h.menu.Selected < h.weeks {
		weekSel = h.menu.Selected
	}
	sections = append(sections, renderWeeks(rows, weekSel, cw))
	sections = append(sections, renderActions(h.actions, h.menu.Selected-h.weeks, cw, compact))

	if svc := h.deps.ChatFor(c); svc != nil && !svc.HasCredential(ctx) {
		sections = append(sections, renderChatBanner(cw))
	}

	return components.CabinetFrame(strings.Join(sections, "\n\n"), width, height)
}

// WeekPercent returns the clamped completion of week w of the selected
// course.
func (h *HomeScreen) WeekPercent(w int) int {
	c := h.Course()
	if c == nil {
		return 0
	}
	return min(h.deps.Tracker.WeekProgress(context.Background(), c.ID, w, c.TopicCount(w)), 100)
}
