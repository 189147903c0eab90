// Package week is the lesson screen: day tabs, topic accordion, narration,
// language toggle, videos and quizzes for one course week.
package week

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/coursekit/internal/course"
	"github.com/abhisek/coursekit/internal/lang"
	"github.com/abhisek/coursekit/internal/narration"
	"github.com/abhisek/coursekit/internal/page"
	"github.com/abhisek/coursekit/internal/progress"
	"github.com/abhisek/coursekit/internal/router"
	"github.com/abhisek/coursekit/internal/screen"
	quizscreen "github.com/abhisek/coursekit/internal/screens/quiz"
	"github.com/abhisek/coursekit/internal/ui/components"
	"github.com/abhisek/coursekit/internal/ui/layout"
	"github.com/abhisek/coursekit/internal/widgets"
)

const tickInterval = 200 * time.Millisecond

// Toast messages.
const (
	MsgTopicDone   = "Topic marked complete!"
	MsgDayDone     = "Day complete! शाबाश!"
	MsgVideoSaved  = "Video saved for this topic."
	MsgVideoBadURL = "Please paste a YouTube link."
)

// tickMsg advances the ticker marquee.
type tickMsg time.Time

// WeekScreen shows one week of a course.
type WeekScreen struct {
	deps   *screen.Deps
	course *course.Course
	layout *page.Layout
	nav    *widgets.DayNav

	cursor int
	tick   int
	prompt *components.TextInput
}

var (
	_ screen.Screen          = (*WeekScreen)(nil)
	_ screen.KeyHintProvider = (*WeekScreen)(nil)
	_ screen.StatusProvider  = (*WeekScreen)(nil)
	_ screen.CourseProvider  = (*WeekScreen)(nil)
	_ screen.InputCapturer   = (*WeekScreen)(nil)
	_ screen.Resumer         = (*WeekScreen)(nil)
)

// New mounts week weekID of c on the deps board and returns its screen.
func New(deps *screen.Deps, c *course.Course, weekID int) (*WeekScreen, error) {
	ctx := context.Background()
	b := deps.Board

	l, err := page.MountWeek(b, c, weekID)
	if err != nil {
		return nil, fmt.Errorf("mount week: %w", err)
	}

	s := &WeekScreen{deps: deps, course: c, layout: l}
	s.nav = widgets.NewDayNav(b, deps.Narrator, func() { s.cursor = 0 })

	if err := deps.Lang.Init(ctx); err != nil {
		deps.Logger.Printf("week: init language: %v", err)
	}
	s.nav.ShowFirst()
	widgets.OpenFirstTopic(b)
	deps.Tracker.SetOnChange(s.refresh)
	s.refresh()
	page.InitVideos(ctx, b, l, deps.Videos)
	widgets.GreetStudent(b, deps.Students.Get(ctx))
	widgets.RenderTicker(b, c.Ticker, "")

	for _, ref := range l.Topics {
		if ref.Topic.Quiz == nil || len(ref.Topic.Quiz.Questions) == 0 {
			continue
		}
		opts := c.QuizOptions(ref.Week, ref.Day, ref.Topic)
		opts.OnPass = s.onQuizPass(ref)
		if err := deps.Quizzes.Init(page.QuizID(ref.HeaderID), ref.Topic.Quiz.Questions, opts); err != nil {
			deps.Logger.Printf("week: init quiz %s: %v", ref.HeaderID, err)
		}
	}
	return s, nil
}

func (s *WeekScreen) Init() tea.Cmd {
	return s.scheduleTick()
}

// Resume takes back the ledger hook, refreshes completion marks and
// restarts the ticker.
func (s *WeekScreen) Resume() tea.Cmd {
	s.deps.Tracker.SetOnChange(s.refresh)
	s.refresh()
	return s.scheduleTick()
}

// refresh re-applies done marks from the ledger. It runs after every mark.
func (s *WeekScreen) refresh() {
	page.RefreshDone(context.Background(), s.deps.Board, s.layout, s.deps.Tracker)
}

func (s *WeekScreen) scheduleTick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (s *WeekScreen) Title() string {
	return s.layout.Week.Title
}

// Course returns the course being studied.
func (s *WeekScreen) Course() *course.Course {
	return s.course
}

// Status shows the language and week completion.
func (s *WeekScreen) Status() string {
	code := "EN"
	if s.deps.Lang.Current() == lang.Hindi {
		code = "हिं"
	}
	return fmt.Sprintf("%s  ▰ %d%%", code, s.percent())
}

func (s *WeekScreen) percent() int {
	pct := s.deps.Tracker.WeekProgress(context.Background(), s.course.ID, s.layout.Week.ID, s.layout.Week.TopicCount())
	return min(pct, 100)
}

// Capturing reports whether the video link prompt is open.
func (s *WeekScreen) Capturing() bool {
	return s.prompt != nil
}

func (s *WeekScreen) KeyHints() []layout.KeyHint {
	if s.prompt != nil {
		return []layout.KeyHint{
			{Key: "Enter", Description: "Save link"},
			{Key: "Esc", Description: "Cancel"},
		}
	}
	hints := []layout.KeyHint{
		{Key: "←→", Description: "Day"},
		{Key: "↑↓", Description: "Topic"},
		{Key: "Enter", Description: "Open"},
	}
	switch n := s.deps.Narrator; {
	case n.Speaking():
		hints = append(hints, layout.KeyHint{Key: "x", Description: "Stop"})
	case n.Supported():
		hints = append(hints, layout.KeyHint{Key: "n", Description: "Read"})
	}
	return append(hints,
		layout.KeyHint{Key: "l", Description: "EN/हिं"},
		layout.KeyHint{Key: "v", Description: "Video"},
		layout.KeyHint{Key: "d", Description: "Done"},
		layout.KeyHint{Key: "q", Description: "Quiz"},
	)
}

// NextTopicMsg asks the week screen to move to the topic card with the
// given id, as picked by the quiz engine.
type NextTopicMsg struct {
	CardID string
}

func (s *WeekScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		s.tick++
		return s, s.scheduleTick()

	case NextTopicMsg:
		s.focusCard(msg.CardID)
		return s, nil

	case tea.KeyPressMsg:
		if s.prompt != nil {
			return s.updatePrompt(msg)
		}
		return s.handleKey(msg)
	}

	if s.prompt != nil {
		var cmd tea.Cmd
		*s.prompt, cmd = s.prompt.Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s *WeekScreen) handleKey(msg tea.KeyPressMsg) (screen.Screen, tea.Cmd) {
	ctx := context.Background()
	switch msg.String() {
	case "left", "h", "shift+tab":
		s.stepDay(-1)
	case "right", "tab":
		s.stepDay(1)
	case "up", "k":
		if s.cursor > 0 {
			s.cursor--
		}
	case "down", "j":
		if s.cursor < len(s.dayTopics())-1 {
			s.cursor++
		}
	case "enter", "space":
		if ref, ok := s.current(); ok {
			widgets.ToggleTopic(s.deps.Board, ref.HeaderID)
		}
	case "n":
		s.narrate()
	case "x":
		s.deps.Narrator.Stop()
	case "l":
		if err := s.deps.Lang.Toggle(ctx); err != nil {
			s.deps.Logger.Printf("week: toggle language: %v", err)
		}
	case "v":
		if _, ok := s.current(); ok {
			in := components.NewTextInput("https://youtu.be/...", false, 200)
			in.Label = "Paste YouTube video URL for this topic:"
			s.prompt = &in
			return s, in.Model.Focus()
		}
	case "d":
		if ref, ok := s.current(); ok {
			s.markDone(ref, MsgTopicDone)
		}
	case "q":
		return s, s.openQuiz()
	}
	return s, nil
}

func (s *WeekScreen) updatePrompt(msg tea.KeyPressMsg) (screen.Screen, tea.Cmd) {
	switch msg.String() {
	case "esc":
		s.prompt = nil
		return s, nil
	case "enter":
		url := s.prompt.Value()
		s.prompt = nil
		ref, ok := s.current()
		if !ok {
			return s, nil
		}
		if s.deps.Videos.PromptURL(context.Background(), page.VideoID(ref.HeaderID), url) {
			s.deps.Toaster.Show(MsgVideoSaved, widgets.ToastSuccess, 0)
		} else {
			s.deps.Toaster.Show(MsgVideoBadURL, widgets.ToastError, 0)
		}
		return s, nil
	}
	var cmd tea.Cmd
	*s.prompt, cmd = s.prompt.Update(msg)
	return s, cmd
}

func (s *WeekScreen) stepDay(delta int) {
	days := s.nav.Days()
	active, ok := s.nav.ActiveDay()
	if !ok || len(days) == 0 {
		return
	}
	for i, d := range days {
		if d == active {
			j := i + delta
			if j >= 0 && j < len(days) {
				s.nav.ShowDay(days[j])
			}
			return
		}
	}
}

func (s *WeekScreen) dayTopics() []page.TopicRef {
	day, ok := s.nav.ActiveDay()
	if !ok {
		return nil
	}
	return s.layout.DayTopics(day)
}

func (s *WeekScreen) current() (page.TopicRef, bool) {
	topics := s.dayTopics()
	if s.cursor < 0 || s.cursor >= len(topics) {
		return page.TopicRef{}, false
	}
	return topics[s.cursor], true
}

func (s *WeekScreen) narrate() {
	ref, ok := s.current()
	if !ok {
		return
	}
	cur := s.deps.Lang.Current()
	err := s.deps.Narrator.SpeakElement(page.ContentID(ref.HeaderID, cur), lang.SpeechLocale(cur), page.StatusID(ref.HeaderID))
	if err != nil && !errors.Is(err, narration.ErrUnsupported) {
		s.deps.Logger.Printf("week: narrate %s: %v", ref.HeaderID, err)
	}
}

// markDone records the topic and completes the day once all its topics
// are done. The ledger hook refreshes the cards.
func (s *WeekScreen) markDone(ref page.TopicRef, toast string) {
	ctx := context.Background()
	tr := s.deps.Tracker
	if err := tr.MarkTopicDone(ctx, s.course.ID, ref.Week, ref.Day, ref.Topic.ID); err != nil {
		s.deps.Logger.Printf("week: mark %s done: %v", ref.HeaderID, err)
		s.deps.Toaster.Show("Could not save progress.", widgets.ToastError, 0)
		return
	}

	if dayComplete(ctx, tr, s.course.ID, s.layout.DayTopics(ref.Day)) && !tr.IsDayDone(ctx, s.course.ID, ref.Week, ref.Day) {
		if err := tr.MarkDayDone(ctx, s.course.ID, ref.Week, ref.Day); err != nil {
			s.deps.Logger.Printf("week: mark day %d done: %v", ref.Day, err)
		}
		toast = MsgDayDone
	}
	s.deps.Toaster.Show(toast, widgets.ToastSuccess, 0)
}

func dayComplete(ctx context.Context, tr *progress.Tracker, courseID string, topics []page.TopicRef) bool {
	for _, t := range topics {
		if !tr.IsTopicDone(ctx, courseID, t.Week, t.Day, t.Topic.ID) {
			return false
		}
	}
	return len(topics) > 0
}

func (s *WeekScreen) onQuizPass(ref page.TopicRef) func(int) {
	return func(pct int) {
		s.markDone(ref, fmt.Sprintf("Quiz passed with %d%%! Topic complete.", pct))
	}
}

func (s *WeekScreen) openQuiz() tea.Cmd {
	ref, ok := s.current()
	if !ok {
		return nil
	}
	id := page.QuizID(ref.HeaderID)
	if _, ok := s.deps.Quizzes.State(id); !ok {
		s.deps.Toaster.Show("This topic has no quiz.", widgets.ToastInfo, 0)
		return nil
	}
	s.deps.Narrator.Stop()
	qs := quizscreen.New(s.deps.Quizzes, id, ref.Topic.DisplayTitle(s.deps.Lang.Current()), func(cardID string) tea.Msg {
		return NextTopicMsg{CardID: cardID}
	})
	return router.Open(qs)
}

// focusCard switches to the card's day, moves the cursor to it and opens
// its accordion.
func (s *WeekScreen) focusCard(cardID string) {
	ref, ok := s.layout.Find(strings.TrimSuffix(cardID, "_card"))
	if !ok {
		return
	}
	if day, _ := s.nav.ActiveDay(); day != ref.Day {
		s.nav.ShowDay(ref.Day)
	}
	for i, t := range s.layout.DayTopics(ref.Day) {
		if t.HeaderID == ref.HeaderID {
			s.cursor = i
		}
	}
	if !widgets.IsTopicOpen(s.deps.Board, ref.HeaderID) {
		widgets.ToggleTopic(s.deps.Board, ref.HeaderID)
	}
}
