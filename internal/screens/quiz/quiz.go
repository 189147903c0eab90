// Package quiz is the quiz-taking screen. All state lives in the quiz
// engine; the screen only moves the question focus.
package quiz

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	engine "github.com/abhisek/coursekit/internal/quiz"
	"github.com/abhisek/coursekit/internal/router"
	"github.com/abhisek/coursekit/internal/screen"
	"github.com/abhisek/coursekit/internal/ui/components"
	"github.com/abhisek/coursekit/internal/ui/layout"
	"github.com/abhisek/coursekit/internal/ui/theme"
)

// Notices shown under the quiz.
const (
	NoticeIncomplete = "Answer every question first."
	NoticeLastTopic  = "That was the last topic of the week. 🎉"
)

// QuizScreen shows one quiz from the engine.
type QuizScreen struct {
	engine *engine.Engine
	id     string
	topic  string
	next   func(cardID string) tea.Msg

	focus  int
	notice string
}

var (
	_ screen.Screen          = (*QuizScreen)(nil)
	_ screen.KeyHintProvider = (*QuizScreen)(nil)
)

// New returns the screen for quiz id. next builds the message sent to the
// screen below once the student moves on to cardID.
func New(e *engine.Engine, id, topic string, next func(cardID string) tea.Msg) *QuizScreen {
	s := &QuizScreen{engine: e, id: id, topic: topic, next: next}
	s.focus = s.firstUnanswered()
	return s
}

func (s *QuizScreen) Init() tea.Cmd {
	return nil
}

func (s *QuizScreen) Title() string {
	return "Quiz · " + s.topic
}

func (s *QuizScreen) KeyHints() []layout.KeyHint {
	v, _ := s.engine.View(s.id)
	if v.Result != nil {
		hints := []layout.KeyHint{{Key: "r", Description: "Retry"}}
		if v.Result.NextLabel != "" {
			hints = append(hints, layout.KeyHint{Key: "n", Description: "Next topic"})
		}
		return append(hints, layout.KeyHint{Key: "Esc", Description: "Back"})
	}
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Question"},
		{Key: "a-d", Description: "Answer"},
		{Key: "Enter", Description: "Results"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *QuizScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyPressMsg)
	if !ok {
		return s, nil
	}
	snap, ok := s.engine.State(s.id)
	if !ok {
		return s, nil
	}

	key := kmsg.String()
	switch key {
	case "up", "k":
		if s.focus > 0 {
			s.focus--
		}
	case "down", "j":
		if s.focus < len(snap.Questions)-1 {
			s.focus++
		}
	case "enter":
		return s, s.submit()
	case "r":
		if snap.Submitted && s.engine.Retry(s.id) {
			s.focus, s.notice = 0, ""
		}
	case "n":
		return s, s.nextTopic(snap)
	default:
		if oi, ok := optionIndex(key); ok && !snap.Submitted {
			if s.engine.Answer(s.id, s.focus, oi) {
				s.notice = ""
				s.focus = s.firstUnanswered()
			}
		}
	}
	return s, nil
}

// optionIndex maps a-d and 1-4 to an option index.
func optionIndex(key string) (int, bool) {
	if len(key) != 1 {
		return 0, false
	}
	switch c := key[0]; {
	case c >= 'a' && c <= 'd':
		return int(c - 'a'), true
	case c >= '1' && c <= '4':
		return int(c - '1'), true
	}
	return 0, false
}

func (s *QuizScreen) submit() tea.Cmd {
	_, err := s.engine.Submit(context.Background(), s.id)
	switch {
	case errors.Is(err, engine.ErrIncomplete):
		s.notice = NoticeIncomplete
	case err == nil:
		s.notice = ""
	}
	return nil
}

func (s *QuizScreen) nextTopic(snap engine.Snapshot) tea.Cmd {
	if snap.Result == nil || !snap.Result.Passed {
		return nil
	}
	cardID, ok := s.engine.Next(s.id)
	if !ok {
		s.notice = NoticeLastTopic
		return nil
	}
	if s.next == nil {
		return router.Back
	}
	return tea.Sequence(router.Back, func() tea.Msg { return s.next(cardID) })
}

// firstUnanswered returns the first open question, or the last question
// when all are answered.
func (s *QuizScreen) firstUnanswered() int {
	snap, ok := s.engine.State(s.id)
	if !ok {
		return 0
	}
	for i, a := range snap.Answered {
		if a < 0 {
			return i
		}
	}
	return max(len(snap.Questions)-1, 0)
}

func (s *QuizScreen) View(width, height int) string {
	v, ok := s.engine.View(s.id)
	if !ok {
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, "Quiz not available.")
	}
	cw := components.ContentWidth(width)
	dim := lipgloss.NewStyle().Foreground(theme.TextDim)

	lines := []string{
		lipgloss.NewStyle().Foreground(theme.ArcadeYellow).Bold(true).Render("✅ "+v.Title) +
			"  " + lipgloss.NewStyle().Foreground(theme.Accent).Render("["+v.Badge+"]"),
		dim.Render(v.Subtitle),
		"",
	}
	focusLine := 0

	if v.QuestionsVisible {
		for i, q := range v.Questions {
			mc := components.MultiChoice{
				Label:    q.Label + "\n",
				Question: q.Text,
				Locked:   q.Answered,
				Focused:  i == s.focus,
			}
			for _, o := range q.Options {
				mc.Choices = append(mc.Choices, components.Choice{Letter: o.Letter, Text: o.Text, Correct: o.Correct, Wrong: o.Wrong})
			}
			if q.Feedback != nil {
				mc.Note, mc.NoteOK = q.Feedback.Text, q.Feedback.Right
			}
			if i == s.focus {
				focusLine = len(lines)
			}
			block := lipgloss.NewStyle().Width(cw).Render(mc.View())
			lines = append(lines, strings.Split(block, "\n")...)
		}
	}
	if v.SubmitVisible {
		lines = append(lines, theme.ButtonActive.Render(v.SubmitLabel+"  (Enter)"))
		focusLine = len(lines) - 1
	}
	if v.Result != nil {
		lines = append(lines, renderResult(v.Result, cw)...)
	}
	if s.notice != "" {
		lines = append(lines, "", lipgloss.NewStyle().Foreground(theme.Accent).Render(s.notice))
	}

	if len(lines) > height && height > 0 {
		start := min(max(focusLine-height/4, 0), len(lines)-height)
		lines = lines[start : start+height]
	}
	return lipgloss.NewStyle().Width(width).PaddingLeft(2).Render(strings.Join(lines, "\n"))
}

func renderResult(r *engine.ResultView, cw int) []string {
	color := theme.Accent
	if r.Passed {
		color = theme.Success
	}
	center := lipgloss.NewStyle().Width(cw).Align(lipgloss.Center)
	actions := "r  " + r.RetryLabel
	if r.NextLabel != "" {
		actions += "     n  " + r.NextLabel
	}
	return []string{
		center.Render(r.Emoji),
		center.Foreground(color).Bold(true).Render(fmt.Sprintf("%d%%", r.Pct)),
		center.Bold(true).Render(r.Grade),
		center.Foreground(theme.Accent).Render(r.GradeHI),
		center.Foreground(theme.TextDim).Render(r.Summary),
		"",
		lipgloss.NewStyle().Width(cw).Foreground(color).Render(r.Notice),
		"",
		center.Render(actions),
	}
}
