package week

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/coursekit/internal/course"
	"github.com/abhisek/coursekit/internal/lang"
	"github.com/abhisek/coursekit/internal/narration"
	"github.com/abhisek/coursekit/internal/page"
	"github.com/abhisek/coursekit/internal/router"
	"github.com/abhisek/coursekit/internal/screen"
	quizscreen "github.com/abhisek/coursekit/internal/screens/quiz"
	"github.com/abhisek/coursekit/internal/store"
	"github.com/abhisek/coursekit/internal/widgets"
)

type idleTimer struct{}

func (idleTimer) Stop() bool { return true }

func newTestDeps() *screen.Deps {
	return screen.NewDeps(store.NewMemoryKV(), []*course.Course{course.Default()},
		screen.WithToasts(time.Second, func(time.Duration, func()) widgets.Timer { return idleTimer{} }))
}

func newTestWeek(t *testing.T) (*WeekScreen, *screen.Deps) {
	t.Helper()
	deps := newTestDeps()
	s, err := New(deps, deps.Course(""), 1)
	require.NoError(t, err)
	return s, deps
}

func press(s *WeekScreen, keys ...tea.KeyPressMsg) tea.Cmd {
	var cmd tea.Cmd
	for _, k := range keys {
		_, cmd = s.Update(k)
	}
	return cmd
}

func runeKey(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

var (
	keyEnter = tea.KeyPressMsg{Code: tea.KeyEnter}
	keyRight = tea.KeyPressMsg{Code: tea.KeyRight}
	keyLeft  = tea.KeyPressMsg{Code: tea.KeyLeft}
	keyDown  = tea.KeyPressMsg{Code: tea.KeyDown}
	keyEsc   = tea.KeyPressMsg{Code: tea.KeyEscape}
)

func toastMessage(t *testing.T, deps *screen.Deps) string {
	t.Helper()
	toast, ok := widgets.CurrentToast(deps.Board)
	require.True(t, ok, "expected a toast")
	return toast.Message
}

func TestNewShowsFirstDay(t *testing.T) {
	s, deps := newTestWeek(t)

	day, ok := s.nav.ActiveDay()
	require.True(t, ok)
	assert.Equal(t, 1, day)
	assert.Equal(t, 0, s.cursor)
	assert.True(t, widgets.IsTopicOpen(deps.Board, page.TopicID(1, 1, 1)))
	assert.Equal(t, "UK Freight Foundations", s.Title())
	assert.Equal(t, "fd", s.Course().ID)

	_, ok = deps.Quizzes.State(page.QuizID(page.TopicID(1, 1, 1)))
	assert.True(t, ok, "quiz should be initialised")
}

func TestNewUnknownWeek(t *testing.T) {
	deps := newTestDeps()
	_, err := New(deps, deps.Course(""), 99)
	assert.Error(t, err)
}

func TestDayNavigation(t *testing.T) {
	s, _ := newTestWeek(t)

	press(s, keyDown)
	assert.Equal(t, 1, s.cursor)

	press(s, keyRight)
	day, _ := s.nav.ActiveDay()
	assert.Equal(t, 2, day)
	assert.Equal(t, 0, s.cursor, "changing day resets the cursor")

	press(s, keyRight, keyRight, keyRight)
	day, _ = s.nav.ActiveDay()
	assert.Equal(t, 3, day, "stays on the last day")

	press(s, keyLeft, runeKey('h'))
	day, _ = s.nav.ActiveDay()
	assert.Equal(t, 1, day)
}

func TestToggleTopic(t *testing.T) {
	s, deps := newTestWeek(t)
	first := page.TopicID(1, 1, 1)

	press(s, keyEnter)
	assert.False(t, widgets.IsTopicOpen(deps.Board, first))

	press(s, keyDown, keyEnter)
	assert.True(t, widgets.IsTopicOpen(deps.Board, page.TopicID(1, 1, 2)))
}

func TestMarkDoneCompletesDay(t *testing.T) {
	s, deps := newTestWeek(t)
	ctx := context.Background()

	press(s, runeKey('d'))
	assert.True(t, deps.Tracker.IsTopicDone(ctx, "fd", 1, 1, 1))
	assert.Equal(t, MsgTopicDone, toastMessage(t, deps))
	card, _ := deps.Board.Lookup(page.CardID(page.TopicID(1, 1, 1)))
	assert.True(t, card.HasClass(page.ClassDone))
	assert.False(t, deps.Tracker.IsDayDone(ctx, "fd", 1, 1))

	press(s, keyDown, runeKey('d'))
	assert.True(t, deps.Tracker.IsDayDone(ctx, "fd", 1, 1))
	assert.Equal(t, MsgDayDone, toastMessage(t, deps))
	assert.Contains(t, s.Status(), "▰")
}

func TestLanguageToggle(t *testing.T) {
	s, deps := newTestWeek(t)

	assert.True(t, strings.HasPrefix(s.Status(), "EN"))
	press(s, runeKey('l'))
	assert.Equal(t, lang.Hindi, deps.Lang.Current())
	assert.True(t, strings.HasPrefix(s.Status(), "हिं"))
	assert.Contains(t, s.View(100, 40), "फ्रेट डिस्पैचर क्या करता है")

	press(s, runeKey('l'))
	assert.Equal(t, lang.English, deps.Lang.Current())
}

func TestVideoPrompt(t *testing.T) {
	s, deps := newTestWeek(t)

	press(s, runeKey('v'))
	require.True(t, s.Capturing())
	press(s, runeKey('x'))
	assert.Equal(t, "x", s.prompt.Value())

	press(s, keyEnter)
	assert.False(t, s.Capturing())
	assert.Equal(t, MsgVideoBadURL, toastMessage(t, deps))

	press(s, runeKey('v'))
	s.prompt.SetValue("https://youtu.be/dQw4w9WgXcQ")
	press(s, keyEnter)
	assert.Equal(t, MsgVideoSaved, toastMessage(t, deps))
	el, _ := deps.Board.Lookup(page.VideoID(page.TopicID(1, 1, 1)))
	_, ok := el.Content().(widgets.VideoEmbed)
	assert.True(t, ok)

	press(s, runeKey('v'), keyEsc)
	assert.False(t, s.Capturing())
}

func TestOpenQuiz(t *testing.T) {
	s, _ := newTestWeek(t)

	cmd := press(s, runeKey('q'))
	require.NotNil(t, cmd)
	msg, ok := cmd().(router.PushScreenMsg)
	require.True(t, ok)
	_, ok = msg.Screen.(*quizscreen.QuizScreen)
	assert.True(t, ok)
}

func TestQuizPassMarksTopicDone(t *testing.T) {
	s, deps := newTestWeek(t)
	ctx := context.Background()
	id := page.QuizID(page.TopicID(1, 1, 1))

	require.True(t, deps.Quizzes.Answer(id, 0, 1))
	require.True(t, deps.Quizzes.Answer(id, 1, 0))
	res, err := deps.Quizzes.Submit(ctx, id)
	require.NoError(t, err)
	assert.True(t, res.Passed)

	assert.True(t, deps.Tracker.IsTopicDone(ctx, "fd", 1, 1, 1))
	assert.Contains(t, toastMessage(t, deps), "Quiz passed with 100%")
	assert.Contains(t, s.View(100, 40), "last score 2/2")
}

func TestNextTopicMsg(t *testing.T) {
	s, deps := newTestWeek(t)
	target := page.TopicID(1, 2, 2)

	s.Update(NextTopicMsg{CardID: page.CardID(target)})

	day, _ := s.nav.ActiveDay()
	assert.Equal(t, 2, day)
	assert.Equal(t, 1, s.cursor)
	assert.True(t, widgets.IsTopicOpen(deps.Board, target))
}

func TestTickAdvancesTicker(t *testing.T) {
	s, _ := newTestWeek(t)

	_, cmd := s.Update(tickMsg(time.Now()))
	assert.Equal(t, 1, s.tick)
	assert.NotNil(t, cmd)
	assert.NotNil(t, s.Resume())
}

func TestViewShowsTopics(t *testing.T) {
	s, _ := newTestWeek(t)

	view := s.View(100, 40)
	assert.Contains(t, view, "What a Freight Dispatcher Does")
	assert.Contains(t, view, "The Operator's Licence")
	assert.Contains(t, view, "press q")
}

// heldSynth speaks until its context is cancelled.
type heldSynth struct{}

func (heldSynth) Voices(context.Context) ([]narration.Voice, error) { return nil, nil }

func (heldSynth) Speak(ctx context.Context, _ narration.Utterance) error {
	<-ctx.Done()
	return ctx.Err()
}

func hintKeys(s *WeekScreen) []string {
	var keys []string
	for _, h := range s.KeyHints() {
		keys = append(keys, h.Key)
	}
	return keys
}

func TestNarrationHints(t *testing.T) {
	s, _ := newTestWeek(t)
	keys := hintKeys(s)
	assert.NotContains(t, keys, "n", "no speech engine")
	assert.NotContains(t, keys, "x")

	deps := screen.NewDeps(store.NewMemoryKV(), []*course.Course{course.Default()},
		screen.WithSynthesizer(heldSynth{}, 0),
		screen.WithToasts(time.Second, func(time.Duration, func()) widgets.Timer { return idleTimer{} }))
	s, err := New(deps, deps.Course(""), 1)
	require.NoError(t, err)
	assert.Contains(t, hintKeys(s), "n")

	press(s, runeKey('n'))
	assert.True(t, deps.Narrator.Speaking())
	assert.Contains(t, hintKeys(s), "x")
	assert.NotContains(t, hintKeys(s), "n")

	press(s, runeKey('x'))
	deps.Narrator.Wait()
	assert.Contains(t, hintKeys(s), "n")
}
