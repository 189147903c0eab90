package router

import (
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/coursekit/internal/screen"
)

type resumedMsg struct{ title string }

// stubScreen records lifecycle calls and echoes the last message it saw.
type stubScreen struct {
	title   string
	inits   int
	resumes int
	last    tea.Msg
}

func (s *stubScreen) Init() tea.Cmd                               { s.inits++; return nil }
func (s *stubScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) { s.last = msg; return s, nil }
func (s *stubScreen) View(int, int) string                        { return s.title }
func (s *stubScreen) Title() string                               { return s.title }
func (s *stubScreen) Resume() tea.Cmd {
	s.resumes++
	return func() tea.Msg { return resumedMsg{s.title} }
}

func TestOpenAndBack(t *testing.T) {
	home := &stubScreen{title: "home"}
	week := &stubScreen{title: "week"}
	r := New(home)

	r.Update(Open(week)())
	require.Equal(t, 2, r.Depth())
	assert.Same(t, week, r.Active())
	assert.Equal(t, 1, week.inits)
	assert.Equal(t, "week", r.View(80, 24))

	cmd := r.Update(Back())
	require.NotNil(t, cmd)
	assert.Equal(t, resumedMsg{"home"}, cmd())
	assert.Same(t, home, r.Active())
	assert.Equal(t, 1, home.resumes)
}

func TestRootIsNeverPopped(t *testing.T) {
	home := &stubScreen{title: "home"}
	r := New(home)
	assert.Nil(t, r.Pop())
	assert.Equal(t, 1, r.Depth())
	assert.Zero(t, home.resumes)
}

func TestUpdateGoesToActiveScreen(t *testing.T) {
	home := &stubScreen{title: "home"}
	quiz := &stubScreen{title: "quiz"}
	r := New(home)
	r.Push(quiz)

	r.Update(tea.KeyPressMsg{Code: 'a', Text: "a"})
	assert.NotNil(t, quiz.last)
	assert.Nil(t, home.last)
}

func TestDeepStack(t *testing.T) {
	screens := []*stubScreen{{title: "a"}, {title: "b"}, {title: "c"}}
	r := New(screens[0])
	r.Push(screens[1])
	r.Push(screens[2])

	r.Pop()
	assert.Equal(t, "b", r.Active().Title())
	r.Pop()
	assert.Equal(t, "a", r.Active().Title())
	assert.Equal(t, 1, screens[1].resumes)
	assert.Equal(t, 1, screens[0].resumes)
}
