package narration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/coursekit/internal/view"
)

// MockSynthesizer is a mock implementation of Synthesizer.
type MockSynthesizer struct {
	mock.Mock
}

func (m *MockSynthesizer) Voices(ctx context.Context) ([]Voice, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Voice), args.Error(1)
}

func (m *MockSynthesizer) Speak(ctx context.Context, u Utterance) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func waitDone(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("utterance did not finish")
	}
}

func newBoard() *view.Board {
	b := view.NewBoard()
	b.Mount("status1", PlayingClass)
	b.Mount("status2", PlayingClass)
	b.Mount("topic_en").SetText("**Dispatch** basics:\n<em>load</em> planning")
	return b
}

func TestSpeakUnsupported(t *testing.T) {
	var alerts []string
	n := New(newBoard(), nil, WithAlert(func(s string) { alerts = append(alerts, s) }))

	err := n.Speak("hello", "en-US", "status1")
	assert.ErrorIs(t, err, ErrUnsupported)
	assert.Equal(t, []string{UnsupportedMessage}, alerts)
	assert.False(t, n.Supported())
}

func TestSpeakPicksVoiceAndHidesStatus(t *testing.T) {
	b := newBoard()
	synth := &MockSynthesizer{}
	synth.On("Voices", mock.Anything).Return([]Voice{
		{Name: "Alex", Locale: "en-US"},
		{Name: "Lekha", Locale: "hi-IN"},
	}, nil)
	synth.On("Speak", mock.Anything, mock.MatchedBy(func(u Utterance) bool {
		return u.Text == "नमस्ते" && u.Voice != nil && u.Voice.Name == "Lekha" &&
			u.Rate == DefaultRate && u.Pitch == 1 && u.Volume == 1 && u.Lang == "hi-IN"
	})).Return(nil).Once()

	n := New(b, synth)
	done := make(chan struct{}, 1)
	n.done = func() { done <- struct{}{} }

	require.NoError(t, n.Speak("नमस्ते", "hi-IN", "status1"))
	waitDone(t, done)

	status, _ := b.Lookup("status1")
	assert.False(t, status.Visible())
	assert.Equal(t, PlayingText, status.Text())
	assert.False(t, n.Speaking())
	synth.AssertExpectations(t)
}

func TestSpeakFallsBackToDefaultVoice(t *testing.T) {
	synth := &MockSynthesizer{}
	synth.On("Voices", mock.Anything).Return([]Voice{{Name: "Alex", Locale: "en-US"}}, nil)
	synth.On("Speak", mock.Anything, mock.MatchedBy(func(u Utterance) bool {
		return u.Voice == nil
	})).Return(nil).Once()

	n := New(newBoard(), synth)
	require.NoError(t, n.Speak("hello", "fr-FR", ""))
	n.Wait()
	synth.AssertExpectations(t)
}

func TestSecondSpeakOwnsStatus(t *testing.T) {
	b := newBoard()
	synth := &MockSynthesizer{}
	synth.On("Voices", mock.Anything).Return(nil, nil)

	release := make(chan struct{})
	synth.On("Speak", mock.Anything, mock.MatchedBy(func(u Utterance) bool { return u.Text == "first" })).
		Run(func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
		}).
		Return(context.Canceled).Once()
	synth.On("Speak", mock.Anything, mock.MatchedBy(func(u Utterance) bool { return u.Text == "second" })).
		Run(func(mock.Arguments) { <-release }).
		Return(nil).Once()

	n := New(b, synth)
	done := make(chan struct{}, 2)
	n.done = func() { done <- struct{}{} }

	require.NoError(t, n.Speak("first", "en-US", "status1"))
	require.NoError(t, n.Speak("second", "en-US", "status1"))

	// The first utterance is cancelled and finishes, but no longer owns
	// the status.
	waitDone(t, done)
	status, _ := b.Lookup("status1")
	assert.True(t, status.Visible())
	assert.True(t, n.Speaking())

	close(release)
	waitDone(t, done)
	assert.False(t, status.Visible())
	synth.AssertExpectations(t)
}

func TestStopHidesAllPlayingIndicators(t *testing.T) {
	b := newBoard()
	synth := &MockSynthesizer{}
	synth.On("Voices", mock.Anything).Return(nil, nil)
	synth.On("Speak", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { <-args.Get(0).(context.Context).Done() }).
		Return(context.Canceled)

	n := New(b, synth)
	require.NoError(t, n.Speak("x", "en-US", "status1"))
	s2, _ := b.Lookup("status2")
	s2.Show()

	n.Stop()
	n.Wait()
	s1, _ := b.Lookup("status1")
	assert.False(t, s1.Visible())
	assert.False(t, s2.Visible())
	assert.False(t, n.Speaking())
}

func TestSpeakElement(t *testing.T) {
	synth := &MockSynthesizer{}
	synth.On("Voices", mock.Anything).Return(nil, nil)
	synth.On("Speak", mock.Anything, mock.MatchedBy(func(u Utterance) bool {
		return u.Text == "Dispatch basics: load planning"
	})).Return(nil).Once()

	n := New(newBoard(), synth)
	require.NoError(t, n.SpeakElement("topic_en", "en-US", ""))
	require.NoError(t, n.SpeakElement("missing", "en-US", ""))
	n.Wait()
	synth.AssertExpectations(t)
}
