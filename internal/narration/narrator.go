// Package narration reads page text aloud. A Narrator owns at most one
// utterance at a time; starting a new one or calling Stop cancels the
// previous utterance, and only the utterance that is still current may
// clear the "playing" status when it ends.
package narration

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"sync"

	"github.com/abhisek/coursekit/internal/task"
	"github.com/abhisek/coursekit/internal/view"
)

// ErrUnsupported is returned when no speech engine is available.
var ErrUnsupported = errors.New("text-to-speech not supported")

// UnsupportedMessage is passed to the alert hook when there is no engine.
const UnsupportedMessage = "Text-to-speech not supported on this system."

// PlayingText is written to the status element while speaking.
const PlayingText = "🔊 Playing..."

// PlayingClass marks status elements that Stop hides.
const PlayingClass = "audio-playing"

// DefaultRate is the speaking rate relative to the engine's normal speed.
const DefaultRate = 0.88

// Voice is an installed voice.
type Voice struct {
	Name   string
	Locale string
}

// Utterance is one request to speak.
type Utterance struct {
	Text   string
	Lang   string
	Voice  *Voice
	Rate   float64
	Pitch  float64
	Volume float64
}

// Synthesizer is a speech engine.
type Synthesizer interface {
	// Voices lists the installed voices.
	Voices(ctx context.Context) ([]Voice, error)

	// Speak blocks until the utterance has been spoken or ctx is done.
	Speak(ctx context.Context, u Utterance) error
}

// Narrator speaks text and reflects playback state on a board.
type Narrator struct {
	synth  Synthesizer
	board  *view.Board
	alert  func(string)
	logger *log.Logger
	rate   float64

	slot task.Slot
	wg   sync.WaitGroup

	// done is called after each utterance goroutine settles. Tests use it.
	done func()
}

// Option configures a Narrator.
type Option func(*Narrator)

// WithAlert sets the hook used to tell the user speech is unavailable.
func WithAlert(fn func(string)) Option {
	return func(n *Narrator) { n.alert = fn }
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *log.Logger) Option {
	return func(n *Narrator) { n.logger = l }
}

// WithRate overrides DefaultRate.
func WithRate(r float64) Option {
	return func(n *Narrator) {
		if r > 0 {
			n.rate = r
		}
	}
}

// New returns a Narrator. synth may be nil, in which case every Speak
// reports ErrUnsupported.
func New(board *view.Board, synth Synthesizer, opts ...Option) *Narrator {
	n := &Narrator{
		synth:  synth,
		board:  board,
		alert:  func(string) {},
		logger: log.New(io.Discard, "", 0),
		rate:   DefaultRate,
	}
	for _, o := range opts {
		o(n)
	}
	return n
}

// Supported reports whether a speech engine is configured.
func (n *Narrator) Supported() bool {
	return n.synth != nil
}

// Speaking reports whether an utterance is in progress.
func (n *Narrator) Speaking() bool {
	return n.slot.Busy()
}

// Speak stops any current utterance and starts speaking text in lang
// (a BCP 47 tag such as "en-US"). If statusID names an element it shows
// the playing status until this utterance ends. Speak returns once the
// utterance has started.
func (n *Narrator) Speak(text, lang, statusID string) error {
	n.Stop()
	if n.synth == nil {
		n.alert(UnsupportedMessage)
		return ErrUnsupported
	}
	if lang == "" {
		lang = "en-US"
	}

	u := Utterance{
		Text:   Clean(text),
		Lang:   lang,
		Rate:   n.rate,
		Pitch:  1,
		Volume: 1,
	}

	var status *view.Element
	if statusID != "" {
		if el, ok := n.board.Lookup(statusID); ok {
			status = el
			el.SetText(PlayingText)
			el.Show()
		}
	}

	ctx, tok := n.slot.Start(context.Background())
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		if n.done != nil {
			defer n.done()
		}

		u.Voice = n.pickVoice(ctx, lang)
		err := n.synth.Speak(ctx, u)
		if err != nil && ctx.Err() == nil {
			n.logger.Printf("narration: speak: %v", err)
		}
		if n.slot.Finish(tok) && status != nil {
			status.Hide()
		}
	}()
	return nil
}

func (n *Narrator) pickVoice(ctx context.Context, lang string) *Voice {
	voices, err := n.synth.Voices(ctx)
	if err != nil {
		n.logger.Printf("narration: list voices: %v", err)
		return nil
	}
	prefix := strings.ToLower(lang)
	if len(prefix) > 2 {
		prefix = prefix[:2]
	}
	for _, v := range voices {
		if strings.HasPrefix(strings.ToLower(v.Locale), prefix) {
			v := v
			return &v
		}
	}
	return nil
}

// Stop cancels the current utterance and hides every playing status.
func (n *Narrator) Stop() {
	n.slot.Cancel()
	for _, el := range n.board.Query(PlayingClass) {
		el.Hide()
	}
}

// SpeakElement speaks the text of element elID. A missing element is a
// no-op.
func (n *Narrator) SpeakElement(elID, lang, statusID string) error {
	el, ok := n.board.Lookup(elID)
	if !ok {
		return nil
	}
	return n.Speak(el.Text(), lang, statusID)
}

// Wait blocks until all started utterance goroutines have returned.
func (n *Narrator) Wait() {
	n.wg.Wait()
}

// Close stops speech and waits for it to wind down.
func (n *Narrator) Close() {
	n.Stop()
	n.Wait()
}
