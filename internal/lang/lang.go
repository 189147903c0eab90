// Package lang switches the page between English and Hindi content.
package lang

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/abhisek/coursekit/internal/store"
	"github.com/abhisek/coursekit/internal/view"
)

// Supported languages.
const (
	English = "en"
	Hindi   = "hi"
)

// Key is the KV key holding the chosen language.
const Key = "ea_lang"

// Classes the toggle drives.
const (
	ClassContentEN = "content-en"
	ClassContentHI = "content-hi"
	ClassButton    = "lang-btn"
	ClassShow      = "show"
	ClassActive    = "active"
)

// Normalize maps any value other than Hindi to English.
func Normalize(lang string) string {
	if lang == Hindi {
		return Hindi
	}
	return English
}

// SpeechLocale returns the speech locale for a page language.
func SpeechLocale(lang string) string {
	if Normalize(lang) == Hindi {
		return "hi-IN"
	}
	return "en-US"
}

// Stopper halts narration when the language changes.
type Stopper interface {
	Stop()
}

// Service applies and persists the language choice.
type Service struct {
	kv      store.KV
	board   *view.Board
	stopper Stopper
	logger  *log.Logger

	mu      sync.Mutex
	current string
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the diagnostic logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// New returns a Service. stopper may be nil.
func New(kv store.KV, board *view.Board, stopper Stopper, opts ...Option) *Service {
	s := &Service{
		kv:      kv,
		board:   board,
		stopper: stopper,
		logger:  log.New(io.Discard, "", 0),
		current: English,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Init applies the saved language, or English, without saving it again.
func (s *Service) Init(ctx context.Context) error {
	saved, ok, err := s.kv.Get(ctx, Key)
	if err != nil {
		s.logger.Printf("lang: read saved language: %v", err)
	}
	if !ok || saved == "" {
		saved = English
	}
	return s.apply(ctx, saved, false)
}

// SetLang switches to lang and saves the choice.
func (s *Service) SetLang(ctx context.Context, lang string) error {
	return s.apply(ctx, lang, true)
}

// Toggle flips between English and Hindi.
func (s *Service) Toggle(ctx context.Context) error {
	next := Hindi
	if s.Current() == Hindi {
		next = English
	}
	return s.SetLang(ctx, next)
}

// Current returns the active language.
func (s *Service) Current() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *Service) apply(ctx context.Context, lang string, save bool) error {
	lang = Normalize(lang)

	s.mu.Lock()
	s.current = lang
	s.mu.Unlock()

	var saveErr error
	if save {
		if err := s.kv.Set(ctx, Key, lang); err != nil {
			saveErr = fmt.Errorf("save language: %w", err)
		}
	}

	for _, el := range s.board.Query(ClassContentEN) {
		el.ToggleClass(ClassShow, lang == English)
	}
	for _, el := range s.board.Query(ClassContentHI) {
		el.ToggleClass(ClassShow, lang == Hindi)
	}
	for _, btn := range s.board.Query(ClassButton) {
		v, _ := btn.Data("lang")
		btn.ToggleClass(ClassActive, v == lang)
	}

	if s.stopper != nil {
		s.stopper.Stop()
	}
	return saveErr
}
