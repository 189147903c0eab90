// Package chat implements the course assistant: a transcript-backed chat
// with a remote LLM, gated on a stored credential.
package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"slices"
	"strings"
	"sync"

	"github.com/abhisek/coursekit/internal/llm"
	"github.com/abhisek/coursekit/internal/store"
	"github.com/abhisek/coursekit/internal/task"
	"github.com/abhisek/coursekit/internal/view"
	"github.com/google/uuid"
)

// KV key and element ids.
const (
	KeyStorage = "ea_mj_key"
	KeyRowID   = "mj-key-row"
	MessagesID = "mj-msgs"
)

// Purpose labels chat requests in the LLM event log.
const Purpose = "chat"

// DefaultMaxTokens caps each reply.
const DefaultMaxTokens = 400

// Fixed transcript messages.
const (
	Greeting        = "नमस्ते! 🙏 Hi! I'm Madam JI — your Eagle Academy AI tutor. Ask me anything about UK or USA freight dispatch!"
	NoKeyMessage    = "Please paste your Anthropic API key above to use Madam JI. 🔑"
	EmptyReply      = "Sorry, I could not get a response. Please try again."
	ConnectionError = "Connection error. Check your API key and try again."
)

// DefaultSystemPrompt is used when the course supplies none.
const DefaultSystemPrompt = "You are Madam JI, the AI study assistant for Eagle Academy UK Freight Dispatcher Certification. " +
	"You help students understand UK and USA freight dispatch concepts. You are friendly, encouraging, and knowledgeable. " +
	"Topics you help with: UK transport law, O-Licence, DVSA, drivers hours, tachographs, CMR notes, Courier Exchange, " +
	"pallet networks, USA HOS rules, broker calls, ICAR method, load boards, BOL, Rate Confirmation, freight documentation. " +
	"Keep answers concise and student-friendly. You can respond in Hindi if asked. " +
	"Never discuss earnings figures or make income promises; focus only on skills and knowledge."

// DefaultChips are the quick questions offered under the transcript.
var DefaultChips = []string{
	"What is an O-Licence?",
	"How do UK drivers hours work?",
	"What is the ICAR method?",
	"What is a tachograph?",
}

var (
	// ErrBusy is returned when a send is already outstanding.
	ErrBusy = errors.New("chat: a message is already being answered")

	// ErrNoCredential is returned when no API key is available.
	ErrNoCredential = errors.New("chat: no API key configured")
)

// Role is the author of a transcript entry.
type Role string

const (
	RoleBot    Role = "bot"
	RoleUser   Role = "user"
	RoleTyping Role = "typing"
)

// Entry is one transcript line.
type Entry struct {
	Role Role   `json:"role"`
	Text string `json:"text"`

	call task.Token // owning send, typing entries only
}

// turn is a history message. call is non-zero until the send that added
// it succeeds.
type turn struct {
	msg  llm.Message
	call task.Token
}

// Factory builds a provider for a credential.
type Factory func(ctx context.Context, key string) (llm.Provider, error)

// ProviderFactory returns a Factory that injects the key into cfg and
// builds the decorated provider stack.
func ProviderFactory(cfg llm.Config, repo store.EventRepo, opts ...llm.LoggingOption) Factory {
	return func(ctx context.Context, key string) (llm.Provider, error) {
		return llm.NewProvider(ctx, cfg.WithAPIKey(key), repo, opts...)
	}
}

// Service holds one chat session.
type Service struct {
	kv      store.KV
	board   *view.Board
	factory Factory
	logger  *log.Logger

	fallbackKey string
	system      string
	greeting    string
	chips       []string
	maxTokens   int
	sessionID   string

	slot task.Slot

	mu         sync.Mutex
	transcript []Entry
	history    []turn
	latest     task.Token
	provider   llm.Provider
	providerOf string
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the diagnostic logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithFallbackKey sets the credential used when none is stored.
func WithFallbackKey(key string) Option {
	return func(s *Service) { s.fallbackKey = strings.TrimSpace(key) }
}

// WithSystemPrompt overrides the system prompt. Blank keeps the default.
func WithSystemPrompt(prompt string) Option {
	return func(s *Service) {
		if strings.TrimSpace(prompt) != "" {
			s.system = prompt
		}
	}
}

// WithGreeting overrides the first bot message. Blank keeps the default.
func WithGreeting(greeting string) Option {
	return func(s *Service) {
		if greeting != "" {
			s.greeting = greeting
		}
	}
}

// WithChips overrides the quick questions. An empty list keeps the default.
func WithChips(chips []string) Option {
	return func(s *Service) {
		if len(chips) > 0 {
			s.chips = slices.Clone(chips)
		}
	}
}

// WithMaxTokens overrides the reply token cap.
func WithMaxTokens(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxTokens = n
		}
	}
}

// New creates a chat session. board may be nil for headless use.
func New(kv store.KV, board *view.Board, factory Factory, opts ...Option) *Service {
	s := &Service{
		kv:        kv,
		board:     board,
		factory:   factory,
		logger:    log.New(io.Discard, "", 0),
		system:    DefaultSystemPrompt,
		greeting:  Greeting,
		chips:     slices.Clone(DefaultChips),
		maxTokens: DefaultMaxTokens,
		sessionID: uuid.NewString(),
	}
	for _, o := range opts {
		o(s)
	}
	s.transcript = []Entry{{Role: RoleBot, Text: s.greeting}}
	return s
}

// Init renders the greeting and shows the key row when no credential is
// available.
func (s *Service) Init(ctx context.Context) {
	s.render()
	if s.credential(ctx) == "" {
		s.showKeyRow(true)
	}
}

// SessionID identifies this conversation.
func (s *Service) SessionID() string { return s.sessionID }

// SystemPrompt returns the prompt sent with every request.
func (s *Service) SystemPrompt() string { return s.system }

// Chips returns the quick questions.
func (s *Service) Chips() []string { return slices.Clone(s.chips) }

// Transcript returns a copy of the visible conversation.
func (s *Service) Transcript() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.transcript)
}

// History returns a copy of the turns sent to the provider.
func (s *Service) History() []llm.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.messages()
}

// messages requires s.mu.
func (s *Service) messages() []llm.Message {
	msgs := make([]llm.Message, 0, len(s.history))
	for _, t := range s.history {
		msgs = append(msgs, t.msg)
	}
	return msgs
}

// Busy reports whether a reply is outstanding.
func (s *Service) Busy() bool { return s.slot.Busy() }

// HasCredential reports whether a key is stored or configured.
func (s *Service) HasCredential(ctx context.Context) bool {
	return s.credential(ctx) != ""
}

// SaveKey stores the trimmed key. A non-empty key hides the key row; an
// empty one clears the stored key.
func (s *Service) SaveKey(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		if err := s.kv.Delete(ctx, KeyStorage); err != nil {
			return fmt.Errorf("clear chat key: %w", err)
		}
		return nil
	}
	if err := s.kv.Set(ctx, KeyStorage, key); err != nil {
		return fmt.Errorf("save chat key: %w", err)
	}
	s.showKeyRow(false)
	return nil
}

// Send posts text and waits for the reply. Blank text is ignored. Without
// a credential it prompts for one and returns ErrNoCredential without any
// network call. Provider failures are reported in the transcript and
// returned; the failed turn is dropped from the history. A send that was
// cancelled and then superseded by a newer one only removes its own
// entries. A rejected key brings the key row back.
func (s *Service) Send(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	key := s.credential(ctx)
	if key == "" {
		s.showKeyRow(true)
		s.appendEntry(Entry{Role: RoleBot, Text: NoKeyMessage})
		return ErrNoCredential
	}

	callCtx, tok, ok := s.slot.TryStart(ctx)
	if !ok {
		return ErrBusy
	}
	defer s.slot.Finish(tok)

	s.mu.Lock()
	// Anything still pending belongs to a cancelled send.
	s.history = slices.DeleteFunc(s.history, func(t turn) bool { return t.call != 0 })
	s.transcript = slices.DeleteFunc(s.transcript, func(e Entry) bool { return e.Role == RoleTyping })
	s.latest = tok
	s.transcript = append(s.transcript, Entry{Role: RoleUser, Text: text}, Entry{Role: RoleTyping, call: tok})
	s.history = append(s.history, turn{msg: llm.Message{Role: llm.RoleUser, Content: text}, call: tok})
	msgs := s.messages()
	s.mu.Unlock()
	s.render()

	reply, err := s.generate(callCtx, key, msgs)

	s.mu.Lock()
	superseded := s.latest != tok
	s.transcript = slices.DeleteFunc(s.transcript, func(e Entry) bool { return e.call == tok })
	if err != nil {
		s.history = slices.DeleteFunc(s.history, func(t turn) bool { return t.call == tok })
		if !superseded {
			s.transcript = append(s.transcript, Entry{Role: RoleBot, Text: ConnectionError})
		}
	} else {
		if reply == "" {
			reply = EmptyReply
		}
		for i := range s.history {
			if s.history[i].call == tok {
				s.history[i].call = 0
			}
		}
		s.transcript = append(s.transcript, Entry{Role: RoleBot, Text: reply})
		s.history = append(s.history, turn{msg: llm.Message{Role: llm.RoleAssistant, Content: reply}})
	}
	s.mu.Unlock()
	if llm.IsUnauthorized(err) {
		s.showKeyRow(true)
	}
	s.render()

	if err != nil {
		s.logger.Printf("chat: send: %v", err)
		return fmt.Errorf("chat: %w", err)
	}
	return nil
}

// SendAsync runs Send in a goroutine and delivers its result.
func (s *Service) SendAsync(ctx context.Context, text string) <-chan error {
	ch := make(chan error, 1)
	go func() { ch <- s.Send(ctx, text) }()
	return ch
}

// Cancel aborts the outstanding reply, if any.
func (s *Service) Cancel() {
	s.slot.Cancel()
}

func (s *Service) generate(ctx context.Context, key string, msgs []llm.Message) (string, error) {
	p, err := s.providerFor(ctx, key)
	if err != nil {
		return "", err
	}
	resp, err := p.Generate(llm.WithCall(ctx, llm.Call{Purpose: Purpose, Session: s.sessionID}), llm.Request{
		System:    s.system,
		Messages:  msgs,
		MaxTokens: s.maxTokens,
	})
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return resp.Text(), nil
}

// providerFor reuses the provider built for the same key.
func (s *Service) providerFor(ctx context.Context, key string) (llm.Provider, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.provider != nil && s.providerOf == key {
		return s.provider, nil
	}
	if s.factory == nil {
		return nil, errors.New("no provider factory")
	}
	p, err := s.factory(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("create provider: %w", err)
	}
	s.provider, s.providerOf = p, key
	return p, nil
}

func (s *Service) credential(ctx context.Context) string {
	if s.kv != nil {
		v, ok, err := s.kv.Get(ctx, KeyStorage)
		if err != nil {
			s.logger.Printf("chat: read key: %v", err)
		}
		if ok {
			if v = strings.TrimSpace(v); v != "" {
				return v
			}
		}
	}
	return s.fallbackKey
}

func (s *Service) appendEntry(e Entry) {
	s.mu.Lock()
	s.transcript = append(s.transcript, e)
	s.mu.Unlock()
	s.render()
}

func (s *Service) showKeyRow(show bool) {
	if s.board == nil {
		return
	}
	row, ok := s.board.Lookup(KeyRowID)
	if !ok {
		return
	}
	if show {
		row.Show()
	} else {
		row.Hide()
	}
}

func (s *Service) render() {
	if s.board == nil {
		return
	}
	el, ok := s.board.Lookup(MessagesID)
	if !ok {
		return
	}
	el.SetContent(s.Transcript())
}
