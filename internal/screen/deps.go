package screen

import (
	"io"
	"log"
	"sync"
	"time"

	"github.com/abhisek/coursekit/internal/chat"
	"github.com/abhisek/coursekit/internal/course"
	"github.com/abhisek/coursekit/internal/lang"
	"github.com/abhisek/coursekit/internal/narration"
	"github.com/abhisek/coursekit/internal/progress"
	"github.com/abhisek/coursekit/internal/quiz"
	"github.com/abhisek/coursekit/internal/store"
	"github.com/abhisek/coursekit/internal/student"
	"github.com/abhisek/coursekit/internal/view"
	"github.com/abhisek/coursekit/internal/widgets"
)

// Deps bundles the services every screen works against. All of them share
// one board.
type Deps struct {
	Courses  []*course.Course
	KV       store.KV
	Board    *view.Board
	Tracker  *progress.Tracker
	Students *student.Records
	Lang     *lang.Service
	Narrator *narration.Narrator
	Quizzes  *quiz.Engine
	Videos   *widgets.Videos
	Toaster  *widgets.Toaster
	Logger   *log.Logger

	chatFactory chat.Factory
	chatOpts    []chat.Option

	mu    sync.Mutex
	chats map[string]*chat.Service
}

type depsConfig struct {
	logger        *log.Logger
	synth         narration.Synthesizer
	rate          float64
	toastDuration time.Duration
	afterFunc     widgets.AfterFunc
	factory       chat.Factory
	chatOpts      []chat.Option
}

// DepsOption configures NewDeps.
type DepsOption func(*depsConfig)

// WithLogger sets the logger handed to every service.
func WithLogger(l *log.Logger) DepsOption {
	return func(c *depsConfig) { c.logger = l }
}

// WithSynthesizer sets the speech engine. Without one narration reports
// that speech is unsupported.
func WithSynthesizer(s narration.Synthesizer, rate float64) DepsOption {
	return func(c *depsConfig) { c.synth, c.rate = s, rate }
}

// WithToasts sets the toast duration and, for tests, the timer factory.
func WithToasts(d time.Duration, after widgets.AfterFunc) DepsOption {
	return func(c *depsConfig) { c.toastDuration, c.afterFunc = d, after }
}

// WithChat enables the chat assistant. opts apply to every course's
// session, before the course's own assistant settings.
func WithChat(factory chat.Factory, opts ...chat.Option) DepsOption {
	return func(c *depsConfig) { c.factory, c.chatOpts = factory, opts }
}

// NewDeps wires the services over a fresh board.
func NewDeps(kv store.KV, courses []*course.Course, opts ...DepsOption) *Deps {
	cfg := depsConfig{logger: log.New(io.Discard, "", 0)}
	for _, o := range opts {
		o(&cfg)
	}

	b := view.NewBoard()
	MountChrome(b)

	toastOpts := []widgets.ToasterOption{widgets.WithToastDuration(cfg.toastDuration)}
	if cfg.afterFunc != nil {
		toastOpts = append(toastOpts, widgets.WithAfterFunc(cfg.afterFunc))
	}
	toaster := widgets.NewToaster(b, toastOpts...)

	tracker := progress.New(kv, progress.WithLogger(cfg.logger))
	narrator := narration.New(b, cfg.synth,
		narration.WithLogger(cfg.logger),
		narration.WithRate(cfg.rate),
		narration.WithAlert(func(msg string) { toaster.Show(msg, widgets.ToastError, 0) }),
	)

	return &Deps{
		Courses:     courses,
		KV:          kv,
		Board:       b,
		Tracker:     tracker,
		Students:    student.New(kv, cfg.logger),
		Lang:        lang.New(kv, b, narrator, lang.WithLogger(cfg.logger)),
		Narrator:    narrator,
		Quizzes:     quiz.NewEngine(b, tracker, quiz.WithLogger(cfg.logger)),
		Videos:      widgets.NewVideos(kv, b, cfg.logger),
		Toaster:     toaster,
		Logger:      cfg.logger,
		chatFactory: cfg.factory,
		chatOpts:    append(cfg.chatOpts, chat.WithLogger(cfg.logger)),
		chats:       make(map[string]*chat.Service),
	}
}

// MountChrome mounts the popups and the toast at the top level so they
// survive week changes.
func MountChrome(b *view.Board) {
	b.Mount(widgets.ChatPopupID)
	b.MountChild(widgets.ChatPopupID, chat.MessagesID)
	b.MountChild(widgets.ChatPopupID, chat.KeyRowID).Hide()
	b.Mount(widgets.ToolsPopupID)
	b.Mount(widgets.ToastID, "toast")
}

// Course returns the course with the given id, or the first course.
func (d *Deps) Course(id string) *course.Course {
	for _, c := range d.Courses {
		if c.ID == id {
			return c
		}
	}
	if len(d.Courses) > 0 {
		return d.Courses[0]
	}
	return nil
}

// ChatFor returns the chat session for c, creating it on first use. It
// returns nil when chat is not configured.
func (d *Deps) ChatFor(c *course.Course) *chat.Service {
	if d.chatFactory == nil || c == nil {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if svc, ok := d.chats[c.ID]; ok {
		return svc
	}
	opts := append([]chat.Option(nil), d.chatOpts...)
	a := c.Assistant
	opts = append(opts, chat.WithSystemPrompt(a.SystemPrompt), chat.WithGreeting(a.Greeting), chat.WithChips(a.Chips))
	svc := chat.New(d.KV, d.Board, d.chatFactory, opts...)
	d.chats[c.ID] = svc
	return svc
}

// Close stops narration and any outstanding chat reply.
func (d *Deps) Close() {
	d.Narrator.Close()
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, svc := range d.chats {
		svc.Cancel()
	}
}
