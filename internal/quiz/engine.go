// Package quiz runs per-topic multiple-choice quizzes. Each quiz is an
// instance keyed by its container element id; transitions update the
// instance and re-render its View into the container.
package quiz

import (
	"context"
	"errors"
	"io"
	"log"
	"slices"
	"sync"

	"github.com/abhisek/coursekit/internal/progress"
	"github.com/abhisek/coursekit/internal/view"
)

var (
	// ErrNotMounted is returned by Init when the container element is absent.
	ErrNotMounted = errors.New("quiz container not mounted")

	// ErrNoQuestions is returned by Init for an empty question set.
	ErrNoQuestions = errors.New("quiz has no questions")

	// ErrUnknownQuiz is returned for operations on an id that was never
	// initialized.
	ErrUnknownQuiz = errors.New("unknown quiz")

	// ErrIncomplete is returned by Submit while questions remain unanswered.
	ErrIncomplete = errors.New("quiz has unanswered questions")

	// ErrSubmitted is returned by Submit on a quiz that was already submitted.
	ErrSubmitted = errors.New("quiz already submitted")
)

// Default option values.
const (
	DefaultCourseID  = "fd"
	DefaultWeekID    = 1
	DefaultDayID     = 1
	DefaultPassScore = 70
)

// Question is one multiple-choice question. Ans indexes Opts.
type Question struct {
	Q       string   `yaml:"q" json:"q"`
	Opts    []string `yaml:"opts" json:"opts"`
	Ans     int      `yaml:"ans" json:"ans"`
	Explain string   `yaml:"explain,omitempty" json:"explain,omitempty"`
}

// Options locate the quiz in the ledger and set its pass threshold. Zero
// values take the defaults.
type Options struct {
	CourseID  string
	WeekID    int
	DayID     int
	TopicID   int
	PassScore int

	// OnPass is called with the percentage after a passing submit.
	OnPass func(pct int)
}

func (o Options) withDefaults() Options {
	if o.CourseID == "" {
		o.CourseID = DefaultCourseID
	}
	if o.WeekID == 0 {
		o.WeekID = DefaultWeekID
	}
	if o.DayID == 0 {
		o.DayID = DefaultDayID
	}
	if o.PassScore == 0 {
		o.PassScore = DefaultPassScore
	}
	return o
}

// Result is the outcome of a submit.
type Result struct {
	Score  int
	Total  int
	Pct    int
	Passed bool
}

// Snapshot is a read-only copy of an instance's state.
type Snapshot struct {
	Questions []Question
	Options   Options
	Score     int
	// Answered holds the chosen option per question, or -1.
	Answered  []int
	Submitted bool
	Result    *Result
}

// AllAnswered reports whether every question has a recorded choice.
func (s Snapshot) AllAnswered() bool {
	return !slices.Contains(s.Answered, -1)
}

// ScoreRecorder persists quiz scores. *progress.Tracker satisfies it.
type ScoreRecorder interface {
	MarkQuizScore(ctx context.Context, course string, week, day, topic, score, total int) error
}

type instance struct {
	questions []Question
	opts      Options
	score     int
	answered  []int
	submitted bool
	result    *Result
}

func (in *instance) snapshot() Snapshot {
	s := Snapshot{
		Questions: in.questions,
		Options:   in.opts,
		Score:     in.score,
		Answered:  slices.Clone(in.answered),
		Submitted: in.submitted,
	}
	if in.result != nil {
		r := *in.result
		s.Result = &r
	}
	return s
}

func (in *instance) reset() {
	in.score = 0
	in.answered = make([]int, len(in.questions))
	for i := range in.answered {
		in.answered[i] = -1
	}
	in.submitted = false
	in.result = nil
}

// Engine owns all quiz instances on a board.
type Engine struct {
	board    *view.Board
	recorder ScoreRecorder
	logger   *log.Logger

	mu        sync.Mutex
	instances map[string]*instance
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the diagnostic logger.
func WithLogger(l *log.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// NewEngine returns an Engine rendering into board and recording scores
// through recorder. recorder may be nil.
func NewEngine(board *view.Board, recorder ScoreRecorder, opts ...EngineOption) *Engine {
	e := &Engine{
		board:     board,
		recorder:  recorder,
		logger:    log.New(io.Discard, "", 0),
		instances: make(map[string]*instance),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

var _ ScoreRecorder = (*progress.Tracker)(nil)

// Init creates or replaces the quiz in container id and renders it.
func (e *Engine) Init(id string, questions []Question, opts Options) error {
	if _, ok := e.board.Lookup(id); !ok {
		return ErrNotMounted
	}
	if len(questions) == 0 {
		return ErrNoQuestions
	}

	in := &instance{questions: slices.Clone(questions), opts: opts.withDefaults()}
	in.reset()

	e.mu.Lock()
	e.instances[id] = in
	snap := in.snapshot()
	e.mu.Unlock()

	e.render(id, snap)
	return nil
}

// Answer records option oi for question qi. It reports false, changing
// nothing, when the quiz is unknown, either index is out of range, the
// question was already answered or the quiz was submitted.
func (e *Engine) Answer(id string, qi, oi int) bool {
	e.mu.Lock()
	in, ok := e.instances[id]
	if !ok || in.submitted || qi < 0 || qi >= len(in.questions) || in.answered[qi] != -1 {
		e.mu.Unlock()
		return false
	}
	q := in.questions[qi]
	if oi < 0 || oi >= len(q.Opts) {
		e.mu.Unlock()
		return false
	}
	in.answered[qi] = oi
	if oi == q.Ans {
		in.score++
	}
	snap := in.snapshot()
	e.mu.Unlock()

	e.render(id, snap)
	return true
}

// Submit grades a fully answered quiz, records the score and shows the
// result. It can be called once per attempt.
func (e *Engine) Submit(ctx context.Context, id string) (Result, error) {
	e.mu.Lock()
	in, ok := e.instances[id]
	if !ok {
		e.mu.Unlock()
		return Result{}, ErrUnknownQuiz
	}
	if in.submitted {
		e.mu.Unlock()
		return Result{}, ErrSubmitted
	}
	if slices.Contains(in.answered, -1) {
		e.mu.Unlock()
		return Result{}, ErrIncomplete
	}

	total := len(in.questions)
	pct := progress.Percent(in.score, total)
	res := Result{Score: in.score, Total: total, Pct: pct, Passed: pct >= in.opts.PassScore}
	in.submitted = true
	in.result = &res
	opts := in.opts
	snap := in.snapshot()
	e.mu.Unlock()

	if e.recorder != nil {
		if err := e.recorder.MarkQuizScore(ctx, opts.CourseID, opts.WeekID, opts.DayID, opts.TopicID, res.Score, res.Total); err != nil {
			e.logger.Printf("quiz: record score for %s: %v", id, err)
		}
	}

	e.render(id, snap)

	if res.Passed && opts.OnPass != nil {
		opts.OnPass(pct)
	}
	return res, nil
}

// Retry resets the quiz to its freshly initialized state.
func (e *Engine) Retry(id string) bool {
	e.mu.Lock()
	in, ok := e.instances[id]
	if !ok {
		e.mu.Unlock()
		return false
	}
	in.reset()
	snap := in.snapshot()
	e.mu.Unlock()

	e.render(id, snap)
	return true
}

// Next finds the first topic card after the one holding the quiz that has
// not been visited yet, marks it visited and returns its id.
func (e *Engine) Next(id string) (string, bool) {
	if _, ok := e.board.Lookup(id); !ok {
		return "", false
	}
	found := false
	for _, card := range e.board.Query("topic-card") {
		if found && !card.HasClass("scrolled") {
			card.AddClass("scrolled")
			return card.ID(), true
		}
		if e.board.Contains(card.ID(), id) {
			found = true
		}
	}
	return "", false
}

// State returns a copy of the quiz's state.
func (e *Engine) State(id string) (Snapshot, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	in, ok := e.instances[id]
	if !ok {
		return Snapshot{}, false
	}
	return in.snapshot(), true
}

// View returns the current rendering of the quiz.
func (e *Engine) View(id string) (View, bool) {
	s, ok := e.State(id)
	if !ok {
		return View{}, false
	}
	return Render(id, s), true
}

func (e *Engine) render(id string, s Snapshot) {
	el, ok := e.board.Lookup(id)
	if !ok {
		return
	}
	el.SetContent(Render(id, s))
}
