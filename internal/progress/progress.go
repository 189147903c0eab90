// Package progress keeps the completion ledger: which topics and days are
// done and the last quiz score per topic. The ledger is a single JSON
// document under one KV key, compatible with the browser's localStorage
// format so dumps can be imported as-is.
package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/abhisek/coursekit/internal/store"
)

// LedgerKey is the KV key the ledger is stored under.
const LedgerKey = "ea_progress"

// QuizScore is the score part of a quiz record.
type QuizScore struct {
	Score int `json:"score"`
	Total int `json:"total"`
	Pct   int `json:"pct"`
}

// Record is one ledger entry. Topic and day records set Done; quiz records
// carry a QuizScore. TS is milliseconds since the Unix epoch.
type Record struct {
	Done bool `json:"done,omitempty"`
	*QuizScore
	TS int64 `json:"ts"`
}

// Ledger maps ledger keys to records.
type Ledger map[string]Record

// TopicKey returns the ledger key for a topic.
func TopicKey(course string, week, day, topic int) string {
	return fmt.Sprintf("%s_w%d_d%d_t%d", course, week, day, topic)
}

// DayKey returns the ledger key for a day.
func DayKey(course string, week, day int) string {
	return fmt.Sprintf("%s_w%d_d%d", course, week, day)
}

// QuizKey returns the ledger key for a topic's quiz score.
func QuizKey(course string, week, day, topic int) string {
	return "quiz_" + TopicKey(course, week, day, topic)
}

// WeekPrefix returns the key prefix shared by a week's topic and day records.
func WeekPrefix(course string, week int) string {
	return fmt.Sprintf("%s_w%d_", course, week)
}

// Tracker reads and updates the ledger.
type Tracker struct {
	kv       store.KV
	now      func() time.Time
	logger   *log.Logger
	onChange func()

	// mu serializes read-modify-write cycles within the process.
	mu sync.Mutex
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock sets the clock used for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *log.Logger) Option {
	return func(t *Tracker) { t.logger = l }
}

// WithOnChange sets a hook run after every successful mark.
func WithOnChange(fn func()) Option {
	return func(t *Tracker) { t.onChange = fn }
}

// New returns a Tracker over kv.
func New(kv store.KV, opts ...Option) *Tracker {
	t := &Tracker{
		kv:     kv,
		now:    time.Now,
		logger: log.New(io.Discard, "", 0),
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// SetOnChange replaces the change hook.
func (t *Tracker) SetOnChange(fn func()) {
	t.mu.Lock()
	t.onChange = fn
	t.mu.Unlock()
}

// Get returns the ledger. A missing or unreadable ledger is returned as an
// empty one; entries that do not decode as records are skipped.
func (t *Tracker) Get(ctx context.Context) Ledger {
	raw, ok, err := t.kv.Get(ctx, LedgerKey)
	if err != nil {
		t.logger.Printf("progress: read ledger: %v", err)
		return Ledger{}
	}
	if !ok || raw == "" {
		return Ledger{}
	}
	var entries map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &entries); err != nil || entries == nil {
		t.logger.Printf("progress: malformed ledger ignored: %v", err)
		return Ledger{}
	}
	l := make(Ledger, len(entries))
	for key, msg := range entries {
		var rec Record
		if err := json.Unmarshal(msg, &rec); err != nil {
			t.logger.Printf("progress: skipping ledger entry %q: %v", key, err)
			continue
		}
		l[key] = rec
	}
	return l
}

// Save overwrites the ledger.
func (t *Tracker) Save(ctx context.Context, l Ledger) error {
	if l == nil {
		l = Ledger{}
	}
	b, err := json.Marshal(l)
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}
	if err := t.kv.Set(ctx, LedgerKey, string(b)); err != nil {
		return fmt.Errorf("save ledger: %w", err)
	}
	return nil
}

func (t *Tracker) update(ctx context.Context, fn func(Ledger)) error {
	t.mu.Lock()
	l := t.Get(ctx)
	fn(l)
	err := t.Save(ctx, l)
	hook := t.onChange
	t.mu.Unlock()

	if err != nil {
		return err
	}
	if hook != nil {
		hook()
	}
	return nil
}

func (t *Tracker) markDone(ctx context.Context, key string) error {
	return t.update(ctx, func(l Ledger) {
		if r, ok := l[key]; ok && r.Done {
			return
		}
		l[key] = Record{Done: true, TS: t.now().UnixMilli()}
	})
}

// MarkTopicDone records a topic as complete. Marking an already completed
// topic keeps its original timestamp.
func (t *Tracker) MarkTopicDone(ctx context.Context, course string, week, day, topic int) error {
	return t.markDone(ctx, TopicKey(course, week, day, topic))
}

// MarkDayDone records a day as complete.
func (t *Tracker) MarkDayDone(ctx context.Context, course string, week, day int) error {
	return t.markDone(ctx, DayKey(course, week, day))
}

// MarkQuizScore stores the latest quiz score for a topic. It does not mark
// the topic done.
func (t *Tracker) MarkQuizScore(ctx context.Context, course string, week, day, topic, score, total int) error {
	return t.update(ctx, func(l Ledger) {
		l[QuizKey(course, week, day, topic)] = Record{
			QuizScore: &QuizScore{Score: score, Total: total, Pct: Percent(score, total)},
			TS:        t.now().UnixMilli(),
		}
	})
}

// IsTopicDone reports whether the topic has a ledger record.
func (t *Tracker) IsTopicDone(ctx context.Context, course string, week, day, topic int) bool {
	_, ok := t.Get(ctx)[TopicKey(course, week, day, topic)]
	return ok
}

// IsDayDone reports whether the day has a ledger record.
func (t *Tracker) IsDayDone(ctx context.Context, course string, week, day int) bool {
	_, ok := t.Get(ctx)[DayKey(course, week, day)]
	return ok
}

// WeekProgress returns the rounded percentage of done records under the
// week's key prefix against totalTopics. Day records share the prefix and
// are counted too. A non-positive total yields 0.
func (t *Tracker) WeekProgress(ctx context.Context, course string, week, totalTopics int) int {
	if totalTopics <= 0 {
		return 0
	}
	prefix := WeekPrefix(course, week)
	done := 0
	for k, r := range t.Get(ctx) {
		if strings.HasPrefix(k, prefix) && r.Done {
			done++
		}
	}
	return Percent(done, totalTopics)
}

// ScoreFor returns the stored quiz score for a topic.
func (t *Tracker) ScoreFor(ctx context.Context, course string, week, day, topic int) (QuizScore, bool) {
	r, ok := t.Get(ctx)[QuizKey(course, week, day, topic)]
	if !ok || r.QuizScore == nil {
		return QuizScore{}, false
	}
	return *r.QuizScore, true
}

// Percent returns round(100*n/total), or 0 when total is not positive.
func Percent(n, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(n) / float64(total) * 100))
}
