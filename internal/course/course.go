// Package course defines bilingual course content and loads it from YAML.
package course

import (
	"fmt"
	"slices"
	"strings"

	"github.com/abhisek/coursekit/internal/quiz"
)

// Course is one certification course.
type Course struct {
	ID        string    `yaml:"id" json:"id"`
	Title     string    `yaml:"title" json:"title"`
	Format    string    `yaml:"format" json:"format"`
	Ticker    []string  `yaml:"ticker,omitempty" json:"ticker,omitempty"`
	Assistant Assistant `yaml:"assistant,omitempty" json:"assistant,omitempty"`
	Weeks     []Week    `yaml:"weeks" json:"weeks"`

	// Source is the file the course was loaded from. Empty for the
	// built-in course.
	Source string `yaml:"-" json:"-"`
}

// Assistant configures the chat tutor for a course.
type Assistant struct {
	Name         string   `yaml:"name,omitempty" json:"name,omitempty"`
	SystemPrompt string   `yaml:"system_prompt,omitempty" json:"system_prompt,omitempty"`
	Greeting     string   `yaml:"greeting,omitempty" json:"greeting,omitempty"`
	Chips        []string `yaml:"chips,omitempty" json:"chips,omitempty"`
}

// Week groups days.
type Week struct {
	ID    int    `yaml:"id" json:"id"`
	Title string `yaml:"title" json:"title"`
	Days  []Day  `yaml:"days" json:"days"`
}

// Day groups topics.
type Day struct {
	ID     int     `yaml:"id" json:"id"`
	Title  string  `yaml:"title" json:"title"`
	Topics []Topic `yaml:"topics" json:"topics"`
}

// Topic is one lesson card. Bodies are markdown.
type Topic struct {
	ID      int    `yaml:"id" json:"id"`
	Title   string `yaml:"title" json:"title"`
	TitleHI string `yaml:"title_hi,omitempty" json:"title_hi,omitempty"`
	BodyEN  string `yaml:"body_en" json:"body_en"`
	BodyHI  string `yaml:"body_hi,omitempty" json:"body_hi,omitempty"`
	Video   *Video `yaml:"video,omitempty" json:"video,omitempty"`
	Quiz    *Quiz  `yaml:"quiz,omitempty" json:"quiz,omitempty"`
}

// Video is an optional lesson video.
type Video struct {
	URL      string `yaml:"url,omitempty" json:"url,omitempty"`
	Duration string `yaml:"duration,omitempty" json:"duration,omitempty"`
}

// Quiz is an optional end-of-topic quiz.
type Quiz struct {
	PassScore int             `yaml:"pass_score,omitempty" json:"pass_score,omitempty"`
	Questions []quiz.Question `yaml:"questions" json:"questions"`
}

// Week returns the week with the given id.
func (c *Course) Week(id int) (*Week, bool) {
	for i := range c.Weeks {
		if c.Weeks[i].ID == id {
			return &c.Weeks[i], true
		}
	}
	return nil, false
}

// TopicCount returns the number of topics in the given week, or 0 when the
// week does not exist. It is the denominator for week progress.
func (c *Course) TopicCount(week int) int {
	w, ok := c.Week(week)
	if !ok {
		return 0
	}
	return w.TopicCount()
}

// TopicCount returns the number of topics across all days.
func (w *Week) TopicCount() int {
	n := 0
	for _, d := range w.Days {
		n += len(d.Topics)
	}
	return n
}

// Day returns the day with the given id.
func (w *Week) Day(id int) (*Day, bool) {
	for i := range w.Days {
		if w.Days[i].ID == id {
			return &w.Days[i], true
		}
	}
	return nil, false
}

// DisplayTitle returns the Hindi title when lang is "hi" and one exists.
func (t *Topic) DisplayTitle(lang string) string {
	if lang == "hi" && t.TitleHI != "" {
		return t.TitleHI
	}
	return t.Title
}

// Body returns the markdown body for lang, falling back to English.
func (t *Topic) Body(lang string) string {
	if lang == "hi" && t.BodyHI != "" {
		return t.BodyHI
	}
	return t.BodyEN
}

// QuizOptions locates the topic's quiz in the progress ledger.
func (c *Course) QuizOptions(week, day int, t *Topic) quiz.Options {
	opts := quiz.Options{CourseID: c.ID, WeekID: week, DayID: day, TopicID: t.ID}
	if t.Quiz != nil {
		opts.PassScore = t.Quiz.PassScore
	}
	return opts
}

// MissingHindi counts titles and bodies without a Hindi version.
func (c *Course) MissingHindi() int {
	n := 0
	for _, w := range c.Weeks {
		for _, d := range w.Days {
			for _, t := range d.Topics {
				if t.TitleHI == "" {
					n++
				}
				if t.BodyHI == "" && t.BodyEN != "" {
					n++
				}
			}
		}
	}
	return n
}

// check performs the structural checks the schema cannot express.
// Returns a combined error describing all problems found, or nil.
func (c *Course) check() error {
	var errs []string

	weekIDs := make(map[int]bool, len(c.Weeks))
	for _, w := range c.Weeks {
		if weekIDs[w.ID] {
			errs = append(errs, fmt.Sprintf("duplicate week ID: %d", w.ID))
		}
		weekIDs[w.ID] = true

		dayIDs := make(map[int]bool, len(w.Days))
		for _, d := range w.Days {
			if dayIDs[d.ID] {
				errs = append(errs, fmt.Sprintf("week %d: duplicate day ID: %d", w.ID, d.ID))
			}
			dayIDs[d.ID] = true

			topicIDs := make(map[int]bool, len(d.Topics))
			for _, t := range d.Topics {
				if topicIDs[t.ID] {
					errs = append(errs, fmt.Sprintf("week %d day %d: duplicate topic ID: %d", w.ID, d.ID, t.ID))
				}
				topicIDs[t.ID] = true

				if t.Quiz == nil {
					continue
				}
				for qi, q := range t.Quiz.Questions {
					if q.Ans < 0 || q.Ans >= len(q.Opts) {
						errs = append(errs, fmt.Sprintf("week %d day %d topic %d question %d: answer %d out of range",
							w.ID, d.ID, t.ID, qi+1, q.Ans))
					}
					if slices.Contains(q.Opts, "") {
						errs = append(errs, fmt.Sprintf("week %d day %d topic %d question %d: empty option",
							w.ID, d.ID, t.ID, qi+1))
					}
				}
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("course %q: %s", c.ID, strings.Join(errs, "; "))
	}
	return nil
}
