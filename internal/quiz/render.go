package quiz

import (
	"fmt"
	"strings"
)

// Labels shown on quiz actions.
const (
	SubmitLabel = "📊 See My Results"
	RetryLabel  = "🔄 Retry Quiz"
	NextLabel   = "Next Topic →"
)

// View is the rendered form of a quiz. Front-ends draw it as-is.
type View struct {
	ID       string
	Title    string
	Subtitle string
	Badge    string

	Questions        []QuestionView
	QuestionsVisible bool

	SubmitVisible bool
	SubmitLabel   string

	// Result is set once the quiz has been submitted.
	Result *ResultView
}

// QuestionView is one rendered question.
type QuestionView struct {
	Label    string
	Text     string
	Options  []OptionView
	Answered bool
	Feedback *FeedbackView
}

// OptionView is one answer option.
type OptionView struct {
	Letter  string
	Text    string
	Locked  bool
	Correct bool
	Wrong   bool
}

// FeedbackView is shown under an answered question.
type FeedbackView struct {
	Right bool
	Text  string
}

// ResultView is the graded outcome block.
type ResultView struct {
	Emoji      string
	Pct        int
	Grade      string
	GradeHI    string
	Summary    string
	Passed     bool
	Notice     string
	RetryLabel string
	// NextLabel is empty when the quiz was not passed.
	NextLabel string
}

// Render builds the View for a quiz state. It has no side effects.
func Render(id string, s Snapshot) View {
	n := len(s.Questions)
	pass := s.Options.withDefaults().PassScore

	v := View{
		ID:               id,
		Title:            fmt.Sprintf("Topic Quiz — %d Questions", n),
		Subtitle:         fmt.Sprintf("प्रश्नोत्तरी — Score %d%%+ to complete this topic", pass),
		Badge:            fmt.Sprintf("%d Qs", n),
		QuestionsVisible: !s.Submitted,
		SubmitVisible:    !s.Submitted && n > 0 && s.AllAnswered(),
		SubmitLabel:      SubmitLabel,
	}

	for qi, q := range s.Questions {
		chosen := -1
		if qi < len(s.Answered) {
			chosen = s.Answered[qi]
		}
		qv := QuestionView{
			Label:    fmt.Sprintf("QUESTION %d OF %d", qi+1, n),
			Text:     q.Q,
			Answered: chosen >= 0,
		}
		for oi, opt := range q.Opts {
			ov := OptionView{Letter: optionLetter(oi), Text: opt}
			if chosen >= 0 {
				ov.Locked = true
				ov.Correct = oi == q.Ans
				ov.Wrong = oi == chosen && chosen != q.Ans
			}
			qv.Options = append(qv.Options, ov)
		}
		if chosen >= 0 {
			qv.Feedback = feedback(q, chosen)
		}
		v.Questions = append(v.Questions, qv)
	}

	if s.Submitted && s.Result != nil {
		v.Result = result(*s.Result, pass)
	}
	return v
}

func optionLetter(i int) string {
	return string(rune('A' + i))
}

func feedback(q Question, chosen int) *FeedbackView {
	if chosen == q.Ans {
		return &FeedbackView{Right: true, Text: strings.TrimSpace("✅ Correct! " + q.Explain)}
	}
	correct := ""
	if q.Ans >= 0 && q.Ans < len(q.Opts) {
		correct = q.Opts[q.Ans]
	}
	return &FeedbackView{
		Text: strings.TrimSpace(fmt.Sprintf("❌ Incorrect. Correct answer: %s. %s", correct, q.Explain)),
	}
}

func result(r Result, pass int) *ResultView {
	rv := &ResultView{
		Pct:        r.Pct,
		Summary:    fmt.Sprintf("%d / %d correct • %d%%", r.Score, r.Total, r.Pct),
		Passed:     r.Passed,
		RetryLabel: RetryLabel,
	}
	switch {
	case r.Passed && r.Pct >= 90:
		rv.Emoji, rv.Grade, rv.GradeHI = "🏆", "Excellent!", "शानदार!"
	case r.Passed:
		rv.Emoji, rv.Grade, rv.GradeHI = "🥇", "Good — Topic Passed!", "अच्छा — टॉपिक पास!"
	default:
		rv.Emoji, rv.Grade, rv.GradeHI = "📚", "Keep Studying", "और पढ़ें"
	}
	if r.Passed {
		rv.Notice = "✅ Topic Complete! Move to the next topic."
		rv.NextLabel = NextLabel
	} else {
		rv.Notice = fmt.Sprintf("⚠️ You need %d%% to pass. Review the topic and try again.", pass)
	}
	return rv
}
