// Package page mounts a course week onto a view.Board using the element
// ids and classes the widgets, quiz engine and narrator look up.
package page

import (
	"context"
	"fmt"

	"github.com/abhisek/coursekit/internal/chat"
	"github.com/abhisek/coursekit/internal/course"
	"github.com/abhisek/coursekit/internal/lang"
	"github.com/abhisek/coursekit/internal/narration"
	"github.com/abhisek/coursekit/internal/progress"
	"github.com/abhisek/coursekit/internal/view"
	"github.com/abhisek/coursekit/internal/widgets"
)

// Fixed element ids.
const (
	RootID     = "page"
	TitleID    = "week_title"
	LangENID   = "lang_en"
	LangHIID   = "lang_hi"
	TopicsID   = "topics"
	DayTabsID  = "day_tabs"
	ClassCard  = "topic-card"
	ClassBody  = "topic-body"
	ClassDone  = "done"
	ClassVideo = "video-container"
	ClassQuiz  = "quiz-container"
)

// TopicID returns the header element id of a topic.
func TopicID(week, day, topic int) string {
	return fmt.Sprintf("w%dd%dt%d", week, day, topic)
}

// CardID returns the card element id wrapping a topic.
func CardID(topicID string) string { return topicID + "_card" }

// ContentID returns the body element id for one language.
func ContentID(topicID, lng string) string { return topicID + "_" + lang.Normalize(lng) }

// StatusID returns the narration status element id.
func StatusID(topicID string) string { return topicID + "_audio" }

// VideoID returns the video container id.
func VideoID(topicID string) string { return topicID + "_video" }

// QuizID returns the quiz container id.
func QuizID(topicID string) string { return topicID + "_quiz" }

// TopicRef locates a mounted topic.
type TopicRef struct {
	Week     int
	Day      int
	Topic    *course.Topic
	HeaderID string
}

// Layout describes what MountWeek put on the board.
type Layout struct {
	Course *course.Course
	Week   *course.Week
	Days   []int
	Topics []TopicRef
}

// DayTopics returns the topics mounted for day n, in order.
func (l *Layout) DayTopics(n int) []TopicRef {
	var out []TopicRef
	for _, t := range l.Topics {
		if t.Day == n {
			out = append(out, t)
		}
	}
	return out
}

// Find returns the topic with the given header id.
func (l *Layout) Find(headerID string) (TopicRef, bool) {
	for _, t := range l.Topics {
		if t.HeaderID == headerID {
			return t, true
		}
	}
	return TopicRef{}, false
}

// MountWeek replaces the board's page with the given week of c.
func MountWeek(b *view.Board, c *course.Course, weekID int) (*Layout, error) {
	w, ok := c.Week(weekID)
	if !ok {
		return nil, fmt.Errorf("course %q has no week %d", c.ID, weekID)
	}
	b.Unmount(RootID)

	b.Mount(RootID)
	b.MountChild(RootID, TitleID).SetText(w.Title)

	for _, l := range []struct{ id, code, label string }{
		{LangENID, lang.English, "EN"},
		{LangHIID, lang.Hindi, "हिं"},
	} {
		btn := b.MountChild(RootID, l.id, lang.ClassButton)
		btn.SetData("lang", l.code)
		btn.SetText(l.label)
	}

	b.MountChild(RootID, widgets.StudentNameID)
	b.MountChild(RootID, widgets.DefaultTickerID)

	layout := &Layout{Course: c, Week: w}

	b.MountChild(RootID, DayTabsID)
	for _, d := range w.Days {
		tab := b.MountChild(DayTabsID, widgets.DayTabID(d.ID), widgets.ClassDayTab)
		tab.SetData("day", fmt.Sprint(d.ID))
		tab.SetText(d.Title)
		layout.Days = append(layout.Days, d.ID)
	}

	b.MountChild(RootID, TopicsID)
	for di := range w.Days {
		d := &w.Days[di]
		panelID := widgets.DayPanelID(d.ID)
		panel := b.MountChild(TopicsID, panelID, widgets.ClassDayPanel)
		panel.SetData("day", fmt.Sprint(d.ID))
		for ti := range d.Topics {
			t := &d.Topics[ti]
			id := mountTopic(b, panelID, w.ID, d.ID, t)
			layout.Topics = append(layout.Topics, TopicRef{Week: w.ID, Day: d.ID, Topic: t, HeaderID: id})
		}
	}

	b.MountChild(RootID, widgets.ToastID).Hide()

	b.MountChild(RootID, widgets.ChatPopupID)
	b.MountChild(widgets.ChatPopupID, chat.MessagesID)
	b.MountChild(widgets.ChatPopupID, chat.KeyRowID).Hide()

	b.MountChild(RootID, widgets.ToolsPopupID)

	return layout, nil
}

func mountTopic(b *view.Board, panelID string, week, day int, t *course.Topic) string {
	id := TopicID(week, day, t.ID)
	card := b.MountChild(panelID, CardID(id), ClassCard)
	card.SetData("topic", fmt.Sprint(t.ID))

	header := b.MountChild(card.ID(), id, widgets.ClassTopicHeader)
	header.SetText(t.Title)
	if t.TitleHI != "" {
		header.SetData("title_hi", t.TitleHI)
	}
	b.MountChild(id, widgets.ChevronID(id))

	body := widgets.BodyID(id)
	b.MountChild(card.ID(), body, ClassBody)
	b.MountChild(body, ContentID(id, lang.English), lang.ClassContentEN).SetText(t.BodyEN)
	b.MountChild(body, ContentID(id, lang.Hindi), lang.ClassContentHI).SetText(t.Body(lang.Hindi))
	b.MountChild(body, StatusID(id), narration.PlayingClass).Hide()

	video := b.MountChild(body, VideoID(id), ClassVideo)
	if t.Video != nil {
		video.SetData("duration", t.Video.Duration)
		video.SetData("url", t.Video.URL)
	}
	if t.Quiz != nil && len(t.Quiz.Questions) > 0 {
		b.MountChild(body, QuizID(id), ClassQuiz)
	}
	return id
}

// RefreshDone marks the cards of completed topics with the done class.
func RefreshDone(ctx context.Context, b *view.Board, l *Layout, tracker *progress.Tracker) {
	for _, t := range l.Topics {
		card, ok := b.Lookup(CardID(t.HeaderID))
		if !ok {
			continue
		}
		card.ToggleClass(ClassDone, tracker.IsTopicDone(ctx, l.Course.ID, t.Week, t.Day, t.Topic.ID))
	}
}

// InitVideos fills every video container: a URL the student saved wins,
// then the course's own URL, then the placeholder card.
func InitVideos(ctx context.Context, b *view.Board, l *Layout, v *widgets.Videos) {
	for _, t := range l.Topics {
		id := VideoID(t.HeaderID)
		var duration, url string
		if t.Topic.Video != nil {
			duration, url = t.Topic.Video.Duration, t.Topic.Video.URL
		}
		v.Init(ctx, id, duration, t.Topic.Title)
		if url == "" {
			continue
		}
		if el, ok := b.Lookup(id); ok {
			if _, placeholder := el.Content().(widgets.VideoPlaceholder); placeholder {
				v.LoadYouTube(id, url)
			}
		}
	}
}
