package week

import (
	"context"
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/coursekit/internal/lang"
	"github.com/abhisek/coursekit/internal/page"
	"github.com/abhisek/coursekit/internal/quiz"
	"github.com/abhisek/coursekit/internal/ui/theme"
	"github.com/abhisek/coursekit/internal/view"
	"github.com/abhisek/coursekit/internal/widgets"
)

// View draws the mounted week from the board: greeting, tabs, ticker and
// the active day's topic cards.
func (s *WeekScreen) View(width, height int) string {
	b := s.deps.Board
	dim := lipgloss.NewStyle().Foreground(theme.TextDim)

	var head []string
	title := lipgloss.NewStyle().Foreground(theme.ArcadeYellow).Bold(true).Render(textOf(b, page.TitleID))
	if name := textOf(b, widgets.StudentNameID); name != "" {
		title += dim.Render("  ·  Namaste, " + name)
	}
	head = append(head, title, s.renderTabs(width))
	if el, ok := b.Lookup(widgets.DefaultTickerID); ok {
		if tc, ok := el.Content().(widgets.TickerContent); ok {
			head = append(head, lipgloss.NewStyle().Foreground(theme.Accent).Render(tc.Frame(width, s.tick)))
		}
	}
	head = append(head, "")

	body, focus := s.renderTopics(width)
	if s.prompt != nil {
		body = append(body, "", s.prompt.View())
		focus = len(body) - 1
	}

	avail := height - len(head)
	return strings.Join(head, "\n") + "\n" + strings.Join(window(body, focus, avail), "\n")
}

func (s *WeekScreen) renderTabs(width int) string {
	ctx := context.Background()
	var tabs []string
	for _, d := range s.layout.Week.Days {
		el, ok := s.deps.Board.Lookup(widgets.DayTabID(d.ID))
		if !ok {
			continue
		}
		label := el.Text()
		if s.deps.Tracker.IsDayDone(ctx, s.course.ID, s.layout.Week.ID, d.ID) {
			label += " ✓"
		}
		if el.HasClass(widgets.ClassActive) {
			tabs = append(tabs, theme.TabActive.Render(label))
		} else {
			tabs = append(tabs, theme.TabInactive.Render(label))
		}
	}
	return lipgloss.NewStyle().MaxWidth(width).Render(strings.Join(tabs, " "))
}

// renderTopics returns the lines of the active day and the index of the
// line holding the cursor.
func (s *WeekScreen) renderTopics(width int) ([]string, int) {
	b := s.deps.Board
	cur := s.deps.Lang.Current()
	dim := lipgloss.NewStyle().Foreground(theme.TextDim)
	wrap := lipgloss.NewStyle().Width(max(width-6, 20)).Foreground(theme.Text)

	var lines []string
	focus := 0
	for i, ref := range s.dayTopics() {
		id := ref.HeaderID
		header, ok := b.Lookup(id)
		if !ok {
			continue
		}

		chevron := "▸"
		open := widgets.IsTopicOpen(b, id)
		if open {
			chevron = "▾"
		}
		name := header.Text()
		if hi, ok := header.Data("title_hi"); ok && cur == lang.Hindi {
			name = hi
		}
		line := fmt.Sprintf("%s %s", chevron, name)
		if card, ok := b.Lookup(page.CardID(id)); ok && card.HasClass(page.ClassDone) {
			line += theme.Done.Render("  ✓")
		}

		if i == s.cursor {
			focus = len(lines)
			line = theme.Selected.Render("› " + line)
		} else {
			line = theme.Unselected.Render("  " + line)
		}
		lines = append(lines, line)
		if !open {
			continue
		}

		for _, el := range b.Children(widgets.BodyID(id)) {
			if el.HasClass(lang.ClassShow) {
				lines = append(lines, indent(wrap.Render(strings.TrimSpace(el.Text())), "    ")...)
			}
		}
		if st, ok := b.Lookup(page.StatusID(id)); ok && st.Visible() {
			lines = append(lines, "    "+lipgloss.NewStyle().Foreground(theme.Accent).Render(st.Text()))
		}
		if v, ok := b.Lookup(page.VideoID(id)); ok {
			lines = append(lines, renderVideo(v, dim)...)
		}
		if q, ok := b.Lookup(page.QuizID(id)); ok {
			lines = append(lines, s.renderQuizBadge(q, ref.Day, ref.Topic.ID, dim))
		}
		lines = append(lines, "")
	}
	if len(lines) == 0 {
		lines = append(lines, dim.Render("No topics for this day yet."))
	}
	return lines, focus
}

func renderVideo(el *view.Element, dim lipgloss.Style) []string {
	switch c := el.Content().(type) {
	case widgets.VideoEmbed:
		return []string{"    ▶ " + lipgloss.NewStyle().Foreground(theme.Info).Underline(true).Render(c.WatchURL)}
	case widgets.VideoPlaceholder:
		return []string{
			"    ▶ " + c.Title,
			"      " + dim.Render(c.Hint+" (press v)"),
			"      " + lipgloss.NewStyle().Foreground(theme.Accent).Render(c.Notice),
		}
	}
	return nil
}

func (s *WeekScreen) renderQuizBadge(el *view.Element, day, topic int, dim lipgloss.Style) string {
	line := "    ✅ Quiz"
	if v, ok := el.Content().(quiz.View); ok {
		line = "    ✅ " + v.Title
	}
	if sc, ok := s.deps.Tracker.ScoreFor(context.Background(), s.course.ID, s.layout.Week.ID, day, topic); ok {
		line += dim.Render(fmt.Sprintf("  last score %d/%d (%d%%)", sc.Score, sc.Total, sc.Pct))
	}
	return line + dim.Render("  press q")
}

func textOf(b *view.Board, id string) string {
	if el, ok := b.Lookup(id); ok {
		return el.Text()
	}
	return ""
}

func indent(block, prefix string) []string {
	lines := strings.Split(block, "\n")
	for i := range lines {
		lines[i] = prefix + lines[i]
	}
	return lines
}

// window returns at most height lines of lines, scrolled so focus is in
// the upper third.
func window(lines []string, focus, height int) []string {
	if height <= 0 {
		return nil
	}
	if len(lines) <= height {
		return lines
	}
	start := max(focus-height/3, 0)
	start = min(start, len(lines)-height)
	return lines[start : start+height]
}
