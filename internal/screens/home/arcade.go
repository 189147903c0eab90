package home

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/coursekit/internal/ui/components"
	"github.com/abhisek/coursekit/internal/ui/theme"
)

// renderTitle returns the course title block.
func renderTitle(title, greeting string, cw int) string {
	style := lipgloss.NewStyle().
		Foreground(theme.ArcadeYellow).
		Bold(true)
	block := style.Render("🦅 "+strings.ToUpper(title)) + "\n" +
		lipgloss.NewStyle().Foreground(theme.TextDim).Render(greeting)
	return lipgloss.NewStyle().
		Width(cw).
		Align(lipgloss.Center).
		Render(block)
}

// stats summarises the ledger for the stats bar.
type stats struct {
	topicsDone  int
	topicsTotal int
	quizzes     int
	avgScore    int
}

// renderStatsBar renders the dashboard stats in a box at content width.
func renderStatsBar(s stats, cw int, compact bool) string {
	doneStyle := lipgloss.NewStyle().Foreground(theme.ArcadeYellow).Bold(true)
	quizStyle := lipgloss.NewStyle().Foreground(theme.ArcadeCyan).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(theme.TextDim)

	var line string
	if compact {
		line = fmt.Sprintf("%s %s",
			doneStyle.Render(fmt.Sprintf("✓%d/%d", s.topicsDone, s.topicsTotal)),
			quizText(s, true, quizStyle, dimStyle),
		)
	} else {
		line = fmt.Sprintf("%s  %s",
			doneStyle.Render(fmt.Sprintf("✓ %d/%d TOPICS", s.topicsDone, s.topicsTotal)),
			quizText(s, false, quizStyle, dimStyle),
		)
	}

	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(theme.ArcadeCyan).
		Width(cw - 2).
		Align(lipgloss.Center).
		Padding(0, 1).
		Render(line)
}

func quizText(s stats, compact bool, active, dim lipgloss.Style) string {
	if s.quizzes == 0 {
		if compact {
			return dim.Render("📝0")
		}
		return dim.Render("📝 NO QUIZZES YET")
	}
	if compact {
		return active.Render(fmt.Sprintf("📝%d·%d%%", s.quizzes, s.avgScore))
	}
	return active.Render(fmt.Sprintf("📝 %d QUIZZES · AVG %d%%", s.quizzes, s.avgScore))
}

// weekRow is one week entry of the menu.
type weekRow struct {
	label   string
	percent int
}

// renderWeeks renders the week list with completion bars.
func renderWeeks(rows []weekRow, selected, cw int) string {
	lines := make([]string, 0, len(rows))
	for i, r := range rows {
		prefix := "  "
		if i == selected {
			prefix = theme.Selected.Render("▸ ")
		}
		label := r.label
		if i == selected {
			label = theme.Selected.Render(label)
		}
		lines = append(lines, prefix+label)
		lines = append(lines, "  "+components.NewProgressBar("", r.percent, cw-2).View())
	}
	return lipgloss.NewStyle().Width(cw).Render(strings.Join(lines, "\n"))
}

// buttonWidth is the fixed width for action buttons.
const buttonWidth = 22

// renderActions renders the non-week menu items as buttons. selected is
// relative to the actions, -1 for none.
func renderActions(items []string, selected, cw int, compact bool) string {
	var parts []string
	for i, label := range items {
		if compact {
			if i == selected {
				parts = append(parts, theme.TabActive.Render("▸ "+label))
			} else {
				parts = append(parts, theme.TabInactive.Render(label))
			}
			continue
		}
		parts = append(parts, components.ArcadeButton(label, i == selected, buttonWidth))
	}
	var block string
	if compact {
		block = strings.Join(parts, "  ")
	} else {
		block = lipgloss.JoinHorizontal(lipgloss.Top, parts...)
	}
	return lipgloss.NewStyle().
		Width(cw).
		Align(lipgloss.Center).
		Render(block)
}

// renderChatBanner renders a hint when the assistant has no API key.
func renderChatBanner(cw int) string {
	return lipgloss.NewStyle().
		Foreground(theme.Accent).
		Width(cw).
		Align(lipgloss.Center).
		Render("⚠ Madam JI needs an API key: press Ctrl+O or run coursekit chat set-key")
}

// renderMascotBox renders the mascot centred at content width.
func renderMascotBox(variant MascotVariant, cw int) string {
	return lipgloss.NewStyle().
		Width(cw).
		Align(lipgloss.Center).
		Render(RenderMascot(variant))
}
