package toolbox

import (
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/coursekit/internal/screen"
	"github.com/abhisek/coursekit/internal/tools"
	"github.com/abhisek/coursekit/internal/ui/components"
	"github.com/abhisek/coursekit/internal/ui/layout"
	"github.com/abhisek/coursekit/internal/ui/theme"
)

// FormScreen collects a tool's fields and shows its result.
type FormScreen struct {
	tool   tools.Tool
	fields []tools.Field
	inputs []*components.TextInput // nil for Choice fields
	choice []int

	focus  int
	result *tools.Result
	err    error
}

var (
	_ screen.Screen          = (*FormScreen)(nil)
	_ screen.KeyHintProvider = (*FormScreen)(nil)
)

// NewForm creates the form for t with every field at its default.
func NewForm(t tools.Tool) *FormScreen {
	s := &FormScreen{tool: t, fields: t.Fields()}
	s.inputs = make([]*components.TextInput, len(s.fields))
	s.choice = make([]int, len(s.fields))
	for i, f := range s.fields {
		if f.Kind == tools.Choice {
			for j, o := range f.Options {
				if o == f.Default {
					s.choice[i] = j
				}
			}
			continue
		}
		placeholder := f.Placeholder
		if placeholder == "" && f.Kind == tools.Clock {
			placeholder = "HH:MM"
		}
		in := components.NewTextInput(placeholder, true, 8)
		in.SetValue(f.Default)
		in.Blur()
		s.inputs[i] = &in
	}
	return s
}

func (s *FormScreen) Init() tea.Cmd {
	return s.setFocus(0)
}

func (s *FormScreen) Title() string {
	return s.tool.Name()
}

func (s *FormScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Tab/↑↓", Description: "Field"},
		{Key: "←→", Description: "Option"},
		{Key: "Enter", Description: "Calculate"},
		{Key: "Esc", Description: "Back"},
	}
}

// Values returns the current form values keyed by field.
func (s *FormScreen) Values() map[string]string {
	out := make(map[string]string, len(s.fields))
	for i, f := range s.fields {
		if f.Kind == tools.Choice {
			if len(f.Options) > 0 {
				out[f.Key] = f.Options[s.choice[i]]
			}
			continue
		}
		out[f.Key] = s.inputs[i].Value()
	}
	return out
}

// Result returns the last calculation and its error.
func (s *FormScreen) Result() (*tools.Result, error) {
	return s.result, s.err
}

func (s *FormScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if len(s.fields) == 0 {
		return s, nil
	}
	kmsg, ok := msg.(tea.KeyPressMsg)
	if !ok {
		if in := s.inputs[s.focus]; in != nil {
			var cmd tea.Cmd
			*in, cmd = in.Update(msg)
			return s, cmd
		}
		return s, nil
	}

	switch kmsg.String() {
	case "tab", "down":
		return s, s.setFocus((s.focus + 1) % len(s.fields))
	case "shift+tab", "up":
		return s, s.setFocus((s.focus - 1 + len(s.fields)) % len(s.fields))
	case "enter":
		s.run()
		return s, nil
	case "left", "right":
		if s.fields[s.focus].Kind == tools.Choice {
			s.cycle(kmsg.String() == "right")
			return s, nil
		}
	}

	if in := s.inputs[s.focus]; in != nil {
		var cmd tea.Cmd
		*in, cmd = in.Update(msg)
		return s, cmd
	}
	return s, nil
}

func (s *FormScreen) setFocus(i int) tea.Cmd {
	if len(s.fields) == 0 {
		return nil
	}
	if in := s.inputs[s.focus]; in != nil {
		in.Blur()
	}
	s.focus = i
	if in := s.inputs[i]; in != nil {
		return in.Focus()
	}
	return nil
}

func (s *FormScreen) cycle(forward bool) {
	n := len(s.fields[s.focus].Options)
	if n == 0 {
		return
	}
	if forward {
		s.choice[s.focus] = (s.choice[s.focus] + 1) % n
	} else {
		s.choice[s.focus] = (s.choice[s.focus] - 1 + n) % n
	}
}

func (s *FormScreen) run() {
	res, err := s.tool.Run(s.Values())
	if err != nil {
		s.result, s.err = nil, err
		return
	}
	s.result, s.err = &res, nil
}

func (s *FormScreen) View(width, height int) string {
	cw := components.ContentWidth(width)
	dim := lipgloss.NewStyle().Foreground(theme.TextDim)

	var lines []string
	lines = append(lines, dim.Render(s.tool.Description()), "")
	for i, f := range s.fields {
		label := f.Label
		if i == s.focus {
			label = theme.Selected.Render("▸ " + label)
		} else {
			label = theme.Unselected.Render("  " + label)
		}
		lines = append(lines, label)
		if f.Kind == tools.Choice {
			lines = append(lines, "    "+renderOptions(f.Options, s.choice[i]))
		} else {
			lines = append(lines, "    "+s.inputs[i].View())
		}
	}

	switch {
	case s.err != nil:
		lines = append(lines, "", lipgloss.NewStyle().Foreground(theme.Error).Render("⚠ "+s.err.Error()))
	case s.result != nil:
		lines = append(lines, "")
		lines = append(lines, renderResult(*s.result, cw-4))
	}

	card := components.Popup(s.tool.Icon()+"  "+s.tool.Name(), strings.Join(lines, "\n"), cw)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, card)
}

func renderOptions(opts []string, selected int) string {
	parts := make([]string, len(opts))
	for i, o := range opts {
		if i == selected {
			parts[i] = theme.TabActive.Render(o)
		} else {
			parts[i] = theme.TabInactive.Render(o)
		}
	}
	return strings.Join(parts, " ")
}

// verdictColor maps a verdict to the result banner color.
func verdictColor(v tools.Verdict) lipgloss.Style {
	switch v {
	case tools.OK:
		return lipgloss.NewStyle().Foreground(theme.Success).Bold(true)
	case tools.Warn:
		return lipgloss.NewStyle().Foreground(theme.Accent).Bold(true)
	case tools.Fail:
		return lipgloss.NewStyle().Foreground(theme.Error).Bold(true)
	default:
		return lipgloss.NewStyle().Foreground(theme.Info).Bold(true)
	}
}

func renderResult(r tools.Result, cw int) string {
	lines := []string{verdictColor(r.Verdict).Width(cw - 4).Render(r.Summary)}
	dim := lipgloss.NewStyle().Foreground(theme.TextDim)
	for _, l := range r.Lines {
		lines = append(lines, dim.Render(l.Label+": ")+theme.Body.Render(l.Value))
	}
	for _, n := range r.Notes {
		lines = append(lines, dim.Width(cw-4).Render("• "+n))
	}
	return components.ArcadeCard(strings.Join(lines, "\n"), cw)
}
