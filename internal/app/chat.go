package app

import (
	"context"
	"errors"
	"strings"

	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/coursekit/internal/chat"
	"github.com/abhisek/coursekit/internal/course"
	"github.com/abhisek/coursekit/internal/screen"
	"github.com/abhisek/coursekit/internal/ui/components"
	"github.com/abhisek/coursekit/internal/ui/layout"
	"github.com/abhisek/coursekit/internal/ui/theme"
	"github.com/abhisek/coursekit/internal/widgets"
)

// Chat popup notices.
const (
	ChatUnavailable = "Madam JI is not available in this build."
	ChatKeySaved    = "API key saved. Ask away!"
)

// chatDoneMsg carries the result of a send.
type chatDoneMsg struct {
	err error
}

// chatOverlay drives the chat popup over the active screen.
type chatOverlay struct {
	deps    *screen.Deps
	svc     *chat.Service
	input   components.TextInput
	spinner spinner.Model
	chip    int
}

func newChatOverlay(deps *screen.Deps) *chatOverlay {
	o := &chatOverlay{
		deps:    deps,
		input:   components.NewTextInput("Ask Madam JI…", false, 500),
		spinner: spinner.New(spinner.WithSpinner(spinner.MiniDot)),
	}
	o.input.Blur()
	return o
}

// Open binds the popup to the chat session of c and focuses the input.
func (o *chatOverlay) Open(c *course.Course) tea.Cmd {
	o.svc = o.deps.ChatFor(c)
	o.chip = 0
	o.input.Reset()
	if o.svc == nil {
		return nil
	}
	o.svc.Init(context.Background())
	o.syncMode()
	return o.input.Focus()
}

// Close drops input focus. A pending reply keeps running.
func (o *chatOverlay) Close() {
	o.input.Blur()
}

// askingKey reports whether the key row is showing.
func (o *chatOverlay) askingKey() bool {
	el, ok := o.deps.Board.Lookup(chat.KeyRowID)
	return ok && el.Visible()
}

func (o *chatOverlay) syncMode() {
	if o.askingKey() {
		o.input.Model.EchoMode = textinput.EchoPassword
		o.input.Model.Placeholder = "sk-ant-..."
		o.input.Label = "🔑 Paste your API key:"
	} else {
		o.input.Model.EchoMode = textinput.EchoNormal
		o.input.Model.Placeholder = "Ask Madam JI…"
		o.input.Label = ""
	}
}

func (o *chatOverlay) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case chatDoneMsg:
		if msg.err != nil && !errors.Is(msg.err, chat.ErrNoCredential) {
			o.deps.Logger.Printf("app: chat: %v", msg.err)
		}
		o.syncMode()
		return nil

	case spinner.TickMsg:
		if o.svc == nil || !o.svc.Busy() {
			return nil
		}
		var cmd tea.Cmd
		o.spinner, cmd = o.spinner.Update(msg)
		return cmd

	case tea.KeyPressMsg:
		if o.svc == nil {
			return nil
		}
		switch msg.String() {
		case "enter":
			return o.submit()
		case "tab":
			if chips := o.svc.Chips(); len(chips) > 0 && !o.askingKey() {
				o.input.SetValue(chips[o.chip%len(chips)])
				o.input.Model.CursorEnd()
				o.chip++
			}
			return nil
		}
	}

	var cmd tea.Cmd
	o.input, cmd = o.input.Update(msg)
	return cmd
}

func (o *chatOverlay) submit() tea.Cmd {
	ctx := context.Background()
	text := strings.TrimSpace(o.input.Value())
	if text == "" {
		return nil
	}

	if o.askingKey() {
		if err := o.svc.SaveKey(ctx, text); err != nil {
			o.deps.Logger.Printf("app: save chat key: %v", err)
			o.deps.Toaster.Show("Could not save the key.", widgets.ToastError, 0)
			return nil
		}
		o.input.Reset()
		o.syncMode()
		o.deps.Toaster.Show(ChatKeySaved, widgets.ToastSuccess, 0)
		return nil
	}

	if o.svc.Busy() {
		return nil
	}
	o.input.Reset()
	ch := o.svc.SendAsync(ctx, text)
	wait := func() tea.Msg { return chatDoneMsg{err: <-ch} }
	return tea.Batch(wait, o.spinner.Tick)
}

func (o *chatOverlay) KeyHints() []layout.KeyHint {
	hints := []layout.KeyHint{{Key: "Enter", Description: "Send"}}
	if o.svc != nil && len(o.svc.Chips()) > 0 {
		hints = append(hints, layout.KeyHint{Key: "Tab", Description: "Quick question"})
	}
	return append(hints, layout.KeyHint{Key: "Esc", Description: "Close"})
}

func (o *chatOverlay) View(width, height int) string {
	cw := components.ContentWidth(width)
	title := "🤖 Madam JI · AI Tutor"
	if o.svc == nil {
		box := components.Popup(title, ChatUnavailable, cw)
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
	}

	var footer []string
	if chips := o.svc.Chips(); len(chips) > 0 && !o.askingKey() {
		footer = append(footer, renderChips(chips, cw-4))
	}
	footer = append(footer, o.input.View())

	// popup border, title and gaps take six rows.
	avail := max(height-6-lipgloss.Height(strings.Join(footer, "\n")), 3)
	msgs := o.renderMessages(cw - 4)
	if len(msgs) > avail {
		msgs = msgs[len(msgs)-avail:]
	}

	body := strings.Join(msgs, "\n") + "\n\n" + strings.Join(footer, "\n")
	box := components.Popup(title, body, cw)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, box)
}

// renderMessages draws the transcript stored on the board.
func (o *chatOverlay) renderMessages(width int) []string {
	el, ok := o.deps.Board.Lookup(chat.MessagesID)
	if !ok {
		return nil
	}
	entries, _ := el.Content().([]chat.Entry)

	bot := lipgloss.NewStyle().Foreground(theme.Accent).Bold(true)
	user := lipgloss.NewStyle().Foreground(theme.ArcadeCyan).Bold(true)
	wrap := lipgloss.NewStyle().Width(width).Foreground(theme.Text)

	var lines []string
	for _, e := range entries {
		switch e.Role {
		case chat.RoleTyping:
			lines = append(lines, bot.Render("Madam JI ")+o.spinner.View())
			continue
		case chat.RoleUser:
			lines = append(lines, user.Render("You"))
		default:
			lines = append(lines, bot.Render("Madam JI"))
		}
		lines = append(lines, strings.Split(wrap.Render(e.Text), "\n")...)
		lines = append(lines, "")
	}
	return lines
}

func renderChips(chips []string, width int) string {
	dim := lipgloss.NewStyle().Foreground(theme.TextDim)
	parts := make([]string, len(chips))
	for i, c := range chips {
		parts[i] = theme.TabInactive.Render("[" + c + "]")
	}
	return lipgloss.NewStyle().Width(width).Render(dim.Render("Tab: ") + strings.Join(parts, " "))
}
