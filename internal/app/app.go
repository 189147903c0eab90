// Package app is the root Bubble Tea model: the screen stack, the shared
// chrome (header, footer, toast) and the chat and tools popups.
package app

import (
	"fmt"
	"io"
	"log"
	"os"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/coursekit/internal/chat"
	"github.com/abhisek/coursekit/internal/config"
	"github.com/abhisek/coursekit/internal/course"
	"github.com/abhisek/coursekit/internal/narration"
	"github.com/abhisek/coursekit/internal/router"
	"github.com/abhisek/coursekit/internal/screen"
	"github.com/abhisek/coursekit/internal/screens/home"
	"github.com/abhisek/coursekit/internal/screens/toolbox"
	"github.com/abhisek/coursekit/internal/store"
	"github.com/abhisek/coursekit/internal/ui/layout"
	"github.com/abhisek/coursekit/internal/widgets"
)

// Options holds the dependencies for Run.
type Options struct {
	Config    *config.Config
	KV        store.KV
	EventRepo store.EventRepo
	Courses   []*course.Course
}

// boardChangedMsg is sent whenever the board mutates, including from
// timers and chat replies running off the UI goroutine.
type boardChangedMsg struct{}

// AppModel is the root Bubble Tea model.
type AppModel struct {
	router  *router.Router
	deps    *screen.Deps
	changes chan struct{}
	unsub   func()
	chat    *chatOverlay
	tools   toolbox.Picker
	width   int
	height  int
}

// newAppModel creates the model with the home screen and subscribes to
// board changes.
func newAppModel(deps *screen.Deps) AppModel {
	changes := make(chan struct{}, 1)
	unsub := deps.Board.Subscribe(func() {
		select {
		case changes <- struct{}{}:
		default:
		}
	})
	return AppModel{
		router:  router.New(home.New(deps)),
		deps:    deps,
		changes: changes,
		unsub:   unsub,
		chat:    newChatOverlay(deps),
		tools:   toolbox.NewPicker(),
	}
}

// waitForChange blocks until the board changes.
func waitForChange(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-ch
		return boardChangedMsg{}
	}
}

func (m AppModel) Init() tea.Cmd {
	return tea.Batch(m.router.Active().Init(), waitForChange(m.changes))
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case boardChangedMsg:
		return m, waitForChange(m.changes)

	case chatDoneMsg, spinner.TickMsg:
		return m, m.chat.Update(msg)

	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "ctrl+o":
			if widgets.ToggleChat(m.deps.Board) {
				return m, m.chat.Open(m.activeCourse())
			}
			m.chat.Close()
			return m, nil
		case "ctrl+t":
			if widgets.ToggleTools(m.deps.Board) {
				m.chat.Close()
			}
			return m, nil
		case "esc":
			return m, m.handleEsc(msg)
		}

		switch {
		case widgets.IsOpen(m.deps.Board, widgets.ChatPopupID):
			return m, m.chat.Update(msg)
		case widgets.IsOpen(m.deps.Board, widgets.ToolsPopupID):
			return m, m.updateTools(msg)
		}
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

// handleEsc closes the topmost layer: an open popup, then a capturing
// input, then the active screen.
func (m AppModel) handleEsc(msg tea.KeyPressMsg) tea.Cmd {
	b := m.deps.Board
	if widgets.IsOpen(b, widgets.ChatPopupID) {
		widgets.ToggleChat(b)
		m.chat.Close()
		return nil
	}
	if widgets.IsOpen(b, widgets.ToolsPopupID) {
		widgets.ToggleTools(b)
		return nil
	}
	if c, ok := m.router.Active().(screen.InputCapturer); ok && c.Capturing() {
		return m.router.Update(msg)
	}
	if m.router.Depth() > 1 {
		m.deps.Narrator.Stop()
		return router.Back
	}
	return nil
}

func (m *AppModel) updateTools(msg tea.KeyPressMsg) tea.Cmd {
	var cmd tea.Cmd
	m.tools, cmd = m.tools.Update(msg)
	if msg.String() == "enter" {
		widgets.ToggleTools(m.deps.Board)
	}
	return cmd
}

// activeCourse returns the course of the active screen, or the first one.
func (m AppModel) activeCourse() *course.Course {
	if cp, ok := m.router.Active().(screen.CourseProvider); ok {
		if c := cp.Course(); c != nil {
			return c
		}
	}
	return m.deps.Course("")
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true
	if m.width == 0 || m.height == 0 {
		return v
	}
	v.SetContent(m.render())
	return v
}

// render draws the whole frame at the current size.
func (m AppModel) render() string {
	if layout.IsTooSmall(m.width, m.height) {
		return layout.RenderMinSizeMessage(m.width, m.height)
	}

	active := m.router.Active()
	title, status := "", ""
	if active != nil {
		title = active.Title()
		if sp, ok := active.(screen.StatusProvider); ok {
			status = sp.Status()
		}
	}
	header := layout.RenderHeader(title, status, m.width)
	footer := layout.RenderFooter(m.footerHints(), m.width)

	contentHeight := max(m.height-lipgloss.Height(header)-lipgloss.Height(footer), 0)

	var content string
	switch {
	case widgets.IsOpen(m.deps.Board, widgets.ChatPopupID):
		content = m.chat.View(m.width, contentHeight)
	case widgets.IsOpen(m.deps.Board, widgets.ToolsPopupID):
		content = m.renderTools(m.width, contentHeight)
	default:
		content = m.router.View(m.width, contentHeight)
	}
	if toast := renderToast(m.deps); toast != "" {
		content = overlayToast(content, toast, m.width)
	}

	return layout.RenderFrame(header, content, footer, m.width, m.height)
}

func (m AppModel) footerHints() []layout.KeyHint {
	b := m.deps.Board
	switch {
	case widgets.IsOpen(b, widgets.ChatPopupID):
		return m.chat.KeyHints()
	case widgets.IsOpen(b, widgets.ToolsPopupID):
		return []layout.KeyHint{
			{Key: "↑↓", Description: "Choose"},
			{Key: "Enter", Description: "Open"},
			{Key: "Esc", Description: "Close"},
		}
	}

	var hints []layout.KeyHint
	if kp, ok := m.router.Active().(screen.KeyHintProvider); ok {
		hints = append(hints, kp.KeyHints()...)
	}
	hints = append(hints,
		layout.KeyHint{Key: "Ctrl+O", Description: "Madam JI"},
		layout.KeyHint{Key: "Ctrl+T", Description: "Tools"},
	)
	if m.router.Depth() > 1 {
		hints = append(hints, layout.KeyHint{Key: "Esc", Description: "Back"})
	}
	return append(hints, layout.KeyHint{Key: "Ctrl+C", Description: "Quit"})
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}

	logger := log.New(io.Discard, "", 0)
	if cfg.LogFile != "" {
		f, err := tea.LogToFile(cfg.LogFile, "coursekit")
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		logger = log.Default()
	}

	deps := NewDeps(opts, cfg, logger)
	defer deps.Close()

	m := newAppModel(deps)
	defer m.unsub()

	p := tea.NewProgram(m)
	if _, err := p.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error running program:", err)
		return err
	}
	return nil
}

// NewDeps builds the screen dependencies from the configuration. Speech
// is enabled only when an engine is found.
func NewDeps(opts Options, cfg *config.Config, logger *log.Logger) *screen.Deps {
	kv := opts.KV
	if kv == nil {
		kv = store.NewMemoryKV()
	}
	courses := opts.Courses
	if len(courses) == 0 {
		courses = []*course.Course{course.Default()}
	}

	dopts := []screen.DepsOption{
		screen.WithLogger(logger),
		screen.WithToasts(cfg.Toast.Duration, nil),
	}
	if synth, err := narration.Detect(cfg.Narration.Engine); err == nil {
		dopts = append(dopts, screen.WithSynthesizer(synth, cfg.Narration.Rate))
	} else {
		logger.Printf("app: narration disabled: %v", err)
	}

	llmCfg := cfg.ChatLLM()
	dopts = append(dopts, screen.WithChat(
		chat.ProviderFactory(llmCfg, opts.EventRepo),
		chat.WithFallbackKey(llmCfg.APIKey),
		chat.WithMaxTokens(llmCfg.MaxTokens),
	))

	return screen.NewDeps(kv, courses, dopts...)
}
