package app

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/coursekit/internal/chat"
	"github.com/abhisek/coursekit/internal/course"
	"github.com/abhisek/coursekit/internal/llm"
	"github.com/abhisek/coursekit/internal/router"
	"github.com/abhisek/coursekit/internal/screen"
	"github.com/abhisek/coursekit/internal/screens/toolbox"
	"github.com/abhisek/coursekit/internal/store"
	"github.com/abhisek/coursekit/internal/widgets"
)

type idleTimer struct{}

func (idleTimer) Stop() bool { return true }

func newTestDeps(kv store.KV, opts ...screen.DepsOption) *screen.Deps {
	opts = append([]screen.DepsOption{
		screen.WithToasts(time.Second, func(time.Duration, func()) widgets.Timer { return idleTimer{} }),
	}, opts...)
	return screen.NewDeps(kv, []*course.Course{course.Default()}, opts...)
}

func mockChat(replies ...string) screen.DepsOption {
	var rs []llm.MockResponse
	for _, r := range replies {
		b, _ := json.Marshal(r)
		rs = append(rs, llm.MockResponse{Content: b})
	}
	mock := llm.NewMockProvider(rs...)
	return screen.WithChat(func(context.Context, string) (llm.Provider, error) { return mock, nil })
}

func newTestModel(t *testing.T, deps *screen.Deps) AppModel {
	t.Helper()
	m := newAppModel(deps)
	t.Cleanup(m.unsub)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	return m
}

func update(t *testing.T, m AppModel, msg tea.Msg) (AppModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	am, ok := next.(AppModel)
	require.True(t, ok)
	return am, cmd
}

var (
	keyCtrlO = tea.KeyPressMsg{Code: 'o', Mod: tea.ModCtrl}
	keyCtrlT = tea.KeyPressMsg{Code: 't', Mod: tea.ModCtrl}
	keyEnter = tea.KeyPressMsg{Code: tea.KeyEnter}
	keyEsc   = tea.KeyPressMsg{Code: tea.KeyEscape}
)

func TestRenderHome(t *testing.T) {
	m := newTestModel(t, newTestDeps(store.NewMemoryKV()))

	out := m.render()
	assert.Contains(t, out, "coursekit")
	assert.Contains(t, out, "Ctrl+O")
	assert.Contains(t, out, "Week 1: UK Freight Foundations")
}

func TestChatSend(t *testing.T) {
	deps := newTestDeps(store.NewMemoryKV(), mockChat("Nine hours a day."))
	m := newTestModel(t, deps)
	require.NoError(t, deps.KV.Set(context.Background(), chat.KeyStorage, "sk-test"))

	m, cmd := update(t, m, keyCtrlO)
	require.True(t, widgets.IsOpen(deps.Board, widgets.ChatPopupID))
	assert.NotNil(t, cmd)
	assert.False(t, m.chat.askingKey())

	m.chat.input.SetValue("How long can a driver drive?")
	m, cmd = update(t, m, keyEnter)
	require.NotNil(t, cmd)
	batch, ok := cmd().(tea.BatchMsg)
	require.True(t, ok)
	done, ok := batch[0]().(chatDoneMsg)
	require.True(t, ok)
	require.NoError(t, done.err)

	m, _ = update(t, m, done)
	tr := m.chat.svc.Transcript()
	assert.Equal(t, "Nine hours a day.", tr[len(tr)-1].Text)
	assert.Contains(t, m.render(), "Nine hours a day.")

	m, _ = update(t, m, keyEsc)
	assert.False(t, widgets.IsOpen(deps.Board, widgets.ChatPopupID))
}

func TestChatAsksForKey(t *testing.T) {
	kv := store.NewMemoryKV()
	deps := newTestDeps(kv, mockChat())
	m := newTestModel(t, deps)

	m, _ = update(t, m, keyCtrlO)
	require.True(t, m.chat.askingKey())
	assert.Contains(t, m.render(), "Paste your API key")

	m.chat.input.SetValue("sk-ant-123")
	m, _ = update(t, m, keyEnter)
	v, ok, err := kv.Get(context.Background(), chat.KeyStorage)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "sk-ant-123", v)
	assert.False(t, m.chat.askingKey())

	toast, ok := widgets.CurrentToast(deps.Board)
	require.True(t, ok)
	assert.Equal(t, ChatKeySaved, toast.Message)
}

func TestChatUnavailable(t *testing.T) {
	deps := newTestDeps(store.NewMemoryKV())
	m := newTestModel(t, deps)

	m, _ = update(t, m, keyCtrlO)
	assert.Contains(t, m.render(), ChatUnavailable)

	// A second Ctrl+O closes it again.
	m, _ = update(t, m, keyCtrlO)
	assert.False(t, widgets.IsOpen(deps.Board, widgets.ChatPopupID))
}

func TestToolsPopup(t *testing.T) {
	deps := newTestDeps(store.NewMemoryKV())
	m := newTestModel(t, deps)

	m, _ = update(t, m, keyCtrlT)
	require.True(t, widgets.IsOpen(deps.Board, widgets.ToolsPopupID))
	assert.Contains(t, m.render(), "Dispatcher Quick Tools")

	m, cmd := update(t, m, keyEnter)
	assert.False(t, widgets.IsOpen(deps.Board, widgets.ToolsPopupID))
	require.NotNil(t, cmd)
	push, ok := cmd().(router.PushScreenMsg)
	require.True(t, ok)
	_, ok = push.Screen.(*toolbox.FormScreen)
	assert.True(t, ok)

	m, _ = update(t, m, push)
	assert.Equal(t, 2, m.router.Depth())

	m, cmd = update(t, m, keyEsc)
	require.NotNil(t, cmd)
	_, ok = cmd().(router.PopScreenMsg)
	assert.True(t, ok)
}

func TestEscClosesToolsBeforePopping(t *testing.T) {
	deps := newTestDeps(store.NewMemoryKV())
	m := newTestModel(t, deps)

	m, _ = update(t, m, keyCtrlT)
	m, cmd := update(t, m, keyEsc)
	assert.Nil(t, cmd)
	assert.False(t, widgets.IsOpen(deps.Board, widgets.ToolsPopupID))

	// Nothing to pop on the home screen.
	_, cmd = update(t, m, keyEsc)
	assert.Nil(t, cmd)
}

func TestBoardChangesWakeTheModel(t *testing.T) {
	deps := newTestDeps(store.NewMemoryKV())
	m := newTestModel(t, deps)

	select {
	case <-m.changes:
	default:
	}
	deps.Toaster.Show("Saved!", widgets.ToastSuccess, 0)

	msg := waitForChange(m.changes)()
	_, ok := msg.(boardChangedMsg)
	require.True(t, ok)
	_, cmd := update(t, m, msg)
	assert.NotNil(t, cmd, "the wait is re-armed")
	assert.Contains(t, m.render(), "Saved!")
}

func TestTooSmall(t *testing.T) {
	m := newTestModel(t, newTestDeps(store.NewMemoryKV()))
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 40, Height: 10})
	assert.NotContains(t, m.render(), "Week 1")
}
