package web

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/coursekit/internal/chat"
	"github.com/abhisek/coursekit/internal/course"
	"github.com/abhisek/coursekit/internal/llm"
	"github.com/abhisek/coursekit/internal/progress"
	"github.com/abhisek/coursekit/internal/store"
)

type fixture struct {
	kv      *store.MemoryKV
	tracker *progress.Tracker
	mock    *llm.MockProvider
	server  *httptest.Server
}

func setup(t *testing.T, withChat bool) *fixture {
	t.Helper()
	f := &fixture{kv: store.NewMemoryKV(), mock: llm.NewMockProvider()}
	f.tracker = progress.New(f.kv)

	var opts []Option
	if withChat {
		factory := func(context.Context, string) (llm.Provider, error) { return f.mock, nil }
		opts = append(opts, WithChat(f.kv, factory))
	}
	s := New(Config{Addr: "127.0.0.1:0"}, []*course.Course{course.Default()}, f.tracker, opts...)
	f.server = httptest.NewServer(s.Router())
	t.Cleanup(f.server.Close)
	return f
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, string(body)
}

func TestHealthz(t *testing.T) {
	f := setup(t, false)
	code, body := get(t, f.server.URL+"/healthz")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"status":"ok"}`, body)
}

func TestIndex(t *testing.T) {
	f := setup(t, false)
	ctx := context.Background()
	require.NoError(t, f.tracker.MarkTopicDone(ctx, "fd", 1, 1, 1))

	code, body := get(t, f.server.URL+"/")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "International Freight Dispatcher")
	assert.Contains(t, body, `href="/courses/fd/weeks/1"`)
	assert.Contains(t, body, "Week 2: USA Dispatch Essentials")
	assert.Contains(t, body, "17% of 6 topics")
}

func TestWeekPage(t *testing.T) {
	f := setup(t, false)
	ctx := context.Background()
	require.NoError(t, f.tracker.MarkTopicDone(ctx, "fd", 1, 1, 1))
	require.NoError(t, f.tracker.MarkQuizScore(ctx, "fd", 1, 1, 1, 2, 3))

	code, body := get(t, f.server.URL+"/courses/fd/weeks/1")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "Week 1: UK Freight Foundations")
	assert.Contains(t, body, "What a Freight Dispatcher Does ✓")
	assert.Contains(t, body, "<strong>freight dispatcher</strong>")
	assert.Contains(t, body, `class="content-hi"`)
	assert.Contains(t, body, "Last quiz score: 2/3 (67%)")

	_, body = get(t, f.server.URL+"/courses/fd/weeks/1?lang=hi")
	assert.Contains(t, body, "फ्रेट डिस्पैचर क्या करता है")
	assert.Contains(t, body, `<html lang="hi">`)
}

func TestWeekPageErrors(t *testing.T) {
	f := setup(t, false)
	tests := []struct {
		path string
		code int
	}{
		{"/courses/nope/weeks/1", http.StatusNotFound},
		{"/courses/fd/weeks/x", http.StatusBadRequest},
		{"/courses/fd/weeks/9", http.StatusNotFound},
		{"/api/courses/fd/weeks/9/progress", http.StatusNotFound},
	}
	for _, tt := range tests {
		code, _ := get(t, f.server.URL+tt.path)
		assert.Equal(t, tt.code, code, tt.path)
	}
}

func TestProgressAPI(t *testing.T) {
	f := setup(t, false)
	ctx := context.Background()
	for topic := 1; topic <= 2; topic++ {
		require.NoError(t, f.tracker.MarkTopicDone(ctx, "fd", 1, 1, topic))
	}
	require.NoError(t, f.tracker.MarkTopicDone(ctx, "fd", 1, 2, 1))

	code, body := get(t, f.server.URL+"/api/progress")
	require.Equal(t, http.StatusOK, code)
	var ledger progress.Ledger
	require.NoError(t, json.Unmarshal([]byte(body), &ledger))
	assert.Len(t, ledger, 3)
	assert.True(t, ledger["fd_w1_d2_t1"].Done)

	code, body = get(t, f.server.URL+"/api/courses/fd/weeks/1/progress")
	require.Equal(t, http.StatusOK, code)
	var wp weekProgressResponse
	require.NoError(t, json.Unmarshal([]byte(body), &wp))
	assert.Equal(t, weekProgressResponse{Course: "fd", Week: 1, TopicsDone: 3, Total: 6, Percent: 50}, wp)
}

func TestCORS(t *testing.T) {
	f := setup(t, false)
	req, err := http.NewRequest(http.MethodGet, f.server.URL+"/api/progress", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))
}

func dial(t *testing.T, f *fixture) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/ws/chat"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("websocket dial: %v", err)
	}
	if resp.StatusCode != http.StatusSwitchingProtocols {
		t.Fatalf("expected 101, got %d", resp.StatusCode)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func read(t *testing.T, conn *websocket.Conn) chatResponse {
	t.Helper()
	var resp chatResponse
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatalf("read: %v", err)
	}
	return resp
}

func TestWebSocketChat(t *testing.T) {
	f := setup(t, true)
	f.mock.AddResponse(llm.MockText("An O-Licence lets a firm run goods vehicles."))
	conn := dial(t, f)

	hello := read(t, conn)
	assert.Equal(t, "response", hello.Type)
	assert.Contains(t, hello.Content, "Madam JI")
	require.NotEmpty(t, hello.SessionID)

	prompt := read(t, conn)
	assert.Equal(t, "prompt", prompt.Type)
	assert.Equal(t, chat.NoKeyMessage, prompt.Content)

	require.NoError(t, conn.WriteJSON(chatRequest{Type: "message", Content: "What is an O-Licence?"}))
	resp := read(t, conn)
	assert.Equal(t, "prompt", resp.Type)
	assert.Zero(t, f.mock.CallCount())

	require.NoError(t, conn.WriteJSON(chatRequest{Type: "key", Content: "sk-ant-test"}))
	resp = read(t, conn)
	assert.Equal(t, "response", resp.Type)
	assert.Equal(t, KeySaved, resp.Content)
	key, ok, err := f.kv.Get(context.Background(), chat.KeyStorage)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "sk-ant-test", key)

	require.NoError(t, conn.WriteJSON(chatRequest{Type: "message", Content: "What is an O-Licence?"}))
	resp = read(t, conn)
	assert.Equal(t, "response", resp.Type)
	assert.Equal(t, "An O-Licence lets a firm run goods vehicles.", resp.Content)
	assert.Equal(t, hello.SessionID, resp.SessionID)
	require.Equal(t, 1, f.mock.CallCount())
	assert.Contains(t, f.mock.Calls[0].System, "Madam JI")

	// The mock queue is empty now, so the provider fails.
	require.NoError(t, conn.WriteJSON(chatRequest{Type: "message", Content: "And a tachograph?"}))
	resp = read(t, conn)
	assert.Equal(t, "error", resp.Type)
	assert.Equal(t, chat.ConnectionError, resp.Content)
}

func TestWebSocketBadMessages(t *testing.T) {
	f := setup(t, true)
	require.NoError(t, f.kv.Set(context.Background(), chat.KeyStorage, "sk"))
	conn := dial(t, f)
	read(t, conn) // greeting only; a key is stored

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	assert.Equal(t, "invalid message format", read(t, conn).Content)

	require.NoError(t, conn.WriteJSON(chatRequest{Type: "message"}))
	assert.Equal(t, "content is required", read(t, conn).Content)

	require.NoError(t, conn.WriteJSON(chatRequest{Type: "ask", Content: "hi"}))
	resp := read(t, conn)
	assert.Equal(t, "error", resp.Type)
	assert.Contains(t, resp.Content, "unknown message type: ask")
}

func TestWebSocketWithoutChat(t *testing.T) {
	f := setup(t, false)
	wsURL := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/ws/chat"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
