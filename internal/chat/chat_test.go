package chat

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/coursekit/internal/llm"
	"github.com/abhisek/coursekit/internal/store"
	"github.com/abhisek/coursekit/internal/view"
)

func mockFactory(p llm.Provider, keys *[]string) Factory {
	return func(_ context.Context, key string) (llm.Provider, error) {
		if keys != nil {
			*keys = append(*keys, key)
		}
		return p, nil
	}
}

func newBoard() *view.Board {
	b := view.NewBoard()
	b.Mount(MessagesID)
	row := b.Mount(KeyRowID)
	row.Hide()
	return b
}

func transcriptOf(t *testing.T, b *view.Board) []Entry {
	t.Helper()
	el, ok := b.Lookup(MessagesID)
	require.True(t, ok)
	entries, ok := el.Content().([]Entry)
	require.True(t, ok, "content is %T", el.Content())
	return entries
}

func TestInitRendersGreeting(t *testing.T) {
	b := newBoard()
	s := New(store.NewMemoryKV(), b, nil)
	s.Init(context.Background())

	assert.Equal(t, []Entry{{Role: RoleBot, Text: Greeting}}, transcriptOf(t, b))
	row, _ := b.Lookup(KeyRowID)
	assert.True(t, row.Visible(), "key row should show without a credential")
	assert.Equal(t, DefaultChips, s.Chips())
	assert.NotEmpty(t, s.SessionID())
}

func TestSendWithoutCredential(t *testing.T) {
	mock := llm.NewMockProvider()
	b := newBoard()
	s := New(store.NewMemoryKV(), b, mockFactory(mock, nil))

	err := s.Send(context.Background(), "What is a tachograph?")
	require.ErrorIs(t, err, ErrNoCredential)

	assert.Equal(t, 0, mock.CallCount())
	entries := transcriptOf(t, b)
	require.Len(t, entries, 2)
	assert.Equal(t, Entry{Role: RoleBot, Text: NoKeyMessage}, entries[1])
	assert.Empty(t, s.History())
	row, _ := b.Lookup(KeyRowID)
	assert.True(t, row.Visible())
}

func TestSendIgnoresBlankText(t *testing.T) {
	s := New(store.NewMemoryKV(), nil, nil)
	require.NoError(t, s.Send(context.Background(), "   "))
	assert.Len(t, s.Transcript(), 1)
}

func TestSendSuccess(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryKV()
	mock := llm.NewMockProvider(
		llm.MockResponse{Content: json.RawMessage("An operator's licence for goods vehicles.")},
		llm.MockResponse{Content: json.RawMessage(`"Nine hours a day."`)},
	)
	var keys []string
	b := newBoard()
	s := New(kv, b, mockFactory(mock, &keys), WithSystemPrompt("Be brief."))
	require.NoError(t, s.SaveKey(ctx, "  sk-ant-1  "))

	require.NoError(t, s.Send(ctx, "What is an O-Licence?"))
	require.NoError(t, s.Send(ctx, "How do UK drivers hours work?"))

	assert.Equal(t, []string{"sk-ant-1"}, keys, "provider should be built once per key")
	require.Equal(t, 2, mock.CallCount())

	second := mock.Calls[1]
	assert.Equal(t, "Be brief.", second.System)
	assert.Equal(t, DefaultMaxTokens, second.MaxTokens)
	assert.Equal(t, []llm.Message{
		{Role: llm.RoleUser, Content: "What is an O-Licence?"},
		{Role: llm.RoleAssistant, Content: "An operator's licence for goods vehicles."},
		{Role: llm.RoleUser, Content: "How do UK drivers hours work?"},
	}, second.Messages)

	entries := transcriptOf(t, b)
	require.Len(t, entries, 5)
	assert.Equal(t, Entry{Role: RoleBot, Text: "Nine hours a day."}, entries[4])
	for _, e := range entries {
		assert.NotEqual(t, RoleTyping, e.Role)
	}
	assert.Len(t, s.History(), 4)
}

func TestSendEmptyReply(t *testing.T) {
	ctx := context.Background()
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage("")})
	s := New(store.NewMemoryKV(), nil, mockFactory(mock, nil), WithFallbackKey("sk-env"))

	require.NoError(t, s.Send(ctx, "hello"))
	tr := s.Transcript()
	assert.Equal(t, EmptyReply, tr[len(tr)-1].Text)
	hist := s.History()
	require.Len(t, hist, 2)
	assert.Equal(t, EmptyReply, hist[1].Content)
}

func TestSendFailureRollsBackHistory(t *testing.T) {
	ctx := context.Background()
	mock := llm.NewMockProvider(llm.MockResponse{Err: &llm.ErrProviderUnavailable{Err: errors.New("down")}})
	s := New(store.NewMemoryKV(), nil, mockFactory(mock, nil), WithFallbackKey("sk-env"))

	err := s.Send(ctx, "What is the ICAR method?")
	require.Error(t, err)
	var unavail *llm.ErrProviderUnavailable
	assert.ErrorAs(t, err, &unavail)

	assert.Empty(t, s.History())
	tr := s.Transcript()
	require.Len(t, tr, 3)
	assert.Equal(t, Entry{Role: RoleUser, Text: "What is the ICAR method?"}, tr[1])
	assert.Equal(t, Entry{Role: RoleBot, Text: ConnectionError}, tr[2])
	assert.False(t, s.Busy())
}

func TestRejectedKeyShowsKeyRow(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryKV()
	require.NoError(t, kv.Set(ctx, KeyStorage, "sk-revoked"))
	mock := llm.NewMockProvider(llm.MockResponse{Err: &llm.ErrUnauthorized{Err: errors.New("401")}})
	b := newBoard()
	s := New(kv, b, mockFactory(mock, nil))

	err := s.Send(ctx, "Hello")
	require.Error(t, err)
	assert.True(t, llm.IsUnauthorized(err))
	row, _ := b.Lookup(KeyRowID)
	assert.True(t, row.Visible())
	entries := transcriptOf(t, b)
	assert.Equal(t, ConnectionError, entries[len(entries)-1].Text)
}

func TestStoredKeyWinsOverFallback(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryKV()
	require.NoError(t, kv.Set(ctx, KeyStorage, "sk-stored"))
	var keys []string
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage("ok")})
	s := New(kv, nil, mockFactory(mock, &keys), WithFallbackKey("sk-env"))

	require.NoError(t, s.Send(ctx, "hi"))
	assert.Equal(t, []string{"sk-stored"}, keys)
}

func TestSaveKeyHidesRowAndClears(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryKV()
	b := newBoard()
	s := New(kv, b, nil)
	s.Init(ctx)

	require.NoError(t, s.SaveKey(ctx, "sk-1"))
	row, _ := b.Lookup(KeyRowID)
	assert.False(t, row.Visible())
	assert.True(t, s.HasCredential(ctx))

	require.NoError(t, s.SaveKey(ctx, "  "))
	_, ok, _ := kv.Get(ctx, KeyStorage)
	assert.False(t, ok)
	assert.False(t, s.HasCredential(ctx))
}

// blockingProvider waits for release or cancellation.
type blockingProvider struct {
	started chan struct{}
	release chan struct{}
}

func (p *blockingProvider) Generate(ctx context.Context, _ llm.Request) (*llm.Response, error) {
	close(p.started)
	select {
	case <-p.release:
		return &llm.Response{Content: json.RawMessage("done")}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *blockingProvider) ModelID() string { return "blocking" }

func TestSecondSendIsBusy(t *testing.T) {
	ctx := context.Background()
	p := &blockingProvider{started: make(chan struct{}), release: make(chan struct{})}
	s := New(store.NewMemoryKV(), nil, mockFactory(p, nil), WithFallbackKey("sk"))

	done := s.SendAsync(ctx, "first")
	<-p.started
	assert.True(t, s.Busy())
	assert.ErrorIs(t, s.Send(ctx, "second"), ErrBusy)

	close(p.release)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("send did not finish")
	}
	assert.Len(t, s.History(), 2)
}

func TestCancelAbortsSend(t *testing.T) {
	ctx := context.Background()
	p := &blockingProvider{started: make(chan struct{}), release: make(chan struct{})}
	s := New(store.NewMemoryKV(), nil, mockFactory(p, nil), WithFallbackKey("sk"))

	done := s.SendAsync(ctx, "What is a BOL?")
	<-p.started
	s.Cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled send did not finish")
	}
	assert.Empty(t, s.History())
	tr := s.Transcript()
	assert.Equal(t, ConnectionError, tr[len(tr)-1].Text)
}

func TestProviderFactoryInjectsKey(t *testing.T) {
	f := ProviderFactory(llm.Config{Provider: "mock"}, nil)
	p, err := f(context.Background(), "sk-any")
	require.NoError(t, err)
	assert.Equal(t, "mock", p.ModelID())

	f = ProviderFactory(llm.Config{Provider: "anthropic"}, nil)
	_, err = f(context.Background(), "")
	assert.Error(t, err)
}

type gatedCall struct {
	req     llm.Request
	release chan error
}

// gatedProvider hands each call to the test and ignores cancellation, so a
// cancelled call can return late.
type gatedProvider struct {
	calls chan gatedCall
}

func (p *gatedProvider) Generate(_ context.Context, req llm.Request) (*llm.Response, error) {
	c := gatedCall{req: req, release: make(chan error)}
	p.calls <- c
	if err := <-c.release; err != nil {
		return nil, err
	}
	return &llm.Response{Content: json.RawMessage("late")}, nil
}

func (p *gatedProvider) ModelID() string { return "gated" }

func recvErr(t *testing.T, ch <-chan error) error {
	t.Helper()
	select {
	case err := <-ch:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("send did not finish")
		return nil
	}
}

func TestLateCancelledSendLeavesNextSendAlone(t *testing.T) {
	ctx := context.Background()
	p := &gatedProvider{calls: make(chan gatedCall)}
	s := New(store.NewMemoryKV(), nil, mockFactory(p, nil), WithFallbackKey("sk"))

	first := s.SendAsync(ctx, "What is CMR?")
	callA := <-p.calls
	s.Cancel()

	second := s.SendAsync(ctx, "What is a BOL?")
	callB := <-p.calls
	assert.Equal(t, []llm.Message{{Role: llm.RoleUser, Content: "What is a BOL?"}}, callB.req.Messages)

	close(callA.release)
	assert.ErrorIs(t, recvErr(t, first), context.Canceled)
	assert.True(t, s.Busy())
	tr := s.Transcript()
	assert.Equal(t, RoleTyping, tr[len(tr)-1].Role, "second send is still waiting")
	assert.Len(t, s.History(), 1)

	callB.release <- errors.New("boom")
	require.Error(t, recvErr(t, second))
	assert.Empty(t, s.History())
	tr = s.Transcript()
	assert.Equal(t, ConnectionError, tr[len(tr)-1].Text)
	for _, e := range tr {
		assert.NotEqual(t, RoleTyping, e.Role)
	}
}
