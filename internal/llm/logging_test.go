package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/abhisek/coursekit/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingRepo struct {
	store.EventRepo
	events []store.LLMRequestEventData
	err    error
}

func (r *recordingRepo) AppendLLMRequest(_ context.Context, data store.LLMRequestEventData) error {
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, data)
	return nil
}

func TestLogging_RecordsSuccess(t *testing.T) {
	repo := &recordingRepo{}
	mock := NewMockProvider(MockResponse{
		Content: json.RawMessage("An O-Licence lets you operate goods vehicles."),
		Usage:   Usage{InputTokens: 120, OutputTokens: 18},
	})
	p := WithLogging(mock, "anthropic", repo)

	ctx := WithCall(context.Background(), Call{Purpose: "chat", Session: "sess-9"})
	_, err := p.Generate(ctx, Request{
		System:   "You are a freight dispatch tutor.",
		Messages: []Message{{Role: RoleUser, Content: "What is an O-Licence?"}},
	})
	require.NoError(t, err)

	require.Len(t, repo.events, 1)
	ev := repo.events[0]
	assert.Equal(t, "anthropic", ev.Provider)
	assert.Equal(t, "mock", ev.Model)
	assert.Equal(t, "chat", ev.Purpose)
	assert.Equal(t, "sess-9", ev.Session)
	assert.True(t, ev.Success)
	assert.Equal(t, 120, ev.InputTokens)
	assert.Equal(t, 18, ev.OutputTokens)
	assert.Contains(t, ev.RequestBody, "[system]\nYou are a freight dispatch tutor.")
	assert.Contains(t, ev.RequestBody, "[user]\nWhat is an O-Licence?")
	assert.Equal(t, "An O-Licence lets you operate goods vehicles.", ev.ResponseBody)
}

func TestLogging_RecordsFailure(t *testing.T) {
	repo := &recordingRepo{}
	mock := NewMockProvider(MockResponse{Err: &ErrRateLimit{RetryAfter: time.Second, Err: errors.New("slow down")}})
	p := WithLogging(mock, "openai", repo)

	_, err := p.Generate(context.Background(), Request{})
	require.Error(t, err)

	require.Len(t, repo.events, 1)
	assert.False(t, repo.events[0].Success)
	assert.Equal(t, "unknown", repo.events[0].Purpose)
	assert.Contains(t, repo.events[0].ErrorMessage, "slow down")
}

func TestLogging_RepoErrorDoesNotFailRequest(t *testing.T) {
	var buf bytes.Buffer
	repo := &recordingRepo{err: errors.New("disk full")}
	mock := NewMockProvider(MockResponse{Content: json.RawMessage(`"ok"`)})
	p := WithLogging(mock, "gemini", repo, WithEventLogger(log.New(&buf, "", 0)))

	resp, err := p.Generate(WithPurpose(context.Background(), "translate"), Request{})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text())
	assert.True(t, strings.HasPrefix(buf.String(), "llm: record translate request: disk full"))
}

func TestSerializeRequest_IncludesSchema(t *testing.T) {
	out := serializeRequest(Call{Purpose: "translate"}, Request{
		Messages: []Message{{Role: RoleUser, Content: "Translate: Load board"}},
		Schema: &Schema{
			Name:       "hindi-translation",
			Definition: map[string]any{"type": "object"},
		},
	})
	assert.Contains(t, out, "[schema: hindi-translation]\n{\"type\":\"object\"}")
	assert.NotContains(t, out, "[session:")
}

func TestSerializeRequest_IncludesSession(t *testing.T) {
	out := serializeRequest(Call{Purpose: "chat", Session: "abc-123"}, Request{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})
	assert.True(t, strings.HasPrefix(out, "[session: abc-123]\n\n[user]\nhi"))
}

func TestNewProvider_Mock(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{Provider: "mock"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "mock", p.ModelID())

	resp, err := p.Generate(context.Background(), Request{Messages: []Message{
		{Role: RoleUser, Content: "first"},
		{Role: RoleAssistant, Content: "reply"},
		{Role: RoleUser, Content: "what is a CMR?"},
	}})
	require.NoError(t, err)
	assert.Equal(t, "(offline) what is a CMR?", resp.Text())
}

func TestNewProvider_RequiresKey(t *testing.T) {
	_, err := NewProvider(context.Background(), Config{Provider: "anthropic"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key")
}

func TestNewProvider_WrapsMiddleware(t *testing.T) {
	cfg := Config{
		Provider: "openrouter",
		APIKey:   "sk-or-test",
		Timeout:  5 * time.Second,
		Retry:    RetryConfig{MaxAttempts: 2, InitialWait: time.Millisecond, MaxWait: time.Millisecond, Multiplier: 2},
	}
	p, err := NewProvider(context.Background(), cfg, &recordingRepo{})
	require.NoError(t, err)

	tp, ok := p.(*TimeoutProvider)
	require.True(t, ok, "outermost layer should be the timeout, got %T", p)
	rp, ok := tp.inner.(*RetryProvider)
	require.True(t, ok, "expected retry under timeout, got %T", tp.inner)
	_, ok = rp.inner.(*LoggingProvider)
	require.True(t, ok, "expected logging under retry, got %T", rp.inner)
	assert.Equal(t, "google/gemini-2.0-flash-exp", p.ModelID())
}

func TestTimeoutProvider_SetsDeadline(t *testing.T) {
	var gotDeadline bool
	inner := providerFunc(func(ctx context.Context, _ Request) (*Response, error) {
		_, gotDeadline = ctx.Deadline()
		return &Response{Content: json.RawMessage("ok")}, nil
	})
	_, err := WithTimeout(inner, time.Minute).Generate(context.Background(), Request{})
	require.NoError(t, err)
	assert.True(t, gotDeadline)
}

type providerFunc func(context.Context, Request) (*Response, error)

func (f providerFunc) Generate(ctx context.Context, req Request) (*Response, error) {
	return f(ctx, req)
}

func (f providerFunc) ModelID() string { return "func" }
