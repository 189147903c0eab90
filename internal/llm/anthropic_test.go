package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// anthropicServer answers every request with status and body, recording
// the last decoded request.
func anthropicServer(t *testing.T, status int, body any) (*AnthropicProvider, *map[string]any) {
	t.Helper()
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)

	p, err := NewAnthropicProvider(AnthropicConfig{APIKey: "test-key", Model: "claude-haiku", BaseURL: srv.URL})
	require.NoError(t, err)
	return p, &got
}

func anthropicMessage(stop string, texts ...string) map[string]any {
	blocks := make([]map[string]any, len(texts))
	for i, s := range texts {
		blocks[i] = map[string]any{"type": "text", "text": s}
	}
	return map[string]any{
		"id":          "msg_test",
		"type":        "message",
		"role":        "assistant",
		"content":     blocks,
		"model":       "claude-haiku-4-5-20251001",
		"stop_reason": stop,
		"usage":       map[string]any{"input_tokens": 50, "output_tokens": 30},
	}
}

func TestAnthropicProvider_Chat(t *testing.T) {
	p, got := anthropicServer(t, http.StatusOK,
		anthropicMessage("end_turn", "A tachograph records driving time, ", "breaks and rest."))

	resp, err := p.Generate(context.Background(), Request{
		System: "You are a freight dispatch tutor.",
		Messages: []Message{
			{Role: RoleUser, Content: "Hi"},
			{Role: RoleAssistant, Content: "Namaste!"},
			{Role: RoleUser, Content: "What is a tachograph?"},
		},
		MaxTokens: 256,
	})
	require.NoError(t, err)
	assert.Equal(t, "A tachograph records driving time, breaks and rest.", resp.Text())
	assert.Equal(t, Usage{InputTokens: 50, OutputTokens: 30, TotalTokens: 80}, resp.Usage)
	assert.Equal(t, stopEnd, resp.StopReason)

	sent := *got
	assert.Equal(t, "claude-haiku-4-5-20251001", sent["model"])
	msgs, _ := sent["messages"].([]any)
	require.Len(t, msgs, 3)
	assert.Equal(t, "assistant", msgs[1].(map[string]any)["role"])
}

func TestAnthropicProvider_Structured(t *testing.T) {
	p, _ := anthropicServer(t, http.StatusOK,
		anthropicMessage("end_turn", "```json\n{\"hi\":\"लोड बोर्ड\",\"words\":2}\n```"))
	resp, err := p.Generate(context.Background(), Request{
		Messages:  []Message{{Role: RoleUser, Content: "Load board"}},
		Schema:    testSchema(),
		MaxTokens: 100,
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"hi":"लोड बोर्ड","words":2}`, string(resp.Content))
}

func TestAnthropicProvider_StructuredTruncated(t *testing.T) {
	p, _ := anthropicServer(t, http.StatusOK, anthropicMessage("max_tokens", `{"hi":"लो`))
	_, err := p.Generate(context.Background(), Request{
		Messages:  []Message{{Role: RoleUser, Content: "Load board"}},
		Schema:    testSchema(),
		MaxTokens: 5,
	})
	var mt *ErrMaxTokensExceeded
	assert.ErrorAs(t, err, &mt)
}

func TestAnthropicProvider_NoText(t *testing.T) {
	p, _ := anthropicServer(t, http.StatusOK, anthropicMessage("end_turn"))
	_, err := p.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "?"}}, MaxTokens: 10})
	var inv *ErrInvalidResponse
	assert.ErrorAs(t, err, &inv)
}

func TestAnthropicProvider_ErrorStatus(t *testing.T) {
	tests := []struct {
		status  int
		errType string
		check   func(error) bool
	}{
		{http.StatusTooManyRequests, "rate_limit_error", func(err error) bool {
			var rl *ErrRateLimit
			return errors.As(err, &rl)
		}},
		{http.StatusUnauthorized, "authentication_error", IsUnauthorized},
		{http.StatusInternalServerError, "api_error", func(err error) bool {
			var un *ErrProviderUnavailable
			return errors.As(err, &un)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.errType, func(t *testing.T) {
			p, _ := anthropicServer(t, tt.status, map[string]any{
				"type":  "error",
				"error": map[string]any{"type": tt.errType, "message": "nope"},
			})
			_, err := p.Generate(context.Background(), Request{
				Messages:  []Message{{Role: RoleUser, Content: "test"}},
				MaxTokens: 100,
			})
			require.Error(t, err)
			assert.True(t, tt.check(err), "got %T: %v", err, err)
		})
	}
}

func TestNewAnthropicProvider(t *testing.T) {
	_, err := NewAnthropicProvider(AnthropicConfig{})
	assert.Error(t, err)

	for in, want := range map[string]string{
		"claude-haiku":             "claude-haiku-4-5-20251001",
		"claude-sonnet":            "claude-sonnet-4-5-20250929",
		"claude-opus-4-1-20250805": "claude-opus-4-1-20250805",
	} {
		p, err := NewAnthropicProvider(AnthropicConfig{APIKey: "k", Model: in})
		require.NoError(t, err)
		assert.Equal(t, want, p.ModelID())
	}
}
