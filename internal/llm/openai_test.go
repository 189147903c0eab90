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

// chatCompletionServer serves one canned chat completion for every request
// and records the last request's headers and body.
func chatCompletionServer(t *testing.T, status int, body any) (string, *http.Header, *map[string]any) {
	t.Helper()
	var (
		hdr  http.Header
		sent map[string]any
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hdr = r.Header.Clone()
		_ = json.NewDecoder(r.Body).Decode(&sent)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv.URL + "/v1", &hdr, &sent
}

func completion(content, finish string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1234567890,
		"model":   "gpt-4o-mini",
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]any{"role": "assistant", "content": content},
			"finish_reason": finish,
		}},
		"usage": map[string]any{"prompt_tokens": 40, "completion_tokens": 25, "total_tokens": 65},
	}
}

func TestOpenAIProvider_Chat(t *testing.T) {
	url, _, sent := chatCompletionServer(t, http.StatusOK, completion("Nine hours, twice a week ten.", "length"))
	p, err := NewOpenAIProvider(OpenAIConfig{APIKey: "k", Model: "gpt-mini", BaseURL: url})
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", p.ModelID())

	resp, err := p.Generate(context.Background(), Request{
		System:    "You are a freight dispatch tutor.",
		Messages:  []Message{{Role: RoleUser, Content: "Daily driving limit?"}},
		MaxTokens: 8,
	})
	require.NoError(t, err)
	assert.Equal(t, "Nine hours, twice a week ten.", resp.Text())
	assert.Equal(t, stopMaxTokens, resp.StopReason)
	assert.Equal(t, Usage{InputTokens: 40, OutputTokens: 25, TotalTokens: 65}, resp.Usage)

	msgs, _ := (*sent)["messages"].([]any)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
}

func TestOpenAIProvider_Structured(t *testing.T) {
	url, _, sent := chatCompletionServer(t, http.StatusOK, completion(`{"hi":"बिल","words":1}`, "stop"))
	p, err := NewOpenAIProvider(OpenAIConfig{APIKey: "k", Model: "gpt-4o", BaseURL: url})
	require.NoError(t, err)

	resp, err := p.Generate(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "Bill"}},
		Schema:   testSchema(),
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"hi":"बिल","words":1}`, string(resp.Content))

	format, _ := (*sent)["response_format"].(map[string]any)
	assert.Equal(t, "json_schema", format["type"])
}

func TestOpenAIProvider_ErrorStatus(t *testing.T) {
	tests := []struct {
		name   string
		status int
		check  func(error) bool
	}{
		{"rate limit", http.StatusTooManyRequests, func(err error) bool {
			var rl *ErrRateLimit
			return errors.As(err, &rl)
		}},
		{"bad key", http.StatusUnauthorized, IsUnauthorized},
		{"outage", http.StatusInternalServerError, func(err error) bool {
			var un *ErrProviderUnavailable
			return errors.As(err, &un)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			url, _, _ := chatCompletionServer(t, tt.status, map[string]any{
				"error": map[string]any{"type": "error", "message": tt.name},
			})
			p, err := NewOpenAIProvider(OpenAIConfig{APIKey: "k", BaseURL: url})
			require.NoError(t, err)
			_, err = p.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "x"}}})
			require.Error(t, err)
			assert.True(t, tt.check(err), "got %T: %v", err, err)
		})
	}
}

func TestOpenAIProvider_NoChoices(t *testing.T) {
	body := completion("", "stop")
	body["choices"] = []any{}
	url, _, _ := chatCompletionServer(t, http.StatusOK, body)
	p, err := NewOpenAIProvider(OpenAIConfig{APIKey: "k", BaseURL: url})
	require.NoError(t, err)

	_, err = p.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "x"}}})
	var inv *ErrInvalidResponse
	assert.ErrorAs(t, err, &inv)
}
