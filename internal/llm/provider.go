// Package llm wraps the chat-completion APIs the toolkit can talk to
// behind one Provider interface, with decorators for retries, timeouts and
// request logging.
package llm

import (
	"context"
	"encoding/json"
	"strings"
)

// Provider sends one request and returns one reply.
type Provider interface {
	// Generate returns plain text, or JSON validated against req.Schema
	// when a schema is set.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID is the concrete model requests go to.
	ModelID() string
}

// Request is a conversation plus generation settings. Chat sends the
// whole transcript; translation sends a single user message and a Schema.
type Request struct {
	System   string
	Messages []Message // oldest first

	// Schema, when set, asks for structured output. Providers use their
	// native JSON mode and the reply is validated before it is returned.
	Schema *Schema

	MaxTokens   int
	Temperature float64 // 0 leaves the provider default
}

type Message struct {
	Role    Role
	Content string
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Schema is a named JSON Schema. Name is kebab-case and doubles as the
// OpenAI response-format name and the compile cache key.
type Schema struct {
	Name        string
	Description string
	Definition  map[string]any
}

// Response is one reply. StopReason is "end" or "max_tokens".
type Response struct {
	Content    json.RawMessage
	Usage      Usage
	Model      string
	StopReason string
}

type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// Text returns the response as plain text. Schema-less providers put raw
// text in Content, some wrap it as a JSON string; both forms are accepted.
func (r *Response) Text() string {
	if r == nil {
		return ""
	}
	raw := strings.TrimSpace(string(r.Content))
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(r.Content, &s); err == nil {
			return strings.TrimSpace(s)
		}
	}
	return raw
}
