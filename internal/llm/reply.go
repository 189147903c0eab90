package llm

import (
	"encoding/json"
	"strings"
)

// Normalised stop reasons.
const (
	stopEnd       = "end"
	stopMaxTokens = "max_tokens"
)

// finishReply builds a Response from a provider's text. Structured replies
// are unfenced, rejected when truncated, then validated against the schema.
// Plain replies pass through untouched, truncated or not.
func finishReply(req Request, text, stop, model string, usage Usage) (*Response, error) {
	content := json.RawMessage(text)
	if req.Schema != nil {
		content = json.RawMessage(extractJSON(text))
		if stop == stopMaxTokens {
			return nil, &ErrMaxTokensExceeded{Content: content}
		}
		if err := validateResponse(req.Schema, content); err != nil {
			return nil, err
		}
	}
	return &Response{
		Content:    content,
		Usage:      usage,
		Model:      model,
		StopReason: stop,
	}, nil
}

// extractJSON strips a markdown code fence some models wrap JSON in.
func extractJSON(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:] // drop the language tag line
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSpace(s)
	return strings.TrimSpace(strings.TrimSuffix(s, "```"))
}

// resolveModel maps a friendly model name to a provider model ID. Unknown
// names are taken as raw IDs.
func resolveModel(name string, models map[string]string) string {
	if id, ok := models[name]; ok {
		return id
	}
	return name
}
