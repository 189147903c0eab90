// Package translate fills in missing Hindi course text.
package translate

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strings"

	googletranslatefree "github.com/bas24/googletranslatefree"

	"github.com/abhisek/coursekit/internal/llm"
	"github.com/abhisek/coursekit/internal/store"
)

// Source is the language course text is written in.
const Source = "en"

// Purpose labels LLM translation requests in the event log.
const Purpose = "translate"

// Translator turns English text into the target language.
type Translator interface {
	Translate(ctx context.Context, text, target string) (string, error)
}

// Google translates through the free Google Translate endpoint.
type Google struct {
	call func(text, from, to string) (string, error)
}

// NewGoogle returns the default translator.
func NewGoogle() *Google {
	return &Google{call: googletranslatefree.Translate}
}

func (g *Google) Translate(ctx context.Context, text, target string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	out, err := g.call(text, Source, target)
	if err != nil {
		return "", fmt.Errorf("google translate: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// HindiSchema is the structured output the LLM translator asks for.
var HindiSchema = &llm.Schema{
	Name:        "hindi-translation",
	Description: "Hindi translation of freight dispatch course text",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"hi": map[string]any{
				"type":        "string",
				"description": "The text in simple, spoken Hindi (Devanagari), keeping industry terms in English",
			},
		},
		"required":             []any{"hi"},
		"additionalProperties": false,
	},
}

const systemPrompt = `You translate freight dispatch training material from English into Hindi for Indian learners.
Use simple spoken Hindi in Devanagari script. Keep industry terms such as load board, MC number, tachograph and rate con in English.
Keep markdown formatting, numbers, currency symbols and line breaks exactly as they are.`

// LLM translates with a language model using structured output.
type LLM struct {
	provider  llm.Provider
	maxTokens int
}

// NewLLM returns an LLM-backed translator.
func NewLLM(p llm.Provider) *LLM {
	return &LLM{provider: p, maxTokens: 2000}
}

type hindiOutput struct {
	HI string `json:"hi"`
}

func (t *LLM) Translate(ctx context.Context, text, target string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	if target != "hi" {
		return "", fmt.Errorf("llm translate: unsupported language %q", target)
	}
	ctx = llm.WithPurpose(ctx, Purpose)
	resp, err := t.provider.Generate(ctx, llm.Request{
		System:    systemPrompt,
		Messages:  []llm.Message{{Role: llm.RoleUser, Content: text}},
		Schema:    HindiSchema,
		MaxTokens: t.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("llm translate: %w", err)
	}
	var out hindiOutput
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return "", fmt.Errorf("parse translation: %w", err)
	}
	return strings.TrimSpace(out.HI), nil
}

// CacheKey is the KV key a translation of text is stored under.
func CacheKey(target, text string) string {
	sum := sha1.Sum([]byte(text))
	return "tr_" + target + "_" + hex.EncodeToString(sum[:])
}

// Cached remembers translations in a KV store.
type Cached struct {
	next   Translator
	kv     store.KV
	logger *log.Logger
}

// CacheOption configures Cached.
type CacheOption func(*Cached)

// WithLogger sets the logger for cache failures.
func WithLogger(l *log.Logger) CacheOption {
	return func(c *Cached) { c.logger = l }
}

// NewCached wraps next with a KV-backed cache.
func NewCached(next Translator, kv store.KV, opts ...CacheOption) *Cached {
	c := &Cached{next: next, kv: kv, logger: log.New(io.Discard, "", 0)}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cached) Translate(ctx context.Context, text, target string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	key := CacheKey(target, text)
	if v, ok, err := c.kv.Get(ctx, key); err != nil {
		c.logger.Printf("translate: cache get: %v", err)
	} else if ok {
		return v, nil
	}
	out, err := c.next.Translate(ctx, text, target)
	if err != nil {
		return "", err
	}
	if out != "" {
		if err := c.kv.Set(ctx, key, out); err != nil {
			c.logger.Printf("translate: cache set: %v", err)
		}
	}
	return out, nil
}
