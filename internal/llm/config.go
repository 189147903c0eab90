package llm

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds the chat provider configuration. It is flat because the
// course toolkit talks to one provider at a time; the per-provider
// structs below are built from it by the factory.
type Config struct {
	// Provider selects which LLM provider to use.
	// Values: "anthropic", "openai", "gemini", "openrouter", "mock"
	Provider string `koanf:"provider"`

	// Model is a friendly name ("claude-haiku", "gpt-4o-mini") or a raw
	// model ID. Empty selects the provider default.
	Model string `koanf:"model"`

	APIKey  string `koanf:"api_key"`
	BaseURL string `koanf:"base_url"`

	// MaxTokens caps each reply. Default: 400.
	MaxTokens int `koanf:"max_tokens"`

	// Timeout bounds a single request including retries. Zero means the
	// caller's context is the only limit.
	Timeout time.Duration `koanf:"timeout"`

	Retry RetryConfig `koanf:"retry"`
}

// AnthropicConfig holds Anthropic-specific configuration.
type AnthropicConfig struct {
	APIKey  string
	Model   string // Default: "claude-haiku"
	BaseURL string // Optional. Used by tests and proxies.
}

// OpenAIConfig holds OpenAI-specific configuration.
type OpenAIConfig struct {
	APIKey  string
	Model   string // Default: "gpt-4o-mini"
	BaseURL string // Optional. Override for compatible APIs.
}

// GeminiConfig holds Gemini-specific configuration.
type GeminiConfig struct {
	APIKey  string
	Model   string // Default: "gemini-flash"
	BaseURL string // Optional. Used by tests and proxies.
}

// OpenRouterConfig holds OpenRouter-specific configuration.
type OpenRouterConfig struct {
	APIKey  string
	Model   string // Default: "google/gemini-2.0-flash-exp"
	BaseURL string // Default: "https://openrouter.ai/api/v1"
}

// RetryConfig configures retry behavior for transient failures.
// MaxAttempts of 1 sends each request once.
type RetryConfig struct {
	MaxAttempts int           `koanf:"attempts"`
	InitialWait time.Duration `koanf:"initial_wait"`
	MaxWait     time.Duration `koanf:"max_wait"`
	Multiplier  float64       `koanf:"multiplier"`
}

// defaultModels is the model used when Config.Model is empty.
var defaultModels = map[string]string{
	"anthropic":  "claude-haiku",
	"openai":     "gpt-4o-mini",
	"gemini":     "gemini-flash",
	"openrouter": "google/gemini-2.0-flash-exp",
	"mock":       "mock",
}

// keyEnvVars lists the conventional API key variable of each provider in
// discovery order.
var keyEnvVars = []struct {
	provider string
	env      string
}{
	{"gemini", "GEMINI_API_KEY"},
	{"openai", "OPENAI_API_KEY"},
	{"anthropic", "ANTHROPIC_API_KEY"},
	{"openrouter", "OPENROUTER_API_KEY"},
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Provider:  "anthropic",
		Model:     "claude-haiku",
		MaxTokens: 400,
		Retry: RetryConfig{
			MaxAttempts: 1,
			InitialWait: 1 * time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2.0,
		},
	}
}

// ModelName returns the configured model or the provider default.
func (c Config) ModelName() string {
	if c.Model != "" {
		return c.Model
	}
	return defaultModels[c.Provider]
}

// WithAPIKey returns a copy of c using key as the credential. A blank key
// leaves the configured one in place.
func (c Config) WithAPIKey(key string) Config {
	if k := strings.TrimSpace(key); k != "" {
		c.APIKey = k
	}
	return c
}

// HasKey reports whether a credential is configured for a provider that
// needs one.
func (c Config) HasKey() bool {
	return c.Provider == "mock" || c.APIKey != ""
}

// DiscoverConfig probes standard API key env vars in priority order
// (Gemini, OpenAI, Anthropic, OpenRouter) and returns base configured for
// the first provider whose key is found. Returns (base, false) if none
// is set.
func DiscoverConfig(base Config) (Config, bool) {
	for _, kv := range keyEnvVars {
		if k := os.Getenv(kv.env); k != "" {
			if base.Provider != kv.provider {
				base.Model = ""
			}
			base.Provider = kv.provider
			base.APIKey = k
			return base, true
		}
	}
	return base, false
}

// Validate checks that the selected provider is known and has its
// credential set.
func (c Config) Validate() error {
	switch c.Provider {
	case "anthropic", "openai", "gemini", "openrouter":
		if c.APIKey == "" {
			return fmt.Errorf("an API key is required for the %s provider (set COURSEKIT_LLM__API_KEY)", c.Provider)
		}
	case "mock":
		// No API key needed.
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	if c.Retry.MaxAttempts < 0 {
		return fmt.Errorf("retry attempts must not be negative")
	}
	return nil
}
