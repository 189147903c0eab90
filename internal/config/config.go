// Package config loads coursekit settings from defaults, a YAML file and
// COURSEKIT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/abhisek/coursekit/internal/llm"
	"github.com/abhisek/coursekit/internal/narration"
	"github.com/abhisek/coursekit/internal/store"
	"github.com/abhisek/coursekit/internal/widgets"
)

// EnvPrefix prefixes every environment override. A double underscore
// separates nested keys: COURSEKIT_LLM__API_KEY sets llm.api_key.
const EnvPrefix = "COURSEKIT_"

// Config is the top-level coursekit configuration.
type Config struct {
	DBPath    string          `koanf:"db_path"`
	Courses   []string        `koanf:"courses"`
	LogFile   string          `koanf:"log_file"`
	LLM       llm.Config      `koanf:"llm"`
	Narration NarrationConfig `koanf:"narration"`
	Toast     ToastConfig     `koanf:"toast"`
	Server    ServerConfig    `koanf:"server"`
}

// NarrationConfig selects the speech engine.
type NarrationConfig struct {
	Engine string  `koanf:"engine"`
	Rate   float64 `koanf:"rate"`
}

// ToastConfig controls toast notifications.
type ToastConfig struct {
	Duration time.Duration `koanf:"duration"`
}

// ServerConfig controls the local preview server.
type ServerConfig struct {
	Addr            string `koanf:"addr"`
	AllowAllOrigins bool   `koanf:"allow_all_origins"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LLM: llm.DefaultConfig(),
		Narration: NarrationConfig{
			Engine: narration.EngineAuto,
			Rate:   narration.DefaultRate,
		},
		Toast:  ToastConfig{Duration: widgets.DefaultToastDuration},
		Server: ServerConfig{Addr: "127.0.0.1:8080"},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/coursekit/config.yaml, falling back
// to ~/.config.
func DefaultPath() (string, error) {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "coursekit", "config.yaml"), nil
}

// LoadDotEnv loads a .env file from the working directory into the
// process environment. A missing file is not an error.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		err := godotenv.Load(p)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// Load reads configuration from path, then overlays COURSEKIT_*
// environment variables. An empty path means DefaultPath, which may be
// absent; an explicit path must exist.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	k := koanf.New(".")
	cfg := Default()

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if explicit || !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// envKey maps COURSEKIT_LLM__API_KEY to llm.api_key.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

var validEngines = map[string]bool{
	"":                       true,
	narration.EngineAuto:     true,
	narration.EngineEspeakNG: true,
	narration.EngineEspeak:   true,
	narration.EngineSay:      true,
	narration.EngineNone:     true,
}

// Validate checks values that would otherwise fail later at runtime.
// The LLM credential is not required here: it may come from the
// environment or the stored chat key.
func (c *Config) Validate() error {
	var errs []string
	if !validEngines[c.Narration.Engine] {
		errs = append(errs, fmt.Sprintf("invalid narration.engine %q: must be one of auto, espeak-ng, espeak, say, none", c.Narration.Engine))
	}
	if c.Narration.Rate <= 0 || c.Narration.Rate > 3 {
		errs = append(errs, fmt.Sprintf("narration.rate %v out of range (0, 3]", c.Narration.Rate))
	}
	if c.Toast.Duration <= 0 {
		errs = append(errs, "toast.duration must be positive")
	}
	if c.LLM.MaxTokens < 0 {
		errs = append(errs, "llm.max_tokens must not be negative")
	}
	if c.LLM.Retry.MaxAttempts < 0 {
		errs = append(errs, "llm.retry.attempts must not be negative")
	}
	if c.LLM.Timeout < 0 {
		errs = append(errs, "llm.timeout must not be negative")
	}
	if c.Server.Addr == "" {
		errs = append(errs, "server.addr is required")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// ChatLLM returns the provider settings for the chat assistant. When no
// key is configured the standard provider variables are probed.
func (c *Config) ChatLLM() llm.Config {
	if c.LLM.HasKey() {
		return c.LLM
	}
	if found, ok := llm.DiscoverConfig(c.LLM); ok {
		return found
	}
	return c.LLM
}

// ResolveDBPath picks the database file: the flag value, then COURSEKIT_DB,
// then db_path, then the XDG data directory. The parent directory is
// created.
func (c *Config) ResolveDBPath(flag string) (string, error) {
	for _, p := range []string{flag, os.Getenv("COURSEKIT_DB"), c.DBPath} {
		if p != "" {
			return p, store.EnsureDir(p)
		}
	}
	return store.DefaultDBPath()
}
