package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearKeyEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"GEMINI_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "OPENROUTER_API_KEY", "COURSEKIT_DB"} {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoadDefaultsWhenNoFile(t *testing.T) {
	clearKeyEnv(t)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Equal(t, "claude-haiku", cfg.LLM.Model)
	assert.Equal(t, 400, cfg.LLM.MaxTokens)
	assert.Equal(t, 1, cfg.LLM.Retry.MaxAttempts)
	assert.Zero(t, cfg.LLM.Timeout)
	assert.Equal(t, "auto", cfg.Narration.Engine)
	assert.InDelta(t, 0.88, cfg.Narration.Rate, 1e-9)
	assert.Equal(t, 3*time.Second, cfg.Toast.Duration)
	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Addr)
	assert.False(t, cfg.Server.AllowAllOrigins)
}

func TestLoadFile(t *testing.T) {
	clearKeyEnv(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", `
courses:
  - courses/*.yaml
  - extra/**/*.yaml
log_file: /tmp/coursekit.log
llm:
  provider: openai
  model: gpt-4o
  timeout: 30s
  retry:
    attempts: 3
narration:
  engine: none
toast:
  duration: 5s
server:
  allow_all_origins: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"courses/*.yaml", "extra/**/*.yaml"}, cfg.Courses)
	assert.Equal(t, "/tmp/coursekit.log", cfg.LogFile)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o", cfg.LLM.Model)
	assert.Equal(t, 30*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 3, cfg.LLM.Retry.MaxAttempts)
	assert.Equal(t, time.Second, cfg.LLM.Retry.InitialWait, "unset keys keep defaults")
	assert.Equal(t, 400, cfg.LLM.MaxTokens)
	assert.Equal(t, "none", cfg.Narration.Engine)
	assert.Equal(t, 5*time.Second, cfg.Toast.Duration)
	assert.True(t, cfg.Server.AllowAllOrigins)
	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Addr)
}

func TestLoadEnvOverrides(t *testing.T) {
	clearKeyEnv(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", "llm:\n  provider: openai\n")

	t.Setenv("COURSEKIT_LLM__PROVIDER", "gemini")
	t.Setenv("COURSEKIT_LLM__API_KEY", "g-key")
	t.Setenv("COURSEKIT_SERVER__ADDR", ":9000")
	t.Setenv("COURSEKIT_NARRATION__RATE", "1.2")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, "g-key", cfg.LLM.APIKey)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.InDelta(t, 1.2, cfg.Narration.Rate, 1e-9)
}

func TestLoadErrors(t *testing.T) {
	clearKeyEnv(t)
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "accessing config")

	bad := writeFile(t, dir, "bad.yaml", "narration:\n  engine: festival\ntoast:\n  duration: 0s\n")
	_, err = Load(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid narration.engine "festival"`)
	assert.Contains(t, err.Error(), "toast.duration must be positive")

	broken := writeFile(t, dir, "broken.yaml", "llm: [unclosed\n")
	_, err = Load(broken)
	assert.ErrorContains(t, err, "reading config")
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "llm.api_key", envKey("COURSEKIT_LLM__API_KEY"))
	assert.Equal(t, "db_path", envKey("COURSEKIT_DB_PATH"))
	assert.Equal(t, "server.allow_all_origins", envKey("COURSEKIT_SERVER__ALLOW_ALL_ORIGINS"))
}

func TestChatLLM(t *testing.T) {
	clearKeyEnv(t)

	cfg := Default()
	cfg.LLM.APIKey = "configured"
	assert.Equal(t, "configured", cfg.ChatLLM().APIKey)

	cfg = Default()
	got := cfg.ChatLLM()
	assert.Equal(t, "anthropic", got.Provider)
	assert.Empty(t, got.APIKey)

	t.Setenv("OPENAI_API_KEY", "sk-found")
	got = cfg.ChatLLM()
	assert.Equal(t, "openai", got.Provider)
	assert.Equal(t, "sk-found", got.APIKey)
	assert.Equal(t, "gpt-4o-mini", got.ModelName())
}

func TestResolveDBPath(t *testing.T) {
	clearKeyEnv(t)
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", dir)

	cfg := Default()
	p, err := cfg.ResolveDBPath("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "coursekit", "coursekit.db"), p)

	cfg.DBPath = filepath.Join(dir, "cfg", "a.db")
	p, err = cfg.ResolveDBPath("")
	require.NoError(t, err)
	assert.Equal(t, cfg.DBPath, p)
	assert.DirExists(t, filepath.Join(dir, "cfg"))

	env := filepath.Join(dir, "env", "b.db")
	t.Setenv("COURSEKIT_DB", env)
	p, err = cfg.ResolveDBPath("")
	require.NoError(t, err)
	assert.Equal(t, env, p)

	flag := filepath.Join(dir, "flag", "c.db")
	p, err = cfg.ResolveDBPath(flag)
	require.NoError(t, err)
	assert.Equal(t, flag, p)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, ".env", "COURSEKIT_DOTENV_PROBE=from-file\n")
	t.Cleanup(func() { os.Unsetenv("COURSEKIT_DOTENV_PROBE") })

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "from-file", os.Getenv("COURSEKIT_DOTENV_PROBE"))

	assert.NoError(t, LoadDotEnv(filepath.Join(dir, "nope.env")))
}
