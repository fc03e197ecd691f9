package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Provider != "anthropic" {
		t.Errorf("provider = %q, want anthropic", cfg.Provider)
	}
	if cfg.MaxConversationTokens != 150000 {
		t.Errorf("max_conversation_tokens = %d, want 150000", cfg.MaxConversationTokens)
	}
	if cfg.ListenAddr != ":8100" {
		t.Errorf("listen_addr = %q", cfg.ListenAddr)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `provider: openai
summarizer_model: gpt-4o-mini
max_conversation_tokens: 50000
api_token: front-door-token
backend:
  base_url: http://rails:3000/internal
  token: rails-token
providers:
  openai:
    api_key: sk-test
    model: gpt-4o
`
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Provider != "openai" || cfg.SummarizerModel != "gpt-4o-mini" {
		t.Errorf("provider config not read: %+v", cfg)
	}
	if cfg.Backend.BaseURL != "http://rails:3000/internal" || cfg.Backend.Token != "rails-token" {
		t.Errorf("backend config not read: %+v", cfg.Backend)
	}
	if pc := cfg.GetProviderConfig("openai"); pc.APIKey != "sk-test" || pc.Model != "gpt-4o" {
		t.Errorf("openai provider = %+v", pc)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-env")
	t.Setenv("AGENT_PROVIDER", "anthropic")
	t.Setenv("AGENT_MODEL", "claude-haiku")
	t.Setenv("RAILS_INTERNAL_API_URL", "http://rails.test/internal")
	t.Setenv("RAILS_API_TOKEN", "env-rails-token")
	t.Setenv("AGENT_API_TOKEN", "env-api-token")
	t.Setenv("MAX_CONVERSATION_TOKENS", "90000")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.GetProviderConfig("anthropic").APIKey != "sk-ant-env" {
		t.Error("ANTHROPIC_API_KEY not applied")
	}
	if cfg.Model != "claude-haiku" {
		t.Errorf("model = %q", cfg.Model)
	}
	if cfg.Backend.BaseURL != "http://rails.test/internal" || cfg.Backend.Token != "env-rails-token" {
		t.Errorf("backend env not applied: %+v", cfg.Backend)
	}
	if cfg.MaxConversationTokens != 90000 {
		t.Errorf("max_conversation_tokens = %d", cfg.MaxConversationTokens)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err == nil {
		t.Error("config without API key must not validate")
	}

	cfg.Providers["anthropic"] = &ProviderConfig{APIKey: "sk"}
	cfg.Backend.BaseURL = "http://rails:3000/internal"
	cfg.APIToken = "token"
	if err := cfg.Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}

	cfg.Provider = "mystery"
	if err := cfg.Validate(); err == nil {
		t.Error("unknown provider must not validate")
	}
}
