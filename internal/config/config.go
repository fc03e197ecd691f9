// Package config loads the agent service configuration.
// Configuration source priority (highest to lowest):
// 1. Environment variables (ANTHROPIC_API_KEY, RAILS_INTERNAL_API_URL, etc.)
// 2. Config file path specified via --config flag
// 3. ./config.yaml
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ProviderConfig holds configuration for a single model provider.
type ProviderConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"` // OpenAI-compatible endpoints only
	Model   string `yaml:"model"`
}

// BackendConfig holds the internal API the agent proxies tools and session
// storage to.
type BackendConfig struct {
	BaseURL string `yaml:"base_url"`
	Token   string `yaml:"token"`
}

// Config is the complete configuration for the agent service.
type Config struct {
	// Provider is the active chat provider ("anthropic" | "openai").
	Provider string `yaml:"provider"`

	// Model overrides the provider's default chat model.
	Model string `yaml:"model"`

	// SummarizerModel is an optional cheaper model for history compaction.
	// Empty = same model as chat.
	SummarizerModel string `yaml:"summarizer_model"`

	// Providers holds per-provider configuration.
	Providers map[string]*ProviderConfig `yaml:"providers"`

	// Backend is the internal API used for tools and session storage.
	Backend BackendConfig `yaml:"backend"`

	// APIToken is the bearer token callers of this service must present.
	APIToken string `yaml:"api_token"`

	// MaxConversationTokens is the history budget that triggers compaction.
	MaxConversationTokens int `yaml:"max_conversation_tokens"`

	// ListenAddr is the HTTP listen address.
	ListenAddr string `yaml:"listen_addr"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Provider:              "anthropic",
		Providers:             make(map[string]*ProviderConfig),
		MaxConversationTokens: 150000,
		ListenAddr:            ":8100",
	}
}

// Load reads the config file and merges environment variable overrides.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath == "" {
		configPath = "config.yaml"
	}
	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
		}
	}

	applyEnvOverrides(cfg)

	if cfg.Providers == nil {
		cfg.Providers = make(map[string]*ProviderConfig)
	}
	return cfg, nil
}

// GetProviderConfig returns the config for the named provider, or an empty
// config if not found.
func (c *Config) GetProviderConfig(name string) *ProviderConfig {
	if pc, ok := c.Providers[name]; ok {
		return pc
	}
	return &ProviderConfig{}
}

// Validate checks the settings a running service cannot do without.
func (c *Config) Validate() error {
	if c.Provider != "anthropic" && c.Provider != "openai" {
		return fmt.Errorf("unknown provider %q", c.Provider)
	}
	if c.GetProviderConfig(c.Provider).APIKey == "" {
		return fmt.Errorf("missing API key for provider %q", c.Provider)
	}
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend base_url is required")
	}
	if c.APIToken == "" {
		return fmt.Errorf("api_token is required")
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(cfg *Config) {
	providerCfg := func(name string) *ProviderConfig {
		if cfg.Providers == nil {
			cfg.Providers = make(map[string]*ProviderConfig)
		}
		if cfg.Providers[name] == nil {
			cfg.Providers[name] = &ProviderConfig{}
		}
		return cfg.Providers[name]
	}

	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		providerCfg("anthropic").APIKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		providerCfg("openai").APIKey = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		providerCfg("openai").BaseURL = v
	}

	if v := os.Getenv("AGENT_PROVIDER"); v != "" {
		cfg.Provider = v
	}
	if v := os.Getenv("AGENT_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := os.Getenv("AGENT_SUMMARIZER_MODEL"); v != "" {
		cfg.SummarizerModel = v
	}
	if v := os.Getenv("AGENT_API_TOKEN"); v != "" {
		cfg.APIToken = v
	}
	if v := os.Getenv("AGENT_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}

	if v := os.Getenv("RAILS_INTERNAL_API_URL"); v != "" {
		cfg.Backend.BaseURL = v
	}
	if v := os.Getenv("RAILS_API_TOKEN"); v != "" {
		cfg.Backend.Token = v
	}

	if v := os.Getenv("MAX_CONVERSATION_TOKENS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxConversationTokens = n
		}
	}
}
