package cmd

import (
	"fmt"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/taeskim-42/repstack-backend/internal/agent"
	"github.com/taeskim-42/repstack-backend/internal/config"
	"github.com/taeskim-42/repstack-backend/internal/provider"
	"github.com/taeskim-42/repstack-backend/internal/server"
	"github.com/taeskim-42/repstack-backend/internal/session"
	"github.com/taeskim-42/repstack-backend/internal/store"
	"github.com/taeskim-42/repstack-backend/internal/tools"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the agent HTTP service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	// .env is a local-dev convenience; absence is not an error.
	_ = godotenv.Load()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log := zerolog.New(os.Stdout).With().Timestamp().Logger()

	chatProvider, err := buildProvider(cfg)
	if err != nil {
		return err
	}

	client := store.NewClient(cfg.Backend.BaseURL, cfg.Backend.Token)
	historyStore := store.NewHistoryStore(client)
	cache := session.NewCache(historyStore, log)

	summarizer := &session.LLMSummarizer{Provider: chatProvider, Model: cfg.SummarizerModel}
	compactor := session.NewCompactor(summarizer, historyStore, cfg.MaxConversationTokens, log)

	registry := tools.DefaultRegistry(client, log)
	trainer := agent.New(chatProvider, cache, historyStore, registry, compactor, cfg.Model, log)

	srv := server.New(trainer, client, cfg.APIToken, log)

	log.Info().
		Str("addr", cfg.ListenAddr).
		Str("provider", chatProvider.Name()).
		Msg("starting agent service")
	return http.ListenAndServe(cfg.ListenAddr, srv.Handler())
}

func buildProvider(cfg *config.Config) (provider.Provider, error) {
	pc := cfg.GetProviderConfig(cfg.Provider)
	switch cfg.Provider {
	case "anthropic":
		return provider.NewAnthropicProvider(pc.APIKey, pc.Model), nil
	case "openai":
		return provider.NewOpenAIProvider(pc.APIKey, pc.BaseURL, pc.Model), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}
