package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/yvrah78/onyx-chauffeur-ai/internal/config"
	"github.com/yvrah78/onyx-chauffeur-ai/pkg/env"
	"github.com/yvrah78/onyx-chauffeur-ai/pkg/log"
)

var (
	initForce bool
	initLLM   config.LLMConfig
	initEmb   config.EmbeddingConfig
	initApp   config.AppConfig
	initTG    config.TelegramConfig
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a .env file into the runtime directory",
	Long:  `Creates the runtime directory and writes the given settings to its .env file. Defaults are left out.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLogger(cmd.Context())
		defer flushLog()
		logger := log.FromCtx(ctx)

		runtimePath := config.GetRuntimePath()
		if err := os.MkdirAll(runtimePath, 0755); err != nil {
			return fmt.Errorf("failed to create runtime directory: %w", err)
		}

		envPath := filepath.Join(runtimePath, ".env")
		if _, err := os.Stat(envPath); err == nil && !initForce {
			return fmt.Errorf(".env file already exists at %s (use --force to overwrite)", envPath)
		} else if err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}

		content, err := env.MarshalEnv(&initApp, &initLLM, &initEmb, &initTG)
		if err != nil {
			return err
		}
		if err := os.WriteFile(envPath, []byte(content), 0600); err != nil {
			return fmt.Errorf("failed to write .env: %w", err)
		}

		logger.Info().Str("path", envPath).Msg("configuration saved, run 'onyx serve' to start")
		return nil
	},
}

func init() {
	f := initCmd.Flags()
	f.BoolVar(&initForce, "force", false, "overwrite an existing .env")

	f.StringVar(&initLLM.Provider, "llm-provider", "openai", "openai, openrouter, ollama, anthropic or custom")
	f.StringVar(&initLLM.Model, "llm-model", "gpt-4o-mini", "completion model")
	f.StringVar(&initLLM.OpenAIAPIKey, "openai-key", "", "OpenAI API key")
	f.StringVar(&initLLM.AnthropicAPIKey, "anthropic-key", "", "Anthropic API key")
	f.StringVar(&initLLM.OpenRouterAPIKey, "openrouter-key", "", "OpenRouter API key")
	f.StringVar(&initLLM.OllamaBaseURL, "ollama-url", "http://localhost:11434", "Ollama base URL")
	f.StringVar(&initLLM.CustomOpenAIBaseURL, "custom-url", "", "OpenAI-compatible base URL")
	f.StringVar(&initLLM.CustomOpenAIAPIKey, "custom-key", "", "OpenAI-compatible API key")

	f.StringVar(&initEmb.APIKey, "xai-key", "", "embeddings API key, semantic memory is off without it")

	f.StringVar(&initApp.HTTPAddr, "http-addr", ":8080", "HTTP listen address")
	f.BoolVar(&initApp.EnableTelegram, "telegram", false, "enable the Telegram bot")
	f.StringVar(&initApp.Timezone, "timezone", "Local", "IANA zone used when rendering dates")
	f.StringVar(&initTG.Token, "telegram-token", "", "Telegram bot token")

	rootCmd.AddCommand(initCmd)
}
