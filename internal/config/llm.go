package config

import (
	"context"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/yvrah78/onyx-chauffeur-ai/pkg/log"
)

type LLMConfig struct {
	Provider string        `env:"LLM_PROVIDER" envDefault:"openai"`
	Model    string        `env:"LLM_MODEL" envDefault:"gpt-4o-mini"`
	Timeout  time.Duration `env:"LLM_TIMEOUT" envDefault:"60s"`

	OpenAIAPIKey        string `env:"OPENAI_API_KEY"`
	AnthropicAPIKey     string `env:"ANTHROPIC_API_KEY"`
	OpenRouterAPIKey    string `env:"OPENROUTER_API_KEY"`
	OllamaBaseURL       string `env:"OLLAMA_BASE_URL" envDefault:"http://localhost:11434"`
	OllamaAPIKey        string `env:"OLLAMA_API_KEY"`
	CustomOpenAIBaseURL string `env:"CUSTOM_OPENAI_BASE_URL"`
	CustomOpenAIAPIKey  string `env:"CUSTOM_OPENAI_API_KEY"`
}

func NewLLMConfig(ctx context.Context) *LLMConfig {
	c := &LLMConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse LLM config")
	}
	return c
}

func (c LLMConfig) GetModel() string { return c.Model }
func (c LLMConfig) GetProvider() string { return c.Provider }
func (c LLMConfig) GetOpenAIAPIKey() string { return c.OpenAIAPIKey }
func (c LLMConfig) GetAnthropicAPIKey() string { return c.AnthropicAPIKey }
func (c LLMConfig) GetOpenRouterAPIKey() string { return c.OpenRouterAPIKey }
func (c LLMConfig) GetOllamaBaseURL() string { return c.OllamaBaseURL }
func (c LLMConfig) GetOllamaAPIKey() string { return c.OllamaAPIKey }
func (c LLMConfig) GetCustomOpenAIBaseURL() string { return c.CustomOpenAIBaseURL }
func (c LLMConfig) GetCustomOpenAIAPIKey() string { return c.CustomOpenAIAPIKey }
func (c LLMConfig) GetTimeout() time.Duration { return c.Timeout }
