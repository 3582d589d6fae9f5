package core

import "time"

type AppConfig interface {
	GetRuntimePath() string
	GetDatabasePath() string
	GetIndexPath(kind EntityType) string
	GetContextWindowSize() int
	GetMemoryContextLimit() int
	GetHistoryLimit() int
	GetLocation() *time.Location
}

type ProviderConfig interface {
	GetModel() string
	GetProvider() string
	GetAnthropicAPIKey() string
	GetOpenAIAPIKey() string
	GetOpenRouterAPIKey() string
	GetOllamaAPIKey() string
	GetOllamaBaseURL() string
	GetCustomOpenAIBaseURL() string
	GetCustomOpenAIAPIKey() string
	GetTimeout() time.Duration
}

type EmbeddingConfig interface {
	GetEmbeddingAPIKey() string
	GetEmbeddingBaseURL() string
	GetEmbeddingModel() string
	GetEmbeddingMaxTokens() int
	GetEmbeddingTimeout() time.Duration
}

type TelegramConfig interface {
	GetTelegramToken() string
}
