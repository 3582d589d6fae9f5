package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/yvrah78/onyx-chauffeur-ai/internal/core"
	"github.com/yvrah78/onyx-chauffeur-ai/pkg/log"
)

type AppConfig struct {
	RuntimePath string `env:"ONYX_RUNTIME_PATH" envDefault:".onyx"`

	// Transport Flags
	EnableHTTP     bool   `env:"ENABLE_HTTP" envDefault:"true"`
	HTTPAddr       string `env:"ONYX_HTTP_ADDR" envDefault:":8080"`
	EnableTelegram bool   `env:"ENABLE_TELEGRAM" envDefault:"false"`

	// Context Management
	ContextWindowSize  int `env:"CONTEXT_WINDOW_SIZE" envDefault:"10"`
	MemoryContextLimit int `env:"MEMORY_CONTEXT_LIMIT" envDefault:"5"`
	IndexFanoutFactor  int `env:"INDEX_FANOUT_FACTOR" envDefault:"4"`
	HistoryLimit       int `env:"HISTORY_LIMIT" envDefault:"20"`

	Timezone string `env:"ONYX_TIMEZONE" envDefault:"Local"`
}

func NewAppConfig(ctx context.Context) *AppConfig {
	c := &AppConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse App config")
	}
	c.RuntimePath = resolveRuntimePath(c.RuntimePath)
	return c
}

func (c AppConfig) GetRuntimePath() string {
	return c.RuntimePath
}

func (c AppConfig) GetDatabasePath() string {
	return filepath.Join(c.RuntimePath, "onyx.db")
}

func (c AppConfig) GetIndexPath(kind core.EntityType) string {
	return filepath.Join(c.RuntimePath, "index", string(kind)+"s.db")
}

func (c AppConfig) GetContextWindowSize() int {
	return c.ContextWindowSize
}

func (c AppConfig) GetMemoryContextLimit() int {
	return c.MemoryContextLimit
}

func (c AppConfig) GetHistoryLimit() int {
	return c.HistoryLimit
}

func (c AppConfig) GetFanoutFactor() int {
	if c.IndexFanoutFactor < 1 {
		return 1
	}
	return c.IndexFanoutFactor
}

// GetLocation falls back to the process local zone on an unknown name.
func (c AppConfig) GetLocation() *time.Location {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
