package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/yvrah78/onyx-chauffeur-ai/internal/config"
	"github.com/yvrah78/onyx-chauffeur-ai/internal/core"
	"github.com/yvrah78/onyx-chauffeur-ai/internal/providers/llm"
	"github.com/yvrah78/onyx-chauffeur-ai/internal/providers/rag"
	"github.com/yvrah78/onyx-chauffeur-ai/internal/service/agent"
	"github.com/yvrah78/onyx-chauffeur-ai/internal/service/dispatch"
	"github.com/yvrah78/onyx-chauffeur-ai/internal/service/memory"
	"github.com/yvrah78/onyx-chauffeur-ai/internal/storage/sqlite"
	httpapi "github.com/yvrah78/onyx-chauffeur-ai/internal/transport/http"
	"github.com/yvrah78/onyx-chauffeur-ai/pkg/log"
	"github.com/yvrah78/onyx-chauffeur-ai/pkg/srv"
)

// App holds every wired component. Closers are released by Close in reverse order.
type App struct {
	Config *config.AppConfig

	Clients  *sqlite.ClientsRepo
	Drivers  *sqlite.DriversRepo
	Trips    *sqlite.TripsRepo
	Messages *sqlite.MessagesRepo
	Profiles *sqlite.ProfilesRepo

	Memory   *memory.Service
	Agent    *agent.Agent
	Dispatch *dispatch.Service

	closers []srv.Service
}

// NewApp opens storage and builds the services. The completion provider is
// only required when withAgent is set.
func NewApp(ctx context.Context, withAgent bool) (*App, error) {
	if err := initEnv(ctx, config.GetEnvFilePath()); err != nil {
		return nil, err
	}

	appCfg := config.NewAppConfig(ctx)
	a := &App{Config: appCfg}

	db, err := sqlite.NewDB(ctx, appCfg.GetDatabasePath())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	a.closers = append(a.closers, srv.NewCloser("database", db.Close))

	a.Clients = sqlite.NewClientsRepo(db)
	a.Drivers = sqlite.NewDriversRepo(db)
	a.Trips = sqlite.NewTripsRepo(db)
	a.Messages = sqlite.NewMessagesRepo(db)
	a.Profiles = sqlite.NewProfilesRepo(db)

	mem := a.initMemory(ctx, appCfg)
	a.Memory = mem

	a.Dispatch = dispatch.NewService(dispatch.Repositories{
		Clients:  a.Clients,
		Drivers:  a.Drivers,
		Trips:    a.Trips,
		Profiles: a.Profiles,
	}, mem)

	if withAgent {
		ai, err := llm.NewProvider(ctx, config.NewLLMConfig(ctx))
		if err != nil {
			a.Close(ctx)
			return nil, fmt.Errorf("failed to initialize LLM provider: %w", err)
		}
		a.Agent = agent.NewAgent(a.Clients, a.Profiles, a.Messages, mem, ai, agent.Options{
			WindowSize:   appCfg.GetContextWindowSize(),
			ContextLimit: appCfg.GetMemoryContextLimit(),
			Location:     appCfg.GetLocation(),
		})
	}

	return a, nil
}

// initMemory never fails: memory is advisory, so an index that cannot be
// opened even after a reset is replaced by a disabled one.
func (a *App) initMemory(ctx context.Context, cfg *config.AppConfig) *memory.Service {
	embedder := rag.NewGatewayFromConfig(ctx, config.NewEmbeddingConfig(ctx))
	fanout := cfg.GetFanoutFactor()

	return memory.NewService(
		memory.NewStore[memory.ClientKind](a.openIndex(ctx, cfg, core.EntityClient), embedder, fanout),
		memory.NewStore[memory.DriverKind](a.openIndex(ctx, cfg, core.EntityDriver), embedder, fanout),
		cfg.GetLocation(),
	)
}

func (a *App) openIndex(ctx context.Context, cfg *config.AppConfig, kind core.EntityType) core.VectorIndex {
	ix, err := sqlite.OpenIndexOrReset(ctx, cfg.GetIndexPath(kind), kind)
	if err != nil {
		log.FromCtx(ctx).Error().Err(err).Str("kind", string(kind)).Msg("vector index unavailable, memory disabled")
		return memory.DisabledIndex{}
	}
	a.closers = append(a.closers, srv.NewCloser(string(kind)+" index", ix.Close))
	return ix
}

func (a *App) HTTPDeps() httpapi.Deps {
	return httpapi.Deps{
		Concierge:    a.Agent,
		Dispatch:     a.Dispatch,
		Clients:      a.Clients,
		Drivers:      a.Drivers,
		Trips:        a.Trips,
		Messages:     a.Messages,
		Profiles:     a.Profiles,
		Memory:       a.Memory,
		HistoryLimit: a.Config.GetHistoryLimit(),
	}
}

// Closers returns the storage cleanups as services, newest first.
func (a *App) Closers() []srv.Service {
	out := make([]srv.Service, 0, len(a.closers))
	for i := len(a.closers) - 1; i >= 0; i-- {
		out = append(out, a.closers[i])
	}
	return out
}

func (a *App) Close(ctx context.Context) {
	for _, c := range a.Closers() {
		if err := c.Shutdown(ctx); err != nil {
			log.FromCtx(ctx).Error().Err(err).Msg("failed to close storage")
		}
	}
}

func initEnv(ctx context.Context, envFile string) error {
	logger := log.FromCtx(ctx)

	if _, err := os.Stat(envFile); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if err := godotenv.Load(envFile); err != nil {
		logger.Warn().Err(err).Str("path", envFile).Msg("failed to load .env file")
		return err
	}

	logger.Debug().Str("path", envFile).Msg("loaded .env file")
	return nil
}
