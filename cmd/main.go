package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/peregrine-ai/peregrine/internal/backend"
	"github.com/peregrine-ai/peregrine/internal/backend/anthropic"
	"github.com/peregrine-ai/peregrine/internal/backend/gemini"
	"github.com/peregrine-ai/peregrine/internal/backend/openai"
	"github.com/peregrine-ai/peregrine/internal/backend/static"
	"github.com/peregrine-ai/peregrine/internal/breaker"
	"github.com/peregrine-ai/peregrine/internal/cache"
	"github.com/peregrine-ai/peregrine/internal/cache/redis"
	"github.com/peregrine-ai/peregrine/internal/config"
	"github.com/peregrine-ai/peregrine/internal/domain"
	"github.com/peregrine-ai/peregrine/internal/http"
	"github.com/peregrine-ai/peregrine/internal/http/middleware"
	"github.com/peregrine-ai/peregrine/internal/metrics"
	"github.com/peregrine-ai/peregrine/internal/observability"
	"github.com/peregrine-ai/peregrine/internal/orchestrator"
	"github.com/peregrine-ai/peregrine/internal/pool"
	"github.com/peregrine-ai/peregrine/internal/routing"
)

func main() {
	container := buildContainer()

	err := container.Invoke(func(server *http.Server, local *cache.Memory, collector *metrics.Collector, serverCfg *config.ServerConfig) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			errCh <- server.Start()
		}()

		select {
		case err := <-errCh:
			if err != nil {
				log.Fatalf("Server failed to start: %v", err)
			}
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(
				context.Background(),
				time.Duration(serverCfg.ShutdownTimeout)*time.Second,
			)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				log.Fatalf("Server shutdown failed: %v", err)
			}
			local.Close()
			collector.Close()
		}
	})
	if err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}
}

//nolint:funlen // Container assembly is linear wiring, one concern per block.
func buildContainer() *dig.Container {
	container := dig.New()

	// Configuration
	if err := container.Provide(config.Load); err != nil {
		log.Fatalf("Failed to provide config: %v", err)
	}
	if err := container.Provide(config.ParseDependenciesConfig); err != nil {
		log.Fatalf("Failed to provide config dependencies: %v", err)
	}
	if err := container.Provide(func(cfg *config.Config) (map[string]domain.TierConfig, error) {
		return config.LoadTiers(cfg.TiersFile)
	}); err != nil {
		log.Fatalf("Failed to provide tier table: %v", err)
	}

	// Observability
	if err := container.Provide(observability.InitLogger); err != nil {
		log.Fatalf("Failed to provide logger: %v", err)
	}
	if err := container.Provide(func(logger *zap.Logger) domain.EventPublisher {
		return observability.NewEventBus(logger)
	}); err != nil {
		log.Fatalf("Failed to provide event bus: %v", err)
	}

	// Backends
	if err := container.Provide(func(cfg *openai.Config) *openai.Backend {
		return openai.New(*cfg)
	}); err != nil {
		log.Fatalf("Failed to provide OpenAI backend: %v", err)
	}
	if err := container.Provide(func(cfg *gemini.Config) *gemini.Backend {
		return gemini.New(*cfg)
	}); err != nil {
		log.Fatalf("Failed to provide Gemini backend: %v", err)
	}
	if err := container.Provide(func(cfg *anthropic.Config) *anthropic.Backend {
		return anthropic.New(*cfg)
	}); err != nil {
		log.Fatalf("Failed to provide Anthropic backend: %v", err)
	}
	if err := container.Provide(func() domain.BackendRoster {
		return backend.NewRoster()
	}); err != nil {
		log.Fatalf("Failed to provide roster: %v", err)
	}

	// Bind backends to pipeline roles (invoked for side effects).
	if err := container.Invoke(func(
		roster domain.BackendRoster,
		generator *openai.Backend,
		validator *gemini.Backend,
		supervisor *anthropic.Backend,
	) error {
		if err := roster.Assign(domain.RoleGeneration, generator); err != nil {
			return fmt.Errorf("failed to assign generation backend: %w", err)
		}
		if err := roster.Assign(domain.RoleValidation, validator); err != nil {
			return fmt.Errorf("failed to assign validation backend: %w", err)
		}
		if err := roster.Assign(domain.RoleSupervision, supervisor); err != nil {
			return fmt.Errorf("failed to assign supervision backend: %w", err)
		}
		return nil
	}); err != nil {
		log.Fatalf("Failed to assign backends: %v", err)
	}

	// Pricing
	if err := container.Provide(func() domain.PricingRegistry {
		return domain.NewMemoryPricingRegistry()
	}); err != nil {
		log.Fatalf("Failed to provide pricing registry: %v", err)
	}
	if err := container.Invoke(func(registry domain.PricingRegistry) error {
		ctx := context.Background()
		if err := openai.RegisterPricing(ctx, registry); err != nil {
			return fmt.Errorf("failed to register OpenAI pricing: %w", err)
		}
		if err := gemini.RegisterPricing(ctx, registry); err != nil {
			return fmt.Errorf("failed to register Gemini pricing: %w", err)
		}
		if err := anthropic.RegisterPricing(ctx, registry); err != nil {
			return fmt.Errorf("failed to register Anthropic pricing: %w", err)
		}
		return nil
	}); err != nil {
		log.Fatalf("Failed to register pricing: %v", err)
	}
	if err := container.Provide(func(registry domain.PricingRegistry) domain.CostCalculator {
		return domain.NewUsageCostCalculator(registry)
	}); err != nil {
		log.Fatalf("Failed to provide cost calculator: %v", err)
	}

	// Circuit breakers
	if err := container.Provide(func(cfg *config.BreakerConfig) *breaker.Manager {
		return breaker.NewManager(cfg.Settings())
	}); err != nil {
		log.Fatalf("Failed to provide breaker manager: %v", err)
	}

	// Cache
	if err := container.Provide(func(cfg *config.CacheConfig) *cache.Memory {
		local := cache.NewMemory()
		local.StartSweeper(cfg.SweepEvery())
		return local
	}); err != nil {
		log.Fatalf("Failed to provide local cache: %v", err)
	}
	if err := container.Provide(func(local *cache.Memory, redisCfg *redis.Config) (domain.Cache, error) {
		var shared cache.SharedStore
		if redisCfg.Enabled() {
			store, err := redis.NewStore(redis.NewClient(redisCfg))
			if err != nil {
				return nil, fmt.Errorf("failed to connect shared cache tier: %w", err)
			}
			shared = store
		}
		return cache.NewTiered(local, shared)
	}); err != nil {
		log.Fatalf("Failed to provide cache: %v", err)
	}
	if err := container.Provide(func(cfg *config.CacheConfig) cache.Keys {
		return cfg.Keys()
	}); err != nil {
		log.Fatalf("Failed to provide cache keys: %v", err)
	}
	if err := container.Provide(func(cfg *config.CacheConfig) cache.TTLConfig {
		return cfg.TTLs()
	}); err != nil {
		log.Fatalf("Failed to provide cache TTLs: %v", err)
	}

	// Candidate pool
	if err := container.Provide(func(cfg *pool.Config) (domain.CandidatePool, error) {
		if cfg.DBPath != "" {
			return pool.NewSQLiteSource(cfg.DBPath)
		}
		return pool.NewMemorySource(), nil
	}); err != nil {
		log.Fatalf("Failed to provide candidate pool: %v", err)
	}

	// Metrics
	if err := container.Provide(func(cfg *metrics.Config) *metrics.Collector {
		collector := metrics.NewCollector(cfg.WindowSize, time.Duration(cfg.MaxAge)*time.Second)
		collector.StartMaintenance(cfg.MaintainEvery())
		return collector
	}); err != nil {
		log.Fatalf("Failed to provide metrics collector: %v", err)
	}

	// Routing
	if err := container.Provide(func(roster domain.BackendRoster, breakers *breaker.Manager) domain.Router {
		return routing.NewRouter(roster, breakers)
	}); err != nil {
		log.Fatalf("Failed to provide router: %v", err)
	}

	// Orchestrator
	if err := container.Provide(func(
		roster domain.BackendRoster,
		router domain.Router,
		breakers *breaker.Manager,
		store domain.Cache,
		keys cache.Keys,
		ttls cache.TTLConfig,
		candidates domain.CandidatePool,
		tiers map[string]domain.TierConfig,
		costs domain.CostCalculator,
		collector *metrics.Collector,
		events domain.EventPublisher,
		pipelineCfg *config.PipelineConfig,
	) (*orchestrator.Orchestrator, error) {
		return orchestrator.New(orchestrator.Params{
			Roster:    roster,
			Router:    router,
			Breakers:  breakers,
			Cache:     store,
			Keys:      keys,
			TTLs:      ttls,
			Pool:      candidates,
			Tiers:     tiers,
			Costs:     costs,
			Collector: collector,
			Events:    events,
			Config:    pipelineCfg.Orchestrator(),
			Emergency: static.New(),
		})
	}); err != nil {
		log.Fatalf("Failed to provide orchestrator: %v", err)
	}
	if err := container.Provide(func(o *orchestrator.Orchestrator) http.PlanService {
		return o
	}); err != nil {
		log.Fatalf("Failed to provide plan service: %v", err)
	}

	// HTTP Layer
	if err := container.Provide(middleware.BuildMiddlewareChain); err != nil {
		log.Fatalf("Failed to provide middleware chain: %v", err)
	}
	if err := container.Provide(http.NewHandler); err != nil {
		log.Fatalf("Failed to provide HTTP handler: %v", err)
	}
	if err := container.Provide(http.NewServer); err != nil {
		log.Fatalf("Failed to provide HTTP server: %v", err)
	}

	return container
}
