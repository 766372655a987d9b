package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/roach88/nomindex/internal/config"
	"github.com/roach88/nomindex/internal/engine"
	"github.com/roach88/nomindex/internal/entity"
	"github.com/roach88/nomindex/internal/metrics"
	"github.com/roach88/nomindex/internal/projector"
	"github.com/roach88/nomindex/internal/resolve"
	"github.com/roach88/nomindex/internal/store"
	"github.com/roach88/nomindex/internal/store/postgres"
)

// Backend is a store that can apply events and serve reads.
type Backend interface {
	entity.Store
	entity.Reader
	Ping(ctx context.Context) error
	Close() error
}

var (
	_ Backend = (*store.Store)(nil)
	_ Backend = (*postgres.Store)(nil)
)

func openBackend(ctx context.Context, cfg config.StoreConfig) (Backend, error) {
	switch cfg.Driver {
	case "sqlite":
		st, err := store.Open(cfg.Path)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to open database", err)
		}
		return st, nil
	case "postgres":
		st, err := postgres.Open(ctx, cfg.DSN)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to connect to database", err)
		}
		return st, nil
	}
	return nil, NewExitError(ExitCommandError, fmt.Sprintf("unknown store driver %q", cfg.Driver))
}

// pipeline is everything needed to apply events.
type pipeline struct {
	backend   Backend
	projector *projector.Projector
	metrics   *metrics.Metrics
	registry  *prometheus.Registry
	resolver  resolve.NameResolver
	redis     *resolve.Redis
	logger    *slog.Logger
	runID     string
}

func (p *pipeline) Close() {
	if p.redis != nil {
		if err := p.redis.Close(); err != nil {
			p.logger.Warn("error closing redis", "error", err)
		}
	}
	if err := p.backend.Close(); err != nil {
		p.logger.Error("error closing database", "error", err)
	}
}

// newPipeline opens the store and resolver named by cfg and builds a
// projector over them.
func newPipeline(ctx context.Context, cfg config.Config, logger *slog.Logger, runID string) (*pipeline, error) {
	root, err := cfg.Root()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid root node", err)
	}

	backend, err := openBackend(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}

	p := &pipeline{
		backend:  backend,
		registry: prometheus.NewRegistry(),
		logger:   logger,
		runID:    runID,
	}
	p.metrics = metrics.New(p.registry)

	resolver, err := p.buildResolver(ctx, cfg.Resolver)
	if err != nil {
		p.Close()
		return nil, err
	}

	p.resolver = resolver
	p.projector = p.newProjector(backend, root, cfg.DisplaySuffix, resolver)
	return p, nil
}

// newProjector builds a projector over st sharing this pipeline's logger
// and metrics.
func (p *pipeline) newProjector(st entity.Store, root common.Hash, suffix string, resolver resolve.NameResolver) *projector.Projector {
	return projector.New(st, root,
		projector.WithResolver(resolver),
		projector.WithDisplaySuffix(suffix),
		projector.WithRunID(p.runID),
		projector.WithLogger(p.logger),
		projector.WithMetrics(p.metrics),
	)
}

// buildResolver chains the file dictionary and Redis, in that order, and
// puts an LRU in front of the chain.
func (p *pipeline) buildResolver(ctx context.Context, cfg config.ResolverConfig) (resolve.NameResolver, error) {
	var resolvers resolve.Chain
	if cfg.LabelsFile != "" {
		static, err := resolve.LoadStatic(cfg.LabelsFile)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to load label dictionary", err)
		}
		p.logger.Info("label dictionary loaded", "path", cfg.LabelsFile, "labels", len(static))
		resolvers = append(resolvers, static)
	}
	if cfg.RedisURL != "" {
		r, err := resolve.DialRedis(ctx, cfg.RedisURL, resolve.WithRedisKey(cfg.RedisKey))
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to connect to redis", err)
		}
		p.redis = r
		resolvers = append(resolvers, r)
	}
	if len(resolvers) == 0 {
		return resolve.Nop{}, nil
	}
	cached, err := resolve.NewCached(resolvers, cfg.CacheSize, p.metrics.ObserveLookup)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to build resolver", err)
	}
	return cached, nil
}

// newRunner builds a runner over src using the configured policy.
func (p *pipeline) newRunner(cfg config.Config, src engine.Source) (*engine.Runner, error) {
	policy, err := engine.ParsePolicy(cfg.FailurePolicy)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid failure policy", err)
	}
	return engine.NewRunner(src, p.projector,
		engine.WithPolicy(policy),
		engine.WithBatchSize(cfg.Runner.BatchSize),
		engine.WithIdleSleep(cfg.Runner.IdleSleep.Std()),
		engine.WithLogger(p.logger),
		engine.WithMetrics(p.metrics),
	), nil
}
