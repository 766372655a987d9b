package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/nomindex/internal/engine"
	"github.com/roach88/nomindex/internal/httpapi"
	"github.com/roach88/nomindex/internal/source"
)

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Consume registrar events from Kafka and serve ops endpoints",
		Long: `Consume registrar events from the configured Kafka topic, apply them to
the store and serve /healthz, /readyz, /status and /metrics.

Offsets are committed after each applied batch. SIGINT or SIGTERM stops
the runner after the current batch.

Exit codes:
  0 - Stopped by signal
  1 - Runner halted on a failing event
  2 - Command error (bad config, store or broker unreachable)

Example:
  nomindex run --config ./nomindex.cue
  NOMINDEX_KAFKA_BROKERS=localhost:9092 nomindex run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndexer(rootOpts, cmd)
		},
	}
	return cmd
}

func runIndexer(opts *RootOptions, cmd *cobra.Command) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	if len(cfg.Kafka.Brokers) == 0 {
		return NewExitError(ExitCommandError, "kafka.brokers is not configured")
	}

	runID := opts.newRunID()
	logger := opts.newLogger(cfg.Log, cmd.ErrOrStderr(), runID)

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, err := newPipeline(ctx, cfg, logger, runID)
	if err != nil {
		return err
	}
	defer p.Close()

	kafka, err := source.NewKafka(source.KafkaConfig{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.Topic,
		Group:   cfg.Kafka.Group,
	}, logger)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create kafka consumer", err)
	}
	defer kafka.Close()

	runner, err := p.newRunner(cfg, kafka)
	if err != nil {
		return err
	}

	checks := []httpapi.Option{
		httpapi.WithRunID(runID),
		httpapi.WithCheck("store", p.backend.Ping),
		httpapi.WithCheck("kafka", kafka.Health),
	}
	if p.redis != nil {
		checks = append(checks, httpapi.WithCheck("redis", p.redis.Health))
	}
	ops := httpapi.New(logger, runner, p.backend, p.registry, checks...)

	logger.Info("indexer starting",
		"topic", cfg.Kafka.Topic,
		"group", cfg.Kafka.Group,
		"store", cfg.Store.Driver,
		"policy", cfg.FailurePolicy,
		"http", cfg.HTTP.Addr,
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return runner.Run(gctx)
	})
	g.Go(func() error {
		return httpapi.Serve(gctx, cfg.HTTP.Addr, ops.Router(), logger)
	})

	err = g.Wait()
	stats := runner.Stats()
	logger.Info("indexer stopped",
		"applied", stats.Applied,
		"tolerated", stats.Tolerated,
		"duplicate", stats.Duplicate,
		"skipped", stats.Skipped,
		"batches", stats.Batches,
	)
	return runError(err)
}

// runError maps a runner result onto an exit code. Cancellation is a
// clean stop.
func runError(err error) error {
	switch {
	case err == nil, errors.Is(err, context.Canceled):
		return nil
	case engine.IsHalt(err):
		return WrapExitError(ExitFailure, "runner halted", err)
	default:
		return WrapExitError(ExitCommandError, "indexer error", err)
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
