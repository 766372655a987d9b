package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/nomindex/internal/metrics"
	"github.com/roach88/nomindex/internal/projector"
)

const (
	// DefaultBatchSize is the number of deliveries fetched per batch.
	DefaultBatchSize = 512

	// DefaultIdleSleep is the pause after an empty fetch.
	DefaultIdleSleep = 200 * time.Millisecond
)

// Runner pulls deliveries from a Source and applies them one at a time.
type Runner struct {
	source     Source
	applier    Applier
	policy     Policy
	batchSize  int
	idleSleep  time.Duration
	maxBatches int
	logger     *slog.Logger
	metrics    *metrics.Metrics
	stats      Stats
}

// RunnerOption allows configuration of runner parameters.
type RunnerOption func(*Runner)

// WithPolicy sets the failure policy. Default: PolicyHalt.
func WithPolicy(p Policy) RunnerOption {
	return func(r *Runner) {
		r.policy = p
	}
}

// WithBatchSize sets the fetch limit. Values <= 0 keep the default.
func WithBatchSize(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

// WithIdleSleep sets the pause after an empty fetch.
func WithIdleSleep(d time.Duration) RunnerOption {
	return func(r *Runner) {
		if d > 0 {
			r.idleSleep = d
		}
	}
}

// WithMaxBatches stops the runner after n committed batches.
// Zero means unlimited.
func WithMaxBatches(n int) RunnerOption {
	return func(r *Runner) {
		r.maxBatches = n
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithMetrics counts committed batches.
func WithMetrics(m *metrics.Metrics) RunnerOption {
	return func(r *Runner) {
		r.metrics = m
	}
}

// NewRunner creates a runner feeding source into applier.
func NewRunner(source Source, applier Applier, opts ...RunnerOption) *Runner {
	r := &Runner{
		source:    source,
		applier:   applier,
		policy:    PolicyHalt,
		batchSize: DefaultBatchSize,
		idleSleep: DefaultIdleSleep,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Stats returns a copy of the runner counters.
func (r *Runner) Stats() StatsSnapshot {
	return r.stats.Snapshot()
}

// Run processes batches until the source is drained, MaxBatches is
// reached, a delivery halts the runner, or ctx is cancelled.
//
// Flow: Fetch -> Apply each delivery -> Commit (source) -> repeat.
// A batch that halts is not committed; its applied events are rejected as
// duplicates when the source redelivers them.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Info("runner starting",
		"batch_size", r.batchSize,
		"idle_sleep", r.idleSleep,
		"max_batches", r.maxBatches,
		"policy", r.policy,
	)

	batches := 0
	for {
		if err := ctx.Err(); err != nil {
			r.logger.Info("runner stopped", "reason", err)
			return err
		}

		if r.maxBatches > 0 && batches >= r.maxBatches {
			r.logger.Info("runner stopped after max batches", "batches", batches)
			return nil
		}

		batch, err := r.source.Fetch(ctx, r.batchSize)
		drained := errors.Is(err, io.EOF)
		if err != nil && !drained {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("fetch: %w", err)
		}

		if len(batch) == 0 {
			if drained {
				r.logger.Info("source drained", "stats", r.stats.Snapshot())
				return nil
			}
			select {
			case <-ctx.Done():
				r.logger.Info("runner stopped during idle sleep", "reason", ctx.Err())
				return ctx.Err()
			case <-time.After(r.idleSleep):
			}
			continue
		}

		for _, d := range batch {
			if err := r.handle(ctx, d); err != nil {
				return err
			}
		}

		if err := r.source.Commit(ctx); err != nil {
			return fmt.Errorf("commit: %w", err)
		}
		batches++
		r.stats.batches.Add(1)
		r.metrics.IncBatches()
		r.logger.Debug("batch committed", "size", len(batch), "batches", batches)

		if drained {
			r.logger.Info("source drained", "stats", r.stats.Snapshot())
			return nil
		}
	}
}

// handle applies one delivery and decides whether its failure is fatal.
func (r *Runner) handle(ctx context.Context, d Delivery) error {
	var (
		outcome projector.Outcome
		err     error
		eventID string
	)
	if d.Err != nil {
		err = projector.NewInvalidEventError(d.Err)
	} else {
		eventID = d.Event.Meta().EventID()
		outcome, err = r.applier.Apply(ctx, d.Event)
	}

	if err == nil {
		r.stats.record(outcome, d.Event.Meta().Position())
		return nil
	}

	if r.policy == PolicySkip && projector.IsSkippable(err) {
		r.stats.skipped.Add(1)
		r.logger.Warn("event skipped",
			"ref", d.Ref,
			"event_id", eventID,
			"code", projector.Code(err),
			"error", err,
		)
		return nil
	}

	r.stats.failed.Add(1)
	r.logger.Error("runner halted",
		"ref", d.Ref,
		"event_id", eventID,
		"code", projector.Code(err),
		"error", err,
	)
	return &HaltError{Ref: d.Ref, EventID: eventID, Err: err}
}
