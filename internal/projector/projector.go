package projector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/roach88/nomindex/internal/chain"
	"github.com/roach88/nomindex/internal/entity"
	"github.com/roach88/nomindex/internal/metrics"
	"github.com/roach88/nomindex/internal/namehash"
	"github.com/roach88/nomindex/internal/resolve"
)

// DefaultDisplaySuffix is appended to a label to form the display name.
const DefaultDisplaySuffix = "." + namehash.DefaultTLD

const tracerName = "github.com/roach88/nomindex/internal/projector"

// Projector applies registrar events to an entity store.
//
// A Projector is the single writer for its store: callers must apply
// events one at a time in chain order.
type Projector struct {
	store    entity.Store
	root     common.Hash
	resolver resolve.NameResolver
	suffix   string
	runID    string
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
}

// Option configures a Projector.
type Option func(*Projector)

// WithResolver sets the label resolver used for base registrar events.
func WithResolver(r resolve.NameResolver) Option {
	return func(p *Projector) {
		if r != nil {
			p.resolver = r
		}
	}
}

// WithDisplaySuffix overrides the ".nom" display suffix.
func WithDisplaySuffix(suffix string) Option {
	return func(p *Projector) {
		p.suffix = suffix
	}
}

// WithRunID tags journal entries with the id of the current run.
func WithRunID(id string) Option {
	return func(p *Projector) {
		p.runID = id
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(p *Projector) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithMetrics records per-event metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Projector) {
		p.metrics = m
	}
}

// WithTracerProvider overrides the global otel tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(p *Projector) {
		if tp != nil {
			p.tracer = tp.Tracer(tracerName)
		}
	}
}

// New creates a projector writing to store, deriving domain ids under root.
func New(store entity.Store, root common.Hash, opts ...Option) *Projector {
	p := &Projector{
		store:    store,
		root:     root,
		resolver: resolve.Nop{},
		suffix:   DefaultDisplaySuffix,
		logger:   slog.Default(),
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Root returns the parent node domain ids are derived under.
func (p *Projector) Root() common.Hash {
	return p.root
}

// Apply dispatches ev to its handler.
func (p *Projector) Apply(ctx context.Context, ev chain.Event) (Outcome, error) {
	switch e := ev.(type) {
	case chain.NameRegistered:
		return p.HandleNameRegistered(ctx, e)
	case chain.ControllerNameRegistered:
		return p.HandleNameRegisteredByController(ctx, e)
	case chain.ControllerNameRenewed:
		return p.HandleNameRenewedByController(ctx, e)
	case chain.NameRenewed:
		return p.HandleNameRenewed(ctx, e)
	case chain.Transfer:
		return p.HandleNameTransferred(ctx, e)
	case nil:
		return "", newError(ErrCodeInvalidEvent, nil, "nil event", nil)
	default:
		return "", newError(ErrCodeInvalidEvent, ev, fmt.Sprintf("unsupported event type %T", ev), nil)
	}
}

// observe wraps one handler invocation with a span, metrics and logging.
func (p *Projector) observe(ctx context.Context, ev chain.Event, handle func(context.Context) (Outcome, error)) (Outcome, error) {
	m := ev.Meta()
	ctx, span := p.tracer.Start(ctx, "projector."+string(ev.Kind()),
		trace.WithAttributes(
			attribute.String("event.id", m.EventID()),
			attribute.String("event.kind", string(ev.Kind())),
			attribute.Int64("event.block", int64(m.BlockNumber)),
		),
	)
	defer span.End()

	start := time.Now()
	var outcome Outcome
	err := checkRange(ev)
	if err == nil {
		outcome, err = handle(ctx)
	}
	elapsed := time.Since(start)

	log := p.logger.With(
		"event_id", m.EventID(),
		"kind", ev.Kind(),
		"block", m.BlockNumber,
	)

	if err != nil {
		code := Code(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, string(code))
		p.metrics.ObserveFailure(string(code))

		var pe *ProjectionError
		if errors.As(err, &pe) && pe.Label != "" {
			log = log.With("label", pe.Label)
		}
		log.Warn("event not projected", "code", code, "error", err)
		return "", err
	}

	span.SetAttributes(attribute.String("event.outcome", string(outcome)))
	p.metrics.ObserveEvent(string(ev.Kind()), string(outcome), elapsed)
	if outcome != OutcomeDuplicate {
		p.metrics.SetLastBlock(m.BlockNumber)
	}
	log.Debug("event projected", "outcome", outcome, "elapsed", elapsed)
	return outcome, nil
}

// unitOfWork claims the event in the journal and runs fn in the same
// transaction.
func (p *Projector) unitOfWork(ctx context.Context, ev chain.Event, fn func(entity.Repository) (Outcome, error)) (Outcome, error) {
	payload, err := chain.Marshal(ev)
	if err != nil {
		return "", newError(ErrCodeInvalidEvent, ev, "event cannot be encoded", err)
	}
	m := ev.Meta()
	entry := entity.JournalEntry{
		EventID:  m.EventID(),
		Kind:     ev.Kind(),
		Position: m.Position(),
		TxHash:   m.TxHash.Hex(),
		Payload:  payload,
		RunID:    p.runID,
	}

	outcome := OutcomeApplied
	err = p.store.Apply(ctx, entry, func(repo entity.Repository) error {
		o, err := fn(repo)
		if err != nil {
			return err
		}
		outcome = o
		return nil
	})

	var pe *ProjectionError
	switch {
	case err == nil:
		return outcome, nil
	case errors.Is(err, entity.ErrDuplicateEvent):
		return OutcomeDuplicate, nil
	case errors.Is(err, entity.ErrOutOfOrder):
		return "", newError(ErrCodeOutOfOrder, ev, "event is not after the checkpoint", err)
	case errors.As(err, &pe):
		return "", pe
	default:
		return "", newError(ErrCodeStoreFailure, ev, "unit of work failed", err)
	}
}

func checkRange(ev chain.Event) error {
	if err := chain.CheckRange(ev); err != nil {
		return newError(ErrCodeInvalidEvent, ev, "integer field out of range", err)
	}
	return nil
}

// lookupLabel asks the resolver for the plaintext of label.
func (p *Projector) lookupLabel(ctx context.Context, ev chain.Event, label common.Hash) (*string, error) {
	name, ok, err := p.resolver.NameByHash(ctx, label)
	if err != nil {
		pe := newError(ErrCodeResolverFailure, ev, "label lookup failed", err)
		pe.Label = label.Hex()
		return nil, pe
	}
	if !ok {
		return nil, nil
	}
	return &name, nil
}
