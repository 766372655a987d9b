package engine

import (
	"context"

	"github.com/roach88/nomindex/internal/chain"
	"github.com/roach88/nomindex/internal/projector"
)

// Delivery is one record handed out by a Source. Err is set instead of
// Event when the record could not be decoded.
type Delivery struct {
	Event chain.Event
	Err   error

	// Ref locates the record in its source, e.g. "events.yaml#3" or
	// "registrar/0@1042".
	Ref string
}

// Source yields deliveries in chain order.
type Source interface {
	// Fetch returns up to limit deliveries. It returns io.EOF, possibly
	// together with a final batch, when a finite source is drained.
	// An empty batch with a nil error means nothing is available yet.
	Fetch(ctx context.Context, limit int) ([]Delivery, error)

	// Commit acknowledges every delivery returned so far.
	Commit(ctx context.Context) error
}

// Applier projects one event. *projector.Projector implements it.
type Applier interface {
	Apply(ctx context.Context, ev chain.Event) (projector.Outcome, error)
}

var _ Applier = (*projector.Projector)(nil)
