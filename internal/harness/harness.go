package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"

	"github.com/roach88/nomindex/internal/chain"
	"github.com/roach88/nomindex/internal/namehash"
	"github.com/roach88/nomindex/internal/projector"
	"github.com/roach88/nomindex/internal/resolve"
	"github.com/roach88/nomindex/internal/store"
	"github.com/roach88/nomindex/internal/testutil"
)

// Harness is the test execution engine for one scenario.
type Harness struct {
	store     *store.Store
	projector *projector.Projector
	logger    *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
// Execution flow:
// 1. Create fresh in-memory database
// 2. Build a projector with the scenario's root, suffix and labels
// 3. Decode and apply each step, checking its expect clause
// 4. Snapshot the store and evaluate assertions
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := newHarness(st, scenario)

	result := NewResult()
	h.executeSteps(ctx, scenario.Steps, result)

	snap, err := st.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot store: %w", err)
	}
	result.State = snap

	for _, msg := range EvaluateAssertions(snap, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

func newHarness(st *store.Store, s *Scenario) *Harness {
	root := namehash.DefaultRoot
	if s.Root != "" {
		root = common.HexToHash(s.Root)
	}

	runID := testutil.NewFixedRunIDGenerator(s.RunID).Generate()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	opts := []projector.Option{
		projector.WithResolver(resolve.NewStatic(s.Labels...)),
		projector.WithRunID(runID),
		projector.WithLogger(logger),
	}
	if s.Suffix != "" {
		opts = append(opts, projector.WithDisplaySuffix(s.Suffix))
	}

	return &Harness{
		store:     st,
		projector: projector.New(st, root, opts...),
		logger:    logger,
	}
}

// executeSteps applies every step. A failing step is recorded and the
// run moves on.
func (h *Harness) executeSteps(ctx context.Context, steps []Step, result *Result) {
	for i, step := range steps {
		te := TraceEvent{Step: i, Kind: string(step.Event.Kind)}

		ev, err := chain.Decode(step.Event)
		if err != nil {
			err = projector.NewInvalidEventError(err)
		} else {
			te.EventID = ev.Meta().EventID()
			var outcome projector.Outcome
			outcome, err = h.projector.Apply(ctx, ev)
			te.Outcome = string(outcome)
		}
		if err != nil {
			te.Code = string(projector.Code(err))
			if te.Code == "" {
				te.Code = string(projector.ErrCodeStoreFailure)
			}
		}
		result.AddTrace(te)

		if step.Expect == nil {
			if err != nil {
				result.AddError(fmt.Sprintf("steps[%d]: unexpected error: %v", i, err))
			}
			continue
		}
		if msg := checkExpect(i, *step.Expect, te); msg != "" {
			result.AddError(msg)
		}

		h.logger.Info("step completed",
			"step", i,
			"kind", te.Kind,
			"outcome", te.Outcome,
			"code", te.Code,
		)
	}
}

func checkExpect(i int, e ExpectClause, te TraceEvent) string {
	got := describe(te.Outcome, te.Code)
	want := describe(e.Outcome, e.Code)
	if got != want {
		return fmt.Sprintf("steps[%d] (%s): expected %s, got %s", i, te.Kind, want, got)
	}
	return ""
}

func describe(outcome, code string) string {
	if code != "" {
		return "code " + code
	}
	return "outcome " + outcome
}
