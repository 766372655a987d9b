package engine

import (
	"sync/atomic"

	"github.com/roach88/nomindex/internal/chain"
	"github.com/roach88/nomindex/internal/projector"
)

// Stats counts what the runner has done. Updated by the runner goroutine,
// read from anywhere.
type Stats struct {
	applied   atomic.Int64
	tolerated atomic.Int64
	duplicate atomic.Int64
	skipped   atomic.Int64
	failed    atomic.Int64
	batches   atomic.Int64
	last      atomic.Pointer[chain.Position]
}

// StatsSnapshot is a point-in-time copy of Stats.
type StatsSnapshot struct {
	Applied   int64           `json:"applied"`
	Tolerated int64           `json:"tolerated"`
	Duplicate int64           `json:"duplicate"`
	Skipped   int64           `json:"skipped"`
	Failed    int64           `json:"failed"`
	Batches   int64           `json:"batches"`
	Last      *chain.Position `json:"last_position,omitempty"`
}

// Total is the number of deliveries handled.
func (s StatsSnapshot) Total() int64 {
	return s.Applied + s.Tolerated + s.Duplicate + s.Skipped + s.Failed
}

func (s *Stats) record(outcome projector.Outcome, pos chain.Position) {
	switch outcome {
	case projector.OutcomeApplied:
		s.applied.Add(1)
	case projector.OutcomeTolerated:
		s.tolerated.Add(1)
	case projector.OutcomeDuplicate:
		s.duplicate.Add(1)
		return
	}
	s.last.Store(&pos)
}

// Snapshot copies the counters.
func (s *Stats) Snapshot() StatsSnapshot {
	snap := StatsSnapshot{
		Applied:   s.applied.Load(),
		Tolerated: s.tolerated.Load(),
		Duplicate: s.duplicate.Load(),
		Skipped:   s.skipped.Load(),
		Failed:    s.failed.Load(),
		Batches:   s.batches.Load(),
	}
	if last := s.last.Load(); last != nil {
		pos := *last
		snap.Last = &pos
	}
	return snap
}
