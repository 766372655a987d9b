package harness

import (
	"github.com/roach88/nomindex/internal/entity"
)

// TraceEvent is the observed result of one scenario step.
type TraceEvent struct {
	Step    int    `json:"step"`
	EventID string `json:"event_id,omitempty"`
	Kind    string `json:"kind"`
	Outcome string `json:"outcome,omitempty"`
	Code    string `json:"code,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expect clause and assertion matched.
	Pass bool `json:"pass"`

	// Trace holds one entry per step, in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains the mismatches. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// State is the final projected state.
	State entity.Snapshot `json:"state"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
		State:  entity.NewSnapshot(),
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace records the result of a step.
func (r *Result) AddTrace(ev TraceEvent) {
	r.Trace = append(r.Trace, ev)
}
