package projector

// Outcome describes how an event was handled when no error occurred.
type Outcome string

const (
	// OutcomeApplied means the event's writes were committed.
	OutcomeApplied Outcome = "applied"

	// OutcomeTolerated means the referenced registration does not exist;
	// only the writes that do not depend on it were committed.
	OutcomeTolerated Outcome = "tolerated"

	// OutcomeDuplicate means the event id was already journaled and
	// nothing was written.
	OutcomeDuplicate Outcome = "duplicate"
)
