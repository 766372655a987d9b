package engine

import "fmt"

// Policy decides what the runner does with an event-level failure.
type Policy string

const (
	// PolicyHalt stops the runner on the first failing event.
	PolicyHalt Policy = "halt"

	// PolicySkip logs and counts skippable failures and moves on. The
	// skipped event is not journaled.
	PolicySkip Policy = "skip"
)

// ParsePolicy accepts "halt", "skip", or "" (halt).
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case "", PolicyHalt:
		return PolicyHalt, nil
	case PolicySkip:
		return PolicySkip, nil
	}
	return "", fmt.Errorf("unknown failure policy %q (want halt or skip)", s)
}
