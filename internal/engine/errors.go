package engine

import (
	"errors"
	"fmt"
)

// HaltError reports the delivery that stopped the runner.
type HaltError struct {
	// Ref locates the delivery in its source.
	Ref string

	// EventID identifies the event, when it could be decoded.
	EventID string

	Err error
}

// Error implements the error interface.
func (e *HaltError) Error() string {
	if e.EventID != "" {
		return fmt.Sprintf("runner halted at %s (event=%s): %v", e.Ref, e.EventID, e.Err)
	}
	return fmt.Sprintf("runner halted at %s: %v", e.Ref, e.Err)
}

func (e *HaltError) Unwrap() error { return e.Err }

// IsHalt returns true if err stopped the runner on a delivery.
// Uses errors.As to handle wrapped errors.
func IsHalt(err error) bool {
	var he *HaltError
	return errors.As(err, &he)
}
