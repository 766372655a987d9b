package projector

import (
	"errors"
	"fmt"

	"github.com/roach88/nomindex/internal/chain"
)

// ProjectionError represents an event that could not be projected.
type ProjectionError struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// EventID identifies the failing event, when known.
	EventID string

	// Kind is the event kind, when known.
	Kind chain.Kind

	// Block is the block number of the event.
	Block uint64

	// Label is the hex label involved, if any.
	Label string

	// Err is the underlying cause.
	Err error
}

// ErrorCode categorizes projection errors.
type ErrorCode string

const (
	// ErrCodeMissingRecord indicates a handler required an entity that does
	// not exist.
	ErrCodeMissingRecord ErrorCode = "MISSING_REQUIRED_RECORD"

	// ErrCodeOutOfOrder indicates the event is not after the checkpoint.
	ErrCodeOutOfOrder ErrorCode = "OUT_OF_ORDER"

	// ErrCodeInvalidEvent indicates the event fields cannot be used.
	ErrCodeInvalidEvent ErrorCode = "INVALID_EVENT"

	// ErrCodeResolverFailure indicates the label resolver could not answer.
	ErrCodeResolverFailure ErrorCode = "RESOLVER_FAILURE"

	// ErrCodeStoreFailure indicates the store rejected the unit of work.
	ErrCodeStoreFailure ErrorCode = "STORE_FAILURE"
)

// Error implements the error interface.
func (e *ProjectionError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.EventID != "" {
		msg += fmt.Sprintf(" (event=%s, block=%d", e.EventID, e.Block)
		if e.Label != "" {
			msg += ", label=" + e.Label
		}
		msg += ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ProjectionError) Unwrap() error {
	return e.Err
}

func newError(code ErrorCode, ev chain.Event, msg string, err error) *ProjectionError {
	pe := &ProjectionError{Code: code, Message: msg, Err: err}
	if ev != nil {
		m := ev.Meta()
		pe.EventID = m.EventID()
		pe.Kind = ev.Kind()
		pe.Block = m.BlockNumber
	}
	return pe
}

// NewInvalidEventError wraps an envelope that failed to decode.
func NewInvalidEventError(err error) *ProjectionError {
	return &ProjectionError{Code: ErrCodeInvalidEvent, Message: "event cannot be decoded", Err: err}
}

func newMissingRecordError(ev chain.Event, record, label string) *ProjectionError {
	pe := newError(ErrCodeMissingRecord, ev, fmt.Sprintf("%s %s does not exist", record, label), nil)
	pe.Label = label
	return pe
}

// Code returns the error code of a ProjectionError, or "" for other errors.
func Code(err error) ErrorCode {
	var pe *ProjectionError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}

// IsMissingRecordError returns true if a required entity was absent.
// Uses errors.As to handle wrapped errors.
func IsMissingRecordError(err error) bool {
	return Code(err) == ErrCodeMissingRecord
}

// IsOutOfOrderError returns true if the event arrived behind the checkpoint.
func IsOutOfOrderError(err error) bool {
	return Code(err) == ErrCodeOutOfOrder
}

// IsInvalidEventError returns true if the event could not be decoded or
// its fields are out of range.
func IsInvalidEventError(err error) bool {
	return Code(err) == ErrCodeInvalidEvent
}

// IsSkippable reports whether err is confined to one event, so a host may
// log it and move on. Store and resolver failures are not skippable.
func IsSkippable(err error) bool {
	switch Code(err) {
	case ErrCodeMissingRecord, ErrCodeOutOfOrder, ErrCodeInvalidEvent:
		return true
	}
	return false
}
