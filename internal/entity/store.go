package entity

import (
	"context"
	"errors"
)

var (
	// ErrDuplicateEvent is returned by Store.Apply when the event id has
	// already been journaled. Nothing is written.
	ErrDuplicateEvent = errors.New("event already applied")

	// ErrOutOfOrder is returned by Store.Apply when the event position is
	// not after the checkpoint. Nothing is written.
	ErrOutOfOrder = errors.New("event position not after checkpoint")
)

// Repository is the transaction-scoped view handed to Store.Apply callbacks.
type Repository interface {
	// EnsureAccount inserts the account if it does not exist.
	EnsureAccount(ctx context.Context, id string) error

	// GetOrCreateDomain returns the stored domain, or an unsaved empty
	// Domain with the given id.
	GetOrCreateDomain(ctx context.Context, id string) (Domain, error)
	SaveDomain(ctx context.Context, d Domain) error

	// GetRegistration reports whether the registration exists.
	GetRegistration(ctx context.Context, id string) (Registration, bool, error)
	SaveRegistration(ctx context.Context, r Registration) error

	AppendNameRegistered(ctx context.Context, e NameRegistered) error
	AppendNameRenewed(ctx context.Context, e NameRenewed) error
	AppendNameTransferred(ctx context.Context, e NameTransferred) error
}

// Store applies the writes of one event atomically.
type Store interface {
	// Apply claims entry in the journal and runs fn inside the same
	// transaction. Returns ErrDuplicateEvent or ErrOutOfOrder without
	// calling fn. An error from fn rolls back everything.
	Apply(ctx context.Context, entry JournalEntry, fn func(Repository) error) error
}

// Reader serves the projected state.
type Reader interface {
	Account(ctx context.Context, id string) (Account, bool, error)
	Domain(ctx context.Context, id string) (Domain, bool, error)
	Registration(ctx context.Context, id string) (Registration, bool, error)
	History(ctx context.Context, registrationID string) (History, error)
	Checkpoint(ctx context.Context) (Checkpoint, bool, error)

	// Journal returns up to limit entries with seq > afterSeq in seq order.
	Journal(ctx context.Context, afterSeq int64, limit int) ([]JournalEntry, error)
	Snapshot(ctx context.Context) (Snapshot, error)
}
