package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/nomindex/internal/entity"
)

// Apply claims entry in the journal and runs fn with a repository bound to
// the same transaction.
//
// The order inside the transaction is:
//  1. reject a journaled event id (entity.ErrDuplicateEvent)
//  2. reject a position at or before the checkpoint (entity.ErrOutOfOrder)
//  3. insert the journal row
//  4. fn
//  5. advance the checkpoint
//
// Nothing is visible to readers unless every step succeeds.
func (s *Store) Apply(ctx context.Context, entry entity.JournalEntry, fn func(entity.Repository) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("apply %s: begin tx: %w", entry.EventID, err)
	}
	defer tx.Rollback() // No-op if committed

	var seen int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM journal WHERE event_id = ?`, entry.EventID).Scan(&seen)
	if err != nil {
		return fmt.Errorf("apply %s: check journal: %w", entry.EventID, err)
	}
	if seen > 0 {
		return entity.ErrDuplicateEvent
	}

	cp, ok, err := readCheckpoint(ctx, tx)
	if err != nil {
		return fmt.Errorf("apply %s: %w", entry.EventID, err)
	}
	if ok && !cp.Position.Less(entry.Position) {
		return fmt.Errorf("%w: %s at %s, checkpoint %s", entity.ErrOutOfOrder, entry.EventID, entry.Position, cp.Position)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO journal (event_id, kind, block_number, log_index, tx_hash, payload, run_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		entry.EventID,
		string(entry.Kind),
		entry.Position.Block,
		entry.Position.LogIndex,
		entry.TxHash,
		string(entry.Payload),
		entry.RunID,
	)
	if err != nil {
		return fmt.Errorf("apply %s: insert journal: %w", entry.EventID, err)
	}

	if err := fn(&txRepository{tx: tx}); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO checkpoint (id, block_number, log_index, event_id)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			block_number = excluded.block_number,
			log_index = excluded.log_index,
			event_id = excluded.event_id
	`, entry.Position.Block, entry.Position.LogIndex, entry.EventID)
	if err != nil {
		return fmt.Errorf("apply %s: advance checkpoint: %w", entry.EventID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("apply %s: commit: %w", entry.EventID, err)
	}
	return nil
}

// txRepository implements entity.Repository inside one Apply transaction.
type txRepository struct {
	tx *sql.Tx
}

func (r *txRepository) EnsureAccount(ctx context.Context, id string) error {
	_, err := r.tx.ExecContext(ctx, `INSERT INTO accounts (id) VALUES (?) ON CONFLICT(id) DO NOTHING`, id)
	if err != nil {
		return fmt.Errorf("ensure account %s: %w", id, err)
	}
	return nil
}

func (r *txRepository) GetOrCreateDomain(ctx context.Context, id string) (entity.Domain, error) {
	d, ok, err := readDomain(ctx, r.tx, id)
	if err != nil {
		return entity.Domain{}, err
	}
	if !ok {
		return entity.Domain{ID: id}, nil
	}
	return d, nil
}

func (r *txRepository) SaveDomain(ctx context.Context, d entity.Domain) error {
	_, err := r.tx.ExecContext(ctx, `
		INSERT INTO domains (id, label_name, name) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			label_name = excluded.label_name,
			name = excluded.name
	`, d.ID, nullString(d.LabelName), nullString(d.Name))
	if err != nil {
		return fmt.Errorf("save domain %s: %w", d.ID, err)
	}
	return nil
}

func (r *txRepository) GetRegistration(ctx context.Context, id string) (entity.Registration, bool, error) {
	return readRegistration(ctx, r.tx, id)
}

func (r *txRepository) SaveRegistration(ctx context.Context, reg entity.Registration) error {
	_, err := r.tx.ExecContext(ctx, `
		INSERT INTO registrations
		(id, domain, registration_date, expiry_date, registrant, label_name, cost)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			domain = excluded.domain,
			registration_date = excluded.registration_date,
			expiry_date = excluded.expiry_date,
			registrant = excluded.registrant,
			label_name = excluded.label_name,
			cost = excluded.cost
	`,
		reg.ID,
		reg.Domain,
		reg.RegistrationDate,
		reg.ExpiryDate,
		reg.Registrant,
		nullString(reg.LabelName),
		costColumn(reg.Cost),
	)
	if err != nil {
		return fmt.Errorf("save registration %s: %w", reg.ID, err)
	}
	return nil
}

func (r *txRepository) AppendNameRegistered(ctx context.Context, e entity.NameRegistered) error {
	_, err := r.tx.ExecContext(ctx, `
		INSERT INTO name_registered
		(id, registration, block_number, transaction_id, registrant, expiry_date)
		VALUES (?, ?, ?, ?, ?, ?)
	`, e.ID, e.Registration, e.BlockNumber, e.TransactionID, e.Registrant, e.ExpiryDate)
	if err != nil {
		return fmt.Errorf("append name registered %s: %w", e.ID, err)
	}
	return nil
}

func (r *txRepository) AppendNameRenewed(ctx context.Context, e entity.NameRenewed) error {
	_, err := r.tx.ExecContext(ctx, `
		INSERT INTO name_renewed
		(id, registration, block_number, transaction_id, expiry_date)
		VALUES (?, ?, ?, ?, ?)
	`, e.ID, e.Registration, e.BlockNumber, e.TransactionID, e.ExpiryDate)
	if err != nil {
		return fmt.Errorf("append name renewed %s: %w", e.ID, err)
	}
	return nil
}

func (r *txRepository) AppendNameTransferred(ctx context.Context, e entity.NameTransferred) error {
	_, err := r.tx.ExecContext(ctx, `
		INSERT INTO name_transferred
		(id, registration, block_number, transaction_id, new_owner)
		VALUES (?, ?, ?, ?, ?)
	`, e.ID, e.Registration, e.BlockNumber, e.TransactionID, e.NewOwner)
	if err != nil {
		return fmt.Errorf("append name transferred %s: %w", e.ID, err)
	}
	return nil
}

// isNoRows reports sql.ErrNoRows through wrapping.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

var _ entity.Store = (*Store)(nil)
var _ entity.Repository = (*txRepository)(nil)
