package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/roach88/nomindex/internal/entity"
)

// Apply claims entry in the journal and runs fn in the same transaction.
// The checks and their order match the SQLite store.
func (s *Store) Apply(ctx context.Context, entry entity.JournalEntry, fn func(entity.Repository) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("apply %s: begin tx: %w", entry.EventID, err)
	}
	defer tx.Rollback(ctx) // No-op if committed

	var seen bool
	err = tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM journal WHERE event_id = $1)`, entry.EventID).Scan(&seen)
	if err != nil {
		return fmt.Errorf("apply %s: check journal: %w", entry.EventID, err)
	}
	if seen {
		return entity.ErrDuplicateEvent
	}

	// Lock the checkpoint row so concurrent writers serialize here.
	cp, ok, err := readCheckpoint(ctx, tx, ` FOR UPDATE`)
	if err != nil {
		return fmt.Errorf("apply %s: %w", entry.EventID, err)
	}
	if ok && !cp.Position.Less(entry.Position) {
		return fmt.Errorf("%w: %s at %s, checkpoint %s", entity.ErrOutOfOrder, entry.EventID, entry.Position, cp.Position)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO journal (event_id, kind, block_number, log_index, tx_hash, payload, run_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		entry.EventID,
		string(entry.Kind),
		int64(entry.Position.Block),
		int64(entry.Position.LogIndex),
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

	_, err = tx.Exec(ctx, `
		INSERT INTO checkpoint (id, block_number, log_index, event_id)
		VALUES (1, $1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET
			block_number = EXCLUDED.block_number,
			log_index = EXCLUDED.log_index,
			event_id = EXCLUDED.event_id
	`, int64(entry.Position.Block), int64(entry.Position.LogIndex), entry.EventID)
	if err != nil {
		return fmt.Errorf("apply %s: advance checkpoint: %w", entry.EventID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("apply %s: commit: %w", entry.EventID, err)
	}
	return nil
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) EnsureAccount(ctx context.Context, id string) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO accounts (id) VALUES ($1) ON CONFLICT (id) DO NOTHING`, id)
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
	_, err := r.tx.Exec(ctx, `
		INSERT INTO domains (id, label_name, name) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET
			label_name = EXCLUDED.label_name,
			name = EXCLUDED.name
	`, d.ID, d.LabelName, d.Name)
	if err != nil {
		return fmt.Errorf("save domain %s: %w", d.ID, err)
	}
	return nil
}

func (r *txRepository) GetRegistration(ctx context.Context, id string) (entity.Registration, bool, error) {
	return readRegistration(ctx, r.tx, id)
}

func (r *txRepository) SaveRegistration(ctx context.Context, reg entity.Registration) error {
	_, err := r.tx.Exec(ctx, `
		INSERT INTO registrations
		(id, domain, registration_date, expiry_date, registrant, label_name, cost)
		VALUES ($1, $2, $3, $4, $5, $6, $7::numeric)
		ON CONFLICT (id) DO UPDATE SET
			domain = EXCLUDED.domain,
			registration_date = EXCLUDED.registration_date,
			expiry_date = EXCLUDED.expiry_date,
			registrant = EXCLUDED.registrant,
			label_name = EXCLUDED.label_name,
			cost = EXCLUDED.cost
	`,
		reg.ID,
		reg.Domain,
		int64(reg.RegistrationDate),
		int64(reg.ExpiryDate),
		reg.Registrant,
		reg.LabelName,
		costText(reg.Cost),
	)
	if err != nil {
		return fmt.Errorf("save registration %s: %w", reg.ID, err)
	}
	return nil
}

func (r *txRepository) AppendNameRegistered(ctx context.Context, e entity.NameRegistered) error {
	_, err := r.tx.Exec(ctx, `
		INSERT INTO name_registered
		(id, registration, block_number, transaction_id, registrant, expiry_date)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, e.ID, e.Registration, int64(e.BlockNumber), e.TransactionID, e.Registrant, int64(e.ExpiryDate))
	if err != nil {
		return fmt.Errorf("append name registered %s: %w", e.ID, err)
	}
	return nil
}

func (r *txRepository) AppendNameRenewed(ctx context.Context, e entity.NameRenewed) error {
	_, err := r.tx.Exec(ctx, `
		INSERT INTO name_renewed
		(id, registration, block_number, transaction_id, expiry_date)
		VALUES ($1, $2, $3, $4, $5)
	`, e.ID, e.Registration, int64(e.BlockNumber), e.TransactionID, int64(e.ExpiryDate))
	if err != nil {
		return fmt.Errorf("append name renewed %s: %w", e.ID, err)
	}
	return nil
}

func (r *txRepository) AppendNameTransferred(ctx context.Context, e entity.NameTransferred) error {
	_, err := r.tx.Exec(ctx, `
		INSERT INTO name_transferred
		(id, registration, block_number, transaction_id, new_owner)
		VALUES ($1, $2, $3, $4, $5)
	`, e.ID, e.Registration, int64(e.BlockNumber), e.TransactionID, e.NewOwner)
	if err != nil {
		return fmt.Errorf("append name transferred %s: %w", e.ID, err)
	}
	return nil
}

var _ entity.Repository = (*txRepository)(nil)
