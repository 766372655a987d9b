package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/roach88/nomindex/internal/chain"
	"github.com/roach88/nomindex/internal/entity"
)

const registrationColumns = `id, domain, registration_date, expiry_date, registrant, label_name, cost::text`

// Account returns the account with the given id.
func (s *Store) Account(ctx context.Context, id string) (entity.Account, bool, error) {
	var a entity.Account
	err := s.pool.QueryRow(ctx, `SELECT id FROM accounts WHERE id = $1`, id).Scan(&a.ID)
	if isNoRows(err) {
		return entity.Account{}, false, nil
	}
	if err != nil {
		return entity.Account{}, false, fmt.Errorf("read account %s: %w", id, err)
	}
	return a, true, nil
}

// Domain returns the domain with the given id.
func (s *Store) Domain(ctx context.Context, id string) (entity.Domain, bool, error) {
	return readDomain(ctx, s.pool, id)
}

// Registration returns the registration with the given id.
func (s *Store) Registration(ctx context.Context, id string) (entity.Registration, bool, error) {
	return readRegistration(ctx, s.pool, id)
}

// History returns the audit records of one registration ordered by block
// then id.
func (s *Store) History(ctx context.Context, registrationID string) (entity.History, error) {
	const clause = `WHERE registration = $1 ORDER BY block_number ASC, id COLLATE "C" ASC`
	var (
		h   entity.History
		err error
	)
	if h.Registered, err = readNameRegistered(ctx, s.pool, clause, registrationID); err != nil {
		return h, err
	}
	if h.Renewed, err = readNameRenewed(ctx, s.pool, clause, registrationID); err != nil {
		return h, err
	}
	if h.Transferred, err = readNameTransferred(ctx, s.pool, clause, registrationID); err != nil {
		return h, err
	}
	return h, nil
}

// Checkpoint returns the position of the last applied event.
func (s *Store) Checkpoint(ctx context.Context) (entity.Checkpoint, bool, error) {
	return readCheckpoint(ctx, s.pool, "")
}

// Journal returns up to limit entries with seq > afterSeq. A limit of zero
// or less returns every remaining entry.
func (s *Store) Journal(ctx context.Context, afterSeq int64, limit int) ([]entity.JournalEntry, error) {
	query := `
		SELECT seq, event_id, kind, block_number, log_index, tx_hash, payload, run_id
		FROM journal WHERE seq > $1 ORDER BY seq ASC`
	args := []any{afterSeq}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("read journal: %w", err)
	}
	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.JournalEntry, error) {
		var (
			e             entity.JournalEntry
			kind, payload string
			block, index  int64
		)
		if err := row.Scan(&e.Seq, &e.EventID, &kind, &block, &index, &e.TxHash, &payload, &e.RunID); err != nil {
			return e, err
		}
		e.Kind = chain.Kind(kind)
		e.Position = chain.Position{Block: uint64(block), LogIndex: uint(index)}
		e.Payload = []byte(payload)
		return e, nil
	})
	if err != nil {
		return nil, fmt.Errorf("read journal: %w", err)
	}
	if entries == nil {
		entries = []entity.JournalEntry{}
	}
	return entries, nil
}

// Snapshot reads every entity and audit record ordered by id inside one
// repeatable-read transaction.
func (s *Store) Snapshot(ctx context.Context) (entity.Snapshot, error) {
	snap := entity.NewSnapshot()
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return snap, fmt.Errorf("snapshot: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	const byID = `ORDER BY id COLLATE "C" ASC`

	rows, err := tx.Query(ctx, `SELECT id FROM accounts `+byID)
	if err != nil {
		return snap, fmt.Errorf("snapshot accounts: %w", err)
	}
	accounts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.Account, error) {
		var a entity.Account
		return a, row.Scan(&a.ID)
	})
	if err != nil {
		return snap, fmt.Errorf("snapshot accounts: %w", err)
	}
	snap.Accounts = append(snap.Accounts, accounts...)

	rows, err = tx.Query(ctx, `SELECT id, label_name, name FROM domains `+byID)
	if err != nil {
		return snap, fmt.Errorf("snapshot domains: %w", err)
	}
	domains, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.Domain, error) {
		var d entity.Domain
		return d, row.Scan(&d.ID, &d.LabelName, &d.Name)
	})
	if err != nil {
		return snap, fmt.Errorf("snapshot domains: %w", err)
	}
	snap.Domains = append(snap.Domains, domains...)

	rows, err = tx.Query(ctx, `SELECT `+registrationColumns+` FROM registrations `+byID)
	if err != nil {
		return snap, fmt.Errorf("snapshot registrations: %w", err)
	}
	regs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.Registration, error) {
		return scanRegistration(row)
	})
	if err != nil {
		return snap, fmt.Errorf("snapshot registrations: %w", err)
	}
	snap.Registrations = append(snap.Registrations, regs...)

	if snap.NameRegistered, err = readNameRegistered(ctx, tx, byID); err != nil {
		return snap, err
	}
	if snap.NameRenewed, err = readNameRenewed(ctx, tx, byID); err != nil {
		return snap, err
	}
	if snap.NameTransferred, err = readNameTransferred(ctx, tx, byID); err != nil {
		return snap, err
	}
	return snap, nil
}

func readCheckpoint(ctx context.Context, q queryer, suffix string) (entity.Checkpoint, bool, error) {
	var (
		cp           entity.Checkpoint
		block, index int64
	)
	err := q.QueryRow(ctx, `SELECT block_number, log_index, event_id FROM checkpoint WHERE id = 1`+suffix).
		Scan(&block, &index, &cp.EventID)
	if isNoRows(err) {
		return entity.Checkpoint{}, false, nil
	}
	if err != nil {
		return entity.Checkpoint{}, false, fmt.Errorf("read checkpoint: %w", err)
	}
	cp.Position = chain.Position{Block: uint64(block), LogIndex: uint(index)}
	return cp, true, nil
}

func readDomain(ctx context.Context, q queryer, id string) (entity.Domain, bool, error) {
	var d entity.Domain
	err := q.QueryRow(ctx, `SELECT id, label_name, name FROM domains WHERE id = $1`, id).
		Scan(&d.ID, &d.LabelName, &d.Name)
	if isNoRows(err) {
		return entity.Domain{}, false, nil
	}
	if err != nil {
		return entity.Domain{}, false, fmt.Errorf("read domain %s: %w", id, err)
	}
	return d, true, nil
}

func readRegistration(ctx context.Context, q queryer, id string) (entity.Registration, bool, error) {
	reg, err := scanRegistration(q.QueryRow(ctx, `SELECT `+registrationColumns+` FROM registrations WHERE id = $1`, id))
	if isNoRows(err) {
		return entity.Registration{}, false, nil
	}
	if err != nil {
		return entity.Registration{}, false, fmt.Errorf("read registration %s: %w", id, err)
	}
	return reg, true, nil
}

func scanRegistration(row pgx.Row) (entity.Registration, error) {
	var (
		reg             entity.Registration
		regDate, expiry int64
		cost            *string
	)
	if err := row.Scan(&reg.ID, &reg.Domain, &regDate, &expiry, &reg.Registrant, &reg.LabelName, &cost); err != nil {
		return entity.Registration{}, err
	}
	reg.RegistrationDate = uint64(regDate)
	reg.ExpiryDate = uint64(expiry)
	c, err := parseCost(cost)
	if err != nil {
		return entity.Registration{}, err
	}
	reg.Cost = c
	return reg, nil
}

func readNameRegistered(ctx context.Context, q queryer, clause string, args ...any) ([]entity.NameRegistered, error) {
	rows, err := q.Query(ctx, `
		SELECT id, registration, block_number, transaction_id, registrant, expiry_date
		FROM name_registered `+clause, args...)
	if err != nil {
		return nil, fmt.Errorf("read name_registered: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.NameRegistered, error) {
		var (
			e             entity.NameRegistered
			block, expiry int64
		)
		err := row.Scan(&e.ID, &e.Registration, &block, &e.TransactionID, &e.Registrant, &expiry)
		e.BlockNumber, e.ExpiryDate = uint64(block), uint64(expiry)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("read name_registered: %w", err)
	}
	if out == nil {
		out = []entity.NameRegistered{}
	}
	return out, nil
}

func readNameRenewed(ctx context.Context, q queryer, clause string, args ...any) ([]entity.NameRenewed, error) {
	rows, err := q.Query(ctx, `
		SELECT id, registration, block_number, transaction_id, expiry_date
		FROM name_renewed `+clause, args...)
	if err != nil {
		return nil, fmt.Errorf("read name_renewed: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.NameRenewed, error) {
		var (
			e             entity.NameRenewed
			block, expiry int64
		)
		err := row.Scan(&e.ID, &e.Registration, &block, &e.TransactionID, &expiry)
		e.BlockNumber, e.ExpiryDate = uint64(block), uint64(expiry)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("read name_renewed: %w", err)
	}
	if out == nil {
		out = []entity.NameRenewed{}
	}
	return out, nil
}

func readNameTransferred(ctx context.Context, q queryer, clause string, args ...any) ([]entity.NameTransferred, error) {
	rows, err := q.Query(ctx, `
		SELECT id, registration, block_number, transaction_id, new_owner
		FROM name_transferred `+clause, args...)
	if err != nil {
		return nil, fmt.Errorf("read name_transferred: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.NameTransferred, error) {
		var (
			e     entity.NameTransferred
			block int64
		)
		err := row.Scan(&e.ID, &e.Registration, &block, &e.TransactionID, &e.NewOwner)
		e.BlockNumber = uint64(block)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("read name_transferred: %w", err)
	}
	if out == nil {
		out = []entity.NameTransferred{}
	}
	return out, nil
}
