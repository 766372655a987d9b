package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/nomindex/internal/chain"
	"github.com/roach88/nomindex/internal/entity"
)

// Journal returns up to limit entries with seq greater than afterSeq,
// ordered by seq. A limit <= 0 returns every remaining entry.
func (s *Store) Journal(ctx context.Context, afterSeq int64, limit int) ([]entity.JournalEntry, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, event_id, kind, block_number, log_index, tx_hash, payload, run_id
		FROM journal
		WHERE seq > ?
		ORDER BY seq ASC
		LIMIT ?
	`, afterSeq, limit)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	entries := []entity.JournalEntry{}
	for rows.Next() {
		var (
			e       entity.JournalEntry
			kind    string
			payload string
		)
		if err := rows.Scan(&e.Seq, &e.EventID, &kind, &e.Position.Block, &e.Position.LogIndex, &e.TxHash, &payload, &e.RunID); err != nil {
			return nil, fmt.Errorf("scan journal: %w", err)
		}
		e.Kind = chain.Kind(kind)
		e.Payload = []byte(payload)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journal: %w", err)
	}
	return entries, nil
}

// Snapshot reads every entity and audit record ordered by id.
func (s *Store) Snapshot(ctx context.Context) (entity.Snapshot, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return entity.Snapshot{}, fmt.Errorf("snapshot: begin tx: %w", err)
	}
	defer tx.Rollback()

	snap := entity.NewSnapshot()

	rows, err := tx.QueryContext(ctx, `SELECT id FROM accounts ORDER BY id COLLATE BINARY ASC`)
	if err != nil {
		return snap, fmt.Errorf("snapshot accounts: %w", err)
	}
	for rows.Next() {
		var a entity.Account
		if err := rows.Scan(&a.ID); err != nil {
			rows.Close()
			return snap, fmt.Errorf("snapshot accounts: %w", err)
		}
		snap.Accounts = append(snap.Accounts, a)
	}
	if err := closeRows(rows); err != nil {
		return snap, fmt.Errorf("snapshot accounts: %w", err)
	}

	rows, err = tx.QueryContext(ctx, `SELECT id, label_name, name FROM domains ORDER BY id COLLATE BINARY ASC`)
	if err != nil {
		return snap, fmt.Errorf("snapshot domains: %w", err)
	}
	for rows.Next() {
		var (
			d               entity.Domain
			labelName, name sql.NullString
		)
		if err := rows.Scan(&d.ID, &labelName, &name); err != nil {
			rows.Close()
			return snap, fmt.Errorf("snapshot domains: %w", err)
		}
		d.LabelName = stringPtr(labelName)
		d.Name = stringPtr(name)
		snap.Domains = append(snap.Domains, d)
	}
	if err := closeRows(rows); err != nil {
		return snap, fmt.Errorf("snapshot domains: %w", err)
	}

	rows, err = tx.QueryContext(ctx, `
		SELECT id, domain, registration_date, expiry_date, registrant, label_name, cost
		FROM registrations ORDER BY id COLLATE BINARY ASC
	`)
	if err != nil {
		return snap, fmt.Errorf("snapshot registrations: %w", err)
	}
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			rows.Close()
			return snap, fmt.Errorf("snapshot registrations: %w", err)
		}
		snap.Registrations = append(snap.Registrations, reg)
	}
	if err := closeRows(rows); err != nil {
		return snap, fmt.Errorf("snapshot registrations: %w", err)
	}

	const byID = `ORDER BY id COLLATE BINARY ASC`
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

func closeRows(rows *sql.Rows) error {
	err := rows.Err()
	if cerr := rows.Close(); err == nil {
		err = cerr
	}
	return err
}
