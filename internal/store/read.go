package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/nomindex/internal/entity"
)

// queryer is satisfied by *sql.DB and *sql.Tx so reads work inside and
// outside a unit of work.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Account returns the account with the given id.
func (s *Store) Account(ctx context.Context, id string) (entity.Account, bool, error) {
	var a entity.Account
	err := s.db.QueryRowContext(ctx, `SELECT id FROM accounts WHERE id = ?`, id).Scan(&a.ID)
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
	return readDomain(ctx, s.db, id)
}

// Registration returns the registration with the given id.
func (s *Store) Registration(ctx context.Context, id string) (entity.Registration, bool, error) {
	return readRegistration(ctx, s.db, id)
}

// History returns the audit records of one registration ordered by block
// then id. Slices are empty, not nil, when there are no records.
func (s *Store) History(ctx context.Context, registrationID string) (entity.History, error) {
	h := entity.History{
		Registered:  []entity.NameRegistered{},
		Renewed:     []entity.NameRenewed{},
		Transferred: []entity.NameTransferred{},
	}

	reg, err := readNameRegistered(ctx, s.db, `WHERE registration = ? ORDER BY block_number ASC, id COLLATE BINARY ASC`, registrationID)
	if err != nil {
		return h, err
	}
	h.Registered = reg

	ren, err := readNameRenewed(ctx, s.db, `WHERE registration = ? ORDER BY block_number ASC, id COLLATE BINARY ASC`, registrationID)
	if err != nil {
		return h, err
	}
	h.Renewed = ren

	tr, err := readNameTransferred(ctx, s.db, `WHERE registration = ? ORDER BY block_number ASC, id COLLATE BINARY ASC`, registrationID)
	if err != nil {
		return h, err
	}
	h.Transferred = tr

	return h, nil
}

// Checkpoint returns the position of the last applied event.
func (s *Store) Checkpoint(ctx context.Context) (entity.Checkpoint, bool, error) {
	return readCheckpoint(ctx, s.db)
}

func readCheckpoint(ctx context.Context, q queryer) (entity.Checkpoint, bool, error) {
	var cp entity.Checkpoint
	err := q.QueryRowContext(ctx, `
		SELECT block_number, log_index, event_id FROM checkpoint WHERE id = 1
	`).Scan(&cp.Position.Block, &cp.Position.LogIndex, &cp.EventID)
	if isNoRows(err) {
		return entity.Checkpoint{}, false, nil
	}
	if err != nil {
		return entity.Checkpoint{}, false, fmt.Errorf("read checkpoint: %w", err)
	}
	return cp, true, nil
}

func readDomain(ctx context.Context, q queryer, id string) (entity.Domain, bool, error) {
	var (
		d         entity.Domain
		labelName sql.NullString
		name      sql.NullString
	)
	err := q.QueryRowContext(ctx, `
		SELECT id, label_name, name FROM domains WHERE id = ?
	`, id).Scan(&d.ID, &labelName, &name)
	if isNoRows(err) {
		return entity.Domain{}, false, nil
	}
	if err != nil {
		return entity.Domain{}, false, fmt.Errorf("read domain %s: %w", id, err)
	}
	d.LabelName = stringPtr(labelName)
	d.Name = stringPtr(name)
	return d, true, nil
}

func readRegistration(ctx context.Context, q queryer, id string) (entity.Registration, bool, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, domain, registration_date, expiry_date, registrant, label_name, cost
		FROM registrations WHERE id = ?
	`, id)
	reg, err := scanRegistration(row)
	if isNoRows(err) {
		return entity.Registration{}, false, nil
	}
	if err != nil {
		return entity.Registration{}, false, fmt.Errorf("read registration %s: %w", id, err)
	}
	return reg, true, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRegistration(row scanner) (entity.Registration, error) {
	var (
		reg       entity.Registration
		labelName sql.NullString
		cost      sql.NullString
	)
	err := row.Scan(
		&reg.ID,
		&reg.Domain,
		&reg.RegistrationDate,
		&reg.ExpiryDate,
		&reg.Registrant,
		&labelName,
		&cost,
	)
	if err != nil {
		return entity.Registration{}, err
	}
	reg.LabelName = stringPtr(labelName)
	reg.Cost, err = parseCost(cost)
	if err != nil {
		return entity.Registration{}, err
	}
	return reg, nil
}

func readNameRegistered(ctx context.Context, q queryer, clause string, args ...any) ([]entity.NameRegistered, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, registration, block_number, transaction_id, registrant, expiry_date
		FROM name_registered `+clause, args...)
	if err != nil {
		return nil, fmt.Errorf("query name_registered: %w", err)
	}
	defer rows.Close()

	out := []entity.NameRegistered{}
	for rows.Next() {
		var e entity.NameRegistered
		if err := rows.Scan(&e.ID, &e.Registration, &e.BlockNumber, &e.TransactionID, &e.Registrant, &e.ExpiryDate); err != nil {
			return nil, fmt.Errorf("scan name_registered: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate name_registered: %w", err)
	}
	return out, nil
}

func readNameRenewed(ctx context.Context, q queryer, clause string, args ...any) ([]entity.NameRenewed, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, registration, block_number, transaction_id, expiry_date
		FROM name_renewed `+clause, args...)
	if err != nil {
		return nil, fmt.Errorf("query name_renewed: %w", err)
	}
	defer rows.Close()

	out := []entity.NameRenewed{}
	for rows.Next() {
		var e entity.NameRenewed
		if err := rows.Scan(&e.ID, &e.Registration, &e.BlockNumber, &e.TransactionID, &e.ExpiryDate); err != nil {
			return nil, fmt.Errorf("scan name_renewed: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate name_renewed: %w", err)
	}
	return out, nil
}

func readNameTransferred(ctx context.Context, q queryer, clause string, args ...any) ([]entity.NameTransferred, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, registration, block_number, transaction_id, new_owner
		FROM name_transferred `+clause, args...)
	if err != nil {
		return nil, fmt.Errorf("query name_transferred: %w", err)
	}
	defer rows.Close()

	out := []entity.NameTransferred{}
	for rows.Next() {
		var e entity.NameTransferred
		if err := rows.Scan(&e.ID, &e.Registration, &e.BlockNumber, &e.TransactionID, &e.NewOwner); err != nil {
			return nil, fmt.Errorf("scan name_transferred: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate name_transferred: %w", err)
	}
	return out, nil
}
