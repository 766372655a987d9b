// Package postgres is the PostgreSQL implementation of the entity store.
// It has the same semantics as the SQLite store and is meant for
// deployments that share the projection with other readers.
package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"math/big"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/roach88/nomindex/internal/entity"
)

//go:embed schema.sql
var schemaSQL string

// Store persists the projection in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects to dsn and applies the schema.
func Open(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close releases the pool.
func (s *Store) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Reset truncates every table. Used by tests and by replay into a
// scratch database.
func (s *Store) Reset(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		TRUNCATE name_registered, name_renewed, name_transferred,
			registrations, domains, accounts, journal, checkpoint
		RESTART IDENTITY
	`)
	if err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	return nil
}

// queryer is satisfied by *pgxpool.Pool and pgx.Tx.
type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// costText renders a cost for the NUMERIC column. pgx encodes a decimal
// string into NUMERIC without loss.
func costText(c *big.Int) *string {
	if c == nil {
		return nil
	}
	s := c.String()
	return &s
}

func parseCost(s *string) (*big.Int, error) {
	if s == nil {
		return nil, nil
	}
	c, ok := new(big.Int).SetString(*s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid cost %q", *s)
	}
	return c, nil
}

var (
	_ entity.Store  = (*Store)(nil)
	_ entity.Reader = (*Store)(nil)
)
