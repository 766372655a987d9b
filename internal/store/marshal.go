package store

import (
	"database/sql"
	"fmt"
	"math/big"
)

// nullString maps an optional string to a nullable column.
func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// costColumn stores a uint256 as decimal text; INTEGER cannot hold it.
func costColumn(c *big.Int) sql.NullString {
	if c == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: c.String(), Valid: true}
}

func parseCost(ns sql.NullString) (*big.Int, error) {
	if !ns.Valid {
		return nil, nil
	}
	c, ok := new(big.Int).SetString(ns.String, 10)
	if !ok {
		return nil, fmt.Errorf("invalid cost %q", ns.String)
	}
	return c, nil
}
