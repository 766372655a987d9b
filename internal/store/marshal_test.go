package store

import (
	"database/sql"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCostColumn_Uint256(t *testing.T) {
	max := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

	col := costColumn(max)
	require.True(t, col.Valid)

	back, err := parseCost(col)
	require.NoError(t, err)
	assert.Equal(t, 0, max.Cmp(back))
}

func TestCostColumn_Null(t *testing.T) {
	assert.False(t, costColumn(nil).Valid)

	back, err := parseCost(sql.NullString{})
	require.NoError(t, err)
	assert.Nil(t, back)
}

func TestParseCost_Invalid(t *testing.T) {
	_, err := parseCost(sql.NullString{String: "1e18", Valid: true})
	assert.Error(t, err)
}

func TestNullString(t *testing.T) {
	assert.False(t, nullString(nil).Valid)
	assert.Nil(t, stringPtr(sql.NullString{}))

	s := "alice"
	ns := nullString(&s)
	assert.Equal(t, "alice", *stringPtr(ns))
}
