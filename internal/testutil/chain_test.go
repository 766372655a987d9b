package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChain_Positions(t *testing.T) {
	c := NewChain(100, 1000)

	a := c.Next()
	b := c.Next()
	assert.Equal(t, uint64(100), a.BlockNumber)
	assert.Equal(t, uint(0), a.LogIndex)
	assert.Equal(t, uint(1), b.LogIndex)
	assert.Equal(t, a.TxHash, b.TxHash)

	c.Mine(2, 24)
	d := c.Next()
	assert.Equal(t, uint64(102), d.BlockNumber)
	assert.Equal(t, uint64(1024), d.BlockTimestamp)
	assert.Equal(t, uint(0), d.LogIndex)
	assert.NotEqual(t, a.TxHash, d.TxHash)
	assert.True(t, b.Position().Less(d.Position()))
}

func TestAddress_Deterministic(t *testing.T) {
	assert.Equal(t, Address(7), Address(7))
	assert.NotEqual(t, Address(7), Address(8))
	assert.Equal(t, "0x0000000000000000000000000000000000000007", Address(7).Hex())
}

func TestFixedRunIDGenerator(t *testing.T) {
	assert.Equal(t, "test-run", NewFixedRunIDGenerator("").Generate())
	assert.Equal(t, "r1", NewFixedRunIDGenerator("r1").Generate())
}
