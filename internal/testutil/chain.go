package testutil

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/roach88/nomindex/internal/chain"
	"github.com/roach88/nomindex/internal/namehash"
)

// TxHash returns a deterministic transaction hash for n.
func TxHash(n uint64) common.Hash {
	return common.BigToHash(new(big.Int).SetUint64(n))
}

// Address returns a deterministic address for n.
func Address(n uint64) common.Address {
	return common.BigToAddress(new(big.Int).SetUint64(n))
}

// TokenID returns the registrar token id for a plain label.
func TokenID(label string) *big.Int {
	return namehash.TokenIDFromLabel(namehash.LabelHash(label))
}

// Chain hands out events at increasing positions. Every event in a block
// shares the block's transaction hash and gets the next log index.
//
// Thread-safety: not safe for concurrent use.
type Chain struct {
	Block     uint64
	Timestamp uint64
	logIndex  uint
}

// NewChain starts at the given block and timestamp.
func NewChain(block, timestamp uint64) *Chain {
	return &Chain{Block: block, Timestamp: timestamp}
}

// Mine advances by blocks and seconds and resets the log index.
func (c *Chain) Mine(blocks, seconds uint64) *Chain {
	c.Block += blocks
	c.Timestamp += seconds
	c.logIndex = 0
	return c
}

// Next returns the log for the next event.
func (c *Chain) Next() chain.Log {
	l := chain.Log{
		BlockNumber:    c.Block,
		BlockTimestamp: c.Timestamp,
		TxHash:         TxHash(c.Block),
		LogIndex:       c.logIndex,
	}
	c.logIndex++
	return l
}

func (c *Chain) Register(owner common.Address, id *big.Int, expires uint64) chain.NameRegistered {
	return chain.NameRegistered{Log: c.Next(), Owner: owner, ID: id, Expires: expires}
}

func (c *Chain) Renew(id *big.Int, expires uint64) chain.NameRenewed {
	return chain.NameRenewed{Log: c.Next(), ID: id, Expires: expires}
}

func (c *Chain) Transfer(from, to common.Address, id *big.Int) chain.Transfer {
	return chain.Transfer{Log: c.Next(), From: from, To: to, TokenID: id}
}

func (c *Chain) ControllerRegister(name string, cost int64) chain.ControllerNameRegistered {
	return chain.ControllerNameRegistered{Log: c.Next(), Label: namehash.LabelHash(name), Name: name, Cost: big.NewInt(cost)}
}

func (c *Chain) ControllerRenew(name string, cost int64) chain.ControllerNameRenewed {
	return chain.ControllerNameRenewed{Log: c.Next(), Label: namehash.LabelHash(name), Name: name, Cost: big.NewInt(cost)}
}
