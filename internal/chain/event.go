package chain

import (
	"fmt"
	"math"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
)

// Kind names an event type on the wire.
type Kind string

const (
	KindNameRegistered           Kind = "NameRegistered"
	KindNameRenewed              Kind = "NameRenewed"
	KindTransfer                 Kind = "Transfer"
	KindControllerNameRegistered Kind = "ControllerNameRegistered"
	KindControllerNameRenewed    Kind = "ControllerNameRenewed"
)

// Kinds lists every supported kind in a stable order.
var Kinds = []Kind{
	KindNameRegistered,
	KindNameRenewed,
	KindTransfer,
	KindControllerNameRegistered,
	KindControllerNameRenewed,
}

// Event is implemented by every decoded event type.
type Event interface {
	Kind() Kind
	Meta() Log
}

// Log carries the chain context shared by all events.
type Log struct {
	BlockNumber    uint64
	BlockTimestamp uint64
	TxHash         common.Hash
	LogIndex       uint
}

// Meta returns the log itself so embedding types satisfy Event.
func (l Log) Meta() Log { return l }

// EventID is the stable identifier for the log: txHash ":" logIndex.
func (l Log) EventID() string {
	return l.TxHash.Hex() + ":" + strconv.FormatUint(uint64(l.LogIndex), 10)
}

// Position returns the log's place in chain order.
func (l Log) Position() Position {
	return Position{Block: l.BlockNumber, LogIndex: l.LogIndex}
}

// NameRegistered is emitted by the base registrar when a token is minted.
type NameRegistered struct {
	Log
	ID      *big.Int
	Owner   common.Address
	Expires uint64

	// LabelName is the plaintext label once it has been resolved. Set on
	// journaled events so replay does not depend on a resolver.
	LabelName *string
}

func (NameRegistered) Kind() Kind { return KindNameRegistered }

// NameRenewed is emitted by the base registrar when expiry is extended.
type NameRenewed struct {
	Log
	ID      *big.Int
	Expires uint64
}

func (NameRenewed) Kind() Kind { return KindNameRenewed }

// Transfer is the ERC-721 transfer of a registration token.
type Transfer struct {
	Log
	From    common.Address
	To      common.Address
	TokenID *big.Int
}

func (Transfer) Kind() Kind { return KindTransfer }

// ControllerNameRegistered is emitted by the registrar controller and
// carries the plaintext name.
type ControllerNameRegistered struct {
	Log
	Label common.Hash
	Name  string
	Cost  *big.Int
}

func (ControllerNameRegistered) Kind() Kind { return KindControllerNameRegistered }

// ControllerNameRenewed is emitted by the registrar controller on renewal.
type ControllerNameRenewed struct {
	Log
	Label common.Hash
	Name  string
	Cost  *big.Int
}

func (ControllerNameRenewed) Kind() Kind { return KindControllerNameRenewed }

// MaxInteger is the largest block number, timestamp, log index or expiry
// the stores can hold. Both SQLite and Postgres keep them as signed 64-bit
// integers.
const MaxInteger = math.MaxInt64

// CheckRange reports the first integer field of ev that exceeds MaxInteger.
func CheckRange(ev Event) error {
	m := ev.Meta()
	check := func(field string, v uint64) error {
		if v > MaxInteger {
			return &DecodeError{Kind: ev.Kind(), Field: field, Err: fmt.Errorf("%d exceeds %d", v, uint64(MaxInteger))}
		}
		return nil
	}
	if err := check("block_number", m.BlockNumber); err != nil {
		return err
	}
	if err := check("block_timestamp", m.BlockTimestamp); err != nil {
		return err
	}
	if err := check("log_index", uint64(m.LogIndex)); err != nil {
		return err
	}
	switch e := ev.(type) {
	case NameRegistered:
		return check("expires", e.Expires)
	case NameRenewed:
		return check("expires", e.Expires)
	}
	return nil
}
