package chain

import (
	"math"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testTx    = "0x1111111111111111111111111111111111111111111111111111111111111111"
	testOwner = "0xabcdef0123456789abcdef0123456789abcdef01"
)

func TestDecode_NameRegistered(t *testing.T) {
	ev, err := Decode(Envelope{
		Kind:           KindNameRegistered,
		BlockNumber:    100,
		BlockTimestamp: 1000,
		TxHash:         testTx,
		LogIndex:       3,
		Params: map[string]string{
			"owner":   "0xAbCdEf0123456789aBcDeF0123456789AbCdEf01",
			"id":      "42",
			"expires": "2000",
		},
	})
	require.NoError(t, err)

	reg, ok := ev.(NameRegistered)
	require.True(t, ok)
	assert.Equal(t, KindNameRegistered, reg.Kind())
	assert.Equal(t, big.NewInt(42), reg.ID)
	assert.Equal(t, uint64(2000), reg.Expires)
	assert.Equal(t, common.HexToAddress("0xabcdef0123456789abcdef0123456789abcdef01"), reg.Owner)
	assert.Equal(t, testTx+":3", reg.EventID())
	assert.Equal(t, Position{Block: 100, LogIndex: 3}, reg.Position())
}

func TestDecode_HexIntegers(t *testing.T) {
	ev, err := Decode(Envelope{
		Kind:   KindNameRenewed,
		TxHash: testTx,
		Params: map[string]string{"id": "0x2a", "expires": "0x7d0"},
	})
	require.NoError(t, err)

	renew := ev.(NameRenewed)
	assert.Equal(t, big.NewInt(42), renew.ID)
	assert.Equal(t, uint64(2000), renew.Expires)
}

func TestDecode_Controller(t *testing.T) {
	label := "0x9c0257114eb9399a2985f8e75dad7600c5d89fe3824ffa99ec1c3eb8bf3b0501"
	ev, err := Decode(Envelope{
		Kind:   KindControllerNameRenewed,
		TxHash: testTx,
		Params: map[string]string{"label": label, "name": "alice", "cost": "1000000000000000000"},
	})
	require.NoError(t, err)

	c := ev.(ControllerNameRenewed)
	assert.Equal(t, common.HexToHash(label), c.Label)
	assert.Equal(t, "alice", c.Name)
	assert.Equal(t, "1000000000000000000", c.Cost.String())
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name  string
		env   Envelope
		field string
	}{
		{
			name: "unknown kind",
			env:  Envelope{Kind: "Approval", TxHash: testTx},
		},
		{
			name:  "bad tx hash",
			env:   Envelope{Kind: KindNameRenewed, TxHash: "0x12", Params: map[string]string{"id": "1", "expires": "2"}},
			field: "tx_hash",
		},
		{
			name:  "missing id",
			env:   Envelope{Kind: KindNameRenewed, TxHash: testTx, Params: map[string]string{"expires": "2"}},
			field: "id",
		},
		{
			name:  "negative id",
			env:   Envelope{Kind: KindNameRenewed, TxHash: testTx, Params: map[string]string{"id": "-1", "expires": "2"}},
			field: "id",
		},
		{
			name:  "bad address",
			env:   Envelope{Kind: KindTransfer, TxHash: testTx, Params: map[string]string{"from": "0x01", "to": "bob", "token_id": "1"}},
			field: "from",
		},
		{
			name:  "short label",
			env:   Envelope{Kind: KindControllerNameRegistered, TxHash: testTx, Params: map[string]string{"label": "0x2a", "name": "x", "cost": "1"}},
			field: "label",
		},
		{
			name:  "expiry overflow",
			env:   Envelope{Kind: KindNameRenewed, TxHash: testTx, Params: map[string]string{"id": "1", "expires": "18446744073709551616"}},
			field: "expires",
		},
		{
			name:  "expiry above int64",
			env:   Envelope{Kind: KindNameRegistered, TxHash: testTx, Params: map[string]string{"owner": testOwner, "id": "1", "expires": "9223372036854775808"}},
			field: "expires",
		},
		{
			name:  "block number above int64",
			env:   Envelope{Kind: KindNameRenewed, BlockNumber: 1 << 63, TxHash: testTx, Params: map[string]string{"id": "1", "expires": "2"}},
			field: "block_number",
		},
		{
			name:  "block timestamp above int64",
			env:   Envelope{Kind: KindTransfer, BlockTimestamp: math.MaxUint64, TxHash: testTx, Params: map[string]string{"from": testOwner, "to": testOwner, "token_id": "1"}},
			field: "block_timestamp",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.env)
			require.Error(t, err)

			var de *DecodeError
			require.ErrorAs(t, err, &de)
			assert.Equal(t, tt.field, de.Field)
		})
	}
}

func TestMarshal_CanonicalJournalForm(t *testing.T) {
	ev := Transfer{
		Log:     Log{BlockNumber: 7, BlockTimestamp: 70, TxHash: common.HexToHash(testTx), LogIndex: 1},
		From:    common.HexToAddress("0x0000000000000000000000000000000000000000"),
		To:      common.HexToAddress("0xAbCdEf0123456789aBcDeF0123456789AbCdEf01"),
		TokenID: big.NewInt(42),
	}

	data, err := Marshal(ev)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"kind": "Transfer",
		"block_number": 7,
		"block_timestamp": 70,
		"tx_hash": "`+testTx+`",
		"log_index": 1,
		"params": {
			"from": "0x0000000000000000000000000000000000000000",
			"to": "0xabcdef0123456789abcdef0123456789abcdef01",
			"token_id": "42"
		}
	}`, string(data))

	back, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, ev, back)
}

func TestDecode_MaxIntegerAccepted(t *testing.T) {
	ev, err := Decode(Envelope{
		Kind:        KindNameRenewed,
		BlockNumber: MaxInteger,
		TxHash:      testTx,
		Params:      map[string]string{"id": "1", "expires": "9223372036854775807"},
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxInt64), ev.(NameRenewed).Expires)
}

func TestCheckRange_TypedEvents(t *testing.T) {
	log := Log{TxHash: common.HexToHash(testTx)}

	err := CheckRange(NameRegistered{Log: log, ID: big.NewInt(1), Expires: 1 << 63})
	var de *DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "expires", de.Field)
	assert.Equal(t, KindNameRegistered, de.Kind)

	tooLate := log
	tooLate.BlockTimestamp = 1 << 63
	require.ErrorAs(t, CheckRange(ControllerNameRenewed{Log: tooLate, Cost: big.NewInt(1)}), &de)
	assert.Equal(t, "block_timestamp", de.Field)

	assert.NoError(t, CheckRange(NameRenewed{Log: log, ID: big.NewInt(1), Expires: MaxInteger}))
}

func TestMarshal_JournalsLabelName(t *testing.T) {
	name := "alice"
	ev := NameRegistered{
		Log:       Log{BlockNumber: 7, TxHash: common.HexToHash(testTx)},
		ID:        big.NewInt(42),
		Owner:     common.HexToAddress(testOwner),
		Expires:   2000,
		LabelName: &name,
	}

	data, err := Marshal(ev)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"label_name":"alice"`)

	back, err := Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, ev, back)

	ev.LabelName = nil
	data, err = Marshal(ev)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "label_name")
}

func TestUnmarshal_Garbage(t *testing.T) {
	_, err := Unmarshal([]byte("{not json"))
	var de *DecodeError
	require.ErrorAs(t, err, &de)
	assert.Contains(t, err.Error(), "decode envelope")
}

func TestPosition_Less(t *testing.T) {
	a := Position{Block: 1, LogIndex: 5}
	b := Position{Block: 2, LogIndex: 0}
	c := Position{Block: 2, LogIndex: 1}

	assert.True(t, a.Less(b))
	assert.True(t, b.Less(c))
	assert.False(t, c.Less(b))
	assert.False(t, b.Less(b))
	assert.Equal(t, "2/1", c.String())
}
