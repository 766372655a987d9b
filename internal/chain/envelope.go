package chain

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Envelope is the transport form of an event. Params are strings so that
// uint256 values survive JSON and YAML unchanged.
type Envelope struct {
	Kind           Kind              `json:"kind" yaml:"kind"`
	BlockNumber    uint64            `json:"block_number" yaml:"block_number"`
	BlockTimestamp uint64            `json:"block_timestamp" yaml:"block_timestamp"`
	TxHash         string            `json:"tx_hash" yaml:"tx_hash"`
	LogIndex       uint              `json:"log_index" yaml:"log_index"`
	Params         map[string]string `json:"params" yaml:"params"`
}

// DecodeError reports an envelope that cannot be turned into an event.
type DecodeError struct {
	Kind  Kind
	Field string
	Err   error
}

func (e *DecodeError) Error() string {
	if e.Kind == "" {
		return fmt.Sprintf("decode envelope: %v", e.Err)
	}
	if e.Field == "" {
		return fmt.Sprintf("decode %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("decode %s: %s: %v", e.Kind, e.Field, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Decode validates an envelope and returns the typed event.
func Decode(env Envelope) (Event, error) {
	p := params{kind: env.Kind, values: env.Params}

	txHash, err := parseHash(env.TxHash)
	if err != nil {
		return nil, &DecodeError{Kind: env.Kind, Field: "tx_hash", Err: err}
	}
	log := Log{
		BlockNumber:    env.BlockNumber,
		BlockTimestamp: env.BlockTimestamp,
		TxHash:         txHash,
		LogIndex:       env.LogIndex,
	}

	var ev Event
	switch env.Kind {
	case KindNameRegistered:
		ev = NameRegistered{Log: log, Owner: p.address("owner"), ID: p.bigint("id"), Expires: p.uint64("expires"), LabelName: p.optional("label_name")}
	case KindNameRenewed:
		ev = NameRenewed{Log: log, ID: p.bigint("id"), Expires: p.uint64("expires")}
	case KindTransfer:
		ev = Transfer{Log: log, From: p.address("from"), To: p.address("to"), TokenID: p.bigint("token_id")}
	case KindControllerNameRegistered:
		ev = ControllerNameRegistered{Log: log, Label: p.hash("label"), Name: p.str("name"), Cost: p.bigint("cost")}
	case KindControllerNameRenewed:
		ev = ControllerNameRenewed{Log: log, Label: p.hash("label"), Name: p.str("name"), Cost: p.bigint("cost")}
	default:
		return nil, &DecodeError{Kind: env.Kind, Err: fmt.Errorf("unknown event kind %q", env.Kind)}
	}
	if p.err != nil {
		return nil, p.err
	}
	if err := CheckRange(ev); err != nil {
		return nil, err
	}
	return ev, nil
}

// Encode returns the canonical envelope for an event. Addresses are
// lowercase, integers decimal.
func Encode(ev Event) Envelope {
	m := ev.Meta()
	env := Envelope{
		Kind:           ev.Kind(),
		BlockNumber:    m.BlockNumber,
		BlockTimestamp: m.BlockTimestamp,
		TxHash:         m.TxHash.Hex(),
		LogIndex:       m.LogIndex,
	}
	switch e := ev.(type) {
	case NameRegistered:
		env.Params = map[string]string{
			"owner":   hexutil.Encode(e.Owner.Bytes()),
			"id":      e.ID.String(),
			"expires": strconv.FormatUint(e.Expires, 10),
		}
		if e.LabelName != nil {
			env.Params["label_name"] = *e.LabelName
		}
	case NameRenewed:
		env.Params = map[string]string{
			"id":      e.ID.String(),
			"expires": strconv.FormatUint(e.Expires, 10),
		}
	case Transfer:
		env.Params = map[string]string{
			"from":     hexutil.Encode(e.From.Bytes()),
			"to":       hexutil.Encode(e.To.Bytes()),
			"token_id": e.TokenID.String(),
		}
	case ControllerNameRegistered:
		env.Params = controllerParams(e.Label, e.Name, e.Cost)
	case ControllerNameRenewed:
		env.Params = controllerParams(e.Label, e.Name, e.Cost)
	}
	return env
}

func controllerParams(label common.Hash, name string, cost *big.Int) map[string]string {
	return map[string]string{
		"label": label.Hex(),
		"name":  name,
		"cost":  cost.String(),
	}
}

// Marshal encodes an event as canonical envelope JSON.
func Marshal(ev Event) ([]byte, error) {
	b, err := json.Marshal(Encode(ev))
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", ev.Kind(), err)
	}
	return b, nil
}

// Unmarshal decodes envelope JSON into an event.
func Unmarshal(data []byte) (Event, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, &DecodeError{Err: err}
	}
	return Decode(env)
}

// params collects the first parsing error so Decode can read every field
// in one pass.
type params struct {
	kind   Kind
	values map[string]string
	err    error
}

func (p *params) fail(field string, err error) {
	if p.err == nil {
		p.err = &DecodeError{Kind: p.kind, Field: field, Err: err}
	}
}

func (p *params) raw(field string) (string, bool) {
	v, ok := p.values[field]
	v = strings.TrimSpace(v)
	if !ok || v == "" {
		p.fail(field, fmt.Errorf("missing"))
		return "", false
	}
	return v, true
}

func (p *params) str(field string) string {
	v, ok := p.values[field]
	if !ok {
		p.fail(field, fmt.Errorf("missing"))
	}
	return v
}

// optional returns nil when field is absent.
func (p *params) optional(field string) *string {
	v, ok := p.values[field]
	if !ok {
		return nil
	}
	return &v
}

func (p *params) address(field string) common.Address {
	v, ok := p.raw(field)
	if !ok {
		return common.Address{}
	}
	if !common.IsHexAddress(v) {
		p.fail(field, fmt.Errorf("invalid address %q", v))
		return common.Address{}
	}
	return common.HexToAddress(v)
}

func (p *params) hash(field string) common.Hash {
	v, ok := p.raw(field)
	if !ok {
		return common.Hash{}
	}
	h, err := parseHash(v)
	if err != nil {
		p.fail(field, err)
	}
	return h
}

func (p *params) bigint(field string) *big.Int {
	v, ok := p.raw(field)
	if !ok {
		return nil
	}
	n, err := parseBig(v)
	if err != nil {
		p.fail(field, err)
		return nil
	}
	return n
}

func (p *params) uint64(field string) uint64 {
	n := p.bigint(field)
	if n == nil {
		return 0
	}
	if !n.IsInt64() {
		p.fail(field, fmt.Errorf("%s exceeds %d", n, uint64(MaxInteger)))
		return 0
	}
	return n.Uint64()
}

func parseHash(s string) (common.Hash, error) {
	b, err := hexutil.Decode(s)
	if err != nil {
		return common.Hash{}, fmt.Errorf("invalid hash %q: %w", s, err)
	}
	if len(b) != common.HashLength {
		return common.Hash{}, fmt.Errorf("invalid hash %q: want %d bytes, got %d", s, common.HashLength, len(b))
	}
	return common.BytesToHash(b), nil
}

func parseBig(s string) (*big.Int, error) {
	n := new(big.Int)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		if _, ok := n.SetString(s[2:], 16); !ok {
			return nil, fmt.Errorf("invalid hex integer %q", s)
		}
	} else if _, ok := n.SetString(s, 10); !ok {
		return nil, fmt.Errorf("invalid integer %q", s)
	}
	if n.Sign() < 0 {
		return nil, fmt.Errorf("negative integer %q", s)
	}
	return n, nil
}
