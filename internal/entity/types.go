package entity

import (
	"math/big"

	"github.com/roach88/nomindex/internal/chain"
)

// Account is an address that has owned a registration.
type Account struct {
	ID string `json:"id"`
}

// Domain is the name-level record keyed by namehash.
type Domain struct {
	ID        string  `json:"id"`
	LabelName *string `json:"label_name"`
	Name      *string `json:"name"`
}

// Registration is the registrar-level record keyed by hex(label).
type Registration struct {
	ID               string   `json:"id"`
	Domain           string   `json:"domain"`
	RegistrationDate uint64   `json:"registration_date"`
	ExpiryDate       uint64   `json:"expiry_date"`
	Registrant       string   `json:"registrant"`
	LabelName        *string  `json:"label_name"`
	Cost             *big.Int `json:"cost"`
}

// NameRegistered records a registration event.
type NameRegistered struct {
	ID            string `json:"id"`
	Registration  string `json:"registration"`
	BlockNumber   uint64 `json:"block_number"`
	TransactionID string `json:"transaction_id"`
	Registrant    string `json:"registrant"`
	ExpiryDate    uint64 `json:"expiry_date"`
}

// NameRenewed records a renewal event.
type NameRenewed struct {
	ID            string `json:"id"`
	Registration  string `json:"registration"`
	BlockNumber   uint64 `json:"block_number"`
	TransactionID string `json:"transaction_id"`
	ExpiryDate    uint64 `json:"expiry_date"`
}

// NameTransferred records a token transfer.
type NameTransferred struct {
	ID            string `json:"id"`
	Registration  string `json:"registration"`
	BlockNumber   uint64 `json:"block_number"`
	TransactionID string `json:"transaction_id"`
	NewOwner      string `json:"new_owner"`
}

// History is every audit record for one registration, each slice in
// block order.
type History struct {
	Registered  []NameRegistered  `json:"registered"`
	Renewed     []NameRenewed     `json:"renewed"`
	Transferred []NameTransferred `json:"transferred"`
}

// JournalEntry is the durable record of one applied event.
type JournalEntry struct {
	Seq      int64          `json:"seq"`
	EventID  string         `json:"event_id"`
	Kind     chain.Kind     `json:"kind"`
	Position chain.Position `json:"position"`
	TxHash   string         `json:"tx_hash"`
	Payload  []byte         `json:"-"`
	RunID    string         `json:"run_id"`
}

// Checkpoint is the position of the last applied event.
type Checkpoint struct {
	Position chain.Position `json:"position"`
	EventID  string         `json:"event_id"`
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string { return &s }
