package entity

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// DomainSnapshot separates snapshot digests from other hashes.
const DomainSnapshot = "nomindex/snapshot/v1"

// Snapshot is the full projected state, every slice sorted by id.
// Two stores that applied the same events produce equal snapshots.
type Snapshot struct {
	Accounts        []Account         `json:"accounts"`
	Domains         []Domain          `json:"domains"`
	Registrations   []Registration    `json:"registrations"`
	NameRegistered  []NameRegistered  `json:"name_registered"`
	NameRenewed     []NameRenewed     `json:"name_renewed"`
	NameTransferred []NameTransferred `json:"name_transferred"`
}

// NewSnapshot returns a snapshot with non-nil empty slices so it encodes
// as [] rather than null.
func NewSnapshot() Snapshot {
	return Snapshot{
		Accounts:        []Account{},
		Domains:         []Domain{},
		Registrations:   []Registration{},
		NameRegistered:  []NameRegistered{},
		NameRenewed:     []NameRenewed{},
		NameTransferred: []NameTransferred{},
	}
}

// Counts returns the number of rows per table.
func (s Snapshot) Counts() map[string]int {
	return map[string]int{
		"accounts":         len(s.Accounts),
		"domains":          len(s.Domains),
		"registrations":    len(s.Registrations),
		"name_registered":  len(s.NameRegistered),
		"name_renewed":     len(s.NameRenewed),
		"name_transferred": len(s.NameTransferred),
	}
}

// Digest returns SHA256(DomainSnapshot || 0x00 || json(s)) in hex.
func (s Snapshot) Digest() (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("snapshot digest: %w", err)
	}
	h := sha256.New()
	h.Write([]byte(DomainSnapshot))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil)), nil
}
