package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/roach88/nomindex/internal/chain"
	"github.com/roach88/nomindex/internal/entity"
)

// createTestStore creates a new temp-dir store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// testEntry builds a journal entry at (block, logIndex).
func testEntry(block uint64, logIndex uint) entity.JournalEntry {
	tx := fmt.Sprintf("0x%064x", block)
	return entity.JournalEntry{
		EventID:  fmt.Sprintf("%s:%d", tx, logIndex),
		Kind:     chain.KindNameRegistered,
		Position: chain.Position{Block: block, LogIndex: logIndex},
		TxHash:   tx,
		Payload:  []byte(`{}`),
		RunID:    "test-run",
	}
}

// register applies an entry that creates account owner and registration id.
func register(t *testing.T, s *Store, entry entity.JournalEntry, id, owner string, expiry uint64) {
	t.Helper()
	err := s.Apply(context.Background(), entry, func(repo entity.Repository) error {
		ctx := context.Background()
		if err := repo.EnsureAccount(ctx, owner); err != nil {
			return err
		}
		if err := repo.SaveRegistration(ctx, entity.Registration{
			ID:               id,
			Domain:           "0xdomain-" + id,
			RegistrationDate: entry.Position.Block * 10,
			ExpiryDate:       expiry,
			Registrant:       owner,
		}); err != nil {
			return err
		}
		return repo.AppendNameRegistered(ctx, entity.NameRegistered{
			ID:            entry.EventID,
			Registration:  id,
			BlockNumber:   entry.Position.Block,
			TransactionID: entry.TxHash,
			Registrant:    owner,
			ExpiryDate:    expiry,
		})
	})
	if err != nil {
		t.Fatalf("register %s: %v", id, err)
	}
}
