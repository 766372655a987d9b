package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/nomindex/internal/chain"
)

func TestJournal_OrderAndPaging(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	register(t, s, testEntry(1, 0), "0x01", "0xa", 10)
	register(t, s, testEntry(2, 0), "0x02", "0xa", 20)
	register(t, s, testEntry(3, 0), "0x03", "0xb", 30)

	first, err := s.Journal(ctx, 0, 2)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, uint64(1), first[0].Position.Block)
	assert.Equal(t, uint64(2), first[1].Position.Block)
	assert.Equal(t, chain.KindNameRegistered, first[0].Kind)
	assert.Equal(t, "test-run", first[0].RunID)
	assert.Equal(t, []byte(`{}`), first[0].Payload)

	rest, err := s.Journal(ctx, first[1].Seq, 2)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, uint64(3), rest[0].Position.Block)

	none, err := s.Journal(ctx, rest[0].Seq, 2)
	require.NoError(t, err)
	assert.Empty(t, none)

	all, err := s.Journal(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestSnapshot_SortedByID(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	register(t, s, testEntry(1, 0), "0x03", "0xc", 10)
	register(t, s, testEntry(2, 0), "0x01", "0xa", 20)
	register(t, s, testEntry(3, 0), "0x02", "0xb", 30)

	snap, err := s.Snapshot(ctx)
	require.NoError(t, err)

	require.Len(t, snap.Registrations, 3)
	assert.Equal(t, "0x01", snap.Registrations[0].ID)
	assert.Equal(t, "0x02", snap.Registrations[1].ID)
	assert.Equal(t, "0x03", snap.Registrations[2].ID)
	assert.Equal(t, "0xa", snap.Accounts[0].ID)
	assert.Len(t, snap.NameRegistered, 3)
	assert.Empty(t, snap.Domains)
}

func TestSnapshot_DigestMatchesAcrossStores(t *testing.T) {
	ctx := context.Background()
	build := func(name string) string {
		s, err := Open(filepath.Join(t.TempDir(), name))
		require.NoError(t, err)
		defer s.Close()

		register(t, s, testEntry(1, 0), "0x01", "0xa", 10)
		register(t, s, testEntry(2, 4), "0x02", "0xb", 20)

		snap, err := s.Snapshot(ctx)
		require.NoError(t, err)
		digest, err := snap.Digest()
		require.NoError(t, err)
		return digest
	}

	assert.Equal(t, build("a.db"), build("b.db"))
}
