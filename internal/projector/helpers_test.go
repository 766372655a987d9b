package projector_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/nomindex/internal/entity"
	"github.com/roach88/nomindex/internal/namehash"
	"github.com/roach88/nomindex/internal/projector"
	"github.com/roach88/nomindex/internal/store"
)

func newStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func newProjector(t *testing.T, opts ...projector.Option) (*projector.Projector, *store.Store) {
	t.Helper()
	st := newStore(t)
	return projector.New(st, namehash.DefaultRoot, opts...), st
}

// countingStore counts domain writes so the change guard can be observed.
type countingStore struct {
	entity.Store
	domainSaves int
}

func (c *countingStore) Apply(ctx context.Context, entry entity.JournalEntry, fn func(entity.Repository) error) error {
	return c.Store.Apply(ctx, entry, func(repo entity.Repository) error {
		return fn(&countingRepo{Repository: repo, store: c})
	})
}

type countingRepo struct {
	entity.Repository
	store *countingStore
}

func (r *countingRepo) SaveDomain(ctx context.Context, d entity.Domain) error {
	r.store.domainSaves++
	return r.Repository.SaveDomain(ctx, d)
}

func mustRegistration(t *testing.T, st *store.Store, id string) entity.Registration {
	t.Helper()
	reg, ok, err := st.Registration(context.Background(), id)
	require.NoError(t, err)
	require.True(t, ok, "registration %s not found", id)
	return reg
}
