package resolve_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/roach88/nomindex/internal/namehash"
	"github.com/roach88/nomindex/internal/resolve"
	"github.com/roach88/nomindex/internal/resolve/mocks"
)

func TestCached_HitsSkipBackend(t *testing.T) {
	ctrl := gomock.NewController(t)
	next := mocks.NewMockNameResolver(ctrl)
	label := namehash.LabelHash("alice")

	next.EXPECT().NameByHash(gomock.Any(), label).Return("alice", true, nil).Times(1)

	var results []string
	c, err := resolve.NewCached(next, 8, func(r string) { results = append(results, r) })
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		name, ok, err := c.NameByHash(context.Background(), label)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "alice", name)
	}
	assert.Equal(t, []string{"found", "cached", "cached"}, results)
	assert.Equal(t, 1, c.Len())
}

func TestCached_MissesNotCached(t *testing.T) {
	ctrl := gomock.NewController(t)
	next := mocks.NewMockNameResolver(ctrl)
	label := namehash.LabelHash("bob")

	gomock.InOrder(
		next.EXPECT().NameByHash(gomock.Any(), label).Return("", false, nil),
		next.EXPECT().NameByHash(gomock.Any(), label).Return("bob", true, nil),
	)

	c, err := resolve.NewCached(next, 8, nil)
	require.NoError(t, err)

	_, ok, err := c.NameByHash(context.Background(), label)
	require.NoError(t, err)
	assert.False(t, ok)

	name, ok, err := c.NameByHash(context.Background(), label)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "bob", name)
}

func TestCached_ErrorPropagates(t *testing.T) {
	ctrl := gomock.NewController(t)
	next := mocks.NewMockNameResolver(ctrl)
	boom := errors.New("redis down")

	next.EXPECT().NameByHash(gomock.Any(), gomock.Any()).Return("", false, boom)

	var results []string
	c, err := resolve.NewCached(next, 0, func(r string) { results = append(results, r) })
	require.NoError(t, err)

	_, _, err = c.NameByHash(context.Background(), namehash.LabelHash("x"))
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"error"}, results)
	assert.Equal(t, 0, c.Len())
}

func TestCached_Eviction(t *testing.T) {
	c, err := resolve.NewCached(resolve.NewStatic("a", "b", "c"), 2, nil)
	require.NoError(t, err)
	ctx := context.Background()

	for _, l := range []string{"a", "b", "c"} {
		_, ok, err := c.NameByHash(ctx, namehash.LabelHash(l))
		require.NoError(t, err)
		require.True(t, ok)
	}
	assert.Equal(t, 2, c.Len())
}
