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

func TestNop(t *testing.T) {
	_, ok, err := resolve.Nop{}.NameByHash(context.Background(), namehash.LabelHash("alice"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStatic(t *testing.T) {
	r := resolve.NewStatic("alice", "bob")
	ctx := context.Background()

	name, ok, err := r.NameByHash(ctx, namehash.LabelHash("alice"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "alice", name)

	_, ok, err = r.NameByHash(ctx, namehash.LabelHash("carol"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLoadStatic(t *testing.T) {
	r, err := resolve.LoadStatic("testdata/labels.yaml")
	require.NoError(t, err)
	assert.Len(t, r, 3)

	name, ok, err := r.NameByHash(context.Background(), namehash.LabelHash("café"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "café", name)
}

func TestLoadStatic_UnknownField(t *testing.T) {
	_, err := resolve.LoadStatic("testdata/bad_labels.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "names")
}

func TestLoadStatic_MissingFile(t *testing.T) {
	_, err := resolve.LoadStatic("testdata/nope.yaml")
	assert.Error(t, err)
}

func TestChain_FirstAnswerWins(t *testing.T) {
	ctrl := gomock.NewController(t)
	second := mocks.NewMockNameResolver(ctrl)
	ctx := context.Background()

	chain := resolve.Chain{resolve.NewStatic("alice"), second}

	// Known to the first resolver: second is never asked.
	name, ok, err := chain.NameByHash(ctx, namehash.LabelHash("alice"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "alice", name)

	second.EXPECT().NameByHash(gomock.Any(), namehash.LabelHash("bob")).Return("bob", true, nil)
	name, ok, err = chain.NameByHash(ctx, namehash.LabelHash("bob"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "bob", name)
}

func TestChain_ErrorStops(t *testing.T) {
	ctrl := gomock.NewController(t)
	first := mocks.NewMockNameResolver(ctrl)
	boom := errors.New("down")

	first.EXPECT().NameByHash(gomock.Any(), gomock.Any()).Return("", false, boom)

	_, _, err := resolve.Chain{first, resolve.NewStatic("alice")}.NameByHash(context.Background(), namehash.LabelHash("alice"))
	assert.ErrorIs(t, err, boom)
}
