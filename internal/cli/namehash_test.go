package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNamehash_JSON(t *testing.T) {
	res := execute(t, "--format", "json", "namehash", "Alice")
	require.NoError(t, res.err)

	var got NamehashResult
	decodeResponse(t, res.stdout, &got)
	assert.Equal(t, "Alice", got.Input)
	assert.Equal(t, "alice.nom", got.Normalized)
	assert.Equal(t, "0xb37026aeae9112f384a6f87698249cd675ddbb9d65324f4dce706a258048aae1", got.Node)
	assert.Equal(t, "0x9c0257114eb9399a2985f8e75dad7600c5d89fe3824ffa99ec1c3eb8bf3b0501", got.LabelHash)
	assert.Equal(t, "70564938991660933374592024341600875602376452319261984317470407481576058979585", got.TokenID)
	assert.Equal(t, got.Node, got.DomainID, "under the default root the domain id is the node")
}

func TestNamehash_OtherTLDKeepsConfiguredRoot(t *testing.T) {
	res := execute(t, "--format", "json", "namehash", "foo.eth")
	require.NoError(t, res.err)

	var got NamehashResult
	decodeResponse(t, res.stdout, &got)
	assert.Equal(t, "0xde9b09fd7c5f901e23a3f19fecc54828e9c848539801e86591bd9801b019f84f", got.Node)
	assert.Equal(t, "0x41b1a0649752af1b28b3dc29a1556eee781e4a4c3a1f7f53f90fa834de098c4d", got.LabelHash)
	assert.NotEqual(t, got.Node, got.DomainID)
}

func TestNamehash_CustomRoot(t *testing.T) {
	t.Setenv("NOMINDEX_ROOT_NODE", "0x93cdeb708b7545dc668eb9280176169d1c33cfd8ed6f04690a0bcc88a93fc4ae")

	res := execute(t, "--format", "json", "namehash", "foo.eth")
	require.NoError(t, res.err)

	var got NamehashResult
	decodeResponse(t, res.stdout, &got)
	assert.Equal(t, got.Node, got.DomainID)
}

func TestNamehash_Text(t *testing.T) {
	res := execute(t, "namehash", "alice")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "alice.nom\n  node:       0xb37026ae")
}
