package cli

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/nomindex/internal/namehash"
)

const aliceRegistration = "0x9c0257114eb9399a2985f8e75dad7600c5d89fe3824ffa99ec1c3eb8bf3b0501"

func ingestFixture(t *testing.T) {
	t.Helper()
	useTempStore(t)
	t.Setenv("NOMINDEX_RESOLVER_LABELS_FILE", "testdata/labels.yaml")
	require.NoError(t, execute(t, "ingest", "testdata/events.yaml").err)
}

func TestShowRegistration_ByName(t *testing.T) {
	ingestFixture(t)

	res := execute(t, "show", "registration", "Alice")
	require.NoError(t, res.err, res.stdout)
	assert.Contains(t, res.stdout, "Registration "+aliceRegistration)
	assert.Contains(t, res.stdout, "label:      alice")
	assert.Contains(t, res.stdout, "cost:       3000000000000000 wei (0.003 ether)")
	assert.Contains(t, res.stdout, "history:    1 registered, 0 renewed, 0 transferred")
}

func TestShowRegistration_ByTokenIDJSON(t *testing.T) {
	ingestFixture(t)

	tokenID := namehash.TokenIDFromLabel(namehash.LabelHash("alice")).String()
	res := execute(t, "--format", "json", "show", "registration", tokenID)
	require.NoError(t, res.err)

	var got RegistrationView
	decodeResponse(t, res.stdout, &got)
	assert.Equal(t, aliceRegistration, got.Registration.ID)
	assert.Equal(t, tokenID, got.TokenID)
	require.NotNil(t, got.CostEther)
	assert.Equal(t, "0.003", *got.CostEther)
	assert.Equal(t, uint64(5000), got.Registration.ExpiryDate)
}

func TestShowRegistration_UnknownLabelAndHistory(t *testing.T) {
	ingestFixture(t)

	res := execute(t, "show", "registration", "42")
	require.NoError(t, res.err, res.stdout)
	assert.Contains(t, res.stdout, "label:      (unknown)")
	assert.Contains(t, res.stdout, "cost:       unknown")
	assert.Contains(t, res.stdout, "expires:    3000")
	assert.Contains(t, res.stdout, "history:    1 registered, 1 renewed, 1 transferred")
	assert.Contains(t, res.stdout, "registrant: 0x0000000000000000000000000000000000000def")
}

func TestShowDomain(t *testing.T) {
	ingestFixture(t)
	aliceNode := namehash.NameHash("alice.nom").Hex()

	for _, arg := range []string{"alice", "alice.nom", "ALICE.nom", aliceNode} {
		t.Run(arg, func(t *testing.T) {
			res := execute(t, "show", "domain", arg)
			require.NoError(t, res.err, res.stdout)
			assert.Contains(t, res.stdout, "Domain "+aliceNode)
			assert.Contains(t, res.stdout, "name:  alice.nom")
		})
	}
}

func TestShowAccount(t *testing.T) {
	ingestFixture(t)

	res := execute(t, "--format", "json", "show", "account", "0x0000000000000000000000000000000000000ABC")
	require.NoError(t, res.err)

	var got AccountView
	decodeResponse(t, res.stdout, &got)
	assert.Equal(t, "0x0000000000000000000000000000000000000abc", got.Account.ID)
}

func TestShow_NotFound(t *testing.T) {
	ingestFixture(t)

	res := execute(t, "--format", "json", "show", "registration", "bob")
	require.Error(t, res.err)
	assert.Equal(t, ExitFailure, GetExitCode(res.err))

	resp := decodeResponse(t, res.stdout, nil)
	assert.Equal(t, CodeNotFound, resp.Error.Code)
}

func TestShow_InvalidArguments(t *testing.T) {
	useTempStore(t)

	tests := [][]string{
		{"show", "account", "0x1234"},
		{"show", "domain", "sub.alice.nom"},
		{"show", "registration", "a.b"},
	}
	for _, args := range tests {
		res := execute(t, args...)
		assert.Equal(t, ExitCommandError, GetExitCode(res.err), args)
	}
}

func TestParseLabel(t *testing.T) {
	alice := namehash.LabelHash("alice")

	tests := []struct {
		name    string
		arg     string
		want    string
		wantErr bool
	}{
		{"label hash", aliceRegistration, alice.Hex(), false},
		{"token id", namehash.TokenIDFromLabel(alice).String(), alice.Hex(), false},
		{"plain label", "alice", alice.Hex(), false},
		{"normalised", " ALICE ", alice.Hex(), false},
		{"small token id", "42", "0x000000000000000000000000000000000000000000000000000000000000002a", false},
		{"token id too large", new(big.Int).Lsh(big.NewInt(1), 256).String(), "", true},
		{"dotted", "alice.nom", "", true},
		{"empty", "  ", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseLabel(tt.arg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Hex())
		})
	}
}

func TestFormatEther(t *testing.T) {
	tests := []struct {
		wei  string
		want string
	}{
		{"0", "0"},
		{"1", "0.000000000000000001"},
		{"3000000000000000", "0.003"},
		{"1000000000000000000", "1"},
		{"12500000000000000000", "12.5"},
	}
	for _, tt := range tests {
		wei, _ := new(big.Int).SetString(tt.wei, 10)
		got := formatEther(wei)
		require.NotNil(t, got)
		assert.Equal(t, tt.want, *got, tt.wei)
	}
	assert.Nil(t, formatEther(nil))
}
