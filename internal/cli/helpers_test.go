package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/nomindex/internal/testutil"
)

const testRunID = "cli-run"

// useTempStore points the sqlite store at a fresh file for this test.
func useTempStore(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nomindex.db")
	t.Setenv("NOMINDEX_STORE_DRIVER", "sqlite")
	t.Setenv("NOMINDEX_STORE_PATH", path)
	t.Setenv("NOMINDEX_LOG_LEVEL", "error")
	return path
}

type result struct {
	stdout string
	stderr string
	err    error
}

func execute(t *testing.T, args ...string) result {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCommand(&RootOptions{RunIDs: testutil.NewFixedRunIDGenerator(testRunID)})
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return result{stdout: out.String(), stderr: errOut.String(), err: err}
}

// decodeResponse parses a JSON envelope and decodes its data into v.
func decodeResponse(t *testing.T, stdout string, v any) CLIResponse {
	t.Helper()
	var raw struct {
		CLIResponse
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &raw), stdout)
	if v != nil && len(raw.Data) > 0 {
		require.NoError(t, json.Unmarshal(raw.Data, v))
	}
	return raw.CLIResponse
}
