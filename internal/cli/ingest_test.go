package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIngest_Text(t *testing.T) {
	useTempStore(t)

	res := execute(t, "ingest", "testdata/events.yaml")
	require.NoError(t, res.err, res.stderr)
	assert.Contains(t, res.stdout, "Ingested testdata/events.yaml (run cli-run)")
	assert.Contains(t, res.stdout, "applied:   5")
	assert.Contains(t, res.stdout, "checkpoint: 120/0")
}

func TestIngest_JSON(t *testing.T) {
	useTempStore(t)

	res := execute(t, "--format", "json", "ingest", "testdata/events.yaml")
	require.NoError(t, res.err, res.stderr)

	var got IngestResult
	resp := decodeResponse(t, res.stdout, &got)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, testRunID, got.RunID)
	assert.Equal(t, int64(5), got.Stats.Applied)
	assert.Equal(t, int64(1), got.Stats.Batches)
	require.NotNil(t, got.Checkpoint)
	assert.Equal(t, uint64(120), got.Checkpoint.Position.Block)
}

func TestIngest_TwiceReportsDuplicates(t *testing.T) {
	useTempStore(t)

	require.NoError(t, execute(t, "ingest", "testdata/events.yaml").err)
	res := execute(t, "--format", "json", "ingest", "testdata/events.yaml")
	require.NoError(t, res.err)

	var got IngestResult
	decodeResponse(t, res.stdout, &got)
	assert.Equal(t, int64(0), got.Stats.Applied)
	assert.Equal(t, int64(5), got.Stats.Duplicate)
}

func TestIngest_HaltsOnInvalidLine(t *testing.T) {
	useTempStore(t)

	res := execute(t, "--format", "json", "ingest", "testdata/events.ndjson")
	require.Error(t, res.err)
	assert.Equal(t, ExitFailure, GetExitCode(res.err))

	var got IngestResult
	resp := decodeResponse(t, res.stdout, &got)
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, CodeHalted, resp.Error.Code)
	assert.Equal(t, int64(3), got.Stats.Applied)
	assert.Contains(t, got.Halted, "events.ndjson:4")
	require.NotNil(t, got.Checkpoint)
	assert.Equal(t, uint(2), got.Checkpoint.Position.LogIndex)
}

func TestIngest_SkipPolicy(t *testing.T) {
	useTempStore(t)

	res := execute(t, "--format", "json", "ingest", "--policy", "skip", "testdata/events.ndjson")
	require.NoError(t, res.err, res.stderr)

	var got IngestResult
	decodeResponse(t, res.stdout, &got)
	assert.Equal(t, int64(5), got.Stats.Applied)
	assert.Equal(t, int64(1), got.Stats.Skipped)
	assert.Empty(t, got.Halted)
}

func TestIngest_SkipPolicyFromEnv(t *testing.T) {
	useTempStore(t)
	t.Setenv("NOMINDEX_FAILURE_POLICY", "skip")

	res := execute(t, "ingest", "testdata/events.ndjson")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "skipped:   1")
}

func TestIngest_Errors(t *testing.T) {
	useTempStore(t)

	t.Run("missing file", func(t *testing.T) {
		res := execute(t, "ingest", "testdata/nope.yaml")
		assert.Equal(t, ExitCommandError, GetExitCode(res.err))
	})

	t.Run("bad policy flag", func(t *testing.T) {
		res := execute(t, "ingest", "--policy", "retry", "testdata/events.yaml")
		assert.Equal(t, ExitCommandError, GetExitCode(res.err))
		assert.Contains(t, res.err.Error(), "failure policy")
	})
}
