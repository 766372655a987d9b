//go:build integration

package cli

import (
	"bytes"
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/nomindex/internal/chain"
	"github.com/roach88/nomindex/internal/source"
	"github.com/roach88/nomindex/internal/store"
	"github.com/roach88/nomindex/internal/testutil"
	"github.com/roach88/nomindex/internal/testutil/containers"
)

func freeAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return addr
}

func TestRun_ConsumesKafkaUntilCancelled(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	broker := containers.NewRedpandaContainer(t)
	defer broker.Terminate(context.Background())

	broker.CreateTopic(t, "registrar-events")
	f, err := source.OpenFile("testdata/events.yaml")
	require.NoError(t, err)
	batch, _ := f.Fetch(context.Background(), 0)
	values := make([][]byte, 0, len(batch))
	for _, d := range batch {
		b, err := chain.Marshal(d.Event)
		require.NoError(t, err)
		values = append(values, b)
	}
	broker.Produce(t, "registrar-events", values...)

	path := useTempStore(t)
	t.Setenv("NOMINDEX_LOG_LEVEL", "info")
	t.Setenv("NOMINDEX_KAFKA_BROKERS", broker.Broker)
	t.Setenv("NOMINDEX_HTTP_ADDR", freeAddr(t))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var out bytes.Buffer
	cmd := newRootCommand(&RootOptions{RunIDs: testutil.NewFixedRunIDGenerator(testRunID)})
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"run"})
	done := make(chan error, 1)
	go func() { done <- cmd.ExecuteContext(ctx) }()

	reader, err := store.Open(path)
	require.NoError(t, err)
	defer reader.Close()

	require.Eventually(t, func() bool {
		cp, ok, err := reader.Checkpoint(context.Background())
		return err == nil && ok && cp.Position.Block == 120
	}, 30*time.Second, 100*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err, out.String())
	case <-time.After(15 * time.Second):
		t.Fatalf("run did not stop:\n%s", out.String())
	}
	assert.Contains(t, out.String(), "run_id=cli-run")
}
