package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/nomindex/internal/chain"
	"github.com/roach88/nomindex/internal/engine"
	"github.com/roach88/nomindex/internal/entity"
	"github.com/roach88/nomindex/internal/metrics"
)

type fixedStats engine.StatsSnapshot

func (f fixedStats) Stats() engine.StatsSnapshot { return engine.StatsSnapshot(f) }

type fakeCheckpoints struct {
	cp  entity.Checkpoint
	ok  bool
	err error
}

func (f fakeCheckpoints) Checkpoint(context.Context) (entity.Checkpoint, bool, error) {
	return f.cp, f.ok, f.err
}

func discard() *slog.Logger { return slog.New(slog.DiscardHandler) }

func get(t *testing.T, h http.Handler, path string) (*http.Response, []byte) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	resp := rec.Result()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func TestHealthz(t *testing.T) {
	h := New(discard(), nil, nil, nil).Router()

	resp, body := get(t, h, "/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
}

func TestReadyz(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	t.Run("all checks pass", func(t *testing.T) {
		h := New(discard(), nil, nil, nil, WithCheck("store", ok), WithCheck("kafka", ok)).Router()
		resp, body := get(t, h, "/readyz")
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.JSONEq(t, `{"status":"ok","checks":{"store":"ok","kafka":"ok"}}`, string(body))
	})

	t.Run("one check fails", func(t *testing.T) {
		h := New(discard(), nil, nil, nil, WithCheck("store", ok), WithCheck("redis", down)).Router()
		resp, body := get(t, h, "/readyz")
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		assert.JSONEq(t, `{"status":"unavailable","checks":{"store":"ok","redis":"connection refused"}}`, string(body))
	})

	t.Run("slow check times out", func(t *testing.T) {
		slow := func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		}
		h := New(discard(), nil, nil, nil, WithCheck("kafka", slow), WithCheckTimeout(10*time.Millisecond)).Router()
		resp, _ := get(t, h, "/readyz")
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	})
}

func TestStatus(t *testing.T) {
	stats := fixedStats{Applied: 3, Tolerated: 1, Batches: 2, Last: &chain.Position{Block: 120, LogIndex: 0}}
	cps := fakeCheckpoints{ok: true, cp: entity.Checkpoint{
		Position: chain.Position{Block: 120},
		EventID:  "0xabc:0",
	}}
	h := New(discard(), stats, cps, nil, WithRunID("run-1")).Router()

	resp, body := get(t, h, "/status")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got struct {
		RunID  string               `json:"run_id"`
		Runner engine.StatsSnapshot `json:"runner"`
		Cp     *entity.Checkpoint   `json:"checkpoint"`
	}
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "run-1", got.RunID)
	assert.Equal(t, engine.StatsSnapshot(stats), got.Runner)
	require.NotNil(t, got.Cp)
	assert.Equal(t, "0xabc:0", got.Cp.EventID)
}

func TestStatus_NoCheckpointYet(t *testing.T) {
	h := New(discard(), fixedStats{}, fakeCheckpoints{}, nil).Router()
	resp, body := get(t, h, "/status")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"checkpoint":null`)
}

func TestStatus_CheckpointError(t *testing.T) {
	h := New(discard(), fixedStats{}, fakeCheckpoints{err: errors.New("disk gone")}, nil).Router()
	resp, body := get(t, h, "/status")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.NotContains(t, string(body), "disk gone")
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	m.ObserveEvent("Transfer", "applied", time.Millisecond)

	h := New(discard(), nil, nil, reg).Router()
	resp, body := get(t, h, "/metrics")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `kind="Transfer"`)
}

func TestMetrics_DisabledWithoutGatherer(t *testing.T) {
	h := New(discard(), nil, nil, nil).Router()
	resp, _ := get(t, h, "/metrics")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServeListener_ShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- ServeListener(ctx, ln, New(discard(), nil, nil, nil).Router(), discard())
	}()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(ShutdownTimeout + time.Second):
		t.Fatal("server did not stop")
	}
}
