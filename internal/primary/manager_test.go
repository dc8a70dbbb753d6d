package primary

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/you/replicatedlog/internal/api"
	"github.com/you/replicatedlog/internal/metrics"
	"github.com/you/replicatedlog/internal/secondary"
)

// newTestSecondary spins up a real secondary Applier behind an httptest
// server, exactly the shape the pack's cache node_integration_test.go uses
// to exercise peer-to-peer HTTP without a real network.
func newTestSecondary(t *testing.T, name string) (*httptest.Server, *secondary.Applier) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	met := metrics.New(name)
	applier := secondary.New(name, 0, zap.NewNop(), met)
	router := gin.New()
	api.NewSecondaryHandler(applier, met).Register(router)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, applier
}

func testConfig(peers map[string]string) Config {
	cfg := DefaultConfig()
	cfg.SelfName = "primary"
	cfg.Peers = peers
	cfg.HeartbeatInterval = 20 * time.Millisecond
	cfg.SuspectedTimeout = 200 * time.Millisecond
	cfg.UnhealthyTimeout = 400 * time.Millisecond
	cfg.RPCDeadline = 500 * time.Millisecond
	cfg.HBDeadline = 500 * time.Millisecond
	cfg.BaseDelay = 10 * time.Millisecond
	cfg.MaxDelay = 100 * time.Millisecond
	cfg.RequestWait = 300 * time.Millisecond
	return cfg
}

func TestAppendAssignsDenseMonotonicIDs(t *testing.T) {
	m := New(testConfig(nil), zap.NewNop(), metrics.New("t1"))

	r1, err := m.Append("a", 1)
	require.NoError(t, err)
	r2, err := m.Append("b", 1)
	require.NoError(t, err)
	r3, err := m.Append("c", 1)
	require.NoError(t, err)

	require.Equal(t, uint64(1), r1.ID)
	require.Equal(t, uint64(2), r2.ID)
	require.Equal(t, uint64(3), r3.ID)
}

func TestAppendWithSecondariesReachesQuorum(t *testing.T) {
	srv1, _ := newTestSecondary(t, "sec1")
	srv2, _ := newTestSecondary(t, "sec2")

	m := New(testConfig(map[string]string{"sec1": srv1.URL, "sec2": srv2.URL}), zap.NewNop(), metrics.New("t2"))

	result, err := m.Append("hello", 3)
	require.NoError(t, err)
	require.Equal(t, uint64(1), result.ID)
	require.Equal(t, 3, result.Acks, "w=3 should wait for both secondaries plus the self-ack")
}

func TestAppendInvalidWRejected(t *testing.T) {
	srv1, _ := newTestSecondary(t, "sec1")
	m := New(testConfig(map[string]string{"sec1": srv1.URL}), zap.NewNop(), metrics.New("t3"))

	_, err := m.Append("x", 5)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrInvalidW))
}

func TestAppendPartiallyAcceptedOnTimeout(t *testing.T) {
	// An address nothing listens on: the replication goroutine retries
	// forever, so Append must fall back to PartiallyAccepted at RequestWait.
	cfg := testConfig(map[string]string{"ghost": "http://127.0.0.1:1"})
	cfg.RequestWait = 50 * time.Millisecond
	m := New(cfg, zap.NewNop(), metrics.New("t4"))

	result, err := m.Append("x", 2)
	require.NoError(t, err)
	require.Equal(t, 1, result.Acks)
}

func TestAppendRejectedWhenReadOnly(t *testing.T) {
	m := New(testConfig(nil), zap.NewNop(), metrics.New("t5"))
	m.quorum.readOnly.Store(true)

	_, err := m.Append("x", 1)
	require.True(t, errors.Is(err, ErrReadOnly))
}
