package primary

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/you/replicatedlog/internal/health"
)

func TestPeerStartsUnhealthyUntilFirstHeartbeat(t *testing.T) {
	p := newPeer("sec1", "http://example.invalid", time.Second)
	th := health.DefaultThresholds()

	require.Equal(t, health.Unhealthy, p.Status(th))
}

func TestPeerRecordHeartbeatSuccessTransitions(t *testing.T) {
	p := newPeer("sec1", "http://example.invalid", time.Second)
	th := health.DefaultThresholds()

	transitioned := p.recordHeartbeatSuccess(5, th)
	require.True(t, transitioned, "first success from Unhealthy must report a transition")
	require.Equal(t, health.Healthy, p.Status(th))
	require.Equal(t, uint64(5), p.LastLogID())

	transitioned = p.recordHeartbeatSuccess(6, th)
	require.False(t, transitioned, "a second consecutive success is not a transition")
}

func TestPeerRecordReplicationSuccessNeverRegressesLastLogID(t *testing.T) {
	p := newPeer("sec1", "http://example.invalid", time.Second)
	p.recordReplicationSuccess(10)
	p.recordReplicationSuccess(3)
	require.Equal(t, uint64(10), p.LastLogID())
}
