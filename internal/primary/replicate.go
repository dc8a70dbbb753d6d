package primary

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/you/replicatedlog/internal/health"
	"github.com/you/replicatedlog/internal/model"
)

// replicateTask sends one message to one peer, retrying forever on failure
// with exponential backoff (flattening to MaxDelay once the peer is
// classified Unhealthy). It is launched as a detached goroutine that
// captures only (id, payload, peer) plus the Manager it reports back into —
// never the originating request's context — so it safely outlives the
// Append call that spawned it.
//
// Grounded on the teacher's retry/backoff helper (internal/cluster/replication.go
// replicateWithRetryAndResponse), generalized from a bounded maxRetries to the
// spec's unbounded-retry requirement and made health-state aware.
func (m *Manager) replicateTask(peer *Peer, id uint64, payload string) {
	entry := model.LogEntry{ID: id, Payload: payload}
	attempt := 0

	for {
		attempt++
		ctx, cancel := context.WithTimeout(context.Background(), m.cfg.RPCDeadline)
		ack, err := peer.Client.Replicate(ctx, entry)
		cancel()

		if err == nil && ack.Success {
			m.metrics.ReplicationTotal.WithLabelValues(peer.Name, "ok").Inc()
			peer.recordReplicationSuccess(id)
			m.onAck(id)
			return
		}

		m.metrics.ReplicationTotal.WithLabelValues(peer.Name, "fail").Inc()
		status := peer.Status(m.thresholds)
		m.logger.Warn("replication attempt failed",
			zap.String("peer", peer.Name),
			zap.Uint64("id", id),
			zap.Int("attempt", attempt),
			zap.String("peer_status", status.String()),
			zap.Error(err),
		)

		delay := m.backoffFor(attempt, status)
		time.Sleep(delay)
	}
}

// backoffFor implements §4.1/§4.3: exponential backoff capped at MaxDelay,
// flattened to MaxDelay outright once the peer is Unhealthy.
func (m *Manager) backoffFor(attempt int, status health.Status) time.Duration {
	if status == health.Unhealthy {
		return m.cfg.MaxDelay
	}
	d := m.cfg.BaseDelay * time.Duration(1<<uint(attempt-1))
	if d > m.cfg.MaxDelay || d <= 0 {
		return m.cfg.MaxDelay
	}
	return d
}

// onAck increments the Ack Table entry for id, if one is still tracked (a
// resync replication has no tracked entry and onAck is a no-op for it), and
// arms the completion signal once the target is reached.
func (m *Manager) onAck(id uint64) {
	m.acksMu.Lock()
	st, ok := m.acks[id]
	m.acksMu.Unlock()
	if !ok {
		return
	}

	st.mu.Lock()
	st.count++
	count := st.count
	target := st.target
	st.mu.Unlock()

	if count >= target {
		st.once.Do(func() { close(st.done) })
	}
}
