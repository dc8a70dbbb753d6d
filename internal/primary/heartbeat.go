package primary

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/you/replicatedlog/internal/health"
)

// runHeartbeatLoop issues a Heartbeat RPC to every peer on every tick,
// updates health bookkeeping, spawns a resync task for any peer that just
// transitioned back to Healthy, and re-evaluates quorum afterwards.
//
// Grounded on the teacher's HeartbeatLoop (internal/cluster/node.go) and the
// pack's primary-side heartbeat broadcaster (dd0wney-graphdb's
// sendHeartbeats/broadcastHeartbeat), adapted from a fire-and-forget fan-out
// to a per-peer health transition detector.
func (m *Manager) runHeartbeatLoop(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.heartbeatPass(ctx)
		}
	}
}

func (m *Manager) heartbeatPass(ctx context.Context) {
	healthy := 0

	for _, peer := range m.peers {
		hbCtx, cancel := context.WithTimeout(ctx, m.cfg.HBDeadline)
		resp, err := peer.Client.Heartbeat(hbCtx, m.cfg.SelfName)
		cancel()

		if err != nil {
			peer.recordHeartbeatFailure(m.thresholds)
			m.logger.Warn("heartbeat failed", zap.String("peer", peer.Name), zap.Error(err))
		} else {
			transitioned := peer.recordHeartbeatSuccess(resp.LastLogID, m.thresholds)
			if transitioned {
				m.logger.Info("peer recovered, starting resync", zap.String("peer", peer.Name), zap.Uint64("last_log_id", resp.LastLogID))
				go m.resync(peer, resp.LastLogID)
			}
		}

		status := peer.Status(m.thresholds)
		m.metrics.PeerHealth.WithLabelValues(peer.Name).Set(float64(status))
		if status == health.Healthy {
			healthy++
		}
	}

	readOnly := m.quorum.Evaluate(healthy)
	if readOnly {
		m.metrics.QuorumLost.Set(1)
	} else {
		m.metrics.QuorumLost.Set(0)
	}
}

// resync fetches the primary's entries beyond the peer's reported position
// and replays them through the ordinary replication path, which the peer
// will dedupe on the way in. It runs outside write-concern accounting:
// there is no AppendResult waiting on these acks.
//
// Per design note: resync interleaves with ongoing writes rather than being
// serialized per peer, and is never gated by read-only mode.
func (m *Manager) resync(peer *Peer, lastLogID uint64) {
	m.logMu.Lock()
	var missing []struct {
		id      uint64
		payload string
	}
	for _, msg := range m.log {
		if msg.ID > lastLogID {
			missing = append(missing, struct {
				id      uint64
				payload string
			}{msg.ID, msg.Payload})
		}
	}
	m.logMu.Unlock()

	for _, e := range missing {
		m.replicateTask(peer, e.id, e.payload)
	}
}
