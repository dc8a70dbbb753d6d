package primary

import (
	"sync"
	"time"

	"github.com/you/replicatedlog/internal/health"
	"github.com/you/replicatedlog/internal/transport"
)

// Peer is the primary's descriptor for one secondary: a stable address, a
// persistent transport handle, and the bookkeeping the heartbeat loop and
// replication tasks need to classify its health.
//
// last_check is written by the heartbeat loop and by successful replication
// tasks; the reported status is always derived fresh from it via
// health.Classify. prevStatus only remembers the last classification seen,
// so a heartbeat success can tell whether it is a recovery that needs resync.
type Peer struct {
	Name   string
	Addr   string
	Client *transport.Client

	mu         sync.RWMutex
	lastCheck  time.Time
	lastLogID  uint64
	prevStatus health.Status
}

func newPeer(name, addr string, rpcDeadline time.Duration) *Peer {
	return &Peer{
		Name:   name,
		Addr:   addr,
		Client: transport.New(addr, rpcDeadline),
		// A peer starts unproven: treat it as just-missed so the first
		// heartbeat pass must succeed before it counts toward quorum.
		lastCheck:  time.Now().Add(-health.DefaultThresholds().Unhealthy - time.Second),
		prevStatus: health.Unhealthy,
	}
}

// Status classifies the peer from elapsed time since the last successful
// heartbeat — never from a cached field.
func (p *Peer) Status(t health.Thresholds) health.Status {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return health.Classify(time.Since(p.lastCheck), t)
}

// LastLogID returns the peer's last reported apply position.
func (p *Peer) LastLogID() uint64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastLogID
}

// recordHeartbeatSuccess updates last_check and last_log_id, and reports
// whether this success is a transition from a non-Healthy state — the
// signal that spawns a resync task.
func (p *Peer) recordHeartbeatSuccess(lastLogID uint64, t health.Thresholds) (transitioned bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	wasHealthy := p.prevStatus == health.Healthy
	p.lastCheck = time.Now()
	p.lastLogID = lastLogID
	p.prevStatus = health.Healthy
	return !wasHealthy
}

// recordHeartbeatFailure leaves last_check untouched (per spec) but updates
// the cached prevStatus used for resync-transition detection.
func (p *Peer) recordHeartbeatFailure(t health.Thresholds) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prevStatus = health.Classify(time.Since(p.lastCheck), t)
}

// recordReplicationSuccess marks a peer Healthy and updates its log
// position from a successful Replicate RPC (outside the heartbeat loop),
// per §4.1 step 2.
func (p *Peer) recordReplicationSuccess(id uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastCheck = time.Now()
	if id > p.lastLogID {
		p.lastLogID = id
	}
	p.prevStatus = health.Healthy
}
