// Package primary implements the replication and consistency engine the
// primary node runs: identifier assignment, per-request ack gathering with
// configurable write concern, background retry with backoff, heartbeat-driven
// health tracking, catch-up resync, and quorum-loss read-only fallback.
//
// Grounded throughout on the teacher's internal/cluster package (Node,
// Replicator, the health/backoff helpers in replication.go), generalized
// from a hash-partitioned multi-writer KV store to a single-writer,
// totally-ordered append log: there is no key hashing, no vector clock, and
// no read-quorum reconciliation here, because every secondary receives
// every message and only one writer (the primary) ever assigns an id.
package primary

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/you/replicatedlog/internal/health"
	"github.com/you/replicatedlog/internal/metrics"
	"github.com/you/replicatedlog/internal/model"
)

// Sentinel errors surfaced to the HTTP layer as specific status codes.
var (
	ErrInvalidW  = errors.New("w out of range")
	ErrReadOnly  = errors.New("primary is read-only: quorum lost")
)

// ackState is the "arm once, await once" completion signal for a single
// in-flight Append: every replication goroutine for this id shares it, but
// only the one that observes count reaching target closes done, via Once so
// a second crossing never double-closes the channel.
type ackState struct {
	mu     sync.Mutex
	count  int
	target int
	done   chan struct{}
	once   sync.Once
}

// Manager is the single long-lived value owning every piece of primary-side
// state named in the spec's data model: the id counter, the primary log,
// the Ack Table, and the peer map. There are no package-level globals; every
// mutex-guarded resource in §5 of the design is a field here.
type Manager struct {
	cfg        Config
	thresholds health.Thresholds
	logger     *zap.Logger
	metrics    *metrics.Metrics

	logMu  sync.Mutex
	nextID uint64
	log    []model.Message

	acksMu sync.Mutex
	acks   map[uint64]*ackState

	peers  map[string]*Peer
	quorum *Quorum
}

// New constructs a Manager with one Peer per configured secondary.
func New(cfg Config, logger *zap.Logger, m *metrics.Metrics) *Manager {
	peers := make(map[string]*Peer, len(cfg.Peers))
	for name, addr := range cfg.Peers {
		peers[name] = newPeer(name, addr, cfg.RPCDeadline)
	}

	return &Manager{
		cfg:        cfg,
		thresholds: health.Thresholds{Suspected: cfg.SuspectedTimeout, Unhealthy: cfg.UnhealthyTimeout},
		logger:     logger,
		metrics:    m,
		nextID:     1,
		acks:       make(map[uint64]*ackState),
		peers:      peers,
		quorum:     newQuorum(len(peers) + 1),
	}
}

// Run starts the background heartbeat loop; it blocks until ctx is done.
func (m *Manager) Run(ctx context.Context) {
	m.runHeartbeatLoop(ctx)
}

// Append assigns an id, stores the entry locally (the self-ack), fans it out
// to every peer, and waits up to cfg.RequestWait for w acks before
// returning. The entry is durable on the primary and replication continues
// in the background regardless of which branch below is taken.
func (m *Manager) Append(payload string, w int) (model.AppendResult, error) {
	if m.quorum.ReadOnly() {
		return model.AppendResult{}, ErrReadOnly
	}

	total := len(m.peers) + 1
	if w < 1 || w > total {
		return model.AppendResult{}, fmt.Errorf("%w: w=%d must be in [1,%d]", ErrInvalidW, w, total)
	}

	start := time.Now()
	defer func() { m.metrics.AppendLatency.Observe(time.Since(start).Seconds()) }()

	id, entry := m.appendLocal(payload)

	st := &ackState{count: 1, target: w, done: make(chan struct{})}
	if w <= 1 {
		st.once.Do(func() { close(st.done) })
	}
	m.acksMu.Lock()
	m.acks[id] = st
	m.acksMu.Unlock()
	defer func() {
		m.acksMu.Lock()
		delete(m.acks, id)
		m.acksMu.Unlock()
	}()

	for _, peer := range m.peers {
		go m.replicateTask(peer, id, entry.Payload)
	}

	result := model.AppendResult{ID: id}
	select {
	case <-st.done:
		st.mu.Lock()
		result.Acks = st.count
		st.mu.Unlock()
		result.Status = model.Committed
		m.metrics.AppendsTotal.WithLabelValues("committed").Inc()
	case <-time.After(m.cfg.RequestWait):
		st.mu.Lock()
		result.Acks = st.count
		st.mu.Unlock()
		result.Status = model.PartiallyAccepted
		m.metrics.AppendsTotal.WithLabelValues("partial").Inc()
	}
	return result, nil
}

// appendLocal atomically assigns the next id and appends to the primary
// log; the id counter and the log share one mutex, matching the spec's
// "mutex held across increment + read-back" discipline.
func (m *Manager) appendLocal(payload string) (uint64, model.Message) {
	m.logMu.Lock()
	defer m.logMu.Unlock()

	id := m.nextID
	m.nextID++
	entry := model.Message{ID: id, Payload: payload}
	m.log = append(m.log, entry)
	return id, entry
}

// ReadLog returns a snapshot of the primary's own log. Per design note,
// this never reads through to secondaries.
func (m *Manager) ReadLog() []model.Message {
	m.logMu.Lock()
	defer m.logMu.Unlock()

	out := make([]model.Message, len(m.log))
	copy(out, m.log)
	return out
}

// PeerHealthSnapshot is the per-peer shape exposed on /health.
type PeerHealthSnapshot struct {
	Status    string    `json:"status"`
	LastCheck time.Time `json:"last_check"`
	LastLogID uint64    `json:"last_log_id"`
}

// HealthSnapshot is the full shape exposed on /health.
type HealthSnapshot struct {
	ReadOnly    bool                          `json:"read_only_mode"`
	Secondaries map[string]PeerHealthSnapshot `json:"secondaries"`
}

// Health reports read-only mode and the classified status of every peer.
func (m *Manager) Health() HealthSnapshot {
	snap := HealthSnapshot{
		ReadOnly:    m.quorum.ReadOnly(),
		Secondaries: make(map[string]PeerHealthSnapshot, len(m.peers)),
	}
	for name, peer := range m.peers {
		peer.mu.RLock()
		lastCheck := peer.lastCheck
		peer.mu.RUnlock()
		snap.Secondaries[name] = PeerHealthSnapshot{
			Status:    peer.Status(m.thresholds).String(),
			LastCheck: lastCheck,
			LastLogID: peer.LastLogID(),
		}
	}
	return snap
}
