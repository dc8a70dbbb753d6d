// Package secondary implements the ordering/deduplication engine a passive
// replica runs: idempotent apply, out-of-order buffering, and the handful of
// read-only operations (Heartbeat, GetMissedLogs, ReadLog) the primary and
// operators use to inspect it.
package secondary

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/you/replicatedlog/internal/metrics"
	"github.com/you/replicatedlog/internal/model"
)

// Applier owns a secondary's entire view of the replicated log: the
// contiguous applied prefix, the full set of ids ever seen (for dedup), and
// the out-of-order buffer awaiting the next contiguous id.
//
// All four pieces of state share one mutex, and the buffer drain (§4.5.1 of
// the design) happens while still holding it, so a reader snapshot of
// appliedLog is always a contiguous prefix starting at id 1.
type Applier struct {
	mu sync.Mutex

	name         string
	appliedLog   []model.Message
	seenIDs      map[uint64]bool
	buffer       map[uint64]string
	nextExpected uint64

	// networkDelay is a test knob: an artificial delay awaited before the
	// mutex is acquired, to exercise out-of-order delivery deterministically.
	networkDelay time.Duration

	logger  *zap.Logger
	metrics *metrics.Metrics
}

// New creates an empty Applier. name identifies this secondary in heartbeat
// responses and log lines.
func New(name string, networkDelay time.Duration, logger *zap.Logger, m *metrics.Metrics) *Applier {
	return &Applier{
		name:         name,
		seenIDs:      make(map[uint64]bool),
		buffer:       make(map[uint64]string),
		nextExpected: 1,
		networkDelay: networkDelay,
		logger:       logger,
		metrics:      m,
	}
}

// Replicate applies one entry from the primary. It is idempotent: replaying
// an id already in seenIDs is a no-op that still reports success.
func (a *Applier) Replicate(id uint64, payload string) (success bool, message string) {
	if a.networkDelay > 0 {
		time.Sleep(a.networkDelay)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.seenIDs[id] {
		return true, "Duplicate"
	}
	a.seenIDs[id] = true

	if id == a.nextExpected {
		a.appliedLog = append(a.appliedLog, model.Message{ID: id, Payload: payload})
		a.nextExpected++
		a.drainBufferLocked()
	} else {
		a.buffer[id] = payload
	}

	a.observeLocked()
	return true, "Success"
}

// drainBufferLocked moves contiguous buffered entries into appliedLog. Must
// be called with mu held.
func (a *Applier) drainBufferLocked() {
	for {
		payload, ok := a.buffer[a.nextExpected]
		if !ok {
			return
		}
		delete(a.buffer, a.nextExpected)
		a.appliedLog = append(a.appliedLog, model.Message{ID: a.nextExpected, Payload: payload})
		a.nextExpected++
	}
}

func (a *Applier) observeLocked() {
	if a.metrics == nil {
		return
	}
	a.metrics.AppliedLogSize.Set(float64(len(a.appliedLog)))
	a.metrics.BufferedEntries.Set(float64(len(a.buffer)))
}

// Heartbeat reports this secondary's apply position. secondaryName is the
// caller's identity, logged for diagnostics; the response always describes
// this applier regardless of who's asking.
func (a *Applier) Heartbeat(secondaryName string) model.HeartbeatResponse {
	a.mu.Lock()
	lastID := a.lastLogIDLocked()
	a.mu.Unlock()

	if a.logger != nil {
		a.logger.Debug("heartbeat received", zap.String("from", secondaryName), zap.Uint64("last_log_id", lastID))
	}
	return model.HeartbeatResponse{Status: "Healthy", LastLogID: lastID}
}

func (a *Applier) lastLogIDLocked() uint64 {
	if len(a.appliedLog) == 0 {
		return 0
	}
	return a.appliedLog[len(a.appliedLog)-1].ID
}

// GetMissedLogs returns every applied entry beyond lastReceivedID, in id
// order, for bulk catch-up delivery during resync.
func (a *Applier) GetMissedLogs(lastReceivedID uint64) []model.Message {
	a.mu.Lock()
	defer a.mu.Unlock()

	var out []model.Message
	for _, msg := range a.appliedLog {
		if msg.ID > lastReceivedID {
			out = append(out, msg)
		}
	}
	return out
}

// ReadLog returns a snapshot of the contiguous applied log.
func (a *Applier) ReadLog() []model.Message {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]model.Message, len(a.appliedLog))
	copy(out, a.appliedLog)
	return out
}

// Status describes the fields the secondary's /health endpoint exposes.
type Status struct {
	LastLogID        uint64 `json:"last_log_id"`
	TotalLogs        int    `json:"total_logs"`
	BufferedMessages int    `json:"buffered_messages"`
	NextExpectedID   uint64 `json:"next_expected_id"`
}

// HealthStatus snapshots the applier's bookkeeping for the /health endpoint.
func (a *Applier) HealthStatus() Status {
	a.mu.Lock()
	defer a.mu.Unlock()

	return Status{
		LastLogID:        a.lastLogIDLocked(),
		TotalLogs:        len(a.appliedLog),
		BufferedMessages: len(a.buffer),
		NextExpectedID:   a.nextExpected,
	}
}
