// Package transport implements the peer-to-peer RPCs (Replicate, Heartbeat,
// GetMissedLogs) as plain JSON-over-HTTP calls against a pooled *http.Client,
// the same style the teacher module used for its inter-node replication
// traffic (internal/cluster/replication.go, internal/cluster/replicator.go).
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/you/replicatedlog/internal/model"
)

// Client is a persistent handle to one peer. One Client is created per
// peer descriptor and reused for the lifetime of the process.
type Client struct {
	addr       string
	httpClient *http.Client
}

// New creates a Client targeting addr (e.g. "http://localhost:9001").
func New(addr string, rpcDeadline time.Duration) *Client {
	return &Client{
		addr: addr,
		httpClient: &http.Client{
			Timeout: rpcDeadline,
		},
	}
}

// Addr returns the peer's base address.
func (c *Client) Addr() string { return c.addr }

// Replicate sends one log entry to the peer and returns its ack.
func (c *Client) Replicate(ctx context.Context, entry model.LogEntry) (model.LogAck, error) {
	var ack model.LogAck
	err := c.post(ctx, "/rpc/replicate", entry, &ack)
	return ack, err
}

// Heartbeat pings the peer and returns its reported apply position.
func (c *Client) Heartbeat(ctx context.Context, selfName string) (model.HeartbeatResponse, error) {
	var resp model.HeartbeatResponse
	err := c.post(ctx, "/rpc/heartbeat", model.HeartbeatRequest{SecondaryName: selfName}, &resp)
	return resp, err
}

// GetMissedLogs fetches everything the peer holds beyond lastReceivedID.
func (c *Client) GetMissedLogs(ctx context.Context, lastReceivedID uint64) (model.MissedResponse, error) {
	var resp model.MissedResponse
	err := c.post(ctx, "/rpc/missed_logs", model.MissedRequest{LastReceivedID: lastReceivedID}, &resp)
	return resp, err
}

// post performs a single JSON POST and decodes the response into out.
// A non-2xx response or any transport error is returned as an error; callers
// are responsible for retry/backoff policy.
func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.addr+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("peer %s returned HTTP %d: %s", c.addr, resp.StatusCode, string(b))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
