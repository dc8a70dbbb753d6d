// Package client provides a Go SDK for talking to a replicated log node.
//
// It wraps the raw HTTP/JSON calls (send a message, read the log, check
// health) behind a small typed API, the same shape the teacher's SDK used
// for its KV store: one Client per node, no distributed logic on the
// client side — the node it talks to is responsible for replication.
package client

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

// Client represents a connection to one node (primary or secondary).
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new Client. timeout protects every call from hanging
// forever; it defaults to 10s if zero.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// SendResponse is returned after a successful Send.
type SendResponse struct {
	ID     uint64 `json:"message_id"`
	Acks   int    `json:"acks"`
	Status int    `json:"status"`
}

// LogsResponse wraps the list of messages returned by Logs.
type LogsResponse struct {
	Logs []model.Message `json:"logs"`
}

// Send appends message to the log via the primary's /send_log endpoint,
// requesting write concern w (w<=0 is sent as the server's default of 1).
func (c *Client) Send(ctx context.Context, message string, w int) (*SendResponse, error) {
	if w <= 0 {
		w = 1
	}
	body, err := json.Marshal(map[string]any{"message": message, "w": w})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/send_log", c.baseURL), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send_log request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var result SendResponse
	return &result, json.NewDecoder(resp.Body).Decode(&result)
}

// Logs retrieves the node's current log via GET /logs.
func (c *Client) Logs(ctx context.Context) (*LogsResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/logs", c.baseURL), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("logs request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var result LogsResponse
	return &result, json.NewDecoder(resp.Body).Decode(&result)
}

// Health retrieves the node's raw /health payload as a string; the shape
// differs between primary and secondary, so callers that need the typed
// form should decode it themselves or use GetRaw.
func (c *Client) Health(ctx context.Context) (string, error) {
	return c.GetRaw(ctx, "/health")
}

// ─── Errors ───────────────────────────────────────────────────────────────

// APIError carries the HTTP status and the error message from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Status, e.Message)
}

// checkStatus converts HTTP error responses into Go errors.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(resp.Body)
	var apiErr struct {
		Error string `json:"error"`
	}
	_ = json.Unmarshal(body, &apiErr)
	msg := apiErr.Error
	if msg == "" {
		msg = string(body)
	}
	return &APIError{Status: resp.StatusCode, Message: msg}
}
