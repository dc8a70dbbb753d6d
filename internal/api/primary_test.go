package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/you/replicatedlog/internal/metrics"
	"github.com/you/replicatedlog/internal/primary"
)

func newPrimaryTestRouter(t *testing.T, cfg primary.Config) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	m := primary.New(cfg, zap.NewNop(), metrics.New("primary_"+t.Name()))
	router := gin.New()
	NewPrimaryHandler(m, metrics.New("primary_http_"+t.Name())).Register(router)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func TestSendLogCommittedReturns200(t *testing.T) {
	cfg := primary.DefaultConfig()
	cfg.SelfName = "primary"
	srv := newPrimaryTestRouter(t, cfg)

	status, body := postSendLog(t, srv.URL, "hello", 1)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, float64(http.StatusOK), body["status"])
	require.Contains(t, body, "message_id")
	require.NotContains(t, body, "message")
}

func TestSendLogPartiallyAcceptedReturns202(t *testing.T) {
	cfg := primary.DefaultConfig()
	cfg.SelfName = "primary"
	cfg.Peers = map[string]string{"ghost": "http://127.0.0.1:1"}
	cfg.RequestWait = 30 * time.Millisecond
	cfg.RPCDeadline = 20 * time.Millisecond
	srv := newPrimaryTestRouter(t, cfg)

	status, body := postSendLog(t, srv.URL, "hello", 2)
	require.Equal(t, http.StatusAccepted, status)
	require.Equal(t, float64(http.StatusAccepted), body["status"])
	require.Equal(t, float64(1), body["acks"])
	require.Equal(t, "Accepted but only 1/2 acks received", body["message"])
}

func postSendLog(t *testing.T, baseURL, message string, w int) (int, map[string]any) {
	t.Helper()
	payload, _ := json.Marshal(map[string]any{"message": message, "w": w})
	resp, err := http.Post(baseURL+"/send_log", "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}
