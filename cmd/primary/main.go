// cmd/primary is the main entrypoint for the replicated log's primary node.
//
// Configuration is entirely via flags, mirroring the teacher's single-binary
// approach to node configuration.
//
// Example — primary with two secondaries:
//
//	./primary --addr :8080 --peers sec1=http://localhost:8081,sec2=http://localhost:8082
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/you/replicatedlog/internal/api"
	"github.com/you/replicatedlog/internal/logging"
	"github.com/you/replicatedlog/internal/metrics"
	"github.com/you/replicatedlog/internal/primary"
)

func main() {
	// ── Flags ──────────────────────────────────────────────────────────────
	selfName := flag.String("name", "primary", "This node's name, reported in logs")
	addr := flag.String("addr", ":8080", "Listen address (host:port)")
	peersFlag := flag.String("peers", "", "Comma-separated list of secondaries: name=http://host:port")
	hbInterval := flag.Duration("heartbeat-interval", 5*time.Second, "Interval between heartbeat passes")
	suspectedTimeout := flag.Duration("suspected-timeout", 10*time.Second, "Time since last heartbeat after which a peer is Suspected")
	unhealthyTimeout := flag.Duration("unhealthy-timeout", 20*time.Second, "Time since last heartbeat after which a peer is Unhealthy")
	dev := flag.Bool("dev", false, "Use development logging (human-readable, debug level)")
	flag.Parse()

	logger, err := logging.New(*dev)
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	defer logger.Sync()

	cfg := primary.DefaultConfig()
	cfg.SelfName = *selfName
	cfg.Peers = parsePeers(*peersFlag)
	cfg.HeartbeatInterval = *hbInterval
	cfg.SuspectedTimeout = *suspectedTimeout
	cfg.UnhealthyTimeout = *unhealthyTimeout

	met := metrics.New("primary")
	manager := primary.New(cfg, logger, met)

	ctx, cancelRun := context.WithCancel(context.Background())
	defer cancelRun()
	go manager.Run(ctx)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(api.RequestID(), api.Logger(logger), api.Recovery(logger))

	handler := api.NewPrimaryHandler(manager, met)
	handler.Register(router)

	srv := &http.Server{
		Addr:         *addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 150 * time.Second, // Append may block up to RequestWait.
	}

	go func() {
		logger.Info("primary listening", zap.String("addr", *addr), zap.Int("peers", len(cfg.Peers)))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down primary")
	cancelRun()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
}

func parsePeers(raw string) map[string]string {
	peers := make(map[string]string)
	if raw == "" {
		return peers
	}
	for _, entry := range strings.Split(raw, ",") {
		parts := strings.SplitN(entry, "=", 2)
		if len(parts) != 2 {
			log.Fatalf("invalid peer format %q: expected name=http://host:port", entry)
		}
		peers[parts[0]] = parts[1]
	}
	return peers
}
