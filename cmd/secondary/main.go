// cmd/secondary is the main entrypoint for a replicated log secondary node.
//
// Example:
//
//	./secondary --name sec1 --addr :8081
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/you/replicatedlog/internal/api"
	"github.com/you/replicatedlog/internal/logging"
	"github.com/you/replicatedlog/internal/metrics"
	"github.com/you/replicatedlog/internal/secondary"
)

func main() {
	name := flag.String("name", "secondary", "This node's name, reported in heartbeat responses")
	addr := flag.String("addr", ":8081", "Listen address (host:port)")
	networkDelay := flag.Duration("network-delay", 0, "Artificial delay before applying a replicated entry (test/demo use)")
	dev := flag.Bool("dev", false, "Use development logging (human-readable, debug level)")
	flag.Parse()

	logger, err := logging.New(*dev)
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	defer logger.Sync()

	met := metrics.New("secondary")
	applier := secondary.New(*name, *networkDelay, logger, met)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(api.RequestID(), api.Logger(logger), api.Recovery(logger))

	handler := api.NewSecondaryHandler(applier, met)
	handler.Register(router)

	srv := &http.Server{
		Addr:         *addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("secondary listening", zap.String("name", *name), zap.String("addr", *addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down secondary", zap.String("name", *name))
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
}
