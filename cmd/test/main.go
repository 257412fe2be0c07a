package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"can-dashboard/src/config"
	"can-dashboard/src/dispatch"
	"can-dashboard/src/logger"
	"can-dashboard/src/server"
	"can-dashboard/src/transport"

	"github.com/benbjohnson/clock"
)

// Synthetic telemetry harness: runs the full dispatch pipeline against a
// generated drive cycle instead of the broker, for local dashboard work.
func main() {
	// 1. Parse command line flags
	configPath := flag.String("config", "../../config/default.yaml", "path to config file")
	rate := flag.Duration("rate", 2*time.Millisecond, "synthetic frame interval")
	flag.Parse()

	// 2. Load config
	conf, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// 3. Setup Logger
	appLogger := logger.NewLogger(conf.LogLevel, conf.Name+"-test")

	// 4. Fake transport instead of the broker
	fake := NewFakeTransport(1024)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go fake.Generate(*rate, ctx.Done())

	// 5. Server and pipeline (no storage in the harness)
	srv := server.NewDashboardServer(conf.MConfig, appLogger)
	gate := transport.NewSignalGate(conf.Signals)
	metrics := dispatch.NewMetrics(srv.Registry)

	dispatcher := dispatch.NewDispatcher(
		conf.MConfig,
		appLogger,
		clock.New(),
		fake,
		gate,
		srv,
		nil,
		metrics,
	)

	srv.SetStatsProvider(dispatcher.Stats)
	srv.SetMessagesProvider(dispatcher.Messages)

	go func() {
		if err := srv.Start(); err != nil {
			appLogger.Error("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-quit
		appLogger.Info("Shutting down...")
		cancel()
	}()

	appLogger.Info("Replaying synthetic drive cycle every %v", *rate)
	dispatcher.Run(ctx)
}
