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
	"can-dashboard/src/interfaces"
	"can-dashboard/src/logger"
	"can-dashboard/src/models"
	"can-dashboard/src/server"
	"can-dashboard/src/storage"
	"can-dashboard/src/transport"

	"github.com/benbjohnson/clock"
)

// -----------------------------------------------------------------------------

func main() {

	// Parse command line flags
	configPath := flag.String("config", "../../config/default.yaml", "path to config file")
	flag.Parse()

	// Load config from YAML file
	config, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	appLogger := logger.NewLogger(config.LogLevel, config.Name)

	// Context for the whole pipeline
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 2. Storage (optional)
	var db interfaces.IDatabase

	if config.Storage.Enabled {
		switch config.Storage.DBType {
		case "postgres":
			db, err = storage.NewAsyncPostgresDB(config.MConfig, appLogger)
		default:
			// Default to SQLite
			db, err = storage.NewAsyncSQLiteDB(config.MConfig, appLogger)
		}

		if err != nil {
			appLogger.Critical("Failed to init db: %v", err)
		}
		if err := db.Initialize(); err != nil {
			appLogger.Critical("Failed to migrate db: %v", err)
		}
		defer db.Close()

		// Periodic retention cleanup
		go func() {
			ticker := time.NewTicker(time.Hour)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					db.CleanupOldData()
				}
			}
		}()
	}

	// 3. Broker transport
	subscriber, err := transport.NewAMQPSubscriber(config.MConfig, appLogger)
	if err != nil {
		appLogger.Critical("Failed to connect to broker: %v", err)
	}
	defer subscriber.Close()

	if err := subscriber.Start(ctx); err != nil {
		appLogger.Critical("Failed to start consumer: %v", err)
	}

	// 4. Command channel to the backend
	var commander interfaces.ICommander
	if config.Broker.CommandQueue != "" {
		commander, err = transport.NewAMQPCommander(config.MConfig, appLogger)
		if err != nil {
			appLogger.Warning("Command channel unavailable: %v", err)
			commander = nil
		} else {
			defer commander.Close()
		}
	}

	// 5. HTTP/WebSocket server
	srv := server.NewDashboardServer(config.MConfig, appLogger)

	if commander != nil {
		srv.SetCommandHandler(func(command string, args map[string]interface{}) (*models.MCommandResponse, error) {
			return commander.Send(ctx, command, args)
		})
	}

	// 6. Dispatch pipeline
	gate := transport.NewSignalGate(config.Signals)
	metrics := dispatch.NewMetrics(srv.Registry)
	dispatcher := dispatch.NewDispatcher(
		config.MConfig,
		appLogger,
		clock.New(),
		subscriber,
		gate,
		srv,
		db,
		metrics,
	)

	srv.SetStatsProvider(dispatcher.Stats)
	srv.SetMessagesProvider(dispatcher.Messages)

	// 7. Attach the backend to the bus before data starts flowing
	if commander != nil && config.CAN.AutoConnect {
		autoConnect(ctx, config.MConfig, commander, appLogger)
	}

	// 8. Start Server
	go func() {
		if err := srv.Start(); err != nil {
			appLogger.Error("Server failed: %v", err)
		}
	}()

	// 9. Shutdown on SIGINT/SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-quit
		appLogger.Info("Shutting down...")
		cancel()
	}()

	// 10. Main Loop (blocks until cancelled)
	dispatcher.Run(ctx)

	srv.Stop()
}

// -----------------------------------------------------------------------------

// autoConnect performs the startup handshake with the CAN backend:
// attach to the bus, then load the signal database.
func autoConnect(ctx context.Context, cfg *models.MConfig, commander interfaces.ICommander, log *logger.Logger) {
	resp, err := commander.Send(ctx, "connect_can", map[string]interface{}{
		"interface": cfg.CAN.Interface,
		"channel":   cfg.CAN.Channel,
		"bitrate":   cfg.CAN.Bitrate,
	})
	if err != nil {
		log.Warning("connect_can failed: %v", err)
		return
	}
	log.Info("connect_can: %s (%s)", resp.Status, resp.Message)

	if cfg.CAN.DBCPath == "" {
		return
	}
	resp, err = commander.Send(ctx, "load_dbc", map[string]interface{}{
		"path": cfg.CAN.DBCPath,
	})
	if err != nil {
		log.Warning("load_dbc failed: %v", err)
		return
	}
	log.Info("load_dbc: %s (%s)", resp.Status, resp.Message)
}
