package main

import (
	"github.com/wfunc/unoserver/config"
	"github.com/wfunc/unoserver/logger"
	"github.com/wfunc/unoserver/monitor"
	"github.com/wfunc/unoserver/persistence"
	"github.com/wfunc/unoserver/server"
)

func main() {
	// Initialize logger
	logger.Init()

	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize persistence
	var store persistence.Store
	switch cfg.Persistence.Backend {
	case "postgres":
		store, err = persistence.NewGormPostgreSQL(
			cfg.Persistence.Postgres.Host,
			cfg.Persistence.Postgres.Port,
			cfg.Persistence.Postgres.User,
			cfg.Persistence.Postgres.Password,
			cfg.Persistence.Postgres.DBName,
		)
		if err != nil {
			logger.Log.Fatalf("Failed to connect to database: %v", err)
		}
		logger.Log.Info("Database connection successful.")
	default:
		store, err = persistence.NewFileStore(cfg.Persistence.FilePath)
		if err != nil {
			logger.Log.Fatalf("Failed to open state file: %v", err)
		}
	}

	// Metrics endpoint
	mon := monitor.NewMonitor("unoserver")
	mon.StartServer(cfg.Server.MetricsAddress)

	// Initialize game server and bring saved rooms back
	gameServer := server.NewGameServer(cfg, store, mon)
	gameServer.RestoreRooms()

	// Start server
	logger.Log.Infof("Starting game server on %s", cfg.Server.ListenAddress)
	if err := gameServer.Start(); err != nil {
		logger.Log.Fatalf("Failed to start server: %v", err)
	}
}
