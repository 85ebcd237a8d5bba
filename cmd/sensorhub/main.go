// Sensor Hub - energy consumption telemetry backend
//
// This is the main entry point for the sensor hub application. It wires
// together the SQLite reading store, the account/session services, the HTTP
// API with its WebSocket broadcast, and the optional MQTT ingest source and
// InfluxDB mirror.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/gafdot/backend-consumo-energetico/migrations"

	"github.com/gafdot/backend-consumo-energetico/internal/api"
	"github.com/gafdot/backend-consumo-energetico/internal/auth"
	"github.com/gafdot/backend-consumo-energetico/internal/infrastructure/config"
	"github.com/gafdot/backend-consumo-energetico/internal/infrastructure/database"
	"github.com/gafdot/backend-consumo-energetico/internal/infrastructure/logging"
	"github.com/gafdot/backend-consumo-energetico/internal/infrastructure/mqtt"
	"github.com/gafdot/backend-consumo-energetico/internal/infrastructure/tsdb"
	"github.com/gafdot/backend-consumo-energetico/internal/sensor"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Cancel on interrupt signals (Ctrl+C, SIGTERM) for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting sensor hub",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(ctx, database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Account and session service
	accountRepo := auth.NewAccountRepository(db.DB)
	authService := auth.NewService(accountRepo, cfg.Security.JWT.Secret, cfg.TokenTTL())

	accountCount, err := accountRepo.Count(ctx)
	if err != nil {
		return fmt.Errorf("counting accounts: %w", err)
	}
	log.Info("account store ready", "accounts", accountCount)

	// The hub is created before the sensor service so ingested readings can
	// be pushed to WebSocket subscribers regardless of which path (HTTP or
	// MQTT) delivered them.
	hub := api.NewHub(cfg.WebSocket, log)

	// Connect to InfluxDB (optional)
	var mirror sensor.Mirror
	if cfg.InfluxDB.Enabled {
		influxClient, connErr := tsdb.Connect(ctx, cfg.InfluxDB)
		if connErr != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", connErr)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
		mirror = influxClient
	} else {
		log.Info("InfluxDB disabled")
	}

	// Sensor reading service
	sensorRepo := sensor.NewRepository(db.DB)
	sensorService := sensor.NewService(sensorRepo, hub, mirror)

	// Connect to MQTT broker (optional ingest source)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log)
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Host, cfg.MQTT.Port),
			"client_id", cfg.MQTT.ClientID,
		)

		// #nosec G115 -- QoS is validated to 0..2 by config.Validate
		if subErr := mqttClient.SubscribeReadings(cfg.MQTT.Topic, byte(cfg.MQTT.QoS), sensorService); subErr != nil {
			return fmt.Errorf("subscribing to readings topic: %w", subErr)
		}
		log.Info("MQTT ingest subscribed", "topic", cfg.MQTT.Topic)
	} else {
		log.Info("MQTT ingest disabled")
	}

	// Start the HTTP API
	server, err := api.New(api.Deps{
		Config:  cfg.Server,
		WS:      cfg.WebSocket,
		Logger:  log,
		Auth:    authService,
		Sensors: sensorService,
		Hub:     hub,
		Version: version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if startErr := server.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()
	log.Info("API server listening",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, server, mqttClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// 1. API server (drains in-flight requests, closes WebSocket clients)
	// 2. MQTT (if enabled)
	// 3. InfluxDB (if enabled)
	// 4. Database

	log.Info("sensor hub stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses CONSUMO_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("CONSUMO_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies the infrastructure connections are healthy.
// mqttClient may be nil when the ingest source is disabled.
func healthCheck(ctx context.Context, db *database.DB, server *api.Server, mqttClient *mqtt.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if err := server.HealthCheck(ctx); err != nil {
		return fmt.Errorf("api: %w", err)
	}

	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	return nil
}
