// Portal Core - NFC portal controller
//
// This is the main entry point for the Portal Core daemon. It drives a
// USB NFC pad, resolves tag placements against a persistent registry,
// and dispatches them to plugins (webhooks, discovery logging), with
// optional MQTT mirroring and InfluxDB metrics.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/bricknest/portal-core/migrations"

	"github.com/bricknest/portal-core/internal/api"
	"github.com/bricknest/portal-core/internal/bus"
	"github.com/bricknest/portal-core/internal/controller"
	"github.com/bricknest/portal-core/internal/infrastructure/config"
	"github.com/bricknest/portal-core/internal/infrastructure/database"
	"github.com/bricknest/portal-core/internal/infrastructure/influxdb"
	"github.com/bricknest/portal-core/internal/infrastructure/logging"
	"github.com/bricknest/portal-core/internal/infrastructure/mqtt"
	"github.com/bricknest/portal-core/internal/plugin"
	"github.com/bricknest/portal-core/internal/portal"
	"github.com/bricknest/portal-core/internal/tag"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
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
	log.Info("starting Portal Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

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
	db, err := database.Open(database.Config{
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

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Initialise tag registry
	tagRepo := tag.NewSQLiteRepository(db.DB)
	registry := tag.NewRegistry(tagRepo)
	registry.SetLogger(log)

	// Import declarative tag definitions if the file is newer than the store
	importer := tag.NewImporter(tagRepo, registry, cfg.Tags.DefinitionFile)
	importer.SetLogger(log)
	if importErr := importer.Run(ctx); importErr != nil {
		return fmt.Errorf("importing tag definitions: %w", importErr)
	}

	// Open the pad driver
	driver, deviceKind, err := openDriver(cfg.Portal, log)
	if err != nil {
		return fmt.Errorf("opening portal device: %w", err)
	}
	defer func() {
		log.Info("closing portal device")
		if closeErr := driver.Close(); closeErr != nil {
			log.Error("error closing portal device", "error", closeErr)
		}
	}()
	log.Info("portal device opened", "driver", deviceKind)

	// Event bus and plugin dispatch
	b := bus.New()

	dispatcher := plugin.NewDispatcher(b, registry)
	dispatcher.SetLogger(log)

	unregistered := plugin.NewUnregisteredPlugin()
	unregistered.SetLogger(log)
	dispatcher.Register(unregistered)
	dispatcher.Register(plugin.NewWebhookPlugin(plugin.NewHTTPPoster()))
	log.Info("plugins registered", "count", len(dispatcher.Plugins()))

	// Connect to MQTT broker (optional) and mirror bus traffic onto it
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
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})

		mirror := mqtt.NewMirror(mqttClient, byte(cfg.MQTT.QoS))
		mirror.SetLogger(log)
		mirror.Attach(b)

		commands := mqtt.NewCommandListener(mqttClient, driver, byte(cfg.MQTT.QoS))
		commands.SetLogger(log)
		if cmdErr := commands.Start(); cmdErr != nil {
			return fmt.Errorf("starting MQTT command listener: %w", cmdErr)
		}
	} else {
		log.Info("MQTT disabled")
	}

	// Controller loop
	loop := controller.New(driver, registry, b, controller.Config{
		PollTimeout:    cfg.PollTimeout(),
		FaultThreshold: cfg.Portal.FaultThreshold,
		RetryDelay:     cfg.RetryDelay(),
		Colors:         feedbackColors(cfg.Colors),
	})
	loop.SetLogger(log)

	// Connect to InfluxDB (optional) and record loop metrics
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})

		loop.SetMetrics(influxdb.NewRecorder(influxClient))
	} else {
		log.Info("InfluxDB disabled")
	}

	// REST API
	server, err := api.New(api.Deps{
		Config:   cfg.API,
		Logger:   log,
		Registry: registry,
		Repo:     tagRepo,
		Loop:     loop,
		Device:   deviceKind,
		Version:  version,
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

	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	// Run the controller loop until shutdown or a fault threshold trip
	loopErr := make(chan error, 1)
	go func() {
		loopErr <- loop.Run(ctx)
	}()

	log.Info("initialisation complete, polling for tags")

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, cleaning up")
		loop.Stop()
		<-loopErr
	case err := <-loopErr:
		if err != nil {
			return fmt.Errorf("controller loop: %w", err)
		}
	}

	log.Info("Portal Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses PORTAL_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("PORTAL_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// openDriver opens the configured pad driver and names it for status reporting.
func openDriver(cfg config.PortalConfig, log *logging.Logger) (portal.Driver, string, error) {
	if cfg.Simulated {
		log.Info("using simulated portal driver")
		return portal.NewSimDriver(), "simulated", nil
	}

	driver, err := portal.OpenUSB(portal.USBConfig{
		VendorID:  cfg.VendorID,
		ProductID: cfg.ProductID,
	})
	if err != nil {
		return nil, "", err
	}
	return driver, "usb", nil
}

// feedbackColors maps configured colour values onto the loop palette.
func feedbackColors(cfg config.ColorsConfig) controller.Colors {
	return controller.Colors{
		Idle:     portal.Color{R: cfg.Idle.R, G: cfg.Idle.G, B: cfg.Idle.B},
		Error:    portal.Color{R: cfg.Error.R, G: cfg.Error.G, B: cfg.Error.B},
		Thinking: portal.Color{R: cfg.Thinking.R, G: cfg.Thinking.G, B: cfg.Thinking.B},
	}
}

// healthCheck verifies all infrastructure connections are healthy.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
