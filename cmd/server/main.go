package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yegors/flight-kiosk/internal/api"
	"github.com/yegors/flight-kiosk/internal/config"
	"github.com/yegors/flight-kiosk/internal/feed"
	"github.com/yegors/flight-kiosk/internal/flights"
	"github.com/yegors/flight-kiosk/internal/lookup"
	"github.com/yegors/flight-kiosk/internal/storage/sqlite"
	"github.com/yegors/flight-kiosk/pkg/logger"
)

var (
	// Version is injected at build time
	Version = "dev"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to configuration file (optional - will search in configs/ and root directory)")
	flag.Parse()

	// Load configuration with fallback logic
	cfg, err := config.LoadWithFallback(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Create logger
	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		File: logger.FileConfig{
			Path:       cfg.Logging.File,
			MaxSizeMB:  cfg.Logging.MaxSizeMB,
			MaxBackups: cfg.Logging.MaxBackups,
			MaxAgeDays: cfg.Logging.MaxAgeDays,
			Compress:   cfg.Logging.Compress,
		},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting flight kiosk server",
		logger.String("version", Version),
		logger.String("config_path", cfg.Path()),
	)

	// Load lookup tables
	tables, closeTables, err := loadTables(cfg.Lookup, log)
	if err != nil {
		log.Error("Failed to load lookup tables", logger.Error(err))
		os.Exit(1)
	}
	defer closeTables()

	// Create feed client
	feedClient := feed.NewClient(feedClientConfig(cfg), log)

	// Create runtime settings and flights service
	settings := config.NewSettings(cfg, log)

	flightsService := flights.NewService(
		feedClient,
		settings,
		flights.NewEnricher(tables),
		flights.NewSampleGenerator(nil),
		flights.Options{
			FeedTTL:         time.Duration(cfg.Cache.FeedTTLSecs) * time.Second,
			SampleTTL:       time.Duration(cfg.Cache.SampleTTLSecs) * time.Second,
			RefreshInterval: time.Duration(cfg.Feed.RefreshIntervalSecs) * time.Second,
			ListingCap:      cfg.Selection.ListingCap,
			BestMinAltitude: cfg.Selection.BestMinAltitude,
			SampleCount:     cfg.Selection.SampleCount,
		},
		log,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start flights service
	if err := flightsService.Start(ctx); err != nil {
		log.Error("Failed to start flights service", logger.Error(err))
		os.Exit(1)
	}

	// Setup HTTP server
	handler := api.NewHandler(flightsService, settings, Version, log)
	router := api.NewRouter(handler, api.RouterConfig{
		AllowedOrigins: cfg.Server.CORSAllowedOrigins,
		StaticDir:      cfg.Server.StaticFilesDir,
		RequestTimeout: time.Duration(cfg.Server.WriteTimeoutSecs) * time.Second,
	}, log)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Routes(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSecs) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSecs) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeoutSecs) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("Starting HTTP server", logger.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", logger.String("addr", server.Addr), logger.Error(err))
			cancel()
		}
	}()

	// Wait for interrupt signal or server failure
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")

	// Stop flights service first
	log.Info("Stopping flights service...")
	flightsService.Stop()
	log.Info("Flights service stopped.")

	cancel()

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", logger.Error(err))
	}

	log.Info("Server fully stopped")
}

// feedClientConfig maps the feed section onto the client. MaxRetries is taken
// as-is so that 0 disables retries.
func feedClientConfig(cfg *config.Config) feed.ClientConfig {
	retry := feed.DefaultRetryConfig()
	retry.MaxRetries = cfg.Feed.MaxRetries

	return feed.ClientConfig{
		BaseURL:           cfg.Feed.BaseURL,
		Timeout:           time.Duration(cfg.Feed.TimeoutSecs) * time.Second,
		RequestsPerSecond: cfg.Feed.RequestsPerSecond,
		UserAgent:         cfg.Feed.UserAgent,
		Retry:             retry,
	}
}

// loadTables reads the lookup tables from SQLite when configured, otherwise
// from the JSON files. The returned func releases the database.
func loadTables(cfg config.LookupConfig, log *logger.Logger) (lookup.Tables, func(), error) {
	if cfg.SQLitePath == "" {
		tables, err := lookup.LoadTables(cfg.AircraftPath, cfg.AirportsPath, cfg.AirlinesPath, log)
		return tables, func() {}, err
	}

	store, err := sqlite.NewLookupStorage(cfg.SQLitePath, log)
	if err != nil {
		return lookup.Tables{}, nil, err
	}

	for _, kind := range sqlite.Kinds() {
		n, err := store.Count(context.Background(), kind)
		if err != nil {
			store.Close()
			return lookup.Tables{}, nil, err
		}
		log.Info("Lookup table ready",
			logger.String("kind", string(kind)),
			logger.String("path", cfg.SQLitePath),
			logger.Int("count", n))
	}

	tables, err := lookup.FromStorage(store, cfg.LRUSize)
	if err != nil {
		store.Close()
		return lookup.Tables{}, nil, err
	}

	return tables, func() {
		if err := store.Close(); err != nil {
			log.Warn("Failed to close lookup database", logger.Error(err))
		}
	}, nil
}
