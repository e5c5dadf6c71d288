// Command lookupimport copies the JSON lookup tables into the SQLite lookup database.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/yegors/flight-kiosk/internal/config"
	"github.com/yegors/flight-kiosk/internal/lookup"
	"github.com/yegors/flight-kiosk/internal/storage/sqlite"
	"github.com/yegors/flight-kiosk/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file supplying default paths")
	dbPath := flag.String("db", "", "SQLite database to write (defaults to lookup.sqlite_path)")
	aircraftPath := flag.String("aircraft", "", "Aircraft type JSON (defaults to lookup.aircraft_path)")
	airportsPath := flag.String("airports", "", "Airport JSON (defaults to lookup.airports_path)")
	airlinesPath := flag.String("airlines", "", "Airline JSON (defaults to lookup.airlines_path)")
	verbose := flag.Bool("v", false, "Debug logging")
	flag.Parse()

	level := "info"
	if *verbose {
		level = "debug"
	}
	log, err := logger.New(logger.Config{Level: level, Format: "console"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	cfg := config.Default()
	if *configPath != "" {
		if cfg, err = config.Load(*configPath); err != nil {
			log.Error("Failed to load configuration", logger.Error(err))
			os.Exit(1)
		}
	}

	paths := map[sqlite.Kind]string{
		sqlite.KindAircraft: firstNonEmpty(*aircraftPath, cfg.Lookup.AircraftPath),
		sqlite.KindAirports: firstNonEmpty(*airportsPath, cfg.Lookup.AirportsPath),
		sqlite.KindAirlines: firstNonEmpty(*airlinesPath, cfg.Lookup.AirlinesPath),
	}
	db := firstNonEmpty(*dbPath, cfg.Lookup.SQLitePath)
	if db == "" {
		log.Error("No database path given; use -db or set lookup.sqlite_path")
		os.Exit(2)
	}

	if err := run(context.Background(), db, paths, log); err != nil {
		log.Error("Import failed", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, dbPath string, paths map[sqlite.Kind]string, log *logger.Logger) error {
	store, err := sqlite.NewLookupStorage(dbPath, log)
	if err != nil {
		return err
	}
	defer store.Close()

	start := time.Now()
	total := 0
	for _, kind := range sqlite.Kinds() {
		path := paths[kind]
		if path == "" {
			log.Warn("Skipping table with no source file", logger.String("kind", string(kind)))
			continue
		}

		entries, err := lookup.ReadJSON(path)
		if err != nil {
			return fmt.Errorf("%s: %w", kind, err)
		}

		n, err := store.Import(ctx, kind, entries)
		if err != nil {
			return fmt.Errorf("%s: %w", kind, err)
		}
		total += n

		log.Info("Imported lookup table",
			logger.String("kind", string(kind)),
			logger.String("source", path),
			logger.Int("rows", n))
	}

	log.Info("Import complete",
		logger.String("db", dbPath),
		logger.Int("rows", total),
		logger.Duration("elapsed", time.Since(start)))
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
