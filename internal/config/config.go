package config

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config represents the main application configuration structure
type Config struct {
	Server    ServerConfig    `toml:"server"`    // HTTP server settings
	Feed      FeedConfig      `toml:"feed"`      // Upstream flight feed settings
	Home      HomeConfig      `toml:"home"`      // Reference point and altitude band
	Selection SelectionConfig `toml:"selection"` // Listing and best-flight policy knobs
	Cache     CacheConfig     `toml:"cache"`     // Result cache lifetimes
	Lookup    LookupConfig    `toml:"lookup"`    // Code lookup tables
	Logging   LoggingConfig   `toml:"logging"`   // Application logging settings

	path string
}

// ServerConfig contains HTTP server configuration settings
type ServerConfig struct {
	Port               int      `toml:"port"`
	Host               string   `toml:"host"`
	CORSAllowedOrigins []string `toml:"cors_allowed_origins"` // use ["*"] for all origins
	ReadTimeoutSecs    int      `toml:"read_timeout_seconds"`
	WriteTimeoutSecs   int      `toml:"write_timeout_seconds"`
	IdleTimeoutSecs    int      `toml:"idle_timeout_seconds"`
	StaticFilesDir     string   `toml:"static_files_dir"` // kiosk page directory
}

// FeedConfig contains settings for the upstream positional feed
type FeedConfig struct {
	BaseURL             string  `toml:"base_url"`
	TimeoutSecs         int     `toml:"timeout_seconds"`          // whole-fetch deadline, retries included
	RequestsPerSecond   float64 `toml:"requests_per_second"`      // 0 disables throttling
	MaxRetries          int     `toml:"max_retries"`              // retries after the first attempt
	UserAgent           string  `toml:"user_agent"`               // sent on every request
	RefreshIntervalSecs int     `toml:"refresh_interval_seconds"` // background refresh; 0 disables
}

// HomeConfig is the reference point and altitude band used for selection
type HomeConfig struct {
	Latitude    float64 `toml:"latitude" json:"latitude"`
	Longitude   float64 `toml:"longitude" json:"longitude"`
	RadiusKm    float64 `toml:"radius_km" json:"radius"`
	MinAltitude int     `toml:"min_altitude" json:"minAltitude"` // feet
	MaxAltitude int     `toml:"max_altitude" json:"maxAltitude"` // feet
}

// SelectionConfig tunes the selector
type SelectionConfig struct {
	ListingCap      int `toml:"listing_cap"`
	BestMinAltitude int `toml:"best_min_altitude"` // feet, strictly greater than
	SampleCount     int `toml:"sample_count"`
}

// CacheConfig holds the two independent cache lifetimes
type CacheConfig struct {
	FeedTTLSecs   int `toml:"feed_ttl_seconds"`
	SampleTTLSecs int `toml:"sample_ttl_seconds"`
}

// LookupConfig points at the code lookup tables. When SQLitePath is set the
// tables are read from the database instead of the JSON files.
type LookupConfig struct {
	AircraftPath string `toml:"aircraft_path"`
	AirportsPath string `toml:"airports_path"`
	AirlinesPath string `toml:"airlines_path"`
	SQLitePath   string `toml:"sqlite_path"`
	LRUSize      int    `toml:"lru_size"`
}

// LoggingConfig contains application logging configuration
type LoggingConfig struct {
	Level      string `toml:"level"`  // "debug", "info", "warn" or "error"
	Format     string `toml:"format"` // "json" or "console"
	File       string `toml:"file"`   // optional rotating log file
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
	Compress   bool   `toml:"compress"`
}

// DefaultMaxRetries is used when the file does not set feed.max_retries
const DefaultMaxRetries = 2

// Default returns a configuration with every default applied
func Default() *Config {
	// max_retries = 0 is meaningful, so its default is only set here and
	// never re-applied after decoding
	c := &Config{Feed: FeedConfig{MaxRetries: DefaultMaxRetries}}
	c.applyDefaults()
	return c
}

// Load loads the configuration from the specified file path
func Load(path string) (*Config, error) {
	config := Default()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	if _, err := toml.DecodeFile(path, config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	config.path = path
	return config, nil
}

// LoadWithFallback loads the configuration by checking multiple locations in order of preference
func LoadWithFallback(preferredPath string) (*Config, error) {
	searchPaths := []string{
		preferredPath,         // Preferred path from command line
		"configs/config.toml", // Local configs directory
		"config.toml",         // Root directory
	}

	// Remove duplicates and empty paths
	uniquePaths := make([]string, 0, len(searchPaths))
	seen := make(map[string]bool)
	for _, path := range searchPaths {
		if path != "" && !seen[path] {
			uniquePaths = append(uniquePaths, path)
			seen[path] = true
		}
	}

	// Try each path in order
	var lastErr error
	for _, path := range uniquePaths {
		if _, err := os.Stat(path); err == nil {
			config, err := Load(path)
			if err != nil {
				lastErr = fmt.Errorf("failed to load config from %s: %w", path, err)
				continue
			}
			return config, nil
		}
		lastErr = fmt.Errorf("config file not found: %s", path)
	}

	return nil, fmt.Errorf("config file not found in any of the expected locations: %v. Last error: %w", uniquePaths, lastErr)
}

// Path returns the file the configuration was loaded from, if any
func (c *Config) Path() string {
	return c.path
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 3000
	}
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.ReadTimeoutSecs == 0 {
		c.Server.ReadTimeoutSecs = 15
	}
	if c.Server.WriteTimeoutSecs == 0 {
		c.Server.WriteTimeoutSecs = 30
	}
	if c.Server.IdleTimeoutSecs == 0 {
		c.Server.IdleTimeoutSecs = 60
	}
	if len(c.Server.CORSAllowedOrigins) == 0 {
		c.Server.CORSAllowedOrigins = []string{"*"}
	}

	if c.Feed.BaseURL == "" {
		c.Feed.BaseURL = "https://data-cloud.flightradar24.com"
	}
	if c.Feed.TimeoutSecs == 0 {
		c.Feed.TimeoutSecs = 15
	}

	if c.Home == (HomeConfig{}) {
		c.Home = HomeConfig{
			Latitude:    40.7484405,
			Longitude:   -73.9856644,
			RadiusKm:    75,
			MinAltitude: 10000,
			MaxAltitude: 45000,
		}
	}

	if c.Selection.ListingCap == 0 {
		c.Selection.ListingCap = 4
	}
	if c.Selection.BestMinAltitude == 0 {
		c.Selection.BestMinAltitude = 10000
	}
	if c.Selection.SampleCount == 0 {
		c.Selection.SampleCount = 4
	}

	if c.Cache.FeedTTLSecs == 0 {
		c.Cache.FeedTTLSecs = 30
	}
	if c.Cache.SampleTTLSecs == 0 {
		c.Cache.SampleTTLSecs = 10
	}

	if c.Lookup.LRUSize == 0 {
		c.Lookup.LRUSize = 2048
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
}

// Validate fills defaults and validates the configuration
func (c *Config) Validate() error {
	c.applyDefaults()

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.StaticFilesDir != "" {
		if _, err := os.Stat(c.Server.StaticFilesDir); os.IsNotExist(err) {
			return fmt.Errorf("static files directory does not exist: %s", c.Server.StaticFilesDir)
		}
	}

	if c.Feed.TimeoutSecs < 0 {
		return fmt.Errorf("invalid feed timeout: %d", c.Feed.TimeoutSecs)
	}
	if c.Feed.MaxRetries < 0 {
		return fmt.Errorf("invalid feed max_retries: %d", c.Feed.MaxRetries)
	}
	if c.Feed.RequestsPerSecond < 0 {
		return fmt.Errorf("invalid feed requests_per_second: %f", c.Feed.RequestsPerSecond)
	}
	if c.Feed.RefreshIntervalSecs < 0 {
		return fmt.Errorf("invalid feed refresh interval: %d", c.Feed.RefreshIntervalSecs)
	}

	if err := ValidateHome(c.Home); err != nil {
		return err
	}

	if c.Selection.ListingCap < 0 || c.Selection.SampleCount < 0 {
		return fmt.Errorf("selection counts must not be negative")
	}
	if c.Cache.FeedTTLSecs < 0 || c.Cache.SampleTTLSecs < 0 {
		return fmt.Errorf("cache ttl must not be negative")
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	return nil
}

// ValidationError reports a rejected configuration value
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// ValidateHome validates the reference point and altitude band
func ValidateHome(h HomeConfig) error {
	if err := ValidateCoordinates(h.Latitude, h.Longitude); err != nil {
		return err
	}
	if h.RadiusKm <= 0 {
		return &ValidationError{Field: "radius", Message: "must be greater than 0"}
	}
	if h.MinAltitude < 0 {
		return &ValidationError{Field: "minAltitude", Message: "must not be negative"}
	}
	if h.MinAltitude > h.MaxAltitude {
		return &ValidationError{Field: "maxAltitude", Message: "must be at least minAltitude"}
	}
	return nil
}

// ValidateCoordinates checks latitude and longitude ranges
func ValidateCoordinates(lat, lon float64) error {
	if math.IsNaN(lat) || math.IsNaN(lon) {
		return &ValidationError{Field: "coordinates", Message: "must be valid numbers"}
	}
	if lat < -90 || lat > 90 {
		return &ValidationError{Field: "latitude", Message: "must be between -90 and 90"}
	}
	if lon < -180 || lon > 180 {
		return &ValidationError{Field: "longitude", Message: "must be between -180 and 180"}
	}
	return nil
}
