package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/yegors/flight-kiosk/pkg/logger"
)

// HomeUpdate is a partial update of the home settings; nil fields are left alone
type HomeUpdate struct {
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	RadiusKm    *float64 `json:"radius"`
	MinAltitude *int     `json:"minAltitude"`
	MaxAltitude *int     `json:"maxAltitude"`
}

// Empty reports whether the update carries no values
func (u HomeUpdate) Empty() bool {
	return u.Latitude == nil && u.Longitude == nil && u.RadiusKm == nil &&
		u.MinAltitude == nil && u.MaxAltitude == nil
}

// Apply returns h with the update merged in. It does not validate.
func (u HomeUpdate) Apply(h HomeConfig) HomeConfig {
	if u.Latitude != nil {
		h.Latitude = *u.Latitude
	}
	if u.Longitude != nil {
		h.Longitude = *u.Longitude
	}
	if u.RadiusKm != nil {
		h.RadiusKm = *u.RadiusKm
	}
	if u.MinAltitude != nil {
		h.MinAltitude = *u.MinAltitude
	}
	if u.MaxAltitude != nil {
		h.MaxAltitude = *u.MaxAltitude
	}
	return h
}

// Settings is the runtime-mutable home configuration. Every accepted change
// bumps the generation so in-flight work issued for older values can be told apart.
type Settings struct {
	mu         sync.RWMutex
	cfg        Config
	generation uint64
	persist    bool
	logger     *logger.Logger
}

// NewSettings creates a settings store seeded from cfg. When cfg was loaded
// from a file, accepted updates are written back to it.
func NewSettings(cfg *Config, log *logger.Logger) *Settings {
	return &Settings{
		cfg:        *cfg,
		generation: 1,
		persist:    cfg.path != "",
		logger:     log.Named("settings"),
	}
}

// Get returns the current home settings
func (s *Settings) Get() HomeConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.Home
}

// Snapshot returns the current home settings with their generation
func (s *Settings) Snapshot() (HomeConfig, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.Home, s.generation
}

// Generation returns the current generation
func (s *Settings) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// Set merges and validates an update. On any error the stored settings are unchanged.
func (s *Settings) Set(u HomeUpdate) (HomeConfig, error) {
	if u.Empty() {
		return HomeConfig{}, &ValidationError{Field: "home", Message: "no values supplied"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := u.Apply(s.cfg.Home)
	if err := ValidateHome(next); err != nil {
		s.logger.Warn("Rejected home update", logger.Error(err))
		return s.cfg.Home, err
	}

	if s.persist {
		updated := s.cfg
		updated.Home = next
		if err := writeConfig(s.cfg.path, &updated); err != nil {
			s.logger.Error("Failed to save configuration", logger.Error(err), logger.String("path", s.cfg.path))
			return s.cfg.Home, fmt.Errorf("failed to save configuration: %w", err)
		}
	}

	changed := next != s.cfg.Home
	s.cfg.Home = next
	if changed {
		s.generation++
	}

	s.logger.Info("Home settings updated",
		logger.Float64("latitude", next.Latitude),
		logger.Float64("longitude", next.Longitude),
		logger.Float64("radius_km", next.RadiusKm),
		logger.Int("min_altitude", next.MinAltitude),
		logger.Int("max_altitude", next.MaxAltitude),
		logger.Uint64("generation", s.generation))

	return next, nil
}

// writeConfig encodes cfg to a temp file next to path and renames it into place
func writeConfig(path string, cfg *Config) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".config-*.toml")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := toml.NewEncoder(tmp).Encode(cfg); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
