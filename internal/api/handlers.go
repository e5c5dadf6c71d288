package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/yegors/flight-kiosk/internal/config"
	"github.com/yegors/flight-kiosk/internal/flights"
	"github.com/yegors/flight-kiosk/pkg/logger"
)

// maxBodyBytes caps admin request bodies
const maxBodyBytes = 1 << 16

// FlightsProvider is the part of the flights service the handlers use
type FlightsProvider interface {
	Local(ctx context.Context, home *config.HomeConfig) flights.Result
	Best(ctx context.Context, home *config.HomeConfig) flights.Result
	Global(ctx context.Context) flights.Result
	Status() (lastFetch time.Time, upstreamOK bool, lastErr string)
}

// SettingsStore reads and updates the home settings
type SettingsStore interface {
	Get() config.HomeConfig
	Set(u config.HomeUpdate) (config.HomeConfig, error)
}

// Handler contains the API handlers
type Handler struct {
	flights  FlightsProvider
	settings SettingsStore
	version  string
	logger   *logger.Logger
}

// NewHandler creates a new API handler
func NewHandler(flightsProvider FlightsProvider, settings SettingsStore, version string, log *logger.Logger) *Handler {
	return &Handler{
		flights:  flightsProvider,
		settings: settings,
		version:  version,
		logger:   log.Named("api-handler"),
	}
}

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// GetHealth reports liveness and the state of the upstream feed
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	lastFetch, upstreamOK, lastErr := h.flights.Status()

	response := map[string]interface{}{
		"status":      "ok",
		"version":     h.version,
		"timestamp":   time.Now().UTC(),
		"upstream_ok": upstreamOK,
	}
	if !lastFetch.IsZero() {
		response["last_fetch"] = lastFetch
	}
	if lastErr != "" {
		response["last_error"] = lastErr
	}

	WriteJSON(w, http.StatusOK, response)
}

// GetLocalFlights returns the nearest flights around the home point, or
// around the point given in the query string
func (h *Handler) GetLocalFlights(w http.ResponseWriter, r *http.Request) {
	home, err := h.homeOverride(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	start := time.Now()
	result := h.flights.Local(r.Context(), home)

	h.logger.Debug("Local flights served",
		logger.String("mode", result.Mode),
		logger.Int("flights", len(result.Flights)),
		logger.Bool("override", home != nil),
		logger.Duration("duration", time.Since(start)))

	WriteJSON(w, http.StatusOK, result)
}

// GetBestFlight returns the single flight chosen for the primary display slot
func (h *Handler) GetBestFlight(w http.ResponseWriter, r *http.Request) {
	home, err := h.homeOverride(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	WriteJSON(w, http.StatusOK, h.flights.Best(r.Context(), home))
}

// GetGlobalFlights returns the most-tracked flights worldwide
func (h *Handler) GetGlobalFlights(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.flights.Global(r.Context()))
}

// GetConfig returns the current home settings
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	response := struct {
		Success bool              `json:"success"`
		Config  config.HomeConfig `json:"config"`
	}{
		Success: true,
		Config:  h.settings.Get(),
	}
	WriteJSON(w, http.StatusOK, response)
}

// UpdateConfig applies a partial update to the home settings
func (h *Handler) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	var req config.HomeUpdate

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		h.logger.Warn("Failed to parse config update", logger.Error(err))
		WriteJSON(w, http.StatusBadRequest, errorResponse{Message: "Invalid JSON"})
		return
	}

	home, err := h.settings.Set(req)
	if err != nil {
		var vErr *config.ValidationError
		if errors.As(err, &vErr) {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		h.logger.Error("Failed to update config", logger.Error(err))
		WriteJSON(w, http.StatusInternalServerError, errorResponse{Message: "Failed to save configuration"})
		return
	}

	response := struct {
		Success bool              `json:"success"`
		Message string            `json:"message"`
		Config  config.HomeConfig `json:"config"`
	}{
		Success: true,
		Message: "Configuration updated",
		Config:  home,
	}
	WriteJSON(w, http.StatusOK, response)
}

// homeOverride builds a one-off home from the query string. It returns nil
// when the request carries no overrides so the stored settings are used.
func (h *Handler) homeOverride(r *http.Request) (*config.HomeConfig, error) {
	q := r.URL.Query()
	var u config.HomeUpdate

	floatParam := func(name string, dst **float64) error {
		v := q.Get(name)
		if v == "" {
			return nil
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return &config.ValidationError{Field: name, Message: fmt.Sprintf("not a number: %q", v)}
		}
		*dst = &f
		return nil
	}
	intParam := func(name string, dst **int) error {
		v := q.Get(name)
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return &config.ValidationError{Field: name, Message: fmt.Sprintf("not an integer: %q", v)}
		}
		*dst = &n
		return nil
	}

	for _, err := range []error{
		floatParam("lat", &u.Latitude),
		floatParam("lon", &u.Longitude),
		floatParam("radius", &u.RadiusKm),
		intParam("minAlt", &u.MinAltitude),
		intParam("maxAlt", &u.MaxAltitude),
	} {
		if err != nil {
			return nil, err
		}
	}

	if u.Empty() {
		return nil, nil
	}

	home := u.Apply(h.settings.Get())
	if err := config.ValidateHome(home); err != nil {
		return nil, err
	}
	return &home, nil
}

func writeError(w http.ResponseWriter, status int, err error) {
	resp := errorResponse{Message: err.Error()}
	var vErr *config.ValidationError
	if errors.As(err, &vErr) {
		resp.Field = vErr.Field
	}
	WriteJSON(w, status, resp)
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
