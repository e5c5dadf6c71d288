package flights

import "time"

// Category is the fixed classification of a flight, decided once at decode time
type Category string

const (
	CategoryCommercial Category = "commercial"
	CategoryCargo      Category = "cargo"
	CategoryPrivate    Category = "private"
)

// Result modes and sources
const (
	ModeLive = "live"
	ModeDemo = "demo"

	SourceFeed   = "FLIGHTRADAR24"
	SourceSample = "Sample Data"
)

// Position is a latitude/longitude pair in decimal degrees
type Position struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// FlightRecord is one decoded and enriched flight
type FlightRecord struct {
	ID               string    `json:"id"`
	Identifier       string    `json:"identifier"`
	FlightNumber     string    `json:"flight_number,omitempty"`
	Callsign         string    `json:"callsign,omitempty"`
	Registration     string    `json:"registration,omitempty"`
	Position         *Position `json:"position,omitempty"`
	Altitude         int       `json:"altitude"`
	HasAltitude      bool      `json:"-"`
	GroundSpeed      int       `json:"ground_speed"`
	VerticalRate     int       `json:"vertical_rate"`
	Track            float64   `json:"track"`
	Squawk           string    `json:"squawk,omitempty"`
	Radar            string    `json:"radar,omitempty"`
	AircraftTypeCode string    `json:"aircraft_type_code,omitempty"`
	AircraftTypeName string    `json:"aircraft_type"`
	OriginCode       string    `json:"origin,omitempty"`
	DestinationCode  string    `json:"destination,omitempty"`
	OriginName       string    `json:"origin_name"`
	DestinationName  string    `json:"destination_name"`
	Route            string    `json:"route"`
	AirlineCode      string    `json:"airline_code"`
	AirlineName      string    `json:"airline_name"`
	Category         Category  `json:"category"`
	OnGround         bool      `json:"on_ground"`

	// Set only by the selector, relative to the reference point of that selection
	DistanceKm    *float64 `json:"distance_km,omitempty"`
	MagneticTrack *float64 `json:"magnetic_track,omitempty"`

	Sample bool   `json:"is_sample,omitempty"`
	Source string `json:"source,omitempty"`
}

// IsCargo reports whether the flight is a cargo carrier
func (r FlightRecord) IsCargo() bool { return r.Category == CategoryCargo }

// IsPrivate reports whether the flight is a private aircraft
func (r FlightRecord) IsPrivate() bool { return r.Category == CategoryPrivate }

// Filters echoes the altitude band a listing was computed with
type Filters struct {
	MinAltitude int `json:"minAltitude"`
	MaxAltitude int `json:"maxAltitude"`
}

// Result is what the service hands to the HTTP layer
type Result struct {
	Success   bool           `json:"success"`
	Flights   []FlightRecord `json:"flights"`
	Mode      string         `json:"mode"`
	Source    string         `json:"source"`
	Count     int            `json:"count,omitempty"`
	Filters   *Filters       `json:"filters,omitempty"`
	Stale     bool           `json:"stale,omitempty"`
	FetchedAt time.Time      `json:"fetched_at"`
}
