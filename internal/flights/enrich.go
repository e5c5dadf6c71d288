package flights

import (
	"github.com/yegors/flight-kiosk/internal/feed"
	"github.com/yegors/flight-kiosk/internal/lookup"
)

// Route sentinels for records without a complete filed route
const (
	RouteLocal   = "Local Flight"
	RouteEnRoute = "En Route"
	unknownName  = "Unknown"
)

// fallbackAirlineNames covers the carriers seen most often when the airline table has no entry
var fallbackAirlineNames = map[string]string{
	"UA": "United Airlines",
	"AA": "American Airlines",
	"DL": "Delta Air Lines",
	"WN": "Southwest Airlines",
	"AS": "Alaska Airlines",
	"B6": "JetBlue",
	"SW": "Southwest Airlines",
	"F9": "Frontier Airlines",
	"NK": "Spirit Airlines",
	"N":  "Private Aircraft",

	"FDX": "FedEx",
	"UPS": "UPS",
	"GTI": "Atlas Air",
	"AMZ": "Amazon Air",
	"QFA": "Qantas Freight",
	"CKK": "China Cargo",
}

// Enricher turns raw feed records into flight records using the lookup tables
type Enricher struct {
	tables lookup.Tables
}

// NewEnricher creates an enricher; nil tables behave as empty
func NewEnricher(tables lookup.Tables) *Enricher {
	return &Enricher{tables: tables.OrEmpty()}
}

// Enrich builds a FlightRecord from a raw feed record. It never consults
// a reference point, so the result is safe to cache.
func (e *Enricher) Enrich(raw feed.Raw) FlightRecord {
	identifier := ResolveIdentifier(raw.FlightNumber, raw.Callsign, raw.Registration)
	category, airlineCode := Classify(identifier)

	rec := FlightRecord{
		ID:               raw.ID,
		Identifier:       identifier,
		FlightNumber:     raw.FlightNumber,
		Callsign:         raw.Callsign,
		Registration:     raw.Registration,
		Altitude:         raw.Altitude,
		HasAltitude:      raw.HasAltitude,
		GroundSpeed:      raw.GroundSpeed,
		VerticalRate:     raw.VerticalRate,
		Track:            raw.Track,
		Squawk:           raw.Squawk,
		Radar:            raw.Radar,
		AircraftTypeCode: raw.TypeCode,
		AircraftTypeName: nameOrCode(e.tables.Aircraft, raw.TypeCode),
		OriginCode:       raw.Origin,
		DestinationCode:  raw.Destination,
		OriginName:       nameOrCode(e.tables.Airports, raw.Origin),
		DestinationName:  nameOrCode(e.tables.Airports, raw.Destination),
		AirlineCode:      airlineCode,
		AirlineName:      e.AirlineName(airlineCode),
		Category:         category,
		OnGround:         raw.OnGround,
		Source:           SourceFeed,
	}
	if raw.HasPosition() {
		rec.Position = &Position{Latitude: *raw.Latitude, Longitude: *raw.Longitude}
	}
	rec.Route = ComposeRoute(raw.Origin, raw.Destination, rec.OriginName, rec.DestinationName)

	return rec
}

// EnrichAll enriches a batch, preserving order
func (e *Enricher) EnrichAll(raws []feed.Raw) []FlightRecord {
	out := make([]FlightRecord, 0, len(raws))
	for _, r := range raws {
		out = append(out, e.Enrich(r))
	}
	return out
}

// AirlineName resolves an airline code: table, then the built-in map, then the code itself
func (e *Enricher) AirlineName(code string) string {
	if name, ok := e.tables.Airlines.Lookup(code); ok {
		return name
	}
	if name, ok := fallbackAirlineNames[code]; ok {
		return name
	}
	return code
}

// ComposeRoute renders "origin → destination" when both codes are known.
// With only one end known the flight is "En Route"; with neither it is a "Local Flight".
func ComposeRoute(originCode, destCode, originName, destName string) string {
	hasOrigin := originCode != "" && originCode != unknownName
	hasDest := destCode != "" && destCode != unknownName

	switch {
	case hasOrigin && hasDest:
		return originName + " → " + destName
	case hasOrigin || hasDest:
		return RouteEnRoute
	default:
		return RouteLocal
	}
}

func nameOrCode(t lookup.Table, code string) string {
	if code == "" {
		return unknownName
	}
	if name, ok := t.Lookup(code); ok {
		return name
	}
	return code
}
