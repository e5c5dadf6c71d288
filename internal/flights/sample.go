package flights

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/yegors/flight-kiosk/internal/geo"
)

// DefaultSampleCount is the number of placeholder flights produced
const DefaultSampleCount = 4

var (
	sampleAirlines      = []string{"UA", "AA", "DL", "WN", "B6", "NK", "F9"}
	sampleAircraftTypes = []struct{ code, name string }{
		{"B738", "Boeing 737"},
		{"A320", "Airbus A320"},
		{"B788", "Boeing 787"},
		{"A359", "Airbus A350"},
		{"B77W", "Boeing 777"},
		{"E75L", "Embraer E175"},
	}
	sampleOrigins      = []string{"DEN", "LAX", "SFO", "ORD", "JFK", "ATL"}
	sampleDestinations = []string{"PHX", "SEA", "MSP", "BOS", "MIA", "DFW"}
)

// SampleGenerator produces plausible placeholder flights around a point.
// Samples are always commercial flights of one of sampleAirlines.
type SampleGenerator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSampleGenerator creates a generator. A nil rng is seeded from the clock.
func NewSampleGenerator(rng *rand.Rand) *SampleGenerator {
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>1|1))
	}
	return &SampleGenerator{rng: rng}
}

// Generate returns n sample flights jittered within ~0.05° of (lat, lon),
// each tagged as sample data with its distance from (lat, lon) set.
func (g *SampleGenerator) Generate(lat, lon float64, n int) []FlightRecord {
	if n <= 0 {
		n = DefaultSampleCount
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]FlightRecord, 0, n)
	for i := 0; i < n; i++ {
		airline := sampleAirlines[g.rng.IntN(len(sampleAirlines))]
		ac := sampleAircraftTypes[g.rng.IntN(len(sampleAircraftTypes))]
		origin := sampleOrigins[g.rng.IntN(len(sampleOrigins))]
		dest := sampleDestinations[g.rng.IntN(len(sampleDestinations))]
		flightNumber := fmt.Sprintf("%s%d", airline, g.rng.IntN(9000)+1000)

		pos := Position{
			Latitude:  lat + (g.rng.Float64()-0.5)*0.1,
			Longitude: lon + (g.rng.Float64()-0.5)*0.1,
		}
		dist := geo.DistanceKm(lat, lon, pos.Latitude, pos.Longitude)

		out = append(out, FlightRecord{
			ID:               fmt.Sprintf("a%x", g.rng.IntN(1_000_000)),
			Identifier:       flightNumber,
			FlightNumber:     flightNumber,
			Callsign:         flightNumber,
			Position:         &pos,
			Altitude:         g.rng.IntN(30000) + 10000,
			HasAltitude:      true,
			GroundSpeed:      g.rng.IntN(200) + 300,
			VerticalRate:     g.rng.IntN(1000) - 500,
			Track:            float64(g.rng.IntN(360)),
			AircraftTypeCode: ac.code,
			AircraftTypeName: ac.name,
			OriginCode:       origin,
			DestinationCode:  dest,
			OriginName:       origin,
			DestinationName:  dest,
			Route:            origin + " → " + dest,
			AirlineCode:      airline,
			AirlineName:      fallbackAirlineNames[airline],
			Category:         CategoryCommercial,
			DistanceKm:       &dist,
			Sample:           true,
			Source:           SourceSample,
		})
	}
	return out
}
