package flights

import (
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yegors/flight-kiosk/internal/geo"
)

const (
	refLat = 40.0
	refLon = -74.0
)

// north places a record distKm due north of the reference point
func north(id string, distKm float64, alt int) FlightRecord {
	return FlightRecord{
		ID:          id,
		Position:    &Position{Latitude: refLat + distKm/geo.KmPerDegree, Longitude: refLon},
		Altitude:    alt,
		HasAltitude: true,
	}
}

func ids(recs []FlightRecord) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.ID
	}
	return out
}

func TestSelectBestPrefersClosestHighFlight(t *testing.T) {
	s := Selector{ListingCap: 4, BestMinAltitude: 10000}
	recs := []FlightRecord{north("far", 20, 30000), north("near", 5, 30000)}

	best, ok := s.Best(recs, refLat, refLon, Band{Min: 0, Max: 45000})
	require.True(t, ok)
	assert.Equal(t, "near", best.ID)
	require.NotNil(t, best.DistanceKm)
	assert.InDelta(t, 5.0, *best.DistanceKm, 0.1)
}

func TestSelectBestFallsBackToFirstRecord(t *testing.T) {
	s := Selector{ListingCap: 4, BestMinAltitude: 10000}
	recs := []FlightRecord{north("first", 40, 8000), north("closer", 2, 9000)}

	best, ok := s.Best(recs, refLat, refLon, Band{Min: 0, Max: 45000})
	require.True(t, ok)
	assert.Equal(t, "first", best.ID)
}

func TestSelectBestIncludesRecordsWithoutAltitude(t *testing.T) {
	s := Selector{ListingCap: 4, BestMinAltitude: 10000}
	noAlt := north("no-alt", 1, 0)
	noAlt.HasAltitude = false

	best, ok := s.Best([]FlightRecord{noAlt}, refLat, refLon, Band{Min: 10000, Max: 45000})
	require.True(t, ok)
	assert.Equal(t, "no-alt", best.ID)
}

func TestSelectBestEmpty(t *testing.T) {
	_, ok := SelectBest(nil, 10000)
	assert.False(t, ok)
}

func TestListFiltersSortsAndCaps(t *testing.T) {
	s := Selector{ListingCap: 3, BestMinAltitude: 10000}

	ground := north("ground", 1, 20000)
	ground.OnGround = true
	noAlt := north("no-alt", 2, 0)
	noAlt.HasAltitude = false

	recs := []FlightRecord{
		north("d30", 30, 20000),
		ground,
		noAlt,
		north("d10a", 10, 20000),
		north("low", 3, 5000),
		north("d10b", 10, 20000),
		north("d50", 50, 20000),
	}

	listed, total := s.List(recs, refLat, refLon, Band{Min: 10000, Max: 45000})
	assert.Equal(t, 4, total)
	assert.Equal(t, []string{"d10a", "d10b", "d30"}, ids(listed))
}

func TestListNearestPutsMissingDistanceLast(t *testing.T) {
	d := 5.0
	recs := []FlightRecord{{ID: "nopos"}, {ID: "pos", DistanceKm: &d}}
	assert.Equal(t, []string{"pos", "nopos"}, ids(ListNearest(recs, 0)))
}

func TestWithDistanceDoesNotMutateInput(t *testing.T) {
	recs := []FlightRecord{north("a", 10, 20000)}
	out := WithDistance(recs, refLat, refLon)

	assert.Nil(t, recs[0].DistanceKm)
	require.NotNil(t, out[0].DistanceKm)
}

func TestMostTrackedKeepsFeedOrder(t *testing.T) {
	s := Selector{ListingCap: 2}
	ground := north("ground", 1, 0)
	ground.OnGround = true

	listed, total := s.MostTracked([]FlightRecord{north("far", 90, 30000), ground, north("near", 1, 30000), north("mid", 40, 30000)}, refLat, refLon)
	assert.Equal(t, 3, total)
	assert.Equal(t, []string{"far", "near"}, ids(listed))
}

func TestResultCacheTTL(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	c := NewResultCache[[]string](30*time.Second, clock)

	_, _, ok := c.Get()
	assert.False(t, ok)

	c.Set([]string{"UA4704"})

	now = now.Add(29 * time.Second)
	v, _, ok := c.Get()
	require.True(t, ok)
	assert.Equal(t, []string{"UA4704"}, v)

	now = now.Add(2 * time.Second)
	_, _, ok = c.Get()
	assert.False(t, ok)

	v, fetchedAt, ok := c.Last()
	require.True(t, ok)
	assert.Equal(t, []string{"UA4704"}, v)
	assert.Equal(t, now.Add(-31*time.Second), fetchedAt)
}

func TestSampleGenerator(t *testing.T) {
	g := NewSampleGenerator(rand.New(rand.NewPCG(7, 11)))
	recs := g.Generate(refLat, refLon, 0)

	require.Len(t, recs, DefaultSampleCount)
	for _, r := range recs {
		assert.True(t, r.Sample)
		assert.Equal(t, SourceSample, r.Source)
		require.NotNil(t, r.Position)
		assert.InDelta(t, refLat, r.Position.Latitude, 0.05)
		assert.InDelta(t, refLon, r.Position.Longitude, 0.05)
		assert.GreaterOrEqual(t, r.Altitude, 10000)
		assert.Less(t, r.Altitude, 40000)
		assert.Equal(t, CategoryCommercial, r.Category)
		assert.NotEmpty(t, r.AirlineName)
		require.NotNil(t, r.DistanceKm)
	}
}

func TestSampleGeneratorKeepsCommercialAirlines(t *testing.T) {
	g := NewSampleGenerator(rand.New(rand.NewPCG(42, 1)))

	sawSpirit := false
	for _, r := range g.Generate(refLat, refLon, 200) {
		assert.Equal(t, CategoryCommercial, r.Category, r.Identifier)
		assert.Contains(t, sampleAirlines, r.AirlineCode)
		assert.True(t, strings.HasPrefix(r.Identifier, r.AirlineCode), r.Identifier)
		assert.Equal(t, fallbackAirlineNames[r.AirlineCode], r.AirlineName)
		if r.AirlineCode == "NK" {
			sawSpirit = true
			assert.Equal(t, "Spirit Airlines", r.AirlineName)
			assert.False(t, r.IsPrivate())
		}
	}
	require.True(t, sawSpirit, "expected at least one NK sample in 200 draws")
}
