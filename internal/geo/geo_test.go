package geo

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBoundingBoxOrdering(t *testing.T) {
	tests := []struct {
		name   string
		lat    float64
		lon    float64
		radius float64
	}{
		{"new york", 40.7484, -73.9857, 75},
		{"equator", 0, 0, 10},
		{"southern", -33.86, 151.2, 200},
		{"near pole", 88.9, 10, 50},
		{"antimeridian", 10, 179.9, 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := BoundingBox(tt.lat, tt.lon, tt.radius)
			assert.Less(t, b.LatMin, b.LatMax)
			assert.Less(t, b.LonMin, b.LonMax)
			assert.True(t, b.Contains(tt.lat, tt.lon))
		})
	}
}

func TestBoundingBoxDeltas(t *testing.T) {
	b := BoundingBox(0, 0, 111)
	assert.InDelta(t, -1.0, b.LatMin, 1e-9)
	assert.InDelta(t, 1.0, b.LatMax, 1e-9)
	assert.InDelta(t, -1.0, b.LonMin, 1e-9)
	assert.InDelta(t, 1.0, b.LonMax, 1e-9)

	// longitude delta widens with latitude
	b60 := BoundingBox(60, 0, 111)
	assert.InDelta(t, 2.0, b60.LonMax, 1e-6)
}

func TestBoxString(t *testing.T) {
	b := Box{LatMin: 40.07, LatMax: 41.43, LonMin: -74.88, LonMax: -73.09}
	assert.Equal(t, "41.43,40.07,-74.88,-73.09", b.String())
	assert.Equal(t, "90.00,-90.00,-180.00,180.00", World.String())
}

func TestDistanceKm(t *testing.T) {
	assert.Equal(t, 0.0, DistanceKm(51.5, -0.12, 51.5, -0.12))

	jfkLat, jfkLon := 40.6413, -73.7781
	lhrLat, lhrLon := 51.4700, -0.4543
	d1 := DistanceKm(jfkLat, jfkLon, lhrLat, lhrLon)
	d2 := DistanceKm(lhrLat, lhrLon, jfkLat, jfkLon)

	assert.Equal(t, d1, d2)
	assert.InDelta(t, 5540, d1, 15)

	// one degree of latitude is ~111 km
	assert.InDelta(t, 111.19, DistanceKm(0, 0, 1, 0), 0.05)
}

func TestMagneticTrack(t *testing.T) {
	assert.InDelta(t, 10.0, MagneticTrack(0, -10), 1e-9)
	assert.InDelta(t, 350.0, MagneticTrack(5, 15), 1e-9)
	assert.InDelta(t, 0.0, MagneticTrack(360, 0), 1e-9)
}

func TestMagneticVariationConcurrent(t *testing.T) {
	date := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	want := MagneticVariation(40.64, -73.78, 35000, date)

	const workers = 8
	got := make([][]float64, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				got[i] = append(got[i], MagneticVariation(40.64, -73.78, 35000, date))
			}
		}(i)
	}
	wg.Wait()

	for _, vals := range got {
		for _, v := range vals {
			assert.Equal(t, want, v)
		}
	}
}
