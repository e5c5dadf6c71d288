package geo

import (
	"fmt"
	"math"
)

const (
	EarthRadiusKm = 6371.0
	KmPerDegree   = 111.0
)

// Box is a lat/lon rectangle used to scope a feed query
type Box struct {
	LatMin float64
	LatMax float64
	LonMin float64
	LonMax float64
}

// BoundingBox returns the box of radiusKm around (lat, lon).
// Near the poles cos(lat) approaches zero and the longitude delta grows
// without bound; callers get whatever the division yields.
func BoundingBox(lat, lon, radiusKm float64) Box {
	latDelta := radiusKm / KmPerDegree
	lonDelta := radiusKm / (KmPerDegree * math.Cos(toRadians(lat)))

	return Box{
		LatMin: lat - latDelta,
		LatMax: lat + latDelta,
		LonMin: lon - lonDelta,
		LonMax: lon + lonDelta,
	}
}

// World covers the whole globe
var World = Box{LatMin: -90, LatMax: 90, LonMin: -180, LonMax: 180}

// String renders the box in the feed's bounds order: north,south,west,east
func (b Box) String() string {
	return fmt.Sprintf("%.2f,%.2f,%.2f,%.2f", b.LatMax, b.LatMin, b.LonMin, b.LonMax)
}

// Contains reports whether the point lies inside the box
func (b Box) Contains(lat, lon float64) bool {
	return lat >= b.LatMin && lat <= b.LatMax && lon >= b.LonMin && lon <= b.LonMax
}

// DistanceKm returns the Haversine great-circle distance in kilometres
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	// clamp to account for floating point error
	a = max(0, min(1, a))
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
