package flights

import (
	"slices"

	"github.com/yegors/flight-kiosk/internal/geo"
)

// Band is an inclusive altitude range in feet
type Band struct {
	Min int
	Max int
}

// Contains reports whether alt lies inside the band
func (b Band) Contains(alt int) bool {
	return alt >= b.Min && alt <= b.Max
}

// Selector filters, ranks and picks flights relative to a reference point
type Selector struct {
	ListingCap      int
	BestMinAltitude int
}

// Airborne drops records that report being on the ground
func Airborne(recs []FlightRecord) []FlightRecord {
	out := make([]FlightRecord, 0, len(recs))
	for _, r := range recs {
		if !r.OnGround {
			out = append(out, r)
		}
	}
	return out
}

// InBand keeps records inside the band. Records without altitude data are
// kept only when includeUnknown is set.
func InBand(recs []FlightRecord, band Band, includeUnknown bool) []FlightRecord {
	out := make([]FlightRecord, 0, len(recs))
	for _, r := range recs {
		if !r.HasAltitude {
			if includeUnknown {
				out = append(out, r)
			}
			continue
		}
		if band.Contains(r.Altitude) {
			out = append(out, r)
		}
	}
	return out
}

// WithDistance returns copies of recs with DistanceKm set from (lat, lon).
// Records without a position keep a nil distance.
func WithDistance(recs []FlightRecord, lat, lon float64) []FlightRecord {
	out := make([]FlightRecord, len(recs))
	for i, r := range recs {
		r.DistanceKm = nil
		if r.Position != nil {
			d := geo.DistanceKm(lat, lon, r.Position.Latitude, r.Position.Longitude)
			r.DistanceKm = &d
		}
		out[i] = r
	}
	return out
}

// SelectBest is the best-flight policy: the closest record strictly above
// minAltitude, otherwise the first candidate in the order given. The
// fallback is the most-tracked flight, not a second distance sort.
func SelectBest(candidates []FlightRecord, minAltitude int) (FlightRecord, bool) {
	if len(candidates) == 0 {
		return FlightRecord{}, false
	}

	best := -1
	for i, r := range candidates {
		if r.Altitude <= minAltitude || r.DistanceKm == nil {
			continue
		}
		if best < 0 || *r.DistanceKm < *candidates[best].DistanceKm {
			best = i
		}
	}
	if best >= 0 {
		return candidates[best], true
	}
	return candidates[0], true
}

// ListNearest stable-sorts by distance (records without one go last) and
// truncates to limit. A limit of 0 or less means no cap.
func ListNearest(recs []FlightRecord, limit int) []FlightRecord {
	out := slices.Clone(recs)
	slices.SortStableFunc(out, func(a, b FlightRecord) int {
		switch {
		case a.DistanceKm == nil && b.DistanceKm == nil:
			return 0
		case a.DistanceKm == nil:
			return 1
		case b.DistanceKm == nil:
			return -1
		case *a.DistanceKm < *b.DistanceKm:
			return -1
		case *a.DistanceKm > *b.DistanceKm:
			return 1
		default:
			return 0
		}
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Best runs the best-flight selection. Records lacking altitude are included.
func (s Selector) Best(recs []FlightRecord, lat, lon float64, band Band) (FlightRecord, bool) {
	candidates := WithDistance(InBand(Airborne(recs), band, true), lat, lon)
	return SelectBest(candidates, s.BestMinAltitude)
}

// List runs the local listing: strict band, nearest first, capped. It also
// returns how many records survived filtering before the cap.
func (s Selector) List(recs []FlightRecord, lat, lon float64, band Band) ([]FlightRecord, int) {
	candidates := WithDistance(InBand(Airborne(recs), band, false), lat, lon)
	return ListNearest(candidates, s.ListingCap), len(candidates)
}

// MostTracked keeps airborne records in feed order, capped, with distances from (lat, lon)
func (s Selector) MostTracked(recs []FlightRecord, lat, lon float64) ([]FlightRecord, int) {
	airborne := Airborne(recs)
	total := len(airborne)
	if s.ListingCap > 0 && len(airborne) > s.ListingCap {
		airborne = airborne[:s.ListingCap]
	}
	return WithDistance(airborne, lat, lon), total
}
