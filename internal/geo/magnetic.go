package geo

import (
	"math"
	"sync"
	"time"

	"github.com/westphae/geomag/pkg/egm96"
	"github.com/westphae/geomag/pkg/wmm"
)

const feetToMeters = 0.3048

// wmm keeps its loaded coefficients in package globals
var wmmMu sync.Mutex

// MagneticVariation returns the magnetic declination in degrees (east positive)
// at the given position, altitude and date. Returns 0 if the model can't be evaluated.
func MagneticVariation(lat, lon, altFt float64, date time.Time) float64 {
	loc := egm96.NewLocationGeodetic(lat, lon, altFt*feetToMeters)

	wmmMu.Lock()
	mag, err := wmm.CalculateWMMMagneticField(loc, date)
	wmmMu.Unlock()
	if err != nil {
		return 0
	}

	return mag.D()
}

// MagneticTrack converts a true track to a magnetic one, normalised to [0, 360)
func MagneticTrack(trueTrack, variation float64) float64 {
	m := math.Mod(trueTrack-variation, 360)
	if m < 0 {
		m += 360
	}
	return m
}
