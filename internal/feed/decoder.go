package feed

import (
	"errors"
	"fmt"

	"github.com/iancoleman/orderedmap"
)

var (
	// ErrUpstreamUnavailable covers network errors, non-2xx answers, timeouts and unreadable bodies
	ErrUpstreamUnavailable = errors.New("upstream feed unavailable")

	// ErrDecodeSkip marks a single record that was dropped
	ErrDecodeSkip = errors.New("record skipped")
)

// MinFields is the minimum number of positional fields a record must carry
const MinFields = 14

// Positional layout of a feed record
const (
	idxLatitude     = 1
	idxLongitude    = 2
	idxTrack        = 3
	idxAltitude     = 4
	idxGroundSpeed  = 5
	idxSquawk       = 6
	idxRadar        = 7
	idxTypeCode     = 8
	idxRegistration = 9
	idxCallsign     = 10
	idxOrigin       = 11
	idxDestination  = 12
	idxFlightNumber = 13
	idxOnGround     = 14
	idxVerticalRate = 15
)

var metadataKeys = map[string]bool{
	"full_count": true,
	"fullcount":  true,
	"version":    true,
	"stats":      true,
}

// Raw is one feed record with named fields. Empty strings mean the feed omitted the value.
type Raw struct {
	ID           string
	Latitude     *float64
	Longitude    *float64
	Track        float64
	Altitude     int
	HasAltitude  bool
	GroundSpeed  int
	Squawk       string
	Radar        string
	TypeCode     string
	Registration string
	Callsign     string
	Origin       string
	Destination  string
	FlightNumber string
	OnGround     bool
	VerticalRate int
}

// HasPosition reports whether both coordinates parsed
func (r Raw) HasPosition() bool {
	return r.Latitude != nil && r.Longitude != nil
}

// Response is a decoded feed payload. Records keep the feed's key order.
type Response struct {
	Records   []Raw
	FullCount int
	Version   int
	Skipped   int
}

// Decode parses a feed body. Individual bad records are counted in Skipped
// rather than failing the batch.
func Decode(body []byte) (*Response, error) {
	om := orderedmap.New()
	if err := om.UnmarshalJSON(body); err != nil {
		return nil, fmt.Errorf("failed to parse feed body: %w", err)
	}

	resp := &Response{Records: make([]Raw, 0, len(om.Keys()))}

	for _, key := range om.Keys() {
		value, _ := om.Get(key)

		if metadataKeys[key] {
			switch key {
			case "full_count", "fullcount":
				resp.FullCount = NewField(value).Int()
			case "version":
				resp.Version = NewField(value).Int()
			}
			continue
		}

		arr, ok := value.([]any)
		if !ok {
			resp.Skipped++
			continue
		}

		fields := make([]Field, len(arr))
		for i, v := range arr {
			fields[i] = NewField(v)
		}

		rec, err := DecodeRecord(key, fields)
		if err != nil {
			resp.Skipped++
			continue
		}
		resp.Records = append(resp.Records, rec)
	}

	return resp, nil
}

// DecodeRecord maps positional fields onto a Raw record
func DecodeRecord(id string, fields []Field) (Raw, error) {
	if len(fields) < MinFields {
		return Raw{}, fmt.Errorf("%w: %s has %d fields, need %d", ErrDecodeSkip, id, len(fields), MinFields)
	}

	at := func(i int) Field {
		if i < len(fields) {
			return fields[i]
		}
		return Field{}
	}

	rec := Raw{
		ID:           id,
		GroundSpeed:  at(idxGroundSpeed).Int(),
		Squawk:       at(idxSquawk).String(),
		Radar:        at(idxRadar).String(),
		TypeCode:     at(idxTypeCode).String(),
		Registration: at(idxRegistration).String(),
		Callsign:     at(idxCallsign).String(),
		Origin:       at(idxOrigin).String(),
		Destination:  at(idxDestination).String(),
		FlightNumber: at(idxFlightNumber).String(),
		OnGround:     at(idxOnGround).Bool(),
		VerticalRate: at(idxVerticalRate).Int(),
	}

	if lat, ok := at(idxLatitude).Float64(); ok {
		rec.Latitude = &lat
	}
	if lon, ok := at(idxLongitude).Float64(); ok {
		rec.Longitude = &lon
	}
	if track, ok := at(idxTrack).Float64(); ok {
		rec.Track = track
	}
	rec.Altitude, rec.HasAltitude = at(idxAltitude).IntOK()

	return rec, nil
}
