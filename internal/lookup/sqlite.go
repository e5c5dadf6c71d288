package lookup

import (
	"github.com/yegors/flight-kiosk/internal/storage/sqlite"
)

// FromStorage builds tables backed by the SQLite lookup store, each behind an LRU
func FromStorage(store *sqlite.LookupStorage, lruSize int) (Tables, error) {
	wrap := func(kind sqlite.Kind) (Table, error) {
		return NewCachedTable(store.Table(kind), lruSize)
	}

	var t Tables
	var err error
	if t.Aircraft, err = wrap(sqlite.KindAircraft); err != nil {
		return Tables{}, err
	}
	if t.Airports, err = wrap(sqlite.KindAirports); err != nil {
		return Tables{}, err
	}
	if t.Airlines, err = wrap(sqlite.KindAirlines); err != nil {
		return Tables{}, err
	}
	return t, nil
}
