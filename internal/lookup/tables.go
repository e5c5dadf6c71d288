package lookup

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/yegors/flight-kiosk/pkg/logger"
)

// Table maps a code to a display name
type Table interface {
	Lookup(code string) (string, bool)
}

// CheckedTable is a Table that can tell a miss apart from a failed lookup
type CheckedTable interface {
	Table
	LookupErr(code string) (string, bool, error)
}

// Map is an in-memory table loaded once and read-only afterwards
type Map map[string]string

// Lookup returns the name for code. Codes are matched case-insensitively.
func (m Map) Lookup(code string) (string, bool) {
	if code == "" {
		return "", false
	}
	name, ok := m[strings.ToUpper(code)]
	if !ok || name == "" {
		return "", false
	}
	return name, true
}

// Empty is a table that knows nothing
var Empty Table = Map{}

// Tables groups the three lookup tables used for enrichment
type Tables struct {
	Aircraft Table
	Airports Table
	Airlines Table
}

// OrEmpty replaces nil tables with Empty
func (t Tables) OrEmpty() Tables {
	if t.Aircraft == nil {
		t.Aircraft = Empty
	}
	if t.Airports == nil {
		t.Airports = Empty
	}
	if t.Airlines == nil {
		t.Airlines = Empty
	}
	return t
}

// ReadJSON reads a flat {"code": "name"} object
func ReadJSON(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return raw, nil
}

// LoadJSON loads a flat JSON table into a Map
func LoadJSON(path string) (Map, error) {
	raw, err := ReadJSON(path)
	if err != nil {
		return nil, err
	}

	m := make(Map, len(raw))
	for code, name := range raw {
		code = strings.ToUpper(strings.TrimSpace(code))
		if code == "" || name == "" {
			continue
		}
		m[code] = name
	}
	return m, nil
}

// LoadTables loads the three JSON tables. A missing path yields an empty
// table; a path that can't be read or parsed is an error.
func LoadTables(aircraftPath, airportsPath, airlinesPath string, log *logger.Logger) (Tables, error) {
	log = log.Named("lookup")

	load := func(kind, path string) (Table, error) {
		if path == "" {
			log.Warn("No lookup table configured", logger.String("kind", kind))
			return Empty, nil
		}
		m, err := LoadJSON(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s table: %w", kind, err)
		}
		log.Info("Loaded lookup table",
			logger.String("kind", kind),
			logger.String("path", path),
			logger.Int("count", len(m)))
		return m, nil
	}

	var t Tables
	var err error
	if t.Aircraft, err = load("aircraft", aircraftPath); err != nil {
		return Tables{}, err
	}
	if t.Airports, err = load("airports", airportsPath); err != nil {
		return Tables{}, err
	}
	if t.Airlines, err = load("airlines", airlinesPath); err != nil {
		return Tables{}, err
	}
	return t, nil
}

type cacheEntry struct {
	name string
	ok   bool
}

// CachedTable memoises lookups against a slower table, misses included.
// Failed lookups on a CheckedTable are not cached.
type CachedTable struct {
	inner Table
	cache *lru.Cache[string, cacheEntry]
}

// NewCachedTable wraps inner with an LRU of the given size
func NewCachedTable(inner Table, size int) (*CachedTable, error) {
	if size <= 0 {
		size = 1024
	}
	c, err := lru.New[string, cacheEntry](size)
	if err != nil {
		return nil, err
	}
	return &CachedTable{inner: inner, cache: c}, nil
}

// Lookup returns the cached answer or asks the inner table
func (c *CachedTable) Lookup(code string) (string, bool) {
	key := strings.ToUpper(code)
	if e, ok := c.cache.Get(key); ok {
		return e.name, e.ok
	}

	if checked, isChecked := c.inner.(CheckedTable); isChecked {
		name, ok, err := checked.LookupErr(key)
		if err != nil {
			return "", false
		}
		c.cache.Add(key, cacheEntry{name: name, ok: ok})
		return name, ok
	}

	name, ok := c.inner.Lookup(key)
	c.cache.Add(key, cacheEntry{name: name, ok: ok})
	return name, ok
}

// Len returns the number of cached codes
func (c *CachedTable) Len() int {
	return c.cache.Len()
}
