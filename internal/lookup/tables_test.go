package lookup

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yegors/flight-kiosk/pkg/logger"
)

func writeJSON(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoadTables(t *testing.T) {
	dir := t.TempDir()
	aircraft := writeJSON(t, dir, "aircraft.json", `{"B738": "Boeing 737-800", "a20n": "Airbus A320neo"}`)
	airports := writeJSON(t, dir, "airports.json", `{"JFK": "New York", "": "blank"}`)

	tables, err := LoadTables(aircraft, airports, "", logger.NewNop())
	require.NoError(t, err)

	name, ok := tables.Aircraft.Lookup("A20N")
	assert.True(t, ok)
	assert.Equal(t, "Airbus A320neo", name)

	name, ok = tables.Airports.Lookup("jfk")
	assert.True(t, ok)
	assert.Equal(t, "New York", name)

	_, ok = tables.Airlines.Lookup("UA")
	assert.False(t, ok)
}

func TestLoadTablesBadJSON(t *testing.T) {
	dir := t.TempDir()
	bad := writeJSON(t, dir, "bad.json", `["not", "a", "map"]`)

	_, err := LoadTables(bad, "", "", logger.NewNop())
	assert.Error(t, err)
}

type countingTable struct {
	Map
	calls int
}

func (c *countingTable) Lookup(code string) (string, bool) {
	c.calls++
	return c.Map.Lookup(code)
}

func TestCachedTable(t *testing.T) {
	inner := &countingTable{Map: Map{"UA": "United Airlines"}}
	cached, err := NewCachedTable(inner, 8)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		name, ok := cached.Lookup("ua")
		assert.True(t, ok)
		assert.Equal(t, "United Airlines", name)

		_, ok = cached.Lookup("ZZ")
		assert.False(t, ok)
	}

	assert.Equal(t, 2, inner.calls)
	assert.Equal(t, 2, cached.Len())
}

// flakyTable errors on the first `failures` lookups, then answers from Map
type flakyTable struct {
	Map
	failures int
	calls    int
}

func (f *flakyTable) LookupErr(code string) (string, bool, error) {
	f.calls++
	if f.calls <= f.failures {
		return "", false, errors.New("database is locked")
	}
	name, ok := f.Map.Lookup(code)
	return name, ok, nil
}

func TestCachedTableDoesNotCacheFailures(t *testing.T) {
	inner := &flakyTable{Map: Map{"B738": "Boeing 737-800"}, failures: 1}
	cached, err := NewCachedTable(inner, 8)
	require.NoError(t, err)

	_, ok := cached.Lookup("B738")
	assert.False(t, ok)
	assert.Zero(t, cached.Len())

	name, ok := cached.Lookup("b738")
	require.True(t, ok)
	assert.Equal(t, "Boeing 737-800", name)

	name, ok = cached.Lookup("B738")
	require.True(t, ok)
	assert.Equal(t, "Boeing 737-800", name)

	assert.Equal(t, 2, inner.calls)
	assert.Equal(t, 1, cached.Len())
}

func TestTablesOrEmpty(t *testing.T) {
	tables := Tables{}.OrEmpty()
	_, ok := tables.Airlines.Lookup("UA")
	assert.False(t, ok)
}
