package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yegors/flight-kiosk/pkg/logger"
)

func newTestStorage(t *testing.T) *LookupStorage {
	t.Helper()
	s, err := NewLookupStorage(filepath.Join(t.TempDir(), "lookup.db"), logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestImportAndLookup(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	n, err := s.Import(ctx, KindAirports, map[string]string{
		"jfk": "New York",
		"SFO": "San Francisco",
		"":    "nowhere",
		"XXX": "",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	count, err := s.Count(ctx, KindAirports)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	airports := s.Table(KindAirports)
	name, ok := airports.Lookup("JFK")
	assert.True(t, ok)
	assert.Equal(t, "New York", name)

	name, ok = airports.Lookup("sfo")
	assert.True(t, ok)
	assert.Equal(t, "San Francisco", name)

	_, ok = airports.Lookup("LHR")
	assert.False(t, ok)

	_, ok = s.Table(KindAirlines).Lookup("JFK")
	assert.False(t, ok)
}

func TestImportReplacesExisting(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()

	_, err := s.Import(ctx, KindAircraft, map[string]string{"B738": "Boeing 737-800"})
	require.NoError(t, err)
	_, err = s.Import(ctx, KindAircraft, map[string]string{"B738": "Boeing 737-800 (winglets)"})
	require.NoError(t, err)

	name, ok := s.Table(KindAircraft).Lookup("B738")
	assert.True(t, ok)
	assert.Equal(t, "Boeing 737-800 (winglets)", name)
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind(" Airlines ")
	require.NoError(t, err)
	assert.Equal(t, KindAirlines, k)

	_, err = ParseKind("runways")
	assert.Error(t, err)
}

func TestLookupErrSeparatesMissFromFailure(t *testing.T) {
	s := newTestStorage(t)
	_, err := s.Import(context.Background(), KindAirlines, map[string]string{"UA": "United Airlines"})
	require.NoError(t, err)

	airlines := s.Table(KindAirlines)

	name, ok, err := airlines.LookupErr("ua")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "United Airlines", name)

	_, ok, err = airlines.LookupErr("ZZ")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Close())

	_, ok, err = airlines.LookupErr("UA")
	assert.Error(t, err)
	assert.False(t, ok)

	_, ok = airlines.Lookup("UA")
	assert.False(t, ok)
}
