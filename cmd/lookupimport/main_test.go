package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yegors/flight-kiosk/internal/storage/sqlite"
	"github.com/yegors/flight-kiosk/pkg/logger"
)

func TestRunImportsEveryTable(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		p := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
		return p
	}

	paths := map[sqlite.Kind]string{
		sqlite.KindAircraft: write("aircraft.json", `{"B738": "Boeing 737-800", "a320": "Airbus A320"}`),
		sqlite.KindAirports: write("airports.json", `{"JFK": "New York"}`),
		sqlite.KindAirlines: "",
	}
	db := filepath.Join(dir, "lookup.db")

	require.NoError(t, run(context.Background(), db, paths, logger.NewNop()))

	store, err := sqlite.NewLookupStorage(db, logger.NewNop())
	require.NoError(t, err)
	defer store.Close()

	n, err := store.Count(context.Background(), sqlite.KindAircraft)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	name, ok := store.Table(sqlite.KindAircraft).Lookup("A320")
	require.True(t, ok)
	assert.Equal(t, "Airbus A320", name)

	n, err = store.Count(context.Background(), sqlite.KindAirlines)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRunFailsOnBadJSON(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`[1, 2]`), 0o644))

	err := run(context.Background(), filepath.Join(dir, "lookup.db"), map[sqlite.Kind]string{sqlite.KindAirports: bad}, logger.NewNop())
	assert.Error(t, err)
}

func TestFirstNonEmpty(t *testing.T) {
	assert.Equal(t, "b", firstNonEmpty("", "b", "c"))
	assert.Equal(t, "", firstNonEmpty("", ""))
}
