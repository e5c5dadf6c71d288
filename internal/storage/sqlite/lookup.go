package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/yegors/flight-kiosk/pkg/logger"
	_ "modernc.org/sqlite"
)

// Kind selects one of the lookup tables
type Kind string

const (
	KindAircraft Kind = "aircraft"
	KindAirports Kind = "airports"
	KindAirlines Kind = "airlines"
)

var tableNames = map[Kind]string{
	KindAircraft: "aircraft_types",
	KindAirports: "airports",
	KindAirlines: "airlines",
}

// Kinds lists every lookup table kind in import order
func Kinds() []Kind {
	return []Kind{KindAircraft, KindAirports, KindAirlines}
}

// ParseKind validates a kind name
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := tableNames[k]; !ok {
		return "", fmt.Errorf("unknown lookup kind: %q", s)
	}
	return k, nil
}

// LookupStorage is a SQLite-backed store for the code lookup tables
type LookupStorage struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewLookupStorage opens (and if needed creates) the lookup database
func NewLookupStorage(dbPath string, log *logger.Logger) (*LookupStorage, error) {
	storageLogger := log.Named("sqlite")

	storageLogger.Info("Opening lookup database", logger.String("path", dbPath))

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	if err := initLookupSchema(db, storageLogger); err != nil {
		db.Close()
		return nil, err
	}

	return &LookupStorage{db: db, logger: storageLogger}, nil
}

// Close closes the database connection
func (s *LookupStorage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func initLookupSchema(db *sql.DB, log *logger.Logger) error {
	log.Debug("Initializing lookup schema")

	for _, kind := range Kinds() {
		table := tableNames[kind]
		stmts := []string{
			fmt.Sprintf(`
				CREATE TABLE IF NOT EXISTS %s (
					code TEXT PRIMARY KEY,
					name TEXT NOT NULL,
					updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
				)`, table),
			fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_name ON %s(name)`, table, table),
		}
		for _, stmt := range stmts {
			if _, err := db.Exec(stmt); err != nil {
				return fmt.Errorf("failed to create %s table: %w", table, err)
			}
		}
	}
	return nil
}

// Import upserts entries into a table in a single transaction and returns
// the number of rows written. Empty codes or names are skipped.
func (s *LookupStorage) Import(ctx context.Context, kind Kind, entries map[string]string) (int, error) {
	table, ok := tableNames[kind]
	if !ok {
		return 0, fmt.Errorf("unknown lookup kind: %q", kind)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		`INSERT OR REPLACE INTO %s (code, name, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)`, table))
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	count := 0
	for code, name := range entries {
		code = strings.ToUpper(strings.TrimSpace(code))
		if code == "" || name == "" {
			continue
		}
		if _, err := stmt.ExecContext(ctx, code, name); err != nil {
			return count, fmt.Errorf("failed to insert %s %s: %w", kind, code, err)
		}
		count++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit %s import: %w", kind, err)
	}

	s.logger.Info("Imported lookup entries",
		logger.String("kind", string(kind)),
		logger.Int("count", count))
	return count, nil
}

// Count returns the number of rows in a table
func (s *LookupStorage) Count(ctx context.Context, kind Kind) (int, error) {
	table, ok := tableNames[kind]
	if !ok {
		return 0, fmt.Errorf("unknown lookup kind: %q", kind)
	}
	var n int
	err := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, table)).Scan(&n)
	return n, err
}

// Table returns a read view of one lookup table
func (s *LookupStorage) Table(kind Kind) *LookupTable {
	return &LookupTable{
		db:     s.db,
		query:  fmt.Sprintf(`SELECT name FROM %s WHERE code = ?`, tableNames[kind]),
		kind:   kind,
		logger: s.logger,
	}
}

// LookupTable answers code lookups from one SQLite table
type LookupTable struct {
	db     *sql.DB
	query  string
	kind   Kind
	logger *logger.Logger
}

// Lookup returns the name stored for code. Query failures are logged and
// reported as a miss.
func (t *LookupTable) Lookup(code string) (string, bool) {
	name, ok, err := t.LookupErr(code)
	if err != nil {
		t.logger.Warn("Lookup query failed",
			logger.String("kind", string(t.kind)),
			logger.String("code", code),
			logger.Error(err))
	}
	return name, ok
}

// LookupErr is Lookup with query failures returned instead of folded into a
// miss. An unknown code is not an error.
func (t *LookupTable) LookupErr(code string) (string, bool, error) {
	if code == "" {
		return "", false, nil
	}

	var name string
	err := t.db.QueryRow(t.query, strings.ToUpper(code)).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("lookup %s %q: %w", t.kind, code, err)
	}
	return name, name != "", nil
}
