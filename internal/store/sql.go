package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"github.com/i474232898/station-climate/internal/climate"
)

// Supported database/sql driver names.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "pgx"
)

var (
	// ErrNotFound is returned when no data is cached for a station.
	ErrNotFound = errors.New("no cached observations for station")

	ErrUnsupportedDriver = errors.New("unsupported cache driver")
)

//go:embed sql/schema.sql
var schemaSQL string

//go:embed sql/delete-station.sql
var deleteStationSQL string

//go:embed sql/upsert-observation.sql
var upsertObservationSQL string

//go:embed sql/get-observations.sql
var getObservationsSQL string

//go:embed sql/count-observations.sql
var countObservationsSQL string

// PoolConfig tunes the connection pool of OpenSQL.
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// OpenSQL opens and pings a database for the observation cache.
func OpenSQL(driver, dsn string, pool PoolConfig) (*sql.DB, error) {
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}

	if pool.MaxOpenConns > 0 {
		db.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns >= 0 {
		db.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(pool.ConnMaxLifetime)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

// SQLStore caches raw observations per station in SQLite or PostgreSQL.
// It implements climate.ObservationStore.
type SQLStore struct {
	db *sql.DB

	deleteStation string
	upsert        string
	get           string
	count         string
}

// NewSQLStore creates the schema if needed and returns a store over db.
func NewSQLStore(ctx context.Context, db *sql.DB, driver string) (*SQLStore, error) {
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLStore{
		db:            db,
		deleteStation: rebind(driver, deleteStationSQL),
		upsert:        rebind(driver, upsertObservationSQL),
		get:           rebind(driver, getObservationsSQL),
		count:         rebind(driver, countObservationsSQL),
	}, nil
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
func rebind(driver, query string) string {
	if driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// SaveObservations replaces everything cached for a station.
func (s *SQLStore) SaveObservations(ctx context.Context, stationID string, obs []climate.Observation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, s.deleteStation, stationID); err != nil {
		return fmt.Errorf("delete %s: %w", stationID, err)
	}

	stmt, err := tx.PrepareContext(ctx, s.upsert)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer func() {
		if err := stmt.Close(); err != nil {
			slog.Error("close upsert statement", "error", err)
		}
	}()

	for _, o := range obs {
		if _, err := stmt.ExecContext(ctx, stationID, o.Date.String(), string(o.Element), o.Value, o.QualityFlag); err != nil {
			return fmt.Errorf("insert %s %s %s: %w", stationID, o.Date, o.Element, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// LoadObservations returns every cached observation of a station in date
// order, or ErrNotFound.
func (s *SQLStore) LoadObservations(ctx context.Context, stationID string) ([]climate.Observation, error) {
	rows, err := s.db.QueryContext(ctx, s.get, stationID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close observation rows", "error", err)
		}
	}()

	var out []climate.Observation
	for rows.Next() {
		var (
			o       climate.Observation
			date    string
			element string
		)
		if err := rows.Scan(&o.StationID, &date, &element, &o.Value, &o.QualityFlag); err != nil {
			return nil, err
		}
		if o.Date, err = climate.ParseDate(date); err != nil {
			return nil, fmt.Errorf("bad cached date %q: %w", date, err)
		}
		o.Element = climate.Element(element)
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return out, nil
}

// Count returns how many observations are cached for a station.
func (s *SQLStore) Count(ctx context.Context, stationID string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, s.count, stationID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
