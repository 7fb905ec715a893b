package sink

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/lib/pq"

	"github.com/bft-labs/geoship/internal/domain"
	"github.com/bft-labs/geoship/internal/ports"
)

// DefaultTable receives location rows when the endpoint names none.
const DefaultTable = "locations"

// Postgres inserts each record as a row:
//
//	postgres://user:pass@db:5432/fleet?sslmode=disable&table=locations
//
// The table is created on first use.
type Postgres struct {
	dsn      string
	table    string
	deviceID string
	timeout  time.Duration

	mu    sync.Mutex
	db    *sql.DB
	ready bool
}

var _ ports.Sink = (*Postgres)(nil)

// NewPostgres parses the endpoint. The database is opened on the first
// Submit.
func NewPostgres(cfg domain.TrackerConfig, opts Options) (*Postgres, error) {
	opts = opts.withDefaults()
	dsn, table, err := parsePostgresEndpoint(cfg.Endpoint)
	if err != nil {
		return nil, err
	}
	return &Postgres{dsn: dsn, table: table, deviceID: cfg.DeviceID, timeout: opts.Timeout}, nil
}

func parsePostgresEndpoint(endpoint string) (dsn, table string, err error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", "", err
	}
	table = popQuery(u, "table")
	if table == "" {
		table = DefaultTable
	}
	return u.String(), table, nil
}

func (s *Postgres) open(ctx context.Context) (*sql.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		db, err := sql.Open("postgres", s.dsn)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		db.SetMaxOpenConns(2)
		s.db = db
	}
	if !s.ready {
		if _, err := s.db.ExecContext(ctx, createTableSQL(s.table)); err != nil {
			return nil, fmt.Errorf("create table %s: %w", s.table, err)
		}
		s.ready = true
	}
	return s.db, nil
}

func createTableSQL(table string) string {
	return `CREATE TABLE IF NOT EXISTS ` + pq.QuoteIdentifier(table) + ` (
	id BIGSERIAL PRIMARY KEY,
	device_id TEXT NOT NULL DEFAULT '',
	recorded_at TIMESTAMPTZ NOT NULL,
	latitude DOUBLE PRECISION NOT NULL,
	longitude DOUBLE PRECISION NOT NULL,
	speed DOUBLE PRECISION,
	altitude DOUBLE PRECISION,
	accuracy DOUBLE PRECISION,
	provider TEXT,
	received_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`
}

func insertSQL(table string) string {
	return `INSERT INTO ` + pq.QuoteIdentifier(table) +
		` (device_id, recorded_at, latitude, longitude, speed, altitude, accuracy, provider)` +
		` VALUES ($1, to_timestamp($2::double precision / 1000), $3, $4, $5, $6, $7, $8)`
}

func (s *Postgres) Submit(ctx context.Context, record map[string]string) error {
	ms, err := strconv.ParseInt(record[domain.KeyTime], 10, 64)
	if err != nil {
		return fmt.Errorf("record time: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	db, err := s.open(ctx)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, insertSQL(s.table),
		s.deviceID,
		ms,
		record[domain.KeyLatitude],
		record[domain.KeyLongitude],
		nullable(record[domain.KeySpeed]),
		nullable(record[domain.KeyAltitude]),
		nullable(record[domain.KeyAccuracy]),
		record[domain.KeyProvider],
	)
	if err != nil {
		return fmt.Errorf("insert location: %w", err)
	}
	return nil
}

func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func (s *Postgres) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	s.ready = false
	return err
}
