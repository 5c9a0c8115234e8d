// Package psql stores decoded dumps in PostgreSQL or TimescaleDB.
package psql

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/tfd500-tools/tfd500ctl/pkg/measurement"
	"github.com/tfd500-tools/tfd500ctl/pkg/record"
)

type Config struct {
	PsqlInfo string
	Table    string
	Logger   *slog.Logger
}

type Service interface {
	// InsertDump writes all data points of a dump in one transaction,
	// tagged with the given logger name.
	InsertDump(ctx context.Context, name string, dump *record.Dump) error
	Ping(ctx context.Context) error
	io.Closer
}

type service struct {
	db     *sql.DB
	table  string
	logger *slog.Logger
}

// New creates a new instance of the service using the given config
func New(cfg Config) (Service, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.Table == "" {
		return nil, fmt.Errorf("table name is required")
	}
	db, err := sql.Open("pgx", cfg.PsqlInfo)
	if err != nil {
		return nil, err
	}
	return &service{
		db:     db,
		table:  cfg.Table,
		logger: cfg.Logger,
	}, nil
}

// BuildCreateTable renders the measurement table schema.
func BuildCreateTable(table string) string {
	builder := new(strings.Builder)
	builder.WriteString(fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (", table))
	builder.WriteString("time timestamptz NOT NULL,")
	builder.WriteString(" name text NOT NULL,")
	builder.WriteString(" temperature double precision NOT NULL,")
	builder.WriteString(" humidity double precision,")
	builder.WriteString(" dew_point double precision")
	builder.WriteString(")")
	return builder.String()
}

// BuildInsert renders the data point insert statement.
func BuildInsert(table string) string {
	return fmt.Sprintf("INSERT INTO %s (time, name, temperature, humidity, dew_point) VALUES ($1, $2, $3, $4, $5)", table)
}

func (s *service) InsertDump(ctx context.Context, name string, dump *record.Dump) error {
	if _, err := s.db.ExecContext(ctx, BuildCreateTable(s.table)); err != nil {
		return fmt.Errorf("create table: %w", err)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	q := BuildInsert(s.table)
	s.logger.LogAttrs(ctx, slog.LevelDebug, "Rendered query", slog.String("query", q))
	for _, p := range dump.Points() {
		var humidity, dewPoint *float64
		if p.Humidity != nil {
			humidity = p.Humidity
			dp := measurement.DewPoint(p.Temperature, *p.Humidity)
			dewPoint = &dp
		}
		if _, err := tx.ExecContext(ctx, q, p.Timestamp, name, p.Temperature, humidity, dewPoint); err != nil {
			return fmt.Errorf("insert data point %d: %w", p.Index, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, "Stored dump",
		slog.String("name", name),
		slog.String("table", s.table),
		slog.Int("points", len(dump.Samples)))
	return nil
}

func (s *service) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *service) Close() error {
	return s.db.Close()
}
