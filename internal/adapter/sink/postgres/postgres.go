// Package postgres stores energy tables in PostgreSQL as long-format rows.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"go.ngs.io/wave-energy/internal/domain"
)

// TableName is the destination table.
const TableName = "wave_energy_values"

// Columns are the destination columns, in COPY order.
var Columns = []string{"run_id", "location", "observed_at", "column_name", "value"}

const schemaSQL = `
	CREATE TABLE IF NOT EXISTS wave_energy_values (
		run_id      UUID             NOT NULL,
		location    TEXT             NOT NULL,
		observed_at TIMESTAMPTZ      NOT NULL,
		column_name TEXT             NOT NULL,
		value       DOUBLE PRECISION NULL,
		PRIMARY KEY (run_id, location, observed_at, column_name)
	)
`

// DB is the subset of *pgxpool.Pool the sink uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// Connect opens a connection pool and verifies it with a ping.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid DATABASE_URL: %w", err)
	}
	config.MaxConns = 4
	config.MinConns = 1
	config.MaxConnLifetime = time.Hour

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres connection failed: %w", err)
	}
	return pool, nil
}

// InitSchema creates the destination table if needed.
func InitSchema(ctx context.Context, db DB) error {
	if _, err := db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// Sink copies every cell of a table, missing cells as NULL, tagged with a run id.
type Sink struct {
	db    DB
	runID uuid.UUID
}

// NewSink creates a Sink.
func NewSink(db DB, runID uuid.UUID) *Sink {
	return &Sink{db: db, runID: runID}
}

// Write implements sink.Sink.
func (s *Sink) Write(ctx context.Context, table *domain.WideTable) error {
	rows := Rows(s.runID, table)
	n, err := s.db.CopyFrom(ctx, pgx.Identifier{TableName}, Columns, pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("failed to copy %s rows: %w", table.Location, err)
	}
	if int(n) != len(rows) {
		return fmt.Errorf("copied %d of %d rows for %s", n, len(rows), table.Location)
	}
	return nil
}

// Rows flattens table into COPY rows in index then column order.
func Rows(runID uuid.UUID, table *domain.WideTable) [][]any {
	rows := make([][]any, 0, table.Len()*len(table.Columns))
	for i, ts := range table.Index {
		observed := ts.Time()
		for _, col := range table.Columns {
			var value any
			if c := table.Cell(i, col); c.Valid {
				value = c.Value
			}
			rows = append(rows, []any{runID, table.Location, observed, col, value})
		}
	}
	return rows
}
