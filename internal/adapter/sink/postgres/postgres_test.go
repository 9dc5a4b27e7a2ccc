package postgres

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"go.ngs.io/wave-energy/internal/domain"
)

type fakeDB struct {
	execSQL []string
	table   pgx.Identifier
	columns []string
	rows    [][]any
	copyErr error
}

func (f *fakeDB) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	f.execSQL = append(f.execSQL, sql)
	return pgconn.CommandTag{}, nil
}

func (f *fakeDB) CopyFrom(_ context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	if f.copyErr != nil {
		return 0, f.copyErr
	}
	f.table = tableName
	f.columns = columnNames
	for rowSrc.Next() {
		vals, err := rowSrc.Values()
		if err != nil {
			return 0, err
		}
		f.rows = append(f.rows, vals)
	}
	return int64(len(f.rows)), nil
}

func energyTable(t *testing.T) *domain.WideTable {
	t.Helper()
	w := domain.NewWideTable("Atoll", []domain.Timestamp{{Year: 1990, Month: 1, Day: 1, Hour: 3}})
	if err := w.SetColumn("hs", []domain.Cell{domain.NewCell(2)}); err != nil {
		t.Fatal(err)
	}
	if err := w.SetColumn("tp", []domain.Cell{domain.Missing}); err != nil {
		t.Fatal(err)
	}
	return w
}

func TestSinkWriteCopiesRows(t *testing.T) {
	db := &fakeDB{}
	runID := uuid.New()
	if err := NewSink(db, runID).Write(context.Background(), energyTable(t)); err != nil {
		t.Fatalf("Write: %v", err)
	}

	if len(db.table) != 1 || db.table[0] != TableName {
		t.Errorf("table = %v, want %s", db.table, TableName)
	}
	if len(db.rows) != 2 {
		t.Fatalf("copied %d rows, want 2", len(db.rows))
	}

	first := db.rows[0]
	if first[0] != runID || first[1] != "Atoll" || first[3] != "hs" || first[4] != 2.0 {
		t.Errorf("first row = %v", first)
	}
	if observed := first[2].(time.Time); !observed.Equal(time.Date(1990, 1, 1, 3, 0, 0, 0, time.UTC)) {
		t.Errorf("observed_at = %v", observed)
	}
	if db.rows[1][4] != nil {
		t.Errorf("missing cell copied as %v, want NULL", db.rows[1][4])
	}
}

func TestSinkWriteWrapsCopyError(t *testing.T) {
	boom := errors.New("boom")
	err := NewSink(&fakeDB{copyErr: boom}, uuid.New()).Write(context.Background(), energyTable(t))
	if !errors.Is(err, boom) {
		t.Errorf("Write error = %v, want wrapping boom", err)
	}
}

func TestInitSchema(t *testing.T) {
	db := &fakeDB{}
	if err := InitSchema(context.Background(), db); err != nil {
		t.Fatalf("InitSchema: %v", err)
	}
	if len(db.execSQL) != 1 {
		t.Errorf("Exec called %d times, want 1", len(db.execSQL))
	}
}

func TestPostgresIntegration(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := Connect(ctx, dsn)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer pool.Close()

	if err := InitSchema(ctx, pool); err != nil {
		t.Fatalf("InitSchema: %v", err)
	}
	runID := uuid.New()
	if err := NewSink(pool, runID).Write(ctx, energyTable(t)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	t.Cleanup(func() {
		_, _ = pool.Exec(ctx, "DELETE FROM wave_energy_values WHERE run_id = $1", runID)
	})

	var n int
	if err := pool.QueryRow(ctx, "SELECT count(*) FROM wave_energy_values WHERE run_id = $1", runID).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Errorf("stored %d rows, want 2", n)
	}
}
