package usecase

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"gonum.org/v1/gonum/mat"

	"go.ngs.io/wave-energy/internal/adapter/grid"
	"go.ngs.io/wave-energy/internal/adapter/sink"
	"go.ngs.io/wave-energy/internal/adapter/store"
	csvstore "go.ngs.io/wave-energy/internal/adapter/store/csv"
	"go.ngs.io/wave-energy/internal/domain"
)

type fileKey struct {
	variable string
	dateKey  int
}

// fakeSource serves in-memory snapshots per (variable, date key).
type fakeSource struct {
	files   map[fileKey][]domain.GridSnapshot
	openErr map[fileKey]error
	scanErr map[fileKey]error
	opened  []fileKey
	closed  int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		files:   make(map[fileKey][]domain.GridSnapshot),
		openErr: make(map[fileKey]error),
		scanErr: make(map[fileKey]error),
	}
}

func (f *fakeSource) add(snap domain.GridSnapshot, dateKey int) {
	k := fileKey{snap.Variable, dateKey}
	f.files[k] = append(f.files[k], snap)
}

func (f *fakeSource) Open(variable string, dateKey int) (store.SnapshotScanner, error) {
	k := fileKey{variable, dateKey}
	f.opened = append(f.opened, k)
	if err := f.openErr[k]; err != nil {
		return nil, err
	}
	if _, ok := f.files[k]; !ok && f.scanErr[k] == nil {
		return nil, os.ErrNotExist
	}
	return &fakeScanner{src: f, snaps: f.files[k], err: f.scanErr[k]}, nil
}

type fakeScanner struct {
	src   *fakeSource
	snaps []domain.GridSnapshot
	pos   int
	err   error
}

func (s *fakeScanner) Scan() bool {
	if s.pos >= len(s.snaps) {
		return false
	}
	s.pos++
	return true
}

func (s *fakeScanner) Snapshot() domain.GridSnapshot { return s.snaps[s.pos-1] }

func (s *fakeScanner) Err() error { return s.err }

func (s *fakeScanner) Close() error {
	s.src.closed++
	return nil
}

// twoByTwo builds a snapshot on lats {10, 9.5} × lons {199.5, 200}.
func twoByTwo(t *testing.T, variable string, dataDate, forecast int, vals ...float64) domain.GridSnapshot {
	t.Helper()
	lats, lons, err := grid.Meshgrid([]float64{10, 9.5}, []float64{199.5, 200})
	if err != nil {
		t.Fatal(err)
	}
	return domain.GridSnapshot{
		Variable:     variable,
		DataDate:     dataDate,
		ForecastTime: forecast,
		Lats:         lats,
		Lons:         lons,
		Values:       mat.NewDense(2, 2, vals),
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// recordingSink keeps every table written to it.
type recordingSink struct {
	tables []*domain.WideTable
	err    error
}

func (r *recordingSink) Write(_ context.Context, table *domain.WideTable) error {
	if r.err != nil {
		return r.err
	}
	r.tables = append(r.tables, table)
	return nil
}

var atoll = domain.Location{Name: "Atoll", Latitude: 10, Longitude: 200}

func TestCollectOrderAndValues(t *testing.T) {
	src := newFakeSource()
	src.add(twoByTwo(t, "hs", 20200101, 0, 1, 2, 3, 4), 202001)
	src.add(twoByTwo(t, "hs", 20200101, 3, 5, 6, 7, 8), 202001)
	src.add(twoByTwo(t, "tp", 20200101, 0, 9, 10, 11, 12), 202001)
	src.add(twoByTwo(t, "hs", 20200201, 0, 0, 1, 0, 0), 202002)
	src.add(twoByTwo(t, "tp", 20200201, 0, 0, 11, 0, 0), 202002)

	table, err := Collect(context.Background(), []domain.Location{atoll}, []int{202001, 202002}, []string{"hs", "tp"}, src)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}

	wantOpened := []fileKey{{"hs", 202001}, {"tp", 202001}, {"hs", 202002}, {"tp", 202002}}
	if !slices.Equal(src.opened, wantOpened) {
		t.Errorf("open order = %v, want %v", src.opened, wantOpened)
	}
	if src.closed != 4 {
		t.Errorf("closed %d scanners, want 4", src.closed)
	}

	rows := table.Rows()
	if len(rows) != 5 {
		t.Fatalf("got %d rows, want 5", len(rows))
	}
	// Nearest node to (10, 200) is row 0, column 1.
	wantValues := []float64{2, 6, 10, 1, 11}
	for i, r := range rows {
		if r.Value != wantValues[i] {
			t.Errorf("row %d value = %g, want %g", i, r.Value, wantValues[i])
		}
		if r.Location != "Atoll" || r.Lat != 10 || r.Lon != 200 {
			t.Errorf("row %d = %+v", i, r)
		}
	}
	if rows[1].Time.Hour != 3 {
		t.Errorf("row 1 hour = %d, want 3", rows[1].Time.Hour)
	}
}

func TestCollectReadErrorIsFatalByDefault(t *testing.T) {
	src := newFakeSource()
	src.add(twoByTwo(t, "hs", 20200101, 0, 1, 2, 3, 4), 202001)

	_, err := Collect(context.Background(), []domain.Location{atoll}, []int{202001}, []string{"hs", "tp"}, src)
	if !errors.Is(err, domain.ErrGridRead) {
		t.Fatalf("Collect error = %v, want ErrGridRead", err)
	}
	var readErr *domain.GridReadError
	if !errors.As(err, &readErr) || readErr.Variable != "tp" || readErr.DateKey != 202001 {
		t.Errorf("GridReadError = %+v", readErr)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("cause not preserved: %v", err)
	}
}

func TestCollectSkipUnreadable(t *testing.T) {
	src := newFakeSource()
	src.add(twoByTwo(t, "hs", 20200101, 0, 1, 2, 3, 4), 202001)
	src.scanErr[fileKey{"tp", 202001}] = errors.New("truncated message")

	c := Collector{Source: src, SkipUnreadable: true}
	table, err := c.Collect(context.Background(), []domain.Location{atoll}, []int{202001}, []string{"hs", "tp"})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if table.Len() != 1 {
		t.Errorf("got %d rows, want 1", table.Len())
	}
	if src.closed != 2 {
		t.Errorf("closed %d scanners, want 2", src.closed)
	}
}

func TestCollectSkipUnreadableDropsPartialFile(t *testing.T) {
	src := newFakeSource()
	src.add(twoByTwo(t, "hs", 20200101, 0, 1, 2, 3, 4), 202001)
	src.add(twoByTwo(t, "hs", 20200101, 3, 5, 6, 7, 8), 202001)
	src.scanErr[fileKey{"hs", 202001}] = errors.New("truncated message")
	src.add(twoByTwo(t, "tp", 20200101, 0, 9, 9, 9, 9), 202001)

	c := Collector{Source: src, SkipUnreadable: true}
	table, err := c.Collect(context.Background(), []domain.Location{atoll}, []int{202001}, []string{"hs", "tp"})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	for _, row := range table.Rows() {
		if row.Variable == "hs" {
			t.Errorf("kept row from skipped file: %+v", row)
		}
	}
	if table.Len() != 1 {
		t.Errorf("got %d rows, want 1", table.Len())
	}
}

func TestCollectShapeMismatch(t *testing.T) {
	src := newFakeSource()
	snap := twoByTwo(t, "hs", 20200101, 0, 1, 2, 3, 4)
	snap.Values = mat.NewDense(1, 4, []float64{1, 2, 3, 4})
	src.add(snap, 202001)

	_, err := Collect(context.Background(), []domain.Location{atoll}, []int{202001}, []string{"hs"}, src)
	if !errors.Is(err, domain.ErrShapeMismatch) || !errors.Is(err, domain.ErrGridRead) {
		t.Errorf("Collect error = %v, want ErrShapeMismatch wrapped in ErrGridRead", err)
	}
}

func TestCollectHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Collect(ctx, []domain.Location{atoll}, []int{202001}, []string{"hs"}, newFakeSource())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Collect error = %v, want context.Canceled", err)
	}
}

// atollFixture lays out a search folder with one date key, an island list
// with Atoll at longitude 20 (200 after the shift) and one snapshot per variable.
func atollFixture(t *testing.T) (string, string, *fakeSource) {
	t.Helper()
	dir := t.TempDir()
	for _, v := range []string{"dp", "hs", "tp"} {
		writeFile(t, filepath.Join(dir, "multi_reanal.glo_30m_ext."+v+".202001.grb2"), "")
	}
	writeFile(t, filepath.Join(dir, "README.txt"), "")

	islands := filepath.Join(t.TempDir(), "Island_Centers.csv")
	writeFile(t, islands, "Island,Latitude,Longitude\nAtoll,10.0,20.0\nReef,9.5,20.0\n")

	src := newFakeSource()
	src.add(twoByTwo(t, "dp", 20200101, 0, 90, 180, 270, 360), 202001)
	src.add(twoByTwo(t, "hs", 20200101, 0, 1, 2, 3, 4), 202001)
	src.add(twoByTwo(t, "tp", 20200101, 0, 5, 10, 15, math.NaN()), 202001)
	return dir, islands, src
}

func TestRunAtollEndToEnd(t *testing.T) {
	dir, islands, src := atollFixture(t)
	rec := &recordingSink{}

	uc := NewExtractionUseCase(csvstore.NewLocationStore(islands), src, []sink.Sink{rec},
		ExtractionOptions{SearchFolder: dir, Variables: []string{"hs", "tp", "dp"}}, nil)
	if err := uc.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(rec.tables) != 2 {
		t.Fatalf("sink received %d tables, want 2", len(rec.tables))
	}

	atollTable := rec.tables[0]
	if atollTable.Location != "Atoll" {
		t.Fatalf("first table = %s, want Atoll", atollTable.Location)
	}
	wantCols := []string{"dp", "hs", "tp", domain.EnergyColumn}
	if !slices.Equal(atollTable.Columns, wantCols) {
		t.Errorf("columns = %v, want %v", atollTable.Columns, wantCols)
	}
	if atollTable.Len() != 1 || atollTable.Index[0] != (domain.Timestamp{Year: 2020, Month: 1, Day: 1}) {
		t.Fatalf("index = %v", atollTable.Index)
	}

	want := ((1024.0 * 9.81 * 9.81) / (64 * math.Pi)) * 4.0 * 10.0
	got := atollTable.Cell(0, domain.EnergyColumn)
	if !got.Valid || math.Abs(got.Value-want) > 1e-9 {
		t.Errorf("CgE = %+v, want %g", got, want)
	}

	// Reef sits on the masked tp node, so its energy is missing.
	reef := rec.tables[1]
	if c := reef.Cell(0, "tp"); c.Valid {
		t.Errorf("Reef tp = %+v, want missing", c)
	}
	if c := reef.Cell(0, domain.EnergyColumn); c.Valid {
		t.Errorf("Reef CgE = %+v, want missing", c)
	}
	if c := reef.Cell(0, "hs"); !c.Valid || c.Value != 4 {
		t.Errorf("Reef hs = %+v, want 4", c)
	}
}

func TestRunKeepsCompletedLocationsOnFailure(t *testing.T) {
	dir, islands, src := atollFixture(t)
	rec := &recordingSink{}
	// Reef is processed second; its hs file is the fifth open.
	failing := &failAfterSource{GridSource: src, failAt: 5}

	uc := NewExtractionUseCase(csvstore.NewLocationStore(islands), failing, []sink.Sink{rec},
		ExtractionOptions{SearchFolder: dir, Variables: []string{"dp", "hs", "tp"}}, nil)
	err := uc.Run(context.Background())
	if !errors.Is(err, domain.ErrGridRead) {
		t.Fatalf("Run error = %v, want ErrGridRead", err)
	}
	if len(rec.tables) != 1 || rec.tables[0].Location != "Atoll" {
		t.Errorf("completed tables = %d, want Atoll only", len(rec.tables))
	}
}

func TestRunErrors(t *testing.T) {
	dir, islands, src := atollFixture(t)

	t.Run("bad location list", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.csv")
		writeFile(t, bad, "Name,Lat,Lon\nAtoll,1,2\n")
		uc := NewExtractionUseCase(csvstore.NewLocationStore(bad), src, nil,
			ExtractionOptions{SearchFolder: dir, Variables: []string{"hs", "tp"}}, nil)
		if err := uc.Run(context.Background()); !errors.Is(err, domain.ErrConfiguration) {
			t.Errorf("Run error = %v, want ErrConfiguration", err)
		}
	})

	t.Run("no dates", func(t *testing.T) {
		uc := NewExtractionUseCase(csvstore.NewLocationStore(islands), src, nil,
			ExtractionOptions{SearchFolder: t.TempDir(), Variables: []string{"hs", "tp"}}, nil)
		if err := uc.Run(context.Background()); !errors.Is(err, domain.ErrDateDiscovery) {
			t.Errorf("Run error = %v, want ErrDateDiscovery", err)
		}
	})

	t.Run("date range excludes every key", func(t *testing.T) {
		rec := &recordingSink{}
		uc := NewExtractionUseCase(csvstore.NewLocationStore(islands), src, []sink.Sink{rec},
			ExtractionOptions{SearchFolder: dir, Variables: []string{"hs", "tp"}, DateFrom: 203001}, nil)
		if err := uc.Run(context.Background()); !errors.Is(err, domain.ErrDateDiscovery) {
			t.Errorf("Run error = %v, want ErrDateDiscovery", err)
		}
		if len(rec.tables) != 0 {
			t.Errorf("sink received %d tables, want none", len(rec.tables))
		}
	})

	t.Run("energy input not configured", func(t *testing.T) {
		uc := NewExtractionUseCase(csvstore.NewLocationStore(islands), src, nil,
			ExtractionOptions{SearchFolder: dir, Variables: []string{"dp", "hs"}}, nil)
		if err := uc.Run(context.Background()); !errors.Is(err, domain.ErrMissingColumn) {
			t.Errorf("Run error = %v, want ErrMissingColumn", err)
		}
	})

	t.Run("sink failure", func(t *testing.T) {
		boom := errors.New("disk full")
		uc := NewExtractionUseCase(csvstore.NewLocationStore(islands), src, []sink.Sink{&recordingSink{err: boom}},
			ExtractionOptions{SearchFolder: dir, Variables: []string{"hs", "tp"}}, nil)
		if err := uc.Run(context.Background()); !errors.Is(err, boom) {
			t.Errorf("Run error = %v, want disk full", err)
		}
	})
}

func TestProcessLocationEnsuresConfiguredColumns(t *testing.T) {
	dir, islands, src := atollFixture(t)
	delete(src.files, fileKey{"dp", 202001})

	uc := NewExtractionUseCase(csvstore.NewLocationStore(islands), src, nil,
		ExtractionOptions{SearchFolder: dir, Variables: []string{"dp", "hs", "tp"}, SkipUnreadable: true}, nil)
	table, err := uc.ProcessLocation(context.Background(), atoll, []int{202001})
	if err != nil {
		t.Fatalf("ProcessLocation: %v", err)
	}
	if !slices.Equal(table.Columns, []string{"dp", "hs", "tp", domain.EnergyColumn}) {
		t.Errorf("columns = %v", table.Columns)
	}
	if c := table.Cell(0, "dp"); c.Valid {
		t.Errorf("dp = %+v, want missing", c)
	}
	if c := table.Cell(0, domain.EnergyColumn); !c.Valid {
		t.Error("CgE missing despite hs and tp present")
	}
}

func TestEnergyForLocation(t *testing.T) {
	dir, islands, src := atollFixture(t)
	uc := NewExtractionUseCase(csvstore.NewLocationStore(islands), src, nil,
		ExtractionOptions{SearchFolder: dir, Variables: []string{"dp", "hs", "tp"}}, nil)

	table, err := uc.EnergyForLocation(context.Background(), "Atoll", 202001, 202001)
	if err != nil {
		t.Fatalf("EnergyForLocation: %v", err)
	}
	if table.Len() != 1 {
		t.Errorf("rows = %d, want 1", table.Len())
	}

	if _, err := uc.EnergyForLocation(context.Background(), "Nowhere", 0, 0); !errors.Is(err, domain.ErrLocationNotFound) {
		t.Errorf("error = %v, want ErrLocationNotFound", err)
	}

	empty, err := uc.EnergyForLocation(context.Background(), "Atoll", 203001, 0)
	if err != nil {
		t.Fatalf("EnergyForLocation: %v", err)
	}
	if empty.Len() != 0 {
		t.Errorf("rows outside range = %d, want 0", empty.Len())
	}
}

// failAfterSource fails the n-th Open.
type failAfterSource struct {
	store.GridSource
	failAt int
	calls  int
}

func (f *failAfterSource) Open(variable string, dateKey int) (store.SnapshotScanner, error) {
	f.calls++
	if f.calls == f.failAt {
		return nil, errors.New("corrupt file")
	}
	return f.GridSource.Open(variable, dateKey)
}
