package netcdf

import (
	"fmt"
	"math"
	"time"

	"github.com/fhs/go-netcdf/netcdf"
	"gonum.org/v1/gonum/mat"

	"go.ngs.io/wave-energy/internal/adapter/grid"
	"go.ngs.io/wave-energy/internal/domain"
)

// Scanner yields one grid record per time step of a [time, lat, lon] variable.
// The whole variable is read when the scanner is created and the file is
// closed immediately after.
type Scanner struct {
	variable string
	lats     *mat.Dense
	lons     *mat.Dense
	nLat     int
	nLon     int
	epoch    time.Time
	steps    []time.Time
	flat     []float64
	pos      int
	snap     domain.GridSnapshot
}

// NewScanner reads variable from the NetCDF file at path.
func NewScanner(path, variable string, config FileConfig) (*Scanner, error) {
	nc, err := netcdf.OpenFile(path, netcdf.NOWRITE)
	if err != nil {
		return nil, fmt.Errorf("failed to open NetCDF file: %w", err)
	}
	defer func() { _ = nc.Close() }()

	latData, err := readFirst1D(nc, config.LatVarNames)
	if err != nil {
		return nil, fmt.Errorf("latitude: %w", err)
	}
	lonData, err := readFirst1D(nc, config.LonVarNames)
	if err != nil {
		return nil, fmt.Errorf("longitude: %w", err)
	}

	timeVar, err := findVar(nc, config.TimeVarNames)
	if err != nil {
		return nil, fmt.Errorf("time: %w", err)
	}
	offsets, err := readFloat64Var(timeVar)
	if err != nil {
		return nil, fmt.Errorf("failed to read time: %w", err)
	}
	units, err := readStringAttr(timeVar, "units")
	if err != nil {
		return nil, fmt.Errorf("time units: %w", err)
	}
	step, epoch, err := parseTimeUnits(units)
	if err != nil {
		return nil, err
	}

	dataVar, err := findVar(nc, append([]string{variable}, config.DataVarFallbacks...))
	if err != nil {
		return nil, fmt.Errorf("data variable: %w", err)
	}
	nTime, nLat, nLon := len(offsets), len(latData), len(lonData)
	if err := checkDims(dataVar, nTime, nLat, nLon); err != nil {
		return nil, err
	}
	flat, err := readFlat(dataVar, nTime*nLat*nLon)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", variable, err)
	}

	// Fill values become NaN so the reshaper treats them as missing.
	if fv, ok := getFillValue(dataVar); ok {
		for i, v := range flat {
			if v == fv {
				flat[i] = math.NaN()
			}
		}
	}

	lats, lons, err := grid.Meshgrid(latData, lonData)
	if err != nil {
		return nil, fmt.Errorf("invalid grid: %w", err)
	}

	steps := make([]time.Time, nTime)
	for i, off := range offsets {
		steps[i] = epoch.Add(time.Duration(off * float64(step)))
	}

	return &Scanner{
		variable: variable,
		lats:     lats,
		lons:     lons,
		nLat:     nLat,
		nLon:     nLon,
		epoch:    epoch,
		steps:    steps,
		flat:     flat,
	}, nil
}

// Scan advances to the next time step.
func (s *Scanner) Scan() bool {
	if s.pos >= len(s.steps) {
		return false
	}
	n := s.nLat * s.nLon
	values := mat.NewDense(s.nLat, s.nLon, s.flat[s.pos*n:(s.pos+1)*n])

	day := time.Date(s.epoch.Year(), s.epoch.Month(), s.epoch.Day(), 0, 0, 0, 0, time.UTC)
	s.snap = domain.GridSnapshot{
		Variable:     s.variable,
		DataDate:     day.Year()*10000 + int(day.Month())*100 + day.Day(),
		ForecastTime: int(math.Floor(s.steps[s.pos].Sub(day).Hours())),
		Lats:         s.lats,
		Lons:         s.lons,
		Values:       values,
	}
	s.pos++
	return true
}

// Snapshot returns the record of the last Scan.
func (s *Scanner) Snapshot() domain.GridSnapshot {
	return s.snap
}

// Err always returns nil; every read happens in NewScanner.
func (s *Scanner) Err() error {
	return nil
}

// Close releases the buffered values.
func (s *Scanner) Close() error {
	s.flat = nil
	return nil
}

func checkDims(v netcdf.Var, nTime, nLat, nLon int) error {
	dims, err := v.Dims()
	if err != nil {
		return fmt.Errorf("failed to get dimensions: %w", err)
	}
	if len(dims) != 3 {
		return fmt.Errorf("expected 3D [time, lat, lon] data, got %dD", len(dims))
	}
	want := []int{nTime, nLat, nLon}
	for i, d := range dims {
		n, err := d.Len()
		if err != nil {
			return fmt.Errorf("failed to get dim%d length: %w", i, err)
		}
		if n != uint64(want[i]) {
			return fmt.Errorf("%w: data dim%d is %d, expected %d", domain.ErrShapeMismatch, i, n, want[i])
		}
	}
	return nil
}
