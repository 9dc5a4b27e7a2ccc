package domain

import (
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
)

// FillValue is the magnitude at or above which GRIB2 and NetCDF wave
// products mark a grid point as having no data.
const FillValue = 9.999e20

// GridSnapshot is one decoded grid record for a (variable, timestamp) pair.
type GridSnapshot struct {
	Variable     string
	DataDate     int // Reference date as YYYYMMDD.
	ForecastTime int // Hours after DataDate.

	// Lats, Lons and Values share one shape.
	Lats   mat.Matrix
	Lons   mat.Matrix
	Values mat.Matrix
}

// Timestamp returns DataDate + ForecastTime hours.
func (s GridSnapshot) Timestamp() (Timestamp, error) {
	base, err := DataDateTime(s.DataDate)
	if err != nil {
		return Timestamp{}, err
	}
	return TimestampOf(base.Add(time.Duration(s.ForecastTime) * time.Hour)), nil
}

// Sample is one long-format row: a grid value sampled for one location at one time.
type Sample struct {
	Location string
	Time     Timestamp
	Variable string
	Value    float64
	Lat      float64
	Lon      float64
}

// IsPlaceholder reports whether v is a no-data marker rather than a measurement.
func IsPlaceholder(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) >= FillValue
}

// SampleTable accumulates samples in insertion order.
// A table is owned by a single pipeline run and is not safe for concurrent use.
type SampleTable struct {
	rows []Sample
}

// NewSampleTable creates an empty table.
func NewSampleTable() *SampleTable {
	return &SampleTable{}
}

// Append adds a sample. Rows are never removed.
func (t *SampleTable) Append(s Sample) {
	t.rows = append(t.rows, s)
}

// Len returns the number of rows.
func (t *SampleTable) Len() int {
	return len(t.rows)
}

// Rows returns the rows in insertion order. The slice must not be modified.
func (t *SampleTable) Rows() []Sample {
	return t.rows
}
