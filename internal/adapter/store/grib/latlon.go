// Package grib reads regular latitude/longitude GRIB2 files such as the
// WAVEWATCH III multi-grid hindcast (GDT 3.0, DRS 5.0/5.2/5.3, optional bitmap).
package grib

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// LatLonGrid holds parsed GDT 3.0 parameters. Angles are in degrees.
type LatLonGrid struct {
	Ni, Nj   int
	La1, Lo1 float64 // First grid point.
	La2, Lo2 float64 // Last grid point.
	Di, Dj   float64 // Increments, always positive; direction comes from ScanMode.
	ScanMode byte
}

// Len returns the number of grid points.
func (g *LatLonGrid) Len() int {
	return g.Ni * g.Nj
}

// lonSpan returns the longitude extent from Lo1 to Lo2 in the scanning direction.
func (g *LatLonGrid) lonSpan() float64 {
	d := g.Lo2 - g.Lo1
	if g.ScanMode&scanNegativeI != 0 {
		d = -d
	}
	return normalizeLon360(d)
}

// shape returns the matrix shape matching the data order.
func (g *LatLonGrid) shape() (rows, cols int) {
	if g.ScanMode&scanJConsecutive != 0 {
		return g.Ni, g.Nj
	}
	return g.Nj, g.Ni
}

// Matrices lays vals out in data order and returns matching latitude,
// longitude and value matrices. Longitudes are on the 0–360° axis.
func (g *LatLonGrid) Matrices(vals []float64) (lats, lons, values *mat.Dense) {
	rows, cols := g.shape()
	n := rows * cols

	dirI, dirJ := 1.0, -1.0
	if g.ScanMode&scanNegativeI != 0 {
		dirI = -1.0
	}
	if g.ScanMode&scanPositiveJ != 0 {
		dirJ = 1.0
	}

	latData := make([]float64, n)
	lonData := make([]float64, n)
	for k := 0; k < n; k++ {
		r, c := k/cols, k%cols
		i, j := c, r
		if g.ScanMode&scanJConsecutive != 0 {
			i, j = r, c
		}
		latData[k] = g.La1 + dirJ*float64(j)*g.Dj
		lonData[k] = normalizeLon360(g.Lo1 + dirI*float64(i)*g.Di)
	}

	return mat.NewDense(rows, cols, latData), mat.NewDense(rows, cols, lonData), mat.NewDense(rows, cols, vals)
}

// normalizeLon360 maps arbitrary degree longitudes into the [0, 360) range.
func normalizeLon360(lon float64) float64 {
	lon = math.Mod(lon, 360.0)
	if lon < 0 {
		lon += 360.0
	}
	return lon
}
