// Package grid samples 2D geophysical grids at point locations.
package grid

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"go.ngs.io/wave-energy/internal/domain"
)

// Grid2D is a (possibly curvilinear) grid: every node carries its own
// latitude and longitude. Lats, Lons and Values must share one shape.
type Grid2D struct {
	Lats   mat.Matrix
	Lons   mat.Matrix
	Values mat.Matrix
}

// Validate checks that the grid is non-empty and that all three matrices have the same shape.
func (g *Grid2D) Validate() error {
	if g.Lats == nil || g.Lons == nil || g.Values == nil {
		return domain.ErrEmptyGrid
	}

	r, c := g.Values.Dims()
	latR, latC := g.Lats.Dims()
	lonR, lonC := g.Lons.Dims()

	if latR != r || latC != c || lonR != r || lonC != c {
		return fmt.Errorf("%w: lats %dx%d, lons %dx%d, values %dx%d",
			domain.ErrShapeMismatch, latR, latC, lonR, lonC, r, c)
	}
	if r*c == 0 {
		return domain.ErrEmptyGrid
	}
	return nil
}

// NearestIndex returns the row and column of the node closest to (lat, lon).
//
// Closeness is the Chebyshev distance max(|Δlat|, |Δlon|) in degrees, which
// matches grid-cell-box proximity rather than great-circle distance. Ties go
// to the first node in row-major order. Nodes with NaN coordinates are never
// selected unless no node has valid coordinates, in which case (0, 0) is returned.
func (g *Grid2D) NearestIndex(lat, lon float64) (int, int, error) {
	if err := g.Validate(); err != nil {
		return 0, 0, err
	}

	rows, cols := g.Values.Dims()
	best := math.Inf(1)
	bestI, bestJ := 0, 0

	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			d := math.Max(math.Abs(g.Lats.At(i, j)-lat), math.Abs(g.Lons.At(i, j)-lon))
			// Strict comparison keeps the first minimum; NaN never compares less.
			if d < best {
				best = d
				bestI, bestJ = i, j
			}
		}
	}

	return bestI, bestJ, nil
}

// NearestValue returns the value at the node closest to (lat, lon). The
// result is always one of the grid's values; nothing is interpolated.
func (g *Grid2D) NearestValue(lat, lon float64) (float64, error) {
	i, j, err := g.NearestIndex(lat, lon)
	if err != nil {
		return 0, err
	}
	return g.Values.At(i, j), nil
}

// NearestValue samples values at the node of (lats, lons) closest to (lat, lon).
func NearestValue(lats, lons, values mat.Matrix, lat, lon float64) (float64, error) {
	g := Grid2D{Lats: lats, Lons: lons, Values: values}
	return g.NearestValue(lat, lon)
}

// Meshgrid expands 1D latitude and longitude axes into 2D coordinate
// matrices of shape len(lats) × len(lons), row i holding lats[i].
func Meshgrid(lats, lons []float64) (*mat.Dense, *mat.Dense, error) {
	if len(lats) == 0 || len(lons) == 0 {
		return nil, nil, domain.ErrEmptyGrid
	}

	nLat, nLon := len(lats), len(lons)
	latData := make([]float64, nLat*nLon)
	lonData := make([]float64, nLat*nLon)
	for i := 0; i < nLat; i++ {
		for j := 0; j < nLon; j++ {
			latData[i*nLon+j] = lats[i]
			lonData[i*nLon+j] = lons[j]
		}
	}

	return mat.NewDense(nLat, nLon, latData), mat.NewDense(nLat, nLon, lonData), nil
}
