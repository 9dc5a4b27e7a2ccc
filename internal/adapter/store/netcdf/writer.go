package netcdf

import (
	"fmt"
	"time"

	"github.com/fhs/go-netcdf/netcdf"
)

// WaveGrid is the content of one {prefix}.{variable}.{date}.nc file.
type WaveGrid struct {
	Variable string
	Units    string
	Lats     []float64
	Lons     []float64
	Epoch    time.Time
	Hours    []float64 // Time step offsets from Epoch.
	Values   []float64 // [time, lat, lon] row-major.
	Fill     float64   // Written as _FillValue when non-zero.
}

// WriteFile writes g as a CF-style NetCDF-4 file.
func WriteFile(path string, g WaveGrid) error {
	nLat, nLon, nTime := len(g.Lats), len(g.Lons), len(g.Hours)
	if len(g.Values) != nTime*nLat*nLon {
		return fmt.Errorf("values: got %d, want %d×%d×%d", len(g.Values), nTime, nLat, nLon)
	}

	ds, err := netcdf.CreateFile(path, netcdf.CLOBBER|netcdf.NETCDF4)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() { _ = ds.Close() }()

	timeDim, err := ds.AddDim("time", uint64(nTime))
	if err != nil {
		return err
	}
	latDim, err := ds.AddDim("lat", uint64(nLat))
	if err != nil {
		return err
	}
	lonDim, err := ds.AddDim("lon", uint64(nLon))
	if err != nil {
		return err
	}

	timeVar, err := ds.AddVar("time", netcdf.DOUBLE, []netcdf.Dim{timeDim})
	if err != nil {
		return err
	}
	units := "hours since " + g.Epoch.UTC().Format("2006-01-02 15:04:05")
	if err := timeVar.Attr("units").WriteBytes([]byte(units)); err != nil {
		return err
	}
	latVar, err := ds.AddVar("lat", netcdf.DOUBLE, []netcdf.Dim{latDim})
	if err != nil {
		return err
	}
	lonVar, err := ds.AddVar("lon", netcdf.DOUBLE, []netcdf.Dim{lonDim})
	if err != nil {
		return err
	}
	dataVar, err := ds.AddVar(g.Variable, netcdf.DOUBLE, []netcdf.Dim{timeDim, latDim, lonDim})
	if err != nil {
		return err
	}
	if g.Units != "" {
		if err := dataVar.Attr("units").WriteBytes([]byte(g.Units)); err != nil {
			return err
		}
	}
	if g.Fill != 0 {
		if err := dataVar.Attr("_FillValue").WriteFloat64s([]float64{g.Fill}); err != nil {
			return err
		}
	}

	if err := ds.EndDef(); err != nil {
		return err
	}

	if err := timeVar.WriteFloat64s(g.Hours); err != nil {
		return fmt.Errorf("write time: %w", err)
	}
	if err := latVar.WriteFloat64s(g.Lats); err != nil {
		return fmt.Errorf("write lat: %w", err)
	}
	if err := lonVar.WriteFloat64s(g.Lons); err != nil {
		return fmt.Errorf("write lon: %w", err)
	}
	if err := dataVar.WriteFloat64s(g.Values); err != nil {
		return fmt.Errorf("write %s: %w", g.Variable, err)
	}
	return nil
}
