// Package netcdf reads gridded wave parameters from CF-style NetCDF files.
package netcdf

import (
	"fmt"
	"path/filepath"

	"go.ngs.io/wave-energy/internal/adapter/store"
)

// FileConfig defines the expected NetCDF file structure.
type FileConfig struct {
	// Prefix of {prefix}.{variable}.{date}.nc file names.
	Prefix string

	// Variable names tried in order.
	LatVarNames  []string
	LonVarNames  []string
	TimeVarNames []string
	// DataVarFallbacks are tried after the wave variable's own name.
	DataVarFallbacks []string
}

// DefaultConfig returns the default file configuration.
func DefaultConfig(prefix string) FileConfig {
	return FileConfig{
		Prefix:           prefix,
		LatVarNames:      []string{"lat", "latitude", "y"},
		LonVarNames:      []string{"lon", "longitude", "x"},
		TimeVarNames:     []string{"time", "t"},
		DataVarFallbacks: []string{"data", "z"},
	}
}

// Source opens NetCDF files in one directory.
type Source struct {
	dir    string
	config FileConfig
}

// NewSource creates a Source with the default configuration.
func NewSource(dir, prefix string) *Source {
	return NewSourceWithConfig(dir, DefaultConfig(prefix))
}

// NewSourceWithConfig creates a Source with a custom file configuration.
func NewSourceWithConfig(dir string, config FileConfig) *Source {
	return &Source{dir: dir, config: config}
}

// Path returns the file path for a (variable, date key) pair.
func (s *Source) Path(variable string, dateKey int) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s.%s.%d.nc", s.config.Prefix, variable, dateKey))
}

// Open implements store.GridSource.
func (s *Source) Open(variable string, dateKey int) (store.SnapshotScanner, error) {
	sc, err := NewScanner(s.Path(variable, dateKey), variable, s.config)
	if err != nil {
		return nil, err
	}
	return sc, nil
}
