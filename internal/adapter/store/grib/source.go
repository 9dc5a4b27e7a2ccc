package grib

import (
	"fmt"
	"path/filepath"

	"go.ngs.io/wave-energy/internal/adapter/store"
)

// DefaultPrefix is the file name prefix of the WAVEWATCH III 30-minute global hindcast.
const DefaultPrefix = "multi_reanal.glo_30m_ext"

// Source opens GRIB2 files named {prefix}.{variable}.{date}.grb2 in one directory.
type Source struct {
	dir    string
	prefix string
}

// NewSource creates a Source. An empty prefix selects DefaultPrefix.
func NewSource(dir, prefix string) *Source {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Source{dir: dir, prefix: prefix}
}

// Path returns the file path for a (variable, date key) pair.
func (s *Source) Path(variable string, dateKey int) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s.%s.%d.grb2", s.prefix, variable, dateKey))
}

// Open implements store.GridSource.
func (s *Source) Open(variable string, dateKey int) (store.SnapshotScanner, error) {
	sc, err := NewScanner(s.Path(variable, dateKey), variable)
	if err != nil {
		return nil, err
	}
	return sc, nil
}
