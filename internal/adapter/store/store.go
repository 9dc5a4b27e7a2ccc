// Package store defines the data sources the extraction pipeline reads from.
package store

import "go.ngs.io/wave-energy/internal/domain"

// LocationLoader is the interface for loading the named sampling locations.
type LocationLoader interface {
	// LoadLocations returns every location, longitudes already on the grid axis.
	LoadLocations() ([]domain.Location, error)
}

// GridSource is the interface for opening the grid file of one (variable, date key) pair.
type GridSource interface {
	// Open returns a scanner over the records of the file. The caller must Close it.
	Open(variable string, dateKey int) (SnapshotScanner, error)
}

// SnapshotScanner iterates the grid records of one file in file order.
type SnapshotScanner interface {
	// Scan advances to the next record, returning false at the end or on error.
	Scan() bool
	// Snapshot returns the record read by the last successful Scan.
	Snapshot() domain.GridSnapshot
	// Err returns the first error encountered by Scan, if any.
	Err() error
	// Close releases the underlying file.
	Close() error
}
