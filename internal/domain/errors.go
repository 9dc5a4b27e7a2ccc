package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by the extraction pipeline.
var (
	// ErrConfiguration is returned when the location list is unusable.
	ErrConfiguration = errors.New("configuration error")
	// ErrDateDiscovery is returned when no date keys can be found in the source directory.
	ErrDateDiscovery = errors.New("no date keys discovered")
	// ErrGridRead is matched by every GridReadError.
	ErrGridRead = errors.New("grid read error")
	// ErrShapeMismatch is returned when coordinate and value grids differ in shape.
	ErrShapeMismatch = errors.New("grid shape mismatch")
	// ErrEmptyGrid is returned when a grid has no elements.
	ErrEmptyGrid = errors.New("empty grid")
	// ErrMissingColumn is returned when a wide table lacks a required column.
	ErrMissingColumn = errors.New("missing column")
	// ErrLocationNotFound is returned when a named location is not in the location list.
	ErrLocationNotFound = errors.New("location not found")
)

// GridReadError reports a (variable, date key) file that could not be opened or decoded.
type GridReadError struct {
	Variable string
	DateKey  int
	Err      error
}

func (e *GridReadError) Error() string {
	return fmt.Sprintf("read grid %s for date %d: %v", e.Variable, e.DateKey, e.Err)
}

// Unwrap exposes both ErrGridRead and the underlying cause to errors.Is/As.
func (e *GridReadError) Unwrap() []error {
	return []error{ErrGridRead, e.Err}
}
