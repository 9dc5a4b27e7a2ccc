package domain

import "fmt"

// Location is a named point at which grids are sampled.
type Location struct {
	Name      string
	Latitude  float64 // Degrees north.
	Longitude float64 // Degrees on the grid source's 0–360 axis.
}

// ShiftLongitude converts a location-list longitude to the grid convention
// by adding 180 degrees. This is the literal shift the island list has
// always been processed with; it is not a modular wrap.
func ShiftLongitude(lon float64) float64 {
	return lon + 180.0
}

// FindLocation returns the location with the given name.
func FindLocation(locations []Location, name string) (Location, error) {
	for _, loc := range locations {
		if loc.Name == name {
			return loc, nil
		}
	}
	return Location{}, fmt.Errorf("%w: %s", ErrLocationNotFound, name)
}
