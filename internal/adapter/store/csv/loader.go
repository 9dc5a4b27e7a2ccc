// Package csv provides CSV-based location list loading.
package csv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"go.ngs.io/wave-energy/internal/domain"
)

// Required location list columns.
const (
	NameColumn      = "Island"
	LatitudeColumn  = "Latitude"
	LongitudeColumn = "Longitude"
)

// LocationStore loads sampling locations from a CSV file.
type LocationStore struct {
	path string
}

// NewLocationStore creates a new CSV-based location store.
func NewLocationStore(path string) *LocationStore {
	return &LocationStore{
		path: path,
	}
}

// LoadLocations reads every location from the CSV file and shifts its
// longitude onto the grid axis.
func (s *LocationStore) LoadLocations() ([]domain.Location, error) {
	//nolint:gosec // G304: Path comes from configuration.
	file, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open location list %s: %w", domain.ErrConfiguration, s.path, err)
	}
	defer func() { _ = file.Close() }()

	return ReadLocations(file)
}

// ReadLocations parses a location list. Columns are matched by header
// name; extra columns are ignored.
func ReadLocations(r io.Reader) ([]domain.Location, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	// Read header.
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read CSV header: %w", domain.ErrConfiguration, err)
	}

	// Locate required columns.
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	required := []string{NameColumn, LatitudeColumn, LongitudeColumn}
	for _, col := range required {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("%w: location list is missing column %s (have %v)", domain.ErrConfiguration, col, header)
		}
	}
	nameIdx, latIdx, lonIdx := idx[NameColumn], idx[LatitudeColumn], idx[LongitudeColumn]
	width := max(nameIdx, latIdx, lonIdx) + 1

	// Read data rows.
	locations := make([]domain.Location, 0)
	line := 1

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read CSV record: %w", domain.ErrConfiguration, err)
		}
		line++

		if len(record) < width {
			return nil, fmt.Errorf("%w: line %d has %d columns, expected at least %d", domain.ErrConfiguration, line, len(record), width)
		}

		name := strings.TrimSpace(record[nameIdx])
		latStr := strings.TrimSpace(record[latIdx])
		lonStr := strings.TrimSpace(record[lonIdx])

		// Parse latitude.
		lat, err := strconv.ParseFloat(latStr, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid latitude for %s: %w", domain.ErrConfiguration, name, err)
		}

		// Parse longitude.
		lon, err := strconv.ParseFloat(lonStr, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid longitude for %s: %w", domain.ErrConfiguration, name, err)
		}

		locations = append(locations, domain.Location{
			Name:      name,
			Latitude:  lat,
			Longitude: domain.ShiftLongitude(lon),
		})
	}

	if len(locations) == 0 {
		return nil, fmt.Errorf("%w: location list is empty", domain.ErrConfiguration)
	}

	return locations, nil
}
