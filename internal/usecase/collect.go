package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"go.ngs.io/wave-energy/internal/adapter/grid"
	"go.ngs.io/wave-energy/internal/adapter/store"
	"go.ngs.io/wave-energy/internal/domain"
)

// Collector samples every grid record of every (variable, date key) file at
// each location and appends the results to a sample table.
type Collector struct {
	Source store.GridSource
	Logger *slog.Logger

	// SkipUnreadable logs and skips files that cannot be opened or decoded
	// instead of failing the whole collection.
	SkipUnreadable bool
}

// Collect runs a Collector that treats unreadable files as fatal.
func Collect(ctx context.Context, locations []domain.Location, dateKeys []int, variables []string, source store.GridSource) (*domain.SampleTable, error) {
	c := Collector{Source: source}
	return c.Collect(ctx, locations, dateKeys, variables)
}

// Collect visits locations, then date keys in the given order, then
// variables, then records in file order.
func (c *Collector) Collect(ctx context.Context, locations []domain.Location, dateKeys []int, variables []string) (*domain.SampleTable, error) {
	logger := c.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	table := domain.NewSampleTable()
	for _, loc := range locations {
		for _, dateKey := range dateKeys {
			for _, variable := range variables {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
				logger.Debug("processing date", "location", loc.Name, "date", dateKey, "variable", variable)

				err := c.collectFile(loc, variable, dateKey, table)
				if err == nil {
					continue
				}
				readErr := &domain.GridReadError{Variable: variable, DateKey: dateKey, Err: err}
				if !c.SkipUnreadable {
					return nil, readErr
				}
				logger.Warn("skipping unreadable grid", "location", loc.Name, "error", readErr)
			}
		}
	}
	return table, nil
}

// collectFile samples one file. Rows reach table only once the whole file
// has been read and closed without error.
func (c *Collector) collectFile(loc domain.Location, variable string, dateKey int, table *domain.SampleTable) (err error) {
	sc, err := c.Source.Open(variable, dateKey)
	if err != nil {
		return err
	}

	var rows []domain.Sample
	defer func() {
		if cerr := sc.Close(); cerr != nil && err == nil {
			err = cerr
		}
		if err != nil {
			return
		}
		for _, s := range rows {
			table.Append(s)
		}
	}()

	for sc.Scan() {
		snap := sc.Snapshot()
		ts, err := snap.Timestamp()
		if err != nil {
			return err
		}
		value, err := grid.NearestValue(snap.Lats, snap.Lons, snap.Values, loc.Latitude, loc.Longitude)
		if err != nil {
			return fmt.Errorf("sample %s at %s: %w", variable, ts, err)
		}
		rows = append(rows, domain.Sample{
			Location: loc.Name,
			Time:     ts,
			Variable: variable,
			Value:    value,
			Lat:      loc.Latitude,
			Lon:      loc.Longitude,
		})
	}
	return sc.Err()
}
