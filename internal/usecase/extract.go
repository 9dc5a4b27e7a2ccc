package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"go.ngs.io/wave-energy/internal/adapter/sink"
	"go.ngs.io/wave-energy/internal/adapter/store"
	"go.ngs.io/wave-energy/internal/domain"
)

// ExtractionOptions configures an extraction run.
type ExtractionOptions struct {
	SearchFolder   string   // Directory scanned for date keys.
	Variables      []string // Wave parameters to sample, e.g. dp, hs, tp.
	HsColumn       string   // Significant wave height column; defaults to "hs".
	TpColumn       string   // Wave period column; defaults to "tp".
	DateFrom       int      // Inclusive date key bounds; 0 means unbounded.
	DateTo         int
	SkipUnreadable bool
	RunID          uuid.UUID // Generated when nil.
}

// ExtractionUseCase turns grid files into per-location wave energy tables.
type ExtractionUseCase struct {
	locations store.LocationLoader
	source    store.GridSource
	sinks     []sink.Sink
	opts      ExtractionOptions
	logger    *slog.Logger
	runID     uuid.UUID
}

// NewExtractionUseCase creates a new extraction use case. A nil logger discards output.
func NewExtractionUseCase(locations store.LocationLoader, source store.GridSource, sinks []sink.Sink, opts ExtractionOptions, logger *slog.Logger) *ExtractionUseCase {
	if opts.HsColumn == "" {
		opts.HsColumn = "hs"
	}
	if opts.TpColumn == "" {
		opts.TpColumn = "tp"
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	runID := opts.RunID
	if runID == uuid.Nil {
		runID = uuid.New()
	}
	return &ExtractionUseCase{
		locations: locations,
		source:    source,
		sinks:     sinks,
		opts:      opts,
		logger:    logger.With("run_id", runID.String()),
		runID:     runID,
	}
}

// RunID identifies this use case's output rows.
func (uc *ExtractionUseCase) RunID() uuid.UUID {
	return uc.runID
}

// Locations returns the configured sampling locations.
func (uc *ExtractionUseCase) Locations() ([]domain.Location, error) {
	locs, err := uc.locations.LoadLocations()
	if err != nil {
		return nil, fmt.Errorf("failed to load locations: %w", err)
	}
	return locs, nil
}

// DateKeys returns the discovered date keys within [from, to]; 0 leaves a bound open.
func (uc *ExtractionUseCase) DateKeys(from, to int) ([]int, error) {
	keys, err := store.DiscoverDateKeys(uc.opts.SearchFolder, store.DateKeySegment)
	if err != nil {
		return nil, err
	}
	return store.FilterDateKeys(keys, from, to), nil
}

// Run processes every location and hands each energy table to every sink.
// Tables already written stay written when a later location fails.
func (uc *ExtractionUseCase) Run(ctx context.Context) error {
	start := time.Now()
	uc.logger.Info("extracting wave watch 3 variables", "variables", uc.opts.Variables)

	locations, err := uc.Locations()
	if err != nil {
		return err
	}
	uc.logger.Info("loaded locations", "count", len(locations))

	dateKeys, err := uc.DateKeys(uc.opts.DateFrom, uc.opts.DateTo)
	if err != nil {
		return err
	}
	if len(dateKeys) == 0 {
		return fmt.Errorf("%w in range [%d, %d]", domain.ErrDateDiscovery, uc.opts.DateFrom, uc.opts.DateTo)
	}
	uc.logger.Info("dates found for processing", "count", len(dateKeys))

	for _, loc := range locations {
		uc.logger.Info("processing location", "location", loc.Name)

		table, err := uc.ProcessLocation(ctx, loc, dateKeys)
		if err != nil {
			return fmt.Errorf("location %s: %w", loc.Name, err)
		}
		for _, s := range uc.sinks {
			if err := s.Write(ctx, table); err != nil {
				return fmt.Errorf("location %s: %w", loc.Name, err)
			}
		}
		uc.logger.Info("wrote location", "location", loc.Name, "rows", table.Len(), "sinks", len(uc.sinks))
	}

	uc.logger.Info("extraction complete", "locations", len(locations), "elapsed", time.Since(start).Round(time.Millisecond))
	return nil
}

// ProcessLocation collects, reshapes and computes energy for one location.
// The returned table has one column per configured variable in alphabetical
// order followed by CgE.
func (uc *ExtractionUseCase) ProcessLocation(ctx context.Context, loc domain.Location, dateKeys []int) (*domain.WideTable, error) {
	collector := Collector{
		Source:         uc.source,
		Logger:         uc.logger,
		SkipUnreadable: uc.opts.SkipUnreadable,
	}
	samples, err := collector.Collect(ctx, []domain.Location{loc}, dateKeys, uc.opts.Variables)
	if err != nil {
		return nil, err
	}

	wide := domain.Reshape(samples, loc.Name)
	wide.EnsureColumns(uc.opts.Variables...)
	slices.Sort(wide.Columns)

	uc.logger.Info("calculating wave power", "location", loc.Name)
	return domain.ComputeEnergy(wide, uc.opts.HsColumn, uc.opts.TpColumn)
}

// EnergyForLocation runs ProcessLocation for a named location over the
// date keys within [from, to].
func (uc *ExtractionUseCase) EnergyForLocation(ctx context.Context, name string, from, to int) (*domain.WideTable, error) {
	locations, err := uc.Locations()
	if err != nil {
		return nil, err
	}
	loc, err := domain.FindLocation(locations, name)
	if err != nil {
		return nil, err
	}
	dateKeys, err := uc.DateKeys(from, to)
	if err != nil {
		return nil, err
	}
	return uc.ProcessLocation(ctx, loc, dateKeys)
}
