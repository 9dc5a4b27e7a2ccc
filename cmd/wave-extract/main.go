// Package main provides the batch wave energy extractor.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"go.ngs.io/wave-energy/internal/adapter/sink"
	"go.ngs.io/wave-energy/internal/adapter/sink/csvfile"
	"go.ngs.io/wave-energy/internal/adapter/sink/postgres"
	s3sink "go.ngs.io/wave-energy/internal/adapter/sink/s3"
	"go.ngs.io/wave-energy/internal/adapter/store"
	"go.ngs.io/wave-energy/internal/adapter/store/csv"
	"go.ngs.io/wave-energy/internal/adapter/store/grib"
	"go.ngs.io/wave-energy/internal/adapter/store/netcdf"
	"go.ngs.io/wave-energy/internal/config"
	"go.ngs.io/wave-energy/internal/usecase"
)

const version = "0.1.0"

func main() {
	// Parse command-line flags.
	showHelp := flag.Bool("help", false, "Show usage information")
	showVersion := flag.Bool("version", false, "Show version information")
	verbose := flag.Bool("v", false, "Log every (date, variable) pair")
	flag.Parse()

	if *showHelp {
		printUsage()
		return
	}

	if *showVersion {
		fmt.Printf("wave-extract version %s\n", version)
		return
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	if err := run(logger); err != nil {
		logger.Error("extraction failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	runID := uuid.New()

	logger.Info("starting wave energy extraction",
		"run_id", runID.String(),
		"search_folder", cfg.SearchFolder,
		"island_centers", cfg.IslandCentersPath,
		"grid_format", cfg.GridFormat,
		"output_dir", cfg.OutputDir)

	// Output sinks. The CSV sink is always on.
	sinks := []sink.Sink{csvfile.NewSink(cfg.OutputDir)}

	if cfg.DatabaseURL != "" {
		pool, err := postgres.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()
		if err := postgres.InitSchema(ctx, pool); err != nil {
			return err
		}
		sinks = append(sinks, postgres.NewSink(pool, runID))
		logger.Info("postgres sink enabled", "table", postgres.TableName)
	}

	if cfg.S3Bucket != "" {
		client, err := s3sink.NewClient(ctx, s3sink.ClientConfig{
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
		if err != nil {
			return err
		}
		sinks = append(sinks, s3sink.NewSink(client, cfg.S3Bucket, cfg.S3Prefix))
		logger.Info("s3 sink enabled", "bucket", cfg.S3Bucket, "prefix", cfg.S3Prefix)
	}

	uc := usecase.NewExtractionUseCase(
		csv.NewLocationStore(cfg.IslandCentersPath),
		gridSource(cfg),
		sinks,
		usecase.ExtractionOptions{
			SearchFolder:   cfg.SearchFolder,
			Variables:      cfg.Variables,
			DateFrom:       cfg.DateFrom,
			DateTo:         cfg.DateTo,
			SkipUnreadable: cfg.SkipUnreadable,
			RunID:          runID,
		},
		logger,
	)
	return uc.Run(ctx)
}

// gridSource selects the grid reader for the configured file format.
func gridSource(cfg config.Config) store.GridSource {
	if cfg.GridFormat == config.FormatNetCDF {
		return netcdf.NewSource(cfg.SearchFolder, cfg.GribPrefix)
	}
	return grib.NewSource(cfg.SearchFolder, cfg.GribPrefix)
}

// printUsage prints usage information.
func printUsage() {
	fmt.Printf("Wave Energy Extractor v%s\n\n", version)
	fmt.Println("USAGE:")
	fmt.Println("  wave-extract [flags]")
	fmt.Println()
	fmt.Println("FLAGS:")
	fmt.Println("  -help          Show this help message")
	fmt.Println("  -version       Show version information")
	fmt.Println("  -v             Verbose progress logging")
	fmt.Println()
	fmt.Println("ENVIRONMENT VARIABLES (also read from .env unless APP_ENV=production):")
	fmt.Println("  SEARCH_FOLDER           Directory of WAVEWATCH III grid files (default: ./data/ww3)")
	fmt.Println("  ISLAND_CENTERS_PATH     CSV with Island,Latitude,Longitude columns (default: ./data/Island_Centers.csv)")
	fmt.Println("  VARIABLES               Comma-separated variables to extract (default: dp,hs,tp)")
	fmt.Println("  OUTPUT_DIR              Directory for <Island>.csv outputs (default: .)")
	fmt.Println("  GRID_FORMAT             grib or netcdf (default: grib)")
	fmt.Println("  GRIB_PREFIX             File name prefix (default: multi_reanal.glo_30m_ext)")
	fmt.Println("  DATE_FROM, DATE_TO      Inclusive date key range, e.g. 199001 (default: all)")
	fmt.Println("  SKIP_UNREADABLE         Skip unreadable grid files instead of failing (default: false)")
	fmt.Println("  DATABASE_URL            Also store rows in PostgreSQL (optional)")
	fmt.Println("  S3_BUCKET, S3_PREFIX    Also upload CSVs to S3 (optional)")
	fmt.Println("  S3_ENDPOINT, S3_REGION  S3-compatible endpoint and region (optional)")
	fmt.Println("  S3_ACCESS_KEY, S3_SECRET_KEY  Static S3 credentials (optional)")
	fmt.Println()
	fmt.Println("EXAMPLES:")
	fmt.Println("  # Extract 1990 only, from NetCDF files")
	fmt.Println("  GRID_FORMAT=netcdf DATE_FROM=199001 DATE_TO=199012 wave-extract")
	fmt.Println()
}
