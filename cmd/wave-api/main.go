// Package main provides the wave energy HTTP API server.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"go.ngs.io/wave-energy/internal/adapter/store"
	"go.ngs.io/wave-energy/internal/adapter/store/csv"
	"go.ngs.io/wave-energy/internal/adapter/store/grib"
	"go.ngs.io/wave-energy/internal/adapter/store/netcdf"
	"go.ngs.io/wave-energy/internal/config"
	httpHandler "go.ngs.io/wave-energy/internal/http"
	"go.ngs.io/wave-energy/internal/usecase"
)

const version = "0.1.0"

func main() {
	// Parse command-line flags.
	showHelp := flag.Bool("help", false, "Show usage information")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showHelp {
		printUsage()
		return
	}

	if *showVersion {
		fmt.Printf("wave-api version %s\n", version)
		return
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	// Load configuration from environment.
	if err := config.LoadDotEnv(); err != nil {
		logger.Error("failed to load .env", "error", err)
		os.Exit(1)
	}
	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logger.Info("starting wave energy API server",
		"port", cfg.Port,
		"search_folder", cfg.SearchFolder,
		"island_centers", cfg.IslandCentersPath,
		"grid_format", cfg.GridFormat)

	// Requests never write to sinks; they return the table directly.
	energyUC := usecase.NewExtractionUseCase(
		csv.NewLocationStore(cfg.IslandCentersPath),
		gridSource(cfg),
		nil,
		usecase.ExtractionOptions{
			SearchFolder:   cfg.SearchFolder,
			Variables:      cfg.Variables,
			SkipUnreadable: cfg.SkipUnreadable,
		},
		logger,
	)

	router := httpHandler.SetupRouter(energyUC, cfg.CORSAllowedOrigins)

	addr := fmt.Sprintf(":%s", cfg.Port)
	logger.Info("server listening", "addr", addr,
		"health", fmt.Sprintf("http://localhost:%s/health", cfg.Port))

	if err := router.Run(addr); err != nil {
		logger.Error("failed to start server", "error", err)
		os.Exit(1)
	}
}

func gridSource(cfg config.Config) store.GridSource {
	if cfg.GridFormat == config.FormatNetCDF {
		return netcdf.NewSource(cfg.SearchFolder, cfg.GribPrefix)
	}
	return grib.NewSource(cfg.SearchFolder, cfg.GribPrefix)
}

// printUsage prints usage information.
func printUsage() {
	fmt.Printf("Wave Energy API Server v%s\n\n", version)
	fmt.Println("USAGE:")
	fmt.Println("  wave-api [flags]")
	fmt.Println()
	fmt.Println("FLAGS:")
	fmt.Println("  -help          Show this help message")
	fmt.Println("  -version       Show version information")
	fmt.Println()
	fmt.Println("ENVIRONMENT VARIABLES:")
	fmt.Println("  PORT                    Server port (default: 8080)")
	fmt.Println("  CORS_ALLOWED_ORIGINS    Comma-separated list of allowed origins (default: all origins)")
	fmt.Println("  SEARCH_FOLDER           Directory of WAVEWATCH III grid files (default: ./data/ww3)")
	fmt.Println("  ISLAND_CENTERS_PATH     CSV with Island,Latitude,Longitude columns (default: ./data/Island_Centers.csv)")
	fmt.Println("  VARIABLES               Comma-separated variables (default: dp,hs,tp)")
	fmt.Println("  GRID_FORMAT             grib or netcdf (default: grib)")
	fmt.Println("  GRIB_PREFIX             File name prefix (default: multi_reanal.glo_30m_ext)")
	fmt.Println("  SKIP_UNREADABLE         Skip unreadable grid files (default: false)")
	fmt.Println()
	fmt.Println("API ENDPOINTS:")
	fmt.Println("  GET /health                           Health check")
	fmt.Println("  GET /v1/locations                     List locations")
	fmt.Println("  GET /v1/dates                         List date keys found in SEARCH_FOLDER")
	fmt.Println("  GET /v1/locations/:name/energy        Energy table (?from=YYYYMM&to=YYYYMM)")
	fmt.Println()
}
