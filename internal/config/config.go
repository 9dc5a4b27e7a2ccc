// Package config loads runtime settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Grid file formats.
const (
	FormatGRIB   = "grib"
	FormatNetCDF = "netcdf"
)

// Config holds every setting shared by the CLIs.
type Config struct {
	SearchFolder      string
	IslandCentersPath string
	Variables         []string
	OutputDir         string
	GridFormat        string
	GribPrefix        string
	DateFrom          int // Inclusive; 0 means unbounded.
	DateTo            int
	SkipUnreadable    bool

	DatabaseURL string

	S3Bucket    string
	S3Prefix    string
	S3Endpoint  string
	S3Region    string
	S3AccessKey string
	S3SecretKey string

	Port               string
	CORSAllowedOrigins []string
}

// LoadDotEnv loads a .env file into the environment unless APP_ENV is
// "production". A missing file is not an error.
func LoadDotEnv(paths ...string) error {
	if os.Getenv("APP_ENV") == "production" {
		return nil
	}
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// Load reads the configuration from the environment.
func Load() (Config, error) {
	c := Config{
		SearchFolder:      getEnv("SEARCH_FOLDER", "./data/ww3"),
		IslandCentersPath: getEnv("ISLAND_CENTERS_PATH", "./data/Island_Centers.csv"),
		Variables:         splitList(getEnv("VARIABLES", "dp,hs,tp")),
		OutputDir:         getEnv("OUTPUT_DIR", "."),
		GridFormat:        strings.ToLower(getEnv("GRID_FORMAT", FormatGRIB)),
		GribPrefix:        getEnv("GRIB_PREFIX", "multi_reanal.glo_30m_ext"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		S3Bucket:          os.Getenv("S3_BUCKET"),
		S3Prefix:          os.Getenv("S3_PREFIX"),
		S3Endpoint:        os.Getenv("S3_ENDPOINT"),
		S3Region:          os.Getenv("S3_REGION"),
		S3AccessKey:       os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey:       os.Getenv("S3_SECRET_KEY"),
		Port:              getEnv("PORT", "8080"),
	}

	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		c.CORSAllowedOrigins = splitList(origins)
	}

	switch c.GridFormat {
	case FormatGRIB, FormatNetCDF:
	default:
		return Config{}, fmt.Errorf("GRID_FORMAT must be %q or %q, got %q", FormatGRIB, FormatNetCDF, c.GridFormat)
	}
	if len(c.Variables) == 0 {
		return Config{}, fmt.Errorf("VARIABLES must name at least one variable")
	}

	var err error
	if c.DateFrom, err = getEnvInt("DATE_FROM"); err != nil {
		return Config{}, err
	}
	if c.DateTo, err = getEnvInt("DATE_TO"); err != nil {
		return Config{}, err
	}
	if c.DateFrom != 0 && c.DateTo != 0 && c.DateFrom > c.DateTo {
		return Config{}, fmt.Errorf("DATE_FROM %d is after DATE_TO %d", c.DateFrom, c.DateTo)
	}
	if v := os.Getenv("SKIP_UNREADABLE"); v != "" {
		if c.SkipUnreadable, err = strconv.ParseBool(v); err != nil {
			return Config{}, fmt.Errorf("invalid SKIP_UNREADABLE %q: %w", v, err)
		}
	}

	return c, nil
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
