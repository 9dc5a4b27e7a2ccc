package config

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
)

var allKeys = []string{
	"SEARCH_FOLDER", "ISLAND_CENTERS_PATH", "VARIABLES", "OUTPUT_DIR", "GRID_FORMAT",
	"GRIB_PREFIX", "DATE_FROM", "DATE_TO", "SKIP_UNREADABLE", "DATABASE_URL",
	"S3_BUCKET", "S3_PREFIX", "S3_ENDPOINT", "S3_REGION", "S3_ACCESS_KEY", "S3_SECRET_KEY",
	"PORT", "CORS_ALLOWED_ORIGINS", "APP_ENV",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allKeys {
		t.Setenv(k, "") // Restores the original value after the test.
		_ = os.Unsetenv(k)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.SearchFolder != "./data/ww3" || c.OutputDir != "." || c.Port != "8080" {
		t.Errorf("unexpected defaults: %+v", c)
	}
	if !slices.Equal(c.Variables, []string{"dp", "hs", "tp"}) {
		t.Errorf("Variables = %v", c.Variables)
	}
	if c.GridFormat != FormatGRIB || c.GribPrefix != "multi_reanal.glo_30m_ext" {
		t.Errorf("grid settings = %s %s", c.GridFormat, c.GribPrefix)
	}
	if c.SkipUnreadable || c.DateFrom != 0 || c.DateTo != 0 {
		t.Errorf("unexpected policy defaults: %+v", c)
	}
	if c.CORSAllowedOrigins != nil {
		t.Errorf("CORSAllowedOrigins = %v, want nil", c.CORSAllowedOrigins)
	}
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("VARIABLES", " hs , tp ,")
	t.Setenv("GRID_FORMAT", "NetCDF")
	t.Setenv("DATE_FROM", "199001")
	t.Setenv("DATE_TO", "199012")
	t.Setenv("SKIP_UNREADABLE", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !slices.Equal(c.Variables, []string{"hs", "tp"}) {
		t.Errorf("Variables = %v", c.Variables)
	}
	if c.GridFormat != FormatNetCDF {
		t.Errorf("GridFormat = %q", c.GridFormat)
	}
	if c.DateFrom != 199001 || c.DateTo != 199012 || !c.SkipUnreadable {
		t.Errorf("unexpected values: %+v", c)
	}
	if len(c.CORSAllowedOrigins) != 2 || c.CORSAllowedOrigins[1] != "https://b.example" {
		t.Errorf("CORSAllowedOrigins = %v", c.CORSAllowedOrigins)
	}
}

func TestLoadErrors(t *testing.T) {
	cases := map[string]map[string]string{
		"bad format":      {"GRID_FORMAT": "hdf5"},
		"bad date":        {"DATE_FROM": "1990-01"},
		"inverted range":  {"DATE_FROM": "199012", "DATE_TO": "199001"},
		"bad bool":        {"SKIP_UNREADABLE": "maybe"},
		"empty variables": {"VARIABLES": " , "},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Errorf("expected error for %v", env)
			}
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("SEARCH_FOLDER=/srv/ww3\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := LoadDotEnv(path, filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv("SEARCH_FOLDER"); got != "/srv/ww3" {
		t.Errorf("SEARCH_FOLDER = %q, want /srv/ww3", got)
	}
}

func TestLoadDotEnvSkippedInProduction(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "production")
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("OUTPUT_DIR=/tmp/elsewhere\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv("OUTPUT_DIR"); got != "" {
		t.Errorf("OUTPUT_DIR = %q, want unset", got)
	}
}
