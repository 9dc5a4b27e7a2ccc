// Package main writes synthetic WAVEWATCH III style NetCDF grids and a
// matching island list for local runs of wave-extract and wave-api.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.ngs.io/wave-energy/internal/adapter/store/grib"
	"go.ngs.io/wave-energy/internal/adapter/store/netcdf"
)

// fillValue marks land cells, matching the WW3 placeholder.
const fillValue = 9.999e20

// RegionalGrid defines the geographic bounds and resolution.
// Longitudes are on the 0–360 axis.
type RegionalGrid struct {
	LatMin     float64
	LatMax     float64
	LonMin     float64
	LonMax     float64
	Resolution float64 // degrees
}

func (g RegionalGrid) axes() (lats, lons []float64) {
	nLat := int(math.Round((g.LatMax-g.LatMin)/g.Resolution)) + 1
	nLon := int(math.Round((g.LonMax-g.LonMin)/g.Resolution)) + 1
	// WW3 files run north to south.
	lats = make([]float64, nLat)
	for i := range lats {
		lats[i] = g.LatMax - float64(i)*g.Resolution
	}
	lons = make([]float64, nLon)
	for j := range lons {
		lons[j] = g.LonMin + float64(j)*g.Resolution
	}
	return lats, lons
}

// fieldModel describes how one synthetic field is generated.
type fieldModel struct {
	units string
	value func(lat, lon, hours float64) float64
}

var fields = map[string]fieldModel{
	"hs": {units: "m", value: func(lat, lon, h float64) float64 {
		return 1.5 + 0.8*math.Sin(lat*math.Pi/20) + 0.4*math.Cos(lon*math.Pi/30) + 0.3*math.Sin(h*2*math.Pi/72)
	}},
	"tp": {units: "s", value: func(lat, lon, h float64) float64 {
		return 10 + 2*math.Cos(lat*math.Pi/25) + math.Sin((lat+lon)*math.Pi/40) + 0.5*math.Cos(h*2*math.Pi/96)
	}},
	"dp": {units: "degree", value: func(lat, lon, h float64) float64 {
		d := math.Mod(180+30*math.Sin(lon*math.Pi/45)+10*math.Sin(h*2*math.Pi/48), 360)
		if d < 0 {
			d += 360
		}
		return d
	}},
}

func main() {
	// Command line flags
	outDir := flag.String("out", "./data/ww3", "Output directory for NetCDF files")
	prefix := flag.String("prefix", grib.DefaultPrefix, "File name prefix")
	islandsPath := flag.String("islands", "./data/Island_Centers.csv", "Output path of the island list (empty to skip)")
	from := flag.String("from", "199001", "First month (YYYYMM)")
	months := flag.Int("months", 2, "Number of monthly files per variable")
	step := flag.Int("step", 3, "Hours between time steps")
	latMin := flag.Float64("lat-min", -30.0, "Minimum latitude")
	latMax := flag.Float64("lat-max", 30.0, "Maximum latitude")
	lonMin := flag.Float64("lon-min", 150.0, "Minimum longitude (0-360)")
	lonMax := flag.Float64("lon-max", 250.0, "Maximum longitude (0-360)")
	resolution := flag.Float64("resolution", 0.5, "Grid resolution in degrees")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	start, err := time.Parse("200601", *from)
	if err != nil {
		logger.Error("invalid -from", "value", *from, "error", err)
		os.Exit(1)
	}
	if *months < 1 || *step < 1 || *resolution <= 0 {
		logger.Error("-months, -step and -resolution must be positive")
		os.Exit(1)
	}

	grid := RegionalGrid{
		LatMin:     *latMin,
		LatMax:     *latMax,
		LonMin:     *lonMin,
		LonMax:     *lonMax,
		Resolution: *resolution,
	}
	lats, lons := grid.axes()

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		logger.Error("failed to create output directory", "error", err)
		os.Exit(1)
	}

	logger.Info("generating synthetic wave grids",
		"out", *outDir, "lat", len(lats), "lon", len(lons), "months", *months)

	for m := range *months {
		month := start.AddDate(0, m, 0)
		dateKey := month.Format("200601")
		for _, name := range []string{"dp", "hs", "tp"} {
			g := buildGrid(name, fields[name], lats, lons, month, *step)
			path := filepath.Join(*outDir, fmt.Sprintf("%s.%s.%s.nc", *prefix, name, dateKey))
			if err := netcdf.WriteFile(path, g); err != nil {
				logger.Error("failed to write grid", "path", path, "error", err)
				os.Exit(1)
			}
			logger.Info("wrote grid", "path", path, "steps", len(g.Hours))
		}
	}

	if *islandsPath != "" {
		if err := writeIslands(*islandsPath, grid); err != nil {
			logger.Error("failed to write island list", "error", err)
			os.Exit(1)
		}
		logger.Info("wrote island list", "path", *islandsPath)
	}
}

// buildGrid fills one month of a variable. A band of cells is marked as
// land with the fill value.
func buildGrid(name string, model fieldModel, lats, lons []float64, month time.Time, step int) netcdf.WaveGrid {
	end := month.AddDate(0, 1, 0)
	var hours []float64
	for h := 0; month.Add(time.Duration(h)*time.Hour).Before(end); h += step {
		hours = append(hours, float64(h))
	}

	values := make([]float64, 0, len(hours)*len(lats)*len(lons))
	for _, h := range hours {
		for _, lat := range lats {
			for _, lon := range lons {
				if isLand(lat, lon) {
					values = append(values, fillValue)
					continue
				}
				values = append(values, model.value(lat, lon, h))
			}
		}
	}

	return netcdf.WaveGrid{
		Variable: name,
		Units:    model.units,
		Lats:     lats,
		Lons:     lons,
		Epoch:    month,
		Hours:    hours,
		Values:   values,
		Fill:     fillValue,
	}
}

func isLand(lat, lon float64) bool {
	return math.Sin(lat*math.Pi/7)*math.Cos(lon*math.Pi/11) > 0.97
}

// writeIslands writes a few sample locations inside the grid. The file
// holds longitudes before the +180 shift applied on load.
func writeIslands(path string, g RegionalGrid) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}

	w := csv.NewWriter(file)
	records := [][]string{{"Island", "Latitude", "Longitude"}}
	for i, frac := range []float64{0.25, 0.5, 0.75} {
		lat := g.LatMin + frac*(g.LatMax-g.LatMin)
		lon := g.LonMin + frac*(g.LonMax-g.LonMin) - 180
		records = append(records, []string{
			fmt.Sprintf("Island%d", i+1),
			strconv.FormatFloat(lat, 'f', 3, 64),
			strconv.FormatFloat(lon, 'f', 3, 64),
		})
	}
	if err := w.WriteAll(records); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}
