// Package csvfile writes wide tables as one CSV file per location.
package csvfile

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.ngs.io/wave-energy/internal/domain"
)

// IndexHeader names the timestamp columns that lead every row.
var IndexHeader = []string{"year", "month", "day", "hour"}

// Encode writes table to w. Missing cells are written as empty fields.
func Encode(w io.Writer, table *domain.WideTable) error {
	cw := csv.NewWriter(w)

	header := append(append([]string{}, IndexHeader...), table.Columns...)
	if err := cw.Write(header); err != nil {
		return err
	}

	record := make([]string, len(header))
	for i, ts := range table.Index {
		f := ts.Fields()
		copy(record, f[:])
		for j, col := range table.Columns {
			record[len(IndexHeader)+j] = FormatCell(table.Cell(i, col))
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// FormatCell renders a cell, using the empty string for Missing.
func FormatCell(c domain.Cell) string {
	if !c.Valid {
		return ""
	}
	return strconv.FormatFloat(c.Value, 'f', -1, 64)
}

// FileName returns the output file name for a location.
func FileName(location string) string {
	r := strings.NewReplacer("/", "_", `\`, "_")
	return r.Replace(location) + ".csv"
}

// FileMode is the permission of written CSV files.
const FileMode os.FileMode = 0o644

// Sink writes <dir>/<location>.csv.
type Sink struct {
	dir string
}

// NewSink creates a Sink writing into dir.
func NewSink(dir string) *Sink {
	return &Sink{dir: dir}
}

// Write implements sink.Sink. The file is replaced atomically.
func (s *Sink) Write(_ context.Context, table *domain.WideTable) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(s.dir, FileName(table.Location))
	tmp, err := os.CreateTemp(s.dir, ".wave-*.csv")
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := Encode(tmp, table); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	// CreateTemp opens with 0600; outputs are shared files.
	if err := tmp.Chmod(FileMode); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
