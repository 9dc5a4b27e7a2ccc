package domain

import (
	"fmt"
	"slices"
	"sort"
)

// Cell is one wide-table value. The zero Cell is the missing marker.
type Cell struct {
	Value float64
	Valid bool
}

// Missing is the explicit missing-value marker.
var Missing = Cell{}

// NewCell wraps v, mapping no-data placeholders to Missing.
func NewCell(v float64) Cell {
	if IsPlaceholder(v) {
		return Missing
	}
	return Cell{Value: v, Valid: true}
}

// WideTable is a per-location table indexed by timestamp with one column per variable.
type WideTable struct {
	Location string
	Index    []Timestamp // Unique, ascending.
	Columns  []string    // Output order.
	cells    map[string][]Cell
}

// NewWideTable creates a table with the given index and no columns.
func NewWideTable(location string, index []Timestamp) *WideTable {
	return &WideTable{
		Location: location,
		Index:    index,
		cells:    make(map[string][]Cell),
	}
}

// Len returns the number of rows.
func (w *WideTable) Len() int {
	return len(w.Index)
}

// Column returns the cells of a column.
func (w *WideTable) Column(name string) ([]Cell, bool) {
	c, ok := w.cells[name]
	return c, ok
}

// Cell returns the cell at row for column, or Missing if the column does not exist.
func (w *WideTable) Cell(row int, column string) Cell {
	c, ok := w.cells[column]
	if !ok || row < 0 || row >= len(c) {
		return Missing
	}
	return c[row]
}

// SetColumn adds a column, or replaces it in place if it already exists.
func (w *WideTable) SetColumn(name string, cells []Cell) error {
	if len(cells) != len(w.Index) {
		return fmt.Errorf("column %s has %d cells, table has %d rows", name, len(cells), len(w.Index))
	}
	if _, ok := w.cells[name]; !ok {
		w.Columns = append(w.Columns, name)
	}
	w.cells[name] = cells
	return nil
}

// EnsureColumns appends an all-missing column for every name not yet present.
func (w *WideTable) EnsureColumns(names ...string) {
	for _, name := range names {
		if _, ok := w.cells[name]; ok {
			continue
		}
		_ = w.SetColumn(name, make([]Cell, len(w.Index)))
	}
}

// Melt converts the table back to long format, skipping missing cells.
// Rows are produced in index order, columns in column order.
func (w *WideTable) Melt() []Sample {
	samples := make([]Sample, 0, len(w.Index)*len(w.Columns))
	for i, ts := range w.Index {
		for _, col := range w.Columns {
			c := w.cells[col][i]
			if !c.Valid {
				continue
			}
			samples = append(samples, Sample{
				Location: w.Location,
				Time:     ts,
				Variable: col,
				Value:    c.Value,
			})
		}
	}
	return samples
}

type cellKey struct {
	ts       Timestamp
	variable string
}

// Reshape pivots the rows of table belonging to location into a wide table.
//
// The index is the distinct set of timestamps in ascending order and the
// columns are the distinct variables in alphabetical order. When several
// samples share a (timestamp, variable) the cell holds their minimum.
// Placeholder values never win the minimum; a cell with no numeric sample
// is Missing.
func Reshape(table *SampleTable, location string) *WideTable {
	acc := make(map[cellKey]Cell)
	seenTS := make(map[Timestamp]bool)
	seenVar := make(map[string]bool)
	var index []Timestamp
	var columns []string

	for _, s := range table.Rows() {
		if s.Location != location {
			continue
		}
		if !seenTS[s.Time] {
			seenTS[s.Time] = true
			index = append(index, s.Time)
		}
		if !seenVar[s.Variable] {
			seenVar[s.Variable] = true
			columns = append(columns, s.Variable)
		}

		k := cellKey{ts: s.Time, variable: s.Variable}
		c := NewCell(s.Value)
		prev, ok := acc[k]
		switch {
		case !ok:
			acc[k] = c
		case !c.Valid:
			// Keep whatever is already there.
		case !prev.Valid || c.Value < prev.Value:
			acc[k] = c
		}
	}

	sort.Slice(index, func(i, j int) bool { return index[i].Before(index[j]) })
	slices.Sort(columns)

	wide := NewWideTable(location, index)
	for _, col := range columns {
		cells := make([]Cell, len(index))
		for i, ts := range index {
			cells[i] = acc[cellKey{ts: ts, variable: col}]
		}
		_ = wide.SetColumn(col, cells)
	}
	return wide
}
