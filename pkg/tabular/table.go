// Package tabular holds the column-named numeric tables that move between
// CSV files, the emulator service API and the prediction outputs.
package tabular

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

var (
	ErrEmptyTable   = errors.New("tabular: table has no columns")
	ErrNoHeader     = errors.New("tabular: missing header row")
	ErrColumnExists = errors.New("tabular: duplicate column name")
)

// Table is a rectangular, all-numeric table with named columns.
// Rows are stored row-major; every row has exactly len(Columns) cells.
type Table struct {
	Columns []string    `json:"columns"`
	Rows    [][]float64 `json:"rows"`
}

// New builds a table from columns and rows, validating shape.
func New(columns []string, rows [][]float64) (*Table, error) {
	t := &Table{Columns: columns, Rows: rows}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Table) NumRows() int { return len(t.Rows) }
func (t *Table) NumCols() int { return len(t.Columns) }

// Validate checks the table invariants: at least one named column, unique
// column names, rectangular rows, finite values.
func (t *Table) Validate() error {
	if len(t.Columns) == 0 {
		return ErrEmptyTable
	}
	seen := make(map[string]bool, len(t.Columns))
	for _, col := range t.Columns {
		if strings.TrimSpace(col) == "" {
			return fmt.Errorf("tabular: blank column name")
		}
		if seen[col] {
			return fmt.Errorf("%w: %q", ErrColumnExists, col)
		}
		seen[col] = true
	}
	for i, row := range t.Rows {
		if len(row) != len(t.Columns) {
			return fmt.Errorf("tabular: row %d has %d cells, want %d", i, len(row), len(t.Columns))
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("tabular: row %d column %q is not finite", i, t.Columns[j])
			}
		}
	}
	return nil
}

// ColumnIndex returns the position of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, col := range t.Columns {
		if col == name {
			return i
		}
	}
	return -1
}

// Column returns a copy of the named column's values.
func (t *Table) Column(name string) ([]float64, error) {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return nil, fmt.Errorf("tabular: column %q not found", name)
	}
	vals := make([]float64, len(t.Rows))
	for i, row := range t.Rows {
		vals[i] = row[idx]
	}
	return vals, nil
}

// Select projects the table onto the named columns, preserving row order.
func (t *Table) Select(names ...string) (*Table, error) {
	idx := make([]int, len(names))
	for i, name := range names {
		j := t.ColumnIndex(name)
		if j < 0 {
			return nil, fmt.Errorf("tabular: column %q not found", name)
		}
		idx[i] = j
	}
	out := &Table{
		Columns: append([]string(nil), names...),
		Rows:    make([][]float64, len(t.Rows)),
	}
	for i, row := range t.Rows {
		picked := make([]float64, len(idx))
		for k, j := range idx {
			picked[k] = row[j]
		}
		out.Rows[i] = picked
	}
	return out, nil
}

// AppendRow adds one row; the cell count must match the column count.
func (t *Table) AppendRow(vals ...float64) error {
	if len(vals) != len(t.Columns) {
		return fmt.Errorf("tabular: row has %d cells, want %d", len(vals), len(t.Columns))
	}
	t.Rows = append(t.Rows, append([]float64(nil), vals...))
	return nil
}

// ReadCSV parses a CSV stream with a header row into a table. Every cell
// must parse as a finite float64.
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("tabular: read header: %w", err)
	}
	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = strings.TrimSpace(h)
	}

	t := &Table{Columns: columns}
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("tabular: line %d: %w", line, err)
		}
		row := make([]float64, len(record))
		for j, cell := range record {
			v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				return nil, fmt.Errorf("tabular: line %d column %q: not a number: %q", line, columns[j], cell)
			}
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("tabular: line %d column %q: not finite: %q", line, columns[j], cell)
			}
			row[j] = v
		}
		t.Rows = append(t.Rows, row)
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// ReadFile parses a CSV file into a table.
func ReadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("tabular: open %s: %w", path, err)
	}
	defer f.Close()
	return ReadCSV(f)
}

// WriteCSV writes the table as CSV with a header row.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return fmt.Errorf("tabular: write header: %w", err)
	}
	record := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for j, v := range row {
			record[j] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("tabular: write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFile writes the table as CSV to a file.
func (t *Table) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("tabular: create %s: %w", path, err)
	}
	if err := t.WriteCSV(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Bytes returns the CSV encoding of the table.
func (t *Table) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := t.WriteCSV(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// String returns the CSV encoding, or an empty string for malformed tables.
func (t *Table) String() string {
	b, err := t.Bytes()
	if err != nil {
		return ""
	}
	return string(b)
}
