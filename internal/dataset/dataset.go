// Package dataset holds the in-memory table the correlation builder reads.
package dataset

import (
	"errors"
	"fmt"

	"go-correlation-report/internal/model"
	"go-correlation-report/pkg/utils"
)

var (
	ErrColumnNotFound = errors.New("column not found")
	ErrNonNumeric     = errors.New("column is not numeric")
)

// Dataset is an ordered header plus rows keyed by column name.
// It is never modified after construction.
type Dataset struct {
	columns []string
	rows    []model.GenericRecord
	index   map[string]int
}

// New builds a Dataset. Rows missing a header column read that cell as
// missing.
func New(columns []string, rows []model.GenericRecord) *Dataset {
	index := make(map[string]int, len(columns))
	cols := make([]string, 0, len(columns))
	for _, c := range columns {
		if _, dup := index[c]; dup {
			continue
		}
		index[c] = len(cols)
		cols = append(cols, c)
	}
	return &Dataset{columns: cols, rows: rows, index: index}
}

// Columns returns a copy of the header in source order.
func (d *Dataset) Columns() []string {
	return append([]string(nil), d.columns...)
}

// Len returns the number of rows.
func (d *Dataset) Len() int { return len(d.rows) }

// Has reports whether the column exists.
func (d *Dataset) Has(name string) bool {
	_, ok := d.index[name]
	return ok
}

// Value returns the raw cell at row i, nil when missing.
func (d *Dataset) Value(i int, name string) interface{} {
	return d.rows[i][name]
}

// Column returns the named column as numbers, one per row, with NaN for
// missing cells. It fails with ErrColumnNotFound for an unknown column and
// ErrNonNumeric when any present cell is not a number.
func (d *Dataset) Column(name string) ([]float64, error) {
	if !d.Has(name) {
		return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
	}

	out := make([]float64, len(d.rows))
	for i, row := range d.rows {
		v, ok := utils.Numeric(row[name])
		if !ok {
			return nil, fmt.Errorf("%w: %q has value %q at row %d", ErrNonNumeric, name, fmt.Sprint(row[name]), i+1)
		}
		out[i] = v
	}
	return out, nil
}
