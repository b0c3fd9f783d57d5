// Package sheet decodes uploaded CSV and XLSX exports into rectangular grids
// of raw cell values.
package sheet

import (
	"errors"
	"io"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned for file extensions no reader handles.
var ErrUnsupportedFormat = errors.New("unsupported sheet format")

// Grid is a rectangular array of raw cells. A cell holds a string, a float64,
// a time.Time or nil.
type Grid [][]any

// Reader decodes one sheet into a Grid.
type Reader interface {
	Read(r io.Reader) (Grid, error)
}

// ForFilename picks a reader based on the file extension.
func ForFilename(name string) (Reader, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".txt":
		return &CSVReader{}, nil
	case ".xlsx", ".xlsm":
		return &XLSXReader{}, nil
	default:
		return nil, ErrUnsupportedFormat
	}
}

// FromRows converts string rows into a Grid, padding short rows with nil.
func FromRows(rows [][]string) Grid {
	cells := make([][]any, len(rows))
	for i, row := range rows {
		values := make([]any, len(row))
		for j, value := range row {
			values[j] = value
		}
		cells[i] = values
	}
	return pad(cells)
}

func pad(rows [][]any) Grid {
	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}
	grid := make(Grid, len(rows))
	for i, row := range rows {
		cells := make([]any, width)
		copy(cells, row)
		grid[i] = cells
	}
	return grid
}

// Width returns the number of columns.
func (g Grid) Width() int {
	if len(g) == 0 {
		return 0
	}
	return len(g[0])
}

// Cell returns the value at row, col or nil when out of range.
func (g Grid) Cell(row, col int) any {
	if row < 0 || row >= len(g) {
		return nil
	}
	return At(g[row], col)
}

// At returns row[col] or nil when col is out of range.
func At(row []any, col int) any {
	if col < 0 || col >= len(row) {
		return nil
	}
	return row[col]
}
