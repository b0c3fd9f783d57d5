package sheet

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// Built-in number formats that render a calendar date. Time-only formats are excluded.
var builtinDateFormats = map[int]bool{
	14: true, 15: true, 16: true, 17: true, 22: true,
	27: true, 28: true, 29: true, 30: true, 31: true, 32: true, 33: true, 34: true, 35: true, 36: true,
	50: true, 51: true, 52: true, 53: true, 54: true, 55: true, 56: true, 57: true, 58: true,
}

var formatLiterals = regexp.MustCompile(`"[^"]*"|\[[^\]]*\]|\\.`)

// XLSXReader reads one worksheet of a workbook. An empty Sheet selects the first one.
// Numeric cells come back as float64 and date-formatted cells as time.Time in UTC.
type XLSXReader struct {
	Sheet string
}

// Read implements Reader.
func (x *XLSXReader) Read(r io.Reader) (Grid, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close() //nolint:errcheck

	name := x.Sheet
	if name == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return Grid{}, nil
		}
		name = sheets[0]
	}

	rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", name, err)
	}

	d := &cellDecoder{f: f, sheet: name, dateStyles: map[int]bool{}}
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		d.date1904 = *props.Date1904
	}

	cells := make([][]any, len(rows))
	for i, row := range rows {
		decoded := make([]any, len(row))
		for j, raw := range row {
			value, err := d.decode(i, j, raw)
			if err != nil {
				return nil, err
			}
			decoded[j] = value
		}
		cells[i] = decoded
	}
	return pad(cells), nil
}

type cellDecoder struct {
	f          *excelize.File
	sheet      string
	date1904   bool
	dateStyles map[int]bool
}

func (d *cellDecoder) decode(row, col int, raw string) (any, error) {
	if raw == "" {
		return nil, nil
	}
	axis, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return nil, err
	}
	cellType, err := d.f.GetCellType(d.sheet, axis)
	if err != nil {
		return nil, fmt.Errorf("cell %s type: %w", axis, err)
	}

	switch cellType {
	case excelize.CellTypeDate:
		if t, ok := parseISOCell(raw); ok {
			return t, nil
		}
		return raw, nil
	case excelize.CellTypeUnset, excelize.CellTypeNumber, excelize.CellTypeFormula:
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return raw, nil
		}
		isDate, err := d.isDateStyled(axis)
		if err != nil {
			return nil, err
		}
		if isDate {
			t, err := excelize.ExcelDateToTime(n, d.date1904)
			if err != nil {
				return n, nil
			}
			return t.UTC(), nil
		}
		return n, nil
	default:
		return raw, nil
	}
}

func (d *cellDecoder) isDateStyled(axis string) (bool, error) {
	styleID, err := d.f.GetCellStyle(d.sheet, axis)
	if err != nil {
		return false, fmt.Errorf("cell %s style: %w", axis, err)
	}
	if isDate, ok := d.dateStyles[styleID]; ok {
		return isDate, nil
	}
	style, err := d.f.GetStyle(styleID)
	if err != nil {
		d.dateStyles[styleID] = false
		return false, nil
	}
	isDate := builtinDateFormats[style.NumFmt]
	if style.CustomNumFmt != nil {
		isDate = isDateFormatCode(*style.CustomNumFmt)
	}
	d.dateStyles[styleID] = isDate
	return isDate, nil
}

// isDateFormatCode reports whether a custom number format shows a day or a year.
func isDateFormatCode(code string) bool {
	section := strings.SplitN(code, ";", 2)[0]
	section = strings.ToLower(formatLiterals.ReplaceAllString(section, ""))
	return strings.ContainsAny(section, "dy")
}

func parseISOCell(raw string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
