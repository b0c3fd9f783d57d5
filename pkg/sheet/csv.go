package sheet

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVReader reads delimited text. A zero Delimiter is detected from the first line.
type CSVReader struct {
	Delimiter rune
}

// Read implements Reader.
func (c *CSVReader) Read(r io.Reader) (Grid, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	raw = bytes.TrimPrefix(raw, utf8BOM)

	delimiter := c.Delimiter
	if delimiter == 0 {
		delimiter = detectDelimiter(raw)
	}

	reader := csv.NewReader(bytes.NewReader(raw))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return FromRows(rows), nil
}

func detectDelimiter(raw []byte) rune {
	scanner := bufio.NewScanner(bytes.NewReader(raw))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	if !scanner.Scan() {
		return ','
	}
	line := scanner.Text()
	best, bestCount := ',', 0
	for _, candidate := range []rune{',', ';', '\t'} {
		count := 0
		for _, ch := range line {
			if ch == candidate {
				count++
			}
		}
		if count > bestCount {
			best, bestCount = candidate, count
		}
	}
	return best
}
