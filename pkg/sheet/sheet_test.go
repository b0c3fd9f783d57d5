package sheet

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestForFilename(t *testing.T) {
	r, err := ForFilename("behavior.CSV")
	require.NoError(t, err)
	assert.IsType(t, &CSVReader{}, r)

	r, err = ForFilename("grades.xlsx")
	require.NoError(t, err)
	assert.IsType(t, &XLSXReader{}, r)

	_, err = ForFilename("grades.pdf")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestCSVReaderDetectsDelimiterAndPads(t *testing.T) {
	input := "\xEF\xBB\xBFשם המורה;מקצוע;תאריך\nכהן;מתמטיקה\n"

	grid, err := (&CSVReader{}).Read(strings.NewReader(input))
	require.NoError(t, err)

	require.Len(t, grid, 2)
	assert.Equal(t, 3, grid.Width())
	assert.Equal(t, "שם המורה", grid.Cell(0, 0))
	assert.Equal(t, "מתמטיקה", grid.Cell(1, 1))
	assert.Nil(t, grid.Cell(1, 2))
	assert.Nil(t, grid.Cell(7, 0))
}

func TestCSVReaderToleratesLooseQuotes(t *testing.T) {
	input := "a,b\nאי הכנת ש\"ב,x\n"

	grid, err := (&CSVReader{Delimiter: ','}).Read(strings.NewReader(input))
	require.NoError(t, err)
	assert.Len(t, grid, 2)
}

func TestXLSXReaderReadsFirstSheet(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"ת.ז", "שם התלמיד", "מתמטיקה כהן [01/09/2024 מבחן משקל 2]"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{"123", "דניאל כהן", 90}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	grid, err := (&XLSXReader{}).Read(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	require.Len(t, grid, 2)
	assert.Equal(t, "שם התלמיד", grid.Cell(0, 1))
	assert.Equal(t, "123", grid.Cell(1, 0))
	assert.Equal(t, 90.0, grid.Cell(1, 2))
}

func TestXLSXReaderDecodesDates(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, f.SetCellValue("Sheet1", "B1", 45361))
	require.NoError(t, f.SetCellValue("Sheet1", "C1", 45361))
	custom := "dd/mm/yyyy"
	styleID, err := f.NewStyle(&excelize.Style{CustomNumFmt: &custom})
	require.NoError(t, err)
	require.NoError(t, f.SetCellStyle("Sheet1", "C1", "C1", styleID))
	timeOnly, err := f.NewStyle(&excelize.Style{NumFmt: 20})
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue("Sheet1", "D1", 0.5))
	require.NoError(t, f.SetCellStyle("Sheet1", "D1", "D1", timeOnly))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	grid, err := (&XLSXReader{}).Read(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	want := time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC)
	native, ok := grid.Cell(0, 0).(time.Time)
	require.True(t, ok, "%T", grid.Cell(0, 0))
	assert.True(t, want.Equal(native), native.String())

	assert.Equal(t, 45361.0, grid.Cell(0, 1))

	custom1, ok := grid.Cell(0, 2).(time.Time)
	require.True(t, ok, "%T", grid.Cell(0, 2))
	assert.True(t, want.Equal(custom1), custom1.String())

	assert.Equal(t, 0.5, grid.Cell(0, 3))
}

func TestIsDateFormatCode(t *testing.T) {
	assert.True(t, isDateFormatCode("dd/mm/yyyy"))
	assert.True(t, isDateFormatCode("[$-he-IL]d mmmm yyyy"))
	assert.False(t, isDateFormatCode("hh:mm"))
	assert.False(t, isDateFormatCode(`0.00" days"`))
}

func TestXLSXReaderRejectsGarbage(t *testing.T) {
	_, err := (&XLSXReader{}).Read(strings.NewReader("not a workbook"))
	assert.Error(t, err)
}
