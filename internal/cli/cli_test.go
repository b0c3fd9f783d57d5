package cli

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classpulse-api/internal/ingest"
	"github.com/noah-isme/classpulse-api/pkg/sheet"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCommand(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeGrid(t *testing.T, dir, name string, grid sheet.Grid) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	w := csv.NewWriter(f)
	for _, row := range grid {
		record := make([]string, len(row))
		for i, cell := range row {
			if cell != nil {
				record[i] = fmt.Sprint(cell)
			}
		}
		require.NoError(t, w.Write(record))
	}
	w.Flush()
	require.NoError(t, w.Error())
	return path
}

func TestSampleCommand(t *testing.T) {
	out, err := run(t, "sample")
	require.NoError(t, err)

	var analysis Analysis
	require.NoError(t, json.Unmarshal([]byte(out), &analysis))
	assert.Equal(t, 3, analysis.Summary.StudentCount)
	assert.Equal(t, 1, analysis.Summary.HighRisk)
	require.NotEmpty(t, analysis.Students)
	assert.Equal(t, ingest.SampleStudentAtRisk, analysis.Students[0].ID)
	require.NotNil(t, analysis.Summary.Period)
}

func TestAnalyzeCommand(t *testing.T) {
	dir := t.TempDir()
	behavior, grades := ingest.SampleData()
	behaviorPath := writeGrid(t, dir, "behavior.csv", behavior)
	gradesPath := writeGrid(t, dir, "grades.csv", grades)

	out, err := run(t, "analyze", "--behavior", behaviorPath, "--grades", gradesPath, "--min-grade", "50")
	require.NoError(t, err)
	var analysis Analysis
	require.NoError(t, json.Unmarshal([]byte(out), &analysis))
	assert.Equal(t, 50.0, analysis.Settings.MinGradeThreshold)
	assert.Len(t, analysis.Students, 3)

	out, err = run(t, "analyze", "--behavior", behaviorPath, "--grades", gradesPath, "--format", "csv", "--class", "7b")
	require.NoError(t, err)
	assert.Contains(t, out, "Student ID")
	assert.Equal(t, 4, strings.Count(strings.TrimSpace(out), "\n")+1)

	reportPath := filepath.Join(dir, "report.pdf")
	_, err = run(t, "analyze", "--grades", gradesPath, "--format", "pdf", "-o", reportPath)
	require.NoError(t, err)
	data, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")))

	out, err = run(t, "analyze", "--behavior", behaviorPath, "--from", "2024-03-10", "--to", "2024-03-31")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &analysis))
	for _, student := range analysis.Students {
		for _, e := range student.BehaviorEvents {
			assert.False(t, e.Date.Day() < 10)
		}
	}
}

func TestAnalyzeCommandErrors(t *testing.T) {
	dir := t.TempDir()
	behavior, _ := ingest.SampleData()
	behaviorPath := writeGrid(t, dir, "behavior.csv", behavior)

	_, err := run(t, "analyze")
	require.Error(t, err)

	_, err = run(t, "analyze", "--behavior", filepath.Join(dir, "events.docx"))
	require.Error(t, err)

	_, err = run(t, "analyze", "--behavior", behaviorPath, "--format", "xml")
	require.Error(t, err)

	_, err = run(t, "analyze", "--behavior", behaviorPath, "--from", "2024-03-10")
	require.Error(t, err)

	_, err = run(t, "analyze", "--behavior", behaviorPath, "--high-threshold", "9")
	require.Error(t, err)

	empty := writeGrid(t, dir, "empty.csv", sheet.FromRows([][]string{{"a", "b"}}))
	_, err = run(t, "analyze", "--behavior", empty)
	require.Error(t, err)
}

func TestTokenCommand(t *testing.T) {
	out, err := run(t, "token", "--user", "admin-1", "--role", "admin")
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(strings.TrimSpace(out), "."))

	_, err = run(t, "token", "--role", "student")
	require.Error(t, err)
}
