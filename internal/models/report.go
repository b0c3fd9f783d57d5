package models

import "strings"

// ReportFormat enumerates supported export formats.
type ReportFormat string

const (
	ReportFormatCSV ReportFormat = "csv"
	ReportFormatPDF ReportFormat = "pdf"
)

// ParseReportFormat normalises user input; empty input defaults to CSV.
func ParseReportFormat(raw string) ReportFormat {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return ReportFormatCSV
	}
	return ReportFormat(raw)
}

// Valid reports whether f is a supported format.
func (f ReportFormat) Valid() bool {
	return f == ReportFormatCSV || f == ReportFormatPDF
}
