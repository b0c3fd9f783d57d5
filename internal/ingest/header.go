package ingest

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var weightPattern = regexp.MustCompile(`משקל\s*:?\s*(\d+)`)

// AssignmentColumn is the metadata parsed from one gradebook header cell.
type AssignmentColumn struct {
	Index      int
	Subject    string
	Teacher    string
	Assignment string
	Date       time.Time
	Weight     float64
}

// ParseAssignmentHeader reads headers shaped like
// "<Subject> <Teacher...> [<DD/MM/YYYY> <details> משקל <N>]".
// Missing dates fall back to now; missing or non-positive weights to 1.
func ParseAssignmentHeader(raw string, now time.Time) AssignmentColumn {
	text := strings.Join(strings.Fields(stripFormatChars(raw)), " ")

	head, inner := text, ""
	if open := strings.Index(text, "["); open >= 0 {
		head = text[:open]
		inner = text[open+1:]
		if end := strings.LastIndex(inner, "]"); end >= 0 {
			inner = inner[:end]
		}
	}

	col := AssignmentColumn{Subject: NormalizeSubject(""), Date: DateOnly(now), Weight: 1}
	if tokens := strings.Fields(head); len(tokens) > 0 {
		col.Subject = NormalizeSubject(tokens[0])
		col.Teacher = strings.Join(tokens[1:], " ")
	}

	if date, ok := parseDateString(text); ok {
		col.Date = date
	}
	if match := weightPattern.FindStringSubmatch(text); match != nil {
		if w, err := strconv.Atoi(match[1]); err == nil && w > 0 {
			col.Weight = float64(w)
		}
	}

	label := datePattern.ReplaceAllString(inner, " ")
	label = weightPattern.ReplaceAllString(label, " ")
	col.Assignment = strings.Join(strings.Fields(label), " ")
	if col.Assignment == "" {
		col.Assignment = text
	}
	return col
}
