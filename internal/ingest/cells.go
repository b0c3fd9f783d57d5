package ingest

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/noah-isme/classpulse-api/internal/models"
)

var datePattern = regexp.MustCompile(`(?:^|\D)(\d{1,2})[./-](\d{1,2})[./-](\d{2,4})(?:\D|$)`)

// CellString coerces a raw cell to trimmed text. Whole floats render without a fraction.
func CellString(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(stripFormatChars(value))
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(value), 'f', -1, 32)
	case int:
		return strconv.Itoa(value)
	case int64:
		return strconv.FormatInt(value, 10)
	case time.Time:
		return value.Format("02/01/2006")
	default:
		return ""
	}
}

// CellNumber reads a numeric cell. Blank, non-numeric and non-finite cells report false.
func CellNumber(v any) (float64, bool) {
	var n float64
	switch value := v.(type) {
	case float64:
		n = value
	case float32:
		n = float64(value)
	case int:
		n = float64(value)
	case int64:
		n = float64(value)
	case string:
		text := strings.TrimSpace(stripFormatChars(value))
		if text == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return 0, false
		}
		n = parsed
	default:
		return 0, false
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

// ParseDate accepts native time values or D/M/YYYY-style strings with '/', '.' or '-'
// separators. Two-digit years are read as 20YY. Anything else fails.
func ParseDate(v any) (time.Time, bool) {
	switch value := v.(type) {
	case time.Time:
		if value.IsZero() {
			return time.Time{}, false
		}
		return DateOnly(value), true
	case string:
		return parseDateString(value)
	default:
		return time.Time{}, false
	}
}

func parseDateString(raw string) (time.Time, bool) {
	match := datePattern.FindStringSubmatch(raw)
	if match == nil {
		return time.Time{}, false
	}
	day, _ := strconv.Atoi(match[1])
	month, _ := strconv.Atoi(match[2])
	year, _ := strconv.Atoi(match[3])
	switch len(match[3]) {
	case 2:
		year += 2000
	case 3:
		return time.Time{}, false
	}
	if month < 1 || month > 12 || day < 1 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, false
	}
	return t, true
}

// DateOnly truncates t to midnight UTC of its own calendar day.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NormalizeSubject maps empty or numeric-only subjects to the general subject.
func NormalizeSubject(raw string) string {
	subject := strings.TrimSpace(raw)
	if subject == "" || isNumeric(subject) {
		return models.GeneralSubject
	}
	return subject
}

func isNumeric(s string) bool {
	_, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return err == nil
}
