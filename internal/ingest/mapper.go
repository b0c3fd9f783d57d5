package ingest

import (
	"fmt"
	"strings"

	"github.com/noah-isme/classpulse-api/pkg/sheet"
)

// Field names a logical column of an input sheet.
type Field string

const (
	FieldTeacher       Field = "teacher"
	FieldSubject       Field = "subject"
	FieldDate          Field = "date"
	FieldLessonNumber  Field = "lessonNumber"
	FieldStudentID     Field = "studentId"
	FieldStudentName   Field = "studentName"
	FieldType          Field = "type"
	FieldJustification Field = "justification"
	FieldComment       Field = "comment"
)

// FieldRule resolves one field. A header cell matches when it contains any
// keyword and is not one of the excluded exact values.
type FieldRule struct {
	Field    Field
	Keywords []string
	Exclude  []string
	Fallback int
}

// Schema describes how to locate and map one kind of sheet. Fields are
// listed in priority order; later fields lose index collisions.
type Schema struct {
	Name              string
	HeaderLabel       string
	HeaderFallbackRow int
	Fields            []FieldRule
}

// Warning records a field that was not resolved from the header.
type Warning struct {
	Field    Field  `json:"field"`
	Fallback int    `json:"fallback"`
	Reason   string `json:"reason"`
}

// Mapping is the resolved column layout of a sheet.
type Mapping struct {
	HeaderRow   int
	HeaderFound bool
	Columns     map[Field]int
	Warnings    []Warning
}

// Column returns the index for field, or -1 when the schema does not know it.
func (m Mapping) Column(field Field) int {
	if idx, ok := m.Columns[field]; ok {
		return idx
	}
	return -1
}

// BehaviorSchema is the layout of the school system's behaviour export.
func BehaviorSchema(headerFallbackRow int) Schema {
	return Schema{
		Name:              "behavior",
		HeaderLabel:       "שם המורה",
		HeaderFallbackRow: headerFallbackRow,
		Fields: []FieldRule{
			{Field: FieldTeacher, Keywords: []string{"שם המורה", "מורה"}, Fallback: 0},
			{Field: FieldSubject, Keywords: []string{"מקצוע"}, Exclude: []string{"מס'"}, Fallback: 1},
			{Field: FieldDate, Keywords: []string{"תאריך"}, Fallback: 2},
			{Field: FieldStudentID, Keywords: []string{"ת.ז", "תעודת זהות", "מספר זהות", "מס' תלמיד"}, Fallback: 4},
			{Field: FieldStudentName, Keywords: []string{"שם התלמיד", "שם תלמיד"}, Fallback: 5},
			{Field: FieldType, Keywords: []string{"סוג אירוע", "אירוע", "סוג"}, Fallback: 6},
			{Field: FieldJustification, Keywords: []string{"הצדקה", "סיבה", "מוצדק"}, Fallback: 7},
			{Field: FieldComment, Keywords: []string{"הערה", "הערות"}, Fallback: 8},
			{Field: FieldLessonNumber, Keywords: []string{"מספר שיעור", "מס' שיעור", "מס שיעור", "שיעור"}, Fallback: 3},
		},
	}
}

// GradesSchema is the layout of the gradebook export. Assignment columns are
// not part of the schema; they start at a fixed offset.
func GradesSchema(headerFallbackRow int) Schema {
	return Schema{
		Name:              "grades",
		HeaderLabel:       "שם התלמיד",
		HeaderFallbackRow: headerFallbackRow,
		Fields: []FieldRule{
			{Field: FieldStudentID, Keywords: []string{"ת.ז", "תעודת זהות", "מספר זהות"}, Fallback: 0},
			{Field: FieldStudentName, Keywords: []string{"שם התלמיד", "שם תלמיד"}, Fallback: 1},
		},
	}
}

// SchemaMapper resolves a Schema against concrete header rows.
type SchemaMapper struct {
	schema Schema
	label  string
	rules  []compiledField
}

type compiledField struct {
	FieldRule
	keywords []string
	exclude  []string
}

// NewSchemaMapper prepares a mapper for schema.
func NewSchemaMapper(schema Schema) *SchemaMapper {
	rules := make([]compiledField, 0, len(schema.Fields))
	for _, rule := range schema.Fields {
		rules = append(rules, compiledField{
			FieldRule: rule,
			keywords:  normalizeAll(rule.Keywords),
			exclude:   normalizeAll(rule.Exclude),
		})
	}
	return &SchemaMapper{schema: schema, label: Normalize(schema.HeaderLabel), rules: rules}
}

// Schema returns the schema the mapper was built from.
func (m *SchemaMapper) Schema() Schema {
	return m.schema
}

// LocateHeader returns the first row containing the schema's header label.
func (m *SchemaMapper) LocateHeader(grid sheet.Grid) (int, bool) {
	if m.label == "" {
		return m.schema.HeaderFallbackRow, false
	}
	for i, row := range grid {
		for _, cell := range row {
			if strings.Contains(Normalize(CellString(cell)), m.label) {
				return i, true
			}
		}
	}
	return m.schema.HeaderFallbackRow, false
}

// Map locates the header row of grid and resolves every schema field.
func (m *SchemaMapper) Map(grid sheet.Grid) Mapping {
	row, found := m.LocateHeader(grid)
	var header []any
	if row >= 0 && row < len(grid) {
		header = grid[row]
	}
	columns, warnings := m.MapHeader(header)
	return Mapping{
		HeaderRow:   row,
		HeaderFound: found,
		Columns:     columns,
		Warnings:    warnings,
	}
}

// MapHeader resolves fields against a single header row. Fields are
// processed in priority order and never share an index with an earlier one
// unless both ended on their fallback.
func (m *SchemaMapper) MapHeader(header []any) (map[Field]int, []Warning) {
	cells := make([]string, len(header))
	for i, cell := range header {
		cells[i] = Normalize(CellString(cell))
	}

	columns := make(map[Field]int, len(m.rules))
	claimed := make(map[int]Field, len(m.rules))
	var warnings []Warning

	for _, rule := range m.rules {
		idx := matchColumn(cells, rule)
		switch {
		case idx < 0:
			idx = rule.Fallback
			warnings = append(warnings, Warning{Field: rule.Field, Fallback: idx, Reason: "no matching header"})
		default:
			if owner, taken := claimed[idx]; taken {
				warnings = append(warnings, Warning{
					Field:    rule.Field,
					Fallback: rule.Fallback,
					Reason:   fmt.Sprintf("column %d already mapped to %s", idx, owner),
				})
				idx = rule.Fallback
			}
		}
		columns[rule.Field] = idx
		if _, taken := claimed[idx]; !taken {
			claimed[idx] = rule.Field
		}
	}
	return columns, warnings
}

func matchColumn(cells []string, rule compiledField) int {
	for i, cell := range cells {
		if cell == "" || isExcluded(cell, rule.exclude) {
			continue
		}
		if containsAny(cell, rule.keywords) {
			return i
		}
	}
	return -1
}

func isExcluded(cell string, exclude []string) bool {
	for _, value := range exclude {
		if cell == value {
			return true
		}
	}
	return false
}
