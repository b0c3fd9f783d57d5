package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classpulse-api/pkg/sheet"
)

func TestSchemaMapperResolvesShuffledHeader(t *testing.T) {
	grid := sheet.FromRows([][]string{
		{"דוח שבועי"},
		{"ת.ז", "שם התלמיד", "תאריך", "שם המורה", "סוג אירוע", "מקצוע", "מספר שיעור", "הערות", "הצדקה"},
	})

	mapping := NewSchemaMapper(BehaviorSchema(0)).Map(grid)

	require.True(t, mapping.HeaderFound)
	assert.Equal(t, 1, mapping.HeaderRow)
	assert.Empty(t, mapping.Warnings)
	assert.Equal(t, 0, mapping.Column(FieldStudentID))
	assert.Equal(t, 1, mapping.Column(FieldStudentName))
	assert.Equal(t, 2, mapping.Column(FieldDate))
	assert.Equal(t, 3, mapping.Column(FieldTeacher))
	assert.Equal(t, 4, mapping.Column(FieldType))
	assert.Equal(t, 5, mapping.Column(FieldSubject))
	assert.Equal(t, 6, mapping.Column(FieldLessonNumber))
	assert.Equal(t, 7, mapping.Column(FieldComment))
	assert.Equal(t, 8, mapping.Column(FieldJustification))
}

func TestSchemaMapperFallsBackWhenHeaderMissing(t *testing.T) {
	grid := sheet.FromRows([][]string{
		{"a", "b", "c"},
		{"1", "2", "3"},
	})

	mapping := NewSchemaMapper(BehaviorSchema(0)).Map(grid)

	assert.False(t, mapping.HeaderFound)
	assert.Equal(t, 0, mapping.HeaderRow)
	assert.Len(t, mapping.Warnings, 9)
	assert.Equal(t, 4, mapping.Column(FieldStudentID))
	assert.Equal(t, 6, mapping.Column(FieldType))
}

func TestSchemaMapperLessonNumberYieldsOnCollision(t *testing.T) {
	header := []any{"שם המורה", "מקצוע שיעור", "תאריך"}

	columns, warnings := NewSchemaMapper(BehaviorSchema(0)).MapHeader(header)

	assert.Equal(t, 1, columns[FieldSubject])
	assert.Equal(t, 3, columns[FieldLessonNumber])

	var lesson *Warning
	for i := range warnings {
		if warnings[i].Field == FieldLessonNumber {
			lesson = &warnings[i]
		}
	}
	require.NotNil(t, lesson)
	assert.Equal(t, 3, lesson.Fallback)
	assert.Contains(t, lesson.Reason, "subject")
}

func TestSchemaMapperSkipsBareSerialMarkerForSubject(t *testing.T) {
	header := []any{"שם המורה", "מס'", "מקצוע"}

	columns, _ := NewSchemaMapper(BehaviorSchema(0)).MapHeader(header)

	assert.Equal(t, 2, columns[FieldSubject])
}

func TestGradesSchemaMapping(t *testing.T) {
	grid := sheet.FromRows([][]string{
		{"", "", ""},
		{"תעודת זהות", "שם התלמיד", "מתמטיקה"},
	})

	mapping := NewSchemaMapper(GradesSchema(0)).Map(grid)

	assert.Equal(t, 1, mapping.HeaderRow)
	assert.Equal(t, 0, mapping.Column(FieldStudentID))
	assert.Equal(t, 1, mapping.Column(FieldStudentName))
	assert.Equal(t, -1, mapping.Column(FieldType))
}
