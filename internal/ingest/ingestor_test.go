package ingest

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classpulse-api/internal/models"
	"github.com/noah-isme/classpulse-api/pkg/sheet"
)

func newTestIngestor() *Ingestor {
	seq := 0
	return NewIngestor(nil, Options{
		Now: func() time.Time { return time.Date(2024, time.June, 1, 9, 0, 0, 0, time.UTC) },
		NewID: func() string {
			seq++
			return fmt.Sprintf("id-%d", seq)
		},
	})
}

func findRecord(t *testing.T, records []models.StudentRecord, id string) models.StudentRecord {
	t.Helper()
	for _, record := range records {
		if record.ID == id {
			return record
		}
	}
	t.Fatalf("student %s not found", id)
	return models.StudentRecord{}
}

func TestIngestSampleData(t *testing.T) {
	behavior, grades := SampleData()

	result := newTestIngestor().Ingest(behavior, grades)

	require.Len(t, result.Students, 3)
	assert.Equal(t, 5, result.Stats.BehaviorRows)
	assert.Equal(t, 2, result.Stats.GradeRows)
	assert.Equal(t, 4, result.Stats.Grades)
	assert.Empty(t, result.Stats.Warnings)

	atRisk := findRecord(t, result.Students, SampleStudentAtRisk)
	assert.Equal(t, "ישראל ישראלי", atRisk.Name)
	require.Len(t, atRisk.Grades, 2)
	assert.Equal(t, "מתמטיקה", atRisk.Grades[0].Subject)
	assert.Equal(t, "כהן יוסי", atRisk.Grades[0].Teacher)
	assert.Equal(t, 80.0, atRisk.Grades[0].Score)
	assert.Equal(t, 3.0, atRisk.Grades[1].Weight)
	require.Len(t, atRisk.BehaviorEvents, 2)
	assert.Equal(t, models.BehaviorNegative, atRisk.BehaviorEvents[0].Category)
	assert.True(t, atRisk.BehaviorEvents[0].Absence)
	assert.Equal(t, 2, atRisk.BehaviorEvents[0].LessonNumber)

	healthy := findRecord(t, result.Students, SampleStudentHealthy)
	require.Len(t, healthy.BehaviorEvents, 2)
	assert.Equal(t, models.BehaviorPositive, healthy.BehaviorEvents[0].Category)
	assert.Equal(t, models.BehaviorNeutral, healthy.BehaviorEvents[1].Category)
	assert.True(t, healthy.BehaviorEvents[1].Absence)

	noGrades := findRecord(t, result.Students, SampleStudentNoGrade)
	assert.Empty(t, noGrades.Grades)
	assert.Len(t, noGrades.BehaviorEvents, 1)
}

func TestIngestSkipsBadRows(t *testing.T) {
	behavior := sheet.FromRows([][]string{
		{"שם המורה", "מקצוע", "תאריך", "מס' שיעור", "ת.ז", "שם התלמיד", "סוג אירוע", "הצדקה", "הערה"},
		{"כהן", "", "01/02/2024", "", "", "ללא ת.ז", "איחור", "", ""},
		{"כהן", "", "לא תאריך", "", "123", "דנה", "איחור", "", ""},
		{"כהן", "5", "01/02/2024", "x", "123", "דנה", "איחור", "", ""},
	})
	grades := sheet.FromRows([][]string{
		{"ת.ז", "שם התלמיד", "היסטוריה לוי [01/02/2024 עבודה]", "ספרות [בוחן משקל 2]"},
		{"", "שורה ריקה", "90", ""},
		{"123", "דנה", "", "לא נבדק"},
		{"456", "רון", "75", "88"},
	})

	result := newTestIngestor().Ingest(behavior, grades)

	assert.Equal(t, 1, result.Stats.BehaviorRows)
	assert.Equal(t, 2, result.Stats.GradeRows)
	assert.Equal(t, 2, result.Stats.Grades)
	assert.Equal(t, 3, result.Stats.SkippedRows)
	assert.Equal(t, 2, result.Stats.BehaviorSkipped)
	assert.Equal(t, 1, result.Stats.GradesSkipped)

	dana := findRecord(t, result.Students, "123")
	require.Len(t, dana.BehaviorEvents, 1)
	assert.Empty(t, dana.Grades)
	assert.Equal(t, models.GeneralSubject, dana.BehaviorEvents[0].Subject)
	assert.Zero(t, dana.BehaviorEvents[0].LessonNumber)

	ron := findRecord(t, result.Students, "456")
	require.Len(t, ron.Grades, 2)
	assert.Equal(t, "ספרות", ron.Grades[1].Subject)
	assert.True(t, time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC).Equal(ron.Grades[1].Date))
}

func TestIngestDropsNonFiniteScores(t *testing.T) {
	grades := sheet.FromRows([][]string{
		{"ת.ז", "שם התלמיד", "מתמטיקה כהן [01/02/2024 מבחן]", "אנגלית לוי [02/02/2024 בוחן]", "ספרות [03/02/2024 עבודה]"},
		{"123", "דנה", "NaN", "80", "Infinity"},
		{"456", "רון", "1e400", "-Inf", "55"},
	})

	result := newTestIngestor().Ingest(nil, grades)

	assert.Equal(t, 2, result.Stats.GradeRows)
	assert.Equal(t, 2, result.Stats.Grades)

	dana := findRecord(t, result.Students, "123")
	require.Len(t, dana.Grades, 1)
	assert.Equal(t, 80.0, dana.Grades[0].Score)
	assert.Equal(t, "אנגלית", dana.Grades[0].Subject)

	ron := findRecord(t, result.Students, "456")
	require.Len(t, ron.Grades, 1)
	assert.Equal(t, 55.0, ron.Grades[0].Score)
}

func TestIngestNilGrids(t *testing.T) {
	result := newTestIngestor().Ingest(nil, nil)

	assert.Empty(t, result.Students)
	assert.Zero(t, result.Stats.SkippedRows)
}

func TestMergeOrdersByDate(t *testing.T) {
	late := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	early := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	records := Merge(
		[]models.BehaviorEvent{{StudentID: "b", Date: late}, {StudentID: "b", Date: early, StudentName: "Bea"}},
		[]models.Grade{{StudentID: "a", StudentName: "Avi", Date: late}, {StudentID: "a", Date: early}},
	)

	require.Len(t, records, 2)
	assert.Equal(t, "a", records[0].ID)
	assert.Equal(t, "Avi", records[0].Name)
	assert.True(t, early.Equal(records[0].Grades[0].Date))
	assert.Equal(t, "Bea", records[1].Name)
	assert.True(t, early.Equal(records[1].BehaviorEvents[0].Date))
}
