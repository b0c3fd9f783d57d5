package ingest

import "github.com/noah-isme/classpulse-api/pkg/sheet"

// Sample student ids used by SampleData.
const (
	SampleStudentAtRisk  = "311111111"
	SampleStudentHealthy = "322222222"
	SampleStudentNoGrade = "333333333"
)

// SampleData returns a small behaviour export and gradebook in the school
// system's layout, for demos and end-to-end checks.
func SampleData() (behavior, grades sheet.Grid) {
	behavior = sheet.FromRows([][]string{
		{"דוח אירועי משמעת", "", "", "", "", "", "", "", ""},
		{"שם המורה", "מקצוע", "תאריך", "מס' שיעור", "ת.ז", "שם התלמיד", "סוג אירוע", "הצדקה", "הערה"},
		{"כהן יוסי", "מתמטיקה", "10/03/2024", "2", SampleStudentAtRisk, "ישראל ישראלי", "חיסור", "ללא הצדקה", ""},
		{"לוי רינה", "אנגלית", "14/03/2024", "4", SampleStudentAtRisk, "ישראל ישראלי", "אי הכנת שיעורי בית", "", "שלישי ברציפות"},
		{"כהן יוסי", "מתמטיקה", "06/03/2024", "1", SampleStudentHealthy, "דניאל כהן", "מילה טובה", "", "עזר לחבר"},
		{"לוי רינה", "אנגלית", "11/03/2024", "3", SampleStudentHealthy, "דניאל כהן", "חיסור", "מחלה", "אישור רופא"},
		{"כהן יוסי", "מתמטיקה", "12/03/2024", "2", SampleStudentNoGrade, "נועה לוי", "השתתפות פעילה", "", ""},
	})
	grades = sheet.FromRows([][]string{
		{"ת.ז", "שם התלמיד", "מתמטיקה כהן יוסי [05/03/2024 מבחן יחידה 1 משקל 1]", "אנגלית לוי רינה [12/03/2024 בוחן משקל 3]"},
		{SampleStudentAtRisk, "ישראל ישראלי", "80", "60"},
		{SampleStudentHealthy, "דניאל כהן", "90", "95"},
	})
	return behavior, grades
}
