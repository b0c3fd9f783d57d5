package ingest

import "github.com/noah-isme/classpulse-api/internal/models"

// Justification downgrades a matched negative event when the absence is excused.
type Justification struct {
	// TypeMarkers flag an excused type, unless a TypeNegations phrase is also present.
	TypeMarkers   []string
	TypeNegations []string
	// NegationPhrases in the justification text mean no excuse was given.
	NegationPhrases []string
	Category        models.BehaviorCategory
}

// Rule maps keyword substrings of an event type to a category.
type Rule struct {
	Name      string
	Keywords  []string
	Category  models.BehaviorCategory
	Absence   bool
	Exception *Justification
}

// Vocabulary is an ordered rule table; the first matching rule wins.
type Vocabulary struct {
	Rules []Rule
}

// DefaultVocabulary covers the event types found in Israeli school behaviour exports.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{Rules: []Rule{
		{
			Name:     "absence",
			Keywords: []string{"חיסור", "היעדרות", "העדרות"},
			Category: models.BehaviorNegative,
			Absence:  true,
			Exception: &Justification{
				TypeMarkers:     []string{"מוצדק"},
				TypeNegations:   []string{"לא מוצדק"},
				NegationPhrases: []string{"ללא", "לא מוצדק", "אין הצדקה"},
				Category:        models.BehaviorNeutral,
			},
		},
		{Name: "lateness", Keywords: []string{"איחור"}, Category: models.BehaviorNegative},
		{Name: "disruption", Keywords: []string{"הפרעה"}, Category: models.BehaviorNegative},
		{Name: "missing_homework", Keywords: []string{"אי הכנת"}, Category: models.BehaviorNegative},
		{Name: "missing_equipment", Keywords: []string{"ללא ציוד", "חוסר ציוד", "אי הבאת ציוד"}, Category: models.BehaviorNegative},
		{Name: "defiance", Keywords: []string{"חוצפה", "סירוב", "התחצפות"}, Category: models.BehaviorNegative},
		{Name: "phone", Keywords: []string{"שימוש בטלפון"}, Category: models.BehaviorNegative},
		{Name: "removal", Keywords: []string{"הוצאה מהשיעור", "הוצאה מהכיתה"}, Category: models.BehaviorNegative},
		{Name: "violence", Keywords: []string{"אלימות"}, Category: models.BehaviorNegative},
		{Name: "improper_conduct", Keywords: []string{"התנהגות לא ראויה"}, Category: models.BehaviorNegative},
		{
			Name: "commendation",
			Keywords: []string{
				"מילה טובה", "חיזוק חיובי", "שיפור", "הגעה בזמן", "השתתפות פעילה",
				"הצטיינות", "כל הכבוד", "מחמאה", "התנהגות מופתית", "עזרה לחברים",
			},
			Category: models.BehaviorPositive,
		},
	}}
}
