package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/classpulse-api/internal/models"
)

func TestClassifierCategories(t *testing.T) {
	c := DefaultClassifier()

	cases := []struct {
		name          string
		eventType     string
		justification string
		want          models.BehaviorCategory
	}{
		{"unjustified absence", "חיסור", "", models.BehaviorNegative},
		{"absence with reason", "חיסור", "מחלה", models.BehaviorNeutral},
		{"absence explicitly without reason", "חיסור", "ללא הצדקה", models.BehaviorNegative},
		{"absence marked not justified", "חיסור", "לא מוצדק", models.BehaviorNegative},
		{"absence with no-justification phrase", "היעדרות", "אין הצדקה", models.BehaviorNegative},
		{"justified in type", "חיסור מוצדק", "", models.BehaviorNeutral},
		{"not justified in type", "חיסור לא מוצדק", "", models.BehaviorNegative},
		{"lateness", "איחור", "", models.BehaviorNegative},
		{"homework with gershayim", "אי הכנת ש\"ב", "", models.BehaviorNegative},
		{"lateness reason does not excuse", "איחור", "אוטובוס", models.BehaviorNegative},
		{"positive", "מילה טובה", "", models.BehaviorPositive},
		{"improvement", "שיפור בהתנהגות", "", models.BehaviorPositive},
		{"negative wins overlap", "שיפור אחרי הפרעה", "", models.BehaviorNegative},
		{"unknown", "שיחה עם הורים", "", models.BehaviorNeutral},
		{"empty", "", "", models.BehaviorNeutral},
		{"bidi marks", "‏חיסור‎", "", models.BehaviorNegative},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, c.Classify(tc.eventType, tc.justification))
		})
	}
}

func TestClassifierIsAbsence(t *testing.T) {
	c := DefaultClassifier()

	assert.True(t, c.IsAbsence("חיסור"))
	assert.True(t, c.IsAbsence("חיסור מוצדק"))
	assert.True(t, c.IsAbsence("העדרות"))
	assert.False(t, c.IsAbsence("איחור"))
	assert.False(t, c.IsAbsence(""))
}

func TestClassifierEvaluateReportsRule(t *testing.T) {
	c := DefaultClassifier()

	result := c.Evaluate("חיסור", "מחלה")
	assert.Equal(t, models.BehaviorNeutral, result.Category)
	assert.True(t, result.Absence)
	assert.Equal(t, "absence", result.Rule)

	result = c.Evaluate("הוצאה מהכיתה", "")
	assert.Equal(t, "removal", result.Rule)
	assert.False(t, result.Absence)
}

func TestNewClassifierTriesNegativesFirst(t *testing.T) {
	c := NewClassifier(Vocabulary{Rules: []Rule{
		{Name: "praise", Keywords: []string{"טוב"}, Category: models.BehaviorPositive},
		{Name: "bad", Keywords: []string{"לא טוב"}, Category: models.BehaviorNegative},
	}})

	assert.Equal(t, models.BehaviorNegative, c.Classify("לא טוב", ""))
	assert.Equal(t, models.BehaviorPositive, c.Classify("טוב מאוד", ""))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "אי הכנת שב", Normalize("  אי   הכנת ש״ב "))
	assert.Equal(t, "מס שיעור", Normalize("מס' שיעור"))
	assert.Equal(t, "מס שיעור", Normalize("מס׳‏ שיעור"))
	assert.Equal(t, "", Normalize("‎"))
}
