package ingest

import (
	"sort"

	"github.com/noah-isme/classpulse-api/internal/models"
)

// Classification is the outcome of classifying one event.
type Classification struct {
	Category models.BehaviorCategory
	Absence  bool
	Rule     string
}

// Classifier assigns a category to raw behaviour event types.
type Classifier struct {
	rules []compiledRule
}

type compiledRule struct {
	name      string
	keywords  []string
	category  models.BehaviorCategory
	absence   bool
	exception *compiledJustification
}

type compiledJustification struct {
	typeMarkers     []string
	typeNegations   []string
	negationPhrases []string
	category        models.BehaviorCategory
}

// NewClassifier compiles vocab. Negative rules are always tried before any
// other rule; relative order within each group is preserved.
func NewClassifier(vocab Vocabulary) *Classifier {
	rules := make([]compiledRule, 0, len(vocab.Rules))
	for _, rule := range vocab.Rules {
		compiled := compiledRule{
			name:     rule.Name,
			keywords: normalizeAll(rule.Keywords),
			category: rule.Category,
			absence:  rule.Absence,
		}
		if rule.Exception != nil {
			compiled.exception = &compiledJustification{
				typeMarkers:     normalizeAll(rule.Exception.TypeMarkers),
				typeNegations:   normalizeAll(rule.Exception.TypeNegations),
				negationPhrases: normalizeAll(rule.Exception.NegationPhrases),
				category:        rule.Exception.Category,
			}
		}
		rules = append(rules, compiled)
	}
	sort.SliceStable(rules, func(i, j int) bool {
		return rules[i].category == models.BehaviorNegative && rules[j].category != models.BehaviorNegative
	})
	return &Classifier{rules: rules}
}

// DefaultClassifier uses DefaultVocabulary.
func DefaultClassifier() *Classifier {
	return NewClassifier(DefaultVocabulary())
}

// Classify returns the category for rawType given its justification text.
func (c *Classifier) Classify(rawType, justification string) models.BehaviorCategory {
	return c.Evaluate(rawType, justification).Category
}

// IsAbsence reports whether rawType names an absence, justified or not.
func (c *Classifier) IsAbsence(rawType string) bool {
	return c.absenceRule(Normalize(rawType)) != nil
}

// Evaluate classifies an event and reports the rule that decided it.
// Unrecognised types are neutral.
func (c *Classifier) Evaluate(rawType, justification string) Classification {
	text := Normalize(rawType)
	if text == "" {
		return Classification{Category: models.BehaviorNeutral}
	}

	absence := c.absenceRule(text)
	for _, rule := range c.rules {
		if !containsAny(text, rule.keywords) {
			continue
		}
		result := Classification{Category: rule.category, Absence: absence != nil, Rule: rule.name}
		if rule.category == models.BehaviorNegative && absence != nil && absence.exception != nil {
			if absence.exception.excuses(text, Normalize(justification)) {
				result.Category = absence.exception.category
			}
		}
		return result
	}
	return Classification{Category: models.BehaviorNeutral, Absence: absence != nil}
}

func (c *Classifier) absenceRule(text string) *compiledRule {
	for i := range c.rules {
		if c.rules[i].absence && containsAny(text, c.rules[i].keywords) {
			return &c.rules[i]
		}
	}
	return nil
}

func (j *compiledJustification) excuses(eventType, justification string) bool {
	if containsAny(eventType, j.typeMarkers) && !containsAny(eventType, j.typeNegations) {
		return true
	}
	return justification != "" && !containsAny(justification, j.negationPhrases)
}
