package models

import "time"

// RiskWeights are stored and returned but not applied by the scoring formula.
type RiskWeights struct {
	Grades         float64 `json:"grades" validate:"gte=0,lte=1"`
	Absences       float64 `json:"absences" validate:"gte=0,lte=1"`
	NegativeEvents float64 `json:"negativeEvents" validate:"gte=0,lte=1"`
}

// RiskSettings configures the risk scoring thresholds. Callers resolve the
// per-class override before handing it to the engine.
type RiskSettings struct {
	MinGradeThreshold               float64     `json:"minGradeThreshold" validate:"gte=0,lte=100"`
	MaxNegativeBehaviors            int         `json:"maxNegativeBehaviors" validate:"gte=0"`
	AttendanceThreshold             int         `json:"attendanceThreshold" validate:"gte=0"`
	RiskScoreHighThreshold          float64     `json:"riskScoreHighThreshold" validate:"gte=1,lte=10"`
	RiskScoreMediumThreshold        float64     `json:"riskScoreMediumThreshold" validate:"gte=1,lte=10,gtefield=RiskScoreHighThreshold"`
	Weights                         RiskWeights `json:"weights"`
	PenaltyPerAbsenceAboveThreshold *float64    `json:"penaltyPerAbsenceAboveThreshold,omitempty" validate:"omitempty,gte=0"`
}

// SettingsScope identifies where a RiskSettings value came from.
type SettingsScope string

const (
	SettingsScopeDefault SettingsScope = "default"
	SettingsScopeGlobal  SettingsScope = "global"
	SettingsScopeClass   SettingsScope = "class"
)

// GlobalSettingsKey is the storage key of the global settings row.
const GlobalSettingsKey = "global"

// StoredRiskSettings is a persisted settings row.
type StoredRiskSettings struct {
	Key       string       `db:"scope_key" json:"key"`
	Settings  RiskSettings `db:"-" json:"settings"`
	Payload   []byte       `db:"payload" json:"-"`
	UpdatedAt time.Time    `db:"updated_at" json:"updatedAt"`
}

// EffectiveRiskSettings reports the resolved settings and their origin.
type EffectiveRiskSettings struct {
	ClassID  string        `json:"classId,omitempty"`
	Scope    SettingsScope `json:"scope"`
	Settings RiskSettings  `json:"settings"`
}
