package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/classpulse-api/internal/models"
	"github.com/noah-isme/classpulse-api/pkg/config"
	appErrors "github.com/noah-isme/classpulse-api/pkg/errors"
)

// SettingsRepository persists risk settings by scope key.
type SettingsRepository interface {
	Get(ctx context.Context, key string) (*models.StoredRiskSettings, error)
	Upsert(ctx context.Context, stored *models.StoredRiskSettings) error
	Delete(ctx context.Context, key string) error
}

// RiskSettingsFromConfig converts configured defaults into engine settings.
func RiskSettingsFromConfig(cfg config.RiskDefaults) models.RiskSettings {
	settings := models.RiskSettings{
		MinGradeThreshold:        cfg.MinGradeThreshold,
		MaxNegativeBehaviors:     cfg.MaxNegativeBehaviors,
		AttendanceThreshold:      cfg.AttendanceThreshold,
		RiskScoreHighThreshold:   cfg.RiskScoreHighThreshold,
		RiskScoreMediumThreshold: cfg.RiskScoreMediumThreshold,
		Weights: models.RiskWeights{
			Grades:         cfg.WeightGrades,
			Absences:       cfg.WeightAbsences,
			NegativeEvents: cfg.WeightNegativeEvents,
		},
	}
	if cfg.PenaltyPerAbsence > 0 {
		penalty := cfg.PenaltyPerAbsence
		settings.PenaltyPerAbsenceAboveThreshold = &penalty
	}
	return settings
}

// ClassSettingsKey is the storage key of a class override.
func ClassSettingsKey(classID string) string {
	return "class:" + classID
}

// SettingsService resolves and updates risk settings. A class override wins
// over the global settings, which win over the configured defaults.
type SettingsService struct {
	repo      SettingsRepository
	defaults  models.RiskSettings
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSettingsService constructs a SettingsService.
func NewSettingsService(repo SettingsRepository, defaults models.RiskSettings, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *SettingsService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsService{repo: repo, defaults: defaults, cache: cache, validator: validate, logger: logger}
}

// Defaults returns the configured default settings.
func (s *SettingsService) Defaults() models.RiskSettings {
	return s.defaults
}

// Global returns the global settings, or the defaults when none are stored.
func (s *SettingsService) Global(ctx context.Context) (*models.EffectiveRiskSettings, error) {
	stored, err := s.lookup(ctx, models.GlobalSettingsKey)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return &models.EffectiveRiskSettings{Scope: models.SettingsScopeDefault, Settings: s.defaults}, nil
	}
	return &models.EffectiveRiskSettings{Scope: models.SettingsScopeGlobal, Settings: stored.Settings}, nil
}

// Effective resolves the settings that apply to classID.
func (s *SettingsService) Effective(ctx context.Context, classID string) (*models.EffectiveRiskSettings, error) {
	if classID != "" {
		stored, err := s.lookup(ctx, ClassSettingsKey(classID))
		if err != nil {
			return nil, err
		}
		if stored != nil {
			return &models.EffectiveRiskSettings{ClassID: classID, Scope: models.SettingsScopeClass, Settings: stored.Settings}, nil
		}
	}
	global, err := s.Global(ctx)
	if err != nil {
		return nil, err
	}
	global.ClassID = classID
	return global, nil
}

// UpdateGlobal validates and stores the global settings.
func (s *SettingsService) UpdateGlobal(ctx context.Context, settings models.RiskSettings) (*models.EffectiveRiskSettings, error) {
	if err := s.save(ctx, models.GlobalSettingsKey, settings); err != nil {
		return nil, err
	}
	_ = s.cache.InvalidateAll(ctx)
	s.logger.Info("global risk settings updated", zap.Float64("min_grade_threshold", settings.MinGradeThreshold))
	return &models.EffectiveRiskSettings{Scope: models.SettingsScopeGlobal, Settings: settings}, nil
}

// UpdateClass validates and stores a class override.
func (s *SettingsService) UpdateClass(ctx context.Context, classID string, settings models.RiskSettings) (*models.EffectiveRiskSettings, error) {
	if classID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "class id is required")
	}
	if err := s.save(ctx, ClassSettingsKey(classID), settings); err != nil {
		return nil, err
	}
	_ = s.cache.InvalidateClass(ctx, classID)
	s.logger.Info("class risk settings updated", zap.String("class_id", classID))
	return &models.EffectiveRiskSettings{ClassID: classID, Scope: models.SettingsScopeClass, Settings: settings}, nil
}

// DeleteClass removes a class override so the class follows the global settings again.
func (s *SettingsService) DeleteClass(ctx context.Context, classID string) error {
	if err := s.repo.Delete(ctx, ClassSettingsKey(classID)); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete class settings")
	}
	_ = s.cache.InvalidateClass(ctx, classID)
	return nil
}

// Validate checks range constraints, including medium >= high.
func (s *SettingsService) Validate(settings models.RiskSettings) error {
	if err := s.validator.Struct(settings); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInvalidSettings.Code, appErrors.ErrInvalidSettings.Status, "invalid risk settings")
	}
	return nil
}

func (s *SettingsService) save(ctx context.Context, key string, settings models.RiskSettings) error {
	if err := s.Validate(settings); err != nil {
		return err
	}
	if err := s.repo.Upsert(ctx, &models.StoredRiskSettings{Key: key, Settings: settings}); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store risk settings")
	}
	return nil
}

func (s *SettingsService) lookup(ctx context.Context, key string) (*models.StoredRiskSettings, error) {
	stored, err := s.repo.Get(ctx, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load risk settings")
	}
	return stored, nil
}
