package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/classpulse-api/internal/models"
)

// SettingsRepository stores risk settings as JSON payloads keyed by scope.
type SettingsRepository struct {
	db *sqlx.DB
}

// NewSettingsRepository constructs the repository.
func NewSettingsRepository(db *sqlx.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get returns the settings stored under key, or sql.ErrNoRows.
func (r *SettingsRepository) Get(ctx context.Context, key string) (*models.StoredRiskSettings, error) {
	const query = `SELECT scope_key, payload, updated_at FROM risk_settings WHERE scope_key = $1`
	var stored models.StoredRiskSettings
	if err := r.db.GetContext(ctx, &stored, query, key); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(stored.Payload, &stored.Settings); err != nil {
		return nil, fmt.Errorf("decode risk settings %s: %w", key, err)
	}
	return &stored, nil
}

// Upsert writes settings under stored.Key.
func (r *SettingsRepository) Upsert(ctx context.Context, stored *models.StoredRiskSettings) error {
	const query = `INSERT INTO risk_settings (scope_key, payload, updated_at)
VALUES (:scope_key, :payload, :updated_at)
ON CONFLICT (scope_key)
DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`
	payload, err := json.Marshal(stored.Settings)
	if err != nil {
		return fmt.Errorf("encode risk settings %s: %w", stored.Key, err)
	}
	stored.Payload = payload
	stored.UpdatedAt = time.Now().UTC()
	if _, err := r.db.NamedExecContext(ctx, query, stored); err != nil {
		return fmt.Errorf("upsert risk settings: %w", err)
	}
	return nil
}

// Delete removes the settings stored under key. Missing keys are not an error.
func (r *SettingsRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM risk_settings WHERE scope_key = $1`, key); err != nil {
		return fmt.Errorf("delete risk settings: %w", err)
	}
	return nil
}
