package repository

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/noah-isme/classpulse-api/internal/models"
)

// MemoryClassRepository keeps class records in process. It backs the API
// when persistence is disabled and the CLI.
type MemoryClassRepository struct {
	mu      sync.RWMutex
	classes map[string]models.Class
	records map[string]*models.ClassRecords
}

// NewMemoryClassRepository constructs an empty store.
func NewMemoryClassRepository() *MemoryClassRepository {
	return &MemoryClassRepository{
		classes: make(map[string]models.Class),
		records: make(map[string]*models.ClassRecords),
	}
}

// EnsureClass registers the class if missing.
func (r *MemoryClassRepository) EnsureClass(_ context.Context, class *models.Class) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	existing, ok := r.classes[class.ID]
	if ok {
		class.CreatedAt = existing.CreatedAt
		if class.Name == "" {
			class.Name = existing.Name
		}
	} else if class.CreatedAt.IsZero() {
		class.CreatedAt = now
	}
	class.UpdatedAt = now
	r.classes[class.ID] = *class
	if _, ok := r.records[class.ID]; !ok {
		r.records[class.ID] = &models.ClassRecords{ClassID: class.ID}
	}
	return nil
}

// FindClass returns a class by id or sql.ErrNoRows.
func (r *MemoryClassRepository) FindClass(_ context.Context, id string) (*models.Class, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	class, ok := r.classes[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &class, nil
}

// ReplaceRecords swaps every grade and event of a class.
func (r *MemoryClassRepository) ReplaceRecords(_ context.Context, records models.ClassRecords) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[records.ClassID] = &models.ClassRecords{
		ClassID: records.ClassID,
		Grades:  append([]models.Grade(nil), records.Grades...),
		Events:  append([]models.BehaviorEvent(nil), records.Events...),
	}
	return nil
}

// Records returns a copy of the class records or sql.ErrNoRows.
func (r *MemoryClassRepository) Records(_ context.Context, classID string) (*models.ClassRecords, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stored, ok := r.records[classID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &models.ClassRecords{
		ClassID: classID,
		Grades:  append([]models.Grade(nil), stored.Grades...),
		Events:  append([]models.BehaviorEvent(nil), stored.Events...),
	}, nil
}

// AddGrade appends a grade to an existing class.
func (r *MemoryClassRepository) AddGrade(_ context.Context, classID string, grade models.Grade) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.records[classID]
	if !ok {
		return sql.ErrNoRows
	}
	stored.Grades = append(stored.Grades, grade)
	return nil
}

// AddEvent appends a behaviour event to an existing class.
func (r *MemoryClassRepository) AddEvent(_ context.Context, classID string, event models.BehaviorEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.records[classID]
	if !ok {
		return sql.ErrNoRows
	}
	stored.Events = append(stored.Events, event)
	return nil
}

// MemorySettingsRepository keeps risk settings in process.
type MemorySettingsRepository struct {
	mu    sync.RWMutex
	items map[string]models.StoredRiskSettings
}

// NewMemorySettingsRepository constructs an empty store.
func NewMemorySettingsRepository() *MemorySettingsRepository {
	return &MemorySettingsRepository{items: make(map[string]models.StoredRiskSettings)}
}

// Get returns the settings stored under key, or sql.ErrNoRows.
func (r *MemorySettingsRepository) Get(_ context.Context, key string) (*models.StoredRiskSettings, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stored, ok := r.items[key]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &stored, nil
}

// Upsert writes settings under stored.Key.
func (r *MemorySettingsRepository) Upsert(_ context.Context, stored *models.StoredRiskSettings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored.UpdatedAt = time.Now().UTC()
	r.items[stored.Key] = *stored
	return nil
}

// Delete removes the settings stored under key.
func (r *MemorySettingsRepository) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, key)
	return nil
}
