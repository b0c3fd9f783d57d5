package service

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/classpulse-api/internal/models"
	appErrors "github.com/noah-isme/classpulse-api/pkg/errors"
)

// CacheRepository abstracts storage for computed class views.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPrefix(ctx context.Context, prefix string) error
}

// CacheService wraps a CacheRepository with metrics and soft failure.
type CacheService struct {
	repo       CacheRepository
	metrics    *MetricsService
	defaultTTL time.Duration
	logger     *zap.Logger
}

// NewCacheService constructs a cache service. A nil repo disables caching.
func NewCacheService(repo CacheRepository, metrics *MetricsService, defaultTTL time.Duration, logger *zap.Logger) *CacheService {
	if defaultTTL <= 0 {
		defaultTTL = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, defaultTTL: defaultTTL, logger: logger}
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.repo != nil
}

// Get reads key into dest and reports whether the cache was hit.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !s.Enabled() {
		return false, nil
	}
	start := time.Now()
	err := s.repo.Get(ctx, key, dest)
	duration := time.Since(start)
	if err != nil {
		s.metrics.RecordCacheOperation(false, duration)
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return false, nil
		}
		s.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		return false, err
	}
	s.metrics.RecordCacheOperation(true, duration)
	return true, nil
}

// Set stores value under key. A non-positive ttl uses the default.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !s.Enabled() {
		return nil
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	start := time.Now()
	err := s.repo.Set(ctx, key, value, ttl)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
	return err
}

// InvalidateClass drops every cached view of a class.
func (s *CacheService) InvalidateClass(ctx context.Context, classID string) error {
	if !s.Enabled() {
		return nil
	}
	prefix := classKeyPrefix(classID)
	if err := s.repo.DeleteByPrefix(ctx, prefix); err != nil {
		s.logger.Warn("cache invalidate failed", zap.String("prefix", prefix), zap.Error(err))
		return err
	}
	return nil
}

// InvalidateAll drops every cached class view.
func (s *CacheService) InvalidateAll(ctx context.Context) error {
	if !s.Enabled() {
		return nil
	}
	if err := s.repo.DeleteByPrefix(ctx, "class:"); err != nil {
		s.logger.Warn("cache invalidate failed", zap.String("prefix", "class:"), zap.Error(err))
		return err
	}
	return nil
}

// ClassViewKey builds class:<id>:<settings-hash>:<view>[:<range>].
func ClassViewKey(classID string, settings models.RiskSettings, view string, r *models.DateRange) string {
	key := fmt.Sprintf("%s%s:%s", classKeyPrefix(classID), settingsHash(settings), view)
	if r != nil {
		key = fmt.Sprintf("%s:%s_%s", key, r.From.Format("20060102"), r.To.Format("20060102"))
	}
	return key
}

func classKeyPrefix(classID string) string {
	return "class:" + classID + ":"
}

func settingsHash(settings models.RiskSettings) string {
	payload, err := json.Marshal(settings)
	if err != nil {
		return "default"
	}
	sum := sha1.Sum(payload)
	return hex.EncodeToString(sum[:])[:12]
}
