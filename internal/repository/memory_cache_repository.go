package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	appErrors "github.com/noah-isme/classpulse-api/pkg/errors"
)

// MemoryCacheRepository is the in-process counterpart of CacheRepository.
// Values are stored JSON-encoded so callers get a fresh copy on every read.
type MemoryCacheRepository struct {
	store *cache.Cache
}

// NewMemoryCacheRepository constructs a cache whose entries default to ttl.
func NewMemoryCacheRepository(ttl time.Duration) *MemoryCacheRepository {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &MemoryCacheRepository{store: cache.New(ttl, 2*ttl)}
}

// Get unmarshals the cached value into dest or returns ErrCacheMiss.
func (r *MemoryCacheRepository) Get(_ context.Context, key string, dest interface{}) error {
	raw, found := r.store.Get(key)
	if !found {
		return appErrors.ErrCacheMiss
	}
	payload, ok := raw.([]byte)
	if !ok {
		r.store.Delete(key)
		return appErrors.ErrCacheMiss
	}
	if err := json.Unmarshal(payload, dest); err != nil {
		return fmt.Errorf("unmarshal cache value for %s: %w", key, err)
	}
	return nil
}

// Set stores value under key. A non-positive ttl uses the cache default.
func (r *MemoryCacheRepository) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value for %s: %w", key, err)
	}
	if ttl <= 0 {
		ttl = cache.DefaultExpiration
	}
	r.store.Set(key, payload, ttl)
	return nil
}

// DeleteByPrefix removes every key starting with prefix.
func (r *MemoryCacheRepository) DeleteByPrefix(_ context.Context, prefix string) error {
	for key := range r.store.Items() {
		if strings.HasPrefix(key, prefix) {
			r.store.Delete(key)
		}
	}
	return nil
}
