package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, CacheBackendMemory, cfg.Cache.Backend)
	assert.Equal(t, 10*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 2, cfg.Ingest.AssignmentOffset)
	assert.Equal(t, 70.0, cfg.Risk.MinGradeThreshold)
	assert.Equal(t, 5, cfg.Risk.MaxNegativeBehaviors)
	assert.Equal(t, 3, cfg.Risk.AttendanceThreshold)
	assert.Equal(t, 4.0, cfg.Risk.RiskScoreHighThreshold)
	assert.Equal(t, 7.0, cfg.Risk.RiskScoreMediumThreshold)
	assert.False(t, cfg.Database.Enabled)
	assert.Equal(t, "classpulse-api", cfg.Database.ApplicationName)
	assert.Equal(t, 5*time.Second, cfg.Database.ConnectTimeout)
	assert.Equal(t, "classpulse-api", cfg.Redis.ClientName)
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("CACHE_BACKEND", "Redis")
	t.Setenv("CACHE_TTL", "90s")
	t.Setenv("RISK_MIN_GRADE_THRESHOLD", "55")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, ,http://b.test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, CacheBackendRedis, cfg.Cache.Backend)
	assert.Equal(t, 90*time.Second, cfg.Cache.TTL)
	assert.Equal(t, 55.0, cfg.Risk.MinGradeThreshold)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
}

func TestFromViperSanitisesIngestValues(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("INGEST_ASSIGNMENT_OFFSET", -3)
	v.Set("INGEST_MAX_UPLOAD_BYTES", 0)
	v.Set("CACHE_BACKEND", "off")
	v.Set("CACHE_TTL", "not-a-duration")

	cfg := fromViper(v)

	assert.Equal(t, 0, cfg.Ingest.AssignmentOffset)
	assert.Equal(t, int64(10*1024*1024), cfg.Ingest.MaxUploadBytes)
	assert.Equal(t, CacheBackendNone, cfg.Cache.Backend)
	assert.Equal(t, 10*time.Minute, cfg.Cache.TTL)
}
