package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Cache backends understood by CacheConfig.Backend.
const (
	CacheBackendRedis  = "redis"
	CacheBackendMemory = "memory"
	CacheBackendNone   = "none"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	Cache    CacheConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
	Ingest   IngestConfig
	Export   ExportConfig
	Risk     RiskDefaults
}

type DatabaseConfig struct {
	Enabled      bool
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int

	ApplicationName string
	ConnectTimeout  time.Duration
}

type RedisConfig struct {
	Host       string
	Port       int
	Password   string
	DB         int
	ClientName string
}

// CacheConfig selects where computed class views are cached.
type CacheConfig struct {
	Backend string
	TTL     time.Duration
}

// JWTConfig verifies tokens minted by the external auth provider.
type JWTConfig struct {
	Enabled bool
	Secret  string
	Issuer  string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// IngestConfig tunes spreadsheet ingestion.
type IngestConfig struct {
	BehaviorHeaderRow int
	GradesHeaderRow   int
	AssignmentOffset  int
	MaxUploadBytes    int64
}

// ExportConfig tunes rendered reports.
type ExportConfig struct {
	PDFFontPath string
}

// RiskDefaults are the global risk settings used when nothing is persisted.
type RiskDefaults struct {
	MinGradeThreshold        float64
	MaxNegativeBehaviors     int
	AttendanceThreshold      int
	RiskScoreHighThreshold   float64
	RiskScoreMediumThreshold float64
	WeightGrades             float64
	WeightAbsences           float64
	WeightNegativeEvents     float64
	PenaltyPerAbsence        float64
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Enabled:         v.GetBool("ENABLE_PERSISTENCE"),
		Host:            v.GetString("DB_HOST"),
		Port:            v.GetInt("DB_PORT"),
		User:            v.GetString("DB_USER"),
		Password:        v.GetString("DB_PASSWORD"),
		Name:            v.GetString("DB_NAME"),
		SSLMode:         v.GetString("DB_SSL_MODE"),
		MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
		ApplicationName: v.GetString("DB_APPLICATION_NAME"),
		ConnectTimeout:  parseDuration(v.GetString("DB_CONNECT_TIMEOUT"), 5*time.Second),
	}

	cfg.Redis = RedisConfig{
		Host:       v.GetString("REDIS_HOST"),
		Port:       v.GetInt("REDIS_PORT"),
		Password:   v.GetString("REDIS_PASSWORD"),
		DB:         v.GetInt("REDIS_DB"),
		ClientName: v.GetString("REDIS_CLIENT_NAME"),
	}

	cfg.Cache = CacheConfig{
		Backend: normaliseBackend(v.GetString("CACHE_BACKEND")),
		TTL:     parseDuration(v.GetString("CACHE_TTL"), 10*time.Minute),
	}

	cfg.JWT = JWTConfig{
		Enabled: v.GetBool("ENABLE_AUTH"),
		Secret:  v.GetString("JWT_SECRET"),
		Issuer:  v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	maxUpload := v.GetInt64("INGEST_MAX_UPLOAD_BYTES")
	if maxUpload <= 0 {
		maxUpload = 10 * 1024 * 1024
	}
	cfg.Ingest = IngestConfig{
		BehaviorHeaderRow: nonNegative(v.GetInt("INGEST_BEHAVIOR_HEADER_ROW")),
		GradesHeaderRow:   nonNegative(v.GetInt("INGEST_GRADES_HEADER_ROW")),
		AssignmentOffset:  nonNegative(v.GetInt("INGEST_ASSIGNMENT_OFFSET")),
		MaxUploadBytes:    maxUpload,
	}

	cfg.Export = ExportConfig{PDFFontPath: v.GetString("EXPORT_PDF_FONT_PATH")}

	cfg.Risk = RiskDefaults{
		MinGradeThreshold:        v.GetFloat64("RISK_MIN_GRADE_THRESHOLD"),
		MaxNegativeBehaviors:     v.GetInt("RISK_MAX_NEGATIVE_BEHAVIORS"),
		AttendanceThreshold:      v.GetInt("RISK_ATTENDANCE_THRESHOLD"),
		RiskScoreHighThreshold:   v.GetFloat64("RISK_SCORE_HIGH_THRESHOLD"),
		RiskScoreMediumThreshold: v.GetFloat64("RISK_SCORE_MEDIUM_THRESHOLD"),
		WeightGrades:             v.GetFloat64("RISK_WEIGHT_GRADES"),
		WeightAbsences:           v.GetFloat64("RISK_WEIGHT_ABSENCES"),
		WeightNegativeEvents:     v.GetFloat64("RISK_WEIGHT_NEGATIVE_EVENTS"),
		PenaltyPerAbsence:        v.GetFloat64("RISK_PENALTY_PER_ABSENCE"),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("ENABLE_PERSISTENCE", false)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "classpulse")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_APPLICATION_NAME", "classpulse-api")
	v.SetDefault("DB_CONNECT_TIMEOUT", "5s")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_CLIENT_NAME", "classpulse-api")

	v.SetDefault("CACHE_BACKEND", CacheBackendMemory)
	v.SetDefault("CACHE_TTL", "10m")

	v.SetDefault("ENABLE_AUTH", false)
	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("INGEST_BEHAVIOR_HEADER_ROW", 0)
	v.SetDefault("INGEST_GRADES_HEADER_ROW", 0)
	v.SetDefault("INGEST_ASSIGNMENT_OFFSET", 2)
	v.SetDefault("INGEST_MAX_UPLOAD_BYTES", 10*1024*1024)

	v.SetDefault("EXPORT_PDF_FONT_PATH", "")

	v.SetDefault("RISK_MIN_GRADE_THRESHOLD", 70)
	v.SetDefault("RISK_MAX_NEGATIVE_BEHAVIORS", 5)
	v.SetDefault("RISK_ATTENDANCE_THRESHOLD", 3)
	v.SetDefault("RISK_SCORE_HIGH_THRESHOLD", 4)
	v.SetDefault("RISK_SCORE_MEDIUM_THRESHOLD", 7)
	v.SetDefault("RISK_WEIGHT_GRADES", 0.5)
	v.SetDefault("RISK_WEIGHT_ABSENCES", 0.25)
	v.SetDefault("RISK_WEIGHT_NEGATIVE_EVENTS", 0.25)
	v.SetDefault("RISK_PENALTY_PER_ABSENCE", 0)
}

func isMissingFile(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}

func normaliseBackend(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case CacheBackendRedis:
		return CacheBackendRedis
	case CacheBackendNone, "off", "disabled":
		return CacheBackendNone
	default:
		return CacheBackendMemory
	}
}

func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
