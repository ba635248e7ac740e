package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Session state backends.
const (
	SessionBackendMemory = "memory"
	SessionBackendRedis  = "redis"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
	Engine   EngineConfig
	Snapshot SnapshotConfig
	Session  SessionConfig
	Notifier NotifierConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret string
	Issuer string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// EngineConfig holds the studio-wide settings the engine reasons with.
type EngineConfig struct {
	Timezone string
}

// Location resolves the configured studio time zone, falling back to UTC.
func (c EngineConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// SnapshotConfig governs the visibility window and the read-through cache.
type SnapshotConfig struct {
	PastDays     int
	FutureDays   int
	MaxAge       time.Duration
	CacheEnabled bool
	CacheTTL     time.Duration
}

// SessionConfig selects where per-session detector state lives.
type SessionConfig struct {
	Backend string
	TTL     time.Duration
}

// NotifierConfig sizes the extension proposal dispatch queue.
type NotifierConfig struct {
	Workers    int
	Retries    int
	RetryDelay time.Duration
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
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("ENABLE_REDIS"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret: v.GetString("JWT_SECRET"),
		Issuer: v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Engine = EngineConfig{
		Timezone: v.GetString("ENGINE_TIMEZONE"),
	}

	cfg.Snapshot = SnapshotConfig{
		PastDays:     positiveOr(v.GetInt("SNAPSHOT_WINDOW_PAST_DAYS"), 7),
		FutureDays:   positiveOr(v.GetInt("SNAPSHOT_WINDOW_FUTURE_DAYS"), 62),
		MaxAge:       parseDuration(v.GetString("SNAPSHOT_MAX_AGE"), 30*time.Second),
		CacheEnabled: v.GetBool("ENABLE_SNAPSHOT_CACHE"),
		CacheTTL:     parseDuration(v.GetString("SNAPSHOT_CACHE_TTL"), time.Minute),
	}

	backend := strings.ToLower(v.GetString("SESSION_STATE_BACKEND"))
	if backend != SessionBackendRedis {
		backend = SessionBackendMemory
	}
	cfg.Session = SessionConfig{
		Backend: backend,
		TTL:     parseDuration(v.GetString("SESSION_STATE_TTL"), 12*time.Hour),
	}

	cfg.Notifier = NotifierConfig{
		Workers:    positiveOr(v.GetInt("NOTIFIER_WORKERS"), 1),
		Retries:    positiveOr(v.GetInt("NOTIFIER_RETRIES"), 3),
		RetryDelay: parseDuration(v.GetString("NOTIFIER_RETRY_DELAY"), time.Second),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "class_series")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("ENABLE_REDIS", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENGINE_TIMEZONE", "America/Argentina/Buenos_Aires")

	v.SetDefault("SNAPSHOT_WINDOW_PAST_DAYS", 7)
	v.SetDefault("SNAPSHOT_WINDOW_FUTURE_DAYS", 62)
	v.SetDefault("SNAPSHOT_MAX_AGE", "30s")
	v.SetDefault("ENABLE_SNAPSHOT_CACHE", false)
	v.SetDefault("SNAPSHOT_CACHE_TTL", "1m")

	v.SetDefault("SESSION_STATE_BACKEND", SessionBackendMemory)
	v.SetDefault("SESSION_STATE_TTL", "12h")

	v.SetDefault("NOTIFIER_WORKERS", 1)
	v.SetDefault("NOTIFIER_RETRIES", 3)
	v.SetDefault("NOTIFIER_RETRY_DELAY", "1s")
}

func isMissingFile(err error) bool {
	return strings.Contains(err.Error(), "no such file or directory")
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

func positiveOr(value, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return value
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
