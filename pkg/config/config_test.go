package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func newTestViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

func TestDefaults(t *testing.T) {
	cfg := fromViper(newTestViper())

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, 7, cfg.Snapshot.PastDays)
	assert.Equal(t, 62, cfg.Snapshot.FutureDays)
	assert.Equal(t, time.Minute, cfg.Snapshot.CacheTTL)
	assert.Equal(t, 30*time.Second, cfg.Snapshot.MaxAge)
	assert.Equal(t, SessionBackendMemory, cfg.Session.Backend)
	assert.Equal(t, 12*time.Hour, cfg.Session.TTL)
	assert.Equal(t, 1, cfg.Notifier.Workers)
}

func TestOverridesAndFallbacks(t *testing.T) {
	v := newTestViper()
	v.Set("SESSION_STATE_BACKEND", "REDIS")
	v.Set("SNAPSHOT_CACHE_TTL", "not-a-duration")
	v.Set("SNAPSHOT_WINDOW_FUTURE_DAYS", -3)
	v.Set("ALLOWED_ORIGINS", " https://a.example , ,https://b.example")

	cfg := fromViper(v)

	assert.Equal(t, SessionBackendRedis, cfg.Session.Backend)
	assert.Equal(t, time.Minute, cfg.Snapshot.CacheTTL)
	assert.Equal(t, 62, cfg.Snapshot.FutureDays)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
}

func TestEngineLocation(t *testing.T) {
	assert.Equal(t, time.UTC, EngineConfig{}.Location())
	assert.Equal(t, time.UTC, EngineConfig{Timezone: "Nowhere/Invalid"}.Location())
}
