package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	cfg := fromViper(v)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.True(t, cfg.Scheduler.Enabled)
	assert.Equal(t, 15*time.Minute, cfg.Scheduler.CacheTTL)
	assert.Equal(t, time.Hour, cfg.Scheduler.RunRetention)
	assert.Equal(t, 2, cfg.Scheduler.Workers)
	assert.Equal(t, 6, cfg.Scheduler.Defaults.MaxDailyHours)
	assert.Equal(t, 8, cfg.Scheduler.Defaults.PreferredStartTime)
	assert.Equal(t, 18, cfg.Scheduler.Defaults.PreferredEndTime)
	assert.True(t, cfg.Scheduler.Defaults.RespectCreditHours)
	assert.Nil(t, cfg.CORS.AllowedOrigins)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("SCHEDULER_DEFAULT_ALLOW_WEEKENDS", "true")
	t.Setenv("SCHEDULER_DEFAULT_END_HOUR", "16")
	t.Setenv("SCHEDULER_CACHE_TTL", "not-a-duration")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, ,https://b.example")

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)
	cfg := fromViper(v)

	assert.True(t, cfg.Scheduler.Defaults.AllowWeekends)
	assert.Equal(t, 16, cfg.Scheduler.Defaults.PreferredEndTime)
	assert.Equal(t, 15*time.Minute, cfg.Scheduler.CacheTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
}
