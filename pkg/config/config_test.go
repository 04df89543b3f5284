package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.False(t, cfg.Database.Enabled)
	assert.Equal(t, 20, cfg.Scheduling.TermWeeks)
	assert.Equal(t, 25, cfg.Scheduling.SlotsPerClassroom)
	assert.False(t, cfg.Scheduling.StrictResources)
	assert.Equal(t, 10*time.Minute, cfg.Statistics.CacheTTL)
	assert.Equal(t, 30*time.Second, cfg.Scheduling.LoadTimeout)
	assert.Equal(t, 600, cfg.CORS.MaxAge)
	assert.Nil(t, cfg.CORS.AllowedOrigins)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("SCHEDULING_TERM_WEEKS", "18")
	t.Setenv("SCHEDULING_STRICT_RESOURCES", "true")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com, ,https://b.example.com")
	t.Setenv("STATS_CACHE_TTL", "not-a-duration")
	t.Setenv("DB_ENABLED", "true")
	t.Setenv("SCHEDULING_LOAD_ON_START", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 18, cfg.Scheduling.TermWeeks)
	assert.True(t, cfg.Scheduling.StrictResources)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 10*time.Minute, cfg.Statistics.CacheTTL)
	assert.True(t, cfg.Scheduling.LoadOnStart)
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	t.Setenv("SCHEDULING_TERM_WEEKS", "0")
	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := &Config{Scheduling: SchedulingConfig{TermWeeks: 20, SlotsPerClassroom: 25}}
	require.NoError(t, cfg.Validate())

	cfg.Scheduling.TermWeeks = 53
	assert.Error(t, cfg.Validate())
	cfg.Scheduling.TermWeeks = 20

	cfg.Scheduling.LoadOnStart = true
	assert.Error(t, cfg.Validate())

	cfg.Database.Enabled = true
	assert.NoError(t, cfg.Validate())

	cfg.Scheduling.SlotsPerClassroom = -1
	assert.Error(t, cfg.Validate())
}
