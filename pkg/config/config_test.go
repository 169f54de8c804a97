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
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, "exclude", cfg.Grading.EmptyCategoryPolicy)
	assert.Equal(t, "ignore", cfg.Grading.UngradedPolicy)
	assert.Equal(t, "en", cfg.Display.Locale)
	assert.Equal(t, "-", cfg.Display.Placeholder)
	assert.True(t, cfg.Roster.CacheEnabled)
	assert.Equal(t, 5*time.Minute, cfg.Roster.CacheTTL)
	assert.Equal(t, 2, cfg.Roster.WorkerConcurrency)
	assert.Equal(t, 25, cfg.Roster.DefaultPageSize)
}

func TestOverridesAndFallbacks(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("GRADING_EMPTY_CATEGORY_POLICY", "ZERO")
	v.Set("ROSTER_CACHE_TTL", "not-a-duration")
	v.Set("ALLOWED_ORIGINS", " http://a.test , ,http://b.test")
	v.Set("DISPLAY_DECIMALS", 2)

	cfg := fromViper(v)
	assert.Equal(t, "zero", cfg.Grading.EmptyCategoryPolicy)
	assert.Equal(t, 5*time.Minute, cfg.Roster.CacheTTL)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 2, cfg.Display.Decimals)
}
