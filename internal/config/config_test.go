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

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, []string{"*"}, cfg.AllowOrigins)
	assert.Equal(t, 10*time.Minute, cfg.OTPTTL)
	assert.Equal(t, 60*time.Second, cfg.RefreshInterval)
	assert.Equal(t, 10*time.Second, cfg.RefreshMinGap)
	assert.Equal(t, 5*time.Second, cfg.ResumeGap)
	assert.Equal(t, "VoteHubPH/1.0", cfg.GeocodeUserAgent)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("CORS_ALLOW_ORIGINS", "http://localhost:3000, https://votehub.ph ,")
	t.Setenv("OTP_TTL", "2m")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("RELEASE_MODE", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, []string{"http://localhost:3000", "https://votehub.ph"}, cfg.AllowOrigins)
	assert.Equal(t, 2*time.Minute, cfg.OTPTTL)
	assert.Equal(t, 3, cfg.RedisDB)
	assert.True(t, cfg.ReleaseMode)
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("REDIS_DB", "three")
	t.Setenv("OTP_TTL", "soon")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 0, cfg.RedisDB)
	assert.Equal(t, 10*time.Minute, cfg.OTPTTL)
}

func TestLoadRejectsGapLongerThanInterval(t *testing.T) {
	t.Setenv("REFRESH_INTERVAL", "5s")
	t.Setenv("REFRESH_MIN_GAP", "10s")

	_, err := Load()
	assert.Error(t, err)
}

func TestDSN(t *testing.T) {
	cfg := &Config{DBHost: "db", DBUser: "u", DBPassword: "p", DBName: "n", DBPort: "5433", DBSSLMode: "disable"}
	assert.Equal(t, "host=db user=u password=p dbname=n port=5433 sslmode=disable TimeZone=UTC", cfg.DSN())
}
