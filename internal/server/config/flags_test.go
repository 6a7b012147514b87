package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	var c Config
	c.LoadDefaults()

	args := []string{
		"-a", ":1111",
		"-g=:2222",
		"-d", "postgres://flag",
		"-i", "iss", "-u", "aud",
		"-r", "45",
		"-R", "redis://r:6379",
		"-l", "warn",
		"-unknown", "ignored",
	}
	require.NoError(t, parseFlags(&c, args))

	assert.Equal(t, ":1111", c.HTTPAddr)
	assert.Equal(t, ":2222", c.GRPCAddr)
	assert.Equal(t, "postgres://flag", c.DatabaseDSN)
	assert.Equal(t, "iss", c.Issuer)
	assert.Equal(t, "aud", c.Audience)
	assert.Equal(t, 45*time.Minute, c.RefreshTokenValidityDuration)
	assert.Equal(t, 3*time.Minute, c.AccessTokenValidityDuration, "unset -t keeps the earlier value")
	assert.Equal(t, "redis://r:6379", c.RedisURL)
	assert.Equal(t, "warn", c.LogLevel)
}

func TestParseFlags_SubMinuteDurationSurvives(t *testing.T) {
	var c Config
	c.LoadDefaults()
	c.AccessTokenValidityDuration = 90 * time.Second

	require.NoError(t, parseFlags(&c, []string{"-a", ":1"}))
	assert.Equal(t, 90*time.Second, c.AccessTokenValidityDuration)
}
