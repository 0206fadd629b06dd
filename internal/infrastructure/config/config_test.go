package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	c := Defaults()
	c.DatabaseURL = "postgres://localhost/twitarr"
	c.RedisURL = "redis://localhost:6379/0"
	return c
}

func TestDefaults(t *testing.T) {
	c := Defaults()
	assert.Equal(t, time.Second, c.LeaseTTL)
	assert.Equal(t, 50, c.DefaultPageLimit)
	assert.Equal(t, 200, c.MaxPageLimit)
	require.NoError(t, validConfig().Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing database", func(c *Config) { c.DatabaseURL = "" }},
		{"missing redis", func(c *Config) { c.RedisURL = " " }},
		{"empty lease name", func(c *Config) { c.LeaseName = "" }},
		{"zero lease ttl", func(c *Config) { c.LeaseTTL = 0 }},
		{"zero attempts", func(c *Config) { c.LeaseAttempts = 0 }},
		{"default above max", func(c *Config) { c.DefaultPageLimit = 500 }},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }},
		{"bad format", func(c *Config) { c.LogFormat = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	lvl, err := ParseLogLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, lvl)

	lvl, err = ParseLogLevel("")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, lvl)

	_, err = ParseLogLevel("verbose")
	assert.Error(t, err)
}
