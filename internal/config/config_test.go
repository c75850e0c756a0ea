package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "flip7.hcl")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.hcl"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "info", cfg.LogLevel)
	assert.True(t, cfg.FlipThreeEnabled())
	assert.Equal(t, 1, cfg.Engine.Depth)
	assert.Equal(t, []string{".txt", ".json"}, cfg.Watch.Extensions)
	assert.Equal(t, "localhost:8077", cfg.ServerAddress())

	interval, err := cfg.WatchInterval()
	require.NoError(t, err)
	assert.Equal(t, 500*time.Millisecond, interval)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
log_level = "debug"

engine {
  flip_three = false
}

watch {
  dir        = "/tmp/shots"
  interval   = "2s"
  extensions = [".labels"]
  min_score  = 0.8
  output     = "advice.json"
}

server {
  port = 9000
}

store {
  path = "/var/lib/flip7/shoe.db"
}
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.False(t, cfg.FlipThreeEnabled())
	assert.Equal(t, 1, cfg.Engine.Depth, "unset fields in a present block still get defaults")
	assert.Equal(t, "/tmp/shots", cfg.Watch.Dir)
	assert.Equal(t, []string{".labels"}, cfg.Watch.Extensions)
	assert.Equal(t, 0.8, cfg.Watch.MinScore)
	assert.Equal(t, "advice.json", cfg.Watch.Output)
	assert.Equal(t, "200ms", cfg.Watch.Settle)
	assert.Equal(t, "localhost:9000", cfg.ServerAddress())
	assert.Equal(t, "/var/lib/flip7/shoe.db", cfg.Store.Path)

	interval, err := cfg.WatchInterval()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, interval)
}

func TestLoadRejectsBadHCL(t *testing.T) {
	_, err := Load(writeConfig(t, `engine {`))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, `unknown_attr = 1`))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"log level", func(c *Config) { c.LogLevel = "loud" }},
		{"negative depth", func(c *Config) { c.Engine.Depth = -1 }},
		{"deep depth", func(c *Config) { c.Engine.Depth = 4 }},
		{"interval", func(c *Config) { c.Watch.Interval = "soon" }},
		{"zero interval", func(c *Config) { c.Watch.Interval = "0s" }},
		{"settle", func(c *Config) { c.Watch.Settle = "-1s" }},
		{"min score", func(c *Config) { c.Watch.MinScore = 1.5 }},
		{"extension", func(c *Config) { c.Watch.Extensions = []string{"txt"} }},
		{"port", func(c *Config) { c.Server.Port = 70000 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want log.Level
	}{
		{"debug", log.DebugLevel},
		{"INFO", log.InfoLevel},
		{"", log.InfoLevel},
		{"warning", log.WarnLevel},
		{"error", log.ErrorLevel},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseLevel("trace")
	assert.ErrorIs(t, err, ErrInvalid)
}
