package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, "text", cfg.Output.Format)
	require.Equal(t, 8080, cfg.Server.Port)
}

func TestValidate_Errors(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad log level", func(c *Config) { c.LogLevel = "trace" }},
		{"negative threads", func(c *Config) { c.Engine.NumThreads = -1 }},
		{"bad format", func(c *Config) { c.Output.Format = "xml" }},
		{"precision too high", func(c *Config) { c.Output.ConfidencePrecision = 11 }},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }},
		{"zero upload limit", func(c *Config) { c.Server.MaxUploadMB = 0 }},
		{"zero timeout", func(c *Config) { c.Server.TimeoutSec = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestValidate_LogLevelCaseInsensitive(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LogLevel = "DEBUG"
	require.NoError(t, cfg.Validate())
}
