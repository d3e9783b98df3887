//nolint:lll
package config

import (
	"fmt"
	"strings"
)

// Config is the complete configuration for the catscan CLI and server.
// Values come from a config file, CATSCAN_* environment variables and
// command-line flags, in ascending priority. The numeric recognition
// constants (normalization, confidence floor) are deliberately NOT
// configurable; they are fixed by the training pipeline.
type Config struct {
	ModelsDir string `mapstructure:"models_dir" yaml:"models_dir" json:"models_dir"`
	LogLevel  string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose   bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	Engine EngineConfig `mapstructure:"engine" yaml:"engine" json:"engine"`
	Output OutputConfig `mapstructure:"output" yaml:"output" json:"output"`
	Server ServerConfig `mapstructure:"server" yaml:"server" json:"server"`
}

// EngineConfig contains recognition engine settings.
type EngineConfig struct {
	NumThreads int  `mapstructure:"num_threads" yaml:"num_threads" json:"num_threads"`
	UseGPU     bool `mapstructure:"use_gpu" yaml:"use_gpu" json:"use_gpu"`
	Warmup     bool `mapstructure:"warmup" yaml:"warmup" json:"warmup"`
}

// OutputConfig contains CLI output settings.
type OutputConfig struct {
	Format              string `mapstructure:"format" yaml:"format" json:"format"`
	ConfidencePrecision int    `mapstructure:"confidence_precision" yaml:"confidence_precision" json:"confidence_precision"`
}

// ServerConfig contains HTTP server settings for serve mode.
type ServerConfig struct {
	Host        string `mapstructure:"host" yaml:"host" json:"host"`
	Port        int    `mapstructure:"port" yaml:"port" json:"port"`
	MaxUploadMB int    `mapstructure:"max_upload_mb" yaml:"max_upload_mb" json:"max_upload_mb"`
	TimeoutSec  int    `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Engine: EngineConfig{
			NumThreads: 0,
			UseGPU:     false,
			Warmup:     false,
		},
		Output: OutputConfig{
			Format:              "text",
			ConfidencePrecision: 3,
		},
		Server: ServerConfig{
			Host:        "localhost",
			Port:        8080,
			MaxUploadMB: 20,
			TimeoutSec:  60,
		},
	}
}

var validLogLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

var validFormats = map[string]bool{"text": true, "json": true}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.LogLevel != "" && !validLogLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("invalid log level %q (must be debug, info, warn or error)", c.LogLevel)
	}
	if c.Engine.NumThreads < 0 {
		return fmt.Errorf("num_threads must be >= 0, got %d", c.Engine.NumThreads)
	}
	if c.Output.Format != "" && !validFormats[c.Output.Format] {
		return fmt.Errorf("invalid output format %q (must be text or json)", c.Output.Format)
	}
	if c.Output.ConfidencePrecision < 0 || c.Output.ConfidencePrecision > 10 {
		return fmt.Errorf("confidence_precision must be 0-10, got %d", c.Output.ConfidencePrecision)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("max_upload_mb must be > 0, got %d", c.Server.MaxUploadMB)
	}
	if c.Server.TimeoutSec <= 0 {
		return fmt.Errorf("timeout_sec must be > 0, got %d", c.Server.TimeoutSec)
	}
	return nil
}
