// Package config loads hdx-echo settings from defaults, an optional TOML
// file, an optional .env file and HDX_* environment variables, in that
// order of precedence (last wins).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"strings"
	"time"

	"hdxecho/internal/output"
	"hdxecho/pkg/spec"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const EnvPrefix = "HDX"

type Config struct {
	Output OutputConfig `mapstructure:"output"`
	Engine EngineConfig `mapstructure:"engine"`
	Server ServerConfig `mapstructure:"server"`
	Log    LogConfig    `mapstructure:"log"`
}

type OutputConfig struct {
	Backend  string `mapstructure:"backend"`
	BufferMS int    `mapstructure:"buffer_ms"`
}

type EngineConfig struct {
	Volume             float64 `mapstructure:"volume"`
	MinBuffer          int     `mapstructure:"min_buffer"`
	SpectrumIntervalMS int     `mapstructure:"spectrum_interval_ms"`
	BackoffMS          int     `mapstructure:"backoff_ms"`
}

type ServerConfig struct {
	Socket string `mapstructure:"socket"`
}

type LogConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

func (o OutputConfig) Buffer() time.Duration {
	return time.Duration(o.BufferMS) * time.Millisecond
}

func (e EngineConfig) SpectrumInterval() time.Duration {
	return time.Duration(e.SpectrumIntervalMS) * time.Millisecond
}

func (e EngineConfig) Backoff() time.Duration {
	return time.Duration(e.BackoffMS) * time.Millisecond
}

func Default() *Config {
	return &Config{
		Output: OutputConfig{
			Backend:  output.Speaker,
			BufferMS: int(spec.OutputBuffer / time.Millisecond),
		},
		Engine: EngineConfig{
			Volume:             spec.DefaultVolume,
			MinBuffer:          spec.MinBufferThreshold,
			SpectrumIntervalMS: int(spec.SpectrumInterval / time.Millisecond),
			BackoffMS:          int(spec.BackoffInterval / time.Millisecond),
		},
		Server: ServerConfig{
			Socket: "/tmp/hdx-echo.sock",
		},
		Log: LogConfig{
			File:  "logs/dev.log",
			Level: "info",
		},
	}
}

// Load reads path when given, otherwise looks for hdx-echo.toml in
// $HOME/.config/hdx and the working directory. A missing search-path file
// is not an error; a missing explicit path is.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("hdx-echo")
		v.AddConfigPath("$HOME/.config/hdx/")
		v.AddConfigPath(".")
	}

	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("output.backend", d.Output.Backend)
	v.SetDefault("output.buffer_ms", d.Output.BufferMS)
	v.SetDefault("engine.volume", d.Engine.Volume)
	v.SetDefault("engine.min_buffer", d.Engine.MinBuffer)
	v.SetDefault("engine.spectrum_interval_ms", d.Engine.SpectrumIntervalMS)
	v.SetDefault("engine.backoff_ms", d.Engine.BackoffMS)
	v.SetDefault("server.socket", d.Server.Socket)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.level", d.Log.Level)
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	if !slices.Contains(output.Backends(), c.Output.Backend) {
		return fmt.Errorf("output.backend %q: %w", c.Output.Backend, output.ErrUnknownBackend)
	}
	if c.Output.BufferMS <= 0 {
		return fmt.Errorf("output.buffer_ms must be positive, got %d", c.Output.BufferMS)
	}
	if c.Engine.Volume < 0 || c.Engine.Volume > 1 {
		return fmt.Errorf("engine.volume must be within [0,1], got %v", c.Engine.Volume)
	}
	if c.Engine.MinBuffer <= 0 {
		return fmt.Errorf("engine.min_buffer must be positive, got %d", c.Engine.MinBuffer)
	}
	if c.Engine.SpectrumIntervalMS <= 0 || c.Engine.BackoffMS <= 0 {
		return errors.New("engine intervals must be positive")
	}
	if c.Server.Socket == "" {
		return errors.New("server.socket is empty")
	}
	return nil
}
