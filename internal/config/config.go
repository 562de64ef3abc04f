package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type ServerConfig struct {
	Port int `yaml:"port"`

	// MetricsPort exposes /metrics from worker and sweeper processes, which
	// do not run the public API. 0 disables the listener.
	MetricsPort int `yaml:"metrics_port"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type StorageConfig struct {
	UploadRoot string `yaml:"upload_root"`
	OutputRoot string `yaml:"output_root"`
}

type TransformerConfig struct {
	Command           string        `yaml:"command"` // e.g. "python"
	Script            string        `yaml:"script"`  // e.g. "run.py"
	WorkDir           string        `yaml:"workdir"` // directory the transformer runs from
	Timeout           time.Duration `yaml:"timeout"`
	ExecutionThreads  int           `yaml:"execution_threads"`
	ExecutionProvider string        `yaml:"execution_provider"` // cpu|cuda, empty = transformer default
	EnhancerDefault   bool          `yaml:"enhancer_default"`
}

type RetentionConfig struct {
	Days     int           `yaml:"days"`
	Interval time.Duration `yaml:"interval"`
}

type Config struct {
	Log         LogConfig         `yaml:"log"`
	Server      ServerConfig      `yaml:"server"`
	Redis       RedisConfig       `yaml:"redis"`
	Storage     StorageConfig     `yaml:"storage"`
	Transformer TransformerConfig `yaml:"transformer"`
	Retention   RetentionConfig   `yaml:"retention"`
}

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	// defaults
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Storage.UploadRoot == "" {
		cfg.Storage.UploadRoot = "uploads"
	}
	if cfg.Storage.OutputRoot == "" {
		cfg.Storage.OutputRoot = "output"
	}
	if cfg.Transformer.Command == "" {
		cfg.Transformer.Command = "python"
	}
	if cfg.Transformer.Script == "" {
		cfg.Transformer.Script = "run.py"
	}
	if cfg.Transformer.Timeout <= 0 {
		cfg.Transformer.Timeout = 5 * time.Minute
	}
	if cfg.Transformer.ExecutionThreads <= 0 {
		cfg.Transformer.ExecutionThreads = 1
	}
	if cfg.Retention.Days <= 0 {
		cfg.Retention.Days = 7
	}
	if cfg.Retention.Interval <= 0 {
		cfg.Retention.Interval = time.Hour
	}

	// Minimal validation
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	return &cfg, nil
}
