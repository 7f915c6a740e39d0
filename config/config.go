// Package config loads store configuration from YAML files and turns
// it into engine options.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	naturaldb "github.com/felix-wang-0307/NaturalDB"
	"github.com/felix-wang-0307/NaturalDB/resource"
)

// Config is the on-disk configuration of a store.
type Config struct {
	// BasePath is the root directory of the data tree.
	BasePath string `yaml:"base_path"`

	// LockTimeout bounds lock acquisition. Zero means wait forever.
	LockTimeout time.Duration `yaml:"lock_timeout"`

	Log       LogConfig       `yaml:"log"`
	Resources ResourcesConfig `yaml:"resources"`
	Backup    BackupConfig    `yaml:"backup"`
}

// LogConfig selects log verbosity and output format.
type LogConfig struct {
	// Level is one of debug, info, warn, error. Empty disables logging.
	Level string `yaml:"level"`
	// Format is text or json; text is the default.
	Format string `yaml:"format"`
}

// ResourcesConfig bounds background work.
type ResourcesConfig struct {
	MaxBackgroundJobs  int64 `yaml:"max_background_jobs"`
	IOLimitBytesPerSec int64 `yaml:"io_limit_bytes_per_sec"`
}

// BackupConfig selects where backup archives go.
type BackupConfig struct {
	// Backend is local, minio or s3.
	Backend string `yaml:"backend"`
	// Dir is the archive directory for the local backend.
	Dir string `yaml:"dir"`
	// Bucket and Prefix address object storage backends.
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix"`
	// Endpoint, AccessKey and SecretKey configure the minio backend.
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		BasePath:    "./data",
		LockTimeout: naturaldb.DefaultLockTimeout,
		Log:         LogConfig{Level: "info", Format: "text"},
		Backup:      BackupConfig{Backend: "local", Dir: "./backups"},
	}
}

// Load reads a YAML configuration file. Fields absent from the file
// keep their defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Options translates the configuration into engine options.
func (c Config) Options() []naturaldb.Option {
	opts := []naturaldb.Option{
		naturaldb.WithLockTimeout(c.LockTimeout),
	}
	if logger := c.logger(); logger != nil {
		opts = append(opts, naturaldb.WithLogger(logger))
	}
	if c.Resources != (ResourcesConfig{}) {
		opts = append(opts, naturaldb.WithResourceConfig(resource.Config{
			MaxBackgroundJobs:  c.Resources.MaxBackgroundJobs,
			IOLimitBytesPerSec: c.Resources.IOLimitBytesPerSec,
		}))
	}
	return opts
}

func (c Config) logger() *naturaldb.Logger {
	if c.Log.Level == "" {
		return nil
	}
	var level slog.Level
	switch c.Log.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	if c.Log.Format == "json" {
		return naturaldb.NewJSONLogger(level)
	}
	return naturaldb.NewTextLogger(level)
}
