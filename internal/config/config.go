// Package config loads hangar settings from defaults, an optional
// hangar.yaml file and HANGAR_* environment variables, in increasing order
// of precedence. Command line flags bound by the CLI override all three.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/aretw0/hangar/internal/logging"
	"github.com/aretw0/hangar/pkg/persistence/middleware"
	"github.com/aretw0/hangar/pkg/schema"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g. HANGAR_LOG_LEVEL.
const EnvPrefix = "HANGAR"

// Store backends.
const (
	BackendNone   = "none"
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
	BackendFile   = "file"
)

// Config represents the complete hangar configuration
type Config struct {
	Log    LogConfig    `mapstructure:"log"`
	Schema string       `mapstructure:"schema"`
	Drive  DriveConfig  `mapstructure:"drive"`
	HTTP   HTTPConfig   `mapstructure:"http"`
	Store  StoreConfig  `mapstructure:"store"`
	Redis  RedisConfig  `mapstructure:"redis"`
	SQLite SQLiteConfig `mapstructure:"sqlite"`
	File   FileConfig   `mapstructure:"file"`
}

// LogConfig controls the structured logger
type LogConfig struct {
	// Level is one of debug, info, warn, error (default: info)
	Level string `mapstructure:"level"`
	// Format is text or json (default: text)
	Format string `mapstructure:"format"`
}

// DriveConfig controls the tick loop of "hangar run"
type DriveConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	// Ticks stops the loop after this many ticks (0 = until interrupted)
	Ticks int `mapstructure:"ticks"`
}

// HTTPConfig controls "hangar serve"
type HTTPConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// StreamBuffer is how many events an SSE client may lag behind
	StreamBuffer int `mapstructure:"stream_buffer"`
}

// StoreConfig selects where instance snapshots are mirrored
type StoreConfig struct {
	Backend string        `mapstructure:"backend"`
	Type    string        `mapstructure:"type"`
	LockTTL time.Duration `mapstructure:"lock_ttl"`
	// EncryptionKey is a base64 AES-256 key; snapshots are sealed when set
	EncryptionKey string `mapstructure:"encryption_key"`
	// FallbackKeys decrypt snapshots written before a key rotation
	FallbackKeys []string `mapstructure:"fallback_keys"`
	// Redact lists field name patterns masked before snapshots are stored
	Redact []string `mapstructure:"redact"`
}

// RedisConfig is used when the store backend is redis
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// SQLiteConfig is used when the store backend is sqlite
type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// FileConfig is used when the store backend is file
type FileConfig struct {
	Dir string `mapstructure:"dir"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Log:    LogConfig{Level: "info", Format: logging.FormatText},
		Schema: "hangar.schema.yaml",
		Drive:  DriveConfig{Interval: time.Second},
		HTTP: HTTPConfig{
			Addr:            ":8080",
			ShutdownTimeout: 5 * time.Second,
			StreamBuffer:    16,
		},
		Store: StoreConfig{
			Backend: BackendMemory,
			LockTTL: 30 * time.Second,
		},
		Redis: RedisConfig{
			Addr:   "localhost:6379",
			Prefix: "hangar:instance:",
		},
		SQLite: SQLiteConfig{Path: "hangar.db"},
		File:   FileConfig{Dir: ".hangar/snapshots"},
	}
}

// SetDefaults registers every default on v so that environment variables
// are picked up for keys that appear in no file.
func SetDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("log.format", defaults.Log.Format)
	v.SetDefault("schema", defaults.Schema)

	v.SetDefault("drive.interval", defaults.Drive.Interval)
	v.SetDefault("drive.ticks", defaults.Drive.Ticks)

	v.SetDefault("http.addr", defaults.HTTP.Addr)
	v.SetDefault("http.shutdown_timeout", defaults.HTTP.ShutdownTimeout)
	v.SetDefault("http.stream_buffer", defaults.HTTP.StreamBuffer)

	v.SetDefault("store.backend", defaults.Store.Backend)
	v.SetDefault("store.type", defaults.Store.Type)
	v.SetDefault("store.lock_ttl", defaults.Store.LockTTL)
	v.SetDefault("store.encryption_key", defaults.Store.EncryptionKey)

	v.SetDefault("redis.addr", defaults.Redis.Addr)
	v.SetDefault("redis.password", defaults.Redis.Password)
	v.SetDefault("redis.db", defaults.Redis.DB)
	v.SetDefault("redis.prefix", defaults.Redis.Prefix)
	v.SetDefault("redis.ttl", defaults.Redis.TTL)

	v.SetDefault("sqlite.path", defaults.SQLite.Path)
	v.SetDefault("file.dir", defaults.File.Dir)
}

// New returns a viper instance with defaults and environment binding set up.
// When file is empty, hangar.yaml is looked up in the working directory.
func New(file string) *viper.Viper {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("hangar")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	return v
}

// Load reads the config file (a missing default file is not an error),
// unmarshals and validates the result.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ValidBackends returns the accepted store.backend values.
func ValidBackends() []string {
	return []string{BackendNone, BackendMemory, BackendRedis, BackendSQLite, BackendFile}
}

// Validate checks the Config and reports every invalid value as a
// *schema.AggregateError.
func (c *Config) Validate() error {
	var errs []error
	add := func(key, reason string, value any) {
		errs = append(errs, &schema.ValidationError{Key: key, Reason: reason, Value: value})
	}

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		add("log.level", "must be one of debug, info, warn, error", c.Log.Level)
	}
	if c.Log.Format != logging.FormatText && c.Log.Format != logging.FormatJSON {
		add("log.format", "must be text or json", c.Log.Format)
	}
	if c.Drive.Interval <= 0 {
		add("drive.interval", "must be positive", c.Drive.Interval)
	}
	if c.Drive.Ticks < 0 {
		add("drive.ticks", "must be >= 0", c.Drive.Ticks)
	}
	if c.HTTP.Addr == "" {
		add("http.addr", "is required", nil)
	}
	if c.HTTP.StreamBuffer <= 0 {
		add("http.stream_buffer", "must be positive", c.HTTP.StreamBuffer)
	}
	if !slices.Contains(ValidBackends(), c.Store.Backend) {
		add("store.backend", "must be one of "+strings.Join(ValidBackends(), ", "), c.Store.Backend)
	}
	switch c.Store.Backend {
	case BackendRedis:
		if c.Redis.Addr == "" {
			add("redis.addr", "is required for the redis backend", nil)
		}
		if c.Redis.TTL < 0 {
			add("redis.ttl", "must be >= 0", c.Redis.TTL)
		}
	case BackendSQLite:
		if c.SQLite.Path == "" {
			add("sqlite.path", "is required for the sqlite backend", nil)
		}
	case BackendFile:
		if c.File.Dir == "" {
			add("file.dir", "is required for the file backend", nil)
		}
	}
	if c.Store.EncryptionKey != "" {
		if _, err := middleware.ParseKey(c.Store.EncryptionKey); err != nil {
			add("store.encryption_key", err.Error(), nil)
		}
	}
	for i, k := range c.Store.FallbackKeys {
		if _, err := middleware.ParseKey(k); err != nil {
			add(fmt.Sprintf("store.fallback_keys[%d]", i), err.Error(), nil)
		}
	}
	if len(c.Store.FallbackKeys) > 0 && c.Store.EncryptionKey == "" {
		add("store.fallback_keys", "require store.encryption_key", nil)
	}
	if _, err := middleware.NewRedactMiddleware(c.Store.Redact); err != nil {
		add("store.redact", err.Error(), c.Store.Redact)
	}

	if len(errs) > 0 {
		return &schema.AggregateError{Errors: errs}
	}
	return nil
}

// Logger builds the application logger described by the config.
func (c *Config) Logger() *slog.Logger {
	level, _ := logging.ParseLevel(c.Log.Level)
	return logging.NewWithFormat(os.Stderr, level, c.Log.Format)
}
