// Package config loads the srcached daemon configuration: a YAML file
// declaring the keys to cache and their upstream sources, plus
// connection settings for the backends those sources need.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Source types accepted in a key declaration.
const (
	SourceHTTP     = "http"
	SourceRedis    = "redis"
	SourcePostgres = "postgres"
	SourceS3       = "s3"
	SourceCommand  = "command"
)

// Duration is a time.Duration that unmarshals from YAML strings like
// "30s" or "5m".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// SourceSpec describes where a key's value comes from. Which fields are
// required depends on Type.
type SourceSpec struct {
	Type    string   `yaml:"type"`
	URL     string   `yaml:"url,omitempty"`     // http
	Key     string   `yaml:"key,omitempty"`     // redis, s3
	Bucket  string   `yaml:"bucket,omitempty"`  // s3
	Query   string   `yaml:"query,omitempty"`   // postgres
	Command []string `yaml:"command,omitempty"` // command: argv, command[0] is the binary
	Timeout Duration `yaml:"timeout,omitempty"`
}

// KeySpec declares one cached key.
type KeySpec struct {
	Name            string     `yaml:"name"`
	TTL             Duration   `yaml:"ttl"`
	RefreshInterval Duration   `yaml:"refresh_interval"`
	Source          SourceSpec `yaml:"source"`
}

// RedisConfig holds the connection used by redis sources.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// PostgresConfig holds the pool used by postgres sources.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// S3Config holds the client settings used by s3 sources.
type S3Config struct {
	Region string `yaml:"region"`
}

// Config is the full daemon configuration.
type Config struct {
	Listen     string         `yaml:"listen"`
	LogFormat  string         `yaml:"log_format"`
	LogLevel   string         `yaml:"log_level"`
	GetTimeout Duration       `yaml:"get_timeout"`
	Keys       []KeySpec      `yaml:"keys"`
	Redis      RedisConfig    `yaml:"redis"`
	Postgres   PostgresConfig `yaml:"postgres"`
	S3         S3Config       `yaml:"s3"`
}

// Default returns a Config with sensible defaults and no keys.
func Default() *Config {
	return &Config{
		Listen:     ":8270",
		LogFormat:  "text",
		LogLevel:   "info",
		GetTimeout: Duration(30 * time.Second),
		Redis:      RedisConfig{Addr: "localhost:6379"},
	}
}

// Load reads the YAML file at path over the defaults, applies
// environment overrides, and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	FromEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// FromEnv overrides connection and listener settings from SRCACHE_*
// environment variables.
func FromEnv(cfg *Config) {
	if v := os.Getenv("SRCACHE_LISTEN"); v != "" {
		cfg.Listen = v
	}
	if v := os.Getenv("SRCACHE_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if v := os.Getenv("SRCACHE_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("SRCACHE_GET_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.GetTimeout = Duration(d)
		}
	}
	if v := os.Getenv("SRCACHE_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("SRCACHE_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("SRCACHE_REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			cfg.Redis.DB = db
		}
	}
	if v := os.Getenv("SRCACHE_POSTGRES_DSN"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("SRCACHE_S3_REGION"); v != "" {
		cfg.S3.Region = v
	}
}

// Validate checks every key declaration against the cache's
// registration rules and each source's required fields.
func (c *Config) Validate() error {
	seen := make(map[string]bool, len(c.Keys))
	for i := range c.Keys {
		k := &c.Keys[i]
		if k.Name == "" {
			return fmt.Errorf("keys[%d]: name is required", i)
		}
		if seen[k.Name] {
			return fmt.Errorf("key %q declared twice", k.Name)
		}
		seen[k.Name] = true
		if k.TTL <= 0 {
			return fmt.Errorf("key %q: ttl must be greater than zero", k.Name)
		}
		if k.RefreshInterval < 0 {
			return fmt.Errorf("key %q: refresh_interval must not be negative", k.Name)
		}
		if k.RefreshInterval >= k.TTL {
			return fmt.Errorf("key %q: refresh_interval must be smaller than ttl", k.Name)
		}
		if err := k.Source.validate(); err != nil {
			return fmt.Errorf("key %q: %w", k.Name, err)
		}
	}
	return nil
}

func (s *SourceSpec) validate() error {
	switch s.Type {
	case SourceHTTP:
		if s.URL == "" {
			return fmt.Errorf("http source requires url")
		}
	case SourceRedis:
		if s.Key == "" {
			return fmt.Errorf("redis source requires key")
		}
	case SourcePostgres:
		if s.Query == "" {
			return fmt.Errorf("postgres source requires query")
		}
	case SourceS3:
		if s.Bucket == "" || s.Key == "" {
			return fmt.Errorf("s3 source requires bucket and key")
		}
	case SourceCommand:
		if len(s.Command) == 0 {
			return fmt.Errorf("command source requires command")
		}
	case "":
		return fmt.Errorf("source type is required")
	default:
		return fmt.Errorf("unknown source type %q", s.Type)
	}
	return nil
}
