// Package config defines all configuration structures for the enzymemap
// curation pipeline.  No I/O or parsing logic lives here, only plain data
// types and validation.
package config

import (
	"fmt"
	"time"
)

// DatabaseConfig holds PostgreSQL connection parameters for the rule library
// and the finalized-reaction store.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"db_name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxConns        int           `mapstructure:"max_conns"`
	MinConns        int           `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	MigrationPath   string        `mapstructure:"migration_path"`
}

// RedisConfig holds connection parameters for the optional shared balance
// cache.  When Enabled is false the pipeline uses its in-process cache.
type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	DefaultTTL   time.Duration `mapstructure:"default_ttl"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// KafkaConfig holds producer parameters for publishing finalized reactions.
// When Enabled is false no events are emitted.
type KafkaConfig struct {
	Enabled                bool          `mapstructure:"enabled"`
	Brokers                []string      `mapstructure:"brokers"`
	Topic                  string        `mapstructure:"topic"`
	BatchSize              int           `mapstructure:"batch_size"`
	BatchTimeout           time.Duration `mapstructure:"batch_timeout"`
	WriteTimeout           time.Duration `mapstructure:"write_timeout"`
	RequiredAcks           int           `mapstructure:"required_acks"`
	MaxRetries             int           `mapstructure:"max_retries"`
	AllowAutoTopicCreation bool          `mapstructure:"allow_auto_topic_creation"`
}

// WorkerConfig holds execution parameters for the enzyme-group worker pool.
type WorkerConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

// CurationConfig holds tunables of the correction and mapping stages.
type CurationConfig struct {
	// GroupTimeout bounds the wall-clock time spent on a single enzyme
	// group; zero disables the budget.
	GroupTimeout time.Duration `mapstructure:"group_timeout"`
	// MaxCandidates truncates the Cartesian product of structure variants
	// for a single entry.
	MaxCandidates int `mapstructure:"max_candidates"`
	// Suggestions toggles the fallback that recovers uncorrectable entries
	// from within-group analogy.
	Suggestions bool `mapstructure:"suggestions"`
	// MultiStep toggles depth-two template composition.
	MultiStep bool `mapstructure:"multi_step"`
}

// MetricsConfig holds the Prometheus exposition endpoint parameters.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Addr      string `mapstructure:"addr"`
	Path      string `mapstructure:"path"`
	Namespace string `mapstructure:"namespace"`
}

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format string `mapstructure:"format"` // "json" | "text"
	Output string `mapstructure:"output"`
}

// Config is the root configuration structure for the pipeline.  Every
// infrastructure component and the curation service read their settings from
// the relevant sub-struct.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Worker   WorkerConfig   `mapstructure:"worker"`
	Curation CurationConfig `mapstructure:"curation"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Log      LogConfig      `mapstructure:"log"`
}

// Validate performs semantic validation of the fully-populated Config.  It
// returns the first error encountered; callers should treat any error as
// fatal and refuse to start.
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("config: database.host is required")
	}
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("config: database.port %d is out of range [1, 65535]", c.Database.Port)
	}
	if c.Database.User == "" {
		return fmt.Errorf("config: database.user is required")
	}
	if c.Database.DBName == "" {
		return fmt.Errorf("config: database.db_name is required")
	}
	if c.Database.MaxConns < 1 {
		return fmt.Errorf("config: database.max_conns must be >= 1, got %d", c.Database.MaxConns)
	}

	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			return fmt.Errorf("config: redis.addr is required when redis.enabled is true")
		}
		if c.Redis.DB < 0 {
			return fmt.Errorf("config: redis.db must be >= 0, got %d", c.Redis.DB)
		}
	}

	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("config: kafka.brokers must contain at least one broker address")
		}
		if c.Kafka.Topic == "" {
			return fmt.Errorf("config: kafka.topic is required when kafka.enabled is true")
		}
	}

	if c.Worker.Concurrency < 1 {
		return fmt.Errorf("config: worker.concurrency must be >= 1, got %d", c.Worker.Concurrency)
	}

	if c.Curation.GroupTimeout < 0 {
		return fmt.Errorf("config: curation.group_timeout must not be negative")
	}
	if c.Curation.MaxCandidates < 1 {
		return fmt.Errorf("config: curation.max_candidates must be >= 1, got %d", c.Curation.MaxCandidates)
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|text", c.Log.Format)
	}

	return nil
}
