package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix used by all settings.
const envPrefix = "ENZYMEMAP"

// newViper builds a pre-configured Viper instance: YAML file type,
// ENZYMEMAP_ env prefix, automatic env binding, and a key replacer that maps
// "." to "_" so nested keys like "database.host" resolve to
// ENZYMEMAP_DATABASE_HOST.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Viper only merges environment variables for keys it already knows, so
	// every leaf key is registered here.  Real default values live in
	// ApplyDefaults; these registrations stay zero-valued.
	for _, key := range []string{
		"database.host", "database.user", "database.password",
		"database.db_name", "database.ssl_mode", "database.migration_path",
		"redis.addr", "redis.password", "redis.key_prefix",
		"kafka.topic",
		"log.level", "log.format", "log.output",
		"metrics.addr", "metrics.path", "metrics.namespace",
	} {
		v.SetDefault(key, "")
	}
	for _, key := range []string{
		"database.port", "database.max_conns", "database.min_conns",
		"redis.db", "redis.pool_size", "redis.min_idle_conns",
		"kafka.batch_size", "kafka.required_acks", "kafka.max_retries",
		"worker.concurrency", "curation.max_candidates",
	} {
		v.SetDefault(key, 0)
	}
	for _, key := range []string{
		"database.conn_max_lifetime", "database.conn_max_idle_time",
		"redis.dial_timeout", "redis.read_timeout", "redis.write_timeout",
		"redis.default_ttl", "kafka.batch_timeout", "kafka.write_timeout",
		"curation.group_timeout",
	} {
		v.SetDefault(key, time.Duration(0))
	}
	v.SetDefault("redis.enabled", false)
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.allow_auto_topic_creation", false)
	v.SetDefault("kafka.brokers", []string(nil))

	// Pipeline stages that are on unless explicitly disabled.  A zero-value
	// bool cannot distinguish "unset" from "false", so these defaults live
	// in viper rather than ApplyDefaults.
	v.SetDefault("curation.suggestions", true)
	v.SetDefault("curation.multi_step", true)
	v.SetDefault("metrics.enabled", true)

	return v
}

// Load reads the YAML file at configPath, merges any ENZYMEMAP_* environment
// variable overrides, applies defaults for unset fields, and validates the
// result.
func Load(configPath string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: failed to read config file %q: %w", configPath, err)
	}

	return unmarshalAndFinalize(v)
}

// LoadFromEnv builds a Config entirely from ENZYMEMAP_* environment
// variables, with no config file required.  This is the preferred loading
// strategy for containerised deployments.
//
// Naming convention: ENZYMEMAP_<SECTION>_<FIELD>, e.g.
// ENZYMEMAP_DATABASE_HOST, ENZYMEMAP_REDIS_ADDR.
func LoadFromEnv() (*Config, error) {
	return unmarshalAndFinalize(newViper())
}

func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal configuration: %w", err)
	}

	ApplyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}

	return cfg, nil
}

// Watch monitors configPath for changes and invokes onChange with the newly
// parsed Config whenever the file is modified on disk.  It is intended for
// hot-reloading non-critical settings such as log level; callers are
// responsible for applying only the safe subset of changes at runtime.
//
// Watch is non-blocking; viper manages the background goroutine.  If the
// changed file fails to parse or validate, onChange is not called.
func Watch(configPath string, onChange func(*Config)) {
	v := newViper()
	v.SetConfigFile(configPath)

	// Initial read; errors are ignored here, callers should call Load first.
	_ = v.ReadInConfig()

	v.WatchConfig()
	v.OnConfigChange(func(_ fsnotify.Event) {
		cfg, err := unmarshalAndFinalize(v)
		if err != nil {
			return
		}
		onChange(cfg)
	})
}

// MustLoad wraps Load and panics on any error.  It is intended for use in
// main() where a config-load failure is always fatal.
func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("config: MustLoad failed: %v", err))
	}
	return cfg
}
