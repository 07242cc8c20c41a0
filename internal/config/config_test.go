package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := &Config{}
	cfg.Database.Host = "localhost"
	cfg.Database.User = "curator"
	cfg.Database.DBName = "enzymemap"
	ApplyDefaults(cfg)
	return cfg
}

func TestValidate_ValidConfig(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantSub string
	}{
		{
			name:    "missing database host",
			mutate:  func(c *Config) { c.Database.Host = "" },
			wantSub: "database.host",
		},
		{
			name:    "database port out of range",
			mutate:  func(c *Config) { c.Database.Port = 70000 },
			wantSub: "database.port",
		},
		{
			name:    "missing database user",
			mutate:  func(c *Config) { c.Database.User = "" },
			wantSub: "database.user",
		},
		{
			name:    "missing database name",
			mutate:  func(c *Config) { c.Database.DBName = "" },
			wantSub: "database.db_name",
		},
		{
			name:    "max conns too small",
			mutate:  func(c *Config) { c.Database.MaxConns = 0 },
			wantSub: "database.max_conns",
		},
		{
			name: "redis enabled without addr",
			mutate: func(c *Config) {
				c.Redis.Enabled = true
				c.Redis.Addr = ""
			},
			wantSub: "redis.addr",
		},
		{
			name: "kafka enabled without topic",
			mutate: func(c *Config) {
				c.Kafka.Enabled = true
				c.Kafka.Topic = ""
			},
			wantSub: "kafka.topic",
		},
		{
			name: "kafka enabled without brokers",
			mutate: func(c *Config) {
				c.Kafka.Enabled = true
				c.Kafka.Brokers = nil
			},
			wantSub: "kafka.brokers",
		},
		{
			name:    "zero worker concurrency",
			mutate:  func(c *Config) { c.Worker.Concurrency = 0 },
			wantSub: "worker.concurrency",
		},
		{
			name:    "negative group timeout",
			mutate:  func(c *Config) { c.Curation.GroupTimeout = -1 },
			wantSub: "curation.group_timeout",
		},
		{
			name:    "zero max candidates",
			mutate:  func(c *Config) { c.Curation.MaxCandidates = 0 },
			wantSub: "curation.max_candidates",
		},
		{
			name:    "invalid log level",
			mutate:  func(c *Config) { c.Log.Level = "verbose" },
			wantSub: "log.level",
		},
		{
			name:    "invalid log format",
			mutate:  func(c *Config) { c.Log.Format = "xml" },
			wantSub: "log.format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantSub)
		})
	}
}

func TestValidate_DisabledBackendsSkipChecks(t *testing.T) {
	cfg := validConfig()
	cfg.Redis.Enabled = false
	cfg.Redis.Addr = ""
	cfg.Kafka.Enabled = false
	cfg.Kafka.Brokers = nil
	assert.NoError(t, cfg.Validate())
}
