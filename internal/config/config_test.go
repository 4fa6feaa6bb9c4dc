package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validConfig returns a Config that passes Validate.
func validConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

func TestValidate_DefaultsAreValid(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
	}{
		{"server port zero", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"server port too high", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"server mode", func(c *Config) { c.Server.Mode = "prod" }, "server.mode"},
		{"database host", func(c *Config) { c.Database.Host = "" }, "database.host"},
		{"database port", func(c *Config) { c.Database.Port = -1 }, "database.port"},
		{"database user", func(c *Config) { c.Database.User = "" }, "database.user"},
		{"database name", func(c *Config) { c.Database.DBName = "" }, "database.db_name"},
		{"database max conns", func(c *Config) { c.Database.MaxConns = 0 }, "database.max_conns"},
		{"redis addr", func(c *Config) { c.Redis.Addr = "" }, "redis.addr"},
		{"redis db", func(c *Config) { c.Redis.DB = -1 }, "redis.db"},
		{"kafka brokers", func(c *Config) { c.Kafka.Brokers = nil }, "kafka.brokers"},
		{"kafka group", func(c *Config) { c.Kafka.GroupID = "" }, "kafka.group_id"},
		{"kafka topic", func(c *Config) { c.Kafka.MoleculeTopic = "" }, "kafka.molecule_topic"},
		{"worker concurrency", func(c *Config) { c.Worker.Concurrency = 0 }, "worker.concurrency"},
		{"worker chunk size", func(c *Config) { c.Worker.ChunkSize = 0 }, "worker.chunk_size"},
		{"signature radius", func(c *Config) { c.Signature.Radius = -1 }, "signature.radius"},
		{"signature bit width", func(c *Config) { c.Signature.BitWidth = 0 }, "signature.bit_width"},
		{"log level", func(c *Config) { c.Log.Level = "verbose" }, "log.level"},
		{"log format", func(c *Config) { c.Log.Format = "text" }, "log.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}
