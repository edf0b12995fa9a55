package config

import (
	"time"

	redisclient "github.com/vietddude/draftsync/internal/infra/redis"
	"github.com/vietddude/draftsync/internal/infra/storage/postgres"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server   ServerConfig       `yaml:"server"`
	Logging  LoggingConfig      `yaml:"logging"`
	Storage  StorageConfig      `yaml:"storage"`
	Redis    redisclient.Config `yaml:"redis"`
	Database postgres.Config    `yaml:"database"`
	Remote   RemoteConfig       `yaml:"remote"`
	Network  NetworkConfig      `yaml:"network"`
	Sync     SyncConfig         `yaml:"sync"`
	Recovery RecoveryConfig     `yaml:"recovery"`
	Draft    DraftConfig        `yaml:"draft"`
	Preset   PresetConfig       `yaml:"preset"`
	NATS     NATSConfig         `yaml:"nats"`
}

// ServerConfig holds admin HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// StorageConfig selects the durable store backend.
type StorageConfig struct {
	Driver     string `yaml:"driver"`      // memory, sqlite, postgres, redis
	SQLitePath string `yaml:"sqlite_path"` // used by the sqlite driver
}

// RemoteConfig describes how to reach the remote assistant service.
type RemoteConfig struct {
	Transport  string        `yaml:"transport"` // http, grpc
	BaseURL    string        `yaml:"base_url"`
	GRPCTarget string        `yaml:"grpc_target"`
	Timeout    time.Duration `yaml:"timeout"`
}

// NetworkConfig configures the connectivity prober.
type NetworkConfig struct {
	ProbeURL      string        `yaml:"probe_url"`
	ProbeInterval time.Duration `yaml:"probe_interval"`
	ProbeTimeout  time.Duration `yaml:"probe_timeout"`
}

// SyncConfig configures the background drain.
type SyncConfig struct {
	Interval       time.Duration `yaml:"interval"`
	InterItemDelay time.Duration `yaml:"inter_item_delay"`
	MaxRetries     int           `yaml:"max_retries"`
}

// RecoveryConfig configures the synchronous retry path.
type RecoveryConfig struct {
	MaxRetries int           `yaml:"max_retries"`
	BaseDelay  time.Duration `yaml:"base_delay"`
	MaxDelay   time.Duration `yaml:"max_delay"`
}

// DraftConfig configures the draft autosave slot.
type DraftConfig struct {
	TTL time.Duration `yaml:"ttl"`
}

// PresetConfig configures the preset cache.
type PresetConfig struct {
	TTL           time.Duration `yaml:"ttl"`
	CheckInterval time.Duration `yaml:"check_interval"` // defaults to ttl
}

// NATSConfig enables publishing of sync results. Empty URL disables it.
type NATSConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}
