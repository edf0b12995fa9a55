package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Default values used when the config file leaves a field unset.
const (
	DefaultPort           = 8080
	DefaultStorageDriver  = "sqlite"
	DefaultSQLitePath     = "draftsync.db"
	DefaultTransport      = "http"
	DefaultRemoteTimeout  = 15 * time.Second
	DefaultProbeInterval  = 10 * time.Second
	DefaultProbeTimeout   = 3 * time.Second
	DefaultSyncInterval   = 30 * time.Second
	DefaultInterItemDelay = 1 * time.Second
	DefaultQueueRetries   = 5
	DefaultRecoveryTries  = 3
	DefaultRetryBaseDelay = 1 * time.Second
	DefaultRetryMaxDelay  = 60 * time.Second
	DefaultDraftTTL       = 7 * 24 * time.Hour
	DefaultPresetTTL      = 24 * time.Hour
	DefaultNATSSubject    = "draftsync.sync.results"
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ApplyDefaults()
	return &cfg, nil
}

// Default returns a config with every default applied, for runs without a config file.
func Default() *AppConfig {
	var cfg AppConfig
	cfg.ApplyDefaults()
	return &cfg
}

// ApplyDefaults fills zero values.
func (cfg *AppConfig) ApplyDefaults() {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultPort
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = DefaultStorageDriver
	}
	if cfg.Storage.SQLitePath == "" {
		cfg.Storage.SQLitePath = DefaultSQLitePath
	}

	if cfg.Remote.Transport == "" {
		cfg.Remote.Transport = DefaultTransport
	}
	if cfg.Remote.Timeout == 0 {
		cfg.Remote.Timeout = DefaultRemoteTimeout
	}

	if cfg.Network.ProbeInterval == 0 {
		cfg.Network.ProbeInterval = DefaultProbeInterval
	}
	if cfg.Network.ProbeTimeout == 0 {
		cfg.Network.ProbeTimeout = DefaultProbeTimeout
	}

	if cfg.Sync.Interval == 0 {
		cfg.Sync.Interval = DefaultSyncInterval
	}
	if cfg.Sync.InterItemDelay == 0 {
		cfg.Sync.InterItemDelay = DefaultInterItemDelay
	}
	if cfg.Sync.MaxRetries == 0 {
		cfg.Sync.MaxRetries = DefaultQueueRetries
	}

	if cfg.Recovery.MaxRetries == 0 {
		cfg.Recovery.MaxRetries = DefaultRecoveryTries
	}
	if cfg.Recovery.BaseDelay == 0 {
		cfg.Recovery.BaseDelay = DefaultRetryBaseDelay
	}
	if cfg.Recovery.MaxDelay == 0 {
		cfg.Recovery.MaxDelay = DefaultRetryMaxDelay
	}

	if cfg.Draft.TTL == 0 {
		cfg.Draft.TTL = DefaultDraftTTL
	}
	if cfg.Preset.TTL == 0 {
		cfg.Preset.TTL = DefaultPresetTTL
	}
	if cfg.NATS.Subject == "" {
		cfg.NATS.Subject = DefaultNATSSubject
	}
}
