// Package config loads TAP's configuration: a YAML file picked by
// environment, with TAP_* environment variables overriding file values.
// Config/LoaderOptions/Load cover an environment-specific file fallback
// chain plus applyEnvironmentOverrides, shaped around TAP's own node,
// keystore, logging, metrics, and HTTP sections.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is TAP's root configuration (§4.L).
type Config struct {
	Environment string         `yaml:"environment" json:"environment"`
	Node        NodeConfig     `yaml:"node" json:"node"`
	KeyStore    KeyStoreConfig `yaml:"keystore" json:"keystore"`
	Logging     LoggingConfig  `yaml:"logging" json:"logging"`
	Metrics     MetricsConfig  `yaml:"metrics" json:"metrics"`
	HTTP        HTTPConfig     `yaml:"http" json:"http"`
}

// NodeConfig tunes the node.Node a running process builds.
type NodeConfig struct {
	DBPath    string `yaml:"db_path" json:"db_path"`
	MaxAgents int    `yaml:"max_agents" json:"max_agents"`
	BaseURL   string `yaml:"base_url" json:"base_url"`
}

// KeyStoreConfig locates the keystore.Manager's backing file.
type KeyStoreConfig struct {
	Path string `yaml:"path" json:"path"`
}

// LoggingConfig configures internal/logger.
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
	Output string `yaml:"output" json:"output"`
}

// MetricsConfig configures the Prometheus exposition endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Port    int    `yaml:"port" json:"port"`
	Path    string `yaml:"path" json:"path"`
}

// HTTPConfig configures the §6 POST /didcomm HTTP endpoint.
type HTTPConfig struct {
	Host            string `yaml:"host" json:"host"`
	Port            int    `yaml:"port" json:"port"`
	DIDCommEndpoint string `yaml:"didcomm_endpoint" json:"didcomm_endpoint"`
}

// LoadFromFile reads and parses a YAML config file at path.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return cfg, nil
}

// setDefaults fills in TAP's documented defaults (§6) for any field the
// config file and environment left unset.
func setDefaults(cfg *Config) {
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.Node.DBPath == "" {
		if home, err := os.UserHomeDir(); err == nil {
			cfg.Node.DBPath = home + "/.tap/tap-node.db"
		}
	}
	if cfg.KeyStore.Path == "" {
		if home, err := os.UserHomeDir(); err == nil {
			cfg.KeyStore.Path = home + "/.tap/keys.json"
		}
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "INFO"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}
	if cfg.Metrics.Port == 0 {
		cfg.Metrics.Port = 9090
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
	if cfg.HTTP.Host == "" {
		cfg.HTTP.Host = "0.0.0.0"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 8443
	}
	if cfg.HTTP.DIDCommEndpoint == "" {
		cfg.HTTP.DIDCommEndpoint = "/didcomm"
	}
}
