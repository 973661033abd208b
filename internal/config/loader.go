package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// LoaderOptions configures Load's search path and environment.
type LoaderOptions struct {
	// ConfigDir is the directory containing config files (default: ./config).
	ConfigDir string
	// Environment overrides automatic environment detection.
	Environment string
	// EnvFile is the .env file godotenv loads before reading TAP_* vars
	// (default: .env; a missing file is not an error).
	EnvFile string
}

// DefaultLoaderOptions returns Load's defaults.
func DefaultLoaderOptions() LoaderOptions {
	return LoaderOptions{ConfigDir: "config", EnvFile: ".env"}
}

// Load builds a Config from, in increasing priority: built-in defaults, a
// YAML file picked by environment (<dir>/<env>.yaml, falling back to
// <dir>/default.yaml then <dir>/config.yaml), and TAP_* environment
// variables (§6), loaded through a local .env file via godotenv first.
func Load(opts ...LoaderOptions) (*Config, error) {
	options := DefaultLoaderOptions()
	if len(opts) > 0 {
		options = opts[0]
	}

	_ = godotenv.Load(options.EnvFile)

	env := options.Environment
	if env == "" {
		env = Environment()
	}

	cfg, err := loadConfigFile(filepath.Join(options.ConfigDir, fmt.Sprintf("%s.yaml", env)))
	if err != nil {
		cfg, err = loadConfigFile(filepath.Join(options.ConfigDir, "default.yaml"))
		if err != nil {
			cfg, err = loadConfigFile(filepath.Join(options.ConfigDir, "config.yaml"))
			if err != nil {
				cfg = &Config{}
			}
		}
	}

	if cfg.Environment == "" {
		cfg.Environment = env
	}
	setDefaults(cfg)
	applyEnvironmentOverrides(cfg)
	return cfg, nil
}

func loadConfigFile(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	return LoadFromFile(path)
}

// Environment returns TAP_ENV, falling back to "development".
func Environment() string {
	if env := os.Getenv("TAP_ENV"); env != "" {
		return env
	}
	return "development"
}

// applyEnvironmentOverrides applies the §6 TAP_* variables, which take
// priority over both the config file and built-in defaults.
func applyEnvironmentOverrides(cfg *Config) {
	if home := os.Getenv("TAP_HOME"); home != "" {
		cfg.Node.DBPath = filepath.Join(home, "tap-node.db")
		cfg.KeyStore.Path = filepath.Join(home, "keys.json")
	}
	if dbPath := os.Getenv("TAP_NODE_DB_PATH"); dbPath != "" {
		cfg.Node.DBPath = dbPath
	}
	if host := os.Getenv("TAP_HTTP_HOST"); host != "" {
		cfg.HTTP.Host = host
	}
	if port := os.Getenv("TAP_HTTP_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.HTTP.Port = p
		}
	}
	if endpoint := os.Getenv("TAP_HTTP_DIDCOMM_ENDPOINT"); endpoint != "" {
		cfg.HTTP.DIDCommEndpoint = endpoint
	}
	if level := os.Getenv("TAP_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
}

// MustLoad loads configuration or panics on error, for cmd/tap's main.
func MustLoad(opts ...LoaderOptions) *Config {
	cfg, err := Load(opts...)
	if err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
	return cfg
}
