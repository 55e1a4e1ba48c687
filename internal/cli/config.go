package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/fieldbook/internal/paths"
	"github.com/mesh-intelligence/fieldbook/pkg/types"
)

// Config keys in config.yaml.
const (
	cfgKeyBackend   = "backend"
	cfgKeyDataDir   = "data_dir"
	cfgKeyDSN       = "dsn"
	cfgKeyLogLevel  = "log_level"
	cfgKeyLogFormat = "log_format"
)

// envPrefix prefixes the environment overrides, e.g. FIELDBOOK_BACKEND.
const envPrefix = "FIELDBOOK"

// fileConfig is the shape of the config.yaml written on first run.
type fileConfig struct {
	Backend   string `yaml:"backend"`
	DSN       string `yaml:"dsn,omitempty"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// loadConfig reads config.yaml from configDir, writing a default one first
// if the directory has none. backend, dsn, log_level and log_format may be
// overridden by FIELDBOOK_* variables. data_dir is not: its env override sits
// below config.yaml and is handled by paths.ResolveDataDir.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}
	if err := writeDefaultConfig(paths.ConfigFile(configDir)); err != nil {
		return nil, fmt.Errorf("write default config: %w", err)
	}

	v := viper.New()
	v.SetDefault(cfgKeyBackend, types.BackendSQLite)
	v.SetDefault(cfgKeyLogLevel, "info")
	v.SetDefault(cfgKeyLogFormat, "text")
	v.SetConfigFile(paths.ConfigFile(configDir))

	v.SetEnvPrefix(envPrefix)
	for _, key := range []string{cfgKeyBackend, cfgKeyDSN, cfgKeyLogLevel, cfgKeyLogFormat} {
		if err := v.BindEnv(key); err != nil {
			return nil, err
		}
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// writeDefaultConfig creates path with default settings unless it exists.
func writeDefaultConfig(path string) error {
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	data, err := yaml.Marshal(&fileConfig{
		Backend:   types.BackendSQLite,
		LogLevel:  "info",
		LogFormat: "text",
	})
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	header := []byte("# fieldbook configuration\n# data_dir: /path/to/data (optional; --data-dir wins)\n")
	return os.WriteFile(path, append(header, data...), 0o644)
}
