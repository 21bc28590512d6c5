// Package config loads rangefs command settings from a config file,
// RANGEFS_* environment variables and bound command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/justapithecus/rangefs/internal/logging"
	"github.com/justapithecus/rangefs/rangefs"
)

// EnvPrefix prefixes every environment override, e.g. RANGEFS_CONNECTION_ENDPOINT.
const EnvPrefix = "RANGEFS"

// Config is the complete command configuration.
type Config struct {
	Connection rangefs.ConnectionConfig `mapstructure:"connection"`
	Log        logging.Config           `mapstructure:"log"`
	Scan       ScanConfig               `mapstructure:"scan"`
}

// ScanConfig tunes the scan command.
type ScanConfig struct {
	// Concurrency bounds how many objects are scanned at once.
	Concurrency int `mapstructure:"concurrency"`

	// BufferSize is the read size, and therefore the range size, per fetch.
	BufferSize int `mapstructure:"buffer_size"`

	// Decompress inflates .gz and .zst objects before hashing.
	Decompress bool `mapstructure:"decompress"`
}

// New returns a viper instance with every key defaulted, so environment
// variables can override any of them.
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func setDefaults(v *viper.Viper) {
	// Connection
	v.SetDefault("connection.backend", "s3")
	v.SetDefault("connection.endpoint", "")
	v.SetDefault("connection.region", "us-east-1")
	v.SetDefault("connection.access_key_id", "")
	v.SetDefault("connection.secret_access_key", "")
	v.SetDefault("connection.use_path_style", false)
	v.SetDefault("connection.insecure", false)
	v.SetDefault("connection.timeout", "30s")

	// Logging
	logDefaults := logging.DefaultConfig()
	v.SetDefault("log.level", logDefaults.Level)
	v.SetDefault("log.format", logDefaults.Format)
	v.SetDefault("log.no_terminal", false)
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", logDefaults.MaxSizeMB)
	v.SetDefault("log.max_backups", logDefaults.MaxBackups)
	v.SetDefault("log.max_age_days", logDefaults.MaxAgeDays)
	v.SetDefault("log.compress", false)

	// Scan
	v.SetDefault("scan.concurrency", 4)
	v.SetDefault("scan.buffer_size", 1<<20)
	v.SetDefault("scan.decompress", false)
}

// Load reads cfgFile, or searches ./config.yaml, ./.rangefs/config.yaml and
// $HOME/.rangefs/config.yaml when cfgFile is empty. A missing search-path
// file is not an error; defaults and environment variables still apply.
// It returns the path of the file used, if any.
func Load(v *viper.Viper, cfgFile string) (Config, string, error) {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath(".rangefs")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".rangefs"))
		}
		v.SetConfigType("yaml")
		v.SetConfigName("config")
	}

	used := ""
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, "", fmt.Errorf("config: read %s: %w", cfgFile, err)
		}
	} else {
		used = v.ConfigFileUsed()
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, used, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, used, err
	}
	return cfg, used, nil
}

// Validate checks settings that have no safe fallback.
func (c Config) Validate() error {
	if err := c.Connection.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.Scan.Concurrency < 1 {
		return fmt.Errorf("config: scan.concurrency must be at least 1, got %d", c.Scan.Concurrency)
	}
	if c.Scan.BufferSize < 1 {
		return fmt.Errorf("config: scan.buffer_size must be at least 1, got %d", c.Scan.BufferSize)
	}
	return nil
}
