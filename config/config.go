// Package config loads the shared toolchain configuration.
//
// Configuration lives in files named "iss4e.yaml" that are discovered in
// the working directory (and its "instance" subdirectory), every parent
// directory, and the user's home directory. All files found are merged
// into a single configuration, with the more specific location winning
// on conflicts, so a project can extend the researcher's machine-wide
// defaults (credentials, hostnames) without repeating them.
//
// Values may reference environment variables as ${VAR}; references are
// expanded before parsing. When the merged configuration carries a
// "logging" section, loading reconfigures the process-wide logger.
package config

import (
	"bytes"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/iss4e/toolchain/internal/pathsearch"
	"github.com/iss4e/toolchain/logutil"
)

// FileName is the name of the configuration file searched for in every
// candidate location.
const FileName = "iss4e.yaml"

// Config holds the typed sections of the merged configuration. Keys
// outside these sections stay reachable through Viper().
type Config struct {
	Logging     LoggingConfig     `mapstructure:"logging"`
	Datasources DatasourcesConfig `mapstructure:"datasources"`

	v *viper.Viper
}

// LoggingConfig controls the process-wide logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DatasourcesConfig groups the shared datasource definitions that
// projects extend with their own database names.
type DatasourcesConfig struct {
	Timescale TimescaleConfig `mapstructure:"timescale"`
}

// TimescaleConfig describes a TimescaleDB connection.
type TimescaleConfig struct {
	Host              string `mapstructure:"host"`
	Port              int    `mapstructure:"port"`
	Name              string `mapstructure:"name"`
	User              string `mapstructure:"user"`
	Password          string `mapstructure:"password"`
	SSLMode           string `mapstructure:"ssl_mode"`
	MaxConnections    int    `mapstructure:"max_connections"`
	ConnectionTimeout int    `mapstructure:"connection_timeout"`
}

// ConnectionString renders the config as a lib/pq keyword/value DSN.
func (c TimescaleConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s connect_timeout=%d",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.ConnectionTimeout,
	)
}

// Load discovers, merges and parses every configuration file reachable
// from cwd. Missing files are skipped silently; a file that exists but
// fails to parse aborts the load. When a logging section is present the
// standard logger is reconfigured from it.
func Load(cwd string) (*Config, error) {
	files := pathsearch.Existing(pathsearch.Candidates(FileName, cwd))

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)

	// Merge from the most general location to the most specific one, so
	// the later merges win.
	for i := len(files) - 1; i >= 0; i-- {
		data, err := os.ReadFile(files[i])
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", files[i], err)
		}
		expanded := os.ExpandEnv(string(data))
		if err := v.MergeConfig(bytes.NewReader([]byte(expanded))); err != nil {
			return nil, fmt.Errorf("failed to merge config file %s: %w", files[i], err)
		}
	}

	cfg := &Config{v: v}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if v.IsSet("logging") {
		if err := logutil.Configure(logrus.StandardLogger(), cfg.Logging.Level, cfg.Logging.Format); err != nil {
			return nil, fmt.Errorf("failed to configure logging: %w", err)
		}
	}

	return cfg, nil
}

// Viper exposes the underlying merged configuration for keys outside the
// typed sections (project-specific blocks extend the shared file freely).
func (c *Config) Viper() *viper.Viper { return c.v }

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("datasources.timescale.host", "localhost")
	v.SetDefault("datasources.timescale.port", 5432)
	v.SetDefault("datasources.timescale.ssl_mode", "disable")
	v.SetDefault("datasources.timescale.max_connections", 10)
	v.SetDefault("datasources.timescale.connection_timeout", 5)
}
