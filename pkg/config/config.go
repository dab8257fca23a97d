// Package config loads and validates the dwhbench configuration from a
// YAML file with DWHBENCH_* environment variable overrides.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	// DefaultLogLevel is the default logging level.
	DefaultLogLevel = "info"

	// DefaultReportsDir is the default directory for benchmark artifacts.
	DefaultReportsDir = "./data/reports"

	// DefaultIterations is the default number of measured iterations per query.
	DefaultIterations = 7

	// DefaultWarmup is the default number of discarded warmup iterations.
	DefaultWarmup = 1

	// EnvPrefix is the prefix for environment variable overrides.
	EnvPrefix = "DWHBENCH"
)

// Config is the root configuration for dwhbench.
type Config struct {
	LogLevel string      `yaml:"log_level" mapstructure:"log_level"`
	Store    StoreConfig `yaml:"store" mapstructure:"store"`
	Bench    BenchConfig `yaml:"bench" mapstructure:"bench"`
	Index    IndexConfig `yaml:"index" mapstructure:"index"`
	Upload   S3Config    `yaml:"upload" mapstructure:"upload"`
}

// StoreConfig contains connection settings for the warehouse under test.
type StoreConfig struct {
	Host     string `yaml:"host" mapstructure:"host"`
	Port     int    `yaml:"port" mapstructure:"port"`
	User     string `yaml:"user" mapstructure:"user"`
	Password string `yaml:"password" mapstructure:"password"`
	Database string `yaml:"database" mapstructure:"database"`
	SSLMode  string `yaml:"sslmode" mapstructure:"sslmode"`
}

// DSN builds the connection string for the store.
func (c StoreConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// BenchConfig contains benchmark-specific settings.
type BenchConfig struct {
	ReportsDir string `yaml:"reports_dir" mapstructure:"reports_dir"`
	Iterations int    `yaml:"iterations" mapstructure:"iterations"`
	Warmup     int    `yaml:"warmup" mapstructure:"warmup"`

	// CountRelations are the relations whose row counts are collected as
	// per-run diagnostics. Counting failures are recorded as unavailable,
	// never treated as a run failure.
	CountRelations []string `yaml:"count_relations" mapstructure:"count_relations"`

	// BatchRelations maps a source tier name to the relation scanned for
	// distinct batch ids.
	BatchRelations map[string]string `yaml:"batch_relations" mapstructure:"batch_relations"`
}

// IndexConfig contains run index database settings.
type IndexConfig struct {
	Enabled  bool           `yaml:"enabled" mapstructure:"enabled"`
	Driver   string         `yaml:"driver" mapstructure:"driver"`
	SQLite   SQLiteConfig   `yaml:"sqlite,omitempty" mapstructure:"sqlite"`
	Postgres PostgresConfig `yaml:"postgres,omitempty" mapstructure:"postgres"`
}

// SQLiteConfig contains SQLite-specific settings for the run index.
type SQLiteConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// PostgresConfig contains PostgreSQL settings for the run index.
type PostgresConfig struct {
	Host     string `yaml:"host" mapstructure:"host"`
	Port     int    `yaml:"port" mapstructure:"port"`
	User     string `yaml:"user" mapstructure:"user"`
	Password string `yaml:"password" mapstructure:"password"`
	Database string `yaml:"database" mapstructure:"database"`
	SSLMode  string `yaml:"sslmode" mapstructure:"sslmode"`
}

// S3Config contains S3-compatible settings for artifact uploads.
type S3Config struct {
	Bucket          string `yaml:"bucket" mapstructure:"bucket"`
	Prefix          string `yaml:"prefix,omitempty" mapstructure:"prefix"`
	Region          string `yaml:"region,omitempty" mapstructure:"region"`
	EndpointURL     string `yaml:"endpoint_url,omitempty" mapstructure:"endpoint_url"`
	AccessKeyID     string `yaml:"access_key_id,omitempty" mapstructure:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key,omitempty" mapstructure:"secret_access_key"`
	ForcePathStyle  bool   `yaml:"force_path_style" mapstructure:"force_path_style"`
}

// Load reads the configuration file at path, applies DWHBENCH_*
// environment overrides, then defaults. A missing file is tolerated
// when path is empty; everything then comes from environment variables
// and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Keys must be registered for AutomaticEnv to surface them through
	// Unmarshal even when absent from the config file.
	for _, key := range configKeys {
		v.SetDefault(key, nil)
	}

	if path != "" {
		v.SetConfigFile(path)

		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, nil
}

// configKeys lists every scalar key that can be overridden from the
// environment.
var configKeys = []string{
	"log_level",
	"store.host", "store.port", "store.user", "store.password",
	"store.database", "store.sslmode",
	"bench.reports_dir", "bench.iterations", "bench.warmup",
	"index.enabled", "index.driver", "index.sqlite.path",
	"upload.bucket", "upload.prefix", "upload.region",
	"upload.endpoint_url", "upload.access_key_id",
	"upload.secret_access_key", "upload.force_path_style",
}

// applyDefaults sets default values for unspecified configuration options.
func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}

	if c.Store.Host == "" {
		c.Store.Host = "postgres"
	}

	if c.Store.Port == 0 {
		c.Store.Port = 5432
	}

	if c.Store.User == "" {
		c.Store.User = "nyc"
	}

	if c.Store.Password == "" {
		c.Store.Password = "nyc"
	}

	if c.Store.Database == "" {
		c.Store.Database = "nyc_taxi"
	}

	if c.Store.SSLMode == "" {
		c.Store.SSLMode = "disable"
	}

	if c.Bench.ReportsDir == "" {
		c.Bench.ReportsDir = DefaultReportsDir
	}

	if c.Bench.Iterations == 0 {
		c.Bench.Iterations = DefaultIterations
	}

	if c.Bench.Warmup == 0 {
		c.Bench.Warmup = DefaultWarmup
	}

	if c.Bench.CountRelations == nil {
		c.Bench.CountRelations = []string{
			"raw.yellow_trips",
			"stg.stg_yellow_trips",
			"clean.clean_yellow_trips",
			"quarantine.quarantine_yellow_trips",
			"marts.marts_daily_revenue",
			"marts.marts_hourly_peak",
		}
	}

	if c.Bench.BatchRelations == nil {
		c.Bench.BatchRelations = map[string]string{
			"raw":   "raw.yellow_trips",
			"clean": "clean.clean_yellow_trips",
		}
	}

	if c.Index.Driver == "" {
		c.Index.Driver = "sqlite"
	}

	if c.Index.SQLite.Path == "" {
		c.Index.SQLite.Path = "./data/bench_index.db"
	}

	if c.Index.Postgres.Port == 0 {
		c.Index.Postgres.Port = 5432
	}

	if c.Index.Postgres.SSLMode == "" {
		c.Index.Postgres.SSLMode = "disable"
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Bench.Iterations < 0 {
		return fmt.Errorf("bench.iterations must not be negative")
	}

	if c.Bench.Warmup < 0 {
		return fmt.Errorf("bench.warmup must not be negative")
	}

	if c.Bench.ReportsDir == "" {
		return fmt.Errorf("bench.reports_dir is required")
	}

	switch c.Index.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported index driver: %s", c.Index.Driver)
	}

	return nil
}
