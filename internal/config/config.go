package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
)

const (
	// DefaultCSVPath is the file name SF Open Data gives the export.
	DefaultCSVPath   = "Police_Department_Incident_Reports__2018_to_Present_20250801.csv"
	DefaultTable     = "incidents"
	DefaultBatchSize = 1000
)

var (
	ErrMissingDatabaseURL = errors.New("DATABASE_URL environment variable is not set")
	ErrMissingCSVPath     = errors.New("csv path is required")
	ErrInvalidBatchSize   = errors.New("batch size must be positive")
	ErrInvalidMaxRows     = errors.New("max rows must not be negative")
)

// Config holds everything a run needs.
type Config struct {
	DatabaseURL string `yaml:"database_url"`
	CSVPath     string `yaml:"csv_path"`
	Table       string `yaml:"table"`
	BatchSize   int    `yaml:"batch_size"`
	// MaxRows limits how many rows are read from the CSV; 0 means all. Handy
	// for a smoke-test load. Not exposed as a flag.
	MaxRows int `yaml:"max_rows"`
	// DryRun loads and classifies but never touches the database.
	DryRun bool `yaml:"-"`

	Log LogConfig `yaml:"log"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Default() Config {
	return Config{
		CSVPath:   DefaultCSVPath,
		Table:     DefaultTable,
		BatchSize: DefaultBatchSize,
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadDotEnv loads the given env files, skipping any that do not exist.
// Variables already set in the process win.
func LoadDotEnv(files ...string) {
	for _, f := range files {
		_ = godotenv.Load(f)
	}
}

// Load builds the configuration: defaults, then the optional YAML file at
// path, then the environment.
//
// Environment variables:
//   - DATABASE_URL: Postgres connection string (required)
//   - INCIDENTS_CSV_PATH: path to the export
//   - INCIDENTS_TABLE: target table (default: incidents)
//   - INCIDENTS_BATCH_SIZE: rows per INSERT (default: 1000)
//   - INCIDENTS_MAX_ROWS: only read the first N rows (default: 0, all)
//   - LOG_LEVEL, LOG_FORMAT: logging (default: info, console)
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString(&c.DatabaseURL, "DATABASE_URL")
	setString(&c.CSVPath, "INCIDENTS_CSV_PATH")
	setString(&c.Table, "INCIDENTS_TABLE")
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.Format, "LOG_FORMAT")
	if err := setInt(&c.BatchSize, "INCIDENTS_BATCH_SIZE"); err != nil {
		return err
	}
	return setInt(&c.MaxRows, "INCIDENTS_MAX_ROWS")
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

// ValidateSource checks the settings needed to read the CSV.
func (c Config) ValidateSource() error {
	if strings.TrimSpace(c.CSVPath) == "" {
		return ErrMissingCSVPath
	}
	if c.MaxRows < 0 {
		return ErrInvalidMaxRows
	}
	return nil
}

// Validate checks the settings needed for a full import. A dry run does not
// need a database.
func (c Config) Validate() error {
	if !c.DryRun && strings.TrimSpace(c.DatabaseURL) == "" {
		return ErrMissingDatabaseURL
	}
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}
	return c.ValidateSource()
}
