package contract

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/huangsam/tally/schema"
)

// Default values for configuration.
const (
	DefaultPollInterval = 2 * time.Second
	DefaultStaleAfter   = 30 * time.Minute
	DefaultPrecision    = 1
	DefaultListLimit    = 20
	MaxListLimit        = 1000
)

// DateTimeFormat is the default date time representation.
var DateTimeFormat = time.RFC3339

// Config holds the runtime configuration.
// This struct is the "final, validated" config.
type Config struct {
	StoreBackend   schema.DatabaseBackend
	StoreDBConnect string // Please use env var as this is plaintext

	WorkerID     string
	PollInterval time.Duration
	StaleAfter   time.Duration
	MaxReports   int // 0 = run until stopped
	MetricsAddr  string

	LogLevel  slog.Level
	LogFormat string

	Output     schema.OutputMode
	OutputFile string
	Precision  int
	Width      int // Terminal width override (0 = auto-detect)
	UseColors  bool

	Project  string
	ReportID int64
	Limit    int
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// --- Fields from rootCmd.PersistentFlags() ---
	StoreBackend   string `mapstructure:"store-backend"`
	StoreDBConnect string `mapstructure:"store-db-connect"`
	LogLevel       string `mapstructure:"log-level"`
	LogFormat      string `mapstructure:"log-format"`
	Output         string `mapstructure:"output"`
	OutputFile     string `mapstructure:"output-file"`
	Precision      int    `mapstructure:"precision"`
	Width          int    `mapstructure:"width"`
	Color          string `mapstructure:"color"`

	// --- Fields from workerCmd.Flags() ---
	WorkerID     string `mapstructure:"worker-id"`
	PollInterval string `mapstructure:"poll-interval"`
	StaleAfter   string `mapstructure:"stale-after"`
	MaxReports   int    `mapstructure:"max-reports"`
	MetricsAddr  string `mapstructure:"metrics-addr"`

	// --- Fields from query commands ---
	Project  string `mapstructure:"project"`
	ReportID int64  `mapstructure:"report-id"`
	Limit    int    `mapstructure:"limit"`
}

// DefaultWorkerID identifies this process among concurrent workers.
func DefaultWorkerID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "tally"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfig(cfg, input); err != nil {
		return err
	}
	if err := processWorkerInputs(cfg, input); err != nil {
		return err
	}
	return nil
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("store-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' followed by host:port")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("store-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// ParseLogLevel maps a level name to a slog.Level.
func ParseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if s == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level '%s'. must be debug, info, warn, error", s)
	}
	return level, nil
}

// validateSimpleInputs processes and validates output and logging fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width
	cfg.Project = input.Project

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	if input.Precision < 1 || input.Precision > 4 {
		return fmt.Errorf("precision must be between 1 and 4 (received %d)", input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, parquet", input.Output)
	}
	if cfg.Output == schema.ParquetOut && cfg.OutputFile == "" {
		return fmt.Errorf("parquet output requires --output-file")
	}

	if input.ReportID < 0 {
		return fmt.Errorf("report-id cannot be negative (received %d)", input.ReportID)
	}
	cfg.ReportID = input.ReportID

	if input.Limit <= 0 || input.Limit > MaxListLimit {
		return fmt.Errorf("limit must be greater than 0 and cannot exceed %d (received %d)", MaxListLimit, input.Limit)
	}
	cfg.Limit = input.Limit

	level, err := ParseLogLevel(input.LogLevel)
	if err != nil {
		return err
	}
	cfg.LogLevel = level

	cfg.LogFormat = strings.ToLower(input.LogFormat)
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return fmt.Errorf("invalid log format '%s'. must be text, json", input.LogFormat)
	}
	return nil
}

// validateBackendConfig validates the store backend configuration.
func validateBackendConfig(cfg *Config, input *ConfigRawInput) error {
	cfg.StoreBackend = schema.DatabaseBackend(strings.ToLower(input.StoreBackend))
	if _, ok := schema.ValidDatabaseBackends[cfg.StoreBackend]; !ok {
		return fmt.Errorf("invalid store backend '%s'. must be sqlite, mysql, postgresql, none", input.StoreBackend)
	}
	cfg.StoreDBConnect = input.StoreDBConnect
	return ValidateDatabaseConnectionString(cfg.StoreBackend, cfg.StoreDBConnect)
}

// processWorkerInputs handles the worker loop parameters.
func processWorkerInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.WorkerID = strings.TrimSpace(input.WorkerID)
	if cfg.WorkerID == "" {
		cfg.WorkerID = DefaultWorkerID()
	}

	cfg.PollInterval = DefaultPollInterval
	if input.PollInterval != "" {
		d, err := time.ParseDuration(input.PollInterval)
		if err != nil || d <= 0 {
			return fmt.Errorf("invalid poll-interval '%s'. must be a positive duration such as 2s", input.PollInterval)
		}
		cfg.PollInterval = d
	}

	cfg.StaleAfter = DefaultStaleAfter
	if input.StaleAfter != "" {
		d, err := time.ParseDuration(input.StaleAfter)
		if err != nil || d <= 0 {
			return fmt.Errorf("invalid stale-after '%s'. must be a positive duration such as 30m", input.StaleAfter)
		}
		cfg.StaleAfter = d
	}

	if input.MaxReports < 0 {
		return fmt.Errorf("max-reports cannot be negative (received %d)", input.MaxReports)
	}
	cfg.MaxReports = input.MaxReports
	cfg.MetricsAddr = input.MetricsAddr
	return nil
}
