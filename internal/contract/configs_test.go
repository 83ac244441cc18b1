package contract

import (
	"log/slog"
	"testing"
	"time"

	"github.com/huangsam/tally/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validInput returns raw input equivalent to the CLI defaults.
func validInput() *ConfigRawInput {
	return &ConfigRawInput{
		StoreBackend: string(schema.SQLiteBackend),
		LogLevel:     "info",
		LogFormat:    "text",
		Output:       "text",
		Precision:    DefaultPrecision,
		Color:        "yes",
		Limit:        DefaultListLimit,
	}
}

func TestProcessAndValidate(t *testing.T) {
	tests := []struct {
		name        string
		modify      func(*ConfigRawInput)
		expectError bool
	}{
		{name: "valid minimal config", modify: func(*ConfigRawInput) {}},
		{name: "none backend", modify: func(in *ConfigRawInput) { in.StoreBackend = "none" }},
		{name: "backend is case insensitive", modify: func(in *ConfigRawInput) { in.StoreBackend = "SQLite" }},
		{name: "invalid backend", modify: func(in *ConfigRawInput) { in.StoreBackend = "oracle" }, expectError: true},
		{name: "mysql without connection", modify: func(in *ConfigRawInput) { in.StoreBackend = "mysql" }, expectError: true},
		{
			name: "mysql with connection",
			modify: func(in *ConfigRawInput) {
				in.StoreBackend = "mysql"
				in.StoreDBConnect = "root:pw@tcp(localhost:3306)/tally"
			},
		},
		{
			name: "postgresql missing dbname",
			modify: func(in *ConfigRawInput) {
				in.StoreBackend = "postgresql"
				in.StoreDBConnect = "host=localhost user=postgres"
			},
			expectError: true,
		},
		{name: "invalid output", modify: func(in *ConfigRawInput) { in.Output = "xml" }, expectError: true},
		{name: "parquet without file", modify: func(in *ConfigRawInput) { in.Output = "parquet" }, expectError: true},
		{
			name: "parquet with file",
			modify: func(in *ConfigRawInput) {
				in.Output = "parquet"
				in.OutputFile = "out.parquet"
			},
		},
		{name: "precision too high", modify: func(in *ConfigRawInput) { in.Precision = 5 }, expectError: true},
		{name: "invalid color", modify: func(in *ConfigRawInput) { in.Color = "maybe" }, expectError: true},
		{name: "invalid log level", modify: func(in *ConfigRawInput) { in.LogLevel = "loud" }, expectError: true},
		{name: "invalid log format", modify: func(in *ConfigRawInput) { in.LogFormat = "xml" }, expectError: true},
		{name: "invalid poll interval", modify: func(in *ConfigRawInput) { in.PollInterval = "soon" }, expectError: true},
		{name: "negative stale after", modify: func(in *ConfigRawInput) { in.StaleAfter = "-1m" }, expectError: true},
		{name: "negative max reports", modify: func(in *ConfigRawInput) { in.MaxReports = -1 }, expectError: true},
		{name: "negative report id", modify: func(in *ConfigRawInput) { in.ReportID = -3 }, expectError: true},
		{name: "limit too high", modify: func(in *ConfigRawInput) { in.Limit = MaxListLimit + 1 }, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validInput()
			tt.modify(input)

			cfg := &Config{}
			err := ProcessAndValidate(cfg, input)
			if tt.expectError {
				assert.Error(t, err, "contract.ProcessAndValidate should return an error for %s", tt.name)
			} else {
				assert.NoError(t, err, "contract.ProcessAndValidate should not return an error for %s", tt.name)
			}
		})
	}
}

func TestProcessAndValidate_Defaults(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, validInput()))

	assert.Equal(t, schema.SQLiteBackend, cfg.StoreBackend)
	assert.Equal(t, DefaultPollInterval, cfg.PollInterval)
	assert.Equal(t, DefaultStaleAfter, cfg.StaleAfter)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.NotEmpty(t, cfg.WorkerID)
	assert.True(t, cfg.UseColors)
	assert.Equal(t, schema.TextOut, cfg.Output)
}

func TestProcessAndValidate_WorkerOverrides(t *testing.T) {
	input := validInput()
	input.WorkerID = "  worker-7 "
	input.PollInterval = "250ms"
	input.StaleAfter = "1h"
	input.MaxReports = 3
	input.LogLevel = "DEBUG"
	input.LogFormat = "JSON"

	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, input))

	assert.Equal(t, "worker-7", cfg.WorkerID)
	assert.Equal(t, 250*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, time.Hour, cfg.StaleAfter)
	assert.Equal(t, 3, cfg.MaxReports)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestValidateDatabaseConnectionString(t *testing.T) {
	tests := []struct {
		name    string
		backend schema.DatabaseBackend
		connStr string
		wantErr bool
	}{
		{"sqlite empty", schema.SQLiteBackend, "", false},
		{"none empty", schema.NoneBackend, "", false},
		{"mysql valid", schema.MySQLBackend, "u:p@tcp(db:3306)/tally", false},
		{"mysql missing tcp", schema.MySQLBackend, "u:p@db/tally", true},
		{"postgres valid", schema.PostgreSQLBackend, "host=db port=5432 dbname=tally", false},
		{"postgres missing host", schema.PostgreSQLBackend, "dbname=tally", true},
		{"postgres empty", schema.PostgreSQLBackend, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDatabaseConnectionString(tt.backend, tt.connStr)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
