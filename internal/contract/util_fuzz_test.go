package contract

import (
	"testing"

	"github.com/huangsam/tally/schema"
)

// FuzzValidateDatabaseConnectionString fuzzes connection string validation for every backend.
func FuzzValidateDatabaseConnectionString(f *testing.F) {
	seeds := []struct {
		backend string
		connStr string
	}{
		{"mysql", "root:pw@tcp(localhost:3306)/tally"},
		{"postgresql", "host=localhost dbname=tally"},
		{"sqlite", "/tmp/tally.db"},
		{"none", ""},
		{"", ""},
	}
	for _, seed := range seeds {
		f.Add(seed.backend, seed.connStr)
	}

	f.Fuzz(func(_ *testing.T, backend string, connStr string) {
		_ = ValidateDatabaseConnectionString(schema.DatabaseBackend(backend), connStr)
		_, _ = ParseBoolString(connStr)
	})
}
