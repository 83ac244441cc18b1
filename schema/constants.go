package schema

// Custom string types for type safety.
type (
	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for the store.
	DatabaseBackend string

	// ReportStatus represents the lifecycle state of a submitted report.
	ReportStatus string

	// QueueStatus represents the booking state of a queue item.
	QueueStatus string

	// IssueStatus represents the tracked state of an issue.
	IssueStatus string
)

// All output modes supported.
const (
	CSVOut     OutputMode = "csv"
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All store backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// Report activity statuses.
const (
	PendingReport ReportStatus = "PENDING"
	SuccessReport ReportStatus = "SUCCESS"
	FailedReport  ReportStatus = "FAILED"
)

// Queue item statuses.
const (
	PendingItem QueueStatus = "PENDING"
	WorkingItem QueueStatus = "WORKING"
)

// Issue statuses.
const (
	OpenIssue   IssueStatus = "OPEN"
	ClosedIssue IssueStatus = "CLOSED"
)

// Issue resolutions.
const (
	ResolutionFixed   = "FIXED"
	ResolutionRemoved = "REMOVED"
)

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:     {},
	TextOut:    {},
	JSONOut:    {},
	ParquetOut: {},
}

// ValidDatabaseBackends lists all valid store backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}
