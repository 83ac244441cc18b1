package schema

import "time"

// StoreStatus represents the status of the tally store.
type StoreStatus struct {
	Backend        string           `json:"backend"`
	Connected      bool             `json:"connected"`
	PendingReports int              `json:"pending_reports"`
	WorkingReports int              `json:"working_reports"`
	TotalReports   int              `json:"total_reports"`
	FailedReports  int              `json:"failed_reports"`
	LastReportID   int64            `json:"last_report_id"`
	LastFinishedAt time.Time        `json:"last_finished_at"`
	TableSizes     map[string]int64 `json:"table_sizes"`
}
