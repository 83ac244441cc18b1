package schema

import "time"

// MeasureRecord represents a row from the tally_measures table.
type MeasureRecord struct {
	ReportID         int64      `json:"report_id"`
	ProjectKey       string     `json:"project_key"`
	ComponentKey     string     `json:"component_key"`
	MetricKey        string     `json:"metric_key"`
	RuleID           int        `json:"rule_id,omitempty"`
	CharacteristicID int        `json:"characteristic_id,omitempty"`
	Value            *float64   `json:"value,omitempty"`
	TextValue        *string    `json:"text_value,omitempty"`
	Variations       []*float64 `json:"variations,omitempty"`
	ComputedAt       time.Time  `json:"computed_at"`
}

// IssueRecord represents a row from the tally_issues table.
type IssueRecord struct {
	Key           string      `json:"key"`
	ProjectKey    string      `json:"project_key"`
	ComponentKey  string      `json:"component_key"`
	RuleKey       string      `json:"rule_key"`
	Line          int         `json:"line,omitempty"`
	LineHash      string      `json:"line_hash,omitempty"`
	Message       string      `json:"message"`
	EffortMinutes int64       `json:"effort_minutes"`
	Status        IssueStatus `json:"status"`
	Resolution    string      `json:"resolution,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// FileSourceRecord holds the per-line hashes of a file as of its last analysis.
type FileSourceRecord struct {
	ProjectKey   string    `json:"project_key"`
	ComponentKey string    `json:"component_key"`
	LineHashes   []string  `json:"line_hashes"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ReportOutput is everything one successful report writes to the store.
type ReportOutput struct {
	Measures []MeasureRecord
	Issues   []IssueRecord
	Sources  []FileSourceRecord
}

// Empty reports whether there is nothing to write.
func (o ReportOutput) Empty() bool {
	return len(o.Measures) == 0 && len(o.Issues) == 0 && len(o.Sources) == 0
}
