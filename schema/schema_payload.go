package schema

import "time"

// ReportPayload is the deserialized content of one analysis report.
type ReportPayload struct {
	ProjectKey   string             `yaml:"project" json:"project"`
	AnalysisDate time.Time          `yaml:"analysis_date" json:"analysis_date"`
	RootRef      int                `yaml:"root" json:"root"`
	Components   []PayloadComponent `yaml:"components" json:"components"`
	Measures     []PayloadMeasure   `yaml:"measures" json:"measures"`
	Issues       []PayloadIssue     `yaml:"issues" json:"issues"`
	Sources      []PayloadSource    `yaml:"sources" json:"sources"`
	Debt         PayloadDebtModel   `yaml:"debt" json:"debt"`
}

// PayloadComponent is one node of the reported component tree.
type PayloadComponent struct {
	Ref      int    `yaml:"ref" json:"ref"`
	Key      string `yaml:"key" json:"key"`
	Name     string `yaml:"name" json:"name"`
	Type     string `yaml:"type" json:"type"`
	Children []int  `yaml:"children" json:"children"`
}

// PayloadMeasure is a raw measure reported for a component.
// Exactly one of the value fields is expected to be set.
type PayloadMeasure struct {
	Ref         int      `yaml:"ref" json:"ref"`
	Metric      string   `yaml:"metric" json:"metric"`
	Int         *int32   `yaml:"int,omitempty" json:"int,omitempty"`
	Long        *int64   `yaml:"long,omitempty" json:"long,omitempty"`
	Double      *float64 `yaml:"double,omitempty" json:"double,omitempty"`
	Bool        *bool    `yaml:"bool,omitempty" json:"bool,omitempty"`
	Text        *string  `yaml:"text,omitempty" json:"text,omitempty"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	// Variations are deltas against up to five historical periods, null where a period has none.
	Variations []*float64 `yaml:"variations,omitempty" json:"variations,omitempty"`
}

// PayloadIssue is an issue found by the analysis on a component.
type PayloadIssue struct {
	Ref           int    `yaml:"ref" json:"ref"`
	RuleKey       string `yaml:"rule" json:"rule"`
	Line          int    `yaml:"line,omitempty" json:"line,omitempty"`
	Message       string `yaml:"message" json:"message"`
	EffortMinutes int64  `yaml:"effort_minutes,omitempty" json:"effort_minutes,omitempty"`
}

// PayloadSource holds the source lines of a file.
type PayloadSource struct {
	Ref   int      `yaml:"ref" json:"ref"`
	Lines []string `yaml:"lines" json:"lines"`
}

// PayloadDebtModel is the debt taxonomy in effect for the analysis.
type PayloadDebtModel struct {
	Characteristics []PayloadCharacteristic `yaml:"characteristics" json:"characteristics"`
	Rules           []PayloadRule           `yaml:"rules" json:"rules"`
}

// PayloadCharacteristic is one node of the debt taxonomy.
type PayloadCharacteristic struct {
	ID       int    `yaml:"id" json:"id"`
	Key      string `yaml:"key" json:"key"`
	Name     string `yaml:"name,omitempty" json:"name,omitempty"`
	ParentID int    `yaml:"parent,omitempty" json:"parent,omitempty"`
}

// PayloadRule binds a rule key to its id and debt characteristic.
type PayloadRule struct {
	ID               int    `yaml:"id" json:"id"`
	Key              string `yaml:"key" json:"key"`
	CharacteristicID int    `yaml:"characteristic,omitempty" json:"characteristic,omitempty"`
}
