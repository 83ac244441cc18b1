// Package issue holds the issue entity and assigns identity and status after tracking.
package issue

import (
	"time"

	"github.com/huangsam/tally/core/tracking"
	"github.com/huangsam/tally/schema"
)

// Issue is an issue of one file, either reported by the current analysis (raw)
// or loaded from the previous one (base).
type Issue struct {
	Key          string
	ComponentRef int
	ComponentKey string
	Rule         string
	LineNumber   int
	Checksum     string
	Message      string
	Effort       int64
	Status       schema.IssueStatus
	Resolution   string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	// New is set on raws that matched no base.
	New bool
}

var _ tracking.Trackable = &Issue{} // Compile-time check

// RuleKey implements tracking.Trackable.
func (i *Issue) RuleKey() string { return i.Rule }

// Line implements tracking.Trackable.
func (i *Issue) Line() int { return i.LineNumber }

// LineHash implements tracking.Trackable.
func (i *Issue) LineHash() string { return i.Checksum }

// EffortMinutes is the remediation effort.
func (i *Issue) EffortMinutes() int64 { return i.Effort }

// IsResolved reports whether the issue has a resolution.
func (i *Issue) IsResolved() bool { return i.Resolution != "" }

// FromPayload creates the raw issues of a file. Line hashes come from source
// when it is known.
func FromPayload(c Component, issues []schema.PayloadIssue, source *tracking.LineHashSequence) []*Issue {
	out := make([]*Issue, 0, len(issues))
	for _, pi := range issues {
		iss := &Issue{
			ComponentRef: c.Ref,
			ComponentKey: c.Key,
			Rule:         pi.RuleKey,
			LineNumber:   pi.Line,
			Message:      pi.Message,
			Effort:       pi.EffortMinutes,
			Status:       schema.OpenIssue,
		}
		if source != nil && pi.Line > 0 {
			iss.Checksum = source.HashForLine(pi.Line)
		}
		out = append(out, iss)
	}
	return out
}

// Component identifies the file an issue belongs to.
type Component struct {
	Ref int
	Key string
}

// FromRecord loads a stored issue as a base.
func FromRecord(ref int, r schema.IssueRecord) *Issue {
	return &Issue{
		Key:          r.Key,
		ComponentRef: ref,
		ComponentKey: r.ComponentKey,
		Rule:         r.RuleKey,
		LineNumber:   r.Line,
		Checksum:     r.LineHash,
		Message:      r.Message,
		Effort:       r.EffortMinutes,
		Status:       r.Status,
		Resolution:   r.Resolution,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

// Record converts the issue for storage.
func (i *Issue) Record(projectKey string) schema.IssueRecord {
	return schema.IssueRecord{
		Key:           i.Key,
		ProjectKey:    projectKey,
		ComponentKey:  i.ComponentKey,
		RuleKey:       i.Rule,
		Line:          i.LineNumber,
		LineHash:      i.Checksum,
		Message:       i.Message,
		EffortMinutes: i.Effort,
		Status:        i.Status,
		Resolution:    i.Resolution,
		CreatedAt:     i.CreatedAt,
		UpdatedAt:     i.UpdatedAt,
	}
}
