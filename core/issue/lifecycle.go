package issue

import (
	"time"

	"github.com/google/uuid"
	"github.com/huangsam/tally/core/tracking"
	"github.com/huangsam/tally/schema"
)

// KeyGenerator creates keys for new issues.
type KeyGenerator func() string

// Lifecycle assigns identity and status once a file has been tracked.
type Lifecycle struct {
	newKey KeyGenerator
	now    func() time.Time
}

// NewLifecycle creates a Lifecycle with uuid keys and the wall clock.
func NewLifecycle() *Lifecycle {
	return &Lifecycle{newKey: uuid.NewString, now: time.Now}
}

// WithClock returns a copy using the given key generator and clock.
func (l *Lifecycle) WithClock(newKey KeyGenerator, now func() time.Time) *Lifecycle {
	return &Lifecycle{newKey: newKey, now: now}
}

// Apply updates the issues of one tracked file in place:
// matched raws take over the key and creation date of their base,
// unmatched raws get a fresh key, and unmatched bases are closed.
// It returns the closed bases.
func (l *Lifecycle) Apply(t *tracking.Tracking[*Issue, *Issue]) []*Issue {
	now := l.now()

	for _, p := range t.MatchedPairs() {
		p.Raw.Key = p.Base.Key
		p.Raw.CreatedAt = p.Base.CreatedAt
		p.Raw.New = false
		p.Raw.Status = schema.OpenIssue
		p.Raw.Resolution = ""
		p.Raw.UpdatedAt = now
	}
	for _, raw := range t.UnmatchedRaws() {
		raw.Key = l.newKey()
		raw.CreatedAt = now
		raw.UpdatedAt = now
		raw.New = true
		raw.Status = schema.OpenIssue
	}

	closed := t.UnmatchedBases()
	for _, base := range closed {
		Close(base, schema.ResolutionFixed, now)
	}
	return closed
}

// Close marks an issue as closed with a resolution.
func Close(i *Issue, resolution string, now time.Time) {
	i.Status = schema.ClosedIssue
	i.Resolution = resolution
	i.UpdatedAt = now
}
