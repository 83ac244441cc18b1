package measure

import (
	"fmt"
	"sort"
)

// Entry is one measure listed for a component.
type Entry struct {
	MetricKey string
	Measure   Measure
}

// Repository stores the measures of one report pass.
// Current lookups see every measure added earlier in the same pass.
type Repository interface {
	Add(ref int, metric Metric, m Measure) error
	FindCurrent(ref int, metric Metric) (Measure, bool)
	FindBreakdown(ref int, metric Metric, b Breakdown) (Measure, bool)
	FindRaw(ref int, metric Metric) (Measure, bool)
	ListCurrent(ref int) []Entry
}

type measureKey struct {
	ref       int
	metric    string
	breakdown Breakdown
}

// MemoryRepository is the in-memory Repository used for one report.
type MemoryRepository struct {
	raw     map[measureKey]Measure
	current map[measureKey]Measure
	byRef   map[int][]measureKey
}

var _ Repository = &MemoryRepository{} // Compile-time check

// NewMemoryRepository creates an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		raw:     make(map[measureKey]Measure),
		current: make(map[measureKey]Measure),
		byRef:   make(map[int][]measureKey),
	}
}

func checkKind(metric Metric, m Measure) error {
	if m.Value.HasValue() && m.Value.Kind() != metric.Kind {
		return &ConfigurationError{Err: fmt.Errorf("metric %q expects %s, got %s: %w",
			metric.Key, metric.Kind, m.Value.Kind(), &KindMismatchError{Held: m.Value.Kind(), Requested: metric.Kind})}
	}
	return nil
}

// Seed records a measure reported by the analysis. Seeded measures are both raw and current.
func (r *MemoryRepository) Seed(ref int, metric Metric, m Measure) error {
	if err := r.Add(ref, metric, m); err != nil {
		return err
	}
	r.raw[measureKey{ref: ref, metric: metric.Key, breakdown: m.Breakdown}] = m
	return nil
}

// Add records a computed measure. A measure can be added only once per
// component, metric and breakdown.
func (r *MemoryRepository) Add(ref int, metric Metric, m Measure) error {
	if err := checkKind(metric, m); err != nil {
		return err
	}
	key := measureKey{ref: ref, metric: metric.Key, breakdown: m.Breakdown}
	if _, exists := r.current[key]; exists {
		return fmt.Errorf("%w: ref %d metric %q", ErrMeasureExists, ref, metric.Key)
	}
	r.current[key] = m
	r.byRef[ref] = append(r.byRef[ref], key)
	return nil
}

// FindCurrent returns the component-wide measure for a metric.
func (r *MemoryRepository) FindCurrent(ref int, metric Metric) (Measure, bool) {
	return r.FindBreakdown(ref, metric, Breakdown{})
}

// FindBreakdown returns the measure for a metric narrowed by b.
func (r *MemoryRepository) FindBreakdown(ref int, metric Metric, b Breakdown) (Measure, bool) {
	m, ok := r.current[measureKey{ref: ref, metric: metric.Key, breakdown: b}]
	return m, ok
}

// FindRaw returns the component-wide measure as reported by the analysis.
func (r *MemoryRepository) FindRaw(ref int, metric Metric) (Measure, bool) {
	m, ok := r.raw[measureKey{ref: ref, metric: metric.Key}]
	return m, ok
}

// ListCurrent returns every measure of a component ordered by metric key, then breakdown.
func (r *MemoryRepository) ListCurrent(ref int) []Entry {
	keys := r.byRef[ref]
	out := make([]Entry, 0, len(keys))
	for _, k := range keys {
		out = append(out, Entry{MetricKey: k.metric, Measure: r.current[k]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.MetricKey != b.MetricKey {
			return a.MetricKey < b.MetricKey
		}
		if a.Measure.Breakdown.RuleID != b.Measure.Breakdown.RuleID {
			return a.Measure.Breakdown.RuleID < b.Measure.Breakdown.RuleID
		}
		return a.Measure.Breakdown.CharacteristicID < b.Measure.Breakdown.CharacteristicID
	})
	return out
}

// Len returns the number of measures held.
func (r *MemoryRepository) Len() int {
	return len(r.current)
}
