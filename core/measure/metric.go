package measure

import (
	"fmt"
	"sort"
)

// Metric is the immutable definition of a measurable quantity.
type Metric struct {
	Key  string
	Name string
	Kind ValueKind

	// BestValueOptimized means a missing measure is equivalent to BestValue,
	// so measures holding the best value need not be stored.
	BestValueOptimized bool
	BestValue          *float64
}

// IsBestValue reports whether v is numeric and equal to the metric's best value.
func (m Metric) IsBestValue(v Value) bool {
	if m.BestValue == nil || !v.Kind().IsNumeric() {
		return false
	}
	d, ok := LenientDouble(v)
	return ok && d == *m.BestValue
}

// MetricRepository resolves metric keys to definitions.
type MetricRepository interface {
	GetByKey(key string) (Metric, error)
	All() []Metric
}

// MapMetricRepository is an in-memory MetricRepository.
type MapMetricRepository struct {
	byKey map[string]Metric
}

var _ MetricRepository = &MapMetricRepository{} // Compile-time check

// NewMetricRepository indexes the given metrics by key. Duplicate keys are rejected.
func NewMetricRepository(metrics ...Metric) (*MapMetricRepository, error) {
	repo := &MapMetricRepository{byKey: make(map[string]Metric, len(metrics))}
	for _, m := range metrics {
		if m.Key == "" {
			return nil, fmt.Errorf("metric key cannot be empty")
		}
		if _, dup := repo.byKey[m.Key]; dup {
			return nil, fmt.Errorf("duplicate metric key %q", m.Key)
		}
		repo.byKey[m.Key] = m
	}
	return repo, nil
}

// GetByKey returns the metric for key. A missing key is a configuration error.
func (r *MapMetricRepository) GetByKey(key string) (Metric, error) {
	m, ok := r.byKey[key]
	if !ok {
		return Metric{}, &ConfigurationError{Err: fmt.Errorf("%w: %q", ErrMetricNotFound, key)}
	}
	return m, nil
}

// All returns every metric sorted by key.
func (r *MapMetricRepository) All() []Metric {
	out := make([]Metric, 0, len(r.byKey))
	for _, m := range r.byKey {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
