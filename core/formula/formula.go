// Package formula derives measures bottom-up over a component tree.
package formula

import (
	"github.com/huangsam/tally/core/component"
	"github.com/huangsam/tally/core/measure"
)

// Formula computes one output metric. The set of formulas is closed:
// SumFormula and AverageFormula.
type Formula interface {
	// OutputMetricKey is the metric the formula produces.
	OutputMetricKey() string
	// NewCounter creates the accumulator seeded at each file.
	NewCounter() Counter
	// Compute finalizes the measure of ctx.Component from its merged counter.
	Compute(ctx *Context, counter Counter) (measure.Measure, bool)

	sealed()
}

// Counter accumulates formula state from files upward.
// Aggregate must be associative and independent of child order.
type Counter interface {
	Initialize(ctx *Context)
	Aggregate(other Counter)
}

// Context gives formulas read access to the measures of the current pass.
type Context struct {
	Component *component.Component
	Tree      *component.Tree
	Metrics   measure.MetricRepository
	Measures  measure.Repository
}

// Metric resolves a metric key. Unknown keys panic with a configuration error,
// which Engine.Run turns back into an error.
func (ctx *Context) Metric(key string) measure.Metric {
	m, err := ctx.Metrics.GetByKey(key)
	if err != nil {
		panic(err)
	}
	return m
}

// Measure returns the current component-wide measure of ref for a metric key.
func (ctx *Context) Measure(ref int, key string) (measure.Measure, bool) {
	return ctx.Measures.FindCurrent(ref, ctx.Metric(key))
}

// lenientDouble reads a numeric measure, widening integral kinds.
func (ctx *Context) lenientDouble(ref int, key string) (float64, bool) {
	m, ok := ctx.Measure(ref, key)
	if !ok {
		return 0, false
	}
	return measure.LenientDouble(m.Value)
}
