package formula

import (
	"github.com/huangsam/tally/core/measure"
)

// AverageFormula divides a numerator metric by a denominator metric.
// Non-file components combine the direct children's values rather than a counter,
// since both metrics must be present together on each child.
type AverageFormula struct {
	output      string
	numerator   string
	denominator string
	fallback    string
}

var _ Formula = &AverageFormula{} // Compile-time check

// NewAverage creates output = numerator / denominator.
func NewAverage(output, numerator, denominator string) *AverageFormula {
	return &AverageFormula{output: output, numerator: numerator, denominator: denominator}
}

// WithFallback returns a copy that reads fallback when the numerator is missing.
func (f *AverageFormula) WithFallback(fallback string) *AverageFormula {
	cp := *f
	cp.fallback = fallback
	return &cp
}

func (f *AverageFormula) sealed() {}

// OutputMetricKey implements Formula.
func (f *AverageFormula) OutputMetricKey() string {
	return f.output
}

// NewCounter implements Formula. Averages keep no state between components.
func (f *AverageFormula) NewCounter() Counter {
	return noopCounter{}
}

// Compute implements Formula. An existing measure for the output metric always wins.
func (f *AverageFormula) Compute(ctx *Context, _ Counter) (measure.Measure, bool) {
	if existing, ok := ctx.Measure(ctx.Component.Ref, f.output); ok {
		return existing, true
	}
	metric := ctx.Metric(f.output)

	if ctx.Component.IsFile() {
		num, den, ok := f.pair(ctx, ctx.Component.Ref)
		if !ok {
			return measure.Measure{}, false
		}
		return measure.New(ratio(metric, num, den)), true
	}

	var totalNum, totalDen float64
	qualified := false
	for _, child := range ctx.Tree.Children(ctx.Component) {
		num, den, ok := f.pair(ctx, child.Ref)
		if !ok {
			continue
		}
		totalNum += num
		totalDen += den
		qualified = true
	}
	if !qualified {
		return measure.Measure{}, false
	}
	return measure.New(ratio(metric, totalNum, totalDen)), true
}

// pair reads numerator and denominator of one component. It fails unless
// both are present and the denominator is positive.
func (f *AverageFormula) pair(ctx *Context, ref int) (num, den float64, ok bool) {
	num, ok = ctx.lenientDouble(ref, f.numerator)
	if !ok && f.fallback != "" {
		num, ok = ctx.lenientDouble(ref, f.fallback)
	}
	if !ok {
		return 0, 0, false
	}
	den, ok = ctx.lenientDouble(ref, f.denominator)
	if !ok || den <= 0 {
		return 0, 0, false
	}
	return num, den, true
}

func ratio(metric measure.Metric, num, den float64) measure.Value {
	switch metric.Kind {
	case measure.Int:
		return measure.NewInt(int32(num / den))
	case measure.Long:
		return measure.NewLong(int64(num / den))
	default:
		return measure.NewDouble(num / den)
	}
}

type noopCounter struct{}

func (noopCounter) Initialize(*Context) {}
func (noopCounter) Aggregate(Counter)   {}
