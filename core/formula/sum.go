package formula

import (
	"fmt"
	"math"

	"github.com/huangsam/tally/core/measure"
)

// SumFormula sums a metric reported on files into every ancestor.
type SumFormula struct {
	key        string
	zeroIfNone bool
}

var _ Formula = &SumFormula{} // Compile-time check

// NewSum creates a sum that yields no measure when nothing below contributed.
func NewSum(key string) *SumFormula {
	return &SumFormula{key: key}
}

// NewSumWithZero creates a sum that yields 0 when nothing below contributed.
func NewSumWithZero(key string) *SumFormula {
	return &SumFormula{key: key, zeroIfNone: true}
}

func (f *SumFormula) sealed() {}

// OutputMetricKey implements Formula.
func (f *SumFormula) OutputMetricKey() string {
	return f.key
}

// NewCounter implements Formula.
func (f *SumFormula) NewCounter() Counter {
	return &sumCounter{key: f.key}
}

// Compute implements Formula. Files keep their reported value, so nothing is produced there.
func (f *SumFormula) Compute(ctx *Context, counter Counter) (measure.Measure, bool) {
	if ctx.Component.IsFile() {
		return measure.Measure{}, false
	}
	metric := ctx.Metric(f.key)
	c := counter.(*sumCounter)
	if !c.hasValue {
		if !f.zeroIfNone {
			return measure.Measure{}, false
		}
		return measure.New(zeroOf(metric)), true
	}

	switch metric.Kind {
	case measure.Int:
		sum := c.integral()
		if sum < math.MinInt32 || sum > math.MaxInt32 {
			panic(fmt.Errorf("%w: %s sums to %d on %s", measure.ErrValueOverflow, metric.Key, sum, ctx.Component.Key))
		}
		return measure.New(measure.NewInt(int32(sum))), true
	case measure.Long:
		return measure.New(measure.NewLong(c.integral())), true
	case measure.Double:
		return measure.New(measure.NewDouble(float64(c.long) + c.double)), true
	default:
		panic(&measure.ConfigurationError{Err: fmt.Errorf("cannot sum metric %q of kind %s", metric.Key, metric.Kind)})
	}
}

func zeroOf(metric measure.Metric) measure.Value {
	if !metric.Kind.IsNumeric() {
		panic(&measure.ConfigurationError{Err: fmt.Errorf("cannot sum metric %q of kind %s", metric.Key, metric.Kind)})
	}
	return measure.ZeroOf(metric.Kind)
}

type sumCounter struct {
	key      string
	long     int64
	double   float64
	hasValue bool
}

// Initialize reads the file's own value of the summed metric.
func (c *sumCounter) Initialize(ctx *Context) {
	m, ok := ctx.Measure(ctx.Component.Ref, c.key)
	if !ok || !m.Value.HasValue() {
		return
	}
	switch m.Value.Kind() {
	case measure.Int, measure.Long:
		l, _ := measure.LenientLong(m.Value)
		c.long += l
	default:
		d, _ := measure.LenientDouble(m.Value)
		c.double += d
	}
	c.hasValue = true
}

// Aggregate adds another sum counter.
func (c *sumCounter) Aggregate(other Counter) {
	o := other.(*sumCounter)
	if !o.hasValue {
		return
	}
	c.long += o.long
	c.double += o.double
	c.hasValue = true
}

func (c *sumCounter) integral() int64 {
	if c.double == 0 {
		return c.long
	}
	return int64(math.Round(float64(c.long) + c.double))
}
