package debt

import (
	"fmt"
	"maps"
	"slices"

	"github.com/huangsam/tally/core/measure"
)

// Issue is what the calculator needs to know about an issue.
type Issue interface {
	RuleKey() string
	EffortMinutes() int64
	IsResolved() bool
}

type accumulator struct {
	ref              int
	minutes          int64
	byRule           map[int]int64
	byCharacteristic map[int]int64
}

func newAccumulator(ref int) *accumulator {
	return &accumulator{ref: ref, byRule: make(map[int]int64), byCharacteristic: make(map[int]int64)}
}

func (a *accumulator) merge(other *accumulator) {
	a.minutes += other.minutes
	for id, v := range other.byRule {
		a.byRule[id] += v
	}
	for id, v := range other.byCharacteristic {
		a.byCharacteristic[id] += v
	}
}

// Calculator sums the effort of unresolved issues per component, rule and characteristic.
// Accumulators live on an explicit stack that mirrors the open path of the crawl.
type Calculator struct {
	model    *Model
	metric   measure.Metric
	measures measure.Repository
	stack    []*accumulator
}

// NewCalculator resolves the debt metric and creates a Calculator.
func NewCalculator(model *Model, metrics measure.MetricRepository, measures measure.Repository) (*Calculator, error) {
	metric, err := metrics.GetByKey(measure.TechnicalDebtKey)
	if err != nil {
		return nil, err
	}
	return &Calculator{model: model, metric: metric, measures: measures}, nil
}

// Live returns the number of open accumulators.
func (c *Calculator) Live() int {
	return len(c.stack)
}

// Open starts the accumulator of a component.
func (c *Calculator) Open(ref int) {
	c.stack = append(c.stack, newAccumulator(ref))
}

func (c *Calculator) top(ref int) *accumulator {
	if len(c.stack) == 0 || c.stack[len(c.stack)-1].ref != ref {
		panic(fmt.Sprintf("debt: component %d is not the open component", ref))
	}
	return c.stack[len(c.stack)-1]
}

// Record adds the effort of an unresolved issue of the open component.
func (c *Calculator) Record(ref int, issue Issue) error {
	acc := c.top(ref)
	minutes := issue.EffortMinutes()
	if issue.IsResolved() || minutes == 0 {
		return nil
	}
	rule, ok := c.model.Rule(issue.RuleKey())
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownRule, issue.RuleKey())
	}

	acc.minutes += minutes
	acc.byRule[rule.ID] += minutes
	if rule.CharacteristicID != 0 {
		acc.byCharacteristic[rule.CharacteristicID] += minutes
		if parent := c.model.ParentOf(rule.CharacteristicID); parent != 0 {
			acc.byCharacteristic[parent] += minutes
		}
	}
	return nil
}

// Close emits the debt measures of the open component and merges its
// accumulator into the parent's.
func (c *Calculator) Close(ref int) error {
	acc := c.top(ref)
	c.stack[len(c.stack)-1] = nil
	c.stack = c.stack[:len(c.stack)-1]

	if len(c.stack) > 0 {
		c.stack[len(c.stack)-1].merge(acc)
	}
	if acc.minutes <= 0 {
		return nil
	}

	if err := c.add(ref, measure.New(measure.NewLong(acc.minutes))); err != nil {
		return err
	}
	for _, id := range slices.Sorted(maps.Keys(acc.byRule)) {
		if err := c.add(ref, measure.New(measure.NewLong(acc.byRule[id])).ForRule(id)); err != nil {
			return err
		}
	}
	for _, id := range slices.Sorted(maps.Keys(acc.byCharacteristic)) {
		if err := c.add(ref, measure.New(measure.NewLong(acc.byCharacteristic[id])).ForCharacteristic(id)); err != nil {
			return err
		}
	}
	return nil
}

func (c *Calculator) add(ref int, m measure.Measure) error {
	if err := c.measures.Add(ref, c.metric, m); err != nil {
		return fmt.Errorf("failed to add debt on component %d: %w", ref, err)
	}
	return nil
}
