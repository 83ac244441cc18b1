package formula

import (
	"errors"
	"fmt"

	"github.com/huangsam/tally/core/component"
	"github.com/huangsam/tally/core/measure"
)

// counters holds one counter per output metric key for a component on the active path.
type counters map[string]Counter

// Engine runs a set of formulas over a tree in a single post-order crawl.
type Engine struct {
	metrics  measure.MetricRepository
	measures measure.Repository
	formulas []Formula
}

// NewEngine creates an Engine. Formulas are applied in the given order at each component.
func NewEngine(metrics measure.MetricRepository, measures measure.Repository, formulas ...Formula) *Engine {
	return &Engine{metrics: metrics, measures: measures, formulas: formulas}
}

// Run computes every formula at every component, files first.
// A measure is added only when the component does not already have one.
// Configuration errors and overflowing values are returned; any other panic is propagated.
func (e *Engine) Run(tree *component.Tree) (err error) {
	for _, f := range e.formulas {
		if _, err := e.metrics.GetByKey(f.OutputMetricKey()); err != nil {
			return err
		}
	}

	defer func() {
		if r := recover(); r != nil {
			if rerr, ok := r.(error); ok && (measure.IsConfigurationError(rerr) || errors.Is(rerr, measure.ErrValueOverflow)) {
				err = rerr
				return
			}
			panic(r)
		}
	}()

	return component.PostOrder(tree,
		func(*component.Component) counters { return make(counters, len(e.formulas)) },
		func(c *component.Component, path *component.Path[counters]) error {
			return e.visit(tree, c, path)
		})
}

func (e *Engine) visit(tree *component.Tree, c *component.Component, path *component.Path[counters]) error {
	ctx := &Context{Component: c, Tree: tree, Metrics: e.metrics, Measures: e.measures}
	current := *path.Current()

	if c.IsFile() {
		for _, f := range e.formulas {
			counter := e.newCounter(f)
			counter.Initialize(ctx)
			current[f.OutputMetricKey()] = counter
		}
	}

	for _, f := range e.formulas {
		key := f.OutputMetricKey()
		counter, ok := current[key]
		if !ok {
			counter = e.newCounter(f)
			current[key] = counter
		}

		metric := ctx.Metric(key)
		if _, exists := e.measures.FindCurrent(c.Ref, metric); !exists {
			if m, ok := f.Compute(ctx, counter); ok {
				if err := e.measures.Add(c.Ref, metric, m); err != nil {
					return fmt.Errorf("failed to add %s measure on %s: %w", key, c.Key, err)
				}
			}
		}

		if parent, ok := path.Parent(); ok {
			if existing, ok := (*parent)[key]; ok {
				existing.Aggregate(counter)
			} else {
				(*parent)[key] = counter
			}
		}
	}
	return nil
}

func (e *Engine) newCounter(f Formula) Counter {
	counter := f.NewCounter()
	if counter == nil {
		panic(&measure.ConfigurationError{Err: fmt.Errorf("formula %s cannot create a counter", f.OutputMetricKey())})
	}
	return counter
}
