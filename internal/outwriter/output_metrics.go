package outwriter

import (
	"io"
	"strconv"

	"github.com/huangsam/tally/core/measure"
	"github.com/huangsam/tally/internal/contract"
)

// metricDefinition is the serialized form of a measure.Metric.
type metricDefinition struct {
	Key                string   `json:"key"`
	Name               string   `json:"name"`
	Kind               string   `json:"kind"`
	BestValueOptimized bool     `json:"best_value_optimized"`
	BestValue          *float64 `json:"best_value,omitempty"`
}

func toDefinitions(metrics []measure.Metric) []metricDefinition {
	out := make([]metricDefinition, 0, len(metrics))
	for _, m := range metrics {
		out = append(out, metricDefinition{
			Key:                m.Key,
			Name:               m.Name,
			Kind:               m.Kind.String(),
			BestValueOptimized: m.BestValueOptimized,
			BestValue:          m.BestValue,
		})
	}
	return out
}

// PrintMetricDefinitions outputs the metric catalog.
func PrintMetricDefinitions(metrics []measure.Metric, cfg *contract.Config) error {
	defs := toDefinitions(metrics)
	fmtFloat := newFloatFormatter(cfg.Precision)

	cells := func(d metricDefinition) []string {
		best := ""
		if d.BestValue != nil {
			best = fmtFloat(*d.BestValue)
		}
		return []string{d.Key, d.Name, d.Kind, best, strconv.FormatBool(d.BestValueOptimized)}
	}
	rows := func() [][]string {
		out := make([][]string, 0, len(defs))
		for _, d := range defs {
			out = append(out, cells(d))
		}
		return out
	}

	header := []string{"key", "name", "kind", "best_value", "best_value_optimized"}
	return render(cfg, defs, header, rows, func(w io.Writer) error {
		return renderTable(w, []string{"Key", "Name", "Kind", "Best Value", "Optimized"}, rows())
	})
}
