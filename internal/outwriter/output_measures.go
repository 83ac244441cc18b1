package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/huangsam/tally/internal/contract"
	"github.com/huangsam/tally/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// PrintMeasures outputs measures, dispatching on the configured output format.
func PrintMeasures(records []schema.MeasureRecord, cfg *contract.Config) error {
	fmtFloat := newFloatFormatter(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, records)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVMeasures(w, records, fmtFloat)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	default:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeMeasuresTable(w, records, cfg, fmtFloat)
		}, "Wrote text"); err != nil {
			return fmt.Errorf("error writing table output: %w", err)
		}
	}
	return nil
}

func writeCSVMeasures(w io.Writer, records []schema.MeasureRecord, fmtFloat func(float64) string) error {
	header := []string{"report_id", "project_key", "component_key", "metric_key", "rule_id", "characteristic_id", "value", "computed_at"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, r := range records {
			row := []string{
				strconv.FormatInt(r.ReportID, 10),
				r.ProjectKey,
				r.ComponentKey,
				r.MetricKey,
				strconv.Itoa(r.RuleID),
				strconv.Itoa(r.CharacteristicID),
				formatMeasureValue(r, fmtFloat),
				formatTimestamp(&r.ComputedAt),
			}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
		return nil
	})
}

func writeMeasuresTable(w io.Writer, records []schema.MeasureRecord, cfg *contract.Config, fmtFloat func(float64) string) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Component", "Metric", "Breakdown", "Value"})
	table.Configure(func(c *tablewriter.Config) {
		c.Row.Alignment.Global = tw.AlignLeft
	})

	width := GetMaxTablePathWidth(cfg)
	data := make([][]string, 0, len(records))
	for _, r := range records {
		data = append(data, []string{
			contract.TruncatePath(r.ComponentKey, width),
			r.MetricKey,
			formatBreakdown(r),
			formatMeasureValue(r, fmtFloat),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	if len(records) > 0 {
		components := make(map[string]struct{})
		for _, r := range records {
			components[r.ComponentKey] = struct{}{}
		}
		_, err := fmt.Fprintf(w, "Showing %s measures on %s components (report %d, computed %s)\n",
			humanize.Comma(int64(len(records))), humanize.Comma(int64(len(components))),
			records[0].ReportID, formatRelativeTime(&records[0].ComputedAt))
		return err
	}
	_, err := fmt.Fprintln(w, "No measures found")
	return err
}
