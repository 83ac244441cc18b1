package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/huangsam/tally/internal/contract"
	"github.com/huangsam/tally/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// render dispatches on the output format. text receives the writer for table output.
func render(cfg *contract.Config, data any, header []string, rows func() [][]string, text func(io.Writer) error) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, data)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
				for _, row := range rows() {
					if err := cw.Write(row); err != nil {
						return fmt.Errorf("failed to write CSV record: %w", err)
					}
				}
				return nil
			})
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, text, "Wrote text")
	}
}

func renderTable(w io.Writer, header []string, data [][]string) error {
	table := tablewriter.NewWriter(w)
	table.Header(header)
	table.Configure(func(c *tablewriter.Config) {
		c.Row.Alignment.Global = tw.AlignLeft
	})
	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// PrintQueue outputs the report queue.
func PrintQueue(items []schema.QueueItem, cfg *contract.Config) error {
	header := []string{"id", "project_key", "status", "worker_id", "created_at", "started_at", "payload_path"}
	rows := func() [][]string {
		out := make([][]string, 0, len(items))
		for _, it := range items {
			out = append(out, []string{
				strconv.FormatInt(it.ID, 10), it.ProjectKey, string(it.Status), it.WorkerID,
				formatTimestamp(&it.CreatedAt), formatTimestamp(it.StartedAt), it.PayloadPath,
			})
		}
		return out
	}
	return render(cfg, items, header, rows, func(w io.Writer) error {
		width := GetMaxTablePathWidth(cfg)
		data := make([][]string, 0, len(items))
		for _, it := range items {
			data = append(data, []string{
				strconv.FormatInt(it.ID, 10),
				it.ProjectKey,
				contract.GetColorLabel(string(it.Status)),
				it.WorkerID,
				formatRelativeTime(&it.CreatedAt),
				formatRelativeTime(it.StartedAt),
				contract.TruncatePath(it.PayloadPath, width),
			})
		}
		if err := renderTable(w, []string{"ID", "Project", "Status", "Worker", "Submitted", "Started", "Payload"}, data); err != nil {
			return err
		}
		_, err := fmt.Fprintf(w, "%d reports in queue\n", len(items))
		return err
	})
}

// PrintActivities outputs the activity of recent reports, newest first.
func PrintActivities(activities []schema.ReportActivity, cfg *contract.Config) error {
	header := []string{"report_id", "project_key", "status", "submitted_at", "executed_at", "finished_at", "duration_ms", "failure_reason"}
	rows := func() [][]string {
		out := make([][]string, 0, len(activities))
		for _, a := range activities {
			duration, reason := "", ""
			if a.DurationMs != nil {
				duration = strconv.FormatInt(*a.DurationMs, 10)
			}
			if a.FailureReason != nil {
				reason = *a.FailureReason
			}
			out = append(out, []string{
				strconv.FormatInt(a.ReportID, 10), a.ProjectKey, string(a.Status),
				formatTimestamp(&a.SubmittedAt), formatTimestamp(a.ExecutedAt), formatTimestamp(a.FinishedAt),
				duration, reason,
			})
		}
		return out
	}
	return render(cfg, activities, header, rows, func(w io.Writer) error {
		width := GetMaxTablePathWidth(cfg)
		data := make([][]string, 0, len(activities))
		for _, a := range activities {
			reason := ""
			if a.FailureReason != nil {
				reason = contract.TruncatePath(*a.FailureReason, width)
			}
			data = append(data, []string{
				strconv.FormatInt(a.ReportID, 10),
				a.ProjectKey,
				contract.GetColorLabel(string(a.Status)),
				formatRelativeTime(&a.SubmittedAt),
				formatDurationMs(a.DurationMs),
				reason,
			})
		}
		return renderTable(w, []string{"Report", "Project", "Status", "Submitted", "Duration", "Reason"}, data)
	})
}

// PrintIssues outputs issues ordered as given.
func PrintIssues(records []schema.IssueRecord, cfg *contract.Config) error {
	header := []string{"key", "project_key", "component_key", "rule_key", "line", "effort_minutes", "status", "resolution", "message", "created_at"}
	rows := func() [][]string {
		out := make([][]string, 0, len(records))
		for _, r := range records {
			out = append(out, []string{
				r.Key, r.ProjectKey, r.ComponentKey, r.RuleKey, strconv.Itoa(r.Line),
				strconv.FormatInt(r.EffortMinutes, 10), string(r.Status), r.Resolution, r.Message,
				formatTimestamp(&r.CreatedAt),
			})
		}
		return out
	}
	return render(cfg, records, header, rows, func(w io.Writer) error {
		width := GetMaxTablePathWidth(cfg)
		var effort int64
		data := make([][]string, 0, len(records))
		for _, r := range records {
			effort += r.EffortMinutes
			data = append(data, []string{
				contract.TruncatePath(r.ComponentKey, width),
				strconv.Itoa(r.Line),
				r.RuleKey,
				strconv.FormatInt(r.EffortMinutes, 10),
				r.Message,
				formatRelativeTime(&r.CreatedAt),
			})
		}
		if err := renderTable(w, []string{"Component", "Line", "Rule", "Effort (min)", "Message", "Created"}, data); err != nil {
			return err
		}
		_, err := fmt.Fprintf(w, "%d issues, %d minutes of effort\n", len(records), effort)
		return err
	})
}
