package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/huangsam/tally/core/compute"
	"github.com/huangsam/tally/internal/contract"
	"github.com/huangsam/tally/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.StoreManager
	now     func() time.Time
}

func (h *toolHandler) clock() time.Time {
	if h.now != nil {
		return h.now()
	}
	return time.Now()
}

func (h *toolHandler) limit(request mcp.CallToolRequest) int {
	if l := request.GetInt("limit", 0); l > 0 {
		return l
	}
	return h.baseCfg.Limit
}

func jsonResult(v any) *mcp.CallToolResult {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err))
	}
	return mcp.NewToolResultText(string(jsonData))
}

func (h *toolHandler) handleSubmitReport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := request.GetString("payload_path", "")
	if path == "" {
		return mcp.NewToolResultError("payload_path is required"), nil
	}

	sub, err := compute.Submit(ctx, h.mgr.GetQueue(), path, h.clock())
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("submission failed: %v", err)), nil
	}
	return jsonResult(sub), nil
}

func (h *toolHandler) handleGetReportStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := request.GetInt("report_id", 0)
	if id <= 0 {
		return mcp.NewToolResultError("report_id must be a positive integer"), nil
	}

	activity, err := h.mgr.GetActivityStore().GetActivity(ctx, int64(id))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to get report %d: %v", id, err)), nil
	}
	return jsonResult(activity), nil
}

func (h *toolHandler) handleListReports(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project := request.GetString("project", "")
	activities, err := h.mgr.GetActivityStore().ListActivities(ctx, project, h.limit(request))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list reports: %v", err)), nil
	}
	if activities == nil {
		activities = []schema.ReportActivity{}
	}
	return jsonResult(activities), nil
}

func (h *toolHandler) handleGetMeasures(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project := request.GetString("project", "")
	if project == "" {
		return mcp.NewToolResultError("project is required"), nil
	}
	reportID := request.GetInt("report_id", 0)
	if reportID < 0 {
		return mcp.NewToolResultError("report_id must not be negative"), nil
	}

	records, err := h.mgr.GetMeasureStore().ListMeasures(ctx, project, int64(reportID))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list measures: %v", err)), nil
	}

	component := request.GetString("component", "")
	metric := request.GetString("metric", "")
	filtered := make([]schema.MeasureRecord, 0, len(records))
	for _, r := range records {
		if component != "" && r.ComponentKey != component {
			continue
		}
		if metric != "" && r.MetricKey != metric {
			continue
		}
		filtered = append(filtered, r)
	}
	return jsonResult(filtered), nil
}

func (h *toolHandler) handleGetOpenIssues(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project := request.GetString("project", "")
	if project == "" {
		return mcp.NewToolResultError("project is required"), nil
	}

	issues, err := h.mgr.GetIssueStore().ListOpenIssues(ctx, project, request.GetString("component", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list issues: %v", err)), nil
	}
	if limit := h.limit(request); limit > 0 && len(issues) > limit {
		issues = issues[:limit]
	}
	if issues == nil {
		issues = []schema.IssueRecord{}
	}
	return jsonResult(issues), nil
}
