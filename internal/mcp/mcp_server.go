// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/tally/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the Tally MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.StoreManager) *server.MCPServer {
	s := server.NewMCPServer(
		"Tally Report Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
	}

	s.AddTool(mcp.NewTool("submit_report",
		mcp.WithDescription("Validate an analysis report payload and queue it for processing."),
		mcp.WithString("payload_path", mcp.Description("Path to the YAML or JSON report payload."), mcp.Required()),
	), h.handleSubmitReport)

	s.AddTool(mcp.NewTool("get_report_status",
		mcp.WithDescription("Get the processing status of a submitted report."),
		mcp.WithNumber("report_id", mcp.Description("The report id returned on submission."), mcp.Required()),
	), h.handleGetReportStatus)

	s.AddTool(mcp.NewTool("list_reports",
		mcp.WithDescription("List the most recent reports, newest first."),
		mcp.WithString("project", mcp.Description("Project key. Lists every project if not specified.")),
		mcp.WithNumber("limit", mcp.Description("Limit the number of results returned.")),
	), h.handleListReports)

	s.AddTool(mcp.NewTool("get_measures",
		mcp.WithDescription("Get the measures computed for a project."),
		mcp.WithString("project", mcp.Description("Project key."), mcp.Required()),
		mcp.WithNumber("report_id", mcp.Description("Report id. Defaults to the latest successful report.")),
		mcp.WithString("component", mcp.Description("Only return measures of this component key.")),
		mcp.WithString("metric", mcp.Description("Only return measures of this metric key.")),
	), h.handleGetMeasures)

	s.AddTool(mcp.NewTool("get_open_issues",
		mcp.WithDescription("Get the open issues of a project."),
		mcp.WithString("project", mcp.Description("Project key."), mcp.Required()),
		mcp.WithString("component", mcp.Description("Only return issues of this component key.")),
		mcp.WithNumber("limit", mcp.Description("Limit the number of results returned.")),
	), h.handleGetOpenIssues)

	return s
}

// StartMCPServer starts the Tally MCP server.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.StoreManager) error {
	s := NewMCPServer(baseCfg, mgr)
	return server.ServeStdio(s)
}
