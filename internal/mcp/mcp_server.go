// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"
	"strings"

	"github.com/huangsam/runlens/core"
	"github.com/huangsam/runlens/schema"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the runlens MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(a *core.Aggregator, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"runlens Execution Analytics Server",
		version,
		server.WithLogging(),
	)

	h := &toolHandler{agg: a}

	// --- 1. Tool: get_dashboard ---
	s.AddTool(mcp.NewTool("get_dashboard",
		mcp.WithDescription("Load every dashboard metric of the execution catalog, optionally for one business unit."),
		mcp.WithString("business_unit", mcp.Description("Business unit to filter by (ClientRepo, ChartNav, EDS, HIM, Uncategorized). Defaults to all packages.")),
	), h.handleGetDashboard)

	// --- 2. Tool: get_analytics ---
	s.AddTool(mcp.NewTool("get_analytics",
		mcp.WithDescription("Load the advanced analytics: reliability, MTBF, error clusters, SLA compliance, trends, heatmap, correlation and utilization."),
	), h.handleGetAnalytics)

	// --- 3. Tool: get_metric ---
	s.AddTool(mcp.NewTool("get_metric",
		mcp.WithDescription("Load a single dashboard or analytics metric."),
		mcp.WithString("metric", mcp.Description("Metric name."), mcp.Required(), mcp.Enum(metricNames()...)),
		mcp.WithString("business_unit", mcp.Description("Business unit to filter dashboard metrics by.")),
	), h.handleGetMetric)

	// --- 4. Tool: check_health ---
	s.AddTool(mcp.NewTool("check_health",
		mcp.WithDescription("Check every package against reliability and SLA compliance thresholds."),
		mcp.WithNumber("min_reliability", mcp.Description("Lowest acceptable reliability score (0 disables). Defaults to 80.")),
		mcp.WithNumber("min_sla", mcp.Description("Lowest acceptable SLA compliance percentage (0 disables). Defaults to 85.")),
	), h.handleCheckHealth)

	return s
}

// StartMCPServer starts the runlens MCP server on stdio.
func StartMCPServer(_ context.Context, a *core.Aggregator, version string) error {
	s := NewMCPServer(a, version)
	return server.ServeStdio(s)
}

func metricNames() []string {
	names := make([]string, 0, len(schema.DashboardMetrics)+len(schema.AdvancedMetrics))
	for _, m := range schema.DashboardMetrics {
		names = append(names, string(m))
	}
	for _, m := range schema.AdvancedMetrics {
		names = append(names, string(m))
	}
	return names
}

func metricList() string {
	return strings.Join(metricNames(), ", ")
}
