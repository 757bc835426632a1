package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/huangsam/runlens/core"
	"github.com/huangsam/runlens/internal/contract"
	"github.com/huangsam/runlens/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// Thresholds applied by check_health when the caller leaves them out.
const (
	defaultMinReliability = 80.0
	defaultMinSLA         = 85.0
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	agg *core.Aggregator
}

func (h *toolHandler) handleGetDashboard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap, err := h.agg.LoadDashboard(ctx, request.GetString("business_unit", ""))
	if err != nil {
		return failure("dashboard", err), nil
	}
	return jsonResult(snap), nil
}

func (h *toolHandler) handleGetAnalytics(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap, err := h.agg.LoadAdvancedAnalytics(ctx)
	if err != nil {
		return failure("analytics", err), nil
	}
	return jsonResult(snap), nil
}

func (h *toolHandler) handleGetMetric(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw := request.GetString("metric", "")
	metric, ok := schema.ParseMetricName(raw)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("unknown metric %q, expected one of: %s", raw, metricList())), nil
	}

	value, err := h.agg.Fetch(ctx, metric, request.GetString("business_unit", ""))
	if err != nil {
		return failure(string(metric), err), nil
	}
	return jsonResult(value), nil
}

func (h *toolHandler) handleCheckHealth(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	thresholds := core.CheckThresholds{
		MinReliability: request.GetFloat("min_reliability", defaultMinReliability),
		MinSLA:         request.GetFloat("min_sla", defaultMinSLA),
	}
	if thresholds.MinReliability > 100 || thresholds.MinSLA > 100 {
		return mcp.NewToolResultError("thresholds must be between 0 and 100"), nil
	}

	result, err := core.ExecuteCheck(ctx, h.agg, thresholds, io.Discard)
	if err != nil {
		return failure("check", err), nil
	}
	return jsonResult(result), nil
}

// failure renders a load error as a tool error so the agent sees why the call failed.
func failure(what string, err error) *mcp.CallToolResult {
	if contract.IsConfigurationError(err) {
		return mcp.NewToolResultError(fmt.Sprintf("%s unavailable: the execution catalog is not configured", what))
	}
	return mcp.NewToolResultError(fmt.Sprintf("%s failed: %v", what, err))
}

func jsonResult(v any) *mcp.CallToolResult {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err))
	}
	return mcp.NewToolResultText(string(jsonData))
}
