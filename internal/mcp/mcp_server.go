// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/cqscope/cqscope/internal/contract"
)

// NewMCPServer initializes and configures the cqscope MCP server without
// starting it. This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config) *server.MCPServer {
	s := server.NewMCPServer(
		"C-Q Hysteresis Analysis Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{baseCfg: baseCfg}

	// --- 1. Tool: classify_series ---
	s.AddTool(mcp.NewTool("classify_series",
		mcp.WithDescription("Classify a concentration-discharge series into geochemical phases (flushing, loading, chemostatic, dilution, recession, variable) with per-segment confidence."),
		mcp.WithString("input_path", mcp.Description("CSV file or directory of CSV files with site, time, discharge and concentration columns (defaults to the server's configured input).")),
		mcp.WithString("site", mcp.Description("Restrict classification to one site ID.")),
		mcp.WithNumber("window", mcp.Description("Rolling window size in samples for slope, variability and hysteresis context.")),
	), h.handleClassifySeries)

	// --- 2. Tool: event_metrics ---
	s.AddTool(mcp.NewTool("event_metrics",
		mcp.WithDescription("Compute the HARP, Zuecco and Lloyd/Lawler hysteresis metrics over each site's concentration-discharge record."),
		mcp.WithString("input_path", mcp.Description("CSV file or directory of CSV files (defaults to the server's configured input).")),
		mcp.WithString("site", mcp.Description("Restrict metrics to one site ID.")),
	), h.handleEventMetrics)

	return s
}

// StartMCPServer starts the cqscope MCP server over stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config) error {
	s := NewMCPServer(baseCfg)
	return server.ServeStdio(s)
}
