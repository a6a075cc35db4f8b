package mcp

import (
	"bytes"
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/cqscope/cqscope/core"
	"github.com/cqscope/cqscope/internal"
	"github.com/cqscope/cqscope/internal/contract"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
}

// requestConfig clones the base config and applies the shared request
// parameters.
func (h *toolHandler) requestConfig(request mcp.CallToolRequest) (*contract.Config, error) {
	cfg := h.baseCfg.Clone()
	if p := request.GetString("input_path", ""); p != "" {
		cfg.InputPath = p
	}
	if s := request.GetString("site", ""); s != "" {
		cfg.SiteFilter = s
	}
	if cfg.InputPath == "" {
		return nil, fmt.Errorf("input_path is required when the server has no configured input")
	}
	return cfg, nil
}

func (h *toolHandler) handleClassifySeries(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.requestConfig(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if w := request.GetInt("window", 0); w > 0 {
		if w < 2 || w > contract.MaxWindow {
			return mcp.NewToolResultError(fmt.Sprintf("window must be between 2 and %d", contract.MaxWindow)), nil
		}
		cfg.Window = w
	}

	outputs, err := core.ComputeClassifyResults(cfg)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("classification failed: %v", err)), nil
	}

	var buf bytes.Buffer
	if err := internal.WriteClassificationJSON(&buf, outputs); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding failed: %v", err)), nil
	}
	return mcp.NewToolResultText(buf.String()), nil
}

func (h *toolHandler) handleEventMetrics(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg, err := h.requestConfig(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	results, err := core.ComputeMetricsResults(cfg)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("metrics computation failed: %v", err)), nil
	}

	var buf bytes.Buffer
	if err := internal.WriteEventMetricsJSON(&buf, results); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding failed: %v", err)), nil
	}
	return mcp.NewToolResultText(buf.String()), nil
}
