package mcp_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cqscope/cqscope/internal/contract"
	mcp_internal "github.com/cqscope/cqscope/internal/mcp"
	"github.com/cqscope/cqscope/schema"
)

func baseTestConfig() *contract.Config {
	return &contract.Config{
		SiteColumn:        "site_id",
		TimeColumn:        "date",
		QColumn:           "Q",
		CColumn:           "C",
		Window:            contract.DefaultWindow,
		MinPopulation:     contract.DefaultMinPopulation,
		Precision:         3,
		ResultLimit:       contract.DefaultResultLimit,
		Output:            schema.JSONOut,
		RunsBackend:       schema.NoneBackend,
		ConfidenceBase:    schema.ConfidenceBase,
		ConfidenceStrong:  schema.ConfidenceStrong,
		ConfidenceSupport: schema.ConfidenceSupport,
		ConfidencePenalty: schema.ConfidencePenalty,
	}
}

func writeSeriesCSV(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "series.csv")

	content := "site_id,date,Q,C\n"
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	qs := []float64{1, 2, 5, 9, 12, 10, 7, 4, 2, 1.5, 1.2, 1}
	cs := []float64{2, 3, 5, 8, 9, 7, 5, 4, 3, 2.5, 2.2, 2}
	for i := range qs {
		content += fmt.Sprintf("brook,%s,%.2f,%.2f\n", base.AddDate(0, 0, i).Format("2006-01-02"), qs[i], cs[i])
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestMCPServerHandlers_ValidationErrors(t *testing.T) {
	s := mcp_internal.NewMCPServer(baseTestConfig())
	ctx := context.Background()

	t.Run("classify_series missing input", func(t *testing.T) {
		tool := s.GetTool("classify_series")
		require.NotNil(t, tool, "Tool classify_series should exist")

		req := mcp.CallToolRequest{
			Params: mcp.CallToolParams{
				Name:      "classify_series",
				Arguments: map[string]any{},
			},
		}

		res, err := tool.Handler(ctx, req)
		require.NoError(t, err, "The MCP handler should not return a raw error for tool logic failures")
		assert.True(t, res.IsError, "The response should indicate an error state")
		assert.Contains(t, res.Content[0].(mcp.TextContent).Text, "input_path is required")
	})

	t.Run("classify_series invalid window", func(t *testing.T) {
		tool := s.GetTool("classify_series")
		require.NotNil(t, tool)

		req := mcp.CallToolRequest{
			Params: mcp.CallToolParams{
				Name: "classify_series",
				Arguments: map[string]any{
					"input_path": writeSeriesCSV(t),
					"window":     1.0, // Below minimum
				},
			},
		}

		res, err := tool.Handler(ctx, req)
		require.NoError(t, err)
		assert.True(t, res.IsError)
		assert.Contains(t, res.Content[0].(mcp.TextContent).Text, "window must be between")
	})

	t.Run("event_metrics missing input", func(t *testing.T) {
		tool := s.GetTool("event_metrics")
		require.NotNil(t, tool, "Tool event_metrics should exist")

		req := mcp.CallToolRequest{
			Params: mcp.CallToolParams{
				Name:      "event_metrics",
				Arguments: map[string]any{},
			},
		}

		res, err := tool.Handler(ctx, req)
		require.NoError(t, err)
		assert.True(t, res.IsError)
	})
}

func TestMCPServerHandlers_Results(t *testing.T) {
	s := mcp_internal.NewMCPServer(baseTestConfig())
	ctx := context.Background()
	inputPath := writeSeriesCSV(t)

	t.Run("classify_series returns rows", func(t *testing.T) {
		tool := s.GetTool("classify_series")
		require.NotNil(t, tool)

		req := mcp.CallToolRequest{
			Params: mcp.CallToolParams{
				Name: "classify_series",
				Arguments: map[string]any{
					"input_path": inputPath,
					"site":       "brook",
				},
			},
		}

		res, err := tool.Handler(ctx, req)
		require.NoError(t, err)
		require.False(t, res.IsError)

		text := res.Content[0].(mcp.TextContent).Text
		assert.Contains(t, text, `"site_id": "brook"`)
		assert.Contains(t, text, "phase_distribution")
	})

	t.Run("event_metrics returns methods", func(t *testing.T) {
		tool := s.GetTool("event_metrics")
		require.NotNil(t, tool)

		req := mcp.CallToolRequest{
			Params: mcp.CallToolParams{
				Name: "event_metrics",
				Arguments: map[string]any{
					"input_path": inputPath,
				},
			},
		}

		res, err := tool.Handler(ctx, req)
		require.NoError(t, err)
		require.False(t, res.IsError)

		text := res.Content[0].(mcp.TextContent).Text
		assert.Contains(t, text, `"site_id": "brook"`)
		assert.Contains(t, text, "harp")
		assert.Contains(t, text, "zuecco")
		assert.Contains(t, text, "lloyd")
	})
}
