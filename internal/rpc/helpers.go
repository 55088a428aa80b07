// Package rpc binds the facade's operations to MCP tools (spec.md §6
// Tool/RPC surface), following the teacher's hand-registered
// mcp.NewTool/server.AddTool pattern.
package rpc

import (
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/vthunder/chronograph/internal/temporal"
)

func args(req mcp.CallToolRequest) map[string]any {
	m, _ := req.Params.Arguments.(map[string]any)
	return m
}

func argString(a map[string]any, key string) string {
	s, _ := a[key].(string)
	return s
}

func argStringPtr(a map[string]any, key string) *string {
	s, ok := a[key].(string)
	if !ok || s == "" {
		return nil
	}
	return &s
}

func argFloat(a map[string]any, key string, def float64) float64 {
	f, ok := a[key].(float64)
	if !ok {
		return def
	}
	return f
}

func argInt(a map[string]any, key string, def int) int {
	f, ok := a[key].(float64)
	if !ok {
		return def
	}
	return int(f)
}

func argBool(a map[string]any, key string) bool {
	b, _ := a[key].(bool)
	return b
}

func argStringSlice(a map[string]any, key string) []string {
	raw, ok := a[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func argMetadata(a map[string]any, key string) temporal.Metadata {
	m, ok := a[key].(map[string]any)
	if !ok {
		return nil
	}
	return temporal.Metadata(m)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}

func errResult(err error) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(err.Error()), nil
}
