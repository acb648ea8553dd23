// Package instrument bridges MCP tool invocations into the callback
// contract, so tool calls show up as tool runs without the execution
// engine knowing about tracing.
package instrument

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"runtrail/callbacks"
)

// ToolCall wraps one MCP tool invocation in tool lifecycle dispatches.
// The call function performs the actual invocation; its result and error
// are returned unchanged. A result with IsError set closes the run as
// errored while still returning the result to the caller.
func ToolCall(ctx context.Context, mgr *callbacks.Manager, parentRunID uuid.UUID, tool mcp.Tool, req mcp.CallToolRequest, call func(ctx context.Context) (*mcp.CallToolResult, error)) (*mcp.CallToolResult, error) {
	runID := mgr.NewRunID()

	serialized := map[string]interface{}{
		"name":        tool.Name,
		"description": tool.Description,
	}
	mgr.ToolStart(ctx, serialized, flattenArguments(req), runID, parentRunID)

	result, err := call(ctx)
	if err != nil {
		mgr.ToolError(ctx, err, runID, parentRunID)
		return nil, err
	}

	output := FlattenContent(result)
	if result != nil && result.IsError {
		mgr.ToolError(ctx, errors.New(output), runID, parentRunID)
	} else {
		mgr.ToolEnd(ctx, output, runID, parentRunID)
	}
	return result, nil
}

// flattenArguments renders the request arguments as the tool run input.
func flattenArguments(req mcp.CallToolRequest) string {
	if req.Params.Arguments == nil {
		return ""
	}
	data, err := json.Marshal(req.Params.Arguments)
	if err != nil {
		return fmt.Sprintf("%v", req.Params.Arguments)
	}
	return string(data)
}

// FlattenContent joins a tool result's content parts into one string.
func FlattenContent(result *mcp.CallToolResult) string {
	if result == nil {
		return ""
	}

	var parts []string
	for _, content := range result.Content {
		switch c := content.(type) {
		case *mcp.TextContent:
			parts = append(parts, c.Text)
		case mcp.TextContent:
			parts = append(parts, c.Text)
		default:
			if data, err := json.Marshal(content); err == nil {
				parts = append(parts, string(data))
			} else {
				parts = append(parts, fmt.Sprintf("[unsupported content type: %T]", content))
			}
		}
	}
	return strings.Join(parts, "\n")
}
