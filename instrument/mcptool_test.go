package instrument

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"runtrail/callbacks"
	loggerv2 "runtrail/logger/v2"
)

type toolEvent struct {
	hook   string
	input  string
	output string
	err    error
}

// recordingToolHandler captures only the tool lifecycle hooks.
type recordingToolHandler struct {
	callbacks.BaseHandler
	mu     sync.Mutex
	events []toolEvent
}

func (h *recordingToolHandler) HandleToolStart(ctx context.Context, serialized map[string]interface{}, input string, runID, parentRunID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, toolEvent{hook: "tool_start", input: input})
}

func (h *recordingToolHandler) HandleToolError(ctx context.Context, err error, runID, parentRunID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, toolEvent{hook: "tool_error", err: err})
}

func (h *recordingToolHandler) HandleToolEnd(ctx context.Context, output string, runID, parentRunID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, toolEvent{hook: "tool_end", output: output})
}

func newToolFixture() (*callbacks.Manager, *recordingToolHandler) {
	h := &recordingToolHandler{}
	return callbacks.NewManager(loggerv2.NewNoop(), h), h
}

func searchRequest() (mcp.Tool, mcp.CallToolRequest) {
	tool := mcp.Tool{Name: "search", Description: "full text search"}
	req := mcp.CallToolRequest{}
	req.Params.Name = "search"
	req.Params.Arguments = map[string]interface{}{"query": "golang tracing"}
	return tool, req
}

func TestToolCallSuccess(t *testing.T) {
	mgr, h := newToolFixture()
	tool, req := searchRequest()

	result, err := ToolCall(context.Background(), mgr, uuid.Nil, tool, req, func(ctx context.Context) (*mcp.CallToolResult, error) {
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: "3 results"}},
		}, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result == nil {
		t.Fatal("expected the tool result to be passed through")
	}

	if len(h.events) != 2 {
		t.Fatalf("expected start and end events, got %d", len(h.events))
	}
	start, end := h.events[0], h.events[1]
	if start.hook != "tool_start" {
		t.Fatalf("first event = %q, want tool_start", start.hook)
	}
	if start.input != `{"query":"golang tracing"}` {
		t.Errorf("tool input = %q", start.input)
	}
	if end.hook != "tool_end" || end.output != "3 results" {
		t.Errorf("terminal event = %+v, want tool_end with flattened output", end)
	}
}

func TestToolCallInvocationError(t *testing.T) {
	mgr, h := newToolFixture()
	tool, req := searchRequest()
	boom := errors.New("connection refused")

	result, err := ToolCall(context.Background(), mgr, uuid.Nil, tool, req, func(ctx context.Context) (*mcp.CallToolResult, error) {
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want the invocation error", err)
	}
	if result != nil {
		t.Fatalf("result = %v, want nil on invocation failure", result)
	}

	if len(h.events) != 2 || h.events[1].hook != "tool_error" {
		t.Fatalf("events = %+v, want tool_start then tool_error", h.events)
	}
	if !errors.Is(h.events[1].err, boom) {
		t.Errorf("dispatched error = %v, want the invocation error", h.events[1].err)
	}
}

func TestToolCallErrorResult(t *testing.T) {
	mgr, h := newToolFixture()
	tool, req := searchRequest()

	result, err := ToolCall(context.Background(), mgr, uuid.Nil, tool, req, func(ctx context.Context) (*mcp.CallToolResult, error) {
		return &mcp.CallToolResult{
			IsError: true,
			Content: []mcp.Content{&mcp.TextContent{Text: "index unavailable"}},
		}, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result == nil || !result.IsError {
		t.Fatal("errored result must still be returned to the caller")
	}

	if len(h.events) != 2 || h.events[1].hook != "tool_error" {
		t.Fatalf("events = %+v, want tool_start then tool_error", h.events)
	}
	if got := h.events[1].err.Error(); got != "index unavailable" {
		t.Errorf("dispatched error = %q, want the flattened content", got)
	}
}

func TestToolCallEmptyArguments(t *testing.T) {
	mgr, h := newToolFixture()
	tool := mcp.Tool{Name: "ping"}
	req := mcp.CallToolRequest{}
	req.Params.Name = "ping"

	_, err := ToolCall(context.Background(), mgr, uuid.Nil, tool, req, func(ctx context.Context) (*mcp.CallToolResult, error) {
		return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: "pong"}}}, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.events[0].input != "" {
		t.Errorf("input = %q, want empty for a request without arguments", h.events[0].input)
	}
}

func TestFlattenContentJoinsParts(t *testing.T) {
	result := &mcp.CallToolResult{Content: []mcp.Content{
		&mcp.TextContent{Text: "first"},
		&mcp.TextContent{Text: "second"},
	}}
	if got := FlattenContent(result); got != "first\nsecond" {
		t.Errorf("FlattenContent = %q", got)
	}
	if got := FlattenContent(nil); got != "" {
		t.Errorf("FlattenContent(nil) = %q, want empty", got)
	}
}
