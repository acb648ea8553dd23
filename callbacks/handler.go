package callbacks

import (
	"context"

	"github.com/google/uuid"
)

// Message is one chat message in a chat-model prompt batch. Content is
// passed through to observers untouched.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Generation is a single model completion.
type Generation struct {
	Text string `json:"text"`
	// Info carries provider-specific generation metadata (finish reason,
	// token usage, ...). Opaque to the dispatch layer.
	Info map[string]interface{} `json:"generation_info,omitempty"`
}

// LLMResult is the terminal payload of an LLM or chat-model run.
type LLMResult struct {
	Generations []Generation           `json:"generations"`
	LLMOutput   map[string]interface{} `json:"llm_output,omitempty"`
}

// AgentAction records a tool selection made by an agent inside an open
// chain run. It annotates the run; it does not open one.
type AgentAction struct {
	Tool      string `json:"tool"`
	ToolInput string `json:"tool_input"`
	Log       string `json:"log,omitempty"`
}

// AgentFinish records an agent's final answer inside an open chain run.
type AgentFinish struct {
	ReturnValues map[string]interface{} `json:"return_values"`
	Log          string                 `json:"log,omitempty"`
}

// Handler receives execution lifecycle notifications. A run identified by
// runID moves start -> (token/text annotations) -> exactly one of the
// error/end hooks. parentRunID is uuid.Nil for root runs; otherwise it
// names a run that is still open at the time of the call.
//
// Implementations must tolerate being called from multiple goroutines for
// distinct run ids. Embed BaseHandler to implement only a subset.
type Handler interface {
	HandleLLMStart(ctx context.Context, serialized map[string]interface{}, prompts []string, runID, parentRunID uuid.UUID, extra map[string]interface{})
	HandleChatModelStart(ctx context.Context, serialized map[string]interface{}, messageBatches [][]Message, runID, parentRunID uuid.UUID, extra map[string]interface{})
	HandleLLMNewToken(ctx context.Context, token string, runID, parentRunID uuid.UUID)
	HandleLLMError(ctx context.Context, err error, runID, parentRunID uuid.UUID)
	HandleLLMEnd(ctx context.Context, result LLMResult, runID, parentRunID uuid.UUID)

	HandleChainStart(ctx context.Context, serialized map[string]interface{}, inputs map[string]interface{}, runID, parentRunID uuid.UUID)
	HandleChainError(ctx context.Context, err error, runID, parentRunID uuid.UUID)
	HandleChainEnd(ctx context.Context, outputs map[string]interface{}, runID, parentRunID uuid.UUID)

	HandleToolStart(ctx context.Context, serialized map[string]interface{}, input string, runID, parentRunID uuid.UUID)
	HandleToolError(ctx context.Context, err error, runID, parentRunID uuid.UUID)
	HandleToolEnd(ctx context.Context, output string, runID, parentRunID uuid.UUID)

	// HandleText is a free-form annotation on an open run, not a
	// lifecycle event.
	HandleText(ctx context.Context, text string, runID, parentRunID uuid.UUID)

	HandleAgentAction(ctx context.Context, action AgentAction, runID, parentRunID uuid.UUID)
	HandleAgentFinish(ctx context.Context, finish AgentFinish, runID, parentRunID uuid.UUID)

	// Category switches, fixed at construction time. The dispatcher
	// checks these before invoking the corresponding hooks.
	IgnoreLLM() bool
	IgnoreChain() bool
	IgnoreAgent() bool
}
