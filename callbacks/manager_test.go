package callbacks

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"

	loggerv2 "runtrail/logger/v2"
)

// recordingHandler captures the hook names it receives.
type recordingHandler struct {
	BaseHandler
	mu    sync.Mutex
	calls []string
}

func (r *recordingHandler) record(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, name)
}

func (r *recordingHandler) got() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string{}, r.calls...)
}

func (r *recordingHandler) HandleLLMStart(ctx context.Context, serialized map[string]interface{}, prompts []string, runID, parentRunID uuid.UUID, extra map[string]interface{}) {
	r.record("llm_start")
}

func (r *recordingHandler) HandleLLMNewToken(ctx context.Context, token string, runID, parentRunID uuid.UUID) {
	r.record("llm_new_token")
}

func (r *recordingHandler) HandleLLMEnd(ctx context.Context, result LLMResult, runID, parentRunID uuid.UUID) {
	r.record("llm_end")
}

func (r *recordingHandler) HandleChainStart(ctx context.Context, serialized map[string]interface{}, inputs map[string]interface{}, runID, parentRunID uuid.UUID) {
	r.record("chain_start")
}

func (r *recordingHandler) HandleChainEnd(ctx context.Context, outputs map[string]interface{}, runID, parentRunID uuid.UUID) {
	r.record("chain_end")
}

func (r *recordingHandler) HandleToolStart(ctx context.Context, serialized map[string]interface{}, input string, runID, parentRunID uuid.UUID) {
	r.record("tool_start")
}

func (r *recordingHandler) HandleAgentAction(ctx context.Context, action AgentAction, runID, parentRunID uuid.UUID) {
	r.record("agent_action")
}

func TestManagerDispatchesToAllHandlers(t *testing.T) {
	ctx := context.Background()
	first := &recordingHandler{}
	second := &recordingHandler{}
	mgr := NewManager(loggerv2.NewNoop(), first, second)

	runID := mgr.NewRunID()
	mgr.ChainStart(ctx, nil, nil, runID, uuid.Nil)
	mgr.ChainEnd(ctx, nil, runID, uuid.Nil)

	for _, h := range []*recordingHandler{first, second} {
		calls := h.got()
		if len(calls) != 2 || calls[0] != "chain_start" || calls[1] != "chain_end" {
			t.Errorf("handler calls = %v, want [chain_start chain_end]", calls)
		}
	}
}

func TestManagerCategorySwitches(t *testing.T) {
	tests := []struct {
		name    string
		handler *recordingHandler
		want    []string
	}{
		{
			name:    "ignore llm",
			handler: &recordingHandler{BaseHandler: BaseHandler{LLMIgnored: true}},
			want:    []string{"chain_start", "tool_start", "agent_action", "chain_end"},
		},
		{
			name:    "ignore chain",
			handler: &recordingHandler{BaseHandler: BaseHandler{ChainIgnored: true}},
			want:    []string{"llm_start", "llm_new_token", "llm_end", "tool_start", "agent_action"},
		},
		{
			name:    "ignore agent",
			handler: &recordingHandler{BaseHandler: BaseHandler{AgentIgnored: true}},
			want:    []string{"chain_start", "llm_start", "llm_new_token", "llm_end", "tool_start", "chain_end"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			mgr := NewManager(loggerv2.NewNoop(), tt.handler)

			chainID := mgr.NewRunID()
			llmID := mgr.NewRunID()
			toolID := mgr.NewRunID()

			mgr.ChainStart(ctx, nil, nil, chainID, uuid.Nil)
			mgr.LLMStart(ctx, nil, []string{"p"}, llmID, chainID, nil)
			mgr.LLMNewToken(ctx, "t", llmID, chainID)
			mgr.LLMEnd(ctx, LLMResult{}, llmID, chainID)
			mgr.ToolStart(ctx, nil, "", toolID, chainID)
			mgr.AgentAction(ctx, AgentAction{Tool: "search"}, chainID, uuid.Nil)
			mgr.ChainEnd(ctx, nil, chainID, uuid.Nil)

			calls := tt.handler.got()
			if len(calls) != len(tt.want) {
				t.Fatalf("calls = %v, want %v", calls, tt.want)
			}
			for i := range tt.want {
				if calls[i] != tt.want[i] {
					t.Errorf("calls[%d] = %s, want %s", i, calls[i], tt.want[i])
				}
			}
		})
	}
}

// panickyHandler blows up on every chain start.
type panickyHandler struct {
	BaseHandler
}

func (p *panickyHandler) HandleChainStart(ctx context.Context, serialized map[string]interface{}, inputs map[string]interface{}, runID, parentRunID uuid.UUID) {
	panic(errors.New("observer bug"))
}

func TestManagerIsolatesHandlerPanics(t *testing.T) {
	ctx := context.Background()
	healthy := &recordingHandler{}
	mgr := NewManager(loggerv2.NewNoop(), &panickyHandler{}, healthy)

	runID := mgr.NewRunID()
	// Must not panic, and the healthy handler must still be notified.
	mgr.ChainStart(ctx, nil, nil, runID, uuid.Nil)

	if calls := healthy.got(); len(calls) != 1 || calls[0] != "chain_start" {
		t.Errorf("healthy handler calls = %v, want [chain_start]", calls)
	}
}

func TestManagerRunIDsUnique(t *testing.T) {
	mgr := NewManager(loggerv2.NewNoop())
	seen := make(map[uuid.UUID]bool)
	for i := 0; i < 100; i++ {
		id := mgr.NewRunID()
		if seen[id] {
			t.Fatalf("duplicate run id %s", id)
		}
		seen[id] = true
	}
}
