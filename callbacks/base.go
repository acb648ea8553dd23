package callbacks

import (
	"context"

	"github.com/google/uuid"
)

// BaseHandler is a no-op Handler. Embed it and override the hooks you
// need. The category switches are plain fields so observers can opt out
// of whole event classes at construction time.
type BaseHandler struct {
	LLMIgnored   bool
	ChainIgnored bool
	AgentIgnored bool
}

var _ Handler = (*BaseHandler)(nil)

func (b *BaseHandler) HandleLLMStart(ctx context.Context, serialized map[string]interface{}, prompts []string, runID, parentRunID uuid.UUID, extra map[string]interface{}) {
}

func (b *BaseHandler) HandleChatModelStart(ctx context.Context, serialized map[string]interface{}, messageBatches [][]Message, runID, parentRunID uuid.UUID, extra map[string]interface{}) {
}

func (b *BaseHandler) HandleLLMNewToken(ctx context.Context, token string, runID, parentRunID uuid.UUID) {
}

func (b *BaseHandler) HandleLLMError(ctx context.Context, err error, runID, parentRunID uuid.UUID) {
}

func (b *BaseHandler) HandleLLMEnd(ctx context.Context, result LLMResult, runID, parentRunID uuid.UUID) {
}

func (b *BaseHandler) HandleChainStart(ctx context.Context, serialized map[string]interface{}, inputs map[string]interface{}, runID, parentRunID uuid.UUID) {
}

func (b *BaseHandler) HandleChainError(ctx context.Context, err error, runID, parentRunID uuid.UUID) {
}

func (b *BaseHandler) HandleChainEnd(ctx context.Context, outputs map[string]interface{}, runID, parentRunID uuid.UUID) {
}

func (b *BaseHandler) HandleToolStart(ctx context.Context, serialized map[string]interface{}, input string, runID, parentRunID uuid.UUID) {
}

func (b *BaseHandler) HandleToolError(ctx context.Context, err error, runID, parentRunID uuid.UUID) {
}

func (b *BaseHandler) HandleToolEnd(ctx context.Context, output string, runID, parentRunID uuid.UUID) {
}

func (b *BaseHandler) HandleText(ctx context.Context, text string, runID, parentRunID uuid.UUID) {
}

func (b *BaseHandler) HandleAgentAction(ctx context.Context, action AgentAction, runID, parentRunID uuid.UUID) {
}

func (b *BaseHandler) HandleAgentFinish(ctx context.Context, finish AgentFinish, runID, parentRunID uuid.UUID) {
}

func (b *BaseHandler) IgnoreLLM() bool   { return b.LLMIgnored }
func (b *BaseHandler) IgnoreChain() bool { return b.ChainIgnored }
func (b *BaseHandler) IgnoreAgent() bool { return b.AgentIgnored }
