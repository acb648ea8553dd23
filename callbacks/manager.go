package callbacks

import (
	"context"
	"sync"

	"github.com/google/uuid"

	loggerv2 "runtrail/logger/v2"
)

// Manager dispatches execution events to a set of handlers. Dispatch is
// synchronous per event. A panic or error inside a handler is logged and
// never propagates to the traced computation.
type Manager struct {
	mu       sync.RWMutex
	handlers []Handler
	logger   loggerv2.Logger
}

// NewManager creates a dispatcher over the given handlers.
func NewManager(logger loggerv2.Logger, handlers ...Handler) *Manager {
	if logger == nil {
		logger = loggerv2.NewDefault()
	}
	return &Manager{handlers: handlers, logger: logger}
}

// AddHandler registers an additional handler.
func (m *Manager) AddHandler(h Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers = append(m.handlers, h)
}

// NewRunID returns a fresh run identifier.
func (m *Manager) NewRunID() uuid.UUID {
	return uuid.New()
}

func (m *Manager) snapshot() []Handler {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Handler, len(m.handlers))
	copy(out, m.handlers)
	return out
}

// invoke runs one hook, containing panics from observer code.
func (m *Manager) invoke(hook string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Warn("callback handler panicked",
				loggerv2.String("hook", hook),
				loggerv2.Any("panic", r))
		}
	}()
	fn()
}

// LLMStart notifies handlers that an LLM run opened.
func (m *Manager) LLMStart(ctx context.Context, serialized map[string]interface{}, prompts []string, runID, parentRunID uuid.UUID, extra map[string]interface{}) {
	for _, h := range m.snapshot() {
		if h.IgnoreLLM() {
			continue
		}
		h := h
		m.invoke("llm_start", func() {
			h.HandleLLMStart(ctx, serialized, prompts, runID, parentRunID, extra)
		})
	}
}

// ChatModelStart notifies handlers that a chat-model run opened.
func (m *Manager) ChatModelStart(ctx context.Context, serialized map[string]interface{}, messageBatches [][]Message, runID, parentRunID uuid.UUID, extra map[string]interface{}) {
	for _, h := range m.snapshot() {
		if h.IgnoreLLM() {
			continue
		}
		h := h
		m.invoke("chat_model_start", func() {
			h.HandleChatModelStart(ctx, serialized, messageBatches, runID, parentRunID, extra)
		})
	}
}

// LLMNewToken forwards a streamed token. Tokens for one run must be
// dispatched in generation order.
func (m *Manager) LLMNewToken(ctx context.Context, token string, runID, parentRunID uuid.UUID) {
	for _, h := range m.snapshot() {
		if h.IgnoreLLM() {
			continue
		}
		h := h
		m.invoke("llm_new_token", func() {
			h.HandleLLMNewToken(ctx, token, runID, parentRunID)
		})
	}
}

// LLMError closes an LLM run with an error.
func (m *Manager) LLMError(ctx context.Context, err error, runID, parentRunID uuid.UUID) {
	for _, h := range m.snapshot() {
		if h.IgnoreLLM() {
			continue
		}
		h := h
		m.invoke("llm_error", func() {
			h.HandleLLMError(ctx, err, runID, parentRunID)
		})
	}
}

// LLMEnd closes an LLM run with its result.
func (m *Manager) LLMEnd(ctx context.Context, result LLMResult, runID, parentRunID uuid.UUID) {
	for _, h := range m.snapshot() {
		if h.IgnoreLLM() {
			continue
		}
		h := h
		m.invoke("llm_end", func() {
			h.HandleLLMEnd(ctx, result, runID, parentRunID)
		})
	}
}

// ChainStart notifies handlers that a chain run opened.
func (m *Manager) ChainStart(ctx context.Context, serialized map[string]interface{}, inputs map[string]interface{}, runID, parentRunID uuid.UUID) {
	for _, h := range m.snapshot() {
		if h.IgnoreChain() {
			continue
		}
		h := h
		m.invoke("chain_start", func() {
			h.HandleChainStart(ctx, serialized, inputs, runID, parentRunID)
		})
	}
}

// ChainError closes a chain run with an error.
func (m *Manager) ChainError(ctx context.Context, err error, runID, parentRunID uuid.UUID) {
	for _, h := range m.snapshot() {
		if h.IgnoreChain() {
			continue
		}
		h := h
		m.invoke("chain_error", func() {
			h.HandleChainError(ctx, err, runID, parentRunID)
		})
	}
}

// ChainEnd closes a chain run with its outputs.
func (m *Manager) ChainEnd(ctx context.Context, outputs map[string]interface{}, runID, parentRunID uuid.UUID) {
	for _, h := range m.snapshot() {
		if h.IgnoreChain() {
			continue
		}
		h := h
		m.invoke("chain_end", func() {
			h.HandleChainEnd(ctx, outputs, runID, parentRunID)
		})
	}
}

// ToolStart notifies handlers that a tool run opened.
func (m *Manager) ToolStart(ctx context.Context, serialized map[string]interface{}, input string, runID, parentRunID uuid.UUID) {
	for _, h := range m.snapshot() {
		h := h
		m.invoke("tool_start", func() {
			h.HandleToolStart(ctx, serialized, input, runID, parentRunID)
		})
	}
}

// ToolError closes a tool run with an error.
func (m *Manager) ToolError(ctx context.Context, err error, runID, parentRunID uuid.UUID) {
	for _, h := range m.snapshot() {
		h := h
		m.invoke("tool_error", func() {
			h.HandleToolError(ctx, err, runID, parentRunID)
		})
	}
}

// ToolEnd closes a tool run with its output.
func (m *Manager) ToolEnd(ctx context.Context, output string, runID, parentRunID uuid.UUID) {
	for _, h := range m.snapshot() {
		h := h
		m.invoke("tool_end", func() {
			h.HandleToolEnd(ctx, output, runID, parentRunID)
		})
	}
}

// Text forwards a free-form annotation on an open run.
func (m *Manager) Text(ctx context.Context, text string, runID, parentRunID uuid.UUID) {
	for _, h := range m.snapshot() {
		h := h
		m.invoke("text", func() {
			h.HandleText(ctx, text, runID, parentRunID)
		})
	}
}

// AgentAction annotates an open chain run with a tool selection.
func (m *Manager) AgentAction(ctx context.Context, action AgentAction, runID, parentRunID uuid.UUID) {
	for _, h := range m.snapshot() {
		if h.IgnoreAgent() {
			continue
		}
		h := h
		m.invoke("agent_action", func() {
			h.HandleAgentAction(ctx, action, runID, parentRunID)
		})
	}
}

// AgentFinish annotates an open chain run with an agent's final answer.
func (m *Manager) AgentFinish(ctx context.Context, finish AgentFinish, runID, parentRunID uuid.UUID) {
	for _, h := range m.snapshot() {
		if h.IgnoreAgent() {
			continue
		}
		h := h
		m.invoke("agent_finish", func() {
			h.HandleAgentFinish(ctx, finish, runID, parentRunID)
		})
	}
}
