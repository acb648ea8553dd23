// Package tracer assembles callback events into run trees and exports
// finished trees to the remote collector under session/tenant scoping.
package tracer

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"runtrail/callbacks"
	"runtrail/caller"
	"runtrail/collector"
	"runtrail/config"
	loggerv2 "runtrail/logger/v2"
	"runtrail/runtree"
)

// Option configures a CollectorTracer.
type Option func(*CollectorTracer)

// WithClient overrides the collector client, mainly for tests.
func WithClient(c *collector.Client) Option {
	return func(t *CollectorTracer) {
		t.client = c
	}
}

// WithReferenceExampleID associates exported traces with a benchmark
// example. Attached to root records only.
func WithReferenceExampleID(id uuid.UUID) Option {
	return func(t *CollectorTracer) {
		t.exampleID = &id
	}
}

// WithPersistErrorHandler registers a callback invoked when exporting a
// finished tree fails. Tracing stays best-effort either way; this is for
// callers that want export failures surfaced beyond the log.
func WithPersistErrorHandler(fn func(error)) Option {
	return func(t *CollectorTracer) {
		t.onPersistError = fn
	}
}

// CollectorTracer is a callbacks.Handler that builds one run tree per
// root run and ships each finished tree to the collector. Tenant and
// session are resolved lazily, cached for the tracer's lifetime, and
// guarded by single-flight so concurrent resolvers share one call.
type CollectorTracer struct {
	callbacks.BaseHandler

	builder *runtree.Builder
	client  *collector.Client
	logger  loggerv2.Logger

	sessionName  string
	sessionExtra map[string]interface{}
	exampleID    *uuid.UUID

	onPersistError func(error)

	mu       sync.RWMutex
	tenantID uuid.UUID
	session  *collector.TracerSession
	sf       singleflight.Group
}

var _ callbacks.Handler = (*CollectorTracer)(nil)
var _ runtree.Persister = (*CollectorTracer)(nil)

type persisterFunc func(ctx context.Context, run *runtree.Run) error

func (f persisterFunc) PersistRun(ctx context.Context, run *runtree.Run) error {
	return f(ctx, run)
}

// New creates a tracer from resolved configuration.
func New(cfg config.Config, logger loggerv2.Logger, opts ...Option) (*CollectorTracer, error) {
	if logger == nil {
		logger = loggerv2.NewDefault()
	}

	t := &CollectorTracer{
		logger:       logger,
		sessionName:  cfg.SessionName,
		sessionExtra: cfg.SessionExtra,
	}
	if t.sessionName == "" {
		t.sessionName = "default"
	}

	if cfg.TenantID != "" {
		id, err := uuid.Parse(cfg.TenantID)
		if err != nil {
			return nil, fmt.Errorf("invalid tenant id %q: %w", cfg.TenantID, err)
		}
		t.tenantID = id
	}

	for _, opt := range opts {
		opt(t)
	}

	if t.client == nil {
		nc := caller.New(cfg.Concurrency, cfg.MaxRetries, logger)
		t.client = collector.NewClient(cfg.Endpoint, cfg.APIKey, nc, logger)
	}

	t.builder = runtree.NewBuilder(persisterFunc(t.exportRoot), logger)
	return t, nil
}

// exportRoot is the builder's export path for finished root runs.
func (t *CollectorTracer) exportRoot(ctx context.Context, run *runtree.Run) error {
	err := t.PersistRun(ctx, run)
	if err != nil && t.onPersistError != nil {
		t.onPersistError(err)
	}
	return err
}

// ensureTenantID returns the cached tenant id, resolving it through the
// collector's tenant listing on first use.
func (t *CollectorTracer) ensureTenantID(ctx context.Context) (uuid.UUID, error) {
	t.mu.RLock()
	cached := t.tenantID
	t.mu.RUnlock()
	if cached != uuid.Nil {
		return cached, nil
	}

	v, err, _ := t.sf.Do("tenant", func() (interface{}, error) {
		t.mu.RLock()
		cached := t.tenantID
		t.mu.RUnlock()
		if cached != uuid.Nil {
			return cached, nil
		}

		tenants, err := t.client.ListTenants(ctx)
		if err != nil {
			return uuid.Nil, fmt.Errorf("tenant lookup failed: %w", err)
		}
		if len(tenants) == 0 {
			return uuid.Nil, ErrNoTenantFound
		}

		id := tenants[0].ID
		t.mu.Lock()
		t.tenantID = id
		t.mu.Unlock()

		t.logger.Debug("resolved tenant", loggerv2.String("tenant_id", id.String()))
		return id, nil
	})
	if err != nil {
		return uuid.Nil, err
	}
	return v.(uuid.UUID), nil
}

// EnsureSession returns the session runs are exported under, creating it
// on first use. The create is an upsert by name within the tenant, so
// concurrent first callers cannot duplicate it.
func (t *CollectorTracer) EnsureSession(ctx context.Context) (*collector.TracerSession, error) {
	t.mu.RLock()
	cached := t.session
	t.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}

	v, err, _ := t.sf.Do("session", func() (interface{}, error) {
		t.mu.RLock()
		cached := t.session
		t.mu.RUnlock()
		if cached != nil {
			return cached, nil
		}

		tenantID, err := t.ensureTenantID(ctx)
		if err != nil {
			return nil, err
		}

		session, err := t.client.UpsertSession(ctx, collector.SessionCreate{
			Name:     t.sessionName,
			TenantID: tenantID,
			Extra:    t.sessionExtra,
		})
		if err != nil {
			return nil, fmt.Errorf("create session %q: %w", t.sessionName, err)
		}

		t.mu.Lock()
		t.session = session
		t.mu.Unlock()

		t.logger.Info("tracer session ready",
			loggerv2.String("session", t.sessionName),
			loggerv2.String("session_id", session.ID.String()))
		return session, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*collector.TracerSession), nil
}

// PersistRun converts one finalized root run and submits it. Failures
// carry the collector's status and body; they never mutate builder state
// and are never retried beyond the shared caller's policy.
func (t *CollectorTracer) PersistRun(ctx context.Context, run *runtree.Run) error {
	session, err := t.EnsureSession(ctx)
	if err != nil {
		return err
	}

	rec := convertToCreate(run, session.ID, t.exampleID)
	if err := t.client.CreateRun(ctx, rec); err != nil {
		return fmt.Errorf("persist run %s: %w", run.ID, err)
	}

	t.logger.Debug("persisted run tree",
		loggerv2.String("run_id", run.ID.String()),
		loggerv2.String("name", run.Name))
	return nil
}

// runName falls back to a per-type default when the serialized
// descriptor carries no name.
func runName(serialized map[string]interface{}, fallback string) string {
	if name, ok := serialized["name"].(string); ok && name != "" {
		return name
	}
	return fallback
}

// Callback hooks. Start events open nodes in the builder; terminal
// events close them and, for roots, trigger export.

func (t *CollectorTracer) HandleLLMStart(ctx context.Context, serialized map[string]interface{}, prompts []string, runID, parentRunID uuid.UUID, extra map[string]interface{}) {
	t.builder.StartRun(ctx, runtree.StartParams{
		RunID:       runID,
		ParentRunID: parentRunID,
		RunType:     runtree.RunTypeLLM,
		Name:        runName(serialized, "llm"),
		Serialized:  serialized,
		Inputs:      map[string]interface{}{"prompts": prompts},
		Extra:       extra,
	})
}

func (t *CollectorTracer) HandleChatModelStart(ctx context.Context, serialized map[string]interface{}, messageBatches [][]callbacks.Message, runID, parentRunID uuid.UUID, extra map[string]interface{}) {
	t.builder.StartRun(ctx, runtree.StartParams{
		RunID:       runID,
		ParentRunID: parentRunID,
		RunType:     runtree.RunTypeLLM,
		Name:        runName(serialized, "chat_model"),
		Serialized:  serialized,
		Inputs:      map[string]interface{}{"messages": messageBatches},
		Extra:       extra,
	})
}

func (t *CollectorTracer) HandleLLMNewToken(ctx context.Context, token string, runID, parentRunID uuid.UUID) {
	t.builder.AddEvent(runID, "new_token", map[string]interface{}{"token": token})
}

func (t *CollectorTracer) HandleLLMError(ctx context.Context, err error, runID, parentRunID uuid.UUID) {
	t.builder.EndRunWithError(ctx, runID, err)
}

func (t *CollectorTracer) HandleLLMEnd(ctx context.Context, result callbacks.LLMResult, runID, parentRunID uuid.UUID) {
	outputs := map[string]interface{}{"generations": result.Generations}
	if result.LLMOutput != nil {
		outputs["llm_output"] = result.LLMOutput
	}
	t.builder.EndRunWithOutputs(ctx, runID, outputs)
}

func (t *CollectorTracer) HandleChainStart(ctx context.Context, serialized map[string]interface{}, inputs map[string]interface{}, runID, parentRunID uuid.UUID) {
	t.builder.StartRun(ctx, runtree.StartParams{
		RunID:       runID,
		ParentRunID: parentRunID,
		RunType:     runtree.RunTypeChain,
		Name:        runName(serialized, "chain"),
		Serialized:  serialized,
		Inputs:      inputs,
	})
}

func (t *CollectorTracer) HandleChainError(ctx context.Context, err error, runID, parentRunID uuid.UUID) {
	t.builder.EndRunWithError(ctx, runID, err)
}

func (t *CollectorTracer) HandleChainEnd(ctx context.Context, outputs map[string]interface{}, runID, parentRunID uuid.UUID) {
	t.builder.EndRunWithOutputs(ctx, runID, outputs)
}

func (t *CollectorTracer) HandleToolStart(ctx context.Context, serialized map[string]interface{}, input string, runID, parentRunID uuid.UUID) {
	t.builder.StartRun(ctx, runtree.StartParams{
		RunID:       runID,
		ParentRunID: parentRunID,
		RunType:     runtree.RunTypeTool,
		Name:        runName(serialized, "tool"),
		Serialized:  serialized,
		Inputs:      map[string]interface{}{"input": input},
	})
}

func (t *CollectorTracer) HandleToolError(ctx context.Context, err error, runID, parentRunID uuid.UUID) {
	t.builder.EndRunWithError(ctx, runID, err)
}

func (t *CollectorTracer) HandleToolEnd(ctx context.Context, output string, runID, parentRunID uuid.UUID) {
	t.builder.EndRunWithOutputs(ctx, runID, map[string]interface{}{"output": output})
}

func (t *CollectorTracer) HandleText(ctx context.Context, text string, runID, parentRunID uuid.UUID) {
	t.builder.AddEvent(runID, "text", map[string]interface{}{"text": text})
}

func (t *CollectorTracer) HandleAgentAction(ctx context.Context, action callbacks.AgentAction, runID, parentRunID uuid.UUID) {
	t.builder.AddEvent(runID, "agent_action", map[string]interface{}{
		"tool":       action.Tool,
		"tool_input": action.ToolInput,
		"log":        action.Log,
	})
}

func (t *CollectorTracer) HandleAgentFinish(ctx context.Context, finish callbacks.AgentFinish, runID, parentRunID uuid.UUID) {
	t.builder.AddEvent(runID, "agent_finish", map[string]interface{}{
		"return_values": finish.ReturnValues,
		"log":           finish.Log,
	})
}
