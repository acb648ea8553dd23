package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"runtrail/callbacks"
	loggerv2 "runtrail/logger/v2"
	"runtrail/tracer"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Send a synthetic run tree to the collector",
	Long: `check drives a small synthetic execution (a chain run with an LLM
child and a tool child) through the callback pipeline and submits the
finished tree to the configured collector. Exits non-zero if session
resolution or run submission fails.`,
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	var persistErr error
	tr, err := tracer.New(cfg, logger,
		tracer.WithPersistErrorHandler(func(err error) { persistErr = err }))
	if err != nil {
		return err
	}

	// Resolve tenant and session up front so credential problems fail
	// fast with a clear error instead of a dropped trace.
	session, err := tr.EnsureSession(ctx)
	if err != nil {
		return fmt.Errorf("collector check failed: %w", err)
	}
	logger.Info("session resolved",
		loggerv2.String("session_id", session.ID.String()),
		loggerv2.String("name", session.Name))

	mgr := callbacks.NewManager(logger, tr)

	chainID := mgr.NewRunID()
	mgr.ChainStart(ctx,
		map[string]interface{}{"name": "ingest_check"},
		map[string]interface{}{"input": "synthetic trace"},
		chainID, uuid.Nil)

	llmID := mgr.NewRunID()
	mgr.LLMStart(ctx,
		map[string]interface{}{"name": "check_llm"},
		[]string{"say hello"},
		llmID, chainID, nil)
	mgr.LLMNewToken(ctx, "hel", llmID, chainID)
	mgr.LLMNewToken(ctx, "lo", llmID, chainID)
	mgr.LLMEnd(ctx, callbacks.LLMResult{
		Generations: []callbacks.Generation{{Text: "hello"}},
	}, llmID, chainID)

	toolID := mgr.NewRunID()
	mgr.ToolStart(ctx,
		map[string]interface{}{"name": "check_tool"},
		`{"query":"ping"}`,
		toolID, chainID)
	mgr.ToolEnd(ctx, "pong", toolID, chainID)

	mgr.ChainEnd(ctx, map[string]interface{}{"output": "hello / pong"}, chainID, uuid.Nil)

	if persistErr != nil {
		return fmt.Errorf("collector check failed: %w", persistErr)
	}

	fmt.Printf("ok: run tree %s accepted by %s\n", chainID, cfg.Endpoint)
	return nil
}
