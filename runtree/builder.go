package runtree

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	loggerv2 "runtrail/logger/v2"
)

// Persister receives a finalized root run for export. PersistRun is
// invoked outside the builder's lock, after the root's terminal event;
// its failure must not affect builder state.
type Persister interface {
	PersistRun(ctx context.Context, run *Run) error
}

// NoopPersister discards finished trees.
type NoopPersister struct{}

func (NoopPersister) PersistRun(ctx context.Context, run *Run) error { return nil }

// Builder assembles lifecycle events into run trees. It keeps an
// open-run table keyed by run id and a per-root execution order counter.
// Events for distinct runs may arrive concurrently; updates to any one
// run are serialized under the builder lock.
type Builder struct {
	mu     sync.Mutex
	open   map[uuid.UUID]*Run
	orders map[uuid.UUID]int // root id -> last assigned execution order

	persister Persister
	logger    loggerv2.Logger
}

// NewBuilder creates a builder that hands finished root runs to the
// given persister.
func NewBuilder(persister Persister, logger loggerv2.Logger) *Builder {
	if persister == nil {
		persister = NoopPersister{}
	}
	if logger == nil {
		logger = loggerv2.NewDefault()
	}
	return &Builder{
		open:      make(map[uuid.UUID]*Run),
		orders:    make(map[uuid.UUID]int),
		persister: persister,
		logger:    logger,
	}
}

// StartParams describes a run start event.
type StartParams struct {
	RunID       uuid.UUID
	ParentRunID uuid.UUID // uuid.Nil for root runs
	RunType     RunType
	Name        string
	Serialized  map[string]interface{}
	Inputs      map[string]interface{}
	Extra       map[string]interface{}
}

// StartRun opens a run and attaches it to its parent, or registers a new
// root. An unknown parent id is treated as a missing earlier event: the
// run becomes a root rather than being dropped.
func (b *Builder) StartRun(ctx context.Context, p StartParams) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.open[p.RunID]; exists {
		b.logger.Warn("duplicate start event ignored",
			loggerv2.String("run_id", p.RunID.String()),
			loggerv2.String("name", p.Name))
		return
	}

	extra := p.Extra
	if extra == nil {
		extra = make(map[string]interface{})
	}

	run := &Run{
		ID:          p.RunID,
		Name:        p.Name,
		RunType:     p.RunType,
		StartTime:   time.Now(),
		Serialized:  p.Serialized,
		Inputs:      p.Inputs,
		Extra:       extra,
		ParentRunID: p.ParentRunID,
	}

	var parent *Run
	if p.ParentRunID != uuid.Nil {
		var ok bool
		parent, ok = b.open[p.ParentRunID]
		if !ok {
			b.logger.Warn("start event references unknown parent, treating run as root",
				loggerv2.String("run_id", p.RunID.String()),
				loggerv2.String("parent_run_id", p.ParentRunID.String()))
			run.ParentRunID = uuid.Nil
		}
	}

	if parent != nil {
		run.rootID = parent.rootID
		parent.ChildRuns = append(parent.ChildRuns, run)
	} else {
		run.rootID = run.ID
	}

	b.orders[run.rootID]++
	run.ExecutionOrder = b.orders[run.rootID]

	b.open[p.RunID] = run
}

// AddEvent annotates an open run without closing it. Annotations for an
// unknown or already-closed run are dropped with a warning.
func (b *Builder) AddEvent(runID uuid.UUID, name string, kwargs map[string]interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()

	run, ok := b.open[runID]
	if !ok {
		b.logger.Warn("annotation for unknown run dropped",
			loggerv2.String("run_id", runID.String()),
			loggerv2.String("event", name))
		return
	}
	run.AddEvent(name, kwargs)
}

// EndRunWithOutputs closes a run with its result. If it closed a root,
// the finished tree is handed to the persister.
func (b *Builder) EndRunWithOutputs(ctx context.Context, runID uuid.UUID, outputs map[string]interface{}) {
	if outputs == nil {
		outputs = make(map[string]interface{})
	}
	b.closeRun(ctx, runID, func(run *Run) {
		run.Outputs = outputs
	})
}

// EndRunWithError closes a run with an error.
func (b *Builder) EndRunWithError(ctx context.Context, runID uuid.UUID, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	b.closeRun(ctx, runID, func(run *Run) {
		run.Error = msg
	})
}

// closeRun applies the terminal mutation, removes the run from the open
// table, and exports the tree when a root closed. A terminal event for a
// run that is not open (already closed, or never started) is a non-fatal
// anomaly: logged and dropped, never re-opening the record.
func (b *Builder) closeRun(ctx context.Context, runID uuid.UUID, terminal func(*Run)) {
	b.mu.Lock()
	run, ok := b.open[runID]
	if !ok {
		b.mu.Unlock()
		b.logger.Warn("terminal event for run that is not open, dropped",
			loggerv2.String("run_id", runID.String()))
		return
	}

	now := time.Now()
	run.EndTime = &now
	terminal(run)
	delete(b.open, runID)

	isRoot := run.rootID == run.ID
	if isRoot {
		delete(b.orders, run.ID)
	}
	b.mu.Unlock()

	if !isRoot {
		return
	}

	if err := b.persister.PersistRun(ctx, run); err != nil {
		b.logger.Error("failed to persist finished run tree", err,
			loggerv2.String("run_id", run.ID.String()),
			loggerv2.String("name", run.Name))
	}
}

// OpenRuns reports how many runs are currently open.
func (b *Builder) OpenRuns() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.open)
}
