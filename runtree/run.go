package runtree

import (
	"time"

	"github.com/google/uuid"
)

// RunType classifies a recorded execution step. Agent actions and
// finishes are recorded as events on a chain run, not as a run type.
type RunType string

const (
	RunTypeLLM   RunType = "llm"
	RunTypeChain RunType = "chain"
	RunTypeTool  RunType = "tool"
)

// RunEvent is an in-run annotation (streamed token, free-form text,
// agent action) with its observation time.
type RunEvent struct {
	Name   string                 `json:"name"`
	Time   time.Time              `json:"time"`
	Kwargs map[string]interface{} `json:"kwargs,omitempty"`
}

// Run is one node of an execution tree. A run either is a root or has
// exactly one parent; children are owned by their parent and ordered by
// observed start.
type Run struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	RunType   RunType    `json:"run_type"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`

	// ExecutionOrder is strictly increasing and unique within one root's
	// subtree, assigned in observed-start order.
	ExecutionOrder int `json:"execution_order"`

	Serialized map[string]interface{} `json:"serialized,omitempty"`
	Inputs     map[string]interface{} `json:"inputs,omitempty"`
	Outputs    map[string]interface{} `json:"outputs,omitempty"`
	Error      string                 `json:"error,omitempty"`
	Extra      map[string]interface{} `json:"extra,omitempty"`
	Events     []RunEvent             `json:"events,omitempty"`
	ChildRuns  []*Run                 `json:"child_runs"`

	// ParentRunID routes events to the in-progress node; it is not part
	// of the export format.
	ParentRunID uuid.UUID `json:"-"`

	// rootID identifies the tree this run belongs to, for execution
	// order scoping.
	rootID uuid.UUID
}

// IsRoot reports whether the run has no parent.
func (r *Run) IsRoot() bool {
	return r.ParentRunID == uuid.Nil
}

// AddEvent appends an in-run annotation.
func (r *Run) AddEvent(name string, kwargs map[string]interface{}) {
	r.Events = append(r.Events, RunEvent{Name: name, Time: time.Now(), Kwargs: kwargs})
}
