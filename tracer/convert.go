package tracer

import (
	"github.com/google/uuid"

	"runtrail/collector"
	"runtrail/runtree"
)

// convertToCreate maps a finished run tree to the ingestion record. The
// session id is resolved once by the caller and threaded through the
// recursion so every node in the tree shares it. referenceExampleID is
// attached only at the root; recursion always passes nil.
func convertToCreate(run *runtree.Run, sessionID uuid.UUID, referenceExampleID *uuid.UUID) *collector.RunCreate {
	extra := make(map[string]interface{}, len(run.Extra)+1)
	for k, v := range run.Extra {
		extra[k] = v
	}
	extra["runtime"] = runtimeEnvironment()

	outputs := run.Outputs
	if outputs == nil {
		outputs = make(map[string]interface{})
	}

	children := make([]*collector.RunCreate, 0, len(run.ChildRuns))
	for _, child := range run.ChildRuns {
		children = append(children, convertToCreate(child, sessionID, nil))
	}

	return &collector.RunCreate{
		ID:                 run.ID,
		Name:               run.Name,
		StartTime:          run.StartTime,
		EndTime:            run.EndTime,
		RunType:            run.RunType,
		ReferenceExampleID: referenceExampleID,
		Extra:              extra,
		ExecutionOrder:     run.ExecutionOrder,
		Serialized:         run.Serialized,
		Error:              run.Error,
		Inputs:             run.Inputs,
		Outputs:            outputs,
		Events:             run.Events,
		SessionID:          sessionID,
		ChildRuns:          children,
	}
}
