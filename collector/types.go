package collector

import (
	"time"

	"github.com/google/uuid"

	"runtrail/runtree"
)

// Tenant is the top-level ownership scope for sessions. Only the id is
// interpreted; everything else the collector returns is carried along.
type Tenant struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"display_name,omitempty"`
}

// TracerSession is a named grouping of runs under a tenant.
type TracerSession struct {
	ID        uuid.UUID              `json:"id"`
	TenantID  uuid.UUID              `json:"tenant_id"`
	Name      string                 `json:"name"`
	StartTime time.Time              `json:"start_time"`
	Extra     map[string]interface{} `json:"extra,omitempty"`
}

// SessionCreate is the create-or-fetch request body. The upsert is
// idempotent by session name within a tenant.
type SessionCreate struct {
	Name     string                 `json:"name"`
	TenantID uuid.UUID              `json:"tenant_id"`
	Extra    map[string]interface{} `json:"extra,omitempty"`
}

// RunCreate is the run ingestion record. Child runs are embedded
// recursively; every node in one tree carries the same session id, and
// only the root may carry a reference example id.
type RunCreate struct {
	ID                 uuid.UUID              `json:"id"`
	Name               string                 `json:"name"`
	StartTime          time.Time              `json:"start_time"`
	EndTime            *time.Time             `json:"end_time,omitempty"`
	RunType            runtree.RunType        `json:"run_type"`
	ReferenceExampleID *uuid.UUID             `json:"reference_example_id,omitempty"`
	Extra              map[string]interface{} `json:"extra,omitempty"`
	ExecutionOrder     int                    `json:"execution_order"`
	Serialized         map[string]interface{} `json:"serialized,omitempty"`
	Error              string                 `json:"error,omitempty"`
	Inputs             map[string]interface{} `json:"inputs"`
	Outputs            map[string]interface{} `json:"outputs"`
	Events             []runtree.RunEvent     `json:"events,omitempty"`
	SessionID          uuid.UUID              `json:"session_id"`
	ChildRuns          []*RunCreate           `json:"child_runs"`
}
