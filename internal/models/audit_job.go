package models

import (
	"encoding/json"
	"time"
)

// AuditJob is the database row shape of an asynchronous audit job.
// The original query criteria are retained as JSONB for traceability.
type AuditJob struct {
	JobID         string          `json:"jobId"`
	Kind          string          `json:"kind"`
	Status        string          `json:"status"`
	Query         json.RawMessage `json:"query"`
	ArtifactNames []string        `json:"artifactNames"`
	CreatedAt     time.Time       `json:"createdAt"`
	CompletedAt   *time.Time      `json:"completedAt,omitempty"`
}
