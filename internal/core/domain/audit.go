package domain

import "time"

// AuditJobKind selects which data family an audit job scans.
type AuditJobKind string

const (
	AuditJournal  AuditJobKind = "JOURNAL"
	AuditDocument AuditJobKind = "DOCUMENT"
)

// AuditJobStatus is the job state machine: PROCESSING is the only
// non-terminal state.
type AuditJobStatus string

const (
	AuditProcessing  AuditJobStatus = "PROCESSING"
	AuditReady       AuditJobStatus = "READY"
	AuditUnavailable AuditJobStatus = "UNAVAILABLE"
)

// AuditQuery is the criteria an auditor supplied. Journal audits use
// the device/date-range fields; document audits use either Hashes or
// the same device/date-range criteria.
type AuditQuery struct {
	DeviceID string    `json:"dispositivo,omitempty"`
	DateFrom time.Time `json:"dataDa,omitempty"`
	DateTo   time.Time `json:"dataA,omitempty"`
	Hashes   []string  `json:"hash,omitempty"`
}

// AuditJob is one asynchronous unit of audit work. Terminal jobs are
// retained for a bounded window, then purged together with their
// artifacts.
type AuditJob struct {
	JobID         string         `json:"jobId"`
	Kind          AuditJobKind   `json:"kind"`
	Status        AuditJobStatus `json:"status"`
	Query         AuditQuery     `json:"query"`
	ArtifactNames []string       `json:"files,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
	CompletedAt   *time.Time     `json:"completedAt,omitempty"`
}
