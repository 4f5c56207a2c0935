package services

import (
	"context"

	"github.com/luminapos/corrispettivi/internal/core/domain"
)

// AuditService answers third-party integrity/content queries over
// ingested fiscal data through asynchronous jobs: the caller polls a
// job instead of holding a connection open for an unbounded scan.
type AuditService interface {
	// RequestJournalAudit creates a PROCESSING job scanning persisted
	// journals by device and date range, and returns its ID.
	RequestJournalAudit(ctx context.Context, query domain.AuditQuery) (string, error)

	// RequestDocumentAudit creates a PROCESSING job resolving receipts
	// by exact content hashes or by device/date-range criteria.
	RequestDocumentAudit(ctx context.Context, query domain.AuditQuery) (string, error)

	// GetStatus returns the current job status.
	GetStatus(ctx context.Context, jobID string) (domain.AuditJobStatus, error)

	// ListArtifacts returns the artifact names of a READY job. It fails
	// with ErrState for a job in any other status.
	ListArtifacts(ctx context.Context, jobID string) ([]string, error)

	// DownloadArtifact returns the content of one named artifact of a
	// READY job.
	DownloadArtifact(ctx context.Context, jobID, name string) ([]byte, error)

	// PurgeExpired removes terminal jobs older than the retention
	// window, together with their artifacts, and reports how many were
	// purged.
	PurgeExpired(ctx context.Context) (int, error)
}
