package repositories

import (
	"context"
	"time"

	"github.com/luminapos/corrispettivi/internal/core/domain"
)

// AuditJobReader defines read operations over audit jobs.
type AuditJobReader interface {
	// FindJob retrieves a job by ID, or apperrors.ErrNotFound.
	FindJob(ctx context.Context, jobID string) (*domain.AuditJob, error)
}

// AuditJobWriter defines write operations over audit jobs.
type AuditJobWriter interface {
	// SaveJob persists a newly created job.
	SaveJob(ctx context.Context, job domain.AuditJob) error

	// UpdateJob persists a job's terminal transition (status, artifact
	// list, completion time).
	UpdateJob(ctx context.Context, job domain.AuditJob) error

	// DeleteJobsCompletedBefore removes terminal jobs whose completion
	// predates the cutoff and returns the deleted jobs so their
	// artifacts can be purged too.
	DeleteJobsCompletedBefore(ctx context.Context, cutoff time.Time) ([]domain.AuditJob, error)
}

// AuditJobRepositoryFacade combines all audit job capabilities.
type AuditJobRepositoryFacade interface {
	AuditJobReader
	AuditJobWriter
}
