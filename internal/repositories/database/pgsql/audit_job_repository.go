package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/luminapos/corrispettivi/internal/apperrors"
	"github.com/luminapos/corrispettivi/internal/core/domain"
	portsrepo "github.com/luminapos/corrispettivi/internal/core/ports/repositories"
	"github.com/luminapos/corrispettivi/internal/models"
	"github.com/luminapos/corrispettivi/internal/utils/mapping"
)

type PgxAuditJobRepository struct {
	BaseRepository
}

// newPgxAuditJobRepository creates a new repository for audit jobs.
func newPgxAuditJobRepository(pool *pgxpool.Pool) portsrepo.AuditJobRepositoryFacade {
	return &PgxAuditJobRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure implementation matches interface
var _ portsrepo.AuditJobRepositoryFacade = (*PgxAuditJobRepository)(nil)

// SaveJob persists a freshly created PROCESSING job.
func (r *PgxAuditJobRepository) SaveJob(ctx context.Context, job domain.AuditJob) error {
	m, err := mapping.ToModelAuditJob(job)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO audit_jobs (job_id, kind, status, query, artifact_names, created_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`
	_, err = r.Pool.Exec(ctx, query,
		m.JobID,
		m.Kind,
		m.Status,
		m.Query,
		m.ArtifactNames,
		m.CreatedAt,
		m.CompletedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: audit job %s already exists", apperrors.ErrDuplicate, m.JobID)
		}
		return fmt.Errorf("failed to save audit job %s: %w", m.JobID, err)
	}
	return nil
}

// UpdateJob records a job's terminal transition.
func (r *PgxAuditJobRepository) UpdateJob(ctx context.Context, job domain.AuditJob) error {
	m, err := mapping.ToModelAuditJob(job)
	if err != nil {
		return err
	}

	query := `
		UPDATE audit_jobs
		SET status = $2, artifact_names = $3, completed_at = $4
		WHERE job_id = $1;
	`
	tag, err := r.Pool.Exec(ctx, query, m.JobID, m.Status, m.ArtifactNames, m.CompletedAt)
	if err != nil {
		return fmt.Errorf("failed to update audit job %s: %w", m.JobID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: no audit job %s", apperrors.ErrNotFound, m.JobID)
	}
	return nil
}

// FindJob retrieves a job by ID.
func (r *PgxAuditJobRepository) FindJob(ctx context.Context, jobID string) (*domain.AuditJob, error) {
	query := `
		SELECT job_id, kind, status, query, artifact_names, created_at, completed_at
		FROM audit_jobs
		WHERE job_id = $1;
	`
	var m models.AuditJob
	err := r.Pool.QueryRow(ctx, query, jobID).Scan(
		&m.JobID,
		&m.Kind,
		&m.Status,
		&m.Query,
		&m.ArtifactNames,
		&m.CreatedAt,
		&m.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find audit job %s: %w", jobID, err)
	}

	d, err := mapping.ToDomainAuditJob(m)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// DeleteJobsCompletedBefore removes terminal jobs past the cutoff and
// returns them so the caller can purge their artifacts too.
func (r *PgxAuditJobRepository) DeleteJobsCompletedBefore(ctx context.Context, cutoff time.Time) ([]domain.AuditJob, error) {
	query := `
		DELETE FROM audit_jobs
		WHERE completed_at IS NOT NULL AND completed_at < $1
		RETURNING job_id, kind, status, query, artifact_names, created_at, completed_at;
	`
	rows, err := r.Pool.Query(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to purge audit jobs: %w", err)
	}
	defer rows.Close()

	modelJobs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.AuditJob, error) {
		var m models.AuditJob
		err := row.Scan(
			&m.JobID,
			&m.Kind,
			&m.Status,
			&m.Query,
			&m.ArtifactNames,
			&m.CreatedAt,
			&m.CompletedAt,
		)
		return m, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan purged audit jobs: %w", err)
	}

	jobs := make([]domain.AuditJob, 0, len(modelJobs))
	for _, m := range modelJobs {
		d, err := mapping.ToDomainAuditJob(m)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, d)
	}
	return jobs, nil
}
