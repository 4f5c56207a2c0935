package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/luminapos/corrispettivi/internal/apperrors"
	"github.com/luminapos/corrispettivi/internal/core/domain"
	portsrepo "github.com/luminapos/corrispettivi/internal/core/ports/repositories"
	portssvc "github.com/luminapos/corrispettivi/internal/core/ports/services"
)

// auditJobTimeout bounds the detached worker run backing one job.
const auditJobTimeout = 5 * time.Minute

type auditService struct {
	jobs      portsrepo.AuditJobRepositoryFacade
	journals  portsrepo.JournalReader
	receipts  portsrepo.ReceiptReader
	blobs     portsrepo.BlobStore
	retention time.Duration
	logger    *slog.Logger
}

// NewAuditService creates the async audit query engine. Terminal jobs
// and their artifacts are kept for the given retention window.
func NewAuditService(
	jobs portsrepo.AuditJobRepositoryFacade,
	journals portsrepo.JournalReader,
	receipts portsrepo.ReceiptReader,
	blobs portsrepo.BlobStore,
	retention time.Duration,
	logger *slog.Logger,
) portssvc.AuditService {
	return &auditService{
		jobs:      jobs,
		journals:  journals,
		receipts:  receipts,
		blobs:     blobs,
		retention: retention,
		logger:    logger,
	}
}

var _ portssvc.AuditService = (*auditService)(nil)

// RequestJournalAudit creates a PROCESSING job over the persisted
// journals of one device across a date range.
func (s *auditService) RequestJournalAudit(ctx context.Context, query domain.AuditQuery) (string, error) {
	if query.DeviceID == "" || query.DateFrom.IsZero() || query.DateTo.IsZero() {
		return "", fmt.Errorf("%w: journal audit requires device ID and date range", apperrors.ErrValidation)
	}
	if query.DateTo.Before(query.DateFrom) {
		return "", fmt.Errorf("%w: date range is inverted", apperrors.ErrValidation)
	}
	return s.startJob(ctx, domain.AuditJournal, query)
}

// RequestDocumentAudit creates a PROCESSING job resolving receipts
// either by exact content hashes or by device/date-range criteria.
func (s *auditService) RequestDocumentAudit(ctx context.Context, query domain.AuditQuery) (string, error) {
	byHashes := len(query.Hashes) > 0
	byCriteria := query.DeviceID != "" && !query.DateFrom.IsZero() && !query.DateTo.IsZero()
	if !byHashes && !byCriteria {
		return "", fmt.Errorf("%w: document audit requires hashes or device/date criteria", apperrors.ErrValidation)
	}
	if byCriteria && query.DateTo.Before(query.DateFrom) {
		return "", fmt.Errorf("%w: date range is inverted", apperrors.ErrValidation)
	}
	return s.startJob(ctx, domain.AuditDocument, query)
}

func (s *auditService) startJob(ctx context.Context, kind domain.AuditJobKind, query domain.AuditQuery) (string, error) {
	job := domain.AuditJob{
		JobID:     uuid.NewString(),
		Kind:      kind,
		Status:    domain.AuditProcessing,
		Query:     query,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.jobs.SaveJob(ctx, job); err != nil {
		return "", fmt.Errorf("failed to persist audit job: %w", err)
	}

	// The extraction runs detached from the request: the auditor gets
	// the job ID back immediately and polls.
	go func() {
		workCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), auditJobTimeout)
		defer cancel()
		s.runJob(workCtx, job)
	}()

	return job.JobID, nil
}

// runJob performs the scan for one job and drives it to a terminal
// state. Zero matches and extraction failures both end in UNAVAILABLE;
// partially written artifacts are cleaned up so a failed job never
// exposes an incomplete data set.
func (s *auditService) runJob(ctx context.Context, job domain.AuditJob) {
	var (
		names []string
		err   error
	)
	switch job.Kind {
	case domain.AuditJournal:
		names, err = s.extractJournals(ctx, job)
	case domain.AuditDocument:
		names, err = s.extractDocuments(ctx, job)
	default:
		err = fmt.Errorf("unknown audit job kind %q", job.Kind)
	}

	now := time.Now().UTC()
	job.CompletedAt = &now

	if err != nil || len(names) == 0 {
		if err != nil {
			s.logger.Error("Audit job failed",
				slog.String("job_id", job.JobID),
				slog.String("error", err.Error()))
			s.cleanupArtifacts(ctx, job.JobID)
		}
		job.Status = domain.AuditUnavailable
		job.ArtifactNames = nil
	} else {
		job.Status = domain.AuditReady
		job.ArtifactNames = names
	}

	if updateErr := s.jobs.UpdateJob(ctx, job); updateErr != nil {
		s.logger.Error("Failed to finalize audit job",
			slog.String("job_id", job.JobID),
			slog.String("error", updateErr.Error()))
		return
	}
	s.logger.Info("Audit job completed",
		slog.String("job_id", job.JobID),
		slog.String("status", string(job.Status)),
		slog.Int("artifact_count", len(job.ArtifactNames)))
}

func (s *auditService) extractJournals(ctx context.Context, job domain.AuditJob) ([]string, error) {
	journals, err := s.journals.ListJournalsByDeviceAndRange(ctx, job.Query.DeviceID, job.Query.DateFrom, job.Query.DateTo)
	if err != nil {
		return nil, fmt.Errorf("journal scan failed: %w", err)
	}
	names := make([]string, 0, len(journals))
	for _, j := range journals {
		// The VAT number is part of the journal's natural key: two
		// merchants can share a device ID and day.
		name := fmt.Sprintf("journal_%s_%s_%s.json", j.VATNumber, j.DeviceID, j.ReferenceDate.UTC().Format("2006-01-02"))
		data, err := json.Marshal(j)
		if err != nil {
			return nil, fmt.Errorf("failed to encode journal artifact %s: %w", name, err)
		}
		if err := s.blobs.Store(ctx, job.JobID+"/"+name, data); err != nil {
			return nil, fmt.Errorf("failed to store artifact %s: %w", name, err)
		}
		names = append(names, name)
	}
	return names, nil
}

func (s *auditService) extractDocuments(ctx context.Context, job domain.AuditJob) ([]string, error) {
	var (
		receipts []domain.Receipt
		err      error
	)
	if len(job.Query.Hashes) > 0 {
		receipts, err = s.receipts.FindReceiptsByContentHashes(ctx, job.Query.Hashes)
	} else {
		receipts, err = s.receipts.FindReceiptsByDateRange(ctx, job.Query.DeviceID, job.Query.DateFrom, job.Query.DateTo)
	}
	if err != nil {
		return nil, fmt.Errorf("receipt scan failed: %w", err)
	}

	names := make([]string, 0, len(receipts))
	for _, r := range receipts {
		name := fmt.Sprintf("document_%s_%d.json", r.DeviceID, r.DocumentNumber)
		data, err := json.Marshal(r)
		if err != nil {
			return nil, fmt.Errorf("failed to encode receipt artifact %s: %w", name, err)
		}
		if err := s.blobs.Store(ctx, job.JobID+"/"+name, data); err != nil {
			return nil, fmt.Errorf("failed to store artifact %s: %w", name, err)
		}
		names = append(names, name)
	}
	return names, nil
}

func (s *auditService) cleanupArtifacts(ctx context.Context, jobID string) {
	names, err := s.blobs.List(ctx, jobID+"/")
	if err != nil {
		s.logger.Warn("Failed to list artifacts for cleanup",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()))
		return
	}
	for _, name := range names {
		if err := s.blobs.Delete(ctx, name); err != nil {
			s.logger.Warn("Failed to delete artifact",
				slog.String("artifact", name),
				slog.String("error", err.Error()))
		}
	}
}

// GetStatus returns the current status of a job.
func (s *auditService) GetStatus(ctx context.Context, jobID string) (domain.AuditJobStatus, error) {
	job, err := s.jobs.FindJob(ctx, jobID)
	if err != nil {
		return "", err
	}
	return job.Status, nil
}

// ListArtifacts returns the artifact names of a READY job.
func (s *auditService) ListArtifacts(ctx context.Context, jobID string) ([]string, error) {
	job, err := s.jobs.FindJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status != domain.AuditReady {
		return nil, fmt.Errorf("%w: job %s is %s, artifacts require READY", apperrors.ErrState, jobID, job.Status)
	}
	return slices.Clone(job.ArtifactNames), nil
}

// DownloadArtifact returns the content of one named artifact of a
// READY job. The name must belong to the job's artifact list.
func (s *auditService) DownloadArtifact(ctx context.Context, jobID, name string) ([]byte, error) {
	job, err := s.jobs.FindJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status != domain.AuditReady {
		return nil, fmt.Errorf("%w: job %s is %s, artifacts require READY", apperrors.ErrState, jobID, job.Status)
	}
	if !slices.Contains(job.ArtifactNames, name) {
		return nil, fmt.Errorf("%w: job %s has no artifact %q", apperrors.ErrNotFound, jobID, name)
	}
	data, err := s.blobs.Retrieve(ctx, jobID+"/"+name)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact %s: %w", name, err)
	}
	return data, nil
}

// PurgeExpired removes terminal jobs past the retention window and
// their artifacts.
func (s *auditService) PurgeExpired(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC().Add(-s.retention)
	purged, err := s.jobs.DeleteJobsCompletedBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired audit jobs: %w", err)
	}
	for _, job := range purged {
		s.cleanupArtifacts(ctx, job.JobID)
	}
	if len(purged) > 0 {
		s.logger.Info("Purged expired audit jobs", slog.Int("count", len(purged)))
	}
	return len(purged), nil
}
