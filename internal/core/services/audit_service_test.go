package services_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/luminapos/corrispettivi/internal/apperrors"
	"github.com/luminapos/corrispettivi/internal/core/domain"
	portssvc "github.com/luminapos/corrispettivi/internal/core/ports/services"
	"github.com/luminapos/corrispettivi/internal/core/services"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type AuditServiceTestSuite struct {
	suite.Suite
	mockJobs     *MockAuditJobRepository
	mockJournals *MockJournalRepository
	mockReceipts *MockReceiptRepository
	blobs        *memBlobStore
	service      portssvc.AuditService
}

func (s *AuditServiceTestSuite) SetupTest() {
	s.mockJobs = new(MockAuditJobRepository)
	s.mockJournals = new(MockJournalRepository)
	s.mockReceipts = new(MockReceiptRepository)
	s.blobs = newMemBlobStore()
	s.service = services.NewAuditService(
		s.mockJobs,
		s.mockJournals,
		s.mockReceipts,
		s.blobs,
		30*24*time.Hour,
		slog.New(slog.NewTextHandler(testWriter{s.T()}, nil)),
	)
}

// expectJobLifecycle wires SaveJob and UpdateJob and returns a channel
// delivering the job's terminal state once the worker finishes.
func (s *AuditServiceTestSuite) expectJobLifecycle() <-chan domain.AuditJob {
	done := make(chan domain.AuditJob, 1)
	s.mockJobs.On("SaveJob", mock.Anything, mock.MatchedBy(func(job domain.AuditJob) bool {
		return job.Status == domain.AuditProcessing
	})).Return(nil).Once()
	s.mockJobs.On("UpdateJob", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { done <- args.Get(1).(domain.AuditJob) }).
		Return(nil).Once()
	return done
}

func (s *AuditServiceTestSuite) awaitJob(done <-chan domain.AuditJob) domain.AuditJob {
	select {
	case job := <-done:
		return job
	case <-time.After(2 * time.Second):
		s.FailNow("audit worker never finalized the job")
		return domain.AuditJob{}
	}
}

func dateRange() (time.Time, time.Time) {
	return time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)
}

func (s *AuditServiceTestSuite) TestRequestJournalAudit_Ready() {
	ctx := context.Background()
	from, to := dateRange()
	j := sealedJournal(&s.Suite)
	done := s.expectJobLifecycle()
	s.mockJournals.On("ListJournalsByDeviceAndRange", mock.Anything, "PEM-001", from, to).
		Return([]domain.Journal{j}, nil).Once()

	jobID, err := s.service.RequestJournalAudit(ctx, domain.AuditQuery{
		DeviceID: "PEM-001", DateFrom: from, DateTo: to,
	})

	s.Require().NoError(err)
	s.Require().NotEmpty(jobID)

	job := s.awaitJob(done)
	s.Equal(domain.AuditReady, job.Status)
	s.Require().Len(job.ArtifactNames, 1)
	s.Equal("journal_IT01234567890_PEM-001_2025-03-14.json", job.ArtifactNames[0])
	s.Require().NotNil(job.CompletedAt)

	// The artifact round-trips to the journal it was cut from.
	data, err := s.blobs.Retrieve(ctx, jobID+"/"+job.ArtifactNames[0])
	s.Require().NoError(err)
	var decoded domain.Journal
	s.Require().NoError(json.Unmarshal(data, &decoded))
	s.Equal(j.DeviceID, decoded.DeviceID)
	s.Len(decoded.Entries, len(j.Entries))
}

func (s *AuditServiceTestSuite) TestRequestJournalAudit_DistinctArtifactsPerVATNumber() {
	ctx := context.Background()
	from, to := dateRange()
	j1 := sealedJournal(&s.Suite)
	j2 := j1
	j2.VATNumber = "IT09876543210"
	done := s.expectJobLifecycle()
	s.mockJournals.On("ListJournalsByDeviceAndRange", mock.Anything, "PEM-001", from, to).
		Return([]domain.Journal{j1, j2}, nil).Once()

	jobID, err := s.service.RequestJournalAudit(ctx, domain.AuditQuery{
		DeviceID: "PEM-001", DateFrom: from, DateTo: to,
	})
	s.Require().NoError(err)

	// Two merchants sharing a device ID and day must not overwrite
	// each other's artifact.
	job := s.awaitJob(done)
	s.Require().Len(job.ArtifactNames, 2)
	s.NotEqual(job.ArtifactNames[0], job.ArtifactNames[1])
	for _, name := range job.ArtifactNames {
		exists, err := s.blobs.Exists(ctx, jobID+"/"+name)
		s.Require().NoError(err)
		s.True(exists)
	}
}

func (s *AuditServiceTestSuite) TestRequestJournalAudit_NoMatchesEndsUnavailable() {
	ctx := context.Background()
	from, to := dateRange()
	done := s.expectJobLifecycle()
	s.mockJournals.On("ListJournalsByDeviceAndRange", mock.Anything, "PEM-404", from, to).
		Return([]domain.Journal{}, nil).Once()

	_, err := s.service.RequestJournalAudit(ctx, domain.AuditQuery{
		DeviceID: "PEM-404", DateFrom: from, DateTo: to,
	})
	s.Require().NoError(err)

	job := s.awaitJob(done)
	s.Equal(domain.AuditUnavailable, job.Status)
	s.Empty(job.ArtifactNames)
}

func (s *AuditServiceTestSuite) TestRequestJournalAudit_ValidationFailures() {
	ctx := context.Background()
	from, to := dateRange()

	_, err := s.service.RequestJournalAudit(ctx, domain.AuditQuery{DateFrom: from, DateTo: to})
	s.Require().ErrorIs(err, apperrors.ErrValidation)

	_, err = s.service.RequestJournalAudit(ctx, domain.AuditQuery{DeviceID: "PEM-001", DateFrom: to, DateTo: from})
	s.Require().ErrorIs(err, apperrors.ErrValidation)

	s.mockJobs.AssertNotCalled(s.T(), "SaveJob", mock.Anything, mock.Anything)
}

func (s *AuditServiceTestSuite) TestRequestDocumentAudit_UnknownHashEndsUnavailable() {
	ctx := context.Background()
	done := s.expectJobLifecycle()
	s.mockReceipts.On("FindReceiptsByContentHashes", mock.Anything, []string{"deadbeef"}).
		Return([]domain.Receipt{}, nil).Once()

	_, err := s.service.RequestDocumentAudit(ctx, domain.AuditQuery{Hashes: []string{"deadbeef"}})
	s.Require().NoError(err)

	job := s.awaitJob(done)
	s.Equal(domain.AuditUnavailable, job.Status)
	s.Empty(job.ArtifactNames)
}

func (s *AuditServiceTestSuite) TestRequestDocumentAudit_OneMatchEndsReadyWithOneArtifact() {
	ctx := context.Background()
	r := validReceipt()
	done := s.expectJobLifecycle()
	s.mockReceipts.On("FindReceiptsByContentHashes", mock.Anything, []string{r.ContentHash}).
		Return([]domain.Receipt{r}, nil).Once()

	jobID, err := s.service.RequestDocumentAudit(ctx, domain.AuditQuery{Hashes: []string{r.ContentHash}})
	s.Require().NoError(err)

	job := s.awaitJob(done)
	s.Equal(domain.AuditReady, job.Status)
	s.Require().Len(job.ArtifactNames, 1)
	s.Equal("document_PEM-001_1.json", job.ArtifactNames[0])

	exists, err := s.blobs.Exists(ctx, jobID+"/"+job.ArtifactNames[0])
	s.Require().NoError(err)
	s.True(exists)
}

func (s *AuditServiceTestSuite) TestRequestDocumentAudit_CriteriaScan() {
	ctx := context.Background()
	from, to := dateRange()
	r := validReceipt()
	done := s.expectJobLifecycle()
	s.mockReceipts.On("FindReceiptsByDateRange", mock.Anything, "PEM-001", from, to).
		Return([]domain.Receipt{r}, nil).Once()

	_, err := s.service.RequestDocumentAudit(ctx, domain.AuditQuery{
		DeviceID: "PEM-001", DateFrom: from, DateTo: to,
	})
	s.Require().NoError(err)

	job := s.awaitJob(done)
	s.Equal(domain.AuditReady, job.Status)
}

func (s *AuditServiceTestSuite) TestRequestDocumentAudit_RequiresHashesOrCriteria() {
	_, err := s.service.RequestDocumentAudit(context.Background(), domain.AuditQuery{})
	s.Require().ErrorIs(err, apperrors.ErrValidation)
}

func (s *AuditServiceTestSuite) TestListArtifacts_RequiresReady() {
	ctx := context.Background()
	s.mockJobs.On("FindJob", ctx, "job-1").
		Return(&domain.AuditJob{JobID: "job-1", Status: domain.AuditProcessing}, nil).Once()

	_, err := s.service.ListArtifacts(ctx, "job-1")
	s.Require().ErrorIs(err, apperrors.ErrState)
}

func (s *AuditServiceTestSuite) TestDownloadArtifact_UnknownNameFails() {
	ctx := context.Background()
	s.mockJobs.On("FindJob", ctx, "job-1").
		Return(&domain.AuditJob{
			JobID:         "job-1",
			Status:        domain.AuditReady,
			ArtifactNames: []string{"journal_PEM-001_2025-03-14.json"},
		}, nil).Once()

	_, err := s.service.DownloadArtifact(ctx, "job-1", "nope.json")
	s.Require().ErrorIs(err, apperrors.ErrNotFound)
}

func (s *AuditServiceTestSuite) TestGetStatus_UnknownJob() {
	ctx := context.Background()
	s.mockJobs.On("FindJob", ctx, "missing").Return(nil, apperrors.ErrNotFound).Once()

	_, err := s.service.GetStatus(ctx, "missing")
	s.Require().ErrorIs(err, apperrors.ErrNotFound)
}

func (s *AuditServiceTestSuite) TestPurgeExpired_RemovesJobsAndArtifacts() {
	ctx := context.Background()
	s.Require().NoError(s.blobs.Store(ctx, "old-job/journal_PEM-001_2025-01-01.json", []byte("{}")))
	completed := time.Now().UTC().Add(-60 * 24 * time.Hour)
	s.mockJobs.On("DeleteJobsCompletedBefore", ctx, mock.Anything).
		Return([]domain.AuditJob{{
			JobID:         "old-job",
			Status:        domain.AuditReady,
			ArtifactNames: []string{"journal_PEM-001_2025-01-01.json"},
			CompletedAt:   &completed,
		}}, nil).Once()

	count, err := s.service.PurgeExpired(ctx)

	s.Require().NoError(err)
	s.Equal(1, count)
	exists, err := s.blobs.Exists(ctx, "old-job/journal_PEM-001_2025-01-01.json")
	s.Require().NoError(err)
	s.False(exists)
}

func TestAuditServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AuditServiceTestSuite))
}
