package services_test

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/luminapos/corrispettivi/internal/apperrors"
	"github.com/luminapos/corrispettivi/internal/core/domain"
	"github.com/stretchr/testify/mock"
)

// reportKey derives the daily-report natural key of a journal.
func reportKey(j domain.Journal) domain.ReportKey {
	return domain.ReportKey{VATNumber: j.VATNumber, DeviceID: j.DeviceID, ReferenceDate: j.ReferenceDate}
}

// --- Mock ReceiptRepository ---
type MockReceiptRepository struct {
	mock.Mock
}

func (m *MockReceiptRepository) FindReceiptsByDeviceAndDate(ctx context.Context, deviceID string, referenceDate time.Time) ([]domain.Receipt, error) {
	args := m.Called(ctx, deviceID, referenceDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Receipt), args.Error(1)
}

func (m *MockReceiptRepository) FindReceiptsByContentHashes(ctx context.Context, hashes []string) ([]domain.Receipt, error) {
	args := m.Called(ctx, hashes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Receipt), args.Error(1)
}

func (m *MockReceiptRepository) FindReceiptsByDateRange(ctx context.Context, deviceID string, from, to time.Time) ([]domain.Receipt, error) {
	args := m.Called(ctx, deviceID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Receipt), args.Error(1)
}

func (m *MockReceiptRepository) SaveReceipt(ctx context.Context, r domain.Receipt) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

// --- Mock JournalRepository ---
type MockJournalRepository struct {
	mock.Mock
}

func (m *MockJournalRepository) FindJournal(ctx context.Context, vatNumber, deviceID string, referenceDate time.Time) (*domain.Journal, error) {
	args := m.Called(ctx, vatNumber, deviceID, referenceDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Journal), args.Error(1)
}

func (m *MockJournalRepository) ListJournalsByDeviceAndRange(ctx context.Context, deviceID string, from, to time.Time) ([]domain.Journal, error) {
	args := m.Called(ctx, deviceID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Journal), args.Error(1)
}

func (m *MockJournalRepository) SaveJournal(ctx context.Context, j domain.Journal) error {
	args := m.Called(ctx, j)
	return args.Error(0)
}

// --- Mock DailyReportRepository ---
type MockReportRepository struct {
	mock.Mock
}

func (m *MockReportRepository) FindReport(ctx context.Context, key domain.ReportKey) (*domain.DailyReport, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DailyReport), args.Error(1)
}

func (m *MockReportRepository) UpsertReport(ctx context.Context, r domain.DailyReport) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockReportRepository) UpdateOutcome(ctx context.Context, key domain.ReportKey, outcome domain.ReportOutcome, detail string, recordedAt time.Time) error {
	args := m.Called(ctx, key, outcome, detail, recordedAt)
	return args.Error(0)
}

// --- Mock AuditJobRepository ---
type MockAuditJobRepository struct {
	mock.Mock
}

func (m *MockAuditJobRepository) FindJob(ctx context.Context, jobID string) (*domain.AuditJob, error) {
	args := m.Called(ctx, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AuditJob), args.Error(1)
}

func (m *MockAuditJobRepository) SaveJob(ctx context.Context, job domain.AuditJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *MockAuditJobRepository) UpdateJob(ctx context.Context, job domain.AuditJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *MockAuditJobRepository) DeleteJobsCompletedBefore(ctx context.Context, cutoff time.Time) ([]domain.AuditJob, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AuditJob), args.Error(1)
}

// --- Mock AnomalyRepository ---
type MockAnomalyRepository struct {
	mock.Mock
}

func (m *MockAnomalyRepository) SaveAnomaly(ctx context.Context, a domain.Anomaly) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

// --- Mock SeedRepository ---
type MockSeedRepository struct {
	mock.Mock
}

func (m *MockSeedRepository) SaveSeed(ctx context.Context, seed domain.SessionSeed) error {
	args := m.Called(ctx, seed)
	return args.Error(0)
}

// --- Mock AuthorityClient ---
type MockAuthorityClient struct {
	mock.Mock
}

func (m *MockAuthorityClient) SendReport(ctx context.Context, report domain.DailyReport) (*domain.TransmissionOutcome, error) {
	args := m.Called(ctx, report)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TransmissionOutcome), args.Error(1)
}

func (m *MockAuthorityClient) QueryOutcome(ctx context.Context, key domain.ReportKey) (*domain.TransmissionOutcome, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TransmissionOutcome), args.Error(1)
}

// --- Mock AggregationService ---
type MockAggregationService struct {
	mock.Mock
}

func (m *MockAggregationService) AggregateJournal(ctx context.Context, j domain.Journal) (*domain.DailyReport, error) {
	args := m.Called(ctx, j)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DailyReport), args.Error(1)
}

// --- Mock OutcomeReconciler ---
type MockReconciler struct {
	mock.Mock
}

func (m *MockReconciler) Register(key domain.ReportKey) {
	m.Called(key)
}

func (m *MockReconciler) Tick(ctx context.Context) {
	m.Called(ctx)
}

func (m *MockReconciler) Run(ctx context.Context) {
	m.Called(ctx)
}

func (m *MockReconciler) PendingCount() int {
	args := m.Called()
	return args.Int(0)
}

// memBlobStore is a concurrency-safe in-memory artifact store. The
// audit worker writes from its own goroutine, so expectations on a
// mock would race; a real store with a mutex keeps the tests honest.
type memBlobStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func newMemBlobStore() *memBlobStore {
	return &memBlobStore{blobs: make(map[string][]byte)}
}

func (s *memBlobStore) Store(_ context.Context, name string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[name] = append([]byte(nil), data...)
	return nil
}

func (s *memBlobStore) Retrieve(_ context.Context, name string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.blobs[name]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

func (s *memBlobStore) Exists(_ context.Context, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.blobs[name]
	return ok, nil
}

func (s *memBlobStore) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, name)
	return nil
}

func (s *memBlobStore) List(_ context.Context, prefix string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var names []string
	for name := range s.blobs {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	return names, nil
}
