package pem_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/luminapos/corrispettivi/internal/apperrors"
	"github.com/luminapos/corrispettivi/internal/core/domain"
	"github.com/luminapos/corrispettivi/internal/journal"
	"github.com/luminapos/corrispettivi/internal/pem"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// --- Mock TransmissionClient ---
type MockTransmissionClient struct {
	mock.Mock
}

var _ pem.TransmissionClient = (*MockTransmissionClient)(nil)

func (m *MockTransmissionClient) FetchSeed(ctx context.Context) (domain.SessionSeed, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.SessionSeed), args.Error(1)
}

func (m *MockTransmissionClient) PushReceipt(ctx context.Context, r domain.Receipt) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockTransmissionClient) PushJournal(ctx context.Context, j domain.Journal) error {
	args := m.Called(ctx, j)
	return args.Error(0)
}

func (m *MockTransmissionClient) PushAnomaly(ctx context.Context, a domain.Anomaly) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

// --- Test Suite Setup ---
type SessionTestSuite struct {
	suite.Suite
	client  *MockTransmissionClient
	store   *pem.MemoryReceiptStore
	session *pem.Session
	ctx     context.Context
}

func (suite *SessionTestSuite) SetupTest() {
	suite.client = new(MockTransmissionClient)
	suite.store = pem.NewMemoryReceiptStore()
	suite.session = pem.NewSession(pem.Config{
		VATNumber:     "IT01234567890",
		DeviceID:      "DEV-001",
		ReferenceDate: time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
	}, suite.store, suite.client, slog.Default())
	suite.ctx = context.Background()
}

func (suite *SessionTestSuite) seedOK() {
	suite.client.On("FetchSeed", mock.Anything).
		Return(domain.SessionSeed{SessionID: "sess-1", Seed: "deadbeef"}, nil).Once()
}

func coffeeLines() []domain.ReceiptLine {
	return []domain.ReceiptLine{{
		Description: "caffè",
		Quantity:    decimal.RequireFromString("2"),
		UnitPrice:   decimal.RequireFromString("2.50"),
		VATRate:     decimal.RequireFromString("10"),
	}}
}

func (suite *SessionTestSuite) TestEmitBeforeOpenFails() {
	_, err := suite.session.EmitReceipt(suite.ctx, coffeeLines())
	assert.ErrorIs(suite.T(), err, apperrors.ErrState)
}

func (suite *SessionTestSuite) TestDoubleOpenFails() {
	suite.seedOK()
	require.NoError(suite.T(), suite.session.Open(suite.ctx))
	assert.ErrorIs(suite.T(), suite.session.Open(suite.ctx), apperrors.ErrState)
}

func (suite *SessionTestSuite) TestOpenDegradesToOfflineWhenSeedFails() {
	suite.client.On("FetchSeed", mock.Anything).
		Return(domain.SessionSeed{}, apperrors.ErrTransport).Once()

	require.NoError(suite.T(), suite.session.Open(suite.ctx))
	assert.True(suite.T(), suite.session.Offline())
	assert.Equal(suite.T(), pem.StateOpen, suite.session.State())
}

func (suite *SessionTestSuite) TestEmitPersistsAndPushes() {
	suite.seedOK()
	suite.client.On("PushReceipt", mock.Anything, mock.Anything).Return(nil).Once()

	require.NoError(suite.T(), suite.session.Open(suite.ctx))
	r, err := suite.session.EmitReceipt(suite.ctx, coffeeLines())
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(1), r.DocumentNumber)

	stored, err := suite.store.ListReceipts(suite.ctx)
	require.NoError(suite.T(), err)
	assert.Len(suite.T(), stored, 1)
	assert.Empty(suite.T(), suite.session.Backlog())
	suite.client.AssertExpectations(suite.T())
}

func (suite *SessionTestSuite) TestPushFailureQueuesBacklogNotLost() {
	suite.seedOK()
	suite.client.On("PushReceipt", mock.Anything, mock.Anything).
		Return(errors.New("connection refused")).Once()

	require.NoError(suite.T(), suite.session.Open(suite.ctx))
	r, err := suite.session.EmitReceipt(suite.ctx, coffeeLines())
	require.NoError(suite.T(), err, "push failure must not fail the emission")

	// Locally persisted regardless of sync outcome.
	stored, listErr := suite.store.ListReceipts(suite.ctx)
	require.NoError(suite.T(), listErr)
	assert.Len(suite.T(), stored, 1)

	backlog := suite.session.Backlog()
	require.Len(suite.T(), backlog, 1)
	assert.Equal(suite.T(), r.DocumentNumber, backlog[0].DocumentNumber)
}

func (suite *SessionTestSuite) TestCloseRetriesBacklogOnceAndReportsSummary() {
	suite.seedOK()
	// First push fails, the single close-time retry succeeds.
	suite.client.On("PushReceipt", mock.Anything, mock.Anything).
		Return(errors.New("timeout")).Once()
	suite.client.On("PushReceipt", mock.Anything, mock.Anything).Return(nil).Once()
	suite.client.On("PushJournal", mock.Anything, mock.Anything).Return(nil).Once()

	require.NoError(suite.T(), suite.session.Open(suite.ctx))
	_, err := suite.session.EmitReceipt(suite.ctx, coffeeLines())
	require.NoError(suite.T(), err)

	summary, err := suite.session.CloseSession(suite.ctx)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(1), summary.TotalDocuments)
	assert.True(suite.T(), summary.TotalAmount.Equal(decimal.RequireFromString("5.00")))
	assert.True(suite.T(), summary.JournalSynced)
	assert.Equal(suite.T(), 0, summary.UnsyncedCount)
	suite.client.AssertExpectations(suite.T())
}

func (suite *SessionTestSuite) TestCloseSurvivesJournalPushFailure() {
	suite.seedOK()
	suite.client.On("PushReceipt", mock.Anything, mock.Anything).Return(nil)
	suite.client.On("PushJournal", mock.Anything, mock.Anything).
		Return(apperrors.ErrTransport).Once()

	require.NoError(suite.T(), suite.session.Open(suite.ctx))
	_, err := suite.session.EmitReceipt(suite.ctx, coffeeLines())
	require.NoError(suite.T(), err)

	summary, err := suite.session.CloseSession(suite.ctx)
	require.NoError(suite.T(), err, "sync failure is reported, never fatal")
	assert.False(suite.T(), summary.JournalSynced)

	// Local journal remains authoritative and intact.
	j, err := suite.session.Journal()
	require.NoError(suite.T(), err)
	assert.NoError(suite.T(), journal.VerifyEntries(j.Entries))
}

func (suite *SessionTestSuite) TestEmitAfterCloseFails() {
	suite.seedOK()
	suite.client.On("PushJournal", mock.Anything, mock.Anything).Return(nil).Once()

	require.NoError(suite.T(), suite.session.Open(suite.ctx))
	_, err := suite.session.CloseSession(suite.ctx)
	require.NoError(suite.T(), err)

	_, err = suite.session.EmitReceipt(suite.ctx, coffeeLines())
	assert.ErrorIs(suite.T(), err, apperrors.ErrState)
	// Re-opening a consumed session is not allowed either.
	assert.ErrorIs(suite.T(), suite.session.Open(suite.ctx), apperrors.ErrState)
}

func (suite *SessionTestSuite) TestScenarioTwoReceiptsTenPercent() {
	suite.seedOK()
	suite.client.On("PushReceipt", mock.Anything, mock.Anything).Return(nil)
	suite.client.On("PushJournal", mock.Anything, mock.Anything).Return(nil).Once()

	require.NoError(suite.T(), suite.session.Open(suite.ctx))

	// A: 2×€2.50 @10%, B: 1×€5.00 @10%.
	_, err := suite.session.EmitReceipt(suite.ctx, coffeeLines())
	require.NoError(suite.T(), err)
	_, err = suite.session.EmitReceipt(suite.ctx, []domain.ReceiptLine{{
		Description: "tagliere",
		Quantity:    decimal.RequireFromString("1"),
		UnitPrice:   decimal.RequireFromString("5.00"),
		VATRate:     decimal.RequireFromString("10"),
	}})
	require.NoError(suite.T(), err)

	summary, err := suite.session.CloseSession(suite.ctx)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(2), summary.TotalDocuments)
	assert.True(suite.T(), summary.TotalAmount.Equal(decimal.RequireFromString("10.00")),
		"total is %s", summary.TotalAmount)
	assert.NoError(suite.T(), suite.session.Verify())
}

func TestSessionTestSuite(t *testing.T) {
	suite.Run(t, new(SessionTestSuite))
}
