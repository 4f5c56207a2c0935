// Package pem implements the Point-of-Emission session manager: one
// hash-chained journal per accounting session, receipts emitted
// through it, and best-effort synchronization towards the PEL. The
// local journal and receipt store stay authoritative regardless of
// synchronization outcome.
package pem

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/luminapos/corrispettivi/internal/apperrors"
	"github.com/luminapos/corrispettivi/internal/core/domain"
	"github.com/luminapos/corrispettivi/internal/journal"
	"github.com/luminapos/corrispettivi/internal/receipt"
	"github.com/shopspring/decimal"
)

// State is the session state machine: CLOSED -> OPEN -> CLOSED.
type State string

const (
	StateClosed State = "CLOSED"
	StateOpen   State = "OPEN"
)

// Config identifies the device and accounting day a session runs for.
type Config struct {
	VATNumber     string
	DeviceID      string
	ReferenceDate time.Time
}

// Summary is what CloseSession reports back to the caller. Sync
// failures are visible here, never silently dropped.
type Summary struct {
	TotalDocuments int64
	TotalAmount    decimal.Decimal
	JournalSynced  bool
	UnsyncedCount  int
}

// Session owns one journal chain and serializes every mutation
// through its state machine. Callers must not invoke methods
// concurrently; a session is strictly sequential by design.
type Session struct {
	cfg    Config
	store  ReceiptStore
	client TransmissionClient
	logger *slog.Logger

	state   State
	chain   *journal.Chain
	builder *receipt.Builder
	backlog []domain.Receipt
	offline bool
}

// NewSession creates a session in the CLOSED state.
func NewSession(cfg Config, store ReceiptStore, client TransmissionClient, logger *slog.Logger) *Session {
	return &Session{
		cfg:    cfg,
		store:  store,
		client: client,
		logger: logger.With(slog.String("device_id", cfg.DeviceID)),
		state:  StateClosed,
	}
}

// State returns the current session state.
func (s *Session) State() State { return s.state }

// Offline reports whether the session opened without a PEL seed.
func (s *Session) Offline() bool { return s.offline }

// Open requests a session seed from PEL (best-effort: an unreachable
// PEL degrades the session to offline mode instead of blocking the
// opening) and opens the journal chain.
func (s *Session) Open(ctx context.Context) error {
	if s.state == StateOpen {
		return fmt.Errorf("%w: session already open", apperrors.ErrState)
	}
	if s.chain != nil {
		return fmt.Errorf("%w: session already consumed", apperrors.ErrState)
	}

	sessionID := ""
	seed, err := s.client.FetchSeed(ctx)
	if err != nil {
		s.offline = true
		s.logger.Warn("Seed fetch failed, opening in offline mode", slog.String("error", err.Error()))
	} else {
		sessionID = seed.SessionID
	}

	s.chain = journal.New(s.cfg.DeviceID, s.cfg.ReferenceDate, sessionID)
	if _, err := s.chain.Open(); err != nil {
		return err
	}
	s.builder = receipt.NewBuilder(s.cfg.DeviceID, s.cfg.ReferenceDate)
	s.state = StateOpen
	s.logger.Info("Session opened", slog.Bool("offline", s.offline))
	return nil
}

// EmitReceipt builds a receipt from the lines, appends it to the
// journal, persists it locally and attempts a real-time push to PEL.
// A push failure queues the receipt in the unsynced backlog; a local
// persistence failure is fatal to the emission.
func (s *Session) EmitReceipt(ctx context.Context, lines []domain.ReceiptLine) (*domain.Receipt, error) {
	if s.state != StateOpen {
		return nil, fmt.Errorf("%w: cannot emit receipt, session is %s", apperrors.ErrState, s.state)
	}

	r, err := s.builder.Build(lines)
	if err != nil {
		return nil, err
	}

	if _, err := s.chain.Append(domain.DocumentPayload{
		DocumentNumber: r.DocumentNumber,
		Amount:         r.TotalAmount,
		ContentHash:    r.ContentHash,
	}); err != nil {
		return nil, err
	}

	if err := s.store.SaveReceipt(ctx, r); err != nil {
		return nil, fmt.Errorf("failed to persist receipt %d locally: %w", r.DocumentNumber, err)
	}

	if err := s.client.PushReceipt(ctx, r); err != nil {
		s.backlog = append(s.backlog, r)
		s.logger.Warn("Receipt push failed, queued in backlog",
			slog.Int64("document_number", r.DocumentNumber),
			slog.String("error", err.Error()))
	}

	return &r, nil
}

// CloseSession retries every backlog item once, seals the journal and
// pushes it to PEL. The returned summary carries the sync status; sync
// failure never makes the close itself fail.
func (s *Session) CloseSession(ctx context.Context) (Summary, error) {
	if s.state != StateOpen {
		return Summary{}, fmt.Errorf("%w: cannot close, session is %s", apperrors.ErrState, s.state)
	}

	// One bounded retry pass over the backlog, nothing more.
	remaining := s.backlog[:0]
	for _, r := range s.backlog {
		if err := s.client.PushReceipt(ctx, r); err != nil {
			remaining = append(remaining, r)
			continue
		}
		s.logger.Info("Backlog receipt synced on close", slog.Int64("document_number", r.DocumentNumber))
	}
	s.backlog = remaining

	res, err := s.chain.Close()
	if err != nil {
		return Summary{}, err
	}
	s.state = StateClosed

	synced := false
	exported, err := s.chain.Export(s.cfg.VATNumber)
	if err != nil {
		return Summary{}, err
	}
	if err := s.client.PushJournal(ctx, exported); err != nil {
		s.logger.Error("Journal push failed, local copy remains authoritative",
			slog.String("error", err.Error()))
	} else {
		synced = true
	}

	summary := Summary{
		TotalDocuments: res.TotalDocuments,
		TotalAmount:    res.TotalAmount,
		JournalSynced:  synced,
		UnsyncedCount:  len(s.backlog),
	}
	s.logger.Info("Session closed",
		slog.Int64("total_documents", summary.TotalDocuments),
		slog.String("total_amount", summary.TotalAmount.StringFixed(2)),
		slog.Bool("journal_synced", summary.JournalSynced),
		slog.Int("unsynced_count", summary.UnsyncedCount))
	return summary, nil
}

// ReportAnomaly pushes an anomaly record to PEL. Transport failures
// surface to the caller; there is no local retry queue for anomalies.
func (s *Session) ReportAnomaly(ctx context.Context, detail string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: anomaly payload not serializable", apperrors.ErrValidation)
	}
	return s.client.PushAnomaly(ctx, domain.Anomaly{
		AnomalyID:  uuid.NewString(),
		DeviceID:   s.cfg.DeviceID,
		Kind:       domain.AnomalyDeviceReported,
		Detail:     detail,
		Payload:    raw,
		RecordedAt: time.Now().UTC(),
	})
}

// Journal exposes the sealed journal after close, e.g. for re-export.
func (s *Session) Journal() (domain.Journal, error) {
	if s.chain == nil {
		return domain.Journal{}, fmt.Errorf("%w: session never opened", apperrors.ErrState)
	}
	return s.chain.Export(s.cfg.VATNumber)
}

// Verify re-checks the local chain integrity.
func (s *Session) Verify() error {
	if s.chain == nil {
		return fmt.Errorf("%w: session never opened", apperrors.ErrState)
	}
	return s.chain.Verify()
}

// Backlog returns a copy of the receipts still awaiting sync.
func (s *Session) Backlog() []domain.Receipt {
	out := make([]domain.Receipt, len(s.backlog))
	copy(out, s.backlog)
	return out
}
