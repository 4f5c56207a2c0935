package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/luminapos/corrispettivi/internal/apperrors"
	"github.com/luminapos/corrispettivi/internal/core/domain"
	portsrepo "github.com/luminapos/corrispettivi/internal/core/ports/repositories"
	portssvc "github.com/luminapos/corrispettivi/internal/core/ports/services"
	"github.com/luminapos/corrispettivi/internal/journal"
	"github.com/luminapos/corrispettivi/internal/utils"
	"github.com/shopspring/decimal"
)

// totalTolerance is the allowed drift between a journal's declared
// session total and the sum of its entry amounts.
var totalTolerance = decimal.RequireFromString("0.01")

// aggregationTimeout bounds the detached aggregation run triggered by
// a journal ingest.
const aggregationTimeout = 30 * time.Second

type ingestionService struct {
	receipts   portsrepo.ReceiptWriter
	journals   portsrepo.JournalWriter
	anomalies  portsrepo.AnomalyWriter
	seeds      portsrepo.SeedWriter
	aggregator portssvc.AggregationService
	logger     *slog.Logger
}

// NewIngestionService creates the PEL ingestion endpoint service.
func NewIngestionService(
	receipts portsrepo.ReceiptWriter,
	journals portsrepo.JournalWriter,
	anomalies portsrepo.AnomalyWriter,
	seeds portsrepo.SeedWriter,
	aggregator portssvc.AggregationService,
	logger *slog.Logger,
) portssvc.IngestionService {
	return &ingestionService{
		receipts:   receipts,
		journals:   journals,
		anomalies:  anomalies,
		seeds:      seeds,
		aggregator: aggregator,
		logger:     logger,
	}
}

var _ portssvc.IngestionService = (*ingestionService)(nil)

// IssueSeed generates and persists a random session token.
func (s *ingestionService) IssueSeed(ctx context.Context) (domain.SessionSeed, error) {
	token, err := utils.GenerateSecureRandomString(32)
	if err != nil {
		return domain.SessionSeed{}, fmt.Errorf("failed to generate session seed: %w", err)
	}
	seed := domain.SessionSeed{
		SessionID: uuid.NewString(),
		Seed:      token,
		IssuedAt:  time.Now().UTC(),
	}
	if err := s.seeds.SaveSeed(ctx, seed); err != nil {
		return domain.SessionSeed{}, fmt.Errorf("failed to persist session seed: %w", err)
	}
	return seed, nil
}

// IngestReceipt validates and persists one pushed receipt.
func (s *ingestionService) IngestReceipt(ctx context.Context, r domain.Receipt) (portssvc.ReceiptAck, error) {
	if r.DeviceID == "" {
		return portssvc.ReceiptAck{}, fmt.Errorf("%w: missing device ID", apperrors.ErrValidation)
	}
	if r.ReferenceDate.IsZero() {
		return portssvc.ReceiptAck{}, fmt.Errorf("%w: missing reference date", apperrors.ErrValidation)
	}
	if r.DocumentNumber <= 0 {
		return portssvc.ReceiptAck{}, fmt.Errorf("%w: document number must be positive", apperrors.ErrValidation)
	}
	if len(r.Lines) == 0 {
		return portssvc.ReceiptAck{}, fmt.Errorf("%w: receipt has no lines", apperrors.ErrValidation)
	}
	if r.ContentHash == "" {
		return portssvc.ReceiptAck{}, fmt.Errorf("%w: missing content hash", apperrors.ErrValidation)
	}

	if err := s.receipts.SaveReceipt(ctx, r); err != nil {
		return portssvc.ReceiptAck{}, fmt.Errorf("failed to persist receipt: %w", err)
	}

	receivedAt := time.Now().UTC()
	s.logger.Info("Receipt ingested",
		slog.String("device_id", r.DeviceID),
		slog.Int64("document_number", r.DocumentNumber),
		slog.Duration("transmission_latency", receivedAt.Sub(r.IssuedAt)))

	return portssvc.ReceiptAck{MessageID: uuid.NewString(), ReceivedAt: receivedAt}, nil
}

// IngestJournal validates, integrity-checks and persists a journal,
// then triggers aggregation without blocking the response. Integrity
// violations flag the journal as anomalous but never reject it: the
// forensic value of keeping bad data outweighs strict rejection.
func (s *ingestionService) IngestJournal(ctx context.Context, j domain.Journal) (portssvc.JournalAck, error) {
	if j.VATNumber == "" || j.DeviceID == "" {
		return portssvc.JournalAck{}, fmt.Errorf("%w: missing VAT number or device ID", apperrors.ErrValidation)
	}
	if j.ReferenceDate.IsZero() {
		return portssvc.JournalAck{}, fmt.Errorf("%w: missing reference date", apperrors.ErrValidation)
	}
	if len(j.Entries) == 0 {
		return portssvc.JournalAck{}, fmt.Errorf("%w: journal has no entries", apperrors.ErrValidation)
	}

	violations := validateJournalIntegrity(j)
	j.ReceivedAt = time.Now().UTC()
	if len(violations) == 0 {
		j.Status = domain.JournalVerified
	} else {
		j.Status = domain.JournalAnomalous
	}

	if err := s.journals.SaveJournal(ctx, j); err != nil {
		return portssvc.JournalAck{}, fmt.Errorf("failed to persist journal: %w", err)
	}

	if len(violations) > 0 {
		s.recordIntegrityAnomaly(ctx, j, violations)
		return portssvc.JournalAck{MessageID: uuid.NewString(), Status: portssvc.JournalAckAnomalous}, nil
	}

	// Aggregation runs detached: the device's response must not wait
	// for report construction or the authority round trip.
	go func(j domain.Journal) {
		aggCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), aggregationTimeout)
		defer cancel()
		if _, err := s.aggregator.AggregateJournal(aggCtx, j); err != nil {
			s.logger.Error("Aggregation failed after journal ingest",
				slog.String("device_id", j.DeviceID),
				slog.String("error", err.Error()))
		}
	}(j)

	return portssvc.JournalAck{MessageID: uuid.NewString(), Status: portssvc.JournalAckVerified}, nil
}

// RecordAnomaly stores a device-reported anomaly envelope as-is.
func (s *ingestionService) RecordAnomaly(ctx context.Context, a domain.Anomaly) error {
	if a.DeviceID == "" {
		return fmt.Errorf("%w: missing device ID", apperrors.ErrValidation)
	}
	if a.AnomalyID == "" {
		a.AnomalyID = uuid.NewString()
	}
	if a.RecordedAt.IsZero() {
		a.RecordedAt = time.Now().UTC()
	}
	if a.Kind == "" {
		a.Kind = domain.AnomalyDeviceReported
	}
	if err := s.anomalies.SaveAnomaly(ctx, a); err != nil {
		return fmt.Errorf("failed to persist anomaly: %w", err)
	}
	return nil
}

// validateJournalIntegrity applies the full PEL-side check over the
// received entries: contiguous progressives, per-entry required
// fields, declared total within tolerance, and the same cryptographic
// chain walk the device itself uses.
func validateJournalIntegrity(j domain.Journal) []string {
	var violations []string

	for i, e := range j.Entries {
		if e.Progressive != i+1 {
			violations = append(violations,
				fmt.Sprintf("entry %d: progressive %d not contiguous", i+1, e.Progressive))
		}
		if e.Timestamp.IsZero() {
			violations = append(violations, fmt.Sprintf("entry %d: missing timestamp", i+1))
		}
		switch e.Type {
		case domain.EntryOpen, domain.EntryDocument, domain.EntryClose:
		default:
			violations = append(violations, fmt.Sprintf("entry %d: unknown type %q", i+1, e.Type))
		}
		if p, ok := e.Payload.(domain.DocumentPayload); ok && p.Amount.IsNegative() {
			violations = append(violations, fmt.Sprintf("entry %d: negative amount", i+1))
		}
	}

	// A transmitted journal must be sealed; the chain walk alone cannot
	// tell a truncated chain from one that is still in progress.
	if last := j.Entries[len(j.Entries)-1]; last.Type != domain.EntryClose {
		violations = append(violations, "journal is not sealed with a CLOSE entry")
	}

	if diff := j.SumEntryAmounts().Sub(j.TotalAmount).Abs(); diff.GreaterThan(totalTolerance) {
		violations = append(violations,
			fmt.Sprintf("declared total %s differs from entry sum %s",
				j.TotalAmount.StringFixed(2), j.SumEntryAmounts().StringFixed(2)))
	}

	if err := journal.VerifyEntries(j.Entries); err != nil {
		violations = append(violations, err.Error())
	}

	return violations
}

func (s *ingestionService) recordIntegrityAnomaly(ctx context.Context, j domain.Journal, violations []string) {
	payload, _ := json.Marshal(map[string]any{
		"partitaIVA":      j.VATNumber,
		"dispositivo":     j.DeviceID,
		"dataRiferimento": j.ReferenceDate.UTC().Format("2006-01-02"),
		"violazioni":      violations,
	})
	anomaly := domain.Anomaly{
		AnomalyID:  uuid.NewString(),
		DeviceID:   j.DeviceID,
		Kind:       domain.AnomalyIntegrity,
		Detail:     strings.Join(violations, "; "),
		Payload:    payload,
		RecordedAt: time.Now().UTC(),
	}
	if err := s.anomalies.SaveAnomaly(ctx, anomaly); err != nil {
		s.logger.Error("Failed to persist integrity anomaly",
			slog.String("device_id", j.DeviceID),
			slog.String("error", err.Error()))
	}
	s.logger.Warn("Journal ingested with integrity violations",
		slog.String("device_id", j.DeviceID),
		slog.Int("violation_count", len(violations)))
}
